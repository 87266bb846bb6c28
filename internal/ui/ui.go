// Package ui is the Bubble Tea front end: it renders the selected workspace
// snapshot, the context-budget footer, and routes key presses to workspace
// actions.
package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"workbench/internal/budget"
	"workbench/internal/model"
	"workbench/internal/workspace"
)

// ProfileSource returns the currently resolved model profiles.
type ProfileSource func() []model.Profile

// UI wraps the Bubble Tea program.
type UI struct {
	program *tea.Program
}

// New creates the UI over a wired workspace manager. The instruction buffer
// is shared with the manager's copy aggregation.
func New(manager *workspace.Manager, estimator *budget.Estimator, profiles ProfileSource, instructions *InstructionBuffer) *UI {
	m := newAppModel(manager, estimator, profiles, instructions)
	return &UI{program: tea.NewProgram(m, tea.WithAltScreen())}
}

// Start runs the program until the user quits.
func (u *UI) Start() error {
	_, err := u.program.Run()
	return err
}

// NotifyChainChanged is the chain's change callback; safe from any goroutine.
func (u *UI) NotifyChainChanged(*workspace.Snapshot) {
	u.program.Send(chainChangedMsg{})
}

// Info implements workspace.Notifier.
func (u *UI) Info(msg string) {
	u.program.Send(noticeMsg{text: msg})
}

// Error implements workspace.Notifier.
func (u *UI) Error(msg string) {
	u.program.Send(noticeMsg{text: msg, isError: true})
}

// NoticeRelay buffers notifications until the UI exists. The manager is
// constructed before the program, so early notices land here and flush on
// Bind.
type NoticeRelay struct {
	mu      sync.Mutex
	target  workspace.Notifier
	pending []pendingNotice
}

type pendingNotice struct {
	text    string
	isError bool
}

// Bind attaches the real notifier and flushes buffered notices.
func (r *NoticeRelay) Bind(target workspace.Notifier) {
	r.mu.Lock()
	r.target = target
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()
	for _, n := range pending {
		if n.isError {
			target.Error(n.text)
		} else {
			target.Info(n.text)
		}
	}
}

func (r *NoticeRelay) Info(msg string) { r.send(msg, false) }

func (r *NoticeRelay) Error(msg string) { r.send(msg, true) }

func (r *NoticeRelay) send(msg string, isError bool) {
	r.mu.Lock()
	if r.target == nil {
		r.pending = append(r.pending, pendingNotice{text: msg, isError: isError})
		r.mu.Unlock()
		return
	}
	target := r.target
	r.mu.Unlock()
	if isError {
		target.Error(msg)
	} else {
		target.Info(msg)
	}
}
