package ui

import (
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"workbench/internal/budget"
	"workbench/internal/clipboard"
	"workbench/internal/workspace"
)

// InstructionBuffer shares the free-form instruction text between the UI
// goroutine and the copy aggregation running on the task queue.
type InstructionBuffer struct {
	mu   sync.Mutex
	text string
}

// Set replaces the instruction text.
func (b *InstructionBuffer) Set(text string) {
	b.mu.Lock()
	b.text = text
	b.mu.Unlock()
}

// Get returns the instruction text.
func (b *InstructionBuffer) Get() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

// Messages delivered to the Bubble Tea loop.
type (
	chainChangedMsg struct{}
	noticeMsg       struct {
		text    string
		isError bool
	}
	estimateMsg budget.Estimate
)

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	Edit      key.Binding
	Read      key.Binding
	Summarize key.Binding
	Drop      key.Binding
	Copy      key.Binding
	Paste     key.Binding
	Toggle    key.Binding
	PrevSnap  key.Binding
	NextSnap  key.Binding
	Instruct  key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Read:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "read")),
		Summarize: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "summarize")),
		Drop:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "drop")),
		Copy:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
		Paste:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "paste")),
		Toggle:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "toggle editable")),
		PrevSnap:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "older snapshot")),
		NextSnap:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "newer snapshot")),
		Instruct:  key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "instructions")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type appModel struct {
	manager   *workspace.Manager
	estimator *budget.Estimator
	profiles  ProfileSource

	keys keyMap

	snapshot *workspace.Snapshot
	cursor   int
	selected map[string]bool

	estimate budget.Estimate
	notices  []noticeMsg

	instructions textinput.Model
	instructing  bool
	buffer       *InstructionBuffer

	width  int
	height int
}

// maxNotices bounds the notice log shown above the footer.
const maxNotices = 3

func newAppModel(manager *workspace.Manager, estimator *budget.Estimator, profiles ProfileSource, buffer *InstructionBuffer) *appModel {
	ti := textinput.New()
	ti.Placeholder = "What are you trying to do?"
	if buffer == nil {
		buffer = &InstructionBuffer{}
	}

	return &appModel{
		manager:      manager,
		estimator:    estimator,
		profiles:     profiles,
		keys:         defaultKeyMap(),
		snapshot:     manager.SelectedSnapshot(),
		selected:     map[string]bool{},
		instructions: ti,
		buffer:       buffer,
	}
}

func (m *appModel) Init() tea.Cmd {
	return m.estimateCmd()
}

func (m *appModel) estimateCmd() tea.Cmd {
	snap := m.snapshot
	return func() tea.Msg {
		return estimateMsg(m.estimator.Estimate(snap, m.profiles()))
	}
}

func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case chainChangedMsg:
		m.snapshot = m.manager.SelectedSnapshot()
		m.clampSelection()
		return m, m.estimateCmd()

	case estimateMsg:
		m.estimate = budget.Estimate(msg)
		if len(m.estimate.UnreadableIDs) > 0 {
			m.manager.DropUnreadable(m.estimate.UnreadableIDs)
		}
		return m, nil

	case noticeMsg:
		m.notices = append(m.notices, msg)
		if len(m.notices) > maxNotices {
			m.notices = m.notices[len(m.notices)-maxNotices:]
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.instructing {
		switch msg.String() {
		case "esc", "enter":
			m.instructing = false
			m.instructions.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.instructions, cmd = m.instructions.Update(msg)
		m.buffer.Set(m.instructions.Value())
		return m, cmd
	}

	frags := m.snapshot.AllFragments()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(frags)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Select):
		if m.cursor < len(frags) {
			id := frags[m.cursor].ID()
			if m.selected[id] {
				delete(m.selected, id)
			} else {
				m.selected[id] = true
			}
		}

	case key.Matches(msg, m.keys.Edit):
		m.manager.Perform(workspace.ActionEdit, m.selectedIDs())

	case key.Matches(msg, m.keys.Read):
		m.manager.Perform(workspace.ActionRead, m.selectedIDs())

	case key.Matches(msg, m.keys.Summarize):
		m.manager.Perform(workspace.ActionSummarize, m.selectedIDs())

	case key.Matches(msg, m.keys.Drop):
		m.manager.Perform(workspace.ActionDrop, m.selectedIDs())

	case key.Matches(msg, m.keys.Copy):
		m.manager.Perform(workspace.ActionCopy, m.selectedIDs())

	case key.Matches(msg, m.keys.Paste):
		return m, m.pasteCmd()

	case key.Matches(msg, m.keys.Toggle):
		if m.cursor < len(frags) {
			m.manager.ToggleEditable(frags[m.cursor].ID())
		}

	case key.Matches(msg, m.keys.PrevSnap):
		chain := m.manager.Chain()
		if seq := m.snapshot.Seq() - 1; seq >= 1 {
			if err := chain.Select(seq); err == nil {
				m.snapshot = chain.Selected()
				m.clampSelection()
				return m, m.estimateCmd()
			}
		}

	case key.Matches(msg, m.keys.NextSnap):
		chain := m.manager.Chain()
		if err := chain.Select(m.snapshot.Seq() + 1); err == nil {
			m.snapshot = chain.Selected()
			m.clampSelection()
			return m, m.estimateCmd()
		}

	case key.Matches(msg, m.keys.Instruct):
		m.instructing = true
		m.instructions.Focus()
		return m, textinput.Blink
	}

	return m, nil
}

func (m *appModel) pasteCmd() tea.Cmd {
	return func() tea.Msg {
		payload, err := clipboard.ReadSystem()
		if err != nil {
			return noticeMsg{text: err.Error(), isError: true}
		}
		m.manager.Paste(payload)
		return nil
	}
}

func (m *appModel) selectedIDs() []string {
	frags := m.snapshot.AllFragments()
	var ids []string
	for _, f := range frags {
		if m.selected[f.ID()] {
			ids = append(ids, f.ID())
		}
	}
	return ids
}

// clampSelection drops cursor and selections that no longer resolve in the
// current snapshot.
func (m *appModel) clampSelection() {
	frags := m.snapshot.AllFragments()
	if m.cursor >= len(frags) {
		m.cursor = len(frags) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	live := map[string]bool{}
	for _, f := range frags {
		live[f.ID()] = true
	}
	for id := range m.selected {
		if !live[id] {
			delete(m.selected, id)
		}
	}
}
