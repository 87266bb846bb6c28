package workspace

import (
	"context"
	"fmt"
	"image"
	"strings"

	"go.uber.org/zap"

	"workbench/internal/clipboard"
	"workbench/internal/fragment"
	"workbench/internal/task"
)

// Action is a user-level workspace operation.
type Action string

const (
	ActionEdit      Action = "edit"
	ActionRead      Action = "read"
	ActionSummarize Action = "summarize"
	ActionDrop      Action = "drop"
	ActionCopy      Action = "copy"
	ActionPaste     Action = "paste"
)

// Tracker answers file-tracking queries for the project. Implemented over
// git; injected so tests can fake it.
type Tracker interface {
	IsTracked(path fragment.FileRef) (bool, error)
	AllFiles() ([]fragment.FileRef, error)
}

// Summarizer produces a short description for pasted or captured content.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
	SummarizeImage(ctx context.Context, img image.Image) (string, error)
}

// Notifier receives the single human-readable message each terminal success
// or failure produces.
type Notifier interface {
	Info(msg string)
	Error(msg string)
}

// Manager exposes the workspace operations to the UI. Snapshot mutations
// run on the context task queue; IO-heavy work runs on the background
// queue.
type Manager struct {
	chain      *Chain
	exec       task.Executor
	tracker    Tracker
	summarizer Summarizer
	classifier *clipboard.Classifier
	notify     Notifier
	log        *zap.Logger
	root       string

	// instructions supplies the current free-form instruction text for
	// copy-all aggregation.
	instructions func() string

	// onCopy receives aggregated text from the Copy action (the UI places
	// it on the system clipboard).
	onCopy func(text string)
}

// ManagerOptions collects the collaborators a Manager needs.
type ManagerOptions struct {
	Chain        *Chain
	Executor     task.Executor
	Tracker      Tracker
	Summarizer   Summarizer
	Classifier   *clipboard.Classifier
	Notifier     Notifier
	Logger       *zap.Logger
	ProjectRoot  string
	Instructions func() string
	OnCopy       func(text string)
}

// NewManager wires a Manager from its collaborators.
func NewManager(opts ManagerOptions) *Manager {
	m := &Manager{
		chain:        opts.Chain,
		exec:         opts.Executor,
		tracker:      opts.Tracker,
		summarizer:   opts.Summarizer,
		classifier:   opts.Classifier,
		notify:       opts.Notifier,
		log:          opts.Logger,
		root:         opts.ProjectRoot,
		instructions: opts.Instructions,
		onCopy:       opts.OnCopy,
	}
	if m.instructions == nil {
		m.instructions = func() string { return "" }
	}
	if m.onCopy == nil {
		m.onCopy = func(string) {}
	}
	return m
}

// Chain returns the snapshot chain for read-only observers.
func (m *Manager) Chain() *Chain { return m.chain }

// CurrentSnapshot returns the top of the chain.
func (m *Manager) CurrentSnapshot() *Snapshot { return m.chain.Top() }

// SelectedSnapshot returns the snapshot currently shown.
func (m *Manager) SelectedSnapshot() *Snapshot { return m.chain.Selected() }

// Perform runs an action against the selected fragment ids on the context
// task queue and returns a handle for completion.
func (m *Manager) Perform(action Action, ids []string) *task.Handle {
	return m.exec.SubmitContext(string(action)+" action", func() error {
		switch action {
		case ActionEdit:
			return m.doEdit(ids)
		case ActionRead:
			return m.doRead(ids)
		case ActionSummarize:
			return m.doSummarize(ids)
		case ActionDrop:
			return m.doDrop(ids)
		case ActionCopy:
			return m.doCopy(ids)
		default:
			return fmt.Errorf("unknown action %q", action)
		}
	})
}

// Paste classifies the clipboard payload and appends at most one fragment.
func (m *Manager) Paste(payload clipboard.Payload) *task.Handle {
	return m.exec.SubmitContext("paste action", func() error {
		result, err := m.classifier.Classify(payload)
		if err != nil {
			m.notify.Error(err.Error())
			return err
		}
		if result.Warning != "" {
			m.notify.Error(result.Warning)
		}
		switch f := result.Fragment.(type) {
		case *fragment.PasteImage:
			m.submitImageSummaryPatch(f)
		default:
			if result.SummarizeText != "" {
				if p, ok := result.Fragment.(fragment.Patchable); ok {
					m.submitSummaryPatch(p, result.SummarizeText)
				}
			}
		}
		if _, err := m.chain.Push(func(s *Snapshot) (*Snapshot, error) {
			return s.AddVirtual(result.Fragment), nil
		}); err != nil {
			m.notify.Error(err.Error())
			return err
		}
		m.notify.Info(result.Message)
		return nil
	})
}

// filesFromSelection gathers the distinct file references the selected
// fragments touch, in selection order.
func (m *Manager) filesFromSelection(ids []string) []fragment.FileRef {
	snap := m.chain.Selected()
	seen := map[fragment.FileRef]bool{}
	var files []fragment.FileRef
	for _, id := range ids {
		f, ok := snap.FindByID(id)
		if !ok {
			continue
		}
		for _, fr := range f.Files() {
			if !seen[fr] {
				seen[fr] = true
				files = append(files, fr)
			}
		}
	}
	return files
}

func (m *Manager) doEdit(ids []string) error {
	files := m.filesFromSelection(ids)
	if len(files) == 0 {
		m.notify.Error("No files identified for editing in the selection")
		return nil
	}
	return m.EditFiles(files)
}

// EditFiles adds the tracked files among paths to the editable group,
// removing any read-only fragments for the same paths first.
func (m *Manager) EditFiles(paths []fragment.FileRef) error {
	var tracked []fragment.FileRef
	for _, p := range paths {
		ok, err := m.tracker.IsTracked(p)
		if err != nil {
			m.log.Warn("tracked-status query failed", zap.String("path", string(p)), zap.Error(err))
			continue
		}
		if ok {
			tracked = append(tracked, p)
		}
	}
	if len(tracked) == 0 {
		m.notify.Error("None of the selected files are tracked by the project")
		return nil
	}

	_, err := m.chain.Push(func(s *Snapshot) (*Snapshot, error) {
		next := s.RemoveByIDs(idsForPaths(s.ReadOnly(), tracked))
		frags := make([]fragment.Fragment, len(tracked))
		for i, p := range tracked {
			frags[i] = fragment.NewProjectPath(m.root, p)
		}
		return next.AddEditable(frags...), nil
	})
	if err != nil {
		return err
	}
	m.notify.Info("Edit " + joinPaths(tracked))
	return nil
}

func (m *Manager) doRead(ids []string) error {
	files := m.filesFromSelection(ids)
	if len(files) == 0 {
		m.notify.Error("No files identified for reading in the selection")
		return nil
	}
	return m.ReadFiles(files)
}

// ReadFiles adds the given files to the read-only group, removing any
// editable fragments for the same paths first.
func (m *Manager) ReadFiles(paths []fragment.FileRef) error {
	_, err := m.chain.Push(func(s *Snapshot) (*Snapshot, error) {
		next := s.RemoveByIDs(idsForPaths(s.Editable(), paths))
		frags := make([]fragment.Fragment, len(paths))
		for i, p := range paths {
			frags[i] = fragment.NewProjectPath(m.root, p)
		}
		return next.AddReadOnly(frags...), nil
	})
	if err != nil {
		return err
	}
	m.notify.Info("Read " + joinPaths(paths))
	return nil
}

func (m *Manager) doDrop(ids []string) error {
	if len(ids) == 0 {
		if m.chain.Top().IsEmpty() {
			m.notify.Info("No context to drop")
			return nil
		}
		if _, err := m.chain.PushFromSelected(func(s *Snapshot) (*Snapshot, error) {
			return s.ClearAll(), nil
		}); err != nil {
			m.notify.Error(dropErrorMessage(err))
			return err
		}
		m.notify.Info("Dropped all context")
		return nil
	}

	// A history id clears history entries only, independent of the other
	// ids in the same call.
	rest := map[string]bool{}
	clearHistory := false
	historyID := m.chain.Selected().HistoryFragment().ID()
	for _, id := range ids {
		if id == historyID {
			clearHistory = true
		} else {
			rest[id] = true
		}
	}

	if clearHistory {
		if _, err := m.chain.PushFromSelected(func(s *Snapshot) (*Snapshot, error) {
			return s.ClearHistory(), nil
		}); err != nil {
			m.notify.Error(dropErrorMessage(err))
			return err
		}
		m.notify.Info("Cleared task history")
	}

	if len(rest) > 0 {
		next, err := m.chain.PushFromSelected(func(s *Snapshot) (*Snapshot, error) {
			return s.RemoveByIDs(rest), nil
		})
		if err != nil {
			m.notify.Error(dropErrorMessage(err))
			return err
		}
		m.notify.Info(next.Action())
	}
	return nil
}

func dropErrorMessage(err error) string {
	if err == ErrStaleSelection {
		return "Cannot drop from an older snapshot; select the latest snapshot first"
	}
	return err.Error()
}

func (m *Manager) doSummarize(ids []string) error {
	files := m.filesFromSelection(ids)
	if len(files) == 0 {
		m.notify.Error("No files identified for summarization in the selection")
		return nil
	}

	m.exec.SubmitBackground("summarize sources", func() error {
		var parts []string
		for _, p := range files {
			text, err := fragment.NewProjectPath(m.root, p).Text()
			if err != nil {
				m.log.Warn("skipping unreadable file for summary", zap.String("path", string(p)), zap.Error(err))
				continue
			}
			summary, err := m.summarizer.Summarize(context.Background(), text)
			if err != nil {
				m.log.Warn("summarization failed", zap.String("path", string(p)), zap.Error(err))
				continue
			}
			parts = append(parts, fmt.Sprintf("%s:\n%s", p, summary))
		}
		if len(parts) == 0 {
			m.notify.Error("Nothing could be summarized from the selection")
			return nil
		}
		frag := fragment.NewString(strings.Join(parts, "\n\n"), "Summary of "+joinPaths(files))
		m.exec.SubmitContext("add summary", func() error {
			if _, err := m.chain.Push(func(s *Snapshot) (*Snapshot, error) {
				return s.AddVirtual(frag), nil
			}); err != nil {
				return err
			}
			m.notify.Info("Summary of " + joinPaths(files) + " added to context")
			return nil
		})
		return nil
	})
	return nil
}

func (m *Manager) doCopy(ids []string) error {
	text := m.CollectText(ids)
	m.onCopy(text)
	m.notify.Info("Content copied to clipboard")
	return nil
}

// CollectText aggregates fragment content for the Copy action. An empty
// selection aggregates the non-assistant transcript plus the current
// instruction text; otherwise the selected fragments are concatenated in
// selection order. Unreadable fragments are removed from the snapshot,
// reported, and skipped.
func (m *Manager) CollectText(ids []string) string {
	snap := m.chain.Selected()

	if len(ids) == 0 {
		var sb strings.Builder
		for _, e := range snap.HistoryEntries() {
			if e.Compressed {
				sb.WriteString(e.Summary)
				sb.WriteString("\n\n")
				continue
			}
			for _, msg := range e.Messages {
				if msg.Speaker == fragment.SpeakerAssistant {
					continue
				}
				sb.WriteString(msg.Text)
				sb.WriteString("\n\n")
			}
		}
		for _, f := range snap.AllFragments() {
			if f.Kind() == fragment.KindHistory || !f.IsText() {
				continue
			}
			text, err := f.Text()
			if err != nil {
				m.reportUnreadable(f, err)
				continue
			}
			sb.WriteString(text)
			sb.WriteString("\n\n")
		}
		sb.WriteString("\n<goal>\n")
		sb.WriteString(m.instructions())
		sb.WriteString("\n</goal>")
		return sb.String()
	}

	var parts []string
	for _, id := range ids {
		f, ok := snap.FindByID(id)
		if !ok {
			continue
		}
		text, err := f.Text()
		if err != nil {
			m.reportUnreadable(f, err)
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}

// reportUnreadable removes a fragment whose text cannot be read and tells
// the user, without aborting the surrounding operation.
func (m *Manager) reportUnreadable(f fragment.Fragment, err error) {
	m.log.Warn("fragment read failed", zap.String("id", f.ID()), zap.Error(err))
	m.notify.Error("Removed unreadable fragment: " + f.Description())
	m.exec.SubmitContext("remove unreadable fragment", func() error {
		_, pushErr := m.chain.Push(func(s *Snapshot) (*Snapshot, error) {
			return s.RemoveUnreadable(f.ID()), nil
		})
		return pushErr
	})
}

// DropUnreadable removes fragments the budget estimator found unreadable.
func (m *Manager) DropUnreadable(ids []string) *task.Handle {
	return m.exec.SubmitContext("remove unreadable fragments", func() error {
		for _, id := range ids {
			snap := m.chain.Top()
			f, ok := snap.FindByID(id)
			if !ok {
				continue
			}
			if _, err := m.chain.Push(func(s *Snapshot) (*Snapshot, error) {
				return s.RemoveUnreadable(id), nil
			}); err != nil {
				return err
			}
			m.notify.Error("Removed unreadable fragment: " + f.Description())
		}
		return nil
	})
}

// ToggleEditable flips a fragment between the editable and read-only
// groups.
func (m *Manager) ToggleEditable(id string) *task.Handle {
	return m.exec.SubmitContext("toggle editable", func() error {
		next, err := m.chain.Push(func(s *Snapshot) (*Snapshot, error) {
			return s.ToggleEditable(id), nil
		})
		if err != nil {
			return err
		}
		m.notify.Info(next.Action())
		return nil
	})
}

// RecordTask appends a finished task to the history.
func (m *Manager) RecordTask(entry fragment.HistoryEntry, action string) *task.Handle {
	return m.exec.SubmitContext("record task", func() error {
		_, err := m.chain.Push(func(s *Snapshot) (*Snapshot, error) {
			return s.AddHistoryEntry(entry, action), nil
		})
		return err
	})
}

// AddOutput captures an action transcript into the workspace as a virtual
// fragment.
func (m *Manager) AddOutput(title string, messages []fragment.Message) *task.Handle {
	return m.exec.SubmitContext("capture output", func() error {
		if _, err := m.chain.Push(func(s *Snapshot) (*Snapshot, error) {
			return s.AddVirtual(fragment.NewOutput(title, messages)), nil
		}); err != nil {
			return err
		}
		m.notify.Info("Content captured from output")
		return nil
	})
}

// CompressHistory summarizes every uncompressed history entry in the
// background and appends a snapshot with the compressed history. No-op when
// every entry is already compressed.
func (m *Manager) CompressHistory() *task.Handle {
	return m.exec.SubmitBackground("compress history", func() error {
		snap := m.chain.Top()
		if snap.HistoryFragment().UncompressedCount() == 0 {
			return nil
		}

		entries := snap.HistoryEntries()
		compressed := make([]fragment.HistoryEntry, len(entries))
		for i, e := range entries {
			if e.Compressed {
				compressed[i] = e
				continue
			}
			var sb strings.Builder
			for _, msg := range e.Messages {
				sb.WriteString(msg.Text)
				sb.WriteByte('\n')
			}
			summary, err := m.summarizer.Summarize(context.Background(), sb.String())
			if err != nil {
				m.log.Warn("history compression failed", zap.Int("sequence", e.Sequence), zap.Error(err))
				compressed[i] = e
				continue
			}
			compressed[i] = e.Compress(summary)
		}

		m.exec.SubmitContext("apply compressed history", func() error {
			_, err := m.chain.Push(func(s *Snapshot) (*Snapshot, error) {
				return s.WithCompressedHistory(compressed), nil
			})
			return err
		})
		return nil
	})
}

// submitSummaryPatch runs the summarization job for a freshly pasted
// fragment. The completion patches the fragment's description by identity;
// if the fragment has been dropped in the meantime the patched object is
// simply no longer referenced by any snapshot.
func (m *Manager) submitSummaryPatch(f fragment.Patchable, content string) {
	m.exec.SubmitBackground("summarize pasted content", func() error {
		summary, err := m.summarizer.Summarize(context.Background(), content)
		if err != nil {
			m.log.Warn("paste summarization failed", zap.String("id", f.ID()), zap.Error(err))
			f.FailSummary()
			return nil
		}
		f.SetSummary(summary)
		return nil
	})
}

// submitImageSummaryPatch is the image counterpart of submitSummaryPatch.
func (m *Manager) submitImageSummaryPatch(f *fragment.PasteImage) {
	m.exec.SubmitBackground("summarize pasted image", func() error {
		summary, err := m.summarizer.SummarizeImage(context.Background(), f.Image())
		if err != nil {
			m.log.Warn("image summarization failed", zap.String("id", f.ID()), zap.Error(err))
			f.FailSummary()
			return nil
		}
		f.SetSummary(summary)
		return nil
	})
}

func idsForPaths(group []fragment.Fragment, paths []fragment.FileRef) map[string]bool {
	want := map[fragment.FileRef]bool{}
	for _, p := range paths {
		want[p] = true
	}
	ids := map[string]bool{}
	for _, f := range group {
		for _, fr := range f.Files() {
			if want[fr] {
				ids[f.ID()] = true
			}
		}
	}
	return ids
}

func joinPaths(paths []fragment.FileRef) string {
	parts := make([]string, len(paths))
	for i, p := range paths {
		parts[i] = p.FileName()
	}
	return strings.Join(parts, ", ")
}
