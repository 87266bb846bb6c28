// Package workspace holds the immutable snapshot model of the assistant's
// working state and the append-only chain of snapshots behind it.
package workspace

import (
	"fmt"
	"strings"

	"workbench/internal/fragment"
)

// Snapshot is one immutable state of the workspace: editable files,
// read-only files, virtual fragments and the task history. Every mutator
// returns a new Snapshot that shares fragment pointers with its parent;
// nothing is ever edited in place.
type Snapshot struct {
	seq      int
	action   string
	editable []fragment.Fragment
	readOnly []fragment.Fragment
	virtual  []fragment.Fragment
	history  []fragment.HistoryEntry

	// historyFrag presents the history entries as a fragment with an id
	// that is stable for the lifetime of this snapshot.
	historyFrag *fragment.History
}

func newSnapshot(action string,
	editable, readOnly, virtual []fragment.Fragment,
	history []fragment.HistoryEntry) *Snapshot {
	return &Snapshot{
		action:      action,
		editable:    editable,
		readOnly:    readOnly,
		virtual:     virtual,
		history:     history,
		historyFrag: fragment.NewHistory(history),
	}
}

// EmptySnapshot returns the initial workspace state.
func EmptySnapshot() *Snapshot {
	return newSnapshot("Welcome", nil, nil, nil, nil)
}

// Seq returns the snapshot's position in the chain, assigned at append time.
func (s *Snapshot) Seq() int { return s.seq }

// Action describes the operation that produced this snapshot.
func (s *Snapshot) Action() string { return s.action }

// Editable returns the editable-file fragments in order.
func (s *Snapshot) Editable() []fragment.Fragment { return s.editable }

// ReadOnly returns the read-only-file fragments in order.
func (s *Snapshot) ReadOnly() []fragment.Fragment { return s.readOnly }

// Virtual returns the virtual fragments in order.
func (s *Snapshot) Virtual() []fragment.Fragment { return s.virtual }

// HistoryEntries returns the task history in order.
func (s *Snapshot) HistoryEntries() []fragment.HistoryEntry { return s.history }

// HistoryFragment returns the history presented as a fragment. Its id is
// stable within this snapshot.
func (s *Snapshot) HistoryFragment() *fragment.History { return s.historyFrag }

// IsEmpty reports whether the snapshot holds no fragments and no history.
func (s *Snapshot) IsEmpty() bool {
	return len(s.editable) == 0 && len(s.readOnly) == 0 &&
		len(s.virtual) == 0 && len(s.history) == 0
}

// AllFragments returns the fragments in display order: history first (when
// non-empty), then read-only, virtual, and editable.
func (s *Snapshot) AllFragments() []fragment.Fragment {
	var out []fragment.Fragment
	if len(s.history) > 0 {
		out = append(out, s.historyFrag)
	}
	out = append(out, s.readOnly...)
	out = append(out, s.virtual...)
	out = append(out, s.editable...)
	return out
}

// FindByID locates a fragment in any group, including the history fragment.
func (s *Snapshot) FindByID(id string) (fragment.Fragment, bool) {
	if s.historyFrag.ID() == id {
		return s.historyFrag, true
	}
	for _, group := range [][]fragment.Fragment{s.editable, s.readOnly, s.virtual} {
		for _, f := range group {
			if f.ID() == id {
				return f, true
			}
		}
	}
	return nil, false
}

// IsEditable reports whether the fragment with the given id is in the
// editable group. Editable membership is advisory metadata carried by the
// snapshot, not a property of the fragment.
func (s *Snapshot) IsEditable(id string) bool {
	for _, f := range s.editable {
		if f.ID() == id {
			return true
		}
	}
	return false
}

func containsID(group []fragment.Fragment, id string) bool {
	for _, f := range group {
		if f.ID() == id {
			return true
		}
	}
	return false
}

func shortDescriptions(frags []fragment.Fragment) string {
	parts := make([]string, len(frags))
	for i, f := range frags {
		parts[i] = f.Description()
	}
	return strings.Join(parts, ", ")
}

// AddEditable returns a snapshot with the given fragments appended to the
// editable group. Fragments already present (by id) are skipped; if nothing
// is added the receiver is returned unchanged.
func (s *Snapshot) AddEditable(frags ...fragment.Fragment) *Snapshot {
	var toAdd []fragment.Fragment
	for _, f := range frags {
		if f != nil && !containsID(s.editable, f.ID()) {
			toAdd = append(toAdd, f)
		}
	}
	if len(toAdd) == 0 {
		return s
	}
	newEditable := append(append([]fragment.Fragment{}, s.editable...), toAdd...)
	return newSnapshot("Edit "+shortDescriptions(toAdd), newEditable, s.readOnly, s.virtual, s.history)
}

// AddReadOnly returns a snapshot with the given fragments appended to the
// read-only group, skipping ids already present.
func (s *Snapshot) AddReadOnly(frags ...fragment.Fragment) *Snapshot {
	var toAdd []fragment.Fragment
	for _, f := range frags {
		if f != nil && !containsID(s.readOnly, f.ID()) {
			toAdd = append(toAdd, f)
		}
	}
	if len(toAdd) == 0 {
		return s
	}
	newReadOnly := append(append([]fragment.Fragment{}, s.readOnly...), toAdd...)
	return newSnapshot("Read "+shortDescriptions(toAdd), s.editable, newReadOnly, s.virtual, s.history)
}

// AddVirtual returns a snapshot with the fragment appended to the virtual
// group.
func (s *Snapshot) AddVirtual(f fragment.Fragment) *Snapshot {
	newVirtual := append(append([]fragment.Fragment{}, s.virtual...), f)
	return newSnapshot("Added "+f.Description(), s.editable, s.readOnly, newVirtual, s.history)
}

// RemoveByIDs returns a snapshot omitting the fragments with the given ids
// from every group. Returns the receiver unchanged when no id matched.
func (s *Snapshot) RemoveByIDs(ids map[string]bool) *Snapshot {
	filter := func(group []fragment.Fragment) []fragment.Fragment {
		out := make([]fragment.Fragment, 0, len(group))
		for _, f := range group {
			if !ids[f.ID()] {
				out = append(out, f)
			}
		}
		return out
	}
	newEditable := filter(s.editable)
	newReadOnly := filter(s.readOnly)
	newVirtual := filter(s.virtual)

	removed := len(s.editable) + len(s.readOnly) + len(s.virtual) -
		len(newEditable) - len(newReadOnly) - len(newVirtual)
	if removed == 0 {
		return s
	}
	plural := "s"
	if removed == 1 {
		plural = ""
	}
	action := fmt.Sprintf("Removed %d fragment%s", removed, plural)
	return newSnapshot(action, newEditable, newReadOnly, newVirtual, s.history)
}

// RemoveUnreadable returns a snapshot omitting the fragment with the given
// id, described as unreadable.
func (s *Snapshot) RemoveUnreadable(id string) *Snapshot {
	f, ok := s.FindByID(id)
	if !ok {
		return s
	}
	next := s.RemoveByIDs(map[string]bool{id: true})
	if next == s {
		return s
	}
	return newSnapshot("Removed unreadable "+f.Description(),
		next.editable, next.readOnly, next.virtual, next.history)
}

// ClearAll returns an empty snapshot: all groups dropped, history reduced to
// an empty marker.
func (s *Snapshot) ClearAll() *Snapshot {
	return newSnapshot("Dropped all context", nil, nil, nil, nil)
}

// ClearHistory returns a snapshot with the task history cleared and the
// fragment groups untouched.
func (s *Snapshot) ClearHistory() *Snapshot {
	if len(s.history) == 0 {
		return s
	}
	return newSnapshot("Cleared task history", s.editable, s.readOnly, s.virtual, nil)
}

// AddHistoryEntry returns a snapshot with the entry appended to the task
// history. The entry's sequence number is assigned monotonically.
func (s *Snapshot) AddHistoryEntry(entry fragment.HistoryEntry, action string) *Snapshot {
	next := 1
	if n := len(s.history); n > 0 {
		next = s.history[n-1].Sequence + 1
	}
	entry.Sequence = next
	newHistory := append(append([]fragment.HistoryEntry{}, s.history...), entry)
	return newSnapshot(action, s.editable, s.readOnly, s.virtual, newHistory)
}

// WithCompressedHistory returns a snapshot whose history entries are
// replaced by the given (compressed) list.
func (s *Snapshot) WithCompressedHistory(entries []fragment.HistoryEntry) *Snapshot {
	return newSnapshot("Compressed history", s.editable, s.readOnly, s.virtual, entries)
}

// ToggleEditable returns a snapshot with the fragment moved between the
// editable and read-only groups. Only fragments backed by files can be
// editable; the receiver is returned unchanged otherwise.
func (s *Snapshot) ToggleEditable(id string) *Snapshot {
	remove := map[string]bool{id: true}

	for _, f := range s.editable {
		if f.ID() == id {
			next := s.RemoveByIDs(remove)
			newReadOnly := append(append([]fragment.Fragment{}, next.readOnly...), f)
			return newSnapshot("Marked read-only "+f.Description(),
				next.editable, newReadOnly, next.virtual, next.history)
		}
	}
	for _, f := range s.readOnly {
		if f.ID() == id {
			if len(f.Files()) == 0 {
				return s
			}
			next := s.RemoveByIDs(remove)
			newEditable := append(append([]fragment.Fragment{}, next.editable...), f)
			return newSnapshot("Marked editable "+f.Description(),
				newEditable, next.readOnly, next.virtual, next.history)
		}
	}
	return s
}
