package workspace

import (
	"sync"

	"go.uber.org/zap"
)

// ChangeFunc is invoked after every successful chain append, outside the
// chain lock, with the new top snapshot.
type ChangeFunc func(*Snapshot)

// Chain is the append-only sequence of snapshots. All mutation goes through
// Push under a single writer lock, so a read-modify-append cycle can never
// interleave with another against the same top pointer.
type Chain struct {
	mu        sync.RWMutex
	snapshots []*Snapshot
	selected  int
	onChange  ChangeFunc
	log       *zap.Logger
}

// NewChain creates a chain seeded with the initial empty snapshot.
func NewChain(log *zap.Logger, onChange ChangeFunc) *Chain {
	first := EmptySnapshot()
	first.seq = 1
	return &Chain{
		snapshots: []*Snapshot{first},
		selected:  0,
		onChange:  onChange,
		log:       log,
	}
}

// Top returns the most recently appended snapshot.
func (c *Chain) Top() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshots[len(c.snapshots)-1]
}

// Selected returns the snapshot currently shown, which may lag behind Top
// while the user browses history.
func (c *Chain) Selected() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshots[c.selected]
}

// Len returns the number of snapshots in the chain.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snapshots)
}

// Select moves the selection pointer to the snapshot with the given
// sequence number.
func (c *Chain) Select(seq int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.snapshots {
		if s.seq == seq {
			c.selected = i
			return nil
		}
	}
	return ErrUnknownSnapshot
}

// SelectTop moves the selection pointer back to the top snapshot.
func (c *Chain) SelectTop() {
	c.mu.Lock()
	c.selected = len(c.snapshots) - 1
	c.mu.Unlock()
}

// SelectedIsTop reports whether the selection points at the top snapshot.
func (c *Chain) SelectedIsTop() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected == len(c.snapshots)-1
}

// Push transforms the top snapshot and appends the result. When the
// transform returns the top unchanged (or an error) nothing is appended.
// Appending moves the selection to the new top and fires the change
// callback.
func (c *Chain) Push(transform func(*Snapshot) (*Snapshot, error)) (*Snapshot, error) {
	return c.push(transform, false)
}

// PushFromSelected is Push restricted to the case where the selected
// snapshot is still the top; it returns ErrStaleSelection otherwise, with
// no mutation. Drop operations use this to avoid silently orphaning later
// snapshots.
func (c *Chain) PushFromSelected(transform func(*Snapshot) (*Snapshot, error)) (*Snapshot, error) {
	return c.push(transform, true)
}

func (c *Chain) push(transform func(*Snapshot) (*Snapshot, error), requireSelectedTop bool) (*Snapshot, error) {
	c.mu.Lock()
	if requireSelectedTop && c.selected != len(c.snapshots)-1 {
		c.mu.Unlock()
		return nil, ErrStaleSelection
	}
	top := c.snapshots[len(c.snapshots)-1]
	next, err := transform(top)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if next == nil || next == top {
		c.mu.Unlock()
		return top, nil
	}
	next.seq = top.seq + 1
	c.snapshots = append(c.snapshots, next)
	c.selected = len(c.snapshots) - 1
	c.mu.Unlock()

	c.log.Debug("snapshot appended",
		zap.Int("seq", next.seq),
		zap.String("action", next.action))
	if c.onChange != nil {
		c.onChange(next)
	}
	return next, nil
}
