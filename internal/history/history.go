// Package history keeps a bounded in-memory ring of SnapshotDeltas anchored
// at a checkpoint Snapshot, and exposes Undo/Redo over that ring. It is the
// component that actually uses internal/delta for the undo/redo feature
// described by the time-travel server: the delta package only knows how to
// build and apply one delta, history knows how to walk a chain of them.
package history

import (
	"errors"

	"timetravel/internal/delta"
	"timetravel/internal/snapshot"
)

// ErrHistoryAtStart is returned by Undo when the cursor is already at the
// oldest entry in the ring (nothing left to undo).
var ErrHistoryAtStart = errors.New("history: already at the oldest recorded state")

// ErrHistoryAtEnd is returned by Redo when the cursor is already at the
// newest entry in the ring (nothing left to redo).
var ErrHistoryAtEnd = errors.New("history: already at the newest recorded state")

// Manager owns a checkpoint Snapshot plus a bounded ring of deltas recorded
// since that checkpoint. The cursor tracks the manager's current position
// within the ring: Undo moves it left (toward the checkpoint), Redo moves it
// right (toward the most recently recorded state). Only deltas are kept, not
// full Snapshots, so Current() reconstructs the cursor's state by chaining
// Forward across the ring each time it is asked — the ring is expected to
// stay small (capacity deltas), so this costs at most capacity Forward
// calls, not an unbounded walk.
type Manager struct {
	capacity int

	checkpoint *snapshot.Snapshot
	ring       []*delta.SnapshotDelta
	cursor     int // number of deltas currently applied, in [0, len(ring)]
}

// NewManager starts a history rooted at initial, with room for capacity
// deltas before the ring folds its oldest entry into a new checkpoint.
func NewManager(initial *snapshot.Snapshot, capacity int) *Manager {
	if capacity < 1 {
		capacity = 1
	}
	return &Manager{
		capacity:   capacity,
		checkpoint: initial.Clone(),
	}
}

// Current returns the Snapshot at the manager's present cursor position.
func (m *Manager) Current() *snapshot.Snapshot {
	s := m.checkpoint
	for i := 0; i < m.cursor; i++ {
		s = m.ring[i].Forward(s)
	}
	return s
}

// Record diffs s against the manager's current head and appends the result
// to the ring, discarding any entries beyond the cursor (the redo tail, the
// same semantics as a text editor's undo stack once a new edit is made).
// When the ring is full, the oldest entry is folded into the checkpoint by
// applying its Forward, exactly as the teacher's SQLiteIndex writer folds
// its oldest buffered rows out once the channel backs up, rather than
// growing the ring unboundedly.
func (m *Manager) Record(s *snapshot.Snapshot) {
	head := m.Current()
	d := delta.FromSnapshots(head, s)

	m.ring = append(m.ring[:m.cursor], d)
	m.cursor = len(m.ring)

	for len(m.ring) > m.capacity {
		m.checkpoint = m.ring[0].Forward(m.checkpoint)
		m.ring = m.ring[1:]
		m.cursor--
	}
}

// Undo moves the cursor one step toward the checkpoint and returns the state
// there, rebuilt by Current (Forward from the checkpoint; Restore is not used).
func (m *Manager) Undo() (*snapshot.Snapshot, error) {
	if m.cursor == 0 {
		return nil, ErrHistoryAtStart
	}
	m.cursor--
	return m.Current(), nil
}

// Redo moves the cursor one step toward the newest recorded state and
// returns the state there, rebuilt by Current.
func (m *Manager) Redo() (*snapshot.Snapshot, error) {
	if m.cursor == len(m.ring) {
		return nil, ErrHistoryAtEnd
	}
	m.cursor++
	return m.Current(), nil
}

// CanUndo reports whether Undo would succeed.
func (m *Manager) CanUndo() bool { return m.cursor > 0 }

// CanRedo reports whether Redo would succeed.
func (m *Manager) CanRedo() bool { return m.cursor < len(m.ring) }

// Depth returns the number of recorded entries still in the ring, not the
// lifetime count of Records (those folded into the checkpoint are gone).
func (m *Manager) Depth() int { return len(m.ring) }
