// Package undo implements the editor's undo store. Edits arrive as
// transactions of per-frame before/after entries captured by the timeline
// engine; undoing or redoing replays the matching side back through the
// frame store under a single batched write.
package undo

import (
	"log/slog"

	"github.com/marionet/marionet/pkg/events"
	"github.com/marionet/marionet/pkg/frames"
)

// Entry snapshots one frame's complete editable state: its value, keyframe
// flag, and handle data.
type Entry struct {
	Index  int
	Value  float64
	IsKey  bool
	Handle *frames.Handle
}

// Equal reports whether two entries describe identical state at the same
// index.
func (e Entry) Equal(o Entry) bool {
	return e.Index == o.Index &&
		e.Value == o.Value &&
		e.IsKey == o.IsKey &&
		e.Handle.Equal(o.Handle)
}

// Transaction is one reversible edit.
type Transaction struct {
	Field  string
	Before []Entry
	After  []Entry

	// Range-move metadata, present when the transaction came from a
	// segment relocation. Purely informational (labels, debugging); the
	// entry arrays alone are sufficient to reverse the edit.
	IsRangeMove   bool
	SrcStart      int
	SrcEnd        int
	DestStart     int
	AffectedStart int
	AffectedEnd   int
}

// Stack is a bounded LIFO undo store with a parallel redo stack. Pushing a
// new transaction clears the redo side.
type Stack struct {
	store *frames.Store
	bus   *events.Bus
	limit int

	done   []Transaction
	undone []Transaction
}

// NewStack creates an undo store over the given frame store. limit bounds
// the number of retained transactions (0 means a default of 200).
func NewStack(store *frames.Store, bus *events.Bus, limit int) *Stack {
	if limit <= 0 {
		limit = 200
	}
	return &Stack{store: store, bus: bus, limit: limit}
}

// CanUndo reports whether an undoable transaction exists.
func (s *Stack) CanUndo() bool { return len(s.done) > 0 }

// CanRedo reports whether a redoable transaction exists.
func (s *Stack) CanRedo() bool { return len(s.undone) > 0 }

// Depth returns the number of undoable transactions.
func (s *Stack) Depth() int { return len(s.done) }

// Push records an already-committed edit as one reversible transaction.
// Empty transactions (no changed entries) are dropped.
func (s *Stack) Push(tx Transaction) {
	if len(tx.Before) == 0 && len(tx.After) == 0 {
		return
	}
	s.done = append(s.done, tx)
	if len(s.done) > s.limit {
		s.done = s.done[1:]
	}
	s.undone = s.undone[:0]
	s.notify()
}

// PushRangeMove records a committed segment relocation.
func (s *Stack) PushRangeMove(field string, srcStart, srcEnd, destStart, affectedStart, affectedEnd int, before, after []Entry) {
	s.Push(Transaction{
		Field:         field,
		Before:        before,
		After:         after,
		IsRangeMove:   true,
		SrcStart:      srcStart,
		SrcEnd:        srcEnd,
		DestStart:     destStart,
		AffectedStart: affectedStart,
		AffectedEnd:   affectedEnd,
	})
}

// Undo reverts the most recent transaction. Returns false when there is
// nothing to undo.
func (s *Stack) Undo() bool {
	if len(s.done) == 0 {
		return false
	}
	tx := s.done[len(s.done)-1]
	s.done = s.done[:len(s.done)-1]
	s.ApplyEntries(tx.Field, tx.Before)
	s.undone = append(s.undone, tx)
	slog.Debug("undo applied", "field", tx.Field, "entries", len(tx.Before))
	s.notify()
	return true
}

// Redo reapplies the most recently undone transaction.
func (s *Stack) Redo() bool {
	if len(s.undone) == 0 {
		return false
	}
	tx := s.undone[len(s.undone)-1]
	s.undone = s.undone[:len(s.undone)-1]
	s.ApplyEntries(tx.Field, tx.After)
	s.done = append(s.done, tx)
	slog.Debug("redo applied", "field", tx.Field, "entries", len(tx.After))
	s.notify()
	return true
}

// ApplyEntries bulk-writes entry snapshots back into the frame store under
// one batched notification: value, key flag, then handle, in that order so
// the handle lands on a keyed frame.
func (s *Stack) ApplyEntries(field string, entries []Entry) {
	s.store.Batch(func() {
		for _, e := range entries {
			s.store.SetValue(field, e.Index, e.Value)
			if e.IsKey {
				s.store.AddKeyframe(field, e.Index)
				s.store.SetHandle(field, e.Index, e.Handle)
			} else {
				s.store.RemoveKeyframe(field, e.Index)
			}
		}
	})
}

// RunWithoutRecord executes fn under the frame store's batched write mode.
// Individual writes inside fn emit no notifications; one coalesced
// notification per field fires when fn returns. The caller is expected to
// push exactly one consolidated transaction afterward.
func (s *Stack) RunWithoutRecord(fn func()) {
	s.store.Batch(fn)
}

func (s *Stack) notify() {
	if s.bus != nil {
		s.bus.Publish(events.UndoStackChanged{CanUndo: s.CanUndo(), CanRedo: s.CanRedo()})
	}
}
