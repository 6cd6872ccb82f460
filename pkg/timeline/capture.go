package timeline

import (
	"log/slog"

	"github.com/marionet/marionet/pkg/frames"
	"github.com/marionet/marionet/pkg/undo"
)

// CaptureRange snapshots one entry per frame of [start, end] from the
// committed store.
func CaptureRange(store *frames.Store, field string, start, end int) []undo.Entry {
	if start > end {
		return nil
	}
	out := make([]undo.Entry, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, undo.Entry{
			Index:  i,
			Value:  store.Value(field, i),
			IsKey:  store.IsKeyframe(field, i),
			Handle: store.Handle(field, i),
		})
	}
	return out
}

// FilterChanged drops index pairs whose value, key flag, and handle are all
// unchanged, keeping undo transactions minimal. Both slices must be
// parallel (same indices in the same order).
func FilterChanged(before, after []undo.Entry) (fb, fa []undo.Entry) {
	for i := range before {
		if i < len(after) && !before[i].Equal(after[i]) {
			fb = append(fb, before[i])
			fa = append(fa, after[i])
		}
	}
	return fb, fa
}

// ApplyMove writes a computed move's post-state into the store: values
// clamped to joint limits, key flags reconciled to match the moved key
// layout, handles reapplied. No batching and no undo capture; callers wrap
// it in the no-record batch themselves.
func ApplyMove(store *frames.Store, field string, m *MovedState) {
	lim := store.Limit(field)
	for i := m.AffectedStart; i <= m.AffectedEnd; i++ {
		v := m.ValueAt(i)
		if lim != nil {
			v = lim.Clamp(v)
		}
		store.SetValue(field, i, v)

		ki := m.KeyAt(i)
		if ki.IsKey {
			store.AddKeyframe(field, i)
			store.SetHandle(field, i, ki.Handle)
		} else {
			store.RemoveKeyframe(field, i)
		}
	}
}

// captureExtent widens [start, end] to the nearest keyframes strictly
// outside it. Those keys cannot move during an edit confined to the range,
// so the extent is stable across the edit, and curve re-evaluation bounded
// by it never writes outside the captured span.
func captureExtent(store *frames.Store, field string, start, end int) (int, int) {
	if p, ok := store.PrevKeyframe(field, start); ok {
		start = p
	}
	if n, ok := store.NextKeyframe(field, end); ok {
		end = n
	}
	return start, end
}

func keyframesWithin(store *frames.Store, field string, lo, hi int) []int {
	var out []int
	for _, k := range store.Keyframes(field) {
		if k >= lo && k <= hi {
			out = append(out, k)
		}
	}
	return out
}

// commitMutation runs mutate plus the curve re-evaluation under one
// no-record batch, captures before/after over the enclosing-keyframe extent
// of [start, end], and pushes the filtered diff as one transaction.
// Tangents of keys outside the extent depend only on values the edit cannot
// touch, so every write stays inside the captured span.
func commitMutation(store *frames.Store, stack *undo.Stack, field string, start, end int, mutate func()) bool {
	lo, hi := captureExtent(store, field, start, end)
	before := CaptureRange(store, field, lo, hi)
	stack.RunWithoutRecord(func() {
		mutate()
		store.RecomputeAutoTangents(field, keyframesWithin(store, field, lo, hi))
		store.RecomputeSegments(field, lo, hi)
	})
	after := CaptureRange(store, field, lo, hi)
	fb, fa := FilterChanged(before, after)
	if len(fb) == 0 {
		return false
	}
	stack.Push(undo.Transaction{Field: field, Before: fb, After: fa})
	return true
}

// CommitMove writes a computed range move into the store, re-evaluates the
// curve over the enclosing-keyframe extent of the affected union, and
// pushes exactly one consolidated range-move transaction. Degenerate
// (unapplied) moves are silent no-ops. Returns true when anything was
// committed.
func CommitMove(store *frames.Store, stack *undo.Stack, field string, m *MovedState) bool {
	if !m.Applied {
		return false
	}
	lo, hi := captureExtent(store, field, m.AffectedStart, m.AffectedEnd)
	before := CaptureRange(store, field, lo, hi)

	stack.RunWithoutRecord(func() {
		ApplyMove(store, field, m)
		store.RecomputeAutoTangents(field, keyframesWithin(store, field, lo, hi))
		store.RecomputeSegments(field, lo, hi)
	})

	after := CaptureRange(store, field, lo, hi)
	fb, fa := FilterChanged(before, after)
	if len(fb) == 0 {
		return false
	}
	stack.PushRangeMove(field, m.SrcStart, m.SrcEnd, m.DestStart, lo, hi, fb, fa)
	slog.Debug("range move committed",
		"field", field,
		"src", m.SrcStart, "srcEnd", m.SrcEnd,
		"dest", m.DestStart,
		"changed", len(fb))
	return true
}

// CommitEntries writes an after-state entry set and pushes one transaction
// holding the filtered diff. Shared by the draw, click-edit, and
// scale/shift commit paths, which write raw samples and skip the curve
// re-evaluation commitMutation performs.
func CommitEntries(store *frames.Store, stack *undo.Stack, field string, before, after []undo.Entry) bool {
	fb, fa := FilterChanged(before, after)
	if len(fb) == 0 {
		return false
	}
	stack.RunWithoutRecord(func() {
		stack.ApplyEntries(field, fa)
	})
	stack.Push(undo.Transaction{Field: field, Before: fb, After: fa})
	return true
}
