package timeline

import (
	"sort"

	"github.com/marionet/marionet/pkg/frames"
)

// Range is an inclusive frame span used for bulk range selections.
type Range struct {
	Start int
	End   int
}

// Valid reports whether the range is non-degenerate.
func (r Range) Valid() bool { return r.Start <= r.End }

// Selection tracks the selected keyframe set for a field. A keyframe
// selection and a range selection are mutually exclusive: activating one
// clears the other.
type Selection struct {
	keys map[int]struct{}
	rng  *Range
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{keys: make(map[int]struct{})}
}

// SelectKey adds frame i to the keyframe selection, clearing any range
// selection.
func (s *Selection) SelectKey(i int) {
	s.rng = nil
	s.keys[i] = struct{}{}
}

// DeselectKey removes frame i from the keyframe selection.
func (s *Selection) DeselectKey(i int) {
	delete(s.keys, i)
}

// IsSelected reports whether frame i is a selected keyframe.
func (s *Selection) IsSelected(i int) bool {
	_, ok := s.keys[i]
	return ok
}

// Keys returns the selected keyframe indices, ascending.
func (s *Selection) Keys() []int {
	out := make([]int, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// SetRange activates a range selection, clearing the keyframe selection.
// Degenerate ranges (start > end) clear instead.
func (s *Selection) SetRange(start, end int) {
	s.keys = make(map[int]struct{})
	if start > end {
		s.rng = nil
		return
	}
	s.rng = &Range{Start: start, End: end}
}

// Range returns the active range selection, or nil.
func (s *Selection) Range() *Range { return s.rng }

// Clear drops both selection kinds.
func (s *Selection) Clear() {
	s.keys = make(map[int]struct{})
	s.rng = nil
}

// Remap shifts every selected keyframe index through fn (used after a
// multi-keyframe drag relocates the selection).
func (s *Selection) Remap(fn func(int) int) {
	next := make(map[int]struct{}, len(s.keys))
	for k := range s.keys {
		next[fn(k)] = struct{}{}
	}
	s.keys = next
}

// KeyModel binds the keyframe/handle state machine to one field of the
// frame store. It owns the selection and computes the neighbor recompute
// ranges; actual tangent math lives in the store's curve evaluator.
type KeyModel struct {
	store     *frames.Store
	field     string
	Selection *Selection
}

// NewKeyModel creates the model for one field.
func NewKeyModel(store *frames.Store, field string) *KeyModel {
	return &KeyModel{store: store, field: field, Selection: NewSelection()}
}

// Field returns the bound field name.
func (k *KeyModel) Field() string { return k.field }

// NeighborRange is the curve span affected by an edit at frame:
// [prevKeyed(frame) ?? frame-2, nextKeyed(frame) ?? frame+1], clamped to
// the timeline.
func (k *KeyModel) NeighborRange(frame int) (int, int) {
	start := frame - 2
	if p, ok := k.store.PrevKeyframe(k.field, frame); ok {
		start = p
	}
	end := frame + 1
	if n, ok := k.store.NextKeyframe(k.field, frame); ok {
		end = n
	}
	if start < 0 {
		start = 0
	}
	if max := k.store.FrameCount() - 1; end > max {
		end = max
	}
	return start, end
}

// Toggle flips frame's keyed state. A frame becoming keyed is selected; a
// frame becoming unkeyed leaves the selection. Returns the new keyed state
// and the neighbor range whose curve must be re-evaluated.
func (k *KeyModel) Toggle(frame int) (keyed bool, start, end int) {
	start, end = k.NeighborRange(frame)
	keyed = k.store.ToggleKeyframe(k.field, frame)
	if keyed {
		k.Selection.SelectKey(frame)
	} else {
		k.Selection.DeselectKey(frame)
	}
	return keyed, start, end
}

// SetHandleType applies a handle type to every target frame. Automatic
// types delegate tangent recomputation to the store's curve evaluator;
// manual types only retag, leaving control points untouched until the next
// explicit edit.
func (k *KeyModel) SetHandleType(t frames.HandleType, targets []int) {
	for _, f := range targets {
		k.store.SetHandleType(k.field, f, t)
	}
	switch t {
	case frames.HandleAuto, frames.HandleAutoClamped, frames.HandleVector:
		k.store.RecomputeAutoTangents(k.field, targets)
	}
}

// CycleHandleType advances frame's handle type one step in the fixed
// cycling order and returns the new type. Non-keyed frames are a no-op and
// report HandleAuto.
func (k *KeyModel) CycleHandleType(frame int) frames.HandleType {
	if !k.store.IsKeyframe(k.field, frame) {
		return frames.HandleAuto
	}
	cur := frames.HandleAuto
	if h := k.store.Handle(k.field, frame); h != nil {
		cur = h.Type
	}
	next := cur.Next()
	k.SetHandleType(next, []int{frame})
	return next
}

// DragHandlePoint applies a handle control-point edit. Manual edits
// invalidate automatic tangent modes, so the handle type is forced to
// free. Returns the neighbor range for the (debounced) curve recompute.
func (k *KeyModel) DragHandlePoint(frame int, side frames.Side, pt frames.ControlPoint) (start, end int) {
	k.store.UpdateHandlePoint(k.field, frame, side, pt, frames.HandleFree)
	return k.NeighborRange(frame)
}
