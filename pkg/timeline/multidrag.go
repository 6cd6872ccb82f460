package timeline

import (
	"math"

	"github.com/marionet/marionet/pkg/frames"
	"github.com/marionet/marionet/pkg/undo"
)

// DragPhase is the multi-keyframe drag state machine's phase.
type DragPhase int

const (
	DragIdle DragPhase = iota
	// DragArmed: pointer is down on a selected keyframe but has not moved
	// past the start threshold; releasing now is a click, not a drag.
	DragArmed
	DragMoving
)

// DragStartThreshold is how far (in frame-label units) the pointer must
// move before an armed drag becomes a real one, so sloppy clicks don't
// nudge keyframes.
const DragStartThreshold = 0.1

type dragKey struct {
	index  int
	value  float64
	handle *frames.Handle
}

// MultiDrag moves a selected set of (possibly non-contiguous) keyframes by
// a uniform (Δframe, Δvalue). It snapshots the grabbed keys when armed and
// exposes ghost points for live preview; nothing touches the store until
// Commit.
type MultiDrag struct {
	phase DragPhase
	total int

	startFrame float64
	startValue float64
	// valueThreshold scales the vertical start threshold to the current
	// y-window so the gesture feels the same at any zoom.
	valueThreshold float64

	orig   []dragKey
	dFrame int
	dValue float64
}

// NewMultiDrag creates an idle drag engine for a timeline of the given
// length.
func NewMultiDrag(total int) *MultiDrag {
	return &MultiDrag{total: total}
}

// Phase returns the current state-machine phase.
func (d *MultiDrag) Phase() DragPhase { return d.phase }

// Deltas returns the current (Δframe, Δvalue).
func (d *MultiDrag) Deltas() (int, float64) { return d.dFrame, d.dValue }

// Arm begins a potential drag: the pointer went down at (frame, value) on a
// selected keyframe. keys holds snapshots of every selected keyframe, read
// from the store by the caller. valueThreshold is the vertical start
// threshold in value units (≤0 disables the vertical component).
func (d *MultiDrag) Arm(keys []DragKeySnapshot, frame, value, valueThreshold float64) {
	d.phase = DragArmed
	d.startFrame = frame
	d.startValue = value
	d.valueThreshold = valueThreshold
	d.dFrame = 0
	d.dValue = 0
	d.orig = d.orig[:0]
	for _, k := range keys {
		d.orig = append(d.orig, dragKey{index: k.Index, value: k.Value, handle: k.Handle})
	}
}

// DragKeySnapshot is the caller-provided snapshot of one grabbed keyframe.
type DragKeySnapshot struct {
	Index  int
	Value  float64
	Handle *frames.Handle
}

// SnapshotKeys reads drag snapshots for the given frames from the store.
func SnapshotKeys(store *frames.Store, field string, indices []int) []DragKeySnapshot {
	out := make([]DragKeySnapshot, 0, len(indices))
	for _, i := range indices {
		if !store.IsKeyframe(field, i) {
			continue
		}
		out = append(out, DragKeySnapshot{
			Index:  i,
			Value:  store.Value(field, i),
			Handle: store.Handle(field, i),
		})
	}
	return out
}

// Move updates the drag with the pointer's current (frame, value) position.
// Returns true once the gesture has crossed the start threshold and ghost
// points are worth rendering.
func (d *MultiDrag) Move(frame, value float64) bool {
	if d.phase == DragIdle {
		return false
	}
	if d.phase == DragArmed {
		df := math.Abs(frame - d.startFrame)
		dv := math.Abs(value - d.startValue)
		if df < DragStartThreshold && (d.valueThreshold <= 0 || dv < d.valueThreshold) {
			return false
		}
		d.phase = DragMoving
	}
	d.dFrame = int(math.Round(frame - d.startFrame))
	d.dValue = value - d.startValue
	return true
}

// clampIndex keeps a drag target on the timeline.
func (d *MultiDrag) clampIndex(i int) int {
	if i < 0 {
		return 0
	}
	if i >= d.total {
		return d.total - 1
	}
	return i
}

// Ghosts returns the live preview points for the current deltas.
func (d *MultiDrag) Ghosts() []GhostPoint {
	if d.phase != DragMoving {
		return nil
	}
	out := make([]GhostPoint, 0, len(d.orig))
	for _, k := range d.orig {
		out = append(out, GhostPoint{
			Frame:    d.clampIndex(k.index + d.dFrame),
			Value:    k.value + d.dValue,
			Selected: true,
		})
	}
	return out
}

// Cancel abandons the gesture without touching the store.
func (d *MultiDrag) Cancel() {
	d.phase = DragIdle
	d.orig = nil
	d.dFrame = 0
	d.dValue = 0
}

// DragPlan is the computed outcome of a finished drag: parallel
// before/after entry arrays over the affected union, plus the destination
// indices for the caller's neighbor-range recompute.
type DragPlan struct {
	Lo, Hi int
	Before []undo.Entry
	After  []undo.Entry
	Dests  []int
	DFrame int
	DValue float64
}

// Plan computes the drag's before/after state without writing anything.
// Source frames lose their keyframe flag only when Δframe ≠ 0; destination
// frames gain the moved handle data with values offset by Δvalue. Returns
// false when the drag never crossed the start threshold or moved nowhere.
func (d *MultiDrag) Plan(store *frames.Store, field string) (DragPlan, bool) {
	if d.phase != DragMoving || len(d.orig) == 0 {
		return DragPlan{}, false
	}
	if d.dFrame == 0 && d.dValue == 0 {
		return DragPlan{}, false
	}

	lo, hi := d.orig[0].index, d.orig[0].index
	for _, k := range d.orig {
		dst := d.clampIndex(k.index + d.dFrame)
		lo = minInt(lo, minInt(k.index, dst))
		hi = maxInt(hi, maxInt(k.index, dst))
	}

	before := CaptureRange(store, field, lo, hi)

	// Build the after-state on a scratch copy of the entries.
	after := make([]undo.Entry, len(before))
	copy(after, before)
	at := func(i int) *undo.Entry { return &after[i-lo] }

	if d.dFrame != 0 {
		for _, k := range d.orig {
			e := at(k.index)
			e.IsKey = false
			e.Handle = nil
		}
	}
	// Iterate in the drag direction so clamp collisions resolve toward the
	// timeline edge deterministically.
	keys := d.orig
	if d.dFrame > 0 {
		for i := len(keys) - 1; i >= 0; i-- {
			d.place(at, keys[i])
		}
	} else {
		for i := range keys {
			d.place(at, keys[i])
		}
	}

	lim := store.Limit(field)
	if lim != nil {
		for i := range after {
			after[i].Value = lim.Clamp(after[i].Value)
		}
	}

	plan := DragPlan{Lo: lo, Hi: hi, Before: before, After: after, DFrame: d.dFrame, DValue: d.dValue}
	for _, k := range d.orig {
		plan.Dests = append(plan.Dests, d.clampIndex(k.index+d.dFrame))
	}
	return plan, true
}

// Commit applies the drag to the store as one undo transaction covering the
// moved keys and the re-evaluated curve around them, then resets to idle.
// Returns the plan so callers can remap selection to its destinations.
func (d *MultiDrag) Commit(store *frames.Store, stack *undo.Stack, field string) (DragPlan, bool) {
	defer d.Cancel()
	plan, ok := d.Plan(store, field)
	if !ok {
		return DragPlan{}, false
	}
	committed := commitMutation(store, stack, field, plan.Lo, plan.Hi, func() {
		stack.ApplyEntries(field, plan.After)
	})
	return plan, committed
}

// place writes one moved keyframe into the after-state.
func (d *MultiDrag) place(at func(int) *undo.Entry, k dragKey) {
	dst := at(d.clampIndex(k.index + d.dFrame))
	dst.IsKey = true
	dst.Value = k.value + d.dValue
	h := k.handle.Clone()
	if h != nil && d.dValue != 0 {
		if h.In != nil {
			h.In.Value += d.dValue
		}
		if h.Out != nil {
			h.Out.Value += d.dValue
		}
	}
	dst.Handle = h
}
