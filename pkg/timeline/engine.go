package timeline

import (
	"log/slog"
	"math"
	"time"

	"github.com/marionet/marionet/pkg/events"
	"github.com/marionet/marionet/pkg/frames"
	"github.com/marionet/marionet/pkg/sched"
	"github.com/marionet/marionet/pkg/undo"
)

// Tool identifies the interaction state machines. Exactly one may be active
// for the engine at a time; beginning a new one cancels the current one and
// clears its preview.
type Tool int

const (
	ToolNone Tool = iota
	ToolDraw
	ToolHandleDrag
	ToolRangeMove
	ToolKeyDrag
)

// Config tunes the engine. Zero values fall back to the listed defaults.
type Config struct {
	// MinDisplayFrames/MaxDisplayFrames bound the visible window size.
	MinDisplayFrames int // default 5
	MaxDisplayFrames int // default 2000
	// MinHalfRange floors the y-axis window.
	MinHalfRange float64 // default 0.5
	// DrawBefore/DrawAfter are the ripple spread policies for the draw and
	// click-edit tools.
	DrawBefore Spread // default Decay(4)
	DrawAfter  Spread // default Decay(4)
	// RecomputeDebounce throttles curve re-evaluation during handle drags.
	RecomputeDebounce time.Duration // default 16ms
	// ClickGuard suppresses a click-edit arriving just after a handle drag
	// ends, so one gesture's mouse-up doesn't double as a click.
	ClickGuard time.Duration // default 150ms
	// UndoLimit bounds the undo stack.
	UndoLimit int // default 200
}

func (c Config) withDefaults() Config {
	if c.MinDisplayFrames <= 0 {
		c.MinDisplayFrames = MinDisplayFrames
	}
	if c.MaxDisplayFrames <= 0 {
		c.MaxDisplayFrames = MaxDisplayFrames
	}
	if c.MinHalfRange <= 0 {
		c.MinHalfRange = DefaultMinHalfRange
	}
	if c.DrawBefore == 0 && c.DrawAfter == 0 {
		c.DrawBefore = Decay(4)
		c.DrawAfter = Decay(4)
	}
	if c.RecomputeDebounce <= 0 {
		c.RecomputeDebounce = 16 * time.Millisecond
	}
	if c.ClickGuard <= 0 {
		c.ClickGuard = 150 * time.Millisecond
	}
	return c
}

// ViewState is the per-field navigation state the engine caches across
// field switches, keyed by field name. Revisiting a field restores its
// prior window and axis.
type ViewState struct {
	Window ViewWindow
	Axis   YAxis
}

// Engine is the timeline and curve-editing engine for one motion document.
// It owns no field data; committed state lives in the frame store and every
// edit flows through the undo capture protocol. Construct one Engine and
// hand it by reference to collaborators.
type Engine struct {
	cfg     Config
	store   *frames.Store
	stack   *undo.Stack
	bus     *events.Bus
	sched   *sched.Scheduler
	display Display

	field    string
	keyModel *KeyModel
	models   map[string]*KeyModel
	views    map[string]*ViewState

	viewport *Viewport
	yaxis    *YAxis
	playhead int

	preview Preview
	tool    Tool

	// Draw tool state.
	drawWork       []float64
	drawLo, drawHi int
	drawSnapshot   []float64

	// Handle drag state.
	hdFrame      int
	hdSide       frames.Side
	hdBefore     []undo.Entry
	hdLo, hdHi   int
	hdRecompute  *sched.Debouncer
	hdGuardUntil time.Time

	// Range move state.
	rmState  MovedState
	rmValues []float64
	rmKeys   []KeyInfo

	drag *MultiDrag
}

// NewEngine wires the engine to its collaborators. display may be nil until
// SetDisplay; refreshes are skipped while it is.
func NewEngine(cfg Config, store *frames.Store, stack *undo.Stack, bus *events.Bus, scheduler *sched.Scheduler) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		cfg:    cfg,
		store:  store,
		stack:  stack,
		bus:    bus,
		sched:  scheduler,
		models: make(map[string]*KeyModel),
		views:  make(map[string]*ViewState),
		drag:   NewMultiDrag(store.FrameCount()),
	}
	e.hdRecompute = sched.NewDebouncer(scheduler, cfg.RecomputeDebounce, e.flushHandleRecompute)
	if bus != nil {
		bus.Subscribe(func(ev events.Event) {
			if fc, ok := ev.(events.FieldChanged); ok && fc.Field == e.field {
				e.Refresh()
			}
		})
	}
	return e
}

// SetDisplay attaches the render surface.
func (e *Engine) SetDisplay(d Display) {
	e.display = d
}

// Field returns the active field name ("" before the first SelectField).
func (e *Engine) Field() string { return e.field }

// Viewport returns the active field's viewport (nil before SelectField).
func (e *Engine) Viewport() *Viewport { return e.viewport }

// YAxis returns the active field's value axis (nil before SelectField).
func (e *Engine) YAxis() *YAxis { return e.yaxis }

// Selection returns the active field's selection (nil before SelectField).
func (e *Engine) Selection() *Selection {
	if e.keyModel == nil {
		return nil
	}
	return e.keyModel.Selection
}

// Playhead returns the current playhead frame.
func (e *Engine) Playhead() int { return e.playhead }

// SelectField makes the named field active, saving the previous field's
// view state and restoring (or creating) the new one. Unknown fields are a
// silent no-op.
func (e *Engine) SelectField(name string) {
	if name == e.field || !e.store.HasField(name) {
		return
	}
	e.CancelInteraction()
	e.saveViewState()

	e.field = name
	if m, ok := e.models[name]; ok {
		e.keyModel = m
	} else {
		e.keyModel = NewKeyModel(e.store, name)
		e.models[name] = e.keyModel
	}

	if vs, ok := e.views[name]; ok {
		e.viewport = NewViewport(e.store.FrameCount())
		e.viewport.SetDisplayLimits(e.cfg.MinDisplayFrames, e.cfg.MaxDisplayFrames)
		e.viewport.Set(vs.Window.Start, vs.Window.Size)
		axis := vs.Axis
		e.yaxis = &axis
	} else {
		e.viewport = NewViewport(e.store.FrameCount())
		e.viewport.SetDisplayLimits(e.cfg.MinDisplayFrames, e.cfg.MaxDisplayFrames)
		e.yaxis = NewYAxis(e.cfg.MinHalfRange)
	}
	e.Refresh()
}

func (e *Engine) saveViewState() {
	if e.field == "" || e.viewport == nil {
		return
	}
	e.views[e.field] = &ViewState{Window: e.viewport.Window(), Axis: *e.yaxis}
}

// ── Navigation ──────────────────────────────────────────────────────────────

// ZoomView scales the visible frame window about an anchor frame.
func (e *Engine) ZoomView(factor float64, anchorFrame float64) {
	if e.viewport != nil && e.viewport.Zoom(factor, anchorFrame) {
		e.Refresh()
	}
}

// PanView shifts the visible frame window.
func (e *Engine) PanView(delta int) {
	if e.viewport != nil && e.viewport.Pan(delta) {
		e.Refresh()
	}
}

// ResizeLeftEdge drags the window's left edge.
func (e *Engine) ResizeLeftEdge(newStart int) {
	if e.viewport != nil && e.viewport.ResizeLeftEdge(newStart) {
		e.Refresh()
	}
}

// ResizeRightEdge drags the window's right edge.
func (e *Engine) ResizeRightEdge(newEnd int) {
	if e.viewport != nil && e.viewport.ResizeRightEdge(newEnd) {
		e.Refresh()
	}
}

// ZoomValue scales the value window about an anchor value.
func (e *Engine) ZoomValue(mult float64, anchorValue float64) {
	if e.yaxis == nil {
		return
	}
	e.yaxis.Zoom(mult, anchorValue)
	e.Refresh()
}

// PanValue shifts the value window.
func (e *Engine) PanValue(delta float64) {
	if e.yaxis == nil {
		return
	}
	e.yaxis.Pan(delta)
	e.Refresh()
}

// FitValues refits the y-axis to the field's visible data and re-enables
// auto-fit.
func (e *Engine) FitValues() {
	if e.yaxis == nil {
		return
	}
	e.yaxis.Fit(e.visibleValues())
	e.Refresh()
}

// SetPlayhead moves the playhead, clamped to the timeline.
func (e *Engine) SetPlayhead(frame int) {
	total := e.store.FrameCount()
	if frame < 0 {
		frame = 0
	}
	if frame >= total {
		frame = total - 1
	}
	if frame == e.playhead {
		return
	}
	e.playhead = frame
	e.Refresh()
}

// StepPlayhead moves the playhead by a signed number of frames, panning the
// window when the playhead walks off an edge.
func (e *Engine) StepPlayhead(delta int) {
	e.SetPlayhead(e.playhead + delta)
	if e.viewport != nil && !e.viewport.Window().Contains(e.playhead) {
		if e.playhead < e.viewport.Window().Start {
			e.viewport.Set(e.playhead, e.viewport.Window().Size)
		} else {
			e.viewport.Set(e.playhead-e.viewport.Window().Size+1, e.viewport.Window().Size)
		}
		e.Refresh()
	}
}

// ── Keyframe and handle edits ───────────────────────────────────────────────

// ToggleKeyframe flips the keyed state at frame and re-evaluates the
// surrounding curve.
func (e *Engine) ToggleKeyframe(frame int) {
	if e.keyModel == nil {
		return
	}
	e.CancelInteraction()
	// The neighbor range only looks at keys strictly before/after the
	// frame, so it is stable across the toggle itself.
	lo, hi := e.keyModel.NeighborRange(frame)
	commitMutation(e.store, e.stack, e.field, lo, hi, func() {
		e.keyModel.Toggle(frame)
	})
	e.emitSelectionChanged()
	e.Refresh()
}

// CycleHandleType advances the handle type at frame and returns the new
// type.
func (e *Engine) CycleHandleType(frame int) frames.HandleType {
	if e.keyModel == nil {
		return frames.HandleAuto
	}
	lo, hi := e.keyModel.NeighborRange(frame)
	var next frames.HandleType
	commitMutation(e.store, e.stack, e.field, lo, hi, func() {
		next = e.keyModel.CycleHandleType(frame)
	})
	e.Refresh()
	return next
}

// ── Draw tool ───────────────────────────────────────────────────────────────

// BeginDraw starts the freehand draw tool.
func (e *Engine) BeginDraw() {
	if e.keyModel == nil {
		return
	}
	e.CancelInteraction()
	e.tool = ToolDraw
	e.drawSnapshot = e.store.Values(e.field)
	e.drawWork = append([]float64(nil), e.drawSnapshot...)
	e.drawLo, e.drawHi = math.MaxInt, -1
}

// DrawAt applies one freehand sample: the delta at frame ripples across
// neighbors under the configured spread policies, clamped to joint limits.
// The result lands in the preview overlay, not the store.
func (e *Engine) DrawAt(frame int, value float64) {
	if e.tool != ToolDraw {
		return
	}
	total := e.store.FrameCount()
	if frame < 0 {
		frame = 0
	}
	if frame >= total {
		frame = total - 1
	}
	delta := value - e.drawWork[frame]
	e.drawWork = Ripple(e.drawWork, frame, delta, e.cfg.DrawBefore, e.cfg.DrawAfter)
	ClampSlice(e.drawWork, e.store.Limit(e.field))

	lo, hi := rippleExtent(frame, total, e.cfg.DrawBefore, e.cfg.DrawAfter)
	if lo < e.drawLo {
		e.drawLo = lo
	}
	if hi > e.drawHi {
		e.drawHi = hi
	}
	e.preview.SetGetters(e.drawLo, e.drawHi,
		func(i int) (float64, bool) { return e.drawWork[i], true },
		nil)
	e.Refresh()
}

// EndDraw commits the accumulated freehand edit as one transaction.
func (e *Engine) EndDraw() {
	if e.tool != ToolDraw {
		return
	}
	defer e.clearInteraction()
	if e.drawHi < e.drawLo {
		return
	}
	var before, after []undo.Entry
	for i := e.drawLo; i <= e.drawHi; i++ {
		base := undo.Entry{
			Index: i, Value: e.drawSnapshot[i],
			IsKey: e.store.IsKeyframe(e.field, i), Handle: e.store.Handle(e.field, i),
		}
		next := base
		next.Value = e.drawWork[i]
		before = append(before, base)
		after = append(after, next)
	}
	if CommitEntries(e.store, e.stack, e.field, before, after) {
		slog.Debug("draw committed", "field", e.field, "from", e.drawLo, "to", e.drawHi)
	}
}

// rippleExtent returns the index range a ripple at frame can influence.
func rippleExtent(frame, total int, before, after Spread) (int, int) {
	lo, hi := frame, frame
	switch before {
	case SpreadFull:
		lo = 0
	case SpreadNone:
	default:
		lo = maxInt(0, frame-int(before))
	}
	switch after {
	case SpreadFull:
		hi = total - 1
	case SpreadNone:
	default:
		hi = minInt(total-1, frame+int(after))
	}
	return lo, hi
}

// ClickEdit sets a single frame's value with the ripple spreads, committing
// immediately. Clicks landing inside the post-handle-drag guard window are
// dropped: they are the tail of the same gesture.
func (e *Engine) ClickEdit(frame int, value float64) {
	if e.keyModel == nil {
		return
	}
	if e.sched.Now().Before(e.hdGuardUntil) {
		return
	}
	e.CancelInteraction()
	total := e.store.FrameCount()
	if frame < 0 || frame >= total {
		return
	}
	values := e.store.Values(e.field)
	delta := value - values[frame]
	next := Ripple(values, frame, delta, e.cfg.DrawBefore, e.cfg.DrawAfter)
	ClampSlice(next, e.store.Limit(e.field))

	lo, hi := rippleExtent(frame, total, e.cfg.DrawBefore, e.cfg.DrawAfter)
	before := CaptureRange(e.store, e.field, lo, hi)
	after := make([]undo.Entry, len(before))
	copy(after, before)
	for i := range after {
		after[i].Value = next[after[i].Index]
	}
	CommitEntries(e.store, e.stack, e.field, before, after)
	e.Refresh()
}

// ── Handle drag ─────────────────────────────────────────────────────────────

// BeginHandleDrag starts dragging one control point of a keyed frame's
// handle. Non-keyed frames are a silent no-op.
func (e *Engine) BeginHandleDrag(frame int, side frames.Side) {
	if e.keyModel == nil || !e.store.IsKeyframe(e.field, frame) {
		return
	}
	e.CancelInteraction()
	e.tool = ToolHandleDrag
	e.hdFrame = frame
	e.hdSide = side
	e.hdLo, e.hdHi = e.keyModel.NeighborRange(frame)
	e.hdBefore = CaptureRange(e.store, e.field, e.hdLo, e.hdHi)
}

// UpdateHandleDrag moves the dragged control point. The handle update lands
// immediately (cheap); the curve re-evaluation is debounced to one
// animation-frame interval (expensive).
func (e *Engine) UpdateHandleDrag(pt frames.ControlPoint) {
	if e.tool != ToolHandleDrag {
		return
	}
	// Dragging a handle never adds or removes keys, so the neighbor range
	// captured at begin stays valid for the whole gesture.
	e.keyModel.DragHandlePoint(e.hdFrame, e.hdSide, pt)
	e.hdRecompute.Trigger()
	e.Refresh()
}

func (e *Engine) flushHandleRecompute() {
	if e.field == "" {
		return
	}
	e.stack.RunWithoutRecord(func() {
		e.store.RecomputeSegments(e.field, e.hdLo, e.hdHi)
	})
}

// EndHandleDrag commits the handle edit as one transaction and arms the
// click guard.
func (e *Engine) EndHandleDrag() {
	if e.tool != ToolHandleDrag {
		return
	}
	e.hdRecompute.Flush()
	after := CaptureRange(e.store, e.field, e.hdLo, e.hdHi)
	fb, fa := FilterChanged(e.hdBefore, after)
	e.stack.Push(undo.Transaction{Field: e.field, Before: fb, After: fa})
	e.hdGuardUntil = e.sched.Now().Add(e.cfg.ClickGuard)
	e.clearInteraction()
}

// ── Range move ──────────────────────────────────────────────────────────────

// BeginRangeMove starts relocating the active range selection. Without a
// valid range selection it is a silent no-op.
func (e *Engine) BeginRangeMove() {
	if e.keyModel == nil {
		return
	}
	r := e.keyModel.Selection.Range()
	if r == nil || !r.Valid() {
		return
	}
	e.CancelInteraction()
	e.tool = ToolRangeMove
	e.rmValues = e.store.Values(e.field)
	e.rmKeys = snapshotKeyInfo(e.store, e.field)
	e.rmState = ComputeMove(e.rmValues, e.rmKeys, r.Start, r.End, r.Start)
}

// UpdateRangeMove recomputes the move for a new target anchor and refreshes
// the preview overlay.
func (e *Engine) UpdateRangeMove(target int) {
	if e.tool != ToolRangeMove {
		return
	}
	r := e.keyModel.Selection.Range()
	e.rmState = ComputeMove(e.rmValues, e.rmKeys, r.Start, r.End, target)
	m := &e.rmState
	if m.Applied {
		e.preview.SetGetters(m.AffectedStart, m.AffectedEnd,
			func(i int) (float64, bool) { return m.ValueAt(i), true },
			func(i int) (KeyInfo, bool) { return m.KeyAt(i), true })
	} else {
		e.preview.Clear()
	}
	e.Refresh()
}

// EndRangeMove commits the pending move (when applied) as one consolidated
// range-move transaction, writes and curve re-evaluation included, and
// moves the range selection to the destination.
func (e *Engine) EndRangeMove() {
	if e.tool != ToolRangeMove {
		return
	}
	m := e.rmState
	defer e.clearInteraction()
	if !CommitMove(e.store, e.stack, e.field, &m) {
		return
	}
	e.keyModel.Selection.SetRange(m.DestStart, m.DestEnd)
	e.emitSelectionChanged()
}

func snapshotKeyInfo(store *frames.Store, field string) []KeyInfo {
	total := store.FrameCount()
	out := make([]KeyInfo, total)
	for _, k := range store.Keyframes(field) {
		out[k] = KeyInfo{IsKey: true, Handle: store.Handle(field, k)}
	}
	return out
}

// ── Range scale/shift ───────────────────────────────────────────────────────

// ScaleShiftRange maps every value v in the range selection to v*scale +
// offset as one transaction. Keys and handles stay put; handle control
// values follow the same mapping.
func (e *Engine) ScaleShiftRange(scale, offset float64) {
	if e.keyModel == nil {
		return
	}
	r := e.keyModel.Selection.Range()
	if r == nil || !r.Valid() {
		return
	}
	if math.IsNaN(scale) || math.IsInf(scale, 0) || math.IsNaN(offset) || math.IsInf(offset, 0) {
		return
	}
	e.CancelInteraction()

	lim := e.store.Limit(e.field)
	apply := func(v float64) float64 {
		v = v*scale + offset
		if lim != nil {
			v = lim.Clamp(v)
		}
		return v
	}
	before := CaptureRange(e.store, e.field, r.Start, r.End)
	after := make([]undo.Entry, len(before))
	for i, entry := range before {
		entry.Handle = entry.Handle.Clone()
		entry.Value = apply(entry.Value)
		if entry.Handle != nil {
			if entry.Handle.In != nil {
				entry.Handle.In.Value = apply(entry.Handle.In.Value)
			}
			if entry.Handle.Out != nil {
				entry.Handle.Out.Value = apply(entry.Handle.Out.Value)
			}
		}
		after[i] = entry
	}
	if CommitEntries(e.store, e.stack, e.field, before, after) {
		e.Refresh()
	}
}

// DeleteRangeKeyframes unkeys every keyframe inside the range selection as
// one transaction, then re-evaluates the affected curve.
func (e *Engine) DeleteRangeKeyframes() {
	if e.keyModel == nil {
		return
	}
	r := e.keyModel.Selection.Range()
	if r == nil || !r.Valid() {
		return
	}
	e.CancelInteraction()
	if commitMutation(e.store, e.stack, e.field, r.Start, r.End, func() {
		for i := r.Start; i <= r.End; i++ {
			e.store.RemoveKeyframe(e.field, i)
		}
	}) {
		e.Refresh()
	}
}

// ── Multi-keyframe drag ─────────────────────────────────────────────────────

// BeginKeyDrag arms a drag of the selected keyframe set from pointer
// position (frame, value). A no-op unless frame is a selected keyframe.
func (e *Engine) BeginKeyDrag(frame int, frameLabel, value float64) {
	if e.keyModel == nil || !e.keyModel.Selection.IsSelected(frame) {
		return
	}
	e.CancelInteraction()
	e.tool = ToolKeyDrag
	snaps := SnapshotKeys(e.store, e.field, e.keyModel.Selection.Keys())
	// Scale the vertical start threshold to the current zoom.
	e.drag.Arm(snaps, frameLabel, value, e.yaxis.HalfRange*0.02)
}

// UpdateKeyDrag feeds pointer motion into the drag; ghost points update
// immediately for responsiveness.
func (e *Engine) UpdateKeyDrag(frameLabel, value float64) {
	if e.tool != ToolKeyDrag {
		return
	}
	if e.drag.Move(frameLabel, value) {
		e.preview.SetGhosts(e.drag.Ghosts())
		e.Refresh()
	}
}

// EndKeyDrag commits the drag (if it ever crossed the start threshold) as
// one transaction covering the moved keys and the re-evaluated curve around
// them, then remaps the selection to the destinations.
func (e *Engine) EndKeyDrag() {
	if e.tool != ToolKeyDrag {
		return
	}
	plan, ok := e.drag.Commit(e.store, e.stack, e.field)
	e.clearInteraction()
	if !ok {
		return
	}

	if plan.DFrame != 0 {
		e.keyModel.Selection.Clear()
		for _, dst := range plan.Dests {
			e.keyModel.Selection.SelectKey(dst)
		}
		e.emitSelectionChanged()
	}
}

// ── Undo / redo ─────────────────────────────────────────────────────────────

// Undo reverts the last transaction.
func (e *Engine) Undo() bool {
	e.CancelInteraction()
	return e.stack.Undo()
}

// Redo reapplies the last undone transaction.
func (e *Engine) Redo() bool {
	e.CancelInteraction()
	return e.stack.Redo()
}

// ── Interaction lifecycle ───────────────────────────────────────────────────

// ActiveTool reports which interaction state machine is active.
func (e *Engine) ActiveTool() Tool { return e.tool }

// CancelInteraction abandons any in-flight interaction and clears its
// preview so stale overlays never reach the next render.
func (e *Engine) CancelInteraction() {
	if e.tool == ToolNone {
		return
	}
	if e.tool == ToolKeyDrag {
		e.drag.Cancel()
	}
	if e.tool == ToolHandleDrag {
		e.hdRecompute.Cancel()
	}
	e.clearInteraction()
}

func (e *Engine) clearInteraction() {
	e.tool = ToolNone
	e.preview.Clear()
	e.drawWork = nil
	e.drawSnapshot = nil
	e.rmValues = nil
	e.rmKeys = nil
	e.hdBefore = nil
	e.Refresh()
}

func (e *Engine) emitSelectionChanged() {
	if e.bus != nil {
		e.bus.Publish(events.SelectionChanged{Field: e.field})
	}
}

// ── Display refresh ─────────────────────────────────────────────────────────

func (e *Engine) visibleValues() []float64 {
	if e.viewport == nil {
		return nil
	}
	w := e.viewport.Window()
	out := make([]float64, w.Size)
	for i := 0; i < w.Size; i++ {
		abs := w.Start + i
		if v, ok := e.preview.ValueAt(abs); ok {
			out[i] = v
		} else {
			out[i] = e.store.Value(e.field, abs)
		}
	}
	return out
}

// Refresh recomputes the display payload from the committed store plus any
// active preview overlay and pushes it to the render surface.
func (e *Engine) Refresh() {
	if e.display == nil || e.viewport == nil {
		return
	}
	w := e.viewport.Window()
	data := e.visibleValues()

	// Auto-fit waits for the active gesture to end so the row-to-value
	// mapping stays stable under the pointer.
	if e.tool == ToolNone && e.yaxis.NeedsFit() {
		e.yaxis.Fit(data)
	}

	labels := make([]int, w.Size)
	var keys, selected []int
	handles := make(map[int]HandlePair)
	for i := 0; i < w.Size; i++ {
		abs := w.Start + i
		labels[i] = abs

		isKey := e.store.IsKeyframe(e.field, abs)
		var handle *frames.Handle
		if ki, ok := e.preview.KeyAt(abs); ok {
			isKey = ki.IsKey
			handle = ki.Handle
		} else if isKey {
			handle = e.store.Handle(e.field, abs)
		}
		if !isKey {
			continue
		}
		keys = append(keys, i)
		if e.keyModel != nil && e.keyModel.Selection.IsSelected(abs) {
			selected = append(selected, i)
		}
		if handle != nil {
			handles[i] = HandlePair{In: handle.In, Out: handle.Out}
		}
	}

	e.display.ApplyOptions(Options{
		YMin:    e.yaxis.Min(),
		YMax:    e.yaxis.Max(),
		Data:    data,
		XLabels: labels,
	})
	e.display.SetKeyframes(keys)
	e.display.SetHandles(handles)
	e.display.SetSelectedKeyframes(selected)

	var selRange *Range
	if e.keyModel != nil {
		if r := e.keyModel.Selection.Range(); r != nil {
			rel := Range{Start: r.Start - w.Start, End: r.End - w.Start}
			selRange = &rel
		}
	}
	e.display.SetSelectionRange(selRange)

	var ghosts []GhostPoint
	for _, g := range e.preview.Ghosts() {
		if w.Contains(g.Frame) {
			g.Frame -= w.Start
			ghosts = append(ghosts, g)
		}
	}
	e.display.SetGhostPoints(ghosts)
}
