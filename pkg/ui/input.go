package ui

import (
	"math"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/marionet/marionet/pkg/frames"
	"github.com/marionet/marionet/pkg/timeline"
)

// HandleInput decodes raw terminal bytes and dispatches the resulting
// events synchronously. Run's pipeline does the same work split across
// goroutines; tests drive the app through this entry point.
func (a *App) HandleInput(data []byte) {
	var decoder uv.EventDecoder
	buf := data
	for len(buf) > 0 {
		n, ev := decoder.Decode(buf)
		if n == 0 {
			break
		}
		buf = buf[n:]
		if ev == nil {
			continue
		}
		a.handleEvent(ev)
	}
}

func (a *App) handleEvent(ev uv.Event) {
	switch e := ev.(type) {
	case uv.KeyPressEvent:
		a.handleKey(e)
	case uv.MouseClickEvent:
		if a.cfg.Mouse {
			a.handleMouseDown(e.Mouse())
		}
	case uv.MouseMotionEvent:
		if a.cfg.Mouse {
			a.handleMouseMotion(e.Mouse())
		}
	case uv.MouseReleaseEvent:
		if a.cfg.Mouse {
			a.handleMouseUp(e.Mouse())
		}
	case uv.MouseWheelEvent:
		if a.cfg.Mouse {
			a.handleWheel(e.Mouse())
		}
	}
}

// ── Key bindings ────────────────────────────────────────────────────────────

func (a *App) handleKey(ev uv.KeyPressEvent) {
	a.notice = ""
	ph := a.engine.Playhead()
	switch ev.String() {
	case "q", "ctrl+c":
		a.quit()

	case "left":
		a.engine.StepPlayhead(-1)
	case "right":
		a.engine.StepPlayhead(1)
	case "shift+left":
		a.engine.StepPlayhead(-10)
	case "shift+right":
		a.engine.StepPlayhead(10)
	case "home":
		a.engine.SetPlayhead(0)
	case "end":
		a.engine.SetPlayhead(a.store.FrameCount() - 1)
	case "space":
		a.togglePlayback()

	case "up":
		a.switchField(-1)
	case "down":
		a.switchField(1)

	case "k":
		a.engine.ToggleKeyframe(ph)
	case "h":
		a.engine.CycleHandleType(ph)

	case "v":
		a.markRange(ph)
	case "x", "delete":
		a.engine.DeleteRangeKeyframes()
	case "[":
		a.nudgeRange(-1)
	case "]":
		a.nudgeRange(1)

	case "s":
		a.engine.ScaleShiftRange(1.05, 0)
	case "a":
		a.engine.ScaleShiftRange(1/1.05, 0)
	case "o":
		a.engine.ScaleShiftRange(1, a.offsetStep())
	case "l":
		a.engine.ScaleShiftRange(1, -a.offsetStep())

	case "+", "=":
		a.engine.ZoomView(0.8, float64(ph))
	case "-", "_":
		a.engine.ZoomView(1.25, float64(ph))
	case "{":
		a.engine.PanView(-10)
	case "}":
		a.engine.PanView(10)
	case "ctrl+up":
		a.zoomValueAtCenter(0.8)
	case "ctrl+down":
		a.zoomValueAtCenter(1.25)
	case "f":
		a.engine.FitValues()

	case "p":
		a.pencil = !a.pencil

	case "w":
		a.save()

	case "u", "ctrl+z":
		a.engine.Undo()
	case "ctrl+r":
		a.engine.Redo()

	case "esc":
		a.escape()
	}
}

func (a *App) escape() {
	if a.engine.ActiveTool() != timeline.ToolNone {
		a.engine.CancelInteraction()
		return
	}
	a.rangeAnchor = -1
	if sel := a.engine.Selection(); sel != nil {
		sel.Clear()
		a.engine.Refresh()
	}
}

// markRange starts a keyboard range mark at the playhead, or extends the
// active mark to it.
func (a *App) markRange(ph int) {
	sel := a.engine.Selection()
	if sel == nil {
		return
	}
	if a.rangeAnchor < 0 {
		a.rangeAnchor = ph
	}
	lo, hi := a.rangeAnchor, ph
	if lo > hi {
		lo, hi = hi, lo
	}
	sel.SetRange(lo, hi)
	a.engine.Refresh()
}

// nudgeRange relocates the range selection by one frame as a complete
// range-move gesture. The move's target is an insert position: one past the
// range's end for a rightward step, one before its start for leftward.
func (a *App) nudgeRange(delta int) {
	sel := a.engine.Selection()
	if sel == nil {
		return
	}
	r := sel.Range()
	if r == nil {
		return
	}
	target := r.Start + delta
	if delta > 0 {
		target = r.End + 1 + delta
	}
	a.engine.BeginRangeMove()
	a.engine.UpdateRangeMove(target)
	a.engine.EndRangeMove()
	a.rangeAnchor = -1
}

func (a *App) offsetStep() float64 {
	if y := a.engine.YAxis(); y != nil {
		return y.HalfRange * 0.05
	}
	return 0.1
}

func (a *App) zoomValueAtCenter(mult float64) {
	if y := a.engine.YAxis(); y != nil {
		a.engine.ZoomValue(mult, y.Center)
	}
}

// ── Mouse gestures ──────────────────────────────────────────────────────────

type gesture int

const (
	gestureNone gesture = iota
	gestureClick
	gestureDraw
	gestureHandle
	gestureKeys
	gestureRange
	gestureSelect
	gesturePan
)

type mouseState struct {
	active      gesture
	anchorFrame int
	handleFrame int
	lastX       int
	moved       bool
	clickFrame  int
	clickValue  float64
}

// frameAt maps a terminal column to an absolute frame index.
func (a *App) frameAt(x int) (int, bool) {
	vp := a.engine.Viewport()
	if vp == nil {
		return 0, false
	}
	rel := x - a.view.PlotOrigin()
	w := vp.Window()
	if rel < 0 || rel >= w.Size {
		return 0, false
	}
	return w.Start + rel, true
}

// valueAt maps a terminal row to a value. Row 0 is the header.
func (a *App) valueAt(y int) (float64, bool) {
	yaxis := a.engine.YAxis()
	row := y - 1
	if yaxis == nil || row < 0 || row >= a.plotHeight {
		return 0, false
	}
	return yaxis.RowToValue(float64(row), a.plotHeight), true
}

// borderRow is the terminal row of the plot's bottom border, where the
// selection range renders.
func (a *App) borderRow() int { return a.plotHeight + 1 }

func (a *App) handleMouseDown(m uv.Mouse) {
	if m.Button == uv.MouseMiddle || m.Button == uv.MouseRight {
		a.mouse = mouseState{active: gesturePan, lastX: m.X}
		return
	}
	if m.Button != uv.MouseLeft {
		return
	}

	frame, okF := a.frameAt(m.X)
	if !okF {
		a.mouse = mouseState{}
		return
	}

	// Grabbing the selection range on the border row relocates it.
	if m.Y == a.borderRow() && a.inSelectionRange(frame) {
		a.engine.BeginRangeMove()
		a.mouse = mouseState{active: gestureRange}
		return
	}

	value, okV := a.valueAt(m.Y)
	if !okV {
		a.mouse = mouseState{}
		return
	}

	switch {
	case m.Mod&uv.ModShift != 0:
		a.mouse = mouseState{active: gestureSelect, anchorFrame: frame}
		a.setRange(frame, frame)

	case m.Mod&uv.ModAlt != 0 && a.inSelectionRange(frame):
		a.engine.BeginRangeMove()
		a.mouse = mouseState{active: gestureRange}

	case a.pencil:
		a.engine.BeginDraw()
		a.engine.DrawAt(frame, value)
		a.mouse = mouseState{active: gestureDraw}

	default:
		if hf, side, ok := a.hitHandle(m.X, m.Y); ok {
			a.engine.BeginHandleDrag(hf, side)
			a.mouse = mouseState{active: gestureHandle, handleFrame: hf}
			return
		}
		if a.hitKeyframe(m.Y, frame) {
			if sel := a.engine.Selection(); sel != nil && !sel.IsSelected(frame) {
				sel.SelectKey(frame)
				a.engine.Refresh()
			}
			a.engine.BeginKeyDrag(frame, float64(frame), value)
			a.mouse = mouseState{active: gestureKeys}
			return
		}
		a.mouse = mouseState{active: gestureClick, clickFrame: frame, clickValue: value}
	}
}

func (a *App) handleMouseMotion(m uv.Mouse) {
	switch a.mouse.active {
	case gesturePan:
		if dx := a.mouse.lastX - m.X; dx != 0 {
			a.engine.PanView(dx)
			a.mouse.lastX = m.X
		}

	case gestureDraw:
		if frame, ok := a.frameAt(m.X); ok {
			if value, ok := a.valueAt(m.Y); ok {
				a.engine.DrawAt(frame, value)
			}
		}

	case gestureHandle:
		frame, okF := a.frameAt(m.X)
		value, okV := a.valueAt(m.Y)
		if okF && okV {
			a.engine.UpdateHandleDrag(frames.ControlPoint{
				DFrame: float64(frame - a.mouse.handleFrame),
				Value:  value,
			})
		}

	case gestureKeys:
		frame, okF := a.frameAt(m.X)
		value, okV := a.valueAt(m.Y)
		if okF && okV {
			a.engine.UpdateKeyDrag(float64(frame), value)
		}

	case gestureRange:
		if frame, ok := a.frameAt(m.X); ok {
			a.engine.UpdateRangeMove(frame)
		}

	case gestureSelect:
		if frame, ok := a.frameAt(m.X); ok {
			lo, hi := a.mouse.anchorFrame, frame
			if lo > hi {
				lo, hi = hi, lo
			}
			a.setRange(lo, hi)
		}

	case gestureClick:
		a.mouse.moved = true
	}
}

func (a *App) handleMouseUp(m uv.Mouse) {
	st := a.mouse
	a.mouse = mouseState{}
	switch st.active {
	case gestureDraw:
		a.engine.EndDraw()
	case gestureHandle:
		a.engine.EndHandleDrag()
	case gestureKeys:
		a.engine.EndKeyDrag()
	case gestureRange:
		a.engine.EndRangeMove()
	case gestureClick:
		if !st.moved {
			a.engine.ClickEdit(st.clickFrame, st.clickValue)
		}
	}
}

func (a *App) handleWheel(m uv.Mouse) {
	var factor float64
	switch m.Button {
	case uv.MouseWheelUp:
		factor = 0.9
	case uv.MouseWheelDown:
		factor = 1.1
	default:
		return
	}

	switch {
	case m.Mod&uv.ModCtrl != 0:
		if value, ok := a.valueAt(m.Y); ok {
			a.engine.ZoomValue(factor, value)
		} else {
			a.zoomValueAtCenter(factor)
		}
	case m.Mod&uv.ModShift != 0:
		if factor < 1 {
			a.engine.PanView(-3)
		} else {
			a.engine.PanView(3)
		}
	default:
		anchor := float64(a.engine.Playhead())
		if frame, ok := a.frameAt(m.X); ok {
			anchor = float64(frame)
		}
		a.engine.ZoomView(factor, anchor)
	}
}

func (a *App) setRange(lo, hi int) {
	if sel := a.engine.Selection(); sel != nil {
		sel.SetRange(lo, hi)
		a.engine.Refresh()
	}
}

func (a *App) inSelectionRange(frame int) bool {
	sel := a.engine.Selection()
	if sel == nil {
		return false
	}
	r := sel.Range()
	return r != nil && frame >= r.Start && frame <= r.End
}

// hitKeyframe reports whether the cell under the cursor shows frame's
// keyframe glyph, with one row of vertical slack.
func (a *App) hitKeyframe(y, frame int) bool {
	if !a.store.IsKeyframe(a.engine.Field(), frame) {
		return false
	}
	yaxis := a.engine.YAxis()
	if yaxis == nil {
		return false
	}
	row := int(math.Round(yaxis.ValueToRow(a.store.Value(a.engine.Field(), frame), a.plotHeight)))
	return abs(row-(y-1)) <= 1
}

// hitHandle finds a handle control point rendered exactly at the cursor
// cell and returns its owning keyframe and side.
func (a *App) hitHandle(x, y int) (int, frames.Side, bool) {
	vp := a.engine.Viewport()
	yaxis := a.engine.YAxis()
	if vp == nil || yaxis == nil {
		return 0, frames.SideIn, false
	}
	w := vp.Window()
	col := x - a.view.PlotOrigin()
	row := y - 1
	field := a.engine.Field()

	for _, k := range a.store.Keyframes(field) {
		if !w.Contains(k) {
			continue
		}
		h := a.store.Handle(field, k)
		if h == nil {
			continue
		}
		for _, side := range []frames.Side{frames.SideIn, frames.SideOut} {
			pt := h.Point(side)
			if pt == nil {
				continue
			}
			pc := k - w.Start + int(math.Round(pt.DFrame))
			pr := int(math.Round(yaxis.ValueToRow(pt.Value, a.plotHeight)))
			if pc == col && pr == row {
				return k, side, true
			}
		}
	}
	return 0, frames.SideIn, false
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
