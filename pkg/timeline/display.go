package timeline

import "github.com/marionet/marionet/pkg/frames"

// HandlePair carries the in/out control points shown for one visible
// keyframe, window-relative.
type HandlePair struct {
	In  *frames.ControlPoint
	Out *frames.ControlPoint
}

// Options is the bulk display payload for one refresh: the value window,
// the visible data, and the frame labels under each column.
type Options struct {
	YMin    float64
	YMax    float64
	Data    []float64
	XLabels []int
}

// Display is the render surface the engine publishes to on every refresh.
// All indices are window-relative (0 = first visible frame). Implementations
// draw; they never mutate engine or store state.
type Display interface {
	ApplyOptions(opts Options)
	SetKeyframes(rel []int)
	SetHandles(handles map[int]HandlePair)
	SetSelectedKeyframes(rel []int)
	SetSelectionRange(r *Range)
	SetGhostPoints(points []GhostPoint)
}
