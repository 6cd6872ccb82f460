// Package timeline implements the keyframe timeline and curve-editing
// engine: the scrollable time×value viewport, the keyframe/handle model,
// ripple propagation, range relocation, multi-keyframe dragging, the
// non-committing preview overlay, and undo diff capture. Everything here is
// driven by a single-threaded event loop; committed data lives in the frame
// store, never in this package.
package timeline

import "math"

// Display-window bounds. Config may narrow them per user preference but the
// engine enforces these hard limits.
const (
	MinDisplayFrames = 5
	MaxDisplayFrames = 2000
)

// ViewWindow is the visible frame range: size frames starting at Start.
type ViewWindow struct {
	Start int
	Size  int
}

// End returns the last visible frame index (inclusive).
func (w ViewWindow) End() int { return w.Start + w.Size - 1 }

// Contains reports whether frame i is visible.
func (w ViewWindow) Contains(i int) bool { return i >= w.Start && i <= w.End() }

// Viewport maintains the visible frame window inside the total frame count.
// All mutators clamp to the window invariant and report whether the clamped
// result actually changed, so callers can skip redundant refreshes.
type Viewport struct {
	total    int
	min, max int
	win      ViewWindow
}

// NewViewport creates a viewport showing as much of the timeline as the
// display limits allow, starting at frame 0.
func NewViewport(total int) *Viewport {
	v := &Viewport{total: total, min: MinDisplayFrames, max: MaxDisplayFrames}
	v.win = v.clamp(0, total)
	return v
}

// Window returns the current visible window.
func (v *Viewport) Window() ViewWindow { return v.win }

// Total returns the total frame count.
func (v *Viewport) Total() int { return v.total }

// SetDisplayLimits overrides the min/max visible-frame bounds, keeping them
// inside the engine's hard limits, and re-clamps the current window.
func (v *Viewport) SetDisplayLimits(min, max int) {
	if min < MinDisplayFrames {
		min = MinDisplayFrames
	}
	if max > MaxDisplayFrames || max <= 0 {
		max = MaxDisplayFrames
	}
	if max < min {
		max = min
	}
	v.min, v.max = min, max
	v.win = v.clamp(v.win.Start, v.win.Size)
}

// clamp enforces the window invariant: min ≤ size ≤ min(max, total) and
// start+size ≤ total, preferring to keep start fixed and shrink size from
// the tail. Start gives way only when the minimum size no longer fits
// after it.
func (v *Viewport) clamp(start, size int) ViewWindow {
	maxSize := v.max
	if v.total < maxSize {
		maxSize = v.total
	}
	if size > maxSize {
		size = maxSize
	}
	minSize := v.min
	if minSize > maxSize {
		minSize = maxSize
	}
	if size < minSize {
		size = minSize
	}
	if start < 0 {
		start = 0
	}
	if start+size > v.total {
		size = v.total - start
		if size < minSize {
			size = minSize
			start = v.total - size
		}
	}
	return ViewWindow{Start: start, Size: size}
}

// Set replaces the window with the clamped (start, size) and reports
// whether anything changed.
func (v *Viewport) Set(start, size int) bool {
	next := v.clamp(start, size)
	if next == v.win {
		return false
	}
	v.win = next
	return true
}

// Zoom scales the window size by factor, keeping anchorFrame at the same
// normalized position within the window. factor < 1 zooms in.
func (v *Viewport) Zoom(factor float64, anchorFrame float64) bool {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return false
	}
	oldSize := float64(v.win.Size)
	newSize := int(math.Round(oldSize * factor))
	// Clamp size first so the anchor offset uses the real new size.
	maxSize := v.max
	if v.total < maxSize {
		maxSize = v.total
	}
	if newSize > maxSize {
		newSize = maxSize
	}
	if newSize < v.min {
		newSize = v.min
	}
	ratio := (anchorFrame - float64(v.win.Start)) / oldSize
	newStart := int(math.Round(anchorFrame - ratio*float64(newSize)))
	// Zoom keeps the new size; the start clamps into [0, total-size].
	if newStart > v.total-newSize {
		newStart = v.total - newSize
	}
	if newStart < 0 {
		newStart = 0
	}
	return v.Set(newStart, newSize)
}

// Pan shifts the window start by delta frames, saturating at either end
// without changing the size.
func (v *Viewport) Pan(delta int) bool {
	start := v.win.Start + delta
	if start > v.total-v.win.Size {
		start = v.total - v.win.Size
	}
	if start < 0 {
		start = 0
	}
	return v.Set(start, v.win.Size)
}

// ResizeLeftEdge moves the window's left edge to newStart while holding the
// right edge fixed. Changes that would shrink below the minimum size are
// rejected.
func (v *Viewport) ResizeLeftEdge(newStart int) bool {
	end := v.win.End()
	if newStart < 0 {
		newStart = 0
	}
	size := end - newStart + 1
	if size < v.min {
		return false
	}
	return v.Set(newStart, size)
}

// ResizeRightEdge moves the window's right edge to newEnd while holding the
// left edge fixed.
func (v *Viewport) ResizeRightEdge(newEnd int) bool {
	if newEnd > v.total-1 {
		newEnd = v.total - 1
	}
	size := newEnd - v.win.Start + 1
	if size < v.min {
		return false
	}
	return v.Set(v.win.Start, size)
}
