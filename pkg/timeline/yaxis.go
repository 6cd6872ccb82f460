package timeline

import "math"

// DefaultMinHalfRange floors the value-space window so a flat series still
// renders with visible headroom.
const DefaultMinHalfRange = 0.5

// YAxis maintains the value-space window as (center, halfRange). Auto-fit
// runs only until the user manually zooms or pans; after that the engine
// respects the override until the field is refit explicitly.
type YAxis struct {
	Center    float64
	HalfRange float64

	minHalfRange float64
	initialized  bool
	userOverride bool
}

// NewYAxis creates an axis with the given half-range floor (≤0 uses the
// default).
func NewYAxis(minHalfRange float64) *YAxis {
	if minHalfRange <= 0 {
		minHalfRange = DefaultMinHalfRange
	}
	return &YAxis{HalfRange: minHalfRange, minHalfRange: minHalfRange}
}

// Min returns the bottom of the value window.
func (y *YAxis) Min() float64 { return y.Center - y.HalfRange }

// Max returns the top of the value window.
func (y *YAxis) Max() float64 { return y.Center + y.HalfRange }

// Initialized reports whether Fit has ever run.
func (y *YAxis) Initialized() bool { return y.initialized }

// UserOverride reports whether the user has manually adjusted the axis.
func (y *YAxis) UserOverride() bool { return y.userOverride }

// NeedsFit reports whether callers should auto-fit before display.
func (y *YAxis) NeedsFit() bool { return !y.initialized || !y.userOverride }

// Fit centers the window on the data with 10% padding, flooring at the
// minimum half-range. Non-finite samples are ignored. Degenerate input
// (empty, or min==max) centers on the single value with padding
// proportional to its magnitude, falling back to 1 near zero.
func (y *YAxis) Fit(values []float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		lo, hi = 0, 0
	}

	if lo == hi {
		pad := math.Abs(lo) * 0.1
		if pad < 1e-6 {
			pad = 1
		}
		y.Center = lo
		y.HalfRange = math.Max(pad, y.minHalfRange)
	} else {
		y.Center = (lo + hi) / 2
		y.HalfRange = math.Max((hi-lo)/2*1.1, y.minHalfRange)
	}
	y.initialized = true
	y.userOverride = false
}

// Zoom scales the half-range by mult, keeping anchorValue at the same
// normalized offset from center. Marks the axis user-overridden.
func (y *YAxis) Zoom(mult float64, anchorValue float64) {
	if mult <= 0 || math.IsNaN(mult) || math.IsInf(mult, 0) {
		return
	}
	offset := (anchorValue - y.Center) / y.HalfRange
	newHalf := math.Max(y.HalfRange*mult, y.minHalfRange)
	y.Center = anchorValue - offset*newHalf
	y.HalfRange = newHalf
	y.userOverride = true
}

// Pan shifts the window center. Marks the axis user-overridden.
func (y *YAxis) Pan(delta float64) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return
	}
	y.Center += delta
	y.userOverride = true
}

// ValueToRow maps a value to a fractional row position in a display of the
// given height, row 0 at the top of the window.
func (y *YAxis) ValueToRow(v float64, height int) float64 {
	span := 2 * y.HalfRange
	return (y.Max() - v) / span * float64(height-1)
}

// RowToValue is the inverse of ValueToRow.
func (y *YAxis) RowToValue(row float64, height int) float64 {
	span := 2 * y.HalfRange
	return y.Max() - row/float64(height-1)*span
}
