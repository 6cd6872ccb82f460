package frames

// HandleType selects how a keyframe's bezier handles are maintained.
type HandleType int

const (
	// HandleAuto derives smooth tangents from neighboring keys.
	HandleAuto HandleType = iota
	// HandleAutoClamped is HandleAuto with flat tangents at local extrema,
	// preventing overshoot.
	HandleAutoClamped
	// HandleFree leaves both control points wherever the user put them.
	HandleFree
	// HandleAligned keeps in/out collinear through the key.
	HandleAligned
	// HandleVector points each control point straight at its neighbor key.
	HandleVector
)

// Next returns the successor in the fixed cycling order
// auto → auto_clamped → free → aligned → vector → auto.
func (t HandleType) Next() HandleType {
	switch t {
	case HandleAuto:
		return HandleAutoClamped
	case HandleAutoClamped:
		return HandleFree
	case HandleFree:
		return HandleAligned
	case HandleAligned:
		return HandleVector
	default:
		return HandleAuto
	}
}

func (t HandleType) String() string {
	switch t {
	case HandleAuto:
		return "auto"
	case HandleAutoClamped:
		return "auto_clamped"
	case HandleFree:
		return "free"
	case HandleAligned:
		return "aligned"
	case HandleVector:
		return "vector"
	default:
		return "unknown"
	}
}

// Side names one of a handle's two control points.
type Side int

const (
	SideIn Side = iota
	SideOut
)

func (s Side) String() string {
	if s == SideIn {
		return "in"
	}
	return "out"
}

// ControlPoint is one bezier control point, stored as a frame offset
// relative to its keyframe plus an absolute value.
type ControlPoint struct {
	DFrame float64
	Value  float64
}

// Handle carries a keyframe's bezier control data. In or Out may be nil
// when that side has never been computed or edited.
type Handle struct {
	Type HandleType
	In   *ControlPoint
	Out  *ControlPoint
}

// Clone returns a deep copy. Clone of nil is nil.
func (h *Handle) Clone() *Handle {
	if h == nil {
		return nil
	}
	c := &Handle{Type: h.Type}
	if h.In != nil {
		in := *h.In
		c.In = &in
	}
	if h.Out != nil {
		out := *h.Out
		c.Out = &out
	}
	return c
}

// Equal reports deep equality, treating nil as equal to nil only.
func (h *Handle) Equal(o *Handle) bool {
	if h == nil || o == nil {
		return h == o
	}
	if h.Type != o.Type {
		return false
	}
	eq := func(a, b *ControlPoint) bool {
		if a == nil || b == nil {
			return a == b
		}
		return *a == *b
	}
	return eq(h.In, o.In) && eq(h.Out, o.Out)
}

// Point returns the control point for the given side (may be nil).
func (h *Handle) Point(s Side) *ControlPoint {
	if h == nil {
		return nil
	}
	if s == SideIn {
		return h.In
	}
	return h.Out
}

// SetPoint replaces the control point for the given side.
func (h *Handle) SetPoint(s Side, pt ControlPoint) {
	if s == SideIn {
		h.In = &pt
	} else {
		h.Out = &pt
	}
}
