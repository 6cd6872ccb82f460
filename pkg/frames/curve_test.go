package frames

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marionet/marionet/pkg/motion"
)

func curveDoc(values []float64, keys []int) *motion.Document {
	return &motion.Document{
		Name:       "curve",
		FPS:        30,
		FrameCount: len(values),
		Fields:     []motion.Field{{Name: "j", Values: values, Keys: keys}},
	}
}

func TestAutoTangentsInterior(t *testing.T) {
	// Keys at 0, 4, 8 with values 0, 4, 8: a straight line, so the smooth
	// tangent at frame 4 has slope 1.
	s := NewStore(curveDoc([]float64{0, 0, 0, 0, 4, 0, 0, 0, 8}, []int{0, 4, 8}), nil)
	s.RecomputeAutoTangents("j", []int{4})

	h := s.Handle("j", 4)
	require.NotNil(t, h)
	require.NotNil(t, h.In)
	require.NotNil(t, h.Out)
	assert.InDelta(t, -4.0/3, h.In.DFrame, 1e-9)
	assert.InDelta(t, 4-4.0/3, h.In.Value, 1e-9)
	assert.InDelta(t, 4.0/3, h.Out.DFrame, 1e-9)
	assert.InDelta(t, 4+4.0/3, h.Out.Value, 1e-9)
}

func TestAutoTangentsBoundary(t *testing.T) {
	s := NewStore(curveDoc([]float64{0, 0, 0, 0, 4, 0, 0, 0, 8}, []int{0, 4, 8}), nil)
	s.RecomputeAutoTangents("j", []int{0, 8})

	first := s.Handle("j", 0)
	require.NotNil(t, first)
	assert.Nil(t, first.In)
	assert.NotNil(t, first.Out)

	last := s.Handle("j", 8)
	require.NotNil(t, last)
	assert.NotNil(t, last.In)
	assert.Nil(t, last.Out)
}

func TestAutoClampedFlattensExtrema(t *testing.T) {
	// Frame 4 is a local maximum; auto_clamped must zero the slope.
	s := NewStore(curveDoc([]float64{0, 0, 0, 0, 10, 0, 0, 0, 2}, []int{0, 4, 8}), nil)
	s.SetHandleType("j", 4, HandleAutoClamped)
	s.RecomputeAutoTangents("j", []int{4})

	h := s.Handle("j", 4)
	require.NotNil(t, h)
	assert.InDelta(t, 10.0, h.In.Value, 1e-9)
	assert.InDelta(t, 10.0, h.Out.Value, 1e-9)
}

func TestFreeHandleNotRecomputed(t *testing.T) {
	s := NewStore(curveDoc([]float64{0, 0, 0, 0, 4, 0, 0, 0, 8}, []int{0, 4, 8}), nil)
	s.UpdateHandlePoint("j", 4, SideOut, ControlPoint{DFrame: 1, Value: 99}, HandleFree)

	s.RecomputeAutoTangents("j", []int{4})
	assert.Equal(t, 99.0, s.Handle("j", 4).Out.Value)
}

func TestRecomputeSegmentsLinearDefault(t *testing.T) {
	// No handles: segments fall back to the one-third linear default, which
	// degenerates to a straight line.
	s := NewStore(curveDoc(make([]float64, 9), []int{0, 8}), nil)
	s.SetValue("j", 8, 8)
	s.RecomputeSegments("j", 0, 8)

	for i := 0; i <= 8; i++ {
		assert.InDelta(t, float64(i), s.Value("j", i), 1e-6, "frame %d", i)
	}
}

func TestRecomputeSegmentsSmooth(t *testing.T) {
	vals := make([]float64, 9)
	vals[4] = 10
	s := NewStore(curveDoc(vals, []int{0, 4, 8}), nil)
	s.RecomputeAutoTangents("j", []int{0, 4, 8})
	s.RecomputeSegments("j", 0, 8)

	// Endpoints and keys are untouched.
	assert.Equal(t, 0.0, s.Value("j", 0))
	assert.Equal(t, 10.0, s.Value("j", 4))
	assert.Equal(t, 0.0, s.Value("j", 8))
	// Interior rises monotonically toward the peak.
	assert.Greater(t, s.Value("j", 2), s.Value("j", 1))
	assert.Greater(t, s.Value("j", 3), s.Value("j", 2))
	// Symmetric data gives a symmetric curve.
	assert.InDelta(t, s.Value("j", 2), s.Value("j", 6), 1e-6)
}

func TestRecomputeSegmentsHoldsOutsideKeys(t *testing.T) {
	vals := []float64{7, 7, 5, 0, 0, 0, 3, 9, 9}
	s := NewStore(curveDoc(vals, []int{2, 6}), nil)
	s.RecomputeSegments("j", 0, 8)

	// Before the first key and after the last, the key's value holds.
	assert.Equal(t, 5.0, s.Value("j", 0))
	assert.Equal(t, 5.0, s.Value("j", 1))
	assert.Equal(t, 3.0, s.Value("j", 7))
	assert.Equal(t, 3.0, s.Value("j", 8))
}

func TestRecomputeSegmentsDegenerateRange(t *testing.T) {
	s := NewStore(curveDoc(make([]float64, 9), []int{0, 8}), nil)
	s.SetValue("j", 8, 8)
	before := s.Values("j")
	s.RecomputeSegments("j", 6, 2) // start > end aborts before mutation
	assert.Equal(t, before, s.Values("j"))
}

func TestVectorTangents(t *testing.T) {
	s := NewStore(curveDoc([]float64{0, 0, 0, 0, 4, 0, 0, 0, 0}, []int{0, 4, 8}), nil)
	s.SetHandleType("j", 4, HandleVector)
	s.RecomputeAutoTangents("j", []int{4})

	h := s.Handle("j", 4)
	require.NotNil(t, h)
	// In points at (0, 0): slope -? from 0→4 over 4 frames is 1, so at
	// DFrame -4/3 the value is 4 - 4/3.
	assert.InDelta(t, 4-4.0/3, h.In.Value, 1e-9)
	// Out points at (8, 0): slope -1, value 4 - 4/3.
	assert.InDelta(t, 4-4.0/3, h.Out.Value, 1e-9)
}
