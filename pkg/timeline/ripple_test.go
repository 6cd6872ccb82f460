package timeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marionet/marionet/pkg/motion"
)

func TestRippleLinearDecay(t *testing.T) {
	got := Ripple([]float64{0, 0, 0, 0, 0}, 2, 10, Decay(2), Decay(2))
	assert.Equal(t, []float64{0, 5, 10, 5, 0}, got)
}

func TestRippleZeroDeltaIsIdentity(t *testing.T) {
	in := []float64{1, 2, 3}
	got := Ripple(in, 1, 0, Decay(2), Decay(2))
	assert.Equal(t, in, got)

	// Non-finite deltas degrade the same way.
	assert.Equal(t, in, Ripple(in, 1, math.NaN(), Decay(2), Decay(2)))
	assert.Equal(t, in, Ripple(in, 1, math.Inf(1), Decay(2), Decay(2)))
}

func TestRippleDoesNotMutateInput(t *testing.T) {
	in := []float64{0, 0, 0}
	Ripple(in, 1, 10, SpreadFull, SpreadFull)
	assert.Equal(t, []float64{0, 0, 0}, in)
}

func TestRippleSpreadPolicies(t *testing.T) {
	base := []float64{0, 0, 0, 0, 0}

	// Full influence extends the whole delta to both boundaries.
	assert.Equal(t, []float64{10, 10, 10, 10, 10},
		Ripple(base, 2, 10, SpreadFull, SpreadFull))

	// No influence stops at the anchor.
	assert.Equal(t, []float64{0, 0, 10, 0, 0},
		Ripple(base, 2, 10, SpreadNone, SpreadNone))

	// Asymmetric policies apply per side.
	assert.Equal(t, []float64{10, 10, 10, 5, 0},
		Ripple(base, 2, 10, SpreadFull, Decay(2)))
}

func TestRippleDecayBoundary(t *testing.T) {
	// With n=2 the weight is exactly 0 at distance 2 and beyond.
	got := Ripple([]float64{0, 0, 0, 0, 0, 0, 0}, 3, 8, Decay(2), Decay(2))
	assert.Equal(t, []float64{0, 0, 4, 8, 4, 0, 0}, got)

	// Decay(n<=0) degrades to no spread.
	assert.Equal(t, SpreadNone, Decay(0))
	assert.Equal(t, SpreadNone, Decay(-3))
}

func TestRippleAnchorAtEdge(t *testing.T) {
	got := Ripple([]float64{0, 0, 0}, 0, 6, Decay(2), Decay(2))
	assert.Equal(t, []float64{6, 3, 0}, got)

	// Out-of-range anchors are a pass-through copy.
	in := []float64{1, 2}
	assert.Equal(t, in, Ripple(in, -1, 6, Decay(2), Decay(2)))
	assert.Equal(t, in, Ripple(in, 2, 6, Decay(2), Decay(2)))
}

func TestRipplePassesThroughNonFiniteSamples(t *testing.T) {
	got := Ripple([]float64{0, math.NaN(), 0}, 2, 10, SpreadFull, SpreadNone)
	assert.Equal(t, 10.0, got[0])
	assert.True(t, math.IsNaN(got[1]))
	assert.Equal(t, 10.0, got[2])
}

func TestClampSlice(t *testing.T) {
	lim := &motion.Limit{Lower: -1, Upper: 1}
	s := []float64{-5, 0.5, 5, math.NaN()}
	ClampSlice(s, lim)
	assert.Equal(t, -1.0, s[0])
	assert.Equal(t, 0.5, s[1])
	assert.Equal(t, 1.0, s[2])
	assert.True(t, math.IsNaN(s[3]))

	// Nil limit leaves the slice alone.
	s2 := []float64{-5, 5}
	ClampSlice(s2, nil)
	assert.Equal(t, []float64{-5, 5}, s2)
}
