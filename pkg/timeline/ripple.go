package timeline

import (
	"math"

	"github.com/marionet/marionet/pkg/motion"
)

// Spread is a ripple influence policy for one side of the anchor.
// SpreadFull extends the full delta to the slice boundary, SpreadNone stops
// influence at the anchor, and positive values attenuate linearly to zero
// over that many frames.
type Spread int

const (
	SpreadFull Spread = -1
	SpreadNone Spread = 0
)

// Decay returns a policy that ramps influence down to zero over n frames.
// n ≤ 0 degrades to SpreadNone.
func Decay(n int) Spread {
	if n <= 0 {
		return SpreadNone
	}
	return Spread(n)
}

// weight returns the attenuation for a sample dist frames from the anchor
// (dist > 0) under this policy. The ramp is linear: 1 at the anchor, 0 at
// dist == n, 0 beyond.
func (sp Spread) weight(dist int) float64 {
	switch {
	case dist == 0:
		return 1
	case sp == SpreadFull:
		return 1
	case sp == SpreadNone:
		return 0
	default:
		w := 1 - float64(dist)/float64(sp)
		if w < 0 {
			return 0
		}
		return w
	}
}

// Ripple spreads a value edit across a slice: S'[i] = S[i] + delta·w(i),
// where w is 1 at the anchor and falls off per the before/after policies.
// Pure function: the input slice is never mutated. Non-finite samples pass
// through unchanged, and a non-finite or zero delta returns a plain copy.
func Ripple(s []float64, anchor int, delta float64, before, after Spread) []float64 {
	out := append([]float64(nil), s...)
	if len(s) == 0 || anchor < 0 || anchor >= len(s) {
		return out
	}
	if delta == 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return out
	}
	for i := range out {
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			continue
		}
		var w float64
		if i <= anchor {
			w = before.weight(anchor - i)
		} else {
			w = after.weight(i - anchor)
		}
		if w != 0 {
			out[i] += delta * w
		}
	}
	return out
}

// ClampSlice clamps every sample into the joint limit, in place. A nil
// limit disables clamping.
func ClampSlice(s []float64, lim *motion.Limit) {
	if lim == nil {
		return
	}
	for i, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		s[i] = lim.Clamp(v)
	}
}
