package frames

import "math"

// RecomputeAutoTangents refreshes the control points of every listed keyed
// frame whose handle type derives tangents automatically (auto,
// auto_clamped, vector). Free and aligned handles are left alone — those
// belong to the user.
func (s *Store) RecomputeAutoTangents(name string, frames []int) {
	f, ok := s.fields[name]
	if !ok {
		return
	}
	for _, k := range frames {
		if _, keyed := f.keys[k]; !keyed {
			continue
		}
		h := f.handles[k]
		if h == nil {
			h = &Handle{Type: HandleAuto}
			f.handles[k] = h
		}
		switch h.Type {
		case HandleAuto, HandleAutoClamped:
			s.computeSmoothTangents(f, k, h)
		case HandleVector:
			s.computeVectorTangents(f, k, h)
		}
	}
}

// computeSmoothTangents derives Catmull-Rom style tangents from the keyed
// neighbors. Auto-clamped flattens at local extrema so the curve never
// overshoots the key's value.
func (s *Store) computeSmoothTangents(f *field, k int, h *Handle) {
	vk := f.values[k]
	prev, hasPrev := prevKey(f, k)
	next, hasNext := nextKey(f, k)

	var slope float64
	switch {
	case hasPrev && hasNext:
		slope = (f.values[next] - f.values[prev]) / float64(next-prev)
		if h.Type == HandleAutoClamped {
			vp, vn := f.values[prev], f.values[next]
			if (vk >= vp && vk >= vn) || (vk <= vp && vk <= vn) {
				slope = 0
			}
		}
	case hasPrev:
		slope = (vk - f.values[prev]) / float64(k-prev)
	case hasNext:
		slope = (f.values[next] - vk) / float64(next-k)
	}

	if hasPrev {
		d := float64(k-prev) / 3
		h.In = &ControlPoint{DFrame: -d, Value: vk - slope*d}
	} else {
		h.In = nil
	}
	if hasNext {
		d := float64(next-k) / 3
		h.Out = &ControlPoint{DFrame: d, Value: vk + slope*d}
	} else {
		h.Out = nil
	}
}

// computeVectorTangents points each control point straight at its neighbor
// key, giving piecewise-linear motion through this key.
func (s *Store) computeVectorTangents(f *field, k int, h *Handle) {
	vk := f.values[k]
	if prev, ok := prevKey(f, k); ok {
		d := float64(k-prev) / 3
		slope := (vk - f.values[prev]) / float64(k-prev)
		h.In = &ControlPoint{DFrame: -d, Value: vk - slope*d}
	} else {
		h.In = nil
	}
	if next, ok := nextKey(f, k); ok {
		d := float64(next-k) / 3
		slope := (f.values[next] - vk) / float64(next-k)
		h.Out = &ControlPoint{DFrame: d, Value: vk + slope*d}
	} else {
		h.Out = nil
	}
}

func prevKey(f *field, i int) (int, bool) {
	best, found := 0, false
	for k := range f.keys {
		if k < i && (!found || k > best) {
			best, found = k, true
		}
	}
	return best, found
}

func nextKey(f *field, i int) (int, bool) {
	best, found := 0, false
	for k := range f.keys {
		if k > i && (!found || k < best) {
			best, found = k, true
		}
	}
	return best, found
}

// RecomputeSegments re-evaluates every non-keyed frame of each curve
// segment that intersects [start, end]. Segments run between consecutive
// keyed frames; frames outside any segment hold the nearest key's value.
func (s *Store) RecomputeSegments(name string, start, end int) {
	f, ok := s.fields[name]
	if !ok || len(f.keys) == 0 {
		return
	}
	if start > end {
		return
	}
	start = s.clampIndex(start)
	end = s.clampIndex(end)

	keys := f.sortedKeys()
	lo, hi := start, end

	// Extend to the enclosing segment boundaries.
	if p, ok := prevKey(f, start+1); ok {
		lo = p
	}
	if n, ok := nextKey(f, end-1); ok {
		hi = n
	}

	changedLo, changedHi := -1, -1
	mark := func(i int) {
		if changedLo < 0 || i < changedLo {
			changedLo = i
		}
		if i > changedHi {
			changedHi = i
		}
	}

	write := func(i int, v float64) {
		if f.limit != nil {
			v = f.limit.Clamp(v)
		}
		if f.values[i] != v {
			f.values[i] = v
			mark(i)
		}
	}

	// Before the first key and after the last, hold the key's value.
	first, last := keys[0], keys[len(keys)-1]
	for i := lo; i < first && i <= hi; i++ {
		write(i, f.values[first])
	}
	for i := last + 1; i <= hi; i++ {
		if i >= lo {
			write(i, f.values[last])
		}
	}

	for ki := 0; ki+1 < len(keys); ki++ {
		k0, k1 := keys[ki], keys[ki+1]
		if k1 < lo || k0 > hi {
			continue
		}
		s.evalSegment(f, k0, k1, write)
	}

	if changedLo >= 0 {
		s.notify(name, changedLo, changedHi)
	}
}

// evalSegment fills the open interval (k0, k1) from the cubic bezier
// defined by k0's out handle and k1's in handle. A missing control point
// falls back to the one-third linear default.
func (s *Store) evalSegment(f *field, k0, k1 int, write func(int, float64)) {
	x0, y0 := float64(k0), f.values[k0]
	x3, y3 := float64(k1), f.values[k1]

	x1, y1 := x0+(x3-x0)/3, y0+(y3-y0)/3
	if h := f.handles[k0]; h != nil && h.Out != nil {
		x1, y1 = x0+h.Out.DFrame, h.Out.Value
	}
	x2, y2 := x0+2*(x3-x0)/3, y0+2*(y3-y0)/3
	if h := f.handles[k1]; h != nil && h.In != nil {
		x2, y2 = x3+h.In.DFrame, h.In.Value
	}

	// Keep control x inside the segment so x(t) stays monotonic and each
	// frame has exactly one curve value.
	x1 = clampF(x1, x0, x3)
	x2 = clampF(x2, x0, x3)

	for i := k0 + 1; i < k1; i++ {
		t := solveBezierT(float64(i), x0, x1, x2, x3)
		write(i, cubicAt(t, y0, y1, y2, y3))
	}
}

func clampF(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func cubicAt(t, p0, p1, p2, p3 float64) float64 {
	u := 1 - t
	return u*u*u*p0 + 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t*p3
}

// solveBezierT finds t such that the (monotonic) cubic in x passes through
// the target, by bisection. 24 iterations give sub-millframe precision.
func solveBezierT(target, x0, x1, x2, x3 float64) float64 {
	lo, hi := 0.0, 1.0
	for iter := 0; iter < 24; iter++ {
		mid := (lo + hi) / 2
		if cubicAt(mid, x0, x1, x2, x3) < target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}
