// Package frames implements the frame store: per-field frame values,
// keyframe flags, bezier handles, joint limits, and the curve evaluator
// that fills non-keyed frames. All writes funnel through the store so
// change notification can be batched; the editing engine holds no field
// data of its own.
package frames

import (
	"math"
	"sort"

	"github.com/marionet/marionet/pkg/events"
	"github.com/marionet/marionet/pkg/motion"
)

type field struct {
	values  []float64
	keys    map[int]struct{}
	handles map[int]*Handle
	limit   *motion.Limit
}

func (f *field) sortedKeys() []int {
	out := make([]int, 0, len(f.keys))
	for k := range f.keys {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

type span struct {
	start, end int
}

// Store owns all committed animation data for one motion document.
type Store struct {
	frameCount int
	fps        float64
	order      []string
	fields     map[string]*field
	bus        *events.Bus

	batchDepth int
	dirty      map[string]span
}

// NewStore builds a store from a validated motion document. The bus may be
// nil when no one listens (tests, the dump command).
func NewStore(doc *motion.Document, bus *events.Bus) *Store {
	s := &Store{
		frameCount: doc.FrameCount,
		fps:        doc.FPS,
		fields:     make(map[string]*field, len(doc.Fields)),
		bus:        bus,
		dirty:      make(map[string]span),
	}
	for i := range doc.Fields {
		df := &doc.Fields[i]
		f := &field{
			values:  append([]float64(nil), df.Values...),
			keys:    make(map[int]struct{}, len(df.Keys)),
			handles: make(map[int]*Handle),
			limit:   df.Limit,
		}
		for _, k := range df.Keys {
			f.keys[k] = struct{}{}
		}
		s.order = append(s.order, df.Name)
		s.fields[df.Name] = f
	}
	return s
}

// Document exports the current state as a motion document for saving.
func (s *Store) Document(name string) *motion.Document {
	doc := &motion.Document{Name: name, FPS: s.fps, FrameCount: s.frameCount}
	for _, fname := range s.order {
		f := s.fields[fname]
		doc.Fields = append(doc.Fields, motion.Field{
			Name:   fname,
			Values: append([]float64(nil), f.values...),
			Keys:   f.sortedKeys(),
			Limit:  f.limit,
		})
	}
	return doc
}

// FrameCount returns the document length in frames.
func (s *Store) FrameCount() int { return s.frameCount }

// FPS returns the document playback rate.
func (s *Store) FPS() float64 { return s.fps }

// FieldNames returns field names in document order.
func (s *Store) FieldNames() []string {
	return append([]string(nil), s.order...)
}

// HasField reports whether the store holds the named field.
func (s *Store) HasField(name string) bool {
	_, ok := s.fields[name]
	return ok
}

func (s *Store) clampIndex(i int) int {
	if i < 0 {
		return 0
	}
	if i >= s.frameCount {
		return s.frameCount - 1
	}
	return i
}

// Value returns the committed value at frame i, clamping i into range.
// Unknown fields read as 0.
func (s *Store) Value(name string, i int) float64 {
	f, ok := s.fields[name]
	if !ok {
		return 0
	}
	return f.values[s.clampIndex(i)]
}

// Values returns a copy of the field's full series, or nil for unknown
// fields.
func (s *Store) Values(name string) []float64 {
	f, ok := s.fields[name]
	if !ok {
		return nil
	}
	return append([]float64(nil), f.values...)
}

// SetValue writes v at frame i, clamping i into range and clamping v to the
// field's joint limit. Non-finite values are skipped.
func (s *Store) SetValue(name string, i int, v float64) {
	f, ok := s.fields[name]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	i = s.clampIndex(i)
	if f.limit != nil {
		v = f.limit.Clamp(v)
	}
	if f.values[i] == v {
		return
	}
	f.values[i] = v
	s.notify(name, i, i)
}

// IsKeyframe reports whether frame i is keyed. Out-of-range indices are not
// keyed.
func (s *Store) IsKeyframe(name string, i int) bool {
	f, ok := s.fields[name]
	if !ok || i < 0 || i >= s.frameCount {
		return false
	}
	_, keyed := f.keys[i]
	return keyed
}

// Keyframes returns the field's keyed frame indices, ascending.
func (s *Store) Keyframes(name string) []int {
	f, ok := s.fields[name]
	if !ok {
		return nil
	}
	return f.sortedKeys()
}

// PrevKeyframe returns the greatest keyed index strictly before i.
func (s *Store) PrevKeyframe(name string, i int) (int, bool) {
	f, ok := s.fields[name]
	if !ok {
		return 0, false
	}
	best, found := 0, false
	for k := range f.keys {
		if k < i && (!found || k > best) {
			best, found = k, true
		}
	}
	return best, found
}

// NextKeyframe returns the smallest keyed index strictly after i.
func (s *Store) NextKeyframe(name string, i int) (int, bool) {
	f, ok := s.fields[name]
	if !ok {
		return 0, false
	}
	best, found := 0, false
	for k := range f.keys {
		if k > i && (!found || k < best) {
			best, found = k, true
		}
	}
	return best, found
}

// AddKeyframe marks frame i as keyed. Already-keyed frames are a no-op.
func (s *Store) AddKeyframe(name string, i int) {
	f, ok := s.fields[name]
	if !ok || i < 0 || i >= s.frameCount {
		return
	}
	if _, keyed := f.keys[i]; keyed {
		return
	}
	f.keys[i] = struct{}{}
	s.notify(name, i, i)
}

// RemoveKeyframe unmarks frame i and drops its handle. The frame's value is
// untouched; callers re-evaluate the surrounding segment.
func (s *Store) RemoveKeyframe(name string, i int) {
	f, ok := s.fields[name]
	if !ok {
		return
	}
	if _, keyed := f.keys[i]; !keyed {
		return
	}
	delete(f.keys, i)
	delete(f.handles, i)
	s.notify(name, i, i)
}

// ToggleKeyframe flips frame i's keyed state and returns the new state.
func (s *Store) ToggleKeyframe(name string, i int) bool {
	if s.IsKeyframe(name, i) {
		s.RemoveKeyframe(name, i)
		return false
	}
	s.AddKeyframe(name, i)
	return s.IsKeyframe(name, i)
}

// Handle returns a copy of frame i's handle, or nil when the frame is not
// keyed or has no handle yet. Malformed upstream data degrades to nil.
func (s *Store) Handle(name string, i int) *Handle {
	f, ok := s.fields[name]
	if !ok {
		return nil
	}
	if _, keyed := f.keys[i]; !keyed {
		return nil
	}
	return f.handles[i].Clone()
}

// SetHandle replaces frame i's handle wholesale (nil removes it). Used by
// undo restore and range-move commit. Non-keyed frames are a no-op.
func (s *Store) SetHandle(name string, i int, h *Handle) {
	f, ok := s.fields[name]
	if !ok {
		return
	}
	if _, keyed := f.keys[i]; !keyed {
		return
	}
	if h == nil {
		if _, had := f.handles[i]; !had {
			return
		}
		delete(f.handles, i)
	} else {
		if f.handles[i].Equal(h) {
			return
		}
		f.handles[i] = h.Clone()
	}
	s.notify(name, i, i)
}

// SetHandleType marks frame i's handle with the given type, creating the
// handle if needed. Control points are left untouched; automatic types are
// refreshed by RecomputeAutoTangents.
func (s *Store) SetHandleType(name string, i int, t HandleType) {
	f, ok := s.fields[name]
	if !ok {
		return
	}
	if _, keyed := f.keys[i]; !keyed {
		return
	}
	h := f.handles[i]
	if h == nil {
		h = &Handle{}
		f.handles[i] = h
	}
	if h.Type == t {
		return
	}
	h.Type = t
	s.notify(name, i, i)
}

// UpdateHandlePoint sets one control point of frame i's handle and tags the
// handle with typ (a drag edit passes HandleFree). Point values are skipped
// when non-finite.
func (s *Store) UpdateHandlePoint(name string, i int, side Side, pt ControlPoint, typ HandleType) {
	f, ok := s.fields[name]
	if !ok {
		return
	}
	if _, keyed := f.keys[i]; !keyed {
		return
	}
	if math.IsNaN(pt.DFrame) || math.IsInf(pt.DFrame, 0) ||
		math.IsNaN(pt.Value) || math.IsInf(pt.Value, 0) {
		return
	}
	h := f.handles[i]
	if h == nil {
		h = &Handle{}
		f.handles[i] = h
	}
	h.SetPoint(side, pt)
	h.Type = typ
	if typ == HandleAligned {
		s.alignOpposite(f, i, h, side)
	}
	s.notify(name, i, i)
}

// alignOpposite keeps the other control point collinear through the key for
// aligned handles, preserving its frame offset.
func (s *Store) alignOpposite(f *field, i int, h *Handle, edited Side) {
	pt := h.Point(edited)
	other := h.Point(edited.opposite())
	if pt == nil || other == nil || pt.DFrame == 0 {
		return
	}
	keyVal := f.values[s.clampIndex(i)]
	slope := (pt.Value - keyVal) / pt.DFrame
	other.Value = keyVal + slope*other.DFrame
}

func (s Side) opposite() Side {
	if s == SideIn {
		return SideOut
	}
	return SideIn
}

// Limit returns the field's joint limit, or nil when unconstrained.
func (s *Store) Limit(name string) *motion.Limit {
	f, ok := s.fields[name]
	if !ok {
		return nil
	}
	return f.limit
}

// Batch runs fn with change notification suppressed, then emits one
// coalesced FieldChanged per touched field. Nested batches coalesce into
// the outermost one.
func (s *Store) Batch(fn func()) {
	s.batchDepth++
	fn()
	s.batchDepth--
	if s.batchDepth > 0 {
		return
	}
	for name, sp := range s.dirty {
		delete(s.dirty, name)
		if s.bus != nil {
			s.bus.Publish(events.FieldChanged{Field: name, Start: sp.start, End: sp.end})
		}
	}
}

func (s *Store) notify(name string, start, end int) {
	if s.batchDepth > 0 {
		sp, ok := s.dirty[name]
		if !ok {
			s.dirty[name] = span{start, end}
			return
		}
		if start < sp.start {
			sp.start = start
		}
		if end > sp.end {
			sp.end = end
		}
		s.dirty[name] = sp
		return
	}
	if s.bus != nil {
		s.bus.Publish(events.FieldChanged{Field: name, Start: start, End: end})
	}
}
