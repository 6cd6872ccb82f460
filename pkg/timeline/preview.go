package timeline

// GhostPoint is a lightweight non-committing preview point used while
// dragging keyframes, cheaper than a full getter overlay.
type GhostPoint struct {
	Frame    int
	Value    float64
	Selected bool
}

// Preview is the single shared non-committing overlay slot. While an
// interaction is in flight it exposes a read path over the affected index
// range; the display-refresh routine consults it before falling back to the
// committed store. Cleared on commit, cancel, or tool switch so stale
// overlays never leak into the next render.
//
// The zero value is inactive. At most one preview may be active for a field
// at a time; the engine's interaction exclusivity enforces that.
type Preview struct {
	active        bool
	affectedStart int
	affectedEnd   int
	valueAt       func(i int) (float64, bool)
	keyAt         func(i int) (KeyInfo, bool)
	ghosts        []GhostPoint
}

// Active reports whether a preview overlay is live.
func (p *Preview) Active() bool { return p.active }

// AffectedRange returns the index range the overlay covers.
func (p *Preview) AffectedRange() (start, end int) {
	return p.affectedStart, p.affectedEnd
}

// SetGetters activates the overlay with value/key read functions over
// [start, end]. Either getter may be nil, meaning that aspect falls through
// to the committed store.
func (p *Preview) SetGetters(start, end int, valueAt func(int) (float64, bool), keyAt func(int) (KeyInfo, bool)) {
	p.active = true
	p.affectedStart = start
	p.affectedEnd = end
	p.valueAt = valueAt
	p.keyAt = keyAt
	p.ghosts = nil
}

// SetGhosts activates the overlay in ghost-point mode.
func (p *Preview) SetGhosts(points []GhostPoint) {
	p.active = true
	p.affectedStart = 0
	p.affectedEnd = -1
	p.valueAt = nil
	p.keyAt = nil
	p.ghosts = points
}

// Ghosts returns the ghost points, or nil outside ghost mode.
func (p *Preview) Ghosts() []GhostPoint { return p.ghosts }

// ValueAt returns the overlaid value for frame i. ok is false when the
// overlay does not cover i, in which case the committed store wins.
func (p *Preview) ValueAt(i int) (float64, bool) {
	if !p.active || p.valueAt == nil || i < p.affectedStart || i > p.affectedEnd {
		return 0, false
	}
	return p.valueAt(i)
}

// KeyAt returns the overlaid key state for frame i.
func (p *Preview) KeyAt(i int) (KeyInfo, bool) {
	if !p.active || p.keyAt == nil || i < p.affectedStart || i > p.affectedEnd {
		return KeyInfo{}, false
	}
	return p.keyAt(i)
}

// Clear deactivates the overlay and drops all getters and ghosts.
func (p *Preview) Clear() {
	*p = Preview{}
}
