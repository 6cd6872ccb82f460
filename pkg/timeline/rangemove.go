package timeline

import "github.com/marionet/marionet/pkg/frames"

// KeyInfo is the keyframe-side snapshot of one frame: whether it is keyed
// and, if so, its handle data.
type KeyInfo struct {
	IsKey  bool
	Handle *frames.Handle
}

// MovedState is the computed result of relocating a contiguous frame range
// to a new anchor. It exposes read-only getters over the affected index
// union; nothing is written to the store until commit.
type MovedState struct {
	// Applied is false when the target overlaps the source range and the
	// operation degenerates to an in-place pass-through.
	Applied bool

	SrcStart, SrcEnd   int
	DestStart, DestEnd int

	// AffectedStart/End is the union of source and destination ranges —
	// the only indices whose committed state can change.
	AffectedStart, AffectedEnd int

	values []float64
	keys   []KeyInfo
}

// ComputeMove relocates [rangeStart, rangeEnd] to begin at target, purely.
// values and keys are the full original series; the returned state reads
// from them through a block-rotate index remap.
//
// A target inside [rangeStart, rangeEnd+1] (dropping the block onto or
// immediately after itself) is treated as a pass-through: getters are
// identity and Applied is false.
func ComputeMove(values []float64, keys []KeyInfo, rangeStart, rangeEnd, target int) MovedState {
	m := MovedState{
		SrcStart: rangeStart, SrcEnd: rangeEnd,
		DestStart: rangeStart, DestEnd: rangeEnd,
		AffectedStart: rangeStart, AffectedEnd: rangeEnd,
		values: values, keys: keys,
	}
	if rangeStart > rangeEnd || rangeStart < 0 || rangeEnd >= len(values) {
		return m
	}
	if target >= rangeStart && target <= rangeEnd+1 {
		return m
	}
	if target < 0 || target > len(values) {
		return m
	}

	length := rangeEnd - rangeStart + 1
	insertIdx := target
	if target > rangeStart {
		// Removing the source shifts everything after it left.
		insertIdx = target - length
	}
	if insertIdx < 0 || insertIdx+length > len(values) {
		return m
	}

	m.Applied = true
	m.DestStart = insertIdx
	m.DestEnd = insertIdx + length - 1
	m.AffectedStart = minInt(rangeStart, m.DestStart)
	m.AffectedEnd = maxInt(rangeEnd, m.DestEnd)
	return m
}

// MapIndex maps a post-move index to the original index it reads from: a
// block rotate of the affected window. Indices inside the destination read
// from the original source block; indices between source and destination
// slide by the block length to fill the vacated gap. Indices outside the
// affected union map to themselves.
func (m *MovedState) MapIndex(i int) int {
	if !m.Applied || i < m.AffectedStart || i > m.AffectedEnd {
		return i
	}
	length := m.SrcEnd - m.SrcStart + 1
	if i >= m.DestStart && i <= m.DestEnd {
		return m.SrcStart + (i - m.DestStart)
	}
	if m.DestStart > m.SrcStart {
		// Block moved right: frames after the source slide left.
		return i + length
	}
	// Block moved left: frames before the source slide right.
	return i - length
}

// ValueAt reads the post-move value at index i.
func (m *MovedState) ValueAt(i int) float64 {
	return m.values[m.MapIndex(i)]
}

// KeyAt reads the post-move key state at index i.
func (m *MovedState) KeyAt(i int) KeyInfo {
	return m.keys[m.MapIndex(i)]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
