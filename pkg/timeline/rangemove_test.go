package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moveSeries(total int, keyed ...int) ([]float64, []KeyInfo) {
	values := make([]float64, total)
	for i := range values {
		values[i] = float64(i)
	}
	keys := make([]KeyInfo, total)
	for _, k := range keyed {
		keys[k] = KeyInfo{IsKey: true}
	}
	return values, keys
}

// materialize applies a computed move, producing the post-move series.
func materialize(m *MovedState, total int) ([]float64, []KeyInfo) {
	values := make([]float64, total)
	keys := make([]KeyInfo, total)
	for i := 0; i < total; i++ {
		values[i] = m.ValueAt(i)
		keys[i] = m.KeyAt(i)
	}
	return values, keys
}

func TestComputeMoveForward(t *testing.T) {
	values, keys := moveSeries(100, 10, 30)

	m := ComputeMove(values, keys, 10, 30, 50)
	require.True(t, m.Applied)

	// Removing the 21-frame source shifts the insertion point left.
	assert.Equal(t, 29, m.DestStart)
	assert.Equal(t, 49, m.DestEnd)
	assert.Equal(t, 10, m.AffectedStart)
	assert.Equal(t, 49, m.AffectedEnd)

	// Destination reads the original source block.
	assert.Equal(t, values[10], m.ValueAt(29))
	assert.Equal(t, values[30], m.ValueAt(49))
	assert.True(t, m.KeyAt(29).IsKey)
	assert.True(t, m.KeyAt(49).IsKey)

	// The vacated gap is filled by frames sliding left.
	assert.Equal(t, values[31], m.ValueAt(10))
	assert.False(t, m.KeyAt(10).IsKey)

	// Outside the affected union nothing moves.
	assert.Equal(t, values[9], m.ValueAt(9))
	assert.Equal(t, values[50], m.ValueAt(50))
}

func TestComputeMoveBackward(t *testing.T) {
	values, keys := moveSeries(100, 40, 50)

	m := ComputeMove(values, keys, 40, 50, 20)
	require.True(t, m.Applied)
	assert.Equal(t, 20, m.DestStart)
	assert.Equal(t, 30, m.DestEnd)

	assert.Equal(t, values[40], m.ValueAt(20))
	assert.True(t, m.KeyAt(20).IsKey)
	// Displaced frames slide right past the block.
	assert.Equal(t, values[20], m.ValueAt(31))
}

func TestComputeMoveRoundTrip(t *testing.T) {
	values, keys := moveSeries(100, 10, 30)

	fwd := ComputeMove(values, keys, 10, 30, 50)
	require.True(t, fwd.Applied)
	moved, movedKeys := materialize(&fwd, 100)

	back := ComputeMove(moved, movedKeys, fwd.DestStart, fwd.DestEnd, 10)
	require.True(t, back.Applied)
	restored, restoredKeys := materialize(&back, 100)

	assert.Equal(t, values, restored)
	assert.Equal(t, keys, restoredKeys)
}

func TestComputeMoveOverlapPassThrough(t *testing.T) {
	values, keys := moveSeries(100, 10, 30)

	// Dropping the block onto or immediately after itself changes nothing.
	for _, target := range []int{10, 20, 30, 31} {
		m := ComputeMove(values, keys, 10, 30, target)
		assert.False(t, m.Applied, "target %d", target)
		assert.Equal(t, values[15], m.ValueAt(15))
		assert.Equal(t, 10, m.AffectedStart)
		assert.Equal(t, 30, m.AffectedEnd)
	}

	// Just past the overlap window the move applies again.
	m := ComputeMove(values, keys, 10, 30, 32)
	assert.True(t, m.Applied)
	assert.Equal(t, 11, m.DestStart)
}

func TestComputeMoveInvalidInput(t *testing.T) {
	values, keys := moveSeries(20)

	assert.False(t, ComputeMove(values, keys, 5, 3, 10).Applied)  // inverted range
	assert.False(t, ComputeMove(values, keys, -1, 3, 10).Applied) // negative start
	assert.False(t, ComputeMove(values, keys, 5, 25, 10).Applied) // past the end
	assert.False(t, ComputeMove(values, keys, 5, 10, -2).Applied) // negative target
	assert.False(t, ComputeMove(values, keys, 5, 10, 21).Applied) // target past the end
}

func TestMapIndexIsPermutation(t *testing.T) {
	values, keys := moveSeries(60, 12, 20)
	m := ComputeMove(values, keys, 12, 20, 40)
	require.True(t, m.Applied)

	seen := make(map[int]bool)
	for i := 0; i < 60; i++ {
		src := m.MapIndex(i)
		assert.False(t, seen[src], "index %d read twice", src)
		seen[src] = true
	}
	assert.Len(t, seen, 60)
}
