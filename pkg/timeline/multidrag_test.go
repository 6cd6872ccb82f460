package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marionet/marionet/pkg/frames"
	"github.com/marionet/marionet/pkg/motion"
	"github.com/marionet/marionet/pkg/undo"
)

func TestMultiDragStartThreshold(t *testing.T) {
	d := NewMultiDrag(100)
	d.Arm([]DragKeySnapshot{{Index: 10, Value: 1}}, 10, 1, 0.5)
	assert.Equal(t, DragArmed, d.Phase())

	// Sub-threshold wiggle stays armed: releasing now is a click.
	assert.False(t, d.Move(10.05, 1.1))
	assert.Equal(t, DragArmed, d.Phase())
	assert.Nil(t, d.Ghosts())

	// Crossing either axis threshold starts the drag.
	assert.True(t, d.Move(10.05, 1.6))
	assert.Equal(t, DragMoving, d.Phase())

	df, dv := d.Deltas()
	assert.Equal(t, 0, df)
	assert.InDelta(t, 0.6, dv, 1e-9)
}

func TestMultiDragIgnoresMoveWhenIdle(t *testing.T) {
	d := NewMultiDrag(100)
	assert.False(t, d.Move(5, 5))
	assert.Equal(t, DragIdle, d.Phase())
}

func TestMultiDragGhosts(t *testing.T) {
	d := NewMultiDrag(100)
	d.Arm([]DragKeySnapshot{
		{Index: 10, Value: 1},
		{Index: 20, Value: 2},
	}, 10, 1, 0)

	require.True(t, d.Move(13.4, 1.5))
	ghosts := d.Ghosts()
	require.Len(t, ghosts, 2)
	assert.Equal(t, GhostPoint{Frame: 13, Value: 1.5, Selected: true}, ghosts[0])
	assert.Equal(t, GhostPoint{Frame: 23, Value: 2.5, Selected: true}, ghosts[1])

	// Ghosts clamp to the timeline.
	require.True(t, d.Move(105, 1))
	ghosts = d.Ghosts()
	assert.Equal(t, 99, ghosts[1].Frame)
}

func TestMultiDragCancel(t *testing.T) {
	d := NewMultiDrag(100)
	d.Arm([]DragKeySnapshot{{Index: 10, Value: 1}}, 10, 1, 0)
	require.True(t, d.Move(15, 2))

	d.Cancel()
	assert.Equal(t, DragIdle, d.Phase())
	assert.Nil(t, d.Ghosts())
	df, dv := d.Deltas()
	assert.Equal(t, 0, df)
	assert.Equal(t, 0.0, dv)
}

func TestMultiDragPlanMovesKeys(t *testing.T) {
	store, _ := newTestStore(t, 100, nil)
	store.SetValue(testField, 10, 1)
	store.AddKeyframe(testField, 10)
	store.SetValue(testField, 20, 2)
	store.AddKeyframe(testField, 20)

	d := NewMultiDrag(100)
	d.Arm(SnapshotKeys(store, testField, []int{10, 20}), 10, 1, 0)
	require.True(t, d.Move(15, 1.5))

	plan, ok := d.Plan(store, testField)
	require.True(t, ok)
	assert.Equal(t, 5, plan.DFrame)
	assert.InDelta(t, 0.5, plan.DValue, 1e-9)
	assert.Equal(t, []int{15, 25}, plan.Dests)
	assert.Equal(t, 10, plan.Lo)
	assert.Equal(t, 25, plan.Hi)

	at := func(i int) undo.Entry { return plan.After[i-plan.Lo] }
	assert.False(t, at(10).IsKey) // source vacated
	assert.False(t, at(20).IsKey)
	assert.True(t, at(15).IsKey)
	assert.InDelta(t, 1.5, at(15).Value, 1e-9)
	assert.True(t, at(25).IsKey)
	assert.InDelta(t, 2.5, at(25).Value, 1e-9)
}

func TestMultiDragPlanValueOnly(t *testing.T) {
	store, _ := newTestStore(t, 100, nil)
	store.SetValue(testField, 10, 1)
	store.AddKeyframe(testField, 10)

	d := NewMultiDrag(100)
	d.Arm(SnapshotKeys(store, testField, []int{10}), 10, 1, 0.5)
	require.True(t, d.Move(10.04, 3)) // frame delta rounds to 0

	plan, ok := d.Plan(store, testField)
	require.True(t, ok)
	assert.Equal(t, 0, plan.DFrame)

	// Pure value drags keep the frame keyed.
	at := func(i int) undo.Entry { return plan.After[i-plan.Lo] }
	assert.True(t, at(10).IsKey)
	assert.InDelta(t, 3, at(10).Value, 1e-9)
}

func TestMultiDragPlanOffsetsHandleValues(t *testing.T) {
	store, _ := newTestStore(t, 100, nil)
	store.SetValue(testField, 10, 1)
	store.AddKeyframe(testField, 10)
	store.SetHandle(testField, 10, &frames.Handle{
		Type: frames.HandleFree,
		In:   &frames.ControlPoint{DFrame: -2, Value: 0.5},
		Out:  &frames.ControlPoint{DFrame: 2, Value: 1.5},
	})

	d := NewMultiDrag(100)
	d.Arm(SnapshotKeys(store, testField, []int{10}), 10, 1, 0)
	require.True(t, d.Move(12, 2))

	plan, ok := d.Plan(store, testField)
	require.True(t, ok)
	h := plan.After[12-plan.Lo].Handle
	require.NotNil(t, h)
	assert.InDelta(t, 1.5, h.In.Value, 1e-9) // +1 value delta
	assert.InDelta(t, 2.5, h.Out.Value, 1e-9)
	assert.Equal(t, -2.0, h.In.DFrame) // frame offsets ride along unchanged
}

func TestMultiDragPlanClampsToLimit(t *testing.T) {
	store, _ := newTestStore(t, 100, &motion.Limit{Lower: -1, Upper: 1})
	store.SetValue(testField, 10, 1)
	store.AddKeyframe(testField, 10)

	d := NewMultiDrag(100)
	d.Arm(SnapshotKeys(store, testField, []int{10}), 10, 1, 0)
	require.True(t, d.Move(10.4, 9)) // frame delta rounds to 0

	plan, ok := d.Plan(store, testField)
	require.True(t, ok)
	assert.Equal(t, 1.0, plan.After[10-plan.Lo].Value)
}

func TestMultiDragPlanNoMotion(t *testing.T) {
	store, _ := newTestStore(t, 100, nil)
	store.AddKeyframe(testField, 10)

	d := NewMultiDrag(100)
	d.Arm(SnapshotKeys(store, testField, []int{10}), 10, 0, 0)

	// Never crossed the threshold.
	_, ok := d.Plan(store, testField)
	assert.False(t, ok)
}

func TestMultiDragCommit(t *testing.T) {
	store, _ := newTestStore(t, 100, nil)
	stack := undo.NewStack(store, nil, 0)
	store.SetValue(testField, 10, 1)
	store.AddKeyframe(testField, 10)

	d := NewMultiDrag(100)
	d.Arm(SnapshotKeys(store, testField, []int{10}), 10, 1, 0)
	require.True(t, d.Move(15, 1))

	plan, committed := d.Commit(store, stack, testField)
	require.True(t, committed)
	assert.Equal(t, []int{15}, plan.Dests)
	assert.Equal(t, DragIdle, d.Phase())

	assert.True(t, store.IsKeyframe(testField, 15))
	assert.False(t, store.IsKeyframe(testField, 10))
	assert.Equal(t, 1, stack.Depth())

	require.True(t, stack.Undo())
	assert.True(t, store.IsKeyframe(testField, 10))
	assert.False(t, store.IsKeyframe(testField, 15))
}
