package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marionet/marionet/pkg/motion"
	"github.com/marionet/marionet/pkg/sched"
)

// mockTerminal records writes and simulates a fixed-size terminal.
type mockTerminal struct {
	cols, rows int
	written    strings.Builder
	onInput    func([]byte)
	onResize   func()
}

func newMockTerminal(cols, rows int) *mockTerminal {
	return &mockTerminal{cols: cols, rows: rows}
}

func (m *mockTerminal) Start(onInput func([]byte), onResize func()) error {
	m.onInput = onInput
	m.onResize = onResize
	return nil
}
func (m *mockTerminal) Stop()                {}
func (m *mockTerminal) WriteString(s string) { m.written.WriteString(s) }
func (m *mockTerminal) Columns() int         { return m.cols }
func (m *mockTerminal) Rows() int            { return m.rows }
func (m *mockTerminal) HideCursor()          { m.written.WriteString("\x1b[?25l") }
func (m *mockTerminal) ShowCursor()          { m.written.WriteString("\x1b[?25h") }

// newTestApp builds an app over a flat two-field document on an 80x20
// terminal. The plot is 16 rows tall; with flat zero data the value window
// fits to [-1, 1], so the gutter is 4 columns and the plot starts at
// terminal column 5 (0-based).
func newTestApp(t *testing.T) (*App, *mockTerminal, *sched.FakeClock) {
	t.Helper()
	doc := &motion.Document{
		Name:       "test",
		FPS:        30,
		FrameCount: 60,
		Fields: []motion.Field{
			{Name: "shoulder_pitch", Values: make([]float64, 60)},
			{Name: "elbow_roll", Values: make([]float64, 60)},
		},
	}
	require.NoError(t, doc.Validate())

	term := newMockTerminal(80, 20)
	clock := sched.NewFakeClock()
	app := New(Config{Mouse: true}, term, doc, clock)
	app.start()
	return app, term, clock
}

// sgr builds an SGR mouse report. col and row are 1-based, per the wire
// protocol; press selects M vs m for release.
func sgr(button, col, row int, press bool) string {
	suffix := "m"
	if press {
		suffix = "M"
	}
	return fmt.Sprintf("\x1b[<%d;%d;%d%s", button, col, row, suffix)
}

func TestLayoutPinsViewportToPlotWidth(t *testing.T) {
	app, _, _ := newTestApp(t)

	// 60 frames fit inside the 75-column plot, so the window shows all.
	assert.Equal(t, 60, app.engine.Viewport().Window().Size)
	assert.Equal(t, 5, app.view.PlotOrigin())
	assert.Equal(t, 16, app.plotHeight)
}

func TestQuitKey(t *testing.T) {
	app, _, _ := newTestApp(t)
	quit := false
	app.quit = func() { quit = true }

	app.HandleInput([]byte("q"))
	assert.True(t, quit)

	quit = false
	app.HandleInput([]byte{0x03}) // ctrl+c
	assert.True(t, quit)
}

func TestPlayheadKeys(t *testing.T) {
	app, _, _ := newTestApp(t)

	app.HandleInput([]byte("\x1b[C"))
	assert.Equal(t, 1, app.engine.Playhead())

	app.HandleInput([]byte("\x1b[1;2C")) // shift+right
	assert.Equal(t, 11, app.engine.Playhead())

	app.HandleInput([]byte("\x1b[D"))
	assert.Equal(t, 10, app.engine.Playhead())

	app.HandleInput([]byte("\x1b[F")) // end
	assert.Equal(t, 59, app.engine.Playhead())

	app.HandleInput([]byte("\x1b[H")) // home
	assert.Equal(t, 0, app.engine.Playhead())
}

func TestToggleKeyframeKey(t *testing.T) {
	app, _, _ := newTestApp(t)

	app.HandleInput([]byte("k"))
	assert.True(t, app.store.IsKeyframe("shoulder_pitch", 0))

	app.HandleInput([]byte("k"))
	assert.False(t, app.store.IsKeyframe("shoulder_pitch", 0))
}

func TestFieldSwitchWraps(t *testing.T) {
	app, _, _ := newTestApp(t)

	app.HandleInput([]byte("\x1b[B")) // down
	assert.Equal(t, "elbow_roll", app.engine.Field())

	app.HandleInput([]byte("\x1b[B"))
	assert.Equal(t, "shoulder_pitch", app.engine.Field())

	app.HandleInput([]byte("\x1b[A")) // up wraps backward
	assert.Equal(t, "elbow_roll", app.engine.Field())
}

func TestMarkRangeAndDeleteKeys(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.engine.ToggleKeyframe(1)
	app.engine.ToggleKeyframe(3)
	app.engine.SetPlayhead(0)

	app.HandleInput([]byte("v"))
	for i := 0; i < 3; i++ {
		app.HandleInput([]byte("\x1b[C"))
	}
	app.HandleInput([]byte("v"))

	r := app.engine.Selection().Range()
	require.NotNil(t, r)
	assert.Equal(t, 0, r.Start)
	assert.Equal(t, 3, r.End)

	app.HandleInput([]byte("x"))
	assert.False(t, app.store.IsKeyframe("shoulder_pitch", 1))
	assert.False(t, app.store.IsKeyframe("shoulder_pitch", 3))
}

func TestEscapeClearsSelection(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.HandleInput([]byte("v"))
	require.NotNil(t, app.engine.Selection().Range())

	app.HandleInput([]byte("\x1b"))
	assert.Nil(t, app.engine.Selection().Range())
	assert.Equal(t, -1, app.rangeAnchor)
}

func TestUndoRedoKeys(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.HandleInput([]byte("k"))
	require.True(t, app.store.IsKeyframe("shoulder_pitch", 0))

	app.HandleInput([]byte("u"))
	assert.False(t, app.store.IsKeyframe("shoulder_pitch", 0))

	app.HandleInput([]byte{0x12}) // ctrl+r
	assert.True(t, app.store.IsKeyframe("shoulder_pitch", 0))
}

func TestMouseClickEdit(t *testing.T) {
	app, _, _ := newTestApp(t)

	// Plot row 0 is terminal row 2 (1-based); its value is the window top.
	app.HandleInput([]byte(sgr(0, 6, 2, true)))
	app.HandleInput([]byte(sgr(0, 6, 2, false)))

	assert.InDelta(t, 1.0, app.store.Value("shoulder_pitch", 0), 1e-9)
	assert.Equal(t, 1, app.stack.Depth())
}

func TestMouseClickGuardAgainstMotion(t *testing.T) {
	app, _, _ := newTestApp(t)

	app.HandleInput([]byte(sgr(0, 6, 2, true)))
	app.HandleInput([]byte(sgr(32, 7, 2, true))) // drag motion
	app.HandleInput([]byte(sgr(0, 7, 2, false)))

	// A dragged press is not a click-edit.
	assert.Equal(t, 0.0, app.store.Value("shoulder_pitch", 0))
	assert.Equal(t, 0, app.stack.Depth())
}

func TestMouseWheelZoomsView(t *testing.T) {
	app, _, _ := newTestApp(t)
	require.Equal(t, 60, app.engine.Viewport().Window().Size)

	app.HandleInput([]byte(sgr(64, 10, 5, true))) // wheel up
	assert.Equal(t, 54, app.engine.Viewport().Window().Size)

	app.HandleInput([]byte(sgr(65, 10, 5, true))) // wheel down
	assert.Equal(t, 59, app.engine.Viewport().Window().Size)
}

func TestPencilDrawCommitsOneTransaction(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.HandleInput([]byte("p"))
	require.True(t, app.pencil)

	app.HandleInput([]byte(sgr(0, 6, 2, true)))
	app.HandleInput([]byte(sgr(32, 7, 2, true)))
	app.HandleInput([]byte(sgr(0, 7, 2, false)))

	assert.Equal(t, 1, app.stack.Depth())
	// The second stroke's ripple spills back onto frame 0: its delta of
	// 0.25 lands there with decay weight 0.75.
	assert.InDelta(t, 1.1875, app.store.Value("shoulder_pitch", 0), 1e-9)
	assert.InDelta(t, 1.0, app.store.Value("shoulder_pitch", 1), 1e-9)
}

func TestMouseSelectsAndDragsKeyframe(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.engine.ToggleKeyframe(10)
	app.engine.Selection().DeselectKey(10)

	// Frame 10 is terminal column 16 (1-based); value 0 sits at plot row
	// 7.5, rounded to 8, terminal row 10.
	app.HandleInput([]byte(sgr(0, 16, 10, true)))
	app.HandleInput([]byte(sgr(0, 16, 10, false)))
	assert.True(t, app.engine.Selection().IsSelected(10))

	// Press again and drag five columns right.
	app.HandleInput([]byte(sgr(0, 16, 10, true)))
	app.HandleInput([]byte(sgr(32, 21, 10, true)))
	app.HandleInput([]byte(sgr(0, 21, 10, false)))

	assert.False(t, app.store.IsKeyframe("shoulder_pitch", 10))
	assert.True(t, app.store.IsKeyframe("shoulder_pitch", 15))
	assert.True(t, app.engine.Selection().IsSelected(15))
}

func TestShiftDragSweepsRangeSelection(t *testing.T) {
	app, _, _ := newTestApp(t)

	app.HandleInput([]byte(sgr(4, 6, 5, true)))   // shift+left press at frame 0
	app.HandleInput([]byte(sgr(36, 16, 5, true))) // shift+motion to frame 10
	app.HandleInput([]byte(sgr(4, 16, 5, false)))

	r := app.engine.Selection().Range()
	require.NotNil(t, r)
	assert.Equal(t, 0, r.Start)
	assert.Equal(t, 10, r.End)
}

func TestNudgeRangeMovesKeys(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.engine.ToggleKeyframe(10)
	app.engine.Selection().SetRange(10, 12)

	app.HandleInput([]byte("]"))
	assert.False(t, app.store.IsKeyframe("shoulder_pitch", 10))
	assert.True(t, app.store.IsKeyframe("shoulder_pitch", 11))

	r := app.engine.Selection().Range()
	require.NotNil(t, r)
	assert.Equal(t, 11, r.Start)
	assert.Equal(t, 13, r.End)
}

func TestPlaybackAdvancesOnSchedulerTicks(t *testing.T) {
	app, _, clock := newTestApp(t)

	app.HandleInput([]byte(" "))
	require.True(t, app.playing)

	clock.Advance(time.Second/30 + time.Millisecond)
	app.sched.RunDue()
	assert.Equal(t, 1, app.engine.Playhead())

	clock.Advance(time.Second/30 + time.Millisecond)
	app.sched.RunDue()
	assert.Equal(t, 2, app.engine.Playhead())

	app.HandleInput([]byte(" "))
	assert.False(t, app.playing)
	_, pending := app.sched.NextDeadline()
	assert.False(t, pending)
}

func TestSaveKeyWritesDocument(t *testing.T) {
	app, _, _ := newTestApp(t)
	path := filepath.Join(t.TempDir(), "out.json")
	app.SetSavePath(path)
	app.engine.ToggleKeyframe(5)

	app.HandleInput([]byte("w"))
	assert.Contains(t, app.notice, "saved")

	doc, err := motion.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{5}, doc.Fields[0].Keys)
}

func TestRenderWritesChartAndStatus(t *testing.T) {
	app, term, _ := newTestApp(t)
	app.render()

	out := term.written.String()
	assert.Contains(t, out, "marionet")
	assert.Contains(t, out, "Shoulder Pitch")
	assert.Contains(t, out, "frame 0/59")
	// Synchronized output brackets the frame.
	assert.Contains(t, out, "\x1b[?2026h")
	assert.Contains(t, out, "\x1b[?2026l")
}

func TestResizeReclampsViewport(t *testing.T) {
	app, term, _ := newTestApp(t)
	term.cols = 40
	app.layout()

	// 40 - 5 gutter/border = 35 plot columns.
	assert.Equal(t, 35, app.engine.Viewport().Window().Size)
}
