package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/marionet/marionet/pkg/events"
	"github.com/marionet/marionet/pkg/frames"
	"github.com/marionet/marionet/pkg/motion"
	"github.com/marionet/marionet/pkg/sched"
	"github.com/marionet/marionet/pkg/timeline"
	"github.com/marionet/marionet/pkg/trackview"
	"github.com/marionet/marionet/pkg/undo"
)

// Config tunes the app.
type Config struct {
	Timeline timeline.Config

	// Mouse enables mouse gesture handling. Key bindings cover every
	// operation, so the editor stays usable with it off.
	Mouse bool

	// FPS overrides the document's playback rate. 0 uses the document's.
	FPS float64
}

// App owns the editor session: one motion document, the engine, the track
// view, and the terminal. All engine access happens on the event-loop
// goroutine; the terminal's callbacks only push into channels.
type App struct {
	cfg  Config
	term Terminal
	doc  *motion.Document

	bus    *events.Bus
	store  *frames.Store
	stack  *undo.Stack
	sched  *sched.Scheduler
	engine *timeline.Engine
	view   *trackview.View

	fields   []string
	fieldIdx int

	inputCh  chan []byte
	resizeCh chan struct{}
	quit     func()

	plotHeight int

	pencil      bool
	playing     bool
	playTimer   *sched.Timer
	rangeAnchor int

	savePath string
	notice   string

	mouse mouseState
}

// New builds an app for the document. clock nil means wall time; tests pass
// a fake clock so playback and debounce become deterministic.
func New(cfg Config, term Terminal, doc *motion.Document, clock sched.Clock) *App {
	if clock == nil {
		clock = sched.SystemClock{}
	}
	limit := cfg.Timeline.UndoLimit
	if limit <= 0 {
		limit = 200
	}

	bus := new(events.Bus)
	store := frames.NewStore(doc, bus)
	stack := undo.NewStack(store, bus, limit)
	scheduler := sched.New(clock)
	engine := timeline.NewEngine(cfg.Timeline, store, stack, bus, scheduler)
	view := trackview.New()
	engine.SetDisplay(view)

	return &App{
		cfg:    cfg,
		term:   term,
		doc:    doc,
		bus:    bus,
		store:  store,
		stack:  stack,
		sched:  scheduler,
		engine: engine,
		view:   view,

		fields:   store.FieldNames(),
		inputCh:  make(chan []byte, 64),
		resizeCh: make(chan struct{}, 1),
		quit:     func() {},

		rangeAnchor: -1,
	}
}

// Engine exposes the timeline engine, mainly for tests and the dump
// command's inspection paths.
func (a *App) Engine() *timeline.Engine { return a.engine }

// SetSavePath sets where the save binding writes the document. Saving is
// disabled while it is empty.
func (a *App) SetSavePath(path string) { a.savePath = path }

func (a *App) save() {
	if a.savePath == "" {
		a.notice = "no save path"
		return
	}
	doc := a.store.Document(a.doc.Name)
	if err := motion.Save(a.savePath, doc); err != nil {
		slog.Error("save failed", "path", a.savePath, "error", err)
		a.notice = "save failed: " + err.Error()
		return
	}
	a.notice = "saved " + a.savePath
}

// Run starts the terminal and drives the editor until the context is
// canceled or the user quits.
func (a *App) Run(ctx context.Context) error {
	if len(a.fields) == 0 {
		return errors.New("document has no fields")
	}
	if err := a.term.Start(a.pushInput, a.pushResize); err != nil {
		return errors.Wrap(err, "start terminal")
	}
	defer a.term.Stop()
	a.term.HideCursor()
	defer a.term.ShowCursor()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.quit = cancel

	a.start()
	a.render()

	evCh := make(chan uv.Event, 64)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return a.decodeLoop(ctx, evCh) })
	eg.Go(func() error { return a.eventLoop(ctx, evCh) })
	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// start selects the first field and sizes the viewport to the terminal.
func (a *App) start() {
	a.engine.SelectField(a.fields[a.fieldIdx])
	a.layout()
}

func (a *App) pushInput(data []byte) {
	a.inputCh <- data
}

func (a *App) pushResize() {
	select {
	case a.resizeCh <- struct{}{}:
	default:
	}
}

// decodeLoop turns raw terminal bytes into ultraviolet events. The decoder
// is stateful (escape sequences may split across reads), so it lives on
// this goroutine alone.
func (a *App) decodeLoop(ctx context.Context, out chan<- uv.Event) error {
	var decoder uv.EventDecoder
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data := <-a.inputCh:
			buf := data
			for len(buf) > 0 {
				n, ev := decoder.Decode(buf)
				if n == 0 {
					break
				}
				buf = buf[n:]
				if ev == nil {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

// eventLoop is the single goroutine that touches the engine. It also pumps
// the scheduler so debounced recomputes and playback ticks fire on time.
func (a *App) eventLoop(ctx context.Context, in <-chan uv.Event) error {
	for {
		var (
			timer *time.Timer
			due   <-chan time.Time
		)
		if deadline, ok := a.sched.NextDeadline(); ok {
			d := deadline.Sub(a.sched.Now())
			if d < 0 {
				d = 0
			}
			timer = time.NewTimer(d)
			due = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case ev := <-in:
			a.handleEvent(ev)
		case <-a.resizeCh:
			a.layout()
		case <-due:
			a.sched.RunDue()
		}
		if timer != nil {
			timer.Stop()
		}
		a.render()
	}
}

// layout sizes the plot to the terminal and pins the viewport's maximum
// window to the plot width, so the track view's one-column-per-frame
// mapping always fits on screen.
func (a *App) layout() {
	a.plotHeight = a.term.Rows() - 4
	if a.plotHeight < 3 {
		a.plotHeight = 3
	}
	width := a.term.Columns() - a.view.PlotOrigin()
	if width < timeline.MinDisplayFrames {
		width = timeline.MinDisplayFrames
	}
	vp := a.engine.Viewport()
	if vp == nil {
		return
	}
	min := a.cfg.Timeline.MinDisplayFrames
	if min <= 0 {
		min = timeline.MinDisplayFrames
	}
	vp.SetDisplayLimits(min, width)
	w := vp.Window()
	if w.Size > width {
		vp.Set(w.Start, width)
	}
	a.engine.Refresh()
}

// ── Playback ────────────────────────────────────────────────────────────────

func (a *App) frameInterval() time.Duration {
	fps := a.cfg.FPS
	if fps <= 0 {
		fps = a.store.FPS()
	}
	if fps <= 0 {
		fps = 30
	}
	return time.Duration(float64(time.Second) / fps)
}

func (a *App) togglePlayback() {
	a.playing = !a.playing
	if a.playing {
		a.schedulePlayTick()
	} else if a.playTimer != nil {
		a.playTimer.Stop()
		a.playTimer = nil
	}
}

func (a *App) schedulePlayTick() {
	a.playTimer = a.sched.AfterFunc(a.frameInterval(), func() {
		if !a.playing {
			return
		}
		if a.engine.Playhead() >= a.store.FrameCount()-1 {
			a.engine.SetPlayhead(0)
		} else {
			a.engine.StepPlayhead(1)
		}
		a.schedulePlayTick()
	})
}

// ── Field switching ─────────────────────────────────────────────────────────

func (a *App) switchField(delta int) {
	n := len(a.fields)
	a.fieldIdx = ((a.fieldIdx+delta)%n + n) % n
	a.engine.SelectField(a.fields[a.fieldIdx])
	a.rangeAnchor = -1
	// SelectField rebuilds the viewport, so re-pin it to the plot width.
	a.layout()
}

func (a *App) fieldLabel() string {
	for i := range a.doc.Fields {
		if a.doc.Fields[i].Name == a.fields[a.fieldIdx] {
			return a.doc.Fields[i].DisplayName()
		}
	}
	return a.fields[a.fieldIdx]
}

// ── Rendering ───────────────────────────────────────────────────────────────

func (a *App) render() {
	w := a.engine.Viewport()
	if w != nil {
		rel := a.engine.Playhead() - w.Window().Start
		if rel < 0 || rel >= w.Window().Size {
			rel = -1
		}
		a.view.SetPlayhead(rel)
	}

	lines := []string{a.headerLine()}
	if chart := a.view.Render(a.plotHeight); chart != "" {
		lines = append(lines, strings.Split(chart, "\n")...)
	}
	lines = append(lines, a.statusLine())

	var b strings.Builder
	b.WriteString("\x1b[?2026h\x1b[H")
	for i, l := range lines {
		if i > 0 {
			b.WriteString("\r\n")
		}
		b.WriteString(l)
		b.WriteString("\x1b[K")
	}
	b.WriteString("\x1b[J\x1b[?2026l")
	a.term.WriteString(b.String())
}

func (a *App) headerLine() string {
	return fmt.Sprintf("marionet  %s  [%d/%d] %s",
		a.doc.Name, a.fieldIdx+1, len(a.fields), a.fieldLabel())
}

func (a *App) statusLine() string {
	ph := a.engine.Playhead()
	parts := []string{
		fmt.Sprintf("frame %d/%d", ph, a.store.FrameCount()-1),
		fmt.Sprintf("value %.3f", a.store.Value(a.engine.Field(), ph)),
	}
	if a.playing {
		parts = append(parts, "playing")
	}
	if a.pencil {
		parts = append(parts, "draw")
	}
	if sel := a.engine.Selection(); sel != nil {
		if r := sel.Range(); r != nil {
			parts = append(parts, fmt.Sprintf("sel %d:%d", r.Start, r.End))
		}
	}
	parts = append(parts, fmt.Sprintf("undo %d", a.stack.Depth()))
	if a.notice != "" {
		parts = append(parts, a.notice)
	}
	parts = append(parts, "q quit  k key  h handle  v mark  p draw  u undo  w save")
	return strings.Join(parts, "  ")
}
