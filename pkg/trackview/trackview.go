// Package trackview renders one field's timeline as styled text rows: a
// value gutter on the left, the plot area, and a frame axis underneath. It
// implements timeline.Display; the engine pushes window-relative payloads
// after every refresh and the app asks the view for its rendered lines.
//
// The view draws one column per visible frame, so the app keeps the
// engine's viewport sized to the plot width.
package trackview

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/marionet/marionet/pkg/timeline"
)

// Glyphs used in the plot area.
const (
	glyphCurve    = '·'
	glyphKey      = '●'
	glyphSelected = '◆'
	glyphGhost    = '○'
	glyphHandle   = '+'
	glyphPlayhead = '┊'
)

// Styles colors the chart. Zero-value styles render plain text, which is
// what the golden tests compare against after stripping escapes.
type Styles struct {
	Curve    lipgloss.Style
	Key      lipgloss.Style
	Selected lipgloss.Style
	Ghost    lipgloss.Style
	Handle   lipgloss.Style
	Axis     lipgloss.Style
	Label    lipgloss.Style
	Playhead lipgloss.Style
	Range    lipgloss.Style
}

// DefaultStyles is the editor's stock palette.
func DefaultStyles() Styles {
	return Styles{
		Curve:    lipgloss.NewStyle().Foreground(lipgloss.Color("63")),
		Key:      lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true),
		Ghost:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Handle:   lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		Axis:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Playhead: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Range:    lipgloss.NewStyle().Foreground(lipgloss.Color("229")),
	}
}

// View is the chart renderer. All frame indices it holds are
// window-relative (0 = leftmost visible column).
type View struct {
	styles Styles

	opts     timeline.Options
	keys     []int
	handles  map[int]timeline.HandlePair
	selected map[int]bool
	selRange *timeline.Range
	ghosts   []timeline.GhostPoint
	playhead int
}

// New creates an empty view with the default styles.
func New() *View {
	return &View{styles: DefaultStyles(), playhead: -1}
}

// SetStyles replaces the palette.
func (v *View) SetStyles(s Styles) { v.styles = s }

// ApplyOptions stores the refresh payload.
func (v *View) ApplyOptions(opts timeline.Options) { v.opts = opts }

// SetKeyframes stores the visible keyframe columns.
func (v *View) SetKeyframes(rel []int) { v.keys = rel }

// SetHandles stores the visible handle control points per keyframe column.
func (v *View) SetHandles(handles map[int]timeline.HandlePair) { v.handles = handles }

// SetSelectedKeyframes stores the selected keyframe columns.
func (v *View) SetSelectedKeyframes(rel []int) {
	v.selected = make(map[int]bool, len(rel))
	for _, k := range rel {
		v.selected[k] = true
	}
}

// SetSelectionRange stores the active range selection (nil clears).
func (v *View) SetSelectionRange(r *timeline.Range) { v.selRange = r }

// SetGhostPoints stores the drag preview points.
func (v *View) SetGhostPoints(points []timeline.GhostPoint) { v.ghosts = points }

// SetPlayhead marks a column as the playhead (-1 hides it).
func (v *View) SetPlayhead(rel int) { v.playhead = rel }

// Width returns the plot width in columns (one per visible frame).
func (v *View) Width() int { return len(v.opts.Data) }

func (v *View) gutterWidth() int {
	top := fmt.Sprintf("%.1f", v.opts.YMax)
	bot := fmt.Sprintf("%.1f", v.opts.YMin)
	if len(bot) > len(top) {
		return len(bot)
	}
	return len(top)
}

// PlotOrigin returns the terminal column of the first plot cell: the value
// gutter plus the border column. Mouse hit-testing subtracts it to recover
// window-relative frame columns.
func (v *View) PlotOrigin() int { return v.gutterWidth() + 1 }

type cell struct {
	r  rune
	st *lipgloss.Style
}

// Render draws the chart with the given plot height. The result has
// height+2 lines: the plot rows, the bottom border (selection range drawn
// heavy), and the frame-axis labels.
func (v *View) Render(height int) string {
	cols := len(v.opts.Data)
	if cols == 0 || height < 2 {
		return ""
	}

	grid := make([][]cell, height)
	for r := range grid {
		row := make([]cell, cols)
		for c := range row {
			row[c] = cell{r: ' '}
		}
		grid[r] = row
	}

	put := func(col, row int, r rune, st *lipgloss.Style) {
		if col < 0 || col >= cols || row < 0 || row >= height {
			return
		}
		grid[row][col] = cell{r: r, st: st}
	}

	for c, val := range v.opts.Data {
		put(c, v.rowFor(val, height), glyphCurve, &v.styles.Curve)
	}

	// Handles under their keys so the key glyph wins at the key column.
	for k, pair := range v.handles {
		if pair.In != nil {
			put(k+int(math.Round(pair.In.DFrame)), v.rowFor(pair.In.Value, height), glyphHandle, &v.styles.Handle)
		}
		if pair.Out != nil {
			put(k+int(math.Round(pair.Out.DFrame)), v.rowFor(pair.Out.Value, height), glyphHandle, &v.styles.Handle)
		}
	}

	for _, k := range v.keys {
		if k < 0 || k >= cols {
			continue
		}
		r, st := glyphKey, &v.styles.Key
		if v.selected[k] {
			r, st = glyphSelected, &v.styles.Selected
		}
		put(k, v.rowFor(v.opts.Data[k], height), r, st)
	}

	for _, g := range v.ghosts {
		put(g.Frame, v.rowFor(g.Value, height), glyphGhost, &v.styles.Ghost)
	}

	if v.playhead >= 0 && v.playhead < cols {
		for r := 0; r < height; r++ {
			if grid[r][v.playhead].r == ' ' {
				grid[r][v.playhead] = cell{r: glyphPlayhead, st: &v.styles.Playhead}
			}
		}
	}

	top := fmt.Sprintf("%.1f", v.opts.YMax)
	bot := fmt.Sprintf("%.1f", v.opts.YMin)
	gutter := v.gutterWidth()

	lines := make([]string, 0, height+2)
	for r := 0; r < height; r++ {
		label, border := "", "│"
		switch r {
		case 0:
			label, border = top, "┤"
		case height - 1:
			label, border = bot, "┤"
		}
		prefix := v.styles.Label.Render(pad(label, gutter)) + v.styles.Axis.Render(border)
		lines = append(lines, strings.TrimRight(prefix+renderCells(grid[r]), " "))
	}

	lines = append(lines, v.renderBorder(gutter, cols))
	lines = append(lines, v.renderAxis(gutter, cols))
	return strings.Join(lines, "\n")
}

// rowFor maps a value to a plot row, row 0 at YMax.
func (v *View) rowFor(val float64, height int) int {
	span := v.opts.YMax - v.opts.YMin
	if span <= 0 || math.IsNaN(val) || math.IsInf(val, 0) {
		return -1
	}
	row := int(math.Round((v.opts.YMax - val) / span * float64(height-1)))
	if row < 0 || row >= height {
		return -1
	}
	return row
}

func (v *View) renderBorder(gutter, cols int) string {
	lo, hi := -1, -1
	if v.selRange != nil {
		lo, hi = v.selRange.Start, v.selRange.End
	}
	var b strings.Builder
	for c := 0; c < cols; c++ {
		if c >= lo && c <= hi {
			b.WriteRune('━')
		} else {
			b.WriteRune('─')
		}
	}
	line := b.String()
	if lo >= 0 {
		line = v.styles.Range.Render(line)
	} else {
		line = v.styles.Axis.Render(line)
	}
	return strings.Repeat(" ", gutter) + v.styles.Axis.Render("└") + line
}

func (v *View) renderAxis(gutter, cols int) string {
	if len(v.opts.XLabels) == 0 {
		return ""
	}
	left := strconv.Itoa(v.opts.XLabels[0])
	right := strconv.Itoa(v.opts.XLabels[len(v.opts.XLabels)-1])

	row := []byte(strings.Repeat(" ", cols))
	copy(row, left)
	// Right label only when it fits without colliding with the left one.
	if ansi.StringWidth(left)+ansi.StringWidth(right)+1 <= cols {
		copy(row[cols-len(right):], right)
	}
	return strings.Repeat(" ", gutter+1) + v.styles.Label.Render(strings.TrimRight(string(row), " "))
}

func renderCells(cells []cell) string {
	var b strings.Builder
	for i := 0; i < len(cells); {
		j := i
		for j < len(cells) && cells[j].st == cells[i].st {
			j++
		}
		run := make([]rune, 0, j-i)
		for _, c := range cells[i:j] {
			run = append(run, c.r)
		}
		if cells[i].st != nil {
			b.WriteString(cells[i].st.Render(string(run)))
		} else {
			b.WriteString(string(run))
		}
		i = j
	}
	return b.String()
}

func pad(s string, width int) string {
	if n := width - len(s); n > 0 {
		return strings.Repeat(" ", n) + s
	}
	return s
}

var _ timeline.Display = (*View)(nil)
