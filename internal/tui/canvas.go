package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"metaviz/internal/editor"
	"metaviz/internal/format"
	"metaviz/internal/geom"
	"metaviz/internal/graph"
	"metaviz/internal/interaction"
)

// One terminal cell covers CellW x CellH screen pixels.
const (
	CellW = 8.0
	CellH = 16.0
)

// mark tags a cell with the style it is drawn in.
type mark uint8

const (
	markNone mark = iota
	markLink
	markNode
	markFolder
	markSelected
	markLocked
	markGhost
	markHandle
)

type border struct {
	corner, horizontal, vertical rune
}

var (
	plainBorder    = border{'+', '-', '|'}
	selectedBorder = border{'#', '#', '#'}
	folderBorder   = border{'+', '=', '|'}
	unknownBorder  = border{'+', '.', ':'}
	ghostBorder    = border{'.', '.', '.'}
)

// cellRect is an inclusive range of cells.
type cellRect struct {
	x0, y0, x1, y1 int
}

func (r cellRect) w() int { return r.x1 - r.x0 + 1 }
func (r cellRect) h() int { return r.y1 - r.y0 + 1 }

func (r cellRect) contains(x, y int) bool {
	return x >= r.x0 && x <= r.x1 && y >= r.y0 && y <= r.y1
}

func toCells(r geom.Rect) cellRect {
	cr := cellRect{
		x0: int(math.Floor(r.X / CellW)),
		y0: int(math.Floor(r.Y / CellH)),
		x1: int(math.Ceil((r.X+r.W)/CellW)) - 1,
		y1: int(math.Ceil((r.Y+r.H)/CellH)) - 1,
	}
	if cr.x1 < cr.x0 {
		cr.x1 = cr.x0
	}
	if cr.y1 < cr.y0 {
		cr.y1 = cr.y0
	}
	return cr
}

type cell struct {
	x, y int
}

func cellOf(p geom.Point) cell {
	return cell{int(math.Floor(p.X / CellW)), int(math.Floor(p.Y / CellH))}
}

// cellCenter returns the screen point in the middle of terminal cell x, y.
func cellCenter(x, y int) geom.Point {
	return geom.Pt((float64(x)+0.5)*CellW, (float64(y)+0.5)*CellH)
}

type canvas struct {
	w, h  int
	cells [][]rune
	marks [][]mark
}

func newCanvas(w, h int) *canvas {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	c := &canvas{w: w, h: h, cells: make([][]rune, h), marks: make([][]mark, h)}
	for y := range c.cells {
		c.cells[y] = []rune(strings.Repeat(" ", w))
		c.marks[y] = make([]mark, w)
	}
	return c
}

func (c *canvas) set(x, y int, r rune, m mark) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y][x] = r
	c.marks[y][x] = m
}

func (c *canvas) text(x, y int, s string, m mark) {
	i := 0
	for _, r := range s {
		c.set(x+i, y, r, m)
		i++
	}
}

// frame draws the outline of r and optionally blanks its interior.
func (c *canvas) frame(r cellRect, b border, m mark, fill bool) {
	for y := r.y0; y <= r.y1; y++ {
		for x := r.x0; x <= r.x1; x++ {
			edgeY := y == r.y0 || y == r.y1
			edgeX := x == r.x0 || x == r.x1
			switch {
			case edgeX && edgeY:
				c.set(x, y, b.corner, m)
			case edgeY:
				c.set(x, y, b.horizontal, m)
			case edgeX:
				c.set(x, y, b.vertical, m)
			case fill:
				c.set(x, y, ' ', markNone)
			}
		}
	}
}

// line draws a straight run of cells from a to b ending in an arrow along the final
// step. With stop set the run ends at the last cell before it enters stop.
func (c *canvas) line(a, b cell, m mark, dotted bool, stop *cellRect) {
	dx, dy := abs(b.x-a.x), -abs(b.y-a.y)
	sx, sy := sign(b.x-a.x), sign(b.y-a.y)
	err := dx + dy
	x, y := a.x, a.y
	last := a
	var lastX, lastY int
	for x != b.x || y != b.y {
		e2 := 2 * err
		stepX, stepY := 0, 0
		if e2 >= dy {
			err += dy
			x += sx
			stepX = sx
		}
		if e2 <= dx {
			err += dx
			y += sy
			stepY = sy
		}
		if stop != nil && stop.contains(x, y) {
			break
		}
		r := stroke(stepX, stepY)
		if dotted {
			r = '.'
		}
		c.set(x, y, r, m)
		last, lastX, lastY = cell{x, y}, stepX, stepY
	}
	if last != a {
		c.set(last.x, last.y, arrow(lastX, lastY), m)
	}
}

func stroke(sx, sy int) rune {
	switch {
	case sy == 0:
		return '-'
	case sx == 0:
		return '|'
	case sx == sy:
		return '\\'
	}
	return '/'
}

func arrow(sx, sy int) rune {
	switch {
	case sx > 0 && sy == 0:
		return '>'
	case sx < 0 && sy == 0:
		return '<'
	case sy > 0:
		return 'v'
	}
	return '^'
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// plain returns the rows without styling.
func (c *canvas) plain() []string {
	out := make([]string, c.h)
	for y, row := range c.cells {
		out[y] = string(row)
	}
	return out
}

// styled returns the rows with each run of equally marked cells rendered in its style.
func (c *canvas) styled(st Styles) []string {
	out := make([]string, c.h)
	for y, row := range c.cells {
		var b strings.Builder
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && c.marks[y][x] == c.marks[y][start] {
				continue
			}
			b.WriteString(st.forMark(c.marks[y][start]).Render(string(row[start:x])))
			start = x
		}
		out[y] = b.String()
	}
	return out
}

// draw renders the open folder of e onto a w x h cell grid. Without chrome the
// selection and gesture previews are left out.
func draw(e *editor.Editor, w, h int, chrome bool) *canvas {
	c := newCanvas(w, h)
	store := e.Store()
	nav := e.Navigator()
	sel := e.Selection()
	reg := store.Registry()

	nodes := interaction.Stack(store, e.Folder())
	shown := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		shown[n.ID] = true
	}

	for _, l := range store.Links() {
		if !shown[l.Start] || !shown[l.End] {
			continue
		}
		end := store.Node(l.End).Bounds()
		from, to := format.Anchors(store.Node(l.Start).Bounds(), end)
		stop := toCells(nav.WorldRectToScreen(end))
		c.line(cellOf(nav.WorldToScreen(from)), cellOf(nav.WorldToScreen(to)), markLink, false, &stop)
	}

	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		c.node(n, reg.TypeOf(n), toCells(nav.WorldRectToScreen(n.Bounds())), chrome && sel.Has(n))
	}
	if !chrome {
		return c
	}

	if f := sel.Focused(); f != nil && shown[f.ID] && reg.TypeOf(f).Resize != graph.ResizeNone {
		r := toCells(nav.WorldRectToScreen(f.Bounds()))
		for _, p := range []cell{{r.x0, r.y0}, {r.x1, r.y0}, {r.x0, r.y1}, {r.x1, r.y1}} {
			c.set(p.x, p.y, 'o', markHandle)
		}
	}

	if p, ok := e.Pointer().Link(); ok {
		if n := store.Node(p.Start); n != nil {
			from := nav.WorldToScreen(interaction.SocketPoint(n, p.Socket))
			c.line(cellOf(from), cellOf(nav.WorldToScreen(p.End)), markGhost, true, nil)
		}
	}
	if b, ok := e.Pointer().Box(); ok {
		c.frame(toCells(b), ghostBorder, markGhost, false)
	}
	return c
}

// node draws n as a framed box with its caption. Boxes without interior rows carry the
// caption in the top border.
func (c *canvas) node(n *graph.Node, t *graph.NodeType, r cellRect, selected bool) {
	b, m := plainBorder, markNode
	switch {
	case n.Quarantined:
		b = unknownBorder
	case t.Container:
		b, m = folderBorder, markFolder
	}
	if n.Locks.Any() {
		m = markLocked
	}
	if selected {
		b, m = selectedBorder, markSelected
	}
	c.frame(r, b, m, true)

	caption := n.Caption()
	if caption == "" || n.Quarantined {
		caption = t.DisplayName
		if n.Quarantined {
			caption = "unknown: " + n.Type
		}
	}
	if t.Icon != "" {
		caption = t.Icon + " " + caption
	}

	inner := r.w() - 2
	if inner < 1 {
		return
	}
	if r.h() < 3 {
		c.text(r.x0+1, r.y0, truncate.String(oneLine(caption), uint(inner)), m)
		return
	}
	lines := strings.Split(wordwrap.String(caption, inner), "\n")
	for i, line := range lines {
		if i >= r.h()-2 {
			break
		}
		c.text(r.x0+1, r.y0+1+i, truncate.String(line, uint(inner)), markNone)
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Styles colors the canvas and the status line.
type Styles struct {
	Link     lipgloss.Style
	Node     lipgloss.Style
	Folder   lipgloss.Style
	Selected lipgloss.Style
	Locked   lipgloss.Style
	Ghost    lipgloss.Style
	Handle   lipgloss.Style
	Status   lipgloss.Style
	Mode     lipgloss.Style
	Error    lipgloss.Style
	Message  lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Link:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Node:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Folder:   lipgloss.NewStyle().Foreground(lipgloss.Color("111")),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		Locked:   lipgloss.NewStyle().Foreground(lipgloss.Color("167")),
		Ghost:    lipgloss.NewStyle().Foreground(lipgloss.Color("81")),
		Handle:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		Status:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Background(lipgloss.Color("236")),
		Mode:     lipgloss.NewStyle().Foreground(lipgloss.Color("16")).Background(lipgloss.Color("111")).Bold(true).Padding(0, 1),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160")).Padding(0, 1),
		Message:  lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Background(lipgloss.Color("236")).Padding(0, 1),
	}
}

func (st Styles) forMark(m mark) lipgloss.Style {
	switch m {
	case markLink:
		return st.Link
	case markNode:
		return st.Node
	case markFolder:
		return st.Folder
	case markSelected:
		return st.Selected
	case markLocked:
		return st.Locked
	case markGhost:
		return st.Ghost
	case markHandle:
		return st.Handle
	}
	return lipgloss.NewStyle()
}
