package editor

import (
	"sort"

	"metaviz/internal/geom"
	"metaviz/internal/graph"
	"metaviz/internal/history"
)

// movable returns the selected nodes that are not move-locked.
func (e *Editor) movable() []*graph.Node {
	var out []*graph.Node
	for _, n := range e.sel.Get() {
		if n.Locks.Move {
			e.say(e.title(n) + " is locked")
			continue
		}
		out = append(out, n)
	}
	return out
}

func (e *Editor) moveTo(nodes []*graph.Node, pos []geom.Point) int {
	var packets []history.Packet
	for i, n := range nodes {
		packets = append(packets, history.Move{
			Nodes:        []string{n.ID},
			Position:     geom.SnapPoint(pos[i], e.grid()),
			PositionPrev: n.Position(),
		})
	}
	return e.applyEach(packets)
}

// SortRow lines the selection up left to right, ordered by x, starting at the
// selection's top left corner.
func (e *Editor) SortRow() int {
	return e.sortLine(true)
}

// SortColumn stacks the selection top to bottom, ordered by y.
func (e *Editor) SortColumn() int {
	return e.sortLine(false)
}

func (e *Editor) sortLine(row bool) int {
	nodes := e.movable()
	if len(nodes) < 2 {
		return 0
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].Position(), nodes[j].Position()
		if row {
			return a.X < b.X || (a.X == b.X && a.Y < b.Y)
		}
		return a.Y < b.Y || (a.Y == b.Y && a.X < b.X)
	})
	rects := make([]geom.Rect, 0, len(nodes))
	for _, n := range nodes {
		rects = append(rects, n.Bounds())
	}
	b, _ := geom.Bounds(rects)
	gap := e.step()
	pos := make([]geom.Point, len(nodes))
	cursor := b.Min()
	for i, n := range nodes {
		pos[i] = cursor
		if row {
			cursor.X += n.W + gap
		} else {
			cursor.Y += n.H + gap
		}
	}
	return e.moveTo(nodes, pos)
}

// AlignHorizontal puts the centers of the selection on the first node's horizontal line.
func (e *Editor) AlignHorizontal() int {
	return e.align(true)
}

// AlignVertical puts the centers of the selection on the first node's vertical line.
func (e *Editor) AlignVertical() int {
	return e.align(false)
}

func (e *Editor) align(horizontal bool) int {
	sel := e.sel.Get()
	if len(sel) < 2 {
		return 0
	}
	c := sel[0].Bounds().Center()
	nodes := e.movable()
	pos := make([]geom.Point, len(nodes))
	for i, n := range nodes {
		p := n.Position()
		if horizontal {
			p.Y = c.Y - n.H/2
		} else {
			p.X = c.X - n.W/2
		}
		pos[i] = p
	}
	return e.moveTo(nodes, pos)
}

// Nudge moves the selection by dx, dy grid steps.
func (e *Editor) Nudge(dx, dy int) int {
	nodes := e.movable()
	d := geom.Pt(float64(dx), float64(dy)).Scale(e.step())
	pos := make([]geom.Point, len(nodes))
	for i, n := range nodes {
		pos[i] = n.Position().Add(d)
	}
	return e.moveTo(nodes, pos)
}

// Raise brings the selection above every sibling, keeping its relative order.
func (e *Editor) Raise() int {
	nodes := e.byZ()
	var packets []history.Packet
	top := map[string]int{}
	for _, n := range nodes {
		z, ok := top[n.Parent]
		if !ok {
			z = e.store.MaxZ(n.Parent)
		}
		z++
		top[n.Parent] = z
		packets = append(packets, history.Order{Nodes: []string{n.ID}, Z: z, ZPrev: n.Z})
	}
	return e.applyEach(packets)
}

// Lower sends the selection below every sibling, keeping its relative order.
func (e *Editor) Lower() int {
	nodes := e.byZ()
	var packets []history.Packet
	bottom := map[string]int{}
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		z, ok := bottom[n.Parent]
		if !ok {
			z = e.minZ(n.Parent)
		}
		z--
		bottom[n.Parent] = z
		packets = append(packets, history.Order{Nodes: []string{n.ID}, Z: z, ZPrev: n.Z})
	}
	return e.applyEach(packets)
}

func (e *Editor) byZ() []*graph.Node {
	nodes := e.sel.Get()
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Z < nodes[j].Z })
	return nodes
}

func (e *Editor) minZ(parent string) int {
	z := 0
	for i, n := range e.store.Children(parent) {
		if i == 0 || n.Z < z {
			z = n.Z
		}
	}
	return z
}

// ResetSize returns the selection to the default size of its node types.
func (e *Editor) ResetSize() int {
	var packets []history.Packet
	for _, n := range e.sel.Get() {
		t := e.store.Registry().TypeOf(n)
		if t.Resize == graph.ResizeNone || n.Locks.Move {
			continue
		}
		packets = append(packets, history.Resize{Nodes: []string{n.ID}, Size: t.Size, SizePrev: n.Size()})
	}
	return e.applyEach(packets)
}
