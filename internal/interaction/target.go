package interaction

import (
	"sort"

	"metaviz/internal/geom"
	"metaviz/internal/graph"
	"metaviz/internal/selection"
)

type TargetKind int

const (
	TargetDesktop TargetKind = iota
	TargetNode
	TargetSocket
	TargetHandle
)

func (k TargetKind) String() string {
	switch k {
	case TargetNode:
		return "node"
	case TargetSocket:
		return "socket"
	case TargetHandle:
		return "handle"
	}
	return "desktop"
}

// Target is what sits under the pointer. Sockets and handles belong to a node and
// resolve to it through Container.
type Target struct {
	Kind   TargetKind
	Node   string
	Socket string
	Handle Handle
}

func (t Target) NodeID() string {
	if t.Kind == TargetNode {
		return t.Node
	}
	return ""
}

func (t Target) Container() graph.Element {
	if t.Kind == TargetSocket || t.Kind == TargetHandle {
		return Target{Kind: TargetNode, Node: t.Node}
	}
	return nil
}

func (t Target) same(o Target) bool {
	if t.Kind == TargetDesktop || o.Kind == TargetDesktop {
		return t.Kind == o.Kind
	}
	return t.Node == o.Node
}

type Modifiers struct {
	Ctrl  bool
	Shift bool
	Alt   bool
}

// Additive reports whether a click should extend the selection instead of replacing it.
func (m Modifiers) Additive() bool {
	return m.Ctrl || m.Shift
}

type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// SocketPoint returns the world position of the named socket of n.
func SocketPoint(n *graph.Node, name string) geom.Point {
	b := n.Bounds()
	c := b.Center()
	switch name {
	case "north":
		return geom.Pt(c.X, b.Y)
	case "south":
		return geom.Pt(c.X, b.Y+b.H)
	case "east":
		return geom.Pt(b.X+b.W, c.Y)
	case "west":
		return geom.Pt(b.X, c.Y)
	}
	return c
}

// HitTester classifies screen points against the visible nodes of the open folder.
type HitTester struct {
	Store *graph.Store
	Sel   *selection.Selection
	Nav   *Navigator
	// Tolerance is the screen-space radius for sockets and handles.
	Tolerance float64
}

// Stack returns the visible nodes of folder topmost first.
func Stack(store *graph.Store, folder string) []*graph.Node {
	nodes := store.Query(func(n *graph.Node) bool { return n.Visible && n.Parent == folder })
	// Within one z level later insertions draw on top.
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Z > nodes[j].Z })
	return nodes
}

// Hit returns the target at the screen point at: a cage handle of the focused node, then
// a socket, then a node body, else the desktop.
func (h *HitTester) Hit(folder string, at geom.Point) Target {
	tol := h.Tolerance
	if tol <= 0 {
		tol = 6
	}
	reg := h.Store.Registry()
	if f := h.Sel.Focused(); f != nil && f.Visible && f.Parent == folder && reg.TypeOf(f).Resize != graph.ResizeNone {
		b := h.Nav.WorldRectToScreen(f.Bounds())
		for _, hd := range Handles {
			if HandleRect(b, hd, tol*2).Contains(at) {
				return Target{Kind: TargetHandle, Node: f.ID, Handle: hd}
			}
		}
	}
	stack := Stack(h.Store, folder)
	for _, n := range stack {
		for _, s := range reg.TypeOf(n).Sockets {
			p := h.Nav.WorldToScreen(SocketPoint(n, s))
			if p.Sub(at).Len() <= tol {
				return Target{Kind: TargetSocket, Node: n.ID, Socket: s}
			}
		}
	}
	for _, n := range stack {
		if h.Nav.WorldRectToScreen(n.Bounds()).Contains(at) {
			return Target{Kind: TargetNode, Node: n.ID}
		}
	}
	return Target{Kind: TargetDesktop}
}
