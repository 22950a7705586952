// Package selection tracks the set of currently active nodes.
package selection

import (
	"metaviz/internal/geom"
	"metaviz/internal/graph"
)

// Selection holds node ids in selection order and resolves them through the store, so
// deleted nodes silently drop out.
type Selection struct {
	store *graph.Store
	ids   []string
	set   map[string]bool

	// offset accumulates the drag translation applied to the whole group.
	offset geom.Point
}

func New(store *graph.Store) *Selection {
	return &Selection{store: store, set: make(map[string]bool)}
}

// Add extends the selection. Already selected nodes keep their position.
func (s *Selection) Add(nodes ...*graph.Node) {
	for _, n := range nodes {
		if n == nil || s.set[n.ID] {
			continue
		}
		s.set[n.ID] = true
		s.ids = append(s.ids, n.ID)
	}
}

func (s *Selection) Remove(nodes ...*graph.Node) {
	for _, n := range nodes {
		if n == nil || !s.set[n.ID] {
			continue
		}
		delete(s.set, n.ID)
		for i, id := range s.ids {
			if id == n.ID {
				s.ids = append(s.ids[:i], s.ids[i+1:]...)
				break
			}
		}
	}
}

// Toggle flips membership of n.
func (s *Selection) Toggle(n *graph.Node) {
	if s.Has(n) {
		s.Remove(n)
	} else {
		s.Add(n)
	}
}

// Set replaces the selection with nodes.
func (s *Selection) Set(nodes ...*graph.Node) {
	s.Clear()
	s.Add(nodes...)
}

func (s *Selection) Clear() {
	s.ids = nil
	s.set = make(map[string]bool)
	s.offset = geom.Point{}
}

// All selects every node whose parent is the given folder context.
func (s *Selection) All(parent string) {
	s.Set(s.store.Children(parent)...)
}

// Get returns the live selected nodes in selection order.
func (s *Selection) Get() []*graph.Node {
	out := make([]*graph.Node, 0, len(s.ids))
	for _, id := range s.ids {
		if n := s.store.Node(id); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// IDs returns the ids of the live selected nodes.
func (s *Selection) IDs() []string {
	var out []string
	for _, n := range s.Get() {
		out = append(out, n.ID)
	}
	return out
}

func (s *Selection) Has(n *graph.Node) bool {
	return n != nil && s.set[n.ID] && s.store.Node(n.ID) == n
}

func (s *Selection) Count() int {
	return len(s.Get())
}

// Focused returns the sole selected node, or nil unless exactly one node is selected.
func (s *Selection) Focused() *graph.Node {
	nodes := s.Get()
	if len(nodes) != 1 {
		return nil
	}
	return nodes[0]
}

// Prune forgets ids that no longer resolve.
func (s *Selection) Prune() {
	live := s.Get()
	s.ids = s.ids[:0]
	s.set = make(map[string]bool, len(live))
	for _, n := range live {
		s.ids = append(s.ids, n.ID)
		s.set[n.ID] = true
	}
}

// Bounds returns the union of the selected nodes' bounds.
func (s *Selection) Bounds() (geom.Rect, bool) {
	var rects []geom.Rect
	for _, n := range s.Get() {
		rects = append(rects, n.Bounds())
	}
	return geom.Bounds(rects)
}

// Accumulate adds d to the group transform.
func (s *Selection) Accumulate(d geom.Point) {
	s.offset = s.offset.Add(d)
}

// Offset returns the group translation accumulated since the last reset.
func (s *Selection) Offset() geom.Point {
	return s.offset
}

func (s *Selection) ResetOffset() {
	s.offset = geom.Point{}
}
