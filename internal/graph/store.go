// Package graph owns the canonical set of nodes and links: identity, existence,
// containment and link-direction traversal.
package graph

import (
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"metaviz/internal/geom"
)

type EventKind int

const (
	NodeAdded EventKind = iota
	NodeDeleted
	NodeQuarantined
	LinkAdded
	LinkDeleted
)

// Event is delivered to subscribers after the store changed.
type Event struct {
	Kind EventKind
	Node *Node
	Link *Link
}

// Element is anything a hit test can return: a node body, a socket, a caption. The store
// resolves it to a node by walking up the containment chain.
type Element interface {
	// NodeID returns the id of the node the element directly belongs to, or "".
	NodeID() string
	// Container returns the enclosing element, or nil at the top.
	Container() Element
}

// Store is the sole owner of node and link lifetimes. It does not cascade deletes;
// callers compute the affected set first.
type Store struct {
	reg *Registry
	log *zap.Logger

	nodes     map[string]*Node
	nodeOrder []string
	links     map[string]*Link
	linkOrder []string

	out map[string][]string
	in  map[string][]string

	subs []func(Event)
}

func NewStore(reg *Registry, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{reg: reg, log: log.Named("graph")}
	s.Reset()
	return s
}

func (s *Store) Registry() *Registry {
	return s.reg
}

// Reset drops every node and link without notifying subscribers.
func (s *Store) Reset() {
	s.nodes = make(map[string]*Node)
	s.nodeOrder = nil
	s.links = make(map[string]*Link)
	s.linkOrder = nil
	s.out = make(map[string][]string)
	s.in = make(map[string][]string)
}

// Subscribe registers fn for change notifications.
func (s *Store) Subscribe(fn func(Event)) {
	s.subs = append(s.subs, fn)
}

func (s *Store) emit(e Event) {
	for _, fn := range s.subs {
		fn(e)
	}
}

// NewID returns a fresh entity identifier.
func NewID() string {
	return uuid.NewString()
}

// AddNode creates a node from rec. A missing id is generated. An id that is already
// live is replaced by a fresh one so identities stay unique.
func (s *Store) AddNode(rec NodeRecord, visible bool) *Node {
	if rec.ID == "" {
		rec.ID = NewID()
	} else if _, taken := s.nodes[rec.ID]; taken {
		s.log.Warn("duplicate node id, assigning a new one", zap.String("id", rec.ID))
		rec.ID = NewID()
	}
	n := s.reg.Build(rec)
	n.Visible = visible
	s.nodes[n.ID] = n
	s.nodeOrder = append(s.nodeOrder, n.ID)
	s.emit(Event{Kind: NodeAdded, Node: n})
	if n.Quarantined {
		s.log.Warn("unknown node type quarantined", zap.String("id", n.ID), zap.String("type", n.Type))
		s.emit(Event{Kind: NodeQuarantined, Node: n})
	}
	return n
}

// Node returns the live node with id, or nil.
func (s *Store) Node(id string) *Node {
	if id == "" {
		return nil
	}
	return s.nodes[id]
}

// Nodes returns all live nodes in insertion order.
func (s *Store) Nodes() []*Node {
	out := make([]*Node, 0, len(s.nodeOrder))
	for _, id := range s.nodeOrder {
		out = append(out, s.nodes[id])
	}
	return out
}

// Query returns the live nodes for which match returns true, in insertion order.
func (s *Store) Query(match func(*Node) bool) []*Node {
	var out []*Node
	for _, id := range s.nodeOrder {
		if n := s.nodes[id]; match(n) {
			out = append(out, n)
		}
	}
	return out
}

// NodesOfType returns every live node tagged typ.
func (s *Store) NodesOfType(typ string) []*Node {
	return s.Query(func(n *Node) bool { return n.Type == typ })
}

// Children returns the direct children of parent; "" selects top-level nodes.
func (s *Store) Children(parent string) []*Node {
	return s.Query(func(n *Node) bool { return n.Parent == parent })
}

// Resolve walks el up its containment chain and returns the first live node found.
func (s *Store) Resolve(el Element) *Node {
	for el != nil {
		if n := s.Node(el.NodeID()); n != nil {
			return n
		}
		el = el.Container()
	}
	return nil
}

func (s *Store) NodeCount() int {
	return len(s.nodes)
}

// DeleteNode removes n from the live set. Children and incident links are left alone.
func (s *Store) DeleteNode(n *Node) bool {
	if n == nil || s.nodes[n.ID] != n {
		return false
	}
	delete(s.nodes, n.ID)
	s.nodeOrder = removeID(s.nodeOrder, n.ID)
	s.emit(Event{Kind: NodeDeleted, Node: n})
	return true
}

// Subtree returns n followed by all of its descendants, parents before children.
func (s *Store) Subtree(n *Node) []*Node {
	if n == nil {
		return nil
	}
	out := []*Node{n}
	seen := map[string]bool{n.ID: true}
	for i := 0; i < len(out); i++ {
		for _, c := range s.Children(out[i].ID) {
			if !seen[c.ID] {
				seen[c.ID] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// Ancestors returns the parent chain of n, nearest first. Dangling parents end the walk.
func (s *Store) Ancestors(n *Node) []*Node {
	var out []*Node
	seen := map[string]bool{}
	for n != nil && n.Parent != "" && !seen[n.Parent] {
		seen[n.Parent] = true
		p := s.Node(n.Parent)
		if p == nil {
			break
		}
		out = append(out, p)
		n = p
	}
	return out
}

// AddLink creates a link between two live nodes. It returns nil without touching the
// store when either endpoint does not resolve.
func (s *Store) AddLink(rec LinkRecord, visible bool) *Link {
	if s.Node(rec.Start) == nil || s.Node(rec.End) == nil {
		s.log.Debug("link endpoint not found",
			zap.String("id", rec.ID), zap.String("start", rec.Start), zap.String("end", rec.End))
		return nil
	}
	if rec.ID == "" {
		rec.ID = NewID()
	} else if _, taken := s.links[rec.ID]; taken {
		rec.ID = NewID()
	}
	if rec.Type == "" {
		rec.Type = DefaultLinkType
	}
	l := &Link{ID: rec.ID, Type: rec.Type, Start: rec.Start, End: rec.End, Visible: visible}
	s.links[l.ID] = l
	s.linkOrder = append(s.linkOrder, l.ID)
	s.out[l.Start] = append(s.out[l.Start], l.ID)
	s.in[l.End] = append(s.in[l.End], l.ID)
	s.emit(Event{Kind: LinkAdded, Link: l})
	return l
}

func (s *Store) Link(id string) *Link {
	return s.links[id]
}

// Links returns all live links in insertion order.
func (s *Store) Links() []*Link {
	out := make([]*Link, 0, len(s.linkOrder))
	for _, id := range s.linkOrder {
		out = append(out, s.links[id])
	}
	return out
}

func (s *Store) LinkCount() int {
	return len(s.links)
}

// DeleteLink removes l from the live list.
func (s *Store) DeleteLink(l *Link) bool {
	if l == nil || s.links[l.ID] != l {
		return false
	}
	delete(s.links, l.ID)
	s.linkOrder = removeID(s.linkOrder, l.ID)
	s.out[l.Start] = removeID(s.out[l.Start], l.ID)
	s.in[l.End] = removeID(s.in[l.End], l.ID)
	if len(s.out[l.Start]) == 0 {
		delete(s.out, l.Start)
	}
	if len(s.in[l.End]) == 0 {
		delete(s.in, l.End)
	}
	s.emit(Event{Kind: LinkDeleted, Link: l})
	return true
}

// Outgoing returns the links starting at n.
func (s *Store) Outgoing(n *Node) []*Link {
	if n == nil {
		return nil
	}
	return s.resolveLinks(s.out[n.ID])
}

// Incoming returns the links ending at n.
func (s *Store) Incoming(n *Node) []*Link {
	if n == nil {
		return nil
	}
	return s.resolveLinks(s.in[n.ID])
}

// Incident returns every link touching n, outgoing first.
func (s *Store) Incident(n *Node) []*Link {
	out := s.Outgoing(n)
	for _, l := range s.Incoming(n) {
		if l.Start != l.End {
			out = append(out, l)
		}
	}
	return out
}

// LinkBetween returns the link of typ going from start to end, if any.
func (s *Store) LinkBetween(start, end, typ string) *Link {
	for _, id := range s.out[start] {
		l := s.links[id]
		if l.End == end && (typ == "" || l.Type == typ) {
			return l
		}
	}
	return nil
}

func (s *Store) resolveLinks(ids []string) []*Link {
	out := make([]*Link, 0, len(ids))
	for _, id := range ids {
		if l, ok := s.links[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

// SetPosition moves n without recording history.
func (s *Store) SetPosition(id string, p geom.Point) bool {
	n := s.Node(id)
	if n == nil {
		return false
	}
	n.SetPosition(p)
	return true
}

func (s *Store) SetSize(id string, sz geom.Size) bool {
	n := s.Node(id)
	if n == nil {
		return false
	}
	n.SetSize(sz)
	return true
}

func (s *Store) SetZ(id string, z int) bool {
	n := s.Node(id)
	if n == nil {
		return false
	}
	n.Z = z
	return true
}

// SetParams applies data onto the parameter bag of n. Values for schema fields are
// coerced to the declared kind; a nil value removes the key.
func (s *Store) SetParams(id string, data map[string]any) bool {
	n := s.Node(id)
	if n == nil {
		return false
	}
	t := s.reg.TypeOf(n)
	for k, v := range data {
		if v == nil {
			delete(n.Params, k)
			continue
		}
		if f, ok := t.Field(k); ok && !n.Quarantined {
			if cv, ok := coerce(f.Kind, v); ok {
				n.Params[k] = cv
			}
			continue
		}
		n.Params[k] = cloneValue(v)
	}
	return true
}

func (s *Store) SetParent(id, parent string) bool {
	n := s.Node(id)
	if n == nil {
		return false
	}
	n.Parent = parent
	return true
}

func (s *Store) SetLocks(id string, l Locks) bool {
	n := s.Node(id)
	if n == nil {
		return false
	}
	n.Locks = l
	return true
}

// MaxZ returns the highest z-order among the children of parent.
func (s *Store) MaxZ(parent string) int {
	z := 0
	for _, n := range s.Children(parent) {
		if n.Z > z {
			z = n.Z
		}
	}
	return z
}

// Records returns the canonical form of the whole graph: node and link records sorted
// by id. Two stores holding the same graph produce deep-equal records.
func (s *Store) Records() ([]NodeRecord, []LinkRecord) {
	nodes := make([]NodeRecord, 0, len(s.nodes))
	for _, n := range s.nodes {
		nodes = append(nodes, n.Record())
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	links := make([]LinkRecord, 0, len(s.links))
	for _, l := range s.links {
		links = append(links, l.Record())
	}
	sort.Slice(links, func(i, j int) bool { return links[i].ID < links[j].ID })
	return nodes, links
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
