package history

import (
	"reflect"
	"time"

	"metaviz/internal/geom"
	"metaviz/internal/graph"
)

type Kind string

const (
	KindAdd      Kind = "add"
	KindDelete   Kind = "delete"
	KindMove     Kind = "move"
	KindResize   Kind = "resize"
	KindParam    Kind = "parameter-change"
	KindReparent Kind = "reparent"
	KindOrder    Kind = "order"
	KindLock     Kind = "lock"
	KindRename   Kind = "rename-board"
	KindChat     Kind = "chat-message"
)

// Packet is one committed, invertible mutation. The set of implementations is closed.
type Packet interface {
	Kind() Kind
	Time() time.Time
	// Mirror returns the packet whose forward effect undoes this one.
	// Mirror(Mirror(p)) is deep-equal to p.
	Mirror() Packet
	// Noop reports whether applying the packet would not change anything.
	Noop() bool

	head() Header
	stamp(Header) Packet
}

// Header carries the bookkeeping shared by all packets. Timestamp is in unix
// milliseconds so that packets survive serialization unchanged.
type Header struct {
	Timestamp int64
	Session   string
}

func (h Header) Time() time.Time {
	return time.UnixMilli(h.Timestamp)
}

func (h Header) head() Header {
	return h
}

// Add creates the listed nodes (parents first) and then the listed links.
type Add struct {
	Header
	Nodes []graph.NodeRecord
	Links []graph.LinkRecord
}

func (Add) Kind() Kind { return KindAdd }

func (p Add) Mirror() Packet {
	return Delete{Header: p.Header, Nodes: p.Nodes, Links: p.Links}
}

func (p Add) Noop() bool {
	return len(p.Nodes) == 0 && len(p.Links) == 0
}

func (p Add) stamp(h Header) Packet {
	p.Header = h
	return p
}

// Delete destroys the listed links and then the listed nodes.
type Delete struct {
	Header
	Nodes []graph.NodeRecord
	Links []graph.LinkRecord
}

func (Delete) Kind() Kind { return KindDelete }

func (p Delete) Mirror() Packet {
	return Add{Header: p.Header, Nodes: p.Nodes, Links: p.Links}
}

func (p Delete) Noop() bool {
	return len(p.Nodes) == 0 && len(p.Links) == 0
}

func (p Delete) stamp(h Header) Packet {
	p.Header = h
	return p
}

// Move sets the absolute position of every listed node.
type Move struct {
	Header
	Nodes        []string
	Position     geom.Point
	PositionPrev geom.Point
}

func (Move) Kind() Kind { return KindMove }

func (p Move) Mirror() Packet {
	p.Position, p.PositionPrev = p.PositionPrev, p.Position
	return p
}

func (p Move) Noop() bool {
	return len(p.Nodes) == 0 || p.Position == p.PositionPrev
}

func (p Move) stamp(h Header) Packet {
	p.Header = h
	return p
}

// MoveBy translates every listed node by Offset. The editor records absolute moves;
// MoveBy exists for logs that carry relative offsets.
type MoveBy struct {
	Header
	Nodes  []string
	Offset geom.Point
}

func (MoveBy) Kind() Kind { return KindMove }

func (p MoveBy) Mirror() Packet {
	p.Offset = p.Offset.Neg()
	return p
}

func (p MoveBy) Noop() bool {
	return len(p.Nodes) == 0 || p.Offset == (geom.Point{})
}

func (p MoveBy) stamp(h Header) Packet {
	p.Header = h
	return p
}

// Resize sets the size of every listed node. A corner other than the bottom right
// also moves the node; Position and PositionPrev are nil when it stays put.
type Resize struct {
	Header
	Nodes        []string
	Size         geom.Size
	SizePrev     geom.Size
	Position     *geom.Point
	PositionPrev *geom.Point
}

func (Resize) Kind() Kind { return KindResize }

func (p Resize) Mirror() Packet {
	p.Size, p.SizePrev = p.SizePrev, p.Size
	p.Position, p.PositionPrev = p.PositionPrev, p.Position
	return p
}

func (p Resize) Noop() bool {
	if len(p.Nodes) == 0 {
		return true
	}
	return p.Size == p.SizePrev && !p.moves()
}

func (p Resize) moves() bool {
	return p.Position != nil && p.PositionPrev != nil && *p.Position != *p.PositionPrev
}

func (p Resize) stamp(h Header) Packet {
	p.Header = h
	return p
}

// Param applies Data onto the parameter bag of every listed node. Prev holds the values
// the same keys had before; a nil value means the key was absent.
type Param struct {
	Header
	Nodes []string
	Data  map[string]any
	Prev  map[string]any
}

func (Param) Kind() Kind { return KindParam }

func (p Param) Mirror() Packet {
	p.Data, p.Prev = p.Prev, p.Data
	return p
}

func (p Param) Noop() bool {
	if len(p.Nodes) == 0 {
		return true
	}
	if len(p.Data) == 0 && len(p.Prev) == 0 {
		return true
	}
	return reflect.DeepEqual(p.Data, p.Prev)
}

func (p Param) stamp(h Header) Packet {
	p.Header = h
	return p
}

// Reparent moves nodes into another container. Parent and position change together.
type Reparent struct {
	Header
	Nodes        []string
	Parent       string
	ParentPrev   string
	Position     geom.Point
	PositionPrev geom.Point
}

func (Reparent) Kind() Kind { return KindReparent }

func (p Reparent) Mirror() Packet {
	p.Parent, p.ParentPrev = p.ParentPrev, p.Parent
	p.Position, p.PositionPrev = p.PositionPrev, p.Position
	return p
}

func (p Reparent) Noop() bool {
	return len(p.Nodes) == 0 || (p.Parent == p.ParentPrev && p.Position == p.PositionPrev)
}

func (p Reparent) stamp(h Header) Packet {
	p.Header = h
	return p
}

// Order changes the z-order of the listed nodes.
type Order struct {
	Header
	Nodes []string
	Z     int
	ZPrev int
}

func (Order) Kind() Kind { return KindOrder }

func (p Order) Mirror() Packet {
	p.Z, p.ZPrev = p.ZPrev, p.Z
	return p
}

func (p Order) Noop() bool {
	return len(p.Nodes) == 0 || p.Z == p.ZPrev
}

func (p Order) stamp(h Header) Packet {
	p.Header = h
	return p
}

type Lock struct {
	Header
	Nodes     []string
	Locks     graph.Locks
	LocksPrev graph.Locks
}

func (Lock) Kind() Kind { return KindLock }

func (p Lock) Mirror() Packet {
	p.Locks, p.LocksPrev = p.LocksPrev, p.Locks
	return p
}

func (p Lock) Noop() bool {
	return len(p.Nodes) == 0 || p.Locks == p.LocksPrev
}

func (p Lock) stamp(h Header) Packet {
	p.Header = h
	return p
}

// Rename sets the board name.
type Rename struct {
	Header
	Name     string
	NamePrev string
}

func (Rename) Kind() Kind { return KindRename }

func (p Rename) Mirror() Packet {
	p.Name, p.NamePrev = p.NamePrev, p.Name
	return p
}

func (p Rename) Noop() bool {
	return p.Name == p.NamePrev
}

func (p Rename) stamp(h Header) Packet {
	p.Header = h
	return p
}

// Chat appends a message to the board conversation. Messages are not invertible:
// the mirror only flips Reverted, and applying a reverted chat does nothing.
type Chat struct {
	Header
	ID       string
	Author   string
	Text     string
	Reverted bool
}

func (Chat) Kind() Kind { return KindChat }

func (p Chat) Mirror() Packet {
	p.Reverted = !p.Reverted
	return p
}

func (p Chat) Noop() bool {
	return p.Text == ""
}

func (p Chat) stamp(h Header) Packet {
	p.Header = h
	return p
}
