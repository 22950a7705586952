package history

import (
	"fmt"

	"metaviz/internal/geom"
	"metaviz/internal/graph"
)

// Record is the flat key/value form of a packet used by the action log file format.
// Session is carried by the enclosing session block, not by the record itself.
type Record struct {
	Action       Kind               `json:"action" yaml:"action"`
	Timestamp    int64              `json:"timestamp" yaml:"timestamp"`
	Session      string             `json:"-" yaml:"-"`
	Nodes        []graph.NodeRecord `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Links        []graph.LinkRecord `json:"links,omitempty" yaml:"links,omitempty"`
	IDs          []string           `json:"ids,omitempty" yaml:"ids,omitempty"`
	Position     *geom.Point        `json:"position,omitempty" yaml:"position,omitempty"`
	PositionPrev *geom.Point        `json:"positionPrev,omitempty" yaml:"positionPrev,omitempty"`
	Offset       *geom.Point        `json:"offset,omitempty" yaml:"offset,omitempty"`
	Size         *geom.Size         `json:"size,omitempty" yaml:"size,omitempty"`
	SizePrev     *geom.Size         `json:"sizePrev,omitempty" yaml:"sizePrev,omitempty"`
	Data         map[string]any     `json:"data,omitempty" yaml:"data,omitempty"`
	Prev         map[string]any     `json:"prev,omitempty" yaml:"prev,omitempty"`
	Parent       *string            `json:"parent,omitempty" yaml:"parent,omitempty"`
	ParentPrev   *string            `json:"parentPrev,omitempty" yaml:"parentPrev,omitempty"`
	Z            *int               `json:"z,omitempty" yaml:"z,omitempty"`
	ZPrev        *int               `json:"zPrev,omitempty" yaml:"zPrev,omitempty"`
	Locks        *graph.Locks       `json:"locked,omitempty" yaml:"locked,omitempty"`
	LocksPrev    *graph.Locks       `json:"lockedPrev,omitempty" yaml:"lockedPrev,omitempty"`
	Name         *string            `json:"name,omitempty" yaml:"name,omitempty"`
	NamePrev     *string            `json:"namePrev,omitempty" yaml:"namePrev,omitempty"`
	MessageID    string             `json:"messageId,omitempty" yaml:"messageId,omitempty"`
	Author       string             `json:"author,omitempty" yaml:"author,omitempty"`
	Message      string             `json:"message,omitempty" yaml:"message,omitempty"`
}

// Encode flattens p.
func Encode(p Packet) Record {
	h := p.head()
	r := Record{Action: p.Kind(), Timestamp: h.Timestamp, Session: h.Session}
	switch p := p.(type) {
	case Add:
		r.Nodes, r.Links = p.Nodes, p.Links
	case Delete:
		r.Nodes, r.Links = p.Nodes, p.Links
	case Move:
		r.IDs = p.Nodes
		r.Position, r.PositionPrev = &p.Position, &p.PositionPrev
	case MoveBy:
		r.IDs = p.Nodes
		r.Offset = &p.Offset
	case Resize:
		r.IDs = p.Nodes
		r.Size, r.SizePrev = &p.Size, &p.SizePrev
		r.Position, r.PositionPrev = p.Position, p.PositionPrev
	case Param:
		r.IDs = p.Nodes
		r.Data, r.Prev = p.Data, p.Prev
	case Reparent:
		r.IDs = p.Nodes
		r.Parent, r.ParentPrev = &p.Parent, &p.ParentPrev
		r.Position, r.PositionPrev = &p.Position, &p.PositionPrev
	case Order:
		r.IDs = p.Nodes
		r.Z, r.ZPrev = &p.Z, &p.ZPrev
	case Lock:
		r.IDs = p.Nodes
		r.Locks, r.LocksPrev = &p.Locks, &p.LocksPrev
	case Rename:
		r.Name, r.NamePrev = &p.Name, &p.NamePrev
	case Chat:
		r.MessageID, r.Author, r.Message = p.ID, p.Author, p.Text
	}
	return r
}

// Decode rebuilds the packet described by r.
func Decode(r Record) (Packet, error) {
	h := Header{Timestamp: r.Timestamp, Session: r.Session}
	switch r.Action {
	case KindAdd:
		return Add{Header: h, Nodes: r.Nodes, Links: r.Links}, nil
	case KindDelete:
		return Delete{Header: h, Nodes: r.Nodes, Links: r.Links}, nil
	case KindMove:
		if r.Offset != nil {
			return MoveBy{Header: h, Nodes: r.IDs, Offset: *r.Offset}, nil
		}
		return Move{Header: h, Nodes: r.IDs, Position: point(r.Position), PositionPrev: point(r.PositionPrev)}, nil
	case KindResize:
		p := Resize{Header: h, Nodes: r.IDs, Size: size(r.Size), SizePrev: size(r.SizePrev)}
		if r.Position != nil && r.PositionPrev != nil {
			p.Position, p.PositionPrev = r.Position, r.PositionPrev
		}
		return p, nil
	case KindParam:
		return Param{Header: h, Nodes: r.IDs, Data: r.Data, Prev: r.Prev}, nil
	case KindReparent:
		return Reparent{
			Header:       h,
			Nodes:        r.IDs,
			Parent:       str(r.Parent),
			ParentPrev:   str(r.ParentPrev),
			Position:     point(r.Position),
			PositionPrev: point(r.PositionPrev),
		}, nil
	case KindOrder:
		return Order{Header: h, Nodes: r.IDs, Z: integer(r.Z), ZPrev: integer(r.ZPrev)}, nil
	case KindLock:
		p := Lock{Header: h, Nodes: r.IDs}
		if r.Locks != nil {
			p.Locks = *r.Locks
		}
		if r.LocksPrev != nil {
			p.LocksPrev = *r.LocksPrev
		}
		return p, nil
	case KindRename:
		return Rename{Header: h, Name: str(r.Name), NamePrev: str(r.NamePrev)}, nil
	case KindChat:
		return Chat{Header: h, ID: r.MessageID, Author: r.Author, Text: r.Message}, nil
	}
	return nil, fmt.Errorf("unknown history action %q", r.Action)
}

func point(p *geom.Point) geom.Point {
	if p == nil {
		return geom.Point{}
	}
	return *p
}

func size(s *geom.Size) geom.Size {
	if s == nil {
		return geom.Size{}
	}
	return *s
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func integer(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
