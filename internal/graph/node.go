package graph

import (
	"reflect"

	"metaviz/internal/geom"
)

// Locks are independent per-node lock flags.
type Locks struct {
	Move    bool `json:"move,omitempty" yaml:"move,omitempty"`
	Content bool `json:"content,omitempty" yaml:"content,omitempty"`
	Delete  bool `json:"delete,omitempty" yaml:"delete,omitempty"`
}

func (l Locks) Any() bool {
	return l.Move || l.Content || l.Delete
}

// Params is a node's parameter bag. Keys declared by the node type's schema hold values
// of the declared kind; any other keys are carried through untouched.
type Params map[string]any

func (p Params) String(key string) string {
	s, _ := p[key].(string)
	return s
}

func (p Params) Number(key string) float64 {
	f, _ := p[key].(float64)
	return f
}

func (p Params) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// Equal reports whether p and o hold deep-equal values.
func (p Params) Equal(o Params) bool {
	if len(p) == 0 && len(o) == 0 {
		return true
	}
	return reflect.DeepEqual(p, o)
}

func cloneParams(p map[string]any) Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(cloneParams(t))
	case Params:
		return cloneParams(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	}
	return v
}

// CloneParams returns a deep copy of p.
func CloneParams(p map[string]any) Params {
	return cloneParams(p)
}

// Node is a placed diagram entity. Parent holds the id of the containing node, or ""
// for the board root.
type Node struct {
	ID     string
	Type   string
	Parent string
	geom.Transform
	Params  Params
	Locks   Locks
	Visible bool
	// Quarantined is set when Type was not registered when the node was built.
	Quarantined bool
}

// Caption returns the first non-empty text-like parameter of n.
func (n *Node) Caption() string {
	for _, k := range []string{"text", "name", "url", "uri"} {
		if s := n.Params.String(k); s != "" {
			return s
		}
	}
	return ""
}

// Record returns the serializable form of n.
func (n *Node) Record() NodeRecord {
	return NodeRecord{
		ID:     n.ID,
		Parent: n.Parent,
		Type:   n.Type,
		Params: cloneParams(n.Params),
		X:      n.X,
		Y:      n.Y,
		Z:      n.Z,
		W:      n.W,
		H:      n.H,
		Locks:  n.Locks,
	}
}

// Link is a directed edge. Start and End hold node ids.
type Link struct {
	ID      string
	Type    string
	Start   string
	End     string
	Visible bool
}

func (l *Link) Record() LinkRecord {
	return LinkRecord{ID: l.ID, Type: l.Type, Start: l.Start, End: l.End}
}

// Other returns the endpoint opposite to id.
func (l *Link) Other(id string) string {
	if l.Start == id {
		return l.End
	}
	return l.Start
}

// NodeRecord is the flat descriptor used to create nodes and to persist them.
type NodeRecord struct {
	ID     string         `json:"id" yaml:"id"`
	Parent string         `json:"parent,omitempty" yaml:"parent,omitempty"`
	Type   string         `json:"type" yaml:"type"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	X      float64        `json:"x" yaml:"x"`
	Y      float64        `json:"y" yaml:"y"`
	Z      int            `json:"z" yaml:"z"`
	W      float64        `json:"w" yaml:"w"`
	H      float64        `json:"h" yaml:"h"`
	Locks  Locks          `json:"locked,omitempty" yaml:"locked,omitempty"`
}

// Clone returns a copy of r that shares no mutable state with it.
func (r NodeRecord) Clone() NodeRecord {
	r.Params = cloneParams(r.Params)
	return r
}

type LinkRecord struct {
	ID    string `json:"id" yaml:"id"`
	Type  string `json:"type" yaml:"type"`
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// DefaultLinkType is used when a link descriptor carries no type.
const DefaultLinkType = "line"
