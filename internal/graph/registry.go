package graph

import (
	"fmt"
	"sort"

	"metaviz/internal/geom"
)

// ResizeMode controls how the cage turns pointer deltas into a new size.
type ResizeMode string

const (
	ResizeFree  ResizeMode = "free"
	ResizeRatio ResizeMode = "ratio"
	ResizeAvg   ResizeMode = "avg"
	ResizeNone  ResizeMode = "none"
)

type ParamKind int

const (
	ParamString ParamKind = iota
	ParamNumber
	ParamBool
)

func (k ParamKind) String() string {
	switch k {
	case ParamString:
		return "string"
	case ParamNumber:
		return "number"
	case ParamBool:
		return "bool"
	}
	return fmt.Sprintf("ParamKind(%d)", int(k))
}

// ParamField is one named, typed parameter of a node type.
type ParamField struct {
	Name    string
	Kind    ParamKind
	Default any
}

// NodeType is the registry entry behind a node type tag.
type NodeType struct {
	Name        string
	DisplayName string
	Icon        string
	Size        geom.Size
	MinSize     geom.Size
	MaxSize     geom.Size
	Resize      ResizeMode
	Sockets     []string
	Params      []ParamField
	// Container types own the nodes whose parent points at them.
	Container bool
	// SVG returns the vector fragment drawn for n, in node-local coordinates.
	SVG func(n *Node) string
	// Init runs after defaults are applied to a freshly built node.
	Init func(n *Node)
}

func (t *NodeType) Field(name string) (ParamField, bool) {
	for _, f := range t.Params {
		if f.Name == name {
			return f, true
		}
	}
	return ParamField{}, false
}

// QuarantineType is the placeholder type substituted for unregistered tags.
const QuarantineType = "quarantine"

// Registry maps node type tags to their factories and metadata.
type Registry struct {
	types map[string]*NodeType
}

func NewRegistry() *Registry {
	r := &Registry{types: make(map[string]*NodeType)}
	r.Register(&NodeType{
		Name:        QuarantineType,
		DisplayName: "Unknown node",
		Icon:        "?",
		Size:        geom.Sz(160, 80),
		MinSize:     geom.Sz(160, 80),
		MaxSize:     geom.Sz(160, 80),
		Resize:      ResizeNone,
		SVG: func(n *Node) string {
			return rectSVG(n, "unknown: "+n.Type)
		},
	})
	return r
}

// Register adds or replaces a node type.
func (r *Registry) Register(t *NodeType) {
	if t.Resize == "" {
		t.Resize = ResizeFree
	}
	r.types[t.Name] = t
}

func (r *Registry) Lookup(name string) (*NodeType, bool) {
	t, ok := r.types[name]
	return t, ok
}

// TypeOf returns the type metadata for n, falling back to the quarantine type.
func (r *Registry) TypeOf(n *Node) *NodeType {
	if n != nil && !n.Quarantined {
		if t, ok := r.types[n.Type]; ok {
			return t
		}
	}
	return r.types[QuarantineType]
}

// Names returns the registered tags, quarantine excluded, sorted.
func (r *Registry) Names() []string {
	var names []string
	for name := range r.types {
		if name != QuarantineType {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Build constructs a node from rec. Unknown tags produce a quarantined node which keeps
// the original record untouched so it round-trips on save.
func (r *Registry) Build(rec NodeRecord) *Node {
	n := &Node{
		ID:      rec.ID,
		Type:    rec.Type,
		Parent:  rec.Parent,
		Locks:   rec.Locks,
		Visible: true,
		Transform: geom.Transform{
			X: rec.X, Y: rec.Y, Z: rec.Z, W: rec.W, H: rec.H,
		},
	}
	t, ok := r.types[rec.Type]
	if !ok || rec.Type == QuarantineType {
		n.Quarantined = true
		n.Params = cloneParams(rec.Params)
		if n.Params == nil {
			n.Params = Params{}
		}
		qt := r.types[QuarantineType]
		if n.W <= 0 || n.H <= 0 {
			n.W, n.H = qt.Size.W, qt.Size.H
		}
		return n
	}

	n.Params = Params{}
	for _, f := range t.Params {
		n.Params[f.Name] = f.Default
	}
	for k, v := range rec.Params {
		if f, ok := t.Field(k); ok {
			if cv, ok := coerce(f.Kind, v); ok {
				n.Params[k] = cv
			}
			continue
		}
		n.Params[k] = v
	}
	if n.W <= 0 {
		n.W = t.Size.W
	}
	if n.H <= 0 {
		n.H = t.Size.H
	}
	if t.Init != nil {
		t.Init(n)
	}
	return n
}

func coerce(kind ParamKind, v any) (any, bool) {
	switch kind {
	case ParamString:
		s, ok := v.(string)
		return s, ok
	case ParamBool:
		b, ok := v.(bool)
		return b, ok
	case ParamNumber:
		switch n := v.(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case uint64:
			return float64(n), true
		}
	}
	return nil, false
}
