package format

import (
	"encoding/json"
	"fmt"

	"metaviz/internal/geom"
	"metaviz/internal/graph"
)

// Snapshot is the MetavizJSON document: the graph as flat node and link records.
type Snapshot struct {
	Format  string             `json:"format" yaml:"format"`
	Version int                `json:"version" yaml:"version"`
	ID      string             `json:"id" yaml:"id"`
	Name    string             `json:"name" yaml:"name"`
	Nodes   []graph.NodeRecord `json:"nodes" yaml:"nodes"`
	Links   []graph.LinkRecord `json:"links" yaml:"links"`
}

func NewSnapshot(board Board, nodes []graph.NodeRecord, links []graph.LinkRecord) Snapshot {
	if nodes == nil {
		nodes = []graph.NodeRecord{}
	}
	if links == nil {
		links = []graph.LinkRecord{}
	}
	return Snapshot{
		Format:  TagSnapshot,
		Version: SnapshotVersion,
		ID:      board.ID,
		Name:    board.Name,
		Nodes:   nodes,
		Links:   links,
	}
}

// Marshal encodes s as JSON, the form placed on the clipboard.
func (s Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// ParseSnapshot decodes a JSON snapshot.
func ParseSnapshot(data []byte) (Snapshot, error) {
	return decodeSnapshot(data, CodecJSON)
}

func decodeSnapshot(data []byte, codec Codec) (Snapshot, error) {
	var s Snapshot
	if err := codec.unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Format != TagSnapshot {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownFormat, s.Format)
	}
	if err := checkVersion(s.Version, SnapshotVersion); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Options are the transforms applied to a snapshot before it is inserted into a board.
type Options struct {
	// Reindex gives every node and link a fresh id and remaps references.
	Reindex bool
	// Reparent moves the snapshot's top-level nodes into Parent.
	Reparent bool
	Parent   string
	// Realign translates the snapshot's top-level nodes by Offset.
	Realign bool
	Offset  geom.Point
}

// Transform returns the records of s with opts applied. s is not modified.
// Top-level means the node's parent is not part of the snapshot; nested nodes keep
// coordinates relative to their folder.
func (s Snapshot) Transform(opts Options) ([]graph.NodeRecord, []graph.LinkRecord) {
	inside := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		inside[n.ID] = true
	}
	ids := make(map[string]string, len(s.Nodes))
	if opts.Reindex {
		for _, n := range s.Nodes {
			ids[n.ID] = graph.NewID()
		}
	}
	remap := func(id string) string {
		if nid, ok := ids[id]; ok {
			return nid
		}
		return id
	}

	nodes := make([]graph.NodeRecord, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		n = n.Clone()
		top := !inside[n.Parent]
		n.ID = remap(n.ID)
		n.Parent = remap(n.Parent)
		if top && opts.Reparent {
			n.Parent = opts.Parent
		}
		if top && opts.Realign {
			n.X += opts.Offset.X
			n.Y += opts.Offset.Y
		}
		nodes = append(nodes, n)
	}
	links := make([]graph.LinkRecord, 0, len(s.Links))
	for _, l := range s.Links {
		if opts.Reindex {
			l.ID = graph.NewID()
		}
		l.Start = remap(l.Start)
		l.End = remap(l.End)
		links = append(links, l)
	}
	return nodes, links
}

// Bounds returns the union of the top-level node rectangles.
func (s Snapshot) Bounds() (geom.Rect, bool) {
	inside := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		inside[n.ID] = true
	}
	var rects []geom.Rect
	for _, n := range s.Nodes {
		if !inside[n.Parent] {
			rects = append(rects, geom.Rect{X: n.X, Y: n.Y, W: n.W, H: n.H})
		}
	}
	return geom.Bounds(rects)
}
