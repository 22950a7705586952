package editor

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"metaviz/internal/format"
	"metaviz/internal/geom"
	"metaviz/internal/graph"
	"metaviz/internal/history"
)

// Snapshot returns the selection, its descendants and the links among them.
func (e *Editor) Snapshot() (format.Snapshot, bool) {
	var nodes []*graph.Node
	seen := make(map[string]bool)
	for _, n := range e.sel.Get() {
		for _, d := range e.store.Subtree(n) {
			if !seen[d.ID] {
				seen[d.ID] = true
				nodes = append(nodes, d)
			}
		}
	}
	if len(nodes) == 0 {
		return format.Snapshot{}, false
	}
	var links []*graph.Link
	for _, l := range e.store.Links() {
		if seen[l.Start] && seen[l.End] {
			links = append(links, l)
		}
	}
	return format.NewSnapshot(e.board, records(nodes), linkRecords(links)), true
}

// Copy places a snapshot of the selection on the clipboard.
func (e *Editor) Copy() error {
	s, ok := e.Snapshot()
	if !ok {
		return nil
	}
	data, err := s.Marshal()
	if err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}
	if err := e.clip.WriteText(string(data)); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// Cut copies the selection and deletes it.
func (e *Editor) Cut() error {
	if err := e.Copy(); err != nil {
		return err
	}
	e.Delete(e.sel.Get()...)
	return nil
}

// Paste inserts the clipboard at the world point at. A snapshot is inserted with fresh
// ids into the open folder; any other text becomes a text node.
func (e *Editor) Paste(at geom.Point) error {
	text, err := e.clip.ReadText()
	if err != nil {
		return fmt.Errorf("read clipboard: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	s, err := format.ParseSnapshot([]byte(text))
	if err != nil {
		e.log.Debug("clipboard is not a snapshot, pasting text", zap.Error(err))
		n, err := e.AddNode("text", at)
		if err != nil {
			return err
		}
		e.SetParams(n, map[string]any{"text": plainText(text)})
		return nil
	}
	e.Insert(s, at)
	return nil
}

// Duplicate copies the selection next to itself. After a group drag the copy is offset
// by the drag, and the copies carry that offset so repeated duplicates keep stepping.
func (e *Editor) Duplicate() int {
	s, ok := e.Snapshot()
	if !ok {
		return 0
	}
	b, _ := s.Bounds()
	off := e.sel.Offset()
	if off == (geom.Point{}) {
		off = geom.Pt(e.step(), e.step())
	}
	top := e.Insert(s, b.Min().Add(off))
	e.sel.Accumulate(off)
	return len(top)
}

// Insert adds the snapshot with its top left corner at the world point at, reindexed and
// reparented into the open folder, as one history entry. It selects and returns the
// inserted top-level nodes.
func (e *Editor) Insert(s format.Snapshot, at geom.Point) []*graph.Node {
	b, ok := s.Bounds()
	if !ok {
		return nil
	}
	at = geom.SnapPoint(at, e.grid())
	nodeRecs, linkRecs := s.Transform(format.Options{
		Reindex:  true,
		Reparent: true,
		Parent:   e.folder,
		Realign:  true,
		Offset:   at.Sub(b.Min()),
	})
	var added []*graph.Node
	var top []*graph.Node
	for _, r := range nodeRecs {
		n := e.store.AddNode(r, r.Parent == e.folder)
		added = append(added, n)
		if n.Parent == e.folder {
			top = append(top, n)
		}
	}
	var links []*graph.Link
	for _, r := range linkRecs {
		if l := e.store.AddLink(r, true); l != nil {
			links = append(links, l)
		}
	}
	e.hist.Record(history.Add{Nodes: records(added), Links: linkRecords(links)})
	e.sel.Set(top...)
	return top
}
