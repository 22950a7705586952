package editor

import (
	"fmt"

	"go.uber.org/zap"

	"metaviz/internal/format"
	"metaviz/internal/graph"
	"metaviz/internal/history"
)

// lock suspends pointer input for the length of a file operation.
func (e *Editor) lock() error {
	if e.busy {
		return ErrLocked
	}
	e.busy = true
	e.ptr.Lock()
	return nil
}

func (e *Editor) unlock() {
	e.busy = false
	e.ptr.Unlock()
}

// Save writes the history log of the board to path, or to the last path when empty.
func (e *Editor) Save(path string) error {
	if path == "" {
		path = e.path
	}
	if path == "" {
		return fmt.Errorf("no file name")
	}
	if err := e.lock(); err != nil {
		return err
	}
	defer e.unlock()

	if err := format.WriteStack(path, e.board, e.hist.Packets()); err != nil {
		e.log.Error("save failed", zap.String("path", path), zap.Error(err))
		return err
	}
	e.path = path
	e.hist.MarkClean()
	e.log.Info("board saved", zap.String("path", path), zap.Int("packets", e.hist.Len()))
	return nil
}

// Open replaces the board with the file at path. On error the board is left as it was.
func (e *Editor) Open(path string) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.unlock()

	doc, err := format.ReadFile(path)
	if err != nil {
		e.log.Error("open failed", zap.String("path", path), zap.Error(err))
		return err
	}
	e.Load(doc)
	e.path = path
	e.log.Info("board opened", zap.String("path", path), zap.String("format", doc.Format),
		zap.Int("nodes", e.store.NodeCount()), zap.Int("links", e.store.LinkCount()))
	return nil
}

// Load replaces the board with doc. An action log is replayed; a snapshot becomes the
// first entry of a fresh log.
func (e *Editor) Load(doc *format.Document) {
	e.board = doc.Board
	if e.board.ID == "" {
		e.board.ID = graph.NewID()
	}
	if doc.IsStack() {
		e.hist.Load(doc.Packets)
		if err := e.hist.Recreate(); err != nil {
			e.log.Error("replay failed", zap.Error(err))
		}
	} else {
		e.hist.Clear()
		e.Reset()
		// Record what the store built: repeated ids come back renamed.
		var nodes []*graph.Node
		for _, r := range doc.Nodes {
			nodes = append(nodes, e.store.AddNode(r.Clone(), r.Parent == e.folder))
		}
		var links []*graph.Link
		for _, r := range doc.Links {
			if l := e.store.AddLink(r, true); l != nil {
				links = append(links, l)
			}
		}
		e.hist.Record(history.Add{Nodes: records(nodes), Links: linkRecords(links)})
		e.hist.MarkClean()
	}
	e.setFolder("")
}

// NewBoard discards the current board and starts an empty one.
func (e *Editor) NewBoard(name string) {
	e.hist.Clear()
	e.Reset()
	e.board = format.Board{ID: graph.NewID(), Name: name}
	e.path = ""
	e.setFolder("")
}

// Records returns the canonical form of the current graph.
func (e *Editor) Records() ([]graph.NodeRecord, []graph.LinkRecord) {
	return e.store.Records()
}
