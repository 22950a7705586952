package editor

import (
	"fmt"

	"go.uber.org/zap"

	"metaviz/internal/geom"
	"metaviz/internal/graph"
	"metaviz/internal/history"
)

// AddNode creates a node of typ at the world point at in the open folder and selects it.
func (e *Editor) AddNode(typ string, at geom.Point) (*graph.Node, error) {
	if _, ok := e.store.Registry().Lookup(typ); !ok {
		return nil, fmt.Errorf("unknown node type %q", typ)
	}
	at = geom.SnapPoint(at, e.grid())
	n := e.store.AddNode(graph.NodeRecord{
		Type:   typ,
		Parent: e.folder,
		X:      at.X,
		Y:      at.Y,
		Z:      e.store.MaxZ(e.folder) + 1,
	}, true)
	e.hist.Record(history.Add{Nodes: []graph.NodeRecord{n.Record()}})
	e.sel.Set(n)
	e.log.Debug("node added", zap.String("id", n.ID), zap.String("type", typ))
	return n, nil
}

// DeleteSelected deletes the selection after confirmation.
func (e *Editor) DeleteSelected() bool {
	nodes := e.sel.Get()
	if len(nodes) == 0 {
		return false
	}
	if e.confirm != nil && !e.confirm(fmt.Sprintf("Delete %d node(s)?", len(nodes))) {
		return false
	}
	return e.Delete(nodes...)
}

// Delete removes nodes together with their descendants and every incident link as one
// history entry. A node is kept along with its whole subtree when it or any descendant
// is delete-locked.
func (e *Editor) Delete(nodes ...*graph.Node) bool {
	var doomed []*graph.Node
	seen := make(map[string]bool)
	for _, n := range nodes {
		if n == nil || seen[n.ID] {
			continue
		}
		tree := e.store.Subtree(n)
		if l := deleteLocked(tree); l != nil {
			e.say(fmt.Sprintf("%s is locked", e.title(l)))
			continue
		}
		for _, d := range tree {
			if !seen[d.ID] {
				seen[d.ID] = true
				doomed = append(doomed, d)
			}
		}
	}
	if len(doomed) == 0 {
		return false
	}
	var links []*graph.Link
	linked := make(map[string]bool)
	for _, n := range doomed {
		for _, l := range e.store.Incident(n) {
			if !linked[l.ID] {
				linked[l.ID] = true
				links = append(links, l)
			}
		}
	}
	return e.apply(history.Delete{Nodes: records(doomed), Links: linkRecords(links)})
}

func deleteLocked(tree []*graph.Node) *graph.Node {
	for _, n := range tree {
		if n.Locks.Delete {
			return n
		}
	}
	return nil
}

// pair returns the two selected nodes in selection order.
func (e *Editor) pair() (*graph.Node, *graph.Node, error) {
	nodes := e.sel.Get()
	if len(nodes) != 2 {
		return nil, nil, ErrNeedTwoNodes
	}
	return nodes[0], nodes[1], nil
}

func (e *Editor) linkBetween(a, b *graph.Node) *graph.Link {
	typ := e.ptr.Settings().LinkType
	if l := e.store.LinkBetween(a.ID, b.ID, typ); l != nil {
		return l
	}
	return e.store.LinkBetween(b.ID, a.ID, typ)
}

// Link connects the two selected nodes, first to second. Already connected pairs are
// left alone.
func (e *Editor) Link() error {
	a, b, err := e.pair()
	if err != nil {
		return err
	}
	if e.linkBetween(a, b) != nil {
		return nil
	}
	l := e.store.AddLink(graph.LinkRecord{Type: e.ptr.Settings().LinkType, Start: a.ID, End: b.ID}, true)
	if l != nil {
		e.hist.Record(history.Add{Links: []graph.LinkRecord{l.Record()}})
	}
	return nil
}

// Unlink removes the link between the two selected nodes in either direction.
func (e *Editor) Unlink() error {
	a, b, err := e.pair()
	if err != nil {
		return err
	}
	if l := e.linkBetween(a, b); l != nil {
		e.apply(history.Delete{Links: []graph.LinkRecord{l.Record()}})
	}
	return nil
}

func (e *Editor) ToggleLink() error {
	a, b, err := e.pair()
	if err != nil {
		return err
	}
	if e.linkBetween(a, b) != nil {
		return e.Unlink()
	}
	return e.Link()
}

func (e *Editor) Undo() bool {
	e.ptr.Cancel()
	ok := e.hist.Undo()
	e.sel.Prune()
	return ok
}

func (e *Editor) Redo() bool {
	e.ptr.Cancel()
	ok := e.hist.Redo()
	e.sel.Prune()
	return ok
}

// SetParams changes parameters of n. A nil value removes the key.
func (e *Editor) SetParams(n *graph.Node, data map[string]any) bool {
	if n == nil || len(data) == 0 {
		return false
	}
	if n.Locks.Content {
		e.say(fmt.Sprintf("%s is locked", e.title(n)))
		return false
	}
	prev := make(map[string]any, len(data))
	for k := range data {
		prev[k] = graph.CloneParams(map[string]any{k: n.Params[k]})[k]
	}
	e.store.SetParams(n.ID, data)
	next := make(map[string]any, len(data))
	for k := range data {
		next[k] = graph.CloneParams(map[string]any{k: n.Params[k]})[k]
	}
	return e.hist.Record(history.Param{Nodes: []string{n.ID}, Data: next, Prev: prev})
}

// SetBoardName renames the board.
func (e *Editor) SetBoardName(name string) bool {
	return e.apply(history.Rename{Name: name, NamePrev: e.board.Name})
}

// Say adds a message to the board conversation.
func (e *Editor) Say(author, text string) bool {
	return e.apply(history.Chat{ID: graph.NewID(), Author: author, Text: text})
}

// SetLocks sets the lock flags of nodes, one history entry per changed node.
func (e *Editor) SetLocks(nodes []*graph.Node, locks graph.Locks) int {
	var packets []history.Packet
	for _, n := range nodes {
		packets = append(packets, history.Lock{Nodes: []string{n.ID}, Locks: locks, LocksPrev: n.Locks})
	}
	return e.applyEach(packets)
}

// ToggleLock locks every selected node fully, or unlocks all of them when any is locked.
func (e *Editor) ToggleLock() int {
	nodes := e.sel.Get()
	locks := graph.Locks{Move: true, Content: true, Delete: true}
	for _, n := range nodes {
		if n.Locks.Any() {
			locks = graph.Locks{}
			break
		}
	}
	return e.SetLocks(nodes, locks)
}

// Reparent moves nodes into parent, keeping their positions. Moving a node into itself
// or one of its descendants is refused.
func (e *Editor) Reparent(nodes []*graph.Node, parent string) int {
	if parent != "" {
		p := e.store.Node(parent)
		if p == nil || !e.store.Registry().TypeOf(p).Container {
			return 0
		}
	}
	var packets []history.Packet
	for _, n := range nodes {
		if n.ID == parent || e.isAncestor(n, parent) || n.Locks.Move {
			continue
		}
		packets = append(packets, history.Reparent{
			Nodes:        []string{n.ID},
			Parent:       parent,
			ParentPrev:   n.Parent,
			Position:     n.Position(),
			PositionPrev: n.Position(),
		})
	}
	return e.applyEach(packets)
}

// isAncestor reports whether n is an ancestor of the node id.
func (e *Editor) isAncestor(n *graph.Node, id string) bool {
	for _, a := range e.store.Ancestors(e.store.Node(id)) {
		if a.ID == n.ID {
			return true
		}
	}
	return false
}

// OpenFolder makes the folder node id the viewing context.
func (e *Editor) OpenFolder(id string) bool {
	n := e.store.Node(id)
	if n == nil || !e.store.Registry().TypeOf(n).Container {
		return false
	}
	e.setFolder(id)
	return true
}

// CloseFolder returns to the parent of the open folder.
func (e *Editor) CloseFolder() bool {
	if e.folder == "" {
		return false
	}
	parent := ""
	if n := e.store.Node(e.folder); n != nil {
		parent = n.Parent
	}
	e.setFolder(parent)
	return true
}

func (e *Editor) setFolder(id string) {
	e.folder = id
	for _, n := range e.store.Nodes() {
		n.Visible = n.Parent == id
	}
	e.sel.Clear()
	e.ptr.SetFolder(id)
	e.nav.Reset()
}

// FolderPath returns the chain of open folders from the board root.
func (e *Editor) FolderPath() []*graph.Node {
	n := e.store.Node(e.folder)
	if n == nil {
		return nil
	}
	chain := append([]*graph.Node{n}, e.store.Ancestors(n)...)
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
