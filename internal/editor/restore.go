package editor

import (
	"go.uber.org/zap"

	"metaviz/internal/graph"
	"metaviz/internal/history"
)

// Restore moves the board to the state a packet describes. It implements
// history.Restorer; references that no longer resolve are skipped.
func (e *Editor) Restore(p history.Packet) error {
	switch p := p.(type) {
	case history.Add:
		for _, r := range p.Nodes {
			e.store.AddNode(r.Clone(), r.Parent == e.folder)
		}
		for _, r := range p.Links {
			e.store.AddLink(r, true)
		}
	case history.Delete:
		for _, r := range p.Links {
			e.store.DeleteLink(e.store.Link(r.ID))
		}
		for i := len(p.Nodes) - 1; i >= 0; i-- {
			e.store.DeleteNode(e.store.Node(p.Nodes[i].ID))
		}
	case history.Move:
		for _, id := range p.Nodes {
			e.store.SetPosition(id, p.Position)
		}
	case history.MoveBy:
		for _, id := range p.Nodes {
			if n := e.store.Node(id); n != nil {
				e.store.SetPosition(id, n.Position().Add(p.Offset))
			}
		}
	case history.Resize:
		for _, id := range p.Nodes {
			e.store.SetSize(id, p.Size)
			if p.Position != nil {
				e.store.SetPosition(id, *p.Position)
			}
		}
	case history.Param:
		for _, id := range p.Nodes {
			e.store.SetParams(id, p.Data)
		}
	case history.Reparent:
		for _, id := range p.Nodes {
			if e.store.SetParent(id, p.Parent) {
				e.store.SetPosition(id, p.Position)
				e.store.Node(id).Visible = p.Parent == e.folder
			}
		}
	case history.Order:
		for _, id := range p.Nodes {
			e.store.SetZ(id, p.Z)
		}
	case history.Lock:
		for _, id := range p.Nodes {
			e.store.SetLocks(id, p.Locks)
		}
	case history.Rename:
		e.board.Name = p.Name
	case history.Chat:
		if !p.Reverted && !e.seen[p.ID] {
			e.seen[p.ID] = true
			e.chat = append(e.chat, Message{ID: p.ID, Author: p.Author, Text: p.Text, Time: p.Time()})
		}
	default:
		e.log.Warn("unhandled packet", zap.String("kind", string(p.Kind())))
	}
	e.sel.Prune()
	if e.folder != "" && e.store.Node(e.folder) == nil {
		e.setFolder("")
	}
	return nil
}

// Reset empties the board before a replay. The board identity is kept.
func (e *Editor) Reset() {
	e.ptr.Cancel()
	e.store.Reset()
	e.sel.Clear()
	e.chat = nil
	e.seen = make(map[string]bool)
	e.folder = ""
	e.ptr.SetFolder("")
}

// apply changes the board as p describes and records p as a new user action.
func (e *Editor) apply(p history.Packet) bool {
	if p == nil || p.Noop() {
		return false
	}
	if err := e.Restore(p); err != nil {
		e.log.Error("apply failed", zap.String("kind", string(p.Kind())), zap.Error(err))
		return false
	}
	return e.hist.Record(p)
}

// applyEach applies several packets as separate history entries, branching once.
func (e *Editor) applyEach(packets []history.Packet) int {
	n := 0
	for _, p := range packets {
		if p.Noop() {
			continue
		}
		if n == 0 {
			e.hist.ClearFuture()
		}
		if err := e.Restore(p); err != nil {
			e.log.Error("apply failed", zap.String("kind", string(p.Kind())), zap.Error(err))
			continue
		}
		e.hist.Store(p)
		n++
	}
	return n
}

func records(nodes []*graph.Node) []graph.NodeRecord {
	out := make([]graph.NodeRecord, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Record())
	}
	return out
}

func linkRecords(links []*graph.Link) []graph.LinkRecord {
	out := make([]graph.LinkRecord, 0, len(links))
	for _, l := range links {
		out = append(out, l.Record())
	}
	return out
}
