package editor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"metaviz/internal/format"
	"metaviz/internal/geom"
	"metaviz/internal/graph"
	"metaviz/internal/history"
	"metaviz/internal/interaction"
)

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newEditor(t *testing.T) (*Editor, *MemoryClipboard) {
	t.Helper()
	clip := &MemoryClipboard{}
	c := &clock{t: time.UnixMilli(1_700_000_000_000)}
	e := New(Options{Logger: zap.NewNop(), Clipboard: clip, Clock: c.now, Session: "test"})
	return e, clip
}

func add(t *testing.T, e *Editor, typ string, x, y float64) *graph.Node {
	t.Helper()
	n, err := e.AddNode(typ, geom.Pt(x, y))
	require.NoError(t, err)
	return n
}

// drag moves n by d screen pixels with the pointer.
func drag(e *Editor, n *graph.Node, d geom.Point) {
	start := e.Navigator().WorldToScreen(n.Bounds().Center())
	target := interaction.Target{Kind: interaction.TargetNode, Node: n.ID}
	at := time.Unix(0, 0).Add(time.Duration(e.History().Len()+1) * time.Hour)
	e.Pointer().Down(interaction.Event{Pos: start, Target: target, Time: at})
	e.Pointer().Move(interaction.Event{Pos: start.Add(d), Target: target, Time: at})
	e.Pointer().Up(interaction.Event{Pos: start.Add(d), Target: target, Time: at})
}

func snapshot(e *Editor) ([]graph.NodeRecord, []graph.LinkRecord) {
	return e.Records()
}

func TestAddMoveUndoRedo(t *testing.T) {
	e, _ := newEditor(t)
	a := add(t, e, "label", 0, 0)

	drag(e, a, geom.Pt(100, 100))
	require.Equal(t, 2, e.History().Len())
	mv, ok := e.History().Packets()[1].(history.Move)
	require.True(t, ok)
	assert.Equal(t, []string{a.ID}, mv.Nodes)
	assert.Equal(t, geom.Pt(100, 100), mv.Position)
	assert.Equal(t, geom.Pt(0, 0), mv.PositionPrev)

	require.True(t, e.Undo())
	assert.Equal(t, geom.Pt(0, 0), a.Position())
	require.True(t, e.Redo())
	assert.Equal(t, geom.Pt(100, 100), a.Position())
}

func TestResizeFromCornerUndo(t *testing.T) {
	e, _ := newEditor(t)
	a := add(t, e, "text", 100, 100)
	nw := interaction.Target{Kind: interaction.TargetHandle, Node: a.ID, Handle: interaction.HandleNW}
	at := time.Unix(0, 0)
	e.Pointer().Down(interaction.Event{Pos: geom.Pt(100, 100), Target: nw, Time: at})
	e.Pointer().Move(interaction.Event{Pos: geom.Pt(60, 60), Time: at})
	e.Pointer().Up(interaction.Event{Pos: geom.Pt(60, 60), Time: at})

	moved := geom.Rect{X: 60, Y: 60, W: 280, H: 200}
	assert.Equal(t, moved, a.Bounds())
	require.Equal(t, 2, e.History().Len())

	require.True(t, e.Undo())
	assert.Equal(t, geom.Rect{X: 100, Y: 100, W: 240, H: 160}, a.Bounds())
	require.True(t, e.Redo())
	assert.Equal(t, moved, a.Bounds())
}

// buildScene performs one of each mutating operation.
func buildScene(t *testing.T, e *Editor) {
	t.Helper()
	a := add(t, e, "text", 0, 0)
	b := add(t, e, "label", 400, 0)
	f := add(t, e, "folder", 0, 400)
	e.Selection().Set(a, b)
	require.NoError(t, e.Link())
	drag(e, b, geom.Pt(40, 40))
	require.True(t, e.SetParams(a, map[string]any{"text": "hello", "extra": "kept"}))
	e.Selection().Set(b)
	require.Equal(t, 1, e.Reparent([]*graph.Node{b}, f.ID))
	e.Selection().Set(a)
	require.Equal(t, 1, e.Raise())
	require.Equal(t, 1, e.SetLocks([]*graph.Node{a}, graph.Locks{Move: true}))
	require.True(t, e.SetBoardName("Plans"))
	require.True(t, e.Say("me", "hi"))
	e.Store().SetSize(f.ID, geom.Sz(200, 200))
	e.History().Record(history.Resize{Nodes: []string{f.ID}, Size: geom.Sz(200, 200), SizePrev: geom.Sz(96, 96)})
	e.Selection().Set(f)
	require.True(t, e.Delete(f))
}

func TestUndoRedoInverseLaw(t *testing.T) {
	e, _ := newEditor(t)
	beforeNodes, beforeLinks := snapshot(e)

	buildScene(t, e)
	afterNodes, afterLinks := snapshot(e)
	after := e.Board()
	n := e.History().Len()
	require.Greater(t, n, 10)

	for i := 0; i < n; i++ {
		require.True(t, e.Undo(), "undo %d", i)
	}
	nodes, links := snapshot(e)
	assert.Equal(t, beforeNodes, nodes)
	assert.Equal(t, beforeLinks, links)
	assert.Equal(t, "", e.Board().Name)

	for i := 0; i < n; i++ {
		require.True(t, e.Redo(), "redo %d", i)
	}
	nodes, links = snapshot(e)
	assert.Equal(t, afterNodes, nodes)
	assert.Equal(t, afterLinks, links)
	assert.Equal(t, after.Name, e.Board().Name)
	assert.Len(t, e.Messages(), 1, "chat messages are not duplicated by redo")
}

func TestRecreateMatchesLiveState(t *testing.T) {
	e, _ := newEditor(t)
	buildScene(t, e)
	nodes, links := snapshot(e)

	require.NoError(t, e.History().Recreate())
	n2, l2 := snapshot(e)
	assert.Equal(t, nodes, n2)
	assert.Equal(t, links, l2)
	assert.Equal(t, "Plans", e.Board().Name)
	assert.Len(t, e.Messages(), 1)

	other, _ := newEditor(t)
	other.Load(&format.Document{Format: format.TagStack, Board: e.Board(), Packets: e.History().Packets()})
	n3, l3 := snapshot(other)
	assert.Equal(t, nodes, n3)
	assert.Equal(t, links, l3)
	assert.False(t, other.Dirty())
}

func TestLoadSnapshotWithRepeatedIDs(t *testing.T) {
	e, _ := newEditor(t)
	e.Load(&format.Document{
		Format: format.TagSnapshot,
		Nodes: []graph.NodeRecord{
			{ID: "x", Type: "label", X: 0, Y: 0},
			{ID: "x", Type: "label", X: 300, Y: 0},
		},
	})
	require.Equal(t, 2, e.Store().NodeCount())
	nodes, _ := snapshot(e)

	pk, ok := e.History().Packets()[0].(history.Add)
	require.True(t, ok)
	require.Len(t, pk.Nodes, 2)
	assert.NotEqual(t, pk.Nodes[0].ID, pk.Nodes[1].ID)

	require.NoError(t, e.History().Recreate())
	replayed, _ := snapshot(e)
	assert.Equal(t, nodes, replayed, "replay keeps the ids the store assigned")

	require.True(t, e.Undo())
	assert.Equal(t, 0, e.Store().NodeCount())
}

func TestDeleteCascade(t *testing.T) {
	e, _ := newEditor(t)
	f := add(t, e, "folder", 0, 0)
	x := add(t, e, "label", 300, 0)
	y := add(t, e, "label", 600, 0)
	c1 := e.Store().AddNode(graph.NodeRecord{Type: "label", Parent: f.ID}, false)
	c2 := e.Store().AddNode(graph.NodeRecord{Type: "label", Parent: c1.ID}, false)
	out := e.Store().AddLink(graph.LinkRecord{Start: f.ID, End: x.ID}, true)
	in := e.Store().AddLink(graph.LinkRecord{Start: x.ID, End: c1.ID}, true)
	other := e.Store().AddLink(graph.LinkRecord{Start: x.ID, End: y.ID}, true)
	before := e.History().Len()

	e.Selection().Set(f)
	require.True(t, e.DeleteSelected())
	require.Equal(t, before+1, e.History().Len())
	del := e.History().Packets()[before].(history.Delete)

	var ids []string
	for _, r := range del.Nodes {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{f.ID, c1.ID, c2.ID}, ids)
	assert.ElementsMatch(t, []graph.LinkRecord{out.Record(), in.Record()}, del.Links)
	for _, id := range ids {
		assert.Nil(t, e.Store().Node(id))
	}
	assert.Nil(t, e.Store().Link(out.ID))
	assert.Nil(t, e.Store().Link(in.ID))
	assert.NotNil(t, e.Store().Link(other.ID))
	assert.Equal(t, 0, e.Selection().Count())
}

func TestDeleteUndoRestoresLinks(t *testing.T) {
	e, _ := newEditor(t)
	a := add(t, e, "label", 0, 0)
	b := add(t, e, "label", 300, 0)
	l := e.Store().AddLink(graph.LinkRecord{Start: a.ID, End: b.ID}, true)

	e.Selection().Set(a)
	require.True(t, e.DeleteSelected())
	assert.Nil(t, e.Store().Node(a.ID))
	assert.Nil(t, e.Store().Link(l.ID))

	require.True(t, e.Undo())
	restored := e.Store().Link(l.ID)
	require.NotNil(t, restored)
	assert.Equal(t, a.ID, e.Store().Node(restored.Start).ID)
	assert.Same(t, b, e.Store().Node(restored.End))
}

func TestDeleteRespectsLocksAndConfirm(t *testing.T) {
	e, _ := newEditor(t)
	var notes []string
	e.notify = func(s string) { notes = append(notes, s) }
	a := add(t, e, "label", 0, 0)
	a.Locks.Delete = true
	assert.False(t, e.Delete(a))
	assert.NotNil(t, e.Store().Node(a.ID))
	assert.Len(t, notes, 1)

	a.Locks.Delete = false
	e.confirm = func(string) bool { return false }
	e.Selection().Set(a)
	assert.False(t, e.DeleteSelected())
	assert.NotNil(t, e.Store().Node(a.ID))
}

func TestDeleteKeepsSubtreeWithLockedDescendant(t *testing.T) {
	e, _ := newEditor(t)
	var notes []string
	e.notify = func(s string) { notes = append(notes, s) }
	f := add(t, e, "folder", 0, 0)
	x := add(t, e, "label", 300, 0)
	child := e.Store().AddNode(graph.NodeRecord{Type: "label", Parent: f.ID}, false)
	child.Locks.Delete = true

	assert.True(t, e.Delete(f, x))
	assert.NotNil(t, e.Store().Node(f.ID))
	assert.NotNil(t, e.Store().Node(child.ID))
	assert.Nil(t, e.Store().Node(x.ID))
	assert.Len(t, notes, 1)

	assert.False(t, e.Delete(f))
	assert.NotNil(t, e.Store().Node(f.ID))
}

func TestPasteReindexes(t *testing.T) {
	e, clip := newEditor(t)
	a := add(t, e, "label", 0, 0)
	b := add(t, e, "label", 200, 100)
	require.NotNil(t, e.Store().AddLink(graph.LinkRecord{Start: a.ID, End: b.ID}, true))
	e.Selection().Set(a, b)
	require.NoError(t, e.Copy())
	require.NotEmpty(t, clip.text)

	require.NoError(t, e.Paste(geom.Pt(1000, 1000)))
	pasted := e.Selection().Get()
	require.Len(t, pasted, 2)
	ids := map[string]bool{}
	for _, n := range pasted {
		assert.NotEqual(t, a.ID, n.ID)
		assert.NotEqual(t, b.ID, n.ID)
		ids[n.ID] = true
	}
	assert.Equal(t, geom.Pt(1000, 1000), pasted[0].Position())
	assert.Equal(t, geom.Pt(1200, 1100), pasted[1].Position())

	require.Equal(t, 2, e.Store().LinkCount())
	var copied *graph.Link
	for _, l := range e.Store().Links() {
		if ids[l.Start] {
			copied = l
		}
	}
	require.NotNil(t, copied)
	assert.Equal(t, pasted[0].ID, copied.Start)
	assert.Equal(t, pasted[1].ID, copied.End)

	require.True(t, e.Undo())
	assert.Equal(t, 2, e.Store().NodeCount())
	assert.Equal(t, 1, e.Store().LinkCount())
}

func TestPastePlainText(t *testing.T) {
	e, clip := newEditor(t)
	clip.text = `{\rtf1 hello\par world}`
	require.NoError(t, e.Paste(geom.Pt(5, 5)))
	n := e.Selection().Focused()
	require.NotNil(t, n)
	assert.Equal(t, "text", n.Type)
	assert.Equal(t, "hello\nworld", n.Params.String("text"))
}

func TestCutAndDuplicate(t *testing.T) {
	e, clip := newEditor(t)
	a := add(t, e, "label", 0, 0)
	e.Selection().Set(a)
	assert.Equal(t, 1, e.Duplicate())
	dup := e.Selection().Focused()
	require.NotNil(t, dup)
	assert.Equal(t, geom.Pt(16, 16), dup.Position())

	require.NoError(t, e.Cut())
	assert.Nil(t, e.Store().Node(dup.ID))
	assert.Contains(t, clip.text, format.TagSnapshot)
}

func TestDuplicateRepeatsDrag(t *testing.T) {
	e, _ := newEditor(t)
	a := add(t, e, "label", 0, 0)
	drag(e, a, geom.Pt(48, 32))
	require.Equal(t, geom.Pt(48, 32), a.Position())
	assert.Equal(t, geom.Pt(48, 32), e.Selection().Offset())

	require.Equal(t, 1, e.Duplicate())
	dup := e.Selection().Focused()
	require.NotNil(t, dup)
	assert.Equal(t, geom.Pt(96, 64), dup.Position())

	require.Equal(t, 1, e.Duplicate())
	assert.Equal(t, geom.Pt(144, 96), e.Selection().Focused().Position())
}

func TestLinkCommands(t *testing.T) {
	e, _ := newEditor(t)
	a := add(t, e, "label", 0, 0)
	b := add(t, e, "label", 300, 0)

	e.Selection().Set(a)
	assert.ErrorIs(t, e.Link(), ErrNeedTwoNodes)

	e.Selection().Set(a, b)
	require.NoError(t, e.ToggleLink())
	require.Equal(t, 1, e.Store().LinkCount())
	l := e.Store().Links()[0]
	assert.Equal(t, a.ID, l.Start)

	n := e.History().Len()
	require.NoError(t, e.Link())
	assert.Equal(t, n, e.History().Len(), "linking a connected pair is a no-op")

	e.Selection().Set(b, a)
	require.NoError(t, e.ToggleLink())
	assert.Equal(t, 0, e.Store().LinkCount())
	require.True(t, e.Undo())
	assert.Equal(t, 1, e.Store().LinkCount())
}

func TestSetParams(t *testing.T) {
	e, _ := newEditor(t)
	a := add(t, e, "text", 0, 0)
	n := e.History().Len()

	assert.False(t, e.SetParams(a, map[string]any{"text": ""}), "unchanged values are not recorded")
	assert.Equal(t, n, e.History().Len())

	require.True(t, e.SetParams(a, map[string]any{"fontSize": 20, "note": "x"}))
	assert.Equal(t, 20.0, a.Params.Number("fontSize"))
	require.True(t, e.Undo())
	assert.Equal(t, 14.0, a.Params.Number("fontSize"))
	_, ok := a.Params["note"]
	assert.False(t, ok, "keys that did not exist are removed again")

	a.Locks.Content = true
	assert.False(t, e.SetParams(a, map[string]any{"text": "nope"}))
}

func TestArrange(t *testing.T) {
	e, _ := newEditor(t)
	a := add(t, e, "label", 300, 0)
	b := add(t, e, "label", 0, 50)
	c := add(t, e, "label", 100, 200)

	e.Selection().Set(a, b, c)
	assert.Equal(t, 3, e.SortRow())
	assert.Equal(t, geom.Pt(0, 0), b.Position())
	assert.Equal(t, geom.Pt(136, 0), c.Position())
	assert.Equal(t, geom.Pt(272, 0), a.Position())

	assert.Equal(t, 3, e.SortColumn())
	assert.Equal(t, geom.Pt(0, 0), b.Position())
	assert.Equal(t, geom.Pt(0, 48), c.Position())
	assert.Equal(t, geom.Pt(0, 96), a.Position())

	e.Selection().Set(b, c)
	e.Store().SetPosition(c.ID, geom.Pt(500, 300))
	assert.Equal(t, 1, e.AlignHorizontal())
	assert.Equal(t, geom.Pt(500, 0), c.Position())
	assert.Equal(t, 1, e.AlignVertical())
	assert.Equal(t, geom.Pt(0, 0), c.Position())

	e.Selection().Set(b)
	assert.Equal(t, 1, e.Raise())
	assert.Equal(t, 4, b.Z)
	assert.Equal(t, 1, e.Lower())
	assert.Equal(t, 0, b.Z)

	e.Store().SetSize(b.ID, geom.Sz(300, 32))
	assert.Equal(t, 1, e.ResetSize())
	assert.Equal(t, geom.Sz(120, 32), b.Size())

	e.SetGrid(10)
	assert.Equal(t, 1, e.Nudge(1, -1))
	assert.Equal(t, geom.Pt(10, -10), b.Position())

	b.Locks.Move = true
	assert.Equal(t, 0, e.Nudge(1, 0))
}

func TestFolders(t *testing.T) {
	e, _ := newEditor(t)
	f := add(t, e, "folder", 0, 0)
	outside := add(t, e, "label", 300, 0)
	assert.False(t, e.OpenFolder(outside.ID), "only containers open")

	require.True(t, e.OpenFolder(f.ID))
	assert.Equal(t, f.ID, e.Folder())
	assert.False(t, outside.Visible)
	inside := add(t, e, "label", 10, 10)
	assert.Equal(t, f.ID, inside.Parent)
	assert.True(t, inside.Visible)
	assert.Equal(t, []*graph.Node{f}, e.FolderPath())

	require.True(t, e.CloseFolder())
	assert.Equal(t, "", e.Folder())
	assert.False(t, inside.Visible)
	assert.True(t, outside.Visible)

	assert.Equal(t, 0, e.Reparent([]*graph.Node{f}, f.ID), "a folder cannot contain itself")
	require.True(t, e.OpenFolder(f.ID))
	e.Selection().Set(f)
	require.True(t, e.Delete(f))
	assert.Equal(t, "", e.Folder(), "deleting the open folder returns to the board")
}

func TestToggleLock(t *testing.T) {
	e, _ := newEditor(t)
	a := add(t, e, "label", 0, 0)
	b := add(t, e, "label", 300, 0)
	e.Selection().Set(a, b)
	assert.Equal(t, 2, e.ToggleLock())
	assert.True(t, a.Locks.Move && a.Locks.Content && a.Locks.Delete)
	assert.Equal(t, 2, e.ToggleLock())
	assert.False(t, b.Locks.Any())
	require.True(t, e.Undo())
	assert.True(t, b.Locks.Any())
}

func TestChat(t *testing.T) {
	e, _ := newEditor(t)
	require.True(t, e.Say("ann", "hello"))
	assert.False(t, e.Say("ann", ""))
	require.True(t, e.Undo())
	require.True(t, e.Redo())
	msgs := e.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ann", msgs[0].Author)
}

func TestSaveOpen(t *testing.T) {
	dir := t.TempDir()
	e, _ := newEditor(t)
	buildScene(t, e)
	nodes, links := snapshot(e)
	require.True(t, e.Dirty())

	path := filepath.Join(dir, "board.yaml")
	require.NoError(t, e.Save(path))
	assert.False(t, e.Dirty())
	assert.Equal(t, path, e.Path())

	other, _ := newEditor(t)
	require.NoError(t, other.Open(path))
	n2, l2 := snapshot(other)
	assert.Equal(t, nodes, n2)
	assert.Equal(t, links, l2)
	assert.Equal(t, e.Board(), other.Board())
	assert.Equal(t, e.History().Len(), other.History().Len())
}

func TestOpenFailureLeavesBoardAlone(t *testing.T) {
	dir := t.TempDir()
	e, _ := newEditor(t)
	a := add(t, e, "label", 0, 0)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"format":"Nope","version":1}`), 0o644))
	err := e.Open(bad)
	assert.ErrorIs(t, err, format.ErrUnknownFormat)
	assert.Same(t, a, e.Store().Node(a.ID))
	assert.False(t, e.Busy())
	assert.False(t, e.Pointer().Locked())
}

func TestOpenSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	require.NoError(t, format.WriteSnapshot(path, format.Board{ID: "b1", Name: "Snap"},
		[]graph.NodeRecord{{ID: "a", Type: "label", W: 120, H: 32}, {ID: "b", Type: "label", X: 200, W: 120, H: 32}},
		[]graph.LinkRecord{{ID: "l", Type: "line", Start: "a", End: "b"}}))

	e, _ := newEditor(t)
	require.NoError(t, e.Open(path))
	assert.Equal(t, 2, e.Store().NodeCount())
	assert.Equal(t, 1, e.Store().LinkCount())
	assert.Equal(t, "Snap", e.Board().Name)
	assert.False(t, e.Dirty())
	assert.Equal(t, 1, e.History().Len())
}

func TestExecuteWhileBusy(t *testing.T) {
	e, _ := newEditor(t)
	e.busy = true
	assert.ErrorIs(t, e.Execute(interaction.CmdAddText, geom.Point{}), ErrLocked)
	assert.ErrorIs(t, e.Save(filepath.Join(t.TempDir(), "x.json")), ErrLocked)
	e.busy = false

	require.NoError(t, e.Execute(interaction.CmdAddText, geom.Pt(5, 5)))
	assert.Equal(t, 1, e.Store().NodeCount())
	require.NoError(t, e.Execute(interaction.CmdUndo, geom.Point{}))
	assert.Equal(t, 0, e.Store().NodeCount())
	require.NoError(t, e.Execute(interaction.CmdZoomIn, geom.Point{}))
	assert.Greater(t, e.Navigator().Zoom(), 1.0)
}

func TestDoubleClickAddsAndOpens(t *testing.T) {
	e, _ := newEditor(t)
	desk := interaction.Target{Kind: interaction.TargetDesktop}
	t0 := time.Unix(100, 0)
	e.Pointer().Down(interaction.Event{Pos: geom.Pt(50, 50), Target: desk, Time: t0})
	e.Pointer().Up(interaction.Event{Pos: geom.Pt(50, 50), Target: desk, Time: t0})
	e.Pointer().Down(interaction.Event{Pos: geom.Pt(50, 50), Target: desk, Time: t0.Add(100 * time.Millisecond)})
	require.Equal(t, 1, e.Store().NodeCount())
	n := e.Store().Nodes()[0]
	assert.Equal(t, "text", n.Type)
	assert.Equal(t, geom.Pt(50, 50), n.Position())

	f := add(t, e, "folder", 400, 400)
	on := interaction.Target{Kind: interaction.TargetNode, Node: f.ID}
	t1 := time.Unix(200, 0)
	e.Pointer().Down(interaction.Event{Pos: geom.Pt(410, 410), Target: on, Time: t1})
	e.Pointer().Up(interaction.Event{Pos: geom.Pt(410, 410), Target: on, Time: t1})
	e.Pointer().Down(interaction.Event{Pos: geom.Pt(410, 410), Target: on, Time: t1.Add(time.Millisecond)})
	assert.Equal(t, f.ID, e.Folder())
}
