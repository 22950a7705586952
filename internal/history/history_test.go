package history

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"metaviz/internal/geom"
	"metaviz/internal/graph"
)

// scene is a minimal restorer tracking positions, a board name and chat messages.
type scene struct {
	pos    map[string]geom.Point
	name   string
	chat   []string
	resets int
	fail   bool
}

func newScene() *scene {
	return &scene{pos: map[string]geom.Point{}}
}

func (s *scene) Reset() {
	s.pos = map[string]geom.Point{}
	s.name = ""
	s.chat = nil
	s.resets++
}

func (s *scene) Restore(p Packet) error {
	if s.fail {
		return errors.New("boom")
	}
	switch p := p.(type) {
	case Add:
		for _, n := range p.Nodes {
			s.pos[n.ID] = geom.Pt(n.X, n.Y)
		}
	case Delete:
		for _, n := range p.Nodes {
			delete(s.pos, n.ID)
		}
	case Move:
		for _, id := range p.Nodes {
			if _, ok := s.pos[id]; ok {
				s.pos[id] = p.Position
			}
		}
	case MoveBy:
		for _, id := range p.Nodes {
			if cur, ok := s.pos[id]; ok {
				s.pos[id] = cur.Add(p.Offset)
			}
		}
	case Rename:
		s.name = p.Name
	case Chat:
		if !p.Reverted {
			s.chat = append(s.chat, p.Text)
		}
	}
	return nil
}

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newHistory(s *scene) *History {
	c := &clock{t: time.UnixMilli(1_700_000_000_000)}
	return New(s, WithClock(c.now), WithLogger(zap.NewNop()), WithSession("s1"))
}

func samplePackets() []Packet {
	h := Header{Timestamp: 42, Session: "x"}
	return []Packet{
		Add{Header: h, Nodes: []graph.NodeRecord{{ID: "a", Type: "text", X: 1}}, Links: []graph.LinkRecord{{ID: "l", Start: "a", End: "b"}}},
		Delete{Header: h, Nodes: []graph.NodeRecord{{ID: "a", Type: "text"}}},
		Move{Header: h, Nodes: []string{"a"}, Position: geom.Pt(100, 100), PositionPrev: geom.Pt(0, 0)},
		MoveBy{Header: h, Nodes: []string{"a"}, Offset: geom.Pt(5, -3)},
		Resize{Header: h, Nodes: []string{"a"}, Size: geom.Sz(10, 20), SizePrev: geom.Sz(30, 40)},
		Resize{Header: h, Nodes: []string{"a"}, Size: geom.Sz(10, 20), SizePrev: geom.Sz(30, 40),
			Position: &geom.Point{X: 20, Y: 20}, PositionPrev: &geom.Point{}},
		Param{Header: h, Nodes: []string{"a"}, Data: map[string]any{"text": "new"}, Prev: map[string]any{"text": "old"}},
		Reparent{Header: h, Nodes: []string{"a"}, Parent: "f", ParentPrev: "", Position: geom.Pt(1, 2), PositionPrev: geom.Pt(3, 4)},
		Order{Header: h, Nodes: []string{"a"}, Z: 3, ZPrev: 1},
		Lock{Header: h, Nodes: []string{"a"}, Locks: graph.Locks{Move: true}},
		Rename{Header: h, Name: "new", NamePrev: "old"},
		Chat{Header: h, ID: "m1", Author: "me", Text: "hello"},
	}
}

func TestMirrorInvolution(t *testing.T) {
	for _, p := range samplePackets() {
		p := p
		t.Run(string(p.Kind()), func(t *testing.T) {
			m := p.Mirror()
			assert.Equal(t, p.Kind() == KindAdd || p.Kind() == KindDelete, m.Kind() != p.Kind())
			assert.Equal(t, p, m.Mirror())
		})
	}
}

func TestMirrorSwaps(t *testing.T) {
	m := Move{Nodes: []string{"a"}, Position: geom.Pt(1, 1), PositionPrev: geom.Pt(2, 2)}.Mirror().(Move)
	assert.Equal(t, geom.Pt(2, 2), m.Position)
	assert.Equal(t, geom.Pt(1, 1), m.PositionPrev)

	by := MoveBy{Nodes: []string{"a"}, Offset: geom.Pt(4, -2)}.Mirror().(MoveBy)
	assert.Equal(t, geom.Pt(-4, 2), by.Offset)

	rp := Reparent{Nodes: []string{"a"}, Parent: "f", Position: geom.Pt(1, 1)}.Mirror().(Reparent)
	assert.Equal(t, "", rp.Parent)
	assert.Equal(t, "f", rp.ParentPrev)
	assert.Equal(t, geom.Pt(0, 0), rp.Position)

	rs := Resize{Nodes: []string{"a"}, Size: geom.Sz(1, 1), Position: &geom.Point{X: 5, Y: 5}, PositionPrev: &geom.Point{}}.Mirror().(Resize)
	assert.Equal(t, geom.Point{}, *rs.Position)
	assert.Equal(t, geom.Pt(5, 5), *rs.PositionPrev)

	d, ok := Add{Nodes: []graph.NodeRecord{{ID: "a"}}}.Mirror().(Delete)
	require.True(t, ok)
	assert.Equal(t, "a", d.Nodes[0].ID)
}

func TestStoreSuppressesNoops(t *testing.T) {
	h := newHistory(newScene())

	assert.False(t, h.Store(Param{Nodes: []string{"a"}, Data: map[string]any{"text": "x"}, Prev: map[string]any{"text": "x"}}))
	assert.False(t, h.Store(Move{Nodes: []string{"a"}, Position: geom.Pt(1, 1), PositionPrev: geom.Pt(1, 1)}))
	assert.False(t, h.Store(Add{}))
	same := geom.Pt(3, 3)
	assert.False(t, h.Store(Resize{Nodes: []string{"a"}, Size: geom.Sz(9, 9), SizePrev: geom.Sz(9, 9), Position: &same, PositionPrev: &same}))
	assert.False(t, h.Store(nil))
	assert.Equal(t, 0, h.Len())
	assert.False(t, h.IsDirty())

	assert.True(t, h.Store(Param{Nodes: []string{"a"}, Data: map[string]any{"text": "y"}, Prev: map[string]any{"text": "x"}}))
	assert.Equal(t, 1, h.Len())
	assert.True(t, h.IsDirty())
}

func TestStoreStampsHeader(t *testing.T) {
	h := newHistory(newScene())
	require.True(t, h.Store(Rename{Name: "b"}))
	p := h.Packets()[0]
	assert.Equal(t, "s1", p.head().Session)
	assert.Equal(t, int64(1_700_000_001_000), p.head().Timestamp)

	require.True(t, h.Store(Rename{Header: Header{Timestamp: 7, Session: "old"}, Name: "c"}))
	assert.Equal(t, Header{Timestamp: 7, Session: "old"}, h.Packets()[1].head())
}

func TestUndoRedo(t *testing.T) {
	s := newScene()
	h := newHistory(s)

	add := Add{Nodes: []graph.NodeRecord{{ID: "a", Type: "text"}}}
	require.NoError(t, s.Restore(add))
	require.True(t, h.Store(add))

	mv := Move{Nodes: []string{"a"}, Position: geom.Pt(100, 100), PositionPrev: geom.Pt(0, 0)}
	require.NoError(t, s.Restore(mv))
	require.True(t, h.Store(mv))

	require.True(t, h.Undo())
	assert.Equal(t, geom.Pt(0, 0), s.pos["a"])
	assert.True(t, h.HasRedo())

	require.True(t, h.Undo())
	assert.NotContains(t, s.pos, "a")
	assert.False(t, h.HasUndo())
	assert.False(t, h.Undo())

	require.True(t, h.Redo())
	require.True(t, h.Redo())
	assert.Equal(t, geom.Pt(100, 100), s.pos["a"])
	assert.False(t, h.Redo())

	assert.Equal(t, KindAdd, h.Packets()[0].Kind())
	assert.Equal(t, mv.Position, h.Packets()[1].(Move).Position)
}

func TestStoreKeepsFutureUntilCleared(t *testing.T) {
	s := newScene()
	h := newHistory(s)
	h.Store(Rename{Name: "a", NamePrev: ""})
	h.Store(Rename{Name: "b", NamePrev: "a"})
	require.True(t, h.Undo())

	h.Store(Rename{Name: "c", NamePrev: "a"})
	assert.True(t, h.HasRedo(), "Store alone does not branch")

	h.Undo()
	h.Record(Rename{Name: "d", NamePrev: "a"})
	assert.False(t, h.HasRedo(), "Record discards the abandoned future")
	assert.Equal(t, 2, h.Len())
}

func TestUndoRestoreFailure(t *testing.T) {
	s := newScene()
	h := newHistory(s)
	h.Store(Rename{Name: "a"})
	s.fail = true
	assert.False(t, h.Undo())
	assert.Equal(t, 1, h.Len())
	assert.False(t, h.HasRedo())
}

func TestDirtyTracking(t *testing.T) {
	h := newHistory(newScene())
	assert.False(t, h.IsDirty())
	h.Store(Rename{Name: "a"})
	assert.True(t, h.IsDirty())
	h.MarkClean()
	assert.False(t, h.IsDirty())
	h.Undo()
	assert.True(t, h.IsDirty())
}

func TestChatUndoIsNoop(t *testing.T) {
	s := newScene()
	h := newHistory(s)
	c := Chat{ID: "m", Author: "me", Text: "hi"}
	require.NoError(t, s.Restore(c))
	h.Store(c)

	require.True(t, h.Undo())
	assert.Equal(t, []string{"hi"}, s.chat)
	require.True(t, h.Redo())
	assert.Equal(t, []string{"hi", "hi"}, s.chat, "this scene does not dedupe; the editor does by message id")
}

func TestRecreateSortsByTimestamp(t *testing.T) {
	s := newScene()
	h := newHistory(s)
	h.Load([]Packet{
		Move{Header: Header{Timestamp: 30}, Nodes: []string{"a"}, Position: geom.Pt(9, 9), PositionPrev: geom.Pt(5, 5)},
		Add{Header: Header{Timestamp: 10}, Nodes: []graph.NodeRecord{{ID: "a", X: 1, Y: 1}}},
		MoveBy{Header: Header{Timestamp: 20}, Nodes: []string{"a"}, Offset: geom.Pt(4, 4)},
	})
	assert.False(t, h.IsDirty())
	require.NoError(t, h.Recreate())
	assert.Equal(t, 1, s.resets)
	assert.Equal(t, geom.Pt(9, 9), s.pos["a"])

	var ts []int64
	for _, p := range h.Packets() {
		ts = append(ts, p.head().Timestamp)
	}
	assert.Equal(t, []int64{10, 20, 30}, ts)
}

func TestRecreateError(t *testing.T) {
	s := newScene()
	h := newHistory(s)
	h.Load([]Packet{Rename{Name: "x"}})
	s.fail = true
	assert.Error(t, h.Recreate())
}

func TestRecordRoundTrip(t *testing.T) {
	for _, p := range samplePackets() {
		r := Encode(p)
		assert.Equal(t, p.Kind(), r.Action)
		got, err := Decode(r)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := Decode(Record{Action: "explode"})
	assert.Error(t, err)
}
