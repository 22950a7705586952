package interaction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"metaviz/internal/geom"
	"metaviz/internal/graph"
	"metaviz/internal/history"
	"metaviz/internal/selection"
)

type nopRestorer struct{}

func (nopRestorer) Restore(history.Packet) error { return nil }
func (nopRestorer) Reset()                       {}

type rig struct {
	store  *graph.Store
	hist   *history.History
	sel    *selection.Selection
	nav    *Navigator
	ptr    *Pointer
	now    time.Time
	locked []string
	double []Target
}

func newRig(t *testing.T, set Settings) *rig {
	t.Helper()
	r := &rig{now: time.UnixMilli(1_700_000_000_000)}
	r.store = graph.NewStore(graph.Builtin(), zap.NewNop())
	r.hist = history.New(nopRestorer{}, history.WithLogger(zap.NewNop()))
	r.sel = selection.New(r.store)
	r.nav = NewNavigator(0.25, 4, 1.25)
	r.ptr = NewPointer(r.store, r.hist, r.sel, r.nav, set, Hooks{
		Locked:      func(n *graph.Node) { r.locked = append(r.locked, n.ID) },
		DoubleClick: func(t Target, _ geom.Point) { r.double = append(r.double, t) },
	}, zap.NewNop())
	return r
}

func (r *rig) node(id, typ string, x, y float64) *graph.Node {
	return r.store.AddNode(graph.NodeRecord{ID: id, Type: typ, X: x, Y: y}, true)
}

func (r *rig) event(x, y float64, t Target) Event {
	r.now = r.now.Add(time.Second)
	return Event{Pos: geom.Pt(x, y), Target: t, Time: r.now}
}

func onNode(id string) Target {
	return Target{Kind: TargetNode, Node: id}
}

var desktop = Target{Kind: TargetDesktop}

func TestClickBelowThresholdSelectsOnly(t *testing.T) {
	r := newRig(t, DefaultSettings())
	a := r.node("a", "label", 0, 0)

	r.ptr.Down(r.event(10, 10, onNode("a")))
	assert.Equal(t, Pending, r.ptr.Mode())
	assert.Equal(t, ObjectNode, r.ptr.Object())
	r.ptr.Move(r.event(11, 11, onNode("a")))
	assert.Equal(t, Pending, r.ptr.Mode())
	r.ptr.Up(r.event(11, 11, onNode("a")))

	assert.Equal(t, Idle, r.ptr.Mode())
	assert.Same(t, a, r.sel.Focused())
	assert.Equal(t, geom.Pt(0, 0), a.Position())
	assert.Equal(t, 0, r.hist.Len())
}

func TestDragMovesSelectionAndRecordsPerNode(t *testing.T) {
	r := newRig(t, DefaultSettings())
	a := r.node("a", "label", 0, 0)
	b := r.node("b", "label", 200, 0)
	r.sel.Set(a, b)
	r.nav.ZoomAt(2, geom.Point{})

	r.ptr.Down(r.event(10, 10, onNode("a")))
	r.ptr.Move(r.event(30, 10, onNode("a")))
	assert.Equal(t, NodeDragging, r.ptr.Mode())
	r.ptr.Move(r.event(50, 30, onNode("a")))
	assert.Equal(t, geom.Pt(20, 10), a.Position())
	assert.Equal(t, geom.Pt(220, 10), b.Position())
	assert.Equal(t, geom.Pt(20, 10), r.sel.Offset())

	r.ptr.Up(r.event(50, 30, onNode("a")))
	require.Equal(t, 2, r.hist.Len())
	mv := r.hist.Packets()[1].(history.Move)
	assert.Equal(t, []string{"b"}, mv.Nodes)
	assert.Equal(t, geom.Pt(220, 10), mv.Position)
	assert.Equal(t, geom.Pt(200, 0), mv.PositionPrev)
	assert.Equal(t, 2, r.sel.Count(), "dragging a member keeps the group")
	assert.Equal(t, geom.Pt(20, 10), r.sel.Offset(), "offset is kept after the drop")

	r.ptr.Down(r.event(50, 30, onNode("a")))
	r.ptr.Move(r.event(70, 30, onNode("a")))
	assert.Equal(t, geom.Pt(10, 0), r.sel.Offset(), "a new drag starts from zero")
	r.ptr.Cancel()
	assert.Equal(t, geom.Point{}, r.sel.Offset())
}

func TestDropSnapsToGrid(t *testing.T) {
	set := DefaultSettings()
	set.Grid = 16
	r := newRig(t, set)
	a := r.node("a", "label", 0, 0)

	r.ptr.Down(r.event(0, 0, onNode("a")))
	r.ptr.Move(r.event(21, 9, onNode("a")))
	r.ptr.Up(r.event(21, 9, onNode("a")))
	assert.Equal(t, geom.Pt(16, 16), a.Position())
	assert.Equal(t, geom.Pt(16, 16), r.sel.Offset())
}

func TestDragClearsRedo(t *testing.T) {
	r := newRig(t, DefaultSettings())
	r.node("a", "label", 0, 0)
	r.hist.Store(history.Rename{Name: "x"})
	require.True(t, r.hist.Undo())
	require.True(t, r.hist.HasRedo())

	r.ptr.Down(r.event(0, 0, onNode("a")))
	r.ptr.Move(r.event(10, 0, onNode("a")))
	r.ptr.Up(r.event(10, 0, onNode("a")))
	assert.False(t, r.hist.HasRedo())
	assert.Equal(t, 1, r.hist.Len())
}

func TestMoveLockedNodesStayPut(t *testing.T) {
	r := newRig(t, DefaultSettings())
	a := r.node("a", "label", 0, 0)
	b := r.node("b", "label", 200, 0)
	b.Locks.Move = true
	r.sel.Set(a, b)

	r.ptr.Down(r.event(0, 0, onNode("a")))
	r.ptr.Move(r.event(10, 10, onNode("a")))
	r.ptr.Up(r.event(10, 10, onNode("a")))

	assert.Equal(t, geom.Pt(10, 10), a.Position())
	assert.Equal(t, geom.Pt(200, 0), b.Position())
	assert.Equal(t, []string{"b"}, r.locked)
	assert.Equal(t, 1, r.hist.Len())
}

func TestCancelRestoresPositions(t *testing.T) {
	r := newRig(t, DefaultSettings())
	a := r.node("a", "label", 5, 5)

	r.ptr.Down(r.event(0, 0, onNode("a")))
	r.ptr.Move(r.event(40, 40, onNode("a")))
	r.ptr.Cancel()

	assert.Equal(t, Idle, r.ptr.Mode())
	assert.Equal(t, geom.Pt(5, 5), a.Position())
	assert.Equal(t, 0, r.hist.Len())
}

func TestLeaveCommitsDrag(t *testing.T) {
	r := newRig(t, DefaultSettings())
	a := r.node("a", "label", 0, 0)

	r.ptr.Down(r.event(0, 0, onNode("a")))
	r.ptr.Move(r.event(30, 0, onNode("a")))
	r.ptr.Leave()

	assert.Equal(t, Idle, r.ptr.Mode())
	assert.Equal(t, geom.Pt(30, 0), a.Position())
	assert.Equal(t, 1, r.hist.Len())
}

func TestLinkDrag(t *testing.T) {
	r := newRig(t, DefaultSettings())
	r.node("a", "text", 0, 0)
	r.node("b", "text", 400, 0)
	sock := Target{Kind: TargetSocket, Node: "a", Socket: "east"}

	r.ptr.Down(r.event(240, 80, sock))
	assert.Equal(t, ObjectSocket, r.ptr.Object())
	r.ptr.Move(r.event(300, 80, desktop))
	pl, ok := r.ptr.Link()
	require.True(t, ok)
	assert.Equal(t, "a", pl.Start)
	assert.Equal(t, geom.Pt(300, 80), pl.End)
	assert.Equal(t, 0, r.store.LinkCount(), "provisional link stays out of the store")

	r.ptr.Move(r.event(420, 80, onNode("b")))
	pl, _ = r.ptr.Link()
	assert.Equal(t, "b", pl.Hover)
	r.ptr.Up(r.event(420, 80, onNode("b")))

	require.Equal(t, 1, r.store.LinkCount())
	l := r.store.Links()[0]
	assert.Equal(t, "a", l.Start)
	assert.Equal(t, "b", l.End)
	require.Equal(t, 1, r.hist.Len())
	add := r.hist.Packets()[0].(history.Add)
	assert.Equal(t, []graph.LinkRecord{l.Record()}, add.Links)

	// Dropping on an already connected node, the start node or empty board is discarded.
	for _, drop := range []Target{onNode("b"), onNode("a"), desktop} {
		r.ptr.Down(r.event(240, 80, Target{Kind: TargetSocket, Node: "b", Socket: "west"}))
		r.ptr.Move(r.event(200, 80, drop))
		r.ptr.Up(r.event(200, 80, drop))
	}
	assert.Equal(t, 1, r.store.LinkCount())
	assert.Equal(t, 1, r.hist.Len())
}

func TestResize(t *testing.T) {
	r := newRig(t, DefaultSettings())
	a := r.node("a", "text", 0, 0)
	r.sel.Set(a)

	r.ptr.Down(r.event(240, 160, Target{Kind: TargetHandle, Node: "a", Handle: HandleSE}))
	r.ptr.Move(r.event(300, 200, desktop))
	assert.Equal(t, Resizing, r.ptr.Mode())
	assert.Equal(t, geom.Sz(300, 200), a.Size())
	r.ptr.Up(r.event(300, 200, desktop))

	require.Equal(t, 1, r.hist.Len())
	rs := r.hist.Packets()[0].(history.Resize)
	assert.Equal(t, geom.Sz(300, 200), rs.Size)
	assert.Equal(t, geom.Sz(240, 160), rs.SizePrev)

	r.ptr.Down(r.event(300, 200, Target{Kind: TargetHandle, Node: "a", Handle: HandleSE}))
	r.ptr.Move(r.event(-1000, -1000, desktop))
	assert.Equal(t, geom.Sz(80, 48), a.Size(), "clamped to the type minimum")
	r.ptr.Cancel()
	assert.Equal(t, geom.Sz(300, 200), a.Size())
}

func TestResizeFromTopLeftMovesNode(t *testing.T) {
	r := newRig(t, DefaultSettings())
	a := r.node("a", "text", 100, 100)
	r.sel.Set(a)
	nw := Target{Kind: TargetHandle, Node: "a", Handle: HandleNW}

	r.ptr.Down(r.event(100, 100, nw))
	r.ptr.Move(r.event(60, 60, desktop))
	assert.Equal(t, geom.Rect{X: 60, Y: 60, W: 280, H: 200}, a.Bounds())
	r.ptr.Up(r.event(60, 60, desktop))

	require.Equal(t, 1, r.hist.Len())
	rs := r.hist.Packets()[0].(history.Resize)
	assert.Equal(t, geom.Sz(280, 200), rs.Size)
	require.NotNil(t, rs.Position)
	assert.Equal(t, geom.Pt(60, 60), *rs.Position)
	assert.Equal(t, geom.Pt(100, 100), *rs.PositionPrev)

	// The corner opposite the handle stays where it was.
	r.ptr.Down(r.event(340, 60, Target{Kind: TargetHandle, Node: "a", Handle: HandleNE}))
	r.ptr.Move(r.event(300, 100, desktop))
	assert.Equal(t, geom.Rect{X: 60, Y: 100, W: 240, H: 160}, a.Bounds())
	r.ptr.Cancel()
	assert.Equal(t, geom.Rect{X: 60, Y: 60, W: 280, H: 200}, a.Bounds())
}

func TestResizeOrigin(t *testing.T) {
	pos, start, size := geom.Pt(10, 10), geom.Sz(100, 50), geom.Sz(120, 40)
	tests := []struct {
		h    Handle
		want geom.Point
	}{
		{HandleSE, geom.Pt(10, 10)},
		{HandleSW, geom.Pt(-10, 10)},
		{HandleNE, geom.Pt(10, 20)},
		{HandleNW, geom.Pt(-10, 20)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResizeOrigin(pos, start, size, tt.h), "handle %+v", tt.h)
	}
}

func TestBoxSelect(t *testing.T) {
	set := DefaultSettings()
	set.Primary = PrimaryTouchpad
	r := newRig(t, set)
	a := r.node("a", "label", 0, 0)
	b := r.node("b", "label", 300, 300)
	c := r.node("c", "label", 10, 10)
	c.Parent = "elsewhere"

	r.ptr.Down(r.event(-10, -10, desktop))
	r.ptr.Move(r.event(50, 50, desktop))
	box, ok := r.ptr.Box()
	require.True(t, ok)
	assert.Equal(t, geom.Rect{X: -10, Y: -10, W: 60, H: 60}, box)
	r.ptr.Up(r.event(50, 50, desktop))

	assert.True(t, r.sel.Has(a))
	assert.False(t, r.sel.Has(b))
	assert.False(t, r.sel.Has(c), "only nodes of the open folder")
}

func TestDesktopDragPans(t *testing.T) {
	r := newRig(t, DefaultSettings())
	a := r.node("a", "label", 0, 0)
	r.sel.Set(a)

	r.ptr.Down(r.event(100, 100, desktop))
	assert.Equal(t, 0, r.sel.Count(), "clicking the board clears the selection")
	r.ptr.Move(r.event(130, 90, desktop))
	r.ptr.Up(r.event(130, 90, desktop))
	assert.Equal(t, geom.Pt(30, -10), r.nav.Offset())
}

func TestDoubleClick(t *testing.T) {
	r := newRig(t, DefaultSettings())
	r.node("a", "label", 0, 0)

	ev := r.event(5, 5, onNode("a"))
	r.ptr.Down(ev)
	r.ptr.Up(ev)
	ev.Time = ev.Time.Add(200 * time.Millisecond)
	r.ptr.Down(ev)
	r.ptr.Up(ev)
	assert.Equal(t, []Target{onNode("a")}, r.double)

	r.ptr.Down(r.event(5, 5, onNode("a")))
	assert.Len(t, r.double, 1, "slow clicks are single clicks")
}

func TestLockIgnoresInput(t *testing.T) {
	r := newRig(t, DefaultSettings())
	a := r.node("a", "label", 0, 0)

	r.ptr.Down(r.event(0, 0, onNode("a")))
	r.ptr.Move(r.event(20, 0, onNode("a")))
	r.ptr.Lock()
	assert.Equal(t, geom.Pt(0, 0), a.Position(), "lock cancels the gesture in flight")

	r.ptr.Down(r.event(0, 0, onNode("a")))
	assert.Equal(t, Idle, r.ptr.Mode())
	r.ptr.Unlock()
	r.ptr.Down(r.event(0, 0, onNode("a")))
	assert.Equal(t, Pending, r.ptr.Mode())
}

func TestClickCollapsesGroup(t *testing.T) {
	r := newRig(t, DefaultSettings())
	a := r.node("a", "label", 0, 0)
	b := r.node("b", "label", 200, 0)
	r.sel.Set(a, b)

	r.ptr.Down(r.event(0, 0, onNode("b")))
	r.ptr.Up(r.event(0, 0, onNode("b")))
	assert.Equal(t, []string{"b"}, r.sel.IDs())

	ev := r.event(0, 0, onNode("a"))
	ev.Mods.Shift = true
	r.ptr.Down(ev)
	r.ptr.Up(ev)
	assert.Equal(t, []string{"b", "a"}, r.sel.IDs())
}
