// Package interaction turns raw pointer input into gestures on the graph: selecting,
// dragging, resizing, linking, box selection and panning.
package interaction

import (
	"time"

	"go.uber.org/zap"

	"metaviz/internal/geom"
	"metaviz/internal/graph"
	"metaviz/internal/history"
	"metaviz/internal/selection"
)

type Mode int

const (
	Idle Mode = iota
	Pending
	Panning
	BoxSelecting
	NodeDragging
	LinkDragging
	Resizing
)

func (m Mode) String() string {
	switch m {
	case Pending:
		return "pending"
	case Panning:
		return "panning"
	case BoxSelecting:
		return "box-selecting"
	case NodeDragging:
		return "node-dragging"
	case LinkDragging:
		return "link-dragging"
	case Resizing:
		return "resizing"
	}
	return "idle"
}

// Object names what a gesture manipulates.
type Object string

const (
	ObjectNone    Object = ""
	ObjectNode    Object = "node"
	ObjectSocket  Object = "socket"
	ObjectBox     Object = "box"
	ObjectLink    Object = "link"
	ObjectDesktop Object = "desktop"
)

const (
	PrimaryMouse    = "mouse"
	PrimaryTouchpad = "touchpad"
)

type Settings struct {
	// Primary selects what a plain drag on empty board does: "mouse" pans,
	// "touchpad" draws a selection box.
	Primary string
	// Threshold is the screen distance the pointer must travel before a drag starts.
	Threshold   float64
	DoubleClick time.Duration
	// Grid snaps dropped nodes; zero disables snapping.
	Grid     float64
	LinkType string
}

func DefaultSettings() Settings {
	return Settings{
		Primary:     PrimaryMouse,
		Threshold:   2,
		DoubleClick: 300 * time.Millisecond,
		LinkType:    graph.DefaultLinkType,
	}
}

// Hooks are called by the pointer for things it does not handle itself.
type Hooks struct {
	DoubleClick func(t Target, world geom.Point)
	Locked      func(n *graph.Node)
	Menu        func(t Target, world geom.Point)
}

// Event is one pointer sample in screen coordinates with the element under it.
type Event struct {
	Pos    geom.Point
	Button Button
	Mods   Modifiers
	Target Target
	Time   time.Time
}

// Provisional is a link being drawn. It lives outside the graph store until dropped.
type Provisional struct {
	Start  string
	Socket string
	End    geom.Point
	Hover  string
}

// Pointer is the gesture state machine. Live previews mutate the store directly; a
// finished gesture records history packets.
type Pointer struct {
	store *graph.Store
	hist  *history.History
	sel   *selection.Selection
	nav   *Navigator
	set   Settings
	hooks Hooks
	log   *zap.Logger

	folder string
	locked bool

	mode  Mode
	armed Mode
	down  Event
	last  geom.Point

	starts   map[string]geom.Point
	dragIDs  []string
	reselect string

	resizeID    string
	resizeStart geom.Size
	resizeFrom  geom.Point
	handle      Handle

	link *Provisional
	box  geom.Rect

	lastClick       time.Time
	lastClickTarget Target
}

func NewPointer(store *graph.Store, hist *history.History, sel *selection.Selection, nav *Navigator,
	set Settings, hooks Hooks, log *zap.Logger) *Pointer {
	if log == nil {
		log = zap.NewNop()
	}
	if set.LinkType == "" {
		set.LinkType = graph.DefaultLinkType
	}
	return &Pointer{
		store: store,
		hist:  hist,
		sel:   sel,
		nav:   nav,
		set:   set,
		hooks: hooks,
		log:   log.Named("pointer"),
	}
}

func (p *Pointer) Mode() Mode {
	return p.mode
}

func (p *Pointer) Settings() Settings {
	return p.set
}

func (p *Pointer) SetGrid(grid float64) {
	p.set.Grid = grid
}

// Object reports what the current gesture manipulates.
func (p *Pointer) Object() Object {
	switch p.mode {
	case Pending:
		switch p.down.Target.Kind {
		case TargetNode, TargetHandle:
			return ObjectNode
		case TargetSocket:
			return ObjectSocket
		}
		return ObjectDesktop
	case Panning:
		return ObjectDesktop
	case BoxSelecting:
		return ObjectBox
	case NodeDragging, Resizing:
		return ObjectNode
	case LinkDragging:
		return ObjectLink
	}
	return ObjectNone
}

// Folder returns the id of the folder whose contents are on screen; "" is the board.
func (p *Pointer) Folder() string {
	return p.folder
}

func (p *Pointer) SetFolder(id string) {
	p.Cancel()
	p.folder = id
}

// Link returns the provisional link while one is being drawn.
func (p *Pointer) Link() (Provisional, bool) {
	if p.link == nil || p.mode != LinkDragging {
		return Provisional{}, false
	}
	return *p.link, true
}

// Box returns the screen rectangle of an active box selection.
func (p *Pointer) Box() (geom.Rect, bool) {
	return p.box, p.mode == BoxSelecting
}

// Lock ignores all input until Unlock. A gesture in flight is cancelled.
func (p *Pointer) Lock() {
	p.Cancel()
	p.locked = true
}

func (p *Pointer) Unlock() {
	p.locked = false
}

func (p *Pointer) Locked() bool {
	return p.locked
}

func (p *Pointer) arm(m Mode) {
	p.mode = Pending
	p.armed = m
}

func (p *Pointer) Down(ev Event) {
	if p.locked {
		return
	}
	if p.mode != Idle {
		p.Cancel()
	}
	if ev.Button == ButtonRight {
		if p.hooks.Menu != nil {
			p.hooks.Menu(ev.Target, p.nav.ScreenToWorld(ev.Pos))
		}
		return
	}
	p.down = ev
	p.last = ev.Pos

	if ev.Button == ButtonMiddle {
		p.arm(Panning)
		return
	}

	if !p.lastClick.IsZero() && ev.Time.Sub(p.lastClick) <= p.set.DoubleClick && ev.Target.same(p.lastClickTarget) {
		p.lastClick = time.Time{}
		if p.hooks.DoubleClick != nil {
			p.hooks.DoubleClick(ev.Target, p.nav.ScreenToWorld(ev.Pos))
		}
		return
	}
	p.lastClick = ev.Time
	p.lastClickTarget = ev.Target

	n := p.store.Resolve(ev.Target)
	reg := p.store.Registry()

	if ev.Target.Kind == TargetHandle && n != nil && reg.TypeOf(n).Resize != graph.ResizeNone {
		p.resizeID = n.ID
		p.resizeStart = n.Size()
		p.resizeFrom = n.Position()
		p.handle = ev.Target.Handle
		p.arm(Resizing)
		return
	}
	if ev.Target.Kind == TargetSocket && n != nil {
		p.link = &Provisional{Start: n.ID, Socket: ev.Target.Socket, End: p.nav.ScreenToWorld(ev.Pos)}
		p.arm(LinkDragging)
		return
	}
	if n == nil {
		if !ev.Mods.Additive() {
			p.sel.Clear()
		}
		if p.panGesture(ev.Mods) {
			p.arm(Panning)
		} else {
			p.arm(BoxSelecting)
		}
		return
	}

	switch {
	case ev.Mods.Additive():
		p.sel.Toggle(n)
	case !p.sel.Has(n):
		p.sel.Set(n)
	case p.sel.Count() > 1:
		p.reselect = n.ID
	}
	if p.sel.Has(n) {
		p.arm(NodeDragging)
	} else {
		p.arm(Idle)
	}
}

func (p *Pointer) panGesture(m Modifiers) bool {
	if p.set.Primary == PrimaryTouchpad {
		return m.Alt
	}
	return !m.Shift
}

func (p *Pointer) Move(ev Event) {
	if p.locked || p.mode == Idle {
		return
	}
	d := ev.Pos.Sub(p.last)
	p.last = ev.Pos
	if p.mode == Pending {
		if ev.Pos.Sub(p.down.Pos).Len() <= p.set.Threshold {
			return
		}
		p.begin()
		d = ev.Pos.Sub(p.down.Pos)
	}
	p.apply(d, ev)
}

func (p *Pointer) begin() {
	p.mode = p.armed
	p.reselect = ""
	switch p.mode {
	case NodeDragging:
		p.starts = make(map[string]geom.Point)
		p.dragIDs = nil
		for _, n := range p.sel.Get() {
			if n.Locks.Move {
				p.notifyLocked(n)
				continue
			}
			p.starts[n.ID] = n.Position()
			p.dragIDs = append(p.dragIDs, n.ID)
		}
		p.sel.ResetOffset()
	case Resizing:
		if n := p.store.Node(p.resizeID); n == nil || n.Locks.Move {
			p.notifyLocked(n)
			p.reset()
		}
	}
}

func (p *Pointer) notifyLocked(n *graph.Node) {
	if n != nil && p.hooks.Locked != nil {
		p.hooks.Locked(n)
	}
}

func (p *Pointer) apply(d geom.Point, ev Event) {
	switch p.mode {
	case Panning:
		p.nav.Pan(d)
	case NodeDragging:
		w := d.Scale(1 / p.nav.Zoom())
		for _, id := range p.dragIDs {
			if n := p.store.Node(id); n != nil {
				p.store.SetPosition(id, n.Position().Add(w))
			}
		}
		p.sel.Accumulate(w)
	case Resizing:
		n := p.store.Node(p.resizeID)
		if n == nil {
			return
		}
		t := p.store.Registry().TypeOf(n)
		total := ev.Pos.Sub(p.down.Pos).Scale(1 / p.nav.Zoom())
		size := ResizeSize(t.Resize, p.resizeStart, total, p.handle, t.MinSize, t.MaxSize)
		p.store.SetSize(n.ID, size)
		p.store.SetPosition(n.ID, ResizeOrigin(p.resizeFrom, p.resizeStart, size, p.handle))
	case LinkDragging:
		p.link.End = p.nav.ScreenToWorld(ev.Pos)
		p.link.Hover = ""
		if n := p.store.Resolve(ev.Target); n != nil && n.ID != p.link.Start {
			p.link.Hover = n.ID
		}
	case BoxSelecting:
		p.box = geom.RectFromPoints(p.down.Pos, ev.Pos)
	}
}

func (p *Pointer) Up(ev Event) {
	if p.locked || p.mode == Idle {
		return
	}
	switch p.mode {
	case Pending:
		if n := p.store.Node(p.reselect); n != nil {
			p.sel.Set(n)
		}
	case NodeDragging:
		p.finishDrag()
	case Resizing:
		p.finishResize()
	case LinkDragging:
		p.finishLink(ev.Target)
	case BoxSelecting:
		p.finishBox()
	}
	p.reset()
}

func (p *Pointer) finishDrag() {
	branched := false
	for _, id := range p.dragIDs {
		n := p.store.Node(id)
		if n == nil {
			continue
		}
		pos := geom.SnapPoint(n.Position(), p.set.Grid)
		p.store.SetPosition(id, pos)
		pk := history.Move{Nodes: []string{id}, Position: pos, PositionPrev: p.starts[id]}
		if pk.Noop() {
			continue
		}
		if !branched {
			p.hist.ClearFuture()
			branched = true
		}
		p.hist.Store(pk)
	}
	// The group offset survives the drop, matched to the snapped positions.
	for _, id := range p.dragIDs {
		if n := p.store.Node(id); n != nil {
			p.sel.ResetOffset()
			p.sel.Accumulate(n.Position().Sub(p.starts[id]))
			break
		}
	}
}

func (p *Pointer) finishResize() {
	n := p.store.Node(p.resizeID)
	if n == nil {
		return
	}
	pk := history.Resize{Nodes: []string{n.ID}, Size: n.Size(), SizePrev: p.resizeStart}
	if pos, from := n.Position(), p.resizeFrom; pos != from {
		pk.Position, pk.PositionPrev = &pos, &from
	}
	p.hist.Record(pk)
}

func (p *Pointer) finishLink(t Target) {
	end := p.store.Resolve(t)
	start := p.link.Start
	if end == nil || end.ID == start || p.linked(start, end.ID) {
		p.log.Debug("provisional link discarded", zap.String("start", start))
		return
	}
	l := p.store.AddLink(graph.LinkRecord{Type: p.set.LinkType, Start: start, End: end.ID}, true)
	if l == nil {
		return
	}
	p.hist.Record(history.Add{Links: []graph.LinkRecord{l.Record()}})
}

func (p *Pointer) linked(a, b string) bool {
	return p.store.LinkBetween(a, b, p.set.LinkType) != nil || p.store.LinkBetween(b, a, p.set.LinkType) != nil
}

func (p *Pointer) finishBox() {
	area := p.nav.ScreenRectToWorld(p.box)
	for _, n := range p.store.Query(func(n *graph.Node) bool { return n.Visible && n.Parent == p.folder }) {
		if n.Bounds().Intersects(area) {
			p.sel.Add(n)
		}
	}
}

// Leave ends the gesture as if the pointer was released at its last position.
func (p *Pointer) Leave() {
	if p.mode == Idle {
		return
	}
	p.Up(Event{Pos: p.last, Target: Target{Kind: TargetDesktop}, Time: p.down.Time})
}

// Cancel abandons the gesture, restoring dragged positions and sizes and discarding
// any provisional link.
func (p *Pointer) Cancel() {
	switch p.mode {
	case NodeDragging:
		for id, pos := range p.starts {
			p.store.SetPosition(id, pos)
		}
		p.sel.ResetOffset()
	case Resizing:
		p.store.SetSize(p.resizeID, p.resizeStart)
		p.store.SetPosition(p.resizeID, p.resizeFrom)
	}
	p.reset()
}

func (p *Pointer) reset() {
	p.mode = Idle
	p.armed = Idle
	p.starts = nil
	p.dragIDs = nil
	p.reselect = ""
	p.resizeID = ""
	p.link = nil
	p.box = geom.Rect{}
}

// Wheel zooms around the pointer. In touchpad mode an unmodified scroll pans instead.
func (p *Pointer) Wheel(at geom.Point, dy int, mods Modifiers) {
	if p.locked || dy == 0 {
		return
	}
	if p.set.Primary == PrimaryTouchpad && !mods.Ctrl {
		p.nav.PanBy(0, -dy, 1)
		return
	}
	if dy < 0 {
		p.nav.ZoomIn(at)
	} else {
		p.nav.ZoomOut(at)
	}
}
