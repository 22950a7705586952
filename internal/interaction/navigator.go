package interaction

import (
	"metaviz/internal/geom"
)

// Navigator maps between screen and world coordinates: world = (screen - offset) / zoom.
type Navigator struct {
	offset  geom.Point
	zoom    float64
	minZoom float64
	maxZoom float64
	step    float64
	panStep float64
}

func NewNavigator(minZoom, maxZoom, step float64) *Navigator {
	if minZoom <= 0 {
		minZoom = 0.1
	}
	if maxZoom <= 0 {
		maxZoom = 4
	}
	if maxZoom < minZoom {
		maxZoom = minZoom
	}
	if step <= 1 {
		step = 1.25
	}
	return &Navigator{zoom: 1, minZoom: minZoom, maxZoom: maxZoom, step: step, panStep: 32}
}

func (n *Navigator) Zoom() float64 {
	return n.zoom
}

func (n *Navigator) Offset() geom.Point {
	return n.offset
}

func (n *Navigator) SetOffset(p geom.Point) {
	n.offset = p
}

func (n *Navigator) ScreenToWorld(p geom.Point) geom.Point {
	return p.Sub(n.offset).Scale(1 / n.zoom)
}

func (n *Navigator) WorldToScreen(p geom.Point) geom.Point {
	return p.Scale(n.zoom).Add(n.offset)
}

// ScreenRectToWorld converts a screen-space rectangle to world space.
func (n *Navigator) ScreenRectToWorld(r geom.Rect) geom.Rect {
	min := n.ScreenToWorld(r.Min())
	max := n.ScreenToWorld(r.Max())
	return geom.RectFromPoints(min, max)
}

func (n *Navigator) WorldRectToScreen(r geom.Rect) geom.Rect {
	return geom.RectFromPoints(n.WorldToScreen(r.Min()), n.WorldToScreen(r.Max()))
}

// Pan shifts the view by a screen-space delta.
func (n *Navigator) Pan(d geom.Point) {
	n.offset = n.offset.Add(d)
}

// PanBy moves the view by whole pan steps, e.g. from arrow keys. speed multiplies the step.
func (n *Navigator) PanBy(dx, dy int, speed int) {
	if speed < 1 {
		speed = 1
	}
	n.Pan(geom.Pt(float64(dx*speed)*n.panStep, float64(dy*speed)*n.panStep))
}

// ZoomAt sets the zoom factor keeping the world point under the screen point at still.
func (n *Navigator) ZoomAt(zoom float64, at geom.Point) {
	zoom = geom.Clamp(zoom, n.minZoom, n.maxZoom)
	world := n.ScreenToWorld(at)
	n.zoom = zoom
	n.offset = at.Sub(world.Scale(zoom))
}

func (n *Navigator) ZoomIn(at geom.Point) {
	n.ZoomAt(n.zoom*n.step, at)
}

func (n *Navigator) ZoomOut(at geom.Point) {
	n.ZoomAt(n.zoom/n.step, at)
}

// Reset returns to the origin at 100%.
func (n *Navigator) Reset() {
	n.offset = geom.Point{}
	n.zoom = 1
}

// Center scrolls so that the world point p appears at the screen point at.
func (n *Navigator) Center(p, at geom.Point) {
	n.offset = at.Sub(p.Scale(n.zoom))
}
