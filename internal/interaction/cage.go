package interaction

import (
	"math"

	"metaviz/internal/geom"
	"metaviz/internal/graph"
)

// Handle is the direction vector of a cage corner; each axis is -1 or 1.
type Handle struct {
	X int
	Y int
}

var (
	HandleNW = Handle{-1, -1}
	HandleNE = Handle{1, -1}
	HandleSE = Handle{1, 1}
	HandleSW = Handle{-1, 1}
)

// Handles lists the cage corners in hit-test order.
var Handles = []Handle{HandleSE, HandleSW, HandleNE, HandleNW}

// HandleRect returns the screen-space square for corner h of the screen rect b.
func HandleRect(b geom.Rect, h Handle, size float64) geom.Rect {
	x := b.X
	if h.X > 0 {
		x += b.W
	}
	y := b.Y
	if h.Y > 0 {
		y += b.H
	}
	return geom.Rect{X: x - size/2, Y: y - size/2, W: size, H: size}
}

// ResizeSize computes the new size for a drag of delta (world units) on corner h,
// starting from start, clamped to [min, max].
func ResizeSize(mode graph.ResizeMode, start geom.Size, delta geom.Point, h Handle, min, max geom.Size) geom.Size {
	dw := delta.X * float64(h.X)
	dh := delta.Y * float64(h.Y)
	var out geom.Size
	switch mode {
	case graph.ResizeNone:
		return start
	case graph.ResizeAvg:
		d := (dw + dh) / 2
		out = geom.Sz(start.W+d, start.H+d)
	case graph.ResizeRatio:
		if start.W <= 0 || start.H <= 0 {
			out = geom.Sz(start.W+dw, start.H+dh)
			break
		}
		if math.Abs(dw) >= math.Abs(dh) {
			w := start.W + dw
			out = geom.Sz(w, w*start.H/start.W)
		} else {
			h := start.H + dh
			out = geom.Sz(h*start.W/start.H, h)
		}
	default:
		out = geom.Sz(start.W+dw, start.H+dh)
	}
	return out.Clamp(min, max)
}

// ResizeOrigin returns where a node that started at pos with size start must sit after
// resizing to size, so that the corner opposite h stays in place.
func ResizeOrigin(pos geom.Point, start, size geom.Size, h Handle) geom.Point {
	if h.X < 0 {
		pos.X += start.W - size.W
	}
	if h.Y < 0 {
		pos.Y += start.H - size.H
	}
	return pos
}
