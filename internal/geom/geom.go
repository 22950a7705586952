// Package geom holds the per-entity placement state and the pure arithmetic the
// editor needs on it: bounds, margins, intersection and grid snapping.
package geom

import (
	"fmt"
	"math"
)

type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

func (p Point) Scale(f float64) Point {
	return Point{p.X * f, p.Y * f}
}

func (p Point) Neg() Point {
	return Point{-p.X, -p.Y}
}

// Len returns the euclidean length of p seen as a vector.
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

type Size struct {
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
}

func Sz(w, h float64) Size {
	return Size{W: w, H: h}
}

// Clamp limits both axes of s to [min, max]. A zero max axis means unbounded.
func (s Size) Clamp(min, max Size) Size {
	s.W = Clamp(s.W, min.W, max.W)
	s.H = Clamp(s.H, min.H, max.H)
	return s
}

func (s Size) String() string {
	return fmt.Sprintf("%gx%g", s.W, s.H)
}

type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// RectFromPoints returns the normalized rectangle spanned by two corners.
func RectFromPoints(a, b Point) Rect {
	r := Rect{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)}
	r.W = math.Abs(a.X - b.X)
	r.H = math.Abs(a.Y - b.Y)
	return r
}

func (r Rect) Min() Point {
	return Point{r.X, r.Y}
}

func (r Rect) Max() Point {
	return Point{r.X + r.W, r.Y + r.H}
}

func (r Rect) Center() Point {
	return Point{r.X + r.W/2, r.Y + r.H/2}
}

func (r Rect) Empty() bool {
	return r.W <= 0 && r.H <= 0
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Intersects reports whether r and o overlap. Touching edges count.
func (r Rect) Intersects(o Rect) bool {
	return r.X <= o.X+o.W && o.X <= r.X+r.W && r.Y <= o.Y+o.H && o.Y <= r.Y+r.H
}

func (r Rect) Union(o Rect) Rect {
	min := Point{math.Min(r.X, o.X), math.Min(r.Y, o.Y)}
	max := Point{math.Max(r.X+r.W, o.X+o.W), math.Max(r.Y+r.H, o.Y+o.H)}
	return Rect{X: min.X, Y: min.Y, W: max.X - min.X, H: max.Y - min.Y}
}

// Expand grows r by m on every side. Negative margins shrink it.
func (r Rect) Expand(m float64) Rect {
	return Rect{X: r.X - m, Y: r.Y - m, W: r.W + 2*m, H: r.H + 2*m}
}

func (r Rect) Translate(d Point) Rect {
	r.X += d.X
	r.Y += d.Y
	return r
}

func (r Rect) String() string {
	return fmt.Sprintf("{%g,%g %gx%g}", r.X, r.Y, r.W, r.H)
}

// Bounds returns the union of all rects and false when there are none.
func Bounds(rects []Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	b := rects[0]
	for _, r := range rects[1:] {
		b = b.Union(r)
	}
	return b, true
}

// Transform is the placement of one entity on the canvas. Origin is the offset of the
// anchor point from the top-left corner.
type Transform struct {
	X  float64
	Y  float64
	W  float64
	H  float64
	Z  int
	OX float64
	OY float64
}

func (t Transform) Position() Point {
	return Point{t.X, t.Y}
}

func (t *Transform) SetPosition(p Point) {
	t.X, t.Y = p.X, p.Y
}

func (t Transform) Size() Size {
	return Size{t.W, t.H}
}

func (t *Transform) SetSize(s Size) {
	t.W, t.H = s.W, s.H
}

// Bounds is the world-space rectangle covered by the entity.
func (t Transform) Bounds() Rect {
	return Rect{X: t.X - t.OX, Y: t.Y - t.OY, W: t.W, H: t.H}
}

// Snap rounds v to the nearest multiple of grid. A non-positive grid leaves v alone.
func Snap(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	return math.Round(v/grid) * grid
}

func SnapPoint(p Point, grid float64) Point {
	return Point{Snap(p.X, grid), Snap(p.Y, grid)}
}

// Clamp limits v to [min, max]. A non-positive max means no upper bound.
func Clamp(v, min, max float64) float64 {
	if v < min {
		v = min
	}
	if max > 0 && v > max {
		v = max
	}
	return v
}
