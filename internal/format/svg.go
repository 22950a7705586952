package format

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"math"
	"sort"

	"metaviz/internal/geom"
	"metaviz/internal/graph"
)

const exportPadding = 32.0

var ErrEmpty = errors.New("nothing to export")

// scene is the drawable content of one folder context, bottom node first.
type scene struct {
	nodes  []*graph.Node
	links  []*graph.Link
	bounds geom.Rect
}

func collect(store *graph.Store, folder string) (scene, error) {
	nodes := store.Query(func(n *graph.Node) bool { return n.Visible && n.Parent == folder })
	if len(nodes) == 0 {
		return scene{}, ErrEmpty
	}
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Z < nodes[j].Z })
	in := make(map[string]bool, len(nodes))
	rects := make([]geom.Rect, 0, len(nodes))
	for _, n := range nodes {
		in[n.ID] = true
		rects = append(rects, n.Bounds())
	}
	var links []*graph.Link
	for _, l := range store.Links() {
		if in[l.Start] && in[l.End] {
			links = append(links, l)
		}
	}
	b, _ := geom.Bounds(rects)
	return scene{nodes: nodes, links: links, bounds: b.Expand(exportPadding)}, nil
}

// Anchors returns the points where a straight link between the centers of a and b
// crosses their borders.
func Anchors(a, b geom.Rect) (geom.Point, geom.Point) {
	ca, cb := a.Center(), b.Center()
	return border(a, cb), border(b, ca)
}

func border(r geom.Rect, toward geom.Point) geom.Point {
	c := r.Center()
	d := toward.Sub(c)
	if d.X == 0 && d.Y == 0 {
		return c
	}
	sx, sy := math.Inf(1), math.Inf(1)
	if d.X != 0 {
		sx = (r.W / 2) / math.Abs(d.X)
	}
	if d.Y != 0 {
		sy = (r.H / 2) / math.Abs(d.Y)
	}
	s := math.Min(math.Min(sx, sy), 1)
	return c.Add(d.Scale(s))
}

// ExportSVG draws the visible content of folder using each node type's SVG fragment.
func ExportSVG(w io.Writer, store *graph.Store, folder string) error {
	sc, err := collect(store, folder)
	if err != nil {
		return err
	}
	reg := store.Registry()
	b := sc.bounds
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, `<?xml version="1.0" encoding="utf-8"?>`+"\n")
	fmt.Fprintf(buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="%g %g %g %g">`+"\n",
		b.W, b.H, b.X, b.Y, b.W, b.H)
	buf.WriteString(`<defs><marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse"><path d="M 0 0 L 10 5 L 0 10 z"/></marker></defs>` + "\n")
	fmt.Fprintf(buf, `<rect x="%g" y="%g" width="%g" height="%g" fill="white"/>`+"\n", b.X, b.Y, b.W, b.H)

	for _, l := range sc.links {
		from, to := Anchors(store.Node(l.Start).Bounds(), store.Node(l.End).Bounds())
		fmt.Fprintf(buf, `<line class="link %s" x1="%g" y1="%g" x2="%g" y2="%g" stroke="black" marker-end="url(#arrow)"/>`+"\n",
			html.EscapeString(l.Type), from.X, from.Y, to.X, to.Y)
	}
	for _, n := range sc.nodes {
		t := reg.TypeOf(n)
		fmt.Fprintf(buf, `<g class="node %s" id="%s" transform="translate(%g %g)">`,
			html.EscapeString(n.Type), html.EscapeString(n.ID), n.Bounds().X, n.Bounds().Y)
		if t.SVG != nil {
			buf.WriteString(t.SVG(n))
		}
		buf.WriteString("</g>\n")
	}
	buf.WriteString("</svg>\n")
	_, err = w.Write(buf.Bytes())
	return err
}
