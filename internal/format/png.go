package format

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"metaviz/internal/geom"
	"metaviz/internal/graph"
)

// PNGOptions control raster export. Scale multiplies world units into pixels.
type PNGOptions struct {
	Scale    float64
	FontSize float64
}

func DefaultPNGOptions() PNGOptions {
	return PNGOptions{Scale: 1, FontSize: 12}
}

// ExportPNG rasterizes the visible content of folder into path.
func ExportPNG(path string, store *graph.Store, folder string, opts PNGOptions) error {
	sc, err := collect(store, folder)
	if err != nil {
		return err
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.FontSize <= 0 {
		opts.FontSize = 12
	}
	b := sc.bounds
	width := int(math.Ceil(b.W * opts.Scale))
	height := int(math.Ceil(b.H * opts.Scale))

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()
	dc.Scale(opts.Scale, opts.Scale)
	dc.Translate(-b.X, -b.Y)

	ttf, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return fmt.Errorf("failed to parse font: %w", err)
	}
	dc.SetFontFace(truetype.NewFace(ttf, &truetype.Options{
		Size:    opts.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	}))

	// Links first so they appear behind nodes.
	for _, l := range sc.links {
		from, to := Anchors(store.Node(l.Start).Bounds(), store.Node(l.End).Bounds())
		drawLinkPNG(dc, from, to)
	}
	reg := store.Registry()
	for _, n := range sc.nodes {
		drawNodePNG(dc, n, reg.TypeOf(n), opts.FontSize)
	}
	if err := dc.SavePNG(path); err != nil {
		return &Error{Path: path, Err: err}
	}
	return nil
}

func drawLinkPNG(dc *gg.Context, from, to geom.Point) {
	dc.SetLineWidth(1)
	dc.SetColor(color.Black)
	dc.DrawLine(from.X, from.Y, to.X, to.Y)
	dc.Stroke()

	d := to.Sub(from)
	length := d.Len()
	if length < 0.1 {
		return
	}
	dx, dy := d.X/length, d.Y/length
	size := 8.0
	spread := 0.5
	dc.MoveTo(to.X, to.Y)
	dc.LineTo(to.X-size*dx+size*dy*spread, to.Y-size*dy-size*dx*spread)
	dc.LineTo(to.X-size*dx-size*dy*spread, to.Y-size*dy+size*dx*spread)
	dc.ClosePath()
	dc.Fill()
}

func drawNodePNG(dc *gg.Context, n *graph.Node, t *graph.NodeType, fontSize float64) {
	r := n.Bounds()
	dc.SetLineWidth(1)
	dc.SetColor(color.White)
	dc.DrawRectangle(r.X, r.Y, r.W, r.H)
	dc.Fill()
	dc.SetColor(color.Black)
	if n.Quarantined {
		dc.SetDash(4, 4)
	}
	dc.DrawRectangle(r.X, r.Y, r.W, r.H)
	dc.Stroke()
	dc.SetDash()

	caption := n.Caption()
	if caption == "" {
		caption = t.DisplayName
	}
	pad := fontSize / 2
	lines := dc.WordWrap(strings.TrimSpace(caption), math.Max(r.W-2*pad, fontSize))
	lineHeight := fontSize * 1.3
	for i, line := range lines {
		y := r.Y + pad + fontSize + float64(i)*lineHeight
		if y > r.Y+r.H-pad/2 {
			break
		}
		dc.DrawString(line, r.X+pad, y)
	}
}
