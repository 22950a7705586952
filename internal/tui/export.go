package tui

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"metaviz/internal/editor"
	"metaviz/internal/format"
	"metaviz/internal/geom"
	"metaviz/internal/interaction"
)

// ExportText writes the open folder as the character drawing the editor shows, sized to
// fit the content at 100% zoom.
func ExportText(w io.Writer, e *editor.Editor) error {
	nodes := interaction.Stack(e.Store(), e.Folder())
	if len(nodes) == 0 {
		return format.ErrEmpty
	}
	rects := make([]geom.Rect, 0, len(nodes))
	for _, n := range nodes {
		rects = append(rects, n.Bounds())
	}
	b, _ := geom.Bounds(rects)

	nav := e.Navigator()
	zoom, offset := nav.Zoom(), nav.Offset()
	defer func() {
		nav.ZoomAt(zoom, geom.Point{})
		nav.SetOffset(offset)
	}()
	nav.Reset()
	nav.SetOffset(geom.Pt(CellW-b.X, CellH-b.Y))

	cols := int(math.Ceil(b.W/CellW)) + 2
	rows := int(math.Ceil(b.H/CellH)) + 2
	bw := bufio.NewWriter(w)
	for _, line := range draw(e, cols, rows, false).plain() {
		fmt.Fprintln(bw, strings.TrimRight(line, " "))
	}
	return bw.Flush()
}

func ExportTextFile(path string, e *editor.Editor) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ExportText(f, e); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ExportSVG(path string, e *editor.Editor) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := format.ExportSVG(f, e.Store(), e.Folder()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ExportPNG(path string, e *editor.Editor) error {
	return format.ExportPNG(path, e.Store(), e.Folder(), format.DefaultPNGOptions())
}
