package graph

import (
	"fmt"
	"html"

	"metaviz/internal/geom"
)

// Builtin returns a registry populated with the editor's node types.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register(&NodeType{
		Name:        "text",
		DisplayName: "Text",
		Icon:        "T",
		Size:        geom.Sz(240, 160),
		MinSize:     geom.Sz(80, 48),
		MaxSize:     geom.Sz(2048, 2048),
		Resize:      ResizeFree,
		Sockets:     []string{"north", "east", "south", "west"},
		Params: []ParamField{
			{Name: "text", Kind: ParamString, Default: ""},
			{Name: "fontSize", Kind: ParamNumber, Default: 14.0},
		},
		SVG: textSVG("text"),
	})
	r.Register(&NodeType{
		Name:        "label",
		DisplayName: "Label",
		Icon:        "L",
		Size:        geom.Sz(120, 32),
		MinSize:     geom.Sz(40, 32),
		MaxSize:     geom.Sz(1024, 32),
		Resize:      ResizeFree,
		Sockets:     []string{"east", "west"},
		Params: []ParamField{
			{Name: "name", Kind: ParamString, Default: "Label"},
		},
		SVG: textSVG("name"),
	})
	r.Register(&NodeType{
		Name:        "image",
		DisplayName: "Image",
		Icon:        "I",
		Size:        geom.Sz(192, 128),
		MinSize:     geom.Sz(48, 32),
		MaxSize:     geom.Sz(4096, 4096),
		Resize:      ResizeRatio,
		Sockets:     []string{"north", "east", "south", "west"},
		Params: []ParamField{
			{Name: "uri", Kind: ParamString, Default: ""},
			{Name: "name", Kind: ParamString, Default: ""},
		},
		SVG: func(n *Node) string {
			return fmt.Sprintf(`<image href="%s" width="%g" height="%g"/>`,
				html.EscapeString(n.Params.String("uri")), n.W, n.H)
		},
	})
	r.Register(&NodeType{
		Name:        "url",
		DisplayName: "Link",
		Icon:        "U",
		Size:        geom.Sz(192, 64),
		MinSize:     geom.Sz(96, 48),
		MaxSize:     geom.Sz(640, 160),
		Resize:      ResizeAvg,
		Sockets:     []string{"north", "east", "south", "west"},
		Params: []ParamField{
			{Name: "url", Kind: ParamString, Default: ""},
			{Name: "name", Kind: ParamString, Default: ""},
		},
		SVG: func(n *Node) string {
			label := n.Params.String("name")
			if label == "" {
				label = n.Params.String("url")
			}
			return fmt.Sprintf(`<a href="%s">%s</a>`,
				html.EscapeString(n.Params.String("url")), rectSVG(n, label))
		},
	})
	r.Register(&NodeType{
		Name:        "clipart",
		DisplayName: "Clipart",
		Icon:        "*",
		Size:        geom.Sz(64, 64),
		MinSize:     geom.Sz(64, 64),
		MaxSize:     geom.Sz(64, 64),
		Resize:      ResizeNone,
		Sockets:     []string{"center"},
		Params: []ParamField{
			{Name: "ico", Kind: ParamString, Default: "star"},
			{Name: "color", Kind: ParamString, Default: "#222222"},
		},
		SVG: func(n *Node) string {
			return fmt.Sprintf(`<circle cx="%g" cy="%g" r="%g" fill="%s"/>`,
				n.W/2, n.H/2, n.W/2, html.EscapeString(n.Params.String("color")))
		},
	})
	r.Register(&NodeType{
		Name:        "folder",
		DisplayName: "Folder",
		Icon:        "F",
		Size:        geom.Sz(96, 96),
		MinSize:     geom.Sz(96, 96),
		MaxSize:     geom.Sz(96, 96),
		Resize:      ResizeNone,
		Sockets:     []string{"north", "east", "south", "west"},
		Container:   true,
		Params: []ParamField{
			{Name: "name", Kind: ParamString, Default: "Folder"},
		},
		SVG: textSVG("name"),
	})
	return r
}

func textSVG(param string) func(n *Node) string {
	return func(n *Node) string {
		return rectSVG(n, n.Params.String(param))
	}
}

func rectSVG(n *Node, label string) string {
	return fmt.Sprintf(`<rect width="%g" height="%g" fill="#ffffff" stroke="#333333"/>`+
		`<text x="8" y="20" font-family="monospace" font-size="14">%s</text>`,
		n.W, n.H, html.EscapeString(label))
}
