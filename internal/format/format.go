// Package format reads and writes boards: the MetavizJSON snapshot, the MetavizStack
// action log (JSON or YAML) and the SVG and PNG projections.
package format

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"metaviz/internal/graph"
	"metaviz/internal/history"
)

const (
	TagSnapshot = "MetavizJSON"
	TagStack    = "MetavizStack"

	SnapshotVersion = 1
	StackVersion    = 1
)

var (
	ErrUnknownFormat = errors.New("unknown file format")
	ErrVersion       = errors.New("unsupported format version")
)

// Error reports a failure to read or write the file at Path.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Board identifies a diagram.
type Board struct {
	ID   string
	Name string
}

type Codec int

const (
	CodecJSON Codec = iota
	CodecYAML
)

// CodecFor picks the codec from the file extension.
func CodecFor(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return CodecYAML
	}
	return CodecJSON
}

func (c Codec) marshal(v any) ([]byte, error) {
	if c == CodecYAML {
		return yaml.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}

func (c Codec) unmarshal(data []byte, v any) error {
	if c == CodecYAML {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

type header struct {
	Format  string `json:"format" yaml:"format"`
	Version int    `json:"version" yaml:"version"`
}

// Document is a decoded board. Snapshots fill Nodes and Links; action logs fill Packets.
type Document struct {
	Format  string
	Board   Board
	Nodes   []graph.NodeRecord
	Links   []graph.LinkRecord
	Packets []history.Packet
}

// IsStack reports whether the document is an action log that must be replayed.
func (d *Document) IsStack() bool {
	return d.Format == TagStack
}

// Decode detects the format of data and decodes it. JSON is tried first since
// it is what the editor writes by default.
func Decode(data []byte, codec Codec) (*Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		codec = CodecJSON
	}
	var h header
	if err := codec.unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}
	switch h.Format {
	case TagSnapshot:
		s, err := decodeSnapshot(data, codec)
		if err != nil {
			return nil, err
		}
		return &Document{Format: TagSnapshot, Board: Board{ID: s.ID, Name: s.Name}, Nodes: s.Nodes, Links: s.Links}, nil
	case TagStack:
		s, err := decodeStack(data, codec)
		if err != nil {
			return nil, err
		}
		packets, err := s.Packets()
		if err != nil {
			return nil, err
		}
		return &Document{Format: TagStack, Board: Board{ID: s.ID, Name: s.Name}, Packets: packets}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, h.Format)
}

func checkVersion(v, max int) error {
	if v < 1 || v > max {
		return fmt.Errorf("%w: %d", ErrVersion, v)
	}
	return nil
}

// ReadFile decodes the board stored at path.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	doc, err := Decode(data, CodecFor(path))
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return doc, nil
}

// WriteStack saves the action log of a board to path.
func WriteStack(path string, board Board, packets []history.Packet) error {
	data, err := CodecFor(path).marshal(NewStack(board, packets))
	if err != nil {
		return &Error{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &Error{Path: path, Err: err}
	}
	return nil
}

// WriteSnapshot saves the current graph of a board to path.
func WriteSnapshot(path string, board Board, nodes []graph.NodeRecord, links []graph.LinkRecord) error {
	data, err := CodecFor(path).marshal(NewSnapshot(board, nodes, links))
	if err != nil {
		return &Error{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &Error{Path: path, Err: err}
	}
	return nil
}
