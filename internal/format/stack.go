package format

import (
	"fmt"

	"metaviz/internal/history"
)

// Stack is the MetavizStack document. The file is the history log; the graph is
// whatever replaying it produces.
type Stack struct {
	Format   string    `json:"format" yaml:"format"`
	Version  int       `json:"version" yaml:"version"`
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Sessions []Session `json:"sessions" yaml:"sessions"`
}

// Session groups the packets recorded by one editing session.
type Session struct {
	ID      string           `json:"id" yaml:"id"`
	History []history.Record `json:"history" yaml:"history"`
}

// NewStack groups packets by session in order of first appearance.
func NewStack(board Board, packets []history.Packet) Stack {
	s := Stack{Format: TagStack, Version: StackVersion, ID: board.ID, Name: board.Name, Sessions: []Session{}}
	index := make(map[string]int)
	for _, p := range packets {
		r := history.Encode(p)
		i, ok := index[r.Session]
		if !ok {
			i = len(s.Sessions)
			index[r.Session] = i
			s.Sessions = append(s.Sessions, Session{ID: r.Session})
		}
		s.Sessions[i].History = append(s.Sessions[i].History, r)
	}
	return s
}

func decodeStack(data []byte, codec Codec) (Stack, error) {
	var s Stack
	if err := codec.unmarshal(data, &s); err != nil {
		return Stack{}, fmt.Errorf("decode stack: %w", err)
	}
	if s.Format != TagStack {
		return Stack{}, fmt.Errorf("%w: %q", ErrUnknownFormat, s.Format)
	}
	if err := checkVersion(s.Version, StackVersion); err != nil {
		return Stack{}, err
	}
	return s, nil
}

// Packets decodes every record, restoring its session. The result is in file order;
// History.Load sorts it by timestamp.
func (s Stack) Packets() ([]history.Packet, error) {
	var out []history.Packet
	for _, sess := range s.Sessions {
		for i, r := range sess.History {
			r.Session = sess.ID
			p, err := history.Decode(r)
			if err != nil {
				return nil, fmt.Errorf("session %s record %d: %w", sess.ID, i, err)
			}
			out = append(out, p)
		}
	}
	return out, nil
}
