// Package history keeps the undo/redo log of committed mutations. It never touches the
// graph itself: effects are applied through a Restorer.
package history

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Restorer applies packets to the scene. Restore brings the scene to the state implied
// by the packet's forward fields; missing entities are skipped, not reported.
type Restorer interface {
	Restore(p Packet) error
	// Reset empties the scene before a full replay.
	Reset()
}

type Option func(*History)

func WithClock(now func() time.Time) Option {
	return func(h *History) {
		h.now = now
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(h *History) {
		h.log = log
	}
}

// WithSession tags every stored packet with the given session id.
func WithSession(id string) Option {
	return func(h *History) {
		h.session = id
	}
}

type History struct {
	past    []Packet
	future  []Packet
	dirty   bool
	r       Restorer
	now     func() time.Time
	session string
	log     *zap.Logger
}

func New(r Restorer, opts ...Option) *History {
	h := &History{
		r:   r,
		now: time.Now,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.Named("history")
	return h
}

func (h *History) Session() string {
	return h.session
}

// Store appends p to the undo stack. A packet whose effect is empty is dropped and
// Store returns false. Missing timestamps and sessions are filled in.
func (h *History) Store(p Packet) bool {
	if p == nil || p.Noop() {
		return false
	}
	hd := p.head()
	if hd.Timestamp == 0 {
		hd.Timestamp = h.now().UnixMilli()
	}
	if hd.Session == "" {
		hd.Session = h.session
	}
	p = p.stamp(hd)
	h.past = append(h.past, p)
	h.dirty = true
	h.log.Debug("stored", zap.String("kind", string(p.Kind())), zap.Int("depth", len(h.past)))
	return true
}

// Record starts a new branch: the redo stack is discarded before p is stored.
func (h *History) Record(p Packet) bool {
	if p == nil || p.Noop() {
		return false
	}
	h.ClearFuture()
	return h.Store(p)
}

// ClearFuture drops every undone packet.
func (h *History) ClearFuture() {
	h.future = h.future[:0]
}

// Undo reverts the most recent packet. It returns false when there is nothing to undo
// or the restorer rejected the packet.
func (h *History) Undo() bool {
	if len(h.past) == 0 {
		return false
	}
	last := len(h.past) - 1
	p := h.past[last]
	inv := p.Mirror()
	if err := h.r.Restore(inv); err != nil {
		h.log.Error("undo failed", zap.String("kind", string(p.Kind())), zap.Error(err))
		return false
	}
	h.past = h.past[:last]
	h.future = append(h.future, inv)
	h.dirty = true
	return true
}

// Redo reapplies the most recently undone packet.
func (h *History) Redo() bool {
	if len(h.future) == 0 {
		return false
	}
	last := len(h.future) - 1
	inv := h.future[last]
	p := inv.Mirror()
	if err := h.r.Restore(p); err != nil {
		h.log.Error("redo failed", zap.String("kind", string(p.Kind())), zap.Error(err))
		return false
	}
	h.future = h.future[:last]
	h.past = append(h.past, p)
	h.dirty = true
	return true
}

// Load replaces the log with packets sorted by timestamp. The scene is not touched;
// call Recreate to rebuild it.
func (h *History) Load(packets []Packet) {
	h.past = append([]Packet(nil), packets...)
	sortPackets(h.past)
	h.future = nil
	h.dirty = false
}

// Recreate resets the scene and replays the undo stack in timestamp order.
func (h *History) Recreate() error {
	sortPackets(h.past)
	h.r.Reset()
	for i, p := range h.past {
		if err := h.r.Restore(p); err != nil {
			return fmt.Errorf("replay packet %d (%s): %w", i, p.Kind(), err)
		}
	}
	h.log.Debug("recreated", zap.Int("packets", len(h.past)))
	return nil
}

// Clear empties both stacks and marks the log clean.
func (h *History) Clear() {
	h.past = nil
	h.future = nil
	h.dirty = false
}

// Packets returns a copy of the undo stack, oldest first.
func (h *History) Packets() []Packet {
	return append([]Packet(nil), h.past...)
}

// Future returns a copy of the redo stack, next redo last.
func (h *History) Future() []Packet {
	return append([]Packet(nil), h.future...)
}

func (h *History) Len() int {
	return len(h.past)
}

func (h *History) HasUndo() bool {
	return len(h.past) > 0
}

func (h *History) HasRedo() bool {
	return len(h.future) > 0
}

func (h *History) IsDirty() bool {
	return h.dirty
}

// MarkClean is called after a successful save.
func (h *History) MarkClean() {
	h.dirty = false
}

// SetDirty forces the unsaved-changes flag, e.g. after a non-history edit.
func (h *History) SetDirty() {
	h.dirty = true
}

func sortPackets(ps []Packet) {
	sort.SliceStable(ps, func(i, j int) bool {
		return ps[i].head().Timestamp < ps[j].head().Timestamp
	})
}
