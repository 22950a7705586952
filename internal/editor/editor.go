// Package editor ties the graph store, history, selection and pointer together into
// the operations a user performs on a board.
package editor

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"metaviz/internal/format"
	"metaviz/internal/geom"
	"metaviz/internal/graph"
	"metaviz/internal/history"
	"metaviz/internal/interaction"
	"metaviz/internal/selection"
)

var (
	ErrLocked       = errors.New("editor is busy with a file operation")
	ErrNeedTwoNodes = errors.New("select exactly two nodes")
)

// Options configure a new Editor. Zero values fall back to defaults.
type Options struct {
	Registry  *graph.Registry
	Logger    *zap.Logger
	Clipboard Clipboard
	Clock     func() time.Time
	Session   string
	Pointer   interaction.Settings
	ZoomMin   float64
	ZoomMax   float64
	ZoomStep  float64
	// GridWidth is the width snapping uses when toggled on.
	GridWidth float64
	// Confirm asks the user a yes/no question. Nil means yes.
	Confirm func(question string) bool
	// Notify shows a short message to the user.
	Notify func(msg string)
	// Menu is called when a context menu is requested.
	Menu func(t interaction.Target, world geom.Point)
}

// Message is one entry of the board conversation.
type Message struct {
	ID     string
	Author string
	Text   string
	Time   time.Time
}

type Editor struct {
	log   *zap.Logger
	store *graph.Store
	hist  *history.History
	sel   *selection.Selection
	nav   *interaction.Navigator
	ptr   *interaction.Pointer
	hit   *interaction.HitTester
	clip  Clipboard

	confirm func(string) bool
	notify  func(string)

	board  format.Board
	path   string
	folder string
	chat   []Message
	seen   map[string]bool
	busy   bool

	gridWidth float64
}

func New(opts Options) *Editor {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Registry == nil {
		opts.Registry = graph.Builtin()
	}
	if opts.Clipboard == nil {
		opts.Clipboard = &MemoryClipboard{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Session == "" {
		opts.Session = graph.NewID()
	}
	if opts.Pointer == (interaction.Settings{}) {
		opts.Pointer = interaction.DefaultSettings()
	}
	e := &Editor{
		log:     opts.Logger.Named("editor"),
		clip:    opts.Clipboard,
		confirm: opts.Confirm,
		notify:  opts.Notify,
		board:   format.Board{ID: graph.NewID()},
		seen:    make(map[string]bool),

		gridWidth: opts.GridWidth,
	}
	if e.gridWidth <= 0 {
		e.gridWidth = 16
	}
	e.store = graph.NewStore(opts.Registry, opts.Logger)
	e.hist = history.New(e,
		history.WithClock(opts.Clock),
		history.WithLogger(opts.Logger),
		history.WithSession(opts.Session))
	e.sel = selection.New(e.store)
	e.nav = interaction.NewNavigator(opts.ZoomMin, opts.ZoomMax, opts.ZoomStep)
	e.ptr = interaction.NewPointer(e.store, e.hist, e.sel, e.nav, opts.Pointer, interaction.Hooks{
		DoubleClick: e.doubleClick,
		Locked: func(n *graph.Node) {
			e.say(fmt.Sprintf("%s is locked", e.title(n)))
		},
		Menu: opts.Menu,
	}, opts.Logger)
	e.hit = &interaction.HitTester{Store: e.store, Sel: e.sel, Nav: e.nav}
	return e
}

func (e *Editor) Store() *graph.Store { return e.store }
func (e *Editor) History() *history.History { return e.hist }
func (e *Editor) Selection() *selection.Selection { return e.sel }
func (e *Editor) Navigator() *interaction.Navigator { return e.nav }
func (e *Editor) Pointer() *interaction.Pointer { return e.ptr }
func (e *Editor) Board() format.Board { return e.board }
func (e *Editor) Path() string { return e.path }
func (e *Editor) Folder() string { return e.folder }
func (e *Editor) Dirty() bool { return e.hist.IsDirty() }
func (e *Editor) Busy() bool { return e.busy }

// Messages returns the board conversation in arrival order.
func (e *Editor) Messages() []Message {
	return append([]Message(nil), e.chat...)
}

// Hit classifies the screen point at against the open folder.
func (e *Editor) Hit(at geom.Point, tolerance float64) interaction.Target {
	e.hit.Tolerance = tolerance
	return e.hit.Hit(e.folder, at)
}

func (e *Editor) say(msg string) {
	if e.notify != nil {
		e.notify(msg)
	}
}

func (e *Editor) title(n *graph.Node) string {
	if c := n.Caption(); c != "" {
		return fmt.Sprintf("%q", c)
	}
	return e.store.Registry().TypeOf(n).DisplayName
}

func (e *Editor) doubleClick(t interaction.Target, world geom.Point) {
	n := e.store.Resolve(t)
	if n == nil {
		if _, err := e.AddNode("text", world); err != nil {
			e.log.Debug("double click add failed", zap.Error(err))
		}
		return
	}
	if e.store.Registry().TypeOf(n).Container {
		e.OpenFolder(n.ID)
	}
}

// grid returns the snapping width, or zero when snapping is off.
func (e *Editor) grid() float64 {
	return e.ptr.Settings().Grid
}

// SetGrid changes the snapping width; zero disables snapping.
func (e *Editor) SetGrid(width float64) {
	e.ptr.SetGrid(width)
}

// step is the distance used by nudges and paste offsets.
func (e *Editor) step() float64 {
	if g := e.grid(); g > 0 {
		return g
	}
	return 16
}
