// Package tui runs the board editor in a terminal. Mouse and key messages are turned
// into pointer events and keyboard commands for the editor; the board is drawn as a
// grid of character cells.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"metaviz/internal/config"
	"metaviz/internal/editor"
	"metaviz/internal/geom"
	"metaviz/internal/graph"
	"metaviz/internal/interaction"
)

// hitTolerance is the pick radius for sockets and handles, in screen pixels.
const hitTolerance = 10

type mode int

const (
	modeNormal mode = iota
	modeEdit
	modeChat
	modeFile
	modeConfirm
)

type fileOp int

const (
	fileSave fileOp = iota
	fileOpen
	fileExportPNG
	fileExportSVG
	fileExportText
)

type confirmAction int

const (
	confirmDelete confirmAction = iota
	confirmQuit
	confirmNew
)

type Options struct {
	Editor editor.Options
	Config *config.Config
	Keymap *interaction.Keymap
	Styles *Styles
	Logger *zap.Logger
}

type Model struct {
	ed     *editor.Editor
	cfg    *config.Config
	keys   *interaction.Keymap
	styles Styles
	log    *zap.Logger
	now    func() time.Time

	width  int
	height int

	mode       mode
	help       bool
	helpScroll int

	input   []rune
	cursor  int
	editID  string
	param   string
	fileOp  fileOp
	confirm confirmAction

	message string
	err     string

	last     geom.Point
	pressed  bool
	quitting bool
}

// New creates the terminal model and the editor it drives.
func New(opts Options) *Model {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Keymap == nil {
		opts.Keymap = interaction.DefaultKeymap()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Editor.Clock == nil {
		opts.Editor.Clock = time.Now
	}
	m := &Model{
		cfg:    opts.Config,
		keys:   opts.Keymap,
		styles: DefaultStyles(),
		log:    opts.Logger.Named("tui"),
		now:    opts.Editor.Clock,
		width:  80,
		height: 24,
	}
	if opts.Styles != nil {
		m.styles = *opts.Styles
	}
	eo := opts.Editor
	eo.Logger = opts.Logger
	eo.Notify = m.notify
	eo.Menu = m.menu
	// Deletions are confirmed by the model itself; the editor must not block.
	eo.Confirm = nil
	m.ed = editor.New(eo)
	return m
}

func (m *Model) Editor() *editor.Editor {
	return m.ed
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) notify(msg string) {
	m.message = msg
	m.err = ""
}

func (m *Model) fail(err error) {
	m.err = err.Error()
	m.message = ""
}

func (m *Model) menu(t interaction.Target, _ geom.Point) {
	if n := m.ed.Store().Resolve(t); n != nil {
		if !m.ed.Selection().Has(n) {
			m.ed.Selection().Set(n)
		}
		m.notify(m.hints(interaction.CmdEdit, interaction.CmdToggleLink, interaction.CmdToggleLock,
			interaction.CmdDuplicate, interaction.CmdDelete))
		return
	}
	m.notify(m.hints(interaction.CmdAddText, interaction.CmdAddLabel, interaction.CmdAddFolder,
		interaction.CmdPaste))
}

// hints lists the first key bound to each command.
func (m *Model) hints(cmds ...interaction.Command) string {
	var parts []string
	for _, c := range cmds {
		if keys := m.keys.Keys(c); len(keys) > 0 {
			parts = append(parts, keys[0]+" "+string(c))
		}
	}
	return strings.Join(parts, " · ")
}

func (m *Model) canvasHeight() int {
	if m.height < 2 {
		return 1
	}
	return m.height - 1
}

// world is the board position under the last pointer sample.
func (m *Model) world() geom.Point {
	return m.ed.Navigator().ScreenToWorld(m.last)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.MouseMsg:
		m.mouse(msg)
		return m, nil
	case tea.KeyMsg:
		if m.help {
			m.helpKey(msg.String())
			return m, nil
		}
		switch m.mode {
		case modeEdit, modeChat, modeFile:
			m.inputKey(msg)
		case modeConfirm:
			m.confirmKey(msg.String())
		default:
			m.normalKey(msg.String())
		}
		if m.quitting {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) mouse(msg tea.MouseMsg) {
	if m.help || m.mode != modeNormal {
		return
	}
	ptr := m.ed.Pointer()
	if msg.X < 0 || msg.Y < 0 || msg.X >= m.width || msg.Y >= m.canvasHeight() {
		m.release()
		return
	}
	pos := cellCenter(msg.X, msg.Y)
	mods := interaction.Modifiers{Ctrl: msg.Ctrl, Shift: msg.Shift, Alt: msg.Alt}
	defer func() { m.last = pos }()

	switch msg.Action {
	case tea.MouseActionPress:
		var button interaction.Button
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			ptr.Wheel(pos, -1, mods)
			return
		case tea.MouseButtonWheelDown:
			ptr.Wheel(pos, 1, mods)
			return
		case tea.MouseButtonLeft:
			button = interaction.ButtonLeft
		case tea.MouseButtonMiddle:
			button = interaction.ButtonMiddle
		case tea.MouseButtonRight:
			button = interaction.ButtonRight
		default:
			return
		}
		m.message, m.err = "", ""
		ptr.Down(m.event(pos, button, mods))
		m.pressed = button != interaction.ButtonRight
	case tea.MouseActionMotion:
		if m.pressed {
			ptr.Move(m.event(pos, interaction.ButtonLeft, mods))
		}
	case tea.MouseActionRelease:
		if m.pressed {
			ptr.Up(m.event(pos, interaction.ButtonLeft, mods))
			m.pressed = false
		}
	}
}

// release ends any gesture in progress as if the button went up where the pointer
// last was. Modes that take the keyboard stop routing mouse events.
func (m *Model) release() {
	m.ed.Pointer().Leave()
	m.pressed = false
}

func (m *Model) event(pos geom.Point, b interaction.Button, mods interaction.Modifiers) interaction.Event {
	return interaction.Event{
		Pos:    pos,
		Button: b,
		Mods:   mods,
		Target: m.ed.Hit(pos, hitTolerance),
		Time:   m.now(),
	}
}

func (m *Model) normalKey(key string) {
	cmd := m.keys.Lookup(key)
	if cmd == interaction.CmdNone {
		return
	}
	m.message, m.err = "", ""
	switch cmd {
	case interaction.CmdQuit:
		m.ask(confirmQuit, m.ed.Dirty())
	case interaction.CmdHelp:
		m.release()
		m.help = true
		m.helpScroll = 0
	case interaction.CmdNew:
		m.ask(confirmNew, m.ed.Dirty())
	case interaction.CmdDelete:
		if m.ed.Selection().Count() > 0 {
			m.ask(confirmDelete, true)
		}
	case interaction.CmdEdit:
		m.startEdit()
	case interaction.CmdChat:
		m.prompt(modeChat, "")
	case interaction.CmdOpen:
		m.fileOp = fileOpen
		m.prompt(modeFile, "")
	case interaction.CmdSaveAs:
		m.fileOp = fileSave
		m.prompt(modeFile, filepath.Base(m.ed.Path()))
	case interaction.CmdSave:
		if m.ed.Path() == "" {
			m.fileOp = fileSave
			m.prompt(modeFile, "board.json")
			return
		}
		m.save(m.ed.Path())
	case interaction.CmdExportPNG:
		m.fileOp = fileExportPNG
		m.prompt(modeFile, m.exportName(".png"))
	case interaction.CmdExportSVG:
		m.fileOp = fileExportSVG
		m.prompt(modeFile, m.exportName(".svg"))
	case interaction.CmdExportText:
		m.fileOp = fileExportText
		m.prompt(modeFile, m.exportName(".txt"))
	default:
		if err := m.ed.Execute(cmd, m.world()); err != nil {
			m.fail(err)
		}
	}
}

// ask enters confirmation for a, or runs it straight away when no question is needed.
func (m *Model) ask(a confirmAction, needed bool) {
	if needed && m.cfg.Editor.Confirmations {
		m.release()
		m.confirm = a
		m.mode = modeConfirm
		return
	}
	m.run(a)
}

func (m *Model) run(a confirmAction) {
	switch a {
	case confirmDelete:
		m.ed.Delete(m.ed.Selection().Get()...)
	case confirmQuit:
		m.quitting = true
	case confirmNew:
		m.ed.NewBoard("")
		m.notify("new board")
	}
}

func (m *Model) confirmKey(key string) {
	m.mode = modeNormal
	switch key {
	case "y", "Y", "enter":
		m.run(m.confirm)
	}
}

func (m *Model) prompt(md mode, initial string) {
	m.release()
	m.mode = md
	m.input = []rune(initial)
	m.cursor = len(m.input)
}

// captionParam returns the parameter edited as the caption of nodes of type t.
func captionParam(t *graph.NodeType) string {
	for _, name := range []string{"text", "name", "url", "uri"} {
		if f, ok := t.Field(name); ok && f.Kind == graph.ParamString {
			return name
		}
	}
	return ""
}

func (m *Model) startEdit() {
	n := m.ed.Selection().Focused()
	if n == nil {
		m.notify("select one node to edit")
		return
	}
	param := captionParam(m.ed.Store().Registry().TypeOf(n))
	if param == "" || n.Quarantined {
		m.notify("this node has no text")
		return
	}
	if n.Locks.Content {
		m.notify("node is locked")
		return
	}
	m.editID = n.ID
	m.param = param
	m.prompt(modeEdit, n.Params.String(param))
}

func (m *Model) inputKey(msg tea.KeyMsg) {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		return
	case "enter":
		m.commit(string(m.input))
		m.mode = modeNormal
		return
	case "ctrl+n":
		if m.mode == modeEdit {
			m.insert('\n')
		}
		return
	case "backspace":
		if m.cursor > 0 {
			m.input = append(m.input[:m.cursor-1], m.input[m.cursor:]...)
			m.cursor--
		}
		return
	case "left":
		if m.cursor > 0 {
			m.cursor--
		}
		return
	case "right":
		if m.cursor < len(m.input) {
			m.cursor++
		}
		return
	}
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
		for _, r := range msg.Runes {
			m.insert(r)
		}
		if msg.Type == tea.KeySpace && len(msg.Runes) == 0 {
			m.insert(' ')
		}
	}
}

func (m *Model) insert(r rune) {
	m.input = append(m.input[:m.cursor], append([]rune{r}, m.input[m.cursor:]...)...)
	m.cursor++
}

func (m *Model) commit(text string) {
	switch m.mode {
	case modeEdit:
		if n := m.ed.Store().Node(m.editID); n != nil {
			m.ed.SetParams(n, map[string]any{m.param: text})
		}
	case modeChat:
		m.ed.Say(m.author(), text)
	case modeFile:
		name := strings.TrimSpace(text)
		if name == "" {
			return
		}
		m.file(m.cfg.SavePath(name))
	}
}

func (m *Model) author() string {
	if m.cfg.Editor.Author != "" {
		return m.cfg.Editor.Author
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "me"
}

func (m *Model) exportName(ext string) string {
	base := "board"
	if p := m.ed.Path(); p != "" {
		base = strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
	}
	return base + ext
}

func (m *Model) file(path string) {
	switch m.fileOp {
	case fileSave:
		m.save(path)
	case fileOpen:
		if err := m.ed.Open(path); err != nil {
			m.fail(err)
			return
		}
		m.notify("opened " + path)
	case fileExportPNG:
		m.export(path, func() error { return ExportPNG(path, m.ed) })
	case fileExportSVG:
		m.export(path, func() error { return ExportSVG(path, m.ed) })
	case fileExportText:
		m.export(path, func() error { return ExportTextFile(path, m.ed) })
	}
}

func (m *Model) save(path string) {
	if err := m.ed.Save(path); err != nil {
		m.fail(err)
		return
	}
	m.notify("saved " + path)
}

func (m *Model) export(path string, fn func() error) {
	if err := fn(); err != nil {
		m.log.Error("export failed", zap.String("path", path), zap.Error(err))
		m.fail(err)
		return
	}
	m.notify("exported " + path)
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.help {
		return m.helpView()
	}
	rows := draw(m.ed, m.width, m.canvasHeight(), true).styled(m.styles)
	return strings.Join(rows, "\n") + "\n" + m.statusLine()
}

func (m *Model) modeString() string {
	switch m.mode {
	case modeEdit:
		return "EDIT"
	case modeChat:
		return "CHAT"
	case modeFile:
		return "FILE"
	case modeConfirm:
		return "CONFIRM"
	}
	if m.ed.Pointer().Locked() {
		return "BUSY"
	}
	return strings.ToUpper(m.ed.Pointer().Mode().String())
}

func (m *Model) statusLine() string {
	left := m.styles.Mode.Render(m.modeString())
	var body string
	switch m.mode {
	case modeEdit, modeChat, modeFile:
		label := map[mode]string{modeEdit: "Text", modeChat: "Message", modeFile: m.fileLabel()}[m.mode]
		in := string(m.input[:m.cursor]) + "█" + string(m.input[m.cursor:])
		body = fmt.Sprintf(" %s: %s | Enter=confirm, Esc=cancel", label, strings.ReplaceAll(in, "\n", "⏎"))
	case modeConfirm:
		body = " " + m.question() + " (y/n)"
	default:
		body = " " + m.summary()
	}
	right := ""
	switch {
	case m.err != "":
		right = m.styles.Error.Render("ERROR: " + m.err)
	case m.message != "":
		right = m.styles.Message.Render(m.message)
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(body) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return left + m.styles.Status.Render(body+strings.Repeat(" ", gap)) + right
}

func (m *Model) fileLabel() string {
	switch m.fileOp {
	case fileOpen:
		return "Open"
	case fileExportPNG:
		return "Export PNG"
	case fileExportSVG:
		return "Export SVG"
	case fileExportText:
		return "Export text"
	}
	return "Save"
}

func (m *Model) question() string {
	switch m.confirm {
	case confirmDelete:
		return fmt.Sprintf("Delete %d node(s)?", m.ed.Selection().Count())
	case confirmQuit:
		return "Quit? Unsaved changes will be lost."
	case confirmNew:
		return "New board? Unsaved changes will be lost."
	}
	return ""
}

// summary describes the board: name, open folder, zoom and selection.
func (m *Model) summary() string {
	name := m.ed.Board().Name
	if name == "" {
		name = filepath.Base(m.ed.Path())
	}
	if name == "" || name == "." {
		name = "untitled"
	}
	if m.ed.Dirty() {
		name += "*"
	}
	parts := []string{name}
	if path := m.ed.FolderPath(); len(path) > 0 {
		var names []string
		for _, f := range path {
			names = append(names, f.Caption())
		}
		parts = append(parts, "/ "+strings.Join(names, " / "))
	}
	parts = append(parts, fmt.Sprintf("%.0f%%", m.ed.Navigator().Zoom()*100))
	if n := m.ed.Selection().Count(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	if msgs := m.ed.Messages(); len(msgs) > 0 && m.message == "" && m.err == "" {
		last := msgs[len(msgs)-1]
		parts = append(parts, fmt.Sprintf("<%s> %s", last.Author, last.Text))
	}
	parts = append(parts, "? for help")
	return strings.Join(parts, " | ")
}
