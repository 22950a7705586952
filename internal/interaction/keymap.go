package interaction

import (
	"fmt"
	"sort"
	"strings"
)

// Command is an editor action a key chord can trigger.
type Command string

const (
	CmdNone         Command = ""
	CmdUndo         Command = "undo"
	CmdRedo         Command = "redo"
	CmdDelete       Command = "delete"
	CmdCopy         Command = "copy"
	CmdCut          Command = "cut"
	CmdPaste        Command = "paste"
	CmdDuplicate    Command = "duplicate"
	CmdSelectAll    Command = "select-all"
	CmdCancel       Command = "cancel"
	CmdToggleLink   Command = "toggle-link"
	CmdUnlink       Command = "unlink"
	CmdAddText      Command = "add-text"
	CmdAddLabel     Command = "add-label"
	CmdAddFolder    Command = "add-folder"
	CmdRaise        Command = "raise"
	CmdLower        Command = "lower"
	CmdAlignH       Command = "align-horizontal"
	CmdAlignV       Command = "align-vertical"
	CmdSortRow      Command = "sort-row"
	CmdSortColumn   Command = "sort-column"
	CmdResetSize    Command = "reset-size"
	CmdOpenFolder   Command = "open-folder"
	CmdCloseFolder  Command = "close-folder"
	CmdToggleLock   Command = "toggle-lock"
	CmdSave         Command = "save"
	CmdPanLeft      Command = "pan-left"
	CmdPanRight     Command = "pan-right"
	CmdPanUp        Command = "pan-up"
	CmdPanDown      Command = "pan-down"
	CmdFastPanLeft  Command = "fast-pan-left"
	CmdFastPanRight Command = "fast-pan-right"
	CmdFastPanUp    Command = "fast-pan-up"
	CmdFastPanDown  Command = "fast-pan-down"
	CmdNudgeLeft    Command = "nudge-left"
	CmdNudgeRight   Command = "nudge-right"
	CmdNudgeUp      Command = "nudge-up"
	CmdNudgeDown    Command = "nudge-down"
	CmdZoomIn       Command = "zoom-in"
	CmdZoomOut      Command = "zoom-out"
	CmdZoomReset    Command = "zoom-reset"
	CmdToggleGrid   Command = "toggle-grid"
	CmdEdit         Command = "edit"
	CmdChat         Command = "chat"
	CmdNew          Command = "new"
	CmdOpen         Command = "open"
	CmdSaveAs       Command = "save-as"
	CmdExportPNG    Command = "export-png"
	CmdExportSVG    Command = "export-svg"
	CmdExportText   Command = "export-text"
	CmdHelp         Command = "help"
	CmdQuit         Command = "quit"
)

var commands = []Command{
	CmdUndo, CmdRedo, CmdDelete, CmdCopy, CmdCut, CmdPaste, CmdDuplicate, CmdSelectAll,
	CmdCancel, CmdToggleLink, CmdUnlink, CmdAddText, CmdAddLabel, CmdAddFolder, CmdRaise,
	CmdLower, CmdAlignH, CmdAlignV, CmdSortRow, CmdSortColumn, CmdResetSize, CmdOpenFolder,
	CmdCloseFolder, CmdToggleLock, CmdSave, CmdPanLeft, CmdPanRight, CmdPanUp, CmdPanDown,
	CmdFastPanLeft, CmdFastPanRight, CmdFastPanUp, CmdFastPanDown, CmdNudgeLeft,
	CmdNudgeRight, CmdNudgeUp, CmdNudgeDown, CmdZoomIn, CmdZoomOut, CmdZoomReset,
	CmdToggleGrid, CmdEdit, CmdChat, CmdNew, CmdOpen, CmdSaveAs, CmdExportPNG, CmdExportSVG,
	CmdExportText, CmdHelp, CmdQuit,
}

// ParseCommand accepts a command name as written in the config file.
func ParseCommand(s string) (Command, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, c := range commands {
		if string(c) == s {
			return c, nil
		}
	}
	return CmdNone, fmt.Errorf("unknown command %q", s)
}

// Keymap binds key chords, spelled the way the terminal reports them ("ctrl+z",
// "shift+up"), to commands.
type Keymap struct {
	keys map[string]Command
}

func DefaultKeymap() *Keymap {
	return &Keymap{keys: map[string]Command{
		"ctrl+z":      CmdUndo,
		"u":           CmdUndo,
		"ctrl+y":      CmdRedo,
		"ctrl+r":      CmdRedo,
		"delete":      CmdDelete,
		"backspace":   CmdDelete,
		"ctrl+c":      CmdCopy,
		"ctrl+x":      CmdCut,
		"ctrl+v":      CmdPaste,
		"ctrl+d":      CmdDuplicate,
		"ctrl+a":      CmdSelectAll,
		"esc":         CmdCancel,
		"l":           CmdToggleLink,
		"L":           CmdUnlink,
		"t":           CmdAddText,
		"b":           CmdAddLabel,
		"f":           CmdAddFolder,
		"]":           CmdRaise,
		"[":           CmdLower,
		"=":           CmdAlignH,
		"|":           CmdAlignV,
		"r":           CmdSortRow,
		"c":           CmdSortColumn,
		"R":           CmdResetSize,
		"enter":       CmdOpenFolder,
		"ctrl+o":      CmdCloseFolder,
		"K":           CmdToggleLock,
		"ctrl+s":      CmdSave,
		"left":        CmdPanLeft,
		"right":       CmdPanRight,
		"up":          CmdPanUp,
		"down":        CmdPanDown,
		"shift+left":  CmdFastPanLeft,
		"shift+right": CmdFastPanRight,
		"shift+up":    CmdFastPanUp,
		"shift+down":  CmdFastPanDown,
		"alt+left":    CmdNudgeLeft,
		"alt+right":   CmdNudgeRight,
		"alt+up":      CmdNudgeUp,
		"alt+down":    CmdNudgeDown,
		"+":           CmdZoomIn,
		"-":           CmdZoomOut,
		"0":           CmdZoomReset,
		"g":           CmdToggleGrid,
		"e":           CmdEdit,
		"m":           CmdChat,
		"n":           CmdNew,
		"o":           CmdOpen,
		"S":           CmdSaveAs,
		"P":           CmdExportPNG,
		"V":           CmdExportSVG,
		"X":           CmdExportText,
		"?":           CmdHelp,
		"q":           CmdQuit,
		"ctrl+q":      CmdQuit,
	}}
}

// Lookup returns the command bound to key.
func (k *Keymap) Lookup(key string) Command {
	return k.keys[key]
}

// Bind binds key to the named command. An empty name unbinds the key.
func (k *Keymap) Bind(key, name string) error {
	if name == "" {
		delete(k.keys, key)
		return nil
	}
	c, err := ParseCommand(name)
	if err != nil {
		return err
	}
	k.keys[key] = c
	return nil
}

// Apply binds every entry of overrides, stopping at the first unknown command.
func (k *Keymap) Apply(overrides map[string]string) error {
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := k.Bind(key, overrides[key]); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
	}
	return nil
}

// Keys returns the chords bound to c, sorted.
func (k *Keymap) Keys(c Command) []string {
	var out []string
	for key, cmd := range k.keys {
		if cmd == c {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
