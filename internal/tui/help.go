package tui

import (
	"fmt"
	"strings"

	"metaviz/internal/interaction"
)

type helpSection struct {
	title string
	cmds  []interaction.Command
}

var helpSections = []helpSection{
	{"Editing", []interaction.Command{
		interaction.CmdUndo, interaction.CmdRedo, interaction.CmdEdit, interaction.CmdDelete,
		interaction.CmdCopy, interaction.CmdCut, interaction.CmdPaste, interaction.CmdDuplicate,
		interaction.CmdSelectAll, interaction.CmdCancel,
	}},
	{"Nodes and links", []interaction.Command{
		interaction.CmdAddText, interaction.CmdAddLabel, interaction.CmdAddFolder,
		interaction.CmdToggleLink, interaction.CmdUnlink, interaction.CmdToggleLock,
	}},
	{"Arrange", []interaction.Command{
		interaction.CmdRaise, interaction.CmdLower, interaction.CmdAlignH, interaction.CmdAlignV,
		interaction.CmdSortRow, interaction.CmdSortColumn, interaction.CmdResetSize,
		interaction.CmdNudgeLeft, interaction.CmdNudgeRight, interaction.CmdNudgeUp,
		interaction.CmdNudgeDown, interaction.CmdToggleGrid,
	}},
	{"View", []interaction.Command{
		interaction.CmdPanLeft, interaction.CmdPanRight, interaction.CmdPanUp, interaction.CmdPanDown,
		interaction.CmdFastPanLeft, interaction.CmdFastPanRight, interaction.CmdFastPanUp,
		interaction.CmdFastPanDown, interaction.CmdZoomIn, interaction.CmdZoomOut,
		interaction.CmdZoomReset, interaction.CmdOpenFolder, interaction.CmdCloseFolder,
	}},
	{"Board", []interaction.Command{
		interaction.CmdNew, interaction.CmdOpen, interaction.CmdSave, interaction.CmdSaveAs,
		interaction.CmdExportPNG, interaction.CmdExportSVG, interaction.CmdExportText,
		interaction.CmdChat, interaction.CmdHelp, interaction.CmdQuit,
	}},
}

var mouseHelp = []string{
	"Mouse:",
	"------",
	"  click            Select a node (ctrl/shift+click adds to the selection)",
	"  drag node        Move the selection",
	"  drag corner      Resize the selected node",
	"  drag socket      Draw a link to another node",
	"  drag board       Pan (mouse) or select with a box (touchpad)",
	"  shift+drag       Select with a box (mouse); alt+drag pans (touchpad)",
	"  double click     Add a text node, or open a folder",
	"  right click      Show what you can do here",
	"  wheel            Zoom (mouse) or scroll (touchpad)",
}

func (m *Model) helpLines() []string {
	lines := []string{"metaviz help", "============", ""}
	for _, s := range helpSections {
		lines = append(lines, s.title+":", strings.Repeat("-", len(s.title)+1))
		for _, c := range s.cmds {
			keys := m.keys.Keys(c)
			if len(keys) == 0 {
				continue
			}
			lines = append(lines, fmt.Sprintf("  %-16s %s", strings.Join(keys, ", "), c))
		}
		lines = append(lines, "")
	}
	lines = append(lines, mouseHelp...)
	return lines
}

func (m *Model) helpKey(key string) {
	limit := len(m.helpLines()) - m.canvasHeight()
	if limit < 0 {
		limit = 0
	}
	switch key {
	case "j", "down":
		if m.helpScroll < limit {
			m.helpScroll++
		}
	case "k", "up":
		if m.helpScroll > 0 {
			m.helpScroll--
		}
	default:
		m.help = false
		m.helpScroll = 0
	}
}

func (m *Model) helpView() string {
	lines := m.helpLines()
	h := m.canvasHeight()
	end := m.helpScroll + h
	if end > len(lines) {
		end = len(lines)
	}
	visible := lines[m.helpScroll:end]
	return strings.Join(visible, "\n") + "\n" + m.styles.Status.Render(" j/k scroll | any other key closes help")
}
