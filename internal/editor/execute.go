package editor

import (
	"metaviz/internal/geom"
	"metaviz/internal/interaction"
)

// Execute runs a keyboard command. at is the world point under the pointer, used by
// commands that place nodes. Commands that need input from the user, such as file
// names, text or quitting, are left to the caller.
func (e *Editor) Execute(cmd interaction.Command, at geom.Point) error {
	if e.busy {
		return ErrLocked
	}
	switch cmd {
	case interaction.CmdUndo:
		e.Undo()
	case interaction.CmdRedo:
		e.Redo()
	case interaction.CmdDelete:
		e.DeleteSelected()
	case interaction.CmdCopy:
		return e.Copy()
	case interaction.CmdCut:
		return e.Cut()
	case interaction.CmdPaste:
		return e.Paste(at)
	case interaction.CmdDuplicate:
		e.Duplicate()
	case interaction.CmdSelectAll:
		e.sel.All(e.folder)
	case interaction.CmdCancel:
		if e.ptr.Mode() != interaction.Idle {
			e.ptr.Cancel()
		} else {
			e.sel.Clear()
		}
	case interaction.CmdToggleLink:
		return e.ToggleLink()
	case interaction.CmdUnlink:
		return e.Unlink()
	case interaction.CmdAddText:
		_, err := e.AddNode("text", at)
		return err
	case interaction.CmdAddLabel:
		_, err := e.AddNode("label", at)
		return err
	case interaction.CmdAddFolder:
		_, err := e.AddNode("folder", at)
		return err
	case interaction.CmdRaise:
		e.Raise()
	case interaction.CmdLower:
		e.Lower()
	case interaction.CmdAlignH:
		e.AlignHorizontal()
	case interaction.CmdAlignV:
		e.AlignVertical()
	case interaction.CmdSortRow:
		e.SortRow()
	case interaction.CmdSortColumn:
		e.SortColumn()
	case interaction.CmdResetSize:
		e.ResetSize()
	case interaction.CmdOpenFolder:
		if f := e.sel.Focused(); f != nil {
			e.OpenFolder(f.ID)
		}
	case interaction.CmdCloseFolder:
		e.CloseFolder()
	case interaction.CmdToggleLock:
		e.ToggleLock()
	case interaction.CmdSave:
		return e.Save("")
	case interaction.CmdPanLeft:
		e.nav.PanBy(1, 0, 1)
	case interaction.CmdPanRight:
		e.nav.PanBy(-1, 0, 1)
	case interaction.CmdPanUp:
		e.nav.PanBy(0, 1, 1)
	case interaction.CmdPanDown:
		e.nav.PanBy(0, -1, 1)
	case interaction.CmdFastPanLeft:
		e.nav.PanBy(1, 0, 4)
	case interaction.CmdFastPanRight:
		e.nav.PanBy(-1, 0, 4)
	case interaction.CmdFastPanUp:
		e.nav.PanBy(0, 1, 4)
	case interaction.CmdFastPanDown:
		e.nav.PanBy(0, -1, 4)
	case interaction.CmdNudgeLeft:
		e.Nudge(-1, 0)
	case interaction.CmdNudgeRight:
		e.Nudge(1, 0)
	case interaction.CmdNudgeUp:
		e.Nudge(0, -1)
	case interaction.CmdNudgeDown:
		e.Nudge(0, 1)
	case interaction.CmdZoomIn:
		e.nav.ZoomIn(e.nav.WorldToScreen(at))
	case interaction.CmdZoomOut:
		e.nav.ZoomOut(e.nav.WorldToScreen(at))
	case interaction.CmdZoomReset:
		e.nav.Reset()
	case interaction.CmdToggleGrid:
		if e.grid() > 0 {
			e.SetGrid(0)
		} else {
			e.SetGrid(e.gridWidth)
		}
	}
	return nil
}
