package modes

import "acejump/internal/domain"

// Action is a side effect requested by the mode machine or a committed
// jump. Hosts execute actions; the core never touches the UI directly.
type Action interface {
	Type() string
}

// Editing actions
type MoveCaretAction struct {
	Buffer domain.BufferID
	Offset int
}

func (a MoveCaretAction) Type() string { return "move_caret" }

type SelectAction struct {
	Buffer domain.BufferID
	Start  int
	End    int
	Caret  int
}

func (a SelectAction) Type() string { return "select" }

type DeleteRangeAction struct {
	Buffer domain.BufferID
	Left   int
	Right  int
}

func (a DeleteRangeAction) Type() string { return "delete_range" }

type FocusBufferAction struct {
	Buffer domain.BufferID
}

func (a FocusBufferAction) Type() string { return "focus_buffer" }

// Navigation actions
type GoToDeclarationAction struct {
	Buffer          domain.BufferID
	Offset          int
	TypeDeclaration bool
}

func (a GoToDeclarationAction) Type() string { return "go_to_declaration" }

// Presentation actions
type SetCaretColorAction struct {
	Mode JumpMode
}

func (a SetCaretColorAction) Type() string { return "set_caret_color" }

type RestoreCaretColorAction struct{}

func (a RestoreCaretColorAction) Type() string { return "restore_caret_color" }

type RepaintAction struct{}

func (a RepaintAction) Type() string { return "repaint" }

type ScrollToAction struct {
	Buffer domain.BufferID
	Offset int
}

func (a ScrollToAction) Type() string { return "scroll_to" }

// Session lifecycle
type EndSessionAction struct{}

func (a EndSessionAction) Type() string { return "end_session" }
