package modes

import (
	"acejump/internal/buffers"
	"acejump/internal/domain"
)

// Commit is a match chosen by the user together with where the caret was
type Commit struct {
	Target domain.Match
	// Text is the target buffer contents the match was found in
	Text   []rune
	Origin domain.BufferID
	Caret  int
	Shift  bool
}

func (c Commit) crossBuffer() bool {
	return c.Origin != c.Target.Buffer
}

// Resolve returns the editing commands for committing a match in mode.
// Selections never span buffers; a jump into another buffer focuses it first.
func Resolve(mode JumpMode, c Commit) []Action {
	id := c.Target.Buffer
	var out []Action
	if c.crossBuffer() && mode != Chunk {
		out = append(out, FocusBufferAction{Buffer: id})
	}

	switch mode {
	case JumpEnd:
		offset := c.Target.Right
		if _, end, ok := buffers.WordAt(c.Text, c.Target.Left); ok {
			offset = end
		}
		return append(out, c.place(offset))

	case JumpStart:
		offset := c.Target.Right
		if start, _, ok := buffers.WordAt(c.Text, c.Target.Left); ok {
			offset = start
		}
		return append(out, c.place(offset))

	case Target:
		start, end := c.word()
		if c.Shift && !c.crossBuffer() {
			return append(out, SelectAction{Buffer: id, Start: min(c.Caret, start), End: max(c.Caret, end), Caret: end})
		}
		return append(out, SelectAction{Buffer: id, Start: start, End: end, Caret: end})

	case Chunk:
		start, end := c.word()
		return append(out, DeleteRangeAction{Buffer: id, Left: start, Right: end})

	case Declaration:
		return append(out,
			MoveCaretAction{Buffer: id, Offset: c.Target.Left},
			GoToDeclarationAction{Buffer: id, Offset: c.Target.Left, TypeDeclaration: c.Shift},
		)

	default:
		return append(out, c.place(c.Target.Left))
	}
}

// place moves the caret to offset, selecting from the original caret on shift
func (c Commit) place(offset int) Action {
	if c.Shift && !c.crossBuffer() {
		return SelectAction{
			Buffer: c.Target.Buffer,
			Start:  min(c.Caret, offset),
			End:    max(c.Caret, offset),
			Caret:  offset,
		}
	}
	return MoveCaretAction{Buffer: c.Target.Buffer, Offset: offset}
}

// word returns the word enclosing the match start, or the match itself
func (c Commit) word() (int, int) {
	start, end, ok := buffers.WordAt(c.Text, c.Target.Left)
	if !ok {
		return c.Target.Left, c.Target.Right
	}
	if end < c.Target.Right {
		end = c.Target.Right
	}
	return start, end
}
