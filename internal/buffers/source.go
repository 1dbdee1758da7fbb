package buffers

import "acejump/internal/domain"

// ID is re-exported for callers that only deal with buffers
type ID = domain.BufferID

// Boundary selects which offsets of a buffer are searchable
type Boundary int

const (
	WholeBuffer Boundary = iota
	VisibleRegion
)

func (b Boundary) String() string {
	switch b {
	case VisibleRegion:
		return "visible"
	default:
		return "whole"
	}
}

// Region is a half-open rune offset range [Left, Right)
type Region struct {
	Left  int
	Right int
}

// Contains reports whether offset lies inside the region
func (r Region) Contains(offset int) bool {
	return offset >= r.Left && offset < r.Right
}

// Source exposes buffer text and scope to the search engine
type Source interface {
	// Text returns an immutable snapshot of the buffer contents
	Text(id ID) string
	// IsLive reports whether the buffer still exists
	IsLive(id ID) bool
	VisibleRegion(id ID) Region
	IsOffsetInScope(id ID, offset int, boundary Boundary) bool
	Caret(id ID) int
}

// Editor applies caret, selection and deletion changes to buffers
type Editor interface {
	MoveCaret(id ID, offset int)
	Select(id ID, start, end, caret int)
	DeleteRange(id ID, left, right int)
	Focus(id ID)
}

// Navigator performs language-aware navigation for declaration jumps
type Navigator interface {
	GoToDeclaration(id ID, offset int)
	GoToTypeDeclaration(id ID, offset int)
}
