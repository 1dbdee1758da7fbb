package domain

// BufferID identifies a text buffer participating in a jump session
type BufferID string

// Match is one literal occurrence of the query inside a buffer.
// Offsets are rune offsets; Right is exclusive.
type Match struct {
	Buffer BufferID
	Left   int
	Right  int
}

// Len returns the number of runes covered by the match
func (m Match) Len() int {
	return m.Right - m.Left
}

// Tag binds a typeable label to a match
type Tag struct {
	Key   string
	Match Match
}

// Outcome is reported to listeners when a session ends.
// Label is empty when no tag was typed (auto-jump, visit, cancel or abort)
// and Query is empty when nothing was committed.
type Outcome struct {
	Label     string
	Query     string
	Committed bool
}

// Role describes how a buffer takes part in a session
type Role int

const (
	RolePrimary Role = iota
	RoleSecondary
)

func (r Role) String() string {
	if r == RolePrimary {
		return "primary"
	}
	return "secondary"
}

// Participant is a buffer together with its role in a session
type Participant struct {
	ID   BufferID
	Role Role
}
