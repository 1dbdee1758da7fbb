package modes

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned when a mode name cannot be parsed
var ErrUnknownMode = errors.New("unknown jump mode")

// JumpMode decides what happens when a match is committed
type JumpMode int

const (
	Disabled JumpMode = iota
	Jump
	JumpEnd
	JumpStart
	Chunk
	Target
	Declaration
)

// All lists every mode except Disabled
var All = []JumpMode{Jump, JumpEnd, JumpStart, Chunk, Target, Declaration}

// DefaultCycle is the cycle order used when none is configured
var DefaultCycle = []JumpMode{Jump, Declaration, Target, JumpEnd}

var names = map[JumpMode]string{
	Disabled:    "(Skip)",
	Jump:        "Jump",
	JumpEnd:     "Jump to End",
	JumpStart:   "Jump to Start",
	Chunk:       "Delete Word",
	Target:      "Target",
	Declaration: "Definition",
}

var keys = map[JumpMode]string{
	Disabled:    "disabled",
	Jump:        "jump",
	JumpEnd:     "jump_end",
	JumpStart:   "jump_start",
	Chunk:       "chunk",
	Target:      "target",
	Declaration: "declaration",
}

var aliases = map[string]JumpMode{
	"delete":     Chunk,
	"definition": Declaration,
	"skip":       Disabled,
}

// String returns the name shown to users
func (m JumpMode) String() string {
	if name, ok := names[m]; ok {
		return name
	}
	return fmt.Sprintf("JumpMode(%d)", int(m))
}

// Key returns the configuration name of the mode
func (m JumpMode) Key() string {
	return keys[m]
}

// CanJump reports whether committing a match in this mode moves the caret
func (m JumpMode) CanJump() bool {
	return m != Chunk
}

// Parse converts a configuration name into a mode
func Parse(s string) (JumpMode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	for mode, k := range keys {
		if k == key {
			return mode, nil
		}
	}
	if mode, ok := aliases[key]; ok {
		return mode, nil
	}
	return Disabled, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// ParseList parses every name and reports all unknown ones
func ParseList(names []string) ([]JumpMode, error) {
	var (
		out  []JumpMode
		errs []error
	)
	for _, name := range names {
		mode, err := Parse(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, mode)
	}
	return out, errors.Join(errs...)
}
