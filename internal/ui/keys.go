package ui

import (
	"acejump/internal/modes"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds every binding of the terminal host
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	NextPane key.Binding
	Close    key.Binding
	Save     key.Binding
	Help     key.Binding
	Quit     key.Binding

	CycleNext     key.Binding
	CyclePrevious key.Binding
	Target        key.Binding
	JumpEnd       key.Binding
	JumpStart     key.Binding
	Chunk         key.Binding
	Declaration   key.Binding

	End           key.Binding
	Restart       key.Binding
	VisitNext     key.Binding
	VisitPrevious key.Binding
}

// DefaultKeyMap returns the default bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		Left:     key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "left")),
		Right:    key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "right")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		NextPane: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
		Close:    key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("ctrl+w", "close pane")),
		Save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		CycleNext:     key.NewBinding(key.WithKeys("ctrl+j"), key.WithHelp("ctrl+j", "jump / next mode")),
		CyclePrevious: key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "previous mode")),
		Target:        key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", modes.Target.String())),
		JumpEnd:       key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", modes.JumpEnd.String())),
		JumpStart:     key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", modes.JumpStart.String())),
		Chunk:         key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", modes.Chunk.String())),
		Declaration:   key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", modes.Declaration.String())),

		End:           key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Restart:       key.NewBinding(key.WithKeys("backspace"), key.WithHelp("backspace", "restart")),
		VisitNext:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "next match")),
		VisitPrevious: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "previous match")),
	}
}

// toggles maps mode keys to the mode they toggle
func (k KeyMap) toggles() []struct {
	binding key.Binding
	mode    modes.JumpMode
} {
	return []struct {
		binding key.Binding
		mode    modes.JumpMode
	}{
		{k.Target, modes.Target},
		{k.JumpEnd, modes.JumpEnd},
		{k.JumpStart, modes.JumpStart},
		{k.Chunk, modes.Chunk},
		{k.Declaration, modes.Declaration},
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.CycleNext, k.Target, k.NextPane, k.Save, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.PageUp, k.PageDown},
		{k.CycleNext, k.CyclePrevious, k.Target, k.JumpEnd, k.JumpStart, k.Chunk, k.Declaration},
		{k.End, k.Restart, k.VisitNext, k.VisitPrevious},
		{k.NextPane, k.Close, k.Save, k.Help, k.Quit},
	}
}

// sessionKeys is the help shown while a session is open
type sessionKeys struct{ KeyMap }

func (k sessionKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.End, k.Restart, k.VisitNext, k.VisitPrevious, k.PageUp, k.PageDown, k.CycleNext}
}
