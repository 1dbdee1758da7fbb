package ui

import (
	"acejump/internal/config"
	"acejump/internal/modes"

	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title       lipgloss.Style
	PaneTitle   lipgloss.Style
	PaneFocused lipgloss.Style
	Dim         lipgloss.Style
	Status      lipgloss.Style
	StatusError lipgloss.Style
	Help        lipgloss.Style
	Match       lipgloss.Style
	Unlabeled   lipgloss.Style
	Tag         lipgloss.Style
	Selection   lipgloss.Style
	Caret       lipgloss.Style

	cfg *config.Config
}

// NewStyles creates the styles for cfg's color settings
func NewStyles(cfg *config.Config) *Styles {
	c := cfg.Colors
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		PaneTitle:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		PaneFocused: lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		Dim:         lipgloss.NewStyle().Faint(true),
		Status:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		StatusError: lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		Help:        lipgloss.NewStyle().Faint(true),
		Match:       lipgloss.NewStyle().Background(lipgloss.Color(c.TextHighlight)),
		Unlabeled:   lipgloss.NewStyle().Background(lipgloss.Color(c.TextHighlight)).Faint(true),
		Tag: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(c.TagForeground)).
			Background(lipgloss.Color(c.TagBackground)),
		Selection: lipgloss.NewStyle().Background(lipgloss.Color("238")),
		Caret:     lipgloss.NewStyle().Reverse(true),
		cfg:       cfg,
	}
}

// CaretFor returns the caret style while mode is active
func (s *Styles) CaretFor(mode modes.JumpMode) lipgloss.Style {
	if mode == modes.Disabled {
		return s.Caret
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(s.cfg.ModeColor(mode))).Foreground(lipgloss.Color("0"))
}

// ModeLabel renders the active mode name in its caret color
func (s *Styles) ModeLabel(mode modes.JumpMode) string {
	if mode == modes.Disabled {
		return s.Dim.Render(mode.String())
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(s.cfg.ModeColor(mode))).Render(mode.String())
}
