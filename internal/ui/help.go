package ui

import (
	"fmt"
	"strings"
	"time"

	"acejump/internal/modes"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/noborus/ov/oviewer"
)

// helpPagerMsg contains the result of a help pager command
type helpPagerMsg struct {
	err error
}

// HelpRenderer handles help content rendering
type HelpRenderer struct {
	keys  KeyMap
	cycle []modes.JumpMode
}

// NewHelpRenderer creates a new help renderer
func NewHelpRenderer(keys KeyMap, cycle []modes.JumpMode) *HelpRenderer {
	return &HelpRenderer{keys: keys, cycle: cycle}
}

// RenderHelpContent generates help content with colors for the pager
func (r *HelpRenderer) RenderHelpContent() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("220")).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	var help strings.Builder
	section := func(title string, bindings ...key.Binding) {
		help.WriteString(sectionStyle.Render(title))
		help.WriteString("\n")
		for _, b := range bindings {
			h := b.Help()
			help.WriteString(fmt.Sprintf("  %s %s\n", keyStyle.Render(h.Key), descStyle.Render(h.Desc)))
		}
		help.WriteString("\n")
	}

	help.WriteString(titleStyle.Render("AceJump Help"))
	help.WriteString("\n")

	k := r.keys
	section("Editing", k.Up, k.Down, k.Left, k.Right, k.PageUp, k.PageDown)
	section("Start a Jump", k.CycleNext, k.CyclePrevious, k.Target, k.JumpEnd, k.JumpStart, k.Chunk, k.Declaration)
	section("While Jumping", k.End, k.Restart, k.VisitNext, k.VisitPrevious)

	help.WriteString(descStyle.Render("  Type to search, then type the label shown on a match."))
	help.WriteString("\n")
	help.WriteString(descStyle.Render("  Type the label in upper case to select from the caret."))
	help.WriteString("\n")
	help.WriteString(descStyle.Render("  pgup/pgdn scroll to the labels above or below the screen."))
	help.WriteString("\n\n")

	names := make([]string, 0, len(r.cycle))
	for _, m := range r.cycle {
		names = append(names, m.String())
	}
	help.WriteString(lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241")).
		Render("  Cycle order: " + strings.Join(names, " → ")))
	help.WriteString("\n")

	section("Other", k.NextPane, k.Close, k.Save, k.Help, k.Quit)
	return strings.TrimRight(help.String(), "\n")
}

// HelpOps handles help operations
type HelpOps struct {
	program *tea.Program // reference to Bubble Tea program for terminal management
}

// NewHelpOps creates a new help operations instance
func NewHelpOps(program *tea.Program) *HelpOps {
	return &HelpOps{
		program: program,
	}
}

// ShowHelpInPager shows help content using ov pager
func (h *HelpOps) ShowHelpInPager(helpContent string) error {
	if h.program == nil {
		return fmt.Errorf("program not set")
	}

	// Release terminal control to run ov
	if err := h.program.ReleaseTerminal(); err != nil {
		return err
	}

	// Ensure terminal is restored even if ov fails
	defer func() {
		// Small delay to ensure ov has fully exited before restoring terminal
		time.Sleep(100 * time.Millisecond)
		_ = h.program.RestoreTerminal()
	}()

	root, err := oviewer.NewRoot(strings.NewReader(helpContent))
	if err != nil {
		return fmt.Errorf("failed to open pager: %w", err)
	}

	// Configure ov to not write on exit (to avoid messing with our screen)
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}
