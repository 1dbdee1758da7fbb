package ui

import (
	"strings"

	"acejump/internal/buffers"
	"acejump/internal/domain"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const tabWidth = 4

type cellKind int

const (
	cellPlain cellKind = iota
	cellSelection
	cellMatch
	cellUnlabeled
	cellTag
	cellCaret
)

// paneContent is everything needed to paint one buffer
type paneContent struct {
	Text      []rune
	Caret     int
	Selection buffers.Region
	Selecting bool
	Top       int
	Height    int
	Width     int
	Matches   []domain.Match
	Tags      []domain.Tag
}

// paneStyles picks the style of every cell kind
type paneStyles struct {
	Selection lipgloss.Style
	Match     lipgloss.Style
	Unlabeled lipgloss.Style
	Tag       lipgloss.Style
	Caret     lipgloss.Style
}

// renderLines paints the visible lines of a pane. Tag labels are drawn over
// the first runes of their match; a label replacing a wide rune is padded
// so columns stay aligned.
func renderLines(p paneContent, st paneStyles) []string {
	kinds := make([]cellKind, len(p.Text)+1)
	labels := make(map[int]rune)

	if p.Selecting {
		for i := p.Selection.Left; i < p.Selection.Right && i < len(p.Text); i++ {
			kinds[i] = cellSelection
		}
	}

	tagged := make(map[int]bool, len(p.Tags))
	for _, tag := range p.Tags {
		tagged[tag.Match.Left] = true
	}
	for _, m := range p.Matches {
		kind := cellMatch
		if len(p.Tags) > 0 && !tagged[m.Left] {
			kind = cellUnlabeled
		}
		for i := m.Left; i < m.Right && i < len(p.Text); i++ {
			kinds[i] = kind
		}
	}
	for _, tag := range p.Tags {
		for i, r := range []rune(tag.Key) {
			at := tag.Match.Left + i
			if at >= len(p.Text) || p.Text[at] == '\n' {
				break
			}
			kinds[at] = cellTag
			labels[at] = r
		}
	}
	if p.Caret >= 0 && p.Caret < len(kinds) {
		kinds[p.Caret] = cellCaret
	}

	starts := buffers.LineStarts(p.Text)
	var lines []string
	for line := p.Top; line < len(starts) && (p.Height <= 0 || line < p.Top+p.Height); line++ {
		start := starts[line]
		end := len(p.Text)
		if line+1 < len(starts) {
			end = starts[line+1] - 1
		}
		lines = append(lines, renderLine(p, st, kinds, labels, start, end))
	}
	return lines
}

func renderLine(p paneContent, st paneStyles, kinds []cellKind, labels map[int]rune, start, end int) string {
	var (
		out   strings.Builder
		run   strings.Builder
		kind  = cellPlain
		width int
	)
	flush := func() {
		if run.Len() == 0 {
			return
		}
		out.WriteString(styleFor(st, kind).Render(run.String()))
		run.Reset()
	}

	for off := start; off <= end; off++ {
		var cell string
		switch {
		case off == end && off == p.Caret:
			cell = " "
		case off == end:
			continue
		case p.Text[off] == '\t':
			cell = strings.Repeat(" ", tabWidth)
		default:
			cell = string(p.Text[off])
		}

		if label, ok := labels[off]; ok {
			pad := runewidth.RuneWidth(p.Text[off]) - runewidth.RuneWidth(label)
			cell = string(label) + strings.Repeat(" ", max(pad, 0))
		}

		w := runewidth.StringWidth(cell)
		if p.Width > 0 && width+w > p.Width {
			break
		}
		width += w

		if kinds[off] != kind {
			flush()
			kind = kinds[off]
		}
		run.WriteString(cell)
	}
	flush()
	return out.String()
}

func styleFor(st paneStyles, kind cellKind) lipgloss.Style {
	switch kind {
	case cellSelection:
		return st.Selection
	case cellMatch:
		return st.Match
	case cellUnlabeled:
		return st.Unlabeled
	case cellTag:
		return st.Tag
	case cellCaret:
		return st.Caret
	default:
		return lipgloss.NewStyle()
	}
}

// matchesIn returns the matches of one buffer
func matchesIn(matches []domain.Match, id domain.BufferID) []domain.Match {
	var out []domain.Match
	for _, m := range matches {
		if m.Buffer == id {
			out = append(out, m)
		}
	}
	return out
}
