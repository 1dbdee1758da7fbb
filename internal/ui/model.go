package ui

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"acejump/internal/buffers"
	"acejump/internal/config"
	"acejump/internal/domain"
	"acejump/internal/eventbus"
	"acejump/internal/modes"
	"acejump/internal/session"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model represents the application state
type Model struct {
	bus      eventbus.EventBus
	cfg      *config.Config
	store    *buffers.MemoryStore
	manager  *session.Manager
	overlay  *Overlay
	styles   *Styles
	keys     KeyMap
	help     help.Model
	helpOps  *HelpOps
	program  *tea.Program
	active   *session.Session
	width    int
	height   int
	paused   bool
	e2e      bool
	statusMu sync.Mutex
	status   string
	isError  bool
}

// NewModel creates a new UI model over the buffers in store
func NewModel(bus eventbus.EventBus, cfg *config.Config, store *buffers.MemoryStore) *Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	overlay := NewOverlay(store)
	collab := session.Collaborators{
		Source:    store,
		Editor:    store,
		Navigator: buffers.NewFirstOccurrenceNavigator(store),
		Renderer:  overlay,
	}

	return &Model{
		bus:     bus,
		cfg:     cfg,
		store:   store,
		manager: session.NewManager(bus, collab, session.NewSettings(cfg)),
		overlay: overlay,
		styles:  NewStyles(cfg),
		keys:    DefaultKeyMap(),
		help:    help.New(),
		helpOps: NewHelpOps(nil),
		e2e:     os.Getenv("ACEJUMP_E2E_TEST") == "1",
	}
}

// SetProgram sets the program reference used to hand the terminal to the pager
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
	m.helpOps = NewHelpOps(p)
}

// Manager returns the session manager driving jumps
func (m *Model) Manager() *session.Manager {
	return m.manager
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return tick()
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case tea.KeyMsg:
		if m.active != nil {
			return m.handleSessionKey(msg)
		}
		return m.handleKey(msg)

	case EventMsg:
		m.handleEvent(msg.Event)
		return m, nil

	case tickMsg:
		m.settle()
		if m.paused {
			return m, nil
		}
		return m, tick()

	case savedMsg:
		if msg.err != nil {
			log.Printf("Save of %s failed: %v", msg.path, msg.err)
			m.setStatus(fmt.Sprintf("Save failed: %v", msg.err), true)
			return m, nil
		}
		m.store.MarkSaved(msg.buffer)
		m.setStatus(fmt.Sprintf("Saved %s", filepath.Base(msg.path)), false)
		return m, nil

	case helpPagerMsg:
		if msg.err != nil {
			log.Printf("Help pager failed: %v", msg.err)
		}
		return m, nil

	case pauseRenderingMsg:
		m.paused = true
		return m, nil

	case resumeRenderingMsg:
		m.paused = false
		return m, tick()
	}

	return m, nil
}

// handleSessionKey routes a key to the open session
func (m *Model) handleSessionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.active

	switch {
	case msg.Type == tea.KeyCtrlC:
		s.End()
		m.settle()
		return m, tea.Quit
	case key.Matches(msg, m.keys.End):
		s.End()
	case key.Matches(msg, m.keys.Restart):
		s.Restart()
	case key.Matches(msg, m.keys.VisitNext):
		s.VisitNext()
	case key.Matches(msg, m.keys.VisitPrevious):
		s.VisitPrevious()
	case key.Matches(msg, m.keys.CycleNext):
		s.CycleNext()
	case key.Matches(msg, m.keys.CyclePrevious):
		s.CyclePrevious()
	case key.Matches(msg, m.keys.PageDown):
		s.ScrollNextScreenful()
	case key.Matches(msg, m.keys.PageUp):
		s.ScrollPreviousScreenful()
	case msg.Type == tea.KeyRunes && !msg.Alt, msg.Type == tea.KeySpace:
		for _, r := range typedRunes(msg) {
			s.TypeCharacter(r)
		}
	default:
		for _, t := range m.keys.toggles() {
			if key.Matches(msg, t.binding) {
				s.ToggleMode(t.mode)
				break
			}
		}
	}

	m.settle()
	return m, nil
}

// handleKey handles keys while no session is open
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	focused := m.store.Focused()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		return m, m.showHelp()
	case key.Matches(msg, m.keys.NextPane):
		m.focusNext()
	case key.Matches(msg, m.keys.Close):
		m.closeBuffer(focused)
	case key.Matches(msg, m.keys.Save):
		return m, m.save(focused)
	case key.Matches(msg, m.keys.Left):
		m.store.MoveCaret(focused, m.store.Caret(focused)-1)
	case key.Matches(msg, m.keys.Right):
		m.store.MoveCaret(focused, m.store.Caret(focused)+1)
	case key.Matches(msg, m.keys.Up):
		m.moveLines(focused, -1)
	case key.Matches(msg, m.keys.Down):
		m.moveLines(focused, 1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveLines(focused, -m.pageSize(focused))
	case key.Matches(msg, m.keys.PageDown):
		m.moveLines(focused, m.pageSize(focused))
	case key.Matches(msg, m.keys.CycleNext):
		if s := m.startSession(); s != nil {
			s.CycleNext()
		}
	case key.Matches(msg, m.keys.CyclePrevious):
		if s := m.startSession(); s != nil {
			s.CyclePrevious()
		}
	default:
		for _, t := range m.keys.toggles() {
			if key.Matches(msg, t.binding) {
				if s := m.startSession(); s != nil {
					s.ToggleMode(t.mode)
				}
				break
			}
		}
	}

	m.settle()
	return m, nil
}

// startSession opens a session on the focused buffer with every other
// open buffer as a secondary
func (m *Model) startSession() *session.Session {
	primary := m.store.Focused()
	if !m.store.IsLive(primary) {
		m.setStatus("No buffer to jump in", true)
		return nil
	}

	var others []domain.BufferID
	for _, id := range m.store.IDs() {
		if id != primary {
			others = append(others, id)
		}
	}

	s := m.manager.Start(primary, others...)
	s.AddListener(session.ListenerFunc(m.finished))
	m.active = s
	m.setStatus("", false)
	return s
}

// finished may run on any goroutine
func (m *Model) finished(outcome domain.Outcome) {
	switch {
	case outcome.Committed && outcome.Label != "":
		m.setStatus(fmt.Sprintf("Jumped to %q via [%s]", outcome.Query, outcome.Label), false)
	case outcome.Committed:
		m.setStatus(fmt.Sprintf("Jumped to %q", outcome.Query), false)
	default:
		m.setStatus("", false)
	}
}

// settle forgets the active session once it has ended
func (m *Model) settle() {
	if m.active != nil && m.active.Ended() {
		m.active = nil
	}
}

func (m *Model) handleEvent(event eventbus.DomainEvent) {
	switch e := event.(type) {
	case eventbus.ConfigChangedEvent:
		cfg, ok := e.Config.(*config.Config)
		if !ok {
			return
		}
		m.cfg = cfg
		m.styles = NewStyles(cfg)
		m.setStatus("Reloaded "+filepath.Base(e.Path), false)
	case eventbus.ErrorEvent:
		if e.Err != nil {
			m.setStatus(fmt.Sprintf("%s: %v", e.Message, e.Err), true)
		} else {
			m.setStatus(e.Message, true)
		}
	case eventbus.BufferDisposedEvent:
		m.settle()
	}
}

func (m *Model) focusNext() {
	ids := m.store.IDs()
	if len(ids) == 0 {
		return
	}
	focused := m.store.Focused()
	for i, id := range ids {
		if id == focused {
			m.store.Focus(ids[(i+1)%len(ids)])
			return
		}
	}
	m.store.Focus(ids[0])
}

func (m *Model) closeBuffer(id domain.BufferID) {
	if !m.store.IsLive(id) {
		return
	}
	if m.store.IsDirty(id) {
		log.Printf("Closing %s with unsaved changes", id)
	}
	m.store.Dispose(id)
	m.bus.Publish(eventbus.BufferDisposedEvent{Buffer: id})
	if ids := m.store.IDs(); len(ids) > 0 {
		m.store.Focus(ids[0])
	}
	m.layout()
}

// save writes a buffer back to the file it was loaded from
func (m *Model) save(id domain.BufferID) tea.Cmd {
	path := m.store.Path(id)
	if path == "" || !m.store.IsLive(id) {
		return nil
	}
	text := m.store.Text(id)
	return func() tea.Msg {
		err := os.WriteFile(path, []byte(text), 0644)
		if err != nil {
			err = fmt.Errorf("failed to write %s: %w", path, err)
		}
		return savedMsg{buffer: id, path: path, err: err}
	}
}

// moveLines moves the caret delta lines keeping its column where possible
func (m *Model) moveLines(id domain.BufferID, delta int) {
	text := []rune(m.store.Text(id))
	starts := buffers.LineStarts(text)
	caret := m.store.Caret(id)
	line := buffers.LineOf(starts, caret)
	col := caret - starts[line]

	target := max(0, min(line+delta, len(starts)-1))
	end := len(text)
	if target+1 < len(starts) {
		end = starts[target+1] - 1
	}
	m.store.MoveCaret(id, min(starts[target]+col, end))
}

func (m *Model) pageSize(id domain.BufferID) int {
	_, height := m.store.Viewport(id)
	return max(height-1, 1)
}

// layout shares the screen height between the open buffers
func (m *Model) layout() {
	ids := m.store.IDs()
	if len(ids) == 0 || m.height == 0 {
		return
	}
	// header, status and help lines, plus a title per pane
	avail := m.height - 3 - len(ids)
	per := max(avail/len(ids), 1)
	for _, id := range ids {
		top, _ := m.store.Viewport(id)
		m.store.SetViewport(id, top, per)
		m.store.ScrollTo(id, m.store.Caret(id))
	}
}

func (m *Model) showHelp() tea.Cmd {
	cycle := m.manager.Settings().Cycle
	content := NewHelpRenderer(m.keys, cycle).RenderHelpContent()
	return func() tea.Msg {
		if m.program != nil {
			m.program.Send(pauseRenderingMsg{})
		}

		err := m.helpOps.ShowHelpInPager(content)

		if m.program != nil {
			m.program.Send(resumeRenderingMsg{})
		}
		return helpPagerMsg{err: err}
	}
}

func (m *Model) setStatus(status string, isError bool) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	m.status = status
	m.isError = isError
}

func (m *Model) statusLine() (string, bool) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	return m.status, m.isError
}

// View renders the UI
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	frame := m.overlay.Frame()
	var b strings.Builder

	header := m.styles.Title.Render("AceJump")
	if frame.Caret != modes.Disabled {
		header += "  " + m.styles.ModeLabel(frame.Caret)
		header += "  " + m.styles.Dim.Render("query: ") + frame.Query
		if m.active != nil {
			if pending := m.active.Pending(); pending != "" {
				header += m.styles.Dim.Render("  tag: ") + pending
			}
		}
	}
	b.WriteString(header)
	b.WriteString("\n")

	ids := m.store.IDs()
	if len(ids) == 0 {
		b.WriteString(m.styles.Dim.Render("No open buffers"))
		b.WriteString("\n")
	}
	focused := m.store.Focused()
	for _, id := range ids {
		b.WriteString(m.renderPane(id, id == focused, frame))
	}

	status, isError := m.statusLine()
	if isError {
		b.WriteString(m.styles.StatusError.Render(status))
	} else {
		b.WriteString(m.styles.Status.Render(status))
	}
	b.WriteString("\n")

	if m.active != nil {
		b.WriteString(m.help.View(sessionKeys{m.keys}))
	} else {
		b.WriteString(m.help.View(m.keys))
	}

	if m.e2e {
		b.WriteString("\n__READY__")
	}
	return b.String()
}

func (m *Model) renderPane(id domain.BufferID, focused bool, frame Frame) string {
	var b strings.Builder

	title := filepath.Base(m.store.Path(id))
	if title == "." || title == "" {
		title = string(id)
	}
	if m.store.IsDirty(id) {
		title += " *"
	}
	if focused {
		b.WriteString(m.styles.PaneFocused.Render("▸ " + title))
	} else {
		b.WriteString(m.styles.PaneTitle.Render("  " + title))
	}
	b.WriteString("\n")

	top, height := m.store.Viewport(id)
	selection, selecting := m.store.Selection(id)
	caret := -1
	if focused {
		caret = m.store.Caret(id)
	}

	content := paneContent{
		Text:      []rune(m.store.Text(id)),
		Caret:     caret,
		Selection: selection,
		Selecting: selecting,
		Top:       top,
		Height:    height,
		Width:     m.width,
		Matches:   matchesIn(frame.Matches, id),
		Tags:      frame.Tags[id],
	}
	st := paneStyles{
		Selection: m.styles.Selection,
		Match:     m.styles.Match,
		Unlabeled: m.styles.Unlabeled,
		Tag:       m.styles.Tag,
		Caret:     m.styles.CaretFor(frame.Caret),
	}

	lines := renderLines(content, st)
	for len(lines) < height {
		lines = append(lines, m.styles.Dim.Render("~"))
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, lines...))
	b.WriteString("\n")
	return b.String()
}

// typedRunes returns the characters a key message types
func typedRunes(msg tea.KeyMsg) []rune {
	if msg.Type == tea.KeySpace {
		return []rune{' '}
	}
	return msg.Runes
}

// tick returns a command that sends a tick message after a delay
func tick() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
