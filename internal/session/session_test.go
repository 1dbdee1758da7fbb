package session

import (
	"sync"
	"testing"
	"time"

	"acejump/internal/buffers"
	"acejump/internal/config"
	"acejump/internal/domain"
	"acejump/internal/eventbus"
	"acejump/internal/modes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRenderer struct {
	mu      sync.Mutex
	markers map[domain.BufferID][]domain.Tag
	actions []modes.Action
	renders int
	clears  int
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{markers: make(map[domain.BufferID][]domain.Tag)}
}

func (r *recordingRenderer) Render(matches []domain.Match, query string, mode modes.JumpMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renders++
}

func (r *recordingRenderer) SetTagMarkers(id domain.BufferID, tags []domain.Tag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers[id] = tags
}

func (r *recordingRenderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
	r.markers = make(map[domain.BufferID][]domain.Tag)
}

func (r *recordingRenderer) Apply(action modes.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
}

func (r *recordingRenderer) applied(kind string) []modes.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []modes.Action
	for _, a := range r.actions {
		if a.Type() == kind {
			out = append(out, a)
		}
	}
	return out
}

type recordingNavigator struct {
	calls []string
}

func (n *recordingNavigator) GoToDeclaration(id buffers.ID, offset int) {
	n.calls = append(n.calls, "declaration")
}

func (n *recordingNavigator) GoToTypeDeclaration(id buffers.ID, offset int) {
	n.calls = append(n.calls, "type")
}

type fixture struct {
	store     *buffers.MemoryStore
	renderer  *recordingRenderer
	navigator *recordingNavigator
	manager   *Manager
}

func newFixture(t *testing.T, settings Settings, texts ...string) *fixture {
	t.Helper()
	store := buffers.NewMemoryStore()
	for i, text := range texts {
		id := buffers.ID(string(rune('a' + i)))
		store.Open(id, string(id)+".txt", text)
	}
	f := &fixture{
		store:     store,
		renderer:  newRecordingRenderer(),
		navigator: &recordingNavigator{},
	}
	f.manager = NewManager(eventbus.NullBus{}, Collaborators{
		Source:    store,
		Editor:    store,
		Navigator: f.navigator,
		Renderer:  f.renderer,
	}, settings)
	return f
}

func typeString(s *Session, text string) {
	for _, ch := range text {
		s.TypeCharacter(ch)
	}
}

func tagAt(t *testing.T, s *Session, offset int) string {
	t.Helper()
	for _, tag := range s.Tags() {
		if tag.Match.Left == offset {
			return tag.Key
		}
	}
	t.Fatalf("no tag at offset %d in %v", offset, s.Tags())
	return ""
}

func TestSingleMatchJumpsImmediately(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "testing 1234")
	s := f.manager.Start("a")
	s.ToggleMode(modes.Jump)

	var outcomes []domain.Outcome
	s.AddListener(ListenerFunc(func(o domain.Outcome) { outcomes = append(outcomes, o) }))

	s.TypeCharacter('1')
	assert.Equal(t, 8, f.store.Caret("a"))
	assert.True(t, s.Ended())
	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.Outcome{Query: "1", Committed: true}, outcomes[0])
}

func TestTargetModeSelectsWord(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "test target action target")
	s := f.manager.Start("a")
	s.ToggleMode(modes.Target)

	typeString(s, "target")
	require.Len(t, s.Matches(), 2)
	require.Len(t, s.Tags(), 2)

	key := tagAt(t, s, 5)
	typeString(s, key)

	sel, ok := f.store.Selection("a")
	require.True(t, ok)
	assert.Equal(t, buffers.Region{Left: 5, Right: 11}, sel)
	assert.Equal(t, 11, f.store.Caret("a"))
	assert.True(t, s.Ended())
}

func TestUpperCaseTagSelectsFromCaret(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "testing 1234 gg 45")
	s := f.manager.Start("a")
	s.ToggleMode(modes.Jump)

	s.TypeCharacter('4')
	require.Len(t, s.Tags(), 2)
	key := tagAt(t, s, 11)

	var outcome domain.Outcome
	s.AddListener(ListenerFunc(func(o domain.Outcome) { outcome = o }))
	s.TypeCharacter([]rune(key)[0] - 'a' + 'A')

	sel, ok := f.store.Selection("a")
	require.True(t, ok)
	assert.Equal(t, buffers.Region{Left: 0, Right: 11}, sel)
	assert.Equal(t, key, outcome.Label)
}

func TestJumpEndAndJumpStart(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "alpha beta gamma beta")
	s := f.manager.Start("a")
	s.ToggleMode(modes.JumpEnd)
	typeString(s, "et")
	typeString(s, tagAt(t, s, 7))
	assert.Equal(t, 10, f.store.Caret("a"))

	f.store.MoveCaret("a", 0)
	s = f.manager.Start("a")
	s.ToggleMode(modes.JumpStart)
	typeString(s, "et")
	typeString(s, tagAt(t, s, 18))
	assert.Equal(t, 17, f.store.Caret("a"))
}

func TestChunkDeletesWordWithoutMovingCaret(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "keep drop keep drop")
	f.store.MoveCaret("a", 0)
	s := f.manager.Start("a")
	s.ToggleMode(modes.Chunk)

	typeString(s, "dr")
	typeString(s, tagAt(t, s, 15))
	assert.Equal(t, "keep drop keep ", f.store.Text("a"))
	assert.Equal(t, 0, f.store.Caret("a"))
}

func TestDeclarationDelegatesToNavigator(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "func foo() { foo() }")
	s := f.manager.Start("a")
	s.ToggleMode(modes.Declaration)
	typeString(s, "fo")
	typeString(s, tagAt(t, s, 13))

	assert.Equal(t, 13, f.store.Caret("a"))
	assert.Equal(t, []string{"declaration"}, f.navigator.calls)
}

func TestTransliteratedSelection(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Search.MapToASCII = true
	settings := NewSettings(cfg)

	f := newFixture(t, settings, "test 拼音 selection 拼音")
	s := f.manager.Start("a")
	s.ToggleMode(modes.Target)
	typeString(s, "py")
	require.Len(t, s.Tags(), 2)
	typeString(s, tagAt(t, s, 18))

	sel, ok := f.store.Selection("a")
	require.True(t, ok)
	assert.Equal(t, buffers.Region{Left: 18, Right: 20}, sel)

	f = newFixture(t, settings, "あみだにょらい あみだにょらい")
	s = f.manager.Start("a")
	s.ToggleMode(modes.Target)
	typeString(s, "am")
	typeString(s, tagAt(t, s, 8))

	sel, ok = f.store.Selection("a")
	require.True(t, ok)
	assert.Equal(t, buffers.Region{Left: 8, Right: 15}, sel)
}

func TestRejectedKeystrokeKeepsTags(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "test test test")
	s := f.manager.Start("a")
	s.ToggleMode(modes.Jump)

	typeString(s, "testz")
	assert.Equal(t, "test", s.Query())
	assert.Len(t, s.Matches(), 3)
	assert.Len(t, s.Tags(), 3)
	assert.False(t, s.Ended())
}

func TestRestartKeepsMode(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "test test")
	s := f.manager.Start("a")
	s.ToggleMode(modes.Target)
	typeString(s, "te")
	require.NotEmpty(t, s.Tags())

	s.Restart()
	assert.Equal(t, "", s.Query())
	assert.Empty(t, s.Tags())
	assert.Empty(t, s.Matches())
	assert.Equal(t, modes.Target, s.Mode())
	assert.False(t, s.Ended())
}

func TestToggleTwiceEndsSession(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "test")
	s := f.manager.Start("a")

	calls := 0
	s.AddListener(ListenerFunc(func(domain.Outcome) { calls++ }))

	s.ToggleMode(modes.Target)
	assert.NotEmpty(t, f.renderer.applied("set_caret_color"))
	s.ToggleMode(modes.Target)

	assert.True(t, s.Ended())
	assert.Equal(t, modes.Disabled, s.Mode())
	assert.NotEmpty(t, f.renderer.applied("restore_caret_color"))
	assert.Equal(t, 1, calls)

	_, ok := f.manager.Get("a")
	assert.False(t, ok)
}

func TestListenerCalledExactlyOnce(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "one match")
	s := f.manager.Start("a")
	s.ToggleMode(modes.Jump)

	calls := 0
	s.AddListener(ListenerFunc(func(domain.Outcome) { calls++ }))
	s.TypeCharacter('j')
	s.End()
	s.End()
	s.TypeCharacter('x')
	assert.Equal(t, 1, calls)
}

func TestEndReportsQueryWithoutLabel(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "aa aa")
	s := f.manager.Start("a")
	s.ToggleMode(modes.Jump)

	var outcome domain.Outcome
	s.AddListener(ListenerFunc(func(o domain.Outcome) { outcome = o }))
	typeString(s, "aa")
	s.End()
	assert.Equal(t, domain.Outcome{Query: "aa"}, outcome)
	assert.Positive(t, f.renderer.clears)
}

func TestStartAttachesExistingSession(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "text", "other")
	first := f.manager.Start("a")
	first.ToggleMode(modes.Target)

	second := f.manager.Start("a")
	assert.Same(t, first, second)
	assert.Equal(t, 1, f.manager.Active())

	third := f.manager.Start("b")
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, f.manager.Active())

	first.End()
	fresh := f.manager.Start("a")
	assert.NotSame(t, first, fresh)
}

func TestParticipantsArePrimaryFirst(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "x", "x", "x")
	s := f.manager.Start("b", "a", "b", "c")
	assert.Equal(t, []domain.Participant{
		{ID: "b", Role: domain.RolePrimary},
		{ID: "a", Role: domain.RoleSecondary},
		{ID: "c", Role: domain.RoleSecondary},
	}, s.Participants())
}

func TestCrossBufferJumpFocusesTarget(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "zz", "qq xq")
	f.store.Focus("a")
	s := f.manager.Start("a", "b")
	s.ToggleMode(modes.Jump)

	s.TypeCharacter('x')
	assert.Equal(t, buffers.ID("b"), f.store.Focused())
	assert.Equal(t, 3, f.store.Caret("b"))
}

func TestDisposedPrimaryAbortsSilently(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "test test")
	s := f.manager.Start("a")
	s.ToggleMode(modes.Jump)
	typeString(s, "te")
	key := tagAt(t, s, 0)

	var outcome *domain.Outcome
	s.AddListener(ListenerFunc(func(o domain.Outcome) { outcome = &o }))

	f.store.Dispose("a")
	s.TypeCharacter([]rune(key)[0])

	require.NotNil(t, outcome)
	assert.Equal(t, domain.Outcome{}, *outcome)
	assert.True(t, s.Ended())
}

func TestDisposedTargetBufferAborts(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "zz", "xq xq")
	s := f.manager.Start("a", "b")
	s.ToggleMode(modes.Jump)
	s.TypeCharacter('x')
	require.Len(t, s.Tags(), 2)
	key := s.Tags()[0].Key

	var outcome *domain.Outcome
	s.AddListener(ListenerFunc(func(o domain.Outcome) { outcome = &o }))
	f.store.Dispose("b")
	s.TypeCharacter([]rune(key)[0])

	require.NotNil(t, outcome)
	assert.False(t, outcome.Committed)
	assert.Equal(t, 0, f.store.Caret("a"))
}

func TestMinimumQueryLengthHoldsBackTags(t *testing.T) {
	settings := DefaultSettings()
	settings.MinQueryLength = 2

	f := newFixture(t, settings, "abc abd xyz")
	s := f.manager.Start("a")
	s.ToggleMode(modes.Jump)

	s.TypeCharacter('a')
	assert.Len(t, s.Matches(), 2)
	assert.Empty(t, s.Tags())

	s.TypeCharacter('b')
	assert.Len(t, s.Tags(), 2)

	s.TypeCharacter('d')
	assert.True(t, s.Ended())
	assert.Equal(t, 4, f.store.Caret("a"))
}

func TestMultiRuneTagsNeedEveryRune(t *testing.T) {
	settings := DefaultSettings()
	settings.Alphabet = []rune("jk")

	f := newFixture(t, settings, "x x x x")
	s := f.manager.Start("a")
	s.ToggleMode(modes.Jump)
	s.TypeCharacter('x')
	require.Len(t, s.Tags(), 4)

	key := tagAt(t, s, 6)
	require.Len(t, key, 2)

	s.TypeCharacter(rune(key[0]))
	assert.False(t, s.Ended())
	assert.Equal(t, string(key[0]), s.Pending())
	for _, tag := range f.renderer.markers["a"] {
		assert.Equal(t, key[0], tag.Key[0])
	}

	s.TypeCharacter(rune(key[1]))
	assert.True(t, s.Ended())
	assert.Equal(t, 6, f.store.Caret("a"))
}

func TestVisitNextWalksMatches(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "ab ab ab")
	s := f.manager.Start("a")
	s.ToggleMode(modes.Jump)
	typeString(s, "ab")

	s.VisitNext()
	assert.Equal(t, 3, f.store.Caret("a"))
	assert.False(t, s.Ended())
	s.VisitNext()
	assert.Equal(t, 6, f.store.Caret("a"))
	s.VisitNext()
	assert.Equal(t, 0, f.store.Caret("a"))

	s.VisitPrevious()
	assert.Equal(t, 6, f.store.Caret("a"))
	assert.False(t, s.Ended())
}

func TestScrollsToClosestTagWhenNoneVisible(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "line\nline\nzap\nline\nzap\n")
	f.store.SetViewport("a", 0, 1)
	s := f.manager.Start("a")
	s.ToggleMode(modes.Jump)
	s.TypeCharacter('z')

	scrolls := f.renderer.applied("scroll_to")
	require.Len(t, scrolls, 1)
	assert.Equal(t, modes.ScrollToAction{Buffer: "a", Offset: 10}, scrolls[0])
}

func TestCycleNextStartsFirstConfiguredMode(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "x")
	s := f.manager.Start("a")
	s.CycleNext()
	assert.Equal(t, modes.Jump, s.Mode())
	s.CyclePrevious()
	assert.Equal(t, modes.JumpEnd, s.Mode())
}

func TestManagerFollowsBusEvents(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()

	store := buffers.NewMemoryStore()
	store.Open("a", "a.txt", "text")
	m := NewManager(bus, Collaborators{Source: store, Editor: store, Renderer: newRecordingRenderer()}, DefaultSettings())
	defer m.Close()

	cfg := config.DefaultConfig()
	cfg.Tags.Alphabet = "jk"
	bus.Publish(eventbus.ConfigChangedEvent{Path: "acejump.toml", Config: cfg})
	assert.Eventually(t, func() bool {
		return string(m.Settings().Alphabet) == "jk"
	}, time.Second, 10*time.Millisecond)

	s := m.Start("a")
	store.Dispose("a")
	bus.Publish(eventbus.BufferDisposedEvent{Buffer: "a"})
	assert.Eventually(t, s.Ended, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, m.Active())
}

func TestVisibleScopeStaysFixedWhileScrolling(t *testing.T) {
	settings := DefaultSettings()
	settings.Boundary = buffers.VisibleRegion

	f := newFixture(t, settings, "ab ab\nab ab\nab ab\n")
	f.store.SetViewport("a", 0, 1)
	s := f.manager.Start("a")
	s.ToggleMode(modes.Jump)

	s.TypeCharacter('a')
	assert.Equal(t, []domain.Match{
		{Buffer: "a", Left: 0, Right: 1},
		{Buffer: "a", Left: 3, Right: 4},
	}, s.Matches())

	f.store.SetViewport("a", 2, 1)
	s.TypeCharacter('b')
	assert.Equal(t, []domain.Match{
		{Buffer: "a", Left: 0, Right: 2},
		{Buffer: "a", Left: 3, Right: 5},
	}, s.Matches())

	s.Restart()
	s.TypeCharacter('a')
	assert.Equal(t, []domain.Match{
		{Buffer: "a", Left: 0, Right: 1},
		{Buffer: "a", Left: 3, Right: 4},
	}, s.Matches())
}

func TestScrollScreenfulMovesToTagsOffScreen(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "zap\nline\nzip\nline\nzoo\n")
	f.store.SetViewport("a", 2, 1)
	s := f.manager.Start("a")
	s.ToggleMode(modes.Jump)
	s.TypeCharacter('z')
	require.Len(t, s.Tags(), 3)
	require.Empty(t, f.renderer.applied("scroll_to"), "a tag is already visible")

	s.ScrollNextScreenful()
	s.ScrollPreviousScreenful()
	assert.Equal(t, []modes.Action{
		modes.ScrollToAction{Buffer: "a", Offset: 18},
		modes.ScrollToAction{Buffer: "a", Offset: 0},
	}, f.renderer.applied("scroll_to"))
	assert.False(t, s.Ended())
}

func TestScrollScreenfulWithoutTagsBeyondDoesNothing(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "zap zip")
	s := f.manager.Start("a")
	s.ToggleMode(modes.Jump)
	s.TypeCharacter('z')
	require.Len(t, s.Tags(), 2)

	s.ScrollNextScreenful()
	s.ScrollPreviousScreenful()
	assert.Empty(t, f.renderer.applied("scroll_to"))
}

func TestStartOnDisposedPrimaryEndsAtOnce(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "text", "more text")
	f.store.Dispose("a")

	s := f.manager.Start("a", "b")
	assert.True(t, s.Ended())
	assert.Equal(t, 0, f.manager.Active())

	s.ToggleMode(modes.Jump)
	s.CycleNext()
	assert.True(t, s.Ended())
	assert.Equal(t, 0, f.renderer.renders)
	assert.Equal(t, 0, f.manager.Active())
}

func TestToggleAfterPrimaryDisposedAbortsSilently(t *testing.T) {
	f := newFixture(t, DefaultSettings(), "text")
	s := f.manager.Start("a")

	var outcome *domain.Outcome
	s.AddListener(ListenerFunc(func(o domain.Outcome) { outcome = &o }))
	f.store.Dispose("a")
	s.ToggleMode(modes.Jump)

	require.NotNil(t, outcome)
	assert.Equal(t, domain.Outcome{}, *outcome)
	assert.True(t, s.Ended())
	assert.Equal(t, 0, f.manager.Active())
}
