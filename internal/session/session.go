package session

import (
	"log"
	"strings"
	"sync"
	"unicode"

	"acejump/internal/buffers"
	"acejump/internal/domain"
	"acejump/internal/eventbus"
	"acejump/internal/modes"
	"acejump/internal/search"
	"acejump/internal/tagging"
)

// Renderer draws matches and tags and executes presentation commands
type Renderer interface {
	Render(matches []domain.Match, query string, mode modes.JumpMode)
	SetTagMarkers(id domain.BufferID, tags []domain.Tag)
	Clear()
	Apply(action modes.Action)
}

// Listener is notified exactly once when a session ends
type Listener interface {
	Finished(outcome domain.Outcome)
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func(outcome domain.Outcome)

func (f ListenerFunc) Finished(outcome domain.Outcome) { f(outcome) }

// Collaborators are the host services a session drives
type Collaborators struct {
	Source    buffers.Source
	Editor    buffers.Editor
	Navigator buffers.Navigator
	Renderer  Renderer
}

// Session is one jump interaction over a primary buffer and its secondaries.
// All operations are serialized; listeners run after the lock is released.
type Session struct {
	mu sync.Mutex

	id           string
	participants []domain.Participant
	collab       Collaborators
	bus          eventbus.EventBus
	settings     Settings
	onEnd        func(*Session)

	processor *search.Processor
	tracker   *modes.Tracker

	tags      []domain.Tag
	unlabeled []domain.Match
	pending   string
	tagsShown bool

	listeners []Listener
	ended     bool
	outcome   *domain.Outcome
}

func newSession(id string, participants []domain.Participant, collab Collaborators, bus eventbus.EventBus, settings Settings, onEnd func(*Session)) *Session {
	matcher := search.NewMatcher(collab.Source, settings.Boundary, settings.Normalizer)
	s := &Session{
		id:           id,
		participants: participants,
		collab:       collab,
		bus:          bus,
		settings:     settings,
		onEnd:        onEnd,
		tracker:      modes.NewTracker(settings.Cycle),
	}
	s.processor = search.NewProcessor(matcher, s.bufferIDs())
	return s
}

// ID returns the session id used in events
func (s *Session) ID() string {
	return s.id
}

// Primary returns the buffer the session was started on
func (s *Session) Primary() domain.BufferID {
	return s.participants[0].ID
}

// Participants returns all buffers, primary first
func (s *Session) Participants() []domain.Participant {
	out := make([]domain.Participant, len(s.participants))
	copy(out, s.participants)
	return out
}

// AddListener registers l to be notified when the session ends
func (s *Session) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.listeners = append(s.listeners, l)
}

// Mode returns the active jump mode
func (s *Session) Mode() modes.JumpMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Mode()
}

// Query returns the query as typed
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processor.Query().String()
}

// Matches returns the current match set
func (s *Session) Matches() []domain.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Match(nil), s.processor.Results()...)
}

// Tags returns the current tags in match order
func (s *Session) Tags() []domain.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Tag(nil), s.tags...)
}

// Pending returns the typed prefix of a multi-rune tag
func (s *Session) Pending() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Ended reports whether the session is over
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// TypeCharacter handles one keystroke. A rune that completes a tag commits
// the jump, an upper case rune commits the shift variant. Any other rune
// extends the query.
func (s *Session) TypeCharacter(ch rune) {
	s.run(func() { s.typeCharacter(ch) })
}

// ToggleMode activates mode, or ends the session if it is already active
func (s *Session) ToggleMode(mode modes.JumpMode) {
	s.run(func() { s.transition(s.tracker.Toggle(mode)) })
}

// CycleNext switches to the next configured mode
func (s *Session) CycleNext() {
	s.run(func() { s.transition(s.tracker.CycleNext()) })
}

// CyclePrevious switches to the previous configured mode
func (s *Session) CyclePrevious() {
	s.run(func() { s.transition(s.tracker.CyclePrevious()) })
}

// Restart clears the query and tags but keeps the mode
func (s *Session) Restart() {
	s.run(s.restart)
}

// End tears the session down without jumping
func (s *Session) End() {
	s.run(func() {
		s.finish(domain.Outcome{Query: s.processor.Query().String()})
	})
}

// VisitNext jumps to the first match after the primary caret
func (s *Session) VisitNext() {
	s.run(func() { s.visit(true) })
}

// VisitPrevious jumps to the last match before the primary caret
func (s *Session) VisitPrevious() {
	s.run(func() { s.visit(false) })
}

// ScrollNextScreenful scrolls the primary buffer to the first tag below
// its visible region
func (s *Session) ScrollNextScreenful() {
	s.run(func() { s.scrollScreenful(true) })
}

// ScrollPreviousScreenful scrolls the primary buffer to the last tag above
// its visible region
func (s *Session) ScrollPreviousScreenful() {
	s.run(func() { s.scrollScreenful(false) })
}

// run executes fn under the session lock and notifies listeners afterwards
func (s *Session) run(fn func()) {
	s.mu.Lock()
	if !s.ended {
		fn()
	}
	outcome := s.outcome
	s.outcome = nil
	listeners := s.listeners
	if outcome != nil {
		s.listeners = nil
	}
	s.mu.Unlock()

	if outcome == nil {
		return
	}
	for _, l := range listeners {
		l.Finished(*outcome)
	}
}

func (s *Session) typeCharacter(ch rune) {
	if s.abortIfStale() {
		return
	}

	if len(s.tags) > 0 {
		typed := s.pending + string(unicode.ToLower(ch))
		if tag, ok := s.findTag(typed); ok {
			s.commit(tag.Match, unicode.IsUpper(ch), typed)
			return
		}
		if s.tagPrefix(typed) {
			s.pending = typed
			s.draw()
			return
		}
		if s.pending != "" {
			s.pending = ""
			s.draw()
		}
	}

	if !s.processor.Type(ch) {
		return
	}
	s.update()
}

func (s *Session) findTag(key string) (domain.Tag, bool) {
	for _, tag := range s.tags {
		if tag.Key == key {
			return tag, true
		}
	}
	return domain.Tag{}, false
}

func (s *Session) tagPrefix(prefix string) bool {
	for _, tag := range s.tags {
		if strings.HasPrefix(tag.Key, prefix) {
			return true
		}
	}
	return false
}

// update recomputes tags for the current matches and either commits,
// or redraws
func (s *Session) update() {
	matches := s.processor.Results()
	query := s.processor.Query()
	wasShowing := s.tagsShown
	s.pending = ""

	s.bus.Publish(eventbus.QueryUpdatedEvent{SessionID: s.id, Query: query.String(), MatchCount: len(matches)})

	if len(matches) == 0 {
		s.tags, s.unlabeled, s.tagsShown = nil, nil, false
		s.draw()
		return
	}

	// short alphanumeric queries only highlight until tags were shown once
	if !wasShowing && query.Len() < s.settings.MinQueryLength && isAlphanumeric(query.String()) {
		s.tags, s.unlabeled = nil, matches
		s.draw()
		return
	}

	result := tagging.Assign(tagging.Input{
		Matches:        matches,
		Query:          query.Normalized(),
		Texts:          s.processor.Snapshot().Texts,
		Alphabet:       s.settings.Alphabet,
		MaxKeyLength:   s.settings.MaxKeyLength,
		MinQueryLength: s.settings.MinQueryLength,
		Primary:        s.Primary(),
		Caret:          s.collab.Source.Caret(s.Primary()),
	})
	if result.IsJump() {
		s.commit(*result.Jump, false, "")
		return
	}

	s.tags, s.unlabeled = result.Tags, result.Unlabeled
	s.tagsShown = len(s.tags) > 0
	s.bus.Publish(eventbus.TagsAssignedEvent{SessionID: s.id, Tagged: len(s.tags), Unlabeled: len(s.unlabeled)})

	s.draw()
	s.scrollToClosest()
}

func (s *Session) draw() {
	r := s.collab.Renderer
	r.Render(s.processor.Results(), s.processor.Query().String(), s.tracker.Mode())
	for _, p := range s.participants {
		r.SetTagMarkers(p.ID, s.markers(p.ID))
	}
}

// markers returns the tags of one buffer still reachable from the typed prefix
func (s *Session) markers(id domain.BufferID) []domain.Tag {
	var out []domain.Tag
	for _, tag := range s.tags {
		if tag.Match.Buffer == id && strings.HasPrefix(tag.Key, s.pending) {
			out = append(out, tag)
		}
	}
	return out
}

// scrollToClosest brings a tag on screen when none is visible
func (s *Session) scrollToClosest() {
	if len(s.tags) == 0 {
		return
	}
	for _, tag := range s.tags {
		if s.collab.Source.VisibleRegion(tag.Match.Buffer).Contains(tag.Match.Left) {
			return
		}
	}

	primary := s.Primary()
	caret := s.collab.Source.Caret(primary)
	best := s.tags[0].Match
	bestDistance := -1
	for _, tag := range s.tags {
		if tag.Match.Buffer != primary {
			continue
		}
		d := tag.Match.Left - caret
		if d < 0 {
			d = -d
		}
		if bestDistance < 0 || d < bestDistance {
			best, bestDistance = tag.Match, d
		}
	}
	s.collab.Renderer.Apply(modes.ScrollToAction{Buffer: best.Buffer, Offset: best.Left})
}

func (s *Session) scrollScreenful(forward bool) {
	if s.abortIfStale() {
		return
	}
	primary := s.Primary()
	visible := s.collab.Source.VisibleRegion(primary)

	var target *domain.Match
	for i := range s.tags {
		m := s.tags[i].Match
		if m.Buffer != primary {
			continue
		}
		if forward && m.Left >= visible.Right {
			target = &m
			break
		}
		if !forward && m.Left < visible.Left {
			target = &m
		}
	}
	if target == nil {
		log.Printf("Session %s: no tag beyond the visible region", s.id)
		return
	}
	s.collab.Renderer.Apply(modes.ScrollToAction{Buffer: primary, Offset: target.Left})
}

func (s *Session) transition(tr modes.Transition) {
	if s.abortIfStale() {
		return
	}
	log.Printf("Session %s: mode %s -> %s", s.id, tr.From, tr.To)
	s.bus.Publish(eventbus.ModeChangedEvent{SessionID: s.id, From: tr.From.String(), To: tr.To.String()})

	s.execute(tr.Commands)
	if !s.ended {
		s.draw()
	}
}

func (s *Session) restart() {
	s.processor.Reset()
	s.tags, s.unlabeled = nil, nil
	s.pending = ""
	s.tagsShown = false

	s.collab.Renderer.Clear()
	s.draw()
}

func (s *Session) visit(forward bool) {
	if s.abortIfStale() {
		return
	}
	matches := s.processor.Results()
	if len(matches) == 0 {
		return
	}

	target := s.pick(matches, forward)
	if len(matches) == 1 {
		s.commit(target, false, "")
		return
	}
	if !s.jump(target, false) {
		return
	}

	s.processor.Refresh()
	s.update()
}

// pick returns the match after (or before) the primary caret, wrapping
func (s *Session) pick(matches []domain.Match, forward bool) domain.Match {
	primary := s.Primary()
	caret := s.collab.Source.Caret(primary)

	var candidates []domain.Match
	for _, m := range matches {
		if m.Buffer == primary {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		candidates = matches
	}

	if forward {
		for _, m := range candidates {
			if m.Buffer != primary || m.Left > caret {
				return m
			}
		}
		return candidates[0]
	}
	for i := len(candidates) - 1; i >= 0; i-- {
		if m := candidates[i]; m.Buffer != primary || m.Left < caret {
			return m
		}
	}
	return candidates[len(candidates)-1]
}

// commit applies the jump to match and ends the session
func (s *Session) commit(match domain.Match, shift bool, label string) {
	if !s.jump(match, shift) {
		return
	}
	s.finish(domain.Outcome{Label: label, Query: s.processor.Query().String(), Committed: true})
}

// jump applies the current mode to match. It aborts the session and
// returns false when a buffer involved has gone away.
func (s *Session) jump(match domain.Match, shift bool) bool {
	primary := s.Primary()
	src := s.collab.Source
	if !src.IsLive(primary) || !src.IsLive(match.Buffer) {
		log.Printf("Session %s: buffer disposed before jump, aborting", s.id)
		s.finish(domain.Outcome{})
		return false
	}

	text := []rune(src.Text(match.Buffer))
	if match.Right > len(text) {
		log.Printf("Session %s: match %v is stale, aborting", s.id, match)
		s.finish(domain.Outcome{})
		return false
	}

	mode := s.tracker.Mode()
	s.execute(modes.Resolve(mode, modes.Commit{
		Target: match,
		Text:   text,
		Origin: primary,
		Caret:  src.Caret(primary),
		Shift:  shift,
	}))
	s.bus.Publish(eventbus.JumpCommittedEvent{SessionID: s.id, Mode: mode.String(), Target: match, Shift: shift})
	return true
}

func (s *Session) execute(actions []modes.Action) {
	for _, action := range actions {
		switch a := action.(type) {
		case modes.MoveCaretAction:
			s.collab.Editor.MoveCaret(a.Buffer, a.Offset)
		case modes.SelectAction:
			s.collab.Editor.Select(a.Buffer, a.Start, a.End, a.Caret)
		case modes.DeleteRangeAction:
			s.collab.Editor.DeleteRange(a.Buffer, a.Left, a.Right)
		case modes.FocusBufferAction:
			s.collab.Editor.Focus(a.Buffer)
		case modes.GoToDeclarationAction:
			if s.collab.Navigator == nil {
				continue
			}
			if a.TypeDeclaration {
				s.collab.Navigator.GoToTypeDeclaration(a.Buffer, a.Offset)
			} else {
				s.collab.Navigator.GoToDeclaration(a.Buffer, a.Offset)
			}
		case modes.EndSessionAction:
			s.finish(domain.Outcome{Query: s.processor.Query().String()})
		default:
			s.collab.Renderer.Apply(action)
		}
	}
}

// abortIfStale ends the session when the primary buffer is gone
func (s *Session) abortIfStale() bool {
	if s.collab.Source.IsLive(s.Primary()) {
		return false
	}
	log.Printf("Session %s: primary buffer %s disposed, aborting", s.id, s.Primary())
	s.finish(domain.Outcome{})
	return true
}

// bufferDisposed reacts to a buffer going away while the session is open
func (s *Session) bufferDisposed(id domain.BufferID) {
	s.run(func() {
		if s.abortIfStale() {
			return
		}
		s.processor.Refresh()
		s.update()
	})
}

// finish clears decorations, restores the caret and queues the outcome
// for listeners. Only the first call has an effect.
func (s *Session) finish(outcome domain.Outcome) {
	if s.ended {
		return
	}
	s.ended = true
	s.tags, s.unlabeled = nil, nil
	s.pending = ""

	r := s.collab.Renderer
	r.Clear()
	r.Apply(modes.RestoreCaretColorAction{})
	r.Apply(modes.RepaintAction{})

	log.Printf("Session %s: ended (label=%q query=%q committed=%v)", s.id, outcome.Label, outcome.Query, outcome.Committed)
	s.bus.Publish(eventbus.SessionEndedEvent{SessionID: s.id, Primary: s.Primary(), Outcome: outcome})
	if s.onEnd != nil {
		s.onEnd(s)
	}
	s.outcome = &outcome
}

func (s *Session) bufferIDs() []buffers.ID {
	ids := make([]buffers.ID, len(s.participants))
	for i, p := range s.participants {
		ids[i] = p.ID
	}
	return ids
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
