package ui

import (
	"sync"

	"acejump/internal/buffers"
	"acejump/internal/domain"
	"acejump/internal/modes"
)

// Overlay is the session renderer of the terminal host. It records what a
// session wants shown; View reads it back when painting panes.
type Overlay struct {
	mu      sync.RWMutex
	store   *buffers.MemoryStore
	matches []domain.Match
	tags    map[domain.BufferID][]domain.Tag
	query   string
	mode    modes.JumpMode
	caret   modes.JumpMode
}

// NewOverlay creates an empty overlay over store
func NewOverlay(store *buffers.MemoryStore) *Overlay {
	return &Overlay{
		store: store,
		tags:  make(map[domain.BufferID][]domain.Tag),
	}
}

func (o *Overlay) Render(matches []domain.Match, query string, mode modes.JumpMode) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.matches = append([]domain.Match(nil), matches...)
	o.query = query
	o.mode = mode
}

func (o *Overlay) SetTagMarkers(id domain.BufferID, tags []domain.Tag) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(tags) == 0 {
		delete(o.tags, id)
	} else {
		o.tags[id] = append([]domain.Tag(nil), tags...)
	}
}

func (o *Overlay) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.matches = nil
	o.tags = make(map[domain.BufferID][]domain.Tag)
	o.query = ""
	o.mode = modes.Disabled
}

func (o *Overlay) Apply(action modes.Action) {
	switch a := action.(type) {
	case modes.SetCaretColorAction:
		o.mu.Lock()
		o.caret = a.Mode
		o.mu.Unlock()
	case modes.RestoreCaretColorAction:
		o.mu.Lock()
		o.caret = modes.Disabled
		o.mu.Unlock()
	case modes.ScrollToAction:
		o.store.ScrollTo(a.Buffer, a.Offset)
	case modes.RepaintAction:
		// the next View call repaints
	}
}

// Frame is a consistent copy of the overlay state
type Frame struct {
	Matches []domain.Match
	Tags    map[domain.BufferID][]domain.Tag
	Query   string
	Mode    modes.JumpMode
	Caret   modes.JumpMode
}

// Frame returns the current state
func (o *Overlay) Frame() Frame {
	o.mu.RLock()
	defer o.mu.RUnlock()

	tags := make(map[domain.BufferID][]domain.Tag, len(o.tags))
	for id, t := range o.tags {
		tags[id] = t
	}
	return Frame{
		Matches: o.matches,
		Tags:    tags,
		Query:   o.query,
		Mode:    o.mode,
		Caret:   o.caret,
	}
}
