package buffers

import (
	"log"
	"sync"
)

// Buffer is the in-memory state of one open text buffer
type Buffer struct {
	ID   ID
	Path string

	text      []rune
	caret     int
	selection Region
	selecting bool
	top       int // first visible line
	height    int // visible lines, 0 means everything
	disposed  bool
	dirty     bool
}

// MemoryStore is an in-memory implementation of Source and Editor
type MemoryStore struct {
	mu      sync.RWMutex
	buffers map[ID]*Buffer
	order   []ID
	focused ID
}

// NewMemoryStore creates a new memory-based buffer store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buffers: make(map[ID]*Buffer),
	}
}

// Open adds a buffer with the given contents, replacing any disposed buffer with the same id
func (s *MemoryStore) Open(id ID, path, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.buffers[id]; !exists {
		s.order = append(s.order, id)
	}
	s.buffers[id] = &Buffer{ID: id, Path: path, text: []rune(text)}
	if s.focused == "" {
		s.focused = id
	}
}

// Dispose marks a buffer as closed. Its id stays known so liveness checks fail.
func (s *MemoryStore) Dispose(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b := s.buffers[id]; b != nil {
		b.disposed = true
		log.Printf("Buffer %s disposed", id)
	}
}

// IDs returns the live buffers in the order they were opened
func (s *MemoryStore) IDs() []ID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]ID, 0, len(s.order))
	for _, id := range s.order {
		if b := s.buffers[id]; b != nil && !b.disposed {
			ids = append(ids, id)
		}
	}
	return ids
}

// Path returns the file path a buffer was loaded from
func (s *MemoryStore) Path(id ID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b := s.buffers[id]; b != nil {
		return b.Path
	}
	return ""
}

func (s *MemoryStore) Text(id ID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b := s.live(id); b != nil {
		return string(b.text)
	}
	return ""
}

// SetText replaces the buffer contents, clamping caret and selection
func (s *MemoryStore) SetText(id ID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.live(id)
	if b == nil {
		return
	}
	b.text = []rune(text)
	b.caret = clamp(b.caret, 0, len(b.text))
	b.selecting = false
	b.dirty = true
}

func (s *MemoryStore) IsLive(id ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live(id) != nil
}

func (s *MemoryStore) VisibleRegion(id ID) Region {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := s.live(id)
	if b == nil {
		return Region{}
	}
	return b.visibleRegion()
}

func (s *MemoryStore) IsOffsetInScope(id ID, offset int, boundary Boundary) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := s.live(id)
	if b == nil || offset < 0 || offset >= len(b.text) {
		return false
	}
	if boundary == VisibleRegion {
		return b.visibleRegion().Contains(offset)
	}
	return true
}

func (s *MemoryStore) Caret(id ID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b := s.live(id); b != nil {
		return b.caret
	}
	return 0
}

// Selection returns the current selection of a buffer, if any
func (s *MemoryStore) Selection(id ID) (Region, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b := s.live(id); b != nil && b.selecting {
		return b.selection, true
	}
	return Region{}, false
}

func (s *MemoryStore) MoveCaret(id ID, offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b := s.live(id); b != nil {
		b.caret = clamp(offset, 0, len(b.text))
		b.selecting = false
		b.reveal(b.caret)
	}
}

func (s *MemoryStore) Select(id ID, start, end, caret int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.live(id)
	if b == nil {
		return
	}
	if start > end {
		start, end = end, start
	}
	b.selection = Region{Left: clamp(start, 0, len(b.text)), Right: clamp(end, 0, len(b.text))}
	b.selecting = b.selection.Left < b.selection.Right
	b.caret = clamp(caret, 0, len(b.text))
	b.reveal(b.caret)
}

func (s *MemoryStore) DeleteRange(id ID, left, right int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.live(id)
	if b == nil {
		return
	}
	left = clamp(left, 0, len(b.text))
	right = clamp(right, left, len(b.text))
	if left == right {
		return
	}

	b.text = append(b.text[:left:left], b.text[right:]...)
	switch {
	case b.caret >= right:
		b.caret -= right - left
	case b.caret > left:
		b.caret = left
	}
	b.selecting = false
	b.dirty = true
}

func (s *MemoryStore) Focus(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b := s.live(id); b != nil {
		s.focused = id
	}
}

// Focused returns the buffer that currently has focus
func (s *MemoryStore) Focused() ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.focused
}

// SetViewport sets the first visible line and the number of visible lines
func (s *MemoryStore) SetViewport(id ID, top, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b := s.live(id); b != nil {
		b.top = max(top, 0)
		b.height = max(height, 0)
	}
}

// Viewport returns the first visible line and the number of visible lines
func (s *MemoryStore) Viewport(id ID) (top, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b := s.live(id); b != nil {
		return b.top, b.height
	}
	return 0, 0
}

// ScrollTo moves the viewport so that offset is visible
func (s *MemoryStore) ScrollTo(id ID, offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b := s.live(id); b != nil {
		b.reveal(offset)
	}
}

// IsDirty reports whether the buffer changed since it was opened or saved
func (s *MemoryStore) IsDirty(id ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b := s.live(id); b != nil {
		return b.dirty
	}
	return false
}

// MarkSaved clears the dirty flag
func (s *MemoryStore) MarkSaved(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b := s.live(id); b != nil {
		b.dirty = false
	}
}

func (s *MemoryStore) live(id ID) *Buffer {
	b := s.buffers[id]
	if b == nil || b.disposed {
		return nil
	}
	return b
}

func (b *Buffer) visibleRegion() Region {
	if b.height <= 0 {
		return Region{Left: 0, Right: len(b.text)}
	}
	starts := LineStarts(b.text)
	top := min(b.top, len(starts)-1)
	region := Region{Left: starts[top], Right: len(b.text)}
	if bottom := top + b.height; bottom < len(starts) {
		region.Right = starts[bottom]
	}
	return region
}

// reveal scrolls the minimum amount needed to show offset
func (b *Buffer) reveal(offset int) {
	if b.height <= 0 {
		return
	}
	line := LineOf(LineStarts(b.text), offset)
	switch {
	case line < b.top:
		b.top = line
	case line >= b.top+b.height:
		b.top = line - b.height + 1
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
