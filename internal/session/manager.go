package session

import (
	"log"
	"sync"

	"acejump/internal/config"
	"acejump/internal/domain"
	"acejump/internal/eventbus"

	"github.com/google/uuid"
)

// Manager owns the registry of active sessions, one per primary buffer
type Manager struct {
	mu       sync.Mutex
	bus      eventbus.EventBus
	collab   Collaborators
	settings Settings
	sessions map[domain.BufferID]*Session

	unsubscribe []func()
}

// NewManager creates a session manager. It follows config reloads and
// buffer disposal published on bus.
func NewManager(bus eventbus.EventBus, collab Collaborators, settings Settings) *Manager {
	if bus == nil {
		bus = eventbus.NullBus{}
	}
	m := &Manager{
		bus:      bus,
		collab:   collab,
		settings: settings,
		sessions: make(map[domain.BufferID]*Session),
	}

	m.unsubscribe = append(m.unsubscribe,
		bus.Subscribe(eventbus.EventBufferDisposed, m.handleBufferDisposed),
		bus.Subscribe(eventbus.EventConfigChanged, m.handleConfigChanged),
	)
	return m
}

// Start returns the session of primary, creating it when none is active.
// Other buffers take part as secondaries in the given order. When primary
// is not live the returned session has already ended with an empty outcome.
func (m *Manager) Start(primary domain.BufferID, others ...domain.BufferID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[primary]; ok {
		return existing
	}

	participants := []domain.Participant{{ID: primary, Role: domain.RolePrimary}}
	seen := map[domain.BufferID]bool{primary: true}
	for _, id := range others {
		if seen[id] {
			continue
		}
		seen[id] = true
		participants = append(participants, domain.Participant{ID: id, Role: domain.RoleSecondary})
	}

	s := newSession(uuid.NewString(), participants, m.collab, m.bus, m.settings, m.remove)
	if !m.collab.Source.IsLive(primary) {
		log.Printf("Session %s: primary buffer %s is gone, not starting", s.id, primary)
		s.ended = true
		return s
	}
	m.sessions[primary] = s

	log.Printf("Session %s: started on %s with %d buffer(s)", s.id, primary, len(participants))
	m.bus.Publish(eventbus.SessionStartedEvent{SessionID: s.id, Buffers: s.Participants()})
	return s
}

// Get returns the active session of primary
func (m *Manager) Get(primary domain.BufferID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[primary]
	return s, ok
}

// Active returns the number of open sessions
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Settings returns the settings new sessions start with
func (m *Manager) Settings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// SetSettings replaces the settings for sessions started afterwards
func (m *Manager) SetSettings(settings Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings
}

// Close ends every session and stops listening to the bus
func (m *Manager) Close() {
	m.mu.Lock()
	for _, unsubscribe := range m.unsubscribe {
		unsubscribe()
	}
	m.unsubscribe = nil
	open := m.snapshot()
	m.mu.Unlock()

	for _, s := range open {
		s.End()
	}
}

func (m *Manager) remove(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[s.Primary()] == s {
		delete(m.sessions, s.Primary())
	}
}

func (m *Manager) snapshot() []*Session {
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *Manager) handleBufferDisposed(e eventbus.DomainEvent) {
	event, ok := e.(eventbus.BufferDisposedEvent)
	if !ok {
		return
	}

	m.mu.Lock()
	var affected []*Session
	for _, s := range m.sessions {
		for _, p := range s.participants {
			if p.ID == event.Buffer {
				affected = append(affected, s)
				break
			}
		}
	}
	m.mu.Unlock()

	for _, s := range affected {
		s.bufferDisposed(event.Buffer)
	}
}

func (m *Manager) handleConfigChanged(e eventbus.DomainEvent) {
	event, ok := e.(eventbus.ConfigChangedEvent)
	if !ok {
		return
	}
	cfg, ok := event.Config.(*config.Config)
	if !ok {
		return
	}
	m.SetSettings(NewSettings(cfg))
	log.Printf("Session: settings reloaded from %s", event.Path)
}
