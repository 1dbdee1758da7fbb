package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventSessionStarted EventType = "SessionStarted"
	EventSessionEnded   EventType = "SessionEnded"
	EventQueryUpdated   EventType = "QueryUpdated"
	EventTagsAssigned   EventType = "TagsAssigned"
	EventJumpCommitted  EventType = "JumpCommitted"
	EventModeChanged    EventType = "ModeChanged"
	EventBufferDisposed EventType = "BufferDisposed"
	EventConfigLoaded   EventType = "ConfigLoaded"
	EventConfigSaved    EventType = "ConfigSaved"
	EventConfigChanged  EventType = "ConfigChanged"
	EventError          EventType = "Error"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// SessionStartedEvent is emitted when a new jump session is created
type SessionStartedEvent struct {
	SessionID string
	Buffers   []Participant
}

func (e SessionStartedEvent) Type() EventType { return EventSessionStarted }

// SessionEndedEvent is emitted once per session on teardown
type SessionEndedEvent struct {
	SessionID string
	Primary   BufferID
	Outcome   Outcome
}

func (e SessionEndedEvent) Type() EventType { return EventSessionEnded }

// QueryUpdatedEvent is emitted after every accepted keystroke
type QueryUpdatedEvent struct {
	SessionID  string
	Query      string
	MatchCount int
}

func (e QueryUpdatedEvent) Type() EventType { return EventQueryUpdated }

// TagsAssignedEvent is emitted when tags are redrawn
type TagsAssignedEvent struct {
	SessionID string
	Tagged    int
	Unlabeled int
}

func (e TagsAssignedEvent) Type() EventType { return EventTagsAssigned }

// JumpCommittedEvent is emitted when a jump is applied to a buffer
type JumpCommittedEvent struct {
	SessionID string
	Mode      string
	Target    Match
	Shift     bool
}

func (e JumpCommittedEvent) Type() EventType { return EventJumpCommitted }

// ModeChangedEvent is emitted when the jump mode of a session changes
type ModeChangedEvent struct {
	SessionID string
	From      string
	To        string
}

func (e ModeChangedEvent) Type() EventType { return EventModeChanged }

// BufferDisposedEvent is emitted when a buffer is closed by the host
type BufferDisposedEvent struct {
	Buffer BufferID
}

func (e BufferDisposedEvent) Type() EventType { return EventBufferDisposed }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }

// ConfigChangedEvent is emitted when the configuration file changed on disk.
// Config carries the reloaded *config.Config.
type ConfigChangedEvent struct {
	Path   string
	Config interface{}
}

func (e ConfigChangedEvent) Type() EventType { return EventConfigChanged }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }
