package eventbus

import (
	"log"
	"runtime/debug"
	"sync"

	"acejump/internal/domain"
)

type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

const (
	EventSessionStarted = domain.EventSessionStarted
	EventSessionEnded   = domain.EventSessionEnded
	EventQueryUpdated   = domain.EventQueryUpdated
	EventTagsAssigned   = domain.EventTagsAssigned
	EventJumpCommitted  = domain.EventJumpCommitted
	EventModeChanged    = domain.EventModeChanged
	EventBufferDisposed = domain.EventBufferDisposed
	EventConfigLoaded   = domain.EventConfigLoaded
	EventConfigSaved    = domain.EventConfigSaved
	EventConfigChanged  = domain.EventConfigChanged
	EventError          = domain.EventError
)

type SessionStartedEvent = domain.SessionStartedEvent
type SessionEndedEvent = domain.SessionEndedEvent
type QueryUpdatedEvent = domain.QueryUpdatedEvent
type TagsAssignedEvent = domain.TagsAssignedEvent
type JumpCommittedEvent = domain.JumpCommittedEvent
type ModeChangedEvent = domain.ModeChangedEvent
type BufferDisposedEvent = domain.BufferDisposedEvent
type ConfigLoadedEvent = domain.ConfigLoadedEvent
type ConfigSavedEvent = domain.ConfigSavedEvent
type ConfigChangedEvent = domain.ConfigChangedEvent
type ErrorEvent = domain.ErrorEvent

// EventHandler receives one event. Handlers run on their own goroutine.
type EventHandler func(DomainEvent)

// EventBus delivers session, buffer and config events to subscribers
type EventBus interface {
	Publish(event DomainEvent)
	// Subscribe registers handler for eventType and returns a func that
	// removes it again
	Subscribe(eventType EventType, handler EventHandler) func()
	Close()
}

// queueSize bounds the events waiting for dispatch; Publish drops beyond it
const queueSize = 1000

// per-keystroke events stay out of the log
var quiet = map[EventType]bool{
	EventQueryUpdated: true,
	EventTagsAssigned: true,
}

type subscriber struct {
	id      uint64
	handler EventHandler
}

type bus struct {
	mu     sync.RWMutex
	subs   map[EventType][]subscriber
	lastID uint64

	queue   chan DomainEvent
	done    chan struct{}
	stopped sync.WaitGroup
	once    sync.Once
}

// New starts a bus with its dispatch goroutine. Close stops it.
func New() EventBus {
	b := &bus{
		subs:  make(map[EventType][]subscriber),
		queue: make(chan DomainEvent, queueSize),
		done:  make(chan struct{}),
	}
	b.stopped.Add(1)
	go b.run()
	return b
}

func (b *bus) Publish(event DomainEvent) {
	if !quiet[event.Type()] {
		log.Printf("EventBus: publishing %s", event.Type())
	}

	select {
	case <-b.done:
		return
	default:
	}

	select {
	case b.queue <- event:
	default:
		log.Printf("EventBus: queue full, dropping %s", event.Type())
	}
}

func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastID++
	id := b.lastID
	b.subs[eventType] = append(b.subs[eventType], subscriber{id: id, handler: handler})
	return func() { b.unsubscribe(eventType, id) }
}

func (b *bus) unsubscribe(eventType EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[eventType]
	for i, s := range subs {
		if s.id == id {
			b.subs[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Close stops dispatching. Events still queued are dropped.
func (b *bus) Close() {
	b.once.Do(func() {
		close(b.done)
		b.stopped.Wait()
	})
}

func (b *bus) run() {
	defer b.stopped.Done()

	for {
		select {
		case event := <-b.queue:
			for _, h := range b.handlersFor(event.Type()) {
				go deliver(h, event)
			}
		case <-b.done:
			for len(b.queue) > 0 {
				<-b.queue
			}
			return
		}
	}
}

// handlersFor copies the handlers so none runs under the lock
func (b *bus) handlersFor(eventType EventType) []EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := b.subs[eventType]
	out := make([]EventHandler, len(subs))
	for i, s := range subs {
		out[i] = s.handler
	}
	return out
}

func deliver(h EventHandler, event DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("EventBus: handler for %s panicked: %v\n%s", event.Type(), r, debug.Stack())
		}
	}()
	h(event)
}

// NullBus drops every event. Useful where no one listens.
type NullBus struct{}

func (NullBus) Publish(DomainEvent)                      {}
func (NullBus) Subscribe(EventType, EventHandler) func() { return func() {} }
func (NullBus) Close()                                   {}
