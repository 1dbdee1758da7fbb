package ui

import (
	"time"

	"acejump/internal/domain"
	"acejump/internal/eventbus"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// tickMsg is sent on a timer so changes made off the UI goroutine show up
type tickMsg time.Time

// savedMsg contains the result of writing a buffer back to disk
type savedMsg struct {
	buffer domain.BufferID
	path   string
	err    error
}

// pauseRenderingMsg signals to pause Bubble Tea rendering
type pauseRenderingMsg struct{}

// resumeRenderingMsg signals to resume Bubble Tea rendering
type resumeRenderingMsg struct{}
