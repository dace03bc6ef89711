// Package analytics streams game lifecycle events to an external sink.
// Publishing never blocks game processing and never fails it.
package analytics

import (
	"time"
)

const (
	EventGameStarted = "game_started"
	EventMoveMade    = "move_made"
	EventBotMove     = "bot_move"
	EventGameEnded   = "game_ended"
)

type Event struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionId"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(event Event)
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(Event) {}

func (Nop) Close() error { return nil }
