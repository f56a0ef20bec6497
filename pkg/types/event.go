package types

import (
	"time"

	"github.com/google/uuid"
)

// Event is an internal lifecycle notification — in this repository, policy
// reload requested/succeeded/failed. Never readable from any code path reachable
// by the agent; narrowed from pkg/types/events.go's Event, which
// additionally carries sandbox-specific fields (PID, Domain, Remote) that have
// no meaning in Cherub's domain.
type Event struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"type"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// NewEvent stamps a fresh Event with a generated ID and the current time.
func NewEvent(eventType string, fields map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		Fields:    fields,
	}
}
