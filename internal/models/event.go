package models

import "time"

// SessionEvent is a single archive entry describing something the operator or
// the session did: connects, disconnects, process commands, exports.
type SessionEvent struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Type       string    `json:"type"` // CONNECT | DISCONNECT | START | STOP | FAN | EXPORT | ERROR
	Message    string    `json:"message"`
	Metadata   any       `json:"metadata,omitempty"`
}
