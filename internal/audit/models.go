package audit

import "time"

// Event is one append-only audit record. Transfer attempts carry the free
// text reason supplied by the voice-agent runtime; it exists for audit
// only and is never interpreted.

type EventType string

const (
	EventTypeTransferAttempt EventType = "transfer_attempt"
	EventTypeTransferResult  EventType = "transfer_result"
)

type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`

	CallSID     string `json:"call_sid"`
	Destination string `json:"destination,omitempty"`
	Reason      string `json:"reason,omitempty"`

	// Status and Message are set on result events.
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
