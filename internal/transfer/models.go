package transfer

import "time"

// Request is the immutable input to one orchestration attempt. It is
// consumed synchronously and never persisted beyond the attempt.
type Request struct {
	// CallerLegID identifies the original caller's leg. May be the
	// PlaceholderCallerLeg sentinel, meaning "the most recently opened
	// caller leg known to this process".
	CallerLegID string `json:"caller_leg_id"`

	// DestinationNumber is the human operator to reach. Empty means use
	// the configured default destination.
	DestinationNumber string `json:"destination_number"`

	// Reason is free text, kept for audit only.
	Reason string `json:"reason"`

	RequestedAt time.Time `json:"requested_at"`

	// Strategy optionally overrides the configured bridge strategy.
	Strategy Strategy `json:"strategy,omitempty"`
}

// PlaceholderCallerLeg is the sentinel the voice-agent runtime sends when
// it does not know the provider-side leg id of the live call.
const PlaceholderCallerLeg = "active_call_sid"

// Status is the terminal classification of one attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Outcome is the result of one attempt, written once to the outcome store
// at the end of the attempt. Last write wins per caller leg: only the most
// recent transfer decision matters for reporting.
type Outcome struct {
	CallerLegID string    `json:"caller_leg_id"`
	Status      Status    `json:"status"`
	Message     string    `json:"message"`
	CompletedAt time.Time `json:"completed_at"`
}
