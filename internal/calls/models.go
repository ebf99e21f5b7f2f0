package calls

import "time"

// Leg represents one signaling-level connection between the telephony
// control plane and a single phone endpoint.
//
// Ownership invariant: while a leg is being monitored it belongs to the
// status poller; once a merge decision is made, ownership moves to the
// bridge coordinator. Nothing else mutates a leg's signaling script.
//
// NOTE: LegID is the provider's identifier (e.g., a Twilio Call SID).
// Keep provider-specific payloads out of this model.

type Leg struct {
	LegID string  `json:"leg_id"`
	Role  LegRole `json:"role"`

	From string `json:"from"`
	To   string `json:"to"`

	Status LegStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LegRole string

const (
	// LegRoleCaller is the original inbound caller's leg.
	LegRoleCaller LegRole = "caller"
	// LegRoleProbeDestination is a throwaway outbound leg placed to test
	// whether a destination will answer.
	LegRoleProbeDestination LegRole = "probe_destination"
)

type LegStatus string

const (
	LegStatusQueued     LegStatus = "queued"
	LegStatusRinging    LegStatus = "ringing"
	LegStatusInProgress LegStatus = "in_progress"
	LegStatusCompleted  LegStatus = "completed"
	LegStatusFailed     LegStatus = "failed"
	LegStatusNoAnswer   LegStatus = "no_answer"
	LegStatusBusy       LegStatus = "busy"
	LegStatusCanceled   LegStatus = "canceled"
)

// Ended reports whether the leg reached a terminal state without being
// answered, or after the conversation finished. InProgress is terminal for
// the poller too, but it means a human picked up; callers should check it
// separately.
func (s LegStatus) Ended() bool {
	switch s {
	case LegStatusCompleted, LegStatusFailed, LegStatusNoAnswer, LegStatusBusy, LegStatusCanceled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further status progress is possible.
func (s LegStatus) Terminal() bool {
	return s == LegStatusInProgress || s.Ended()
}
