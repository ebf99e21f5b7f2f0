package telephony

import (
	"context"
	"errors"
	"time"

	"github.com/meshahzad92/Inbound-Calling/internal/calls"
)

// ControlClient is the provider-agnostic capability used to place outbound
// calls, sample call status, and redirect an in-progress call's signaling
// script.
//
// Rules:
// - No provider SDK calls outside telephony adapters.
// - All four operations can fail (transport/auth); callers must classify
//   such failures as attempt failures, never as crashes.
type ControlClient interface {
	// CreateCall places a new outbound leg and returns its provider id.
	CreateCall(ctx context.Context, p CreateCallParams) (string, error)

	// FetchStatus samples the leg's current signaling status.
	FetchStatus(ctx context.Context, legID string) (calls.LegStatus, error)

	// UpdateScript rewrites the signaling script of an in-progress leg.
	UpdateScript(ctx context.Context, legID, script string) error

	// Terminate hangs up a leg. Terminating an already-ended leg returns
	// ErrLegEnded, which callers treat as a no-op.
	Terminate(ctx context.Context, legID string) error
}

// CreateCallParams describes a new outbound leg.
type CreateCallParams struct {
	To   string
	From string

	// RingTimeout makes the carrier itself abandon the attempt if the
	// destination never answers. Zero means the carrier default.
	RingTimeout time.Duration

	// Script is the signaling script (TwiML) executed when the leg is
	// answered. For probe legs this must be a neutral holding script.
	Script string
}

var (
	// ErrDialRejected marks a dial-initiation failure: the outbound leg
	// could not be created at all (bad number, carrier rejection, auth).
	ErrDialRejected = errors.New("telephony: dial rejected")

	// ErrLegEnded marks a command sent to a leg that is no longer live.
	ErrLegEnded = errors.New("telephony: leg already ended")
)
