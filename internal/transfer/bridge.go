package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/meshahzad92/Inbound-Calling/internal/telephony"
)

// Strategy selects how an answered probe is merged with the caller.
type Strategy string

const (
	// StrategyDirectRedirect hangs up the probe and rewrites the caller
	// leg to dial the destination directly. Safe while the probe has only
	// been status-checked, not engaged.
	StrategyDirectRedirect Strategy = "direct_redirect"

	// StrategyConferenceMerge routes both the caller leg and the already
	// answered probe leg into a uniquely named conference room. Used when
	// the probe is mid-call and must not be redialed.
	StrategyConferenceMerge Strategy = "conference_merge"
)

func (s Strategy) Valid() bool {
	return s == StrategyDirectRedirect || s == StrategyConferenceMerge
}

// Coordinator merges an answered destination leg with the original caller.
//
// Invariants:
// - the caller leg's script is mutated only after the destination leg has
//   answered; never preemptively;
// - either strategy leaves the destination leg merged or explicitly
//   terminated, never abandoned live;
// - on any mutation failure the destination leg is terminated and the
//   caller leg is never left pointed at a broken destination.
type Coordinator struct {
	client   telephony.ControlClient
	callerID string
	log      *slog.Logger
}

func NewCoordinator(client telephony.ControlClient, callerID string, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{client: client, callerID: callerID, log: log}
}

// Bridge connects callerLegID to the answered probe leg using the given
// strategy. On failure the probe leg is terminated best-effort and the
// error is returned for the orchestrator to classify.
func (c *Coordinator) Bridge(ctx context.Context, callerLegID string, probe ProbeHandle, strategy Strategy) error {
	var err error
	switch strategy {
	case StrategyDirectRedirect:
		err = c.directRedirect(ctx, callerLegID, probe)
	case StrategyConferenceMerge:
		err = c.conferenceMerge(ctx, callerLegID, probe)
	default:
		err = fmt.Errorf("transfer: unknown bridge strategy %q", strategy)
	}
	if err != nil {
		c.hangup(ctx, probe.LegID)
	}
	return err
}

// directRedirect points the caller leg at the destination number and hangs
// up the probe; the carrier places a fresh direct connection.
func (c *Coordinator) directRedirect(ctx context.Context, callerLegID string, probe ProbeHandle) error {
	script, err := telephony.DialNumberScript(probe.Destination, c.callerID)
	if err != nil {
		return err
	}
	if err := c.client.UpdateScript(ctx, callerLegID, script); err != nil {
		return fmt.Errorf("transfer: redirect caller leg: %w", err)
	}
	c.hangup(ctx, probe.LegID)
	return nil
}

// conferenceMerge routes both legs into the same room. The probe leg is
// redirected first so a failure there leaves the caller leg untouched.
func (c *Coordinator) conferenceMerge(ctx context.Context, callerLegID string, probe ProbeHandle) error {
	room := ConferenceName(callerLegID)
	script, err := telephony.DialConferenceScript(room)
	if err != nil {
		return err
	}

	if err := c.client.UpdateScript(ctx, probe.LegID, script); err != nil {
		return fmt.Errorf("transfer: move destination leg into %s: %w", room, err)
	}
	if err := c.client.UpdateScript(ctx, callerLegID, script); err != nil {
		return fmt.Errorf("transfer: move caller leg into %s: %w", room, err)
	}
	return nil
}

// hangup terminates a leg best-effort. Terminating an already-ended leg is
// a no-op, not an error.
func (c *Coordinator) hangup(ctx context.Context, legID string) {
	if err := c.client.Terminate(ctx, legID); err != nil && !errors.Is(err, telephony.ErrLegEnded) {
		c.log.Warn("probe leg termination failed", "leg_id", legID, "err", err)
	}
}

// conferenceSuffixLen bounds the room name so it stays readable in
// provider consoles while keeping enough of the SID to avoid collisions
// across concurrent transfers.
const conferenceSuffixLen = 12

// ConferenceName derives a conference room name from the caller leg id.
// The derivation is deterministic so a retried redirect command re-enters
// the same room instead of creating a second one.
func ConferenceName(callerLegID string) string {
	suffix := callerLegID
	if len(suffix) > conferenceSuffixLen {
		suffix = suffix[len(suffix)-conferenceSuffixLen:]
	}
	return "transfer-" + suffix
}
