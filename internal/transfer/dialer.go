package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/meshahzad92/Inbound-Calling/internal/telephony"
)

// ProbeHandle identifies a throwaway outbound leg placed to test whether a
// destination will answer. Answer detection is the poller's job; the
// dialer never blocks on answer.
type ProbeHandle struct {
	LegID       string
	Destination string
	PlacedAt    time.Time
}

// ProbeDialer places probe legs. The placed leg carries a silent holding
// script so that, if answered, the human hears nothing alarming before
// being bridged, and the carrier-level ring timeout bounds the attempt
// even if this process dies mid-poll.
type ProbeDialer struct {
	client   telephony.ControlClient
	callerID string
	clock    func() time.Time
}

func NewProbeDialer(client telephony.ControlClient, callerID string) *ProbeDialer {
	return &ProbeDialer{client: client, callerID: callerID, clock: time.Now}
}

// Probe places the outbound leg. A creation failure is a dial-initiation
// failure: the orchestrator reports it immediately with no polling phase.
func (d *ProbeDialer) Probe(ctx context.Context, destination string, ringTimeout time.Duration) (ProbeHandle, error) {
	hold, err := telephony.HoldScript(int(ringTimeout/time.Second) * 3)
	if err != nil {
		return ProbeHandle{}, fmt.Errorf("transfer: hold script: %w", err)
	}

	legID, err := d.client.CreateCall(ctx, telephony.CreateCallParams{
		To:          destination,
		From:        d.callerID,
		RingTimeout: ringTimeout,
		Script:      hold,
	})
	if err != nil {
		return ProbeHandle{}, err
	}

	return ProbeHandle{
		LegID:       legID,
		Destination: destination,
		PlacedAt:    d.clock(),
	}, nil
}
