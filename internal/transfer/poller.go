package transfer

import (
	"context"
	"log/slog"
	"time"

	"github.com/meshahzad92/Inbound-Calling/internal/calls"
	"github.com/meshahzad92/Inbound-Calling/internal/telephony"
)

// PollState classifies how a polling run ended.
type PollState string

const (
	// PollAnswered means the leg reached in_progress: a human picked up.
	PollAnswered PollState = "answered"
	// PollEnded means the leg reached a terminal state without answering
	// (busy, no_answer, failed, canceled) or finished (completed).
	PollEnded PollState = "ended"
	// PollTimedOut means the deadline passed with the leg still queued or
	// ringing, or the surrounding context was canceled.
	PollTimedOut PollState = "timed_out"
)

// PollResult is the terminal result of one polling run.
type PollResult struct {
	State  PollState
	Status calls.LegStatus
	Cycles int
	Elapsed time.Duration
}

// Poller samples a leg's status at a fixed cadence until it reaches a
// terminal state or a deadline expires. One parameterized poller serves
// both the quick-check and the background transfer paths; only interval
// and deadline vary.
//
// Failure semantics: a transport error on a single sample means "status
// unknown for this cycle" and the cycle is skipped, not counted as a
// terminal result. Only deadline expiry or a terminal status end the loop.
type Poller struct {
	client telephony.ControlClient
	log    *slog.Logger

	// wait suspends between samples. The default is a cancellable timer,
	// never a bare sleep, so deadline cancellation is clean. Tests swap
	// it together with clock for deterministic runs.
	wait  func(ctx context.Context, d time.Duration) error
	clock func() time.Time
}

func NewPoller(client telephony.ControlClient, log *slog.Logger) *Poller {
	if log == nil {
		log = slog.Default()
	}
	return &Poller{
		client: client,
		log:    log,
		wait:   timerWait,
		clock:  time.Now,
	}
}

// Poll runs the sampling loop for legID. The first sample occurs after one
// interval has elapsed; there is no immediate sample. At most
// deadline/interval samples are taken.
func (p *Poller) Poll(ctx context.Context, legID string, interval, deadline time.Duration) PollResult {
	start := p.clock()
	res := PollResult{State: PollTimedOut}

	if interval <= 0 || deadline < interval {
		return res
	}

	maxCycles := int(deadline / interval)
	for i := 1; i <= maxCycles; i++ {
		if err := p.wait(ctx, interval); err != nil {
			res.Elapsed = p.clock().Sub(start)
			return res
		}

		status, err := p.client.FetchStatus(ctx, legID)
		res.Cycles = i
		if err != nil {
			// Status unknown this cycle; retry at the next interval.
			p.log.Debug("status fetch failed, skipping cycle", "leg_id", legID, "cycle", i, "err", err)
			continue
		}

		switch {
		case status == calls.LegStatusInProgress:
			res.State = PollAnswered
			res.Status = status
			res.Elapsed = p.clock().Sub(start)
			return res
		case status.Ended():
			res.State = PollEnded
			res.Status = status
			res.Elapsed = p.clock().Sub(start)
			return res
		}
	}

	res.Elapsed = p.clock().Sub(start)
	return res
}

func timerWait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
