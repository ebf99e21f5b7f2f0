package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/meshahzad92/Inbound-Calling/internal/calls"
	"github.com/meshahzad92/Inbound-Calling/internal/telephony"
)

// fakeClock advances only when the poller waits, so cadence math is exact.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0).UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// scriptedStatuses returns one status (or error) per fetch, repeating the
// last entry once exhausted.
type statusStep struct {
	status calls.LegStatus
	err    error
}

type stubStatusClient struct {
	mu      sync.Mutex
	steps   []statusStep
	fetches int
}

func (s *stubStatusClient) CreateCall(ctx context.Context, p telephony.CreateCallParams) (string, error) {
	return "", errors.New("not used")
}

func (s *stubStatusClient) FetchStatus(ctx context.Context, legID string) (calls.LegStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.fetches
	s.fetches++
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	step := s.steps[i]
	return step.status, step.err
}

func (s *stubStatusClient) UpdateScript(ctx context.Context, legID, script string) error { return nil }
func (s *stubStatusClient) Terminate(ctx context.Context, legID string) error            { return nil }

func newTestPoller(client telephony.ControlClient, clock *fakeClock) *Poller {
	p := NewPoller(client, slog.Default())
	p.clock = clock.Now
	p.wait = func(ctx context.Context, d time.Duration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		clock.Advance(d)
		return nil
	}
	return p
}

func TestPollAnswerMidDeadline(t *testing.T) {
	// Destination answers at 6s with a 4s cadence: the 4s sample still
	// sees ringing, the 8s sample sees in_progress. Exactly two cycles.
	clock := newFakeClock()
	client := &stubStatusClient{steps: []statusStep{
		{status: calls.LegStatusRinging},
		{status: calls.LegStatusInProgress},
	}}
	p := newTestPoller(client, clock)

	res := p.Poll(context.Background(), "CA1", 4*time.Second, 20*time.Second)

	if res.State != PollAnswered {
		t.Fatalf("expected answered, got %q (%+v)", res.State, res)
	}
	if res.Cycles != 2 || client.fetches != 2 {
		t.Fatalf("expected exactly 2 cycles, got cycles=%d fetches=%d", res.Cycles, client.fetches)
	}
	if res.Elapsed != 8*time.Second {
		t.Fatalf("expected answer observed at 8s, got %s", res.Elapsed)
	}
}

func TestPollNeverAnsweredTimesOut(t *testing.T) {
	// Ringing through the full deadline: 5s cadence over 20s gives four
	// cycles, then timeout.
	clock := newFakeClock()
	client := &stubStatusClient{steps: []statusStep{{status: calls.LegStatusRinging}}}
	p := newTestPoller(client, clock)

	res := p.Poll(context.Background(), "CA1", 5*time.Second, 20*time.Second)

	if res.State != PollTimedOut {
		t.Fatalf("expected timed_out, got %q", res.State)
	}
	if res.Cycles != 4 || client.fetches != 4 {
		t.Fatalf("expected 4 cycles, got cycles=%d fetches=%d", res.Cycles, client.fetches)
	}
}

func TestPollTransientErrorsAreSkippedCycles(t *testing.T) {
	// Status fetch fails on all but the last cycle; polling still
	// succeeds when the final cycle reports in_progress.
	clock := newFakeClock()
	client := &stubStatusClient{steps: []statusStep{
		{err: fmt.Errorf("transport: connection reset")},
		{err: fmt.Errorf("transport: 502")},
		{err: fmt.Errorf("transport: timeout")},
		{status: calls.LegStatusInProgress},
	}}
	p := newTestPoller(client, clock)

	res := p.Poll(context.Background(), "CA1", 5*time.Second, 20*time.Second)

	if res.State != PollAnswered {
		t.Fatalf("expected answered despite transient errors, got %q", res.State)
	}
	if res.Cycles != 4 {
		t.Fatalf("expected 4 cycles, got %d", res.Cycles)
	}
}

func TestPollEndedStatusStopsLoop(t *testing.T) {
	clock := newFakeClock()
	client := &stubStatusClient{steps: []statusStep{{status: calls.LegStatusBusy}}}
	p := newTestPoller(client, clock)

	res := p.Poll(context.Background(), "CA1", 2*time.Second, 10*time.Second)

	if res.State != PollEnded || res.Status != calls.LegStatusBusy {
		t.Fatalf("expected ended/busy, got %+v", res)
	}
	if res.Cycles != 1 {
		t.Fatalf("expected a single cycle, got %d", res.Cycles)
	}
}

func TestPollNoImmediateSample(t *testing.T) {
	// Deadline shorter than one interval: zero samples, timed out.
	clock := newFakeClock()
	client := &stubStatusClient{steps: []statusStep{{status: calls.LegStatusInProgress}}}
	p := newTestPoller(client, clock)

	res := p.Poll(context.Background(), "CA1", 5*time.Second, 3*time.Second)

	if res.State != PollTimedOut || client.fetches != 0 {
		t.Fatalf("expected timeout with zero samples, got %+v fetches=%d", res, client.fetches)
	}
}

func TestPollCancellationStopsWaiting(t *testing.T) {
	clock := newFakeClock()
	client := &stubStatusClient{steps: []statusStep{{status: calls.LegStatusRinging}}}
	p := newTestPoller(client, clock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := p.Poll(ctx, "CA1", time.Second, 10*time.Second)
	if res.State != PollTimedOut || client.fetches != 0 {
		t.Fatalf("expected canceled poll to time out without sampling, got %+v", res)
	}
}
