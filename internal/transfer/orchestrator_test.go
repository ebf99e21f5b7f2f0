package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/meshahzad92/Inbound-Calling/internal/audit"
	"github.com/meshahzad92/Inbound-Calling/internal/calls"
	"github.com/meshahzad92/Inbound-Calling/internal/telephony"
)

type stubResolver struct {
	sid string
	ok  bool
}

func (r stubResolver) MostRecentCallSID() (string, bool) { return r.sid, r.ok }

func testConfig(interval, deadline time.Duration) Config {
	return Config{
		CallerID:           "+15550001111",
		DefaultDestination: "+15557654321",
		RingTimeout:        20 * time.Second,
		Quick:              Mode{PollInterval: interval, Deadline: deadline},
		Background:         Mode{PollInterval: interval, Deadline: deadline},
		Strategy:           StrategyDirectRedirect,
	}
}

// newTestOrchestrator pins the orchestrator, its poller, and the outcome
// store to one fake clock so cadence assertions are exact and fake-time
// outcomes are not evicted against the wall clock.
func newTestOrchestrator(client telephony.ControlClient, store *MemoryStore, cfg Config, clock *fakeClock, opts ...Option) *Orchestrator {
	o := NewOrchestrator(client, store, cfg, slog.Default(), opts...)
	o.clock = clock.Now
	o.poller.clock = clock.Now
	store.clock = clock.Now
	o.poller.wait = func(ctx context.Context, d time.Duration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		clock.Advance(d)
		return nil
	}
	return o
}

func TestTransferSuccessWhenDestinationAnswers(t *testing.T) {
	// Destination answers at 6s; 4s cadence, 20s deadline. Two cycles,
	// outcome recorded at 8s.
	client := newFakeControl()
	client.defaultSteps = []statusStep{
		{status: calls.LegStatusRinging},
		{status: calls.LegStatusInProgress},
	}
	store := NewMemoryStore(time.Hour)
	clock := newFakeClock()
	start := clock.Now()
	o := newTestOrchestrator(client, store, testConfig(4*time.Second, 20*time.Second), clock)

	out := o.Transfer(context.Background(), Request{CallerLegID: "CA_caller", Reason: "asked for management"})

	if out.Status != StatusSuccess {
		t.Fatalf("expected success, got %+v", out)
	}
	if got := out.CompletedAt.Sub(start); got != 8*time.Second {
		t.Fatalf("expected outcome at 8s, got %s", got)
	}

	stored, ok, _ := store.Lookup(context.Background(), "CA_caller")
	if !ok || stored.Status != StatusSuccess {
		t.Fatalf("expected stored success before return, got %+v ok=%v", stored, ok)
	}
	if len(client.scriptsFor("CA_caller")) != 1 {
		t.Fatalf("expected exactly one caller redirect")
	}
}

func TestTransferFailsWhenNeverAnswered(t *testing.T) {
	// Ringing through the full 20s deadline at 5s cadence: four cycles,
	// probe terminated, caller leg script never touched.
	client := newFakeControl()
	store := NewMemoryStore(time.Hour)
	clock := newFakeClock()
	o := newTestOrchestrator(client, store, testConfig(5*time.Second, 20*time.Second), clock)

	out := o.Transfer(context.Background(), Request{CallerLegID: "CA_caller"})

	if out.Status != StatusFailed {
		t.Fatalf("expected failed, got %+v", out)
	}
	if out.Message != "the destination did not answer before the deadline" {
		t.Fatalf("timeout message must be distinct, got %q", out.Message)
	}
	client.mu.Lock()
	fetches := client.fetchCount["probe-1"]
	client.mu.Unlock()
	if fetches != 4 {
		t.Fatalf("expected 4 poll cycles, got %d", fetches)
	}
	if client.terminations("probe-1") != 1 {
		t.Fatalf("expected probe terminated")
	}
	if len(client.scriptsFor("CA_caller")) != 0 {
		t.Fatalf("caller leg must remain untouched on failure")
	}
}

func TestTransferDialInitiationFailureSkipsPolling(t *testing.T) {
	client := newFakeControl()
	client.dialErr = fmt.Errorf("%w: invalid number", telephony.ErrDialRejected)
	store := NewMemoryStore(time.Hour)
	clock := newFakeClock()
	o := newTestOrchestrator(client, store, testConfig(4*time.Second, 20*time.Second), clock)

	out := o.Transfer(context.Background(), Request{CallerLegID: "CA_caller", DestinationNumber: "bogus"})

	if out.Status != StatusFailed {
		t.Fatalf("expected failed, got %+v", out)
	}
	client.mu.Lock()
	total := 0
	for _, n := range client.fetchCount {
		total += n
	}
	client.mu.Unlock()
	if total != 0 {
		t.Fatalf("expected zero poll cycles after dial failure, got %d", total)
	}
	if _, ok, _ := store.Lookup(context.Background(), "CA_caller"); !ok {
		t.Fatalf("dial failure must still record an outcome")
	}
}

func TestTerminateOnEndedProbeIsNoOp(t *testing.T) {
	// The probe completes on its own before cleanup; the control plane
	// answers terminate with the ended sentinel. The recorded outcome is
	// unchanged and nothing errors.
	client := newFakeControl()
	client.defaultSteps = []statusStep{{status: calls.LegStatusCompleted}}
	client.terminateErr["probe-1"] = telephony.ErrLegEnded
	store := NewMemoryStore(time.Hour)
	clock := newFakeClock()
	o := newTestOrchestrator(client, store, testConfig(4*time.Second, 20*time.Second), clock)

	out := o.Transfer(context.Background(), Request{CallerLegID: "CA_caller"})
	if out.Status != StatusFailed {
		t.Fatalf("expected failed, got %+v", out)
	}

	before, _, _ := store.Lookup(context.Background(), "CA_caller")
	o.cleanupProbe(context.Background(), "probe-1")
	after, _, _ := store.Lookup(context.Background(), "CA_caller")
	if before != after {
		t.Fatalf("repeated terminate must not alter the outcome: %+v vs %+v", before, after)
	}
}

func TestPlaceholderResolvesMostRecentCall(t *testing.T) {
	client := newFakeControl()
	client.defaultSteps = []statusStep{{status: calls.LegStatusInProgress}}
	store := NewMemoryStore(time.Hour)
	clock := newFakeClock()
	o := newTestOrchestrator(client, store, testConfig(4*time.Second, 20*time.Second), clock,
		WithResolver(stubResolver{sid: "CA_recent", ok: true}))

	out := o.Transfer(context.Background(), Request{CallerLegID: PlaceholderCallerLeg})

	if out.CallerLegID != "CA_recent" || out.Status != StatusSuccess {
		t.Fatalf("expected resolved sid, got %+v", out)
	}
	if _, ok, _ := store.Lookup(context.Background(), "CA_recent"); !ok {
		t.Fatalf("outcome must be keyed by the resolved leg")
	}
}

func TestPlaceholderWithoutActiveCallFails(t *testing.T) {
	client := newFakeControl()
	store := NewMemoryStore(time.Hour)
	clock := newFakeClock()
	o := newTestOrchestrator(client, store, testConfig(4*time.Second, 20*time.Second), clock,
		WithResolver(stubResolver{}))

	out := o.Transfer(context.Background(), Request{CallerLegID: PlaceholderCallerLeg})

	if out.Status != StatusFailed || out.Message != "no active call found" {
		t.Fatalf("expected no-active-call failure, got %+v", out)
	}
	client.mu.Lock()
	dials := len(client.createdParams)
	client.mu.Unlock()
	if dials != 0 {
		t.Fatalf("must not dial without a caller leg")
	}
}

func TestConcurrentTransfersStayIsolated(t *testing.T) {
	// K simultaneous orchestrations for K distinct caller legs against a
	// control plane that answers all of them.
	const k = 8
	client := newFakeControl()
	client.defaultSteps = []statusStep{{status: calls.LegStatusInProgress}}
	store := NewMemoryStore(time.Hour)

	cfg := testConfig(time.Millisecond, 20*time.Millisecond)
	o := NewOrchestrator(client, store, cfg, slog.Default())

	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := fmt.Sprintf("CA_%d", i)
			out := o.Transfer(context.Background(), Request{CallerLegID: sid})
			if out.Status != StatusSuccess || out.CallerLegID != sid {
				t.Errorf("unexpected outcome for %s: %+v", sid, out)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < k; i++ {
		sid := fmt.Sprintf("CA_%d", i)
		out, ok, _ := store.Lookup(context.Background(), sid)
		if !ok || out.Status != StatusSuccess || out.CallerLegID != sid {
			t.Fatalf("cross-contaminated outcome for %s: %+v ok=%v", sid, out, ok)
		}
	}
}

func TestTransferBackgroundRecordsOutcome(t *testing.T) {
	client := newFakeControl()
	client.defaultSteps = []statusStep{{status: calls.LegStatusInProgress}}
	store := NewMemoryStore(time.Hour)
	cfg := testConfig(time.Millisecond, 20*time.Millisecond)
	o := NewOrchestrator(client, store, cfg, slog.Default())

	o.TransferBackground(Request{CallerLegID: "CA_bg"})

	deadline := time.Now().Add(2 * time.Second)
	for {
		if out, ok, _ := store.Lookup(context.Background(), "CA_bg"); ok {
			if out.Status != StatusSuccess {
				t.Fatalf("expected success, got %+v", out)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("background outcome never recorded")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTransferAuditTrail(t *testing.T) {
	client := newFakeControl()
	client.defaultSteps = []statusStep{{status: calls.LegStatusInProgress}}
	store := NewMemoryStore(time.Hour)
	repo := audit.NewMemoryRepo()
	clock := newFakeClock()
	o := newTestOrchestrator(client, store, testConfig(4*time.Second, 20*time.Second), clock,
		WithAudit(audit.NewService(repo)))

	o.Transfer(context.Background(), Request{CallerLegID: "CA_caller", Reason: "asked for sales"})

	evs := repo.ByCall("CA_caller")
	if len(evs) != 2 {
		t.Fatalf("expected attempt and result events, got %d", len(evs))
	}
	if evs[0].Type != audit.EventTypeTransferAttempt || evs[0].Reason != "asked for sales" {
		t.Fatalf("unexpected attempt event: %+v", evs[0])
	}
	if evs[1].Type != audit.EventTypeTransferResult || evs[1].Status != string(StatusSuccess) {
		t.Fatalf("unexpected result event: %+v", evs[1])
	}
}

type stubLimiter struct {
	allow    bool
	acquired int
	released int
	mu       sync.Mutex
}

func (l *stubLimiter) Acquire(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquired++
	return l.allow, nil
}

func (l *stubLimiter) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released++
	return nil
}

func TestTransferRejectedByDialLimiter(t *testing.T) {
	client := newFakeControl()
	store := NewMemoryStore(time.Hour)
	clock := newFakeClock()
	lim := &stubLimiter{allow: false}
	o := newTestOrchestrator(client, store, testConfig(4*time.Second, 20*time.Second), clock,
		WithLimiter(lim))

	out := o.Transfer(context.Background(), Request{CallerLegID: "CA_caller"})

	if out.Status != StatusFailed {
		t.Fatalf("expected failed, got %+v", out)
	}
	client.mu.Lock()
	dials := len(client.createdParams)
	client.mu.Unlock()
	if dials != 0 {
		t.Fatalf("rejected attempt must not dial")
	}
	if lim.released != 0 {
		t.Fatalf("must not release a slot that was never acquired")
	}
}

func TestTransferReleasesDialSlot(t *testing.T) {
	client := newFakeControl()
	client.defaultSteps = []statusStep{{status: calls.LegStatusInProgress}}
	store := NewMemoryStore(time.Hour)
	clock := newFakeClock()
	lim := &stubLimiter{allow: true}
	o := newTestOrchestrator(client, store, testConfig(4*time.Second, 20*time.Second), clock,
		WithLimiter(lim))

	o.Transfer(context.Background(), Request{CallerLegID: "CA_caller"})

	if lim.acquired != 1 || lim.released != 1 {
		t.Fatalf("expected one acquire and one release, got %d/%d", lim.acquired, lim.released)
	}
}
