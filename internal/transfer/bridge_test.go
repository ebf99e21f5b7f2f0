package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/meshahzad92/Inbound-Calling/internal/calls"
	"github.com/meshahzad92/Inbound-Calling/internal/telephony"
)

// fakeControl is a scriptable telephony control plane shared by the bridge
// and orchestrator tests.
type fakeControl struct {
	mu sync.Mutex

	dialErr       error
	nextLeg       int
	createdParams []telephony.CreateCallParams

	statuses     map[string][]statusStep
	defaultSteps []statusStep
	fetchCount   map[string]int

	scripts   map[string][]string
	scriptErr map[string]error

	terminated   map[string]int
	terminateErr map[string]error
}

func newFakeControl() *fakeControl {
	return &fakeControl{
		statuses:     map[string][]statusStep{},
		fetchCount:   map[string]int{},
		scripts:      map[string][]string{},
		scriptErr:    map[string]error{},
		terminated:   map[string]int{},
		terminateErr: map[string]error{},
	}
}

func (f *fakeControl) CreateCall(ctx context.Context, p telephony.CreateCallParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dialErr != nil {
		return "", f.dialErr
	}
	f.nextLeg++
	f.createdParams = append(f.createdParams, p)
	return fmt.Sprintf("probe-%d", f.nextLeg), nil
}

func (f *fakeControl) FetchStatus(ctx context.Context, legID string) (calls.LegStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.fetchCount[legID]
	f.fetchCount[legID]++

	steps := f.statuses[legID]
	if len(steps) == 0 {
		steps = f.defaultSteps
	}
	if len(steps) == 0 {
		return calls.LegStatusRinging, nil
	}
	if i >= len(steps) {
		i = len(steps) - 1
	}
	return steps[i].status, steps[i].err
}

func (f *fakeControl) UpdateScript(ctx context.Context, legID, script string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.scriptErr[legID]; err != nil {
		return err
	}
	f.scripts[legID] = append(f.scripts[legID], script)
	return nil
}

func (f *fakeControl) Terminate(ctx context.Context, legID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminated[legID]++
	return f.terminateErr[legID]
}

func (f *fakeControl) scriptsFor(legID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.scripts[legID]...)
}

func (f *fakeControl) terminations(legID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.terminated[legID]
}

func TestDirectRedirectRewritesCallerAndHangsUpProbe(t *testing.T) {
	client := newFakeControl()
	c := NewCoordinator(client, "+15550001111", slog.Default())
	probe := ProbeHandle{LegID: "probe-1", Destination: "+15557654321"}

	if err := c.Bridge(context.Background(), "CA_caller", probe, StrategyDirectRedirect); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	scripts := client.scriptsFor("CA_caller")
	if len(scripts) != 1 || !strings.Contains(scripts[0], "+15557654321") {
		t.Fatalf("expected caller redirected to destination, got %v", scripts)
	}
	if client.terminations("probe-1") != 1 {
		t.Fatalf("expected probe hung up once")
	}
}

func TestConferenceMergeMovesProbeFirst(t *testing.T) {
	client := newFakeControl()
	c := NewCoordinator(client, "+15550001111", slog.Default())
	probe := ProbeHandle{LegID: "probe-1", Destination: "+15557654321"}

	if err := c.Bridge(context.Background(), "CA_caller", probe, StrategyConferenceMerge); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	room := ConferenceName("CA_caller")
	for _, leg := range []string{"probe-1", "CA_caller"} {
		scripts := client.scriptsFor(leg)
		if len(scripts) != 1 || !strings.Contains(scripts[0], room) {
			t.Fatalf("expected %s routed into %s, got %v", leg, room, scripts)
		}
	}
	if client.terminations("probe-1") != 0 {
		t.Fatalf("merged probe must not be terminated")
	}
}

func TestConferenceMergeProbeFailureLeavesCallerUntouched(t *testing.T) {
	client := newFakeControl()
	client.scriptErr["probe-1"] = errors.New("twilio 502")
	c := NewCoordinator(client, "+15550001111", slog.Default())
	probe := ProbeHandle{LegID: "probe-1", Destination: "+15557654321"}

	err := c.Bridge(context.Background(), "CA_caller", probe, StrategyConferenceMerge)
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(client.scriptsFor("CA_caller")) != 0 {
		t.Fatalf("caller script must not change when the destination move fails")
	}
	if client.terminations("probe-1") != 1 {
		t.Fatalf("failed destination leg must be terminated")
	}
}

func TestDirectRedirectFailureTerminatesProbe(t *testing.T) {
	client := newFakeControl()
	client.scriptErr["CA_caller"] = errors.New("twilio 502")
	c := NewCoordinator(client, "+15550001111", slog.Default())
	probe := ProbeHandle{LegID: "probe-1", Destination: "+15557654321"}

	if err := c.Bridge(context.Background(), "CA_caller", probe, StrategyDirectRedirect); err == nil {
		t.Fatalf("expected error")
	}
	if client.terminations("probe-1") != 1 {
		t.Fatalf("expected probe terminated after failed redirect")
	}
}

func TestConferenceNameIsDeterministicAndBounded(t *testing.T) {
	sid := "CA0123456789abcdef0123456789abcdef"
	a := ConferenceName(sid)
	b := ConferenceName(sid)
	if a != b {
		t.Fatalf("expected deterministic name, got %q vs %q", a, b)
	}
	if len(a) != len("transfer-")+conferenceSuffixLen {
		t.Fatalf("expected fixed-length name, got %q", a)
	}
	if a == ConferenceName("CA_other_call_entirely") {
		t.Fatalf("distinct callers must map to distinct rooms")
	}
}
