package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meshahzad92/Inbound-Calling/internal/audit"
	"github.com/meshahzad92/Inbound-Calling/internal/calls"
	"github.com/meshahzad92/Inbound-Calling/internal/telephony"
)

// state is the orchestrator's position in one attempt:
// idle -> probing -> {bridging -> bridged} | {failed}.
// It is per-attempt and never shared; each attempt runs independently.
type state string

const (
	stateProbing  state = "probing"
	stateBridging state = "bridging"
	stateBridged  state = "bridged"
	stateFailed   state = "failed"
)

// ActiveCallResolver resolves the placeholder caller-leg sentinel to the
// most recently opened caller leg known to this process. Maintained by the
// HTTP front door's session registry.
type ActiveCallResolver interface {
	MostRecentCallSID() (string, bool)
}

// DialLimiter bounds concurrent probe dials per destination, since every
// probe consumes an outbound dialing attempt against the control plane's
// rate limit. A nil limiter means unlimited.
type DialLimiter interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Mode bundles the timing configuration of one operating mode. The quick
// mode is waited on by the voice-agent runtime and must respond fast; the
// background mode runs behind an immediate acknowledgment. Both reuse the
// same state machine.
type Mode struct {
	PollInterval time.Duration
	Deadline     time.Duration
}

// Config is the orchestrator's deployment-specific surface. Everything
// here is carrier- or deployment-dependent and comes from env config.
type Config struct {
	CallerID           string
	DefaultDestination string
	RingTimeout        time.Duration

	Quick      Mode
	Background Mode

	Strategy Strategy
}

// Orchestrator is the public entry point invoked at the voice-agent
// runtime's tool-call boundary. It composes the probe dialer, the status
// poller, and the bridge coordinator into one request/response cycle with
// a bounded response time.
//
// Every attempt writes its terminal classification to the outcome store
// before returning, so the store is consistent by the time any response is
// observed externally. No failure escapes as a panic or error; the result
// is always a structured Outcome.
type Orchestrator struct {
	client   telephony.ControlClient
	dialer   *ProbeDialer
	poller   *Poller
	bridge   *Coordinator
	store    OutcomeStore
	resolver ActiveCallResolver
	limiter  DialLimiter
	auditor  *audit.Service

	cfg   Config
	clock func() time.Time
	log   *slog.Logger
}

// Option customizes optional collaborators.
type Option func(*Orchestrator)

func WithResolver(r ActiveCallResolver) Option { return func(o *Orchestrator) { o.resolver = r } }
func WithLimiter(l DialLimiter) Option         { return func(o *Orchestrator) { o.limiter = l } }
func WithAudit(a *audit.Service) Option        { return func(o *Orchestrator) { o.auditor = a } }

func NewOrchestrator(client telephony.ControlClient, store OutcomeStore, cfg Config, log *slog.Logger, opts ...Option) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	if !cfg.Strategy.Valid() {
		cfg.Strategy = StrategyDirectRedirect
	}
	o := &Orchestrator{
		client: client,
		dialer: NewProbeDialer(client, cfg.CallerID),
		poller: NewPoller(client, log),
		bridge: NewCoordinator(client, cfg.CallerID, log),
		store:  store,
		cfg:    cfg,
		clock:  time.Now,
		log:    log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ErrNoActiveCall is returned when the placeholder sentinel cannot be
// resolved to a live caller leg. NoActiveCallMessage is the matching
// outcome message; the tool endpoint surfaces it as an error field.
var ErrNoActiveCall = errors.New("transfer: no active call found")

const NoActiveCallMessage = "no active call found"

// Transfer runs one synchronous (quick mode) orchestration attempt and
// returns its outcome. The quick deadline is a hard upper bound on the
// polling phase.
func (o *Orchestrator) Transfer(ctx context.Context, req Request) Outcome {
	return o.run(ctx, req, o.cfg.Quick)
}

// TransferBackground runs one attempt in background mode. It returns
// immediately; the eventual outcome lands in the store as usual. The
// attempt carries its own context so it survives the acknowledging HTTP
// request.
func (o *Orchestrator) TransferBackground(req Request) {
	mode := o.cfg.Background
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mode.Deadline+30*time.Second)
		defer cancel()
		o.run(ctx, req, mode)
	}()
}

func (o *Orchestrator) run(ctx context.Context, req Request, mode Mode) Outcome {
	callerLegID, err := o.resolveCallerLeg(req.CallerLegID)
	if err != nil {
		// No leg id to key an outcome under; report without recording.
		o.log.Warn("transfer rejected", "err", err)
		return Outcome{Status: StatusFailed, Message: NoActiveCallMessage, CompletedAt: o.clock()}
	}

	destination := req.DestinationNumber
	if destination == "" {
		destination = o.cfg.DefaultDestination
	}
	if destination == "" {
		return o.finish(ctx, callerLegID, StatusFailed, "no destination number configured")
	}

	strategy := req.Strategy
	if !strategy.Valid() {
		strategy = o.cfg.Strategy
	}

	if o.auditor != nil {
		_ = o.auditor.LogTransferAttempt(ctx, callerLegID, destination, req.Reason)
	}

	if o.limiter != nil {
		ok, err := o.limiter.Acquire(ctx, destination)
		if err != nil {
			o.log.Warn("dial limiter unavailable, proceeding", "destination", destination, "err", err)
		} else if !ok {
			return o.finish(ctx, callerLegID, StatusFailed, "transfer line is busy with another caller")
		} else {
			defer func() {
				if err := o.limiter.Release(context.WithoutCancel(ctx), destination); err != nil {
					o.log.Warn("dial slot release failed", "destination", destination, "err", err)
				}
			}()
		}
	}

	st := stateProbing
	o.log.Info("transfer probing", "caller_leg_id", callerLegID, "destination", destination, "reason", req.Reason)

	probe, err := o.dialer.Probe(ctx, destination, o.cfg.RingTimeout)
	if err != nil {
		o.log.Warn("probe dial failed", "caller_leg_id", callerLegID, "destination", destination, "err", err)
		return o.finish(ctx, callerLegID, StatusFailed, "the destination could not be reached")
	}

	res := o.poller.Poll(ctx, probe.LegID, mode.PollInterval, mode.Deadline)

	switch res.State {
	case PollAnswered:
		st = stateBridging
	case PollEnded:
		o.cleanupProbe(ctx, probe.LegID)
		return o.finish(ctx, callerLegID, StatusFailed, endedMessage(res.Status))
	default: // PollTimedOut
		o.cleanupProbe(ctx, probe.LegID)
		return o.finish(ctx, callerLegID, StatusFailed, "the destination did not answer before the deadline")
	}

	if err := o.bridge.Bridge(ctx, callerLegID, probe, strategy); err != nil {
		st = stateFailed
		o.log.Error("bridge failed", "caller_leg_id", callerLegID, "probe_leg_id", probe.LegID, "state", string(st), "err", err)
		return o.finish(ctx, callerLegID, StatusFailed, "the call could not be connected")
	}

	st = stateBridged
	o.log.Info("transfer bridged", "caller_leg_id", callerLegID, "probe_leg_id", probe.LegID,
		"strategy", string(strategy), "cycles", res.Cycles, "state", string(st))
	return o.finish(ctx, callerLegID, StatusSuccess, "transfer connected")
}

func (o *Orchestrator) resolveCallerLeg(id string) (string, error) {
	if id != "" && id != PlaceholderCallerLeg {
		return id, nil
	}
	if o.resolver == nil {
		return "", ErrNoActiveCall
	}
	sid, ok := o.resolver.MostRecentCallSID()
	if !ok {
		return "", ErrNoActiveCall
	}
	return sid, nil
}

// cleanupProbe terminates an unused probe leg. The leg may already have
// ended on its own (carrier ring timeout, callee hangup); that is a no-op.
func (o *Orchestrator) cleanupProbe(ctx context.Context, legID string) {
	if err := o.client.Terminate(context.WithoutCancel(ctx), legID); err != nil && !errors.Is(err, telephony.ErrLegEnded) {
		o.log.Warn("probe cleanup failed", "leg_id", legID, "err", err)
	}
}

// finish records the terminal classification before returning control, so
// the store never lags behind an externally observed response.
func (o *Orchestrator) finish(ctx context.Context, callerLegID string, status Status, message string) Outcome {
	out := Outcome{
		CallerLegID: callerLegID,
		Status:      status,
		Message:     message,
		CompletedAt: o.clock(),
	}
	if err := o.store.Record(context.WithoutCancel(ctx), out); err != nil {
		o.log.Error("outcome record failed", "caller_leg_id", callerLegID, "err", err)
	}
	if o.auditor != nil {
		_ = o.auditor.LogTransferResult(ctx, callerLegID, string(status), message)
	}
	return out
}

// endedMessage distinguishes "explicitly declined" terminal statuses from
// plain unavailability so downstream phrasing can differ.
func endedMessage(s calls.LegStatus) string {
	switch s {
	case calls.LegStatusBusy:
		return "the destination line is busy"
	case calls.LegStatusNoAnswer:
		return "the destination did not answer"
	case calls.LegStatusFailed:
		return "the destination call failed"
	case calls.LegStatusCanceled:
		return "the destination call was canceled"
	default:
		return fmt.Sprintf("the destination ended the call (%s)", s)
	}
}
