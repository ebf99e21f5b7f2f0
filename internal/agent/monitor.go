package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/meshahzad92/Inbound-Calling/internal/extract"
	"github.com/meshahzad92/Inbound-Calling/internal/notify"
	"github.com/meshahzad92/Inbound-Calling/internal/reporting"
)

// CallSource is the slice of the agent API the monitor needs.
type CallSource interface {
	FetchCall(ctx context.Context, callID string) (CallState, error)
	FetchTranscript(ctx context.Context, callID string) (string, error)
}

// Monitor follows one agent session until the conversation ends, then
// extracts contact details from the transcript, commits the call record,
// and texts the caller a follow-up.
type Monitor struct {
	source    CallSource
	extractor extract.Extractor
	reports   *reporting.Service
	sms       notify.Sender
	sessions  *SessionRegistry
	log       *slog.Logger

	pollInterval time.Duration
	maxDuration  time.Duration
	wait         func(ctx context.Context, d time.Duration) error
}

type MonitorConfig struct {
	// PollInterval between end-of-call checks, default 10s.
	PollInterval time.Duration

	// MaxDuration bounds how long one call is watched, default 2h.
	MaxDuration time.Duration
}

func NewMonitor(source CallSource, extractor extract.Extractor, reports *reporting.Service, sms notify.Sender, sessions *SessionRegistry, cfg MonitorConfig, log *slog.Logger) *Monitor {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	max := cfg.MaxDuration
	if max <= 0 {
		max = 2 * time.Hour
	}
	return &Monitor{
		source:       source,
		extractor:    extractor,
		reports:      reports,
		sms:          sms,
		sessions:     sessions,
		log:          log,
		pollInterval: interval,
		maxDuration:  max,
		wait:         timerWait,
	}
}

// Watch blocks until the session ends or the watch window runs out,
// then finalizes the call. Intended to run on its own goroutine per
// inbound call.
func (m *Monitor) Watch(ctx context.Context, agentCallID, callSID, callerPhone string) {
	ctx, cancel := context.WithTimeout(ctx, m.maxDuration)
	defer cancel()
	defer func() {
		if m.sessions != nil {
			m.sessions.Unregister(agentCallID)
		}
	}()

	if !m.waitUntilEnded(ctx, agentCallID) {
		m.log.Warn("call watch window expired", "agent_call_id", agentCallID, "call_sid", callSID)
	}

	// Finalization still runs after the watch window so a record exists
	// for every inbound call.
	finalCtx := context.WithoutCancel(ctx)
	m.finalize(finalCtx, agentCallID, callSID, callerPhone)
}

func (m *Monitor) waitUntilEnded(ctx context.Context, agentCallID string) bool {
	for {
		state, err := m.source.FetchCall(ctx, agentCallID)
		if err != nil {
			m.log.Warn("agent call status fetch failed", "agent_call_id", agentCallID, "err", err)
		} else if state.Ended != nil {
			return true
		}
		if err := m.wait(ctx, m.pollInterval); err != nil {
			return false
		}
	}
}

func (m *Monitor) finalize(ctx context.Context, agentCallID, callSID, callerPhone string) {
	transcript, err := m.source.FetchTranscript(ctx, agentCallID)
	if err != nil {
		m.log.Error("transcript fetch failed", "agent_call_id", agentCallID, "err", err)
	}

	contact := extract.Fallback()
	if transcript != "" {
		if c, err := m.extractor.Extract(ctx, transcript); err != nil {
			m.log.Error("contact extraction failed", "agent_call_id", agentCallID, "err", err)
		} else {
			contact = c
		}
	}

	rec, err := m.reports.RecordCall(ctx, callSID, callerPhone, contact)
	if err != nil {
		m.log.Error("call record write failed", "call_sid", callSID, "err", err)
		return
	}
	m.log.Info("call record committed",
		"call_sid", callSID,
		"department", rec.DepartmentName,
		"transfer", rec.Transfer,
	)

	if m.sms == nil || callerPhone == "" {
		return
	}
	if sid, err := m.sms.Send(ctx, callerPhone, notify.FollowUpMessage); err != nil {
		m.log.Warn("follow-up sms failed", "call_sid", callSID, "err", err)
	} else {
		m.log.Info("follow-up sms sent", "call_sid", callSID, "message_sid", sid)
	}
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
