package agent

import (
	"sync"
	"time"
)

// SessionRegistry maps agent call IDs to the Twilio call SID they are
// attached to. The transfer tool only ever receives a placeholder for
// the caller leg, so lookups by recency are the common path.
type SessionRegistry struct {
	mu    sync.Mutex
	byID  map[string]sessionEntry
	clock func() time.Time
}

type sessionEntry struct {
	callSID     string
	callerPhone string
	registered  time.Time
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		byID:  make(map[string]sessionEntry),
		clock: time.Now,
	}
}

// Register associates an agent call with the inbound telephony leg it
// serves. Re-registering an ID overwrites the previous entry.
func (r *SessionRegistry) Register(agentCallID, callSID, callerPhone string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[agentCallID] = sessionEntry{
		callSID:     callSID,
		callerPhone: callerPhone,
		registered:  r.clock(),
	}
}

// Unregister drops a finished session.
func (r *SessionRegistry) Unregister(agentCallID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, agentCallID)
}

// CallSID returns the telephony leg bound to an agent call.
func (r *SessionRegistry) CallSID(agentCallID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[agentCallID]
	return e.callSID, ok
}

// MostRecentCallSID returns the telephony leg of the most recently
// registered session. It satisfies the transfer orchestrator's resolver
// for placeholder caller legs.
func (r *SessionRegistry) MostRecentCallSID() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var (
		best  sessionEntry
		found bool
	)
	for _, e := range r.byID {
		if !found || e.registered.After(best.registered) {
			best = e
			found = true
		}
	}
	return best.callSID, found
}
