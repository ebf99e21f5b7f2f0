package audit

import (
	"context"
	"sync"
)

// MemoryRepo keeps audit events in memory, for tests and single-process
// deployments.
type MemoryRepo struct {
	mu     sync.Mutex
	Events []Event
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
	return nil
}

// ByCall returns the events recorded for one call SID, in append order.
func (r *MemoryRepo) ByCall(callSID string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, 0)
	for _, e := range r.Events {
		if e.CallSID == callSID {
			out = append(out, e)
		}
	}
	return out
}
