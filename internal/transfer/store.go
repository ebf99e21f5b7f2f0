package transfer

import (
	"context"
	"sync"
	"time"
)

// OutcomeStore records the final status of each transfer attempt, keyed by
// caller leg id. The reporting pipeline consults it after the call ends;
// absence of an entry is treated identically to an explicit failure.
//
// Concurrency discipline: writes for the same key are mutually exclusive
// and last-write-wins; reads never block writers indefinitely.
type OutcomeStore interface {
	Record(ctx context.Context, o Outcome) error
	Lookup(ctx context.Context, callerLegID string) (Outcome, bool, error)
}

// MemoryStore is the in-process OutcomeStore. Entries older than the
// retention window are evicted on write to bound memory; retention only
// needs to exceed the longest plausible call duration.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]Outcome
	retention time.Duration
	clock     func() time.Time
}

func NewMemoryStore(retention time.Duration) *MemoryStore {
	if retention <= 0 {
		retention = 4 * time.Hour
	}
	return &MemoryStore{
		entries:   make(map[string]Outcome),
		retention: retention,
		clock:     time.Now,
	}
}

func (s *MemoryStore) Record(ctx context.Context, o Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.CompletedAt.IsZero() {
		o.CompletedAt = s.clock()
	}
	s.entries[o.CallerLegID] = o
	s.evictLocked()
	return nil
}

func (s *MemoryStore) Lookup(ctx context.Context, callerLegID string) (Outcome, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.entries[callerLegID]
	return o, ok, nil
}

func (s *MemoryStore) evictLocked() {
	cutoff := s.clock().Add(-s.retention)
	for k, o := range s.entries {
		if o.CompletedAt.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}
