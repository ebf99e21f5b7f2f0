package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only. No Update/Delete methods are provided.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records internal audit information about transfer attempts.
// Callers treat audit logging as best-effort; a failed append never fails
// the transfer itself.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" || e.CallSID == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogTransferAttempt records that an orchestration attempt started.
func (s *Service) LogTransferAttempt(ctx context.Context, callSID, destination, reason string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeTransferAttempt,
		CallSID:     callSID,
		Destination: destination,
		Reason:      reason,
	})
}

// LogTransferResult records the terminal classification of an attempt.
func (s *Service) LogTransferResult(ctx context.Context, callSID, status, message string) error {
	return s.Append(ctx, Event{
		Type:    EventTypeTransferResult,
		CallSID: callSID,
		Status:  status,
		Message: message,
	})
}
