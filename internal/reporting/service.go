package reporting

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/meshahzad92/Inbound-Calling/internal/extract"
	"github.com/meshahzad92/Inbound-Calling/internal/transfer"
)

var ErrInvalidRecord = errors.New("reporting: invalid record")

// Repository abstracts call record storage. Records are append-only.
type Repository interface {
	Append(ctx context.Context, rec CallRecord) error
	List(ctx context.Context, from, to time.Time) ([]CallRecord, error)
}

// Service assembles call records from extracted contact details and the
// transfer outcome store, then fans them out to the repository and any
// extra sinks (CSV export, for one).
type Service struct {
	repo     Repository
	outcomes transfer.OutcomeStore
	sinks    []Sink
	log      *slog.Logger
	clock    func() time.Time
}

// Sink receives a copy of every record the service commits. Sink errors
// are logged, not propagated; the repository write is the source of
// truth.
type Sink interface {
	Write(ctx context.Context, rec CallRecord) error
}

func NewService(repo Repository, outcomes transfer.OutcomeStore, log *slog.Logger, sinks ...Sink) *Service {
	return &Service{
		repo:     repo,
		outcomes: outcomes,
		sinks:    sinks,
		log:      log,
		clock:    time.Now,
	}
}

// RecordCall builds and persists the record for one finished call. The
// transfer column comes from the outcome store: only a recorded success
// counts as answered.
func (s *Service) RecordCall(ctx context.Context, callSID, callerPhone string, contact extract.Contact) (CallRecord, error) {
	if callSID == "" {
		return CallRecord{}, ErrInvalidRecord
	}

	rec := CallRecord{
		Timestamp:      s.clock(),
		CallSID:        callSID,
		DepartmentCode: contact.Department,
		DepartmentName: DepartmentName(contact.Department),
		CallerPhone:    callerPhone,
		Name:           contact.Name,
		Phone:          contact.Phone,
		Email:          contact.Email,
		Organization:   contact.Organization,
		Summary:        contact.Summary,
		Transfer:       s.transferColumn(ctx, callSID),
	}

	if err := s.repo.Append(ctx, rec); err != nil {
		return CallRecord{}, err
	}
	for _, sink := range s.sinks {
		if err := sink.Write(ctx, rec); err != nil {
			s.log.Warn("report sink write failed", "call_sid", callSID, "err", err)
		}
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context, from, to time.Time) ([]CallRecord, error) {
	return s.repo.List(ctx, from, to)
}

func (s *Service) transferColumn(ctx context.Context, callSID string) string {
	if s.outcomes == nil {
		return TransferNotAnswered
	}
	out, ok, err := s.outcomes.Lookup(ctx, callSID)
	if err != nil {
		s.log.Warn("transfer outcome lookup failed", "call_sid", callSID, "err", err)
		return TransferNotAnswered
	}
	if ok && out.Status == transfer.StatusSuccess {
		return TransferAnswered
	}
	return TransferNotAnswered
}
