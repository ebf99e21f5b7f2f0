package reporting

import (
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meshahzad92/Inbound-Calling/internal/extract"
	"github.com/meshahzad92/Inbound-Calling/internal/transfer"
)

func TestRecordCallMarksAnsweredFromOutcomeStore(t *testing.T) {
	store := transfer.NewMemoryStore(time.Hour)
	store.Record(context.Background(), transfer.Outcome{
		CallerLegID: "CA_1",
		Status:      transfer.StatusSuccess,
		CompletedAt: time.Now(),
	})
	svc := NewService(NewMemoryRepo(), store, slog.Default())

	rec, err := svc.RecordCall(context.Background(), "CA_1", "+15551230000", extract.Contact{
		Name: "Maria", Department: "management",
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Transfer != TransferAnswered {
		t.Fatalf("expected %q, got %q", TransferAnswered, rec.Transfer)
	}
	if rec.DepartmentName != "Management Team" {
		t.Fatalf("unexpected department %q", rec.DepartmentName)
	}
}

func TestRecordCallMissingOutcomeMeansNotAnswered(t *testing.T) {
	svc := NewService(NewMemoryRepo(), transfer.NewMemoryStore(time.Hour), slog.Default())

	rec, err := svc.RecordCall(context.Background(), "CA_2", "+15551230000", extract.Contact{Department: "press"})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Transfer != TransferNotAnswered {
		t.Fatalf("absence of an outcome must read as %q, got %q", TransferNotAnswered, rec.Transfer)
	}
}

func TestRecordCallFailedOutcomeMeansNotAnswered(t *testing.T) {
	store := transfer.NewMemoryStore(time.Hour)
	store.Record(context.Background(), transfer.Outcome{
		CallerLegID: "CA_3",
		Status:      transfer.StatusFailed,
		CompletedAt: time.Now(),
	})
	svc := NewService(NewMemoryRepo(), store, slog.Default())

	rec, _ := svc.RecordCall(context.Background(), "CA_3", "+15551230000", extract.Contact{Department: "sales"})
	if rec.Transfer != TransferNotAnswered {
		t.Fatalf("failed transfer must read as %q, got %q", TransferNotAnswered, rec.Transfer)
	}
}

func TestRecordCallRequiresCallSID(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil, slog.Default())
	if _, err := svc.RecordCall(context.Background(), "", "+15551230000", extract.Contact{}); err != ErrInvalidRecord {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestDepartmentNameMapping(t *testing.T) {
	cases := map[string]string{
		"1":          "¡VIVA! Audio Bible",
		"viva":       "¡VIVA! Audio Bible",
		"Casting":    "Casting & Talent",
		"6":          "Management Team",
		"voicemail":  "General Voicemail",
		"0":          "General Voicemail",
		"unknown":    "Unknown Department",
		"":           "Unknown Department",
	}
	for in, want := range cases {
		if got := DepartmentName(in); got != want {
			t.Errorf("DepartmentName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCSVSinkWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Progress.csv")
	sink := NewCSVSink(path)
	svc := NewService(NewMemoryRepo(), nil, slog.Default(), sink)

	for _, sid := range []string{"CA_a", "CA_b"} {
		if _, err := svc.RecordCall(context.Background(), sid, "+15551230000", extract.Contact{Department: "viva"}); err != nil {
			t.Fatal(err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus two rows, got %d", len(rows))
	}
	if rows[0][1] != "callSid" || rows[1][1] != "CA_a" || rows[2][1] != "CA_b" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestMemoryRepoListFiltersByTime(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		repo.Append(context.Background(), CallRecord{
			CallSID:   "CA",
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
	}
	got, err := repo.List(context.Background(), base.Add(30*time.Minute), base.Add(150*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records in range, got %d", len(got))
	}
}
