package reporting

import (
	"context"
	"encoding/csv"
	"os"
	"sync"
)

var csvHeader = []string{
	"timestamp", "callSid", "departmentCode", "departmentName", "callerPhone",
	"name", "phone", "email", "organization", "summary", "transfer",
}

// CSVSink appends call records to a local CSV file, writing the header
// when it creates the file. The office pulls this file directly, so the
// column set stays stable.
type CSVSink struct {
	mu   sync.Mutex
	path string
}

func NewCSVSink(path string) *CSVSink {
	if path == "" {
		path = "Progress.csv"
	}
	return &CSVSink{path: path}
}

func (s *CSVSink) Write(ctx context.Context, rec CallRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, statErr := os.Stat(s.path)
	newFile := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if newFile {
		if err := w.Write(csvHeader); err != nil {
			return err
		}
	}
	if err := w.Write([]string{
		rec.Timestamp.Format("2006-01-02 15:04:05"),
		rec.CallSID,
		rec.DepartmentCode,
		rec.DepartmentName,
		rec.CallerPhone,
		rec.Name,
		rec.Phone,
		rec.Email,
		rec.Organization,
		rec.Summary,
		rec.Transfer,
	}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
