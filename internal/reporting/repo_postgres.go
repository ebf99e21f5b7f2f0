package reporting

import (
	"context"
	"database/sql"
	"time"

	"github.com/meshahzad92/Inbound-Calling/pkg/utils"
)

// PostgresRepo persists call records in a single append-only table.
//
// Expected schema:
//
//	CREATE TABLE IF NOT EXISTS call_records (
//	    id              BIGSERIAL PRIMARY KEY,
//	    ts              TIMESTAMPTZ NOT NULL,
//	    call_sid        TEXT NOT NULL,
//	    department_code TEXT NOT NULL,
//	    department_name TEXT NOT NULL,
//	    caller_phone    TEXT NOT NULL,
//	    name            TEXT NOT NULL,
//	    phone           TEXT NOT NULL,
//	    email           TEXT NOT NULL,
//	    organization    TEXT NOT NULL,
//	    summary         TEXT NOT NULL,
//	    transfer        TEXT NOT NULL
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, rec CallRecord) error {
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO call_records
			    (ts, call_sid, department_code, department_name, caller_phone,
			     name, phone, email, organization, summary, transfer)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			rec.Timestamp, rec.CallSID, rec.DepartmentCode, rec.DepartmentName,
			rec.CallerPhone, rec.Name, rec.Phone, rec.Email, rec.Organization,
			rec.Summary, rec.Transfer,
		)
		return err
	})
}

func (r *PostgresRepo) List(ctx context.Context, from, to time.Time) ([]CallRecord, error) {
	if to.IsZero() {
		to = time.Now().Add(24 * time.Hour)
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT ts, call_sid, department_code, department_name, caller_phone,
		       name, phone, email, organization, summary, transfer
		FROM call_records
		WHERE ts >= $1 AND ts < $2
		ORDER BY ts`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CallRecord, 0)
	for rows.Next() {
		var rec CallRecord
		if err := rows.Scan(
			&rec.Timestamp, &rec.CallSID, &rec.DepartmentCode, &rec.DepartmentName,
			&rec.CallerPhone, &rec.Name, &rec.Phone, &rec.Email, &rec.Organization,
			&rec.Summary, &rec.Transfer,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
