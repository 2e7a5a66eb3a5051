package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

// JobData stores a render job's payload in a JSONB column: the request
// parameters at submit time, with the result descriptor merged in under
// "result" on completion.
type JobData map[string]any

// Scan implements sql.Scanner for reading from the database.
func (d *JobData) Scan(value any) error {
	if value == nil {
		*d = JobData{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("db.JobData.Scan: expected []byte or string, got %T", value)
	}
}

// Value implements driver.Valuer for writing to the database.
func (d JobData) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(d))
}

// ScanText implements the pgtype.TextScanner interface for pgx v5.
func (d *JobData) ScanText(v pgtype.Text) error {
	if !v.Valid {
		*d = JobData{}
		return nil
	}
	return json.Unmarshal([]byte(v.String), d)
}

// TextValue implements the pgtype.TextValuer interface for pgx v5.
func (d JobData) TextValue() (pgtype.Text, error) {
	b, err := json.Marshal(map[string]any(d))
	if err != nil {
		return pgtype.Text{}, err
	}
	return pgtype.Text{String: string(b), Valid: true}, nil
}

// Result returns the result descriptor stored under "result", or nil when
// the job has not completed.
func (d JobData) Result() map[string]any {
	r, ok := d["result"].(map[string]any)
	if !ok {
		return nil
	}
	return r
}
