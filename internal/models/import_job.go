package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ImportStatus captures bulk import job lifecycle states.
type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusFailed     ImportStatus = "failed"
)

// Terminal reports whether no further transition can occur.
func (s ImportStatus) Terminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusFailed
}

// ImportJob is the persisted progress record for one bulk import run.
// Counters are monotone and satisfy processed = successful + failed <= total.
type ImportJob struct {
	ID             string       `db:"id" json:"id"`
	Status         ImportStatus `db:"status" json:"status"`
	TotalRows      int          `db:"total_rows" json:"totalRows"`
	ProcessedRows  int          `db:"processed_rows" json:"processedRows"`
	SuccessfulRows int          `db:"successful_rows" json:"successfulRows"`
	FailedRows     int          `db:"failed_rows" json:"failedRows"`
	Errors         RowErrors    `db:"errors" json:"errors"`
	Payload        string       `db:"payload" json:"-"`
	CreatedAt      time.Time    `db:"created_at" json:"createdAt"`
	FinishedAt     *time.Time   `db:"finished_at" json:"finishedAt,omitempty"`
}

// RowErrors is the append-only per-row failure log persisted as JSONB.
type RowErrors []string

// Value marshals the error log to JSON for persistence.
func (e RowErrors) Value() (driver.Value, error) {
	if e == nil {
		e = RowErrors{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal import row errors: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the error log.
func (e *RowErrors) Scan(value interface{}) error {
	if value == nil {
		*e = RowErrors{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for RowErrors", value)
	}
	if len(data) == 0 {
		*e = RowErrors{}
		return nil
	}
	if err := json.Unmarshal(data, e); err != nil {
		return fmt.Errorf("unmarshal import row errors: %w", err)
	}
	return nil
}
