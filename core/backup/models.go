package backup

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

// Triggers
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// Statuses
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusVerified  = "verified"
)

// Manifest maps each tenant table to its row count.
type Manifest map[string]int64

func (m *Manifest) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.Errorf("backup.Manifest: cannot scan %T", value)
	}
	return json.Unmarshal(b, m)
}

func (m Manifest) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

type Job struct {
	ID          string    `json:"id" db:"id"`
	TenantID    string    `json:"tenantId" db:"tenant_id"`
	Trigger     string    `json:"trigger" db:"trigger"`
	Status      string    `json:"status" db:"status"`
	Manifest    Manifest  `json:"manifest" db:"manifest"`
	Error       string    `json:"error" db:"error"`
	StartedAt   null.Time `json:"startedAt" db:"started_at"`
	CompletedAt null.Time `json:"completedAt" db:"completed_at"`
	VerifiedAt  null.Time `json:"verifiedAt" db:"verified_at"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

type QueryFilter struct {
	Status  string
	Trigger string
}
