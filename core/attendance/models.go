package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusExcused = "excused"
)

// Record is the attendance of a student to a class on a date.
type Record struct {
	ID         string      `json:"id" db:"id"`
	TenantID   string      `json:"tenantId" db:"tenant_id"`
	ClassID    string      `json:"classId" db:"class_id"`
	StudentID  string      `json:"studentId" db:"student_id"`
	Date       core.Date   `json:"date" db:"date"`
	Status     string      `json:"status" db:"status"`
	Note       string      `json:"note" db:"note"`
	RecordedBy null.String `json:"recordedBy" db:"recorded_by"`
	CreatedAt  time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time   `json:"updatedAt" db:"updated_at"`
}

type NewRecord struct {
	ClassID   string     `json:"classId" validate:"required,uuid"`
	StudentID string     `json:"studentId" validate:"required,uuid"`
	Date      *core.Date `json:"date" validate:"required"`
	Status    string     `json:"status" validate:"required,oneof=present absent late excused"`
	Note      string     `json:"note" validate:"max=500"`
}

func (nr *NewRecord) Validate(validate *validator.Validate) error {
	nr.Status = core.CleanString(nr.Status, true /* lower */)
	nr.Note = core.CleanString(nr.Note)
	return validate.Struct(nr)
}

type BulkEntry struct {
	StudentID string `json:"studentId" validate:"required,uuid"`
	Status    string `json:"status" validate:"required,oneof=present absent late excused"`
	Note      string `json:"note" validate:"max=500"`
}

// BulkRecord records the attendance of a class roster on a date.
type BulkRecord struct {
	ClassID string      `json:"classId" validate:"required,uuid"`
	Date    *core.Date  `json:"date" validate:"required"`
	Entries []BulkEntry `json:"entries" validate:"required,min=1,dive"`
}

func (br *BulkRecord) Validate(validate *validator.Validate) error {
	for i := range br.Entries {
		br.Entries[i].Status = core.CleanString(br.Entries[i].Status, true /* lower */)
		br.Entries[i].Note = core.CleanString(br.Entries[i].Note)
	}
	return validate.Struct(br)
}

type UpdateRecord struct {
	Status string  `json:"status" validate:"omitempty,oneof=present absent late excused"`
	Note   *string `json:"note" validate:"omitempty,max=500"`
}

func (ur *UpdateRecord) Validate(validate *validator.Validate) error {
	ur.Status = core.CleanString(ur.Status, true /* lower */)
	return validate.Struct(ur)
}

type QueryFilter struct {
	ClassID    string
	StudentID  string
	StudentIDs []string
	Status     string
	DateFrom   *core.Date
	DateTo     *core.Date
}

// Summary counts records by status.
type Summary struct {
	Total          int     `json:"total"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	Late           int     `json:"late"`
	Excused        int     `json:"excused"`
	AttendanceRate float64 `json:"attendanceRate"` // percent of present or late
}
