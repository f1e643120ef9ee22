package schedule

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
)

// Entry is a weekly recurring lesson. Times are "HH:MM", the day runs from 1 (Monday) to 7 (Sunday).
type Entry struct {
	ID        string      `json:"id" db:"id"`
	TenantID  string      `json:"tenantId" db:"tenant_id"`
	ClassID   string      `json:"classId" db:"class_id"`
	TeacherID null.String `json:"teacherId" db:"teacher_id"`
	Subject   string      `json:"subject" db:"subject"`
	Room      string      `json:"room" db:"room"`
	Weekday   int         `json:"weekday" db:"weekday"`
	StartTime string      `json:"startTime" db:"start_time"`
	EndTime   string      `json:"endTime" db:"end_time"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time   `json:"updatedAt" db:"updated_at"`
}

// Overlaps reports whether both entries take place at the same time.
// HH:MM times compare lexically; intervals are half-open.
func (e Entry) Overlaps(o Entry) bool {
	return e.Weekday == o.Weekday && e.StartTime < o.EndTime && o.StartTime < e.EndTime
}

type NewEntry struct {
	ClassID   string      `json:"classId" validate:"required,uuid"`
	TeacherID null.String `json:"teacherId" validate:"omitempty,uuid"`
	Subject   string      `json:"subject" validate:"required,notblank,max=100"`
	Room      string      `json:"room" validate:"max=50"`
	Weekday   int         `json:"weekday" validate:"weekday"`
	StartTime string      `json:"startTime" validate:"required,hhmm"`
	EndTime   string      `json:"endTime" validate:"required,hhmm"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.Subject = core.CleanString(ne.Subject)
	ne.Room = core.CleanString(ne.Room)
	return validate.Struct(ne)
}

type UpdateEntry struct {
	TeacherID null.String `json:"teacherId" validate:"omitempty,uuid"`
	Subject   string      `json:"subject" validate:"omitempty,notblank,max=100"`
	Room      *string     `json:"room" validate:"omitempty,max=50"`
	Weekday   *int        `json:"weekday" validate:"omitempty,weekday"`
	StartTime string      `json:"startTime" validate:"omitempty,hhmm"`
	EndTime   string      `json:"endTime" validate:"omitempty,hhmm"`
}

func (ue *UpdateEntry) Validate(validate *validator.Validate) error {
	ue.Subject = core.CleanString(ue.Subject)
	return validate.Struct(ue)
}

type QueryFilter struct {
	ClassID   string
	ClassIDs  []string
	TeacherID string
	Room      string
	Weekday   int
}

// Conflict reasons
const (
	ReasonClass   = "class"
	ReasonTeacher = "teacher"
	ReasonRoom    = "room"
)

// Conflict is a pair of overlapping entries sharing a class, a teacher or a room.
type Conflict struct {
	EntryID       string   `json:"entryId"`
	ConflictingID string   `json:"conflictingId"`
	Weekday       int      `json:"weekday"`
	Reasons       []string `json:"reasons"`
}
