package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
)

// Statuses
const (
	StatusDraft  = "draft"
	StatusActive = "active"
	StatusClosed = "closed"

	DefaultMaxScore = 100
)

type Assignment struct {
	ID          string      `json:"id" db:"id"`
	TenantID    string      `json:"tenantId" db:"tenant_id"`
	ClassID     string      `json:"classId" db:"class_id"`
	TeacherID   null.String `json:"teacherId" db:"teacher_id"`
	Title       string      `json:"title" db:"title"`
	Description string      `json:"description" db:"description"`
	DueDate     time.Time   `json:"dueDate" db:"due_date"`
	MaxScore    float64     `json:"maxScore" db:"max_score"`
	Status      string      `json:"status" db:"status"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time   `json:"updatedAt" db:"updated_at"`
	DeletedAt   null.Time   `json:"-" db:"deleted_at"`
}

// IsOverdue reports whether an active assignment is past its due date.
func (a Assignment) IsOverdue(now time.Time) bool {
	return a.Status == StatusActive && a.DueDate.Before(now)
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	ClassID     string      `json:"classId" validate:"required,uuid"`
	TeacherID   null.String `json:"teacherId" validate:"omitempty,uuid"`
	Title       string      `json:"title" validate:"required,notblank,max=200"`
	Description string      `json:"description" validate:"max=5000"`
	DueDate     time.Time   `json:"dueDate" validate:"required"`
	MaxScore    float64     `json:"maxScore" validate:"gt=0,lte=1000"`
	Status      string      `json:"status" validate:"omitempty,oneof=draft active closed"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.Status = core.CleanString(na.Status, true /* lower */)
	if na.Status == "" {
		na.Status = StatusDraft
	}
	if na.MaxScore == 0 {
		na.MaxScore = DefaultMaxScore
	}
	return validate.Struct(na)
}

// UpdateAssignment defines what information may be provided to modify an existing Assignment.
type UpdateAssignment struct {
	Title       string     `json:"title" validate:"omitempty,notblank,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	DueDate     *time.Time `json:"dueDate"`
	MaxScore    *float64   `json:"maxScore" validate:"omitempty,gt=0,lte=1000"`
	Status      string     `json:"status" validate:"omitempty,oneof=draft active closed"`
}

func (ua *UpdateAssignment) Validate(validate *validator.Validate) error {
	ua.Title = core.CleanString(ua.Title)
	ua.Status = core.CleanString(ua.Status, true /* lower */)
	return validate.Struct(ua)
}

type QueryFilter struct {
	Search    string
	ClassID   string
	ClassIDs  []string // restrict to these classes (e.g. a student's classes)
	TeacherID string
	Status    string
	DueFrom   time.Time
	DueTo     time.Time
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

// Statistics summarizes the assignments matching a filter.
type Statistics struct {
	TotalAssignments    int     `json:"totalAssignments"`
	ActiveAssignments   int     `json:"activeAssignments"`
	DraftAssignments    int     `json:"draftAssignments"`
	ClosedAssignments   int     `json:"closedAssignments"`
	OverdueAssignments  int     `json:"overdueAssignments"`
	GradedSubmissions   int     `json:"gradedSubmissions"`
	ExpectedSubmissions int     `json:"expectedSubmissions"`
	AverageScore        float64 `json:"averageScore"`   // percent
	CompletionRate      float64 `json:"completionRate"` // percent
}

// Score is a graded submission of an assignment.
type Score struct {
	AssignmentID string
	StudentID    string
	Score        float64
	MaxScore     float64
}
