package grade

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
)

type Grade struct {
	ID           string      `json:"id" db:"id"`
	TenantID     string      `json:"tenantId" db:"tenant_id"`
	StudentID    string      `json:"studentId" db:"student_id"`
	ClassID      string      `json:"classId" db:"class_id"`
	AssignmentID null.String `json:"assignmentId" db:"assignment_id"`
	Score        float64     `json:"score" db:"score"`
	MaxScore     float64     `json:"maxScore" db:"max_score"`
	Comment      string      `json:"comment" db:"comment"`
	GradedBy     null.String `json:"gradedBy" db:"graded_by"`
	GradedAt     time.Time   `json:"gradedAt" db:"graded_at"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`
}

// Percentage returns the score as a percentage of the maximum score.
func (g Grade) Percentage() float64 {
	return core.Percentage(g.Score, g.MaxScore)
}

// NewGrade contains information needed to record a new Grade.
// The class and the maximum score of an assignment grade are taken from the assignment.
type NewGrade struct {
	StudentID    string      `json:"studentId" validate:"required,uuid"`
	ClassID      string      `json:"classId" validate:"omitempty,uuid"`
	AssignmentID null.String `json:"assignmentId" validate:"omitempty,uuid"`
	Score        float64     `json:"score" validate:"gte=0"`
	MaxScore     float64     `json:"maxScore" validate:"omitempty,gt=0,lte=1000"`
	Comment      string      `json:"comment" validate:"max=2000"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	ng.Comment = core.CleanString(ng.Comment)
	return validate.Struct(ng)
}

// UpdateGrade defines what information may be provided to modify an existing Grade.
type UpdateGrade struct {
	Score   *float64 `json:"score" validate:"omitempty,gte=0"`
	Comment *string  `json:"comment" validate:"omitempty,max=2000"`
}

func (ug *UpdateGrade) Validate(validate *validator.Validate) error {
	return validate.Struct(ug)
}

type QueryFilter struct {
	StudentID     string
	StudentIDs    []string
	ClassID       string
	AssignmentID  string
	AssignmentIDs []string
}

// ClassSummary aggregates the grades of a student in one class.
type ClassSummary struct {
	ClassID           string  `json:"classId"`
	Count             int     `json:"count"`
	AveragePercentage float64 `json:"averagePercentage"`
}

type Summary struct {
	StudentID         string         `json:"studentId"`
	Count             int            `json:"count"`
	AveragePercentage float64        `json:"averagePercentage"`
	Classes           []ClassSummary `json:"classes"`
}
