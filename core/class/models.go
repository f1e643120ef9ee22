package class

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
)

type Class struct {
	ID           string    `json:"id" db:"id"`
	TenantID     string    `json:"tenantId" db:"tenant_id"`
	Name         string    `json:"name" db:"name"`
	GradeLevel   int       `json:"gradeLevel" db:"grade_level"`
	AcademicYear string    `json:"academicYear" db:"academic_year"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
	DeletedAt    null.Time `json:"-" db:"deleted_at"`
}

// ClassTeacher assigns a teacher to a class, optionally for one subject.
type ClassTeacher struct {
	TenantID   string    `json:"tenantId" db:"tenant_id"`
	ClassID    string    `json:"classId" db:"class_id"`
	TeacherID  string    `json:"teacherId" db:"teacher_id"`
	Subject    string    `json:"subject" db:"subject"`
	AssignedAt time.Time `json:"assignedAt" db:"assigned_at"`
}

// NewClass contains information needed to create a new Class.
type NewClass struct {
	Name         string `json:"name" validate:"required,notblank,max=100"`
	GradeLevel   int    `json:"gradeLevel" validate:"min=0,max=12"`
	AcademicYear string `json:"academicYear" validate:"required,academicyear"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.AcademicYear = core.CleanString(nc.AcademicYear)
	return validate.Struct(nc)
}

// UpdateClass defines what information may be provided to modify an existing Class.
type UpdateClass struct {
	Name         string `json:"name" validate:"omitempty,notblank,max=100"`
	GradeLevel   *int   `json:"gradeLevel" validate:"omitempty,min=0,max=12"`
	AcademicYear string `json:"academicYear" validate:"omitempty,academicyear"`
}

func (uc *UpdateClass) Validate(validate *validator.Validate) error {
	uc.Name = core.CleanString(uc.Name)
	uc.AcademicYear = core.CleanString(uc.AcademicYear)
	return validate.Struct(uc)
}

type EnrollStudents struct {
	StudentIDs []string `json:"studentIds" validate:"required,min=1,dive,uuid"`
}

func (es *EnrollStudents) Validate(validate *validator.Validate) error {
	return validate.Struct(es)
}

type AssignTeacher struct {
	TeacherID string `json:"teacherId" validate:"required,uuid"`
	Subject   string `json:"subject" validate:"max=100"`
}

func (at *AssignTeacher) Validate(validate *validator.Validate) error {
	at.Subject = core.CleanString(at.Subject)
	return validate.Struct(at)
}

type QueryFilter struct {
	Search       string
	GradeLevel   *int
	AcademicYear string
	IDs          []string
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.AcademicYear = core.CleanString(qf.AcademicYear)
}
