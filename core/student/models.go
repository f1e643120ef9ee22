package student

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
)

type Student struct {
	ID             string      `json:"id" db:"id"`
	TenantID       string      `json:"tenantId" db:"tenant_id"`
	UserID         null.String `json:"userId" db:"user_id"`
	GuardianUserID null.String `json:"guardianUserId" db:"guardian_user_id"`
	StudentNumber  string      `json:"studentNumber" db:"student_number"`
	FirstName      string      `json:"firstName" db:"first_name"`
	LastName       string      `json:"lastName" db:"last_name"`
	Email          null.String `json:"email" db:"email"`
	BirthDate      *core.Date  `json:"birthDate" db:"birth_date"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time   `json:"updatedAt" db:"updated_at"`
	DeletedAt      null.Time   `json:"-" db:"deleted_at"`
}

func (s Student) FullName() string { return s.FirstName + " " + s.LastName }

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	StudentNumber  string      `json:"studentNumber" validate:"required,notblank,max=50"`
	FirstName      string      `json:"firstName" validate:"required,notblank,max=100"`
	LastName       string      `json:"lastName" validate:"required,notblank,max=100"`
	Email          null.String `json:"email" validate:"omitempty,email"`
	BirthDate      *core.Date  `json:"birthDate"`
	UserID         null.String `json:"userId" validate:"omitempty,uuid"`
	GuardianUserID null.String `json:"guardianUserId" validate:"omitempty,uuid"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.StudentNumber = core.CleanString(ns.StudentNumber)
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	if ns.Email.Valid {
		ns.Email.String = core.CleanString(ns.Email.String, true /* lower */)
	}
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Empty fields keep their current value.
type UpdateStudent struct {
	StudentNumber  string      `json:"studentNumber" validate:"omitempty,notblank,max=50"`
	FirstName      string      `json:"firstName" validate:"omitempty,notblank,max=100"`
	LastName       string      `json:"lastName" validate:"omitempty,notblank,max=100"`
	Email          null.String `json:"email" validate:"omitempty,email"`
	BirthDate      *core.Date  `json:"birthDate"`
	UserID         null.String `json:"userId" validate:"omitempty,uuid"`
	GuardianUserID null.String `json:"guardianUserId" validate:"omitempty,uuid"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.StudentNumber = core.CleanString(us.StudentNumber)
	us.FirstName = core.CleanString(us.FirstName)
	us.LastName = core.CleanString(us.LastName)
	if us.Email.Valid {
		us.Email.String = core.CleanString(us.Email.String, true /* lower */)
	}
	return validate.Struct(us)
}

type QueryFilter struct {
	Search         string   // case-insensitive match on names, number or email
	IDs            []string // restrict to these students
	UserID         string
	GuardianUserID string
	ClassID        string // enrolled in class
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// ImportRow is a student read from a spreadsheet row (1-based, header included).
type ImportRow struct {
	Row     int
	Student NewStudent
	Err     error // parse error of the row, if any
}

type RowError struct {
	Row    int               `json:"row"`
	Errors map[string]string `json:"errors"`
}

type ImportResult struct {
	Created []Student  `json:"created"`
	Failed  []RowError `json:"failed"`
}
