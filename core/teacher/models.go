package teacher

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
)

type Teacher struct {
	ID             string      `json:"id" db:"id"`
	TenantID       string      `json:"tenantId" db:"tenant_id"`
	UserID         null.String `json:"userId" db:"user_id"`
	EmployeeNumber string      `json:"employeeNumber" db:"employee_number"`
	FirstName      string      `json:"firstName" db:"first_name"`
	LastName       string      `json:"lastName" db:"last_name"`
	Email          null.String `json:"email" db:"email"`
	Subject        null.String `json:"subject" db:"subject"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time   `json:"updatedAt" db:"updated_at"`
	DeletedAt      null.Time   `json:"-" db:"deleted_at"`
}

// NewTeacher contains information needed to create a new Teacher.
type NewTeacher struct {
	EmployeeNumber string      `json:"employeeNumber" validate:"required,notblank,max=50"`
	FirstName      string      `json:"firstName" validate:"required,notblank,max=100"`
	LastName       string      `json:"lastName" validate:"required,notblank,max=100"`
	Email          null.String `json:"email" validate:"omitempty,email"`
	Subject        null.String `json:"subject" validate:"omitempty,max=100"`
	UserID         null.String `json:"userId" validate:"omitempty,uuid"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.EmployeeNumber = core.CleanString(nt.EmployeeNumber)
	nt.FirstName = core.CleanString(nt.FirstName)
	nt.LastName = core.CleanString(nt.LastName)
	if nt.Email.Valid {
		nt.Email.String = core.CleanString(nt.Email.String, true /* lower */)
	}
	return validate.Struct(nt)
}

// UpdateTeacher defines what information may be provided to modify an existing Teacher.
type UpdateTeacher struct {
	EmployeeNumber string      `json:"employeeNumber" validate:"omitempty,notblank,max=50"`
	FirstName      string      `json:"firstName" validate:"omitempty,notblank,max=100"`
	LastName       string      `json:"lastName" validate:"omitempty,notblank,max=100"`
	Email          null.String `json:"email" validate:"omitempty,email"`
	Subject        null.String `json:"subject" validate:"omitempty,max=100"`
	UserID         null.String `json:"userId" validate:"omitempty,uuid"`
}

func (ut *UpdateTeacher) Validate(validate *validator.Validate) error {
	ut.EmployeeNumber = core.CleanString(ut.EmployeeNumber)
	ut.FirstName = core.CleanString(ut.FirstName)
	ut.LastName = core.CleanString(ut.LastName)
	if ut.Email.Valid {
		ut.Email.String = core.CleanString(ut.Email.String, true /* lower */)
	}
	return validate.Struct(ut)
}

type QueryFilter struct {
	Search  string
	Subject string
	UserID  string
	ClassID string // assigned to class
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Subject = core.CleanString(qf.Subject)
}
