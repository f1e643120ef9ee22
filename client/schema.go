package client

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/assignment"
	"github.com/iepapp/iep/core/attendance"
	"github.com/iepapp/iep/core/class"
	"github.com/iepapp/iep/core/grade"
	"github.com/iepapp/iep/core/student"
	"github.com/iepapp/iep/core/teacher"
)

// Request payloads are the API inputs.
type (
	NewAssignment          = assignment.NewAssignment
	UpdateAssignment       = assignment.UpdateAssignment
	NewStudent             = student.NewStudent
	UpdateStudent          = student.UpdateStudent
	NewTeacher             = teacher.NewTeacher
	UpdateTeacher          = teacher.UpdateTeacher
	NewClass               = class.NewClass
	UpdateClass            = class.UpdateClass
	NewGrade               = grade.NewGrade
	UpdateGrade            = grade.UpdateGrade
	NewAttendanceRecord    = attendance.NewRecord
	UpdateAttendanceRecord = attendance.UpdateRecord
	BulkAttendance         = attendance.BulkRecord
)

// Response schemas. Numeric fields for which zero is a valid value are pointers so that a
// missing field fails validation.

type Pagination struct {
	Page       int  `json:"page" validate:"gte=1"`
	PerPage    int  `json:"perPage" validate:"gte=0"`
	Total      int  `json:"total" validate:"gte=0"`
	TotalPages int  `json:"totalPages" validate:"gte=0"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// Page is a paginated list response.
type Page[T any] struct {
	Data       []T        `json:"data" validate:"required,dive"`
	Pagination Pagination `json:"pagination"`
}

type Assignment struct {
	ID          string      `json:"id" validate:"required"`
	ClassID     string      `json:"classId" validate:"required"`
	TeacherID   null.String `json:"teacherId"`
	Title       string      `json:"title" validate:"required"`
	Description string      `json:"description"`
	DueDate     time.Time   `json:"dueDate" validate:"required"`
	MaxScore    float64     `json:"maxScore" validate:"gt=0"`
	Status      string      `json:"status" validate:"oneof=draft active closed"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type AssignmentStatistics struct {
	TotalAssignments    *int     `json:"totalAssignments" validate:"required,gte=0"`
	ActiveAssignments   *int     `json:"activeAssignments" validate:"required,gte=0"`
	DraftAssignments    *int     `json:"draftAssignments" validate:"omitempty,gte=0"`
	ClosedAssignments   *int     `json:"closedAssignments" validate:"omitempty,gte=0"`
	OverdueAssignments  *int     `json:"overdueAssignments" validate:"omitempty,gte=0"`
	GradedSubmissions   *int     `json:"gradedSubmissions" validate:"omitempty,gte=0"`
	ExpectedSubmissions *int     `json:"expectedSubmissions" validate:"omitempty,gte=0"`
	AverageScore        *float64 `json:"averageScore" validate:"required,gte=0,lte=100"`
	CompletionRate      *float64 `json:"completionRate" validate:"required,gte=0,lte=100"`
}

type Student struct {
	ID             string      `json:"id" validate:"required"`
	UserID         null.String `json:"userId"`
	GuardianUserID null.String `json:"guardianUserId"`
	StudentNumber  string      `json:"studentNumber" validate:"required"`
	FirstName      string      `json:"firstName" validate:"required"`
	LastName       string      `json:"lastName" validate:"required"`
	Email          null.String `json:"email"`
	BirthDate      *core.Date  `json:"birthDate"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

type Teacher struct {
	ID             string      `json:"id" validate:"required"`
	UserID         null.String `json:"userId"`
	EmployeeNumber string      `json:"employeeNumber" validate:"required"`
	FirstName      string      `json:"firstName" validate:"required"`
	LastName       string      `json:"lastName" validate:"required"`
	Email          null.String `json:"email"`
	Subject        null.String `json:"subject"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

type Class struct {
	ID           string    `json:"id" validate:"required"`
	Name         string    `json:"name" validate:"required"`
	GradeLevel   *int      `json:"gradeLevel" validate:"required,gte=0,lte=12"`
	AcademicYear string    `json:"academicYear" validate:"required"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Grade struct {
	ID           string      `json:"id" validate:"required"`
	StudentID    string      `json:"studentId" validate:"required"`
	ClassID      string      `json:"classId" validate:"required"`
	AssignmentID null.String `json:"assignmentId"`
	Score        *float64    `json:"score" validate:"required,gte=0"`
	MaxScore     float64     `json:"maxScore" validate:"gt=0"`
	Comment      string      `json:"comment"`
	GradedBy     null.String `json:"gradedBy"`
	GradedAt     time.Time   `json:"gradedAt"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

type AttendanceRecord struct {
	ID         string      `json:"id" validate:"required"`
	ClassID    string      `json:"classId" validate:"required"`
	StudentID  string      `json:"studentId" validate:"required"`
	Date       *core.Date  `json:"date" validate:"required"`
	Status     string      `json:"status" validate:"oneof=present absent late excused"`
	Note       string      `json:"note"`
	RecordedBy null.String `json:"recordedBy"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// decode validates body against the schema of out before storing it into out.
func (c *Client) decode(ep, body string, out interface{}) error {
	if out == nil {
		return nil
	}
	dest := reflect.New(reflect.TypeOf(out).Elem())
	if err := json.Unmarshal([]byte(body), dest.Interface()); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			e := c.newError(CategoryValidation, ep, "invalid response: "+err.Error(), err)
			e.Fields = map[string]string{typeErr.Field: "must be a " + typeErr.Type.String()}
			return e
		}
		return c.newError(CategoryUnknown, ep, errors.Wrap(err, "decoding response").Error(), err)
	}

	var err error
	if dest.Elem().Kind() == reflect.Slice {
		err = c.validate.Var(dest.Elem().Interface(), "dive")
	} else {
		err = c.validate.Struct(dest.Interface())
	}
	if err != nil {
		var vErrs validator.ValidationErrors
		if !errors.As(err, &vErrs) {
			return c.newError(CategoryValidation, ep, err.Error(), err)
		}
		fields := c.schemaFields(vErrs, dest.Elem().Type().Name())
		e := c.newError(CategoryValidation, ep, "invalid response: "+fieldsMessage(fields), err)
		e.Fields = fields
		return e
	}

	reflect.ValueOf(out).Elem().Set(dest.Elem())
	return nil
}

// schemaFields maps the JSON path of every invalid field ("data[0].status") to its message.
// root is the type name prefixing the namespaces of struct errors.
func (c *Client) schemaFields(errs validator.ValidationErrors, root string) map[string]string {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		ns := fe.Namespace()
		if root != "" {
			ns = strings.TrimPrefix(ns, root+".")
		}
		fields[ns] = fe.Translate(c.translator)
	}
	return fields
}
