package class

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/student"
	"github.com/iepapp/iep/core/teacher"
	"github.com/iepapp/iep/core/tenant"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("class")
	ErrEnrollmentNotFound = core.NewNotFoundError("enrollment")
	ErrAssignmentNotFound = core.NewNotFoundError("class teacher")
)

type (
	// Repository persists classes and their memberships for the tenant carried by the context.
	Repository interface {
		Create(ctx context.Context, c *Class) error
		Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]Class, int, error)
		Get(ctx context.Context, id string) (Class, error)
		Update(ctx context.Context, c *Class) error
		SoftDelete(ctx context.Context, id string, at time.Time) error

		// Enroll adds students to a class; already enrolled students are left untouched.
		Enroll(ctx context.Context, classID string, studentIDs []string, at time.Time) error
		Unenroll(ctx context.Context, classID, studentID string) error
		StudentIDs(ctx context.Context, classID string) ([]string, error)
		// EnrollmentCounts returns the number of enrolled students of each class.
		EnrollmentCounts(ctx context.Context, classIDs []string) (map[string]int, error)

		// AssignTeacher creates or replaces the assignment of a teacher to a class.
		AssignTeacher(ctx context.Context, ct *ClassTeacher) error
		RemoveTeacher(ctx context.Context, classID, teacherID string) error
		Teachers(ctx context.Context, classID string) ([]ClassTeacher, error)
	}

	StudentGetter interface {
		Get(ctx context.Context, id string) (student.Student, error)
	}

	TeacherGetter interface {
		Get(ctx context.Context, id string) (teacher.Teacher, error)
	}

	Service struct {
		repo     Repository
		students StudentGetter
		teachers TeacherGetter
	}
)

func NewService(repo Repository, students StudentGetter, teachers TeacherGetter) *Service {
	return &Service{repo: repo, students: students, teachers: teachers}
}

func (svc *Service) Create(ctx context.Context, nc NewClass) (Class, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return Class{}, err
	}
	now := time.Now().UTC()
	c := Class{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Name:         nc.Name,
		GradeLevel:   nc.GradeLevel,
		AcademicYear: nc.AcademicYear,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := svc.repo.Create(ctx, &c); err != nil {
		return Class{}, errors.Wrap(err, "creating class")
	}
	return c, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]Class, int, error) {
	return svc.repo.Query(ctx, filter, opts)
}

func (svc *Service) Get(ctx context.Context, id string) (Class, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateClass) (Class, error) {
	c, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Class{}, err
	}
	if uc.Name != "" {
		c.Name = uc.Name
	}
	if uc.GradeLevel != nil {
		c.GradeLevel = *uc.GradeLevel
	}
	if uc.AcademicYear != "" {
		c.AcademicYear = uc.AcademicYear
	}
	c.UpdatedAt = time.Now().UTC()
	if err := svc.repo.Update(ctx, &c); err != nil {
		return Class{}, errors.Wrap(err, "updating class")
	}
	return c, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.SoftDelete(ctx, id, time.Now().UTC())
}

// Enroll adds students to a class. Every student must exist in the tenant.
func (svc *Service) Enroll(ctx context.Context, classID string, es EnrollStudents) error {
	if _, err := svc.repo.Get(ctx, classID); err != nil {
		return err
	}
	var fields []core.FieldError
	for i, id := range es.StudentIDs {
		if _, err := svc.students.Get(ctx, id); err != nil {
			if !core.IsNotFound(err) {
				return errors.Wrap(err, "finding student")
			}
			fields = append(fields, core.FieldError{Field: fmt.Sprintf("studentIds[%d]", i), Error: student.ErrNotFound.Error()})
		}
	}
	if len(fields) > 0 {
		return core.NewValidationError(nil, fields...)
	}
	return errors.Wrap(svc.repo.Enroll(ctx, classID, es.StudentIDs, time.Now().UTC()), "enrolling students")
}

func (svc *Service) Unenroll(ctx context.Context, classID, studentID string) error {
	return svc.repo.Unenroll(ctx, classID, studentID)
}

func (svc *Service) StudentIDs(ctx context.Context, classID string) ([]string, error) {
	if _, err := svc.repo.Get(ctx, classID); err != nil {
		return nil, err
	}
	return svc.repo.StudentIDs(ctx, classID)
}

// IsEnrolled reports whether the student is enrolled in the class.
func (svc *Service) IsEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	ids, err := svc.repo.StudentIDs(ctx, classID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (svc *Service) EnrollmentCounts(ctx context.Context, classIDs []string) (map[string]int, error) {
	return svc.repo.EnrollmentCounts(ctx, classIDs)
}

func (svc *Service) AssignTeacher(ctx context.Context, classID string, at AssignTeacher) (ClassTeacher, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return ClassTeacher{}, err
	}
	if _, err := svc.repo.Get(ctx, classID); err != nil {
		return ClassTeacher{}, err
	}
	if _, err := svc.teachers.Get(ctx, at.TeacherID); err != nil {
		if core.IsNotFound(err) {
			return ClassTeacher{}, core.NewValidationError(nil, core.FieldError{Field: "teacherId", Error: teacher.ErrNotFound.Error()})
		}
		return ClassTeacher{}, errors.Wrap(err, "finding teacher")
	}
	ct := ClassTeacher{
		TenantID:   tenantID,
		ClassID:    classID,
		TeacherID:  at.TeacherID,
		Subject:    at.Subject,
		AssignedAt: time.Now().UTC(),
	}
	if err := svc.repo.AssignTeacher(ctx, &ct); err != nil {
		return ClassTeacher{}, errors.Wrap(err, "assigning teacher")
	}
	return ct, nil
}

func (svc *Service) RemoveTeacher(ctx context.Context, classID, teacherID string) error {
	return svc.repo.RemoveTeacher(ctx, classID, teacherID)
}

func (svc *Service) Teachers(ctx context.Context, classID string) ([]ClassTeacher, error) {
	if _, err := svc.repo.Get(ctx, classID); err != nil {
		return nil, err
	}
	return svc.repo.Teachers(ctx, classID)
}
