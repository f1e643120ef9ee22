package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/class"
	"github.com/iepapp/iep/core/teacher"
	"github.com/iepapp/iep/core/tenant"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("schedule entry")
	ErrConflict = errors.New("the entry overlaps other entries")
)

type (
	// Repository persists schedule entries of the tenant carried by the context.
	Repository interface {
		Create(ctx context.Context, e *Entry) error
		Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]Entry, int, error)
		Get(ctx context.Context, id string) (Entry, error)
		Update(ctx context.Context, e *Entry) error
		Delete(ctx context.Context, id string) error
	}

	ClassGetter interface {
		Get(ctx context.Context, id string) (class.Class, error)
	}

	TeacherGetter interface {
		Get(ctx context.Context, id string) (teacher.Teacher, error)
	}

	Service struct {
		repo     Repository
		classes  ClassGetter
		teachers TeacherGetter
	}
)

func NewService(repo Repository, classes ClassGetter, teachers TeacherGetter) *Service {
	return &Service{repo: repo, classes: classes, teachers: teachers}
}

// check validates the references and the time slot of `e` against the other entries of its weekday.
func (svc *Service) check(ctx context.Context, e Entry) error {
	if e.EndTime <= e.StartTime {
		return core.NewValidationError(nil, core.FieldError{Field: "endTime", Error: "must be after startTime"})
	}
	if _, err := svc.classes.Get(ctx, e.ClassID); err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(nil, core.FieldError{Field: "classId", Error: class.ErrNotFound.Error()})
		}
		return errors.Wrap(err, "finding class")
	}
	if e.TeacherID.Valid {
		if _, err := svc.teachers.Get(ctx, e.TeacherID.String); err != nil {
			if core.IsNotFound(err) {
				return core.NewValidationError(nil, core.FieldError{Field: "teacherId", Error: teacher.ErrNotFound.Error()})
			}
			return errors.Wrap(err, "finding teacher")
		}
	}

	sameDay, _, err := svc.repo.Query(ctx, QueryFilter{Weekday: e.Weekday}, core.AllRows)
	if err != nil {
		return errors.Wrap(err, "querying schedule")
	}
	conflicts := conflictsWith(e, sameDay)
	if len(conflicts) == 0 {
		return nil
	}
	fields := make([]core.FieldError, 0, len(conflicts))
	for _, c := range conflicts {
		fields = append(fields, core.FieldError{
			Field: "conflicts." + c.ConflictingID,
			Error: fmt.Sprintf("overlaps on %s", strings.Join(c.Reasons, ", ")),
		})
	}
	return core.NewValidationError(ErrConflict, fields...)
}

func (svc *Service) Create(ctx context.Context, ne NewEntry) (Entry, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return Entry{}, err
	}
	now := time.Now().UTC()
	e := Entry{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		ClassID:   ne.ClassID,
		TeacherID: ne.TeacherID,
		Subject:   ne.Subject,
		Room:      ne.Room,
		Weekday:   ne.Weekday,
		StartTime: ne.StartTime,
		EndTime:   ne.EndTime,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := svc.check(ctx, e); err != nil {
		return Entry{}, err
	}
	if err := svc.repo.Create(ctx, &e); err != nil {
		return Entry{}, errors.Wrap(err, "creating schedule entry")
	}
	return e, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]Entry, int, error) {
	return svc.repo.Query(ctx, filter, opts)
}

func (svc *Service) Get(ctx context.Context, id string) (Entry, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, ue UpdateEntry) (Entry, error) {
	e, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if ue.TeacherID.Valid {
		e.TeacherID = ue.TeacherID
	}
	if ue.Subject != "" {
		e.Subject = ue.Subject
	}
	if ue.Room != nil {
		e.Room = core.CleanString(*ue.Room)
	}
	if ue.Weekday != nil {
		e.Weekday = *ue.Weekday
	}
	if ue.StartTime != "" {
		e.StartTime = ue.StartTime
	}
	if ue.EndTime != "" {
		e.EndTime = ue.EndTime
	}
	if err := svc.check(ctx, e); err != nil {
		return Entry{}, err
	}
	e.UpdatedAt = time.Now().UTC()
	if err := svc.repo.Update(ctx, &e); err != nil {
		return Entry{}, errors.Wrap(err, "updating schedule entry")
	}
	return e, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}

// Conflicts lists every pair of overlapping entries of the tenant.
func (svc *Service) Conflicts(ctx context.Context) ([]Conflict, error) {
	entries, _, err := svc.repo.Query(ctx, QueryFilter{}, core.AllRows)
	if err != nil {
		return nil, errors.Wrap(err, "querying schedule")
	}
	return findConflicts(entries), nil
}
