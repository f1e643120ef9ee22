package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/class"
	"github.com/iepapp/iep/core/tenant"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("attendance record")
	ErrNotEnrolled = errors.New("the student is not enrolled in this class")
)

type (
	// Repository persists attendance records of the tenant carried by the context.
	Repository interface {
		// Upsert creates the record or replaces the status and note of the existing record
		// of the same class, student and date. r.ID and r.CreatedAt are set to the stored values.
		Upsert(ctx context.Context, r *Record) error
		Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]Record, int, error)
		Get(ctx context.Context, id string) (Record, error)
		Update(ctx context.Context, r *Record) error
		Delete(ctx context.Context, id string) error
	}

	RosterGetter interface {
		Get(ctx context.Context, id string) (class.Class, error)
		StudentIDs(ctx context.Context, classID string) ([]string, error)
	}

	Service struct {
		repo    Repository
		classes RosterGetter
		events  core.EventPublisher
	}
)

func NewService(repo Repository, classes RosterGetter, events core.EventPublisher) *Service {
	if events == nil {
		events = core.NopPublisher
	}
	return &Service{repo: repo, classes: classes, events: events}
}

func (svc *Service) roster(ctx context.Context, classID string) (map[string]bool, error) {
	if _, err := svc.classes.Get(ctx, classID); err != nil {
		if core.IsNotFound(err) {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "classId", Error: class.ErrNotFound.Error()})
		}
		return nil, errors.Wrap(err, "finding class")
	}
	ids, err := svc.classes.StudentIDs(ctx, classID)
	if err != nil {
		return nil, errors.Wrap(err, "listing class students")
	}
	enrolled := make(map[string]bool, len(ids))
	for _, id := range ids {
		enrolled[id] = true
	}
	return enrolled, nil
}

func (svc *Service) record(ctx context.Context, tenantID, classID string, date core.Date, e BulkEntry, recordedBy string, now time.Time) (Record, error) {
	r := Record{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		ClassID:    classID,
		StudentID:  e.StudentID,
		Date:       date,
		Status:     e.Status,
		Note:       e.Note,
		RecordedBy: null.NewString(recordedBy, recordedBy != ""),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := svc.repo.Upsert(ctx, &r); err != nil {
		return Record{}, errors.Wrap(err, "recording attendance")
	}
	return r, nil
}

// Record stores the attendance of one student, replacing any record of the same day.
func (svc *Service) Record(ctx context.Context, nr NewRecord, recordedBy string) (Record, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return Record{}, err
	}
	enrolled, err := svc.roster(ctx, nr.ClassID)
	if err != nil {
		return Record{}, err
	}
	if !enrolled[nr.StudentID] {
		return Record{}, core.NewValidationError(ErrNotEnrolled, core.FieldError{Field: "studentId", Error: ErrNotEnrolled.Error()})
	}

	entry := BulkEntry{StudentID: nr.StudentID, Status: nr.Status, Note: nr.Note}
	r, err := svc.record(ctx, tenantID, nr.ClassID, *nr.Date, entry, recordedBy, time.Now().UTC())
	if err != nil {
		return Record{}, err
	}
	svc.events.Publish(ctx, core.EventAttendanceRecorded, []Record{r})
	return r, nil
}

// RecordBulk stores the attendance of a class roster on a date. Every student must be enrolled.
func (svc *Service) RecordBulk(ctx context.Context, br BulkRecord, recordedBy string) ([]Record, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	enrolled, err := svc.roster(ctx, br.ClassID)
	if err != nil {
		return nil, err
	}

	var fields []core.FieldError
	seen := make(map[string]bool, len(br.Entries))
	for i, e := range br.Entries {
		switch {
		case !enrolled[e.StudentID]:
			fields = append(fields, core.FieldError{Field: fmt.Sprintf("entries[%d].studentId", i), Error: ErrNotEnrolled.Error()})
		case seen[e.StudentID]:
			fields = append(fields, core.FieldError{Field: fmt.Sprintf("entries[%d].studentId", i), Error: "duplicate student"})
		}
		seen[e.StudentID] = true
	}
	if len(fields) > 0 {
		return nil, core.NewValidationError(nil, fields...)
	}

	now := time.Now().UTC()
	records := make([]Record, 0, len(br.Entries))
	for _, e := range br.Entries {
		r, err := svc.record(ctx, tenantID, br.ClassID, *br.Date, e, recordedBy, now)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	svc.events.Publish(ctx, core.EventAttendanceRecorded, records)
	return records, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]Record, int, error) {
	return svc.repo.Query(ctx, filter, opts)
}

func (svc *Service) Get(ctx context.Context, id string) (Record, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, ur UpdateRecord, recordedBy string) (Record, error) {
	r, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if ur.Status != "" {
		r.Status = ur.Status
	}
	if ur.Note != nil {
		r.Note = core.CleanString(*ur.Note)
	}
	r.RecordedBy = null.NewString(recordedBy, recordedBy != "")
	r.UpdatedAt = time.Now().UTC()
	if err := svc.repo.Update(ctx, &r); err != nil {
		return Record{}, errors.Wrap(err, "updating attendance record")
	}
	return r, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}

// Summary counts the records matching filter by status.
func (svc *Service) Summary(ctx context.Context, filter QueryFilter) (Summary, error) {
	records, _, err := svc.repo.Query(ctx, filter, core.AllRows)
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying attendance")
	}
	return summarize(records), nil
}

func summarize(records []Record) Summary {
	var sum Summary
	for _, r := range records {
		sum.Total++
		switch r.Status {
		case StatusPresent:
			sum.Present++
		case StatusAbsent:
			sum.Absent++
		case StatusLate:
			sum.Late++
		case StatusExcused:
			sum.Excused++
		}
	}
	sum.AttendanceRate = core.Round2(core.Percentage(float64(sum.Present+sum.Late), float64(sum.Total)))
	return sum
}
