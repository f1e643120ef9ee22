package student

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/tenant"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("student")
	ErrNumberExists = errors.New("a student with this number already exists")
)

type (
	// Repository persists students of the tenant carried by the context.
	// Soft deleted students are invisible to every method.
	Repository interface {
		Create(ctx context.Context, s *Student) error
		Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]Student, int, error)
		Get(ctx context.Context, id string) (Student, error)
		GetByNumber(ctx context.Context, number string) (Student, error)
		Update(ctx context.Context, s *Student) error
		SoftDelete(ctx context.Context, id string, at time.Time) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkNumber(ctx context.Context, number string, excludedID string) error {
	existing, err := svc.repo.GetByNumber(ctx, number)
	if err != nil {
		if core.IsNotFound(err) {
			return nil
		}
		return errors.Wrap(err, "checking student number")
	}
	if existing.ID == excludedID {
		return nil
	}
	return core.NewValidationError(ErrNumberExists, core.FieldError{Field: "studentNumber", Error: ErrNumberExists.Error()})
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return Student{}, err
	}
	if err := svc.checkNumber(ctx, ns.StudentNumber, ""); err != nil {
		return Student{}, err
	}

	now := time.Now().UTC()
	s := Student{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		UserID:         ns.UserID,
		GuardianUserID: ns.GuardianUserID,
		StudentNumber:  ns.StudentNumber,
		FirstName:      ns.FirstName,
		LastName:       ns.LastName,
		Email:          ns.Email,
		BirthDate:      ns.BirthDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := svc.repo.Create(ctx, &s); err != nil {
		return Student{}, errors.Wrap(err, "creating student")
	}
	return s, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]Student, int, error) {
	return svc.repo.Query(ctx, filter, opts)
}

func (svc *Service) Get(ctx context.Context, id string) (Student, error) {
	return svc.repo.Get(ctx, id)
}

// GetByUserID returns the student profile linked to a user account.
func (svc *Service) GetByUserID(ctx context.Context, userID string) (Student, error) {
	students, _, err := svc.repo.Query(ctx, QueryFilter{UserID: userID}, core.AllRows)
	if err != nil {
		return Student{}, err
	}
	if len(students) == 0 {
		return Student{}, ErrNotFound
	}
	return students[0], nil
}

// IDsOfGuardian lists the IDs of the students whose guardian is `userID`.
func (svc *Service) IDsOfGuardian(ctx context.Context, userID string) ([]string, error) {
	students, _, err := svc.repo.Query(ctx, QueryFilter{GuardianUserID: userID}, core.AllRows)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	s, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if us.StudentNumber != "" && us.StudentNumber != s.StudentNumber {
		if err := svc.checkNumber(ctx, us.StudentNumber, s.ID); err != nil {
			return Student{}, err
		}
		s.StudentNumber = us.StudentNumber
	}
	if us.FirstName != "" {
		s.FirstName = us.FirstName
	}
	if us.LastName != "" {
		s.LastName = us.LastName
	}
	if us.Email.Valid {
		s.Email = us.Email
	}
	if us.BirthDate != nil {
		s.BirthDate = us.BirthDate
	}
	if us.UserID.Valid {
		s.UserID = us.UserID
	}
	if us.GuardianUserID.Valid {
		s.GuardianUserID = us.GuardianUserID
	}
	s.UpdatedAt = time.Now().UTC()
	if err := svc.repo.Update(ctx, &s); err != nil {
		return Student{}, errors.Wrap(err, "updating student")
	}
	return s, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.SoftDelete(ctx, id, time.Now().UTC())
}

// Import creates every valid row and reports the others with their row number.
func (svc *Service) Import(ctx context.Context, rows []ImportRow, validate *validator.Validate, translator ut.Translator) (ImportResult, error) {
	res := ImportResult{Created: make([]Student, 0, len(rows)), Failed: make([]RowError, 0)}
	for _, row := range rows {
		if row.Err != nil {
			res.Failed = append(res.Failed, RowError{Row: row.Row, Errors: map[string]string{"row": row.Err.Error()}})
			continue
		}
		ns := row.Student
		err := ns.Validate(validate)
		if err == nil {
			var s Student
			if s, err = svc.Create(ctx, ns); err == nil {
				res.Created = append(res.Created, s)
				continue
			}
		}
		fields, ok := fieldErrors(err, translator)
		if !ok {
			return res, errors.Wrapf(err, "importing row %d", row.Row)
		}
		res.Failed = append(res.Failed, RowError{Row: row.Row, Errors: fields})
	}
	return res, nil
}

func fieldErrors(err error, translator ut.Translator) (map[string]string, bool) {
	switch e := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		return core.TranslateErrors(e, translator), true
	case *core.ValidationError:
		fields := make(map[string]string, len(e.Fields))
		for _, f := range e.Fields {
			fields[f.Field] = f.Error
		}
		if len(fields) == 0 {
			fields["row"] = e.Error()
		}
		return fields, true
	}
	return nil, false
}
