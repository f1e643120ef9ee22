package teacher

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/tenant"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("teacher")
	ErrNumberExists = errors.New("a teacher with this employee number already exists")
)

type (
	// Repository persists teachers of the tenant carried by the context.
	Repository interface {
		Create(ctx context.Context, t *Teacher) error
		Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]Teacher, int, error)
		Get(ctx context.Context, id string) (Teacher, error)
		GetByNumber(ctx context.Context, number string) (Teacher, error)
		Update(ctx context.Context, t *Teacher) error
		SoftDelete(ctx context.Context, id string, at time.Time) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkNumber(ctx context.Context, number, excludedID string) error {
	existing, err := svc.repo.GetByNumber(ctx, number)
	if err != nil {
		if core.IsNotFound(err) {
			return nil
		}
		return errors.Wrap(err, "checking employee number")
	}
	if existing.ID == excludedID {
		return nil
	}
	return core.NewValidationError(ErrNumberExists, core.FieldError{Field: "employeeNumber", Error: ErrNumberExists.Error()})
}

func (svc *Service) Create(ctx context.Context, nt NewTeacher) (Teacher, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return Teacher{}, err
	}
	if err := svc.checkNumber(ctx, nt.EmployeeNumber, ""); err != nil {
		return Teacher{}, err
	}

	now := time.Now().UTC()
	t := Teacher{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		UserID:         nt.UserID,
		EmployeeNumber: nt.EmployeeNumber,
		FirstName:      nt.FirstName,
		LastName:       nt.LastName,
		Email:          nt.Email,
		Subject:        nt.Subject,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := svc.repo.Create(ctx, &t); err != nil {
		return Teacher{}, errors.Wrap(err, "creating teacher")
	}
	return t, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]Teacher, int, error) {
	return svc.repo.Query(ctx, filter, opts)
}

func (svc *Service) Get(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.Get(ctx, id)
}

// GetByUserID returns the teacher profile linked to a user account.
func (svc *Service) GetByUserID(ctx context.Context, userID string) (Teacher, error) {
	teachers, _, err := svc.repo.Query(ctx, QueryFilter{UserID: userID}, core.AllRows)
	if err != nil {
		return Teacher{}, err
	}
	if len(teachers) == 0 {
		return Teacher{}, ErrNotFound
	}
	return teachers[0], nil
}

func (svc *Service) Update(ctx context.Context, id string, ut UpdateTeacher) (Teacher, error) {
	t, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Teacher{}, err
	}
	if ut.EmployeeNumber != "" && ut.EmployeeNumber != t.EmployeeNumber {
		if err := svc.checkNumber(ctx, ut.EmployeeNumber, t.ID); err != nil {
			return Teacher{}, err
		}
		t.EmployeeNumber = ut.EmployeeNumber
	}
	if ut.FirstName != "" {
		t.FirstName = ut.FirstName
	}
	if ut.LastName != "" {
		t.LastName = ut.LastName
	}
	if ut.Email.Valid {
		t.Email = ut.Email
	}
	if ut.Subject.Valid {
		t.Subject = ut.Subject
	}
	if ut.UserID.Valid {
		t.UserID = ut.UserID
	}
	t.UpdatedAt = time.Now().UTC()
	if err := svc.repo.Update(ctx, &t); err != nil {
		return Teacher{}, errors.Wrap(err, "updating teacher")
	}
	return t, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.SoftDelete(ctx, id, time.Now().UTC())
}
