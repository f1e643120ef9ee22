package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("tenant")
	ErrSubdomainExists = errors.New("a tenant with this subdomain already exists")
)

type (
	// Repository persists tenants. Tenants are the root of isolation and are not tenant-scoped themselves.
	Repository interface {
		Create(ctx context.Context, t *Tenant) error
		Get(ctx context.Context, id string) (Tenant, error)
		GetBySubdomain(ctx context.Context, subdomain string) (Tenant, error)
		Update(ctx context.Context, t *Tenant) error
		ListActive(ctx context.Context) ([]Tenant, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nt NewTenant) (Tenant, error) {
	if _, err := svc.repo.GetBySubdomain(ctx, nt.Subdomain); err == nil {
		return Tenant{}, core.NewValidationError(ErrSubdomainExists, core.FieldError{Field: "subdomain", Error: ErrSubdomainExists.Error()})
	} else if !core.IsNotFound(err) {
		return Tenant{}, errors.Wrap(err, "checking subdomain")
	}

	now := time.Now().UTC()
	t := Tenant{
		ID:        uuid.NewString(),
		Name:      nt.Name,
		Subdomain: nt.Subdomain,
		Settings:  core.JSONMap{},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := svc.repo.Create(ctx, &t); err != nil {
		return Tenant{}, errors.Wrap(err, "creating tenant")
	}
	return t, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Tenant, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) GetBySubdomain(ctx context.Context, subdomain string) (Tenant, error) {
	return svc.repo.GetBySubdomain(ctx, core.CleanString(subdomain, true /* lower */))
}

func (svc *Service) ListActive(ctx context.Context) ([]Tenant, error) {
	return svc.repo.ListActive(ctx)
}

func (svc *Service) Update(ctx context.Context, id string, ut UpdateTenant) (Tenant, error) {
	t, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Tenant{}, err
	}
	t.Name = ut.Name
	if ut.Settings != nil {
		settings := make(core.JSONMap, len(ut.Settings))
		for k, v := range ut.Settings {
			settings[k] = v
		}
		if ob, ok := t.Settings[settingsOnboardingKey]; ok {
			settings[settingsOnboardingKey] = ob
		} else {
			delete(settings, settingsOnboardingKey)
		}
		t.Settings = settings
	}
	t.UpdatedAt = time.Now().UTC()
	if err := svc.repo.Update(ctx, &t); err != nil {
		return Tenant{}, errors.Wrap(err, "updating tenant")
	}
	return t, nil
}

func (svc *Service) SetActive(ctx context.Context, id string, active bool) (Tenant, error) {
	t, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Tenant{}, err
	}
	t.IsActive = active
	t.UpdatedAt = time.Now().UTC()
	if err := svc.repo.Update(ctx, &t); err != nil {
		return Tenant{}, errors.Wrap(err, "updating tenant")
	}
	return t, nil
}

func (svc *Service) Onboarding(ctx context.Context, id string) (Onboarding, error) {
	t, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Onboarding{}, err
	}
	return OnboardingOf(t), nil
}

// CompleteOnboardingStep marks `step` as done. Steps are completed in OnboardingSteps order.
func (svc *Service) CompleteOnboardingStep(ctx context.Context, id, step string) (Onboarding, error) {
	t, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Onboarding{}, err
	}
	settings, err := completeStep(t.Settings, core.CleanString(step, true /* lower */))
	if err != nil {
		return Onboarding{}, err
	}
	t.Settings = settings
	t.UpdatedAt = time.Now().UTC()
	if err := svc.repo.Update(ctx, &t); err != nil {
		return Onboarding{}, errors.Wrap(err, "updating tenant")
	}
	return OnboardingOf(t), nil
}
