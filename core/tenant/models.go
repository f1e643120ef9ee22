package tenant

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iepapp/iep/core"
)

type Tenant struct {
	ID        string       `json:"id" db:"id"`
	Name      string       `json:"name" db:"name"`
	Subdomain string       `json:"subdomain" db:"subdomain"`
	Settings  core.JSONMap `json:"settings" db:"settings"`
	IsActive  bool         `json:"isActive" db:"is_active"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"` // UTC
	UpdatedAt time.Time    `json:"updatedAt" db:"updated_at"` // UTC
}

// NewTenant contains information needed to create a new Tenant.
type NewTenant struct {
	Name      string `json:"name" validate:"required,notblank,max=200"`
	Subdomain string `json:"subdomain" validate:"required,subdomain"`
}

func (nt *NewTenant) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Subdomain = core.CleanString(nt.Subdomain, true /* lower */)
	return validate.Struct(nt)
}

// UpdateTenant defines what information may be provided to modify an existing Tenant.
// The onboarding entry of Settings is managed by the onboarding endpoints and cannot be overridden.
type UpdateTenant struct {
	Name     string       `json:"name" validate:"omitempty,notblank,max=200"`
	Settings core.JSONMap `json:"settings"`
}

func (ut *UpdateTenant) Validate(orig Tenant, validate *validator.Validate) error {
	if name := core.CleanString(ut.Name); name != "" {
		ut.Name = name
	} else {
		ut.Name = orig.Name
	}
	return validate.Struct(ut)
}
