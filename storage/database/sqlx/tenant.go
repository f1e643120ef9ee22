package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core/tenant"
)

var tenantColumns = []string{"id", "name", "subdomain", "settings", "is_active", "created_at", "updated_at"}

type tenantRepository struct {
	*Store
}

var _ tenant.Repository = (*tenantRepository)(nil)

func NewTenantRepository(s *Store) tenant.Repository {
	return &tenantRepository{Store: s}
}

func (repo *tenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	return repo.tx(ctx, func(tx *sqlx.Tx) error {
		return insert(ctx, tx, "tenants", tenantColumns, t)
	})
}

func (repo *tenantRepository) getBy(ctx context.Context, col, val string) (tenant.Tenant, error) {
	var t tenant.Tenant
	if err := repo.db.GetContext(ctx, &t, "SELECT * FROM tenants WHERE "+col+" = $1", val); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tenant.Tenant{}, tenant.ErrNotFound
		}
		return tenant.Tenant{}, errors.Wrap(err, "selecting tenant")
	}
	return t, nil
}

func (repo *tenantRepository) Get(ctx context.Context, id string) (tenant.Tenant, error) {
	return repo.getBy(ctx, "id", id)
}

func (repo *tenantRepository) GetBySubdomain(ctx context.Context, subdomain string) (tenant.Tenant, error) {
	return repo.getBy(ctx, "subdomain", subdomain)
}

func (repo *tenantRepository) Update(ctx context.Context, t *tenant.Tenant) error {
	res, err := repo.db.NamedExecContext(ctx,
		"UPDATE tenants SET name = :name, settings = :settings, is_active = :is_active, updated_at = :updated_at WHERE id = :id", t)
	if err != nil {
		return errors.Wrap(err, "updating tenant")
	}
	return affected(res, tenant.ErrNotFound)
}

func (repo *tenantRepository) ListActive(ctx context.Context) ([]tenant.Tenant, error) {
	tenants := make([]tenant.Tenant, 0)
	if err := repo.db.SelectContext(ctx, &tenants, "SELECT * FROM tenants WHERE is_active ORDER BY subdomain"); err != nil {
		return nil, errors.Wrap(err, "selecting tenants")
	}
	return tenants, nil
}
