package inmemdb

import (
	"context"
	"sort"

	"github.com/iepapp/iep/core/tenant"
)

type tenantRepository struct {
	db *DB
}

var _ tenant.Repository = (*tenantRepository)(nil)

func NewTenantRepository(db *DB) tenant.Repository {
	return &tenantRepository{db: db}
}

func (repo *tenantRepository) Create(_ context.Context, t *tenant.Tenant) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.tenants[t.ID] = *t
	return nil
}

func (repo *tenantRepository) Get(_ context.Context, id string) (tenant.Tenant, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	if t, ok := repo.db.tenants[id]; ok {
		return t, nil
	}
	return tenant.Tenant{}, tenant.ErrNotFound
}

func (repo *tenantRepository) GetBySubdomain(_ context.Context, subdomain string) (tenant.Tenant, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	for _, t := range repo.db.tenants {
		if t.Subdomain == subdomain {
			return t, nil
		}
	}
	return tenant.Tenant{}, tenant.ErrNotFound
}

func (repo *tenantRepository) Update(_ context.Context, t *tenant.Tenant) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	if _, ok := repo.db.tenants[t.ID]; !ok {
		return tenant.ErrNotFound
	}
	repo.db.tenants[t.ID] = *t
	return nil
}

func (repo *tenantRepository) ListActive(_ context.Context) ([]tenant.Tenant, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	out := make([]tenant.Tenant, 0, len(repo.db.tenants))
	for _, t := range repo.db.tenants {
		if t.IsActive {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subdomain < out[j].Subdomain })
	return out, nil
}
