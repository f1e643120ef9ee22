package inmemdb

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/webhook"
)

type webhookRepository struct {
	db *DB
}

var _ webhook.Repository = (*webhookRepository)(nil)

func NewWebhookRepository(db *DB) webhook.Repository {
	return &webhookRepository{db: db}
}

func (repo *webhookRepository) Create(ctx context.Context, w *webhook.Webhook) error {
	return repo.db.write(ctx, func(tenantID string) error {
		w.TenantID = tenantID
		repo.db.webhooks.put(tenantID, w.ID, *w)
		return nil
	})
}

func (repo *webhookRepository) Query(ctx context.Context, filter webhook.QueryFilter, opts core.ListOptions) ([]webhook.Webhook, int, error) {
	var (
		hooks []webhook.Webhook
		total int
	)
	err := repo.db.read(ctx, func(tenantID string) error {
		matches := repo.db.webhooks.all(tenantID, func(w webhook.Webhook) bool {
			return (filter.Event == "" || within(filter.Event, w.Events)) &&
				(filter.IsActive == nil || w.IsActive == *filter.IsActive)
		})
		hooks, total = paginate(matches, opts, asc("created_at"))
		return nil
	})
	return hooks, total, err
}

func (repo *webhookRepository) Get(ctx context.Context, id string) (webhook.Webhook, error) {
	var w webhook.Webhook
	err := repo.db.read(ctx, func(tenantID string) error {
		var ok bool
		if w, ok = repo.db.webhooks.get(tenantID, id); !ok {
			return webhook.ErrNotFound
		}
		return nil
	})
	return w, err
}

func (repo *webhookRepository) Update(ctx context.Context, w *webhook.Webhook) error {
	return repo.db.write(ctx, func(tenantID string) error {
		if _, ok := repo.db.webhooks.get(tenantID, w.ID); !ok {
			return webhook.ErrNotFound
		}
		repo.db.webhooks.put(tenantID, w.ID, *w)
		return nil
	})
}

func (repo *webhookRepository) Delete(ctx context.Context, id string) error {
	return repo.db.write(ctx, func(tenantID string) error {
		if !repo.db.webhooks.remove(tenantID, id) {
			return webhook.ErrNotFound
		}
		return nil
	})
}

func (repo *webhookRepository) RecordDelivery(ctx context.Context, id string, status int, at time.Time) error {
	return repo.db.write(ctx, func(tenantID string) error {
		w, ok := repo.db.webhooks.get(tenantID, id)
		if !ok {
			return webhook.ErrNotFound
		}
		w.LastStatus, w.LastDeliveryAt = null.IntFrom(status), null.TimeFrom(at)
		repo.db.webhooks.put(tenantID, id, w)
		return nil
	})
}
