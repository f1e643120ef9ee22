package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/webhook"
)

var (
	webhookColumns  = []string{"id", "tenant_id", "url", "events", "secret", "is_active", "created_at", "updated_at"}
	webhookSortable = sortable("url", "is_active", "last_delivery_at", "created_at")
)

type webhookRepository struct {
	*Store
}

var _ webhook.Repository = (*webhookRepository)(nil)

func NewWebhookRepository(s *Store) webhook.Repository {
	return &webhookRepository{Store: s}
}

func (repo *webhookRepository) Create(ctx context.Context, w *webhook.Webhook) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		return insert(ctx, tx, "webhooks", webhookColumns, w)
	})
}

func (repo *webhookRepository) Query(ctx context.Context, filter webhook.QueryFilter, opts core.ListOptions) ([]webhook.Webhook, int, error) {
	hooks := make([]webhook.Webhook, 0)
	var total int
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, false)
		if filter.Event != "" && filter.Event != core.EventPing {
			conds.add("? = ANY(events)", filter.Event)
		}
		if filter.IsActive != nil {
			conds.add("is_active = ?", *filter.IsActive)
		}
		var err error
		total, err = list(ctx, tx, &hooks, listQuery{
			table: "webhooks", conds: conds, opts: opts, sortable: webhookSortable, order: "created_at ASC",
		})
		return err
	})
	return hooks, total, err
}

func (repo *webhookRepository) Get(ctx context.Context, id string) (webhook.Webhook, error) {
	var w webhook.Webhook
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, false)
		conds.add("id = ?", id)
		return get(ctx, tx, &w, "webhooks", conds, webhook.ErrNotFound)
	})
	return w, err
}

func (repo *webhookRepository) Update(ctx context.Context, w *webhook.Webhook) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		return update(ctx, tx, "webhooks", []string{"url", "events", "is_active", "updated_at"}, w, webhook.ErrNotFound, false)
	})
}

func (repo *webhookRepository) Delete(ctx context.Context, id string) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		return hardDelete(ctx, tx, "webhooks", tenantID, id, webhook.ErrNotFound)
	})
}

func (repo *webhookRepository) RecordDelivery(ctx context.Context, id string, status int, at time.Time) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE webhooks SET last_status = $1, last_delivery_at = $2 WHERE id = $3 AND tenant_id = $4",
			null.NewInt(status, status != 0), at, id, tenantID)
		if err != nil {
			return errors.Wrap(err, "recording webhook delivery")
		}
		return affected(res, webhook.ErrNotFound)
	})
}
