package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/file"
)

var (
	fileColumns = []string{
		"id", "tenant_id", "owner_id", "name", "mime_type", "size_bytes", "storage_key", "status",
		"created_at", "updated_at",
	}
	fileSortable = sortable("name", "mime_type", "size_bytes", "status", "created_at")
	shareColumns = []string{"id", "tenant_id", "file_id", "shared_with_user_id", "permission", "expires_at", "created_at"}
)

type fileRepository struct {
	*Store
}

var _ file.Repository = (*fileRepository)(nil)

func NewFileRepository(s *Store) file.Repository {
	return &fileRepository{Store: s}
}

// lockQuota returns the quota row of the tenant locked for update, creating it when missing.
func lockQuota(ctx context.Context, tx *sqlx.Tx, tenantID string, defaultQuota int64) (file.Quota, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO storage_quotas (tenant_id, quota_bytes, used_bytes, updated_at) VALUES ($1, $2, 0, $3)
		ON CONFLICT (tenant_id) DO NOTHING`,
		tenantID, defaultQuota, time.Now().UTC())
	if err != nil {
		return file.Quota{}, errors.Wrap(err, "initializing quota")
	}
	var q file.Quota
	if err := tx.GetContext(ctx, &q, "SELECT * FROM storage_quotas WHERE tenant_id = $1 FOR UPDATE", tenantID); err != nil {
		return file.Quota{}, errors.Wrap(err, "locking quota")
	}
	return q, nil
}

func addUsage(ctx context.Context, tx *sqlx.Tx, tenantID string, delta int64, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE storage_quotas SET used_bytes = GREATEST(used_bytes + $1, 0), updated_at = $2 WHERE tenant_id = $3",
		delta, at, tenantID)
	return errors.Wrap(err, "updating quota usage")
}

func (repo *fileRepository) CreateWithinQuota(ctx context.Context, f *file.File, defaultQuota int64) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		q, err := lockQuota(ctx, tx, tenantID, defaultQuota)
		if err != nil {
			return err
		}
		if q.UsedBytes+f.SizeBytes > q.QuotaBytes {
			return file.ErrQuotaExceeded
		}
		if err := insert(ctx, tx, "files", fileColumns, f); err != nil {
			return err
		}
		return addUsage(ctx, tx, tenantID, f.SizeBytes, f.CreatedAt)
	})
}

func (repo *fileRepository) Query(ctx context.Context, filter file.QueryFilter, opts core.ListOptions) ([]file.File, int, error) {
	files := make([]file.File, 0)
	var total int
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, true)
		conds.search(filter.Search, "name")
		if filter.OwnerID != "" {
			conds.add("owner_id = ?", filter.OwnerID)
		}
		if filter.Status != "" {
			conds.add("status = ?", filter.Status)
		}
		if filter.AccessibleBy != "" {
			conds.add(`(owner_id = ? OR id IN (
				SELECT file_id FROM file_shares WHERE shared_with_user_id = ? AND (expires_at IS NULL OR expires_at > now())))`,
				filter.AccessibleBy, filter.AccessibleBy)
		}
		var err error
		total, err = list(ctx, tx, &files, listQuery{
			table: "files", conds: conds, opts: opts, sortable: fileSortable, order: "created_at DESC",
		})
		return err
	})
	return files, total, err
}

func (repo *fileRepository) Get(ctx context.Context, id string) (file.File, error) {
	var f file.File
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, true)
		conds.add("id = ?", id)
		return get(ctx, tx, &f, "files", conds, file.ErrNotFound)
	})
	return f, err
}

func (repo *fileRepository) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE files SET status = $1, updated_at = $2 WHERE id = $3 AND tenant_id = $4 AND deleted_at IS NULL",
			status, at, id, tenantID)
		if err != nil {
			return errors.Wrap(err, "updating file status")
		}
		return affected(res, file.ErrNotFound)
	})
}

func (repo *fileRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		var size int64
		err := tx.GetContext(ctx, &size,
			`UPDATE files SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND tenant_id = $3 AND deleted_at IS NULL
			RETURNING size_bytes`,
			at, id, tenantID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return file.ErrNotFound
			}
			return errors.Wrap(err, "deleting file")
		}
		return addUsage(ctx, tx, tenantID, -size, at)
	})
}

func (repo *fileRepository) CreateShare(ctx context.Context, s *file.Share) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		return insert(ctx, tx, "file_shares", shareColumns, s)
	})
}

func (repo *fileRepository) Shares(ctx context.Context, fileID string) ([]file.Share, error) {
	shares := make([]file.Share, 0)
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		return errors.Wrap(tx.SelectContext(ctx, &shares,
			"SELECT * FROM file_shares WHERE tenant_id = $1 AND file_id = $2 ORDER BY created_at",
			tenantID, fileID), "selecting file shares")
	})
	return shares, err
}

func (repo *fileRepository) DeleteShare(ctx context.Context, fileID, shareID string) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM file_shares WHERE tenant_id = $1 AND file_id = $2 AND id = $3",
			tenantID, fileID, shareID)
		if err != nil {
			return errors.Wrap(err, "deleting file share")
		}
		return affected(res, file.ErrShareNotFound)
	})
}

func (repo *fileRepository) Quota(ctx context.Context, defaultQuota int64) (file.Quota, error) {
	var q file.Quota
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		err := tx.GetContext(ctx, &q, "SELECT * FROM storage_quotas WHERE tenant_id = $1", tenantID)
		if errors.Is(err, sql.ErrNoRows) {
			q = file.Quota{TenantID: tenantID, QuotaBytes: defaultQuota}
			return nil
		}
		return errors.Wrap(err, "selecting quota")
	})
	return q, err
}

func (repo *fileRepository) SetQuota(ctx context.Context, bytes, defaultQuota int64, at time.Time) (file.Quota, error) {
	var q file.Quota
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		var err error
		if q, err = lockQuota(ctx, tx, tenantID, defaultQuota); err != nil {
			return err
		}
		if bytes < q.UsedBytes {
			return file.ErrQuotaBelowUsage
		}
		q.QuotaBytes, q.UpdatedAt = bytes, at
		_, err = tx.ExecContext(ctx,
			"UPDATE storage_quotas SET quota_bytes = $1, updated_at = $2 WHERE tenant_id = $3",
			bytes, at, tenantID)
		return errors.Wrap(err, "updating quota")
	})
	return q, err
}
