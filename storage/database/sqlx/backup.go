package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/backup"
)

var (
	backupColumns = []string{
		"id", "tenant_id", "trigger", "status", "manifest", "error", "started_at", "completed_at", "verified_at",
		"created_at",
	}
	backupSortable = sortable("status", "trigger", "created_at", "completed_at")

	// TenantTables lists the tenant-scoped tables counted in backup manifests.
	TenantTables = []string{
		"users", "students", "teachers", "classes", "class_students", "class_teachers", "files", "file_shares",
		"assignments", "grades", "attendance_records", "webhooks", "schedule_entries",
	}
)

type backupRepository struct {
	*Store
}

var _ backup.Repository = (*backupRepository)(nil)

func NewBackupRepository(s *Store) backup.Repository {
	return &backupRepository{Store: s}
}

func (repo *backupRepository) Create(ctx context.Context, j *backup.Job) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		return insert(ctx, tx, "backup_jobs", backupColumns, j)
	})
}

func (repo *backupRepository) Query(ctx context.Context, filter backup.QueryFilter, opts core.ListOptions) ([]backup.Job, int, error) {
	jobs := make([]backup.Job, 0)
	var total int
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, false)
		if filter.Status != "" {
			conds.add("status = ?", filter.Status)
		}
		if filter.Trigger != "" {
			conds.add("trigger = ?", filter.Trigger)
		}
		var err error
		total, err = list(ctx, tx, &jobs, listQuery{
			table: "backup_jobs", conds: conds, opts: opts, sortable: backupSortable, order: "created_at DESC",
		})
		return err
	})
	return jobs, total, err
}

func (repo *backupRepository) Get(ctx context.Context, id string) (backup.Job, error) {
	var j backup.Job
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, false)
		conds.add("id = ?", id)
		return get(ctx, tx, &j, "backup_jobs", conds, backup.ErrNotFound)
	})
	return j, err
}

func (repo *backupRepository) Update(ctx context.Context, j *backup.Job) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		return update(ctx, tx, "backup_jobs", backupColumns[3:9], j, backup.ErrNotFound, false)
	})
}

func (repo *backupRepository) CountRows(ctx context.Context) (backup.Manifest, error) {
	manifest := make(backup.Manifest, len(TenantTables))
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		for _, table := range TenantTables {
			var n int64
			q := "SELECT count(*) FROM " + table + " WHERE tenant_id = $1"
			if err := tx.GetContext(ctx, &n, q, tenantID); err != nil {
				return errors.Wrapf(err, "counting %s", table)
			}
			manifest[table] = n
		}
		return nil
	})
	return manifest, err
}
