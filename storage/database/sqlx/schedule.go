package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/schedule"
)

var (
	scheduleColumns = []string{
		"id", "tenant_id", "class_id", "teacher_id", "subject", "room", "weekday", "start_time", "end_time",
		"created_at", "updated_at",
	}
	scheduleSortable = sortable("weekday", "start_time", "end_time", "subject", "room")
)

type scheduleRepository struct {
	*Store
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(s *Store) schedule.Repository {
	return &scheduleRepository{Store: s}
}

func (repo *scheduleRepository) Create(ctx context.Context, e *schedule.Entry) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		return insert(ctx, tx, "schedule_entries", scheduleColumns, e)
	})
}

func (repo *scheduleRepository) Query(ctx context.Context, filter schedule.QueryFilter, opts core.ListOptions) ([]schedule.Entry, int, error) {
	entries := make([]schedule.Entry, 0)
	var total int
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, false)
		conds.in("class_id", filter.ClassIDs)
		if filter.ClassID != "" {
			conds.add("class_id = ?", filter.ClassID)
		}
		if filter.TeacherID != "" {
			conds.add("teacher_id = ?", filter.TeacherID)
		}
		if filter.Room != "" {
			conds.add("room = ?", filter.Room)
		}
		if filter.Weekday != 0 {
			conds.add("weekday = ?", filter.Weekday)
		}
		var err error
		total, err = list(ctx, tx, &entries, listQuery{
			table: "schedule_entries", conds: conds, opts: opts, sortable: scheduleSortable, order: "weekday ASC, start_time ASC",
		})
		return err
	})
	return entries, total, err
}

func (repo *scheduleRepository) Get(ctx context.Context, id string) (schedule.Entry, error) {
	var e schedule.Entry
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, false)
		conds.add("id = ?", id)
		return get(ctx, tx, &e, "schedule_entries", conds, schedule.ErrNotFound)
	})
	return e, err
}

func (repo *scheduleRepository) Update(ctx context.Context, e *schedule.Entry) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		return update(ctx, tx, "schedule_entries", scheduleColumns[3:], e, schedule.ErrNotFound, false)
	})
}

func (repo *scheduleRepository) Delete(ctx context.Context, id string) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		return hardDelete(ctx, tx, "schedule_entries", tenantID, id, schedule.ErrNotFound)
	})
}
