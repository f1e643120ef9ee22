package inmemdb

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/schedule"
)

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) Create(ctx context.Context, e *schedule.Entry) error {
	return repo.db.write(ctx, func(tenantID string) error {
		e.TenantID = tenantID
		repo.db.schedules.put(tenantID, e.ID, *e)
		return nil
	})
}

func (repo *scheduleRepository) Query(ctx context.Context, filter schedule.QueryFilter, opts core.ListOptions) ([]schedule.Entry, int, error) {
	var (
		entries []schedule.Entry
		total   int
	)
	err := repo.db.read(ctx, func(tenantID string) error {
		matches := repo.db.schedules.all(tenantID, func(e schedule.Entry) bool {
			return within(e.ClassID, filter.ClassIDs) &&
				(filter.ClassID == "" || e.ClassID == filter.ClassID) &&
				(filter.TeacherID == "" || e.TeacherID == null.StringFrom(filter.TeacherID)) &&
				(filter.Room == "" || e.Room == filter.Room) &&
				(filter.Weekday == 0 || e.Weekday == filter.Weekday)
		})
		entries, total = paginate(matches, opts, asc("weekday"), asc("start_time"))
		return nil
	})
	return entries, total, err
}

func (repo *scheduleRepository) Get(ctx context.Context, id string) (schedule.Entry, error) {
	var e schedule.Entry
	err := repo.db.read(ctx, func(tenantID string) error {
		var ok bool
		if e, ok = repo.db.schedules.get(tenantID, id); !ok {
			return schedule.ErrNotFound
		}
		return nil
	})
	return e, err
}

func (repo *scheduleRepository) Update(ctx context.Context, e *schedule.Entry) error {
	return repo.db.write(ctx, func(tenantID string) error {
		if _, ok := repo.db.schedules.get(tenantID, e.ID); !ok {
			return schedule.ErrNotFound
		}
		repo.db.schedules.put(tenantID, e.ID, *e)
		return nil
	})
}

func (repo *scheduleRepository) Delete(ctx context.Context, id string) error {
	return repo.db.write(ctx, func(tenantID string) error {
		if !repo.db.schedules.remove(tenantID, id) {
			return schedule.ErrNotFound
		}
		return nil
	})
}
