package inmemdb

import (
	"context"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) Upsert(ctx context.Context, r *attendance.Record) error {
	return repo.db.write(ctx, func(tenantID string) error {
		r.TenantID = tenantID
		for _, existing := range repo.db.attendance[tenantID] {
			if existing.ClassID == r.ClassID && existing.StudentID == r.StudentID && existing.Date.Equal(r.Date.Time) {
				r.ID, r.CreatedAt = existing.ID, existing.CreatedAt
				break
			}
		}
		repo.db.attendance.put(tenantID, r.ID, *r)
		return nil
	})
}

func (repo *attendanceRepository) Query(ctx context.Context, filter attendance.QueryFilter, opts core.ListOptions) ([]attendance.Record, int, error) {
	var (
		records []attendance.Record
		total   int
	)
	err := repo.db.read(ctx, func(tenantID string) error {
		matches := repo.db.attendance.all(tenantID, func(r attendance.Record) bool {
			return within(r.StudentID, filter.StudentIDs) &&
				(filter.ClassID == "" || r.ClassID == filter.ClassID) &&
				(filter.StudentID == "" || r.StudentID == filter.StudentID) &&
				(filter.Status == "" || r.Status == filter.Status) &&
				(filter.DateFrom == nil || !r.Date.Before(filter.DateFrom.Time)) &&
				(filter.DateTo == nil || !r.Date.After(filter.DateTo.Time))
		})
		records, total = paginate(matches, opts, desc("date"), asc("created_at"))
		return nil
	})
	return records, total, err
}

func (repo *attendanceRepository) Get(ctx context.Context, id string) (attendance.Record, error) {
	var r attendance.Record
	err := repo.db.read(ctx, func(tenantID string) error {
		var ok bool
		if r, ok = repo.db.attendance.get(tenantID, id); !ok {
			return attendance.ErrNotFound
		}
		return nil
	})
	return r, err
}

func (repo *attendanceRepository) Update(ctx context.Context, r *attendance.Record) error {
	return repo.db.write(ctx, func(tenantID string) error {
		if _, ok := repo.db.attendance.get(tenantID, r.ID); !ok {
			return attendance.ErrNotFound
		}
		repo.db.attendance.put(tenantID, r.ID, *r)
		return nil
	})
}

func (repo *attendanceRepository) Delete(ctx context.Context, id string) error {
	return repo.db.write(ctx, func(tenantID string) error {
		if !repo.db.attendance.remove(tenantID, id) {
			return attendance.ErrNotFound
		}
		return nil
	})
}
