package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/attendance"
)

var attendanceSortable = sortable("date", "status", "created_at")

type attendanceRepository struct {
	*Store
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(s *Store) attendance.Repository {
	return &attendanceRepository{Store: s}
}

func (repo *attendanceRepository) Upsert(ctx context.Context, r *attendance.Record) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		q, args, err := tx.BindNamed(
			`INSERT INTO attendance_records
				(id, tenant_id, class_id, student_id, date, status, note, recorded_by, created_at, updated_at)
			VALUES (:id, :tenant_id, :class_id, :student_id, :date, :status, :note, :recorded_by, :created_at, :updated_at)
			ON CONFLICT (class_id, student_id, date) DO UPDATE SET
				status = EXCLUDED.status, note = EXCLUDED.note, recorded_by = EXCLUDED.recorded_by,
				updated_at = EXCLUDED.updated_at
			RETURNING id, created_at`, r)
		if err != nil {
			return err
		}
		if err := tx.QueryRowxContext(ctx, q, args...).Scan(&r.ID, &r.CreatedAt); err != nil {
			return mapError(errors.Wrap(err, "upserting attendance record"))
		}
		return nil
	})
}

func (repo *attendanceRepository) Query(ctx context.Context, filter attendance.QueryFilter, opts core.ListOptions) ([]attendance.Record, int, error) {
	records := make([]attendance.Record, 0)
	var total int
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, false)
		conds.in("student_id", filter.StudentIDs)
		if filter.ClassID != "" {
			conds.add("class_id = ?", filter.ClassID)
		}
		if filter.StudentID != "" {
			conds.add("student_id = ?", filter.StudentID)
		}
		if filter.Status != "" {
			conds.add("status = ?", filter.Status)
		}
		if filter.DateFrom != nil {
			conds.add("date >= ?", *filter.DateFrom)
		}
		if filter.DateTo != nil {
			conds.add("date <= ?", *filter.DateTo)
		}
		var err error
		total, err = list(ctx, tx, &records, listQuery{
			table: "attendance_records", conds: conds, opts: opts, sortable: attendanceSortable, order: "date DESC, created_at ASC",
		})
		return err
	})
	return records, total, err
}

func (repo *attendanceRepository) Get(ctx context.Context, id string) (attendance.Record, error) {
	var r attendance.Record
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, false)
		conds.add("id = ?", id)
		return get(ctx, tx, &r, "attendance_records", conds, attendance.ErrNotFound)
	})
	return r, err
}

func (repo *attendanceRepository) Update(ctx context.Context, r *attendance.Record) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		return update(ctx, tx, "attendance_records", []string{"status", "note", "recorded_by", "updated_at"}, r, attendance.ErrNotFound, false)
	})
}

func (repo *attendanceRepository) Delete(ctx context.Context, id string) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		return hardDelete(ctx, tx, "attendance_records", tenantID, id, attendance.ErrNotFound)
	})
}
