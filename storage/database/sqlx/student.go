package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/student"
)

var (
	studentColumns = []string{
		"id", "tenant_id", "user_id", "guardian_user_id", "student_number", "first_name", "last_name",
		"email", "birth_date", "created_at", "updated_at",
	}
	studentSortable = sortable("student_number", "first_name", "last_name", "email", "birth_date", "created_at")
)

type studentRepository struct {
	*Store
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(s *Store) student.Repository {
	return &studentRepository{Store: s}
}

func (repo *studentRepository) Create(ctx context.Context, s *student.Student) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		return insert(ctx, tx, "students", studentColumns, s)
	})
}

func (repo *studentRepository) Query(ctx context.Context, filter student.QueryFilter, opts core.ListOptions) ([]student.Student, int, error) {
	students := make([]student.Student, 0)
	var total int
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, true)
		conds.search(filter.Search, "first_name", "last_name", "student_number", "email")
		conds.in("id", filter.IDs)
		if filter.UserID != "" {
			conds.add("user_id = ?", filter.UserID)
		}
		if filter.GuardianUserID != "" {
			conds.add("guardian_user_id = ?", filter.GuardianUserID)
		}
		if filter.ClassID != "" {
			conds.add("id IN (SELECT student_id FROM class_students WHERE class_id = ?)", filter.ClassID)
		}
		var err error
		total, err = list(ctx, tx, &students, listQuery{
			table: "students", conds: conds, opts: opts, sortable: studentSortable, order: "last_name ASC, first_name ASC",
		})
		return err
	})
	return students, total, err
}

func (repo *studentRepository) getBy(ctx context.Context, col, val string) (student.Student, error) {
	var s student.Student
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, true)
		conds.add(col+" = ?", val)
		return get(ctx, tx, &s, "students", conds, student.ErrNotFound)
	})
	return s, err
}

func (repo *studentRepository) Get(ctx context.Context, id string) (student.Student, error) {
	return repo.getBy(ctx, "id", id)
}

func (repo *studentRepository) GetByNumber(ctx context.Context, number string) (student.Student, error) {
	return repo.getBy(ctx, "student_number", number)
}

func (repo *studentRepository) Update(ctx context.Context, s *student.Student) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		return update(ctx, tx, "students", studentColumns[2:], s, student.ErrNotFound, true)
	})
}

func (repo *studentRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		return softDelete(ctx, tx, "students", tenantID, id, at, student.ErrNotFound)
	})
}
