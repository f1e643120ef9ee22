package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/teacher"
)

var (
	teacherColumns = []string{
		"id", "tenant_id", "user_id", "employee_number", "first_name", "last_name", "email", "subject",
		"created_at", "updated_at",
	}
	teacherSortable = sortable("employee_number", "first_name", "last_name", "email", "subject", "created_at")
)

type teacherRepository struct {
	*Store
}

var _ teacher.Repository = (*teacherRepository)(nil)

func NewTeacherRepository(s *Store) teacher.Repository {
	return &teacherRepository{Store: s}
}

func (repo *teacherRepository) Create(ctx context.Context, t *teacher.Teacher) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		return insert(ctx, tx, "teachers", teacherColumns, t)
	})
}

func (repo *teacherRepository) Query(ctx context.Context, filter teacher.QueryFilter, opts core.ListOptions) ([]teacher.Teacher, int, error) {
	teachers := make([]teacher.Teacher, 0)
	var total int
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, true)
		conds.search(filter.Search, "first_name", "last_name", "employee_number", "email")
		if filter.Subject != "" {
			conds.add("subject ILIKE ?", filter.Subject)
		}
		if filter.UserID != "" {
			conds.add("user_id = ?", filter.UserID)
		}
		if filter.ClassID != "" {
			conds.add("id IN (SELECT teacher_id FROM class_teachers WHERE class_id = ?)", filter.ClassID)
		}
		var err error
		total, err = list(ctx, tx, &teachers, listQuery{
			table: "teachers", conds: conds, opts: opts, sortable: teacherSortable, order: "last_name ASC, first_name ASC",
		})
		return err
	})
	return teachers, total, err
}

func (repo *teacherRepository) getBy(ctx context.Context, col, val string) (teacher.Teacher, error) {
	var t teacher.Teacher
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, true)
		conds.add(col+" = ?", val)
		return get(ctx, tx, &t, "teachers", conds, teacher.ErrNotFound)
	})
	return t, err
}

func (repo *teacherRepository) Get(ctx context.Context, id string) (teacher.Teacher, error) {
	return repo.getBy(ctx, "id", id)
}

func (repo *teacherRepository) GetByNumber(ctx context.Context, number string) (teacher.Teacher, error) {
	return repo.getBy(ctx, "employee_number", number)
}

func (repo *teacherRepository) Update(ctx context.Context, t *teacher.Teacher) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		return update(ctx, tx, "teachers", teacherColumns[2:], t, teacher.ErrNotFound, true)
	})
}

func (repo *teacherRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		return softDelete(ctx, tx, "teachers", tenantID, id, at, teacher.ErrNotFound)
	})
}
