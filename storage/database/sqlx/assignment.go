package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/assignment"
)

var (
	assignmentColumns = []string{
		"id", "tenant_id", "class_id", "teacher_id", "title", "description", "due_date", "max_score", "status",
		"created_at", "updated_at",
	}
	assignmentSortable = sortable("title", "due_date", "max_score", "status", "created_at")
)

type assignmentRepository struct {
	*Store
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(s *Store) assignment.Repository {
	return &assignmentRepository{Store: s}
}

func (repo *assignmentRepository) Create(ctx context.Context, a *assignment.Assignment) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		return insert(ctx, tx, "assignments", assignmentColumns, a)
	})
}

func (repo *assignmentRepository) Query(ctx context.Context, filter assignment.QueryFilter, opts core.ListOptions) ([]assignment.Assignment, int, error) {
	assignments := make([]assignment.Assignment, 0)
	var total int
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, true)
		conds.search(filter.Search, "title", "description")
		conds.in("class_id", filter.ClassIDs)
		if filter.ClassID != "" {
			conds.add("class_id = ?", filter.ClassID)
		}
		if filter.TeacherID != "" {
			conds.add("teacher_id = ?", filter.TeacherID)
		}
		if filter.Status != "" {
			conds.add("status = ?", filter.Status)
		}
		if !filter.DueFrom.IsZero() {
			conds.add("due_date >= ?", filter.DueFrom)
		}
		if !filter.DueTo.IsZero() {
			conds.add("due_date <= ?", filter.DueTo)
		}
		var err error
		total, err = list(ctx, tx, &assignments, listQuery{
			table: "assignments", conds: conds, opts: opts, sortable: assignmentSortable, order: "due_date DESC",
		})
		return err
	})
	return assignments, total, err
}

func (repo *assignmentRepository) Get(ctx context.Context, id string) (assignment.Assignment, error) {
	var a assignment.Assignment
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, true)
		conds.add("id = ?", id)
		return get(ctx, tx, &a, "assignments", conds, assignment.ErrNotFound)
	})
	return a, err
}

func (repo *assignmentRepository) Update(ctx context.Context, a *assignment.Assignment) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		return update(ctx, tx, "assignments", assignmentColumns[2:], a, assignment.ErrNotFound, true)
	})
}

func (repo *assignmentRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		return softDelete(ctx, tx, "assignments", tenantID, id, at, assignment.ErrNotFound)
	})
}
