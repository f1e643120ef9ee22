package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/grade"
)

var (
	gradeColumns = []string{
		"id", "tenant_id", "student_id", "class_id", "assignment_id", "score", "max_score", "comment",
		"graded_by", "graded_at", "created_at", "updated_at",
	}
	gradeSortable = sortable("score", "max_score", "graded_at", "created_at")
)

type gradeRepository struct {
	*Store
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(s *Store) grade.Repository {
	return &gradeRepository{Store: s}
}

func (repo *gradeRepository) Create(ctx context.Context, g *grade.Grade) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		err := insert(ctx, tx, "grades", gradeColumns, g)
		if _, ok := err.(*core.ConflictError); ok {
			return grade.ErrAlreadyGraded
		}
		return err
	})
}

func (repo *gradeRepository) Query(ctx context.Context, filter grade.QueryFilter, opts core.ListOptions) ([]grade.Grade, int, error) {
	grades := make([]grade.Grade, 0)
	var total int
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, false)
		conds.in("student_id", filter.StudentIDs)
		conds.in("assignment_id", filter.AssignmentIDs)
		if filter.StudentID != "" {
			conds.add("student_id = ?", filter.StudentID)
		}
		if filter.ClassID != "" {
			conds.add("class_id = ?", filter.ClassID)
		}
		if filter.AssignmentID != "" {
			conds.add("assignment_id = ?", filter.AssignmentID)
		}
		var err error
		total, err = list(ctx, tx, &grades, listQuery{
			table: "grades", conds: conds, opts: opts, sortable: gradeSortable, order: "graded_at DESC",
		})
		return err
	})
	return grades, total, err
}

func (repo *gradeRepository) Get(ctx context.Context, id string) (grade.Grade, error) {
	var g grade.Grade
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, false)
		conds.add("id = ?", id)
		return get(ctx, tx, &g, "grades", conds, grade.ErrNotFound)
	})
	return g, err
}

func (repo *gradeRepository) GetByAssignment(ctx context.Context, assignmentID, studentID string) (grade.Grade, error) {
	var g grade.Grade
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, false)
		conds.add("assignment_id = ? AND student_id = ?", assignmentID, studentID)
		return get(ctx, tx, &g, "grades", conds, grade.ErrNotFound)
	})
	return g, err
}

func (repo *gradeRepository) Update(ctx context.Context, g *grade.Grade) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		return update(ctx, tx, "grades", []string{"score", "comment", "graded_by", "graded_at", "updated_at"}, g, grade.ErrNotFound, false)
	})
}

func (repo *gradeRepository) Delete(ctx context.Context, id string) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		return hardDelete(ctx, tx, "grades", tenantID, id, grade.ErrNotFound)
	})
}
