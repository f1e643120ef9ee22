package inmemdb

import (
	"context"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/grade"
)

type gradeRepository struct {
	db *DB
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(db *DB) grade.Repository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) Create(ctx context.Context, g *grade.Grade) error {
	return repo.db.write(ctx, func(tenantID string) error {
		if g.AssignmentID.Valid {
			for _, other := range repo.db.grades[tenantID] {
				if other.AssignmentID == g.AssignmentID && other.StudentID == g.StudentID {
					return grade.ErrAlreadyGraded
				}
			}
		}
		g.TenantID = tenantID
		repo.db.grades.put(tenantID, g.ID, *g)
		return nil
	})
}

func (repo *gradeRepository) Query(ctx context.Context, filter grade.QueryFilter, opts core.ListOptions) ([]grade.Grade, int, error) {
	var (
		grades []grade.Grade
		total  int
	)
	err := repo.db.read(ctx, func(tenantID string) error {
		matches := repo.db.grades.all(tenantID, func(g grade.Grade) bool {
			if filter.AssignmentIDs != nil && !(g.AssignmentID.Valid && within(g.AssignmentID.String, filter.AssignmentIDs)) {
				return false
			}
			return within(g.StudentID, filter.StudentIDs) &&
				(filter.StudentID == "" || g.StudentID == filter.StudentID) &&
				(filter.ClassID == "" || g.ClassID == filter.ClassID) &&
				(filter.AssignmentID == "" || g.AssignmentID.String == filter.AssignmentID)
		})
		grades, total = paginate(matches, opts, desc("graded_at"))
		return nil
	})
	return grades, total, err
}

func (repo *gradeRepository) Get(ctx context.Context, id string) (grade.Grade, error) {
	var g grade.Grade
	err := repo.db.read(ctx, func(tenantID string) error {
		var ok bool
		if g, ok = repo.db.grades.get(tenantID, id); !ok {
			return grade.ErrNotFound
		}
		return nil
	})
	return g, err
}

func (repo *gradeRepository) GetByAssignment(ctx context.Context, assignmentID, studentID string) (grade.Grade, error) {
	var found grade.Grade
	err := repo.db.read(ctx, func(tenantID string) error {
		for _, g := range repo.db.grades[tenantID] {
			if g.AssignmentID.Valid && g.AssignmentID.String == assignmentID && g.StudentID == studentID {
				found = g
				return nil
			}
		}
		return grade.ErrNotFound
	})
	return found, err
}

func (repo *gradeRepository) Update(ctx context.Context, g *grade.Grade) error {
	return repo.db.write(ctx, func(tenantID string) error {
		if _, ok := repo.db.grades.get(tenantID, g.ID); !ok {
			return grade.ErrNotFound
		}
		repo.db.grades.put(tenantID, g.ID, *g)
		return nil
	})
}

func (repo *gradeRepository) Delete(ctx context.Context, id string) error {
	return repo.db.write(ctx, func(tenantID string) error {
		if !repo.db.grades.remove(tenantID, id) {
			return grade.ErrNotFound
		}
		return nil
	})
}
