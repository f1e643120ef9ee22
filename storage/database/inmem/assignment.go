package inmemdb

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) Create(ctx context.Context, a *assignment.Assignment) error {
	return repo.db.write(ctx, func(tenantID string) error {
		a.TenantID = tenantID
		repo.db.assignments.put(tenantID, a.ID, *a)
		return nil
	})
}

func (repo *assignmentRepository) Query(ctx context.Context, filter assignment.QueryFilter, opts core.ListOptions) ([]assignment.Assignment, int, error) {
	var (
		assignments []assignment.Assignment
		total       int
	)
	err := repo.db.read(ctx, func(tenantID string) error {
		matches := repo.db.assignments.all(tenantID, func(a assignment.Assignment) bool {
			return notDeleted(a.DeletedAt) &&
				contains(filter.Search, a.Title, a.Description) &&
				within(a.ClassID, filter.ClassIDs) &&
				(filter.ClassID == "" || a.ClassID == filter.ClassID) &&
				(filter.TeacherID == "" || a.TeacherID == null.StringFrom(filter.TeacherID)) &&
				(filter.Status == "" || a.Status == filter.Status) &&
				(filter.DueFrom.IsZero() || !a.DueDate.Before(filter.DueFrom)) &&
				(filter.DueTo.IsZero() || !a.DueDate.After(filter.DueTo))
		})
		assignments, total = paginate(matches, opts, desc("due_date"))
		return nil
	})
	return assignments, total, err
}

func (repo *assignmentRepository) Get(ctx context.Context, id string) (assignment.Assignment, error) {
	var a assignment.Assignment
	err := repo.db.read(ctx, func(tenantID string) error {
		var ok bool
		if a, ok = repo.db.assignments.get(tenantID, id); !ok || !notDeleted(a.DeletedAt) {
			return assignment.ErrNotFound
		}
		return nil
	})
	return a, err
}

func (repo *assignmentRepository) Update(ctx context.Context, a *assignment.Assignment) error {
	return repo.db.write(ctx, func(tenantID string) error {
		if orig, ok := repo.db.assignments.get(tenantID, a.ID); !ok || !notDeleted(orig.DeletedAt) {
			return assignment.ErrNotFound
		}
		repo.db.assignments.put(tenantID, a.ID, *a)
		return nil
	})
}

func (repo *assignmentRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return repo.db.write(ctx, func(tenantID string) error {
		a, ok := repo.db.assignments.get(tenantID, id)
		if !ok || !notDeleted(a.DeletedAt) {
			return assignment.ErrNotFound
		}
		a.DeletedAt = null.TimeFrom(at)
		a.UpdatedAt = at
		repo.db.assignments.put(tenantID, id, a)
		return nil
	})
}
