package inmemdb

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) Create(ctx context.Context, s *student.Student) error {
	return repo.db.write(ctx, func(tenantID string) error {
		s.TenantID = tenantID
		repo.db.students.put(tenantID, s.ID, *s)
		return nil
	})
}

func (repo *studentRepository) Query(ctx context.Context, filter student.QueryFilter, opts core.ListOptions) ([]student.Student, int, error) {
	var (
		students []student.Student
		total    int
	)
	err := repo.db.read(ctx, func(tenantID string) error {
		var enrolled map[string]time.Time
		if filter.ClassID != "" {
			enrolled = repo.db.enrollments[tenantID][filter.ClassID]
		}
		matches := repo.db.students.all(tenantID, func(s student.Student) bool {
			if !notDeleted(s.DeletedAt) {
				return false
			}
			if filter.ClassID != "" {
				if _, ok := enrolled[s.ID]; !ok {
					return false
				}
			}
			return contains(filter.Search, s.FirstName, s.LastName, s.StudentNumber, s.Email.String) &&
				within(s.ID, filter.IDs) &&
				(filter.UserID == "" || s.UserID == null.StringFrom(filter.UserID)) &&
				(filter.GuardianUserID == "" || s.GuardianUserID == null.StringFrom(filter.GuardianUserID))
		})
		students, total = paginate(matches, opts, asc("last_name"), asc("first_name"))
		return nil
	})
	return students, total, err
}

func (repo *studentRepository) find(ctx context.Context, match func(student.Student) bool) (student.Student, error) {
	var found student.Student
	err := repo.db.read(ctx, func(tenantID string) error {
		for _, s := range repo.db.students[tenantID] {
			if notDeleted(s.DeletedAt) && match(s) {
				found = s
				return nil
			}
		}
		return student.ErrNotFound
	})
	return found, err
}

func (repo *studentRepository) Get(ctx context.Context, id string) (student.Student, error) {
	return repo.find(ctx, func(s student.Student) bool { return s.ID == id })
}

func (repo *studentRepository) GetByNumber(ctx context.Context, number string) (student.Student, error) {
	return repo.find(ctx, func(s student.Student) bool { return s.StudentNumber == number })
}

func (repo *studentRepository) Update(ctx context.Context, s *student.Student) error {
	return repo.db.write(ctx, func(tenantID string) error {
		if orig, ok := repo.db.students.get(tenantID, s.ID); !ok || !notDeleted(orig.DeletedAt) {
			return student.ErrNotFound
		}
		repo.db.students.put(tenantID, s.ID, *s)
		return nil
	})
}

func (repo *studentRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return repo.db.write(ctx, func(tenantID string) error {
		s, ok := repo.db.students.get(tenantID, id)
		if !ok || !notDeleted(s.DeletedAt) {
			return student.ErrNotFound
		}
		s.DeletedAt = null.TimeFrom(at)
		s.UpdatedAt = at
		repo.db.students.put(tenantID, id, s)
		return nil
	})
}
