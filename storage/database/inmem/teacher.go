package inmemdb

import (
	"context"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/teacher"
)

type teacherRepository struct {
	db *DB
}

var _ teacher.Repository = (*teacherRepository)(nil)

func NewTeacherRepository(db *DB) teacher.Repository {
	return &teacherRepository{db: db}
}

func (repo *teacherRepository) Create(ctx context.Context, t *teacher.Teacher) error {
	return repo.db.write(ctx, func(tenantID string) error {
		t.TenantID = tenantID
		repo.db.teachers.put(tenantID, t.ID, *t)
		return nil
	})
}

func (repo *teacherRepository) Query(ctx context.Context, filter teacher.QueryFilter, opts core.ListOptions) ([]teacher.Teacher, int, error) {
	var (
		teachers []teacher.Teacher
		total    int
	)
	err := repo.db.read(ctx, func(tenantID string) error {
		var assigned map[string]bool
		if filter.ClassID != "" {
			assigned = make(map[string]bool)
			for id := range repo.db.classTeachers[tenantID][filter.ClassID] {
				assigned[id] = true
			}
		}
		matches := repo.db.teachers.all(tenantID, func(t teacher.Teacher) bool {
			return notDeleted(t.DeletedAt) &&
				(assigned == nil || assigned[t.ID]) &&
				contains(filter.Search, t.FirstName, t.LastName, t.EmployeeNumber, t.Email.String) &&
				(filter.Subject == "" || strings.EqualFold(t.Subject.String, filter.Subject)) &&
				(filter.UserID == "" || t.UserID == null.StringFrom(filter.UserID))
		})
		teachers, total = paginate(matches, opts, asc("last_name"), asc("first_name"))
		return nil
	})
	return teachers, total, err
}

func (repo *teacherRepository) find(ctx context.Context, match func(teacher.Teacher) bool) (teacher.Teacher, error) {
	var found teacher.Teacher
	err := repo.db.read(ctx, func(tenantID string) error {
		for _, t := range repo.db.teachers[tenantID] {
			if notDeleted(t.DeletedAt) && match(t) {
				found = t
				return nil
			}
		}
		return teacher.ErrNotFound
	})
	return found, err
}

func (repo *teacherRepository) Get(ctx context.Context, id string) (teacher.Teacher, error) {
	return repo.find(ctx, func(t teacher.Teacher) bool { return t.ID == id })
}

func (repo *teacherRepository) GetByNumber(ctx context.Context, number string) (teacher.Teacher, error) {
	return repo.find(ctx, func(t teacher.Teacher) bool { return t.EmployeeNumber == number })
}

func (repo *teacherRepository) Update(ctx context.Context, t *teacher.Teacher) error {
	return repo.db.write(ctx, func(tenantID string) error {
		if orig, ok := repo.db.teachers.get(tenantID, t.ID); !ok || !notDeleted(orig.DeletedAt) {
			return teacher.ErrNotFound
		}
		repo.db.teachers.put(tenantID, t.ID, *t)
		return nil
	})
}

func (repo *teacherRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return repo.db.write(ctx, func(tenantID string) error {
		t, ok := repo.db.teachers.get(tenantID, id)
		if !ok || !notDeleted(t.DeletedAt) {
			return teacher.ErrNotFound
		}
		t.DeletedAt = null.TimeFrom(at)
		t.UpdatedAt = at
		repo.db.teachers.put(tenantID, id, t)
		return nil
	})
}
