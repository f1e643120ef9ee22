package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/class"
)

type classRepository struct {
	db *DB
}

var _ class.Repository = (*classRepository)(nil)

func NewClassRepository(db *DB) class.Repository {
	return &classRepository{db: db}
}

func (repo *classRepository) Create(ctx context.Context, c *class.Class) error {
	return repo.db.write(ctx, func(tenantID string) error {
		c.TenantID = tenantID
		repo.db.classes.put(tenantID, c.ID, *c)
		return nil
	})
}

func (repo *classRepository) Query(ctx context.Context, filter class.QueryFilter, opts core.ListOptions) ([]class.Class, int, error) {
	var (
		classes []class.Class
		total   int
	)
	err := repo.db.read(ctx, func(tenantID string) error {
		matches := repo.db.classes.all(tenantID, func(c class.Class) bool {
			return notDeleted(c.DeletedAt) &&
				contains(filter.Search, c.Name) &&
				within(c.ID, filter.IDs) &&
				(filter.GradeLevel == nil || c.GradeLevel == *filter.GradeLevel) &&
				(filter.AcademicYear == "" || c.AcademicYear == filter.AcademicYear)
		})
		classes, total = paginate(matches, opts, desc("academic_year"), asc("grade_level"), asc("name"))
		return nil
	})
	return classes, total, err
}

func (repo *classRepository) get(tenantID, id string) (class.Class, bool) {
	c, ok := repo.db.classes.get(tenantID, id)
	return c, ok && notDeleted(c.DeletedAt)
}

func (repo *classRepository) Get(ctx context.Context, id string) (class.Class, error) {
	var c class.Class
	err := repo.db.read(ctx, func(tenantID string) error {
		var ok bool
		if c, ok = repo.get(tenantID, id); !ok {
			return class.ErrNotFound
		}
		return nil
	})
	return c, err
}

func (repo *classRepository) Update(ctx context.Context, c *class.Class) error {
	return repo.db.write(ctx, func(tenantID string) error {
		if _, ok := repo.get(tenantID, c.ID); !ok {
			return class.ErrNotFound
		}
		repo.db.classes.put(tenantID, c.ID, *c)
		return nil
	})
}

func (repo *classRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return repo.db.write(ctx, func(tenantID string) error {
		c, ok := repo.get(tenantID, id)
		if !ok {
			return class.ErrNotFound
		}
		c.DeletedAt = null.TimeFrom(at)
		c.UpdatedAt = at
		repo.db.classes.put(tenantID, id, c)
		return nil
	})
}

func (repo *classRepository) Enroll(ctx context.Context, classID string, studentIDs []string, at time.Time) error {
	return repo.db.write(ctx, func(tenantID string) error {
		if _, ok := repo.get(tenantID, classID); !ok {
			return class.ErrNotFound
		}
		enrolled, ok := repo.db.enrollments.get(tenantID, classID)
		if !ok {
			enrolled = make(map[string]time.Time)
			repo.db.enrollments.put(tenantID, classID, enrolled)
		}
		for _, id := range studentIDs {
			if _, ok := enrolled[id]; !ok {
				enrolled[id] = at
			}
		}
		return nil
	})
}

func (repo *classRepository) Unenroll(ctx context.Context, classID, studentID string) error {
	return repo.db.write(ctx, func(tenantID string) error {
		enrolled := repo.db.enrollments[tenantID][classID]
		if _, ok := enrolled[studentID]; !ok {
			return class.ErrEnrollmentNotFound
		}
		delete(enrolled, studentID)
		return nil
	})
}

// studentIDs lists the enrolled students that are not deleted, by enrollment date.
func (repo *classRepository) studentIDs(tenantID, classID string) []string {
	enrolled := repo.db.enrollments[tenantID][classID]
	ids := make([]string, 0, len(enrolled))
	for id := range enrolled {
		if s, ok := repo.db.students.get(tenantID, id); ok && notDeleted(s.DeletedAt) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		ti, tj := enrolled[ids[i]], enrolled[ids[j]]
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return ids[i] < ids[j]
	})
	return ids
}

func (repo *classRepository) StudentIDs(ctx context.Context, classID string) ([]string, error) {
	var ids []string
	err := repo.db.read(ctx, func(tenantID string) error {
		ids = repo.studentIDs(tenantID, classID)
		return nil
	})
	return ids, err
}

func (repo *classRepository) EnrollmentCounts(ctx context.Context, classIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(classIDs))
	err := repo.db.read(ctx, func(tenantID string) error {
		for _, id := range classIDs {
			if n := len(repo.studentIDs(tenantID, id)); n > 0 {
				counts[id] = n
			}
		}
		return nil
	})
	return counts, err
}

func (repo *classRepository) AssignTeacher(ctx context.Context, ct *class.ClassTeacher) error {
	return repo.db.write(ctx, func(tenantID string) error {
		if _, ok := repo.get(tenantID, ct.ClassID); !ok {
			return class.ErrNotFound
		}
		assigned, ok := repo.db.classTeachers.get(tenantID, ct.ClassID)
		if !ok {
			assigned = make(map[string]class.ClassTeacher)
			repo.db.classTeachers.put(tenantID, ct.ClassID, assigned)
		}
		ct.TenantID = tenantID
		assigned[ct.TeacherID] = *ct
		return nil
	})
}

func (repo *classRepository) RemoveTeacher(ctx context.Context, classID, teacherID string) error {
	return repo.db.write(ctx, func(tenantID string) error {
		assigned := repo.db.classTeachers[tenantID][classID]
		if _, ok := assigned[teacherID]; !ok {
			return class.ErrAssignmentNotFound
		}
		delete(assigned, teacherID)
		return nil
	})
}

func (repo *classRepository) Teachers(ctx context.Context, classID string) ([]class.ClassTeacher, error) {
	out := make([]class.ClassTeacher, 0)
	err := repo.db.read(ctx, func(tenantID string) error {
		for _, ct := range repo.db.classTeachers[tenantID][classID] {
			if t, ok := repo.db.teachers.get(tenantID, ct.TeacherID); ok && notDeleted(t.DeletedAt) {
				out = append(out, ct)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if !out[i].AssignedAt.Equal(out[j].AssignedAt) {
				return out[i].AssignedAt.Before(out[j].AssignedAt)
			}
			return out[i].TeacherID < out[j].TeacherID
		})
		return nil
	})
	return out, err
}
