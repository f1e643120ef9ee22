package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/class"
)

var (
	classColumns  = []string{"id", "tenant_id", "name", "grade_level", "academic_year", "created_at", "updated_at"}
	classSortable = sortable("name", "grade_level", "academic_year", "created_at")
)

type classRepository struct {
	*Store
}

var _ class.Repository = (*classRepository)(nil)

func NewClassRepository(s *Store) class.Repository {
	return &classRepository{Store: s}
}

func (repo *classRepository) Create(ctx context.Context, c *class.Class) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		return insert(ctx, tx, "classes", classColumns, c)
	})
}

func (repo *classRepository) Query(ctx context.Context, filter class.QueryFilter, opts core.ListOptions) ([]class.Class, int, error) {
	classes := make([]class.Class, 0)
	var total int
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, true)
		conds.search(filter.Search, "name")
		conds.in("id", filter.IDs)
		if filter.GradeLevel != nil {
			conds.add("grade_level = ?", *filter.GradeLevel)
		}
		if filter.AcademicYear != "" {
			conds.add("academic_year = ?", filter.AcademicYear)
		}
		var err error
		total, err = list(ctx, tx, &classes, listQuery{
			table: "classes", conds: conds, opts: opts, sortable: classSortable, order: "academic_year DESC, grade_level ASC, name ASC",
		})
		return err
	})
	return classes, total, err
}

func (repo *classRepository) Get(ctx context.Context, id string) (class.Class, error) {
	var c class.Class
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, true)
		conds.add("id = ?", id)
		return get(ctx, tx, &c, "classes", conds, class.ErrNotFound)
	})
	return c, err
}

func (repo *classRepository) Update(ctx context.Context, c *class.Class) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		return update(ctx, tx, "classes", classColumns[2:], c, class.ErrNotFound, true)
	})
}

func (repo *classRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		return softDelete(ctx, tx, "classes", tenantID, id, at, class.ErrNotFound)
	})
}

func (repo *classRepository) Enroll(ctx context.Context, classID string, studentIDs []string, at time.Time) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		for _, id := range studentIDs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO class_students (tenant_id, class_id, student_id, enrolled_at) VALUES ($1, $2, $3, $4)
				ON CONFLICT (class_id, student_id) DO NOTHING`,
				tenantID, classID, id, at)
			if err != nil {
				return mapError(errors.Wrap(err, "enrolling student"))
			}
		}
		return nil
	})
}

func (repo *classRepository) Unenroll(ctx context.Context, classID, studentID string) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM class_students WHERE tenant_id = $1 AND class_id = $2 AND student_id = $3",
			tenantID, classID, studentID)
		if err != nil {
			return errors.Wrap(err, "unenrolling student")
		}
		return affected(res, class.ErrEnrollmentNotFound)
	})
}

func (repo *classRepository) StudentIDs(ctx context.Context, classID string) ([]string, error) {
	ids := make([]string, 0)
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		return errors.Wrap(tx.SelectContext(ctx, &ids,
			`SELECT cs.student_id FROM class_students cs JOIN students s ON s.id = cs.student_id
			WHERE cs.tenant_id = $1 AND cs.class_id = $2 AND s.deleted_at IS NULL ORDER BY cs.enrolled_at`,
			tenantID, classID), "selecting class students")
	})
	return ids, err
}

func (repo *classRepository) EnrollmentCounts(ctx context.Context, classIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(classIDs))
	if len(classIDs) == 0 {
		return counts, nil
	}
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		q, args, err := sqlx.In(
			`SELECT cs.class_id, count(*) AS n FROM class_students cs JOIN students s ON s.id = cs.student_id
			WHERE cs.tenant_id = ? AND cs.class_id IN (?) AND s.deleted_at IS NULL GROUP BY cs.class_id`,
			tenantID, classIDs)
		if err != nil {
			return err
		}
		var rows []struct {
			ClassID string `db:"class_id"`
			N       int    `db:"n"`
		}
		if err := tx.SelectContext(ctx, &rows, tx.Rebind(q), args...); err != nil {
			return errors.Wrap(err, "counting enrollments")
		}
		for _, r := range rows {
			counts[r.ClassID] = r.N
		}
		return nil
	})
	return counts, err
}

func (repo *classRepository) AssignTeacher(ctx context.Context, ct *class.ClassTeacher) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO class_teachers (tenant_id, class_id, teacher_id, subject, assigned_at)
			VALUES (:tenant_id, :class_id, :teacher_id, :subject, :assigned_at)
			ON CONFLICT (class_id, teacher_id) DO UPDATE SET subject = EXCLUDED.subject, assigned_at = EXCLUDED.assigned_at`,
			ct)
		return mapError(errors.Wrap(err, "assigning teacher"))
	})
}

func (repo *classRepository) RemoveTeacher(ctx context.Context, classID, teacherID string) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM class_teachers WHERE tenant_id = $1 AND class_id = $2 AND teacher_id = $3",
			tenantID, classID, teacherID)
		if err != nil {
			return errors.Wrap(err, "removing teacher")
		}
		return affected(res, class.ErrAssignmentNotFound)
	})
}

func (repo *classRepository) Teachers(ctx context.Context, classID string) ([]class.ClassTeacher, error) {
	teachers := make([]class.ClassTeacher, 0)
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		return errors.Wrap(tx.SelectContext(ctx, &teachers,
			`SELECT ct.* FROM class_teachers ct JOIN teachers t ON t.id = ct.teacher_id
			WHERE ct.tenant_id = $1 AND ct.class_id = $2 AND t.deleted_at IS NULL ORDER BY ct.assigned_at`,
			tenantID, classID), "selecting class teachers")
	})
	return teachers, err
}
