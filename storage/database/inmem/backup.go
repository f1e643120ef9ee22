package inmemdb

import (
	"context"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/backup"
)

type backupRepository struct {
	db *DB
}

var _ backup.Repository = (*backupRepository)(nil)

func NewBackupRepository(db *DB) backup.Repository {
	return &backupRepository{db: db}
}

func (repo *backupRepository) Create(ctx context.Context, j *backup.Job) error {
	return repo.db.write(ctx, func(tenantID string) error {
		j.TenantID = tenantID
		repo.db.backups.put(tenantID, j.ID, *j)
		return nil
	})
}

func (repo *backupRepository) Query(ctx context.Context, filter backup.QueryFilter, opts core.ListOptions) ([]backup.Job, int, error) {
	var (
		jobs  []backup.Job
		total int
	)
	err := repo.db.read(ctx, func(tenantID string) error {
		matches := repo.db.backups.all(tenantID, func(j backup.Job) bool {
			return (filter.Status == "" || j.Status == filter.Status) &&
				(filter.Trigger == "" || j.Trigger == filter.Trigger)
		})
		jobs, total = paginate(matches, opts, desc("created_at"))
		return nil
	})
	return jobs, total, err
}

func (repo *backupRepository) Get(ctx context.Context, id string) (backup.Job, error) {
	var j backup.Job
	err := repo.db.read(ctx, func(tenantID string) error {
		var ok bool
		if j, ok = repo.db.backups.get(tenantID, id); !ok {
			return backup.ErrNotFound
		}
		return nil
	})
	return j, err
}

func (repo *backupRepository) Update(ctx context.Context, j *backup.Job) error {
	return repo.db.write(ctx, func(tenantID string) error {
		if _, ok := repo.db.backups.get(tenantID, j.ID); !ok {
			return backup.ErrNotFound
		}
		repo.db.backups.put(tenantID, j.ID, *j)
		return nil
	})
}

// CountRows counts the rows of the tables the SQL store backs up, soft-deleted rows included.
func (repo *backupRepository) CountRows(ctx context.Context) (backup.Manifest, error) {
	manifest := make(backup.Manifest)
	err := repo.db.read(ctx, func(tenantID string) error {
		var enrollments, classTeachers int64
		for _, m := range repo.db.enrollments[tenantID] {
			enrollments += int64(len(m))
		}
		for _, m := range repo.db.classTeachers[tenantID] {
			classTeachers += int64(len(m))
		}
		manifest["users"] = int64(len(repo.db.users[tenantID]))
		manifest["students"] = int64(len(repo.db.students[tenantID]))
		manifest["teachers"] = int64(len(repo.db.teachers[tenantID]))
		manifest["classes"] = int64(len(repo.db.classes[tenantID]))
		manifest["class_students"] = enrollments
		manifest["class_teachers"] = classTeachers
		manifest["files"] = int64(len(repo.db.files[tenantID]))
		manifest["file_shares"] = int64(len(repo.db.shares[tenantID]))
		manifest["assignments"] = int64(len(repo.db.assignments[tenantID]))
		manifest["grades"] = int64(len(repo.db.grades[tenantID]))
		manifest["attendance_records"] = int64(len(repo.db.attendance[tenantID]))
		manifest["webhooks"] = int64(len(repo.db.webhooks[tenantID]))
		manifest["schedule_entries"] = int64(len(repo.db.schedules[tenantID]))
		return nil
	})
	return manifest, err
}
