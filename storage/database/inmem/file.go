package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/file"
)

type fileRepository struct {
	db *DB
}

var _ file.Repository = (*fileRepository)(nil)

func NewFileRepository(db *DB) file.Repository {
	return &fileRepository{db: db}
}

func (repo *fileRepository) quota(tenantID string, defaultQuota int64) file.Quota {
	q, ok := repo.db.quotas[tenantID]
	if !ok {
		q = file.Quota{TenantID: tenantID, QuotaBytes: defaultQuota}
	}
	return q
}

func (repo *fileRepository) CreateWithinQuota(ctx context.Context, f *file.File, defaultQuota int64) error {
	return repo.db.write(ctx, func(tenantID string) error {
		q := repo.quota(tenantID, defaultQuota)
		if q.UsedBytes+f.SizeBytes > q.QuotaBytes {
			return file.ErrQuotaExceeded
		}
		q.UsedBytes += f.SizeBytes
		q.UpdatedAt = f.CreatedAt
		repo.db.quotas[tenantID] = q

		f.TenantID = tenantID
		repo.db.files.put(tenantID, f.ID, *f)
		return nil
	})
}

func (repo *fileRepository) sharedWith(tenantID, userID string, now time.Time) map[string]bool {
	ids := make(map[string]bool)
	for _, s := range repo.db.shares[tenantID] {
		if s.SharedWithUserID == userID && s.IsActive(now) {
			ids[s.FileID] = true
		}
	}
	return ids
}

func (repo *fileRepository) Query(ctx context.Context, filter file.QueryFilter, opts core.ListOptions) ([]file.File, int, error) {
	var (
		files []file.File
		total int
	)
	err := repo.db.read(ctx, func(tenantID string) error {
		var shared map[string]bool
		if filter.AccessibleBy != "" {
			shared = repo.sharedWith(tenantID, filter.AccessibleBy, time.Now().UTC())
		}
		matches := repo.db.files.all(tenantID, func(f file.File) bool {
			return notDeleted(f.DeletedAt) &&
				contains(filter.Search, f.Name) &&
				(filter.OwnerID == "" || f.OwnerID == filter.OwnerID) &&
				(filter.Status == "" || f.Status == filter.Status) &&
				(filter.AccessibleBy == "" || f.OwnerID == filter.AccessibleBy || shared[f.ID])
		})
		files, total = paginate(matches, opts, desc("created_at"))
		return nil
	})
	return files, total, err
}

func (repo *fileRepository) get(tenantID, id string) (file.File, bool) {
	f, ok := repo.db.files.get(tenantID, id)
	return f, ok && notDeleted(f.DeletedAt)
}

func (repo *fileRepository) Get(ctx context.Context, id string) (file.File, error) {
	var f file.File
	err := repo.db.read(ctx, func(tenantID string) error {
		var ok bool
		if f, ok = repo.get(tenantID, id); !ok {
			return file.ErrNotFound
		}
		return nil
	})
	return f, err
}

func (repo *fileRepository) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	return repo.db.write(ctx, func(tenantID string) error {
		f, ok := repo.get(tenantID, id)
		if !ok {
			return file.ErrNotFound
		}
		f.Status, f.UpdatedAt = status, at
		repo.db.files.put(tenantID, id, f)
		return nil
	})
}

func (repo *fileRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return repo.db.write(ctx, func(tenantID string) error {
		f, ok := repo.get(tenantID, id)
		if !ok {
			return file.ErrNotFound
		}
		f.DeletedAt, f.UpdatedAt = null.TimeFrom(at), at
		repo.db.files.put(tenantID, id, f)

		if q, ok := repo.db.quotas[tenantID]; ok {
			q.UsedBytes -= f.SizeBytes
			if q.UsedBytes < 0 {
				q.UsedBytes = 0
			}
			q.UpdatedAt = at
			repo.db.quotas[tenantID] = q
		}
		return nil
	})
}

func (repo *fileRepository) CreateShare(ctx context.Context, s *file.Share) error {
	return repo.db.write(ctx, func(tenantID string) error {
		if _, ok := repo.get(tenantID, s.FileID); !ok {
			return file.ErrNotFound
		}
		s.TenantID = tenantID
		repo.db.shares.put(tenantID, s.ID, *s)
		return nil
	})
}

func (repo *fileRepository) Shares(ctx context.Context, fileID string) ([]file.Share, error) {
	var shares []file.Share
	err := repo.db.read(ctx, func(tenantID string) error {
		shares = repo.db.shares.all(tenantID, func(s file.Share) bool { return s.FileID == fileID })
		sort.Slice(shares, func(i, j int) bool { return shares[i].CreatedAt.Before(shares[j].CreatedAt) })
		return nil
	})
	return shares, err
}

func (repo *fileRepository) DeleteShare(ctx context.Context, fileID, shareID string) error {
	return repo.db.write(ctx, func(tenantID string) error {
		if s, ok := repo.db.shares.get(tenantID, shareID); !ok || s.FileID != fileID {
			return file.ErrShareNotFound
		}
		repo.db.shares.remove(tenantID, shareID)
		return nil
	})
}

func (repo *fileRepository) Quota(ctx context.Context, defaultQuota int64) (file.Quota, error) {
	var q file.Quota
	err := repo.db.read(ctx, func(tenantID string) error {
		q = repo.quota(tenantID, defaultQuota)
		return nil
	})
	return q, err
}

func (repo *fileRepository) SetQuota(ctx context.Context, bytes, defaultQuota int64, at time.Time) (file.Quota, error) {
	var q file.Quota
	err := repo.db.write(ctx, func(tenantID string) error {
		q = repo.quota(tenantID, defaultQuota)
		if bytes < q.UsedBytes {
			return file.ErrQuotaBelowUsage
		}
		q.QuotaBytes, q.UpdatedAt = bytes, at
		repo.db.quotas[tenantID] = q
		return nil
	})
	return q, err
}
