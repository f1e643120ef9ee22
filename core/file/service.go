package file

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/tenant"
	"github.com/iepapp/iep/core/user"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("file")
	ErrShareNotFound     = core.NewNotFoundError("file share")
	ErrQuotaExceeded     = errors.New("storage quota exceeded")
	ErrQuotaBelowUsage   = errors.New("quota cannot be lower than the used storage")
	ErrShareWithOwner    = errors.New("a file cannot be shared with its owner")
	ErrInvalidTransition = errors.New("invalid status transition")

	nowFunc = time.Now // mockable
)

// transitions lists the statuses each status may move to.
var transitions = map[string][]string{
	StatusPending: {StatusReady, StatusFailed},
}

func canTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type (
	// Repository persists file metadata, shares and quotas of the tenant carried by the context.
	Repository interface {
		// CreateWithinQuota inserts the file and adds its size to the tenant usage in one
		// transaction holding the quota row lock. It returns ErrQuotaExceeded when the file
		// does not fit. A tenant without a quota row gets one of `defaultQuota` bytes.
		CreateWithinQuota(ctx context.Context, f *File, defaultQuota int64) error
		Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]File, int, error)
		Get(ctx context.Context, id string) (File, error)
		UpdateStatus(ctx context.Context, id, status string, at time.Time) error
		// SoftDelete marks the file deleted and releases its size from the tenant usage.
		SoftDelete(ctx context.Context, id string, at time.Time) error

		CreateShare(ctx context.Context, s *Share) error
		Shares(ctx context.Context, fileID string) ([]Share, error)
		DeleteShare(ctx context.Context, fileID, shareID string) error

		Quota(ctx context.Context, defaultQuota int64) (Quota, error)
		// SetQuota returns ErrQuotaBelowUsage when `bytes` is lower than the used storage.
		SetQuota(ctx context.Context, bytes, defaultQuota int64, at time.Time) (Quota, error)
	}

	UserGetter interface {
		Get(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo         Repository
		users        UserGetter
		defaultQuota int64
	}
)

func NewService(conf *core.Config, repo Repository, users UserGetter) *Service {
	return &Service{repo: repo, users: users, defaultQuota: conf.DefaultQuotaBytes}
}

// Create records the metadata of a file owned by `ownerID`, in pending status.
func (svc *Service) Create(ctx context.Context, nf NewFile, ownerID string) (File, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return File{}, err
	}
	now := time.Now().UTC()
	id := uuid.NewString()
	f := File{
		ID:         id,
		TenantID:   tenantID,
		OwnerID:    ownerID,
		Name:       nf.Name,
		MimeType:   nf.MimeType,
		SizeBytes:  nf.SizeBytes,
		StorageKey: path.Join(tenantID, id, path.Base(nf.Name)),
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := svc.repo.CreateWithinQuota(ctx, &f, svc.defaultQuota); err != nil {
		if errors.Cause(err) == ErrQuotaExceeded {
			return File{}, core.NewValidationError(ErrQuotaExceeded, core.FieldError{Field: "sizeBytes", Error: ErrQuotaExceeded.Error()})
		}
		return File{}, errors.Wrap(err, "creating file")
	}
	return f, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]File, int, error) {
	return svc.repo.Query(ctx, filter, opts)
}

func (svc *Service) Get(ctx context.Context, id string) (File, error) {
	return svc.repo.Get(ctx, id)
}

// Permission returns the permission of `userID` on the file: edit for the owner,
// the share permission for active shares and "" otherwise.
func (svc *Service) Permission(ctx context.Context, f File, userID string) (string, error) {
	if f.OwnerID == userID {
		return PermissionEdit, nil
	}
	shares, err := svc.repo.Shares(ctx, f.ID)
	if err != nil {
		return "", errors.Wrap(err, "listing shares")
	}
	now := nowFunc()
	perm := ""
	for _, s := range shares {
		if s.SharedWithUserID != userID || !s.IsActive(now) {
			continue
		}
		if s.Permission == PermissionEdit {
			return PermissionEdit, nil
		}
		perm = s.Permission
	}
	return perm, nil
}

// SetStatus moves a pending file to ready or failed.
func (svc *Service) SetStatus(ctx context.Context, id string, us UpdateStatus) (File, error) {
	f, err := svc.repo.Get(ctx, id)
	if err != nil {
		return File{}, err
	}
	if !canTransition(f.Status, us.Status) {
		msg := fmt.Sprintf("cannot change status from %s to %s", f.Status, us.Status)
		return File{}, core.NewValidationError(ErrInvalidTransition, core.FieldError{Field: "status", Error: msg})
	}
	now := time.Now().UTC()
	if err := svc.repo.UpdateStatus(ctx, id, us.Status, now); err != nil {
		return File{}, errors.Wrap(err, "updating file status")
	}
	f.Status = us.Status
	f.UpdatedAt = now
	return f, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.SoftDelete(ctx, id, time.Now().UTC())
}

func (svc *Service) Share(ctx context.Context, fileID string, ns NewShare) (Share, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return Share{}, err
	}
	f, err := svc.repo.Get(ctx, fileID)
	if err != nil {
		return Share{}, err
	}
	if f.OwnerID == ns.SharedWithUserID {
		return Share{}, core.NewValidationError(ErrShareWithOwner, core.FieldError{Field: "sharedWithUserId", Error: ErrShareWithOwner.Error()})
	}
	if _, err := svc.users.Get(ctx, ns.SharedWithUserID); err != nil {
		if core.IsNotFound(err) {
			return Share{}, core.NewValidationError(nil, core.FieldError{Field: "sharedWithUserId", Error: user.ErrNotFound.Error()})
		}
		return Share{}, errors.Wrap(err, "finding user")
	}
	now := time.Now().UTC()
	if ns.ExpiresAt.Valid && !ns.ExpiresAt.Time.After(now) {
		return Share{}, core.NewValidationError(nil, core.FieldError{Field: "expiresAt", Error: "must be in the future"})
	}

	s := Share{
		ID:               uuid.NewString(),
		TenantID:         tenantID,
		FileID:           f.ID,
		SharedWithUserID: ns.SharedWithUserID,
		Permission:       ns.Permission,
		ExpiresAt:        ns.ExpiresAt,
		CreatedAt:        now,
	}
	if err := svc.repo.CreateShare(ctx, &s); err != nil {
		return Share{}, errors.Wrap(err, "sharing file")
	}
	return s, nil
}

func (svc *Service) Shares(ctx context.Context, fileID string) ([]Share, error) {
	if _, err := svc.repo.Get(ctx, fileID); err != nil {
		return nil, err
	}
	return svc.repo.Shares(ctx, fileID)
}

func (svc *Service) Unshare(ctx context.Context, fileID, shareID string) error {
	return svc.repo.DeleteShare(ctx, fileID, shareID)
}

func (svc *Service) Quota(ctx context.Context) (Usage, error) {
	q, err := svc.repo.Quota(ctx, svc.defaultQuota)
	if err != nil {
		return Usage{}, errors.Wrap(err, "getting quota")
	}
	return q.Usage(), nil
}

func (svc *Service) SetQuota(ctx context.Context, sq SetQuota) (Usage, error) {
	q, err := svc.repo.SetQuota(ctx, sq.QuotaBytes, svc.defaultQuota, time.Now().UTC())
	if err != nil {
		if errors.Cause(err) == ErrQuotaBelowUsage {
			return Usage{}, core.NewValidationError(ErrQuotaBelowUsage, core.FieldError{Field: "quotaBytes", Error: ErrQuotaBelowUsage.Error()})
		}
		return Usage{}, errors.Wrap(err, "setting quota")
	}
	return q.Usage(), nil
}
