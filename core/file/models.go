package file

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
)

// Statuses
const (
	StatusPending = "pending"
	StatusReady   = "ready"
	StatusFailed  = "failed"
)

// Share permissions
const (
	PermissionView = "view"
	PermissionEdit = "edit"
)

// File is the metadata of an uploaded object. The object itself lives in the blob store under StorageKey.
type File struct {
	ID         string    `json:"id" db:"id"`
	TenantID   string    `json:"tenantId" db:"tenant_id"`
	OwnerID    string    `json:"ownerId" db:"owner_id"`
	Name       string    `json:"name" db:"name"`
	MimeType   string    `json:"mimeType" db:"mime_type"`
	SizeBytes  int64     `json:"sizeBytes" db:"size_bytes"`
	StorageKey string    `json:"storageKey" db:"storage_key"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
	DeletedAt  null.Time `json:"-" db:"deleted_at"`
}

type Share struct {
	ID               string    `json:"id" db:"id"`
	TenantID         string    `json:"tenantId" db:"tenant_id"`
	FileID           string    `json:"fileId" db:"file_id"`
	SharedWithUserID string    `json:"sharedWithUserId" db:"shared_with_user_id"`
	Permission       string    `json:"permission" db:"permission"`
	ExpiresAt        null.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
}

// IsActive reports whether the share has not expired at `now`.
func (s Share) IsActive(now time.Time) bool {
	return !s.ExpiresAt.Valid || s.ExpiresAt.Time.After(now)
}

// Quota is the storage allowance of a tenant.
type Quota struct {
	TenantID   string    `json:"tenantId" db:"tenant_id"`
	QuotaBytes int64     `json:"quotaBytes" db:"quota_bytes"`
	UsedBytes  int64     `json:"usedBytes" db:"used_bytes"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// Usage is a Quota report computed at read time.
type Usage struct {
	Quota
	AvailableBytes int64   `json:"availableBytes"`
	UsagePercent   float64 `json:"usagePercent"`
}

func (q Quota) Usage() Usage {
	avail := q.QuotaBytes - q.UsedBytes
	if avail < 0 {
		avail = 0
	}
	return Usage{
		Quota:          q,
		AvailableBytes: avail,
		UsagePercent:   core.Round2(core.Percentage(float64(q.UsedBytes), float64(q.QuotaBytes))),
	}
}

type NewFile struct {
	Name      string `json:"name" validate:"required,notblank,max=255"`
	MimeType  string `json:"mimeType" validate:"required,max=255"`
	SizeBytes int64  `json:"sizeBytes" validate:"gte=0"`
}

func (nf *NewFile) Validate(validate *validator.Validate) error {
	nf.Name = core.CleanString(nf.Name)
	nf.MimeType = core.CleanString(nf.MimeType, true /* lower */)
	return validate.Struct(nf)
}

type UpdateStatus struct {
	Status string `json:"status" validate:"required,oneof=pending ready failed"`
}

func (us *UpdateStatus) Validate(validate *validator.Validate) error {
	us.Status = core.CleanString(us.Status, true /* lower */)
	return validate.Struct(us)
}

type NewShare struct {
	SharedWithUserID string    `json:"sharedWithUserId" validate:"required,uuid"`
	Permission       string    `json:"permission" validate:"required,oneof=view edit"`
	ExpiresAt        null.Time `json:"expiresAt"`
}

func (ns *NewShare) Validate(validate *validator.Validate) error {
	ns.Permission = core.CleanString(ns.Permission, true /* lower */)
	return validate.Struct(ns)
}

type SetQuota struct {
	QuotaBytes int64 `json:"quotaBytes" validate:"gte=0"`
}

func (sq *SetQuota) Validate(validate *validator.Validate) error {
	return validate.Struct(sq)
}

type QueryFilter struct {
	Search       string
	OwnerID      string
	Status       string
	AccessibleBy string // owned by or actively shared with this user
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
