package backup

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/tenant"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("backup job")
	ErrNotReady = core.NewConflictError("only completed backups can be verified")
)

type (
	// Repository persists backup jobs of the tenant carried by the context.
	Repository interface {
		Create(ctx context.Context, j *Job) error
		Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]Job, int, error)
		Get(ctx context.Context, id string) (Job, error)
		Update(ctx context.Context, j *Job) error
		// CountRows returns the row count of every tenant table.
		CountRows(ctx context.Context) (Manifest, error)
	}

	TenantLister interface {
		ListActive(ctx context.Context) ([]tenant.Tenant, error)
	}

	Service struct {
		repo    Repository
		tenants TenantLister
		events  core.EventPublisher
		logger  core.Logger
		wg      sync.WaitGroup
	}
)

func NewService(repo Repository, tenants TenantLister, events core.EventPublisher, logger core.Logger) *Service {
	if events == nil {
		events = core.NopPublisher
	}
	return &Service{repo: repo, tenants: tenants, events: events, logger: logger}
}

// Start creates a pending job and runs it in the background.
func (svc *Service) Start(ctx context.Context, trigger string) (Job, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return Job{}, err
	}
	j := Job{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Trigger:   trigger,
		Status:    StatusPending,
		Manifest:  Manifest{},
		CreatedAt: time.Now().UTC(),
	}
	if err := svc.repo.Create(ctx, &j); err != nil {
		return Job{}, errors.Wrap(err, "creating backup job")
	}

	ctx = context.WithoutCancel(ctx)
	svc.wg.Add(1)
	go func() {
		defer svc.wg.Done()
		if _, err := svc.Run(ctx, j.ID); err != nil {
			svc.logger.Error("running backup "+j.ID, err)
		}
	}()
	return j, nil
}

// Run takes a pending job through running to completed or failed.
func (svc *Service) Run(ctx context.Context, id string) (Job, error) {
	j, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Job{}, err
	}
	if j.Status != StatusPending {
		return j, core.NewConflictError(fmt.Sprintf("backup job is %s", j.Status))
	}

	j.Status = StatusRunning
	j.StartedAt = null.TimeFrom(time.Now().UTC())
	if err := svc.repo.Update(ctx, &j); err != nil {
		return j, errors.Wrap(err, "starting backup job")
	}

	manifest, err := svc.repo.CountRows(ctx)
	j.CompletedAt = null.TimeFrom(time.Now().UTC())
	if err != nil {
		j.Status = StatusFailed
		j.Error = err.Error()
	} else {
		j.Status = StatusCompleted
		j.Manifest = manifest
	}
	if uerr := svc.repo.Update(ctx, &j); uerr != nil {
		return j, errors.Wrap(uerr, "finishing backup job")
	}
	if err != nil {
		return j, errors.Wrap(err, "counting rows")
	}
	svc.events.Publish(ctx, core.EventBackupCompleted, j)
	return j, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]Job, int, error) {
	return svc.repo.Query(ctx, filter, opts)
}

func (svc *Service) Get(ctx context.Context, id string) (Job, error) {
	return svc.repo.Get(ctx, id)
}

// Verify recounts the tenant tables and marks the job verified when they match its manifest.
func (svc *Service) Verify(ctx context.Context, id string) (Job, error) {
	j, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Job{}, err
	}
	if j.Status != StatusCompleted && j.Status != StatusVerified {
		return Job{}, ErrNotReady
	}
	current, err := svc.repo.CountRows(ctx)
	if err != nil {
		return Job{}, errors.Wrap(err, "counting rows")
	}
	if drift := diff(j.Manifest, current); len(drift) > 0 {
		return Job{}, core.NewValidationError(errors.New("backup manifest does not match the current data"), drift...)
	}

	j.Status = StatusVerified
	j.VerifiedAt = null.TimeFrom(time.Now().UTC())
	if err := svc.repo.Update(ctx, &j); err != nil {
		return Job{}, errors.Wrap(err, "verifying backup job")
	}
	return j, nil
}

// diff lists the tables whose counts differ, sorted by name.
func diff(want, got Manifest) []core.FieldError {
	tables := make(map[string]bool, len(want)+len(got))
	for t := range want {
		tables[t] = true
	}
	for t := range got {
		tables[t] = true
	}
	names := make([]string, 0, len(tables))
	for t := range tables {
		if want[t] != got[t] {
			names = append(names, t)
		}
	}
	sort.Strings(names)

	fields := make([]core.FieldError, 0, len(names))
	for _, t := range names {
		fields = append(fields, core.FieldError{
			Field: "manifest." + t,
			Error: fmt.Sprintf("expected %d rows, found %d", want[t], got[t]),
		})
	}
	return fields
}

// RunScheduled starts a scheduled job for every active tenant and waits for them.
func (svc *Service) RunScheduled(ctx context.Context) error {
	tenants, err := svc.tenants.ListActive(ctx)
	if err != nil {
		return errors.Wrap(err, "listing tenants")
	}
	for _, t := range tenants {
		tctx := tenant.NewContext(ctx, t.ID)
		j, err := svc.Start(tctx, TriggerScheduled)
		if err != nil {
			svc.logger.Error("scheduling backup for tenant "+t.Subdomain, err)
			continue
		}
		svc.logger.Info("backup scheduled", map[string]interface{}{"tenant": t.Subdomain, "job": j.ID})
	}
	svc.Wait()
	return nil
}

// Wait blocks until every background job is done.
func (svc *Service) Wait() {
	svc.wg.Wait()
}
