package webhook

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/tenant"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("webhook")
)

type (
	// Repository persists webhooks of the tenant carried by the context.
	Repository interface {
		Create(ctx context.Context, w *Webhook) error
		Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]Webhook, int, error)
		Get(ctx context.Context, id string) (Webhook, error)
		Update(ctx context.Context, w *Webhook) error
		Delete(ctx context.Context, id string) error
		RecordDelivery(ctx context.Context, id string, status int, at time.Time) error
	}

	// Sender POSTs a signed body to a webhook and returns the response status code.
	Sender interface {
		Send(ctx context.Context, hook Webhook, event, deliveryID string, body []byte) (int, error)
	}

	// Service manages webhooks and delivers domain events to them.
	Service struct {
		repo   Repository
		sender Sender
		logger core.Logger
		wg     sync.WaitGroup
	}
)

var _ core.EventPublisher = (*Service)(nil)

func NewService(repo Repository, sender Sender, logger core.Logger) *Service {
	return &Service{repo: repo, sender: sender, logger: logger}
}

func (svc *Service) Create(ctx context.Context, nw NewWebhook) (WithSecret, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return WithSecret{}, err
	}
	secret := nw.Secret
	if secret == "" {
		if secret, err = newSecret(); err != nil {
			return WithSecret{}, errors.Wrap(err, "generating secret")
		}
	}
	now := time.Now().UTC()
	w := Webhook{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		URL:       nw.URL,
		Events:    nw.Events,
		Secret:    secret,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := svc.repo.Create(ctx, &w); err != nil {
		return WithSecret{}, errors.Wrap(err, "creating webhook")
	}
	return WithSecret{Webhook: w, Secret: secret}, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]Webhook, int, error) {
	return svc.repo.Query(ctx, filter, opts)
}

func (svc *Service) Get(ctx context.Context, id string) (Webhook, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, uw UpdateWebhook) (Webhook, error) {
	w, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Webhook{}, err
	}
	if uw.URL != "" {
		w.URL = uw.URL
	}
	if uw.Events != nil {
		w.Events = uw.Events
	}
	if uw.IsActive != nil {
		w.IsActive = *uw.IsActive
	}
	w.UpdatedAt = time.Now().UTC()
	if err := svc.repo.Update(ctx, &w); err != nil {
		return Webhook{}, errors.Wrap(err, "updating webhook")
	}
	return w, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}

// Deliver POSTs one event to a webhook and records the outcome. A failed delivery is not retried.
func (svc *Service) Deliver(ctx context.Context, w Webhook, event string, payload interface{}) (Delivery, error) {
	env := Envelope{
		ID:         uuid.NewString(),
		Event:      event,
		TenantID:   w.TenantID,
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return Delivery{}, errors.Wrap(err, "encoding webhook payload")
	}

	d := Delivery{WebhookID: w.ID, Event: event}
	status, sendErr := svc.sender.Send(ctx, w, event, env.ID, body)
	d.StatusCode = status
	d.DeliveredAt = time.Now().UTC()
	d.Success = sendErr == nil && status >= 200 && status < 300
	if sendErr != nil {
		d.Error = sendErr.Error()
	}

	if err := svc.repo.RecordDelivery(ctx, w.ID, status, d.DeliveredAt); err != nil {
		return d, errors.Wrap(err, "recording webhook delivery")
	}
	return d, nil
}

// Ping delivers a ping event to the webhook.
func (svc *Service) Ping(ctx context.Context, id string) (Delivery, error) {
	w, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Delivery{}, err
	}
	if !w.IsActive {
		return Delivery{}, core.NewConflictError("webhook is inactive")
	}
	return svc.Deliver(ctx, w, core.EventPing, map[string]interface{}{"webhookId": w.ID})
}

// Publish delivers event in the background to every active webhook of the tenant subscribed to it.
func (svc *Service) Publish(ctx context.Context, event string, payload interface{}) {
	ctx = context.WithoutCancel(ctx)
	svc.wg.Add(1)
	go func() {
		defer svc.wg.Done()
		if err := svc.publish(ctx, event, payload); err != nil {
			svc.logger.Error("publishing "+event, err)
		}
	}()
}

func (svc *Service) publish(ctx context.Context, event string, payload interface{}) error {
	active := true
	hooks, _, err := svc.repo.Query(ctx, QueryFilter{Event: event, IsActive: &active}, core.AllRows)
	if err != nil {
		return errors.Wrap(err, "querying webhooks")
	}
	for _, w := range hooks {
		if !w.Subscribes(event) {
			continue
		}
		d, err := svc.Deliver(ctx, w, event, payload)
		if err != nil {
			svc.logger.Error("delivering "+event+" to webhook "+w.ID, err)
			continue
		}
		if !d.Success {
			svc.logger.Warn("webhook delivery failed", map[string]interface{}{
				"webhookId": w.ID, "event": event, "status": d.StatusCode, "error": d.Error,
			})
		}
	}
	return nil
}

// Wait blocks until every background delivery is done.
func (svc *Service) Wait() {
	svc.wg.Wait()
}

