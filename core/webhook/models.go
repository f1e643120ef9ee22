package webhook

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
)

type Webhook struct {
	ID             string         `json:"id" db:"id"`
	TenantID       string         `json:"tenantId" db:"tenant_id"`
	URL            string         `json:"url" db:"url"`
	Events         pq.StringArray `json:"events" db:"events"`
	Secret         string         `json:"-" db:"secret"`
	IsActive       bool           `json:"isActive" db:"is_active"`
	LastStatus     null.Int       `json:"lastStatus" db:"last_status"`
	LastDeliveryAt null.Time      `json:"lastDeliveryAt" db:"last_delivery_at"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time      `json:"updatedAt" db:"updated_at"`
}

// Subscribes reports whether the webhook receives `event`. Every active webhook receives pings.
func (w Webhook) Subscribes(event string) bool {
	if !w.IsActive {
		return false
	}
	if event == core.EventPing {
		return true
	}
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}

// WithSecret exposes the signing secret; it is only returned when a webhook is created.
type WithSecret struct {
	Webhook
	Secret string `json:"secret"`
}

type NewWebhook struct {
	URL    string   `json:"url" validate:"required,url,startswith=http"`
	Events []string `json:"events" validate:"required,min=1,dive,event"`
	Secret string   `json:"secret" validate:"omitempty,min=16,max=128"`
}

func (nw *NewWebhook) Validate(validate *validator.Validate) error {
	nw.URL = core.CleanString(nw.URL)
	nw.Events = cleanEvents(nw.Events)
	return validate.Struct(nw)
}

type UpdateWebhook struct {
	URL      string   `json:"url" validate:"omitempty,url,startswith=http"`
	Events   []string `json:"events" validate:"omitempty,min=1,dive,event"`
	IsActive *bool    `json:"isActive"`
}

func (uw *UpdateWebhook) Validate(validate *validator.Validate) error {
	uw.URL = core.CleanString(uw.URL)
	uw.Events = cleanEvents(uw.Events)
	return validate.Struct(uw)
}

func cleanEvents(events []string) []string {
	if events == nil {
		return nil
	}
	seen := make(map[string]bool, len(events))
	out := make([]string, 0, len(events))
	for _, e := range events {
		e = core.CleanString(e, true /* lower */)
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

type QueryFilter struct {
	Event    string
	IsActive *bool
}

// Envelope is the JSON body POSTed to webhooks.
type Envelope struct {
	ID         string      `json:"id"`
	Event      string      `json:"event"`
	TenantID   string      `json:"tenantId"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       interface{} `json:"data"`
}

// Delivery is the outcome of one POST to a webhook.
type Delivery struct {
	WebhookID   string    `json:"webhookId"`
	Event       string    `json:"event"`
	StatusCode  int       `json:"statusCode"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	DeliveredAt time.Time `json:"deliveredAt"`
}
