package webhooksvc

import (
	"context"
	"net/http"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/webhook"
)

// Sender POSTs signed webhook payloads.
type Sender struct {
	client    *rest.Client
	timeout   time.Duration
	userAgent string
}

var _ webhook.Sender = (*Sender)(nil)

func NewSender(conf *core.Config, httpClient *http.Client) *Sender {
	vala.BeginValidation().Validate(
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(httpClient, "httpClient"),
	).CheckAndPanic()

	return &Sender{
		client:    &rest.Client{HTTPClient: httpClient},
		timeout:   conf.WebhookTimeout,
		userAgent: conf.AppName + "-Webhooks/" + conf.Build,
	}
}

// Send performs a single delivery attempt. Non-2xx responses are reported through the status code only.
func (s *Sender) Send(ctx context.Context, hook webhook.Webhook, event, deliveryID string, body []byte) (int, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	hr, err := rest.BuildRequestObject(rest.Request{
		Method:  rest.Post,
		BaseURL: hook.URL,
		Headers: map[string]string{
			"Content-Type":          "application/json",
			"User-Agent":            s.userAgent,
			webhook.EventHeader:     event,
			webhook.DeliveryHeader:  deliveryID,
			webhook.SignatureHeader: webhook.Sign(hook.Secret, body),
		},
		Body: body,
	})
	if err != nil {
		return 0, errors.Wrap(err, "building webhook request")
	}
	raw, err := s.client.MakeRequest(hr.WithContext(ctx))
	if err != nil {
		return 0, errors.Wrap(err, "posting webhook")
	}
	res, err := rest.BuildResponse(raw)
	if err != nil {
		return 0, errors.Wrap(err, "reading webhook response")
	}
	return res.StatusCode, nil
}
