package webhooksvc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/webhook"
)

func TestSender(t *testing.T) {
	var (
		gotBody    []byte
		gotHeaders http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sender := NewSender(core.NewTestConfig(), srv.Client())
	body := []byte(`{"event":"ping"}`)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"success", "/ok", http.StatusNoContent},
		{"receiver error", "/fail", http.StatusBadGateway},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hook := webhook.Webhook{ID: "w", URL: srv.URL + tc.path, Secret: "s3cret"}
			status, err := sender.Send(context.Background(), hook, core.EventPing, "d-1", body)
			require.NoError(t, err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, body, gotBody)
			assert.Equal(t, core.EventPing, gotHeaders.Get(webhook.EventHeader))
			assert.Equal(t, "d-1", gotHeaders.Get(webhook.DeliveryHeader))
			assert.True(t, webhook.VerifySignature("s3cret", gotBody, gotHeaders.Get(webhook.SignatureHeader)))
		})
	}
}

func TestSenderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	conf := core.NewTestConfig()
	conf.WebhookTimeout = 20 * time.Millisecond
	sender := NewSender(conf, srv.Client())

	status, err := sender.Send(context.Background(), webhook.Webhook{URL: srv.URL}, core.EventPing, "d", nil)
	assert.Error(t, err)
	assert.Zero(t, status)
}
