package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	// echo -n '{"event":"ping"}' | openssl dgst -sha256 -hmac 'secret'
	body := []byte(`{"event":"ping"}`)
	sig := Sign("secret", body)
	assert.Equal(t, "sha256=", sig[:7])
	assert.Len(t, sig, 7+64)
	assert.True(t, VerifySignature("secret", body, sig))
	assert.False(t, VerifySignature("other", body, sig))
	assert.False(t, VerifySignature("secret", []byte(`{"event":"pong"}`), sig))
}

func TestWebhookSubscribes(t *testing.T) {
	w := Webhook{IsActive: true, Events: []string{"grade.recorded"}}
	assert.True(t, w.Subscribes("grade.recorded"))
	assert.True(t, w.Subscribes("ping"))
	assert.False(t, w.Subscribes("assignment.created"))

	w.IsActive = false
	assert.False(t, w.Subscribes("grade.recorded"))
}

func TestCleanEvents(t *testing.T) {
	assert.Nil(t, cleanEvents(nil))
	assert.Equal(t, []string{"ping", "grade.recorded"}, cleanEvents([]string{" Ping", "grade.recorded", "ping"}))
}
