package file

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"
)

func TestQuotaUsage(t *testing.T) {
	u := Quota{QuotaBytes: 1000, UsedBytes: 333}.Usage()
	assert.Equal(t, int64(667), u.AvailableBytes)
	assert.Equal(t, 33.3, u.UsagePercent)

	u = Quota{QuotaBytes: 0, UsedBytes: 0}.Usage()
	assert.Equal(t, int64(0), u.AvailableBytes)
	assert.Equal(t, 0.0, u.UsagePercent)
}

func TestShareIsActive(t *testing.T) {
	now := time.Now()
	assert.True(t, Share{}.IsActive(now))
	assert.True(t, Share{ExpiresAt: null.TimeFrom(now.Add(time.Hour))}.IsActive(now))
	assert.False(t, Share{ExpiresAt: null.TimeFrom(now.Add(-time.Hour))}.IsActive(now))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, canTransition(StatusPending, StatusReady))
	assert.True(t, canTransition(StatusPending, StatusFailed))
	assert.False(t, canTransition(StatusReady, StatusPending))
	assert.False(t, canTransition(StatusFailed, StatusReady))
	assert.False(t, canTransition(StatusPending, StatusPending))
}
