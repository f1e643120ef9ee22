package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevocationStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	s := NewMemoryRevocationStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Revoke(ctx, "a", time.Hour))
	require.NoError(t, s.Revoke(ctx, "expired", 0))

	tests := []struct {
		name    string
		id      string
		after   time.Duration
		revoked bool
	}{
		{"revoked", "a", 0, true},
		{"never revoked", "b", 0, false},
		{"non-positive ttl", "expired", 0, false},
		{"expired", "a", time.Hour, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s.now = func() time.Time { return now.Add(tc.after) }
			revoked, err := s.IsRevoked(ctx, tc.id)
			require.NoError(t, err)
			assert.Equal(t, tc.revoked, revoked)
		})
	}
}
