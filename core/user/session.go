package user

import (
	"context"
	"time"
)

// RevocationStore remembers revoked session token IDs until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
