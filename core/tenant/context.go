package tenant

import (
	"context"

	"github.com/iepapp/iep/core"
)

type ctxKey struct{}

// NewContext returns a copy of ctx scoped to the tenant `id`.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the tenant ID carried by ctx, or core.ErrNoTenant.
func FromContext(ctx context.Context) (string, error) {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return id, nil
	}
	return "", core.ErrNoTenant
}
