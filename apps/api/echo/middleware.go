package echoapi

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/tenant"
	"github.com/iepapp/iep/core/user"
)

// Headers forwarded by clients alongside the session token.
const (
	HeaderTenantID  = "x-tenant-id"
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"

	contextTenantKey = "tenant"
)

// timeoutMiddleware bounds the request context by d.
func timeoutMiddleware(d time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if d <= 0 {
				return next(ctx)
			}
			c, cancel := context.WithTimeout(ctx.Request().Context(), d)
			defer cancel()
			ctx.SetRequest(ctx.Request().WithContext(c))
			return next(ctx)
		}
	}
}

// sessionMiddleware checks the session behind a valid JWT (not revoked, forwarded identity
// headers matching, tenant active) and attaches the tenant to the request context.
func sessionMiddleware(tenants *tenant.Service, revocations user.RevocationStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			req := ctx.Request()

			if claims.Id != "" {
				revoked, err := revocations.IsRevoked(req.Context(), claims.Id)
				if err != nil {
					return errors.Wrap(err, "checking session revocation")
				}
				if revoked {
					return errSessionRevoked
				}
			}

			if h := req.Header.Get(HeaderTenantID); h != "" && h != claims.TenantID {
				return errTenantMismatch
			}
			if h := req.Header.Get(HeaderUserID); h != "" && h != claims.Subject {
				return errUserMismatch
			}
			if h := req.Header.Get(HeaderUserEmail); h != "" && !strings.EqualFold(h, claims.Email) {
				return errUserMismatch
			}

			t, err := tenants.Get(req.Context(), claims.TenantID)
			if err != nil {
				if core.IsNotFound(err) {
					return errTenantUnavailable
				}
				return errors.Wrap(err, "finding session tenant")
			}
			if !t.IsActive {
				return errTenantUnavailable
			}

			ctx.Set(contextTenantKey, t)
			ctx.SetRequest(req.WithContext(tenant.NewContext(req.Context(), t.ID)))
			return next(ctx)
		}
	}
}

// roleMiddleware restricts a route to the given roles.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if !claims.HasRole(roles...) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

var (
	adminOnly   = roleMiddleware(user.RoleAdmin)
	staffOnly   = roleMiddleware(user.RoleAdmin, user.RoleTeacher)
	notAStudent = roleMiddleware(user.RoleAdmin, user.RoleTeacher, user.RoleParent)
)

func getContextTenant(ctx echo.Context) (tenant.Tenant, error) {
	if t, ok := ctx.Get(contextTenantKey).(tenant.Tenant); ok {
		return t, nil
	}
	return tenant.Tenant{}, errUnauthorized
}
