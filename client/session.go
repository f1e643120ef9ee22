package client

import (
	"context"
)

// Headers forwarded with every authenticated request.
const (
	HeaderTenantID  = "x-tenant-id"
	HeaderUserEmail = "X-User-Email"
	HeaderUserID    = "X-User-ID"
)

// Session is the identity issued by the authentication provider.
type Session struct {
	Token    string
	UserID   string
	Email    string
	TenantID string
}

func (s *Session) valid() bool {
	return s != nil && s.Token != "" && s.TenantID != ""
}

func (s *Session) headers() map[string]string {
	h := map[string]string{
		"Authorization": "Bearer " + s.Token,
		HeaderTenantID:  s.TenantID,
	}
	if s.UserID != "" {
		h[HeaderUserID] = s.UserID
	}
	if s.Email != "" {
		h[HeaderUserEmail] = s.Email
	}
	return h
}

// SessionProvider returns the active session, nil when logged out.
type SessionProvider interface {
	Session(ctx context.Context) (*Session, error)
}

// SessionFunc adapts a function to a SessionProvider.
type SessionFunc func(ctx context.Context) (*Session, error)

func (f SessionFunc) Session(ctx context.Context) (*Session, error) { return f(ctx) }

// StaticSession always returns s.
func StaticSession(s Session) SessionProvider {
	return SessionFunc(func(context.Context) (*Session, error) { return &s, nil })
}
