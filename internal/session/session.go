// Package session owns the lifecycle of per-browser sessions: creation on a
// successful login, identity and role binding, and invalidation on logout or
// inactivity. Sessions and their carts live in an explicit Store keyed by an
// opaque token.
package session

import (
	"context"
	"time"

	"github.com/inventario/inventario/internal/shared"
)

// Session is the identity bound to a token. The zero value is anonymous.
type Session struct {
	Token        string
	Username     string
	Role         shared.Role
	CreatedAt    time.Time
	LastActivity time.Time
}

// Anonymous returns a session with no bound identity.
func Anonymous() *Session {
	return &Session{}
}

// Bound reports whether an authenticated identity is attached.
func (s *Session) Bound() bool {
	return s != nil && s.Token != "" && s.Username != "" && s.Role.Valid()
}

// Expired reports whether the session has been idle longer than idle.
func (s *Session) Expired(now time.Time, idle time.Duration) bool {
	if idle <= 0 {
		return false
	}
	return now.Sub(s.LastActivity) > idle
}

type contextKey struct{}

// WithContext stores the session in context.
func WithContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext extracts the session from context, falling back to anonymous.
func FromContext(ctx context.Context) *Session {
	if sess, ok := ctx.Value(contextKey{}).(*Session); ok && sess != nil {
		return sess
	}
	return Anonymous()
}
