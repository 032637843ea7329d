package middleware

import (
	"context"

	"github.com/SiameseJames22/2DWORLD/internal/application/identity"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionInfo is the per-request view of the browser session.
type SessionInfo struct {
	ID      string
	Session *identity.Session
}

// WithSession injects the session into the context.
func WithSession(ctx context.Context, info *SessionInfo) context.Context {
	return context.WithValue(ctx, sessionContextKey, info)
}

// SessionFromContext returns the session from the context, or nil.
func SessionFromContext(ctx context.Context) *SessionInfo {
	v := ctx.Value(sessionContextKey)
	if v == nil {
		return nil
	}
	s, _ := v.(*SessionInfo)
	return s
}
