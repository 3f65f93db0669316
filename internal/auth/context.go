package auth

import (
	"context"

	"github.com/locshare/locshare/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// sessionContextKey is the context key for storing SessionContext.
	sessionContextKey contextKey = "session_context"
)

// ContextWithSession adds SessionContext to the context.
func ContextWithSession(ctx context.Context, session *model.SessionContext) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext retrieves SessionContext from the context.
// Returns nil if not present.
func SessionFromContext(ctx context.Context) *model.SessionContext {
	session, ok := ctx.Value(sessionContextKey).(*model.SessionContext)
	if !ok {
		return nil
	}
	return session
}

// MustSessionFromContext retrieves SessionContext from the context.
// Panics if not present (use only when session middleware has run).
func MustSessionFromContext(ctx context.Context) *model.SessionContext {
	session := SessionFromContext(ctx)
	if session == nil {
		panic("session context not found - ensure session middleware is applied")
	}
	return session
}

// UserIDFromContext is a convenience function to get user ID from context.
// Returns empty string if not authenticated.
func UserIDFromContext(ctx context.Context) string {
	session := SessionFromContext(ctx)
	if session == nil {
		return ""
	}
	return session.UserID
}
