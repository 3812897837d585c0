package middleware

import (
	"context"

	"github.com/angelmondragon/packfinderz-storefront/internal/session"
)

type contextKey string

const ctxSession contextKey = "session"

// SessionFromContext returns the session attached by the Session middleware.
func SessionFromContext(ctx context.Context) *session.Context {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxSession).(*session.Context); ok {
		return v
	}
	return nil
}

// WithSession injects the session for downstream handlers.
func WithSession(ctx context.Context, sc *session.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, sc)
}
