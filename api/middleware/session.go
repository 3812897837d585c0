package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/packfinderz-storefront/api/responses"
	"github.com/angelmondragon/packfinderz-storefront/internal/session"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

const SessionIDHeader = "X-Session-Id"

// SessionProvider resolves a session id to its live state.
type SessionProvider interface {
	Get(ctx context.Context, id string) (*session.Context, error)
}

// Session attaches the caller's session. A request without the header starts
// a new session; the id is echoed back so the client can keep using it.
func Session(provider SessionProvider, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(SessionIDHeader))
			if id == "" {
				id = session.NewID()
			}

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithSessionID(ctx, id)
			}

			sc, err := provider.Get(ctx, id)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			w.Header().Set(SessionIDHeader, sc.ID)
			next.ServeHTTP(w, r.WithContext(WithSession(ctx, sc)))
		})
	}
}
