package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/packfinderz-storefront/api/middleware"
	"github.com/angelmondragon/packfinderz-storefront/api/responses"
	"github.com/angelmondragon/packfinderz-storefront/internal/session"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// requireSession returns the request's session or writes an error.
func requireSession(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*session.Context, bool) {
	sc := middleware.SessionFromContext(r.Context())
	if sc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session context missing"))
		return nil, false
	}
	return sc, true
}

func collectionContext(ctx context.Context, logg *logger.Logger, name string) context.Context {
	if logg == nil {
		return ctx
	}
	return logg.WithCollection(ctx, name)
}
