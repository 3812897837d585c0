package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/packfinderz-storefront/api/responses"
	"github.com/angelmondragon/packfinderz-storefront/api/validators"
	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

type addCartItemRequest struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity" validate:"gte=1,lte=999"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0,lte=999"`
}

type applyPromoRequest struct {
	Code  string `json:"code" validate:"required,max=64"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

type selectRegionRequest struct {
	Region string `json:"region" validate:"required,max=128"`
}

// CartFetch returns the cart with its current totals.
func CartFetch(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, sc.Cart.View())
	}
}

func CartAddItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		ctx := collectionContext(r.Context(), logg, cart.CollectionName)

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := sc.Cart.AddItem(ctx, payload.Product, payload.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartUpdateItem sets a line's quantity; zero removes the line.
func CartUpdateItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		ctx := collectionContext(r.Context(), logg, cart.CollectionName)

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := sc.Cart.UpdateQuantity(ctx, chi.URLParam(r, "productId"), *payload.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CartRemoveItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		ctx := collectionContext(r.Context(), logg, cart.CollectionName)

		view, err := sc.Cart.RemoveItem(ctx, chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CartClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		ctx := collectionContext(r.Context(), logg, cart.CollectionName)

		view, err := sc.Cart.ClearCart(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartApplyPromo validates and applies a coupon. A rejected code answers 422
// and leaves the previously applied coupon in place.
func CartApplyPromo(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		ctx := collectionContext(r.Context(), logg, cart.CollectionName)

		var payload applyPromoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := sc.Cart.ApplyPromo(ctx, payload.Code, payload.Email)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CartRemovePromo(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, sc.Cart.RemovePromo(r.Context()))
	}
}

func CartRevalidatePromo(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		view, err := sc.Cart.RevalidatePromo(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CartSelectRegion(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}

		var payload selectRegionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := sc.Cart.SelectRegion(r.Context(), payload.Region)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
