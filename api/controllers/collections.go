package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/packfinderz-storefront/api/responses"
	"github.com/angelmondragon/packfinderz-storefront/api/validators"
	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	"github.com/angelmondragon/packfinderz-storefront/internal/compare"
	"github.com/angelmondragon/packfinderz-storefront/internal/recentlyviewed"
	"github.com/angelmondragon/packfinderz-storefront/internal/wishlist"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

type productPayload struct {
	Product catalog.ProductSummary `json:"product"`
}

type collectionResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

type toggleResponse struct {
	ProductID string `json:"product_id"`
	Present   bool   `json:"present"`
}

func listResponse[T any](items []T) collectionResponse[T] {
	if items == nil {
		items = []T{}
	}
	return collectionResponse[T]{Items: items, Count: len(items)}
}

// WishlistList returns the saved products in insertion order.
func WishlistList(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, listResponse(sc.Wishlist.Items()))
	}
}

// WishlistAdd is idempotent: adding a saved product answers 200 without a
// second entry.
func WishlistAdd(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		ctx := collectionContext(r.Context(), logg, wishlist.CollectionName)

		var payload productPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		added, err := sc.Wishlist.Add(ctx, payload.Product)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status := http.StatusOK
		if added {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, listResponse(sc.Wishlist.Items()))
	}
}

func WishlistToggle(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		ctx := collectionContext(r.Context(), logg, wishlist.CollectionName)

		var payload productPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		present, err := sc.Wishlist.Toggle(ctx, payload.Product)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toggleResponse{ProductID: payload.Product.ID, Present: present})
	}
}

func WishlistRemove(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		ctx := collectionContext(r.Context(), logg, wishlist.CollectionName)
		if _, err := sc.Wishlist.Remove(ctx, chi.URLParam(r, "productId")); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, listResponse(sc.Wishlist.Items()))
	}
}

func WishlistClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		ctx := collectionContext(r.Context(), logg, wishlist.CollectionName)
		if err := sc.Wishlist.Clear(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, listResponse(sc.Wishlist.Items()))
	}
}

func CompareList(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, listResponse(sc.Compare.Items()))
	}
}

// CompareAdd answers 422 once the set holds compare.MaxCompare products.
func CompareAdd(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		ctx := collectionContext(r.Context(), logg, compare.CollectionName)

		var payload productPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		added, err := sc.Compare.Add(ctx, payload.Product)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status := http.StatusOK
		if added {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, listResponse(sc.Compare.Items()))
	}
}

func CompareRemove(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		ctx := collectionContext(r.Context(), logg, compare.CollectionName)
		if _, err := sc.Compare.Remove(ctx, chi.URLParam(r, "productId")); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, listResponse(sc.Compare.Items()))
	}
}

func CompareClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		ctx := collectionContext(r.Context(), logg, compare.CollectionName)
		if err := sc.Compare.Clear(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, listResponse(sc.Compare.Items()))
	}
}

// RecentlyViewedList returns the history newest first.
func RecentlyViewedList(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, listResponse(sc.Recent.Items()))
	}
}

func RecentlyViewedRecord(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		ctx := collectionContext(r.Context(), logg, recentlyviewed.CollectionName)

		var payload productPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := sc.Recent.Record(ctx, payload.Product); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, listResponse(sc.Recent.Items()))
	}
}

func RecentlyViewedClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		ctx := collectionContext(r.Context(), logg, recentlyviewed.CollectionName)
		if err := sc.Recent.Clear(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, listResponse(sc.Recent.Items()))
	}
}
