package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/packfinderz-storefront/api/controllers"
	"github.com/angelmondragon/packfinderz-storefront/api/middleware"
	"github.com/angelmondragon/packfinderz-storefront/internal/shipping"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Sessions middleware.SessionProvider
	Shipping shipping.Resolver
	// Ready lists dependencies pinged by /health/ready.
	Ready map[string]controllers.Pinger
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, deps.Ready))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/pricing", func(r chi.Router) {
			r.Post("/product", controllers.PricingProduct(logg))
			r.Post("/package", controllers.PricingPackage(logg))
		})
		r.Get("/shipping/regions", controllers.ShippingRegions(deps.Shipping, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(deps.Sessions, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(logg))
				r.Delete("/", controllers.CartClear(logg))
				r.Post("/items", controllers.CartAddItem(logg))
				r.Patch("/items/{productId}", controllers.CartUpdateItem(logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(logg))
				r.Put("/region", controllers.CartSelectRegion(logg))
				r.Post("/promo", controllers.CartApplyPromo(logg))
				r.Delete("/promo", controllers.CartRemovePromo(logg))
				r.Post("/promo/revalidate", controllers.CartRevalidatePromo(logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistList(logg))
				r.Post("/", controllers.WishlistAdd(logg))
				r.Delete("/", controllers.WishlistClear(logg))
				r.Post("/toggle", controllers.WishlistToggle(logg))
				r.Delete("/{productId}", controllers.WishlistRemove(logg))
			})

			r.Route("/compare", func(r chi.Router) {
				r.Get("/", controllers.CompareList(logg))
				r.Post("/", controllers.CompareAdd(logg))
				r.Delete("/", controllers.CompareClear(logg))
				r.Delete("/{productId}", controllers.CompareRemove(logg))
			})

			r.Route("/recently-viewed", func(r chi.Router) {
				r.Get("/", controllers.RecentlyViewedList(logg))
				r.Post("/", controllers.RecentlyViewedRecord(logg))
				r.Delete("/", controllers.RecentlyViewedClear(logg))
			})
		})
	})

	return r
}
