package controllers

import (
	"net/http"

	"github.com/angelmondragon/packfinderz-storefront/api/responses"
	"github.com/angelmondragon/packfinderz-storefront/api/validators"
	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	"github.com/angelmondragon/packfinderz-storefront/internal/pricing"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

type productPriceRequest struct {
	Product catalog.Product `json:"product"`
}

type productPriceResponse struct {
	ProductID string `json:"product_id"`
	pricing.PriceQuote
	// Degraded is set when the record failed the integrity check and the
	// price fell back to zero.
	Degraded bool `json:"degraded,omitempty"`
}

type packageSavingsRequest struct {
	Package catalog.Package `json:"package"`
}

type packageSavingsResponse struct {
	PackageID string `json:"package_id"`
	pricing.Savings
	Degraded bool `json:"degraded,omitempty"`
}

// PricingProduct resolves the effective unit price for display. Integrity
// failures are logged and reported as a degraded zero quote so a listing can
// still render.
func PricingProduct(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload productPriceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if d := payload.Product.Discount; d != nil {
			if err := pricing.ValidateDiscount(*d); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		quote, err := pricing.EffectiveUnitPrice(payload.Product)
		resp := productPriceResponse{ProductID: payload.Product.ID, PriceQuote: quote}
		if err != nil {
			if !pkgerrors.IsCode(err, pkgerrors.CodeDataIntegrity) {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if logg != nil {
				logg.Error(logg.WithField(r.Context(), "product_id", payload.Product.ID), "pricing.integrity_failed", err)
			}
			resp.Degraded = true
		}
		responses.WriteSuccess(w, resp)
	}
}

func PricingPackage(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload packageSavingsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		savings, err := pricing.PackageSavings(payload.Package)
		resp := packageSavingsResponse{PackageID: payload.Package.ID, Savings: savings}
		if err != nil {
			if !pkgerrors.IsCode(err, pkgerrors.CodeDataIntegrity) {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if logg != nil {
				logg.Error(logg.WithField(r.Context(), "package_id", payload.Package.ID), "pricing.integrity_failed", err)
			}
			resp.Degraded = true
		}
		responses.WriteSuccess(w, resp)
	}
}
