// Package coupons is the boundary to the remote coupon validation service.
package coupons

import (
	"context"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/pricing"
	"github.com/shopspring/decimal"
)

// Validator checks a code against the authoritative backend.
type Validator interface {
	Validate(ctx context.Context, req Request) (Verdict, error)
}

type CartItem struct {
	ProductID string          `json:"product_id"`
	Category  string          `json:"category,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Request is the validation payload.
type Request struct {
	Code          string          `json:"code"`
	CustomerEmail string          `json:"customer_email,omitempty"`
	CartItems     []CartItem      `json:"cart_items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

// Verdict is the normalized answer: either a canonical coupon or a rejection.
type Verdict struct {
	Coupon    *pricing.Coupon
	Rejection *pricing.Rejection
}

func (v Verdict) Valid() bool {
	return v.Coupon != nil && v.Rejection == nil
}

// Response mirrors the backend's JSON body.
type Response struct {
	Valid             *bool                 `json:"valid" validate:"required"`
	Code              string                `json:"code,omitempty"`
	DiscountType      string                `json:"discount_type,omitempty" validate:"omitempty,oneof=percentage fixed free_shipping"`
	DiscountValue     *decimal.Decimal      `json:"discount_value,omitempty" validate:"omitempty,gte=0"`
	MaxDiscountAmount *decimal.Decimal      `json:"max_discount_amount,omitempty" validate:"omitempty,gte=0"`
	MinimumPurchase   *decimal.Decimal      `json:"minimum_purchase,omitempty" validate:"omitempty,gte=0"`
	FreeShipping      *bool                 `json:"free_shipping,omitempty"`
	ExpiresAt         *time.Time            `json:"expires_at,omitempty"`
	RejectReason      string                `json:"reject_reason,omitempty"`
	Message           string                `json:"message,omitempty"`
	Restrictions      *ResponseRestrictions `json:"restrictions,omitempty"`
}

type ResponseRestrictions struct {
	IncludeCategories []string `json:"include_categories,omitempty"`
	ExcludeCategories []string `json:"exclude_categories,omitempty"`
	IncludeProducts   []string `json:"include_products,omitempty"`
	ExcludeProducts   []string `json:"exclude_products,omitempty"`
}
