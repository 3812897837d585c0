// Package cart is the cart aggregate: persisted line items, the single coupon
// slot and the selected shipping region, with totals recomputed after every
// mutation.
package cart

import (
	"fmt"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/collection"
	"github.com/angelmondragon/packfinderz-storefront/internal/coupons"
	"github.com/angelmondragon/packfinderz-storefront/internal/pricing"
	"github.com/angelmondragon/packfinderz-storefront/internal/shipping"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
	"github.com/shopspring/decimal"
)

const CollectionName = "cart"

// LineItem is one product in the cart. Quantity is always >= 1.
type LineItem struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	CompareAt *decimal.Decimal `json:"compare_at,omitempty"`
	Image     string           `json:"image,omitempty"`
	Category  string           `json:"category,omitempty"`
	Quantity  int              `json:"quantity"`
}

func (l LineItem) Total() decimal.Decimal {
	return pricing.Round(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
}

// Settings are the pricing knobs applied to every total.
type Settings struct {
	Currency              string
	FreeShippingThreshold decimal.Decimal
	TaxRate               decimal.Decimal
}

// Params groups the dependencies of a cart.
type Params struct {
	Collection collection.Options
	Coupons    coupons.Validator
	Shipping   shipping.Resolver
	Settings   Settings
	Logger     *logger.Logger
	Metrics    *metrics.CouponMetrics
	Now        func() time.Time
}

type CouponView struct {
	Status    pricing.SlotStatus `json:"status"`
	Code      string             `json:"code,omitempty"`
	Pending   string             `json:"pending,omitempty"`
	Rejection *pricing.Rejection `json:"rejection,omitempty"`
}

// View is a consistent snapshot of the cart after the last mutation.
type View struct {
	Items    []LineItem       `json:"items"`
	Totals   pricing.Totals   `json:"totals"`
	Coupon   CouponView       `json:"coupon"`
	Region   *shipping.Region `json:"region,omitempty"`
	Currency string           `json:"currency"`
}

func linePolicy() collection.Policy[LineItem] {
	return collection.Policy[LineItem]{
		Name: CollectionName,
		Key:  func(l LineItem) string { return l.ID },
		Merge: func(existing, incoming LineItem) LineItem {
			qty := existing.Quantity + incoming.Quantity
			incoming.Quantity = qty
			return incoming
		},
		Valid: validLine,
	}
}

func validLine(l LineItem) error {
	if l.Quantity < 1 {
		return fmt.Errorf("line %s: quantity %d below 1", l.ID, l.Quantity)
	}
	if l.UnitPrice.IsNegative() {
		return fmt.Errorf("line %s: negative unit price %s", l.ID, l.UnitPrice)
	}
	if l.CompareAt != nil && l.CompareAt.IsNegative() {
		return fmt.Errorf("line %s: negative compare-at price %s", l.ID, l.CompareAt)
	}
	return nil
}

// Coupon validation outcomes reported to metrics.
const (
	outcomeApplied   = "applied"
	outcomeRejected  = "rejected"
	outcomeTransient = "transient"
	outcomeStale     = "stale"
	outcomeDropped   = "dropped"
)
