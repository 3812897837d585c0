package pricing

import (
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

type CouponType string

const (
	CouponPercentage   CouponType = "percentage"
	CouponFixed        CouponType = "fixed"
	CouponFreeShipping CouponType = "free_shipping"
)

// Restrictions limit which cart lines a coupon may be used with. A non-empty
// include list needs at least one matching line; any line matching an
// exclude list rejects the coupon.
type Restrictions struct {
	IncludeCategories []string `json:"include_categories,omitempty"`
	ExcludeCategories []string `json:"exclude_categories,omitempty"`
	IncludeProducts   []string `json:"include_products,omitempty"`
	ExcludeProducts   []string `json:"exclude_products,omitempty"`
}

func (r Restrictions) empty() bool {
	return len(r.IncludeCategories) == 0 && len(r.ExcludeCategories) == 0 &&
		len(r.IncludeProducts) == 0 && len(r.ExcludeProducts) == 0
}

// Coupon is the canonical, already-normalized promo code.
type Coupon struct {
	Code              string           `json:"code"`
	DiscountType      CouponType       `json:"discount_type"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	MinimumPurchase   *decimal.Decimal `json:"minimum_purchase,omitempty"`
	FreeShipping      bool             `json:"free_shipping"`
	ExpiresAt         *time.Time       `json:"expires_at,omitempty"`
	Restrictions      Restrictions     `json:"restrictions"`
}

// Line is one priced cart line as the engine sees it.
type Line struct {
	ProductID string
	Category  string
	UnitPrice decimal.Decimal
	Quantity  int
}

func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type RejectReason string

const (
	ReasonEmptyCart       RejectReason = "empty_cart"
	ReasonExpired         RejectReason = "expired"
	ReasonBelowMinimum    RejectReason = "below_minimum_purchase"
	ReasonRestricted      RejectReason = "restricted"
	ReasonInvalid         RejectReason = "invalid"
	ReasonUnsupportedType RejectReason = "unsupported_type"
)

// Rejection is a typed, user-facing refusal to apply a coupon.
type Rejection struct {
	Reason  RejectReason `json:"reason"`
	Message string       `json:"message"`
}

func (r *Rejection) Error() string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Message)
}

// AsError converts the rejection into the CodeRejected transport error.
func (r *Rejection) AsError(code string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeRejected, r.Message).WithDetails(map[string]any{
		"code":   code,
		"reason": r.Reason,
	})
}

type CouponInput struct {
	Subtotal decimal.Decimal
	Lines    []Line
	Coupon   *Coupon
	Now      time.Time
}

// CouponResult is either a discount (possibly 0 with FreeShipping) or a
// rejection, never both.
type CouponResult struct {
	Discount     decimal.Decimal
	FreeShipping bool
	Rejection    *Rejection
}

func (r CouponResult) Rejected() bool {
	return r.Rejection != nil
}

// ResolveCoupon computes the monetary discount a coupon grants on subtotal.
// A zero Now skips the expiry check.
func ResolveCoupon(in CouponInput) CouponResult {
	c := in.Coupon
	if c == nil {
		return CouponResult{Discount: decimal.Zero}
	}
	if !in.Subtotal.IsPositive() {
		return reject(ReasonEmptyCart, "add items to your cart before applying a coupon")
	}
	if c.ExpiresAt != nil && !in.Now.IsZero() && !in.Now.Before(*c.ExpiresAt) {
		return reject(ReasonExpired, fmt.Sprintf("coupon %s has expired", c.Code))
	}
	if c.MinimumPurchase != nil && in.Subtotal.LessThan(*c.MinimumPurchase) {
		return reject(ReasonBelowMinimum, fmt.Sprintf("a minimum purchase of %s is required for coupon %s", Round(*c.MinimumPurchase).StringFixed(Scale), c.Code))
	}
	if rejection := checkRestrictions(c.Restrictions, in.Lines); rejection != nil {
		return CouponResult{Discount: decimal.Zero, Rejection: rejection}
	}

	result := CouponResult{Discount: decimal.Zero, FreeShipping: c.FreeShipping}
	switch c.DiscountType {
	case CouponPercentage:
		discount := Round(in.Subtotal.Mul(c.DiscountValue).Div(hundred))
		if c.MaxDiscountAmount != nil && discount.GreaterThan(*c.MaxDiscountAmount) {
			discount = Round(*c.MaxDiscountAmount)
		}
		result.Discount = decimal.Min(discount, in.Subtotal)
	case CouponFixed:
		result.Discount = Round(decimal.Min(c.DiscountValue, in.Subtotal))
	case CouponFreeShipping:
		result.FreeShipping = true
	default:
		return reject(ReasonUnsupportedType, fmt.Sprintf("coupon type %q is not supported", c.DiscountType))
	}
	result.Discount = maxZero(result.Discount)
	return result
}

func reject(reason RejectReason, message string) CouponResult {
	return CouponResult{Discount: decimal.Zero, Rejection: &Rejection{Reason: reason, Message: message}}
}

func checkRestrictions(r Restrictions, lines []Line) *Rejection {
	if r.empty() {
		return nil
	}
	excludedCategories := toSet(r.ExcludeCategories)
	excludedProducts := toSet(r.ExcludeProducts)
	for _, line := range lines {
		if _, ok := excludedProducts[line.ProductID]; ok {
			return &Rejection{Reason: ReasonRestricted, Message: fmt.Sprintf("coupon cannot be used with product %s", line.ProductID)}
		}
		if _, ok := excludedCategories[line.Category]; ok && line.Category != "" {
			return &Rejection{Reason: ReasonRestricted, Message: fmt.Sprintf("coupon cannot be used with category %s", line.Category)}
		}
	}

	if len(r.IncludeCategories) == 0 && len(r.IncludeProducts) == 0 {
		return nil
	}
	includedCategories := toSet(r.IncludeCategories)
	includedProducts := toSet(r.IncludeProducts)
	for _, line := range lines {
		if _, ok := includedProducts[line.ProductID]; ok {
			return nil
		}
		if _, ok := includedCategories[line.Category]; ok {
			return nil
		}
	}
	return &Rejection{Reason: ReasonRestricted, Message: "coupon does not apply to any item in your cart"}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
