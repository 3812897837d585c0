package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

type TotalsInput struct {
	Lines  []Line
	Coupon *Coupon
	Now    time.Time
	// RegionFee is nil while no shipping region is selected.
	RegionFee *decimal.Decimal
	// FreeShippingThreshold of 0 disables the subtotal waiver.
	FreeShippingThreshold decimal.Decimal
	TaxRate               decimal.Decimal
}

type Totals struct {
	Subtotal         decimal.Decimal `json:"subtotal"`
	CouponDiscount   decimal.Decimal `json:"coupon_discount"`
	Tax              decimal.Decimal `json:"tax"`
	ShippingFee      decimal.Decimal `json:"shipping_fee"`
	Total            decimal.Decimal `json:"total"`
	ItemCount        int             `json:"item_count"`
	FreeShipping     bool            `json:"free_shipping"`
	ShippingResolved bool            `json:"shipping_resolved"`
	CouponRejection  *Rejection      `json:"coupon_rejection,omitempty"`
}

// ComputeCartTotal applies the fixed order of operations:
//
//	subtotal       = Σ unitPrice × qty
//	couponDiscount = ResolveCoupon(subtotal, coupon)
//	tax            = subtotal × taxRate   (pre-discount subtotal)
//	shippingFee    = freeShippingCoupon ? 0 : (subtotal ≥ threshold ? 0 : regionFee)
//	total          = max(0, subtotal − couponDiscount) + tax + shippingFee
func ComputeCartTotal(in TotalsInput) Totals {
	subtotal := decimal.Zero
	count := 0
	for _, line := range in.Lines {
		subtotal = subtotal.Add(line.Total())
		count += line.Quantity
	}
	subtotal = Round(subtotal)

	coupon := ResolveCoupon(CouponInput{Subtotal: subtotal, Lines: in.Lines, Coupon: in.Coupon, Now: in.Now})
	tax := Round(subtotal.Mul(in.TaxRate))

	shipping := decimal.Zero
	resolved := false
	switch {
	case coupon.FreeShipping:
		resolved = true
	case in.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(in.FreeShippingThreshold):
		resolved = true
	case in.RegionFee != nil:
		shipping = Round(*in.RegionFee)
		resolved = true
	}

	total := maxZero(subtotal.Sub(coupon.Discount)).Add(tax).Add(shipping)
	return Totals{
		Subtotal:         subtotal,
		CouponDiscount:   coupon.Discount,
		Tax:              tax,
		ShippingFee:      shipping,
		Total:            Round(total),
		ItemCount:        count,
		FreeShipping:     coupon.FreeShipping,
		ShippingResolved: resolved,
		CouponRejection:  coupon.Rejection,
	}
}
