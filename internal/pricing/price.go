package pricing

import (
	"fmt"

	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

// Discount is the per-product markdown as carried on catalog records.
type Discount = catalog.Discount

// PriceQuote is the effective unit price of a product together with the
// strikethrough reference shown next to it.
type PriceQuote struct {
	Price           decimal.Decimal  `json:"price"`
	CompareAt       *decimal.Decimal `json:"compare_at,omitempty"`
	DiscountAmount  decimal.Decimal  `json:"discount_amount"`
	DiscountApplied bool             `json:"discount_applied"`
}

// EffectiveUnitPrice applies an active discount to the base price. Without
// one, a legacy original price only becomes the display reference. A
// negative result is a CodeDataIntegrity error and the quote falls back to 0.
func EffectiveUnitPrice(product catalog.Product) (PriceQuote, error) {
	base := product.Price
	if base.IsNegative() {
		return PriceQuote{Price: decimal.Zero}, integrityError(product.ID, "base price is negative", base)
	}

	if d := product.Discount; d != nil && d.IsActive {
		var price decimal.Decimal
		switch d.Type {
		case catalog.DiscountPercentage:
			price = base.Mul(decimal.NewFromInt(1).Sub(d.Value.Div(hundred)))
		case catalog.DiscountFixed:
			price = maxZero(base.Sub(d.Value))
		default:
			return PriceQuote{Price: Round(base)}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported discount type %q", d.Type))
		}
		price = Round(price)
		if price.IsNegative() {
			return PriceQuote{Price: decimal.Zero}, integrityError(product.ID, "discounted price is negative", price)
		}
		compareAt := Round(base)
		return PriceQuote{
			Price:           price,
			CompareAt:       &compareAt,
			DiscountAmount:  compareAt.Sub(price),
			DiscountApplied: true,
		}, nil
	}

	quote := PriceQuote{Price: Round(base)}
	if product.OriginalPrice != nil && product.OriginalPrice.GreaterThan(base) {
		compareAt := Round(*product.OriginalPrice)
		quote.CompareAt = &compareAt
	}
	return quote, nil
}

func integrityError(productID, message string, value decimal.Decimal) error {
	return pkgerrors.New(pkgerrors.CodeDataIntegrity, message).WithDetails(map[string]any{
		"product_id": productID,
		"value":      value.String(),
	})
}
