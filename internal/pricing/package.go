package pricing

import (
	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

type Savings struct {
	OriginalTotalPrice decimal.Decimal `json:"original_total_price"`
	Savings            decimal.Decimal `json:"savings"`
	SavingsPercentage  int64           `json:"savings_percentage"`
}

// PackageSavings compares a bundle price to the sum of its parts. A bundle
// priced above its parts is a CodeDataIntegrity error; the returned value
// then reports zero savings.
func PackageSavings(pkg catalog.Package) (Savings, error) {
	original := decimal.Zero
	for _, item := range pkg.Items {
		if item.Quantity < 0 || item.UnitPrice.IsNegative() {
			return Savings{OriginalTotalPrice: decimal.Zero, Savings: decimal.Zero},
				pkgerrors.New(pkgerrors.CodeDataIntegrity, "package item has a negative quantity or price").
					WithDetails(map[string]any{"package_id": pkg.ID, "product_id": item.ProductID})
		}
		original = original.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	original = Round(original)

	savings := Round(original.Sub(pkg.Price))
	if savings.IsNegative() {
		return Savings{OriginalTotalPrice: original, Savings: decimal.Zero},
			pkgerrors.New(pkgerrors.CodeDataIntegrity, "package price exceeds the sum of its items").
				WithDetails(map[string]any{"package_id": pkg.ID, "savings": savings.String()})
	}

	out := Savings{OriginalTotalPrice: original, Savings: savings}
	if original.IsZero() {
		return out, nil
	}
	out.SavingsPercentage = savings.Div(original).Mul(hundred).Round(0).IntPart()
	return out, nil
}
