package catalog

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSummaryCopiesDisplayFields(t *testing.T) {
	original := decimal.NewFromInt(120)
	inStock := true
	p := Product{
		ID:            "p-1",
		Name:          "Linen shirt",
		Price:         decimal.NewFromInt(100),
		OriginalPrice: &original,
		Category:      "shirts",
		InStock:       &inStock,
		Discount:      &Discount{Type: DiscountFixed, Value: decimal.NewFromInt(5), IsActive: true},
	}
	s := p.Summary()
	if s.ID != "p-1" || s.Category != "shirts" || !s.Price.Equal(p.Price) {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.OriginalPrice == nil || !s.OriginalPrice.Equal(original) {
		t.Fatalf("expected original price to carry over")
	}
}

func TestProductDecodesNumericPrices(t *testing.T) {
	var p Product
	if err := json.Unmarshal([]byte(`{"id":"p","name":"n","price":99.5,"discount":{"type":"percentage","value":10,"is_active":true}}`), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !p.Price.Equal(decimal.RequireFromString("99.5")) {
		t.Fatalf("unexpected price %s", p.Price)
	}
	if p.Discount == nil || p.Discount.Type != DiscountPercentage {
		t.Fatalf("unexpected discount %+v", p.Discount)
	}
}
