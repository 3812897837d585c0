// Package catalog holds the already-fetched product and package records the
// pricing engine and collections operate on.
package catalog

import (
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Discount is a per-product markdown.
type Discount struct {
	Type     DiscountType    `json:"type" validate:"required,oneof=percentage fixed"`
	Value    decimal.Decimal `json:"value" validate:"gte=0"`
	IsActive bool            `json:"is_active"`
}

type Product struct {
	ID            string           `json:"id" validate:"required,max=128"`
	Name          string           `json:"name" validate:"required,max=256"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Discount      *Discount        `json:"discount,omitempty" validate:"omitempty"`
	Image         string           `json:"image,omitempty"`
	Category      string           `json:"category,omitempty"`
	InStock       *bool            `json:"in_stock,omitempty"`
	Rating        *float64         `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
}

// ProductSummary is the payload stored in wishlist, compare and
// recently-viewed collections.
type ProductSummary struct {
	ID            string           `json:"id" validate:"required,max=128"`
	Name          string           `json:"name" validate:"required,max=256"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Image         string           `json:"image,omitempty"`
	Category      string           `json:"category,omitempty"`
	InStock       *bool            `json:"in_stock,omitempty"`
	Rating        *float64         `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
}

func (p Product) Summary() ProductSummary {
	return ProductSummary{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Image:         p.Image,
		Category:      p.Category,
		InStock:       p.InStock,
		Rating:        p.Rating,
	}
}

type PackageItem struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Package is a bundle sold at a single price.
type Package struct {
	ID    string          `json:"id" validate:"required"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Items []PackageItem   `json:"items" validate:"required,min=1,dive"`
}
