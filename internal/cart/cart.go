package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	"github.com/angelmondragon/packfinderz-storefront/internal/collection"
	"github.com/angelmondragon/packfinderz-storefront/internal/coupons"
	"github.com/angelmondragon/packfinderz-storefront/internal/pricing"
	"github.com/angelmondragon/packfinderz-storefront/internal/shipping"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
)

type Cart struct {
	lines    *collection.Store[LineItem]
	coupons  coupons.Validator
	shipping shipping.Resolver
	settings Settings
	logg     *logger.Logger
	logCtx   context.Context
	metrics  *metrics.CouponMetrics
	now      func() time.Time

	// mu orders mutations and guards the slot, region and totals.
	mu     sync.Mutex
	slot   pricing.SlotState
	region *shipping.Region
	totals pricing.Totals
}

// New hydrates the cart lines of one session and computes initial totals.
func New(ctx context.Context, params Params) (*Cart, error) {
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon validator required")
	}
	if params.Shipping == nil {
		return nil, fmt.Errorf("shipping resolver required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if params.Collection.Logger == nil {
		params.Collection.Logger = params.Logger
	}
	if params.Settings.Currency == "" {
		params.Settings.Currency = "EGP"
	}

	lines, err := collection.New(ctx, linePolicy(), params.Collection)
	if err != nil {
		return nil, err
	}

	c := &Cart{
		lines:    lines,
		coupons:  params.Coupons,
		shipping: params.Shipping,
		settings: params.Settings,
		logg:     params.Logger,
		logCtx:   params.Logger.WithFields(context.Background(), map[string]any{"session_id": params.Collection.SessionID, "collection": CollectionName}),
		metrics:  params.Metrics,
		now:      params.Now,
	}
	c.recomputeLocked()
	return c, nil
}

// AddItem adds qty of product, summing into an existing line.
func (c *Cart) AddItem(ctx context.Context, product catalog.Product, qty int) (View, error) {
	if qty < 1 {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if strings.TrimSpace(product.ID) == "" {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if product.Discount != nil {
		if err := pricing.ValidateDiscount(*product.Discount); err != nil {
			return View{}, err
		}
	}
	quote, err := pricing.EffectiveUnitPrice(product)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeDataIntegrity) {
			c.logg.Error(c.logg.WithField(c.logCtx, "product_id", product.ID), "cart.price_integrity", err)
		}
		return View{}, err
	}

	line := LineItem{
		ID:        product.ID,
		Name:      product.Name,
		UnitPrice: quote.Price,
		CompareAt: quote.CompareAt,
		Image:     product.Image,
		Category:  product.Category,
		Quantity:  qty,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.lines.Add(ctx, line); err != nil {
		return View{}, err
	}
	c.slot.Acknowledge()
	c.recomputeLocked()
	return c.viewLocked(), nil
}

// UpdateQuantity sets the quantity exactly; qty < 1 removes the line.
func (c *Cart) UpdateQuantity(ctx context.Context, id string, qty int) (View, error) {
	if qty < 1 {
		return c.RemoveItem(ctx, id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	found, err := c.lines.Update(ctx, id, func(l LineItem) (LineItem, bool) {
		l.Quantity = qty
		return l, true
	})
	if err != nil {
		return View{}, err
	}
	if !found {
		return View{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found").WithDetails(map[string]any{"id": id})
	}
	c.slot.Acknowledge()
	c.recomputeLocked()
	return c.viewLocked(), nil
}

// RemoveItem deletes a line; removing an absent line is a no-op. Emptying
// the cart also clears the coupon slot.
func (c *Cart) RemoveItem(ctx context.Context, id string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.lines.Remove(ctx, id); err != nil {
		return View{}, err
	}
	c.slot.Acknowledge()
	c.clearSlotIfEmptyLocked()
	c.recomputeLocked()
	return c.viewLocked(), nil
}

// ClearCart removes every line, its persisted record and the coupon.
func (c *Cart) ClearCart(ctx context.Context) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.lines.Clear(ctx); err != nil {
		return View{}, err
	}
	c.slot.Clear()
	c.recomputeLocked()
	return c.viewLocked(), nil
}

// SelectRegion resolves the region fee; an unknown region changes nothing.
func (c *Cart) SelectRegion(ctx context.Context, name string) (View, error) {
	region, err := c.shipping.Lookup(ctx, name)
	if err != nil {
		return View{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.region = &region
	c.recomputeLocked()
	return c.viewLocked(), nil
}

// Totals returns the totals computed after the last mutation.
func (c *Cart) Totals() pricing.Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals
}

func (c *Cart) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Cart) Items() []LineItem {
	return c.lines.Items()
}

func (c *Cart) Flush(ctx context.Context) error {
	return c.lines.Flush(ctx)
}

func (c *Cart) Close(ctx context.Context) error {
	return c.lines.Close(ctx)
}

func (c *Cart) clearSlotIfEmptyLocked() {
	if c.lines.Len() == 0 {
		c.slot.Clear()
	}
}

func (c *Cart) pricingLines(items []LineItem) []pricing.Line {
	out := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		out = append(out, pricing.Line{
			ProductID: item.ID,
			Category:  item.Category,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	return out
}

func (c *Cart) recomputeLocked() {
	in := pricing.TotalsInput{
		Lines:                 c.pricingLines(c.lines.Items()),
		Coupon:                c.slot.Applied(),
		Now:                   c.now(),
		FreeShippingThreshold: c.settings.FreeShippingThreshold,
		TaxRate:               c.settings.TaxRate,
	}
	if c.region != nil {
		fee := c.region.Fee
		in.RegionFee = &fee
	}
	c.totals = pricing.ComputeCartTotal(in)
}

func (c *Cart) viewLocked() View {
	view := View{
		Items:    c.lines.Items(),
		Totals:   c.totals,
		Currency: c.settings.Currency,
		Coupon: CouponView{
			Status:    c.slot.Status(),
			Pending:   c.slot.Pending(),
			Rejection: c.slot.Rejection(),
		},
	}
	if applied := c.slot.Applied(); applied != nil {
		view.Coupon.Code = applied.Code
	}
	if c.region != nil {
		region := *c.region
		view.Region = &region
	}
	return view
}
