package cart

import (
	"context"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/coupons"
	"github.com/angelmondragon/packfinderz-storefront/internal/pricing"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

// ApplyPromo validates code remotely and, when accepted, replaces the applied
// coupon. A rejection or a transient failure leaves the cart exactly as it
// was. A response for a code that was superseded while in flight is
// discarded with CodeStateConflict.
func (c *Cart) ApplyPromo(ctx context.Context, code, email string) (View, error) {
	if pricing.NormalizeCode(code) == "" {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "promo code is required")
	}

	c.mu.Lock()
	if c.lines.Len() == 0 {
		c.mu.Unlock()
		rejection := pricing.Rejection{Reason: pricing.ReasonEmptyCart, Message: "add items to your cart before applying a coupon"}
		return View{}, rejection.AsError(pricing.NormalizeCode(code))
	}
	ticket := c.slot.Begin(code)
	req := c.validationRequestLocked(ticket.Code, email)
	c.mu.Unlock()

	started := time.Now()
	verdict, err := c.coupons.Validate(ctx, req)
	elapsed := time.Since(started)

	c.mu.Lock()
	defer c.mu.Unlock()
	logCtx := c.logg.WithField(c.logCtx, "promo_code", ticket.Code)

	if err != nil {
		if abortErr := c.slot.Abort(ticket); abortErr != nil {
			c.metrics.Observe(outcomeStale, elapsed)
			return View{}, abortErr
		}
		c.metrics.Observe(outcomeTransient, elapsed)
		if pkgerrors.IsCode(err, pkgerrors.CodeDataIntegrity) {
			c.logg.Error(logCtx, "cart.promo_response_malformed", err)
		} else {
			c.logg.WarnErr(logCtx, "cart.promo_validation_failed", err)
		}
		return View{}, transientError(err)
	}

	rejection := verdict.Rejection
	if rejection == nil && verdict.Coupon != nil {
		local := pricing.ResolveCoupon(pricing.CouponInput{
			Subtotal: c.totals.Subtotal,
			Lines:    c.pricingLines(c.lines.Items()),
			Coupon:   verdict.Coupon,
			Now:      c.now(),
		})
		rejection = local.Rejection
	}
	if rejection == nil && verdict.Coupon == nil {
		rejection = &pricing.Rejection{Reason: pricing.ReasonInvalid, Message: "coupon is not valid"}
	}

	if rejection != nil {
		if err := c.slot.Reject(ticket, *rejection); err != nil {
			c.metrics.Observe(outcomeStale, elapsed)
			return View{}, err
		}
		c.metrics.Observe(outcomeRejected, elapsed)
		c.recomputeLocked()
		return c.viewLocked(), rejection.AsError(ticket.Code)
	}

	coupon := *verdict.Coupon
	coupon.Code = ticket.Code
	if err := c.slot.Resolve(ticket, coupon); err != nil {
		c.metrics.Observe(outcomeStale, elapsed)
		return View{}, err
	}
	c.metrics.Observe(outcomeApplied, elapsed)
	c.recomputeLocked()
	return c.viewLocked(), nil
}

// RemovePromo empties the coupon slot.
func (c *Cart) RemovePromo(_ context.Context) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slot.Clear()
	c.recomputeLocked()
	return c.viewLocked()
}

// RevalidatePromo re-checks the applied coupon. A definite rejection clears
// the slot; a transient failure changes nothing and is returned.
func (c *Cart) RevalidatePromo(ctx context.Context) (View, error) {
	c.mu.Lock()
	applied := c.slot.Applied()
	if applied == nil {
		view := c.viewLocked()
		c.mu.Unlock()
		return view, nil
	}
	code := applied.Code
	req := c.validationRequestLocked(code, "")
	c.mu.Unlock()

	started := time.Now()
	verdict, err := c.coupons.Validate(ctx, req)
	elapsed := time.Since(started)

	c.mu.Lock()
	defer c.mu.Unlock()
	logCtx := c.logg.WithField(c.logCtx, "promo_code", code)

	current := c.slot.Applied()
	if current == nil || current.Code != code {
		c.metrics.Observe(outcomeStale, elapsed)
		return c.viewLocked(), nil
	}
	if err != nil {
		c.metrics.Observe(outcomeTransient, elapsed)
		c.logg.WarnErr(logCtx, "cart.promo_revalidation_failed", err)
		return c.viewLocked(), transientError(err)
	}

	rejection := verdict.Rejection
	if rejection == nil && verdict.Coupon != nil {
		fresh := *verdict.Coupon
		fresh.Code = code
		if fresh.ExpiresAt != nil && !c.now().Before(*fresh.ExpiresAt) {
			rejection = &pricing.Rejection{Reason: pricing.ReasonExpired, Message: "coupon " + code + " has expired"}
		} else {
			c.slot.Refresh(code, fresh)
		}
	}
	if rejection == nil && verdict.Coupon == nil {
		rejection = &pricing.Rejection{Reason: pricing.ReasonInvalid, Message: "coupon is no longer valid"}
	}
	if rejection != nil {
		c.slot.Drop(*rejection)
		c.metrics.Observe(outcomeDropped, elapsed)
		c.logg.Info(logCtx, "cart.promo_dropped")
	}
	c.recomputeLocked()
	return c.viewLocked(), nil
}

// HasPromo reports whether a coupon is applied.
func (c *Cart) HasPromo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slot.Applied() != nil
}

func (c *Cart) validationRequestLocked(code, email string) coupons.Request {
	items := c.lines.Items()
	cartItems := make([]coupons.CartItem, 0, len(items))
	subtotal := decimal.Zero
	for _, item := range items {
		cartItems = append(cartItems, coupons.CartItem{
			ProductID: item.ID,
			Category:  item.Category,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
		subtotal = subtotal.Add(item.Total())
	}
	return coupons.Request{
		Code:          code,
		CustomerEmail: email,
		CartItems:     cartItems,
		Subtotal:      pricing.Round(subtotal),
	}
}

func transientError(err error) error {
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeDependency {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "service unavailable, try again")
}
