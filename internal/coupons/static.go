package coupons

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/packfinderz-storefront/internal/pricing"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
)

// Static validates against an in-process coupon table. It backs local runs
// without a coupon service and tests.
type Static struct {
	mu      sync.RWMutex
	coupons map[string]pricing.Coupon
}

func NewStatic(coupons ...pricing.Coupon) *Static {
	s := &Static{coupons: make(map[string]pricing.Coupon, len(coupons))}
	for _, c := range coupons {
		s.Put(c)
	}
	return s
}

func (s *Static) Put(c pricing.Coupon) {
	c.Code = pricing.NormalizeCode(c.Code)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupons[c.Code] = c
}

func (s *Static) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.coupons, pricing.NormalizeCode(code))
}

func (s *Static) Validate(ctx context.Context, req Request) (Verdict, error) {
	if err := ctx.Err(); err != nil {
		return Verdict{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "coupon validation cancelled")
	}
	code := pricing.NormalizeCode(req.Code)
	if code == "" {
		return Verdict{}, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	s.mu.RLock()
	c, ok := s.coupons[code]
	s.mu.RUnlock()
	if !ok {
		return Verdict{Rejection: &pricing.Rejection{Reason: pricing.ReasonInvalid, Message: fmt.Sprintf("coupon %s is not valid", code)}}, nil
	}
	return Verdict{Coupon: &c}, nil
}
