package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	"github.com/angelmondragon/packfinderz-storefront/internal/coupons"
	"github.com/angelmondragon/packfinderz-storefront/internal/pricing"
	"github.com/angelmondragon/packfinderz-storefront/internal/session"
	"github.com/angelmondragon/packfinderz-storefront/internal/shipping"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

const testSessionID = "9b2c1f0e-4a57-4d3b-a8f6-0c1d2e3f4a5b"

type fakeEvictor struct {
	evicted int
	err     error
	calls   int
}

func (f *fakeEvictor) EvictIdle(context.Context) (int, error) {
	f.calls++
	return f.evicted, f.err
}

type fakePurger struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (f *fakePurger) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestSessionEvictionJobDelegates(t *testing.T) {
	evictor := &fakeEvictor{evicted: 3}
	job, err := NewSessionEvictionJob(logger.Nop(), evictor)
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != JobSessionIdleEviction {
		t.Fatalf("unexpected name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if evictor.calls != 1 {
		t.Fatalf("expected one eviction call, got %d", evictor.calls)
	}

	evictor.err = errors.New("flush failed")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected eviction error to propagate")
	}
}

func TestRecordRetentionJobUsesCutoff(t *testing.T) {
	purger := &fakePurger{deleted: 4}
	job, err := NewRecordRetentionJob(logger.Nop(), purger, 24*time.Hour)
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	job.(*recordRetentionJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := now.Add(-24 * time.Hour); !purger.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, purger.cutoff)
	}

	purger.err = errors.New("db down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected purge error to propagate")
	}
}

func TestRecordRetentionJobRequiresPositiveRetention(t *testing.T) {
	if _, err := NewRecordRetentionJob(logger.Nop(), &fakePurger{}, 0); err == nil {
		t.Fatal("expected error for zero retention")
	}
}

func TestCouponRevalidationJobDropsWithdrawnCoupon(t *testing.T) {
	ctx := context.Background()
	static := coupons.NewStatic(pricing.Coupon{
		Code:          "SAVE10",
		DiscountType:  pricing.CouponPercentage,
		DiscountValue: decimal.NewFromInt(10),
	})
	manager, err := session.NewManager(session.ManagerParams{
		Namespace: "sf",
		Debounce:  time.Hour,
		Coupons:   static,
		Shipping:  shipping.NewTable(shipping.DefaultRegions),
		IdleTTL:   time.Hour,
	})
	if err != nil {
		t.Fatalf("construct manager: %v", err)
	}
	defer manager.Close(ctx)

	sc, err := manager.Get(ctx, testSessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	product := catalog.Product{ID: "p1", Name: "Lamp", Price: decimal.NewFromInt(150)}
	if _, err := sc.Cart.AddItem(ctx, product, 1); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := sc.Cart.ApplyPromo(ctx, "save10", ""); err != nil {
		t.Fatalf("apply promo: %v", err)
	}

	job, err := NewCouponRevalidationJob(logger.Nop(), manager)
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(ctx); err != nil {
		t.Fatalf("run with valid coupon: %v", err)
	}
	if !sc.Cart.HasPromo() {
		t.Fatal("expected coupon to survive revalidation")
	}

	static.Delete("SAVE10")
	if err := job.Run(ctx); err != nil {
		t.Fatalf("run after withdrawal: %v", err)
	}
	if sc.Cart.HasPromo() {
		t.Fatal("expected withdrawn coupon to be dropped")
	}
}
