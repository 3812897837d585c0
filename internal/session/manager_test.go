package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	"github.com/angelmondragon/packfinderz-storefront/internal/coupons"
	"github.com/angelmondragon/packfinderz-storefront/internal/shipping"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/storage"
	"github.com/shopspring/decimal"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newManager(t *testing.T, backing storage.Durable, clock *fakeClock) *Manager {
	t.Helper()
	m, err := NewManager(ManagerParams{
		Storage:   backing,
		Namespace: "sf",
		Debounce:  time.Hour,
		Coupons:   coupons.NewStatic(),
		Shipping:  shipping.NewTable(shipping.DefaultRegions),
		IdleTTL:   30 * time.Minute,
		Now:       clock.Now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func mustGet(t *testing.T, m *Manager, id string) *Context {
	t.Helper()
	sc, err := m.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get session %s: %v", id, err)
	}
	return sc
}

const sessionA = "0f8fad5b-d9cb-469f-a165-70867728950e"

func TestGetReturnsSameContext(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	m := newManager(t, nil, clock)

	first := mustGet(t, m, sessionA)
	second := mustGet(t, m, sessionA)
	if first != second {
		t.Fatal("expected the same session context")
	}
	if m.Len() != 1 {
		t.Fatalf("expected one session, got %d", m.Len())
	}

	if _, err := m.Get(context.Background(), "bad id!"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConcurrentGetCreatesOnce(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newManager(t, nil, clock)

	var wg sync.WaitGroup
	results := make([]*Context, 10)
	errs := make([]error, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.Get(context.Background(), sessionA)
		}(i)
	}
	wg.Wait()
	for i, sc := range results {
		if errs[i] != nil {
			t.Fatalf("get %d: %v", i, errs[i])
		}
		if sc != results[0] {
			t.Fatalf("get %d returned a different context", i)
		}
	}
}

func TestEvictIdleFlushesBeforeDropping(t *testing.T) {
	backing := storage.NewMemory()
	clock := &fakeClock{now: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	m := newManager(t, backing, clock)
	ctx := context.Background()

	sc := mustGet(t, m, sessionA)
	if _, err := sc.Wishlist.Add(ctx, catalog.ProductSummary{ID: "p1", Name: "P1", Price: decimal.NewFromInt(10)}); err != nil {
		t.Fatalf("wishlist add: %v", err)
	}

	clock.Advance(10 * time.Minute)
	evicted, err := m.EvictIdle(ctx)
	if err != nil || evicted != 0 {
		t.Fatalf("expected no eviction yet, got %d %v", evicted, err)
	}

	clock.Advance(31 * time.Minute)
	evicted, err = m.EvictIdle(ctx)
	if err != nil || evicted != 1 {
		t.Fatalf("expected one eviction, got %d %v", evicted, err)
	}
	if m.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", m.Len())
	}

	if _, found, _ := backing.Read(ctx, storage.CollectionKey("sf", sessionA, "wishlist")); !found {
		t.Fatal("eviction must flush pending writes")
	}

	again := mustGet(t, m, sessionA)
	if again == sc {
		t.Fatal("expected a fresh context after eviction")
	}
	if !again.Wishlist.Contains("p1") {
		t.Fatal("expected wishlist to rehydrate")
	}
}

func TestEvictedContextRefusesMutations(t *testing.T) {
	backing := storage.NewMemory()
	clock := &fakeClock{now: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	m := newManager(t, backing, clock)
	ctx := context.Background()

	stale := mustGet(t, m, sessionA)
	if _, err := stale.Cart.AddItem(ctx, catalog.Product{ID: "p1", Name: "P1", Price: decimal.NewFromInt(10)}, 1); err != nil {
		t.Fatalf("add item: %v", err)
	}
	clock.Advance(time.Hour)
	if _, err := m.EvictIdle(ctx); err != nil {
		t.Fatalf("evict: %v", err)
	}

	if _, err := stale.Cart.RemoveItem(ctx, "p1"); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict from evicted cart, got %v", err)
	}
	if _, err := stale.Wishlist.Remove(ctx, "p1"); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict from evicted wishlist, got %v", err)
	}

	fresh := mustGet(t, m, sessionA)
	view, err := fresh.Cart.RemoveItem(ctx, "p1")
	if err != nil {
		t.Fatalf("remove on fresh context: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("expected line removed, got %+v", view.Items)
	}
}

func TestCloseFlushesAllAndRejectsLookups(t *testing.T) {
	backing := storage.NewMemory()
	clock := &fakeClock{now: time.Now()}
	m := newManager(t, backing, clock)
	ctx := context.Background()

	ids := []string{sessionA, "5c4e3f1a-0b7d-4a8e-9b2c-1d3e5f7a9b0c"}
	for _, id := range ids {
		sc := mustGet(t, m, id)
		if _, err := sc.Cart.AddItem(ctx, catalog.Product{ID: "p1", Name: "P1", Price: decimal.NewFromInt(10)}, 1); err != nil {
			t.Fatalf("add item for %s: %v", id, err)
		}
	}

	if err := m.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	for _, id := range ids {
		if _, found, _ := backing.Read(ctx, storage.CollectionKey("sf", id, "cart")); !found {
			t.Fatalf("expected cart of %s to be flushed", id)
		}
	}

	if _, err := m.Get(ctx, sessionA); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected lookups to fail after close, got %v", err)
	}
}

func TestNewIDIsValid(t *testing.T) {
	if !ValidID(NewID()) {
		t.Fatal("generated id should be valid")
	}
	if ValidID("short") {
		t.Fatal("short id should be invalid")
	}
}
