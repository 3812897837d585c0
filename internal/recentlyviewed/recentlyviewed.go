// Package recentlyviewed keeps the browsing history: newest first, at most
// MaxRecent entries, entries older than TTL dropped when the history loads.
package recentlyviewed

import (
	"context"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	"github.com/angelmondragon/packfinderz-storefront/internal/collection"
)

const (
	CollectionName = "recently_viewed"
	MaxRecent      = 10
	TTL            = 30 * 24 * time.Hour
)

type Item struct {
	catalog.ProductSummary
	ViewedAt time.Time `json:"viewed_at"`
}

func Policy() collection.Policy[Item] {
	return collection.Policy[Item]{
		Name:         CollectionName,
		Key:          func(item Item) string { return item.ID },
		Capacity:     MaxRecent,
		OnFull:       collection.EvictOldest,
		Placement:    collection.Prepend,
		ReplaceOnAdd: true,
		Expired:      expired,
	}
}

func expired(item Item, now time.Time) bool {
	if item.ViewedAt.IsZero() {
		return true
	}
	return now.Sub(item.ViewedAt) > TTL
}

type History struct {
	store *collection.Store[Item]
	now   func() time.Time
}

func New(ctx context.Context, opts collection.Options) (*History, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	store, err := collection.New(ctx, Policy(), opts)
	if err != nil {
		return nil, err
	}
	return &History{store: store, now: opts.Now}, nil
}

// Record moves product to the front of the history, stamped with the current
// time, evicting the oldest entry once the history is full.
func (h *History) Record(ctx context.Context, product catalog.ProductSummary) error {
	_, err := h.store.Add(ctx, Item{ProductSummary: product, ViewedAt: h.now().UTC()})
	return err
}

func (h *History) Remove(ctx context.Context, productID string) (bool, error) {
	return h.store.Remove(ctx, productID)
}

func (h *History) Clear(ctx context.Context) error {
	return h.store.Clear(ctx)
}

func (h *History) Contains(productID string) bool {
	return h.store.Contains(productID)
}

// Items returns the history newest first.
func (h *History) Items() []Item {
	return h.store.Items()
}

func (h *History) Len() int {
	return h.store.Len()
}

func (h *History) Flush(ctx context.Context) error {
	return h.store.Flush(ctx)
}

func (h *History) Close(ctx context.Context) error {
	return h.store.Close(ctx)
}
