// Package compare holds the side-by-side comparison set. It is capped at
// MaxCompare products and rejects adds once full instead of evicting.
package compare

import (
	"context"

	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	"github.com/angelmondragon/packfinderz-storefront/internal/collection"
)

const (
	CollectionName = "compare"
	MaxCompare     = 4
)

type Item = catalog.ProductSummary

func Policy() collection.Policy[Item] {
	return collection.Policy[Item]{
		Name:     CollectionName,
		Key:      func(item Item) string { return item.ID },
		Capacity: MaxCompare,
		OnFull:   collection.RejectWhenFull,
	}
}

type Set struct {
	store *collection.Store[Item]
}

func New(ctx context.Context, opts collection.Options) (*Set, error) {
	store, err := collection.New(ctx, Policy(), opts)
	if err != nil {
		return nil, err
	}
	return &Set{store: store}, nil
}

// Add inserts item. A full set returns a CodeRejected error asking the
// caller to remove an item first and stays unchanged.
func (s *Set) Add(ctx context.Context, item Item) (bool, error) {
	outcome, err := s.store.Add(ctx, item)
	return outcome == collection.OutcomeInserted, err
}

func (s *Set) Toggle(ctx context.Context, item Item) (bool, error) {
	return s.store.Toggle(ctx, item)
}

func (s *Set) Remove(ctx context.Context, productID string) (bool, error) {
	return s.store.Remove(ctx, productID)
}

func (s *Set) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}

func (s *Set) Contains(productID string) bool {
	return s.store.Contains(productID)
}

// Full reports whether another distinct product would be rejected.
func (s *Set) Full() bool {
	return s.store.Len() >= MaxCompare
}

func (s *Set) Items() []Item {
	return s.store.Items()
}

func (s *Set) Len() int {
	return s.store.Len()
}

func (s *Set) Flush(ctx context.Context) error {
	return s.store.Flush(ctx)
}

func (s *Set) Close(ctx context.Context) error {
	return s.store.Close(ctx)
}
