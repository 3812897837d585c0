// Package wishlist is the saved-for-later collection: unbounded, one entry per
// product, toggled with a single click.
package wishlist

import (
	"context"

	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	"github.com/angelmondragon/packfinderz-storefront/internal/collection"
)

const CollectionName = "wishlist"

type Item = catalog.ProductSummary

func Policy() collection.Policy[Item] {
	return collection.Policy[Item]{
		Name: CollectionName,
		Key:  func(item Item) string { return item.ID },
	}
}

type Wishlist struct {
	store *collection.Store[Item]
}

// New hydrates the wishlist of one session.
func New(ctx context.Context, opts collection.Options) (*Wishlist, error) {
	store, err := collection.New(ctx, Policy(), opts)
	if err != nil {
		return nil, err
	}
	return &Wishlist{store: store}, nil
}

// Add saves item; saving an already saved product is a no-op.
func (w *Wishlist) Add(ctx context.Context, item Item) (bool, error) {
	outcome, err := w.store.Add(ctx, item)
	return outcome == collection.OutcomeInserted, err
}

// Toggle saves or unsaves item and reports whether it is now saved.
func (w *Wishlist) Toggle(ctx context.Context, item Item) (bool, error) {
	return w.store.Toggle(ctx, item)
}

func (w *Wishlist) Remove(ctx context.Context, productID string) (bool, error) {
	return w.store.Remove(ctx, productID)
}

func (w *Wishlist) Clear(ctx context.Context) error {
	return w.store.Clear(ctx)
}

func (w *Wishlist) Contains(productID string) bool {
	return w.store.Contains(productID)
}

func (w *Wishlist) Items() []Item {
	return w.store.Items()
}

func (w *Wishlist) Len() int {
	return w.store.Len()
}

func (w *Wishlist) Flush(ctx context.Context) error {
	return w.store.Flush(ctx)
}

func (w *Wishlist) Close(ctx context.Context) error {
	return w.store.Close(ctx)
}
