// Package session owns the per-browser-session state: one explicit Context
// per session id holding its cart and collections, created on first use and
// evicted when idle.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/internal/compare"
	"github.com/angelmondragon/packfinderz-storefront/internal/recentlyviewed"
	"github.com/angelmondragon/packfinderz-storefront/internal/wishlist"
	"go.uber.org/multierr"
)

// Context is the state of one session. Its stores are safe for concurrent use.
type Context struct {
	ID       string
	Cart     *cart.Cart
	Wishlist *wishlist.Wishlist
	Compare  *compare.Set
	Recent   *recentlyviewed.History

	mu       sync.Mutex
	lastSeen time.Time
}

func (c *Context) touch(now time.Time) {
	c.mu.Lock()
	c.lastSeen = now
	c.mu.Unlock()
}

// LastSeen is the time of the most recent lookup of this session.
func (c *Context) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// Flush writes every pending collection change now.
func (c *Context) Flush(ctx context.Context) error {
	return multierr.Combine(
		c.Cart.Flush(ctx),
		c.Wishlist.Flush(ctx),
		c.Compare.Flush(ctx),
		c.Recent.Flush(ctx),
	)
}

// Close flushes and stops every store of the session.
func (c *Context) Close(ctx context.Context) error {
	return multierr.Combine(
		c.Cart.Close(ctx),
		c.Wishlist.Close(ctx),
		c.Compare.Close(ctx),
		c.Recent.Close(ctx),
	)
}
