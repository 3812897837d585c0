package session

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/internal/collection"
	"github.com/angelmondragon/packfinderz-storefront/internal/compare"
	"github.com/angelmondragon/packfinderz-storefront/internal/coupons"
	"github.com/angelmondragon/packfinderz-storefront/internal/recentlyviewed"
	"github.com/angelmondragon/packfinderz-storefront/internal/shipping"
	"github.com/angelmondragon/packfinderz-storefront/internal/wishlist"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
	"github.com/angelmondragon/packfinderz-storefront/pkg/storage"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// ManagerParams groups the dependencies shared by every session.
type ManagerParams struct {
	Storage            storage.Durable
	Namespace          string
	Debounce           time.Duration
	Coupons            coupons.Validator
	Shipping           shipping.Resolver
	Settings           cart.Settings
	IdleTTL            time.Duration
	Logger             *logger.Logger
	PersistenceMetrics *metrics.PersistenceMetrics
	CouponMetrics      *metrics.CouponMetrics
	Scheduler          collection.Scheduler
	Now                func() time.Time
}

// Manager is the registry of live sessions.
type Manager struct {
	params ManagerParams
	logg   *logger.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*Context
	closed   bool

	creating singleflight.Group
}

func NewManager(params ManagerParams) (*Manager, error) {
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon validator required")
	}
	if params.Shipping == nil {
		return nil, fmt.Errorf("shipping resolver required")
	}
	if params.Storage == nil {
		params.Storage = storage.NewMemory()
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Manager{
		params:   params,
		logg:     params.Logger,
		now:      params.Now,
		sessions: make(map[string]*Context),
	}, nil
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id can be used as a session key.
func ValidID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

// Get returns the session for id, hydrating its stores on first use.
func (m *Manager) Get(ctx context.Context, id string) (*Context, error) {
	if !ValidID(id) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid session id")
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "session registry is shutting down")
	}
	if sc, ok := m.sessions[id]; ok {
		sc.touch(m.now())
		m.mu.Unlock()
		return sc, nil
	}
	m.mu.Unlock()

	created, err, _ := m.creating.Do(id, func() (any, error) {
		m.mu.Lock()
		if sc, ok := m.sessions[id]; ok {
			m.mu.Unlock()
			return sc, nil
		}
		m.mu.Unlock()

		sc, err := m.open(ctx, id)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closed {
			_ = sc.Close(context.Background())
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "session registry is shutting down")
		}
		m.sessions[id] = sc
		return sc, nil
	})
	if err != nil {
		return nil, err
	}
	sc := created.(*Context)
	sc.touch(m.now())
	return sc, nil
}

func (m *Manager) open(ctx context.Context, id string) (*Context, error) {
	opts := collection.Options{
		Storage:   m.params.Storage,
		Namespace: m.params.Namespace,
		SessionID: id,
		Debounce:  m.params.Debounce,
		Logger:    m.logg,
		Metrics:   m.params.PersistenceMetrics,
		Scheduler: m.params.Scheduler,
		Now:       m.now,
	}

	c, err := cart.New(ctx, cart.Params{
		Collection: opts,
		Coupons:    m.params.Coupons,
		Shipping:   m.params.Shipping,
		Settings:   m.params.Settings,
		Logger:     m.logg,
		Metrics:    m.params.CouponMetrics,
		Now:        m.now,
	})
	if err != nil {
		return nil, err
	}
	w, err := wishlist.New(ctx, opts)
	if err != nil {
		return nil, err
	}
	cmp, err := compare.New(ctx, opts)
	if err != nil {
		return nil, err
	}
	recent, err := recentlyviewed.New(ctx, opts)
	if err != nil {
		return nil, err
	}

	m.logg.Info(m.logg.WithSessionID(ctx, id), "session.opened")
	return &Context{ID: id, Cart: c, Wishlist: w, Compare: cmp, Recent: recent}, nil
}

// Sessions returns a snapshot of live sessions ordered by id.
func (m *Manager) Sessions() []*Context {
	m.mu.Lock()
	out := make([]*Context, 0, len(m.sessions))
	for _, sc := range m.sessions {
		out = append(out, sc)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// EvictIdle closes and drops sessions unseen for longer than the idle TTL.
// Stores are flushed before they are dropped.
func (m *Manager) EvictIdle(ctx context.Context) (int, error) {
	ttl := m.params.IdleTTL
	if ttl <= 0 {
		return 0, nil
	}
	cutoff := m.now().Add(-ttl)

	m.mu.Lock()
	idle := make([]*Context, 0)
	for id, sc := range m.sessions {
		if sc.LastSeen().Before(cutoff) {
			idle = append(idle, sc)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	var errs error
	for _, sc := range idle {
		if err := sc.Close(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("session %s: %w", sc.ID, err))
		}
	}
	return len(idle), errs
}

// Close flushes every session concurrently and rejects further lookups.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	live := make([]*Context, 0, len(m.sessions))
	for _, sc := range m.sessions {
		live = append(live, sc)
	}
	m.sessions = make(map[string]*Context)
	m.mu.Unlock()

	var (
		mu   sync.Mutex
		errs error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(16)
	for _, sc := range live {
		sc := sc
		g.Go(func() error {
			if err := sc.Close(gctx); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("session %s: %w", sc.ID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}
