// Package collection implements the keyed, capacity-bounded, debounce-persisted
// store behind the cart, wishlist, compare and recently-viewed collections.
package collection

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
	"github.com/angelmondragon/packfinderz-storefront/pkg/storage"
)

const DefaultDebounce = 500 * time.Millisecond

// Hydration results reported to metrics.
const (
	hydratedOK          = "ok"
	hydratedEmpty       = "empty"
	hydratedCorrupt     = "corrupt"
	hydratedUnavailable = "unavailable"
)

// Options wires a store to its durable record.
type Options struct {
	Storage   storage.Durable
	Namespace string
	SessionID string
	Debounce  time.Duration
	Logger    *logger.Logger
	Metrics   *metrics.PersistenceMetrics
	Scheduler Scheduler
	Now       func() time.Time
}

// Store is a keyed list with a pluggable capacity policy. Mutations apply to
// memory immediately; durable writes are coalesced behind a single-slot timer.
type Store[T any] struct {
	policy    Policy[T]
	storage   storage.Durable
	key       string
	debounce  time.Duration
	logg      *logger.Logger
	logCtx    context.Context
	metrics   *metrics.PersistenceMetrics
	scheduler Scheduler
	now       func() time.Time

	mu      sync.Mutex
	items   []T
	pending Timer
	dirty   bool
	epoch   uint64
	closed  bool

	// writeMu serializes durable writes and deletes for this key.
	writeMu sync.Mutex
}

// New builds a store and hydrates it from storage. Unreadable or malformed
// records produce an empty store; only an invalid policy is an error.
func New[T any](ctx context.Context, policy Policy[T], opts Options) (*Store[T], error) {
	if policy.Key == nil {
		return nil, fmt.Errorf("collection %q: key func is required", policy.Name)
	}
	if policy.Name == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if policy.Capacity < 0 {
		return nil, fmt.Errorf("collection %q: capacity must be >= 0", policy.Name)
	}
	if opts.Storage == nil {
		opts.Storage = storage.NewMemory()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	key := storage.CollectionKey(opts.Namespace, opts.SessionID, policy.Name)
	logCtx := opts.Logger.WithFields(context.Background(), map[string]any{
		"collection": policy.Name,
		"key":        key,
		"session_id": opts.SessionID,
	})

	s := &Store[T]{
		policy:    policy,
		storage:   opts.Storage,
		key:       key,
		debounce:  opts.Debounce,
		logg:      opts.Logger,
		logCtx:    logCtx,
		metrics:   opts.Metrics,
		scheduler: opts.Scheduler,
		now:       opts.Now,
	}
	s.hydrate(ctx)
	return s, nil
}

func (s *Store[T]) hydrate(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	payload, found, err := s.storage.Read(ctx, s.key)
	if err != nil {
		s.logg.WarnErr(s.logCtx, "collection.hydrate_unavailable", err)
		s.metrics.Hydrated(s.policy.Name, hydratedUnavailable)
		return
	}
	if !found {
		s.metrics.Hydrated(s.policy.Name, hydratedEmpty)
		return
	}

	items, err := decode[T](payload)
	if err != nil {
		s.logg.WarnErr(s.logCtx, "collection.hydrate_corrupt", pkgerrors.Wrap(pkgerrors.CodeDataIntegrity, err, "persisted collection is malformed"))
		s.metrics.Hydrated(s.policy.Name, hydratedCorrupt)
		return
	}

	items, invalid := s.sanitize(items, s.now())
	s.items = items
	if len(invalid) > 0 {
		err := pkgerrors.New(pkgerrors.CodeDataIntegrity, "persisted collection holds invalid entries").
			WithDetails(map[string]any{"dropped": len(invalid), "ids": invalid})
		s.logg.WarnErr(s.logCtx, "collection.hydrate_corrupt", err)
		s.metrics.Hydrated(s.policy.Name, hydratedCorrupt)
		return
	}
	s.metrics.Hydrated(s.policy.Name, hydratedOK)
}

// sanitize drops expired, keyless and invalid entries, de-duplicates by key
// (first occurrence wins) and truncates to capacity keeping the newest
// entries. It returns the ids of entries that failed Valid.
func (s *Store[T]) sanitize(items []T, now time.Time) ([]T, []string) {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	var invalid []string
	for _, item := range items {
		id := s.policy.Key(item)
		if id == "" {
			continue
		}
		if s.policy.Expired != nil && s.policy.Expired(item, now) {
			continue
		}
		if s.policy.Valid != nil {
			if err := s.policy.Valid(item); err != nil {
				invalid = append(invalid, id)
				continue
			}
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, item)
	}
	if capacity := s.policy.Capacity; capacity > 0 && len(out) > capacity {
		if s.policy.Placement == Prepend {
			out = out[:capacity]
		} else {
			out = out[len(out)-capacity:]
		}
	}
	return out, invalid
}

func (s *Store[T]) Name() string {
	return s.policy.Name
}

// StorageKey is the durable record key of this store.
func (s *Store[T]) StorageKey() string {
	return s.key
}

// Add inserts item, merges it into an existing entry, or does nothing,
// according to the policy. A full RejectWhenFull store returns a
// CodeRejected error and is left untouched.
func (s *Store[T]) Add(ctx context.Context, item T) (Outcome, error) {
	id := s.policy.Key(item)
	if id == "" {
		return OutcomeUnchanged, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return OutcomeUnchanged, err
	}

	if idx := s.indexOf(id); idx >= 0 {
		switch {
		case s.policy.ReplaceOnAdd:
			s.items = removeAt(s.items, idx)
		case s.policy.Merge != nil:
			s.items[idx] = s.policy.Merge(s.items[idx], item)
			s.scheduleLocked()
			return OutcomeMerged, nil
		default:
			return OutcomeUnchanged, nil
		}
	}

	if capacity := s.policy.Capacity; capacity > 0 && len(s.items) >= capacity {
		if s.policy.OnFull == RejectWhenFull {
			return OutcomeUnchanged, pkgerrors.New(pkgerrors.CodeRejected, "collection is full, remove an item first").
				WithDetails(map[string]any{"collection": s.policy.Name, "capacity": capacity})
		}
		s.items = removeAt(s.items, s.policy.oldestIndex(len(s.items)))
	}

	if s.policy.Placement == Prepend {
		s.items = append([]T{item}, s.items...)
	} else {
		s.items = append(s.items, item)
	}
	s.scheduleLocked()
	return OutcomeInserted, nil
}

// Remove deletes the entry with id and reports whether it existed; absent
// ids are a no-op. A closed store returns a CodeStateConflict error.
func (s *Store[T]) Remove(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return false, err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	s.items = removeAt(s.items, idx)
	s.scheduleLocked()
	return true, nil
}

// Toggle removes item when present, otherwise adds it. added reports the
// resulting membership.
func (s *Store[T]) Toggle(ctx context.Context, item T) (bool, error) {
	id := s.policy.Key(item)
	removed, err := s.Remove(ctx, id)
	if err != nil {
		return false, err
	}
	if removed {
		return false, nil
	}
	if _, err := s.Add(ctx, item); err != nil {
		return false, err
	}
	return true, nil
}

// Update replaces the entry with id by fn's result, or removes it when fn
// returns false. fn must keep the item's key. It reports whether id existed.
func (s *Store[T]) Update(_ context.Context, id string, fn func(T) (T, bool)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return false, err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	next, keep := fn(s.items[idx])
	if keep {
		s.items[idx] = next
	} else {
		s.items = removeAt(s.items, idx)
	}
	s.scheduleLocked()
	return true, nil
}

// Clear empties the store, drops any pending write and deletes the durable
// record. Storage failures are logged; memory stays empty regardless. A
// closed store is left untouched and returns a CodeStateConflict error.
func (s *Store[T]) Clear(ctx context.Context) error {
	s.mu.Lock()
	if err := s.ensureOpen(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.items = nil
	s.stopPendingLocked()
	s.dirty = false
	s.epoch++
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.storage.Delete(ctx, s.key); err != nil {
		s.logg.WarnErr(s.logCtx, "collection.delete_failed", err)
		s.metrics.WriteFailed(s.policy.Name)
	}
	return nil
}

func (s *Store[T]) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOf(id); idx >= 0 {
		return s.items[idx], true
	}
	var zero T
	return zero, false
}

// Items returns a copy of the entries in store order.
func (s *Store[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Flush performs the pending write now.
func (s *Store[T]) Flush(ctx context.Context) error {
	return s.persist(ctx)
}

// Close flushes the pending write and rejects further mutations.
func (s *Store[T]) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.stopPendingLocked()
	s.mu.Unlock()
	return s.persist(ctx)
}

func (s *Store[T]) ensureOpen() error {
	if s.closed {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "collection is closed")
	}
	return nil
}

func (s *Store[T]) scheduleLocked() {
	s.dirty = true
	if s.closed {
		return
	}
	s.stopPendingLocked()
	s.pending = s.scheduler.AfterFunc(s.debounce, func() {
		_ = s.persist(context.Background())
	})
}

func (s *Store[T]) stopPendingLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

// persist writes the newest snapshot when memory is ahead of storage.
// writeMu is held across snapshot and write so a concurrent Clear deletes
// only after an in-flight write has landed.
func (s *Store[T]) persist(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	snapshot := make([]T, len(s.items))
	copy(snapshot, s.items)
	epoch := s.epoch
	s.dirty = false
	s.stopPendingLocked()
	s.mu.Unlock()

	payload, err := encode(snapshot, s.now())
	if err == nil {
		err = s.storage.Write(ctx, s.key, payload)
	}
	if err != nil {
		s.logg.WarnErr(s.logCtx, "collection.persist_failed", err)
		s.metrics.WriteFailed(s.policy.Name)
		s.mu.Lock()
		if s.epoch == epoch {
			s.dirty = true
		}
		s.mu.Unlock()
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist collection")
	}
	s.metrics.WriteSucceeded(s.policy.Name)
	return nil
}

func (s *Store[T]) indexOf(id string) int {
	for i, item := range s.items {
		if s.policy.Key(item) == id {
			return i
		}
	}
	return -1
}

func removeAt[T any](items []T, idx int) []T {
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:idx]...)
	return append(out, items[idx+1:]...)
}
