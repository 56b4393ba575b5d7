package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/aware/internal/logging"
	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Registry is the subscription registry.
type Registry struct {
	store         ports.SubscriptionStore // Optional persistence
	locker        ports.DistributedLocker // Optional distributed locker
	lockTTL       time.Duration
	defaultAction string
	logger        *slog.Logger

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active per-signal locks

	data    sync.RWMutex
	records map[string][]domain.Subscription
	markers map[domain.EntityID]map[string]int

	seq atomic.Uint64
}

// Option configures the Registry.
type Option func(*Registry)

// WithStore persists every committed sequence.
func WithStore(store ports.SubscriptionStore) Option {
	return func(r *Registry) {
		r.store = store
	}
}

// WithLocker enables distributed locking of signal names.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(r *Registry) {
		r.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks (default 30s).
func WithLockTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		r.lockTTL = ttl
	}
}

// WithDefaultAction sets the action bound by records that name neither an action nor a callback.
func WithDefaultAction(name string) Option {
	return func(r *Registry) {
		r.defaultAction = name
	}
}

// WithLogger configures a logger for the Registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		lockTTL:       30 * time.Second,
		defaultAction: domain.DefaultAction,
		logger:        logging.NewNop(),
		locks:         make(map[string]*lockEntry),
		records:       make(map[string][]domain.Subscription),
		markers:       make(map[domain.EntityID]map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(signal) after unlocking.
func (r *Registry) acquire(signal string) *lockEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.locks[signal]
	if !exists {
		entry = &lockEntry{}
		r.locks[signal] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (r *Registry) release(signal string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.locks[signal]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(r.locks, signal)
	}
}

// withLock executes fn while holding the lock for the signal name.
func (r *Registry) withLock(ctx context.Context, signal string, fn func(context.Context) error) error {
	entry := r.acquire(signal)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		r.release(signal)
	}()

	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, "signal:"+signal, r.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				r.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"signal", signal,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// current returns the sequence a mutation starts from. When replicas share a
// store through a distributed lock, the store is the source of truth.
func (r *Registry) current(ctx context.Context, signal string) ([]domain.Subscription, error) {
	if r.store != nil && r.locker != nil {
		subs, err := r.store.Load(ctx, signal)
		if errors.Is(err, domain.ErrSignalNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load subscriptions of %s: %w", signal, err)
		}
		return subs, nil
	}
	return r.Lookup(signal), nil
}

// persist writes the next sequence of a signal to the store, if any.
func (r *Registry) persist(ctx context.Context, signal string, next []domain.Subscription) error {
	if r.store == nil {
		return nil
	}
	if len(next) == 0 {
		return r.store.Delete(ctx, signal)
	}
	return r.store.Save(ctx, signal, next)
}

// commit swaps the in-memory sequence of a signal and rebuilds its markers.
func (r *Registry) commit(signal string, next []domain.Subscription) {
	r.data.Lock()
	defer r.data.Unlock()

	for _, sub := range r.records[signal] {
		r.unmark(sub.Subscriber, signal)
	}
	if len(next) == 0 {
		delete(r.records, signal)
	} else {
		r.records[signal] = next
	}
	for _, sub := range next {
		r.mark(sub.Subscriber, signal)
	}
}

func (r *Registry) mark(entity domain.EntityID, signal string) {
	m, ok := r.markers[entity]
	if !ok {
		m = make(map[string]int)
		r.markers[entity] = m
	}
	m[signal]++
}

func (r *Registry) unmark(entity domain.EntityID, signal string) {
	m, ok := r.markers[entity]
	if !ok {
		return
	}
	m[signal]--
	if m[signal] <= 0 {
		delete(m, signal)
	}
	if len(m) == 0 {
		delete(r.markers, entity)
	}
}

// bumpSeq makes sure future sequence numbers are above seen.
func (r *Registry) bumpSeq(seen uint64) {
	for {
		cur := r.seq.Load()
		if seen <= cur || r.seq.CompareAndSwap(cur, seen) {
			return
		}
	}
}

// Subscribe adds a record. It fails with domain.ErrDuplicateSubscription when
// an identical record exists and leaves the registry untouched on any failure.
// The stored record (normalized, with its sequence number) is returned.
func (r *Registry) Subscribe(ctx context.Context, sub domain.Subscription) (domain.Subscription, error) {
	sub, err := sub.Normalize(r.defaultAction)
	if err != nil {
		return domain.Subscription{}, err
	}

	err = r.withLock(ctx, sub.Signal, func(ctx context.Context) error {
		current, err := r.current(ctx, sub.Signal)
		if err != nil {
			return err
		}
		for _, existing := range current {
			if existing.Same(sub) {
				return fmt.Errorf("%w: %s is already subscribed to %s with %s", domain.ErrDuplicateSubscription, sub.Subscriber, sub.Signal, sub.Handler())
			}
			r.bumpSeq(existing.Seq)
		}

		sub.Seq = r.seq.Add(1)
		next := make([]domain.Subscription, 0, len(current)+1)
		next = append(next, current...)
		next = append(next, sub)

		if err := r.persist(ctx, sub.Signal, next); err != nil {
			return fmt.Errorf("failed to persist subscriptions of %s: %w", sub.Signal, err)
		}
		r.commit(sub.Signal, next)
		return nil
	})
	if err != nil {
		return domain.Subscription{}, err
	}

	r.logger.Debug("subscribed", "signal", sub.Signal, "subscriber", sub.Subscriber, "handler", sub.Handler())
	return sub, nil
}

// Unsubscribe removes the record identical to sub. It returns false, without
// error, when no such record exists.
func (r *Registry) Unsubscribe(ctx context.Context, sub domain.Subscription) (bool, error) {
	sub, err := sub.Normalize(r.defaultAction)
	if err != nil {
		return false, err
	}

	removed := false
	err = r.withLock(ctx, sub.Signal, func(ctx context.Context) error {
		current, err := r.current(ctx, sub.Signal)
		if err != nil {
			return err
		}

		idx := -1
		for i, existing := range current {
			if existing.Same(sub) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil
		}

		next := make([]domain.Subscription, 0, len(current)-1)
		next = append(next, current[:idx]...)
		next = append(next, current[idx+1:]...)

		if err := r.persist(ctx, sub.Signal, next); err != nil {
			return fmt.Errorf("failed to persist subscriptions of %s: %w", sub.Signal, err)
		}
		r.commit(sub.Signal, next)
		removed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if removed {
		r.logger.Debug("unsubscribed", "signal", sub.Signal, "subscriber", sub.Subscriber, "handler", sub.Handler())
	}
	return removed, nil
}

// Lookup returns the records of exactly this signal name, in insertion order.
// Hierarchy expansion is the dispatcher's job.
func (r *Registry) Lookup(signal string) []domain.Subscription {
	r.data.RLock()
	defer r.data.RUnlock()

	subs := r.records[signal]
	if len(subs) == 0 {
		return nil
	}
	out := make([]domain.Subscription, len(subs))
	copy(out, subs)
	return out
}

// SubscriptionsOf returns the signal names the entity holds at least one record for, sorted.
func (r *Registry) SubscriptionsOf(entity domain.EntityID) []string {
	r.data.RLock()
	defer r.data.RUnlock()

	m := r.markers[entity]
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Marked reports whether the entity holds a record for exactly this signal name.
func (r *Registry) Marked(entity domain.EntityID, signal string) bool {
	r.data.RLock()
	defer r.data.RUnlock()
	return r.markers[entity][signal] > 0
}

// Signals returns every signal name with at least one record, sorted.
func (r *Registry) Signals() []string {
	r.data.RLock()
	defer r.data.RUnlock()

	names := make([]string, 0, len(r.records))
	for name := range r.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the total number of records.
func (r *Registry) Count() int {
	r.data.RLock()
	defer r.data.RUnlock()

	n := 0
	for _, subs := range r.records {
		n += len(subs)
	}
	return n
}

// Restore reloads every sequence from the store, replacing the in-memory view.
func (r *Registry) Restore(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	names, err := r.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list stored signals: %w", err)
	}

	for _, name := range names {
		err := r.withLock(ctx, name, func(ctx context.Context) error {
			subs, err := r.store.Load(ctx, name)
			if errors.Is(err, domain.ErrSignalNotFound) {
				subs = nil
			} else if err != nil {
				return fmt.Errorf("failed to load subscriptions of %s: %w", name, err)
			}
			for _, sub := range subs {
				r.bumpSeq(sub.Seq)
			}
			r.commit(name, subs)
			return nil
		})
		if err != nil {
			return err
		}
	}

	r.logger.Info("subscriptions restored", "signals", len(names), "records", r.Count())
	return nil
}
