package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

var (
	_ ports.SubscriptionStore = (*Store)(nil)
	_ ports.TraceStore        = (*Store)(nil)
)

// Store implements ports.SubscriptionStore and ports.TraceStore using Redis.
//
// Layout, under the prefix:
//
//	subs:<signal>   JSON sequence of subscription records
//	index           SET of stored signal names
//	trace:<signal>  JSON of the last trace, expiring after the trace TTL
type Store struct {
	client   *backend.Client
	prefix   string
	traceTTL time.Duration
}

type Option func(*Store)

// WithTraceTTL sets the expiration of stored traces. Subscriptions never expire.
func WithTraceTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.traceTTL = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "aware:",
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(signal string) string {
	return s.prefix + "subs:" + signal
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

func (s *Store) traceKey(signal string) string {
	return s.prefix + "trace:" + signal
}

// Save persists the sequence of a signal name.
func (s *Store) Save(ctx context.Context, signal string, subs []domain.Subscription) error {
	data, err := json.Marshal(subs)
	if err != nil {
		return fmt.Errorf("failed to marshal subscriptions: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(signal), data, 0)
	pipe.SAdd(ctx, s.indexKey(), signal)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the sequence of a signal name.
func (s *Store) Load(ctx context.Context, signal string) ([]domain.Subscription, error) {
	val, err := s.client.Get(ctx, s.key(signal)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSignalNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var subs []domain.Subscription
	if err := json.Unmarshal([]byte(val), &subs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subscriptions: %w", err)
	}
	return subs, nil
}

// Delete removes the sequence of a signal name.
func (s *Store) Delete(ctx context.Context, signal string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(signal))
	pipe.SRem(ctx, s.indexKey(), signal)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns the stored signal names, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list signals: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// SaveTrace stores the trace as the last one of its signal name.
func (s *Store) SaveTrace(ctx context.Context, trace *domain.Trace) error {
	data, err := json.Marshal(trace)
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}
	if err := s.client.Set(ctx, s.traceKey(trace.Signal), data, s.traceTTL).Err(); err != nil {
		return fmt.Errorf("failed to save trace to redis: %w", err)
	}
	return nil
}

// LoadTrace returns the last trace of a signal name.
func (s *Store) LoadTrace(ctx context.Context, signal string) (*domain.Trace, error) {
	val, err := s.client.Get(ctx, s.traceKey(signal)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrTraceNotFound
		}
		return nil, fmt.Errorf("failed to get trace from redis: %w", err)
	}

	var trace domain.Trace
	if err := json.Unmarshal([]byte(val), &trace); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trace: %w", err)
	}
	return &trace, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
