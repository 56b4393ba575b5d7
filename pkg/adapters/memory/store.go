package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/aware/pkg/domain"
)

// Store implements ports.SubscriptionStore and ports.TraceStore in memory.
// Safe for concurrent use.
type Store struct {
	data   map[string][]domain.Subscription
	traces map[string]*domain.Trace
	mu     sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data:   make(map[string][]domain.Subscription),
		traces: make(map[string]*domain.Trace),
	}
}

func copySubs(subs []domain.Subscription) []domain.Subscription {
	out := make([]domain.Subscription, len(subs))
	for i, sub := range subs {
		sub.Params = sub.Params.Clone()
		out[i] = sub
	}
	return out
}

// Save persists the sequence in memory.
func (s *Store) Save(ctx context.Context, signal string, subs []domain.Subscription) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := copySubs(subs)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[signal] = copied
	return nil
}

// Load retrieves the sequence from memory.
func (s *Store) Load(ctx context.Context, signal string) ([]domain.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs, ok := s.data[signal]
	if !ok {
		return nil, domain.ErrSignalNotFound
	}

	// Copy on read so the caller can't mutate store state directly
	return copySubs(subs), nil
}

// Delete removes the sequence.
func (s *Store) Delete(ctx context.Context, signal string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, signal)
	return nil
}

// List returns the stored signal names.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// SaveTrace keeps the trace as the last one of its signal name.
func (s *Store) SaveTrace(ctx context.Context, trace *domain.Trace) error {
	copied := *trace
	copied.Steps = append([]domain.Step(nil), trace.Steps...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.traces[trace.Signal] = &copied
	return nil
}

// LoadTrace returns the last trace of a signal name.
func (s *Store) LoadTrace(ctx context.Context, signal string) (*domain.Trace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trace, ok := s.traces[signal]
	if !ok {
		return nil, domain.ErrTraceNotFound
	}
	ret := *trace
	ret.Steps = append([]domain.Step(nil), trace.Steps...)
	return &ret, nil
}
