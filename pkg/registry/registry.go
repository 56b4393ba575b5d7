// Package registry maps action and callback names to the handlers the
// dispatcher invokes. It is populated at configuration time and read during
// throws; a subscription may reference a name that is registered later.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/ports"
)

// DispatchContext is handed to actions alongside the subscriber and the signal name.
type DispatchContext struct {
	World    ports.World
	Delivery domain.Delivery
	Logger   *slog.Logger
}

// ActionFunc defines the signature of a named action.
// It returns whether the signal was handled.
type ActionFunc func(ctx context.Context, subscriber domain.EntityID, signal string, dc *DispatchContext, params domain.Params) (bool, error)

// CallbackFunc defines the signature of a named callback. It receives the
// signal name, parameters, distance and exit through the delivery.
type CallbackFunc func(ctx context.Context, d domain.Delivery) error

// Registry manages the available actions and callbacks.
type Registry struct {
	mu        sync.RWMutex
	actions   map[string]ActionFunc
	callbacks map[string]CallbackFunc
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		actions:   make(map[string]ActionFunc),
		callbacks: make(map[string]CallbackFunc),
	}
}

// Register adds an action to the registry.
// If an action with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn ActionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = fn
}

// RegisterCallback adds a callback to the registry.
// If a callback with the same name exists, it is overwritten.
func (r *Registry) RegisterCallback(name string, fn CallbackFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[name] = fn
}

// Action looks up an action by name.
func (r *Registry) Action(name string) (ActionFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.actions[name]
	return fn, ok
}

// Callback looks up a callback by name.
func (r *Registry) Callback(name string) (CallbackFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.callbacks[name]
	return fn, ok
}

// Actions returns the registered action names, sorted.
func (r *Registry) Actions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke resolves the handler bound by the delivery's subscription and runs it.
// Returns an error wrapping domain.ErrUnknownAction / domain.ErrUnknownCallback when
// the name is not registered, and domain.ErrActionDeclined when an action reports
// that it did not handle the signal.
func (r *Registry) Invoke(ctx context.Context, dc *DispatchContext) error {
	sub := dc.Delivery.Subscription

	if sub.Callback != "" {
		fn, ok := r.Callback(sub.Callback)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrUnknownCallback, sub.Callback)
		}
		return fn(ctx, dc.Delivery)
	}

	fn, ok := r.Action(sub.Action)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownAction, sub.Action)
	}

	handled, err := fn(ctx, sub.Subscriber, dc.Delivery.Signal, dc, dc.Delivery.MergedParams())
	if err != nil {
		return err
	}
	if !handled {
		return fmt.Errorf("%w: %s", domain.ErrActionDeclined, sub.Action)
	}
	return nil
}
