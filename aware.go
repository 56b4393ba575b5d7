package aware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/aware/internal/logging"
	"github.com/aretw0/aware/internal/runtime"
	"github.com/aretw0/aware/pkg/actions"
	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/ports"
	"github.com/aretw0/aware/pkg/registry"
	"github.com/aretw0/aware/pkg/subscription"
	"go.opentelemetry.io/otel/trace"
)

// Engine is the high-level entry point of the library.
// It owns the subscription registry, the action registry and the dispatcher,
// and wires them to the world and to the optional stores.
type Engine struct {
	world      ports.World
	subs       *subscription.Registry
	handlers   *registry.Registry
	dispatcher *runtime.Dispatcher

	store          ports.SubscriptionStore
	traces         ports.TraceStore
	locker         ports.DistributedLocker
	lockTTL        time.Duration
	hooks          domain.LifecycleHooks
	logger         *slog.Logger
	defaultAction  string
	maxPropagation int
	timeout        time.Duration
	tracerProvider trace.TracerProvider
	executor       actions.CommandExecutor
	mover          ports.Mover
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore persists subscriptions. Call Restore to load them back.
func WithStore(store ports.SubscriptionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithTraceStore persists the last trace of every signal name.
func WithTraceStore(store ports.TraceStore) Option {
	return func(e *Engine) {
		e.traces = store
	}
}

// WithLocker serializes subscription changes across engines sharing one store.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithDefaultAction sets the action bound by subscriptions that name no handler (default "cmd").
func WithDefaultAction(name string) Option {
	return func(e *Engine) {
		e.defaultAction = name
	}
}

// WithMaxPropagation caps the propagation a throw may request (default 16).
func WithMaxPropagation(max int) Option {
	return func(e *Engine) {
		e.maxPropagation = max
	}
}

// WithInvocationTimeout bounds every handler invocation. Zero means no timeout.
func WithInvocationTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		e.timeout = timeout
	}
}

// WithTracerProvider sets the OpenTelemetry provider used for throw spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		e.tracerProvider = tp
	}
}

// WithCommandExecutor enables the bundled "cmd" action.
func WithCommandExecutor(exec actions.CommandExecutor) Option {
	return func(e *Engine) {
		e.executor = exec
	}
}

// WithMover enables the bundled "move" action. Worlds implementing
// ports.Mover enable it on their own.
func WithMover(mover ports.Mover) Option {
	return func(e *Engine) {
		e.mover = mover
	}
}

// New creates an engine over a world.
func New(world ports.World, opts ...Option) (*Engine, error) {
	if world == nil {
		return nil, errors.New("a world is required")
	}

	eng := &Engine{
		world:          world,
		defaultAction:  domain.DefaultAction,
		maxPropagation: domain.DefaultMaxPropagation,
		lockTTL:        30 * time.Second,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.maxPropagation < 0 {
		return nil, fmt.Errorf("%w: max %d", domain.ErrInvalidPropagation, eng.maxPropagation)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.mover == nil {
		if m, ok := world.(ports.Mover); ok {
			eng.mover = m
		}
	}

	eng.subs = subscription.NewRegistry(
		subscription.WithStore(eng.store),
		subscription.WithLocker(eng.locker),
		subscription.WithLockTTL(eng.lockTTL),
		subscription.WithDefaultAction(eng.defaultAction),
		subscription.WithLogger(eng.logger),
	)

	eng.handlers = registry.NewRegistry()
	actions.Register(eng.handlers, eng.executor, eng.mover)

	dispatcherOpts := []runtime.DispatcherOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithMaxPropagation(eng.maxPropagation),
		runtime.WithTraceStore(eng.traces),
		runtime.WithTracerProvider(eng.tracerProvider),
	}
	if eng.timeout > 0 {
		dispatcherOpts = append(dispatcherOpts, runtime.WithInvocationTimeout(eng.timeout))
	}
	eng.dispatcher = runtime.NewDispatcher(world, eng.subs, eng.handlers, dispatcherOpts...)

	return eng, nil
}

// Subscribe binds a subscriber to a signal name. It returns the stored record,
// or domain.ErrDuplicateSubscription if an identical record exists.
func (e *Engine) Subscribe(ctx context.Context, sub domain.Subscription) (domain.Subscription, error) {
	return e.subs.Subscribe(ctx, sub)
}

// Unsubscribe removes a record. It reports whether a record was removed.
func (e *Engine) Unsubscribe(ctx context.Context, sub domain.Subscription) (bool, error) {
	return e.subs.Unsubscribe(ctx, sub)
}

// Throw delivers a signal to every matching reachable subscriber.
func (e *Engine) Throw(ctx context.Context, sig domain.Signal) (*domain.Result, error) {
	return e.dispatcher.Throw(ctx, sig)
}

// Lookup returns the records of exactly this signal name, in insertion order.
func (e *Engine) Lookup(signal string) []domain.Subscription {
	return e.subs.Lookup(signal)
}

// SubscriptionsOf returns the signal names an entity is subscribed to.
func (e *Engine) SubscriptionsOf(entity domain.EntityID) []string {
	return e.subs.SubscriptionsOf(entity)
}

// Signals returns every signal name with at least one subscription.
func (e *Engine) Signals() []string {
	return e.subs.Signals()
}

// Restore reloads subscriptions from the store.
func (e *Engine) Restore(ctx context.Context) error {
	return e.subs.Restore(ctx)
}

// LastTrace returns the trace of the latest throw of a signal name.
func (e *Engine) LastTrace(ctx context.Context, signal string) (*domain.Trace, error) {
	return e.dispatcher.LastTrace(ctx, signal)
}

// RegisterAction adds or replaces a named action.
func (e *Engine) RegisterAction(name string, fn registry.ActionFunc) {
	e.handlers.Register(name, fn)
}

// RegisterCallback adds or replaces a named callback.
func (e *Engine) RegisterCallback(name string, fn registry.CallbackFunc) {
	e.handlers.RegisterCallback(name, fn)
}

// Actions returns the registered action names.
func (e *Engine) Actions() []string {
	return e.handlers.Actions()
}

// Reachable returns the locations a local signal thrown by source would reach.
// A source without a location reaches nothing.
func (e *Engine) Reachable(ctx context.Context, source domain.EntityID, propagation int) (domain.Reach, error) {
	if propagation < 0 || propagation > e.maxPropagation {
		return nil, fmt.Errorf("%w: %d (max %d)", domain.ErrInvalidPropagation, propagation, e.maxPropagation)
	}
	loc, ok, err := e.world.LocationOf(ctx, source)
	if err != nil {
		return nil, err
	}
	if !ok {
		return domain.Reach{}, nil
	}
	reach, _, err := runtime.Resolve(ctx, e.world, loc, propagation)
	return reach, err
}

// World returns the world the engine dispatches over.
func (e *Engine) World() ports.World {
	return e.world
}
