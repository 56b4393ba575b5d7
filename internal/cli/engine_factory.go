package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/aware"
	"github.com/aretw0/aware/internal/logging"
	httpAdapter "github.com/aretw0/aware/pkg/adapters/http"
	"github.com/aretw0/aware/pkg/adapters/file"
	"github.com/aretw0/aware/pkg/adapters/memory"
	"github.com/aretw0/aware/pkg/adapters/process"
	"github.com/aretw0/aware/pkg/adapters/redis"
	"github.com/aretw0/aware/pkg/adapters/sqlite"
	"github.com/aretw0/aware/pkg/config"
	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/observability"
	"github.com/aretw0/aware/pkg/persistence/middleware"
	"github.com/aretw0/aware/pkg/ports"
)

// Stack is an engine wired from a host configuration, with the collaborators
// the CLI surfaces need.
type Stack struct {
	Engine  *aware.Engine
	World   *memory.World
	Metrics *observability.Metrics
	Streams *httpAdapter.StreamManager
	Logger  *slog.Logger

	closers []func(context.Context) error
}

// Close releases stores and flushes tracing, in reverse order of creation.
func (s *Stack) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func closer(c io.Closer) func(context.Context) error {
	return func(context.Context) error { return c.Close() }
}

// Build creates an engine following the configuration: world fixture, store
// driver, command allow-list, metrics, tracing and startup subscriptions.
// Persisted subscriptions are restored before the configured ones are added.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stack, error) {
	stack := &Stack{Logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = stack.Close(ctx)
		}
	}()

	// 1. World
	world := memory.NewWorld()
	if cfg.World != "" {
		w, err := memory.LoadWorld(cfg.World)
		if err != nil {
			return nil, err
		}
		world = w
	}
	stack.World = world

	engineOpts := []aware.Option{
		aware.WithLogger(logger),
		aware.WithDefaultAction(cfg.Dispatch.DefaultAction),
		aware.WithMaxPropagation(cfg.Dispatch.MaxPropagation),
		aware.WithInvocationTimeout(cfg.Dispatch.InvocationTimeout),
	}

	// 2. Persistence
	storeOpts, err := stack.openStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	engineOpts = append(engineOpts, storeOpts...)

	// 3. Command allow-list
	if cfg.Commands != "" {
		commands, err := process.LoadCommands(cfg.Commands)
		if err != nil {
			return nil, err
		}
		engineOpts = append(engineOpts, aware.WithCommandExecutor(process.NewRunner(process.WithRegistry(commands))))
	}

	// 4. Observability
	metrics, err := observability.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	stack.Metrics = metrics
	stack.Streams = httpAdapter.NewStreamManager()

	tp, shutdown, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup tracing: %w", err)
	}
	stack.closers = append(stack.closers, shutdown)

	engineOpts = append(engineOpts,
		aware.WithTracerProvider(tp),
		aware.WithLifecycleHooks(observability.Combine(
			observability.LogHooks(logger),
			metrics.Hooks(),
			stack.Streams.Hooks(),
		)),
	)

	// 5. Engine
	engine, err := aware.New(world, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	stack.Engine = engine

	if err := engine.Restore(ctx); err != nil {
		return nil, fmt.Errorf("failed to restore subscriptions: %w", err)
	}
	if err := Seed(ctx, engine, cfg.Subscriptions, logger); err != nil {
		return nil, err
	}

	ok = true
	return stack, nil
}

func (s *Stack) openStore(cfg config.StoreConfig) ([]aware.Option, error) {
	var (
		subs   ports.SubscriptionStore
		traces ports.TraceStore
		opts   []aware.Option
	)

	switch cfg.Driver {
	case config.DriverFile:
		store := file.New(cfg.Path)
		subs, traces = store, store

	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, closer(store))
		subs, traces = store, store

	case config.DriverRedis:
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			redis.WithPrefix(cfg.Prefix),
			redis.WithTraceTTL(cfg.TraceTTL),
		)
		s.closers = append(s.closers, closer(store))
		subs, traces = store, store
		if cfg.Lock {
			opts = append(opts, aware.WithLocker(redis.NewLocker(store.Client(), cfg.Prefix), cfg.LockTTL))
		}

	case config.DriverMemory, "":
		store := memory.NewStore()
		subs, traces = store, store

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	if cfg.EncryptionKey != "" {
		mw, err := encryption(cfg)
		if err != nil {
			return nil, err
		}
		subs = middleware.Chain(subs, mw)
	}

	return append(opts, aware.WithStore(subs), aware.WithTraceStore(traces)), nil
}

func encryption(cfg config.StoreConfig) (middleware.Middleware, error) {
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for _, k := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("fallback key: %w", err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return middleware.NewEncryptionMiddleware(enc)
}

// Seed subscribes every record, skipping the ones already registered.
func Seed(ctx context.Context, engine *aware.Engine, subs []domain.Subscription, logger *slog.Logger) error {
	for _, sub := range subs {
		_, err := engine.Subscribe(ctx, sub)
		switch {
		case errors.Is(err, domain.ErrDuplicateSubscription):
			logger.Debug("subscription already registered", "signal", sub.Signal, "subscriber", sub.Subscriber)
		case err != nil:
			return fmt.Errorf("failed to subscribe %s to %s: %w", sub.Subscriber, sub.Signal, err)
		}
	}
	return nil
}

// NewLogger builds the CLI logger for a level name. Logs go to stderr so that
// stdout stays reserved for command output.
func NewLogger(level string) (*slog.Logger, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.NewWriter(os.Stderr, lvl), nil
}
