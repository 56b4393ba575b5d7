package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/aware/internal/logging"
	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/ports"
	"github.com/aretw0/aware/pkg/registry"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aretw0/aware"

// Lookup is the read side of the subscription registry used during a throw.
type Lookup interface {
	// Lookup returns a snapshot of the records of exactly this signal name.
	Lookup(signal string) []domain.Subscription
	// Marked reports whether the entity holds a record for exactly this signal name.
	Marked(entity domain.EntityID, signal string) bool
}

// Invoker runs the handler bound by a delivery.
type Invoker interface {
	Invoke(ctx context.Context, dc *registry.DispatchContext) error
}

// TimeoutPolicy returns the invocation timeout of a record; zero means none.
type TimeoutPolicy func(sub domain.Subscription) time.Duration

// Dispatcher orchestrates throws.
type Dispatcher struct {
	world          ports.World
	subs           Lookup
	handlers       Invoker
	traces         ports.TraceStore
	hooks          domain.LifecycleHooks
	logger         *slog.Logger
	tracer         trace.Tracer
	timeout        TimeoutPolicy
	maxPropagation int

	lastMu sync.RWMutex
	last   map[string]*domain.Trace
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) DispatcherOption {
	return func(d *Dispatcher) {
		d.hooks = hooks
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithTraceStore persists the trace of every throw.
func WithTraceStore(store ports.TraceStore) DispatcherOption {
	return func(d *Dispatcher) {
		d.traces = store
	}
}

// WithTracerProvider sets the OpenTelemetry provider used for throw spans.
func WithTracerProvider(tp trace.TracerProvider) DispatcherOption {
	return func(d *Dispatcher) {
		if tp != nil {
			d.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithTimeoutPolicy sets the per-invocation timeout policy.
func WithTimeoutPolicy(policy TimeoutPolicy) DispatcherOption {
	return func(d *Dispatcher) {
		d.timeout = policy
	}
}

// WithInvocationTimeout applies the same timeout to every invocation.
func WithInvocationTimeout(timeout time.Duration) DispatcherOption {
	return WithTimeoutPolicy(func(domain.Subscription) time.Duration { return timeout })
}

// WithMaxPropagation caps the propagation a caller may request.
func WithMaxPropagation(max int) DispatcherOption {
	return func(d *Dispatcher) {
		if max >= 0 {
			d.maxPropagation = max
		}
	}
}

// NewDispatcher creates a dispatcher over a world, a subscription lookup and a handler registry.
func NewDispatcher(world ports.World, subs Lookup, handlers Invoker, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		world:          world,
		subs:           subs,
		handlers:       handlers,
		logger:         logging.NewNop(),
		tracer:         otel.Tracer(tracerName),
		maxPropagation: domain.DefaultMaxPropagation,
		last:           make(map[string]*domain.Trace),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// candidate is an entity within reach of the throw.
type candidate struct {
	hop domain.Hop
}

// recipient groups the matching records of one subscriber.
type recipient struct {
	entity   domain.EntityID
	hop      domain.Hop
	firstSeq uint64
	records  []domain.Subscription
}

// validate rejects bad throw arguments before any work is done.
func (d *Dispatcher) validate(sig domain.Signal) error {
	if err := domain.ValidateName(sig.Name); err != nil {
		return err
	}
	if sig.Source == "" {
		return domain.ErrMissingSource
	}
	if sig.Local && (sig.Propagation < 0 || sig.Propagation > d.maxPropagation) {
		return fmt.Errorf("%w: %d (max %d)", domain.ErrInvalidPropagation, sig.Propagation, d.maxPropagation)
	}
	return nil
}

// Throw delivers a signal to every matching, reachable subscriber exactly once,
// closest first. A failing recipient is recorded in the trace and never stops
// delivery to the others. A "no subscribers" throw returns an empty result.
//
// If ctx is canceled mid-delivery, the partial result is returned with ctx.Err().
func (d *Dispatcher) Throw(ctx context.Context, sig domain.Signal) (*domain.Result, error) {
	if err := d.validate(sig); err != nil {
		return nil, err
	}

	tr := &domain.Trace{
		ID:          ulid.Make().String(),
		Signal:      sig.Name,
		Source:      sig.Source,
		Local:       sig.Local,
		Propagation: sig.Propagation,
		StartedAt:   time.Now(),
	}
	logger := d.logger.With("signal", sig.Name, "trace_id", tr.ID)

	ctx, span := d.tracer.Start(ctx, "aware.throw", trace.WithAttributes(
		attribute.String("aware.signal", sig.Name),
		attribute.String("aware.source", string(sig.Source)),
		attribute.Bool("aware.local", sig.Local),
		attribute.Int("aware.propagation", sig.Propagation),
		attribute.String("aware.trace_id", tr.ID),
	))
	defer span.End()

	if d.hooks.OnThrow != nil {
		d.hooks.OnThrow(ctx, &domain.ThrowEvent{
			EventBase: domain.EventBase{Timestamp: tr.StartedAt, Type: domain.EventThrow, TraceID: tr.ID},
			Signal:    sig.Name,
			Source:    sig.Source,
			Local:     sig.Local,
		})
	}

	levels := domain.Levels(sig.Name)

	candidates, reachable, err := d.candidates(ctx, sig, levels, tr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	recipients := d.match(levels, candidates, tr)
	result := &domain.Result{Notified: []domain.EntityID{}, Trace: tr}

	err = d.deliver(ctx, sig, recipients, result, logger)

	tr.Duration = time.Since(tr.StartedAt)
	d.remember(ctx, tr, logger)

	failures := len(tr.Failures())
	span.SetAttributes(
		attribute.Int("aware.notified", len(result.Notified)),
		attribute.Int("aware.failures", failures),
		attribute.Bool("aware.stopped", result.Stopped),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if d.hooks.OnComplete != nil {
		d.hooks.OnComplete(ctx, &domain.ThrowEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventComplete, TraceID: tr.ID},
			Signal:    sig.Name,
			Source:    sig.Source,
			Local:     sig.Local,
			Notified:  len(result.Notified),
			Failures:  failures,
			Duration:  tr.Duration,
			Stopped:   result.Stopped,
			Reachable: reachable,
		})
	}

	logger.Debug("throw complete",
		"notified", len(result.Notified),
		"failures", failures,
		"stopped", result.Stopped,
	)
	return result, err
}

// candidates returns the entities within reach that carry a marker for one of
// the levels, plus the number of reachable locations.
func (d *Dispatcher) candidates(ctx context.Context, sig domain.Signal, levels []string, tr *domain.Trace) (map[domain.EntityID]candidate, int, error) {
	out := make(map[domain.EntityID]candidate)
	consider := func(entity domain.EntityID, hop domain.Hop) {
		if _, seen := out[entity]; seen {
			return
		}
		for _, level := range levels {
			if d.subs.Marked(entity, level) {
				out[entity] = candidate{hop: hop}
				return
			}
		}
	}

	if !sig.Local {
		entities, err := d.world.Entities(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list entities: %w", err)
		}
		for _, e := range entities {
			consider(e, domain.Hop{Distance: 0})
		}
		return out, 0, nil
	}

	origin, ok, err := d.world.LocationOf(ctx, sig.Source)
	if err != nil && !errors.Is(err, domain.ErrEntityNotFound) {
		return nil, 0, fmt.Errorf("failed to locate source %s: %w", sig.Source, err)
	}
	if !ok {
		// Thrown from nowhere: the source is its own 0-entity pseudo-location.
		tr.Add(domain.Step{Kind: domain.StepExplore, Subscriber: sig.Source, Distance: 0})
		consider(sig.Source, domain.Hop{Distance: 0})
		return out, 0, nil
	}

	reach, order, err := Resolve(ctx, d.world, origin, sig.Propagation)
	if err != nil {
		return nil, 0, err
	}

	for _, loc := range order {
		hop := reach[loc]
		step := domain.Step{Kind: domain.StepExplore, Location: loc, Distance: hop.Distance}
		if hop.Via != nil {
			step.Exit = hop.Via.ID
		}
		tr.Add(step)

		present, err := d.world.EntitiesAt(ctx, loc)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list entities at %s: %w", loc, err)
		}
		for _, e := range present {
			consider(e, hop)
		}
	}
	return out, len(order), nil
}

// match walks the levels from the full name to the coarsest prefix and groups
// the reachable records by subscriber. Every live record is kept once, so a
// subscriber holding records at several levels gets each of them invoked.
// Recipients are ordered by distance, then by the insertion order of their
// earliest matching record.
func (d *Dispatcher) match(levels []string, candidates map[domain.EntityID]candidate, tr *domain.Trace) []*recipient {
	byEntity := make(map[domain.EntityID]*recipient)
	var recipients []*recipient

	for _, level := range levels {
		for _, rec := range d.subs.Lookup(level) {
			c, ok := candidates[rec.Subscriber]
			if !ok {
				continue
			}

			r, seen := byEntity[rec.Subscriber]
			if !seen {
				r = &recipient{entity: rec.Subscriber, hop: c.hop, firstSeq: rec.Seq}
				byEntity[rec.Subscriber] = r
				recipients = append(recipients, r)
				tr.Add(domain.Step{Kind: domain.StepMatch, Subscriber: rec.Subscriber, Level: level, Distance: c.hop.Distance})
			}

			duplicate := false
			for _, prev := range r.records {
				if prev.Same(rec) {
					duplicate = true
					break
				}
			}
			if duplicate {
				continue
			}
			r.records = append(r.records, rec)
			if rec.Seq < r.firstSeq {
				r.firstSeq = rec.Seq
			}
		}
	}

	sort.SliceStable(recipients, func(i, j int) bool {
		if recipients[i].hop.Distance != recipients[j].hop.Distance {
			return recipients[i].hop.Distance < recipients[j].hop.Distance
		}
		return recipients[i].firstSeq < recipients[j].firstSeq
	})
	return recipients
}

// deliver invokes every record of every recipient, in order.
func (d *Dispatcher) deliver(ctx context.Context, sig domain.Signal, recipients []*recipient, result *domain.Result, logger *slog.Logger) error {
	tr := result.Trace

	for _, r := range recipients {
		delivered := false

		for _, rec := range r.records {
			if err := ctx.Err(); err != nil {
				result.Stopped = true
				return err
			}

			dc := &registry.DispatchContext{
				World: d.world,
				Delivery: domain.Delivery{
					Subscription: rec,
					Signal:       sig.Name,
					Params:       sig.Params,
					Distance:     r.hop.Distance,
					Via:          r.hop.Via,
					TraceID:      tr.ID,
				},
				Logger: logger.With("subscriber", rec.Subscriber, "handler", rec.Handler()),
			}

			start := time.Now()
			err := d.invoke(ctx, dc)
			event := &domain.DeliveryEvent{
				EventBase:  domain.EventBase{Timestamp: start, Type: domain.EventDeliver, TraceID: tr.ID},
				Signal:     sig.Name,
				Subscriber: rec.Subscriber,
				Handler:    rec.Handler(),
				Distance:   r.hop.Distance,
				Duration:   time.Since(start),
			}

			stop := errors.Is(err, domain.ErrStopDelivery)
			if err != nil && !stop {
				event.Type = domain.EventFailure
				event.Err = &domain.DeliveryError{Subscriber: rec.Subscriber, Handler: rec.Handler(), Err: err}
				tr.Add(domain.Step{
					Kind:       domain.StepFailure,
					Subscriber: rec.Subscriber,
					Distance:   r.hop.Distance,
					Handler:    rec.Handler(),
					Error:      err.Error(),
				})
				logger.Warn("delivery failed", "subscriber", rec.Subscriber, "handler", rec.Handler(), "err", err)
				if d.hooks.OnFailure != nil {
					d.hooks.OnFailure(ctx, event)
				}
				continue
			}

			delivered = true
			tr.Add(domain.Step{
				Kind:       domain.StepInvoke,
				Subscriber: rec.Subscriber,
				Distance:   r.hop.Distance,
				Handler:    rec.Handler(),
			})
			if d.hooks.OnDeliver != nil {
				d.hooks.OnDeliver(ctx, event)
			}

			if stop {
				result.Notified = append(result.Notified, r.entity)
				result.Stopped = true
				tr.Add(domain.Step{Kind: domain.StepStop, Subscriber: rec.Subscriber, Distance: r.hop.Distance, Handler: rec.Handler()})
				logger.Debug("delivery stopped by recipient", "subscriber", rec.Subscriber)
				return nil
			}
		}

		if delivered {
			result.Notified = append(result.Notified, r.entity)
		}
	}
	return nil
}

// invoke runs one handler under the timeout policy, recovering panics.
func (d *Dispatcher) invoke(ctx context.Context, dc *registry.DispatchContext) error {
	call := func(ctx context.Context) (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("handler panicked: %v", p)
			}
		}()
		return d.handlers.Invoke(ctx, dc)
	}

	var timeout time.Duration
	if d.timeout != nil {
		timeout = d.timeout(dc.Delivery.Subscription)
	}
	if timeout <= 0 {
		return call(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- call(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", domain.ErrInvocationTimeout, timeout)
		}
		return ctx.Err()
	}
}

// remember keeps the trace as the last one of its signal name.
func (d *Dispatcher) remember(ctx context.Context, tr *domain.Trace, logger *slog.Logger) {
	d.lastMu.Lock()
	d.last[tr.Signal] = tr
	d.lastMu.Unlock()

	if d.traces != nil {
		if err := d.traces.SaveTrace(ctx, tr); err != nil {
			logger.Warn("failed to persist trace", "err", err)
		}
	}
}

// LastTrace returns the trace of the most recent throw of a signal name.
func (d *Dispatcher) LastTrace(ctx context.Context, signal string) (*domain.Trace, error) {
	d.lastMu.RLock()
	tr, ok := d.last[signal]
	d.lastMu.RUnlock()
	if ok {
		return tr, nil
	}
	if d.traces != nil {
		return d.traces.LoadTrace(ctx, signal)
	}
	return nil, domain.ErrTraceNotFound
}
