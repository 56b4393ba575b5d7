package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/aware/pkg/domain"
)

// Combine returns hooks that call every non-nil hook of each set, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnThrow: func(ctx context.Context, e *domain.ThrowEvent) {
			for _, s := range sets {
				if s.OnThrow != nil {
					s.OnThrow(ctx, e)
				}
			}
		},
		OnDeliver: func(ctx context.Context, e *domain.DeliveryEvent) {
			for _, s := range sets {
				if s.OnDeliver != nil {
					s.OnDeliver(ctx, e)
				}
			}
		},
		OnFailure: func(ctx context.Context, e *domain.DeliveryEvent) {
			for _, s := range sets {
				if s.OnFailure != nil {
					s.OnFailure(ctx, e)
				}
			}
		},
		OnComplete: func(ctx context.Context, e *domain.ThrowEvent) {
			for _, s := range sets {
				if s.OnComplete != nil {
					s.OnComplete(ctx, e)
				}
			}
		},
	}
}

// LogHooks logs every lifecycle event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnThrow: func(ctx context.Context, e *domain.ThrowEvent) {
			logger.InfoContext(ctx, "signal_thrown",
				"signal", e.Signal,
				"source", e.Source,
				"local", e.Local,
				"trace_id", e.TraceID,
			)
		},
		OnDeliver: func(ctx context.Context, e *domain.DeliveryEvent) {
			logger.DebugContext(ctx, "signal_delivered",
				"signal", e.Signal,
				"subscriber", e.Subscriber,
				"handler", e.Handler,
				"distance", e.Distance,
				"duration", e.Duration,
			)
		},
		OnFailure: func(ctx context.Context, e *domain.DeliveryEvent) {
			logger.WarnContext(ctx, "delivery_failed",
				"signal", e.Signal,
				"subscriber", e.Subscriber,
				"handler", e.Handler,
				"err", e.Err,
			)
		},
		OnComplete: func(ctx context.Context, e *domain.ThrowEvent) {
			logger.InfoContext(ctx, "throw_complete",
				"signal", e.Signal,
				"notified", e.Notified,
				"failures", e.Failures,
				"stopped", e.Stopped,
				"duration", e.Duration,
				"trace_id", e.TraceID,
			)
		},
	}
}
