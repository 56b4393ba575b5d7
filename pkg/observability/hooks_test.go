package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/observability"
	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnThrow: func(ctx context.Context, e *domain.ThrowEvent) { calls = append(calls, "a:throw") },
	}
	b := domain.LifecycleHooks{
		OnThrow:    func(ctx context.Context, e *domain.ThrowEvent) { calls = append(calls, "b:throw") },
		OnComplete: func(ctx context.Context, e *domain.ThrowEvent) { calls = append(calls, "b:complete") },
	}

	hooks := observability.Combine(a, b)
	hooks.OnThrow(context.Background(), &domain.ThrowEvent{})
	hooks.OnDeliver(context.Background(), &domain.DeliveryEvent{})
	hooks.OnComplete(context.Background(), &domain.ThrowEvent{})

	assert.Equal(t, []string{"a:throw", "b:throw", "b:complete"}, calls)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LogHooks(logger)

	hooks.OnFailure(context.Background(), &domain.DeliveryEvent{
		Signal:     "alarm",
		Subscriber: "e2",
		Handler:    "move",
		Err:        errors.New("ambiguous"),
	})

	out := buf.String()
	assert.Contains(t, out, "delivery_failed")
	assert.Contains(t, out, "subscriber=e2")
	assert.Contains(t, out, "err=ambiguous")
}
