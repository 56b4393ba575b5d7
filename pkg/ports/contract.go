package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/aware/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSubscriptionStoreContract runs a suite of tests to verify that a SubscriptionStore
// implementation adheres to the defined interface contract.
func RunSubscriptionStoreContract(t *testing.T, store SubscriptionStore) {
	ctx := context.Background()
	signal := "contract:" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		subs := []domain.Subscription{
			{Signal: signal, Subscriber: "e1", Action: "cmd", Params: domain.Params{"cmd": "look", "n": float64(2)}, Seq: 1},
			{Signal: signal, Subscriber: "e2", Callback: "wake", Params: domain.Params{}, Seq: 2},
		}

		err := store.Save(ctx, signal, subs)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, signal)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded, 2)
		assert.Equal(t, domain.EntityID("e1"), loaded[0].Subscriber, "order must be preserved")
		assert.True(t, subs[0].Same(loaded[0]), "record must round-trip by value")
		assert.Equal(t, uint64(2), loaded[1].Seq)
		assert.Equal(t, "wake", loaded[1].Callback)
	})

	t.Run("Save replaces", func(t *testing.T) {
		err := store.Save(ctx, signal, []domain.Subscription{{Signal: signal, Subscriber: "e3", Action: "cmd", Seq: 3}})
		require.NoError(t, err)

		loaded, err := store.Load(ctx, signal)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, domain.EntityID("e3"), loaded[0].Subscriber)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing:"+signal)
		assert.ErrorIs(t, err, domain.ErrSignalNotFound)
	})

	t.Run("List", func(t *testing.T) {
		other := signal + ":child"
		require.NoError(t, store.Save(ctx, other, []domain.Subscription{{Signal: other, Subscriber: "e1", Action: "cmd"}}))
		defer func() { _ = store.Delete(ctx, other) }()

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, signal)
		assert.Contains(t, names, other)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Delete(ctx, signal)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, signal)
		assert.ErrorIs(t, err, domain.ErrSignalNotFound, "Load after Delete should return ErrSignalNotFound")

		assert.NoError(t, store.Delete(ctx, signal), "Delete of a missing name is not an error")
	})
}

// RunTraceStoreContract verifies a TraceStore implementation.
func RunTraceStoreContract(t *testing.T, store TraceStore) {
	ctx := context.Background()

	t.Run("Save and Load last trace", func(t *testing.T) {
		first := &domain.Trace{ID: "01", Signal: "alarm", Source: "e0", Local: true, Propagation: 1}
		second := &domain.Trace{ID: "02", Signal: "alarm", Source: "e0", Steps: []domain.Step{{Kind: domain.StepFailure, Subscriber: "e2", Error: "boom"}}}

		require.NoError(t, store.SaveTrace(ctx, first))
		require.NoError(t, store.SaveTrace(ctx, second))

		loaded, err := store.LoadTrace(ctx, "alarm")
		require.NoError(t, err)
		assert.Equal(t, "02", loaded.ID)
		require.Len(t, loaded.Steps, 1)
		assert.Equal(t, "boom", loaded.Steps[0].Error)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.LoadTrace(ctx, "never-thrown")
		assert.ErrorIs(t, err, domain.ErrTraceNotFound)
	})
}
