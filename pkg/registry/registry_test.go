package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func delivery(sub domain.Subscription) *registry.DispatchContext {
	return &registry.DispatchContext{
		Delivery: domain.Delivery{Subscription: sub, Signal: "alarm:fire", Params: domain.Params{"loud": true}, Distance: 2},
	}
}

func TestRegistry_InvokeAction(t *testing.T) {
	reg := registry.NewRegistry()

	var gotSignal string
	var gotParams domain.Params
	reg.Register("shout", func(ctx context.Context, subscriber domain.EntityID, signal string, dc *registry.DispatchContext, params domain.Params) (bool, error) {
		gotSignal = signal
		gotParams = params
		return true, nil
	})

	err := reg.Invoke(context.Background(), delivery(domain.Subscription{Subscriber: "e1", Action: "shout", Params: domain.Params{"cmd": "run"}}))
	require.NoError(t, err)
	assert.Equal(t, "alarm:fire", gotSignal)
	assert.Equal(t, domain.Params{"cmd": "run", "loud": true}, gotParams)
}

func TestRegistry_InvokeCallback(t *testing.T) {
	reg := registry.NewRegistry()

	var got domain.Delivery
	reg.RegisterCallback("wake", func(ctx context.Context, d domain.Delivery) error {
		got = d
		return nil
	})

	err := reg.Invoke(context.Background(), delivery(domain.Subscription{Subscriber: "e1", Callback: "wake"}))
	require.NoError(t, err)
	assert.Equal(t, 2, got.Distance)
	assert.Equal(t, domain.EntityID("e1"), got.Subscription.Subscriber)
}

func TestRegistry_Failures(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register("lazy", func(ctx context.Context, subscriber domain.EntityID, signal string, dc *registry.DispatchContext, params domain.Params) (bool, error) {
		return false, nil
	})
	boom := errors.New("boom")
	reg.Register("broken", func(ctx context.Context, subscriber domain.EntityID, signal string, dc *registry.DispatchContext, params domain.Params) (bool, error) {
		return false, boom
	})

	ctx := context.Background()
	assert.ErrorIs(t, reg.Invoke(ctx, delivery(domain.Subscription{Action: "missing"})), domain.ErrUnknownAction)
	assert.ErrorIs(t, reg.Invoke(ctx, delivery(domain.Subscription{Callback: "missing"})), domain.ErrUnknownCallback)
	assert.ErrorIs(t, reg.Invoke(ctx, delivery(domain.Subscription{Action: "lazy"})), domain.ErrActionDeclined)
	assert.ErrorIs(t, reg.Invoke(ctx, delivery(domain.Subscription{Action: "broken"})), boom)
}

func TestRegistry_LateRegistration(t *testing.T) {
	reg := registry.NewRegistry()
	dc := delivery(domain.Subscription{Action: "later"})

	assert.ErrorIs(t, reg.Invoke(context.Background(), dc), domain.ErrUnknownAction)

	reg.Register("later", func(ctx context.Context, subscriber domain.EntityID, signal string, dc *registry.DispatchContext, params domain.Params) (bool, error) {
		return true, nil
	})
	assert.NoError(t, reg.Invoke(context.Background(), dc))
	assert.Equal(t, []string{"later"}, reg.Actions())
}
