package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/aware/pkg/adapters/redis"
	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, opts ...redis.Option) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return redis.NewFromClient(client, opts...), mr
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := newStore(t)
	ports.RunSubscriptionStoreContract(t, store)
}

func TestRedisStore_TraceContract(t *testing.T) {
	store, _ := newStore(t)
	ports.RunTraceStoreContract(t, store)
}

func TestRedisStore_TraceTTL(t *testing.T) {
	store, mr := newStore(t, redis.WithTraceTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.SaveTrace(ctx, &domain.Trace{ID: "01", Signal: "alarm"}))
	_, err := store.LoadTrace(ctx, "alarm")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = store.LoadTrace(ctx, "alarm")
	assert.ErrorIs(t, err, domain.ErrTraceNotFound)
}

func TestRedisStore_Prefix(t *testing.T) {
	store, mr := newStore(t, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	err := store.Save(ctx, "sound:crying", []domain.Subscription{{Signal: "sound:crying", Subscriber: "e1", Action: "cmd"}})
	require.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:subs:sound:crying"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sound:crying"}, list)
}
