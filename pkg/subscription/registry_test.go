package subscription_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/aware/pkg/adapters/memory"
	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/ports"
	"github.com/aretw0/aware/pkg/subscription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sub(signal string, entity domain.EntityID, params domain.Params) domain.Subscription {
	return domain.Subscription{Signal: signal, Subscriber: entity, Params: params}
}

func TestRegistry_SubscribeRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	reg := subscription.NewRegistry()

	stored, err := reg.Subscribe(ctx, sub("alarm", "e1", domain.Params{"cmd": "look"}))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAction, stored.Action)
	assert.NotZero(t, stored.Seq)

	_, err = reg.Subscribe(ctx, sub("alarm", "e1", domain.Params{"cmd": "look"}))
	assert.ErrorIs(t, err, domain.ErrDuplicateSubscription)
	assert.Equal(t, 1, reg.Count(), "failed subscribe must not mutate state")

	// Same subscriber, different parameters: a distinct record.
	_, err = reg.Subscribe(ctx, sub("alarm", "e1", domain.Params{"cmd": "flee"}))
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Count())
}

func TestRegistry_UnsubscribeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	reg := subscription.NewRegistry()

	_, err := reg.Subscribe(ctx, sub("alarm", "e1", nil))
	require.NoError(t, err)

	removed, err := reg.Unsubscribe(ctx, sub("alarm", "e1", nil))
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = reg.Unsubscribe(ctx, sub("alarm", "e1", nil))
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = reg.Unsubscribe(ctx, sub("never", "e9", nil))
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRegistry_LookupIsLiteralAndOrdered(t *testing.T) {
	ctx := context.Background()
	reg := subscription.NewRegistry()

	for _, e := range []domain.EntityID{"e3", "e1", "e2"} {
		_, err := reg.Subscribe(ctx, sub("sound", e, nil))
		require.NoError(t, err)
	}
	_, err := reg.Subscribe(ctx, sub("sound:crying", "e4", nil))
	require.NoError(t, err)

	got := reg.Lookup("sound")
	require.Len(t, got, 3)
	assert.Equal(t, domain.EntityID("e3"), got[0].Subscriber)
	assert.Equal(t, domain.EntityID("e1"), got[1].Subscriber)
	assert.Equal(t, domain.EntityID("e2"), got[2].Subscriber)
	assert.Less(t, got[0].Seq, got[1].Seq)

	assert.Empty(t, reg.Lookup("sound:crying:child"), "no hierarchy expansion in the registry")
	assert.Equal(t, []string{"sound", "sound:crying"}, reg.Signals())
}

func TestRegistry_MarkersFollowLiveRecords(t *testing.T) {
	ctx := context.Background()
	reg := subscription.NewRegistry()

	_, err := reg.Subscribe(ctx, sub("alarm", "e1", domain.Params{"cmd": "look"}))
	require.NoError(t, err)
	_, err = reg.Subscribe(ctx, sub("alarm", "e1", domain.Params{"cmd": "flee"}))
	require.NoError(t, err)
	_, err = reg.Subscribe(ctx, sub("sound", "e1", nil))
	require.NoError(t, err)

	assert.Equal(t, []string{"alarm", "sound"}, reg.SubscriptionsOf("e1"))

	_, err = reg.Unsubscribe(ctx, sub("alarm", "e1", domain.Params{"cmd": "look"}))
	require.NoError(t, err)
	assert.True(t, reg.Marked("e1", "alarm"), "marker stays while another alarm record is live")

	_, err = reg.Unsubscribe(ctx, sub("alarm", "e1", domain.Params{"cmd": "flee"}))
	require.NoError(t, err)
	assert.False(t, reg.Marked("e1", "alarm"))
	assert.Equal(t, []string{"sound"}, reg.SubscriptionsOf("e1"))
}

func TestRegistry_InvalidArguments(t *testing.T) {
	ctx := context.Background()
	reg := subscription.NewRegistry()

	_, err := reg.Subscribe(ctx, sub("", "e1", nil))
	assert.ErrorIs(t, err, domain.ErrInvalidSignalName)

	_, err = reg.Subscribe(ctx, domain.Subscription{Signal: "alarm", Subscriber: "e1", Action: "cmd", Callback: "wake"})
	assert.ErrorIs(t, err, domain.ErrInvalidSubscription)

	_, err = reg.Unsubscribe(ctx, sub("a::b", "e1", nil))
	assert.ErrorIs(t, err, domain.ErrInvalidSignalName)
}

// failingStore refuses every write.
type failingStore struct {
	*memory.Store
}

func (f failingStore) Save(ctx context.Context, signal string, subs []domain.Subscription) error {
	return errors.New("disk full")
}

func TestRegistry_PersistFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	reg := subscription.NewRegistry(subscription.WithStore(failingStore{memory.NewStore()}))

	_, err := reg.Subscribe(ctx, sub("alarm", "e1", nil))
	assert.Error(t, err)
	assert.Zero(t, reg.Count())
	assert.Empty(t, reg.SubscriptionsOf("e1"))
}

func TestRegistry_RestoreFromStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	first := subscription.NewRegistry(subscription.WithStore(store))
	_, err := first.Subscribe(ctx, sub("alarm", "e1", domain.Params{"n": 1}))
	require.NoError(t, err)
	last, err := first.Subscribe(ctx, sub("alarm", "e2", nil))
	require.NoError(t, err)
	_, err = first.Subscribe(ctx, sub("sound", "e3", nil))
	require.NoError(t, err)
	_, err = first.Unsubscribe(ctx, sub("sound", "e3", nil))
	require.NoError(t, err)

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alarm"}, names, "emptied sequences are deleted from the store")

	second := subscription.NewRegistry(subscription.WithStore(store))
	require.NoError(t, second.Restore(ctx))
	assert.Equal(t, 2, second.Count())
	assert.True(t, second.Marked("e1", "alarm"))

	// Int parameters still match after the JSON-canonical round-trip.
	_, err = second.Subscribe(ctx, sub("alarm", "e1", domain.Params{"n": 1}))
	assert.ErrorIs(t, err, domain.ErrDuplicateSubscription)

	next, err := second.Subscribe(ctx, sub("alarm", "e4", nil))
	require.NoError(t, err)
	assert.Greater(t, next.Seq, last.Seq, "sequence numbers continue after restore")
}

func TestRegistry_ConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	reg := subscription.NewRegistry(subscription.WithStore(memory.NewStore()))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			signal := fmt.Sprintf("sig:%d", i%4)
			entity := domain.EntityID(fmt.Sprintf("e%d", i))
			_, err := reg.Subscribe(ctx, sub(signal, entity, nil))
			assert.NoError(t, err)
			// Readers race with writers and must see whole sequences.
			for _, s := range reg.Lookup(signal) {
				assert.Equal(t, signal, s.Signal)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, reg.Count())
	for i := 0; i < 4; i++ {
		assert.Len(t, reg.Lookup(fmt.Sprintf("sig:%d", i)), 5)
	}
}

// countingLocker records lock keys.
type countingLocker struct {
	mu   sync.Mutex
	keys []string
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return func(context.Context) error { return nil }, nil
}

func TestRegistry_DistributedLockReadsThroughStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	locker := &countingLocker{}

	a := subscription.NewRegistry(subscription.WithStore(store), subscription.WithLocker(locker))
	b := subscription.NewRegistry(subscription.WithStore(store), subscription.WithLocker(locker))

	_, err := a.Subscribe(ctx, sub("alarm", "e1", nil))
	require.NoError(t, err)

	// b never saw the record in memory, but the store is the source of truth under the lock.
	_, err = b.Subscribe(ctx, sub("alarm", "e1", nil))
	assert.ErrorIs(t, err, domain.ErrDuplicateSubscription)

	assert.Equal(t, []string{"signal:alarm", "signal:alarm"}, locker.keys)
}
