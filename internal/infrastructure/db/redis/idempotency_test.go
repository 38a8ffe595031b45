package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yadev/crm-system/internal/core/ports"
)

func newTestIdempotencyStore(t *testing.T, ttl time.Duration) (*IdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewIdempotencyStore(client, ttl), mr
}

func TestIdempotencyStore_ReserveThenComplete(t *testing.T) {
	store, mr := newTestIdempotencyStore(t, time.Hour)
	ctx := context.Background()

	rec, reserved, err := store.Reserve(ctx, "customer:autre2", "k1", "fp")
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.True(t, rec.Pending())
	assert.Equal(t, pendingTTL, mr.TTL("idem:customer:autre2:k1"))

	require.NoError(t, store.Complete(ctx, "customer:autre2", "k1", "fp", 42))

	rec, reserved, err = store.Reserve(ctx, "customer:autre2", "k1", "fp")
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, ports.IdempotencyRecord{Fingerprint: "fp", ID: 42}, rec)

	got, err := mr.Get("idem:customer:autre2:k1")
	require.NoError(t, err)
	assert.Equal(t, "fp:42", got)
	assert.Equal(t, time.Hour, mr.TTL("idem:customer:autre2:k1"))
}

func TestIdempotencyStore_SecondReserveSeesPending(t *testing.T) {
	store, _ := newTestIdempotencyStore(t, time.Hour)
	ctx := context.Background()

	_, reserved, err := store.Reserve(ctx, "order:bob", "k", "fp-a")
	require.NoError(t, err)
	require.True(t, reserved)

	rec, reserved, err := store.Reserve(ctx, "order:bob", "k", "fp-b")
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.True(t, rec.Pending())
	assert.Equal(t, "fp-a", rec.Fingerprint)
}

func TestIdempotencyStore_ConcurrentReserveHasOneWinner(t *testing.T) {
	store, _ := newTestIdempotencyStore(t, time.Hour)
	ctx := context.Background()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, reserved, err := store.Reserve(ctx, "customer:root", "same", "fp")
			if err == nil && reserved {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, wins.Load())
}

func TestIdempotencyStore_ReleaseFreesKey(t *testing.T) {
	store, mr := newTestIdempotencyStore(t, time.Hour)
	ctx := context.Background()

	_, _, err := store.Reserve(ctx, "user:root", "k", "fp")
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "user:root", "k"))
	assert.False(t, mr.Exists("idem:user:root:k"))

	_, reserved, err := store.Reserve(ctx, "user:root", "k", "fp")
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestIdempotencyStore_ScopesAreIsolated(t *testing.T) {
	store, _ := newTestIdempotencyStore(t, time.Hour)
	ctx := context.Background()

	_, _, err := store.Reserve(ctx, "order:bob", "k", "fp")
	require.NoError(t, err)

	_, reserved, err := store.Reserve(ctx, "order:alice", "k", "fp")
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestIdempotencyStore_Expires(t *testing.T) {
	store, mr := newTestIdempotencyStore(t, time.Minute)
	ctx := context.Background()

	_, _, err := store.Reserve(ctx, "user:root", "k", "fp")
	require.NoError(t, err)
	require.NoError(t, store.Complete(ctx, "user:root", "k", "fp", 9))
	mr.FastForward(2 * time.Minute)

	_, reserved, err := store.Reserve(ctx, "user:root", "k", "fp")
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestIdempotencyStore_CorruptValue(t *testing.T) {
	store, mr := newTestIdempotencyStore(t, time.Minute)
	require.NoError(t, mr.Set("idem:user:root:k", "garbage"))

	_, _, err := store.Reserve(context.Background(), "user:root", "k", "fp")
	assert.Error(t, err)
}

func TestIdempotencyStore_Unavailable(t *testing.T) {
	store, mr := newTestIdempotencyStore(t, time.Minute)
	mr.Close()

	_, _, err := store.Reserve(context.Background(), "user:root", "k", "fp")
	assert.Error(t, err)
	assert.Error(t, store.Ping(context.Background()))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	addr := mr.Addr()
	client, err := Connect(context.Background(), Config{Addr: addr})
	require.NoError(t, err)
	_ = client.Close()

	mr.Close()
	_, err = Connect(context.Background(), Config{Addr: addr, Timeout: 200 * time.Millisecond})
	assert.Error(t, err)
}
