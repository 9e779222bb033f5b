package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestInMemoryIdempotencyStore_Claim(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("claims new key", func(t *testing.T) {
		ok, err := store.Claim(ctx, "ticket:doudian:a", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok, "new key should be claimed")
	})

	t.Run("second claim is refused", func(t *testing.T) {
		ok, err := store.Claim(ctx, "ticket:doudian:b", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Claim(ctx, "ticket:doudian:b", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok, "held key should not be claimed twice")
	})

	t.Run("allows claiming again after expiration", func(t *testing.T) {
		ok, err := store.Claim(ctx, "ticket:doudian:c", 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, ok)

		time.Sleep(20 * time.Millisecond)

		ok, err = store.Claim(ctx, "ticket:doudian:c", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok, "expired key should be claimable")
	})

	t.Run("release frees the key", func(t *testing.T) {
		_, err := store.Claim(ctx, "persist:tok", time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Release(ctx, "persist:tok"))

		held, err := store.IsClaimed(ctx, "persist:tok")
		require.NoError(t, err)
		assert.False(t, held)

		ok, err := store.Claim(ctx, "persist:tok", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestInMemoryIdempotencyStore_ConcurrentClaim(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Claim(context.Background(), "same", time.Hour)
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := newInMemoryIdempotencyStore(5 * time.Millisecond)
	defer store.Close()

	_, err := store.Claim(context.Background(), "short", time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return store.Size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestInMemoryIdempotencyStore_CloseStopsCleanup(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := newInMemoryIdempotencyStore(time.Millisecond)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
