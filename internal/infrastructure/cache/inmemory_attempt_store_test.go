package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dvd/backend/internal/domain/qrlogin"
)

func newAttempt(t *testing.T, token string) *qrlogin.LoginAttempt {
	t.Helper()
	a, err := qrlogin.NewLoginAttempt(token, qrlogin.KindDoudian, time.Minute, time.Now())
	require.NoError(t, err)
	return a
}

func TestInMemoryAttemptStore(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := NewInMemoryAttemptStore(5 * time.Millisecond)
	defer store.Close()
	ctx := context.Background()

	t.Run("get returns a copy", func(t *testing.T) {
		a := newAttempt(t, "tok-1")
		a.Stores = []string{"shop"}
		require.NoError(t, store.Save(ctx, a, time.Minute))

		got, err := store.Get(ctx, "tok-1")
		require.NoError(t, err)
		assert.Equal(t, a.Token, got.Token)
		assert.Equal(t, qrlogin.AttemptIssued, got.State)

		got.Stores[0] = "changed"
		again, err := store.Get(ctx, "tok-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"shop"}, again.Stores)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := store.Get(ctx, "nope")
		assert.ErrorIs(t, err, qrlogin.ErrAttemptNotFound)
	})

	t.Run("expired entries are hidden and swept", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newAttempt(t, "tok-2"), time.Millisecond))
		time.Sleep(2 * time.Millisecond)

		_, err := store.Get(ctx, "tok-2")
		assert.ErrorIs(t, err, qrlogin.ErrAttemptNotFound)
		assert.Eventually(t, func() bool {
			_, err := store.Get(ctx, "tok-1")
			return err == nil && store.Len() == 1
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "tok-1"))
		_, err := store.Get(ctx, "tok-1")
		assert.ErrorIs(t, err, qrlogin.ErrAttemptNotFound)
	})
}
