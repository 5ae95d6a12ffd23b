package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLocker(client, "atendo:"), mr
}

func TestLockerAcquireAndRelease(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "wa:111", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("atendo:lock:wa:111"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("atendo:lock:wa:111"))
}

func TestLockerBlocksSecondHolder(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "wa:111", time.Minute)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "wa:111", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))

	unlock2, err := locker.Lock(ctx, "wa:111", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLockerUnlockIsOwnerOnly(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "wa:111", time.Minute)
	require.NoError(t, err)

	// Simulate TTL expiry plus reacquisition by another replica.
	mr.Del("atendo:lock:wa:111")
	require.NoError(t, mr.Set("atendo:lock:wa:111", "other-holder"))

	require.NoError(t, unlock(ctx))
	val, err := mr.Get("atendo:lock:wa:111")
	require.NoError(t, err)
	assert.Equal(t, "other-holder", val, "stale unlock must not delete another holder's lock")
}
