package quota_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backsnap-backend/internal/quota"
)

func TestMemoryStore_ConsumeAndDeny(t *testing.T) {
	store := quota.NewMemoryStore(2)
	userID := uuid.New()
	ctx := context.Background()

	res, err := store.TryConsume(ctx, userID)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)

	res, err = store.TryConsume(ctx, userID)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	res, err = store.TryConsume(ctx, userID)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

// Two browser tabs racing the same identity must never push the count past
// the limit.
func TestMemoryStore_NeverExceedsLimitUnderConcurrency(t *testing.T) {
	const limit = 20
	const callers = 100

	store := quota.NewMemoryStore(limit)
	userID := uuid.New()

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := store.TryConsume(context.Background(), userID)
			if err == nil && res.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(limit), allowed.Load())

	// And the window itself reads exhausted, not oversubscribed.
	status, err := store.Status(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 0, status.Remaining)
}

func TestMemoryStore_WindowRollover(t *testing.T) {
	store := quota.NewMemoryStore(1)
	userID := uuid.New()
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetNowFunc(func() time.Time { return now })

	res, err := store.TryConsume(ctx, userID)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = store.TryConsume(ctx, userID)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	// One second before the window ends: still denied.
	now = now.Add(24*time.Hour - time.Second)
	store.SetNowFunc(func() time.Time { return now })
	res, err = store.TryConsume(ctx, userID)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	// At the window end the counter resets before evaluating.
	now = now.Add(time.Second)
	store.SetNowFunc(func() time.Time { return now })
	res, err = store.TryConsume(ctx, userID)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, now.Add(24*time.Hour), res.ResetAt)
}

func TestMemoryStore_StatusDoesNotConsume(t *testing.T) {
	store := quota.NewMemoryStore(5)
	userID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Status(ctx, userID)
		require.NoError(t, err)
	}

	res, err := store.Status(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Remaining)
}

func TestMemoryStore_IsolatesUsers(t *testing.T) {
	store := quota.NewMemoryStore(1)
	ctx := context.Background()

	first := uuid.New()
	second := uuid.New()

	res, err := store.TryConsume(ctx, first)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = store.TryConsume(ctx, first)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	res, err = store.TryConsume(ctx, second)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
