package bucket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_BoundaryDenial(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryStore().WithClock(func() time.Time { return now })

	// 5 requests pass within the window.
	for i := range 5 {
		result, err := store.TryConsume(ctx, "form:contact:ip-1", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should pass", i+1)
		assert.Equal(t, 4-i, result.Remaining)
	}

	// The 6th is denied with a positive retry-after.
	result, err := store.TryConsume(ctx, "form:contact:ip-1", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)
	assert.Greater(t, result.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, result.RetryAfter, time.Minute)
}

func TestInMemoryStore_WindowRollover(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryStore().WithClock(func() time.Time { return now })

	for range 5 {
		_, err := store.TryConsume(ctx, "k", 5, time.Minute)
		require.NoError(t, err)
	}
	denied, err := store.TryConsume(ctx, "k", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, denied.Allowed)

	// After the window elapses the counter resets.
	now = now.Add(time.Minute + time.Second)
	result, err := store.TryConsume(ctx, "k", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 4, result.Remaining)
}

func TestInMemoryStore_PeekDoesNotConsume(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	for range 3 {
		result, err := store.Peek(ctx, "k", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 5, result.Remaining)
	}

	_, err := store.TryConsume(ctx, "k", 5, time.Minute)
	require.NoError(t, err)

	result, err := store.Peek(ctx, "k", 5, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Remaining)
}

func TestInMemoryStore_IdentifiersIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	for range 5 {
		_, err := store.TryConsume(ctx, "form:a", 5, time.Minute)
		require.NoError(t, err)
	}
	denied, err := store.TryConsume(ctx, "form:a", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, denied.Allowed)

	other, err := store.TryConsume(ctx, "form:b", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestInMemoryStore_ConcurrentConsume(t *testing.T) {
	// With 10 slots and 50 concurrent requests, exactly 10 may pass.
	ctx := context.Background()
	store := NewInMemoryStore()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := store.TryConsume(ctx, "k", 10, time.Minute)
			require.NoError(t, err)
			if result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
}

func TestInMemoryStore_Reset(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	for range 5 {
		_, err := store.TryConsume(ctx, "k", 5, time.Minute)
		require.NoError(t, err)
	}
	require.NoError(t, store.Reset(ctx, "k"))

	result, err := store.TryConsume(ctx, "k", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}
