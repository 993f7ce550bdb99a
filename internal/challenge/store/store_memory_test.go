package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bastion/internal/challenge"
	"bastion/pkg/platform/sentinel"
)

func testChallenge(id string, now time.Time) *challenge.Challenge {
	return &challenge.Challenge{
		ID:         id,
		Seed:       "seed-" + id,
		Difficulty: 18,
		IssuedAt:   now,
		ExpiresAt:  now.Add(5 * time.Minute),
	}
}

func TestInMemoryStore_SaveAndTake(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Save(ctx, testChallenge("ch-1", now)))

	got, err := s.Take(ctx, "ch-1")
	require.NoError(t, err)
	assert.Equal(t, "seed-ch-1", got.Seed)
	assert.Equal(t, 18, got.Difficulty)
}

func TestInMemoryStore_TakeIsSingleUse(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testChallenge("ch-1", time.Now())))

	_, err := s.Take(ctx, "ch-1")
	require.NoError(t, err)

	_, err = s.Take(ctx, "ch-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_TakeUnknown(t *testing.T) {
	s := NewInMemoryStore()

	_, err := s.Take(context.Background(), "nope")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_SweepsExpiredOnSave(t *testing.T) {
	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	current := base
	s := NewInMemoryStore().WithClock(func() time.Time { return current })
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testChallenge("old", base)))
	assert.Equal(t, 1, s.Len())

	current = base.Add(10 * time.Minute)
	require.NoError(t, s.Save(ctx, testChallenge("fresh", current)))

	assert.Equal(t, 1, s.Len())
	_, err := s.Take(ctx, "old")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_TakeReturnsCopy(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	original := testChallenge("ch-1", time.Now())

	require.NoError(t, s.Save(ctx, original))
	original.Seed = "mutated"

	got, err := s.Take(ctx, "ch-1")
	require.NoError(t, err)
	assert.Equal(t, "seed-ch-1", got.Seed)
}

func TestInMemoryStore_ConcurrentTake(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, testChallenge("ch-1", time.Now())))

	const workers = 32
	var wins int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Take(ctx, "ch-1"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins, "exactly one claimant may consume a challenge")
}
