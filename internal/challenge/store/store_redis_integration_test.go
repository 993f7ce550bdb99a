//go:build integration

package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bastion/internal/challenge"
	"bastion/pkg/platform/sentinel"
	"bastion/pkg/testutil/containers"
)

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	rc := containers.NewRedisContainer(t)
	require.NoError(t, rc.FlushAll(context.Background()))
	return NewRedisStore(rc.Client)
}

func redisChallenge(id string) *challenge.Challenge {
	return &challenge.Challenge{
		ID:         id,
		Seed:       "f00d",
		Difficulty: 18,
		IssuedAt:   time.Now(),
		ExpiresAt:  time.Now().Add(5 * time.Minute),
	}
}

func TestRedisStore_SaveTake(t *testing.T) {
	rc := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, rc.Save(ctx, redisChallenge("ch-1")))

	got, err := rc.Take(ctx, "ch-1")
	require.NoError(t, err)
	assert.Equal(t, "f00d", got.Seed)
	assert.Equal(t, 18, got.Difficulty)

	_, err = rc.Take(ctx, "ch-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRedisStore_TakeUnknown(t *testing.T) {
	rc := newRedisStore(t)

	_, err := rc.Take(context.Background(), "ghost")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRedisStore_ExpiredChallengeIsGone(t *testing.T) {
	rc := newRedisStore(t)
	ctx := context.Background()

	ch := redisChallenge("ch-ttl")
	ch.ExpiresAt = time.Now().Add(time.Second)
	require.NoError(t, rc.Save(ctx, ch))

	time.Sleep(1500 * time.Millisecond)

	_, err := rc.Take(ctx, "ch-ttl")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

// GETDEL makes Take atomic: under contention exactly one caller wins.
func TestRedisStore_ConcurrentTake(t *testing.T) {
	rc := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, rc.Save(ctx, redisChallenge("ch-race")))

	const workers = 16
	var wins atomic.Int32
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := rc.Take(ctx, "ch-race"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
