package challenge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "bastion/pkg/domain-errors"
)

func TestMeetsDifficulty_BitBoundaries(t *testing.T) {
	digest := [32]byte{0x00, 0x1F} // 8 + 3 = 11 leading zero bits

	assert.True(t, MeetsDifficulty(digest, 0))
	assert.True(t, MeetsDifficulty(digest, 8))
	assert.True(t, MeetsDifficulty(digest, 11))
	assert.False(t, MeetsDifficulty(digest, 12))

	var zeros [32]byte
	assert.True(t, MeetsDifficulty(zeros, 256))
}

func TestHashNonce_Deterministic(t *testing.T) {
	a := HashNonce("seed-1", 42)
	b := HashNonce("seed-1", 42)
	c := HashNonce("seed-1", 43)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSolve_FindsValidNonce(t *testing.T) {
	ch := &Challenge{ID: "ch-1", Seed: "test-seed", Difficulty: 8}

	sol, err := Solve(context.Background(), ch, SolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ch-1", sol.ChallengeID)
	assert.True(t, MeetsDifficulty(HashNonce(ch.Seed, sol.Nonce), ch.Difficulty))
}

func TestSolve_AttemptLimit(t *testing.T) {
	// Difficulty 240 cannot be met within one attempt.
	ch := &Challenge{Seed: "test-seed", Difficulty: 240}

	_, err := Solve(context.Background(), ch, SolveOptions{MaxAttempts: 1})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeChallengeInvalid))
}

func TestSolve_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := &Challenge{Seed: "test-seed", Difficulty: 240}
	_, err := Solve(ctx, ch, SolveOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSolve_ReportsProgress(t *testing.T) {
	var reported uint64
	ch := &Challenge{Seed: "test-seed", Difficulty: 240}

	ctx, cancel := context.WithCancel(context.Background())
	_, err := Solve(ctx, ch, SolveOptions{Progress: func(attempts uint64) {
		reported = attempts
		cancel()
	}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(solveChunk), reported)
}

func TestChallenge_Expired(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	ch := &Challenge{ExpiresAt: now.Add(5 * time.Minute)}

	assert.False(t, ch.Expired(now))
	assert.False(t, ch.Expired(now.Add(5*time.Minute)))
	assert.True(t, ch.Expired(now.Add(5*time.Minute+time.Second)))
}
