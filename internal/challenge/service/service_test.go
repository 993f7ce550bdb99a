package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bastion/internal/audit"
	"bastion/internal/challenge"
	"bastion/internal/challenge/store"
	"bastion/internal/platform/metrics"
	dErrors "bastion/pkg/domain-errors"
)

// testDifficulty keeps solve loops in tests to a handful of hash calls.
const testDifficulty = 4

func newTestService(t *testing.T, opts ...Option) (*Service, *store.InMemoryStore, *metrics.Metrics) {
	t.Helper()

	st := store.NewInMemoryStore()
	issuer, err := challenge.NewTokenIssuer("test-signing-key-with-enough-entropy", "bastion", 5*time.Minute)
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())
	base := []Option{
		WithDifficulty(testDifficulty, 8),
		WithMetrics(m),
	}
	svc, err := New(st, issuer, append(base, opts...)...)
	require.NoError(t, err)
	return svc, st, m
}

func solve(t *testing.T, ch *challenge.Challenge) *challenge.Solution {
	t.Helper()
	sol, err := challenge.Solve(context.Background(), ch, challenge.SolveOptions{})
	require.NoError(t, err)
	return sol
}

func TestService_GenerateDefaultsAndClamps(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	ch, err := svc.Generate(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, testDifficulty, ch.Difficulty)
	assert.NotEmpty(t, ch.ID)
	assert.Len(t, ch.Seed, 32) // 16 random bytes, hex encoded

	clamped, err := svc.Generate(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 8, clamped.Difficulty)
	assert.NotEqual(t, ch.Seed, clamped.Seed)
}

func TestService_VerifyHappyPath(t *testing.T) {
	svc, _, m := newTestService(t)
	ctx := context.Background()

	ch, err := svc.Generate(ctx, 0)
	require.NoError(t, err)

	sol := solve(t, ch)
	sol.ElapsedMs = 1500

	token, err := svc.Verify(ctx, sol, "payments")
	require.NoError(t, err)
	assert.Equal(t, "payments", token.Scope)
	require.NoError(t, svc.ValidateToken(token.Token, "payments"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChallengesVerified))
	assert.Equal(t, 1500.0, testutil.ToFloat64(m.PowSolveTime))
}

func TestService_VerifyIsSingleUse(t *testing.T) {
	svc, _, m := newTestService(t)
	ctx := context.Background()

	ch, err := svc.Generate(ctx, 0)
	require.NoError(t, err)
	sol := solve(t, ch)

	_, err = svc.Verify(ctx, sol, "payments")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, sol, "payments")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeChallengeInvalid))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChallengesRejected))
}

func TestService_VerifyForgedNonce(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	ch, err := svc.Generate(ctx, 0)
	require.NoError(t, err)

	sol := solve(t, ch)
	forged := &challenge.Solution{ChallengeID: ch.ID, Nonce: sol.Nonce + 1_000_000}
	if challenge.MeetsDifficulty(challenge.HashNonce(ch.Seed, forged.Nonce), ch.Difficulty) {
		t.Skip("forged nonce happens to satisfy the puzzle")
	}

	_, err = svc.Verify(ctx, forged, "payments")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeChallengeInvalid))

	// A wrong guess still consumes the challenge.
	assert.Equal(t, 0, st.Len())
}

func TestService_VerifyUnknownChallenge(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Verify(context.Background(), &challenge.Solution{ChallengeID: "ghost", Nonce: 1}, "payments")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeChallengeInvalid))
}

func TestService_VerifyExpiredChallenge(t *testing.T) {
	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	current := base
	svc, _, m := newTestService(t, WithClock(func() time.Time { return current }), WithTTL(5*time.Minute))
	ctx := context.Background()

	ch, err := svc.Generate(ctx, 0)
	require.NoError(t, err)
	sol := solve(t, ch)

	current = base.Add(6 * time.Minute)
	_, err = svc.Verify(ctx, sol, "payments")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeChallengeExpired))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChallengesRejected))
}

func TestService_AuditsLifecycle(t *testing.T) {
	auditStore := audit.NewInMemoryStore()
	pub := audit.NewPublisher(auditStore)
	svc, _, _ := newTestService(t, WithAudit(pub))
	ctx := context.Background()

	ch, err := svc.Generate(ctx, 0)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, solve(t, ch), "payments")
	require.NoError(t, err)

	entries, err := auditStore.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionChallengeVerified, entries[0].Action)
	assert.Equal(t, audit.ActionChallengeIssued, entries[1].Action)
}

func TestNew_Validation(t *testing.T) {
	issuer, err := challenge.NewTokenIssuer("test-signing-key-with-enough-entropy", "bastion", time.Minute)
	require.NoError(t, err)

	_, err = New(nil, issuer)
	assert.Error(t, err)

	_, err = New(store.NewInMemoryStore(), nil)
	assert.Error(t, err)

	_, err = New(store.NewInMemoryStore(), issuer, WithDifficulty(10, 5))
	assert.Error(t, err)
}
