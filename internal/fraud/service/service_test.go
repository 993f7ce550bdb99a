package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bastion/internal/audit"
	"bastion/internal/fraud"
	"bastion/internal/fraud/store"
	"bastion/internal/platform/config"
	dErrors "bastion/pkg/domain-errors"
)

func testConfig() config.FraudConfig {
	return config.FraudConfig{
		HighAmountThreshold: 1000,
		HighAmountPoints:    30,
		SuspiciousPoints:    50,
		HourlyAttemptLimit:  5,
		HourlyPoints:        40,
		BurstAttemptLimit:   2,
		BurstWindow:         5 * time.Minute,
		BurstPoints:         60,
		RoundAmountPoints:   20,
		BotUserAgentPoints:  25,
		BlockThreshold:      80,
		StepUpThreshold:     60,
		CaptchaThreshold:    40,
		DeclinePenalty:      20,
		CooldownPeriod:      5 * time.Minute,
		VelocityWindow:      time.Hour,
	}
}

type fixture struct {
	svc      *Service
	state    *store.InMemoryStateStore
	auditLog *audit.InMemoryStore
	setClock func(time.Time)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	current := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	attempts := store.NewInMemoryAttemptStore(time.Hour).WithClock(clock)
	state := store.NewInMemoryStateStore().WithClock(clock)
	auditStore := audit.NewInMemoryStore()
	pub := audit.NewPublisher(auditStore)

	svc, err := New(attempts, state, testConfig(),
		WithClock(clock),
		WithAudit(pub),
	)
	require.NoError(t, err)
	return &fixture{
		svc:      svc,
		state:    state,
		auditLog: auditStore,
		setClock: func(at time.Time) { current = at },
	}
}

func cleanAttempt(userID string, amount float64) *fraud.PaymentAttempt {
	return &fraud.PaymentAttempt{
		UserID:        userID,
		Amount:        amount,
		Currency:      "usd",
		PaymentMethod: "card_visa",
		UserAgent:     "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	}
}

func TestScore_CleanAttempt(t *testing.T) {
	f := newFixture(t)

	a, err := f.svc.Score(context.Background(), cleanAttempt("user-1", 149.99))
	require.NoError(t, err)
	assert.Equal(t, 0, a.Score)
	assert.Empty(t, a.Reasons)
	assert.False(t, a.Blocked)
}

func TestScore_IndividualSignals(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*fraud.PaymentAttempt)
		points  int
		reason  string
		blocked bool
	}{
		{
			name:   "high amount",
			mutate: func(a *fraud.PaymentAttempt) { a.Amount = 1200.50 },
			points: 30, reason: ReasonHighAmount,
		},
		{
			name:   "suspicious metadata",
			mutate: func(a *fraud.PaymentAttempt) { a.Metadata = map[string]string{"note": "test payment"} },
			points: 50, reason: ReasonSuspicious,
		},
		{
			name:   "round amount",
			mutate: func(a *fraud.PaymentAttempt) { a.Amount = 500 },
			points: 20, reason: ReasonRoundAmount,
		},
		{
			name:   "bot user agent",
			mutate: func(a *fraud.PaymentAttempt) { a.UserAgent = "Googlebot/2.1 (+http://www.google.com/bot.html)" },
			points: 25, reason: ReasonBotUserAgent,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			attempt := cleanAttempt("user-1", 149.99)
			tc.mutate(attempt)

			a, err := f.svc.Score(context.Background(), attempt)
			require.NoError(t, err)
			assert.Equal(t, tc.points, a.Score)
			assert.Contains(t, a.Reasons, tc.reason)
			assert.Equal(t, tc.blocked, a.Blocked)
		})
	}
}

// Adding a signal must strictly increase the score relative to the same
// attempt without it.
func TestScore_Monotonicity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base, err := f.svc.Score(ctx, cleanAttempt("user-base", 149.99))
	require.NoError(t, err)

	withHigh, err := f.svc.Score(ctx, cleanAttempt("user-high", 1200.50))
	require.NoError(t, err)
	assert.Greater(t, withHigh.Score, base.Score)
}

func TestScore_HighAmountPlusBurstBlocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Two prior attempts in the burst window, then a third at $1200:
	// high amount +30 and burst velocity +60 push the score to 90.
	for range 2 {
		_, err := f.svc.Score(ctx, cleanAttempt("user-1", 149.99))
		require.NoError(t, err)
	}
	a, err := f.svc.Score(ctx, cleanAttempt("user-1", 1200.50))
	require.NoError(t, err)

	assert.Equal(t, 90, a.Score)
	assert.True(t, a.Blocked)
	assert.Contains(t, a.Reasons, ReasonHighAmount)
	assert.Contains(t, a.Reasons, ReasonBurst)

	entries, err := f.auditLog.ListRecent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, audit.ActionFraudBlocked, entries[0].Action)
	assert.ElementsMatch(t, []any{ReasonHighAmount, ReasonBurst}, entries[0].Metadata["reasons"])
}

func TestScore_HourlyVelocity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	// Five attempts spread outside the burst window but inside the hour.
	for i := range 5 {
		f.setClock(base.Add(time.Duration(i) * 10 * time.Minute))
		_, err := f.svc.Score(ctx, cleanAttempt("user-1", 149.99))
		require.NoError(t, err)
	}

	f.setClock(base.Add(50*time.Minute + 6*time.Minute))
	a, err := f.svc.Score(ctx, cleanAttempt("user-1", 149.99))
	require.NoError(t, err)
	assert.Contains(t, a.Reasons, ReasonHighFrequency)
	assert.NotContains(t, a.Reasons, ReasonBurst)
}

func TestScore_AnonymousAttemptsShareABucket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for range 2 {
		_, err := f.svc.Score(ctx, cleanAttempt("", 149.99))
		require.NoError(t, err)
	}
	a, err := f.svc.Score(ctx, cleanAttempt("", 149.99))
	require.NoError(t, err)
	assert.Contains(t, a.Reasons, ReasonBurst)
}

func TestFriction_Tiers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	low, err := f.svc.Friction(ctx, "user-1", 20)
	require.NoError(t, err)
	assert.False(t, low.RequireCaptcha)
	assert.False(t, low.RequireStepUp)

	captcha, err := f.svc.Friction(ctx, "user-1", 45)
	require.NoError(t, err)
	assert.True(t, captcha.RequireCaptcha)
	assert.False(t, captcha.RequireStepUp)

	stepUp, err := f.svc.Friction(ctx, "user-1", 65)
	require.NoError(t, err)
	assert.True(t, stepUp.RequireCaptcha)
	assert.True(t, stepUp.RequireStepUp)
}

func TestFriction_DeclinesEscalate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Two declines add 40 effective points: a score of 25 now demands a
	// step-up instead of passing clean.
	_, err := f.svc.RecordDecline(ctx, "user-1")
	require.NoError(t, err)
	_, err = f.svc.RecordDecline(ctx, "user-1")
	require.NoError(t, err)

	friction, err := f.svc.Friction(ctx, "user-1", 25)
	require.NoError(t, err)
	assert.True(t, friction.RequireCaptcha)
	assert.True(t, friction.RequireStepUp)
	assert.Zero(t, friction.Cooldown)
}

func TestFriction_CooldownAtBlockThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	friction, err := f.svc.Friction(ctx, "user-1", 85)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, friction.Cooldown)

	err = f.svc.CheckCooldown(ctx, "user-1")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeCooldownActive))
	assert.Greater(t, dErrors.RetryAfterOf(err), time.Duration(0))
}

func TestCheckCooldown_ExpiresWithTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Friction(ctx, "user-1", 85)
	require.NoError(t, err)
	require.Error(t, f.svc.CheckCooldown(ctx, "user-1"))

	f.setClock(time.Date(2026, 4, 1, 12, 6, 0, 0, time.UTC))
	assert.NoError(t, f.svc.CheckCooldown(ctx, "user-1"))
}

func TestClearDeclines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordDecline(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, f.svc.ClearDeclines(ctx, "user-1"))

	friction, err := f.svc.Friction(ctx, "user-1", 25)
	require.NoError(t, err)
	assert.False(t, friction.RequireCaptcha)
}

func TestIdempotencyKey(t *testing.T) {
	at := time.Date(2026, 4, 1, 12, 0, 0, 500_000_000, time.UTC)

	a := fraud.IdempotencyKey("user-1", 1200.50, at)
	b := fraud.IdempotencyKey("user-1", 1200.50, at.Add(200*time.Millisecond))
	c := fraud.IdempotencyKey("user-1", 1200.50, at.Add(time.Second))
	d := fraud.IdempotencyKey("", 1200.50, at)

	assert.Equal(t, a, b, "same second must yield one key")
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Len(t, a, 64)
}
