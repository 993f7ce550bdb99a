package challenge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "bastion/pkg/domain-errors"
)

const testSigningKey = "test-signing-key-with-enough-entropy"

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer(testSigningKey, "bastion", 5*time.Minute)
	require.NoError(t, err)

	token, err := issuer.Issue("payments", 18)
	require.NoError(t, err)
	assert.Equal(t, "payments", token.Scope)

	claims, err := issuer.Validate(token.Token, "payments")
	require.NoError(t, err)
	assert.Equal(t, "payments", claims.Scope)
	assert.Equal(t, 18, claims.Difficulty)
}

func TestTokenIssuer_ScopeMismatch(t *testing.T) {
	issuer, err := NewTokenIssuer(testSigningKey, "bastion", 5*time.Minute)
	require.NoError(t, err)

	token, err := issuer.Issue("forms:contact", 18)
	require.NoError(t, err)

	_, err = issuer.Validate(token.Token, "payments")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestTokenIssuer_Expiry(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewTokenIssuer(testSigningKey, "bastion", 5*time.Minute)
	require.NoError(t, err)
	issuer.WithClock(func() time.Time { return now })

	token, err := issuer.Issue("payments", 18)
	require.NoError(t, err)

	_, err = issuer.Validate(token.Token, "payments")
	require.NoError(t, err)

	issuer.WithClock(func() time.Time { return now.Add(6 * time.Minute) })
	_, err = issuer.Validate(token.Token, "payments")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestTokenIssuer_WrongKeyRejected(t *testing.T) {
	issuer, err := NewTokenIssuer(testSigningKey, "bastion", 5*time.Minute)
	require.NoError(t, err)
	other, err := NewTokenIssuer("a-different-signing-key-entirely", "bastion", 5*time.Minute)
	require.NoError(t, err)

	token, err := issuer.Issue("payments", 18)
	require.NoError(t, err)

	_, err = other.Validate(token.Token, "payments")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestNewTokenIssuer_Validation(t *testing.T) {
	_, err := NewTokenIssuer("", "bastion", time.Minute)
	assert.Error(t, err)

	_, err = NewTokenIssuer(testSigningKey, "bastion", 0)
	assert.Error(t, err)
}
