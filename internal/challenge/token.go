package challenge

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "bastion/pkg/domain-errors"
)

// WorkClaims are the JWT claims carried by a work token.
type WorkClaims struct {
	Scope      string `json:"scope"`
	Difficulty int    `json:"difficulty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates work tokens. Tokens are scoped to one
// protected route so a token earned for a form submission cannot be replayed
// against a payment endpoint.
type TokenIssuer struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

// NewTokenIssuer creates an issuer with the given signing key and token TTL.
func NewTokenIssuer(signingKey, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if signingKey == "" {
		return nil, fmt.Errorf("signing key is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	return &TokenIssuer{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
		now:        time.Now,
	}, nil
}

// WithClock overrides the time source for tests.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	t.now = now
	return t
}

// Issue signs a work token for the given scope.
func (t *TokenIssuer) Issue(scope string, difficulty int) (*WorkToken, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, WorkClaims{
		Scope:      scope,
		Difficulty: difficulty,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    t.issuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(t.signingKey)
	if err != nil {
		return nil, fmt.Errorf("sign work token: %w", err)
	}
	return &WorkToken{Token: signed, Scope: scope, ExpiresAt: expiresAt}, nil
}

// Validate checks the signature, expiry, and scope of a work token.
func (t *TokenIssuer) Validate(tokenString, scope string) (*WorkClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &WorkClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return t.signingKey, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "work token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid work token")
	}

	claims, ok := parsed.Claims.(*WorkClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid work token claims")
	}
	if scope != "" && claims.Scope != scope {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "work token scope mismatch")
	}
	return claims, nil
}
