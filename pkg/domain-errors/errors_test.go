package derrors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	err := New(CodeRateLimited, "quota exhausted")

	assert.True(t, HasCode(err, CodeRateLimited))
	assert.False(t, HasCode(err, CodeForbidden))
	assert.False(t, HasCode(nil, CodeRateLimited))
	assert.False(t, HasCode(errors.New("plain"), CodeRateLimited))
}

func TestHasCode_ThroughWrapping(t *testing.T) {
	inner := New(CodeChallengeInvalid, "nonce mismatch")
	wrapped := fmt.Errorf("verify solution: %w", inner)

	assert.True(t, HasCode(wrapped, CodeChallengeInvalid))
	assert.Equal(t, CodeChallengeInvalid, CodeOf(wrapped))
}

func TestCodeOf_DefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("disk on fire")))
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeUnavailable, "store unreachable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeUnavailable, CodeOf(err))
	assert.Contains(t, err.Error(), "store unreachable")
}

func TestWithRetryAfter(t *testing.T) {
	base := New(CodeCooldownActive, "cooling down")
	err := base.WithRetryAfter(42 * time.Second)

	assert.Equal(t, 42*time.Second, RetryAfterOf(err))
	// The original is untouched; WithRetryAfter returns a copy.
	assert.Equal(t, time.Duration(0), RetryAfterOf(base))
	assert.Equal(t, time.Duration(0), RetryAfterOf(errors.New("plain")))
}

func TestNewf(t *testing.T) {
	err := Newf(CodeInvalidInput, "unknown action %q", "mine")
	assert.Equal(t, CodeInvalidInput, CodeOf(err))
	assert.Contains(t, err.Error(), `unknown action "mine"`)
}
