package fraud

import (
	"math"
	"strings"
)

// suspiciousPatterns are substrings that mark an attempt's free-text fields
// as machine-generated or probing. Matching is case-insensitive over the
// payment method and every metadata value.
var suspiciousPatterns = []string{
	"test",
	"fake",
	"dummy",
	"sample",
	"asdf",
	"qwerty",
	"xxxx",
	"script",
	"curl",
}

// MatchesSuspiciousPattern reports whether any free-text field of the
// attempt contains a known suspicious pattern.
func MatchesSuspiciousPattern(a *PaymentAttempt) bool {
	if containsPattern(a.PaymentMethod) {
		return true
	}
	for _, value := range a.Metadata {
		if containsPattern(value) {
			return true
		}
	}
	return false
}

func containsPattern(value string) bool {
	lower := strings.ToLower(value)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// IsRoundAmount reports whether the amount is an exact multiple of a coarse
// denomination. Carded-out stolen credentials are probed with round charges
// far more often than organic purchases.
func IsRoundAmount(amount float64) bool {
	if amount <= 0 {
		return false
	}
	return math.Mod(amount, 100) == 0
}
