package fraud

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// IdempotencyKey derives a deterministic key for a payment intent from the
// user, amount, and a second-granularity timestamp. The same logical
// request fired twice within the same second attaches to one downstream
// operation instead of double-charging.
func IdempotencyKey(userID string, amount float64, at time.Time) string {
	if userID == "" {
		userID = "anon"
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%.2f|%d", userID, amount, at.Unix()))
	return hex.EncodeToString(sum[:])
}
