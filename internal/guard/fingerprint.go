package guard

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint derives a stable client identifier from the request's source
// address and user agent. It keys the rate limiter without storing either
// value in the clear.
func Fingerprint(ip, userAgent string) string {
	sum := blake2b.Sum256([]byte(ip + "\x00" + userAgent))
	return hex.EncodeToString(sum[:16])
}
