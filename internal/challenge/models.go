// Package challenge implements the proof-of-work engine: the server issues a
// puzzle, the client pays CPU to solve it, the server verifies with a single
// hash and hands back a short-lived work token.
package challenge

import (
	"crypto/sha256"
	"math/bits"
	"strconv"
	"time"
)

// Challenge is a single-use proof-of-work puzzle. The server keeps the
// authoritative copy until verification or expiry; the client only holds a
// copy to compute against.
type Challenge struct {
	ID         string    `json:"challenge_id"`
	Seed       string    `json:"seed"`
	Difficulty int       `json:"difficulty"` // leading zero bits required
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the challenge lifetime has passed.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Solution is the client's answer to a challenge.
type Solution struct {
	ChallengeID string `json:"challenge_id"`
	Nonce       uint64 `json:"nonce"`
	ElapsedMs   int64  `json:"elapsed_ms"`
}

// WorkToken proves a recently paid computational cost. It is scoped to one
// protected route and expires independently of the challenge.
type WorkToken struct {
	Token     string    `json:"work_token"`
	Scope     string    `json:"scope"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HashNonce computes the puzzle digest for a candidate nonce.
func HashNonce(seed string, nonce uint64) [sha256.Size]byte {
	return sha256.Sum256([]byte(seed + ":" + strconv.FormatUint(nonce, 10)))
}

// MeetsDifficulty reports whether the digest has at least the required
// number of leading zero bits. Expected work doubles with each bit.
func MeetsDifficulty(digest [sha256.Size]byte, difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	zeros := 0
	for _, b := range digest {
		if b == 0 {
			zeros += 8
			if zeros >= difficulty {
				return true
			}
			continue
		}
		zeros += bits.LeadingZeros8(b)
		break
	}
	return zeros >= difficulty
}
