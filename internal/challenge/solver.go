package challenge

import (
	"context"
	"time"

	dErrors "bastion/pkg/domain-errors"
)

// solveChunk is how many nonces are tried between cancellation checks and
// progress reports. Large enough to keep the hot loop tight, small enough
// that cancellation lands within a few milliseconds.
const solveChunk = 2048

// ProgressFunc receives the cumulative attempt count as the search runs.
type ProgressFunc func(attempts uint64)

// SolveOptions tunes the nonce search.
type SolveOptions struct {
	// MaxAttempts bounds the search. Zero means unbounded: the caller's
	// context is then the only way to stop an unlucky search.
	MaxAttempts uint64
	// Progress, when set, is invoked once per chunk.
	Progress ProgressFunc
}

// Solve iterates candidate nonces until the digest meets the challenge
// difficulty. The search runs in the calling goroutine and yields to ctx
// cancellation between chunks; callers who need a responsive UI run it on a
// goroutine of their own. Abandoning the search needs no cleanup since
// nonces are stateless guesses.
func Solve(ctx context.Context, ch *Challenge, opts SolveOptions) (*Solution, error) {
	start := time.Now()
	var nonce uint64
	for {
		for range solveChunk {
			if MeetsDifficulty(HashNonce(ch.Seed, nonce), ch.Difficulty) {
				return &Solution{
					ChallengeID: ch.ID,
					Nonce:       nonce,
					ElapsedMs:   time.Since(start).Milliseconds(),
				}, nil
			}
			nonce++
			if opts.MaxAttempts > 0 && nonce >= opts.MaxAttempts {
				return nil, dErrors.New(dErrors.CodeChallengeInvalid, "attempt limit reached before a solution was found")
			}
		}
		if opts.Progress != nil {
			opts.Progress(nonce)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}
