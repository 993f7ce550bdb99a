package metrics

import "sync"

// rollingAverage keeps the mean of the last capacity samples. Oldest samples
// are evicted once the ring is full.
type rollingAverage struct {
	mu      sync.Mutex
	samples []float64
	next    int
	full    bool
	sum     float64
}

func newRollingAverage(capacity int) *rollingAverage {
	if capacity <= 0 {
		capacity = 100
	}
	return &rollingAverage{samples: make([]float64, capacity)}
}

// Add inserts one sample and returns the current mean.
func (r *rollingAverage) Add(v float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.full {
		r.sum -= r.samples[r.next]
	}
	r.samples[r.next] = v
	r.sum += v
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
		r.full = true
	}

	n := r.next
	if r.full {
		n = len(r.samples)
	}
	return r.sum / float64(n)
}
