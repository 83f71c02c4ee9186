package analytics

import (
	"sync"
	"time"
)

// rateLimiter caps how many views per key are recorded in a sliding window.
type rateLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
	now    func() time.Time
}

func newRateLimiter(max int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
		now:    time.Now,
	}
	go rl.sweep()
	return rl
}

// allow records a hit for key unless the window is already full.
func (rl *rateLimiter) allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	kept := within(rl.hits[key], now.Add(-rl.window))
	if len(kept) >= rl.max {
		rl.hits[key] = kept
		return false
	}
	rl.hits[key] = append(kept, now)
	return true
}

func (rl *rateLimiter) sweep() {
	ticker := time.NewTicker(rl.window)
	for range ticker.C {
		cutoff := rl.now().Add(-rl.window)
		rl.mu.Lock()
		for key, hits := range rl.hits {
			if kept := within(hits, cutoff); len(kept) > 0 {
				rl.hits[key] = kept
			} else {
				delete(rl.hits, key)
			}
		}
		rl.mu.Unlock()
	}
}

// within filters hits in place, keeping those after cutoff.
func within(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
