package admission

import (
	"sync"
	"time"

	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

const sweepInterval = 5 * time.Minute

// RateLimiter is a per-client-IP fixed-window counter. The zero value is not
// usable; construct with NewRateLimiter.
type RateLimiter struct {
	window time.Duration

	mu      sync.Mutex
	records map[string]types.RateRecord
}

// NewRateLimiter returns a RateLimiter using window as the fixed-window
// duration. A window of zero selects 60 seconds.
func NewRateLimiter(window time.Duration) *RateLimiter {
	if window <= 0 {
		window = 60 * time.Second
	}
	return &RateLimiter{window: window, records: make(map[string]types.RateRecord)}
}

// Allow reports whether ip may proceed given max requests per window. On
// refusal, retryAfter is the remaining time until the current window ends.
func (rl *RateLimiter) Allow(ip string, max int) (allowed bool, retryAfter time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rec, ok := rl.records[ip]
	if !ok || now.Sub(rec.WindowStart) >= rl.window {
		rl.records[ip] = types.RateRecord{WindowStart: now, Count: 1}
		return true, 0
	}

	if rec.Count >= max {
		return false, rl.window - now.Sub(rec.WindowStart)
	}

	rec.Count++
	rl.records[ip] = rec
	return true, 0
}

// Sweep discards records whose window started more than 5 minutes ago,
// regardless of the configured window length. Intended to be called
// periodically (e.g. every 5 minutes) by the owning server.
func (rl *RateLimiter) Sweep() {
	cutoff := time.Now().Add(-sweepInterval)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, rec := range rl.records {
		if rec.WindowStart.Before(cutoff) {
			delete(rl.records, ip)
		}
	}
}
