package bot

import (
	"sync"
	"time"
)

// Rate limit defaults: 30 commands per user per minute.
const (
	DefaultRateLimit  = 30
	DefaultRateWindow = time.Minute
)

// RateLimiter is a sliding-window counter keyed by user.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[int64][]time.Time
	now    func() time.Time // For testing
}

// NewRateLimiter creates a limiter. Non-positive values use the defaults.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &RateLimiter{
		limit:  limit,
		window: window,
		hits:   make(map[int64][]time.Time),
		now:    time.Now,
	}
}

// Allow records a hit for user and reports whether it is within the limit.
func (r *RateLimiter) Allow(user int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	kept := r.hits[user][:0]
	for _, t := range r.hits[user] {
		if now.Sub(t) < r.window {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	r.hits[user] = kept
	return len(kept) <= r.limit
}
