package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter enforces a sliding-window request limit per key.
type RateLimiter struct {
	limit   int
	window  time.Duration
	buckets map[string][]time.Time
	mu      sync.Mutex
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = time.Minute
	}

	rl := &RateLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string][]time.Time),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow records a request for the key and reports whether it fits in the
// current window.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	stamps := rl.buckets[key]
	kept := stamps[:0]
	for _, t := range stamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.limit {
		rl.buckets[key] = kept
		return false
	}

	rl.buckets[key] = append(kept, now)
	return true
}

// cleanupLoop drops keys that have gone quiet so the map does not grow
// with every client IP ever seen.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-rl.window)

		rl.mu.Lock()
		for key, stamps := range rl.buckets {
			active := false
			for _, t := range stamps {
				if t.After(cutoff) {
					active = true
					break
				}
			}
			if !active {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()

		if !limiter.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": limiter.window.Seconds(),
			})
			return
		}

		c.Next()
	}
}
