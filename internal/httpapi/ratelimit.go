package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/erauner12/rangle-api/internal/auth"
	"github.com/rs/zerolog/log"
)

// RateLimitInfo configures the per-owner token bucket.
// Refill rate is MaxRequests/WindowSeconds tokens per second, capacity is Burst.
type RateLimitInfo struct {
	WindowSeconds int `json:"windowSeconds"`
	MaxRequests   int `json:"maxRequests"`
	Burst         int `json:"burst"`
}

// enabled reports whether the limits describe a usable bucket
func (c RateLimitInfo) enabled() bool {
	return c.WindowSeconds > 0 && c.MaxRequests > 0 && c.Burst > 0
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	now        func() time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a full bucket with given capacity and refill rate
func NewTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return newTokenBucket(capacity, refillRate, time.Now)
}

func newTokenBucket(capacity int, refillRate float64, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		tokens:     float64(capacity),
		capacity:   float64(capacity),
		refillRate: refillRate,
		lastRefill: now(),
		now:        now,
	}
}

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed   bool
	Remaining int
	RetryAt   time.Time // next token available
	ResetAt   time.Time // bucket full again
}

// Allow refills by elapsed time and consumes a token if one is available
func (tb *TokenBucket) Allow() Decision {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	tb.tokens += now.Sub(tb.lastRefill).Seconds() * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now

	d := Decision{RetryAt: now}
	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		d.Allowed = true
		d.Remaining = int(tb.tokens)
	} else {
		d.RetryAt = now.Add(secondsFor(1.0-tb.tokens, tb.refillRate))
	}
	d.ResetAt = now.Add(secondsFor(tb.capacity-tb.tokens, tb.refillRate))
	return d
}

func secondsFor(tokens, rate float64) time.Duration {
	return time.Duration(tokens / rate * float64(time.Second))
}

// idle reports whether the bucket has been untouched for longer than d
func (tb *TokenBucket) idle(d time.Duration) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.now().Sub(tb.lastRefill) > d
}

// RateLimiter manages one token bucket per owner
type RateLimiter struct {
	buckets map[string]*TokenBucket
	config  RateLimitInfo
	now     func() time.Time
	mu      sync.Mutex
}

// NewRateLimiter creates a new rate limiter with the given configuration
func NewRateLimiter(config RateLimitInfo) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  config,
		now:     time.Now,
	}
}

// Allow checks whether owner may make another request
func (rl *RateLimiter) Allow(owner string) Decision {
	rl.mu.Lock()
	bucket, ok := rl.buckets[owner]
	if !ok {
		rate := float64(rl.config.MaxRequests) / float64(rl.config.WindowSeconds)
		bucket = newTokenBucket(rl.config.Burst, rate, rl.now)
		rl.buckets[owner] = bucket
	}
	rl.mu.Unlock()
	return bucket.Allow()
}

// Sweep drops buckets idle for longer than maxIdle and returns how many were removed
func (rl *RateLimiter) Sweep(maxIdle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for owner, bucket := range rl.buckets {
		if bucket.idle(maxIdle) {
			delete(rl.buckets, owner)
			removed++
		}
	}
	return removed
}

// SweepLoop removes buckets idle for longer than maxIdle every interval
// until ctx is done
func (rl *RateLimiter) SweepLoop(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.Sweep(maxIdle); n > 0 {
				log.Debug().Int("buckets", n).Msg("swept idle rate limit buckets")
			}
		}
	}
}

// RateLimitMiddleware enforces the limit per authenticated owner.
// Buckets idle for an hour are swept every ten minutes until ctx is done.
func RateLimitMiddleware(ctx context.Context, config RateLimitInfo) func(http.Handler) http.Handler {
	if !config.enabled() {
		log.Warn().Interface("config", config).Msg("rate limiting disabled")
		return func(next http.Handler) http.Handler { return next }
	}

	limiter := NewRateLimiter(config)
	go limiter.SweepLoop(ctx, 10*time.Minute, time.Hour)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner := auth.UserID(r.Context())
			if owner == "" {
				next.ServeHTTP(w, r)
				return
			}

			d := limiter.Allow(owner)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.MaxRequests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
			w.Header().Set("X-RateLimit-Burst", strconv.Itoa(config.Burst))

			if !d.Allowed {
				retryAfter := int(time.Until(d.RetryAt).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				log.Ctx(r.Context()).Warn().
					Str("path", r.URL.Path).
					Int("retryAfter", retryAfter).
					Msg("rate limit exceeded")

				writeError(w, r, http.StatusTooManyRequests,
					"Rate limit exceeded. Please retry after "+strconv.Itoa(retryAfter)+" seconds.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
