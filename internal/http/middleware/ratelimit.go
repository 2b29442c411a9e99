// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the process-local rate limiters: one token bucket per
// identity, built on golang.org/x/time/rate. The API installs three flavours:
// a global per-IP limiter, window limiters on the login/register and refresh
// routes ("N attempts per 15 minutes") and a per-user limiter on order
// creation that idempotent replays skip. Denials are counted per limiter name
// in http_rate_limited_total.
//
// Limits are per process; several replicas each enforce their own budget.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// CodeRateLimited is the error code of a 429 answer.
const CodeRateLimited = "rate_limited"

const (
	defaultLimitMessage = "rate limit exceeded"
	// sweepEvery is the number of lookups between idle-bucket sweeps.
	sweepEvery = 5000
	// defaultIdleTTL bounds how long an unused bucket is kept.
	defaultIdleTTL = 10 * time.Minute
)

// keyFunc maps a request to a bucket identity.
type keyFunc func(*gin.Context) string

// KeyByIP buckets by client address. Used before authentication has run.
func KeyByIP() keyFunc {
	return func(c *gin.Context) string { return "ip:" + c.ClientIP() }
}

// KeyByUserOrIP buckets authenticated callers by user id and everyone else
// by client address.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get(ctxKeyUserID); ok {
			if s, ok := v.(string); ok && s != "" {
				return "user:" + s
			}
		}
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a set of per-key token buckets. Safe for concurrent use.
type RateLimiter struct {
	name    string
	message string
	rps     rate.Limit
	burst   int
	keyFn   keyFunc
	retry   string

	mu      sync.Mutex
	buckets map[string]*bucket
	ttl     time.Duration
	lookups uint64
}

// NewRateLimiter refills rps tokens per second up to burst (coerced to at
// least 1). A zero rps only ever serves the initial burst.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	retry := 1
	if rps > 0 && rps < 1 {
		// 1e-9 absorbs the float error of 1/rate.Every(d).
		retry = int(math.Ceil(1/rps - 1e-9))
	}
	return &RateLimiter{
		name:    "global",
		message: defaultLimitMessage,
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		retry:   strconv.Itoa(retry),
		buckets: make(map[string]*bucket),
		ttl:     defaultIdleTTL,
	}
}

// NewWindowLimiter allows max requests per window for each key, refilling
// evenly across the window.
func NewWindowLimiter(name string, max int, window time.Duration, message string, keyFn keyFunc) *RateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	rl := NewRateLimiter(float64(rate.Every(window/time.Duration(max))), max, keyFn).
		Named(name).
		WithMessage(message)
	if window > rl.ttl {
		rl.ttl = window
	}
	return rl
}

// Named sets the label used in http_rate_limited_total.
func (rl *RateLimiter) Named(name string) *RateLimiter {
	rl.name = name
	return rl
}

// WithMessage sets the 429 message. Empty keeps the current one.
func (rl *RateLimiter) WithMessage(msg string) *RateLimiter {
	if msg != "" {
		rl.message = msg
	}
	return rl
}

// limiterFor returns the bucket for key. Idle buckets are swept before the
// lookup so a stale bucket cannot be revived by its own key.
func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= sweepEvery {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.ttl {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator flagged the request as a
// replay of a completed order.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler enforces the limit. Every limited response carries RateLimit-Limit
// and RateLimit-Remaining; denials answer 429 with Retry-After and
//
//	{ "request_id": "...", "code": "rate_limited", "message": "<message>" }
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	limit := strconv.Itoa(rl.burst)
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		lim := rl.limiterFor(rl.keyFn(c))
		allowed := lim.Allow()

		remaining := int(lim.Tokens())
		if remaining < 0 {
			remaining = 0
		}
		c.Header("RateLimit-Limit", limit)
		c.Header("RateLimit-Remaining", strconv.Itoa(remaining))

		if allowed {
			c.Next()
			return
		}

		rateLimited.WithLabelValues(rl.name).Inc()
		c.Header("Retry-After", rl.retry)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       CodeRateLimited,
			"message":    rl.message,
		})
	}
}
