package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinscribe/clinscribe/internal/platform/auth"
)

// RateLimitConfig holds token bucket settings. Zero-valued fields fall back
// to DefaultRateLimitConfig.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig is applied for any config field left unset.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

// Stale buckets are dropped so the key map does not grow with every IP that
// ever probed the server.
const (
	bucketIdleEvict = 5 * time.Minute
	pruneEvery      = time.Minute
)

// bucket is a lazily refilled token bucket.
type bucket struct {
	tokens  float64
	updated time.Time
}

type limiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	rate       float64
	burst      float64
	lastPruned time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	return &limiter{
		buckets:    make(map[string]*bucket),
		rate:       cfg.RequestsPerSecond,
		burst:      float64(cfg.BurstSize),
		lastPruned: time.Now(),
	}
}

// allow takes one token for key, reporting whether the request may proceed
// and, when it may not, how many seconds until a token is available.
func (l *limiter) allow(key string, now time.Time) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastPruned) > pruneEvery {
		for k, b := range l.buckets {
			if now.Sub(b.updated) > bucketIdleEvict {
				delete(l.buckets, k)
			}
		}
		l.lastPruned = now
	}

	b := l.buckets[key]
	if b == nil {
		b = &bucket{tokens: l.burst, updated: now}
		l.buckets[key] = b
	}

	b.tokens += now.Sub(b.updated).Seconds() * l.rate
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.updated = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if l.rate <= 0 {
		return false, 1
	}
	return false, int((1-b.tokens)/l.rate) + 1
}

// clientKey prefers the authenticated user so clinic workstations behind one
// NAT do not share a bucket. Unauthenticated requests fall back to remote IP.
func clientKey(c echo.Context) string {
	if uid, ok := c.Get(auth.ContextUserID).(string); ok && uid != "" {
		return "user:" + uid
	}
	return "ip:" + c.RealIP()
}

// RateLimit throttles per authenticated user (per IP before auth). Register
// it after the auth middleware so the user key is populated.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	def := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = def.BurstSize
	}
	lim := newLimiter(cfg)
	limitHeader := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, retryAfter := lim.allow(clientKey(c), time.Now())
			c.Response().Header().Set("X-RateLimit-Limit", limitHeader)
			if !ok {
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
