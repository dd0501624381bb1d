package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const headerRetryAfter = "Retry-After"

// Limiter decides whether the caller identified by key may proceed.
// When it may not, retryAfter says how long to wait.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// RateLimit rejects callers over their budget with 429. Limiter errors let the request through.
func RateLimit(limiter Limiter, log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			allowed, retryAfter, err := limiter.Allow(c.Request().Context(), ip)
			if err != nil {
				if log != nil {
					log.WithError(err).WithField("ip", ip).Warn("rate limiter unavailable")
				}
				return next(c)
			}
			if !allowed {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				c.Response().Header().Set(headerRetryAfter, strconv.Itoa(seconds))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			}
			return next(c)
		}
	}
}

// MemoryLimiter keeps one token bucket per key in process memory.
type MemoryLimiter struct {
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	mutex    sync.Mutex
	rate     rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryLimiter(r rate.Limit, burst int, ttl time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		rate:     r,
		burst:    burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

// PerMinute allows n requests per minute per key, all of which may arrive at once.
func PerMinute(n int) (rate.Limit, int) {
	if n <= 0 {
		n = 1
	}
	return rate.Every(time.Minute / time.Duration(n)), n
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := l.now()
	reservation := l.getLimiter(key, now).ReserveN(now, 1)
	if !reservation.OK() {
		return false, time.Minute, nil
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

func (l *MemoryLimiter) getLimiter(key string, now time.Time) *rate.Limiter {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if limiter, ok := l.limiters[key]; ok {
		l.lastSeen[key] = now
		return limiter
	}
	limiter := rate.NewLimiter(l.rate, l.burst)
	l.limiters[key] = limiter
	l.lastSeen[key] = now
	l.cleanup(now)
	return limiter
}

func (l *MemoryLimiter) cleanup(now time.Time) {
	if l.ttl == 0 {
		return
	}
	cutoff := now.Add(-l.ttl)
	for key, last := range l.lastSeen {
		if last.Before(cutoff) {
			delete(l.lastSeen, key)
			delete(l.limiters, key)
		}
	}
}
