package v1

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/klinikku/clinic-api/internal/config"
)

// ipLimiter hands out one token bucket per client IP. Stale buckets are
// evicted so the map does not grow without bound.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipEntry
	rps      rate.Limit
	burst    int
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	l := &ipLimiter{
		limiters: make(map[string]*ipEntry),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
	go l.evictLoop()
	return l
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.limiters[ip]
	if !ok {
		e = &ipEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[ip] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

func (l *ipLimiter) evictLoop() {
	for range time.Tick(time.Minute) {
		l.mu.Lock()
		for ip, e := range l.limiters {
			if time.Since(e.lastSeen) > 5*time.Minute {
				delete(l.limiters, ip)
			}
		}
		l.mu.Unlock()
	}
}

// RateLimit applies the global per-IP limit from config.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	limiter := newIPLimiter(cfg.RequestsPerSecond, cfg.BurstSize)
	return func(c *gin.Context) {
		if !limiter.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "rate limit exceeded",
				Code:  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}

// AuthRateLimit applies the stricter per-IP limit for credential endpoints.
func AuthRateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	perSecond := float64(cfg.AuthRequestsPerMinute) / 60.0
	limiter := newIPLimiter(perSecond, cfg.AuthRequestsPerMinute)
	return func(c *gin.Context) {
		if !limiter.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "too many authentication attempts",
				Code:  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}
