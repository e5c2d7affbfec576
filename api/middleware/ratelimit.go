package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/linkpeek/config"
	"github.com/use-agent/linkpeek/models"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterPool hands out one token bucket per identity and evicts
// buckets that have been idle longer than the configured TTL, keeping
// the pool bounded no matter how many distinct keys or IPs show up.
type limiterPool struct {
	cfg config.RateLimitConfig

	mu      sync.Mutex
	entries map[string]*limiterEntry
}

func newLimiterPool(cfg config.RateLimitConfig) *limiterPool {
	return &limiterPool{cfg: cfg, entries: make(map[string]*limiterEntry)}
}

// get returns the identity's limiter, creating one on first sight, and
// refreshes its idle clock.
func (p *limiterPool) get(identity string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[identity]
	if !ok {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(p.cfg.RequestsPerSecond), p.cfg.Burst),
		}
		p.entries[identity] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// evict drops entries idle longer than EntryTTL as of now and reports
// how many were removed.
func (p *limiterPool) evict(now time.Time) int {
	cutoff := now.Add(-p.cfg.EntryTTL)
	p.mu.Lock()
	defer p.mu.Unlock()
	removed := 0
	for id, entry := range p.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(p.entries, id)
			removed++
		}
	}
	return removed
}

func (p *limiterPool) sweep() {
	ticker := time.NewTicker(p.cfg.SweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		p.evict(time.Now())
	}
}

// RateLimit returns per-identity (API key or IP) token-bucket rate
// limiting middleware powered by golang.org/x/time/rate. Rate, burst,
// idle TTL, and sweep cadence all come from the RateLimit config
// section.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	pool := newLimiterPool(cfg)
	if cfg.SweepInterval > 0 {
		go pool.sweep()
	}

	return func(c *gin.Context) {
		// Prefer API key as identity (set by auth middleware); fall back to IP.
		identity, exists := c.Get("api_key")
		if !exists {
			identity = c.ClientIP()
		}

		if !pool.get(identity.(string)).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}

		c.Next()
	}
}
