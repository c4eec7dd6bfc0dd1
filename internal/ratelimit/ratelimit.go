// Package ratelimit provides per-client token bucket limiting for the HTTP API.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/star/orrery/internal/httputil"
	"github.com/star/orrery/internal/metrics"
)

// Config holds rate limit configuration.
type Config struct {
	Enabled    bool
	PerMinute  int           // Sustained requests per minute per IP (default: 600).
	Burst      int           // Bucket size (default: PerMinute/10).
	IdleExpiry time.Duration // Forget clients idle this long (default: 10m).
	TrustProxy bool
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands out one token bucket per client IP.
type IPRateLimiter struct {
	mu     sync.Mutex
	ips    map[string]*visitor
	r      rate.Limit
	b      int
	expiry time.Duration
	now    func() time.Time
}

// NewIPRateLimiter creates a limiter allowing r events per second with burst b.
func NewIPRateLimiter(r rate.Limit, b int, expiry time.Duration) *IPRateLimiter {
	if b < 1 {
		b = 1
	}
	if expiry <= 0 {
		expiry = 10 * time.Minute
	}
	return &IPRateLimiter{
		ips:    make(map[string]*visitor),
		r:      r,
		b:      b,
		expiry: expiry,
		now:    time.Now,
	}
}

// FromConfig builds a limiter from cfg.
func FromConfig(cfg Config) *IPRateLimiter {
	perMinute := cfg.PerMinute
	if perMinute < 1 {
		perMinute = 600
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = max(1, perMinute/10)
	}
	return NewIPRateLimiter(rate.Limit(float64(perMinute)/60), burst, cfg.IdleExpiry)
}

// GetLimiter returns the bucket for ip, creating it on first use.
func (l *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.ips[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(l.r, l.b)}
		l.ips[ip] = v
	}
	v.lastSeen = l.now()

	return v.limiter
}

// Allow reports whether ip may make a request now.
func (l *IPRateLimiter) Allow(ip string) bool {
	return l.GetLimiter(ip).Allow()
}

// Cleanup forgets clients idle longer than the expiry and returns how many
// were removed.
func (l *IPRateLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.expiry)
	removed := 0
	for ip, v := range l.ips {
		if v.lastSeen.Before(cutoff) {
			delete(l.ips, ip)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients.
func (l *IPRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ips)
}

// Middleware rejects requests over the per-IP rate with 429. Paths in exempt
// are never limited.
func (l *IPRateLimiter) Middleware(trustProxy bool, exempt ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		skip[p] = true
	}
	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}
		ip := httputil.ClientIP(c.Request, trustProxy)
		lim := l.GetLimiter(ip)
		if !lim.Allow() {
			metrics.IncRateLimited("http")
			retry := time.Duration(float64(time.Second) / float64(l.r))
			c.Header("Retry-After", strconv.Itoa(max(1, int(retry.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
