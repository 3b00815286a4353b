package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	RateLimitPerMinute = 60
	RateLimitBurst     = 10
	idleClientTTL      = 10 * time.Minute
)

type RateLimitResult struct {
	Allowed     bool
	Reason      string
	WaitSeconds int
}

type RateLimiter interface {
	CheckAndRecord(ip string) RateLimitResult
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// InMemoryRateLimiter keeps one token bucket per client IP.
type InMemoryRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

func NewInMemoryRateLimiter(perMinute, burst int) *InMemoryRateLimiter {
	l := newLimiter(perMinute, burst, time.Now)
	go l.cleanupLoop()
	return l
}

func newLimiter(perMinute, burst int, now func() time.Time) *InMemoryRateLimiter {
	if perMinute <= 0 {
		perMinute = RateLimitPerMinute
	}
	if burst <= 0 {
		burst = RateLimitBurst
	}
	return &InMemoryRateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		now:     now,
	}
}

func (l *InMemoryRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		l.prune()
	}
}

func (l *InMemoryRateLimiter) prune() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-idleClientTTL)
	for ip, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, ip)
		}
	}
}

func (l *InMemoryRateLimiter) CheckAndRecord(ip string) RateLimitResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now

	r := c.limiter.ReserveN(now, 1)
	if !r.OK() {
		return RateLimitResult{Allowed: false, Reason: "rate_limit", WaitSeconds: 60}
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return RateLimitResult{
			Allowed:     false,
			Reason:      "rate_limit",
			WaitSeconds: int(math.Ceil(delay.Seconds())),
		}
	}
	return RateLimitResult{Allowed: true, Reason: "ok"}
}

// ClassifyRateLimit throttles POST requests per client IP.
func ClassifyRateLimit(limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		result := limiter.CheckAndRecord(clientIP)
		if !result.Allowed {
			traceID, _ := c.Get("trace_id")
			slog.Info("Rate limit triggered",
				"trace_id", traceID,
				"ip", clientIP,
				"reason", result.Reason,
				"wait_seconds", result.WaitSeconds,
			)
			c.Header("Retry-After", formatSeconds(result.WaitSeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":        "Rate limit reached. Please wait before trying again.",
				"reason":       result.Reason,
				"wait_seconds": result.WaitSeconds,
			})
			return
		}
		c.Next()
	}
}

func formatSeconds(n int) string {
	if n < 1 {
		n = 1
	}
	return strconv.Itoa(n)
}
