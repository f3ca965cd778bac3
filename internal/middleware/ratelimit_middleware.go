package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/tariff_api/internal/utils"
)

// RateLimiter is a fixed-window limiter keyed by client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	attempts map[string]*attemptInfo
	now      func() time.Time
}

type attemptInfo struct {
	count   int
	firstAt time.Time
}

// NewRateLimiter allows limit requests per window and IP. Stale entries are
// purged until ctx is cancelled.
func NewRateLimiter(ctx context.Context, limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:    limit,
		window:   window,
		attempts: make(map[string]*attemptInfo),
		now:      time.Now,
	}
	go rl.cleanup(ctx)
	return rl
}

// Allow checks if ip can make another request.
func (r *RateLimiter) Allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	info, exists := r.attempts[ip]
	if !exists || now.Sub(info.firstAt) > r.window {
		r.attempts[ip] = &attemptInfo{count: 1, firstAt: now}
		return true
	}

	if info.count >= r.limit {
		return false
	}
	info.count++
	return true
}

// Handle returns a gin middleware that answers 429 once the IP is over its limit.
func (r *RateLimiter) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Allow(c.ClientIP()) {
			c.Header("Retry-After", strconv.Itoa(int(r.window.Seconds())))
			utils.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, please retry later")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (r *RateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(5 * r.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			now := r.now()
			for ip, info := range r.attempts {
				if now.Sub(info.firstAt) > r.window {
					delete(r.attempts, ip)
				}
			}
			r.mu.Unlock()
		}
	}
}
