package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// window counts requests from one client in the current period.
type window struct {
	count   int
	resetAt time.Time
}

// RateLimiter allows a fixed number of requests per client IP per period.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]window
	limit   int
	period  time.Duration
	now     func() time.Time
}

// NewRateLimiter allows limit requests per period per IP.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// Allow records a request from ip. When the limit is reached it returns
// false and the time until the window resets.
func (l *RateLimiter) Allow(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[ip]
	if !ok || !now.Before(w.resetAt) {
		l.clients[ip] = window{count: 1, resetAt: now.Add(l.period)}
		return true, 0
	}
	if w.count >= l.limit {
		return false, w.resetAt.Sub(now)
	}
	w.count++
	l.clients[ip] = w
	return true, 0
}

// Cleanup drops expired windows and returns how many were removed.
func (l *RateLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for ip, w := range l.clients {
		if !now.Before(w.resetAt) {
			delete(l.clients, ip)
			removed++
		}
	}
	return removed
}

// Count returns the number of tracked clients.
func (l *RateLimiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (l *RateLimiter) RunCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

// Middleware replies 429 with Retry-After once a client exceeds the limit.
// exempt paths are not counted.
func (l *RateLimiter) Middleware(logger *zap.Logger, exempt ...string) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			allowed, retryAfter := l.Allow(ip)
			if !allowed {
				logger.Warn("rate limit exceeded",
					zap.String("ip", ip),
					zap.Duration("retry_after", retryAfter))
				w.Header().Set("Retry-After", formatRetryAfter(retryAfter))
				writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
					Error:   "RateLimited",
					Message: "Too many requests, please retry later",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// formatRetryAfter rounds d up to whole seconds, at least one.
func formatRetryAfter(d time.Duration) string {
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
