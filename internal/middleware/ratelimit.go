package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/whisperly/backend/internal/respond"
)

// CleanupOpts controls how long idle client buckets are kept.
type CleanupOpts struct {
	TTL      time.Duration
	Interval time.Duration
}

// IPRateLimiter keeps one token bucket per client address. Buckets live in
// memory only and are dropped after TTL of inactivity.
type IPRateLimiter struct {
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	CleanupOpts
}

// NewIPRateLimiter allows requests per window for each address. The cleanup
// loop stops when ctx is done.
func NewIPRateLimiter(ctx context.Context, requests int, window time.Duration, opts CleanupOpts) *IPRateLimiter {
	if requests < 1 {
		requests = 1
	}

	rl := &IPRateLimiter{
		limiters:    make(map[string]*rate.Limiter),
		lastSeen:    make(map[string]time.Time),
		rate:        rate.Every(window / time.Duration(requests)),
		burst:       requests,
		CleanupOpts: opts,
	}

	if opts.Interval > 0 {
		go rl.cleanup(ctx)
	}

	return rl
}

func (rl *IPRateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(rl.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evict(time.Now())
		}
	}
}

func (rl *IPRateLimiter) evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, seen := range rl.lastSeen {
		if now.Sub(seen) > rl.TTL {
			delete(rl.limiters, ip)
			delete(rl.lastSeen, ip)
		}
	}
}

// Allow takes one token from ip's bucket.
func (rl *IPRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, ok := rl.limiters[ip]
	if !ok {
		bucket = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[ip] = bucket
	}

	rl.lastSeen[ip] = time.Now()
	return bucket.Allow()
}

// clientIP expects chi's RealIP middleware to have normalized RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware rejects requests over the limit with 429.
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			slog.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("path", r.URL.Path),
				slog.String("method", r.Method))
			respond.Fail(w, http.StatusTooManyRequests, "Too many requests. Try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}
