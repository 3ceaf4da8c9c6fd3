package daemon

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
)

// RateLimiter is a per-client token bucket guarding the LLM-backed
// endpoints, backed by fortify with one bucket per client key
type RateLimiter struct {
	limiter  ratelimit.RateLimiter
	store    *ratelimit.MemoryStore
	interval time.Duration
	burst    int
}

// NewRateLimiter allows rate requests per interval per client with bursts
// up to burst. Idle client buckets expire after five minutes. Call Close
// to release the store.
func NewRateLimiter(rate int, interval time.Duration, burst int) *RateLimiter {
	store := ratelimit.NewMemoryStoreWithOptions(
		ratelimit.WithEntryTTL(5*time.Minute),
		ratelimit.WithCleanupInterval(time.Minute),
	)
	return &RateLimiter{
		limiter: ratelimit.New(&ratelimit.Config{
			Rate:     rate,
			Burst:    burst,
			Interval: interval,
			Store:    store,
		}),
		store:    store,
		interval: interval,
		burst:    burst,
	}
}

// Allow consumes a token for key, reporting whether the request may pass
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	return rl.limiter.Allow(ctx, key)
}

// Remaining returns the whole tokens left for key as of its last request
func (rl *RateLimiter) Remaining(ctx context.Context, key string) int {
	state, err := rl.store.Get(ctx, key)
	if err != nil || state == nil {
		return rl.burst
	}
	return int(state.Tokens)
}

// Close releases the limiter and its bucket store
func (rl *RateLimiter) Close() error {
	return rl.limiter.Close()
}

// rateLimited wraps an expensive handler with the limiter. A nil limiter
// disables limiting.
func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	if s.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if !s.limiter.Allow(r.Context(), key) {
			slog.Warn("rate limit exceeded",
				"client", key,
				"path", r.URL.Path,
				"correlation_id", GetCorrelationID(r.Context()),
			)
			w.Header().Set("Retry-After", strconv.Itoa(int(s.limiter.interval.Seconds())))
			w.Header().Set("X-RateLimit-Remaining", "0")
			s.jsonError(w, http.StatusTooManyRequests, "too many generation requests, please try again later", nil)
			return
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(s.limiter.Remaining(r.Context(), key)))
		next(w, r)
	}
}

// clientIP prefers the first proxy hop, then X-Real-IP, then the peer
// address without its port
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
