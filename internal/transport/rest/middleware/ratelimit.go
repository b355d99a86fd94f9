package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"
	"golang.org/x/time/rate"

	"quizroom/internal/cache"
)

// RateLimiter applies fixed-window limits per client IP and endpoint
type RateLimiter struct {
	cache    cache.RateLimitCache
	requests int
	window   time.Duration
}

func NewRateLimiter(c cache.RateLimitCache, requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{cache: c, requests: requests, window: window}
}

// Limit wraps next with the window for endpoint. Counter failures let the
// request through.
func (l *RateLimiter) Limit(endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := l.cache.Hit(r.Context(), endpoint, ClientIP(r), l.requests, l.window)
		if err != nil {
			hlog.FromRequest(r).Warn().Err(err).Str("endpoint", endpoint).Msg("rate limit counter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.requests))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
		if !res.Allowed {
			secs := int(math.Ceil(res.RetryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeJSONError(w, http.StatusTooManyRequests, "too many requests, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Throttle caps the request rate of everything behind it, across all clients
func Throttle(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				hlog.FromRequest(r).Warn().Msg("auth endpoints throttled")
				writeJSONError(w, http.StatusTooManyRequests, "server is busy, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
