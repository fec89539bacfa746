package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"

	"soundsense/internal/platform/middleware"
)

// Middleware limits requests per client IP on the routes it wraps.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := middleware.GetClientIP(ctx)
		if ip == "" {
			ip = middleware.ClientIPFromRequest(r)
		}

		result := l.Allow(ctx, ip)

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(l.limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))

		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":       "rate_limit_exceeded",
				"message":     "Too many requests from this IP address. Please try again later.",
				"retry_after": retryAfter,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
