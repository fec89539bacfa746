// Package ratelimit protects the public ingest endpoint with a per-IP
// fixed-window limiter. Redis backs the counters when configured; an
// in-memory store serves as the standalone mode and as automatic fallback
// when Redis errors. Limiter failures fail open: protecting ingestion
// availability outranks enforcing the limit.
package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// Store counts requests per key within the current fixed window.
type Store interface {
	// Incr bumps the counter for key in the window containing now and
	// returns the post-increment count.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Result describes a limit check.
type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter enforces limit requests per window per key.
type Limiter struct {
	store    Store
	fallback *MemoryStore
	limit    int64
	window   time.Duration
	logger   *slog.Logger
}

// New builds a limiter over the given store. When store is nil the in-memory
// fallback is the only store (standalone mode).
func New(store Store, limit int, window time.Duration, logger *slog.Logger) *Limiter {
	return &Limiter{
		store:    store,
		fallback: NewMemoryStore(),
		limit:    int64(limit),
		window:   window,
		logger:   logger,
	}
}

// Allow checks and consumes one request for key.
func (l *Limiter) Allow(ctx context.Context, key string) Result {
	count, err := l.incr(ctx, key)
	if err != nil {
		// Fail open rather than reject traffic on limiter trouble.
		l.logger.WarnContext(ctx, "rate limit check failed, allowing request", "error", err)
		return Result{Allowed: true, Remaining: l.limit}
	}
	if count > l.limit {
		return Result{Allowed: false, RetryAfter: l.window}
	}
	return Result{Allowed: true, Remaining: l.limit - count}
}

func (l *Limiter) incr(ctx context.Context, key string) (int64, error) {
	if l.store == nil {
		return l.fallback.Incr(ctx, key, l.window)
	}
	count, err := l.store.Incr(ctx, key, l.window)
	if err == nil {
		return count, nil
	}
	l.logger.WarnContext(ctx, "rate limit store unavailable, using in-memory fallback", "error", err)
	return l.fallback.Incr(ctx, key, l.window)
}
