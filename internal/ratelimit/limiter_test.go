package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryStoreCountsWithinWindow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		count, err := store.Incr(ctx, "10.0.0.1", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, count)
	}

	count, err := store.Incr(ctx, "10.0.0.2", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "keys are counted independently")
}

func TestMemoryStoreResetsAfterWindow(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := store.Incr(ctx, "10.0.0.1", time.Minute)
	require.NoError(t, err)

	now = now.Add(61 * time.Second)
	count, err := store.Incr(ctx, "10.0.0.1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLimiterAllowsUnderLimit(t *testing.T) {
	l := New(nil, 3, time.Minute, discardLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result := l.Allow(ctx, "10.0.0.1")
		assert.True(t, result.Allowed)
	}

	result := l.Allow(ctx, "10.0.0.1")
	assert.False(t, result.Allowed)
	assert.Equal(t, time.Minute, result.RetryAfter)
}

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestLimiterFallsBackToMemoryOnStoreError(t *testing.T) {
	l := New(failingStore{}, 1, time.Minute, discardLogger())
	ctx := context.Background()

	result := l.Allow(ctx, "10.0.0.1")
	assert.True(t, result.Allowed)

	result = l.Allow(ctx, "10.0.0.1")
	assert.False(t, result.Allowed, "fallback store still enforces the limit")
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	l := New(nil, 1, time.Minute, discardLogger())
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	req.RemoteAddr = "10.0.0.1:4455"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestMiddlewareKeysByClientIP(t *testing.T) {
	l := New(nil, 1, time.Minute, discardLogger())
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	first := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	first.RemoteAddr = "10.0.0.1:4455"
	second := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	second.RemoteAddr = "10.0.0.2:4455"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}
