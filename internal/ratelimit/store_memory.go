package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local fixed-window counter store.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	start time.Time
	count int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (s *MemoryStore) Incr(_ context.Context, key string, d time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) >= d {
		w = &window{start: now}
		s.windows[key] = w
	}
	w.count++

	// Opportunistic pruning keeps the map bounded without a sweeper goroutine.
	if len(s.windows) > 10000 {
		for k, win := range s.windows {
			if now.Sub(win.start) >= d {
				delete(s.windows, k)
			}
		}
	}
	return w.count, nil
}
