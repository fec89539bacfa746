package readings

import "soundsense/internal/domain"

// recentBuffer is a fixed-capacity ring of the most recent readings. Strict
// FIFO eviction: at capacity the oldest entry goes before the newest lands.
// Not safe for concurrent use; the Service serializes access.
type recentBuffer struct {
	buf  []domain.Reading
	head int // index of the oldest entry
	n    int
}

func newRecentBuffer(capacity int) *recentBuffer {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &recentBuffer{buf: make([]domain.Reading, capacity)}
}

// Append inserts at the newest end, evicting the single oldest entry first
// when full. O(1).
func (b *recentBuffer) Append(r domain.Reading) {
	if b.n == len(b.buf) {
		b.buf[b.head] = r
		b.head = (b.head + 1) % len(b.buf)
		return
	}
	b.buf[(b.head+b.n)%len(b.buf)] = r
	b.n++
}

// RecentN returns up to limit entries, newest first, without mutating the
// buffer. limit is clamped to the current length.
func (b *recentBuffer) RecentN(limit int) []domain.Reading {
	if limit > b.n {
		limit = b.n
	}
	if limit <= 0 {
		return nil
	}
	out := make([]domain.Reading, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (b.head + b.n - 1 - i + len(b.buf)) % len(b.buf)
		out = append(out, b.buf[idx])
	}
	return out
}

func (b *recentBuffer) Len() int { return b.n }
