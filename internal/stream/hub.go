// Package stream broadcasts canonical observations to live subscribers. The
// hub is a pure live-tap: no history, no replay, and a publish that never
// blocks on a slow consumer.
package stream

import (
	"sync"

	"soundsense/internal/fhir"
	"soundsense/internal/platform/metrics"
)

const defaultSubscriberBuffer = 256

// Hub is the single publish point. Safe for concurrent publishers and
// subscribers; independent of the coordinator's lock.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	buffer  int
	metrics *metrics.Metrics
}

// Subscription receives every observation published after it was created.
// Each subscription has its own bounded delivery queue; when it fills, the
// oldest undelivered observations are dropped for that subscriber only.
type Subscription struct {
	hub  *Hub
	ch   chan fhir.Observation
	once sync.Once
}

// Option configures a Hub.
type Option func(*Hub)

// WithBuffer overrides the per-subscriber queue depth.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithMetrics wires drop and subscriber-count instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: defaultSubscriberBuffer,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish delivers obs to every current subscriber, dropping each
// subscriber's oldest queued observation when its queue is full. Returns
// promptly regardless of subscriber speed.
func (h *Hub) Publish(obs fhir.Observation) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		for {
			select {
			case sub.ch <- obs:
			default:
				// Queue full: evict the oldest and retry. Another goroutine
				// may drain concurrently, so loop rather than assume the
				// second send succeeds.
				select {
				case <-sub.ch:
					if h.metrics != nil {
						h.metrics.StreamDropped.Inc()
					}
				default:
				}
				continue
			}
			break
		}
	}
}

// Subscribe registers a new live subscriber. The subscription sees only
// observations published after this call returns.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{hub: h, ch: make(chan fhir.Observation, h.buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.StreamSubscribers.Inc()
	}
	return sub
}

// SubscriberCount reports the number of active subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// C is the subscriber's receive channel.
func (s *Subscription) C() <-chan fhir.Observation { return s.ch }

// Close tears down the subscription without affecting the publisher or other
// subscribers. Safe to call more than once. The receive channel is closed so
// consumers observe termination; closing under the write lock cannot race a
// publish, since sends only happen under the read lock.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		close(s.ch)
		s.hub.mu.Unlock()
		if s.hub.metrics != nil {
			s.hub.metrics.StreamSubscribers.Dec()
		}
	})
}
