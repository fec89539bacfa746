// Package readings owns the ingestion pipeline: validation, FHIR conversion,
// the durable-plus-cached dual write with graceful degradation, the audit
// side effect, and the hand-off to the live stream.
package readings

import (
	"context"
	"log/slog"
	"sync"

	"soundsense/internal/audit"
	"soundsense/internal/auth"
	"soundsense/internal/domain"
	"soundsense/internal/fhir"
	"soundsense/internal/platform/metrics"
	"soundsense/internal/platform/middleware"
	pkgerrors "soundsense/pkg/errors"
)

const (
	defaultCacheCapacity = 500

	// DefaultQueryLimit applies when a query names no limit.
	DefaultQueryLimit = 100
	// MaxQueryLimit is the server-side ceiling for general queries.
	MaxQueryLimit = 500
)

// Publisher is the fan-out hand-off. Publish must never block on subscriber
// backpressure.
type Publisher interface {
	Publish(obs fhir.Observation)
}

// Service is the ingestion coordinator. Its mutable state (buffer plus the
// optional durable store handle) is shared across request handlers, so all
// access to steps 3-5 of the ingest sequence is serialized through mu; the
// lock is released before publishing so fan-out never runs under it.
type Service struct {
	mu    sync.Mutex
	cache *recentBuffer

	store    Store // nil when no durable backend is configured
	recorder *audit.Recorder
	hub      Publisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(store Store, recorder *audit.Recorder, hub Publisher, logger *slog.Logger, m *metrics.Metrics, cacheCapacity int) *Service {
	return &Service{
		cache:    newRecentBuffer(cacheCapacity),
		store:    store,
		recorder: recorder,
		hub:      hub,
		logger:   logger,
		metrics:  m,
	}
}

// Ingest runs the full pipeline for one reading. Client-input failures are
// terminal and leave no trace; storage and audit failures degrade silently.
// Storage unavailability never fails an ingest.
func (s *Service) Ingest(ctx context.Context, reading domain.Reading, identity *auth.Identity) (fhir.Observation, error) {
	if err := reading.Validate(); err != nil {
		s.metrics.ReadingsRejected.Inc()
		return fhir.Observation{}, err
	}

	obs := fhir.FromReading(reading)
	if err := obs.Validate(); err != nil {
		// Input already passed validation, so a bad derived record is an
		// internal invariant violation: full detail to logs, generic to caller.
		s.logger.ErrorContext(ctx, "derived observation failed validation",
			"error", err,
			"patient_id", reading.PatientID,
		)
		return fhir.Observation{}, pkgerrors.New(pkgerrors.CodeInternal, "failed to process reading")
	}

	s.mu.Lock()
	if s.store != nil {
		id, err := s.store.InsertReading(ctx, reading)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to store reading, continuing with in-memory only",
				"error", err,
				"device_id", reading.DeviceID,
			)
			s.metrics.DurableWriteFailures.Inc()
		} else if identity != nil {
			s.recorder.TryRecord(ctx, audit.Entry{
				UserID:       identity.Subject,
				UserRole:     identity.Role,
				Action:       audit.ActionCreate,
				ResourceType: "SensorReading",
				ResourceID:   id.String(),
				PatientID:    reading.PatientID,
				IPAddress:    middleware.GetClientIP(ctx),
				UserAgent:    middleware.GetUserAgent(ctx),
				RequestPath:  middleware.GetRequestPath(ctx),
				StatusCode:   200,
			})
		}
	}
	// The buffer append is unconditional so every accepted reading stays
	// visible to live queries even when the durable write failed.
	s.cache.Append(reading)
	s.mu.Unlock()

	s.hub.Publish(obs)
	s.metrics.ReadingsIngested.Inc()
	return obs, nil
}

// Recent returns the most recent observations as a Bundle, preferring the
// durable store and falling back to the in-memory buffer on query failure.
// Queries never fail because of a storage outage.
func (s *Service) Recent(ctx context.Context, limit int, codeFilter string) (fhir.Bundle, error) {
	limit = clampLimit(limit)

	if s.store != nil {
		rs, err := s.store.QueryRecent(ctx, limit, codeFilter)
		if err == nil {
			return toBundle(rs), nil
		}
		s.logger.WarnContext(ctx, "durable query failed, falling back to in-memory buffer",
			"error", err,
		)
		s.metrics.DurableQueryFailures.Inc()
	}

	s.mu.Lock()
	// Over-fetch when filtering so the filter does not shrink the page below
	// the requested limit while matching entries remain.
	fetch := limit
	if codeFilter != "" {
		fetch = s.cache.Len()
	}
	items := s.cache.RecentN(fetch)
	s.mu.Unlock()

	if codeFilter != "" {
		filtered := items[:0]
		for _, r := range items {
			if string(r.Code) == codeFilter {
				filtered = append(filtered, r)
			}
		}
		items = filtered
		if len(items) > limit {
			items = items[:limit]
		}
	}
	return toBundle(items), nil
}

// Health reports whether a durable backend is configured and reachable.
// hasStore is false in in-memory-only mode; err is non-nil only when a
// configured backend is failing its check.
func (s *Service) Health(ctx context.Context) (hasStore bool, err error) {
	if s.store == nil {
		return false, nil
	}
	return true, s.store.Health(ctx)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}

func toBundle(rs []domain.Reading) fhir.Bundle {
	observations := make([]fhir.Observation, 0, len(rs))
	for _, r := range rs {
		observations = append(observations, fhir.FromReading(r))
	}
	return fhir.NewBundle(observations)
}
