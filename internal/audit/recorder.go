package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"soundsense/internal/platform/metrics"
)

// Recorder is the write/query front for the audit trail. Record enforces the
// closed action set; TryRecord adds the compliance failure policy: attempt on
// every access, but availability of the primary action takes precedence over
// the audit write succeeding.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewRecorder(store Store, logger *slog.Logger, m *metrics.Metrics) *Recorder {
	return &Recorder{store: store, logger: logger, metrics: m}
}

// Record appends one entry and returns its generated identifier.
func (r *Recorder) Record(ctx context.Context, entry Entry) (uuid.UUID, error) {
	if !entry.Action.Valid() {
		return uuid.Nil, fmt.Errorf("invalid audit action %q", entry.Action)
	}
	return r.store.Append(ctx, entry)
}

// TryRecord appends best-effort: a failure is logged as a warning, counted,
// and otherwise swallowed. Never retries, never rolls anything back.
func (r *Recorder) TryRecord(ctx context.Context, entry Entry) {
	if _, err := r.Record(ctx, entry); err != nil {
		r.logger.WarnContext(ctx, "failed to log audit event",
			"error", err,
			"action", entry.Action,
			"resource_type", entry.ResourceType,
		)
		if r.metrics != nil {
			r.metrics.AuditWriteFailures.Inc()
		}
	}
}

// ByPatient returns the access log for a patient, most recent first.
func (r *Recorder) ByPatient(ctx context.Context, patientID string, limit int) ([]Summary, error) {
	return r.store.ListByPatient(ctx, patientID, limit)
}

// ByUser returns the activity log for an acting user, most recent first.
func (r *Recorder) ByUser(ctx context.Context, userID string, limit int) ([]Summary, error) {
	return r.store.ListByUser(ctx, userID, limit)
}
