package audit

import (
	"context"

	"github.com/google/uuid"
)

// Store is the append-only persistence surface for audit entries. Stores are
// interface-driven so the recorder works the same against PostgreSQL and the
// in-memory fallback used in demo mode and tests.
type Store interface {
	// Append writes one entry and returns its generated identifier.
	Append(ctx context.Context, entry Entry) (uuid.UUID, error)
	// ListByPatient returns summaries for a patient, timestamp descending.
	ListByPatient(ctx context.Context, patientID string, limit int) ([]Summary, error)
	// ListByUser returns summaries for an acting user, timestamp descending.
	ListByUser(ctx context.Context, userID string, limit int) ([]Summary, error)
}
