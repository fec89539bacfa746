package readings

import (
	"context"

	"github.com/google/uuid"

	"soundsense/internal/domain"
)

// Store is the narrow durable-store surface the coordinator consumes. The
// backend may be absent entirely (nil Store on the Service) or failing; the
// coordinator degrades to the in-memory buffer in both cases.
type Store interface {
	// InsertReading persists one reading and returns its generated identifier.
	InsertReading(ctx context.Context, r domain.Reading) (uuid.UUID, error)
	// QueryRecent returns up to limit readings, timestamp descending,
	// optionally filtered by signal code ("" means no filter).
	QueryRecent(ctx context.Context, limit int, codeFilter string) ([]domain.Reading, error)
	// Health verifies the backend is reachable.
	Health(ctx context.Context) error
}
