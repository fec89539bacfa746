package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore keeps audit entries in process memory. It backs demo mode
// (no database configured) and tests. Entries are never removed: the
// append-only invariant holds here too.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []storedEntry
}

type storedEntry struct {
	id    uuid.UUID
	entry Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	id := uuid.New()
	s.entries = append(s.entries, storedEntry{id: id, entry: entry})
	return id, nil
}

func (s *InMemoryStore) ListByPatient(_ context.Context, patientID string, limit int) ([]Summary, error) {
	return s.list(func(e Entry) bool { return e.PatientID == patientID }, limit), nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID string, limit int) ([]Summary, error) {
	return s.list(func(e Entry) bool { return e.UserID == userID }, limit), nil
}

// Len reports the number of stored entries. Test helper.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *InMemoryStore) list(match func(Entry) bool, limit int) []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Summary
	for _, se := range s.entries {
		if !match(se.entry) {
			continue
		}
		out = append(out, Summary{
			ID:           se.id,
			Timestamp:    se.entry.Timestamp,
			UserID:       se.entry.UserID,
			UserRole:     se.entry.UserRole,
			Action:       se.entry.Action,
			ResourceType: se.entry.ResourceType,
			PatientID:    se.entry.PatientID,
			StatusCode:   se.entry.StatusCode,
			Outcome:      outcomeOf(se.entry),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
