//go:build integration

package audit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"soundsense/internal/audit"
	"soundsense/internal/platform/postgres"
	"soundsense/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *audit.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(postgres.EnsureSchema(context.Background(), s.postgres.DB))
	s.store = audit.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_logs"))
}

func testEntry(userID, patientID string) audit.Entry {
	return audit.Entry{
		UserID:       userID,
		UserRole:     "admin",
		Action:       audit.ActionCreate,
		ResourceType: "SensorReading",
		PatientID:    patientID,
		IPAddress:    "203.0.113.9",
		UserAgent:    "integration-test",
		RequestPath:  "/api/ingest",
		StatusCode:   200,
	}
}

func (s *PostgresStoreSuite) TestAppendAssignsID() {
	ctx := context.Background()

	id, err := s.store.Append(ctx, testEntry("alice", "p1"))
	s.Require().NoError(err)
	s.NotZero(id)
}

func (s *PostgresStoreSuite) TestAppendWithMetadata() {
	ctx := context.Background()

	entry := testEntry("alice", "p1")
	entry.Metadata = map[string]any{"limit": 100, "returned": 7}
	_, err := s.store.Append(ctx, entry)
	s.Require().NoError(err)

	var raw string
	err = s.postgres.DB.QueryRowContext(ctx, "SELECT metadata::text FROM audit_logs").Scan(&raw)
	s.Require().NoError(err)
	s.Contains(raw, `"returned"`)
}

func (s *PostgresStoreSuite) TestListByPatientOutcome() {
	ctx := context.Background()

	ok := testEntry("alice", "p1")
	_, err := s.store.Append(ctx, ok)
	s.Require().NoError(err)

	failed := testEntry("bob", "p1")
	failed.Action = audit.ActionAccessDenied
	failed.StatusCode = 403
	failed.ErrorMessage = "role check failed"
	_, err = s.store.Append(ctx, failed)
	s.Require().NoError(err)

	summaries, err := s.store.ListByPatient(ctx, "p1", 10)
	s.Require().NoError(err)
	s.Require().Len(summaries, 2)

	byUser := map[string]audit.Summary{}
	for _, sum := range summaries {
		byUser[sum.UserID] = sum
	}
	s.Equal(audit.OutcomeSuccess, byUser["alice"].Outcome)
	s.Equal(audit.OutcomeError, byUser["bob"].Outcome)
}

func (s *PostgresStoreSuite) TestListByUserRespectsLimit() {
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.store.Append(ctx, testEntry("alice", "p1"))
		s.Require().NoError(err)
	}
	_, err := s.store.Append(ctx, testEntry("bob", "p2"))
	s.Require().NoError(err)

	summaries, err := s.store.ListByUser(ctx, "alice", 3)
	s.Require().NoError(err)
	s.Len(summaries, 3)
	for _, sum := range summaries {
		s.Equal("alice", sum.UserID)
	}
}
