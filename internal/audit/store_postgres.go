package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresStore persists audit entries in the audit_logs table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) (uuid.UUID, error) {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	var metadata []byte
	if entry.Metadata != nil {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return uuid.Nil, fmt.Errorf("marshal audit metadata: %w", err)
		}
	}

	query := `
		INSERT INTO audit_logs (
			timestamp, user_id, user_role, action, resource_type, resource_id,
			patient_id, ip_address, user_agent, request_path, status_code,
			error_message, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, query,
		ts,
		nullString(entry.UserID),
		nullString(entry.UserRole),
		string(entry.Action),
		entry.ResourceType,
		nullString(entry.ResourceID),
		nullString(entry.PatientID),
		nullString(entry.IPAddress),
		nullString(entry.UserAgent),
		nullString(entry.RequestPath),
		nullInt(entry.StatusCode),
		nullString(entry.ErrorMessage),
		metadata,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("append audit entry: %w", err)
	}
	return id, nil
}

const summaryQuery = `
	SELECT
		id,
		timestamp,
		COALESCE(user_id, ''),
		COALESCE(user_role, ''),
		action,
		resource_type,
		COALESCE(patient_id, ''),
		COALESCE(status_code, 0),
		CASE
			WHEN error_message IS NOT NULL THEN 'Error occurred'
			ELSE 'Success'
		END AS outcome
	FROM audit_logs
	WHERE %s = $1
	ORDER BY timestamp DESC
	LIMIT $2
`

func (s *PostgresStore) ListByPatient(ctx context.Context, patientID string, limit int) ([]Summary, error) {
	return s.listBy(ctx, fmt.Sprintf(summaryQuery, "patient_id"), patientID, limit)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string, limit int) ([]Summary, error) {
	return s.listBy(ctx, fmt.Sprintf(summaryQuery, "user_id"), userID, limit)
}

func (s *PostgresStore) listBy(ctx context.Context, query, key string, limit int) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, query, key, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit summaries: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		var action string
		if err := rows.Scan(
			&sum.ID, &sum.Timestamp, &sum.UserID, &sum.UserRole, &action,
			&sum.ResourceType, &sum.PatientID, &sum.StatusCode, &sum.Outcome,
		); err != nil {
			return nil, fmt.Errorf("scan audit summary: %w", err)
		}
		sum.Action = Action(action)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit summaries: %w", err)
	}
	return summaries, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt32 {
	return sql.NullInt32{Int32: int32(n), Valid: n != 0}
}
