package readings

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"soundsense/internal/domain"
	"soundsense/internal/platform/postgres"
)

// PostgresStore persists readings in the sensor_readings table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) InsertReading(ctx context.Context, r domain.Reading) (uuid.UUID, error) {
	query := `
		INSERT INTO sensor_readings (patient_id, device_id, code, value, unit, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, query,
		r.PatientID, r.DeviceID, string(r.Code), r.Value, r.Unit, r.Timestamp,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert reading: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) QueryRecent(ctx context.Context, limit int, codeFilter string) ([]domain.Reading, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if codeFilter != "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT patient_id, device_id, code, value, unit, timestamp
			FROM sensor_readings
			WHERE code = $1
			ORDER BY timestamp DESC
			LIMIT $2
		`, codeFilter, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT patient_id, device_id, code, value, unit, timestamp
			FROM sensor_readings
			ORDER BY timestamp DESC
			LIMIT $1
		`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query recent readings: %w", err)
	}
	defer rows.Close()

	var readings []domain.Reading
	for rows.Next() {
		var r domain.Reading
		var code string
		if err := rows.Scan(&r.PatientID, &r.DeviceID, &code, &r.Value, &r.Unit, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		parsed, err := domain.ParseSignalCode(code)
		if err != nil {
			// Unknown code rows are skipped rather than failing the query;
			// they can only appear through out-of-band writes.
			continue
		}
		r.Code = parsed
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return readings, nil
}

func (s *PostgresStore) Health(ctx context.Context) error {
	return postgres.Health(ctx, s.db)
}
