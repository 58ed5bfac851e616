package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/orsched/or-dashboard/internal/config"
)

func NewDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS surgery_cases (
	id              BIGSERIAL PRIMARY KEY,
	date            TIMESTAMPTZ NOT NULL,
	or_suite        TEXT NOT NULL,
	service         TEXT NOT NULL,
	booked_time     DOUBLE PRECISION NOT NULL,
	wheels_in       TIMESTAMPTZ,
	wheels_out      TIMESTAMPTZ,
	actual_duration DOUBLE PRECISION,
	patient_name    TEXT,
	doctor_name     TEXT,
	complexity      SMALLINT,
	is_prediction   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_surgery_cases_date ON surgery_cases (date);
CREATE INDEX IF NOT EXISTS idx_surgery_cases_service ON surgery_cases (service);
`

// EnsureSchema creates the surgery_cases table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
