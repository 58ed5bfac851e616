package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/orsched/or-dashboard/internal/model"
	"github.com/orsched/or-dashboard/internal/repository"
)

type caseRepository struct {
	db *sqlx.DB
}

func NewCaseRepository(db *sqlx.DB) repository.CaseRepository {
	return &caseRepository{db: db}
}

const caseColumns = `id, date, or_suite, service, booked_time,
		   wheels_in, wheels_out, actual_duration,
		   patient_name, doctor_name, complexity, is_prediction, created_at`

func (r *caseRepository) Create(ctx context.Context, c *model.SurgeryCase) error {
	query := `
		INSERT INTO surgery_cases (
			date, or_suite, service, booked_time,
			wheels_in, wheels_out, actual_duration,
			patient_name, doctor_name, complexity, is_prediction, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	c.CreatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		c.Date,
		c.ORSuite,
		c.Service,
		c.BookedTime,
		c.WheelsIn,
		c.WheelsOut,
		c.ActualDuration,
		c.PatientName,
		c.DoctorName,
		c.Complexity,
		c.IsPrediction,
		c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

func (r *caseRepository) CreateBatch(ctx context.Context, cases []*model.SurgeryCase) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO surgery_cases (
			date, or_suite, service, booked_time,
			wheels_in, wheels_out, actual_duration,
			patient_name, doctor_name, complexity, is_prediction, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	now := time.Now()
	for _, c := range cases {
		c.CreatedAt = now
		if _, err := tx.ExecContext(ctx, query,
			c.Date, c.ORSuite, c.Service, c.BookedTime,
			c.WheelsIn, c.WheelsOut, c.ActualDuration,
			c.PatientName, c.DoctorName, c.Complexity, c.IsPrediction, c.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert case batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit case batch: %w", err)
	}
	return nil
}

func (r *caseRepository) Get(ctx context.Context, id int64) (*model.SurgeryCase, error) {
	query := `SELECT ` + caseColumns + ` FROM surgery_cases WHERE id = $1`

	var c model.SurgeryCase
	err := r.db.GetContext(ctx, &c, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return &c, nil
}

func (r *caseRepository) Update(ctx context.Context, c *model.SurgeryCase) error {
	query := `
		UPDATE surgery_cases
		SET date = $1, or_suite = $2, service = $3, booked_time = $4,
			wheels_in = $5, wheels_out = $6, actual_duration = $7,
			patient_name = $8, doctor_name = $9, complexity = $10
		WHERE id = $11
	`
	result, err := r.db.ExecContext(ctx, query,
		c.Date, c.ORSuite, c.Service, c.BookedTime,
		c.WheelsIn, c.WheelsOut, c.ActualDuration,
		c.PatientName, c.DoctorName, c.Complexity,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update case: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *caseRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM surgery_cases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete case: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *caseRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM surgery_cases`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cases: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

func (r *caseRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM surgery_cases`); err != nil {
		return 0, fmt.Errorf("failed to count cases: %w", err)
	}
	return count, nil
}

func (r *caseRepository) List(ctx context.Context) ([]*model.SurgeryCase, error) {
	query := `SELECT ` + caseColumns + ` FROM surgery_cases ORDER BY date ASC, id ASC`

	var cases []*model.SurgeryCase
	if err := r.db.SelectContext(ctx, &cases, query); err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	return cases, nil
}

func (r *caseRepository) ListByDate(ctx context.Context, date time.Time) ([]*model.SurgeryCase, error) {
	query := `
		SELECT ` + caseColumns + `
		FROM surgery_cases
		WHERE date >= $1 AND date < $2
		ORDER BY wheels_in ASC NULLS LAST
	`
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	var cases []*model.SurgeryCase
	if err := r.db.SelectContext(ctx, &cases, query, day, day.AddDate(0, 0, 1)); err != nil {
		return nil, fmt.Errorf("failed to list cases by date: %w", err)
	}
	return cases, nil
}

func (r *caseRepository) ListCompleted(ctx context.Context) ([]*model.SurgeryCase, error) {
	query := `
		SELECT ` + caseColumns + `
		FROM surgery_cases
		WHERE actual_duration IS NOT NULL
		ORDER BY id ASC
	`
	var cases []*model.SurgeryCase
	if err := r.db.SelectContext(ctx, &cases, query); err != nil {
		return nil, fmt.Errorf("failed to list completed cases: %w", err)
	}
	return cases, nil
}

func (r *caseRepository) ListAnalyticsRows(ctx context.Context, from, to *time.Time, completedOnly bool) ([]model.AnalyticsRow, error) {
	query := `SELECT service, or_suite, doctor_name, actual_duration FROM surgery_cases`
	var (
		conds []string
		args  []interface{}
	)

	if completedOnly {
		conds = append(conds, "actual_duration IS NOT NULL")
	}
	if from != nil {
		args = append(args, *from)
		conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		conds = append(conds, fmt.Sprintf("date < $%d", len(args)))
	}

	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}

	var rows []model.AnalyticsRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list analytics rows: %w", err)
	}
	return rows, nil
}

func (r *caseRepository) AvgDurationForService(ctx context.Context, service string) (*float64, error) {
	query := `SELECT AVG(actual_duration) FROM surgery_cases WHERE service = $1 AND actual_duration IS NOT NULL`

	var avg sql.NullFloat64
	if err := r.db.GetContext(ctx, &avg, query, service); err != nil {
		return nil, fmt.Errorf("failed to average durations: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

func (r *caseRepository) ListMissingDoctor(ctx context.Context) ([]*model.SurgeryCase, error) {
	query := `
		SELECT ` + caseColumns + `
		FROM surgery_cases
		WHERE doctor_name IS NULL OR doctor_name = ''
		ORDER BY id ASC
	`
	var cases []*model.SurgeryCase
	if err := r.db.SelectContext(ctx, &cases, query); err != nil {
		return nil, fmt.Errorf("failed to list cases missing a doctor: %w", err)
	}
	return cases, nil
}

func (r *caseRepository) UpdateDoctor(ctx context.Context, id int64, doctor string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE surgery_cases SET doctor_name = $1 WHERE id = $2`, doctor, id)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
