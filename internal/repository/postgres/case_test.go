package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orsched/or-dashboard/internal/model"
)

func newMockRepo(t *testing.T) (*caseRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &caseRepository{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func caseRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "date", "or_suite", "service", "booked_time",
		"wheels_in", "wheels_out", "actual_duration",
		"patient_name", "doctor_name", "complexity", "is_prediction", "created_at",
	})
}

func TestCreateReturnsGeneratedID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`(?s)INSERT INTO surgery_cases.+RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(17)))

	c := &model.SurgeryCase{
		Date:       time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		ORSuite:    "OR-1",
		Service:    "Cardiology",
		BookedTime: 90,
	}
	err := repo.Create(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, int64(17), c.ID)
	assert.False(t, c.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetScansFullRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)SELECT .+ FROM surgery_cases WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(caseRows().AddRow(
			int64(3), date, "OR-2", "Orthopedics", 90.0,
			nil, nil, 95.0,
			nil, "Dr. Chen", nil, false, date,
		))

	c, err := repo.Get(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, int64(3), c.ID)
	assert.Equal(t, "Orthopedics", c.Service)
	assert.Equal(t, "OR-2", c.ORSuite)
	require.NotNil(t, c.ActualDuration)
	assert.Equal(t, 95.0, *c.ActualDuration)
	require.NotNil(t, c.DoctorName)
	assert.Equal(t, "Dr. Chen", *c.DoctorName)
	assert.Nil(t, c.Complexity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissingRowReturnsNoRows(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`(?s)UPDATE surgery_cases.+WHERE id = \$11`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &model.SurgeryCase{ID: 99, Date: time.Now()})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingRowReturnsNoRows(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM surgery_cases WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 99)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAllReportsCount(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM surgery_cases`).
		WillReturnResult(sqlmock.NewResult(0, 128))

	deleted, err := repo.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(128), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAnalyticsRowsBuildsWindowedQuery(t *testing.T) {
	repo, mock := newMockRepo(t)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT service, or_suite, doctor_name, actual_duration FROM surgery_cases WHERE actual_duration IS NOT NULL AND date >= \$1 AND date < \$2`).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"service", "or_suite", "doctor_name", "actual_duration"}).
			AddRow("Cardiology", "OR-1", nil, 90.0))

	rows, err := repo.ListAnalyticsRows(context.Background(), &from, &to, true)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "Cardiology", rows[0].Service)
	require.NotNil(t, rows[0].ActualDuration)
	assert.Equal(t, 90.0, *rows[0].ActualDuration)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAnalyticsRowsUnboundedHasNoWhereClause(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT service, or_suite, doctor_name, actual_duration FROM surgery_cases$`).
		WillReturnRows(sqlmock.NewRows([]string{"service", "or_suite", "doctor_name", "actual_duration"}))

	_, err := repo.ListAnalyticsRows(context.Background(), nil, nil, false)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvgDurationForServiceNullMeansNoHistory(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT AVG\(actual_duration\) FROM surgery_cases`).
		WithArgs("Cardiology").
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(nil))

	avg, err := repo.AvgDurationForService(context.Background(), "Cardiology")
	require.NoError(t, err)
	assert.Nil(t, avg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvgDurationForService(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT AVG\(actual_duration\) FROM surgery_cases`).
		WithArgs("Cardiology").
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(92.5))

	avg, err := repo.AvgDurationForService(context.Background(), "Cardiology")
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.Equal(t, 92.5, *avg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBatchRunsInTransaction(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)INSERT INTO surgery_cases`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`(?s)INSERT INTO surgery_cases`).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	cases := []*model.SurgeryCase{
		{Date: time.Now(), ORSuite: "OR-1", Service: "Cardiology", BookedTime: 60},
		{Date: time.Now(), ORSuite: "OR-2", Service: "Orthopedics", BookedTime: 90},
	}
	err := repo.CreateBatch(context.Background(), cases)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
