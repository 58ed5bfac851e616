package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orsched/or-dashboard/internal/model"
	apperrors "github.com/orsched/or-dashboard/pkg/errors"
)

type fakeRepo struct {
	rows []model.AnalyticsRow

	gotFrom          *time.Time
	gotTo            *time.Time
	gotCompletedOnly bool
	calls            int
}

func (f *fakeRepo) ListAnalyticsRows(_ context.Context, from, to *time.Time, completedOnly bool) ([]model.AnalyticsRow, error) {
	f.gotFrom, f.gotTo, f.gotCompletedOnly = from, to, completedOnly
	f.calls++

	out := make([]model.AnalyticsRow, 0, len(f.rows))
	for _, r := range f.rows {
		if completedOnly && r.ActualDuration == nil {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, _ *model.SurgeryCase) error        { return nil }
func (f *fakeRepo) CreateBatch(_ context.Context, _ []*model.SurgeryCase) error { return nil }
func (f *fakeRepo) Get(_ context.Context, _ int64) (*model.SurgeryCase, error)  { return nil, nil }
func (f *fakeRepo) Update(_ context.Context, _ *model.SurgeryCase) error        { return nil }
func (f *fakeRepo) Delete(_ context.Context, _ int64) error                     { return nil }
func (f *fakeRepo) DeleteAll(_ context.Context) (int64, error)                  { return 0, nil }
func (f *fakeRepo) Count(_ context.Context) (int64, error)                      { return 0, nil }
func (f *fakeRepo) List(_ context.Context) ([]*model.SurgeryCase, error)        { return nil, nil }
func (f *fakeRepo) ListByDate(_ context.Context, _ time.Time) ([]*model.SurgeryCase, error) {
	return nil, nil
}
func (f *fakeRepo) ListCompleted(_ context.Context) ([]*model.SurgeryCase, error) { return nil, nil }
func (f *fakeRepo) AvgDurationForService(_ context.Context, _ string) (*float64, error) {
	return nil, nil
}
func (f *fakeRepo) ListMissingDoctor(_ context.Context) ([]*model.SurgeryCase, error) {
	return nil, nil
}
func (f *fakeRepo) UpdateDoctor(_ context.Context, _ int64, _ string) error { return nil }

func row(service, suite, doctor string, duration float64) model.AnalyticsRow {
	r := model.AnalyticsRow{Service: service, ORSuite: suite, ActualDuration: &duration}
	if doctor != "" {
		r.DoctorName = &doctor
	}
	return r
}

func TestAnalyticsAggregatesByService(t *testing.T) {
	repo := &fakeRepo{rows: []model.AnalyticsRow{
		row("Cardiology", "OR-1", "Dr. Chen", 60),
		row("Cardiology", "OR-2", "Dr. Chen", 90),
		row("Cardiology", "OR-1", "Dr. Patel", 120),
		row("Orthopedics", "OR-3", "Dr. Kim", 45),
	}}
	svc := NewService(repo, nil)

	report, err := svc.Analytics(context.Background(), model.PeriodAll)
	require.NoError(t, err)

	assert.Equal(t, 3, report.ServiceCounts["Cardiology"])
	assert.Equal(t, 1, report.ServiceCounts["Orthopedics"])
	assert.Equal(t, 90.0, report.AvgDuration["Cardiology"])
	assert.Equal(t, 45.0, report.AvgDuration["Orthopedics"])
	assert.Equal(t, 2, report.ORSuiteCounts["OR-1"])
	assert.Equal(t, 2, report.DoctorCounts["Dr. Chen"])

	assert.True(t, repo.gotCompletedOnly, "analytics aggregates completed cases only")
	assert.Nil(t, repo.gotFrom)
	assert.Nil(t, repo.gotTo)
}

func TestAnalyticsAverageRoundsToOneDecimal(t *testing.T) {
	repo := &fakeRepo{rows: []model.AnalyticsRow{
		row("Cardiology", "OR-1", "", 60),
		row("Cardiology", "OR-1", "", 61),
		row("Cardiology", "OR-1", "", 62.5),
	}}
	svc := NewService(repo, nil)

	report, err := svc.Analytics(context.Background(), model.PeriodAll)
	require.NoError(t, err)

	assert.Equal(t, 61.2, report.AvgDuration["Cardiology"])
}

func TestAnalyticsIsIdempotent(t *testing.T) {
	repo := &fakeRepo{rows: []model.AnalyticsRow{
		row("Cardiology", "OR-1", "Dr. Chen", 60),
		row("Orthopedics", "OR-2", "Dr. Kim", 90),
	}}
	svc := NewService(repo, nil)

	first, err := svc.Analytics(context.Background(), model.PeriodAll)
	require.NoError(t, err)
	second, err := svc.Analytics(context.Background(), model.PeriodAll)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalyticsEmptyWindowYieldsEmptyMaps(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil)

	report, err := svc.Analytics(context.Background(), model.PeriodAll)
	require.NoError(t, err)

	assert.Empty(t, report.ServiceCounts)
	assert.Empty(t, report.ORSuiteCounts)
	assert.Empty(t, report.DoctorCounts)
	assert.Empty(t, report.AvgDuration)
	assert.NotNil(t, report.ServiceCounts, "empty maps serialize as {}, not null")
}

func TestAnalyticsGroupsMissingDoctorsUnderUnassigned(t *testing.T) {
	repo := &fakeRepo{rows: []model.AnalyticsRow{
		row("Cardiology", "OR-1", "", 60),
		row("Cardiology", "OR-1", "", 70),
		row("Orthopedics", "OR-2", "Dr. Kim", 90),
	}}
	svc := NewService(repo, nil)

	report, err := svc.Analytics(context.Background(), model.PeriodAll)
	require.NoError(t, err)

	assert.Equal(t, 2, report.DoctorCounts[UnassignedDoctor])
	assert.Equal(t, 1, report.DoctorCounts["Dr. Kim"])
}

func TestAnalyticsKeepsTopTenDoctors(t *testing.T) {
	var rows []model.AnalyticsRow
	doctors := []string{"Dr. A", "Dr. B", "Dr. C", "Dr. D", "Dr. E", "Dr. F",
		"Dr. G", "Dr. H", "Dr. I", "Dr. J", "Dr. K", "Dr. L"}
	for i, d := range doctors {
		// Dr. A appears 13 times, Dr. B 12 times, down to Dr. L twice.
		for n := 0; n <= len(doctors)-i; n++ {
			rows = append(rows, row("Cardiology", "OR-1", d, 60))
		}
	}
	svc := NewService(&fakeRepo{rows: rows}, nil)

	report, err := svc.Analytics(context.Background(), model.PeriodAll)
	require.NoError(t, err)

	assert.Len(t, report.DoctorCounts, 10)
	assert.Contains(t, report.DoctorCounts, "Dr. A")
	assert.NotContains(t, report.DoctorCounts, "Dr. K")
	assert.NotContains(t, report.DoctorCounts, "Dr. L")
}

func TestAnalyticsRejectsUnknownPeriod(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil)

	_, err := svc.Analytics(context.Background(), model.Period("quarter"))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
}

func TestAnalyticsCachesReports(t *testing.T) {
	repo := &fakeRepo{rows: []model.AnalyticsRow{row("Cardiology", "OR-1", "", 60)}}
	svc := NewService(repo, cache.New(time.Minute, time.Minute))

	_, err := svc.Analytics(context.Background(), model.PeriodAll)
	require.NoError(t, err)
	_, err = svc.Analytics(context.Background(), model.PeriodAll)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls, "the second read must come from cache")
}

func TestPeriodWindows(t *testing.T) {
	// A Wednesday mid-month.
	now := time.Date(2024, 3, 13, 14, 30, 0, 0, time.UTC)
	repo := &fakeRepo{}
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return now }

	_, err := svc.Analytics(context.Background(), model.PeriodDay)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), *repo.gotFrom)
	assert.Equal(t, time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), *repo.gotTo)

	_, err = svc.Analytics(context.Background(), model.PeriodMonth)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *repo.gotFrom)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), *repo.gotTo)

	_, err = svc.Analytics(context.Background(), model.PeriodYear)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *repo.gotFrom)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *repo.gotTo)
}

func TestStatusCountsAllCasesButAveragesCompleted(t *testing.T) {
	rows := []model.AnalyticsRow{
		row("Cardiology", "OR-1", "", 60),
		row("Cardiology", "OR-1", "", 90),
		{Service: "Orthopedics", ORSuite: "OR-2"}, // scheduled, not completed
	}
	svc := NewService(&fakeRepo{rows: rows}, nil)

	status, err := svc.Status(context.Background(), model.PeriodAll)
	require.NoError(t, err)

	assert.Equal(t, 3, status.TotalCases)
	assert.Equal(t, 75.0, status.AvgDuration)
}

func TestStatusUtilizationTiers(t *testing.T) {
	tests := []struct {
		cases int
		want  model.UtilizationTier
	}{
		{0, model.UtilizationLow},
		{5, model.UtilizationLow},
		{6, model.UtilizationModerate},
		{20, model.UtilizationModerate},
		{21, model.UtilizationHigh},
	}

	for _, tt := range tests {
		rows := make([]model.AnalyticsRow, tt.cases)
		for i := range rows {
			rows[i] = row("Cardiology", "OR-1", "", 60)
		}
		svc := NewService(&fakeRepo{rows: rows}, nil)

		status, err := svc.Status(context.Background(), model.PeriodAll)
		require.NoError(t, err)
		assert.Equal(t, tt.want, status.Utilization, "with %d cases", tt.cases)
	}
}
