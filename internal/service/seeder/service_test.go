package seeder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orsched/or-dashboard/internal/model"
	apperrors "github.com/orsched/or-dashboard/pkg/errors"
)

type fakeRepo struct {
	cases   []*model.SurgeryCase
	nextID  int64
	updated map[int64]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{updated: map[int64]string{}}
}

func (f *fakeRepo) Create(_ context.Context, c *model.SurgeryCase) error {
	f.nextID++
	c.ID = f.nextID
	f.cases = append(f.cases, c)
	return nil
}

func (f *fakeRepo) CreateBatch(ctx context.Context, cases []*model.SurgeryCase) error {
	for _, c := range cases {
		if err := f.Create(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRepo) Get(_ context.Context, _ int64) (*model.SurgeryCase, error) { return nil, nil }
func (f *fakeRepo) Update(_ context.Context, _ *model.SurgeryCase) error       { return nil }
func (f *fakeRepo) Delete(_ context.Context, _ int64) error                    { return nil }
func (f *fakeRepo) DeleteAll(_ context.Context) (int64, error)                 { return 0, nil }

func (f *fakeRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.cases)), nil
}

func (f *fakeRepo) List(_ context.Context) ([]*model.SurgeryCase, error) { return f.cases, nil }

func (f *fakeRepo) ListByDate(_ context.Context, _ time.Time) ([]*model.SurgeryCase, error) {
	return nil, nil
}

func (f *fakeRepo) ListCompleted(_ context.Context) ([]*model.SurgeryCase, error) { return nil, nil }

func (f *fakeRepo) ListAnalyticsRows(_ context.Context, _, _ *time.Time, _ bool) ([]model.AnalyticsRow, error) {
	return nil, nil
}

func (f *fakeRepo) AvgDurationForService(_ context.Context, _ string) (*float64, error) {
	return nil, nil
}

func (f *fakeRepo) ListMissingDoctor(_ context.Context) ([]*model.SurgeryCase, error) {
	var out []*model.SurgeryCase
	for _, c := range f.cases {
		if c.DoctorName == nil || *c.DoctorName == "" {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateDoctor(_ context.Context, id int64, doctor string) error {
	f.updated[id] = doctor
	return nil
}

type fakeTrainer struct {
	calls int
}

func (f *fakeTrainer) Train(_ context.Context) (*model.TrainingResult, error) {
	f.calls++
	return &model.TrainingResult{TrainedRows: 1, TrainedAt: time.Now()}, nil
}

func TestImportWorkbookRefusesNonEmptyStore(t *testing.T) {
	repo := newFakeRepo()
	require.NoError(t, repo.Create(context.Background(), &model.SurgeryCase{Service: "Cardiology"}))
	svc := NewService(repo, &fakeTrainer{})

	_, err := svc.ImportWorkbook(context.Background(), "ignored.xlsx")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
}

func TestParseCellTimeLayouts(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"3/4/24 8:30 AM", time.Date(2024, 3, 4, 8, 30, 0, 0, time.UTC)},
		{"3/4/2024 1:05 PM", time.Date(2024, 3, 4, 13, 5, 0, 0, time.UTC)},
		{"2024-03-04 14:30:00", time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)},
		{"2024-03-04", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"  3/4/24  ", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, ok := parseCellTime(tt.in)
		require.True(t, ok, "expected %q to parse", tt.in)
		assert.Equal(t, tt.want, got)
	}

	for _, bad := range []string{"", "not a date", "13:99"} {
		_, ok := parseCellTime(bad)
		assert.False(t, ok, "expected %q to fail", bad)
	}
}

func TestParseRowDerivesDurationAndSkipsBadRows(t *testing.T) {
	cols := map[string]int{
		colDate: 0, colORSuite: 1, colService: 2, colBookedTime: 3,
		colWheelsIn: 4, colWheelsOut: 5,
	}

	c, ok := parseRow([]string{
		"3/4/24", "OR-1", "Cardiology", "90",
		"3/4/24 8:00 AM", "3/4/24 9:35 AM",
	}, cols)
	require.True(t, ok)
	assert.Equal(t, "Cardiology", c.Service)
	assert.Equal(t, 90.0, c.BookedTime)
	require.NotNil(t, c.ActualDuration)
	assert.Equal(t, 95.0, *c.ActualDuration)

	// Inverted timestamps are kept as a scheduled case, not a negative
	// duration.
	c, ok = parseRow([]string{
		"3/4/24", "OR-1", "Cardiology", "90",
		"3/4/24 9:35 AM", "3/4/24 8:00 AM",
	}, cols)
	require.True(t, ok)
	assert.Nil(t, c.ActualDuration)

	for _, bad := range [][]string{
		{"bad date", "OR-1", "Cardiology", "90", "", ""},
		{"3/4/24", "OR-1", "", "90", "", ""},
		{"3/4/24", "OR-1", "Cardiology", "ninety", "", ""},
	} {
		_, ok := parseRow(bad, cols)
		assert.False(t, ok)
	}
}

func TestGenerateYearVolumeAndShape(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeTrainer{})

	inserted, err := svc.GenerateYear(context.Background(), 2023, 42)
	require.NoError(t, err)
	require.Equal(t, inserted, len(repo.cases))

	// 52-53 weekends at 0-2 cases, ~261 weekdays at 3-8 cases.
	assert.Greater(t, inserted, 600)
	assert.Less(t, inserted, 2300)

	for _, c := range repo.cases {
		assert.True(t, model.IsValidSpecialty(c.Service))
		require.NotNil(t, c.ActualDuration)
		assert.GreaterOrEqual(t, *c.ActualDuration, 30.0)
		assert.LessOrEqual(t, *c.ActualDuration, 180.0)
		require.NotNil(t, c.DoctorName)
		assert.Contains(t, model.DoctorsBySpecialty[c.Service], *c.DoctorName)
		assert.Equal(t, 2023, c.Date.Year())

		if wd := c.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		require.NotNil(t, c.WheelsIn)
		assert.GreaterOrEqual(t, c.WheelsIn.Hour(), 8)
	}
}

func TestGenerateYearDeterministic(t *testing.T) {
	a := newFakeRepo()
	_, err := NewService(a, &fakeTrainer{}).GenerateYear(context.Background(), 2023, 7)
	require.NoError(t, err)

	b := newFakeRepo()
	_, err = NewService(b, &fakeTrainer{}).GenerateYear(context.Background(), 2023, 7)
	require.NoError(t, err)

	require.Equal(t, len(a.cases), len(b.cases))
	for i := range a.cases {
		assert.Equal(t, a.cases[i].Service, b.cases[i].Service)
		assert.Equal(t, a.cases[i].ActualDuration, b.cases[i].ActualDuration)
	}
}

func TestBackfillDoctorsMatchesSpecialtyExactly(t *testing.T) {
	repo := newFakeRepo()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &model.SurgeryCase{Service: "Cardiology"}))
	require.NoError(t, repo.Create(ctx, &model.SurgeryCase{Service: "cardiology"})) // not in the roster
	require.NoError(t, repo.Create(ctx, &model.SurgeryCase{Service: "Telepathy"}))

	svc := NewService(repo, &fakeTrainer{})
	updated, err := svc.BackfillDoctors(ctx, 42)
	require.NoError(t, err)

	assert.Equal(t, 1, updated)
	require.Len(t, repo.updated, 1)
	assert.Contains(t, model.DoctorsBySpecialty["Cardiology"], repo.updated[1])
}
