package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/orsched/or-dashboard/internal/model"
	"github.com/orsched/or-dashboard/internal/repository"
	apperrors "github.com/orsched/or-dashboard/pkg/errors"
)

// UnassignedDoctor groups cases with no doctor under one sentinel label.
const UnassignedDoctor = "Unassigned"

const topDoctors = 10

type Service struct {
	repo  repository.CaseRepository
	cache *cache.Cache
	now   func() time.Time
}

func NewService(repo repository.CaseRepository, c *cache.Cache) *Service {
	return &Service{
		repo:  repo,
		cache: c,
		now:   time.Now,
	}
}

// Analytics aggregates completed cases in the requested calendar window
// into per-service, per-suite and per-doctor counts plus mean durations.
// An empty window yields empty maps.
func (s *Service) Analytics(ctx context.Context, period model.Period) (*model.AnalyticsReport, error) {
	if !period.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid period %q", period), nil)
	}

	cacheKey := "analytics:" + string(period)
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			return cached.(*model.AnalyticsReport), nil
		}
	}

	from, to := periodWindow(period, s.now())
	rows, err := s.repo.ListAnalyticsRows(ctx, from, to, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load analytics rows: %w", err)
	}

	report := aggregate(rows)
	if s.cache != nil {
		s.cache.Set(cacheKey, report, cache.DefaultExpiration)
	}
	return report, nil
}

// Status reports aggregate volume, mean duration and a coarse utilization
// tier thresholded on raw case count.
func (s *Service) Status(ctx context.Context, period model.Period) (*model.StatusReport, error) {
	if !period.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid period %q", period), nil)
	}

	from, to := periodWindow(period, s.now())
	rows, err := s.repo.ListAnalyticsRows(ctx, from, to, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load status rows: %w", err)
	}

	var sum float64
	var completed int
	for _, r := range rows {
		if r.ActualDuration != nil {
			sum += *r.ActualDuration
			completed++
		}
	}

	avg := 0.0
	if completed > 0 {
		avg = math.Round(sum/float64(completed)*10) / 10
	}

	total := len(rows)
	tier := model.UtilizationLow
	if total > 5 {
		tier = model.UtilizationModerate
	}
	if total > 20 {
		tier = model.UtilizationHigh
	}

	return &model.StatusReport{
		TotalCases:  total,
		AvgDuration: avg,
		Utilization: tier,
	}, nil
}

func aggregate(rows []model.AnalyticsRow) *model.AnalyticsReport {
	report := &model.AnalyticsReport{
		ServiceCounts: map[string]int{},
		ORSuiteCounts: map[string]int{},
		DoctorCounts:  map[string]int{},
		AvgDuration:   map[string]float64{},
	}

	durationSums := map[string]float64{}
	durationCounts := map[string]int{}
	doctorCounts := map[string]int{}

	for _, r := range rows {
		report.ServiceCounts[r.Service]++
		report.ORSuiteCounts[r.ORSuite]++

		doctor := UnassignedDoctor
		if r.DoctorName != nil && *r.DoctorName != "" {
			doctor = *r.DoctorName
		}
		doctorCounts[doctor]++

		if r.ActualDuration != nil {
			durationSums[r.Service] += *r.ActualDuration
			durationCounts[r.Service]++
		}
	}

	for svc, count := range durationCounts {
		report.AvgDuration[svc] = math.Round(durationSums[svc]/float64(count)*10) / 10
	}
	report.DoctorCounts = topN(doctorCounts, topDoctors)

	return report
}

// topN keeps the n highest counts; ties break by name so repeated calls
// over the same data return identical output.
func topN(counts map[string]int, n int) map[string]int {
	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].count != entries[b].count {
			return entries[a].count > entries[b].count
		}
		return entries[a].name < entries[b].name
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	top := make(map[string]int, len(entries))
	for _, e := range entries {
		top[e.name] = e.count
	}
	return top
}

// periodWindow maps a period to a half-open calendar window [from, to).
// The all-time period returns no bounds.
func periodWindow(period model.Period, now time.Time) (*time.Time, *time.Time) {
	var from, to time.Time
	switch period {
	case model.PeriodDay:
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		to = from.AddDate(0, 0, 1)
	case model.PeriodMonth:
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		to = from.AddDate(0, 1, 0)
	case model.PeriodYear:
		from = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		to = from.AddDate(1, 0, 0)
	default:
		return nil, nil
	}
	return &from, &to
}
