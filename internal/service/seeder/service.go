package seeder

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/orsched/or-dashboard/internal/model"
	"github.com/orsched/or-dashboard/internal/repository"
	apperrors "github.com/orsched/or-dashboard/pkg/errors"
)

// Trainer is satisfied by the prediction service; a successful import
// immediately fits a model over the new history.
type Trainer interface {
	Train(ctx context.Context) (*model.TrainingResult, error)
}

type Service struct {
	repo    repository.CaseRepository
	trainer Trainer
}

func NewService(repo repository.CaseRepository, trainer Trainer) *Service {
	return &Service{repo: repo, trainer: trainer}
}

type ImportResult struct {
	Inserted int  `json:"inserted"`
	Skipped  int  `json:"skipped"`
	Trained  bool `json:"trained"`
}

// Workbook column headers, as exported by the OR utilization report.
const (
	colDate       = "Date"
	colORSuite    = "OR Suite"
	colService    = "Service"
	colBookedTime = "Booked Time (min)"
	colWheelsIn   = "Wheels In"
	colWheelsOut  = "Wheels Out"
)

// ImportWorkbook seeds the store from a historical utilization workbook.
// It refuses to run over a non-empty store; rows missing a parseable date,
// service or booked time are skipped, not fatal.
func (s *Service) ImportWorkbook(ctx context.Context, path string) (*ImportResult, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check store: %w", err)
	}
	if count > 0 {
		return nil, apperrors.NewBadRequest("store is not empty, clear it before re-seeding", nil)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, apperrors.NewBadRequest("workbook has no data rows", nil)
	}

	cols := indexColumns(rows[0])
	for _, required := range []string{colDate, colORSuite, colService, colBookedTime} {
		if _, ok := cols[required]; !ok {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("workbook is missing column %q", required), nil)
		}
	}

	var cases []*model.SurgeryCase
	skipped := 0
	for _, row := range rows[1:] {
		c, ok := parseRow(row, cols)
		if !ok {
			skipped++
			continue
		}
		cases = append(cases, c)
	}

	if len(cases) == 0 {
		return nil, apperrors.NewBadRequest("no usable rows in workbook", nil)
	}

	if err := s.repo.CreateBatch(ctx, cases); err != nil {
		return nil, fmt.Errorf("failed to insert seeded cases: %w", err)
	}
	log.Info().Int("inserted", len(cases)).Int("skipped", skipped).Msg("workbook import complete")

	result := &ImportResult{Inserted: len(cases), Skipped: skipped}
	if _, err := s.trainer.Train(ctx); err != nil {
		log.Warn().Err(err).Msg("post-import training failed")
	} else {
		result.Trained = true
	}
	return result, nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	return cols
}

func parseRow(row []string, cols map[string]int) (*model.SurgeryCase, bool) {
	date, ok := parseCellTime(cell(row, cols[colDate]))
	if !ok {
		return nil, false
	}
	service := strings.TrimSpace(cell(row, cols[colService]))
	if service == "" {
		return nil, false
	}
	booked, err := strconv.ParseFloat(strings.TrimSpace(cell(row, cols[colBookedTime])), 64)
	if err != nil {
		return nil, false
	}

	c := &model.SurgeryCase{
		Date:       date,
		ORSuite:    strings.TrimSpace(cell(row, cols[colORSuite])),
		Service:    service,
		BookedTime: booked,
	}

	if i, ok := cols[colWheelsIn]; ok {
		if t, parsed := parseCellTime(cell(row, i)); parsed {
			c.WheelsIn = &t
		}
	}
	if i, ok := cols[colWheelsOut]; ok {
		if t, parsed := parseCellTime(cell(row, i)); parsed {
			c.WheelsOut = &t
		}
	}
	if c.WheelsIn != nil && c.WheelsOut != nil && !c.WheelsOut.Before(*c.WheelsIn) {
		minutes := c.WheelsOut.Sub(*c.WheelsIn).Minutes()
		c.ActualDuration = &minutes
	}
	return c, true
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

var cellTimeLayouts = []string{
	"1/2/06 3:04 PM",
	"1/2/2006 3:04 PM",
	"1/2/06 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/06",
	"1/2/2006",
}

func parseCellTime(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range cellTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// GenerateYear fills one calendar year with synthetic cases: 3-8 weekday
// procedures, the occasional weekend emergency, durations of 30-180
// minutes across suites OR-1..OR-4 with roster doctors.
func (s *Service) GenerateYear(ctx context.Context, year int, seed int64) (int, error) {
	rng := rand.New(rand.NewSource(seed))
	suites := []string{"OR-1", "OR-2", "OR-3", "OR-4"}
	minutes := []int{0, 15, 30, 45}

	var cases []*model.SurgeryCase
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	for current := start; !current.After(end); current = current.AddDate(0, 0, 1) {
		volume := rng.Intn(3) // weekends: 0-2
		if wd := current.Weekday(); wd != time.Saturday && wd != time.Sunday {
			volume = 3 + rng.Intn(6) // weekdays: 3-8
		}

		for i := 0; i < volume; i++ {
			specialty := model.Specialties[rng.Intn(len(model.Specialties))]
			roster := model.DoctorsBySpecialty[specialty]
			doctor := roster[rng.Intn(len(roster))]
			suite := suites[rng.Intn(len(suites))]
			duration := float64(30 + rng.Intn(151))

			wheelsIn := time.Date(current.Year(), current.Month(), current.Day(),
				8+rng.Intn(9), minutes[rng.Intn(len(minutes))], 0, 0, time.UTC)
			wheelsOut := wheelsIn.Add(time.Duration(duration) * time.Minute)
			patient := fmt.Sprintf("Patient-%d", 1000+rng.Intn(9000))

			cases = append(cases, &model.SurgeryCase{
				Date:           current,
				ORSuite:        suite,
				Service:        specialty,
				BookedTime:     duration,
				WheelsIn:       &wheelsIn,
				WheelsOut:      &wheelsOut,
				ActualDuration: &duration,
				PatientName:    &patient,
				DoctorName:     &doctor,
			})
		}
	}

	if err := s.repo.CreateBatch(ctx, cases); err != nil {
		return 0, fmt.Errorf("failed to insert synthetic cases: %w", err)
	}
	log.Info().Int("inserted", len(cases)).Int("year", year).Msg("synthetic year generated")
	return len(cases), nil
}

// BackfillDoctors assigns a roster doctor to cases missing one, by exact
// specialty match against the closed enumeration. Cases with a specialty
// outside the roster stay unassigned.
func (s *Service) BackfillDoctors(ctx context.Context, seed int64) (int, error) {
	missing, err := s.repo.ListMissingDoctor(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list cases missing a doctor: %w", err)
	}

	rng := rand.New(rand.NewSource(seed))
	updated := 0
	for _, c := range missing {
		roster, ok := model.DoctorsBySpecialty[c.Service]
		if !ok {
			continue
		}
		doctor := roster[rng.Intn(len(roster))]
		if err := s.repo.UpdateDoctor(ctx, c.ID, doctor); err != nil {
			return updated, fmt.Errorf("failed to backfill doctor for case %d: %w", c.ID, err)
		}
		updated++
	}

	log.Info().Int("updated", updated).Int("unmatched", len(missing)-updated).Msg("doctor backfill complete")
	return updated, nil
}
