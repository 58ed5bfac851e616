package surgery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/orsched/or-dashboard/internal/model"
	"github.com/orsched/or-dashboard/internal/repository"
	apperrors "github.com/orsched/or-dashboard/pkg/errors"
	"github.com/orsched/or-dashboard/pkg/metrics"
)

// ModelResetter clears the fitted duration model when the case store is
// wiped; a stale model must never outlive its training data.
type ModelResetter interface {
	Clear()
}

type Service struct {
	repo    repository.CaseRepository
	model   ModelResetter
	cache   *cache.Cache
	metrics *metrics.Metrics
}

func NewService(repo repository.CaseRepository, model ModelResetter, c *cache.Cache, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		model:   model,
		cache:   c,
		metrics: m,
	}
}

func (s *Service) CreateCase(ctx context.Context, req *model.CreateCaseRequest) (*model.SurgeryCase, error) {
	duration, err := deriveDuration(req.WheelsIn, req.WheelsOut)
	if err != nil {
		return nil, err
	}

	c := &model.SurgeryCase{
		Date:           req.Date,
		ORSuite:        req.ORSuite,
		Service:        req.Service,
		BookedTime:     req.BookedTime,
		WheelsIn:       req.WheelsIn,
		WheelsOut:      req.WheelsOut,
		ActualDuration: duration,
		PatientName:    req.PatientName,
		DoctorName:     req.DoctorName,
		Complexity:     req.Complexity,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create case: %w", err)
	}

	s.invalidate()
	if s.metrics != nil {
		s.metrics.CasesCreated.Inc()
	}
	return c, nil
}

func (s *Service) GetCase(ctx context.Context, id int64) (*model.SurgeryCase, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("case", err)
		}
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return c, nil
}

func (s *Service) UpdateCase(ctx context.Context, id int64, req *model.UpdateCaseRequest) (*model.SurgeryCase, error) {
	c, err := s.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Service != nil {
		c.Service = *req.Service
	}
	if req.ORSuite != nil {
		c.ORSuite = *req.ORSuite
	}
	if req.BookedTime != nil {
		c.BookedTime = *req.BookedTime
	}
	if req.WheelsIn != nil {
		c.WheelsIn = req.WheelsIn
	}
	if req.WheelsOut != nil {
		c.WheelsOut = req.WheelsOut
	}
	if req.PatientName != nil {
		c.PatientName = req.PatientName
	}
	if req.DoctorName != nil {
		c.DoctorName = req.DoctorName
	}
	if req.Complexity != nil {
		c.Complexity = req.Complexity
	}

	// Re-derive the duration whenever either timestamp moved.
	if req.WheelsIn != nil || req.WheelsOut != nil {
		duration, err := deriveDuration(c.WheelsIn, c.WheelsOut)
		if err != nil {
			return nil, err
		}
		c.ActualDuration = duration
	}

	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("case", err)
		}
		return nil, fmt.Errorf("failed to update case: %w", err)
	}

	s.invalidate()
	return c, nil
}

func (s *Service) DeleteCase(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewNotFound("case", err)
		}
		return fmt.Errorf("failed to delete case: %w", err)
	}

	s.invalidate()
	if s.metrics != nil {
		s.metrics.CasesDeleted.Inc()
	}
	return nil
}

// ClearAll wipes the store and drops the fitted model with it. The next
// prediction must take the no-model path, never a stale fit.
func (s *Service) ClearAll(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cases: %w", err)
	}

	s.model.Clear()
	s.invalidate()
	if s.metrics != nil {
		s.metrics.CasesDeleted.Add(float64(deleted))
	}
	log.Info().Int64("deleted", deleted).Msg("case store cleared, model reset")
	return deleted, nil
}

// ListCalendar returns all cases in the shape the dashboard calendar
// consumes.
func (s *Service) ListCalendar(ctx context.Context) ([]model.CalendarEvent, error) {
	cases, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}

	events := make([]model.CalendarEvent, 0, len(cases))
	for _, c := range cases {
		title := c.Service + " - No Name"
		if c.PatientName != nil && *c.PatientName != "" {
			title = c.Service + " - " + *c.PatientName
		}

		start := c.Date
		if c.WheelsIn != nil {
			start = *c.WheelsIn
		}

		events = append(events, model.CalendarEvent{
			ID:    c.ID,
			Title: title,
			Start: start,
			End:   c.WheelsOut,
			Props: model.CalendarProps{
				ORSuite:        c.ORSuite,
				Service:        c.Service,
				BookedTime:     c.BookedTime,
				ActualDuration: c.ActualDuration,
				PatientName:    c.PatientName,
				DoctorName:     c.DoctorName,
				IsPrediction:   c.IsPrediction,
			},
		})
	}
	return events, nil
}

// Schedule returns the cases for one calendar date ordered by wheels-in
// time; unscheduled rows show "TBD".
func (s *Service) Schedule(ctx context.Context, date time.Time) ([]model.ScheduleEntry, error) {
	cases, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}

	entries := make([]model.ScheduleEntry, 0, len(cases))
	for _, c := range cases {
		schedule := "TBD"
		if c.WheelsIn != nil {
			schedule = c.WheelsIn.Format("15:04")
		}
		entries = append(entries, model.ScheduleEntry{
			ORSuite:        c.ORSuite,
			Service:        c.Service,
			BookedTime:     c.BookedTime,
			ORSchedule:     schedule,
			ActualDuration: c.ActualDuration,
		})
	}
	return entries, nil
}

// deriveDuration computes wheels_out - wheels_in in minutes. A negative
// span is bad input and is rejected, never stored.
func deriveDuration(wheelsIn, wheelsOut *time.Time) (*float64, error) {
	if wheelsIn == nil || wheelsOut == nil {
		return nil, nil
	}
	if wheelsOut.Before(*wheelsIn) {
		return nil, apperrors.NewMalformedInput("wheels_out precedes wheels_in", nil)
	}
	minutes := wheelsOut.Sub(*wheelsIn).Minutes()
	return &minutes, nil
}

func (s *Service) invalidate() {
	if s.cache != nil {
		s.cache.Flush()
	}
}
