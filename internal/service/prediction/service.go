package prediction

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orsched/or-dashboard/internal/model"
	"github.com/orsched/or-dashboard/internal/repository"
	apperrors "github.com/orsched/or-dashboard/pkg/errors"
	"github.com/orsched/or-dashboard/pkg/metrics"
)

// Durations outside this band are data-entry noise (1-minute test rows,
// day-long timestamp errors) and never reach the fit.
const (
	minPlausibleDuration = 15.0
	maxPlausibleDuration = 480.0
)

const defaultBaselineMinutes = 60.0

type Service struct {
	repo    repository.CaseRepository
	holder  *Holder
	cfg     ForestConfig
	metrics *metrics.Metrics
}

func NewService(repo repository.CaseRepository, holder *Holder, cfg ForestConfig, m *metrics.Metrics) *Service {
	if cfg.Trees == 0 {
		cfg = DefaultForestConfig()
	}
	return &Service{
		repo:    repo,
		holder:  holder,
		cfg:     cfg,
		metrics: m,
	}
}

// Holder exposes the model holder so the case service can clear the model
// together with the store.
func (s *Service) Holder() *Holder {
	return s.holder
}

// Train loads all completed cases, drops implausible durations, fits a
// fresh forest and swaps it in. A failed run leaves the previous model in
// place; only a store wipe clears it.
func (s *Service) Train(ctx context.Context) (*model.TrainingResult, error) {
	start := time.Now()

	rows, err := s.repo.ListCompleted(ctx)
	if err != nil {
		s.countTraining("failed")
		return nil, fmt.Errorf("training failed: %w", err)
	}

	eligible := make([]*model.SurgeryCase, 0, len(rows))
	for _, c := range rows {
		if c.ActualDuration == nil {
			continue
		}
		if d := *c.ActualDuration; d > minPlausibleDuration && d < maxPlausibleDuration {
			eligible = append(eligible, c)
		}
	}

	if len(eligible) == 0 {
		s.countTraining("no_data")
		return nil, apperrors.NewNoTrainingData()
	}

	schema := buildSchema(eligible)
	x := make([][]float64, len(eligible))
	y := make([]float64, len(eligible))
	for i, c := range eligible {
		x[i] = schema.Encode(featuresFromCase(c))
		y[i] = *c.ActualDuration
	}

	forest := FitForest(x, y, s.cfg)

	fitted := &FittedModel{
		Forest:      forest,
		Schema:      schema,
		TrainedRows: len(eligible),
		TrainedAt:   time.Now(),
	}
	s.holder.Set(fitted)

	if s.metrics != nil {
		s.metrics.TrainingRuns.WithLabelValues("success").Inc()
		s.metrics.TrainingSetSize.Set(float64(fitted.TrainedRows))
		s.metrics.TrainingDuration.Observe(time.Since(start).Seconds())
	}
	log.Info().Int("rows", fitted.TrainedRows).Msg("duration model trained")

	return &model.TrainingResult{
		TrainedRows: fitted.TrainedRows,
		TrainedAt:   fitted.TrainedAt,
	}, nil
}

// Predict is the primary path: it fails fast with a typed model-unavailable
// error when nothing is fitted, and persists the estimated case.
func (s *Service) Predict(ctx context.Context, req *model.PredictionRequest) (*model.PredictionResponse, error) {
	fitted := s.holder.Get()
	if fitted == nil {
		return nil, apperrors.NewModelUnavailable(nil)
	}
	return s.predictAndPersist(ctx, fitted, req)
}

// PredictAuto is the convenience variant: it trains on demand when no model
// exists before serving. The estimate is returned without persisting a case.
func (s *Service) PredictAuto(ctx context.Context, req *model.PredictionRequest) (*model.PredictionResponse, error) {
	fitted := s.holder.Get()
	if fitted == nil {
		if _, err := s.Train(ctx); err != nil {
			return nil, apperrors.NewModelUnavailable(err)
		}
		fitted = s.holder.Get()
	}

	feats, err := featuresFromRequest(req)
	if err != nil {
		return nil, err
	}
	val, err := s.predictValue(fitted, feats)
	if err != nil {
		return nil, err
	}

	s.countPrediction(model.PredictionSourceModel)
	return &model.PredictionResponse{
		PredictedDuration: round1(val),
		Source:            model.PredictionSourceModel,
	}, nil
}

// PredictBaseline reports the historical mean for the service (60 minutes
// when there is no history) and, when a model exists, refines it by feeding
// the mean through the model as a stand-in booked time. The response names
// which source produced the number.
func (s *Service) PredictBaseline(ctx context.Context, req *model.BaselineRequest) (*model.PredictionResponse, error) {
	avg, err := s.repo.AvgDurationForService(ctx, req.Service)
	if err != nil {
		return nil, fmt.Errorf("failed to compute baseline: %w", err)
	}

	baseline := defaultBaselineMinutes
	if avg != nil {
		baseline = *avg
	}

	fitted := s.holder.Get()
	if fitted == nil {
		s.countPrediction(model.PredictionSourceBaseline)
		return &model.PredictionResponse{
			PredictedDuration: math.Round(baseline),
			Source:            model.PredictionSourceBaseline,
		}, nil
	}

	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}
	feats := Features{
		Service:    req.Service,
		BookedTime: baseline,
		DayOfWeek:  DayOfWeek(date),
	}

	val, err := s.predictValue(fitted, feats)
	if err != nil {
		// Refinement is best effort; the historical mean still stands.
		log.Warn().Err(err).Str("service", req.Service).Msg("baseline refinement failed")
		s.countPrediction(model.PredictionSourceBaseline)
		return &model.PredictionResponse{
			PredictedDuration: math.Round(baseline),
			Source:            model.PredictionSourceBaseline,
		}, nil
	}

	s.countPrediction(model.PredictionSourceModel)
	return &model.PredictionResponse{
		PredictedDuration: math.Round(val),
		Source:            model.PredictionSourceModel,
	}, nil
}

func (s *Service) predictAndPersist(ctx context.Context, fitted *FittedModel, req *model.PredictionRequest) (*model.PredictionResponse, error) {
	start := time.Now()

	feats, err := featuresFromRequest(req)
	if err != nil {
		return nil, err
	}

	val, err := s.predictValue(fitted, feats)
	if err != nil {
		return nil, err
	}
	predicted := round1(val)

	c := &model.SurgeryCase{
		Date:           req.Date,
		ORSuite:        req.ORSuite,
		Service:        req.Service,
		BookedTime:     feats.BookedTime,
		ActualDuration: &predicted,
		PatientName:    req.PatientName,
		DoctorName:     req.DoctorName,
		Complexity:     req.Complexity,
		IsPrediction:   true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to persist predicted case: %w", err)
	}

	if s.metrics != nil {
		s.metrics.PredictionLatency.Observe(time.Since(start).Seconds())
	}
	s.countPrediction(model.PredictionSourceModel)

	return &model.PredictionResponse{
		PredictedDuration: predicted,
		CaseID:            &c.ID,
		Source:            model.PredictionSourceModel,
	}, nil
}

// predictValue runs the model, retrying once with the optional fields
// stripped when the first attempt fails. A second failure surfaces as a
// schema mismatch.
func (s *Service) predictValue(fitted *FittedModel, feats Features) (float64, error) {
	val, err := safePredict(fitted, feats)
	if err == nil {
		return val, nil
	}

	reduced := feats
	reduced.Complexity = nil
	if val, retryErr := safePredict(fitted, reduced); retryErr == nil {
		if s.metrics != nil {
			s.metrics.PredictionFallback.Inc()
		}
		log.Warn().Err(err).Msg("prediction succeeded only after dropping optional features")
		return val, nil
	}

	return 0, apperrors.NewSchemaMismatch(err)
}

// safePredict scopes a misbehaving model to the single request. A model
// fitted before a code-level schema change can index out of range; that
// must not take the process down.
func safePredict(fitted *FittedModel, feats Features) (val float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model prediction failed: %v", r)
		}
	}()
	return fitted.Predict(feats), nil
}

func (s *Service) countTraining(outcome string) {
	if s.metrics != nil {
		s.metrics.TrainingRuns.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) countPrediction(source string) {
	if s.metrics != nil {
		s.metrics.PredictionsServed.WithLabelValues(source).Inc()
	}
}
