package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Training related metrics
	TrainingRuns     *prometheus.CounterVec
	TrainingSetSize  prometheus.Gauge
	TrainingDuration prometheus.Histogram

	// Prediction metrics
	PredictionsServed  *prometheus.CounterVec
	PredictionLatency  prometheus.Histogram
	PredictionFallback prometheus.Counter

	// Case store metrics
	CasesCreated prometheus.Counter
	CasesDeleted prometheus.Counter
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		TrainingRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "training_runs_total",
			Help:      "Total number of training runs by outcome",
		}, []string{"outcome"}),
		TrainingSetSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "training_set_size",
			Help:      "Row count of the most recent successful fit",
		}),
		TrainingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "training_duration_seconds",
			Help:      "Time spent fitting the duration model",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		PredictionsServed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "predictions_served_total",
			Help:      "Total predictions served by source",
		}, []string{"source"}),
		PredictionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "prediction_duration_seconds",
			Help:      "Time spent serving a single prediction",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		PredictionFallback: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "prediction_fallback_total",
			Help:      "Predictions that required the reduced-feature retry",
		}),
		CasesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cases_created_total",
			Help:      "Total surgery cases inserted",
		}),
		CasesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cases_deleted_total",
			Help:      "Total surgery cases deleted",
		}),
	}
}
