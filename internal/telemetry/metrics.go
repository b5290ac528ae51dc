package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "evaltable"

// Stage names used for the duration histogram.
const (
	StageLoad     = "load"
	StageCompile  = "compile"
	StageEvaluate = "evaluate"
	StageRender   = "render"
)

// Metrics counts evaluation work.
type Metrics struct {
	// RunsTotal counts runs by outcome (completed, failed).
	RunsTotal *prometheus.CounterVec

	// ProgramsTotal counts compiled programs.
	ProgramsTotal prometheus.Counter

	// RowsTotal counts input rows evaluated.
	RowsTotal prometheus.Counter

	// CellsTotal counts output cells by status (ok, domain_error, failed).
	CellsTotal *prometheus.CounterVec

	// StageSeconds measures each stage of a run.
	StageSeconds *prometheus.HistogramVec
}

// NewMetrics registers the evaluation metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "runs_total",
				Help:      "Evaluation runs by outcome",
			},
			[]string{"status"},
		),
		ProgramsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "programs_total",
			Help:      "Programs compiled",
		}),
		RowsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rows_total",
			Help:      "Input rows evaluated",
		}),
		CellsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "cells_total",
				Help:      "Output cells by status",
			},
			[]string{"status"},
		),
		StageSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of each run stage in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
			},
			[]string{"stage"},
		),
	}
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.StageSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordCells adds n cells with the given status.
func (m *Metrics) RecordCells(status string, n int) {
	if n > 0 {
		m.CellsTotal.WithLabelValues(status).Add(float64(n))
	}
}
