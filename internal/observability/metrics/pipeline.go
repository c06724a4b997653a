package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics covers the case-analysis pipeline. All methods are nil-safe
// so adapters constructed without metrics keep working.
type PipelineMetrics struct {
	runsTotal          *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec
	ocrTimeoutsTotal   *prometheus.CounterVec
	ocrLocalFastPaths  *prometheus.CounterVec
	analysisFallbacks  *prometheus.CounterVec
	confidenceScores   *prometheus.HistogramVec
	consultationsTotal *prometheus.CounterVec
	prefillTotal       *prometheus.CounterVec
}

func newPipelineMetrics(registry *prometheus.Registry) *PipelineMetrics {
	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Completed analysis runs by terminal outcome.",
		},
		[]string{"service", "outcome"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "backoffice",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 15, 30, 60, 120},
		},
		[]string{"service", "stage"},
	)
	ocrTimeoutsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "ocr",
			Name:      "timeouts_total",
			Help:      "Per-document OCR deadline hits recovered as placeholder text.",
		},
		[]string{"service"},
	)
	ocrLocalFastPaths := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "ocr",
			Name:      "local_fast_paths_total",
			Help:      "Documents resolved from a local text layer without remote OCR.",
		},
		[]string{"service", "kind"},
	)
	analysisFallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "pipeline",
			Name:      "analysis_fallbacks_total",
			Help:      "Legal-analysis responses replaced by the safe-default object.",
		},
		[]string{"service"},
	)
	confidenceScores := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "backoffice",
			Subsystem: "pipeline",
			Name:      "confidence_score",
			Help:      "Distribution of published confidence scores.",
			Buckets:   []float64{0, 10, 20, 40, 60, 80, 90, 95, 100},
		},
		[]string{"service"},
	)
	consultationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "consultation",
			Name:      "requests_total",
			Help:      "Medical-consultation requests by status.",
		},
		[]string{"service", "status"},
	)
	prefillTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "prefill",
			Name:      "requests_total",
			Help:      "Metadata pre-fill requests by status.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(
		runsTotal,
		stageDuration,
		ocrTimeoutsTotal,
		ocrLocalFastPaths,
		analysisFallbacks,
		confidenceScores,
		consultationsTotal,
		prefillTotal,
	)

	return &PipelineMetrics{
		runsTotal:          runsTotal,
		stageDuration:      stageDuration,
		ocrTimeoutsTotal:   ocrTimeoutsTotal,
		ocrLocalFastPaths:  ocrLocalFastPaths,
		analysisFallbacks:  analysisFallbacks,
		confidenceScores:   confidenceScores,
		consultationsTotal: consultationsTotal,
		prefillTotal:       prefillTotal,
	}
}

func (m *PipelineMetrics) RecordRun(service, outcome string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(service, outcome).Inc()
}

func (m *PipelineMetrics) ObserveStage(service, stage string, duration time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(service, stage).Observe(duration.Seconds())
}

func (m *PipelineMetrics) RecordOCRTimeout(service string) {
	if m == nil {
		return
	}
	m.ocrTimeoutsTotal.WithLabelValues(service).Inc()
}

func (m *PipelineMetrics) RecordLocalFastPath(service, kind string) {
	if m == nil {
		return
	}
	m.ocrLocalFastPaths.WithLabelValues(service, kind).Inc()
}

func (m *PipelineMetrics) RecordAnalysisFallback(service string) {
	if m == nil {
		return
	}
	m.analysisFallbacks.WithLabelValues(service).Inc()
}

func (m *PipelineMetrics) ObserveConfidence(service string, score int) {
	if m == nil {
		return
	}
	m.confidenceScores.WithLabelValues(service).Observe(float64(score))
}

func (m *PipelineMetrics) RecordConsultation(service string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.consultationsTotal.WithLabelValues(service, status).Inc()
}

func (m *PipelineMetrics) RecordPrefill(service string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.prefillTotal.WithLabelValues(service, status).Inc()
}
