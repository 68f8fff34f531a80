package usecase

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"resume-builder/internal/domain"
)

// Metrics counts exports per format and result and times them.
type Metrics struct {
	exports  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the export collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		exports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resume_exports_total",
				Help: "Exports by format and result",
			},
			[]string{"format", "result"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "resume_export_duration_seconds",
				Help:    "Export duration in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 2, 5, 10, 30},
			},
			[]string{"format"},
		),
	}
}

func (m *Metrics) observe(f domain.Format, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.exports.WithLabelValues(string(f), result).Inc()
	m.duration.WithLabelValues(string(f)).Observe(time.Since(start).Seconds())
}
