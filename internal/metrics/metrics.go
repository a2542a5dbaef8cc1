package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BuildsTotal counts curve builds by result (ok, domain_error, invalid_config, invalid)
	BuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confcurve_builds_total",
		Help: "Total confidence curve builds by result",
	}, []string{"result"})

	// BuildDuration tracks build latency
	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "confcurve_build_duration_seconds",
		Help:    "Confidence curve build duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
	})

	// IntervalsEmitted tracks the size of emitted interval families
	IntervalsEmitted = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "confcurve_intervals_emitted",
		Help:    "Number of nested intervals per built curve",
		Buckets: []float64{2, 10, 50, 100, 500, 1000, 10000},
	})

	// DiagnosticsTotal counts non-fatal diagnostics by kind
	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confcurve_diagnostics_total",
		Help: "Non-fatal diagnostics raised during curve builds by kind",
	}, []string{"kind"})

	// RendersTotal counts renderer invocations by format and result
	RendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confcurve_renders_total",
		Help: "Total rendered curve artifacts by format and result",
	}, []string{"format", "result"})
)

// Build results
const (
	ResultOK            = "ok"
	ResultDomainError   = "domain_error"
	ResultInvalidConfig = "invalid_config"
	ResultInvalid       = "invalid"
	ResultError         = "error"
)
