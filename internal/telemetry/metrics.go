// Package telemetry owns the Prometheus metrics and OpenTelemetry tracer
// shared across the service.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the service counters. Register once per process.
type Metrics struct {
	DetectionsTotal      prometheus.Counter
	SpoofVerdictsTotal   prometheus.Counter
	LedgerAppendsTotal   prometheus.Counter
	LedgerAppendFailures prometheus.Counter
	ModelFallbacksTotal  prometheus.Counter
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics returns the process-wide metrics set, registering the
// collectors with the default registry on first call.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			DetectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "wichain_detections_total",
				Help: "Total detection passes executed.",
			}),
			SpoofVerdictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "wichain_spoof_verdicts_total",
				Help: "Detections that concluded spoofed.",
			}),
			LedgerAppendsTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "wichain_ledger_appends_total",
				Help: "Blocks appended to the verdict ledger.",
			}),
			LedgerAppendFailures: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "wichain_ledger_append_failures_total",
				Help: "Ledger appends that failed after a spoof verdict.",
			}),
			ModelFallbacksTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "wichain_model_fallbacks_total",
				Help: "Detections that fell back to rules only because no model was available.",
			}),
		}
		prometheus.MustRegister(
			metrics.DetectionsTotal,
			metrics.SpoofVerdictsTotal,
			metrics.LedgerAppendsTotal,
			metrics.LedgerAppendFailures,
			metrics.ModelFallbacksTotal,
		)
	})
	return metrics
}
