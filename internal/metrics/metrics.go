// Package metrics exposes Prometheus instruments for backend traffic, suite
// runs and snapshot updates.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reliability"

// Metrics groups the instruments registered on one registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	backendRequests *prometheus.CounterVec
	suiteRuns       *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	staleDiscards   prometheus.Counter
	threshold       prometheus.Gauge
	benchmarks      *prometheus.GaugeVec
}

// New registers all instruments on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// Labels: operation (benchmarks, run, runs, clear), outcome (ok, error)
		backendRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Backend requests by operation and outcome",
		}, []string{"operation", "outcome"}),

		// Labels: suite, status (success, needs_attention, soft_failure, error)
		suiteRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "suite",
			Name:      "runs_total",
			Help:      "Suite runs by suite and final status",
		}, []string{"suite", "status"}),

		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "suite",
			Name:      "run_duration_seconds",
			Help:      "Wall time of suite runs",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"suite"}),

		staleDiscards: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "stale_discards_total",
			Help:      "Fetch results dropped because a newer fetch was issued",
		}),

		threshold: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "threshold",
			Help:      "Active pass/fail threshold",
		}),

		// Labels: verdict (pass, fail)
		benchmarks: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "benchmarks",
			Help:      "Benchmarks in the current snapshot by verdict",
		}, []string{"verdict"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// BackendRequest counts one backend call.
func (m *Metrics) BackendRequest(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.backendRequests.WithLabelValues(operation, outcome).Inc()
}

// SuiteRun records a finished suite run.
func (m *Metrics) SuiteRun(suite, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.suiteRuns.WithLabelValues(suite, status).Inc()
	m.runDuration.WithLabelValues(suite).Observe(elapsed.Seconds())
}

// StaleDiscard counts a dropped fetch result.
func (m *Metrics) StaleDiscard() {
	if m == nil {
		return
	}
	m.staleDiscards.Inc()
}

// SetThreshold publishes the active threshold.
func (m *Metrics) SetThreshold(v float64) {
	if m == nil {
		return
	}
	m.threshold.Set(v)
}

// SetBenchmarks publishes the pass/fail split of the current snapshot.
func (m *Metrics) SetBenchmarks(pass, fail int) {
	if m == nil {
		return
	}
	m.benchmarks.WithLabelValues("pass").Set(float64(pass))
	m.benchmarks.WithLabelValues("fail").Set(float64(fail))
}
