package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vdsobench/internal/benchmark"
	"vdsobench/internal/report"
	"vdsobench/internal/stress"
)

const namespace = "vdsobench"

// Metrics represents the collection of all Prometheus metrics of one
// process. Every metric lives on the private registry so tests and
// embedders never collide with the default one.
type Metrics struct {
	registry *prometheus.Registry

	// Suite
	VerdictsTotal *prometheus.CounterVec
	CheckValue    *prometheus.GaugeVec
	SuiteChecks   *prometheus.GaugeVec
	SuitePassRate prometheus.Gauge

	// Benchmarks
	BenchAvgCycles   *prometheus.GaugeVec
	BenchMinCycles   *prometheus.GaugeVec
	BenchP99Cycles   *prometheus.GaugeVec
	BenchCallsPerSec *prometheus.GaugeVec
	CounterHz        prometheus.Gauge

	// Stress
	StressCalls    *prometheus.CounterVec
	StressFailures *prometheus.CounterVec
	StressDuration *prometheus.GaugeVec

	// Exporter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.VerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Total number of check verdicts by category and status",
		},
		[]string{"category", "status"},
	)

	m.CheckValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "check_value",
			Help:      "Measured value of the last run of each check",
		},
		[]string{"check", "unit"},
	)

	m.SuiteChecks = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "suite_checks",
			Help:      "Checks of the last suite run by status",
		},
		[]string{"status"},
	)

	m.SuitePassRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "suite_pass_rate",
			Help:      "Fraction of checks that passed in the last suite run",
		},
	)

	benchLabels := []string{"label", "source"}
	m.BenchAvgCycles = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bench_avg_cycles",
			Help:      "Average counter ticks per call",
		},
		benchLabels,
	)

	m.BenchMinCycles = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bench_min_cycles",
			Help:      "Minimum counter ticks per call",
		},
		benchLabels,
	)

	m.BenchP99Cycles = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bench_p99_cycles",
			Help:      "99th percentile counter ticks per call",
		},
		benchLabels,
	)

	m.BenchCallsPerSec = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bench_calls_per_second",
			Help:      "Estimated calls per second (0 when the frequency is unknown)",
		},
		benchLabels,
	)

	m.CounterHz = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "counter_frequency_hz",
			Help:      "Calibrated cycle counter frequency (0 when unknown)",
		},
	)

	m.StressCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stress_calls_total",
			Help:      "Total time reads made by stress workers",
		},
		[]string{"scenario"},
	)

	m.StressFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stress_failures_total",
			Help:      "Stress scenarios that did not succeed",
		},
		[]string{"scenario"},
	)

	m.StressDuration = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stress_duration_seconds",
			Help:      "Wall time of the last run of each stress scenario",
		},
		[]string{"scenario"},
	)

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.registry.MustRegister(
		m.VerdictsTotal,
		m.CheckValue,
		m.SuiteChecks,
		m.SuitePassRate,
		m.BenchAvgCycles,
		m.BenchMinCycles,
		m.BenchP99Cycles,
		m.BenchCallsPerSec,
		m.CounterHz,
		m.StressCalls,
		m.StressFailures,
		m.StressDuration,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveVerdict records one verdict.
func (m *Metrics) ObserveVerdict(v report.Verdict) {
	m.VerdictsTotal.WithLabelValues(string(v.Category), v.Status()).Inc()
	if !v.Skipped && v.Err == nil && v.Unit != "" {
		m.CheckValue.WithLabelValues(v.Name, v.Unit).Set(v.Value)
	}
}

// ObserveSummary records the final tally of a suite run.
func (m *Metrics) ObserveSummary(s report.Summary) {
	m.SuiteChecks.WithLabelValues("passed").Set(float64(s.Passed))
	m.SuiteChecks.WithLabelValues("failed").Set(float64(s.Failed))
	m.SuiteChecks.WithLabelValues("skipped").Set(float64(s.Skipped))
	m.SuitePassRate.Set(s.PassRate)
}

// ObserveResult records a benchmark result.
func (m *Metrics) ObserveResult(r benchmark.Result) {
	m.BenchAvgCycles.WithLabelValues(r.Label, r.Source).Set(r.AvgCycles)
	m.BenchMinCycles.WithLabelValues(r.Label, r.Source).Set(float64(r.MinCycles))
	m.BenchP99Cycles.WithLabelValues(r.Label, r.Source).Set(float64(r.P99Cycles))
	m.BenchCallsPerSec.WithLabelValues(r.Label, r.Source).Set(r.CallsPerSec)
}

// ObserveStress records a joined stress scenario.
func (m *Metrics) ObserveStress(a stress.Aggregate) {
	m.StressCalls.WithLabelValues(a.Scenario).Add(float64(a.TotalCalls))
	m.StressDuration.WithLabelValues(a.Scenario).Set(a.Elapsed.Seconds())
	if !a.AllSucceeded {
		m.StressFailures.WithLabelValues(a.Scenario).Inc()
	}
}

// SetFrequency records the calibrated counter frequency.
func (m *Metrics) SetFrequency(hz float64, known bool) {
	if !known {
		hz = 0
	}
	m.CounterHz.Set(hz)
}

// WriteTextfile writes every metric in the text exposition format, for
// node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// RequestTrackingMiddleware counts and times HTTP requests.
func (m *Metrics) RequestTrackingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, http.StatusText(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// responseWriter is a wrapper to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Handler serves the private registry, with request tracking.
func (m *Metrics) Handler() http.Handler {
	return m.RequestTrackingMiddleware(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry}))
}
