// Package prometheus provides a Prometheus implementation of the metrics
// interface.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"procsim/metrics"
)

// PrometheusMetrics implements the Metrics interface using Prometheus.
type PrometheusMetrics struct {
	// Run metrics
	runStartedTotal   *prometheus.CounterVec
	runCompletedTotal *prometheus.CounterVec
	runFailedTotal    *prometheus.CounterVec
	runDuration       *prometheus.HistogramVec

	// Step metrics
	stepStartedTotal   *prometheus.CounterVec
	stepCompletedTotal *prometheus.CounterVec
	stepFailedTotal    *prometheus.CounterVec
	stepDuration       *prometheus.HistogramVec

	// Compensation metrics
	compensationTotal *prometheus.CounterVec

	// Speed control metrics
	speedFactor prometheus.Gauge
}

var _ metrics.Metrics = (*PrometheusMetrics)(nil)

// Config holds configuration for PrometheusMetrics.
type Config struct {
	// Namespace is the prefix for all metrics (e.g., "procsim")
	Namespace string
	// Subsystem is an optional subsystem name
	Subsystem string
	// Registry is the Prometheus registry to use. If nil, the default
	// registry is used.
	Registry prometheus.Registerer
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Namespace: "procsim",
		Subsystem: "",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// New creates a new PrometheusMetrics instance with the given
// configuration.
func New(cfg Config) *PrometheusMetrics {
	if cfg.Registry == nil {
		cfg.Registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(cfg.Registry)

	return &PrometheusMetrics{
		runStartedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "run_started_total",
			Help:      "Total number of runs started",
		}, []string{"scenario"}),

		runCompletedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "run_completed_total",
			Help:      "Total number of runs completed without technical failure",
		}, []string{"scenario"}),

		runFailedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "run_failed_total",
			Help:      "Total number of runs aborted on a technical failure",
		}, []string{"scenario", "reason"}),

		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "run_duration_seconds",
			Help:      "Run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		}, []string{"scenario"}),

		stepStartedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "step_started_total",
			Help:      "Total number of steps started",
		}, []string{"scenario", "step"}),

		stepCompletedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "step_completed_total",
			Help:      "Total number of steps completed with a positive outcome",
		}, []string{"scenario", "step"}),

		stepFailedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "step_failed_total",
			Help:      "Total number of steps finishing with a business rejection",
		}, []string{"scenario", "step", "reason"}),

		stepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "step_duration_seconds",
			Help:      "Step duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		}, []string{"scenario", "step"}),

		compensationTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "compensation_total",
			Help:      "Total number of compensations triggered",
		}, []string{"scenario"}),

		speedFactor: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "speed_factor",
			Help:      "Current speed factor applied to simulated waits",
		}),
	}
}

// RunStarted increments the run started counter.
func (m *PrometheusMetrics) RunStarted(scenario string) {
	m.runStartedTotal.WithLabelValues(scenario).Inc()
}

// RunCompleted increments the run completed counter and observes the
// duration.
func (m *PrometheusMetrics) RunCompleted(scenario string, duration time.Duration) {
	m.runCompletedTotal.WithLabelValues(scenario).Inc()
	m.runDuration.WithLabelValues(scenario).Observe(duration.Seconds())
}

// RunFailed increments the run failed counter.
func (m *PrometheusMetrics) RunFailed(scenario string, reason string) {
	m.runFailedTotal.WithLabelValues(scenario, reason).Inc()
}

// StepStarted increments the step started counter.
func (m *PrometheusMetrics) StepStarted(scenario, step string) {
	m.stepStartedTotal.WithLabelValues(scenario, step).Inc()
}

// StepCompleted increments the step completed counter and observes the
// duration.
func (m *PrometheusMetrics) StepCompleted(scenario, step string, duration time.Duration) {
	m.stepCompletedTotal.WithLabelValues(scenario, step).Inc()
	m.stepDuration.WithLabelValues(scenario, step).Observe(duration.Seconds())
}

// StepFailed increments the step failed counter.
func (m *PrometheusMetrics) StepFailed(scenario, step string, reason string) {
	m.stepFailedTotal.WithLabelValues(scenario, step, reason).Inc()
}

// CompensationTriggered increments the compensation counter.
func (m *PrometheusMetrics) CompensationTriggered(scenario string) {
	m.compensationTotal.WithLabelValues(scenario).Inc()
}

// SpeedChanged records the current speed factor.
func (m *PrometheusMetrics) SpeedChanged(factor float64) {
	m.speedFactor.Set(factor)
}
