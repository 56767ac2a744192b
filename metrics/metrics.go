// Package metrics provides the metrics interface for the simulator.
package metrics

import "time"

// Metrics defines the interface for collecting observability metrics.
// Implementations can use Prometheus or other metrics backends.
type Metrics interface {
	// Run metrics
	RunStarted(scenario string)
	RunCompleted(scenario string, duration time.Duration)
	RunFailed(scenario string, reason string)

	// Step metrics
	StepStarted(scenario, step string)
	StepCompleted(scenario, step string, duration time.Duration)
	StepFailed(scenario, step string, reason string)

	// Compensation metrics
	CompensationTriggered(scenario string)

	// Speed control metrics
	SpeedChanged(factor float64)
}

// NoopMetrics is a no-op implementation of Metrics for testing or when
// metrics are disabled.
type NoopMetrics struct{}

var _ Metrics = (*NoopMetrics)(nil)

func (n *NoopMetrics) RunStarted(scenario string)                           {}
func (n *NoopMetrics) RunCompleted(scenario string, duration time.Duration) {}
func (n *NoopMetrics) RunFailed(scenario string, reason string)             {}
func (n *NoopMetrics) StepStarted(scenario, step string)                    {}
func (n *NoopMetrics) StepCompleted(scenario, step string, d time.Duration) {}
func (n *NoopMetrics) StepFailed(scenario, step string, reason string)      {}
func (n *NoopMetrics) CompensationTriggered(scenario string)                {}
func (n *NoopMetrics) SpeedChanged(factor float64)                          {}
