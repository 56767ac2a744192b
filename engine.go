// Package procsim implements an in-memory orchestration simulator for a
// BPEL-style order process: receive, authorize payment, decision, reserve
// inventory, compensate with a refund when reservation fails after a
// successful payment, and reply. Runs are single-flight, ephemeral, and
// driven by canned scenarios; all simulated waits are scaled by a speed
// controller.
package procsim

import (
	"context"
	"sync"
	"time"

	"procsim/clock"
	"procsim/event"
	"procsim/lock"
	"procsim/metrics"
	"procsim/service"
	"procsim/tracing"
)

// KPISnapshot is the observability snapshot exposed at any time.
type KPISnapshot struct {
	// ElapsedMs is the live elapsed time of the active run, frozen at the
	// final total once the run terminates.
	ElapsedMs int64
	// ExecutedSteps is the number of steps that reached a terminal state.
	ExecutedSteps int
	// RetryCount is always zero: the simulator has no retry logic.
	RetryCount int
}

// Engine is the main entry point for the simulator. It owns the clock,
// the step states, the process variables and the event ledger, and
// exposes the trigger surface, the speed input and the observability
// reads.
type Engine struct {
	clock    *clock.Controller
	services Services
	steps    *StepSet
	vars     *Variables
	ledger   *event.Ledger
	gate     lock.Gate
	metrics  metrics.Metrics
	tracer   tracing.Tracer
	config   Config

	orchestrator *Orchestrator

	mu  sync.RWMutex
	run *RunContext // active run, or the last finished one
}

// EngineOption is a function that configures the Engine.
type EngineOption func(*Engine)

// WithEngineClock sets the speed controller.
func WithEngineClock(c *clock.Controller) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithEngineServices sets the simulated service collaborators.
func WithEngineServices(s Services) EngineOption {
	return func(e *Engine) {
		e.services = s
	}
}

// WithEngineLedger sets the event ledger.
func WithEngineLedger(l *event.Ledger) EngineOption {
	return func(e *Engine) {
		e.ledger = l
	}
}

// WithEngineGate sets the single-flight gate.
func WithEngineGate(g lock.Gate) EngineOption {
	return func(e *Engine) {
		e.gate = g
	}
}

// WithEngineMetrics sets the metrics collector.
func WithEngineMetrics(m metrics.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithEngineTracer sets the tracer.
func WithEngineTracer(t tracing.Tracer) EngineOption {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithEngineConfig sets the timing configuration.
func WithEngineConfig(cfg Config) EngineOption {
	return func(e *Engine) {
		e.config = cfg
	}
}

// NewEngine creates a new Engine with the given options. Components not
// provided are created with their defaults.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		metrics: &metrics.NoopMetrics{},
		tracer:  &tracing.NoopTracer{},
		config:  DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.clock == nil {
		e.clock = clock.NewController()
	}
	if e.services == nil {
		e.services = service.NewStubs(e.clock,
			service.WithAuthorizeWindow(e.config.AuthorizeWindow),
			service.WithReserveWindow(e.config.ReserveWindow),
			service.WithRefundWindow(e.config.RefundWindow),
		)
	}
	if e.ledger == nil {
		e.ledger = event.NewLedger()
	}
	if e.gate == nil {
		e.gate = lock.NewMemoryGate()
	}
	e.steps = NewStepSet()
	e.vars = NewVariables()

	e.orchestrator = NewOrchestrator(
		WithServices(e.services),
		WithWaiter(e.clock),
		WithStepSet(e.steps),
		WithVariables(e.vars),
		WithLedger(e.ledger),
		WithMetrics(e.metrics),
		WithTracer(e.tracer),
		WithOrchestratorConfig(e.config),
	)

	return e
}

// StartHappyPath starts the approved-and-reserved scenario. It reports
// whether the run was started; false means a run is already active and
// the trigger was ignored.
func (e *Engine) StartHappyPath() bool { return e.Start(ScenarioHappy) }

// StartRejectPath starts the payment-declined scenario.
func (e *Engine) StartRejectPath() bool { return e.Start(ScenarioReject) }

// StartNoStockPath starts the compensation scenario.
func (e *Engine) StartNoStockPath() bool { return e.Start(ScenarioNoStock) }

// Start launches a run asynchronously. A trigger while a run is active is
// a silent no-op: not queued, not an error.
func (e *Engine) Start(scenario Scenario) bool {
	if _, err := OrderFor(scenario); err != nil {
		return false
	}
	if !e.gate.TryAcquire() {
		return false
	}
	go func() {
		defer e.gate.Release()
		e.execute(context.Background(), scenario)
	}()
	return true
}

// Run executes a scenario synchronously and returns its result. It
// returns ErrRunActive when a run is already in progress.
func (e *Engine) Run(ctx context.Context, scenario Scenario) (*RunResult, error) {
	if _, err := OrderFor(scenario); err != nil {
		return nil, err
	}
	if !e.gate.TryAcquire() {
		return nil, ErrRunActive
	}
	defer e.gate.Release()
	return e.execute(ctx, scenario)
}

// execute performs one run with the gate already held.
func (e *Engine) execute(ctx context.Context, scenario Scenario) (*RunResult, error) {
	// Fresh state before stage 1: variables, ledger and step states of
	// the previous run are discarded.
	e.vars.Reset()
	e.ledger.Reset()
	e.steps.ResetAll()

	run := NewRunContext(scenario)
	e.mu.Lock()
	e.run = run
	e.mu.Unlock()

	stop := e.startElapsedTicker(run)
	defer stop()

	result, err := e.orchestrator.Execute(ctx, run)

	// Stop the ticker before freezing so the final total is not
	// overwritten by a late tick.
	stop()
	run.SetElapsed(result.Duration)
	return result, err
}

// startElapsedTicker runs the high-frequency elapsed-time observable for
// the duration of the run. The returned stop function is idempotent; the
// ticker is stopped exactly once.
func (e *Engine) startElapsedTicker(run *RunContext) func() {
	ticker := time.NewTicker(e.config.TickInterval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				run.SetElapsed(time.Since(run.StartTime))
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// SetSpeed applies a speed control input in [1,200] (clamped) and returns
// the resulting speed factor. It takes effect for all subsequent waits,
// including those of an active run.
func (e *Engine) SetSpeed(level int) float64 {
	factor := e.clock.SetLevel(level)
	e.metrics.SpeedChanged(factor)
	return factor
}

// Speed returns the current speed factor.
func (e *Engine) Speed() float64 {
	return e.clock.Factor()
}

// Status returns the run status: ready before the first run, otherwise
// the status of the active or last run.
func (e *Engine) Status() RunStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.run == nil {
		return RunStatusReady
	}
	return e.run.Status()
}

// KPI returns the observability snapshot for the active or last run.
func (e *Engine) KPI() KPISnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.run == nil {
		return KPISnapshot{}
	}
	return KPISnapshot{
		ElapsedMs:     e.run.ElapsedMs(),
		ExecutedSteps: e.run.ExecutedSteps(),
		RetryCount:    0,
	}
}

// Variables returns a snapshot of the process variables.
func (e *Engine) Variables() ProcessVariables {
	return e.vars.Snapshot()
}

// Events returns the ledger contents in append order.
func (e *Engine) Events() []event.Event {
	return e.ledger.Events()
}

// Ledger returns the event ledger for subscriptions.
func (e *Engine) Ledger() *event.Ledger {
	return e.ledger
}

// Steps returns a snapshot of all step runtime states.
func (e *Engine) Steps() map[StepID]StepState {
	return e.steps.Snapshot()
}

// Clock returns the speed controller.
func (e *Engine) Clock() *clock.Controller {
	return e.clock
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}
