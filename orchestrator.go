package procsim

import (
	"context"
	"fmt"
	"time"

	"procsim/event"
	"procsim/metrics"
	"procsim/service"
	"procsim/tracing"
)

// Services defines the external collaborators the orchestrator invokes.
// Implementations never signal a business rejection through the error
// return; errors are reserved for technical failure (cancellation).
type Services interface {
	Authorize(ctx context.Context, order service.Order) (service.AuthResult, time.Duration, error)
	Reserve(ctx context.Context, order service.Order) (service.InventoryResult, time.Duration, error)
	Refund(ctx context.Context, auth service.AuthResult) (service.RefundResult, time.Duration, error)
}

// Waiter performs speed-scaled waits for the fixed stage delays.
type Waiter = service.Waiter

// Orchestrator drives one run end to end: receive, authorize, branch,
// reserve, compensate if needed, reply. Stages are strictly sequential;
// every stage transition is paired with a ledger append.
type Orchestrator struct {
	services Services
	waiter   Waiter
	steps    *StepSet
	vars     *Variables
	ledger   *event.Ledger
	metrics  metrics.Metrics
	tracer   tracing.Tracer
	config   Config
}

// OrchestratorOption is a function that configures the Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithServices sets the simulated service collaborators.
func WithServices(s Services) OrchestratorOption {
	return func(o *Orchestrator) {
		o.services = s
	}
}

// WithWaiter sets the waiter used for fixed stage delays.
func WithWaiter(w Waiter) OrchestratorOption {
	return func(o *Orchestrator) {
		o.waiter = w
	}
}

// WithStepSet sets the step runtime state set.
func WithStepSet(s *StepSet) OrchestratorOption {
	return func(o *Orchestrator) {
		o.steps = s
	}
}

// WithVariables sets the process variable store.
func WithVariables(v *Variables) OrchestratorOption {
	return func(o *Orchestrator) {
		o.vars = v
	}
}

// WithLedger sets the event ledger.
func WithLedger(l *event.Ledger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.ledger = l
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m metrics.Metrics) OrchestratorOption {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithTracer sets the tracer.
func WithTracer(t tracing.Tracer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.tracer = t
	}
}

// WithOrchestratorConfig sets the timing configuration.
func WithOrchestratorConfig(cfg Config) OrchestratorOption {
	return func(o *Orchestrator) {
		o.config = cfg
	}
}

// NewOrchestrator creates a new Orchestrator with the given options.
func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		metrics: &metrics.NoopMetrics{},
		tracer:  &tracing.NoopTracer{},
		config:  DefaultConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.steps == nil {
		o.steps = NewStepSet()
	}
	if o.vars == nil {
		o.vars = NewVariables()
	}
	if o.ledger == nil {
		o.ledger = event.NewLedger()
	}
	return o
}

// Execute runs the scenario attached to the run context. It returns a
// result in every case; err is non-nil only for technical failure. Any
// panic escaping a stage is caught here, recorded as a fatal event, and
// surfaces as a run error with the partial variables retained.
func (o *Orchestrator) Execute(ctx context.Context, run *RunContext) (result *RunResult, err error) {
	start := run.StartTime
	ctx, span := o.tracer.StartRun(ctx, run.ID, run.Scenario.String())
	defer span.End()

	o.metrics.RunStarted(run.Scenario.String())

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrRunFailed, r)
			o.failRun(run, err)
			span.SetError(err)
			result = o.resultFor(run, start, err)
		}
	}()

	if err := o.runScenario(ctx, run); err != nil {
		err = fmt.Errorf("%w: %v", ErrRunFailed, err)
		o.failRun(run, err)
		span.SetError(err)
		return o.resultFor(run, start, err), err
	}

	o.finishRun(run, start)
	return o.resultFor(run, start, nil), nil
}

// runScenario executes the stage sequence. It returns an error only on
// technical failure; business rejections flow through the branches.
func (o *Orchestrator) runScenario(ctx context.Context, run *RunContext) error {
	order, err := OrderFor(run.Scenario)
	if err != nil {
		return err
	}

	// Stage 1 — receive
	if err := o.receive(ctx, run, order); err != nil {
		return err
	}

	// Stage 2 — authorize payment
	auth, err := o.authorize(ctx, run, order)
	if err != nil {
		return err
	}

	// Stage 3 — decision
	approved, err := o.decide(ctx, run, auth)
	if err != nil {
		return err
	}
	if !approved {
		// Rejected branch: reply and terminate. The process itself
		// completes successfully; only the order is rejected.
		return o.reply(ctx, run, Reply{Status: ReplyRejected, Message: "Orden rechazada - pago fallido"},
			o.config.ReplyDelay, "Enviando rechazo…", "Rechazo enviado", "Rechazo de orden enviado")
	}

	// Stage 4 — reserve inventory
	reserved, err := o.reserve(ctx, run, order)
	if err != nil {
		return err
	}
	if reserved {
		return o.reply(ctx, run, Reply{Status: ReplyConfirmed, Message: "Orden confirmada"},
			o.config.ReplyDelay, "Enviando confirmación…", "Confirmación enviada", "Confirmación de orden enviada")
	}

	// Compensation: payment succeeded but inventory failed, so the refund
	// undoes the authorization before the rejection reply.
	if err := o.compensate(ctx, run, auth); err != nil {
		return err
	}
	return o.reply(ctx, run, Reply{Status: ReplyRejected, Message: "Orden rechazada - sin inventario (pago reembolsado)"},
		o.config.CompensatedReply, "Enviando rechazo…", "Rechazo enviado", "Rechazo de orden enviado")
}

func (o *Orchestrator) receive(ctx context.Context, run *RunContext, order service.Order) error {
	start := time.Now()
	_, span := o.tracer.StartStep(ctx, run.ID, string(StepReceive))
	defer span.End()

	o.beginStep(run, StepReceive, "Procesando solicitud entrante…")
	o.ledger.Append(event.New(event.SeverityInfo, "Solicitud recibida"))

	if err := o.waiter.Wait(ctx, o.config.ReceiveDelay); err != nil {
		span.SetError(err)
		return err
	}

	o.vars.SetOrder(order)
	d := time.Since(start)
	o.completeStep(run, StepReceive, true, "Solicitud procesada", d)
	o.ledger.Append(event.New(event.SeveritySuccess, "Solicitud procesada").WithDuration(d))
	return nil
}

func (o *Orchestrator) authorize(ctx context.Context, run *RunContext, order service.Order) (service.AuthResult, error) {
	_, span := o.tracer.StartStep(ctx, run.ID, string(StepPayment))
	defer span.End()

	o.beginStep(run, StepPayment, "Contactando proveedor de pago…")
	o.ledger.Append(event.New(event.SeverityInfo, "Autorización de pago iniciada"))

	auth, elapsed, err := o.services.Authorize(ctx, order)
	if err != nil {
		span.SetError(err)
		return service.AuthResult{}, err
	}

	o.vars.SetAuth(auth)
	if auth.Approved {
		o.completeStep(run, StepPayment, true, "Pago autorizado", elapsed)
		o.ledger.Append(event.New(event.SeveritySuccess, "Pago autorizado").WithDuration(elapsed))
	} else {
		o.completeStep(run, StepPayment, false, "Pago rechazado", elapsed)
		o.ledger.Append(event.New(event.SeverityError, fmt.Sprintf("Pago rechazado: %s", auth.Reason)).WithDuration(elapsed))
	}
	return auth, nil
}

func (o *Orchestrator) decide(ctx context.Context, run *RunContext, auth service.AuthResult) (bool, error) {
	start := time.Now()
	_, span := o.tracer.StartStep(ctx, run.ID, string(StepDecision))
	defer span.End()

	o.beginStep(run, StepDecision, "Evaluando resultado del pago…")

	if err := o.waiter.Wait(ctx, o.config.DecisionDelay); err != nil {
		span.SetError(err)
		return false, err
	}

	d := time.Since(start)
	if auth.Approved {
		o.completeStep(run, StepDecision, true, "Pago aprobado → continuar", d)
		o.ledger.Append(event.New(event.SeveritySuccess, "Decisión: ruta aprobada").WithDuration(d))
		return true, nil
	}

	// The branch itself resolved correctly, so the step succeeds even
	// though the event records the rejection route.
	o.completeStep(run, StepDecision, true, "Pago no aprobado → omitir reserva", d)
	o.ledger.Append(event.New(event.SeverityError, "Decisión: ruta de rechazo").WithDuration(d))
	return false, nil
}

func (o *Orchestrator) reserve(ctx context.Context, run *RunContext, order service.Order) (bool, error) {
	_, span := o.tracer.StartStep(ctx, run.ID, string(StepInventory))
	defer span.End()

	o.beginStep(run, StepInventory, "Verificando inventario…")
	o.ledger.Append(event.New(event.SeverityInfo, "Reserva de inventario iniciada"))

	inv, elapsed, err := o.services.Reserve(ctx, order)
	if err != nil {
		span.SetError(err)
		return false, err
	}

	o.vars.SetInventory(inv)
	if inv.Reserved {
		o.completeStep(run, StepInventory, true, "Inventario reservado", elapsed)
		o.ledger.Append(event.New(event.SeveritySuccess, "Inventario reservado").WithDuration(elapsed))
		return true, nil
	}

	o.completeStep(run, StepInventory, false, "Inventario no disponible", elapsed)
	o.ledger.Append(event.New(event.SeverityError, fmt.Sprintf("Inventario falló: %s", inv.Reason)).WithDuration(elapsed))
	return false, nil
}

func (o *Orchestrator) compensate(ctx context.Context, run *RunContext, auth service.AuthResult) error {
	_, span := o.tracer.StartStep(ctx, run.ID, string(StepRefund))
	defer span.End()

	o.metrics.CompensationTriggered(run.Scenario.String())
	o.beginStep(run, StepRefund, "Compensando: reembolsando pago…")
	o.ledger.Append(event.New(event.SeverityInfo, "Compensación iniciada (reembolso)"))

	comp, elapsed, err := o.services.Refund(ctx, auth)
	if err != nil {
		span.SetError(err)
		return err
	}

	o.vars.SetCompensation(comp)
	if comp.Refunded {
		o.completeStep(run, StepRefund, true, "Reembolso completo", elapsed)
		o.ledger.Append(event.New(event.SeveritySuccess, "Reembolso completo").WithDuration(elapsed))
	} else {
		// A failed refund is recorded but does not abort the reply.
		o.completeStep(run, StepRefund, false, "Reembolso falló", elapsed)
		o.ledger.Append(event.New(event.SeverityError, "Reembolso falló").WithDuration(elapsed))
	}
	return nil
}

func (o *Orchestrator) reply(ctx context.Context, run *RunContext, reply Reply, delay time.Duration, runningMsg, doneMsg, ledgerMsg string) error {
	start := time.Now()
	_, span := o.tracer.StartStep(ctx, run.ID, string(StepReply))
	defer span.End()

	o.beginStep(run, StepReply, runningMsg)

	if err := o.waiter.Wait(ctx, delay); err != nil {
		span.SetError(err)
		return err
	}

	reply.Timestamp = time.Now()
	if err := o.vars.SetReply(reply); err != nil {
		return err
	}

	d := time.Since(start)
	o.completeStep(run, StepReply, true, doneMsg, d)
	o.ledger.Append(event.New(event.SeveritySuccess, ledgerMsg).WithDuration(d))
	return nil
}

// beginStep transitions a step to running.
func (o *Orchestrator) beginStep(run *RunContext, id StepID, message string) {
	o.metrics.StepStarted(run.Scenario.String(), string(id))
	if err := o.steps.Transition(id, StepStatusRunning, message, 0); err != nil {
		panic(err)
	}
}

// completeStep transitions a step to its terminal status and counts it as
// executed. ok selects success; a business rejection maps to the error
// status without failing the run.
func (o *Orchestrator) completeStep(run *RunContext, id StepID, ok bool, message string, d time.Duration) {
	to := StepStatusSuccess
	if !ok {
		to = StepStatusError
	}
	if err := o.steps.Transition(id, to, message, d); err != nil {
		panic(err)
	}
	run.IncExecuted()
	if ok {
		o.metrics.StepCompleted(run.Scenario.String(), string(id), d)
	} else {
		o.metrics.StepFailed(run.Scenario.String(), string(id), message)
	}
}

// finishRun records the terminal ledger event and moves the run to
// success.
func (o *Orchestrator) finishRun(run *RunContext, start time.Time) {
	total := time.Since(start)
	run.SetElapsed(total)
	o.ledger.Append(event.New(event.SeveritySuccess, "Proceso completado").WithDuration(total))
	if err := run.setStatus(RunStatusSuccess); err != nil {
		panic(err)
	}
	o.metrics.RunCompleted(run.Scenario.String(), total)
}

// failRun records the fatal event and moves the run to error. Partial
// variables are retained for inspection, not rolled back.
func (o *Orchestrator) failRun(run *RunContext, err error) {
	total := time.Since(run.StartTime)
	run.SetElapsed(total)
	o.ledger.Append(event.New(event.SeverityError, fmt.Sprintf("Proceso falló: %v", err)))
	if run.Status() == RunStatusRunning {
		run.setStatus(RunStatusError)
	}
	o.metrics.RunFailed(run.Scenario.String(), err.Error())
}

func (o *Orchestrator) resultFor(run *RunContext, start time.Time, err error) *RunResult {
	var reply *Reply
	if vars := o.vars.Snapshot(); vars.Reply != nil {
		r := *vars.Reply
		reply = &r
	}
	return &RunResult{
		RunID:         run.ID,
		Scenario:      run.Scenario,
		Status:        run.Status(),
		Reply:         reply,
		ExecutedSteps: run.ExecutedSteps(),
		Duration:      time.Since(start),
		Err:           err,
	}
}
