package procsim

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"procsim/service"
)

// fastConfig shrinks every delay so full runs finish in a few
// milliseconds.
func fastConfig() Config {
	w := service.Window{Min: time.Millisecond, Max: 2 * time.Millisecond}
	return Config{
		ReceiveDelay:     time.Millisecond,
		DecisionDelay:    time.Millisecond,
		ReplyDelay:       time.Millisecond,
		CompensatedReply: time.Millisecond,
		AuthorizeWindow:  w,
		ReserveWindow:    w,
		RefundWindow:     w,
		TickInterval:     time.Millisecond,
	}
}

func fastEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	return NewEngine(append([]EngineOption{WithEngineConfig(fastConfig())}, opts...)...)
}

func assertLedgerMessages(t *testing.T, e *Engine, want []string) {
	t.Helper()
	events := e.Events()
	if len(events) != len(want) {
		got := make([]string, 0, len(events))
		for _, ev := range events {
			got = append(got, ev.Message)
		}
		t.Fatalf("ledger has %d events, want %d: %v", len(events), len(want), got)
	}
	for i, ev := range events {
		if ev.Message != want[i] {
			t.Errorf("event %d = %q, want %q", i, ev.Message, want[i])
		}
		if i > 0 && ev.Timestamp.Before(events[i-1].Timestamp) {
			t.Errorf("event %d timestamp precedes event %d", i, i-1)
		}
	}
}

func TestEngine_HappyPath(t *testing.T) {
	e := fastEngine(t)

	res, err := e.Run(context.Background(), ScenarioHappy)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.Status != RunStatusSuccess {
		t.Errorf("status = %s", res.Status)
	}
	if res.ExecutedSteps != 5 {
		t.Errorf("executed steps = %d, want 5", res.ExecutedSteps)
	}
	if res.Reply == nil || res.Reply.Status != ReplyConfirmed || res.Reply.Message != "Orden confirmada" {
		t.Errorf("reply = %+v", res.Reply)
	}

	vars := e.Variables()
	if vars.Order == nil || vars.Order.OrderID != "A-1001" {
		t.Error("order variable missing")
	}
	if vars.Auth == nil || !vars.Auth.Approved || !strings.HasPrefix(vars.Auth.AuthID, "AUTH_") {
		t.Errorf("auth variable = %+v", vars.Auth)
	}
	if vars.Inventory == nil || !vars.Inventory.Reserved || !strings.HasPrefix(vars.Inventory.ReservationID, "RES_") {
		t.Errorf("inventory variable = %+v", vars.Inventory)
	}
	if vars.Compensation != nil {
		t.Error("no compensation on the happy path")
	}

	steps := e.Steps()
	for _, id := range []StepID{StepReceive, StepPayment, StepDecision, StepInventory, StepReply} {
		if steps[id].Status != StepStatusSuccess {
			t.Errorf("step %s = %s, want success", id, steps[id].Status)
		}
	}
	if steps[StepRefund].Status != StepStatusPending {
		t.Errorf("refund step = %s, want pending", steps[StepRefund].Status)
	}

	assertLedgerMessages(t, e, []string{
		"Solicitud recibida",
		"Solicitud procesada",
		"Autorización de pago iniciada",
		"Pago autorizado",
		"Decisión: ruta aprobada",
		"Reserva de inventario iniciada",
		"Inventario reservado",
		"Confirmación de orden enviada",
		"Proceso completado",
	})
}

func TestEngine_RejectPath(t *testing.T) {
	e := fastEngine(t)

	res, err := e.Run(context.Background(), ScenarioReject)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// The process completes even though the order is rejected.
	if res.Status != RunStatusSuccess {
		t.Errorf("status = %s", res.Status)
	}
	if res.ExecutedSteps != 4 {
		t.Errorf("executed steps = %d, want 4", res.ExecutedSteps)
	}
	if res.Reply == nil || res.Reply.Status != ReplyRejected || !strings.Contains(res.Reply.Message, "pago fallido") {
		t.Errorf("reply = %+v", res.Reply)
	}

	vars := e.Variables()
	if vars.Auth == nil || vars.Auth.Approved {
		t.Errorf("auth variable = %+v", vars.Auth)
	}
	if vars.Inventory != nil || vars.Compensation != nil {
		t.Error("skipped stages must leave no variables")
	}

	steps := e.Steps()
	if steps[StepPayment].Status != StepStatusError {
		t.Errorf("payment step = %s, want error", steps[StepPayment].Status)
	}
	if steps[StepDecision].Status != StepStatusSuccess {
		t.Errorf("decision step = %s, want success", steps[StepDecision].Status)
	}
	if steps[StepInventory].Status != StepStatusPending || steps[StepRefund].Status != StepStatusPending {
		t.Error("inventory and refund must stay pending")
	}

	assertLedgerMessages(t, e, []string{
		"Solicitud recibida",
		"Solicitud procesada",
		"Autorización de pago iniciada",
		"Pago rechazado: Pago rechazado (> límite)",
		"Decisión: ruta de rechazo",
		"Rechazo de orden enviado",
		"Proceso completado",
	})
}

func TestEngine_NoStockPath(t *testing.T) {
	e := fastEngine(t)

	res, err := e.Run(context.Background(), ScenarioNoStock)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.Status != RunStatusSuccess {
		t.Errorf("status = %s", res.Status)
	}
	if res.ExecutedSteps != 6 {
		t.Errorf("executed steps = %d, want 6", res.ExecutedSteps)
	}
	if res.Reply == nil || res.Reply.Status != ReplyRejected || !strings.Contains(res.Reply.Message, "pago reembolsado") {
		t.Errorf("reply = %+v", res.Reply)
	}

	vars := e.Variables()
	if vars.Auth == nil || !vars.Auth.Approved {
		t.Errorf("auth variable = %+v", vars.Auth)
	}
	if vars.Inventory == nil || vars.Inventory.Reserved {
		t.Errorf("inventory variable = %+v", vars.Inventory)
	}
	if vars.Compensation == nil || !vars.Compensation.Refunded || !strings.HasPrefix(vars.Compensation.RefundID, "REF_") {
		t.Errorf("compensation variable = %+v", vars.Compensation)
	}

	steps := e.Steps()
	if steps[StepInventory].Status != StepStatusError {
		t.Errorf("inventory step = %s, want error", steps[StepInventory].Status)
	}
	if steps[StepRefund].Status != StepStatusSuccess {
		t.Errorf("refund step = %s, want success", steps[StepRefund].Status)
	}

	assertLedgerMessages(t, e, []string{
		"Solicitud recibida",
		"Solicitud procesada",
		"Autorización de pago iniciada",
		"Pago autorizado",
		"Decisión: ruta aprobada",
		"Reserva de inventario iniciada",
		"Inventario falló: Sin stock",
		"Compensación iniciada (reembolso)",
		"Reembolso completo",
		"Rechazo de orden enviado",
		"Proceso completado",
	})
}

func TestEngine_RerunClearsState(t *testing.T) {
	e := fastEngine(t)

	if _, err := e.Run(context.Background(), ScenarioNoStock); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := e.Run(context.Background(), ScenarioReject); err != nil {
		t.Fatalf("second run: %v", err)
	}

	vars := e.Variables()
	if vars.Inventory != nil || vars.Compensation != nil {
		t.Error("previous run variables leaked into the new run")
	}
	steps := e.Steps()
	if steps[StepRefund].Status != StepStatusPending {
		t.Errorf("refund step = %s, want pending after re-run", steps[StepRefund].Status)
	}
	for _, ev := range e.Events() {
		if strings.Contains(ev.Message, "Reembolso") {
			t.Fatal("previous run events leaked into the new ledger")
		}
	}
}

// blockingServices parks Authorize until the gate channel is closed.
type blockingServices struct {
	gate chan struct{}
}

func (s *blockingServices) Authorize(ctx context.Context, order service.Order) (service.AuthResult, time.Duration, error) {
	select {
	case <-s.gate:
	case <-ctx.Done():
		return service.AuthResult{}, 0, ctx.Err()
	}
	return service.AuthResult{Approved: order.Approvable(), AuthID: "AUTH_1", Reason: "Pago aprobado"}, time.Millisecond, nil
}

func (s *blockingServices) Reserve(ctx context.Context, order service.Order) (service.InventoryResult, time.Duration, error) {
	return service.InventoryResult{Reserved: order.Reservable(), ReservationID: "RES_1", Reason: "Inventario reservado"}, time.Millisecond, nil
}

func (s *blockingServices) Refund(ctx context.Context, auth service.AuthResult) (service.RefundResult, time.Duration, error) {
	return service.RefundResult{Refunded: auth.AuthID != "", RefundID: "REF_1"}, time.Millisecond, nil
}

func waitForTerminal(t *testing.T, e *Engine) RunStatus {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st := e.Status(); IsRunTerminal(st) {
			return st
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("run did not terminate")
	return ""
}

func TestEngine_SingleFlight(t *testing.T) {
	svc := &blockingServices{gate: make(chan struct{})}
	e := fastEngine(t, WithEngineServices(svc))

	if !e.StartHappyPath() {
		t.Fatal("first trigger must start")
	}
	// Ignored while the first run is still in the authorize stage.
	if e.StartRejectPath() {
		t.Error("second trigger must be a no-op")
	}
	if _, err := e.Run(context.Background(), ScenarioHappy); !errors.Is(err, ErrRunActive) {
		t.Errorf("expected ErrRunActive, got %v", err)
	}

	close(svc.gate)
	if st := waitForTerminal(t, e); st != RunStatusSuccess {
		t.Fatalf("status = %s", st)
	}

	// The gate frees shortly after the run finishes.
	svc.gate = make(chan struct{})
	close(svc.gate)
	for deadline := time.Now().Add(2 * time.Second); ; {
		_, err := e.Run(context.Background(), ScenarioHappy)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrRunActive) {
			t.Fatalf("re-run: %v", err)
		}
		if !time.Now().Before(deadline) {
			t.Fatal("gate never freed after completion")
		}
		time.Sleep(time.Millisecond)
	}
}

// panicServices fails hard in the reserve stage.
type panicServices struct {
	blockingServices
}

func (s *panicServices) Reserve(ctx context.Context, order service.Order) (service.InventoryResult, time.Duration, error) {
	panic("inventory backend unreachable")
}

func TestEngine_TechnicalFailure(t *testing.T) {
	svc := &panicServices{}
	svc.gate = make(chan struct{})
	close(svc.gate)
	e := fastEngine(t, WithEngineServices(svc))

	res, err := e.Run(context.Background(), ScenarioHappy)
	if !errors.Is(err, ErrRunFailed) {
		t.Fatalf("expected ErrRunFailed, got %v", err)
	}
	if res.Status != RunStatusError || e.Status() != RunStatusError {
		t.Errorf("status = %s / %s", res.Status, e.Status())
	}
	if res.Reply != nil {
		t.Error("no reply on technical failure")
	}

	// Partial variables from the completed stages survive.
	vars := e.Variables()
	if vars.Order == nil || vars.Auth == nil {
		t.Error("partial variables must be retained")
	}

	events := e.Events()
	if len(events) == 0 {
		t.Fatal("expected a fatal event")
	}
	last := events[len(events)-1]
	if !strings.Contains(last.Message, "Proceso falló") {
		t.Errorf("last event = %q", last.Message)
	}
}

func TestEngine_CancelledContext(t *testing.T) {
	e := fastEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, ScenarioHappy)
	if !errors.Is(err, ErrRunFailed) {
		t.Fatalf("expected ErrRunFailed, got %v", err)
	}
	if e.Status() != RunStatusError {
		t.Errorf("status = %s", e.Status())
	}
}

func TestEngine_KPI(t *testing.T) {
	e := fastEngine(t)

	if got := e.KPI(); got != (KPISnapshot{}) {
		t.Errorf("empty snapshot before the first run, got %+v", got)
	}

	res, err := e.Run(context.Background(), ScenarioHappy)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	kpi := e.KPI()
	if kpi.ExecutedSteps != 5 {
		t.Errorf("executed steps = %d", kpi.ExecutedSteps)
	}
	if kpi.RetryCount != 0 {
		t.Errorf("retry count = %d, want 0", kpi.RetryCount)
	}
	if kpi.ElapsedMs != res.Duration.Milliseconds() {
		t.Errorf("elapsed = %dms, want frozen total %dms", kpi.ElapsedMs, res.Duration.Milliseconds())
	}
}

func TestEngine_StatusBeforeFirstRun(t *testing.T) {
	e := fastEngine(t)
	if e.Status() != RunStatusReady {
		t.Errorf("status = %s, want ready", e.Status())
	}
}

func TestEngine_UnknownScenario(t *testing.T) {
	e := fastEngine(t)
	if _, err := e.Run(context.Background(), Scenario("sunny")); !errors.Is(err, ErrUnknownScenario) {
		t.Fatalf("expected ErrUnknownScenario, got %v", err)
	}
	if e.Start(Scenario("sunny")) {
		t.Error("unknown scenario trigger must be a no-op")
	}
	if e.Status() != RunStatusReady {
		t.Error("rejected trigger must leave no run behind")
	}
}

func TestEngine_SetSpeed(t *testing.T) {
	e := fastEngine(t)

	if f := e.SetSpeed(0); f != 0.1 {
		t.Errorf("SetSpeed(0) = %v, want clamped minimum 0.1", f)
	}
	if f := e.SetSpeed(1000); f != 10 {
		t.Errorf("SetSpeed(1000) = %v, want clamped maximum 10", f)
	}
	if e.Speed() != 10 {
		t.Errorf("Speed() = %v", e.Speed())
	}
	if f := e.SetSpeed(100); f != 1 {
		t.Errorf("SetSpeed(100) = %v, want 1", f)
	}
}
