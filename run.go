package procsim

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"procsim/service"
)

// ReplyStatus is the business outcome carried by the final reply.
type ReplyStatus string

const (
	// ReplyConfirmed indicates the order was confirmed.
	ReplyConfirmed ReplyStatus = "confirmed"
	// ReplyRejected indicates the order was rejected, either by the
	// payment provider or for lack of stock.
	ReplyRejected ReplyStatus = "rejected"
)

// Reply is the terminal stage result, set exactly once per run.
type Reply struct {
	Status    ReplyStatus `json:"status"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"ts"`
}

// ProcessVariables is the snapshot of all stage results accumulated
// during a run. A nil field means the stage was never reached.
type ProcessVariables struct {
	Order        *service.Order           `json:"order,omitempty"`
	Auth         *service.AuthResult      `json:"auth,omitempty"`
	Inventory    *service.InventoryResult `json:"inventory,omitempty"`
	Compensation *service.RefundResult    `json:"compensation,omitempty"`
	Reply        *Reply                   `json:"reply,omitempty"`
}

// Empty reports whether no stage result has been captured yet.
func (v ProcessVariables) Empty() bool {
	return v.Order == nil && v.Auth == nil && v.Inventory == nil &&
		v.Compensation == nil && v.Reply == nil
}

// Variables owns the process variables of the active run. Only the
// orchestrator writes; consumers read snapshots.
type Variables struct {
	mu   sync.RWMutex
	vars ProcessVariables
}

// NewVariables creates an empty variable set.
func NewVariables() *Variables {
	return &Variables{}
}

// Reset clears all captured stage results. Called at run start.
func (v *Variables) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vars = ProcessVariables{}
}

// SetOrder stores the received order.
func (v *Variables) SetOrder(order service.Order) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vars.Order = &order
}

// SetAuth stores the payment authorization result.
func (v *Variables) SetAuth(auth service.AuthResult) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vars.Auth = &auth
}

// SetInventory stores the inventory reservation result.
func (v *Variables) SetInventory(inv service.InventoryResult) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vars.Inventory = &inv
}

// SetCompensation stores the refund result.
func (v *Variables) SetCompensation(comp service.RefundResult) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vars.Compensation = &comp
}

// SetReply stores the terminal reply. The reply is set exactly once per
// run; a second set is a programming error.
func (v *Variables) SetReply(reply Reply) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.vars.Reply != nil {
		return ErrReplySet
	}
	v.vars.Reply = &reply
	return nil
}

// Snapshot returns a copy of the current variables.
func (v *Variables) Snapshot() ProcessVariables {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.vars
}

// RunContext owns the state of one execution: its scenario, start time,
// executed-step count, status and live elapsed time. Exactly one run
// context is active at a time.
type RunContext struct {
	ID        string
	Scenario  Scenario
	StartTime time.Time

	status   RunStatus
	statusMu sync.RWMutex

	executedSteps atomic.Int64
	elapsed       atomic.Int64 // milliseconds, updated by the elapsed ticker
}

// NewRunContext creates a running context for the given scenario.
func NewRunContext(scenario Scenario) *RunContext {
	return &RunContext{
		ID:        uuid.New().String(),
		Scenario:  scenario,
		StartTime: time.Now(),
		status:    RunStatusRunning,
	}
}

// Status returns the run status.
func (r *RunContext) Status() RunStatus {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	return r.status
}

// setStatus transitions the run status, guarded by the run lifecycle
// table.
func (r *RunContext) setStatus(to RunStatus) error {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	if !ValidateRunTransition(r.status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidRunTransition, r.status, to)
	}
	r.status = to
	return nil
}

// IncExecuted counts one more step reaching a terminal state.
func (r *RunContext) IncExecuted() {
	r.executedSteps.Add(1)
}

// ExecutedSteps returns the number of steps that reached a terminal state.
func (r *RunContext) ExecutedSteps() int {
	return int(r.executedSteps.Load())
}

// SetElapsed records the current elapsed wall-clock time.
func (r *RunContext) SetElapsed(d time.Duration) {
	r.elapsed.Store(d.Milliseconds())
}

// ElapsedMs returns the last recorded elapsed time in milliseconds; after
// the run terminates it stays frozen at the final total.
func (r *RunContext) ElapsedMs() int64 {
	return r.elapsed.Load()
}

// RunResult is the outcome of one completed or failed run.
type RunResult struct {
	// RunID is the run context identifier.
	RunID string
	// Scenario is the scenario that drove the run.
	Scenario Scenario
	// Status is the terminal run status. It reflects technical completion:
	// a rejected order still finishes with RunStatusSuccess.
	Status RunStatus
	// Reply is the terminal reply, nil when a technical failure prevented
	// it.
	Reply *Reply
	// ExecutedSteps is the number of steps that reached a terminal state.
	ExecutedSteps int
	// Duration is the total wall-clock run time.
	Duration time.Duration
	// Err is the technical failure, nil on success.
	Err error
}
