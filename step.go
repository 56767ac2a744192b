package procsim

import (
	"fmt"
	"sync"
	"time"
)

// StepID identifies one entry of the fixed step catalog.
type StepID string

const (
	// StepReceive maps to the BPEL receive activity.
	StepReceive StepID = "receive"
	// StepPayment maps to the payment authorization invoke.
	StepPayment StepID = "payment"
	// StepDecision maps to the BPEL if on the authorization outcome.
	StepDecision StepID = "decision"
	// StepInventory maps to the inventory reservation invoke.
	StepInventory StepID = "inventory"
	// StepRefund maps to the compensation handler; it is only visited when
	// inventory fails after a successful payment.
	StepRefund StepID = "refund"
	// StepReply maps to the BPEL reply activity.
	StepReply StepID = "reply"
)

// StepInfo is one immutable catalog entry.
type StepInfo struct {
	ID   StepID
	Name string
	Desc string
	Icon string
}

// catalog is the fixed, ordered step set of the process. Defined once;
// never mutated.
var catalog = []StepInfo{
	{ID: StepReceive, Name: "Recibir Solicitud", Desc: "Procesando solicitud entrante", Icon: "download"},
	{ID: StepPayment, Name: "Autorizar Pago", Desc: "Autorizando proveedor de pago", Icon: "credit_card"},
	{ID: StepDecision, Name: "¿Pago Aprobado?", Desc: "Evaluando autorización", Icon: "help"},
	{ID: StepInventory, Name: "Reservar Inventario", Desc: "Reservando elementos en stock", Icon: "inventory_2"},
	{ID: StepRefund, Name: "Reembolsar Pago (Comp.)", Desc: "Compensando pago anterior", Icon: "undo"},
	{ID: StepReply, Name: "Responder", Desc: "Enviando respuesta final", Icon: "upload"},
}

// Catalog returns a copy of the ordered step catalog.
func Catalog() []StepInfo {
	out := make([]StepInfo, len(catalog))
	copy(out, catalog)
	return out
}

// StepState is the mutable runtime state of one step for one run.
type StepState struct {
	Status      StepStatus
	LastMessage string
	Duration    time.Duration
}

// StepSet tracks the runtime state of every catalog step for the active
// run. Only the orchestrator transitions steps; consumers read snapshots.
type StepSet struct {
	mu     sync.RWMutex
	states map[StepID]*StepState
}

// NewStepSet creates a step set with every step pending.
func NewStepSet() *StepSet {
	s := &StepSet{}
	s.ResetAll()
	return s
}

// ResetAll returns every step to pending with its catalog description.
// Called at the start of each run.
func (s *StepSet) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[StepID]*StepState, len(catalog))
	for _, info := range catalog {
		s.states[info.ID] = &StepState{
			Status:      StepStatusPending,
			LastMessage: info.Desc,
		}
	}
}

// Transition moves a step to the given status, guarded by the step
// lifecycle table. The message replaces the step's last message; the
// duration is recorded on terminal transitions.
func (s *StepSet) Transition(id StepID, to StepStatus, message string, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStep, id)
	}
	if !ValidateStepTransition(state.Status, to) {
		return fmt.Errorf("%w: %s: %s -> %s", ErrInvalidStepTransition, id, state.Status, to)
	}

	state.Status = to
	if message != "" {
		state.LastMessage = message
	}
	if IsStepTerminal(to) {
		state.Duration = d
	}
	return nil
}

// State returns a copy of one step's runtime state.
func (s *StepSet) State(id StepID) (StepState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[id]
	if !ok {
		return StepState{}, false
	}
	return *state, true
}

// Snapshot returns a copy of all step states keyed by step ID.
func (s *StepSet) Snapshot() map[StepID]StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[StepID]StepState, len(s.states))
	for id, state := range s.states {
		out[id] = *state
	}
	return out
}
