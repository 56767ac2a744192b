package procsim

// StepStatus represents the lifecycle state of a step within one run.
type StepStatus string

const (
	// StepStatusPending indicates the step has not started. Steps the run
	// never visits (the refund step outside the compensation branch) stay
	// pending for the whole run.
	StepStatusPending StepStatus = "pending"
	// StepStatusRunning indicates the step is executing.
	StepStatusRunning StepStatus = "running"
	// StepStatusSuccess indicates the step finished with a positive
	// business outcome.
	StepStatusSuccess StepStatus = "success"
	// StepStatusError indicates the step finished with a business
	// rejection (payment declined, no stock, refund failed).
	StepStatusError StepStatus = "error"
)

// RunStatus represents the status of the engine's current or last run.
type RunStatus string

const (
	// RunStatusReady indicates no run has started yet.
	RunStatusReady RunStatus = "ready"
	// RunStatusRunning indicates a run is in progress.
	RunStatusRunning RunStatus = "running"
	// RunStatusSuccess indicates the last run completed all its stages,
	// regardless of the business outcome of the order.
	RunStatusSuccess RunStatus = "success"
	// RunStatusError indicates the last run aborted on a technical failure.
	RunStatusError RunStatus = "error"
)

// DisplayName returns the user-facing status label.
func (s RunStatus) DisplayName() string {
	switch s {
	case RunStatusReady:
		return "Listo"
	case RunStatusRunning:
		return "Ejecutando"
	case RunStatusSuccess:
		return "Finalizado"
	case RunStatusError:
		return "Error"
	default:
		return string(s)
	}
}

// validStepTransitions defines the allowed step state transitions.
// A step may never be reversed or skip the running state.
var validStepTransitions = map[StepStatus][]StepStatus{
	StepStatusPending: {
		StepStatusRunning,
	},
	StepStatusRunning: {
		StepStatusSuccess,
		StepStatusError,
	},
	StepStatusSuccess: {},
	StepStatusError:   {},
}

// ValidateStepTransition checks if a step state transition is valid.
func ValidateStepTransition(from, to StepStatus) bool {
	targets, ok := validStepTransitions[from]
	if !ok {
		return false
	}
	for _, target := range targets {
		if target == to {
			return true
		}
	}
	return false
}

// IsStepTerminal returns true if the step status admits no further
// transitions within the run.
func IsStepTerminal(status StepStatus) bool {
	switch status {
	case StepStatusSuccess, StepStatusError:
		return true
	default:
		return false
	}
}

// validRunTransitions defines the allowed run state transitions.
// Terminal run states may transition back to running when the next run
// starts.
var validRunTransitions = map[RunStatus][]RunStatus{
	RunStatusReady: {
		RunStatusRunning,
	},
	RunStatusRunning: {
		RunStatusSuccess,
		RunStatusError,
	},
	RunStatusSuccess: {
		RunStatusRunning,
	},
	RunStatusError: {
		RunStatusRunning,
	},
}

// ValidateRunTransition checks if a run state transition is valid.
func ValidateRunTransition(from, to RunStatus) bool {
	targets, ok := validRunTransitions[from]
	if !ok {
		return false
	}
	for _, target := range targets {
		if target == to {
			return true
		}
	}
	return false
}

// IsRunTerminal returns true if the run status marks a finished run.
func IsRunTerminal(status RunStatus) bool {
	switch status {
	case RunStatusSuccess, RunStatusError:
		return true
	default:
		return false
	}
}
