package procsim

import (
	"testing"

	"pgregory.net/rapid"
)

// All step statuses
var allStepStatuses = []StepStatus{
	StepStatusPending,
	StepStatusRunning,
	StepStatusSuccess,
	StepStatusError,
}

// All run statuses
var allRunStatuses = []RunStatus{
	RunStatusReady,
	RunStatusRunning,
	RunStatusSuccess,
	RunStatusError,
}

func TestValidateStepTransition_ValidTransitions(t *testing.T) {
	validTransitions := []struct {
		from StepStatus
		to   StepStatus
	}{
		{StepStatusPending, StepStatusRunning},
		{StepStatusRunning, StepStatusSuccess},
		{StepStatusRunning, StepStatusError},
	}

	for _, tt := range validTransitions {
		if !ValidateStepTransition(tt.from, tt.to) {
			t.Errorf("transition from %s to %s should be valid", tt.from, tt.to)
		}
	}
}

func TestValidateStepTransition_InvalidTransitions(t *testing.T) {
	invalidTransitions := []struct {
		from StepStatus
		to   StepStatus
	}{
		// Cannot skip running
		{StepStatusPending, StepStatusSuccess},
		{StepStatusPending, StepStatusError},
		// Cannot reverse
		{StepStatusRunning, StepStatusPending},
		{StepStatusSuccess, StepStatusRunning},
		{StepStatusError, StepStatusRunning},
		{StepStatusSuccess, StepStatusPending},
		// Terminal states admit nothing
		{StepStatusSuccess, StepStatusError},
		{StepStatusError, StepStatusSuccess},
	}

	for _, tt := range invalidTransitions {
		if ValidateStepTransition(tt.from, tt.to) {
			t.Errorf("transition from %s to %s should be invalid", tt.from, tt.to)
		}
	}
}

func TestValidateStepTransition_NeverReversed(t *testing.T) {
	// Property: no transition ever leads back to pending, and terminal
	// states have no outgoing transitions at all.
	rapid.Check(t, func(rt *rapid.T) {
		from := rapid.SampledFrom(allStepStatuses).Draw(rt, "from")
		to := rapid.SampledFrom(allStepStatuses).Draw(rt, "to")

		if ValidateStepTransition(from, to) {
			if to == StepStatusPending {
				rt.Fatalf("transition %s -> pending must be invalid", from)
			}
			if IsStepTerminal(from) {
				rt.Fatalf("terminal state %s must not transition to %s", from, to)
			}
		}
	})
}

func TestIsStepTerminal(t *testing.T) {
	if IsStepTerminal(StepStatusPending) || IsStepTerminal(StepStatusRunning) {
		t.Error("pending and running are not terminal")
	}
	if !IsStepTerminal(StepStatusSuccess) || !IsStepTerminal(StepStatusError) {
		t.Error("success and error are terminal")
	}
}

func TestValidateRunTransition(t *testing.T) {
	valid := []struct {
		from RunStatus
		to   RunStatus
	}{
		{RunStatusReady, RunStatusRunning},
		{RunStatusRunning, RunStatusSuccess},
		{RunStatusRunning, RunStatusError},
		// Terminal run states accept the next run
		{RunStatusSuccess, RunStatusRunning},
		{RunStatusError, RunStatusRunning},
	}
	for _, tt := range valid {
		if !ValidateRunTransition(tt.from, tt.to) {
			t.Errorf("run transition from %s to %s should be valid", tt.from, tt.to)
		}
	}

	invalid := []struct {
		from RunStatus
		to   RunStatus
	}{
		{RunStatusReady, RunStatusSuccess},
		{RunStatusReady, RunStatusError},
		{RunStatusRunning, RunStatusReady},
		{RunStatusSuccess, RunStatusError},
		{RunStatusError, RunStatusSuccess},
		{RunStatusSuccess, RunStatusReady},
	}
	for _, tt := range invalid {
		if ValidateRunTransition(tt.from, tt.to) {
			t.Errorf("run transition from %s to %s should be invalid", tt.from, tt.to)
		}
	}
}

func TestIsRunTerminal(t *testing.T) {
	if IsRunTerminal(RunStatusReady) || IsRunTerminal(RunStatusRunning) {
		t.Error("ready and running are not terminal")
	}
	if !IsRunTerminal(RunStatusSuccess) || !IsRunTerminal(RunStatusError) {
		t.Error("success and error are terminal")
	}
}

func TestRunStatus_DisplayName(t *testing.T) {
	cases := map[RunStatus]string{
		RunStatusReady:   "Listo",
		RunStatusRunning: "Ejecutando",
		RunStatusSuccess: "Finalizado",
		RunStatusError:   "Error",
	}
	for status, want := range cases {
		if got := status.DisplayName(); got != want {
			t.Errorf("DisplayName(%s) = %q, want %q", status, got, want)
		}
	}
}
