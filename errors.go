package procsim

import "errors"

// Run errors
var (
	// ErrRunActive indicates a run is already in progress; the trigger is
	// ignored, never queued.
	ErrRunActive = errors.New("run already active")

	// ErrRunFailed indicates the run aborted on a technical failure.
	ErrRunFailed = errors.New("run failed")

	// ErrInvalidRunTransition indicates a run state transition the
	// lifecycle does not allow.
	ErrInvalidRunTransition = errors.New("invalid run transition")
)

// Step errors
var (
	// ErrUnknownStep indicates a step ID outside the fixed catalog.
	ErrUnknownStep = errors.New("unknown step")

	// ErrInvalidStepTransition indicates a step state transition the
	// lifecycle does not allow.
	ErrInvalidStepTransition = errors.New("invalid step transition")

	// ErrReplySet indicates an attempt to set the terminal reply twice
	// within the same run.
	ErrReplySet = errors.New("reply already set")
)

// Scenario errors
var (
	// ErrUnknownScenario indicates a scenario tag outside the preset set.
	ErrUnknownScenario = errors.New("unknown scenario")
)

// Config errors
var (
	// ErrInvalidConfig indicates the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
)
