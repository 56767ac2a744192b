// Package event provides the chronological event ledger for the simulator.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Severity classifies a ledger event.
type Severity string

const (
	// SeverityInfo marks an informational milestone (stage started).
	SeverityInfo Severity = "info"
	// SeveritySuccess marks a stage that finished with a positive outcome.
	SeveritySuccess Severity = "success"
	// SeverityError marks a business rejection or a technical failure.
	SeverityError Severity = "error"
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// Event is one immutable record in the ledger.
type Event struct {
	ID        string        // unique identifier
	Timestamp time.Time     // append time
	Message   string        // human-readable milestone description
	Severity  Severity      // info, success or error
	Duration  time.Duration // elapsed time of the milestone, zero when not measured
}

// New creates an event with a generated ID and the current timestamp.
func New(sev Severity, message string) Event {
	return Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Message:   message,
		Severity:  sev,
	}
}

// WithDuration sets the measured duration on the event.
func (e Event) WithDuration(d time.Duration) Event {
	e.Duration = d
	return e
}
