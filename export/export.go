// Package export renders the simulator's observable state for display:
// process variables as JSON, the event ledger as a timeline, and the KPI
// snapshot.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"procsim"
	"procsim/event"
)

// EmptyTimeline is the placeholder shown while the ledger is empty.
const EmptyTimeline = "Los eventos aparecerán aquí durante la ejecución del proceso"

// VariablesJSON serializes the process variables as indented JSON.
// The empty state renders as an empty object.
func VariablesJSON(vars procsim.ProcessVariables) (string, error) {
	if vars.Empty() {
		return "{}", nil
	}
	out, err := json.MarshalIndent(vars, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal variables: %w", err)
	}
	return string(out), nil
}

// Timeline renders the ledger as one line per event in append order.
// An empty ledger renders the placeholder message.
func Timeline(events []event.Event) string {
	if len(events) == 0 {
		return EmptyTimeline
	}

	var b strings.Builder
	for i, e := range events {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(FormatEvent(e))
	}
	return b.String()
}

// FormatEvent renders one event: severity marker, message, time of day
// and, when measured, the duration in seconds.
func FormatEvent(e event.Event) string {
	line := fmt.Sprintf("[%s] %s at %s", e.Severity, e.Message, e.Timestamp.Format("15:04:05"))
	if e.Duration > 0 {
		line += fmt.Sprintf(" (%.2fs)", e.Duration.Seconds())
	}
	return line
}

// FormatKPI renders the KPI snapshot: runtime in seconds with one
// decimal, executed steps, and retries.
func FormatKPI(kpi procsim.KPISnapshot) string {
	return fmt.Sprintf("runtime=%.1fs steps=%d retries=%d",
		float64(kpi.ElapsedMs)/1000, kpi.ExecutedSteps, kpi.RetryCount)
}
