package procsim

import (
	"fmt"

	"procsim/service"
)

// Scenario selects one of the canned orders driving a run.
type Scenario string

const (
	// ScenarioHappy is approved and reserved: the order confirms.
	ScenarioHappy Scenario = "happy"
	// ScenarioReject exceeds the payment limit: the order is rejected at
	// the decision.
	ScenarioReject Scenario = "reject"
	// ScenarioNoStock is approved but out of stock: the payment is
	// compensated with a refund.
	ScenarioNoStock Scenario = "nostock"
)

// String returns the scenario tag.
func (s Scenario) String() string {
	return string(s)
}

// OrderFor returns the fixed order fixture for a scenario. The order ID
// doubles as the correlation key of the run.
func OrderFor(s Scenario) (service.Order, error) {
	switch s {
	case ScenarioHappy:
		return service.Order{OrderID: "A-1001", Amount: 125, CustomerID: "C-123"}, nil
	case ScenarioReject:
		return service.Order{OrderID: "A-1002", Amount: 250, CustomerID: "C-456"}, nil
	case ScenarioNoStock:
		return service.Order{OrderID: "A-1007", Amount: 125, CustomerID: "C-789"}, nil
	default:
		return service.Order{}, fmt.Errorf("%w: %s", ErrUnknownScenario, s)
	}
}
