// Package service provides the simulated external services invoked by the
// orchestrator: payment authorization, inventory reservation, and payment
// refund. Each call sleeps through a randomized latency window scaled by
// the speed controller, but its business outcome is a deterministic
// function of the input. A negative business outcome is returned inside a
// successful call, never as an error; errors are reserved for context
// cancellation.
package service

import "strings"

// noStockSuffix is the order ID sentinel that makes inventory
// reservation fail.
const noStockSuffix = "7"

// approvalLimit is the maximum order amount the payment provider approves.
const approvalLimit = 200

// Order identifies one purchase request. It is immutable for the duration
// of a run and deterministically selects the scenario branch.
type Order struct {
	OrderID    string  `json:"orderId"`
	Amount     float64 `json:"amount"`
	CustomerID string  `json:"customerId"`
}

// Approvable reports whether the payment provider would approve the order.
func (o Order) Approvable() bool {
	return o.Amount <= approvalLimit
}

// Reservable reports whether inventory is available for the order.
func (o Order) Reservable() bool {
	return !strings.HasSuffix(o.OrderID, noStockSuffix)
}

// AuthResult is the outcome of a payment authorization call.
// AuthID is set only when the payment was approved.
type AuthResult struct {
	Approved bool   `json:"approved"`
	AuthID   string `json:"authId,omitempty"`
	Reason   string `json:"reason"`
}

// InventoryResult is the outcome of an inventory reservation call.
// ReservationID is set only when the reservation succeeded.
type InventoryResult struct {
	Reserved      bool   `json:"reserved"`
	ReservationID string `json:"reservationId,omitempty"`
	Reason        string `json:"reason"`
}

// RefundResult is the outcome of a compensating refund call.
// Refunded is true only when the refund had an authorization to undo.
type RefundResult struct {
	Refunded bool   `json:"refunded"`
	RefundID string `json:"refundId"`
}
