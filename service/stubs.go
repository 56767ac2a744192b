package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Waiter performs a simulated wait. The speed controller implements it by
// dividing base durations through the current speed factor.
type Waiter interface {
	Wait(ctx context.Context, d time.Duration) error
}

// Window is a half-open latency window [Min, Max) a stub draws its base
// delay from. The randomness is cosmetic; it never affects the outcome.
type Window struct {
	Min time.Duration
	Max time.Duration
}

// Draw picks a base delay from the window.
func (w Window) Draw() time.Duration {
	if w.Max <= w.Min {
		return w.Min
	}
	return w.Min + time.Duration(rand.Int64N(int64(w.Max-w.Min)))
}

// Default latency windows, matching the simulated providers.
var (
	DefaultAuthorizeWindow = Window{Min: 400 * time.Millisecond, Max: 900 * time.Millisecond}
	DefaultReserveWindow   = Window{Min: 300 * time.Millisecond, Max: 800 * time.Millisecond}
	DefaultRefundWindow    = Window{Min: 250 * time.Millisecond, Max: 550 * time.Millisecond}
)

// Stubs bundles the three simulated service operations.
type Stubs struct {
	waiter Waiter

	authorizeWindow Window
	reserveWindow   Window
	refundWindow    Window
}

// StubsOption configures Stubs.
type StubsOption func(*Stubs)

// WithAuthorizeWindow overrides the payment authorization latency window.
func WithAuthorizeWindow(w Window) StubsOption {
	return func(s *Stubs) {
		s.authorizeWindow = w
	}
}

// WithReserveWindow overrides the inventory reservation latency window.
func WithReserveWindow(w Window) StubsOption {
	return func(s *Stubs) {
		s.reserveWindow = w
	}
}

// WithRefundWindow overrides the refund latency window.
func WithRefundWindow(w Window) StubsOption {
	return func(s *Stubs) {
		s.refundWindow = w
	}
}

// NewStubs creates the simulated services on top of the given waiter.
func NewStubs(waiter Waiter, opts ...StubsOption) *Stubs {
	s := &Stubs{
		waiter:          waiter,
		authorizeWindow: DefaultAuthorizeWindow,
		reserveWindow:   DefaultReserveWindow,
		refundWindow:    DefaultRefundWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorize simulates the payment provider. The order is approved iff its
// amount does not exceed the provider limit.
func (s *Stubs) Authorize(ctx context.Context, order Order) (AuthResult, time.Duration, error) {
	start := time.Now()
	if err := s.waiter.Wait(ctx, s.authorizeWindow.Draw()); err != nil {
		return AuthResult{}, time.Since(start), err
	}

	approved := order.Approvable()
	res := AuthResult{Approved: approved}
	if approved {
		res.AuthID = stampedID("AUTH")
		res.Reason = "Pago aprobado"
	} else {
		res.Reason = "Pago rechazado (> límite)"
	}
	return res, time.Since(start), nil
}

// Reserve simulates the inventory system. Reservation fails for order IDs
// ending in the out-of-stock sentinel digit.
func (s *Stubs) Reserve(ctx context.Context, order Order) (InventoryResult, time.Duration, error) {
	start := time.Now()
	if err := s.waiter.Wait(ctx, s.reserveWindow.Draw()); err != nil {
		return InventoryResult{}, time.Since(start), err
	}

	reserved := order.Reservable()
	res := InventoryResult{Reserved: reserved}
	if reserved {
		res.ReservationID = stampedID("RES")
		res.Reason = "Inventario reservado"
	} else {
		res.Reason = "Sin stock"
	}
	return res, time.Since(start), nil
}

// Refund simulates the compensating refund that undoes a prior successful
// authorization. It refunds iff the auth result carries an authorization ID.
func (s *Stubs) Refund(ctx context.Context, auth AuthResult) (RefundResult, time.Duration, error) {
	start := time.Now()
	if err := s.waiter.Wait(ctx, s.refundWindow.Draw()); err != nil {
		return RefundResult{}, time.Since(start), err
	}

	return RefundResult{
		Refunded: auth.AuthID != "",
		RefundID: stampedID("REF"),
	}, time.Since(start), nil
}

func stampedID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixMilli())
}
