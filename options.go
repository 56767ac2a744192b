package procsim

import (
	"time"

	"procsim/service"
)

// Config holds the timing configuration of the simulator. All durations
// are base values before speed scaling.
type Config struct {
	// Fixed stage delays
	ReceiveDelay     time.Duration // receive stage, default 120ms
	DecisionDelay    time.Duration // decision stage, default 80ms
	ReplyDelay       time.Duration // reply stage, default 180ms
	CompensatedReply time.Duration // reply after compensation, default 160ms

	// Stub latency windows (cosmetic jitter; outcomes stay deterministic)
	AuthorizeWindow service.Window // default [400ms, 900ms)
	ReserveWindow   service.Window // default [300ms, 800ms)
	RefundWindow    service.Window // default [250ms, 550ms)

	// TickInterval is the period of the elapsed-time observable while a
	// run is active, default 50ms.
	TickInterval time.Duration
}

// DefaultConfig returns the default configuration for the simulator.
func DefaultConfig() Config {
	return Config{
		ReceiveDelay:     120 * time.Millisecond,
		DecisionDelay:    80 * time.Millisecond,
		ReplyDelay:       180 * time.Millisecond,
		CompensatedReply: 160 * time.Millisecond,
		AuthorizeWindow:  service.DefaultAuthorizeWindow,
		ReserveWindow:    service.DefaultReserveWindow,
		RefundWindow:     service.DefaultRefundWindow,
		TickInterval:     50 * time.Millisecond,
	}
}

// Option is a function that modifies the Config.
type Option func(*Config)

// WithReceiveDelay sets the receive stage delay.
func WithReceiveDelay(d time.Duration) Option {
	return func(c *Config) {
		c.ReceiveDelay = d
	}
}

// WithDecisionDelay sets the decision stage delay.
func WithDecisionDelay(d time.Duration) Option {
	return func(c *Config) {
		c.DecisionDelay = d
	}
}

// WithReplyDelay sets the reply stage delay.
func WithReplyDelay(d time.Duration) Option {
	return func(c *Config) {
		c.ReplyDelay = d
	}
}

// WithCompensatedReply sets the reply delay used after compensation.
func WithCompensatedReply(d time.Duration) Option {
	return func(c *Config) {
		c.CompensatedReply = d
	}
}

// WithAuthorizeWindow sets the payment authorization latency window.
func WithAuthorizeWindow(w service.Window) Option {
	return func(c *Config) {
		c.AuthorizeWindow = w
	}
}

// WithReserveWindow sets the inventory reservation latency window.
func WithReserveWindow(w service.Window) Option {
	return func(c *Config) {
		c.ReserveWindow = w
	}
}

// WithRefundWindow sets the refund latency window.
func WithRefundWindow(w service.Window) Option {
	return func(c *Config) {
		c.RefundWindow = w
	}
}

// WithTickInterval sets the elapsed-time observable period.
func WithTickInterval(d time.Duration) Option {
	return func(c *Config) {
		c.TickInterval = d
	}
}

// ApplyOptions applies the given options to a default config and returns
// the result.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.ReceiveDelay < 0 {
		return ErrInvalidConfig
	}
	if c.DecisionDelay < 0 {
		return ErrInvalidConfig
	}
	if c.ReplyDelay < 0 {
		return ErrInvalidConfig
	}
	if c.CompensatedReply < 0 {
		return ErrInvalidConfig
	}
	for _, w := range []service.Window{c.AuthorizeWindow, c.ReserveWindow, c.RefundWindow} {
		if w.Min < 0 || w.Max < w.Min {
			return ErrInvalidConfig
		}
	}
	if c.TickInterval <= 0 {
		return ErrInvalidConfig
	}
	return nil
}
