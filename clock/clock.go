// Package clock provides the speed controller for the simulator.
// It maps a control level in [1,200] to a multiplicative speed factor in
// (0,10] and scales every simulated wait by that factor.
package clock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Level bounds for the speed control input.
const (
	MinLevel = 1
	MaxLevel = 200

	// DefaultLevel maps to a factor of 1.0 (real time).
	DefaultLevel = 100
)

// FactorForLevel maps a control level to a speed factor.
// Levels at or below 100 map linearly onto [0.1, 1.0]; levels above 100
// map linearly onto (1.0, 10.0]. The input must already be in [1,200];
// out-of-range values are clamped by Controller.SetLevel before reaching
// this function.
func FactorForLevel(level int) float64 {
	if level <= 100 {
		return 0.1 + float64(level-1)*0.9/99
	}
	return 1 + float64(level-100)*9/100
}

// ClampLevel clamps a raw control input into [MinLevel, MaxLevel].
func ClampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// FormatFactor renders a speed factor for display: percentages below
// real time ("75%"), multiplier notation at or above ("1.5x").
func FormatFactor(factor float64) string {
	if factor < 1 {
		return fmt.Sprintf("%.0f%%", factor*100)
	}
	return fmt.Sprintf("%.1fx", factor)
}

// Controller holds the current speed factor and performs scaled waits.
// The level may be changed at any time, including mid-run; a wait in
// flight keeps the factor it was computed with.
type Controller struct {
	mu     sync.RWMutex
	level  int
	factor float64
}

// NewController creates a Controller at the default level (factor 1.0).
func NewController() *Controller {
	return &Controller{
		level:  DefaultLevel,
		factor: FactorForLevel(DefaultLevel),
	}
}

// SetLevel clamps the given level into range, stores it, and returns the
// resulting speed factor.
func (c *Controller) SetLevel(level int) float64 {
	level = ClampLevel(level)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level = level
	c.factor = FactorForLevel(level)
	return c.factor
}

// Level returns the current control level.
func (c *Controller) Level() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.level
}

// Factor returns the current speed factor.
func (c *Controller) Factor() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.factor
}

// Scale returns the wall-clock duration a base duration actually takes at
// the current speed factor.
func (c *Controller) Scale(d time.Duration) time.Duration {
	return time.Duration(float64(d) / c.Factor())
}

// Wait blocks for the scaled duration or until the context is done.
// The factor is read once when the wait starts.
func (c *Controller) Wait(ctx context.Context, d time.Duration) error {
	scaled := c.Scale(d)
	if scaled <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(scaled)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
