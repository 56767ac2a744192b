// Package lock provides the single-flight gate guarding run execution.
package lock

import "sync"

// Gate serializes run execution: at most one holder at a time.
// A failed TryAcquire means a run is already active and the caller must
// treat its request as a no-op.
type Gate interface {
	// TryAcquire attempts to take the gate without blocking.
	TryAcquire() bool

	// Release returns the gate. It must be called exactly once per
	// successful TryAcquire.
	Release()
}

// MemoryGate is the in-process Gate implementation.
type MemoryGate struct {
	mu   sync.Mutex
	held bool
}

// NewMemoryGate creates an unheld gate.
func NewMemoryGate() *MemoryGate {
	return &MemoryGate{}
}

// TryAcquire takes the gate if it is free.
func (g *MemoryGate) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held {
		return false
	}
	g.held = true
	return true
}

// Release frees the gate.
func (g *MemoryGate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.held = false
}

// Held reports whether the gate is currently taken.
func (g *MemoryGate) Held() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held
}
