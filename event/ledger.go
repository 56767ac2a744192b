package event

import (
	"log"
	"sync"
)

// Handler is notified for every event appended to the ledger.
type Handler func(Event)

// Logger is the minimal logging interface used by the ledger.
type Logger interface {
	Printf(format string, v ...any)
}

type defaultLogger struct{}

func (l *defaultLogger) Printf(format string, v ...any) {
	log.Printf(format, v...)
}

// Ledger is an append-only, time-ordered event log scoped to one run.
// The orchestrator is the only writer; consumers read snapshots or
// subscribe to appends. Reset clears it at the start of the next run.
type Ledger struct {
	mu       sync.RWMutex
	events   []Event
	handlers []Handler
	logger   Logger
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithLogger sets a custom logger for handler failures.
func WithLogger(logger Logger) LedgerOption {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// NewLedger creates an empty ledger.
func NewLedger(opts ...LedgerOption) *Ledger {
	l := &Ledger{
		events: make([]Event, 0),
		logger: &defaultLogger{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append adds an event to the ledger and notifies subscribers.
// Handler panics are recovered and logged so observers cannot break a run.
func (l *Ledger) Append(e Event) {
	l.mu.Lock()
	l.events = append(l.events, e)
	handlers := make([]Handler, len(l.handlers))
	copy(handlers, l.handlers)
	l.mu.Unlock()

	for _, h := range handlers {
		l.notify(h, e)
	}
}

func (l *Ledger) notify(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Printf("[Ledger] handler panic for event %q: %v", e.Message, r)
		}
	}()
	h(e)
}

// Subscribe registers a handler for all subsequent appends.
func (l *Ledger) Subscribe(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, h)
}

// Events returns a copy of the current ledger contents in append order.
func (l *Ledger) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of events in the ledger.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Reset discards all events. Subscribers stay registered.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = l.events[:0]
}
