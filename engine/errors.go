package engine

import "errors"

// Common engine errors. Every one of these is recoverable at the call that
// produced it: a rejected operation leaves the book and the event queue
// exactly as they were.
var (
	// ErrInvalidOrder rejects an order with a non-positive quantity, a price
	// not aligned to the tick size, or an unknown order kind.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrCausalityViolation rejects an event scheduled before the current
	// simulation clock. An event at exactly the current clock is legal.
	ErrCausalityViolation = errors.New("event timestamp precedes current clock")

	// ErrUnfilled reports a market order that could not be fully matched.
	// It is a reportable outcome, not a failure: partial fills stand.
	ErrUnfilled = errors.New("market order not fully filled")

	// ErrEngineState rejects an operation invalid for the scheduler's
	// current state, e.g. stepping an idle simulation.
	ErrEngineState = errors.New("operation invalid for engine state")

	// ErrOrderNotFound reports a lookup or cancel for an order no longer in
	// the book.
	ErrOrderNotFound = errors.New("order not found")
)
