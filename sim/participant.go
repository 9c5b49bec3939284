package sim

import (
	"time"

	"github.com/MohammedKarimKhaldi/lob/engine"
	"github.com/MohammedKarimKhaldi/lob/models"
)

// Participant is the contract through which pluggable agents and strategies
// join the simulation. The scheduler owns the timeline: a participant only
// ever reacts to callbacks and hands back events to schedule. Callbacks must
// not block; there is no I/O inside the core loop.
type Participant interface {
	// ID returns the trader identifier the participant stamps on its orders.
	ID() string

	// OnMarketUpdate delivers the post-dispatch market snapshot. The
	// snapshot is an immutable value; mutating it affects nobody.
	OnMarketUpdate(snapshot engine.BookSnapshot)

	// NextEvents returns zero or more events to schedule. Every returned
	// event must carry a timestamp >= now; earlier timestamps are rejected
	// by the scheduler as causality violations.
	NextEvents(now time.Duration, snapshot engine.BookSnapshot) []engine.Event

	// OnTrade notifies the participant of an execution involving one of its
	// orders.
	OnTrade(trade *models.Trade)
}

// Observer is the metrics contract consumed by the core. The scheduler calls
// it on every market data event and every trade; it never reads metric
// output back into matching decisions.
type Observer interface {
	ObserveSnapshot(snapshot engine.BookSnapshot)
	ObserveTrade(trade *models.Trade)
	Summary() map[string]float64
}

// Registry holds the participants of a run in registration order. Iteration
// order is part of the deterministic-replay contract, which is why this is
// a slice and not a map.
type Registry struct {
	names        []string
	participants map[string]Participant
}

// NewRegistry creates an empty participant registry.
func NewRegistry() *Registry {
	return &Registry{
		names:        make([]string, 0),
		participants: make(map[string]Participant),
	}
}

// Register adds a participant under its ID. Registering the same ID twice
// replaces the earlier entry but keeps its position.
func (r *Registry) Register(p Participant) {
	id := p.ID()
	if _, exists := r.participants[id]; !exists {
		r.names = append(r.names, id)
	}
	r.participants[id] = p
}

// Get returns the participant registered under id, or nil.
func (r *Registry) Get(id string) Participant {
	return r.participants[id]
}

// Len returns the number of registered participants.
func (r *Registry) Len() int {
	return len(r.names)
}

// Each visits participants in registration order.
func (r *Registry) Each(fn func(Participant)) {
	for _, name := range r.names {
		fn(r.participants[name])
	}
}

// Names returns the registered participant IDs in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
