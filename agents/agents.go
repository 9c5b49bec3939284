// Package agents provides the built-in market participants: informed
// traders, uninformed (noise) traders and market makers. Each participant
// owns a seeded random stream, so a run with the same seeds and registration
// order replays identically.
package agents

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MohammedKarimKhaldi/lob/engine"
	"github.com/MohammedKarimKhaldi/lob/models"
)

// Config carries the parameters shared by all agent kinds.
type Config struct {
	// ArrivalRate is the Poisson intensity of the agent's order flow, in
	// events per simulated second.
	ArrivalRate float64
	// TickSize quantizes every price the agent emits.
	TickSize decimal.Decimal
	// ReferencePrice anchors price generation while the book has no mid.
	ReferencePrice decimal.Decimal
	// Seed initializes the agent's private random stream.
	Seed int64
}

// baseAgent holds the bookkeeping every agent kind shares: identity, the
// random stream, Poisson arrival scheduling and inventory/cash tracking.
type baseAgent struct {
	id  string
	cfg Config
	rng *rand.Rand
	ids *models.IDSource

	// pendingUntil is the timestamp of the last event this agent scheduled.
	// The agent keeps exactly one outstanding event: it emits the next one
	// only once the clock has caught up.
	pendingUntil time.Duration
	orderCount   int

	// myOrders remembers the side of every order this agent submitted so
	// trade callbacks can be attributed without the trade carrying owners.
	myOrders map[uuid.UUID]models.OrderSide

	inventory decimal.Decimal
	cash      decimal.Decimal
}

func newBaseAgent(id string, cfg Config) baseAgent {
	return baseAgent{
		id:        id,
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		ids:       models.NewIDSource(id),
		myOrders:  make(map[uuid.UUID]models.OrderSide),
		inventory: decimal.Zero,
		cash:      decimal.NewFromInt(100000),
	}
}

// track records a submitted order for later trade attribution.
func (a *baseAgent) track(order *models.Order) *models.Order {
	a.myOrders[order.ID] = order.Side
	return order
}

func (a *baseAgent) ID() string { return a.id }

// due reports whether the agent's outstanding event has been reached.
func (a *baseAgent) due(now time.Duration) bool {
	return a.pendingUntil <= now
}

// nextArrival draws the next Poisson arrival strictly after now.
func (a *baseAgent) nextArrival(now time.Duration) time.Duration {
	seconds := a.rng.ExpFloat64() / a.cfg.ArrivalRate
	dt := time.Duration(seconds * float64(time.Second))
	if dt <= 0 {
		dt = time.Microsecond
	}
	return now + dt
}

// quantize snaps a price to the tick grid.
func (a *baseAgent) quantize(price decimal.Decimal) decimal.Decimal {
	tick := a.cfg.TickSize
	if tick.LessThanOrEqual(decimal.Zero) {
		return price
	}
	steps := price.Div(tick).Round(0)
	return steps.Mul(tick)
}

// mid returns the snapshot mid price or the configured reference price.
func (a *baseAgent) mid(snapshot engine.BookSnapshot) decimal.Decimal {
	return snapshot.Mid(a.cfg.ReferencePrice)
}

// applyFill updates inventory and cash for every side of the trade that
// belongs to this agent.
func (a *baseAgent) applyFill(trade *models.Trade) {
	notional := trade.Price.Mul(trade.Quantity)
	if _, mine := a.myOrders[trade.BuyOrderID]; mine {
		a.inventory = a.inventory.Add(trade.Quantity)
		a.cash = a.cash.Sub(notional)
	}
	if _, mine := a.myOrders[trade.SellOrderID]; mine {
		a.inventory = a.inventory.Sub(trade.Quantity)
		a.cash = a.cash.Add(notional)
	}
}

// Inventory returns the agent's signed position.
func (a *baseAgent) Inventory() decimal.Decimal { return a.inventory }

// Cash returns the agent's cash balance.
func (a *baseAgent) Cash() decimal.Decimal { return a.cash }
