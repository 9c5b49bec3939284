// Package strategies provides pluggable trading strategies that join the
// simulation as participants and report their own performance. New strategies
// register a constructor under a name; the runner instantiates them by name
// without touching core code.
package strategies

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MohammedKarimKhaldi/lob/engine"
	"github.com/MohammedKarimKhaldi/lob/models"
	"github.com/MohammedKarimKhaldi/lob/sim"
)

// Strategy is a participant that tracks its own PnL.
type Strategy interface {
	sim.Participant
	sim.PerformanceReporter
}

// Config carries the knobs shared by all strategies. Zero values are filled
// in from DefaultConfig by the registry.
type Config struct {
	TickSize         decimal.Decimal
	MaxPosition      int64
	MaxOrderSize     int64
	MinSpread        decimal.Decimal
	Lookback         int
	MomentumThresh   decimal.Decimal
	MeanRevertThresh decimal.Decimal
	ArbitrageThresh  decimal.Decimal
	DecisionInterval time.Duration
}

// DefaultConfig returns the strategy defaults.
func DefaultConfig() Config {
	return Config{
		TickSize:         decimal.NewFromFloat(0.01),
		MaxPosition:      1000,
		MaxOrderSize:     100,
		MinSpread:        decimal.NewFromFloat(0.01),
		Lookback:         20,
		MomentumThresh:   decimal.NewFromFloat(0.02),
		MeanRevertThresh: decimal.NewFromFloat(0.03),
		ArbitrageThresh:  decimal.NewFromFloat(0.005),
		DecisionInterval: time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TickSize.LessThanOrEqual(decimal.Zero) {
		c.TickSize = d.TickSize
	}
	if c.MaxPosition <= 0 {
		c.MaxPosition = d.MaxPosition
	}
	if c.MaxOrderSize <= 0 {
		c.MaxOrderSize = d.MaxOrderSize
	}
	if c.MinSpread.LessThanOrEqual(decimal.Zero) {
		c.MinSpread = d.MinSpread
	}
	if c.Lookback <= 0 {
		c.Lookback = d.Lookback
	}
	if c.MomentumThresh.LessThanOrEqual(decimal.Zero) {
		c.MomentumThresh = d.MomentumThresh
	}
	if c.MeanRevertThresh.LessThanOrEqual(decimal.Zero) {
		c.MeanRevertThresh = d.MeanRevertThresh
	}
	if c.ArbitrageThresh.LessThanOrEqual(decimal.Zero) {
		c.ArbitrageThresh = d.ArbitrageThresh
	}
	if c.DecisionInterval <= 0 {
		c.DecisionInterval = d.DecisionInterval
	}
	return c
}

const maxPriceHistory = 1000

// base carries the state every strategy shares: own-order tracking, position
// accounting and a bounded mid-price history.
type base struct {
	name string
	cfg  Config
	ids  *models.IDSource

	myOrders map[uuid.UUID]models.OrderSide
	nextAct  time.Duration

	lastMid      decimal.Decimal
	priceHistory []decimal.Decimal

	position    decimal.Decimal
	avgEntry    decimal.Decimal
	realizedPnL decimal.Decimal
	numTrades   int
	numWins     int
	numLosses   int
	numOrders   int
	numFills    int
}

func newBase(name string, cfg Config) base {
	return base{
		name:     name,
		cfg:      cfg.withDefaults(),
		ids:      models.NewIDSource(name),
		myOrders: make(map[uuid.UUID]models.OrderSide),
	}
}

func (b *base) ID() string { return b.name }

// observe records the snapshot's mid into the bounded price history. It is
// the shared OnMarketUpdate body.
func (b *base) observe(snapshot engine.BookSnapshot) {
	mid := snapshot.Mid(b.lastMid)
	if mid.LessThanOrEqual(decimal.Zero) {
		return
	}
	b.lastMid = mid
	b.priceHistory = append(b.priceHistory, mid)
	if len(b.priceHistory) > maxPriceHistory {
		b.priceHistory = b.priceHistory[1:]
	}
}

// due reports whether the decision interval has elapsed, and if so arms the
// next one.
func (b *base) due(now time.Duration) bool {
	if now < b.nextAct {
		return false
	}
	b.nextAct = now + b.cfg.DecisionInterval
	return true
}

// priceMove returns the change over the lookback window, or false when not
// enough history has accumulated.
func (b *base) priceMove() (decimal.Decimal, bool) {
	n := len(b.priceHistory)
	if n < b.cfg.Lookback {
		return decimal.Zero, false
	}
	window := b.priceHistory[n-b.cfg.Lookback:]
	return window[len(window)-1].Sub(window[0]), true
}

// buyCapacity and sellCapacity bound order size by the position limit.
func (b *base) buyCapacity() decimal.Decimal {
	room := decimal.NewFromInt(b.cfg.MaxPosition).Sub(b.position)
	return decimal.Min(decimal.NewFromInt(b.cfg.MaxOrderSize), room)
}

func (b *base) sellCapacity() decimal.Decimal {
	room := decimal.NewFromInt(b.cfg.MaxPosition).Add(b.position)
	return decimal.Min(decimal.NewFromInt(b.cfg.MaxOrderSize), room)
}

// limitOrder builds, counts and tracks a limit order.
func (b *base) limitOrder(side models.OrderSide, price, qty decimal.Decimal, at time.Duration) *models.Order {
	order := models.NewOrder(b.ids.Next(), b.name, side, models.OrderTypeLimit, price, qty, at)
	b.myOrders[order.ID] = side
	b.numOrders++
	return order
}

func (b *base) quantize(price decimal.Decimal) decimal.Decimal {
	tick := b.cfg.TickSize
	q := price.Div(tick).Round(0).Mul(tick)
	if q.LessThanOrEqual(decimal.Zero) {
		return tick
	}
	return q
}

// applyFill folds an execution on one of this strategy's orders into the
// position accounting. Buys above zero and sells below zero extend the
// position at a volume-weighted entry price; fills in the other direction
// realize PnL against the average entry, and a fill that crosses through
// flat opens the remainder at the trade price.
func (b *base) applyFill(trade *models.Trade) {
	if _, mine := b.myOrders[trade.BuyOrderID]; mine {
		b.fill(models.OrderSideBuy, trade.Price, trade.Quantity)
	}
	if _, mine := b.myOrders[trade.SellOrderID]; mine {
		b.fill(models.OrderSideSell, trade.Price, trade.Quantity)
	}
}

func (b *base) fill(side models.OrderSide, price, qty decimal.Decimal) {
	b.numTrades++
	b.numFills++

	signed := qty
	if side == models.OrderSideSell {
		signed = qty.Neg()
	}
	old := b.position
	b.position = b.position.Add(signed)

	switch {
	case old.IsZero() || old.Sign() == signed.Sign():
		// Extending: volume-weighted average entry.
		total := old.Abs().Mul(b.avgEntry).Add(qty.Mul(price))
		b.avgEntry = total.Div(old.Abs().Add(qty))
	case b.position.Sign() == old.Sign() || b.position.IsZero():
		// Reducing without crossing flat.
		closed := qty
		pnl := price.Sub(b.avgEntry).Mul(closed)
		if old.Sign() < 0 {
			pnl = pnl.Neg()
		}
		b.realize(pnl)
		if b.position.IsZero() {
			b.avgEntry = decimal.Zero
		}
	default:
		// Crossed through flat: realize the closed leg, reopen the rest.
		closed := old.Abs()
		pnl := price.Sub(b.avgEntry).Mul(closed)
		if old.Sign() < 0 {
			pnl = pnl.Neg()
		}
		b.realize(pnl)
		b.avgEntry = price
	}
}

func (b *base) realize(pnl decimal.Decimal) {
	b.realizedPnL = b.realizedPnL.Add(pnl)
	if pnl.Sign() > 0 {
		b.numWins++
	} else {
		b.numLosses++
	}
}

// Performance reports the strategy's current results.
func (b *base) Performance() sim.Performance {
	unrealized := decimal.Zero
	if !b.position.IsZero() && b.lastMid.Sign() > 0 {
		unrealized = b.position.Mul(b.lastMid.Sub(b.avgEntry))
	}
	winRate := 0.0
	if n := b.numWins + b.numLosses; n > 0 {
		winRate = float64(b.numWins) / float64(n)
	}
	return sim.Performance{
		Name:          b.name,
		TotalPnL:      b.realizedPnL.Add(unrealized),
		RealizedPnL:   b.realizedPnL,
		UnrealizedPnL: unrealized,
		Position:      b.position,
		AvgEntryPrice: b.avgEntry,
		NumTrades:     b.numTrades,
		NumOrders:     b.numOrders,
		NumFills:      b.numFills,
		WinRate:       winRate,
	}
}
