package agents

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MohammedKarimKhaldi/lob/engine"
	"github.com/MohammedKarimKhaldi/lob/models"
)

// UninformedTrader is a noise trader. It has no view on the price; it submits
// small orders on a random side, priced in a band around the mid, and mostly
// rests them on the book. Noise flow supplies the liquidity the informed
// traders consume.
type UninformedTrader struct {
	baseAgent

	priceBand float64
}

// NewUninformedTrader creates a noise trader whose limit prices fall within
// priceBand (a fraction, e.g. 0.02 for 2%) of the mid price.
func NewUninformedTrader(id string, cfg Config, priceBand float64) *UninformedTrader {
	return &UninformedTrader{
		baseAgent: newBaseAgent(id, cfg),
		priceBand: priceBand,
	}
}

// OnMarketUpdate is a no-op; noise traders ignore market state.
func (t *UninformedTrader) OnMarketUpdate(engine.BookSnapshot) {}

// NextEvents emits the trader's next order arrival once the previous one is
// due.
func (t *UninformedTrader) NextEvents(now time.Duration, snapshot engine.BookSnapshot) []engine.Event {
	if !t.due(now) {
		return nil
	}
	at := t.nextArrival(now)
	t.pendingUntil = at

	order := t.generateOrder(at, snapshot)
	return []engine.Event{engine.NewOrderEvent{Order: order, At: at}}
}

func (t *UninformedTrader) generateOrder(at time.Duration, snapshot engine.BookSnapshot) *models.Order {
	var side models.OrderSide
	if t.rng.Intn(2) == 0 {
		side = models.OrderSideBuy
	} else {
		side = models.OrderSideSell
	}

	t.orderCount++
	qty := decimal.NewFromInt(5 + t.rng.Int63n(46))

	if t.rng.Float64() < 0.2 {
		return t.track(models.NewOrder(t.ids.Next(), t.id, side, models.OrderTypeMarket, decimal.Zero, qty, at))
	}

	offset := (t.rng.Float64()*2 - 1) * t.priceBand
	price := t.quantize(t.mid(snapshot).Mul(decimal.NewFromFloat(1 + offset)))
	if price.LessThanOrEqual(decimal.Zero) {
		price = t.cfg.TickSize
	}
	return t.track(models.NewOrder(t.ids.Next(), t.id, side, models.OrderTypeLimit, price, qty, at))
}

// OnTrade updates inventory and cash for fills on this trader's orders.
func (t *UninformedTrader) OnTrade(trade *models.Trade) {
	t.applyFill(trade)
}
