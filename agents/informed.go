package agents

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MohammedKarimKhaldi/lob/engine"
	"github.com/MohammedKarimKhaldi/lob/models"
)

// InformedTrader trades on private information that arrives randomly. While
// informed it picks a direction, prices aggressively, prefers market orders
// and trades larger size; large informed orders hide their size behind an
// iceberg. The information decays with every market update until it is
// worthless.
type InformedTrader struct {
	baseAgent

	privateInfoProb float64
	hasPrivateInfo  bool
	infoDirection   int // 1 bullish, -1 bearish
	infoStrength    float64
}

// NewInformedTrader creates an informed trader with the given probability of
// receiving private information on each arrival.
func NewInformedTrader(id string, cfg Config, privateInfoProb float64) *InformedTrader {
	return &InformedTrader{
		baseAgent:       newBaseAgent(id, cfg),
		privateInfoProb: privateInfoProb,
	}
}

// OnMarketUpdate decays the trader's private information.
func (t *InformedTrader) OnMarketUpdate(engine.BookSnapshot) {
	if t.hasPrivateInfo {
		t.infoStrength *= 0.99
		if t.infoStrength < 0.001 {
			t.hasPrivateInfo = false
		}
	}
}

// NextEvents emits the trader's next order arrival once the previous one is
// due.
func (t *InformedTrader) NextEvents(now time.Duration, snapshot engine.BookSnapshot) []engine.Event {
	if !t.due(now) {
		return nil
	}
	at := t.nextArrival(now)
	t.pendingUntil = at

	order := t.generateOrder(at, snapshot)
	return []engine.Event{engine.NewOrderEvent{Order: order, At: at}}
}

func (t *InformedTrader) generateOrder(at time.Duration, snapshot engine.BookSnapshot) *models.Order {
	if t.rng.Float64() < t.privateInfoProb {
		t.hasPrivateInfo = true
		if t.rng.Intn(2) == 0 {
			t.infoDirection = -1
		} else {
			t.infoDirection = 1
		}
		t.infoStrength = 0.01 + 0.04*t.rng.Float64()
	}

	var side models.OrderSide
	var adjustment float64
	var quantity int64

	if t.hasPrivateInfo {
		if t.infoDirection > 0 {
			side = models.OrderSideBuy
			adjustment = t.infoStrength
		} else {
			side = models.OrderSideSell
			adjustment = -t.infoStrength
		}
		quantity = 100 + t.rng.Int63n(401)
	} else {
		if t.rng.Intn(2) == 0 {
			side = models.OrderSideBuy
		} else {
			side = models.OrderSideSell
		}
		adjustment = -0.02 + 0.04*t.rng.Float64()
		quantity = 10 + t.rng.Int63n(91)
	}

	t.orderCount++
	qty := decimal.NewFromInt(quantity)

	// Informed traders lean on market orders to cross the spread quickly.
	marketOrderProb := 0.3
	if t.hasPrivateInfo {
		marketOrderProb = 0.7
	}
	if t.rng.Float64() < marketOrderProb {
		return t.track(models.NewOrder(t.ids.Next(), t.id, side, models.OrderTypeMarket, decimal.Zero, qty, at))
	}

	base := t.mid(snapshot)
	price := t.quantize(base.Mul(decimal.NewFromFloat(1 + adjustment)))
	if price.LessThanOrEqual(decimal.Zero) {
		price = t.cfg.TickSize
	}

	// Large informed limit orders hide their size.
	if t.hasPrivateInfo && quantity >= 200 {
		peak := t.quantizeQty(qty.Div(decimal.NewFromInt(5)))
		return t.track(models.NewIcebergOrder(t.ids.Next(), t.id, side, price, qty, peak, at))
	}

	return t.track(models.NewOrder(t.ids.Next(), t.id, side, models.OrderTypeLimit, price, qty, at))
}

// quantizeQty keeps iceberg peaks at whole units.
func (t *InformedTrader) quantizeQty(q decimal.Decimal) decimal.Decimal {
	rounded := q.Round(0)
	if rounded.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(1)
	}
	return rounded
}

// OnTrade updates inventory and cash for fills on this trader's orders.
func (t *InformedTrader) OnTrade(trade *models.Trade) {
	t.applyFill(trade)
}
