package agents

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MohammedKarimKhaldi/lob/engine"
	"github.com/MohammedKarimKhaldi/lob/models"
)

// MarketMaker continuously quotes both sides of the book. Each arrival it
// cancels its previous quote pair and posts a fresh one around the mid,
// skewing both prices against its inventory so that a long book quotes lower
// and a short book quotes higher. The very first quote pair goes out at the
// start of the run so the book is never empty.
type MarketMaker struct {
	baseAgent

	halfSpread   float64
	quoteSize    int64
	skewPerUnit  float64
	bidID, askID uuid.UUID
	hasQuotes    bool
	started      bool
}

// NewMarketMaker creates a market maker quoting quoteSize on each side at
// halfSpread (a fraction of the mid) around an inventory-skewed reference.
func NewMarketMaker(id string, cfg Config, halfSpread float64, quoteSize int64) *MarketMaker {
	return &MarketMaker{
		baseAgent:   newBaseAgent(id, cfg),
		halfSpread:  halfSpread,
		quoteSize:   quoteSize,
		skewPerUnit: 0.0001,
	}
}

// OnMarketUpdate is a no-op; the maker requotes on its own arrival schedule.
func (m *MarketMaker) OnMarketUpdate(engine.BookSnapshot) {}

// NextEvents cancels the previous quote pair and posts a new one. The first
// call quotes immediately so the simulation opens with a two-sided book.
func (m *MarketMaker) NextEvents(now time.Duration, snapshot engine.BookSnapshot) []engine.Event {
	if m.started && !m.due(now) {
		return nil
	}

	at := now
	if m.started {
		at = m.nextArrival(now)
	}
	m.started = true
	m.pendingUntil = m.nextArrival(at)

	var events []engine.Event
	if m.hasQuotes {
		events = append(events,
			engine.CancelEvent{OrderID: m.bidID, TraderID: m.id, At: at},
			engine.CancelEvent{OrderID: m.askID, TraderID: m.id, At: at},
		)
	}

	bid, ask := m.quotePair(at, snapshot)
	m.bidID, m.askID = bid.ID, ask.ID
	m.hasQuotes = true
	m.orderCount += 2

	return append(events,
		engine.NewOrderEvent{Order: bid, At: at},
		engine.NewOrderEvent{Order: ask, At: at},
	)
}

func (m *MarketMaker) quotePair(at time.Duration, snapshot engine.BookSnapshot) (*models.Order, *models.Order) {
	mid := m.mid(snapshot)

	// Long inventory pushes both quotes down to attract buyers; short pushes
	// them up to attract sellers.
	inv, _ := m.inventory.Float64()
	skew := -inv * m.skewPerUnit

	bidPrice := m.quantize(mid.Mul(decimal.NewFromFloat(1 + skew - m.halfSpread)))
	askPrice := m.quantize(mid.Mul(decimal.NewFromFloat(1 + skew + m.halfSpread)))
	if bidPrice.LessThanOrEqual(decimal.Zero) {
		bidPrice = m.cfg.TickSize
	}
	if askPrice.LessThanOrEqual(bidPrice) {
		askPrice = bidPrice.Add(m.cfg.TickSize)
	}

	qty := decimal.NewFromInt(m.quoteSize)
	bid := m.track(models.NewOrder(m.ids.Next(), m.id, models.OrderSideBuy, models.OrderTypeLimit, bidPrice, qty, at))
	ask := m.track(models.NewOrder(m.ids.Next(), m.id, models.OrderSideSell, models.OrderTypeLimit, askPrice, qty, at))
	return bid, ask
}

// OnTrade updates inventory and cash for fills on this maker's quotes.
func (m *MarketMaker) OnTrade(trade *models.Trade) {
	m.applyFill(trade)
}
