package strategies

import (
	"time"

	"github.com/google/uuid"

	"github.com/MohammedKarimKhaldi/lob/engine"
	"github.com/MohammedKarimKhaldi/lob/models"
)

// MarketMaking joins the queue one tick inside the touch on both sides to
// capture the spread. It requotes every decision interval, cancelling the
// previous pair first, and sizes each side down as its position approaches
// the limit.
type MarketMaking struct {
	base

	bidID, askID uuid.UUID
	hasQuotes    bool
}

// NewMarketMaking creates a market-making strategy.
func NewMarketMaking(name string, cfg Config) *MarketMaking {
	return &MarketMaking{base: newBase(name, cfg)}
}

func (s *MarketMaking) OnMarketUpdate(snapshot engine.BookSnapshot) {
	s.observe(snapshot)
}

func (s *MarketMaking) NextEvents(now time.Duration, snapshot engine.BookSnapshot) []engine.Event {
	if !s.due(now) {
		return nil
	}
	if snapshot.BestBid == nil || snapshot.BestAsk == nil {
		return nil
	}
	if snapshot.Spread == nil || snapshot.Spread.LessThan(s.cfg.MinSpread) {
		return nil
	}

	var events []engine.Event
	if s.hasQuotes {
		events = append(events,
			engine.CancelEvent{OrderID: s.bidID, TraderID: s.name, At: now},
			engine.CancelEvent{OrderID: s.askID, TraderID: s.name, At: now},
		)
		s.hasQuotes = false
	}

	buyQty := s.buyCapacity()
	sellQty := s.sellCapacity()
	if buyQty.Sign() <= 0 || sellQty.Sign() <= 0 {
		return events
	}

	bidPrice := s.quantize(snapshot.BestBid.Add(s.cfg.TickSize))
	askPrice := s.quantize(snapshot.BestAsk.Sub(s.cfg.TickSize))
	if askPrice.LessThanOrEqual(bidPrice) {
		return events
	}

	bid := s.limitOrder(models.OrderSideBuy, bidPrice, buyQty, now)
	ask := s.limitOrder(models.OrderSideSell, askPrice, sellQty, now)
	s.bidID, s.askID = bid.ID, ask.ID
	s.hasQuotes = true

	return append(events,
		engine.NewOrderEvent{Order: bid, At: now},
		engine.NewOrderEvent{Order: ask, At: now},
	)
}

func (s *MarketMaking) OnTrade(trade *models.Trade) {
	s.applyFill(trade)
}
