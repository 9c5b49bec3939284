package strategies

import (
	"time"

	"github.com/MohammedKarimKhaldi/lob/engine"
	"github.com/MohammedKarimKhaldi/lob/models"
)

// Arbitrage captures abnormally wide spreads by posting inside both sides
// at once whenever the spread exceeds its threshold.
type Arbitrage struct {
	base
}

// NewArbitrage creates a spread-capture strategy.
func NewArbitrage(name string, cfg Config) *Arbitrage {
	return &Arbitrage{base: newBase(name, cfg)}
}

func (s *Arbitrage) OnMarketUpdate(snapshot engine.BookSnapshot) {
	s.observe(snapshot)
}

func (s *Arbitrage) NextEvents(now time.Duration, snapshot engine.BookSnapshot) []engine.Event {
	if !s.due(now) {
		return nil
	}
	if snapshot.BestBid == nil || snapshot.BestAsk == nil || snapshot.Spread == nil {
		return nil
	}
	if snapshot.Spread.LessThanOrEqual(s.cfg.ArbitrageThresh) {
		return nil
	}

	bidPrice := s.quantize(snapshot.BestBid.Add(s.cfg.TickSize))
	askPrice := s.quantize(snapshot.BestAsk.Sub(s.cfg.TickSize))
	if askPrice.LessThanOrEqual(bidPrice) {
		return nil
	}

	var events []engine.Event
	if qty := s.buyCapacity(); qty.Sign() > 0 {
		order := s.limitOrder(models.OrderSideBuy, bidPrice, qty, now)
		events = append(events, engine.NewOrderEvent{Order: order, At: now})
	}
	if qty := s.sellCapacity(); qty.Sign() > 0 {
		order := s.limitOrder(models.OrderSideSell, askPrice, qty, now)
		events = append(events, engine.NewOrderEvent{Order: order, At: now})
	}
	return events
}

func (s *Arbitrage) OnTrade(trade *models.Trade) {
	s.applyFill(trade)
}
