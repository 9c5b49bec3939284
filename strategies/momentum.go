package strategies

import (
	"time"

	"github.com/MohammedKarimKhaldi/lob/engine"
	"github.com/MohammedKarimKhaldi/lob/models"
)

// Momentum follows the trend: when the mid has moved more than the threshold
// over the lookback window it joins the move, buying one tick above the bid
// on the way up and selling one tick below the ask on the way down.
type Momentum struct {
	base
}

// NewMomentum creates a momentum strategy.
func NewMomentum(name string, cfg Config) *Momentum {
	return &Momentum{base: newBase(name, cfg)}
}

func (s *Momentum) OnMarketUpdate(snapshot engine.BookSnapshot) {
	s.observe(snapshot)
}

func (s *Momentum) NextEvents(now time.Duration, snapshot engine.BookSnapshot) []engine.Event {
	if !s.due(now) {
		return nil
	}
	move, ok := s.priceMove()
	if !ok {
		return nil
	}

	switch {
	case move.GreaterThan(s.cfg.MomentumThresh):
		if snapshot.BestBid == nil {
			return nil
		}
		qty := s.buyCapacity()
		if qty.Sign() <= 0 {
			return nil
		}
		price := s.quantize(snapshot.BestBid.Add(s.cfg.TickSize))
		order := s.limitOrder(models.OrderSideBuy, price, qty, now)
		return []engine.Event{engine.NewOrderEvent{Order: order, At: now}}

	case move.LessThan(s.cfg.MomentumThresh.Neg()):
		if snapshot.BestAsk == nil {
			return nil
		}
		qty := s.sellCapacity()
		if qty.Sign() <= 0 {
			return nil
		}
		price := s.quantize(snapshot.BestAsk.Sub(s.cfg.TickSize))
		order := s.limitOrder(models.OrderSideSell, price, qty, now)
		return []engine.Event{engine.NewOrderEvent{Order: order, At: now}}
	}
	return nil
}

func (s *Momentum) OnTrade(trade *models.Trade) {
	s.applyFill(trade)
}
