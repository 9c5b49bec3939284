package strategies

import (
	"time"

	"github.com/MohammedKarimKhaldi/lob/engine"
	"github.com/MohammedKarimKhaldi/lob/models"
)

// MeanReversion fades the trend: when the mid has moved more than the
// threshold over the lookback window it trades against the move, selling
// strength and buying weakness.
type MeanReversion struct {
	base
}

// NewMeanReversion creates a mean-reversion strategy.
func NewMeanReversion(name string, cfg Config) *MeanReversion {
	return &MeanReversion{base: newBase(name, cfg)}
}

func (s *MeanReversion) OnMarketUpdate(snapshot engine.BookSnapshot) {
	s.observe(snapshot)
}

func (s *MeanReversion) NextEvents(now time.Duration, snapshot engine.BookSnapshot) []engine.Event {
	if !s.due(now) {
		return nil
	}
	move, ok := s.priceMove()
	if !ok {
		return nil
	}

	switch {
	case move.GreaterThan(s.cfg.MeanRevertThresh):
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

	case move.LessThan(s.cfg.MeanRevertThresh.Neg()):
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
	}
	return nil
}

func (s *MeanReversion) OnTrade(trade *models.Trade) {
	s.applyFill(trade)
}
