// Package metrics aggregates market-quality statistics from the simulation's
// observation stream and exports them as Prometheus collectors.
package metrics

import (
	"math"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/MohammedKarimKhaldi/lob/engine"
	"github.com/MohammedKarimKhaldi/lob/models"
)

// MarketMetrics accumulates trade and snapshot statistics over a run. It is
// the simulation's observer; the control surface reads Summary concurrently,
// so all state is guarded.
type MarketMetrics struct {
	mu sync.Mutex

	tradeCount int64
	volume     decimal.Decimal
	notional   decimal.Decimal
	lastPrice  decimal.Decimal

	snapshotCount int64
	spreadSum     decimal.Decimal
	spreadCount   int64
	lastSpread    decimal.Decimal

	// Running variance of mid-price changes (Welford).
	lastMid   float64
	hasMid    bool
	diffCount int64
	diffMean  float64
	diffM2    float64
}

// NewMarketMetrics creates an empty metrics accumulator.
func NewMarketMetrics() *MarketMetrics {
	return &MarketMetrics{}
}

// ObserveTrade folds one execution into the aggregates.
func (m *MarketMetrics) ObserveTrade(trade *models.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tradeCount++
	m.volume = m.volume.Add(trade.Quantity)
	m.notional = m.notional.Add(trade.Price.Mul(trade.Quantity))
	m.lastPrice = trade.Price

	TradesExecutedTotal.Inc()
	VolumeTradedTotal.Add(toFloat(trade.Quantity))
	LastTradePrice.Set(toFloat(trade.Price))
}

// ObserveSnapshot folds one market data snapshot into the aggregates.
func (m *MarketMetrics) ObserveSnapshot(snapshot engine.BookSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshotCount++

	if snapshot.Spread != nil {
		m.lastSpread = *snapshot.Spread
		m.spreadSum = m.spreadSum.Add(*snapshot.Spread)
		m.spreadCount++
		CurrentSpread.Set(toFloat(*snapshot.Spread))
	}
	if snapshot.BestBid != nil {
		BestBidPrice.Set(toFloat(*snapshot.BestBid))
	}
	if snapshot.BestAsk != nil {
		BestAskPrice.Set(toFloat(*snapshot.BestAsk))
	}
	if snapshot.MidPrice != nil {
		mid := toFloat(*snapshot.MidPrice)
		if m.hasMid {
			m.updateVariance(mid - m.lastMid)
		}
		m.lastMid = mid
		m.hasMid = true
	}

	CurrentBookVolume.WithLabelValues("buy").Set(toFloat(snapshot.BidVolume))
	CurrentBookVolume.WithLabelValues("sell").Set(toFloat(snapshot.AskVolume))
	CurrentOrderbookDepth.Set(float64(snapshot.NumOrders))
	SimulationClockSeconds.Set(snapshot.Timestamp.Seconds())
}

func (m *MarketMetrics) updateVariance(diff float64) {
	m.diffCount++
	delta := diff - m.diffMean
	m.diffMean += delta / float64(m.diffCount)
	m.diffM2 += delta * (diff - m.diffMean)
}

// Summary returns the accumulated market-quality statistics.
func (m *MarketMetrics) Summary() map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := map[string]float64{
		"trade_count":    float64(m.tradeCount),
		"total_volume":   toFloat(m.volume),
		"last_price":     toFloat(m.lastPrice),
		"snapshot_count": float64(m.snapshotCount),
		"last_spread":    toFloat(m.lastSpread),
	}
	if m.volume.Sign() > 0 {
		s["vwap"] = toFloat(m.notional.Div(m.volume))
	}
	if m.spreadCount > 0 {
		s["avg_spread"] = toFloat(m.spreadSum.Div(decimal.NewFromInt(m.spreadCount)))
	}
	if m.diffCount > 1 {
		s["mid_volatility"] = math.Sqrt(m.diffM2 / float64(m.diffCount-1))
	}
	return s
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
