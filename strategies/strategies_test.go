package strategies

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MohammedKarimKhaldi/lob/engine"
	"github.com/MohammedKarimKhaldi/lob/models"
)

var testIDs = models.NewIDSource("strategies-test")

func snapshotAround(bid, ask string) engine.BookSnapshot {
	b := decimal.RequireFromString(bid)
	a := decimal.RequireFromString(ask)
	mid := b.Add(a).Div(decimal.NewFromInt(2))
	spread := a.Sub(b)
	return engine.BookSnapshot{
		BestBid:  &b,
		BestAsk:  &a,
		MidPrice: &mid,
		Spread:   &spread,
	}
}

// fillOn simulates an execution against one of the strategy's own orders.
func fillOn(s Strategy, order *models.Order, price, quantity string, at time.Duration) {
	other := models.NewOrder(testIDs.Next(), "counterparty", opposite(order.Side), models.OrderTypeLimit,
		decimal.RequireFromString(price), decimal.RequireFromString(quantity), at)
	trade := models.NewTrade(testIDs.Next(), order, other, decimal.RequireFromString(price), decimal.RequireFromString(quantity), at)
	s.OnTrade(trade)
}

func opposite(side models.OrderSide) models.OrderSide {
	if side == models.OrderSideBuy {
		return models.OrderSideSell
	}
	return models.OrderSideBuy
}

func TestRegistryCreatesBuiltins(t *testing.T) {
	registry := NewRegistry()
	assert.Equal(t, []string{"arbitrage", "market_making", "mean_reversion", "momentum"}, registry.Available())

	for _, kind := range registry.Available() {
		s, err := registry.Create(kind, "strategy-"+kind, DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, "strategy-"+kind, s.ID())
	}

	_, err := registry.Create("nonsense", "x", DefaultConfig())
	assert.Error(t, err)
}

func TestRealizedPnLRoundTrip(t *testing.T) {
	s := NewMomentum("m", DefaultConfig())

	buy := s.limitOrder(models.OrderSideBuy, decimal.NewFromInt(100), decimal.NewFromInt(10), 0)
	fillOn(s, buy, "100", "10", time.Second)

	perf := s.Performance()
	assert.True(t, perf.Position.Equal(decimal.NewFromInt(10)))
	assert.True(t, perf.AvgEntryPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, perf.RealizedPnL.IsZero())

	sell := s.limitOrder(models.OrderSideSell, decimal.NewFromInt(105), decimal.NewFromInt(10), 2*time.Second)
	fillOn(s, sell, "105", "10", 2*time.Second)

	perf = s.Performance()
	assert.True(t, perf.Position.IsZero())
	assert.True(t, perf.RealizedPnL.Equal(decimal.NewFromInt(50)), "10 @ +5 = 50, got %s", perf.RealizedPnL)
	assert.Equal(t, 2, perf.NumFills)
	assert.Equal(t, 1.0, perf.WinRate)
}

func TestRealizedPnLShortSide(t *testing.T) {
	s := NewMomentum("m", DefaultConfig())

	sell := s.limitOrder(models.OrderSideSell, decimal.NewFromInt(100), decimal.NewFromInt(10), 0)
	fillOn(s, sell, "100", "10", time.Second)

	perf := s.Performance()
	assert.True(t, perf.Position.Equal(decimal.NewFromInt(-10)))

	// Covering higher loses money.
	buy := s.limitOrder(models.OrderSideBuy, decimal.NewFromInt(103), decimal.NewFromInt(10), 2*time.Second)
	fillOn(s, buy, "103", "10", 2*time.Second)

	perf = s.Performance()
	assert.True(t, perf.Position.IsZero())
	assert.True(t, perf.RealizedPnL.Equal(decimal.NewFromInt(-30)))
	assert.Equal(t, 0.0, perf.WinRate)
}

func TestUnrealizedPnLTracksMid(t *testing.T) {
	s := NewMomentum("m", DefaultConfig())

	buy := s.limitOrder(models.OrderSideBuy, decimal.NewFromInt(100), decimal.NewFromInt(10), 0)
	fillOn(s, buy, "100", "10", time.Second)

	s.OnMarketUpdate(snapshotAround("101.50", "102.50"))

	perf := s.Performance()
	assert.True(t, perf.UnrealizedPnL.Equal(decimal.NewFromInt(20)), "10 @ (102-100), got %s", perf.UnrealizedPnL)
	assert.True(t, perf.TotalPnL.Equal(decimal.NewFromInt(20)))
}

func TestPositionCrossingThroughFlat(t *testing.T) {
	s := NewMomentum("m", DefaultConfig())

	buy := s.limitOrder(models.OrderSideBuy, decimal.NewFromInt(100), decimal.NewFromInt(5), 0)
	fillOn(s, buy, "100", "5", time.Second)

	// Sell 8: close 5 long at +2 each, open 3 short at 102.
	sell := s.limitOrder(models.OrderSideSell, decimal.NewFromInt(102), decimal.NewFromInt(8), 2*time.Second)
	fillOn(s, sell, "102", "8", 2*time.Second)

	perf := s.Performance()
	assert.True(t, perf.Position.Equal(decimal.NewFromInt(-3)))
	assert.True(t, perf.RealizedPnL.Equal(decimal.NewFromInt(10)))
	assert.True(t, perf.AvgEntryPrice.Equal(decimal.NewFromInt(102)))
}

func TestMomentumSignals(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lookback = 5
	cfg.MomentumThresh = decimal.NewFromInt(1)
	s := NewMomentum("m", cfg)

	// Rising mids beyond the threshold.
	for i := 0; i < 5; i++ {
		price := decimal.NewFromInt(int64(100 + i))
		bid := price.Sub(decimal.NewFromFloat(0.5))
		ask := price.Add(decimal.NewFromFloat(0.5))
		s.OnMarketUpdate(snapshotAround(bid.String(), ask.String()))
	}

	events := s.NextEvents(time.Second, snapshotAround("103.50", "104.50"))
	require.Len(t, events, 1)
	order := events[0].(engine.NewOrderEvent).Order
	assert.Equal(t, models.OrderSideBuy, order.Side, "Momentum buys a rising market")
}

func TestMeanReversionFadesTheMove(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lookback = 5
	cfg.MeanRevertThresh = decimal.NewFromInt(1)
	s := NewMeanReversion("mr", cfg)

	for i := 0; i < 5; i++ {
		price := decimal.NewFromInt(int64(100 + i))
		bid := price.Sub(decimal.NewFromFloat(0.5))
		ask := price.Add(decimal.NewFromFloat(0.5))
		s.OnMarketUpdate(snapshotAround(bid.String(), ask.String()))
	}

	events := s.NextEvents(time.Second, snapshotAround("103.50", "104.50"))
	require.Len(t, events, 1)
	order := events[0].(engine.NewOrderEvent).Order
	assert.Equal(t, models.OrderSideSell, order.Side, "Mean reversion sells a rising market")
}

func TestNoSignalWithoutHistory(t *testing.T) {
	s := NewMomentum("m", DefaultConfig())
	assert.Nil(t, s.NextEvents(time.Second, snapshotAround("99.00", "101.00")))
}

func TestMarketMakingQuotesAndRequotes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DecisionInterval = time.Second
	s := NewMarketMaking("mm", cfg)
	snap := snapshotAround("99.90", "100.10")

	events := s.NextEvents(0, snap)
	require.Len(t, events, 2)
	bid := events[0].(engine.NewOrderEvent).Order
	ask := events[1].(engine.NewOrderEvent).Order
	assert.Equal(t, models.OrderSideBuy, bid.Side)
	assert.Equal(t, models.OrderSideSell, ask.Side)
	assert.True(t, bid.Price.LessThan(ask.Price))

	// Before the interval elapses, nothing.
	assert.Nil(t, s.NextEvents(500*time.Millisecond, snap))

	// After it, the previous pair is cancelled first.
	events = s.NextEvents(time.Second, snap)
	require.Len(t, events, 4)
	cancel := events[0].(engine.CancelEvent)
	assert.Equal(t, bid.ID, cancel.OrderID)
}

func TestMarketMakingSkipsNarrowSpread(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSpread = decimal.NewFromInt(1)
	s := NewMarketMaking("mm", cfg)

	assert.Nil(t, s.NextEvents(0, snapshotAround("99.99", "100.01")))
}

func TestArbitrageRequiresWideSpread(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ArbitrageThresh = decimal.NewFromFloat(0.5)
	s := NewArbitrage("arb", cfg)

	assert.Nil(t, s.NextEvents(0, snapshotAround("99.90", "100.10")), "Narrow spread, no orders")

	events := s.NextEvents(time.Second, snapshotAround("99.00", "101.00"))
	require.Len(t, events, 2, "Wide spread captured on both sides")
}

func TestPositionCapLimitsOrderSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPosition = 100
	cfg.MaxOrderSize = 100
	s := NewMomentum("m", cfg)
	s.position = decimal.NewFromInt(80)

	assert.True(t, s.buyCapacity().Equal(decimal.NewFromInt(20)))
	assert.True(t, s.sellCapacity().Equal(decimal.NewFromInt(100)))
}
