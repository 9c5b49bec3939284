package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MohammedKarimKhaldi/lob/models"
)

var testIDs = models.NewIDSource("engine-test")

// Helper functions for creating test orders
func newLimitOrder(trader string, side models.OrderSide, price, quantity string, at time.Duration) *models.Order {
	return models.NewOrder(testIDs.Next(), trader, side, models.OrderTypeLimit,
		decimal.RequireFromString(price), decimal.RequireFromString(quantity), at)
}

func newMarketOrder(trader string, side models.OrderSide, quantity string, at time.Duration) *models.Order {
	return models.NewOrder(testIDs.Next(), trader, side, models.OrderTypeMarket,
		decimal.Zero, decimal.RequireFromString(quantity), at)
}

func newEngine() *MatchingEngine {
	return NewMatchingEngine(NewOrderBook(decimal.NewFromFloat(0.01), 10))
}

// TestMatchingEngine_Suite runs table-driven matching scenarios.
func TestMatchingEngine_Suite(t *testing.T) {
	tests := []struct {
		name           string
		setup          func(*MatchingEngine)
		incoming       *models.Order
		expectErr      error
		expectedTrades int
		validate       func(*testing.T, *MatchingEngine, *ExecutionResult)
	}{
		{
			name:           "Limit order rests on empty book",
			setup:          func(me *MatchingEngine) {},
			incoming:       newLimitOrder("buyer", models.OrderSideBuy, "100.00", "10", 0),
			expectedTrades: 0,
			validate: func(t *testing.T, me *MatchingEngine, result *ExecutionResult) {
				assert.Equal(t, models.OrderStatusOpen, result.Order.Status)
				require.NotNil(t, me.Book().BestBid())
				assert.Equal(t, "100", me.Book().BestBid().String())
			},
		},
		{
			name: "Crossing sell executes at resting bid price",
			setup: func(me *MatchingEngine) {
				_, _ = me.SubmitOrder(newLimitOrder("buyer", models.OrderSideBuy, "100.00", "10", 0), 0)
			},
			incoming:       newLimitOrder("seller", models.OrderSideSell, "99.00", "4", time.Second),
			expectedTrades: 1,
			validate: func(t *testing.T, me *MatchingEngine, result *ExecutionResult) {
				trade := result.Trades[0]
				assert.Equal(t, "100", trade.Price.String(), "Execution must be at the maker's price")
				assert.True(t, trade.Quantity.Equal(decimal.NewFromInt(4)))
				assert.Equal(t, time.Second, trade.Timestamp)
				assert.True(t, result.Order.IsFilled())

				// Maker keeps its remaining 6 on the book.
				maker := me.Book().BestBidLevel()
				require.NotNil(t, maker)
				assert.True(t, maker.Volume.Equal(decimal.NewFromInt(6)))
			},
		},
		{
			name: "Equal prices favor the earlier order",
			setup: func(me *MatchingEngine) {
				_, _ = me.SubmitOrder(newLimitOrder("first", models.OrderSideSell, "100.00", "5", 0), 0)
				_, _ = me.SubmitOrder(newLimitOrder("second", models.OrderSideSell, "100.00", "5", time.Second), time.Second)
			},
			incoming:       newLimitOrder("buyer", models.OrderSideBuy, "100.00", "5", 2*time.Second),
			expectedTrades: 1,
			validate: func(t *testing.T, me *MatchingEngine, result *ExecutionResult) {
				// The remaining resting order belongs to the later trader.
				level := me.Book().BestAskLevel()
				require.NotNil(t, level)
				remaining := level.Orders.Front().Value.(*models.Order)
				assert.Equal(t, "second", remaining.TraderID)
			},
		},
		{
			name: "Aggressive buy sweeps multiple levels",
			setup: func(me *MatchingEngine) {
				_, _ = me.SubmitOrder(newLimitOrder("s1", models.OrderSideSell, "100.00", "3", 0), 0)
				_, _ = me.SubmitOrder(newLimitOrder("s2", models.OrderSideSell, "100.50", "3", 0), 0)
				_, _ = me.SubmitOrder(newLimitOrder("s3", models.OrderSideSell, "101.00", "3", 0), 0)
			},
			incoming:       newLimitOrder("buyer", models.OrderSideBuy, "100.50", "10", time.Second),
			expectedTrades: 2,
			validate: func(t *testing.T, me *MatchingEngine, result *ExecutionResult) {
				assert.Equal(t, "100", result.Trades[0].Price.String(), "Best price first")
				assert.Equal(t, "100.5", result.Trades[1].Price.String())

				// 4 remaining rests at the order's own limit.
				assert.True(t, result.Order.RemainingQuantity().Equal(decimal.NewFromInt(4)))
				require.NotNil(t, me.Book().BestBid())
				assert.Equal(t, "100.5", me.Book().BestBid().String())

				// The 101.00 level was never touched.
				require.NotNil(t, me.Book().BestAsk())
				assert.Equal(t, "101", me.Book().BestAsk().String())
			},
		},
		{
			name: "Market order consumes available liquidity",
			setup: func(me *MatchingEngine) {
				_, _ = me.SubmitOrder(newLimitOrder("s1", models.OrderSideSell, "100.00", "5", 0), 0)
			},
			incoming:       newMarketOrder("buyer", models.OrderSideBuy, "5", time.Second),
			expectedTrades: 1,
			validate: func(t *testing.T, me *MatchingEngine, result *ExecutionResult) {
				assert.True(t, result.Order.IsFilled())
				assert.True(t, result.UnfilledQuantity.IsZero())
				assert.Nil(t, me.Book().BestAsk())
			},
		},
		{
			name: "Market order remainder is discarded",
			setup: func(me *MatchingEngine) {
				_, _ = me.SubmitOrder(newLimitOrder("s1", models.OrderSideSell, "100.00", "3", 0), 0)
			},
			incoming:       newMarketOrder("buyer", models.OrderSideBuy, "10", time.Second),
			expectErr:      ErrUnfilled,
			expectedTrades: 1,
			validate: func(t *testing.T, me *MatchingEngine, result *ExecutionResult) {
				// The partial execution stands; only the remainder is reported.
				assert.True(t, result.Order.FilledQuantity.Equal(decimal.NewFromInt(3)))
				assert.True(t, result.UnfilledQuantity.Equal(decimal.NewFromInt(7)))
				assert.Equal(t, 0, me.Book().Size(), "Market remainder must never rest")
			},
		},
		{
			name:           "Market order against empty book is rejected",
			setup:          func(me *MatchingEngine) {},
			incoming:       newMarketOrder("buyer", models.OrderSideBuy, "10", 0),
			expectErr:      ErrUnfilled,
			expectedTrades: 0,
			validate: func(t *testing.T, me *MatchingEngine, result *ExecutionResult) {
				assert.Equal(t, models.OrderStatusRejected, result.Order.Status)
				assert.True(t, result.UnfilledQuantity.Equal(decimal.NewFromInt(10)))
			},
		},
		{
			name:           "Misaligned limit price is rejected before matching",
			setup:          func(me *MatchingEngine) {},
			incoming:       newLimitOrder("buyer", models.OrderSideBuy, "100.005", "10", 0),
			expectErr:      ErrInvalidOrder,
			expectedTrades: 0,
			validate: func(t *testing.T, me *MatchingEngine, result *ExecutionResult) {
				assert.Equal(t, 0, me.Book().Size())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			me := newEngine()
			tt.setup(me)

			result, err := me.SubmitOrder(tt.incoming, tt.incoming.Timestamp)
			if tt.expectErr != nil {
				require.ErrorIs(t, err, tt.expectErr)
			} else {
				require.NoError(t, err)
			}

			if result != nil {
				assert.Equal(t, tt.expectedTrades, len(result.Trades))
				tt.validate(t, me, result)
			} else {
				assert.Equal(t, 0, tt.expectedTrades)
				bids, asks := me.Book().Depth(10)
				assert.Empty(t, bids)
				assert.Empty(t, asks)
			}

			// Whatever the scenario left behind, the book must not cross.
			if bid, ask := me.Book().BestBid(), me.Book().BestAsk(); bid != nil && ask != nil {
				assert.True(t, bid.LessThan(*ask), "book crossed: bid %s, ask %s", bid, ask)
			}
		})
	}
}

func TestCancelPartiallyFilledOrder(t *testing.T) {
	me := newEngine()

	resting := newLimitOrder("seller", models.OrderSideSell, "100.00", "10", 0)
	_, err := me.SubmitOrder(resting, 0)
	require.NoError(t, err)

	result, err := me.SubmitOrder(newLimitOrder("buyer", models.OrderSideBuy, "100.00", "4", time.Second), time.Second)
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)

	// Cancel the remaining 6.
	require.True(t, me.Cancel(resting.ID))
	assert.Equal(t, models.OrderStatusCancelled, resting.Status)
	assert.True(t, resting.RemainingQuantity().Equal(decimal.NewFromInt(6)))
	assert.Equal(t, 0, me.Book().Size())

	// Executed quantity is untouched by the cancel.
	assert.True(t, resting.FilledQuantity.Equal(decimal.NewFromInt(4)))

	// Cancelling again, or cancelling a fully executed order, fails.
	assert.False(t, me.Cancel(resting.ID))
}

func TestIcebergMatchingAndReplenishment(t *testing.T) {
	me := newEngine()

	iceberg := models.NewIcebergOrder(testIDs.Next(), "ice", models.OrderSideSell,
		decimal.RequireFromString("100.00"), decimal.NewFromInt(30), decimal.NewFromInt(10), 0)
	_, err := me.SubmitOrder(iceberg, 0)
	require.NoError(t, err)

	other := newLimitOrder("other", models.OrderSideSell, "100.00", "5", time.Second)
	_, err = me.SubmitOrder(other, time.Second)
	require.NoError(t, err)

	// Take exactly the visible slice. The iceberg replenishes immediately but
	// requeues behind the other resting order.
	result, err := me.SubmitOrder(newLimitOrder("b1", models.OrderSideBuy, "100.00", "10", 2*time.Second), 2*time.Second)
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	assert.Equal(t, "ice", findTrader(t, me, result.Trades[0].SellOrderID, iceberg, other))

	level := me.Book().BestAskLevel()
	require.NotNil(t, level)
	front := level.Orders.Front().Value.(*models.Order)
	assert.Equal(t, "other", front.TraderID, "Replenished slice must lose time priority")

	// The next taker hits the other order first, then the fresh slice.
	result, err = me.SubmitOrder(newLimitOrder("b2", models.OrderSideBuy, "100.00", "10", 3*time.Second), 3*time.Second)
	require.NoError(t, err)
	require.Len(t, result.Trades, 2)
	assert.Equal(t, other.ID, result.Trades[0].SellOrderID)
	assert.Equal(t, iceberg.ID, result.Trades[1].SellOrderID)
	assert.True(t, result.Trades[1].Quantity.Equal(decimal.NewFromInt(5)))

	// 10 filled from the first taker, 5 from the second; 15 remain.
	assert.True(t, iceberg.RemainingQuantity().Equal(decimal.NewFromInt(15)))
}

func TestIcebergConsumedThroughHiddenReserve(t *testing.T) {
	me := newEngine()

	iceberg := models.NewIcebergOrder(testIDs.Next(), "ice", models.OrderSideSell,
		decimal.RequireFromString("100.00"), decimal.NewFromInt(25), decimal.NewFromInt(10), 0)
	_, err := me.SubmitOrder(iceberg, 0)
	require.NoError(t, err)

	// A large taker chews through every slice in one submission.
	result, err := me.SubmitOrder(newLimitOrder("buyer", models.OrderSideBuy, "100.00", "25", time.Second), time.Second)
	require.NoError(t, err)
	require.Len(t, result.Trades, 3, "Expected one trade per visible slice")
	assert.True(t, result.Trades[0].Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, result.Trades[1].Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, result.Trades[2].Quantity.Equal(decimal.NewFromInt(5)))

	assert.True(t, iceberg.IsFilled())
	assert.Equal(t, 0, me.Book().Size())
}

func TestConservationOfQuantity(t *testing.T) {
	me := newEngine()

	resting := newLimitOrder("seller", models.OrderSideSell, "100.00", "10", 0)
	_, err := me.SubmitOrder(resting, 0)
	require.NoError(t, err)

	taker := newLimitOrder("buyer", models.OrderSideBuy, "100.00", "7", time.Second)
	result, err := me.SubmitOrder(taker, time.Second)
	require.NoError(t, err)

	var traded decimal.Decimal
	for _, trade := range result.Trades {
		traded = traded.Add(trade.Quantity)
	}
	assert.True(t, taker.FilledQuantity.Equal(traded))
	assert.True(t, resting.FilledQuantity.Equal(traded))
	assert.True(t, traded.Add(resting.RemainingQuantity()).Equal(resting.Quantity))
}

func findTrader(t *testing.T, me *MatchingEngine, orderID uuid.UUID, candidates ...*models.Order) string {
	t.Helper()
	for _, c := range candidates {
		if c.ID == orderID {
			return c.TraderID
		}
	}
	t.Fatal("order id not found among candidates")
	return ""
}
