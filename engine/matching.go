package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MohammedKarimKhaldi/lob/models"
)

// ExecutionResult captures everything that happened while processing one
// incoming order: the trades produced and, for market orders, any quantity
// that could not be matched and was discarded.
type ExecutionResult struct {
	Order            *models.Order
	Trades           []*models.Trade
	UnfilledQuantity decimal.Decimal
}

// MatchingEngine mutates the order book in response to incoming orders
// under strict price-time priority. Execution is always at the resting
// (maker) order's price. The engine is synchronous and single-writer: the
// scheduler calls it with one order at a time and each call runs to
// completion, so no locking happens here.
type MatchingEngine struct {
	book *OrderBook

	// ids mints trade identifiers. Deterministic, so identically seeded
	// runs produce identical trade histories.
	ids *models.IDSource
}

// NewMatchingEngine creates a matching engine over the given book.
func NewMatchingEngine(book *OrderBook) *MatchingEngine {
	return &MatchingEngine{
		book: book,
		ids:  models.NewIDSource("matching-engine"),
	}
}

// Book returns the order book the engine operates on.
func (me *MatchingEngine) Book() *OrderBook {
	return me.book
}

// SubmitOrder matches an incoming order against the book. Limit and iceberg
// remainders rest on the book; a market order's unmatched remainder is
// discarded and reported via ErrUnfilled together with a valid result.
// Validation failures reject the order before any book mutation.
func (me *MatchingEngine) SubmitOrder(order *models.Order, now time.Duration) (*ExecutionResult, error) {
	result := &ExecutionResult{
		Order:            order,
		Trades:           make([]*models.Trade, 0),
		UnfilledQuantity: decimal.Zero,
	}

	if order == nil || !order.IsValid() {
		if order != nil {
			order.Reject()
		}
		return nil, ErrInvalidOrder
	}
	if order.Type != models.OrderTypeMarket && !me.book.priceAligned(order.Price) {
		order.Reject()
		return nil, ErrInvalidOrder
	}

	result.Trades = me.match(order, now)

	if order.Type == models.OrderTypeMarket {
		if remaining := order.RemainingQuantity(); remaining.GreaterThan(decimal.Zero) {
			// Remainder is discarded, never rested.
			result.UnfilledQuantity = remaining
			if order.FilledQuantity.IsZero() {
				order.Reject()
			}
			return result, ErrUnfilled
		}
		return result, nil
	}

	if order.CanBeFilled() && !order.IsFilled() {
		if err := me.book.Insert(order); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Cancel removes a resting order. A partially filled order may still be
// cancelled for its remaining quantity; a fully executed or unknown order
// yields false.
func (me *MatchingEngine) Cancel(orderID uuid.UUID) bool {
	order := me.book.GetOrder(orderID)
	if order == nil {
		return false
	}
	if !me.book.Remove(orderID) {
		return false
	}
	order.Cancel()
	return true
}

// match walks the opposite side of the book best-price-first while the
// incoming order has remaining quantity and the best opposing price
// satisfies its limit. Market orders always satisfy.
func (me *MatchingEngine) match(order *models.Order, now time.Duration) []*models.Trade {
	trades := make([]*models.Trade, 0)

	for order.RemainingQuantity().GreaterThan(decimal.Zero) {
		var bestLevel *PriceLevel
		if order.Side == models.OrderSideBuy {
			bestLevel = me.book.BestAskLevel()
		} else {
			bestLevel = me.book.BestBidLevel()
		}

		if bestLevel == nil {
			break
		}

		if order.Type != models.OrderTypeMarket {
			crosses := false
			if order.Side == models.OrderSideBuy {
				crosses = order.Price.GreaterThanOrEqual(bestLevel.Price)
			} else {
				crosses = order.Price.LessThanOrEqual(bestLevel.Price)
			}
			if !crosses {
				break
			}
		}

		trades = append(trades, me.matchAtLevel(order, bestLevel, now)...)
	}

	return trades
}

// matchAtLevel fills the incoming order against the level's FIFO queue. The
// earliest resting order is always served first; an iceberg whose visible
// slice is consumed is replenished from its hidden reserve and requeued at
// the back of the level with a fresh timestamp.
func (me *MatchingEngine) matchAtLevel(taker *models.Order, level *PriceLevel, now time.Duration) []*models.Trade {
	trades := make([]*models.Trade, 0)

	for taker.RemainingQuantity().GreaterThan(decimal.Zero) {
		front := level.Orders.Front()
		if front == nil {
			break
		}
		maker := front.Value.(*models.Order)

		quantity := decimal.Min(taker.RemainingQuantity(), maker.DisplayedQuantity())
		if quantity.LessThanOrEqual(decimal.Zero) {
			break
		}

		// Maker-price execution: the resting side never trades at a worse
		// price than it quoted.
		trade := models.NewTrade(me.ids.Next(), maker, taker, maker.Price, quantity, now)
		maker.Fill(quantity)
		taker.Fill(quantity)
		trades = append(trades, trade)

		switch {
		case maker.IsFilled():
			me.book.Remove(maker.ID)
		case maker.Type == models.OrderTypeIceberg && maker.VisibleQuantity.LessThanOrEqual(decimal.Zero):
			me.book.ReplenishIceberg(maker.ID, now)
		}
		level.UpdateVolume()
	}

	return trades
}
