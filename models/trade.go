package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade represents a matched execution between a resting (maker) order and
// an incoming (taker) order. Trades are immutable facts: they are created by
// the matching engine and never modified afterwards.
type Trade struct {
	ID           uuid.UUID       `json:"id"`
	BuyOrderID   uuid.UUID       `json:"buy_order_id"`
	SellOrderID  uuid.UUID       `json:"sell_order_id"`
	MakerOrderID uuid.UUID       `json:"maker_order_id"`
	TakerOrderID uuid.UUID       `json:"taker_order_id"`
	Price        decimal.Decimal `json:"price"`
	Quantity     decimal.Decimal `json:"quantity"`
	Timestamp    time.Duration   `json:"timestamp"`
}

// NewTrade creates a trade between a maker (resting) and taker (incoming)
// order. Execution is always at the maker's price. The matching engine
// supplies the identifier from its own deterministic stream.
func NewTrade(id uuid.UUID, maker, taker *Order, price, quantity decimal.Decimal, timestamp time.Duration) *Trade {
	t := &Trade{
		ID:           id,
		MakerOrderID: maker.ID,
		TakerOrderID: taker.ID,
		Price:        price,
		Quantity:     quantity,
		Timestamp:    timestamp,
	}
	if taker.Side == OrderSideBuy {
		t.BuyOrderID = taker.ID
		t.SellOrderID = maker.ID
	} else {
		t.BuyOrderID = maker.ID
		t.SellOrderID = taker.ID
	}
	return t
}
