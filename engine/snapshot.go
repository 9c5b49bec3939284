package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookSnapshot is a point-in-time, immutable read of the book. It is
// produced once per dispatch and handed to every participant callback, so
// no participant can mutate market state seen by another. Pointer fields
// are nil when the corresponding side is empty.
type BookSnapshot struct {
	Timestamp time.Duration    `json:"timestamp"`
	BestBid   *decimal.Decimal `json:"best_bid,omitempty"`
	BestAsk   *decimal.Decimal `json:"best_ask,omitempty"`
	MidPrice  *decimal.Decimal `json:"mid_price,omitempty"`
	Spread    *decimal.Decimal `json:"spread,omitempty"`
	BidVolume decimal.Decimal  `json:"bid_volume"` // displayed volume at best bid
	AskVolume decimal.Decimal  `json:"ask_volume"` // displayed volume at best ask
	Bids      []DepthLevel     `json:"bids"`
	Asks      []DepthLevel     `json:"asks"`
	NumOrders int              `json:"num_orders"`
}

// Mid returns the mid price or falls back to the given default when either
// side of the book is empty.
func (s BookSnapshot) Mid(fallback decimal.Decimal) decimal.Decimal {
	if s.MidPrice != nil {
		return *s.MidPrice
	}
	return fallback
}
