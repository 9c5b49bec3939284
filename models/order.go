package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderSide represents the side of an order (buy or sell)
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType represents the kind of order
type OrderType string

const (
	OrderTypeLimit   OrderType = "limit"
	OrderTypeMarket  OrderType = "market"
	OrderTypeIceberg OrderType = "iceberg"
)

// OrderStatus represents the current status of an order
type OrderStatus string

const (
	OrderStatusOpen            OrderStatus = "open"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusRejected        OrderStatus = "rejected"
)

// Order represents a single order in the simulated market. Timestamps are
// expressed in simulated time: the offset from the start of the run.
type Order struct {
	ID             uuid.UUID       `json:"id"`
	TraderID       string          `json:"trader_id"`
	Side           OrderSide       `json:"side"`
	Type           OrderType       `json:"type"`
	Price          decimal.Decimal `json:"price"`
	Quantity       decimal.Decimal `json:"quantity"`
	FilledQuantity decimal.Decimal `json:"filled_quantity"`
	Status         OrderStatus     `json:"status"`
	Timestamp      time.Duration   `json:"timestamp"`

	// Iceberg fields. PeakQuantity caps the visible slice, VisibleQuantity is
	// the slice currently resting on the book, HiddenQuantity is the reserve.
	PeakQuantity    decimal.Decimal `json:"peak_quantity,omitempty"`
	VisibleQuantity decimal.Decimal `json:"visible_quantity,omitempty"`
	HiddenQuantity  decimal.Decimal `json:"hidden_quantity,omitempty"`
}

// NewOrder creates a plain limit or market order. The caller supplies the
// identifier, normally from its own IDSource, so that identically seeded
// runs mint identical ids.
func NewOrder(id uuid.UUID, traderID string, side OrderSide, orderType OrderType, price, quantity decimal.Decimal, timestamp time.Duration) *Order {
	return &Order{
		ID:             id,
		TraderID:       traderID,
		Side:           side,
		Type:           orderType,
		Price:          price,
		Quantity:       quantity,
		FilledQuantity: decimal.Zero,
		Status:         OrderStatusOpen,
		Timestamp:      timestamp,
	}
}

// NewIcebergOrder creates an iceberg order exposing at most peak quantity at
// a time. The initial visible slice is min(peak, quantity); the remainder is
// held in the hidden reserve.
func NewIcebergOrder(id uuid.UUID, traderID string, side OrderSide, price, quantity, peak decimal.Decimal, timestamp time.Duration) *Order {
	visible := decimal.Min(peak, quantity)
	return &Order{
		ID:              id,
		TraderID:        traderID,
		Side:            side,
		Type:            OrderTypeIceberg,
		Price:           price,
		Quantity:        quantity,
		FilledQuantity:  decimal.Zero,
		Status:          OrderStatusOpen,
		Timestamp:       timestamp,
		PeakQuantity:    peak,
		VisibleQuantity: visible,
		HiddenQuantity:  quantity.Sub(visible),
	}
}

// IsValid validates the order fields
func (o *Order) IsValid() bool {
	if o.TraderID == "" {
		return false
	}

	if o.Side != OrderSideBuy && o.Side != OrderSideSell {
		return false
	}

	if o.Type != OrderTypeLimit && o.Type != OrderTypeMarket && o.Type != OrderTypeIceberg {
		return false
	}

	// Quantity must be positive
	if o.Quantity.LessThanOrEqual(decimal.Zero) {
		return false
	}

	// Resting orders need a positive price; market orders carry none
	if o.Type != OrderTypeMarket && o.Price.LessThanOrEqual(decimal.Zero) {
		return false
	}

	if o.Type == OrderTypeIceberg && o.PeakQuantity.LessThanOrEqual(decimal.Zero) {
		return false
	}

	// FilledQuantity cannot exceed Quantity
	if o.FilledQuantity.GreaterThan(o.Quantity) {
		return false
	}

	return true
}

// RemainingQuantity returns the unfilled quantity of the order
func (o *Order) RemainingQuantity() decimal.Decimal {
	return o.Quantity.Sub(o.FilledQuantity)
}

// DisplayedQuantity returns the quantity visible to depth queries. For
// iceberg orders this is the current visible slice, for everything else the
// full remaining quantity.
func (o *Order) DisplayedQuantity() decimal.Decimal {
	if o.Type == OrderTypeIceberg {
		return o.VisibleQuantity
	}
	return o.RemainingQuantity()
}

// IsFilled checks if the order is completely filled
func (o *Order) IsFilled() bool {
	return o.FilledQuantity.Equal(o.Quantity)
}

// IsPartiallyFilled checks if the order is partially filled
func (o *Order) IsPartiallyFilled() bool {
	return o.FilledQuantity.GreaterThan(decimal.Zero) && o.FilledQuantity.LessThan(o.Quantity)
}

// CanBeFilled checks if the order can still trade
func (o *Order) CanBeFilled() bool {
	return o.Status == OrderStatusOpen || o.Status == OrderStatusPartiallyFilled
}

// Fill updates the order with a fill amount. Iceberg orders consume the
// visible slice; replenishment from the hidden reserve is the order book's
// responsibility, not the order's.
func (o *Order) Fill(quantity decimal.Decimal) {
	o.FilledQuantity = o.FilledQuantity.Add(quantity)
	if o.Type == OrderTypeIceberg {
		o.VisibleQuantity = o.VisibleQuantity.Sub(quantity)
	}

	if o.IsFilled() {
		o.Status = OrderStatusFilled
	} else if o.IsPartiallyFilled() {
		o.Status = OrderStatusPartiallyFilled
	}
}

// Replenish moves up to peak quantity from the hidden reserve into a fresh
// visible slice and stamps the order with a new timestamp, forfeiting its
// time priority. Returns false when there is nothing left to expose.
func (o *Order) Replenish(now time.Duration) bool {
	if o.Type != OrderTypeIceberg || o.HiddenQuantity.LessThanOrEqual(decimal.Zero) {
		return false
	}
	slice := decimal.Min(o.PeakQuantity, o.HiddenQuantity)
	o.VisibleQuantity = slice
	o.HiddenQuantity = o.HiddenQuantity.Sub(slice)
	o.Timestamp = now
	return true
}

// Cancel marks the order as cancelled
func (o *Order) Cancel() {
	o.Status = OrderStatusCancelled
}

// Reject marks the order as rejected
func (o *Order) Reject() {
	o.Status = OrderStatusRejected
}
