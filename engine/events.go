package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/MohammedKarimKhaldi/lob/models"
)

// EventType identifies the variant of a scheduled event.
type EventType string

const (
	EventTypeNewOrder   EventType = "new_order"
	EventTypeCancel     EventType = "cancel"
	EventTypeTrade      EventType = "trade"
	EventTypeMarketData EventType = "market_data"
)

// Event is one occurrence on the simulated timeline. Events are immutable
// once created; the queue only ever stores and removes them.
type Event interface {
	// Type returns the event variant.
	Type() EventType
	// Timestamp returns the simulated time at which the event occurs.
	Timestamp() time.Duration
}

// NewOrderEvent schedules the arrival of a new order.
type NewOrderEvent struct {
	Order *models.Order
	At    time.Duration
}

func (e NewOrderEvent) Type() EventType          { return EventTypeNewOrder }
func (e NewOrderEvent) Timestamp() time.Duration { return e.At }

// CancelEvent schedules the cancellation of a resting order.
type CancelEvent struct {
	OrderID  uuid.UUID
	TraderID string
	At       time.Duration
}

func (e CancelEvent) Type() EventType          { return EventTypeCancel }
func (e CancelEvent) Timestamp() time.Duration { return e.At }

// TradeEvent carries an execution produced by the matching engine back onto
// the timeline so it sorts against already-queued events.
type TradeEvent struct {
	Trade *models.Trade
}

func (e TradeEvent) Type() EventType          { return EventTypeTrade }
func (e TradeEvent) Timestamp() time.Duration { return e.Trade.Timestamp }

// MarketDataEvent schedules a market snapshot broadcast.
type MarketDataEvent struct {
	At time.Duration
}

func (e MarketDataEvent) Type() EventType          { return EventTypeMarketData }
func (e MarketDataEvent) Timestamp() time.Duration { return e.At }
