package engine

import (
	"container/list"
	"time"

	"github.com/google/btree"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MohammedKarimKhaldi/lob/models"
)

// PriceLevel holds the FIFO queue of resting orders at one price. Orders are
// appended at the back; the front of the list has time priority.
type PriceLevel struct {
	Price  decimal.Decimal
	Orders *list.List
	Volume decimal.Decimal // aggregate displayed quantity at this price
}

// NewPriceLevel creates a new price level
func NewPriceLevel(price decimal.Decimal) *PriceLevel {
	return &PriceLevel{
		Price:  price,
		Orders: list.New(),
		Volume: decimal.Zero,
	}
}

func (pl *PriceLevel) AddOrder(order *models.Order) *list.Element {
	element := pl.Orders.PushBack(order)
	pl.Volume = pl.Volume.Add(order.DisplayedQuantity())
	return element
}

func (pl *PriceLevel) RemoveOrder(element *list.Element) {
	if element == nil {
		return
	}
	order := element.Value.(*models.Order)
	pl.Volume = pl.Volume.Sub(order.DisplayedQuantity())
	pl.Orders.Remove(element)
}

// UpdateVolume recomputes the aggregate displayed quantity from the orders
// currently at the level.
func (pl *PriceLevel) UpdateVolume() {
	pl.Volume = decimal.Zero
	for e := pl.Orders.Front(); e != nil; e = e.Next() {
		order := e.Value.(*models.Order)
		pl.Volume = pl.Volume.Add(order.DisplayedQuantity())
	}
}

func (pl *PriceLevel) IsEmpty() bool {
	return pl.Orders.Len() == 0
}

func (pl *PriceLevel) Less(than btree.Item) bool {
	other := than.(*PriceLevel)
	return pl.Price.LessThan(other.Price)
}

// OrderBookSide is one side of the book: a tree of price levels.
type OrderBookSide struct {
	tree *btree.BTree
}

func NewOrderBookSide() *OrderBookSide {
	return &OrderBookSide{
		tree: btree.New(32),
	}
}

func (obs *OrderBookSide) GetOrCreatePriceLevel(price decimal.Decimal) *PriceLevel {
	searchLevel := &PriceLevel{Price: price}

	if item := obs.tree.Get(searchLevel); item != nil {
		return item.(*PriceLevel)
	}

	newLevel := NewPriceLevel(price)
	obs.tree.ReplaceOrInsert(newLevel)
	return newLevel
}

func (obs *OrderBookSide) GetPriceLevel(price decimal.Decimal) *PriceLevel {
	searchLevel := &PriceLevel{Price: price}
	if item := obs.tree.Get(searchLevel); item != nil {
		return item.(*PriceLevel)
	}
	return nil
}

// RemovePriceLevel removes a price level from the tree
func (obs *OrderBookSide) RemovePriceLevel(price decimal.Decimal) {
	searchLevel := &PriceLevel{Price: price}
	obs.tree.Delete(searchLevel)
}

// GetBestPrice returns the best price level (highest for bids, lowest for asks)
func (obs *OrderBookSide) GetBestPrice(isBid bool) *PriceLevel {
	var item btree.Item
	if isBid {
		item = obs.tree.Max()
	} else {
		item = obs.tree.Min()
	}

	if item != nil {
		return item.(*PriceLevel)
	}
	return nil
}

// Ascend iterates through price levels in ascending order
func (obs *OrderBookSide) Ascend(iterator btree.ItemIterator) {
	obs.tree.Ascend(iterator)
}

// Descend iterates through price levels in descending order
func (obs *OrderBookSide) Descend(iterator btree.ItemIterator) {
	obs.tree.Descend(iterator)
}

// Len returns the number of price levels
func (obs *OrderBookSide) Len() int {
	return obs.tree.Len()
}

// OrderLocation tracks where an order rests in the order book
type OrderLocation struct {
	PriceLevel *PriceLevel
	Element    *list.Element
}

// DepthLevel is one (price, displayed volume) entry of a depth query.
type DepthLevel struct {
	Price  decimal.Decimal `json:"price"`
	Volume decimal.Decimal `json:"volume"`
}

// OrderBook holds the resting orders of a single instrument, indexed by
// price on each side and by order id. The book is a passive container: it
// never decides whether two orders match. The scheduler is its only writer;
// there is no internal locking.
type OrderBook struct {
	TickSize  decimal.Decimal
	MaxLevels int
	Bids      *OrderBookSide               // buy orders, best = highest price
	Asks      *OrderBookSide               // sell orders, best = lowest price
	Orders    map[uuid.UUID]*OrderLocation // O(1) lookup by order id
}

// NewOrderBook creates an empty order book with the given tick size and
// depth query cap.
func NewOrderBook(tickSize decimal.Decimal, maxLevels int) *OrderBook {
	return &OrderBook{
		TickSize:  tickSize,
		MaxLevels: maxLevels,
		Bids:      NewOrderBookSide(),
		Asks:      NewOrderBookSide(),
		Orders:    make(map[uuid.UUID]*OrderLocation),
	}
}

func (ob *OrderBook) side(s models.OrderSide) *OrderBookSide {
	if s == models.OrderSideBuy {
		return ob.Bids
	}
	return ob.Asks
}

// priceAligned reports whether a price is an integer multiple of the tick.
func (ob *OrderBook) priceAligned(price decimal.Decimal) bool {
	if ob.TickSize.LessThanOrEqual(decimal.Zero) {
		return true
	}
	return price.Mod(ob.TickSize).IsZero()
}

// Insert validates and adds a resting order to the book at its limit price.
// It rejects with ErrInvalidOrder on non-positive quantity, a price not
// aligned to the tick size, or an unknown order kind, without mutating the
// book. Market orders never rest and are likewise rejected here.
func (ob *OrderBook) Insert(order *models.Order) error {
	if order == nil || !order.IsValid() || order.Type == models.OrderTypeMarket {
		return ErrInvalidOrder
	}
	if !ob.priceAligned(order.Price) {
		return ErrInvalidOrder
	}

	level := ob.side(order.Side).GetOrCreatePriceLevel(order.Price)
	element := level.AddOrder(order)

	ob.Orders[order.ID] = &OrderLocation{
		PriceLevel: level,
		Element:    element,
	}

	if order.Status == "" {
		order.Status = models.OrderStatusOpen
	}
	return nil
}

// Remove deletes an order from the book. It returns false, not an error,
// when the order is already gone: cancellation races are expected and silent.
func (ob *OrderBook) Remove(orderID uuid.UUID) bool {
	location, exists := ob.Orders[orderID]
	if !exists {
		return false
	}

	order := location.Element.Value.(*models.Order)
	location.PriceLevel.RemoveOrder(location.Element)

	if location.PriceLevel.IsEmpty() {
		ob.side(order.Side).RemovePriceLevel(location.PriceLevel.Price)
	}

	delete(ob.Orders, orderID)
	return true
}

// GetOrder retrieves a resting order by id, or nil.
func (ob *OrderBook) GetOrder(orderID uuid.UUID) *models.Order {
	location, exists := ob.Orders[orderID]
	if !exists {
		return nil
	}
	return location.Element.Value.(*models.Order)
}

// ReplenishIceberg re-exposes a fresh visible slice for an iceberg order
// whose visible quantity is exhausted. The order is moved to the back of its
// price level's FIFO queue with a fresh timestamp: the new slice loses time
// priority at that price. Returns false when the order is gone or has no
// hidden reserve left.
func (ob *OrderBook) ReplenishIceberg(orderID uuid.UUID, now time.Duration) bool {
	location, exists := ob.Orders[orderID]
	if !exists {
		return false
	}

	order := location.Element.Value.(*models.Order)
	if !order.Replenish(now) {
		return false
	}

	level := location.PriceLevel
	level.RemoveOrder(location.Element)
	location.Element = level.AddOrder(order)
	return true
}

// BestBid returns the highest bid price, or nil when the bid side is empty.
func (ob *OrderBook) BestBid() *decimal.Decimal {
	level := ob.Bids.GetBestPrice(true)
	if level == nil {
		return nil
	}
	return &level.Price
}

// BestAsk returns the lowest ask price, or nil when the ask side is empty.
func (ob *OrderBook) BestAsk() *decimal.Decimal {
	level := ob.Asks.GetBestPrice(false)
	if level == nil {
		return nil
	}
	return &level.Price
}

// BestBidLevel returns the best bid price level, or nil.
func (ob *OrderBook) BestBidLevel() *PriceLevel {
	return ob.Bids.GetBestPrice(true)
}

// BestAskLevel returns the best ask price level, or nil.
func (ob *OrderBook) BestAskLevel() *PriceLevel {
	return ob.Asks.GetBestPrice(false)
}

// Depth returns up to the requested number of (price, displayed volume)
// levels on each side, best first. Requests beyond MaxLevels are capped.
func (ob *OrderBook) Depth(levels int) (bids, asks []DepthLevel) {
	if levels <= 0 || levels > ob.MaxLevels {
		levels = ob.MaxLevels
	}

	bids = make([]DepthLevel, 0, levels)
	asks = make([]DepthLevel, 0, levels)

	count := 0
	ob.Bids.Descend(func(item btree.Item) bool {
		if count >= levels {
			return false
		}
		level := item.(*PriceLevel)
		bids = append(bids, DepthLevel{Price: level.Price, Volume: level.Volume})
		count++
		return true
	})

	count = 0
	ob.Asks.Ascend(func(item btree.Item) bool {
		if count >= levels {
			return false
		}
		level := item.(*PriceLevel)
		asks = append(asks, DepthLevel{Price: level.Price, Volume: level.Volume})
		count++
		return true
	})

	return bids, asks
}

// Snapshot recomputes the market view from the current levels. It is never
// cached: every call reflects the book as it stands.
func (ob *OrderBook) Snapshot(now time.Duration) BookSnapshot {
	snap := BookSnapshot{
		Timestamp: now,
		BidVolume: decimal.Zero,
		AskVolume: decimal.Zero,
	}

	bestBid := ob.Bids.GetBestPrice(true)
	bestAsk := ob.Asks.GetBestPrice(false)

	if bestBid != nil {
		price := bestBid.Price
		snap.BestBid = &price
		snap.BidVolume = bestBid.Volume
	}
	if bestAsk != nil {
		price := bestAsk.Price
		snap.BestAsk = &price
		snap.AskVolume = bestAsk.Volume
	}
	if bestBid != nil && bestAsk != nil {
		mid := bestBid.Price.Add(bestAsk.Price).Div(decimal.NewFromInt(2))
		spread := bestAsk.Price.Sub(bestBid.Price)
		snap.MidPrice = &mid
		snap.Spread = &spread
	}

	snap.Bids, snap.Asks = ob.Depth(ob.MaxLevels)
	snap.NumOrders = len(ob.Orders)
	return snap
}

// Size returns the total number of resting orders.
func (ob *OrderBook) Size() int {
	return len(ob.Orders)
}

// TotalVolume sums the displayed volume across all levels on each side.
func (ob *OrderBook) TotalVolume() (bidVolume, askVolume decimal.Decimal) {
	bidVolume = decimal.Zero
	askVolume = decimal.Zero

	ob.Bids.Ascend(func(item btree.Item) bool {
		bidVolume = bidVolume.Add(item.(*PriceLevel).Volume)
		return true
	})
	ob.Asks.Ascend(func(item btree.Item) bool {
		askVolume = askVolume.Add(item.(*PriceLevel).Volume)
		return true
	})

	return bidVolume, askVolume
}

// Clear removes all orders from the order book
func (ob *OrderBook) Clear() {
	ob.Bids = NewOrderBookSide()
	ob.Asks = NewOrderBookSide()
	ob.Orders = make(map[uuid.UUID]*OrderLocation)
}
