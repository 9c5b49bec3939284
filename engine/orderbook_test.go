package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MohammedKarimKhaldi/lob/models"
)

func newBook() *OrderBook {
	return NewOrderBook(decimal.NewFromFloat(0.01), 10)
}

func restingOrder(trader string, side models.OrderSide, price, quantity string, at time.Duration) *models.Order {
	return models.NewOrder(testIDs.Next(), trader, side, models.OrderTypeLimit,
		decimal.RequireFromString(price), decimal.RequireFromString(quantity), at)
}

func TestInsertAndBestPrices(t *testing.T) {
	ob := newBook()

	if err := ob.Insert(restingOrder("t1", models.OrderSideBuy, "99.50", "10", 0)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := ob.Insert(restingOrder("t2", models.OrderSideBuy, "99.75", "5", 0)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := ob.Insert(restingOrder("t3", models.OrderSideSell, "100.25", "8", 0)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if ob.Size() != 3 {
		t.Errorf("Expected 3 resting orders, got %d", ob.Size())
	}
	if best := ob.BestBid(); best == nil || !best.Equal(decimal.RequireFromString("99.75")) {
		t.Errorf("Expected best bid 99.75, got %v", best)
	}
	if best := ob.BestAsk(); best == nil || !best.Equal(decimal.RequireFromString("100.25")) {
		t.Errorf("Expected best ask 100.25, got %v", best)
	}
}

func TestInsertRejectsMisalignedPrice(t *testing.T) {
	ob := newBook()

	order := restingOrder("t1", models.OrderSideBuy, "99.505", "10", 0)
	if err := ob.Insert(order); err != ErrInvalidOrder {
		t.Fatalf("Expected ErrInvalidOrder, got %v", err)
	}
	if ob.Size() != 0 {
		t.Error("Rejected insert must not mutate the book")
	}
}

func TestInsertRejectsMarketOrder(t *testing.T) {
	ob := newBook()

	order := models.NewOrder(testIDs.Next(), "t1", models.OrderSideBuy, models.OrderTypeMarket, decimal.Zero, decimal.NewFromInt(10), 0)
	if err := ob.Insert(order); err != ErrInvalidOrder {
		t.Fatalf("Expected ErrInvalidOrder for market order, got %v", err)
	}
}

func TestInsertRejectsInvalidOrder(t *testing.T) {
	ob := newBook()

	zeroQty := restingOrder("t1", models.OrderSideBuy, "99.50", "0", 0)
	if err := ob.Insert(zeroQty); err != ErrInvalidOrder {
		t.Errorf("Expected ErrInvalidOrder for zero quantity, got %v", err)
	}
	if err := ob.Insert(nil); err != ErrInvalidOrder {
		t.Errorf("Expected ErrInvalidOrder for nil order, got %v", err)
	}
}

func TestRemoveOrder(t *testing.T) {
	ob := newBook()

	order := restingOrder("t1", models.OrderSideBuy, "99.50", "10", 0)
	if err := ob.Insert(order); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if !ob.Remove(order.ID) {
		t.Fatal("Expected removal of resting order to succeed")
	}
	if ob.Size() != 0 {
		t.Errorf("Expected empty book, got %d orders", ob.Size())
	}
	if ob.BestBid() != nil {
		t.Error("Expected empty price level to be pruned")
	}

	// Second removal is a silent no-op: cancel races are expected.
	if ob.Remove(order.ID) {
		t.Error("Expected removal of a missing order to return false")
	}
	if ob.Remove(uuid.New()) {
		t.Error("Expected removal of an unknown order to return false")
	}
}

func TestDepthAggregation(t *testing.T) {
	ob := newBook()

	ob.Insert(restingOrder("t1", models.OrderSideBuy, "99.50", "10", 0))
	ob.Insert(restingOrder("t2", models.OrderSideBuy, "99.50", "5", 1))
	ob.Insert(restingOrder("t3", models.OrderSideBuy, "99.25", "7", 2))
	ob.Insert(restingOrder("t4", models.OrderSideSell, "100.00", "3", 3))

	bids, asks := ob.Depth(10)
	if len(bids) != 2 {
		t.Fatalf("Expected 2 bid levels, got %d", len(bids))
	}
	if !bids[0].Price.Equal(decimal.RequireFromString("99.50")) {
		t.Errorf("Expected best bid level first, got %s", bids[0].Price)
	}
	if !bids[0].Volume.Equal(decimal.NewFromInt(15)) {
		t.Errorf("Expected aggregated volume 15, got %s", bids[0].Volume)
	}
	if len(asks) != 1 || !asks[0].Volume.Equal(decimal.NewFromInt(3)) {
		t.Errorf("Expected one ask level of 3, got %v", asks)
	}
}

func TestDepthCappedAtMaxLevels(t *testing.T) {
	ob := NewOrderBook(decimal.NewFromFloat(0.01), 3)

	for i := 0; i < 6; i++ {
		price := decimal.NewFromInt(int64(99 - i))
		ob.Insert(models.NewOrder(testIDs.Next(), "t", models.OrderSideBuy, models.OrderTypeLimit, price, decimal.NewFromInt(1), 0))
	}

	bids, _ := ob.Depth(100)
	if len(bids) != 3 {
		t.Errorf("Expected depth capped at 3 levels, got %d", len(bids))
	}
	if !bids[0].Price.Equal(decimal.NewFromInt(99)) {
		t.Errorf("Expected best level first, got %s", bids[0].Price)
	}
}

func TestSnapshotDerivedFields(t *testing.T) {
	ob := newBook()

	ob.Insert(restingOrder("t1", models.OrderSideBuy, "99.00", "10", 0))
	ob.Insert(restingOrder("t2", models.OrderSideSell, "101.00", "4", 0))

	snap := ob.Snapshot(5 * time.Second)
	if snap.Timestamp != 5*time.Second {
		t.Errorf("Expected snapshot timestamp 5s, got %s", snap.Timestamp)
	}
	if snap.MidPrice == nil || !snap.MidPrice.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected mid 100, got %v", snap.MidPrice)
	}
	if snap.Spread == nil || !snap.Spread.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Expected spread 2, got %v", snap.Spread)
	}
	if snap.NumOrders != 2 {
		t.Errorf("Expected 2 orders in snapshot, got %d", snap.NumOrders)
	}
}

func TestSnapshotOneSidedBook(t *testing.T) {
	ob := newBook()
	ob.Insert(restingOrder("t1", models.OrderSideBuy, "99.00", "10", 0))

	snap := ob.Snapshot(0)
	if snap.BestBid == nil {
		t.Fatal("Expected best bid present")
	}
	if snap.BestAsk != nil || snap.MidPrice != nil || snap.Spread != nil {
		t.Error("Expected ask-derived fields absent on a one-sided book")
	}
}

func TestIcebergDisplayedVolumeInDepth(t *testing.T) {
	ob := newBook()

	iceberg := models.NewIcebergOrder(testIDs.Next(), "t1", models.OrderSideSell,
		decimal.RequireFromString("100.00"), decimal.NewFromInt(50), decimal.NewFromInt(10), 0)
	if err := ob.Insert(iceberg); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	_, asks := ob.Depth(10)
	if len(asks) != 1 {
		t.Fatalf("Expected one ask level, got %d", len(asks))
	}
	if !asks[0].Volume.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected only the visible slice in depth, got %s", asks[0].Volume)
	}
}

func TestReplenishIcebergLosesTimePriority(t *testing.T) {
	ob := newBook()
	price := decimal.RequireFromString("100.00")

	iceberg := models.NewIcebergOrder(testIDs.Next(), "t1", models.OrderSideSell, price, decimal.NewFromInt(20), decimal.NewFromInt(10), 0)
	other := models.NewOrder(testIDs.Next(), "t2", models.OrderSideSell, models.OrderTypeLimit, price, decimal.NewFromInt(5), time.Second)
	ob.Insert(iceberg)
	ob.Insert(other)

	// Exhaust the visible slice, then replenish.
	iceberg.Fill(decimal.NewFromInt(10))
	if !ob.ReplenishIceberg(iceberg.ID, 2*time.Second) {
		t.Fatal("Expected replenish to succeed")
	}

	level := ob.BestAskLevel()
	if level == nil || level.Orders.Len() != 2 {
		t.Fatal("Expected both orders resting at the level")
	}
	front := level.Orders.Front().Value.(*models.Order)
	back := level.Orders.Back().Value.(*models.Order)
	if front.ID != other.ID {
		t.Error("Expected the other order to hold time priority after replenish")
	}
	if back.ID != iceberg.ID {
		t.Error("Expected the replenished iceberg at the back of the queue")
	}
	if iceberg.Timestamp != 2*time.Second {
		t.Errorf("Expected refreshed timestamp, got %s", iceberg.Timestamp)
	}
}

func TestTotalVolume(t *testing.T) {
	ob := newBook()

	ob.Insert(restingOrder("t1", models.OrderSideBuy, "99.00", "10", 0))
	ob.Insert(restingOrder("t2", models.OrderSideBuy, "98.00", "5", 0))
	ob.Insert(restingOrder("t3", models.OrderSideSell, "101.00", "7", 0))

	bidVol, askVol := ob.TotalVolume()
	if !bidVol.Equal(decimal.NewFromInt(15)) {
		t.Errorf("Expected bid volume 15, got %s", bidVol)
	}
	if !askVol.Equal(decimal.NewFromInt(7)) {
		t.Errorf("Expected ask volume 7, got %s", askVol)
	}
}
