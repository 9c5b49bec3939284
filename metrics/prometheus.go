package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counter: Total trades executed
	TradesExecutedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trades_executed_total",
			Help: "Total number of trades executed in the simulation",
		},
	)

	// Counter: Total quantity traded
	VolumeTradedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "volume_traded_total",
			Help: "Total quantity traded in the simulation",
		},
	)

	// Gauge: Last trade price
	LastTradePrice = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "last_trade_price",
			Help: "Price of the most recent trade",
		},
	)

	// Gauge: Best bid/ask prices
	BestBidPrice = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "best_bid_price",
			Help: "Current best bid price in the orderbook",
		},
	)

	BestAskPrice = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "best_ask_price",
			Help: "Current best ask price in the orderbook",
		},
	)

	// Gauge: Current bid-ask spread
	CurrentSpread = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "current_spread",
			Help: "Current bid-ask spread",
		},
	)

	// Gauge: Displayed volume resting on each side
	CurrentBookVolume = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "current_book_volume",
			Help: "Displayed volume resting in the orderbook",
		},
		[]string{"side"}, // Labels: buy/sell
	)

	// Gauge: Orders resting in the book
	CurrentOrderbookDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "current_orderbook_depth",
			Help: "Current number of orders in the orderbook",
		},
	)

	// Gauge: Simulated clock position
	SimulationClockSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simulation_clock_seconds",
			Help: "Current simulated time in seconds",
		},
	)
)
