package sim

import "github.com/shopspring/decimal"

// Performance is the view of a strategy's results exposed through the
// control surface.
type Performance struct {
	Name          string          `json:"name"`
	TotalPnL      decimal.Decimal `json:"total_pnl"`
	RealizedPnL   decimal.Decimal `json:"realized_pnl"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	Position      decimal.Decimal `json:"position"`
	AvgEntryPrice decimal.Decimal `json:"avg_entry_price"`
	NumTrades     int             `json:"num_trades"`
	NumOrders     int             `json:"num_orders"`
	NumFills      int             `json:"num_fills"`
	WinRate       float64         `json:"win_rate"`
}

// PerformanceReporter is implemented by participants that track their own
// PnL. The scheduler does not require it; it only surfaces it.
type PerformanceReporter interface {
	Performance() Performance
}
