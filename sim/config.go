package sim

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Config carries every knob the scheduler needs for one run. Values are
// fixed at Start; changing them mid-run has no effect.
type Config struct {
	// Duration is the simulated time span of the run.
	Duration time.Duration
	// TickSize is the minimum price increment; every admitted price must be
	// an integer multiple of it.
	TickSize decimal.Decimal
	// MaxLevels caps depth queries and snapshot depth.
	MaxLevels int
	// InitialPrice seeds participants' view of the market before the book
	// has a mid price.
	InitialPrice decimal.Decimal
	// SnapshotInterval is the period of the self-rescheduling market data
	// events that drive participant updates and metrics observation.
	SnapshotInterval time.Duration
	// Seed feeds participant random streams. Identical seeds with an
	// identical participant set reproduce a run bit for bit.
	Seed int64
}

// DefaultConfig returns the baseline configuration: a one hour run on a
// 0.01 tick around an initial price of 100.
func DefaultConfig() Config {
	return Config{
		Duration:         time.Hour,
		TickSize:         decimal.NewFromFloat(0.01),
		MaxLevels:        10,
		InitialPrice:     decimal.NewFromInt(100),
		SnapshotInterval: time.Second,
		Seed:             1,
	}
}

// Validate checks the configuration for values the scheduler cannot run
// with.
func (c Config) Validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("config: duration must be positive, got %s", c.Duration)
	}
	if c.TickSize.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("config: tick size must be positive, got %s", c.TickSize)
	}
	if c.MaxLevels <= 0 {
		return fmt.Errorf("config: max levels must be positive, got %d", c.MaxLevels)
	}
	if c.SnapshotInterval <= 0 {
		return fmt.Errorf("config: snapshot interval must be positive, got %s", c.SnapshotInterval)
	}
	return nil
}
