package logging

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

// ErrorRateLimiter suppresses repeated identical error events so a
// misbehaving participant cannot flood the log. Each distinct key is logged
// at most maxErrorsPerMin times per window.
type ErrorRateLimiter struct {
	mu          sync.Mutex
	errorCounts map[string]*errorEntry
}

type errorEntry struct {
	count      int
	firstSeen  time.Time
	lastLogged time.Time
	suppressed int
}

var (
	rateLimiter     *ErrorRateLimiter
	rateLimitWindow = 1 * time.Minute
	maxErrorsPerMin = 5
)

func NewErrorRateLimiter() *ErrorRateLimiter {
	return &ErrorRateLimiter{
		errorCounts: make(map[string]*errorEntry),
	}
}

func (rl *ErrorRateLimiter) ShouldLog(errorKey string) (shouldLog bool, suppressedCount int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, exists := rl.errorCounts[errorKey]

	if !exists {
		rl.errorCounts[errorKey] = &errorEntry{
			count:      1,
			firstSeen:  now,
			lastLogged: now,
		}
		return true, 0
	}

	if now.Sub(entry.firstSeen) > rateLimitWindow {
		suppressedCount = entry.suppressed
		rl.errorCounts[errorKey] = &errorEntry{
			count:      1,
			firstSeen:  now,
			lastLogged: now,
		}
		return true, suppressedCount
	}

	entry.count++

	if entry.count <= maxErrorsPerMin {
		entry.lastLogged = now
		return true, 0
	}

	entry.suppressed++
	return false, 0
}

// InitLogger initializes the structured logger with JSON format
func InitLogger() *logrus.Logger {
	log = logrus.New()

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "ts",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	log.SetOutput(os.Stdout)

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	rateLimiter = NewErrorRateLimiter()

	return log
}

// GetLogger returns the global logger instance
func GetLogger() *logrus.Logger {
	if log == nil {
		return InitLogger()
	}
	return log
}

// Event types as constants
const (
	EventSimulationStarted   = "simulation_started"
	EventSimulationStopped   = "simulation_stopped"
	EventSimulationCompleted = "simulation_completed"
	EventSimulationReset     = "simulation_reset"
	EventOrderRejected       = "order_rejected"
	EventOrderUnfilled       = "order_unfilled"
	EventOrderCancelled      = "order_cancelled"
	EventTradeExecuted       = "trade_executed"
	EventCausalityViolation  = "causality_violation"
)

// LogSimulationStarted logs the transition into the running state.
func LogSimulationStarted(duration time.Duration, tickSize string, participants int, seed int64) {
	GetLogger().WithFields(logrus.Fields{
		"event":        EventSimulationStarted,
		"duration":     duration.String(),
		"tick_size":    tickSize,
		"participants": participants,
		"seed":         seed,
	}).Info("Simulation started")
}

// LogSimulationFinished logs a terminal transition with run totals.
func LogSimulationFinished(event string, clock time.Duration, eventsProcessed uint64, trades int) {
	GetLogger().WithFields(logrus.Fields{
		"event":            event,
		"clock":            clock.String(),
		"events_processed": eventsProcessed,
		"trades":           trades,
	}).Info("Simulation finished")
}

// LogOrderRejected logs a rejected order.
func LogOrderRejected(orderID, traderID, side, orderType, reason string) {
	GetLogger().WithFields(logrus.Fields{
		"event":     EventOrderRejected,
		"order_id":  orderID,
		"trader_id": traderID,
		"side":      side,
		"type":      orderType,
		"reason":    reason,
	}).Warn("Order rejected")
}

// LogTradeExecuted logs a trade at debug level; runs produce many of these.
func LogTradeExecuted(tradeID, makerOrderID, takerOrderID string, price, quantity float64, clock time.Duration) {
	GetLogger().WithFields(logrus.Fields{
		"event":          EventTradeExecuted,
		"trade_id":       tradeID,
		"maker_order_id": makerOrderID,
		"taker_order_id": takerOrderID,
		"price":          price,
		"quantity":       quantity,
		"clock":          clock.String(),
	}).Debug("Trade executed")
}

// LogCausalityViolation logs a participant scheduling into the past. These
// are rate limited per participant: a buggy participant can emit one per
// callback.
func LogCausalityViolation(traderID string, eventTimestamp, clock time.Duration) {
	if rateLimiter == nil {
		GetLogger() // initializes the rate limiter as a side effect
	}
	shouldLog, suppressed := rateLimiter.ShouldLog("causality:" + traderID)
	if !shouldLog {
		return
	}

	fields := logrus.Fields{
		"event":           EventCausalityViolation,
		"trader_id":       traderID,
		"event_timestamp": eventTimestamp.String(),
		"clock":           clock.String(),
	}
	if suppressed > 0 {
		fields["suppressed_count"] = suppressed
	}
	GetLogger().WithFields(fields).Warn("Causality violation")
}
