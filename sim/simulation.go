package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MohammedKarimKhaldi/lob/engine"
	"github.com/MohammedKarimKhaldi/lob/logging"
	"github.com/MohammedKarimKhaldi/lob/models"
)

// State is the scheduler's lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateStopped   State = "stopped"
	StateCompleted State = "completed"
)

// Status is the control-surface view of the scheduler.
type Status struct {
	State      State         `json:"state"`
	Clock      time.Duration `json:"clock"`
	QueueLen   int           `json:"queue_len"`
	Events     uint64        `json:"events_processed"`
	TradeCount int           `json:"trade_count"`
}

// PricePoint is one entry of the recorded market history.
type PricePoint struct {
	Timestamp time.Duration    `json:"timestamp"`
	MidPrice  *decimal.Decimal `json:"mid_price,omitempty"`
	BestBid   *decimal.Decimal `json:"best_bid,omitempty"`
	BestAsk   *decimal.Decimal `json:"best_ask,omitempty"`
	Spread    *decimal.Decimal `json:"spread,omitempty"`
	BidVolume decimal.Decimal  `json:"bid_volume"`
	AskVolume decimal.Decimal  `json:"ask_volume"`
}

// Simulation is the discrete-event scheduler: the single writer of the order
// book and the event queue. It pops the earliest event, advances the clock
// to its timestamp, dispatches it, then lets every participant react. One
// mutex serializes the whole engine instance; external readers observe only
// through the snapshot accessors, which take the same lock.
type Simulation struct {
	mu sync.Mutex

	config   Config
	registry *Registry
	observer Observer

	book    *engine.OrderBook
	matcher *engine.MatchingEngine
	queue   *engine.EventQueue

	state State
	clock time.Duration

	trades       []*models.Trade
	priceHistory []PricePoint
	orderOwner   map[uuid.UUID]string

	eventsProcessed     uint64
	ordersSubmitted     uint64
	ordersRejected      uint64
	cancelsProcessed    uint64
	causalityViolations uint64
}

// New creates an idle simulation. Participants may be registered on the
// registry at any point before Start. The observer may be nil.
func New(config Config, registry *Registry, observer Observer) (*Simulation, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		registry = NewRegistry()
	}

	s := &Simulation{
		config:   config,
		registry: registry,
		observer: observer,
		state:    StateIdle,
	}
	s.initRun()
	return s, nil
}

// initRun resets the book, queue and history for a fresh run. Callers hold
// the lock or have exclusive access.
func (s *Simulation) initRun() {
	s.book = engine.NewOrderBook(s.config.TickSize, s.config.MaxLevels)
	s.matcher = engine.NewMatchingEngine(s.book)
	s.queue = engine.NewEventQueue()
	s.clock = 0
	s.trades = make([]*models.Trade, 0)
	s.priceHistory = make([]PricePoint, 0)
	s.orderOwner = make(map[uuid.UUID]string)
	s.eventsProcessed = 0
	s.ordersSubmitted = 0
	s.ordersRejected = 0
	s.cancelsProcessed = 0
	s.causalityViolations = 0
}

// Registry returns the participant registry backing this simulation.
func (s *Simulation) Registry() *Registry {
	return s.registry
}

// Config returns the configuration the simulation was built with.
func (s *Simulation) Config() Config {
	return s.config
}

// Start primes the queue and transitions Idle -> Running. The configuration
// is bound at New; a different run setup needs a new Simulation. Every registered
// participant is given the initial snapshot and has its first events
// scheduled before the first pop, so a participant registered any time
// before Start trades from simulated time zero. The first market data event
// is also scheduled here.
func (s *Simulation) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return fmt.Errorf("start from %s: %w", s.state, engine.ErrEngineState)
	}

	snapshot := s.book.Snapshot(s.clock)
	s.registry.Each(func(p Participant) {
		p.OnMarketUpdate(snapshot)
		for _, ev := range p.NextEvents(s.clock, snapshot) {
			s.scheduleParticipantEvent(p.ID(), ev)
		}
	})

	s.queue.Push(engine.MarketDataEvent{At: 0})

	s.state = StateRunning
	logging.LogSimulationStarted(s.config.Duration, s.config.TickSize.String(), s.registry.Len(), s.config.Seed)
	return nil
}

// Stop requests a halt. It is honored at an event boundary: because the
// scheduler holds the engine lock for the full dispatch of each event, a
// stop can never interrupt matching in progress.
func (s *Simulation) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return fmt.Errorf("stop from %s: %w", s.state, engine.ErrEngineState)
	}
	s.state = StateStopped
	logging.LogSimulationFinished(logging.EventSimulationStopped, s.clock, s.eventsProcessed, len(s.trades))
	return nil
}

// Reset discards the book, the queue and all history and returns to Idle.
// Registered participants are kept; their internal state is their own
// concern.
func (s *Simulation) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initRun()
	s.state = StateIdle
	logging.GetLogger().WithField("event", logging.EventSimulationReset).Info("Simulation reset")
}

// Step processes up to maxEvents events and returns how many were handled.
// It is the unit of cooperative scheduling: a host interleaves engine
// progress with other work by calling Step repeatedly. Stepping a
// simulation that is not running fails with ErrEngineState.
func (s *Simulation) Step(maxEvents int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return 0, fmt.Errorf("step from %s: %w", s.state, engine.ErrEngineState)
	}

	processed := 0
	for processed < maxEvents && s.state == StateRunning {
		if !s.processNextEvent() {
			break
		}
		processed++
	}
	return processed, nil
}

// Run drives the simulation until it completes, is stopped, or the context
// is cancelled. Cancellation, like Stop, is honored only at event
// boundaries.
func (s *Simulation) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	const batch = 256
	for {
		if ctx != nil {
			select {
			case <-ctx.Done():
				if err := s.Stop(); err == nil {
					return ctx.Err()
				}
				return ctx.Err()
			default:
			}
		}

		n, err := s.Step(batch)
		if err != nil {
			if s.State() == StateCompleted || s.State() == StateStopped {
				return nil
			}
			return err
		}
		if n == 0 {
			// A short step means processNextEvent hit a terminal transition.
			return nil
		}
	}
}

// processNextEvent pops and dispatches one event. Returns false when the run
// reached a terminal state instead. Caller holds the lock.
func (s *Simulation) processNextEvent() bool {
	if s.clock >= s.config.Duration {
		s.complete()
		return false
	}

	ev := s.queue.Pop()
	if ev == nil {
		s.complete()
		return false
	}

	// The clock is advanced here and nowhere else.
	s.clock = ev.Timestamp()
	s.dispatch(ev)
	s.eventsProcessed++

	// Let every participant react to the post-dispatch market state. The
	// snapshot is computed once and shared by value.
	snapshot := s.book.Snapshot(s.clock)
	s.registry.Each(func(p Participant) {
		p.OnMarketUpdate(snapshot)
		for _, next := range p.NextEvents(s.clock, snapshot) {
			s.scheduleParticipantEvent(p.ID(), next)
		}
	})

	return true
}

// dispatch routes one event by variant. Caller holds the lock.
func (s *Simulation) dispatch(ev engine.Event) {
	switch e := ev.(type) {
	case engine.NewOrderEvent:
		s.dispatchNewOrder(e)
	case engine.CancelEvent:
		if s.matcher.Cancel(e.OrderID) {
			s.cancelsProcessed++
		} else {
			// Cancel races are expected: the order may have executed first.
			logging.GetLogger().WithFields(map[string]interface{}{
				"event":     logging.EventOrderCancelled,
				"order_id":  e.OrderID.String(),
				"trader_id": e.TraderID,
				"error":     engine.ErrOrderNotFound.Error(),
			}).Debug("Cancel for an order no longer resting")
		}
	case engine.TradeEvent:
		s.dispatchTrade(e.Trade)
	case engine.MarketDataEvent:
		s.dispatchMarketData()
	}
}

func (s *Simulation) dispatchNewOrder(e engine.NewOrderEvent) {
	order := e.Order
	s.ordersSubmitted++
	s.orderOwner[order.ID] = order.TraderID

	result, err := s.matcher.SubmitOrder(order, s.clock)
	switch {
	case err == nil:
	case result != nil: // ErrUnfilled: reportable, trades stand
		logging.GetLogger().WithFields(map[string]interface{}{
			"event":    logging.EventOrderUnfilled,
			"order_id": order.ID.String(),
			"unfilled": result.UnfilledQuantity.String(),
		}).Debug("Market order partially unfilled")
	default:
		s.ordersRejected++
		logging.LogOrderRejected(order.ID.String(), order.TraderID, string(order.Side), string(order.Type), err.Error())
		return
	}

	// Derived trades go back through the queue at the current clock so they
	// sort against anything already scheduled at this timestamp.
	for _, trade := range result.Trades {
		s.queue.Push(engine.TradeEvent{Trade: trade})
	}
}

func (s *Simulation) dispatchTrade(trade *models.Trade) {
	s.trades = append(s.trades, trade)

	if s.observer != nil {
		s.observer.ObserveTrade(trade)
	}

	price, _ := trade.Price.Float64()
	quantity, _ := trade.Quantity.Float64()
	logging.LogTradeExecuted(trade.ID.String(), trade.MakerOrderID.String(), trade.TakerOrderID.String(), price, quantity, s.clock)

	// Notify the owners of both sides, once each.
	buyOwner := s.orderOwner[trade.BuyOrderID]
	sellOwner := s.orderOwner[trade.SellOrderID]
	if p := s.registry.Get(buyOwner); p != nil {
		p.OnTrade(trade)
	}
	if sellOwner != buyOwner {
		if p := s.registry.Get(sellOwner); p != nil {
			p.OnTrade(trade)
		}
	}
}

func (s *Simulation) dispatchMarketData() {
	snapshot := s.book.Snapshot(s.clock)

	if s.observer != nil {
		s.observer.ObserveSnapshot(snapshot)
	}

	s.priceHistory = append(s.priceHistory, PricePoint{
		Timestamp: snapshot.Timestamp,
		MidPrice:  snapshot.MidPrice,
		BestBid:   snapshot.BestBid,
		BestAsk:   snapshot.BestAsk,
		Spread:    snapshot.Spread,
		BidVolume: snapshot.BidVolume,
		AskVolume: snapshot.AskVolume,
	})

	// Market data is self-rescheduling for the whole run.
	next := s.clock + s.config.SnapshotInterval
	if next < s.config.Duration {
		s.queue.Push(engine.MarketDataEvent{At: next})
	}
}

// scheduleParticipantEvent pushes a participant event after the causality
// check: an event timestamped before the current clock is rejected, logged
// and dropped; the run continues. Caller holds the lock.
func (s *Simulation) scheduleParticipantEvent(traderID string, ev engine.Event) error {
	if ev == nil {
		return nil
	}
	if ev.Timestamp() < s.clock {
		s.causalityViolations++
		logging.LogCausalityViolation(traderID, ev.Timestamp(), s.clock)
		return engine.ErrCausalityViolation
	}
	s.queue.Push(ev)
	return nil
}

// complete transitions Running -> Completed. Caller holds the lock.
func (s *Simulation) complete() {
	if s.state != StateRunning {
		return
	}
	s.state = StateCompleted
	logging.LogSimulationFinished(logging.EventSimulationCompleted, s.clock, s.eventsProcessed, len(s.trades))
}

// State returns the current lifecycle state.
func (s *Simulation) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status reports the control-surface view: state, clock and queue length.
func (s *Simulation) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:      s.state,
		Clock:      s.clock,
		QueueLen:   s.queue.Len(),
		Events:     s.eventsProcessed,
		TradeCount: len(s.trades),
	}
}

// Snapshot returns the current book snapshot, taken under the engine lock.
func (s *Simulation) Snapshot() engine.BookSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Snapshot(s.clock)
}

// Depth returns up to levels of displayed (price, volume) pairs per side.
func (s *Simulation) Depth(levels int) (bids, asks []engine.DepthLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Depth(levels)
}

// Trades returns a copy of the trade history so far.
func (s *Simulation) Trades() []*models.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Trade, len(s.trades))
	copy(out, s.trades)
	return out
}

// PriceHistory returns a copy of the recorded market history.
func (s *Simulation) PriceHistory() []PricePoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PricePoint, len(s.priceHistory))
	copy(out, s.priceHistory)
	return out
}

// StrategyPerformance returns the performance view of the named participant,
// if it reports one.
func (s *Simulation) StrategyPerformance(name string) (Performance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.registry.Get(name)
	if p == nil {
		return Performance{}, false
	}
	reporter, ok := p.(PerformanceReporter)
	if !ok {
		return Performance{}, false
	}
	return reporter.Performance(), true
}

// CausalityViolations returns how many participant events were rejected for
// scheduling into the past.
func (s *Simulation) CausalityViolations() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.causalityViolations
}

// Stats returns run counters for diagnostics.
func (s *Simulation) Stats() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]uint64{
		"events_processed":     s.eventsProcessed,
		"orders_submitted":     s.ordersSubmitted,
		"orders_rejected":      s.ordersRejected,
		"cancels_processed":    s.cancelsProcessed,
		"causality_violations": s.causalityViolations,
		"trades":               uint64(len(s.trades)),
	}
}
