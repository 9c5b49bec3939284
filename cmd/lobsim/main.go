package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MohammedKarimKhaldi/lob/agents"
	"github.com/MohammedKarimKhaldi/lob/api"
	"github.com/MohammedKarimKhaldi/lob/logging"
	"github.com/MohammedKarimKhaldi/lob/metrics"
	"github.com/MohammedKarimKhaldi/lob/sim"
	"github.com/MohammedKarimKhaldi/lob/strategies"
)

func main() {
	duration := flag.Duration("duration", time.Hour, "simulated time span of the run")
	tick := flag.Float64("tick", 0.01, "tick size, the minimum price increment")
	initialPrice := flag.Float64("price", 100, "initial reference price")
	maxLevels := flag.Int("max-levels", 10, "depth levels kept per side in snapshots")
	snapshotInterval := flag.Duration("snapshot-interval", time.Second, "market data snapshot period")
	seed := flag.Int64("seed", 1, "seed for deterministic random streams")
	numUninformed := flag.Int("uninformed", 10, "number of noise traders")
	numInformed := flag.Int("informed", 2, "number of informed traders")
	numMakers := flag.Int("makers", 2, "number of market makers")
	strategyList := flag.String("strategies", "market_making,momentum,mean_reversion,arbitrage", "comma-separated strategies to run (empty for none)")
	listen := flag.String("listen", "", "serve the control API on this address instead of running to completion")
	cpuProfile := flag.String("cpuprofile", "", "write cpu profile to file")
	flag.Parse()

	logger := logging.InitLogger()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			logger.WithField("error", err.Error()).Fatal("cpu profile file")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.WithField("error", err.Error()).Fatal("cpu profile start")
		}
		defer pprof.StopCPUProfile()
	}

	cfg := sim.DefaultConfig()
	cfg.Duration = *duration
	cfg.TickSize = decimal.NewFromFloat(*tick)
	cfg.InitialPrice = decimal.NewFromFloat(*initialPrice)
	cfg.MaxLevels = *maxLevels
	cfg.SnapshotInterval = *snapshotInterval
	cfg.Seed = *seed

	observer := metrics.NewMarketMetrics()
	registry := sim.NewRegistry()

	simulation, err := sim.New(cfg, registry, observer)
	if err != nil {
		logger.WithField("error", err.Error()).Fatal("invalid configuration")
	}

	registerAgents(registry, cfg, *numUninformed, *numInformed, *numMakers)
	if err := registerStrategies(registry, cfg, *strategyList); err != nil {
		logger.WithField("error", err.Error()).Fatal("strategy setup failed")
	}

	if *listen != "" {
		router := api.NewRouter(simulation, observer)
		logger.WithField("addr", *listen).Info("serving control API")
		if err := http.ListenAndServe(*listen, router); err != nil {
			logger.WithField("error", err.Error()).Fatal("server stopped")
		}
		return
	}

	if err := simulation.Run(context.Background()); err != nil {
		logger.WithField("error", err.Error()).Fatal("run failed")
	}

	printSummary(simulation, observer)
}

// registerAgents builds the default trading population. Each agent gets its
// own seed derived from the run seed so adding one agent does not disturb
// the random streams of the others.
func registerAgents(registry *sim.Registry, cfg sim.Config, uninformed, informed, makers int) {
	agentCfg := agents.Config{
		ArrivalRate:    0.5,
		TickSize:       cfg.TickSize,
		ReferencePrice: cfg.InitialPrice,
	}
	seed := cfg.Seed

	for i := 0; i < makers; i++ {
		c := agentCfg
		c.Seed = seed
		seed++
		registry.Register(agents.NewMarketMaker(fmt.Sprintf("maker-%d", i), c, 0.001, 100))
	}
	for i := 0; i < uninformed; i++ {
		c := agentCfg
		c.Seed = seed
		seed++
		registry.Register(agents.NewUninformedTrader(fmt.Sprintf("noise-%d", i), c, 0.02))
	}
	for i := 0; i < informed; i++ {
		c := agentCfg
		c.Seed = seed
		seed++
		registry.Register(agents.NewInformedTrader(fmt.Sprintf("informed-%d", i), c, 0.05))
	}
}

func registerStrategies(registry *sim.Registry, cfg sim.Config, list string) error {
	if list == "" {
		return nil
	}
	strategyRegistry := strategies.NewRegistry()
	strategyCfg := strategies.DefaultConfig()
	strategyCfg.TickSize = cfg.TickSize

	for _, kind := range splitList(list) {
		s, err := strategyRegistry.Create(kind, "strategy-"+kind, strategyCfg)
		if err != nil {
			return err
		}
		registry.Register(s)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printSummary(simulation *sim.Simulation, observer *metrics.MarketMetrics) {
	logger := logging.GetLogger()
	status := simulation.Status()

	fields := map[string]interface{}{
		"state":            status.State,
		"clock":            status.Clock.String(),
		"events_processed": status.Events,
		"trades":           status.TradeCount,
	}
	for k, v := range observer.Summary() {
		fields[k] = v
	}
	for k, v := range simulation.Stats() {
		fields[k] = v
	}
	entry := logger.WithField("event_type", "run_summary")
	for k, v := range fields {
		entry = entry.WithField(k, v)
	}
	entry.Info("simulation finished")

	for _, name := range simulation.Registry().Names() {
		if perf, ok := simulation.StrategyPerformance(name); ok {
			logger.WithField("event_type", "strategy_performance").
				WithField("strategy", name).
				WithField("total_pnl", perf.TotalPnL.String()).
				WithField("position", perf.Position.String()).
				WithField("trades", perf.NumTrades).
				WithField("win_rate", perf.WinRate).
				Info("strategy result")
		}
	}
}
