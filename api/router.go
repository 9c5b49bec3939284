// Package api exposes the simulation control surface over HTTP. It consumes
// only the scheduler's public methods; nothing here reaches into the book or
// the queue directly.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MohammedKarimKhaldi/lob/sim"
)

// Router holds the HTTP router and the simulation it controls.
type Router struct {
	router   *mux.Router
	sim      *sim.Simulation
	observer sim.Observer
}

// NewRouter creates a router with all control-surface routes registered.
// observer may be nil when no metrics collector is attached.
func NewRouter(s *sim.Simulation, observer sim.Observer) *Router {
	r := &Router{
		router:   mux.NewRouter(),
		sim:      s,
		observer: observer,
	}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// Scheduler control
	r.router.HandleFunc("/simulation/start", r.StartSimulation).Methods("POST")
	r.router.HandleFunc("/simulation/stop", r.StopSimulation).Methods("POST")
	r.router.HandleFunc("/simulation/step", r.StepSimulation).Methods("POST")
	r.router.HandleFunc("/simulation/reset", r.ResetSimulation).Methods("POST")
	r.router.HandleFunc("/simulation/status", r.GetStatus).Methods("GET")

	// Market state
	r.router.HandleFunc("/orderbook", r.GetOrderBook).Methods("GET")
	r.router.HandleFunc("/orderbook/depth", r.GetDepth).Methods("GET")
	r.router.HandleFunc("/trades", r.GetTrades).Methods("GET")
	r.router.HandleFunc("/history", r.GetPriceHistory).Methods("GET")

	// Results
	r.router.HandleFunc("/performance/{name}", r.GetPerformance).Methods("GET")
	r.router.HandleFunc("/summary", r.GetSummary).Methods("GET")

	// Health and metrics
	r.router.HandleFunc("/healthz", r.HealthCheck).Methods("GET")
	r.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
