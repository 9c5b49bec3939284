package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/MohammedKarimKhaldi/lob/engine"
)

// StartSimulation primes the participants and moves the scheduler to Running.
func (r *Router) StartSimulation(w http.ResponseWriter, req *http.Request) {
	if err := r.sim.Start(); err != nil {
		respondError(w, stateErrorCode(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  r.sim.Status(),
	})
}

// StopSimulation halts the run at the current event boundary.
func (r *Router) StopSimulation(w http.ResponseWriter, req *http.Request) {
	if err := r.sim.Stop(); err != nil {
		respondError(w, stateErrorCode(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  r.sim.Status(),
	})
}

// StepSimulation processes up to max_events events (default 1).
func (r *Router) StepSimulation(w http.ResponseWriter, req *http.Request) {
	maxEvents := 1
	if v := req.URL.Query().Get("max_events"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "max_events must be a positive integer")
			return
		}
		maxEvents = n
	}

	processed, err := r.sim.Step(maxEvents)
	if err != nil {
		respondError(w, stateErrorCode(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"processed": processed,
		"status":    r.sim.Status(),
	})
}

// ResetSimulation discards run state and returns the scheduler to Idle.
func (r *Router) ResetSimulation(w http.ResponseWriter, req *http.Request) {
	r.sim.Reset()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  r.sim.Status(),
	})
}

// GetStatus reports the scheduler state, clock and counters.
func (r *Router) GetStatus(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.sim.Status())
}

// GetOrderBook returns the current book snapshot.
func (r *Router) GetOrderBook(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.sim.Snapshot())
}

// GetDepth returns aggregated depth for both sides, capped by levels.
func (r *Router) GetDepth(w http.ResponseWriter, req *http.Request) {
	levels := 10
	if v := req.URL.Query().Get("levels"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "levels must be a positive integer")
			return
		}
		levels = n
	}
	bids, asks := r.sim.Depth(levels)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"bids": bids,
		"asks": asks,
	})
}

// GetTrades returns executed trades, most recent last, capped by limit.
func (r *Router) GetTrades(w http.ResponseWriter, req *http.Request) {
	trades := r.sim.Trades()
	if v := req.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n < len(trades) {
			trades = trades[len(trades)-n:]
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"trades": trades,
		"count":  len(trades),
	})
}

// GetPriceHistory returns the recorded market history points.
func (r *Router) GetPriceHistory(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"history": r.sim.PriceHistory(),
	})
}

// GetPerformance returns the named strategy's performance report.
func (r *Router) GetPerformance(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	perf, ok := r.sim.StrategyPerformance(name)
	if !ok {
		respondError(w, http.StatusNotFound, "no performance reporter registered under: "+name)
		return
	}
	respondJSON(w, http.StatusOK, perf)
}

// GetSummary returns the market-quality metrics summary.
func (r *Router) GetSummary(w http.ResponseWriter, req *http.Request) {
	summary := map[string]float64{}
	if r.observer != nil {
		summary = r.observer.Summary()
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"summary": summary,
		"stats":   r.sim.Stats(),
	})
}

// HealthCheck reports liveness.
func (r *Router) HealthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"state":  r.sim.State(),
	})
}

// stateErrorCode maps scheduler errors onto HTTP statuses.
func stateErrorCode(err error) int {
	if errors.Is(err, engine.ErrEngineState) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// respondError is a helper to send error responses
func respondError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":   false,
		"error":     message,
		"timestamp": time.Now().UnixMilli(),
	})
}
