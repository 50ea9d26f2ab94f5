// Package health provides liveness and readiness endpoints for the API.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/good-yellow-bee/vitalwatch/pkg/config"
)

// readyCheckTimeout bounds the total time spent probing dependencies.
const readyCheckTimeout = 5 * time.Second

// Checker probes one dependency.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// DetailChecker is a Checker that also reports internal state, such as
// archive mirror counters, alongside the pass/fail result.
type DetailChecker interface {
	Checker
	Detail() map[string]string
}

// CheckResult is the per-dependency entry in the readiness payload.
type CheckResult struct {
	Status  string            `json:"status"`
	Error   string            `json:"error,omitempty"`
	Latency string            `json:"latency,omitempty"`
	Detail  map[string]string `json:"detail,omitempty"`
}

// HealthResponse is the payload for all health endpoints.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// Handler serves the health endpoints.
type Handler struct {
	mu       sync.RWMutex
	checkers []Checker
}

// NewHandler creates a new health handler.
func NewHandler() *Handler {
	return &Handler{
		checkers: make([]Checker, 0),
	}
}

// RegisterChecker adds a dependency checker to the readiness probe.
func (h *Handler) RegisterChecker(c Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers = append(h.checkers, c)
}

// Health returns basic health status with the running version.
// This endpoint is for simple "is the process running" checks.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: config.ShortVersionString(),
	})
}

// Live returns liveness probe status.
// Use for Kubernetes liveness probes.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "live"})
}

// Ready returns readiness probe status. Every registered dependency is
// probed and reported with its latency; checkers that expose detail
// (archive mirror counters and the like) have it attached to their entry.
// Returns 200 only when all dependencies pass.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
	defer cancel()

	h.mu.RLock()
	checkers := make([]Checker, len(h.checkers))
	copy(checkers, h.checkers)
	h.mu.RUnlock()

	checks := make(map[string]CheckResult, len(checkers))
	ready := true

	for _, c := range checkers {
		start := time.Now()
		err := c.Check(ctx)

		result := CheckResult{
			Status:  "ok",
			Latency: time.Since(start).Round(time.Millisecond).String(),
		}
		if err != nil {
			result.Status = "failed"
			result.Error = err.Error()
			ready = false
		}
		if dc, ok := c.(DetailChecker); ok {
			result.Detail = dc.Detail()
		}
		checks[c.Name()] = result
	}

	status := "ready"
	code := http.StatusOK
	if !ready {
		status = "not_ready"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status:  status,
		Version: config.ShortVersionString(),
		Checks:  checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
