package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"media-intake/internal/logging"
	"media-intake/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

const pingTimeout = 2 * time.Second

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Decoder and memory
	DecodeOutstanding int     `json:"decodeOutstanding"`
	MemoryUsage       float64 `json:"memoryUsage"`
	MemoryPressure    bool    `json:"memoryPressure"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Ledger totals
	TotalEvents   int `json:"totalEvents"`
	AcceptedFiles int `json:"acceptedFiles"`
	RejectedFiles int `json:"rejectedFiles"`
}

func (h *Handlers) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return h.store.Ping(ctx)
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	stats := h.store.GetStats()

	response := HealthResponse{
		Status:            statusHealthy,
		Ready:             true,
		Version:           startup.Version,
		Uptime:            time.Since(h.startTime).Round(time.Second).String(),
		DecodeOutstanding: h.decoder.Outstanding(),
		GoVersion:         runtime.Version(),
		NumCPU:            runtime.NumCPU(),
		NumGoroutine:      runtime.NumGoroutine(),
		TotalEvents:       stats.TotalEvents,
		AcceptedFiles:     stats.AcceptedFiles,
		RejectedFiles:     stats.RejectedFiles,
	}

	if h.monitor != nil {
		response.MemoryUsage = h.monitor.Usage()
		response.MemoryPressure = h.monitor.Critical()
	}

	if err := h.ping(r.Context()); err != nil {
		logging.Warn("health check: ledger unavailable: %v", err)
		response.Ready = false
		response.Status = statusDegraded
	} else if response.MemoryPressure {
		response.Status = statusDegraded
	}

	status := http.StatusOK
	if !response.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, status, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the ledger answers.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.ping(r.Context()); err != nil {
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
		})
		return
	}
	writeJSONStatus(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
