package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"media-intake/internal/intake"
	"media-intake/internal/startup"
)

func TestHealthCheck(t *testing.T) {
	env := setupTestEnv(t, intake.PolicyConfig{AllowMultiple: true})
	seedEvents(t, env, 2)

	w := httptest.NewRecorder()
	env.h.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != statusHealthy || !resp.Ready {
		t.Errorf("status = %s ready = %v, want healthy and ready", resp.Status, resp.Ready)
	}
	if resp.TotalEvents != 2 || resp.AcceptedFiles != 4 {
		t.Errorf("ledger totals = %d events, %d accepted; want 2, 4", resp.TotalEvents, resp.AcceptedFiles)
	}
	if resp.Version != startup.Version {
		t.Errorf("version = %s, want %s", resp.Version, startup.Version)
	}
	if resp.NumCPU < 1 || resp.NumGoroutine < 1 {
		t.Errorf("system info missing: %+v", resp)
	}
}

func TestHealthCheckLedgerDown(t *testing.T) {
	env := setupTestEnv(t, intake.PolicyConfig{})
	if err := env.store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	w := httptest.NewRecorder()
	env.h.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != statusDegraded || resp.Ready {
		t.Errorf("status = %s ready = %v, want degraded and not ready", resp.Status, resp.Ready)
	}

	w = httptest.NewRecorder()
	env.h.ReadinessCheck(w, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "not_ready") {
		t.Errorf("readiness = %d %s, want 503 not_ready", w.Code, w.Body.String())
	}
}

func TestReadinessCheck(t *testing.T) {
	env := setupTestEnv(t, intake.PolicyConfig{})

	w := httptest.NewRecorder()
	env.h.ReadinessCheck(w, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ready"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestLivenessCheck(t *testing.T) {
	env := setupTestEnv(t, intake.PolicyConfig{})

	tests := []struct {
		method   string
		wantBody bool
	}{
		{http.MethodGet, true},
		{http.MethodHead, false},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := httptest.NewRecorder()
			env.h.LivenessCheck(w, httptest.NewRequest(tt.method, "/livez", http.NoBody))

			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", w.Code)
			}
			if contentType := w.Header().Get("Content-Type"); contentType != "application/json" {
				t.Errorf("Content-Type = %q", contentType)
			}
			if got := w.Body.Len() > 0; got != tt.wantBody {
				t.Errorf("body present = %v, want %v", got, tt.wantBody)
			}
		})
	}
}
