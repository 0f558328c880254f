package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"media-intake/internal/intake"
	"media-intake/internal/preview"
	"media-intake/internal/startup"
)

func TestGetConfig(t *testing.T) {
	pcfg := preview.DefaultConfig()
	pcfg.AspectRatio = "4:3"
	env := setupTestEnv(t, intake.PolicyConfig{Accept: "image/*,.pdf", MaxFileSize: "5MB", AllowMultiple: true}, withPreview(pcfg))

	w := httptest.NewRecorder()
	env.h.GetConfig(w, httptest.NewRequest(http.MethodGet, "/api/config", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp ConfigResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Intake.Accept != "image/*,.pdf" || resp.Intake.MaxFileSize == "" || !resp.Intake.AllowMultiple {
		t.Errorf("intake = %+v", resp.Intake)
	}
	if resp.Policy != env.engine.Policy().String() {
		t.Errorf("policy = %q, want %q", resp.Policy, env.engine.Policy().String())
	}
	if resp.Preview.AspectRatio != "4:3" || resp.Preview.MaxHeight != 256 {
		t.Errorf("preview = %+v", resp.Preview)
	}
	if resp.MaxUploadSize == "" {
		t.Error("Expected maxUploadSize")
	}
}

func TestGetConfigFollowsPolicyChanges(t *testing.T) {
	env := setupTestEnv(t, intake.PolicyConfig{Accept: "image/*"})
	env.engine.SetPolicy(nil)

	w := httptest.NewRecorder()
	env.h.GetConfig(w, httptest.NewRequest(http.MethodGet, "/api/config", http.NoBody))

	var resp ConfigResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Intake.Accept != "" || !resp.Intake.AllowMultiple {
		t.Errorf("intake = %+v, want the allow-all policy", resp.Intake)
	}
}

func TestGetVersion(t *testing.T) {
	env := setupTestEnv(t, intake.PolicyConfig{})

	w := httptest.NewRecorder()
	env.h.GetVersion(w, httptest.NewRequest(http.MethodGet, "/version", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}
	var info startup.BuildInfo
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if info.Version != startup.Version || info.GoVersion == "" {
		t.Errorf("build info = %+v", info)
	}
}

func TestMetricsHandler(t *testing.T) {
	env := setupTestEnv(t, intake.PolicyConfig{})

	w := httptest.NewRecorder()
	env.h.MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), "media_intake_http_requests_in_flight") {
		t.Error("Expected intake metrics in the exposition")
	}
}
