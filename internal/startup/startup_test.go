package startup

import (
	"net/http"
	"testing"
	"time"

	"media-intake/internal/memory"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
	if info.OS == "" || info.Arch == "" {
		t.Errorf("Expected OS and Arch to be set, got %q/%q", info.OS, info.Arch)
	}
}

func TestGetRoutes(t *testing.T) {
	noop := func(http.ResponseWriter, *http.Request) {}
	r := mux.NewRouter()
	r.HandleFunc("/health", noop).Methods("GET")
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/intake", noop).Methods("POST").Name("intake")
	api.HandleFunc("/config", noop).Methods("GET", "HEAD")

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}

	want := map[string]bool{
		"GET /health":      true,
		"POST /api/intake": true,
		"GET /api/config":  true,
		"HEAD /api/config": true,
	}
	for _, route := range routes {
		delete(want, route.Method+" "+route.Path)
		if route.Path == "/api/intake" && route.Name != "intake" {
			t.Errorf("route name = %q, want intake", route.Name)
		}
	}
	for missing := range want {
		t.Errorf("route %s not reported", missing)
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health", "health"},
		{"/api/intake", "api/intake"},
		{"/api/intake/history", "api/intake"},
		{"/api", "api"},
		{"/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := getRouteGroup(tt.path); got != tt.want {
				t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestLifecycleLogging(_ *testing.T) {
	// These only log; they must not panic for any input.
	LogMemoryConfig(memory.ConfigResult{Source: "none"})
	LogMemoryConfig(memory.ConfigResult{Source: "GOMEMLIMIT", GoMemLimit: 1 << 30})
	LogMemoryConfig(memory.ConfigResult{Source: "MEMORY_LIMIT", ContainerLimit: 1 << 30, GoMemLimit: 1 << 29, Ratio: 0.5})
	LogLedgerInit(time.Millisecond)
	LogDecoderInit(4, true, false)
	LogDecoderInit(4, false, false)
	LogServerStarted(ServerConfig{Port: "8080", MetricsPort: "9090", MetricsEnabled: true, DropDir: "/srv/drop"})
	LogServerStarted(ServerConfig{Port: "8080"})
	LogShutdownInitiated("SIGTERM")
	LogShutdownStep("Stopping decoder")
	LogShutdownStepComplete("Decoder stopped")
	LogShutdownComplete()
}
