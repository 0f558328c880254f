package startup

import (
	"cmp"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"media-intake/internal/logging"
	"media-intake/internal/memory"
	"media-intake/internal/sizes"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

const rule = "------------------------------------------------------------"

// BuildInfo is served by /version.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// section prints a titled block header. Every block but the first is
// preceded by a blank line.
func section(title string, leadingBlank bool) {
	if leadingBlank {
		logging.Info("")
	}
	logging.Info(rule)
	logging.Info("%s", title)
	logging.Info(rule)
}

// LogMemoryConfig logs the outcome of memory.ConfigureFromEnv
func LogMemoryConfig(result memory.ConfigResult) {
	section("MEMORY CONFIGURATION", false)
	switch result.Source {
	case "GOMEMLIMIT":
		logging.Info("  GOMEMLIMIT:      %s (from environment)", sizes.Format(result.GoMemLimit))
	case "MEMORY_LIMIT":
		logging.Info("  Container limit: %s", sizes.Format(result.ContainerLimit))
		logging.Info("  GOMEMLIMIT:      %s (%.0f%% of the container)", sizes.Format(result.GoMemLimit), result.Ratio*100)
	default:
		logging.Info("  GOMEMLIMIT:      not configured, uploads are never refused")
	}
	logging.Info("")
}

// LogLedgerInit logs how long opening the intake ledger took.
func LogLedgerInit(duration time.Duration) {
	section("INTAKE LEDGER", true)
	logging.Info("  [OK] Ledger ready in %v", duration.Round(time.Microsecond))
}

// LogDecoderInit logs the decode context size and which decoder backs it.
func LogDecoderInit(workers int, vipsRequested, vipsAvailable bool) {
	section("DECODE CONTEXT", true)
	logging.Info("  Workers:         %d", workers)
	switch {
	case !vipsRequested:
		logging.Info("  Backend:         imaging (DECODE_VIPS=false)")
	case vipsAvailable:
		logging.Info("  Backend:         libvips, imaging fallback")
	default:
		logging.Warn("  Backend:         imaging (libvips unavailable)")
	}
}

// RouteInfo is one method/path pair registered on a router.
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes lists every method/path pair registered on router. Routes
// without a method restriction are reported with method "*".
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			// prefix-only subrouters have no template of their own
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, m := range methods {
			routes = append(routes, RouteInfo{Method: m, Path: path, Name: route.GetName()})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the HTTP logging settings and, at debug level, every
// registered route grouped by its first path segments.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	section("HTTP SERVER SETUP", true)

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}
		slices.SortStableFunc(routes, func(a, b RouteInfo) int {
			return cmp.Compare(getRouteGroup(a.Path), getRouteGroup(b.Path))
		})

		logging.Debug("  Registered routes (%d total):", len(routes))
		group := "\x00"
		for _, route := range routes {
			if g := getRouteGroup(route.Path); g != group {
				group = g
				name := g
				if name == "" {
					name = "root"
				}
				logging.Debug("  [%s]", name)
			}
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
		logging.Debug("")
	}

	if logHealthChecks {
		logging.Info("  Request logging: on, including health probes")
	} else {
		logging.Info("  Request logging: on, health probes skipped (LOG_HEALTH_CHECKS=false)")
	}
}

// getRouteGroup returns the first path segment, or the first two for
// routes under /api.
func getRouteGroup(path string) string {
	first, rest, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if first == "api" && rest != "" {
		sub, _, _ := strings.Cut(rest, "/")
		return "api/" + sub
	}
	return first
}

// ServerConfig is what LogServerStarted reports.
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	DropDir         string
	StartupDuration time.Duration
}

// LogServerStarted logs the listening endpoints once startup is complete.
func LogServerStarted(config ServerConfig) {
	section("SERVER STARTED", true)
	logging.Info("  Startup time:    %v", config.StartupDuration.Round(time.Millisecond))
	logging.Info("  Intake API:      http://localhost:%s/api/intake", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics:         http://localhost:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("  Metrics:         DISABLED")
	}
	if config.DropDir != "" {
		logging.Info("  Drop folder:     %s", config.DropDir)
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info(rule)
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	section(fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal), true)
}

// LogShutdownStep logs a shutdown step at debug level.
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...any) {
	logging.Fatal(format, args...)
}

func printBanner() {
	fmt.Println(rule)
	fmt.Println("  MEDIA INTAKE")
	fmt.Println(rule)
	logging.Info("  Version:    %s (%s)", Version, Commit)
	logging.Info("  Built:      %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	section("SYSTEM INFORMATION", false)
	procs := runtime.GOMAXPROCS(0)
	logging.Info("  Go:              %s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs:            %d (GOMAXPROCS %d)", runtime.NumCPU(), procs)
	if procs < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}
	if wd, err := os.Getwd(); err == nil {
		logging.Debug("  Working dir:     %s", wd)
	}
	logging.Info("")
}

// ensureDirectory creates path when missing and fails when something
// other than a directory is in the way.
func ensureDirectory(path, name string) error {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", name, err)
		}
		logging.Debug("  Created %s directory: %s", name, path)
		return nil
	case err != nil:
		return fmt.Errorf("failed to stat %s directory: %w", name, err)
	case !info.IsDir():
		return fmt.Errorf("%s path %s exists but is not a directory", name, path)
	}
	return nil
}

// testWriteAccess creates and removes a scratch file in dir.
func testWriteAccess(dir string) error {
	f, err := os.CreateTemp(dir, ".write-test-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		logging.Warn("failed to close write test file %s: %v", name, err)
	}
	if err := os.Remove(name); err != nil {
		logging.Warn("failed to remove write test file %s: %v", name, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
