package workers

import (
	"os"
	"runtime"
	"strconv"

	"media-intake/internal/logging"
)

// EnvOverride names the environment variable that fixes the worker count.
const EnvOverride = "DECODE_WORKERS"

// Count returns multiplier workers per available CPU, at least one, capped
// at limit when limit is positive. DECODE_WORKERS overrides the computation.
func Count(multiplier float64, limit int) int {
	if count, ok := override(); ok {
		return capAt(count, limit)
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	return capAt(workers, limit)
}

func override() (int, bool) {
	v := os.Getenv(EnvOverride)
	if v == "" {
		return 0, false
	}
	count, err := strconv.Atoi(v)
	if err != nil || count < 1 {
		logging.Warn("Ignoring invalid %s=%q", EnvOverride, v)
		return 0, false
	}
	return count, true
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// ForDecode returns the decode context size: one worker per CPU.
func ForDecode(limit int) int {
	return Count(1.0, limit)
}

// ForRender returns the number of concurrent preview renders the HTTP layer
// fans out to: half a worker per CPU.
func ForRender(limit int) int {
	return Count(0.5, limit)
}
