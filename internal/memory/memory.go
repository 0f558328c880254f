package memory

import (
	"errors"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"media-intake/internal/logging"
	"media-intake/internal/metrics"
	"media-intake/internal/sizes"
)

// ErrMemoryPressure is returned by Admit while heap usage is critical.
var ErrMemoryPressure = errors.New("memory pressure: upload refused")

// Config holds memory admission configuration
type Config struct {
	// LimitBytes is the limit usage is measured against. 0 uses GOMEMLIMIT.
	LimitBytes int64

	// HighWaterMark is the usage fraction below which uploads resume.
	HighWaterMark float64

	// CriticalWaterMark is the usage fraction at which uploads are refused.
	CriticalWaterMark float64

	CheckInterval time.Duration
}

// DefaultConfig returns sensible defaults for memory admission
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Monitor samples heap usage and gates uploads on it.
type Monitor struct {
	config   Config
	limit    int64
	readHeap func() uint64

	mu       sync.RWMutex
	current  uint64
	critical bool

	stopOnce sync.Once
	stopChan chan struct{}
}

// NewMonitor creates a monitor. Without a configured limit or GOMEMLIMIT
// every upload is admitted.
func NewMonitor(config Config) *Monitor {
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultConfig().CheckInterval
	}
	limit := config.LimitBytes
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < 1<<62 {
			limit = goMemLimit
			logging.Info("Memory monitor using GOMEMLIMIT: %s", sizes.Format(limit))
		}
	}
	if limit == 0 {
		logging.Warn("Memory monitor: no memory limit configured, upload admission disabled")
	}

	return &Monitor{
		config:   config,
		limit:    limit,
		readHeap: heapAlloc,
		stopChan: make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// Start begins sampling in the background.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go m.loop()
}

// Stop ends sampling. It is safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sample()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Monitor) sample() {
	alloc := m.readHeap()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = alloc
	if m.limit == 0 {
		return
	}

	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	switch {
	case usage >= m.config.CriticalWaterMark && !m.critical:
		logging.Warn("Memory critical (%.1f%% of limit), refusing uploads", usage*100)
		m.critical = true
		metrics.MemoryPressure.Set(1)
		go runtime.GC()
	case usage < m.config.HighWaterMark && m.critical:
		logging.Info("Memory recovered (%.1f%% of limit), accepting uploads", usage*100)
		m.critical = false
		metrics.MemoryPressure.Set(0)
	}
}

// Critical reports whether usage is above the critical watermark.
func (m *Monitor) Critical() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.critical
}

// Admit returns ErrMemoryPressure while usage is critical.
func (m *Monitor) Admit() error {
	if m == nil {
		return nil
	}
	if m.Critical() {
		metrics.UploadsRefusedTotal.Inc()
		return ErrMemoryPressure
	}
	return nil
}

// Usage returns the last sampled usage as a fraction of the limit, or 0
// when no limit is configured.
func (m *Monitor) Usage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.current) / float64(m.limit)
}

// Limit returns the limit usage is measured against.
func (m *Monitor) Limit() int64 {
	return m.limit
}
