package metrics

import (
	"time"

	"media-intake/internal/logging"
)

// StatsProvider interface for collecting ledger stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current ledger totals
type Stats struct {
	TotalEvents   int
	AcceptedFiles int
	RejectedFiles int
}

// Collector periodically collects and updates ledger gauges
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	LedgerEventsTotal.Set(float64(stats.TotalEvents))
	LedgerFilesTotal.WithLabelValues("accepted").Set(float64(stats.AcceptedFiles))
	LedgerFilesTotal.WithLabelValues("rejected").Set(float64(stats.RejectedFiles))

	logging.Debug("Metrics collected: events=%d, accepted=%d, rejected=%d",
		stats.TotalEvents, stats.AcceptedFiles, stats.RejectedFiles)
}
