package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeStats struct {
	stats Stats
}

func (f fakeStats) GetStats() Stats {
	return f.stats
}

func TestInitializeMetricsPopulatesLabels(t *testing.T) {
	InitializeMetrics()

	tests := []struct {
		name string
		got  int
		want int
	}{
		{"intake batches by origin", testutil.CollectAndCount(IntakeBatchesTotal), 4},
		{"rejections by kind", testutil.CollectAndCount(IntakeRejectionsTotal), 5},
		{"worker calls by status", testutil.CollectAndCount(WorkerCallsTotal), 3},
		{"filesystem retries by operation", testutil.CollectAndCount(FilesystemRetryAttempts), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got < tt.want {
				t.Errorf("series = %d, want at least %d", tt.got, tt.want)
			}
		})
	}
}

func TestCollectorUpdatesLedgerGauges(t *testing.T) {
	c := NewCollector(fakeStats{Stats{TotalEvents: 7, AcceptedFiles: 11, RejectedFiles: 3}}, time.Hour)
	c.collect()

	if got := testutil.ToFloat64(LedgerEventsTotal); got != 7 {
		t.Errorf("ledger events = %v, want 7", got)
	}
	if got := testutil.ToFloat64(LedgerFilesTotal.WithLabelValues("accepted")); got != 11 {
		t.Errorf("accepted files = %v, want 11", got)
	}
	if got := testutil.ToFloat64(LedgerFilesTotal.WithLabelValues("rejected")); got != 3 {
		t.Errorf("rejected files = %v, want 3", got)
	}
}

func TestCollectorStartStop(t *testing.T) {
	c := NewCollector(fakeStats{Stats{TotalEvents: 2}}, 10*time.Millisecond)
	c.Start()
	time.Sleep(30 * time.Millisecond)
	c.Stop()

	if got := testutil.ToFloat64(LedgerEventsTotal); got != 2 {
		t.Errorf("ledger events = %v, want 2", got)
	}
}

func TestCollectorNilProvider(t *testing.T) {
	c := NewCollector(nil, time.Hour)
	c.collect()
}

func TestWorkerObserver(t *testing.T) {
	obs := NewWorkerObserver()

	active := testutil.ToFloat64(WorkerChannelsActive)
	outstanding := testutil.ToFloat64(WorkerCallsOutstanding)
	ok := testutil.ToFloat64(WorkerCallsTotal.WithLabelValues("ok"))
	failed := testutil.ToFloat64(WorkerCallsTotal.WithLabelValues("error"))
	cancelled := testutil.ToFloat64(WorkerCallsTotal.WithLabelValues("cancelled"))
	dropped := testutil.ToFloat64(WorkerResponsesDropped)

	obs.ChannelCreated()
	obs.CallIssued()
	obs.CallIssued()
	obs.CallIssued()
	obs.CallResolved(0.01, nil)
	obs.CallResolved(0.02, errors.New("boom"))
	obs.ResponseDropped()
	obs.ChannelTerminated(1)

	if got := testutil.ToFloat64(WorkerChannelsActive) - active; got != 0 {
		t.Errorf("active channels delta = %v, want 0", got)
	}
	if got := testutil.ToFloat64(WorkerCallsOutstanding) - outstanding; got != 0 {
		t.Errorf("outstanding delta = %v, want 0", got)
	}
	if got := testutil.ToFloat64(WorkerCallsTotal.WithLabelValues("ok")) - ok; got != 1 {
		t.Errorf("ok delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(WorkerCallsTotal.WithLabelValues("error")) - failed; got != 1 {
		t.Errorf("error delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(WorkerCallsTotal.WithLabelValues("cancelled")) - cancelled; got != 1 {
		t.Errorf("cancelled delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(WorkerResponsesDropped) - dropped; got != 1 {
		t.Errorf("dropped delta = %v, want 1", got)
	}
}
