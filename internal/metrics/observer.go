package metrics

import "media-intake/internal/workerchan"

// workerObserver implements workerchan.Observer using the Prometheus
// metrics declared in this package.
type workerObserver struct{}

// NewWorkerObserver creates an observer that records worker channel metrics
// into the Prometheus counters and histograms declared in metrics.go.
func NewWorkerObserver() workerchan.Observer {
	return &workerObserver{}
}

func (o *workerObserver) ChannelCreated() {
	WorkerChannelsActive.Inc()
}

func (o *workerObserver) ChannelTerminated(abandoned int) {
	WorkerChannelsActive.Dec()
	if abandoned > 0 {
		WorkerCallsTotal.WithLabelValues("cancelled").Add(float64(abandoned))
		WorkerCallsOutstanding.Sub(float64(abandoned))
	}
}

func (o *workerObserver) CallIssued() {
	WorkerCallsOutstanding.Inc()
}

func (o *workerObserver) CallResolved(durationSeconds float64, err error) {
	WorkerCallsOutstanding.Dec()
	WorkerCallDuration.Observe(durationSeconds)
	if err != nil {
		WorkerCallsTotal.WithLabelValues("error").Inc()
		return
	}
	WorkerCallsTotal.WithLabelValues("ok").Inc()
}

func (o *workerObserver) ResponseDropped() {
	WorkerResponsesDropped.Inc()
}
