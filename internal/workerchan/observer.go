package workerchan

// Observer records worker channel metrics. Implementations are provided
// by the metrics package to break the import cycle between workerchan and metrics.
type Observer interface {
	ChannelCreated()
	// ChannelTerminated reports how many calls were still outstanding.
	ChannelTerminated(abandoned int)
	CallIssued()
	CallResolved(durationSeconds float64, err error)
	ResponseDropped()
}

// defaultObserver is the package-level observer set at startup.
// If nil, metric recording is silently skipped (safe for tests).
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
// Call this once at startup after creating the observer implementation.
func SetObserver(o Observer) {
	defaultObserver = o
}

type nopObserver struct{}

func (nopObserver) ChannelCreated() {}
func (nopObserver) ChannelTerminated(int) {}
func (nopObserver) CallIssued() {}
func (nopObserver) CallResolved(float64, error) {}
func (nopObserver) ResponseDropped() {}

func observe() Observer {
	if defaultObserver == nil {
		return nopObserver{}
	}
	return defaultObserver
}
