package intake

import (
	"sync"
	"sync/atomic"

	"media-intake/internal/logging"
	"media-intake/internal/metrics"
)

var log = logging.For("intake")

// Origin identifies where a batch came from.
type Origin string

const (
	// OriginDrop is a drag-and-drop gesture.
	OriginDrop Origin = "drop"
	// OriginPicker is a file picker selection.
	OriginPicker Origin = "picker"
	// OriginAPI is an HTTP upload.
	OriginAPI Origin = "api"
	// OriginCLI is a command line invocation.
	OriginCLI Origin = "cli"
)

// Batch is one group of candidate files delivered by an EventSource.
type Batch struct {
	Origin Origin
	Files  []File
}

// EventSource delivers batches to a subscriber until the returned
// unsubscribe function is called.
type EventSource interface {
	Subscribe(deliver func(Batch)) (unsubscribe func())
}

// Callbacks are invoked after each batch is partitioned. OnComplete always
// fires; OnAccepted and OnRejected fire only when their subset is non-empty.
// Any callback may be nil.
type Callbacks struct {
	OnComplete func(files []File, res Result)
	OnAccepted func(accepted []File)
	OnRejected func(rejected []File, errs []ValidationError)
}

// Engine partitions every batch an EventSource delivers using the current
// Policy and reports the outcome through Callbacks.
type Engine struct {
	policy    atomic.Pointer[Policy]
	callbacks Callbacks

	mu          sync.Mutex
	unsubscribe func()
}

// NewEngine creates an engine. When src is non-nil the engine subscribes to
// it immediately; batches can also be pushed directly with Submit.
func NewEngine(src EventSource, policy *Policy, cb Callbacks) *Engine {
	e := &Engine{callbacks: cb}
	e.SetPolicy(policy)
	if src != nil {
		e.unsubscribe = src.Subscribe(func(b Batch) { e.Submit(b) })
	}
	return e
}

// SetPolicy replaces the policy used for subsequent batches. A nil policy
// accepts everything.
func (e *Engine) SetPolicy(p *Policy) {
	if p == nil {
		p = AllowAll()
	}
	e.policy.Store(p)
}

// Policy returns the policy currently in effect.
func (e *Engine) Policy() *Policy {
	return e.policy.Load()
}

// Submit partitions one batch, records metrics and fires the callbacks
// synchronously on the calling goroutine.
func (e *Engine) Submit(b Batch) Result {
	res := Partition(b.Files, e.policy.Load())

	origin := b.Origin
	if origin == "" {
		origin = OriginAPI
	}
	metrics.IntakeBatchesTotal.WithLabelValues(string(origin)).Inc()
	metrics.IntakeFilesTotal.WithLabelValues("accepted").Add(float64(len(res.Accepted)))
	metrics.IntakeFilesTotal.WithLabelValues("rejected").Add(float64(len(res.Rejected)))
	for _, ve := range res.Errors {
		metrics.IntakeRejectionsTotal.WithLabelValues(string(ve.Kind)).Inc()
	}
	metrics.IntakeBatchBytes.Observe(float64(res.AcceptedBytes()))

	log.Debug("%s batch: %d files, %d accepted, %d rejected",
		origin, len(b.Files), len(res.Accepted), len(res.Rejected))

	if cb := e.callbacks.OnComplete; cb != nil {
		cb(b.Files, res)
	}
	if cb := e.callbacks.OnAccepted; cb != nil && len(res.Accepted) > 0 {
		cb(res.Accepted)
	}
	if cb := e.callbacks.OnRejected; cb != nil && len(res.Rejected) > 0 {
		cb(res.Rejected, res.Errors)
	}
	return res
}

// Close detaches the engine from its event source. It is safe to call more
// than once; Submit keeps working after Close.
func (e *Engine) Close() {
	e.mu.Lock()
	unsub := e.unsubscribe
	e.unsubscribe = nil
	e.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// ChannelSource is an EventSource fed from a Go channel. Each subscriber
// gets its own reader goroutine; batches go to whichever subscriber reads
// them first.
type ChannelSource struct {
	ch <-chan Batch
}

// NewChannelSource wraps ch. Delivery stops when ch is closed or the
// subscriber unsubscribes.
func NewChannelSource(ch <-chan Batch) *ChannelSource {
	return &ChannelSource{ch: ch}
}

// Subscribe starts delivering batches to deliver.
func (s *ChannelSource) Subscribe(deliver func(Batch)) func() {
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case b, ok := <-s.ch:
				if !ok {
					return
				}
				deliver(b)
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
