package preview

import (
	"context"
	"sync"
	"time"

	"media-intake/internal/intake"
	"media-intake/internal/metrics"
)

// DefaultDebounce coalesces bursts of resize events.
const DefaultDebounce = 50 * time.Millisecond

// Tracker keeps the latest inputs for one file's preview and recomputes its
// geometry after they stop changing for the debounce interval. Only the
// latest inputs matter; intermediate states may never be computed.
type Tracker struct {
	mu       sync.Mutex
	sizer    Sizer
	file     intake.File
	natural  NaturalSize
	width    float64
	delay    time.Duration
	onChange func(Geometry)

	emitMu   sync.Mutex // serializes fire so callbacks see geometries in order
	timer    *time.Timer
	triggers map[string]bool
	last     Geometry
	emitted  bool
	stopped  bool
	cancel   context.CancelFunc
}

// NewTracker creates a tracker for f. onChange is called from the timer
// goroutine whenever a computable geometry differs from the last one
// reported.
func NewTracker(sizer Sizer, f intake.File, delay time.Duration, onChange func(Geometry)) *Tracker {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Tracker{
		sizer:    sizer,
		file:     f,
		natural:  Pending(),
		delay:    delay,
		onChange: onChange,
		triggers: make(map[string]bool),
	}
}

// Resize records a new container width.
func (t *Tracker) Resize(width float64) {
	t.update("resize", func() { t.width = width })
}

// SetNatural records the result of a natural-size lookup.
func (t *Tracker) SetNatural(n NaturalSize) {
	t.update("natural", func() { t.natural = n })
}

// SetSizer replaces the sizing configuration.
func (t *Tracker) SetSizer(s Sizer) {
	t.update("options", func() { t.sizer = s })
}

// Resolve starts a natural-size lookup for the tracked file. A previous
// lookup still in flight is cancelled.
func (t *Tracker) Resolve(ctx context.Context, r Resolver) {
	ctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		cancel()
		return
	}
	if t.cancel != nil {
		t.cancel()
	}
	t.cancel = cancel
	f := t.file
	t.mu.Unlock()

	go func() {
		n := Resolve(ctx, r, f)
		if ctx.Err() != nil {
			return
		}
		t.SetNatural(n)
	}()
}

// Geometry computes the geometry from the current inputs immediately.
func (t *Tracker) Geometry() (Geometry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sizer.Compute(t.file, t.natural, t.width)
}

// Natural returns the latest natural-size lookup result.
func (t *Tracker) Natural() NaturalSize {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.natural
}

// Stop cancels pending recomputation and any lookup in flight.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
	if t.cancel != nil {
		t.cancel()
	}
}

func (t *Tracker) update(trigger string, apply func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	apply()
	t.triggers[trigger] = true
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, t.fire)
		return
	}
	t.timer.Reset(t.delay)
}

func (t *Tracker) fire() {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	for trigger := range t.triggers {
		metrics.PreviewRecomputeTotal.WithLabelValues(trigger).Inc()
	}
	clear(t.triggers)

	g, ok := t.sizer.Compute(t.file, t.natural, t.width)
	changed := ok && (!t.emitted || g != t.last)
	if changed {
		t.last = g
		t.emitted = true
	}
	cb := t.onChange
	t.mu.Unlock()

	if changed && cb != nil {
		cb(g)
	}
}
