package workerchan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"media-intake/internal/logging"

	"github.com/google/uuid"
)

var log = logging.For("workerchan")

// ErrTerminated resolves calls that were outstanding when the channel was
// terminated, and calls issued afterwards.
var ErrTerminated = errors.New("worker channel terminated")

// Request is the frame sent into the context.
type Request struct {
	ID       string
	Message  any
	Transfer [][]byte
}

// Response is the frame the context posts back. Err carries a failure the
// context wants the caller to see; Message is ignored when Err is set.
type Response struct {
	ID       string
	Message  any
	Transfer [][]byte
	Err      error
}

// EntryPoint is the body of the isolated context. It must read from inbox
// until inbox is closed or ctx is done, and answer every Request it takes
// with exactly one call to post.
type EntryPoint func(ctx context.Context, inbox <-chan Request, post func(Response))

// Option configures a Channel.
type Option func(*Channel)

// WithConcurrency runs n copies of the entry point over a shared inbox.
func WithConcurrency(n int) Option {
	return func(c *Channel) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithResource hands the channel exclusive ownership of a bootstrap
// resource. It is closed exactly once by Terminate after the context exits.
func WithResource(r io.Closer) Option {
	return func(c *Channel) {
		c.resource = r
	}
}

// Channel is a correlation-id request/response link to one isolated context.
type Channel struct {
	id          string
	seq         atomic.Uint64
	concurrency int
	resource    io.Closer
	obs         Observer

	mu         sync.Mutex
	pending    map[string]*Call
	queue      []Request
	terminated bool

	wake      chan struct{}
	inbox     chan Request
	responses chan Response

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	terminateOnce sync.Once
	releaseErr    error
}

// Create starts an isolated context running entry. Ownership of any
// resource passed with WithResource moves to the channel, including when
// Create fails.
func Create(entry EntryPoint, opts ...Option) (*Channel, error) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Channel{
		id:          uuid.New().String(),
		concurrency: 1,
		obs:         observe(),
		pending:     make(map[string]*Call),
		wake:        make(chan struct{}, 1),
		inbox:       make(chan Request),
		responses:   make(chan Response, 64),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(c)
	}

	if entry == nil {
		cancel()
		if c.resource != nil {
			if err := c.resource.Close(); err != nil {
				log.Warn("failed to release resource for rejected channel: %v", err)
			}
		}
		return nil, fmt.Errorf("workerchan: nil entry point")
	}

	for i := 0; i < c.concurrency; i++ {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			entry(ctx, c.inbox, c.post)
		}()
	}

	c.wg.Add(2)
	go c.pump()
	go c.dispatch()

	c.obs.ChannelCreated()
	log.Debug("channel %s created with %d context goroutines", c.id, c.concurrency)
	return c, nil
}

// ID returns the channel's instance id.
func (c *Channel) ID() string {
	return c.id
}

func (c *Channel) nextID() string {
	return c.id[:8] + "-" + strconv.FormatUint(c.seq.Add(1), 10)
}

// Call sends message to the context and returns without waiting. Slices in
// transfer are moved, not copied: the caller must not touch them afterwards.
func (c *Channel) Call(message any, transfer ...[]byte) *Call {
	call := newCall(c.nextID())

	c.mu.Lock()
	if c.terminated {
		c.mu.Unlock()
		call.resolve(nil, nil, ErrTerminated)
		return call
	}
	c.pending[call.id] = call
	c.queue = append(c.queue, Request{ID: call.id, Message: message, Transfer: transfer})
	c.mu.Unlock()

	c.obs.CallIssued()
	select {
	case c.wake <- struct{}{}:
	default:
	}
	return call
}

// Outstanding returns the number of calls waiting for a response.
func (c *Channel) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Terminated reports whether Terminate has been called.
func (c *Channel) Terminated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminated
}

// Terminate destroys the context. Every outstanding call resolves with
// ErrTerminated, the context goroutines are waited for, and the bootstrap
// resource is released. Later calls return the first release error.
func (c *Channel) Terminate() error {
	c.terminateOnce.Do(func() {
		c.mu.Lock()
		c.terminated = true
		abandoned := c.pending
		c.pending = make(map[string]*Call)
		c.queue = nil
		c.mu.Unlock()

		defer func() {
			if c.resource != nil {
				c.releaseErr = c.resource.Close()
			}
			c.obs.ChannelTerminated(len(abandoned))
			log.Debug("channel %s terminated, %d calls abandoned", c.id, len(abandoned))
		}()

		c.cancel()
		for _, call := range abandoned {
			call.resolve(nil, nil, ErrTerminated)
		}
		c.wg.Wait()
	})
	return c.releaseErr
}

// pump moves queued requests into the inbox so Call never blocks on a busy context.
func (c *Channel) pump() {
	defer c.wg.Done()
	defer close(c.inbox)

	for {
		c.mu.Lock()
		var next Request
		ok := len(c.queue) > 0
		if ok {
			next = c.queue[0]
			c.queue[0] = Request{}
			c.queue = c.queue[1:]
		}
		c.mu.Unlock()

		if !ok {
			select {
			case <-c.wake:
				continue
			case <-c.ctx.Done():
				return
			}
		}

		select {
		case c.inbox <- next:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Channel) post(resp Response) {
	select {
	case c.responses <- resp:
	case <-c.ctx.Done():
	}
}

// dispatch is the single consumer of responses.
func (c *Channel) dispatch() {
	defer c.wg.Done()
	for {
		select {
		case resp := <-c.responses:
			c.route(resp)
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Channel) route(resp Response) {
	c.mu.Lock()
	call, ok := c.pending[resp.ID]
	if ok {
		delete(c.pending, resp.ID)
	}
	terminated := c.terminated
	c.mu.Unlock()

	if !ok {
		if terminated {
			// already resolved with ErrTerminated
			return
		}
		c.obs.ResponseDropped()
		log.Warn("channel %s dropped response with unknown id %q", c.id, resp.ID)
		return
	}

	if resp.Err != nil {
		call.resolve(nil, resp.Transfer, resp.Err)
	} else {
		call.resolve(resp.Message, resp.Transfer, nil)
	}
	c.obs.CallResolved(time.Since(call.issued).Seconds(), resp.Err)
}

// Call is the pending result of Channel.Call.
type Call struct {
	id     string
	issued time.Time
	done   chan struct{}
	once   sync.Once

	message  any
	transfer [][]byte
	err      error
}

func newCall(id string) *Call {
	return &Call{id: id, issued: time.Now(), done: make(chan struct{})}
}

func (c *Call) resolve(message any, transfer [][]byte, err error) {
	c.once.Do(func() {
		c.message = message
		c.transfer = transfer
		c.err = err
		close(c.done)
	})
}

// ID returns the correlation id of the call.
func (c *Call) ID() string {
	return c.id
}

// Done is closed when the call resolves.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Result returns the resolved message, transferred slices and error. It
// must only be called after Done is closed.
func (c *Call) Result() (any, [][]byte, error) {
	return c.message, c.transfer, c.err
}

// Wait blocks until the call resolves or ctx is done. A ctx error leaves
// the call outstanding on the channel.
func (c *Call) Wait(ctx context.Context) (any, error) {
	select {
	case <-c.done:
		return c.message, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
