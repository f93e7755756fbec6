package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering and the tab metadata stamped on every event.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool

	// TabID fills Event.TabID when the emitter left it empty.
	TabID string
	// Origin is recorded under the "origin" metadata key, typically the portal cookie domain.
	Origin string
	// Now fills a zero Event.Timestamp. Defaults to time.Now.
	Now func() time.Time
}

// envelope carries either an event or a flush marker. A marker is acknowledged once every
// event queued ahead of it has reached the sink.
type envelope struct {
	event   Event
	flushed chan struct{}
}

// Dispatcher asynchronously forwards one tab's audit events to a sink. A nil *Dispatcher
// is valid and discards everything, so callers never need to check whether auditing is on.
//
// Logout is the last thing a tab does before it navigates to the login page, so the engine
// calls [Dispatcher.Flush] there; events still buffered after that point would die with
// the page.
type Dispatcher struct {
	cfg       Config
	sink      Sink
	ch        chan envelope
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	panics    atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher starts the delivery goroutine. It returns nil when cfg is disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:  cfg,
		sink: sink,
		// one spare slot so a flush marker fits behind a full buffer of events
		ch:   make(chan envelope, cfg.BufferSize+1),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case env := <-d.ch:
			d.handle(env)
		case <-d.done:
			for {
				select {
				case env := <-d.ch:
					d.handle(env)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) handle(env envelope) {
	if env.flushed != nil {
		close(env.flushed)
		return
	}
	d.deliver(env.event)
}

// deliver shields the loop from a misbehaving sink.
func (d *Dispatcher) deliver(event Event) {
	defer func() {
		if r := recover(); r != nil {
			d.panics.Add(1)
		}
	}()
	d.sink.Emit(context.Background(), event)
}

// stamp fills the tab metadata without overwriting what the emitter set. The metadata map
// is copied so the caller's map is never mutated from the delivery goroutine.
func (d *Dispatcher) stamp(event Event) Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = d.cfg.Now()
	}
	if event.TabID == "" {
		event.TabID = d.cfg.TabID
	}
	if d.cfg.Origin == "" {
		return event
	}
	if _, ok := event.Metadata["origin"]; ok {
		return event
	}
	meta := make(map[string]string, len(event.Metadata)+1)
	for k, v := range event.Metadata {
		meta[k] = v
	}
	meta["origin"] = d.cfg.Origin
	event.Metadata = meta
	return event
}

// Emit queues event for delivery. With DropIfFull a full buffer counts a drop instead of
// blocking; otherwise Emit waits for room until ctx is done.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	env := envelope{event: d.stamp(event)}

	if d.cfg.DropIfFull {
		// leave the spare slot for a flush marker
		if len(d.ch) >= d.cfg.BufferSize {
			d.dropped.Add(1)
			return
		}
		select {
		case d.ch <- env:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- env:
	case <-ctx.Done():
	case <-d.done:
	}
}

// Flush waits until every event emitted before the call has been handed to the sink, or
// until ctx is done. It returns ctx.Err() in the latter case. Events emitted concurrently
// with Flush may or may not be covered.
func (d *Dispatcher) Flush(ctx context.Context) error {
	if d == nil || d.closed.Load() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	marker := envelope{flushed: make(chan struct{})}
	select {
	case d.ch <- marker:
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-marker.flushed:
		return nil
	case <-d.done:
		// Close drains the buffer, marker included.
		d.wg.Wait()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events, drains the buffer and waits for delivery to finish.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// SinkPanics returns how many deliveries panicked inside the sink.
func (d *Dispatcher) SinkPanics() uint64 {
	if d == nil {
		return 0
	}
	return d.panics.Load()
}
