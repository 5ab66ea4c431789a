// Package dispatcher routes attachment-tree callbacks to the seats that
// handle them.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/OCAP2/seatsync/internal/geo"
	"github.com/OCAP2/seatsync/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrUnknownEvent is returned when no handler is registered for a kind.
var ErrUnknownEvent = errors.New("unknown event")

// Kind names an attachment-tree callback.
type Kind string

const (
	KindAttach     Kind = "attach"
	KindDetach     Kind = "detach"
	KindShow       Kind = "show"
	KindHide       Kind = "hide"
	KindTick       Kind = "tick"
	KindMove       Kind = "move"
	KindTransform  Kind = "transform"
	KindSetEntity  Kind = "set_entity"
	KindEject      Kind = "eject"
	KindModeChange Kind = "mode_change"
)

// Event is one callback from the attachment tree.
type Event struct {
	Kind Kind
	// Seat names the seat the event targets.
	Seat      string
	Observer  core.EntityID
	Entity    core.Entity
	Absolute  bool
	Transform geo.Transform
	Tick      uint64
	// Payload carries kind-specific data, such as a seat.ModeChange.
	Payload   any
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered makes the handler async with a queue of the given size. Seat
// callbacks must stay synchronous; buffering is for telemetry sinks.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Blocking makes a buffered handler block when the queue is full instead of dropping.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	handlers map[Kind]HandlerFunc
	logger   Logger

	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	failed    metric.Int64Counter
	dropped   metric.Int64Counter

	mu      sync.RWMutex
	buffers map[Kind]chan Event
	wg      sync.WaitGroup
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[Kind]HandlerFunc),
		buffers:  make(map[Kind]chan Event),
		logger:   logger,
	}

	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Current number of events in queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			d.mu.RLock()
			defer d.mu.RUnlock()
			for kind, buf := range d.buffers {
				o.ObserveInt64(d.queueSize, int64(len(buf)),
					metric.WithAttributes(attribute.String("kind", string(kind))))
			}
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Total events processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.failed, err = m.Int64Counter(
		"dispatcher.events.failed",
		metric.WithDescription("Total events whose handler returned an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.events.dropped",
		metric.WithDescription("Total events dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given kind with optional configuration.
func (d *Dispatcher) Register(kind Kind, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := d.withMetrics(kind, h)

	if cfg.logged {
		handler = d.withLogging(kind, handler)
	}

	if cfg.bufferSize > 0 {
		handler = d.withBuffer(kind, cfg.bufferSize, cfg.blocking, handler)
	}

	d.handlers[kind] = handler
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	h, ok := d.handlers[e.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, e.Kind)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return h(e)
}

// HasHandler returns true if a handler is registered for the kind.
func (d *Dispatcher) HasHandler(kind Kind) bool {
	_, ok := d.handlers[kind]
	return ok
}

// Close stops accepting buffered events and waits for queued ones to finish.
// Dispatching a buffered kind after Close panics.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	for kind, buf := range d.buffers {
		close(buf)
		delete(d.buffers, kind)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) withMetrics(kind Kind, h HandlerFunc) HandlerFunc {
	kindAttr := metric.WithAttributes(attribute.String("kind", string(kind)))
	return func(e Event) (any, error) {
		result, err := h(e)
		if err != nil {
			d.failed.Add(context.Background(), 1, kindAttr)
		} else {
			d.processed.Add(context.Background(), 1, kindAttr)
		}
		return result, err
	}
}

func (d *Dispatcher) withBuffer(kind Kind, size int, blocking bool, h HandlerFunc) HandlerFunc {
	buffer := make(chan Event, size)

	d.mu.Lock()
	d.buffers[kind] = buffer
	d.mu.Unlock()

	kindAttr := attribute.String("kind", string(kind))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for e := range buffer {
			_, _ = h(e)
		}
	}()

	if blocking {
		return func(e Event) (any, error) {
			buffer <- e
			return "queued", nil
		}
	}

	return func(e Event) (any, error) {
		select {
		case buffer <- e:
			return "queued", nil
		default:
			d.dropped.Add(context.Background(), 1, metric.WithAttributes(kindAttr))
			return nil, fmt.Errorf("queue full: %s", kind)
		}
	}
}

func (d *Dispatcher) withLogging(kind Kind, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "kind", kind, "seat", e.Seat, "tick", e.Tick)

		result, err := h(e)

		if err != nil {
			d.logger.Error("event failed", "kind", kind, "seat", e.Seat, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "kind", kind, "seat", e.Seat, "duration", time.Since(start))
		}

		return result, err
	}
}
