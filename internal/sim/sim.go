// Package sim drives seats on a simulated attachment tree. Every tree
// callback goes through the dispatcher, the way a host would deliver them.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/OCAP2/seatsync/internal/dispatcher"
	"github.com/OCAP2/seatsync/internal/geo"
	"github.com/OCAP2/seatsync/internal/seat"
	"github.com/OCAP2/seatsync/internal/tree"
	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/OCAP2/seatsync/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ErrUnknownSeat is returned for events naming a seat that does not exist.
var ErrUnknownSeat = errors.New("unknown seat")

// modeChangeQueue bounds pending mode-change notifications.
const modeChangeQueue = 256

// SeatDef describes one seat node below the vehicle.
type SeatDef struct {
	Name     string
	Position geo.ObjectPosition
	Config   seat.Config
}

// Options configures a Simulation.
type Options struct {
	Sink            protocol.Sink
	Logger          *slog.Logger
	DispatchLogger  dispatcher.Logger
	Tracer          trace.Tracer
	IDs             core.IDSource
	AngleStep       float64
	ThirdPersonView bool
	// OnModeChange receives mode changes asynchronously.
	OnModeChange func(seat.ModeChange)
}

// Simulation owns a vehicle node, its seats and the passengers that act as
// clients.
type Simulation struct {
	vehicle  *tree.Node
	seats    map[string]*seat.Seat
	nodes    map[string]*tree.Node
	order    []string
	registry *seat.Registry
	clients  *clientEcho

	disp   *dispatcher.Dispatcher
	tracer trace.Tracer
	log    *slog.Logger
	tick   uint64
	closed bool
}

// New builds a seat for every definition under vehicle and registers the
// dispatcher handlers that drive them. Seats start detached.
func New(vehicle *tree.Node, defs []SeatDef, opts Options) (*Simulation, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DispatchLogger == nil {
		opts.DispatchLogger = opts.Logger
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("")
	}
	if opts.Sink == nil {
		opts.Sink = protocol.SinkFunc(func(core.EntityID, protocol.Packet) {})
	}

	d, err := dispatcher.New(opts.DispatchLogger)
	if err != nil {
		return nil, fmt.Errorf("create dispatcher: %w", err)
	}

	s := &Simulation{
		vehicle:  vehicle,
		seats:    make(map[string]*seat.Seat),
		nodes:    make(map[string]*tree.Node),
		registry: seat.NewRegistry(),
		clients:  newClientEcho(opts.Sink),
		disp:     d,
		tracer:   opts.Tracer,
		log:      opts.Logger,
	}

	seatOpts := []seat.Option{
		seat.WithLogger(opts.Logger),
		seat.WithRegistry(s.registry),
		seat.WithThirdPersonView(opts.ThirdPersonView),
		seat.WithAngleStep(opts.AngleStep),
		seat.WithModeListener(func(c seat.ModeChange) {
			if s.closed {
				return
			}
			if _, err := d.Dispatch(dispatcher.Event{Kind: dispatcher.KindModeChange, Seat: c.Seat, Tick: s.tick, Payload: c}); err != nil {
				s.log.Warn("Mode change not delivered", "seat", c.Seat, "error", err)
			}
		}),
	}
	if opts.IDs != nil {
		seatOpts = append(seatOpts, seat.WithIDSource(opts.IDs))
	}

	configs := make(map[string]seat.Config, len(defs))
	for _, def := range defs {
		if _, dup := s.seats[def.Name]; dup {
			return nil, fmt.Errorf("duplicate seat %q", def.Name)
		}
		node := vehicle.AddChild(def.Name, def.Position)
		s.nodes[def.Name] = node
		s.seats[def.Name] = seat.New(def.Name, node, s.clients, seatOpts...)
		s.order = append(s.order, def.Name)
		configs[def.Name] = def.Config
	}

	s.register(configs, opts.OnModeChange)
	return s, nil
}

func (s *Simulation) register(configs map[string]seat.Config, onMode func(seat.ModeChange)) {
	on := func(kind dispatcher.Kind, fn func(*seat.Seat, dispatcher.Event) (any, error), opts ...dispatcher.Option) {
		s.disp.Register(kind, func(e dispatcher.Event) (any, error) {
			st, ok := s.seats[e.Seat]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownSeat, e.Seat)
			}
			return fn(st, e)
		}, opts...)
	}

	on(dispatcher.KindAttach, func(st *seat.Seat, e dispatcher.Event) (any, error) {
		st.Attach(configs[e.Seat])
		return nil, nil
	}, dispatcher.Logged())
	on(dispatcher.KindDetach, func(st *seat.Seat, e dispatcher.Event) (any, error) {
		st.Detach()
		return nil, nil
	}, dispatcher.Logged())
	on(dispatcher.KindShow, func(st *seat.Seat, e dispatcher.Event) (any, error) {
		st.Show(e.Observer)
		return nil, nil
	})
	on(dispatcher.KindHide, func(st *seat.Seat, e dispatcher.Event) (any, error) {
		st.Hide(e.Observer)
		return nil, nil
	})
	on(dispatcher.KindSetEntity, func(st *seat.Seat, e dispatcher.Event) (any, error) {
		if p, ok := e.Entity.(*tree.Passenger); ok {
			s.clients.track(p)
		}
		st.SetEntity(e.Entity)
		return nil, nil
	}, dispatcher.Logged())
	on(dispatcher.KindTransform, func(st *seat.Seat, e dispatcher.Event) (any, error) {
		st.TransformChanged(e.Transform)
		return nil, nil
	})
	on(dispatcher.KindMove, func(st *seat.Seat, e dispatcher.Event) (any, error) {
		st.Move(e.Absolute)
		return nil, nil
	})
	on(dispatcher.KindTick, func(st *seat.Seat, e dispatcher.Event) (any, error) {
		st.Tick()
		return st.Flags(), nil
	})
	on(dispatcher.KindEject, func(st *seat.Seat, e dispatcher.Event) (any, error) {
		return st.EjectPosition(e.Entity), nil
	}, dispatcher.Logged())

	s.disp.Register(dispatcher.KindModeChange, func(e dispatcher.Event) (any, error) {
		change, ok := e.Payload.(seat.ModeChange)
		if !ok {
			return nil, fmt.Errorf("mode change payload is %T", e.Payload)
		}
		if onMode != nil {
			onMode(change)
		}
		return nil, nil
	}, dispatcher.Buffered(modeChangeQueue), dispatcher.Logged())
}

func (s *Simulation) dispatch(e dispatcher.Event) (any, error) {
	if e.Tick == 0 {
		e.Tick = s.tick
	}
	return s.disp.Dispatch(e)
}

func (s *Simulation) dispatchAll(e dispatcher.Event) error {
	var errs []error
	for _, name := range s.order {
		e.Seat = name
		if _, err := s.dispatch(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Seat returns the named seat.
func (s *Simulation) Seat(name string) (*seat.Seat, bool) {
	st, ok := s.seats[name]
	return st, ok
}

// Seats returns the seat names in creation order.
func (s *Simulation) Seats() []string {
	return append([]string(nil), s.order...)
}

// Registry maps passengers to the seats they occupy.
func (s *Simulation) Registry() *seat.Registry {
	return s.registry
}

// Vehicle returns the root node.
func (s *Simulation) Vehicle() *tree.Node {
	return s.vehicle
}

// Ticks returns how many steps have run.
func (s *Simulation) Ticks() uint64 {
	return s.tick
}

// AttachAll attaches every seat.
func (s *Simulation) AttachAll() error {
	return s.dispatchAll(dispatcher.Event{Kind: dispatcher.KindAttach})
}

// DetachAll detaches every seat.
func (s *Simulation) DetachAll() error {
	return s.dispatchAll(dispatcher.Event{Kind: dispatcher.KindDetach})
}

// ShowAll makes observer see every seat.
func (s *Simulation) ShowAll(observer core.EntityID) error {
	return s.dispatchAll(dispatcher.Event{Kind: dispatcher.KindShow, Observer: observer})
}

// HideAll hides every seat from observer.
func (s *Simulation) HideAll(observer core.EntityID) error {
	return s.dispatchAll(dispatcher.Event{Kind: dispatcher.KindHide, Observer: observer})
}

// Show makes observer see one seat.
func (s *Simulation) Show(name string, observer core.EntityID) error {
	_, err := s.dispatch(dispatcher.Event{Kind: dispatcher.KindShow, Seat: name, Observer: observer})
	return err
}

// Hide hides one seat from observer.
func (s *Simulation) Hide(name string, observer core.EntityID) error {
	_, err := s.dispatch(dispatcher.Event{Kind: dispatcher.KindHide, Seat: name, Observer: observer})
	return err
}

// SetEntity places e in the named seat; nil empties it.
func (s *Simulation) SetEntity(name string, e core.Entity) error {
	_, err := s.dispatch(dispatcher.Event{Kind: dispatcher.KindSetEntity, Seat: name, Entity: e})
	return err
}

// Eject computes where e leaves the named seat.
func (s *Simulation) Eject(name string, e core.Entity) (core.Pose, error) {
	res, err := s.dispatch(dispatcher.Event{Kind: dispatcher.KindEject, Seat: name, Entity: e})
	if err != nil {
		return core.Pose{}, err
	}
	return res.(core.Pose), nil
}

// Step moves the vehicle to t and runs one tick on every seat: transform,
// then move, then mode update.
func (s *Simulation) Step(ctx context.Context, t geo.Transform) error {
	s.tick++
	_, span := s.tracer.Start(ctx, "sim.step", trace.WithAttributes(
		attribute.Int64("tick", int64(s.tick)),
		attribute.Int("seats", len(s.order)),
	))
	defer span.End()

	s.vehicle.SetTransform(t)

	var errs []error
	for _, name := range s.order {
		node := s.nodes[name]
		events := []dispatcher.Event{
			{Kind: dispatcher.KindTransform, Seat: name, Transform: node.Transform()},
			{Kind: dispatcher.KindMove, Seat: name},
			{Kind: dispatcher.KindTick, Seat: name},
		}
		for _, e := range events {
			if _, err := s.dispatch(e); err != nil {
				errs = append(errs, err)
			}
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// Close drains queued mode-change notifications. Later mode changes are
// not reported.
func (s *Simulation) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.disp.Close()
}
