// Package seat keeps the passenger of a moving seat displayed consistently
// for every observer, over a push-only channel that never answers back.
package seat

import (
	"log/slog"
	"slices"

	"github.com/OCAP2/seatsync/internal/geo"
	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/OCAP2/seatsync/pkg/protocol"
)

// defaultIDs is shared by seats created without WithIDSource so identities
// never collide between them.
var defaultIDs = core.NewIDCounter(1 << 24)

// Option configures a Seat.
type Option func(*Seat)

// WithLogger sets the logger mode transitions are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(s *Seat) {
		s.log = l
	}
}

// WithIDSource sets where carrier, substitute and camera identities come
// from.
func WithIDSource(ids core.IDSource) Option {
	return func(s *Seat) {
		s.ids = ids
	}
}

// WithAngleStep sets the granularity of forwarded view rotations.
func WithAngleStep(step float64) Option {
	return func(s *Seat) {
		s.angleStep = step
	}
}

// WithModeListener registers a callback for non-silent mode changes.
func WithModeListener(fn func(ModeChange)) Option {
	return func(s *Seat) {
		s.onMode = fn
	}
}

// WithThirdPersonView enables the virtual camera for players.
func WithThirdPersonView(enabled bool) Option {
	return func(s *Seat) {
		s.thirdPersonView = enabled
	}
}

// WithRegistry tracks the seat's passenger in r.
func WithRegistry(r *Registry) Option {
	return func(s *Seat) {
		s.registry = r
	}
}

// Seat is one passenger slot on an attachment-tree node. It is driven by
// the tree from a single goroutine and never blocks.
type Seat struct {
	name string
	node Node
	sink protocol.Sink
	ids  core.IDSource
	log  *slog.Logger

	metrics         seatMetrics
	onMode          func(ModeChange)
	registry        *Registry
	angleStep       float64
	thirdPersonView bool

	attached bool
	seated   SeatedEntity
	// synchronized observers, in the order they were shown
	observers []core.EntityID
	mount     VirtualMount
	// what the passenger rides, resolved on first show and kept until the
	// passenger changes or the seat detaches
	parentMount core.EntityID
	first       firstPersonView
	third       thirdPersonView

	viewLock          ViewLockMode
	eject             geo.ObjectPosition
	ejectLockRotation bool
}

// New creates a detached seat on node that sends its packets to sink.
func New(name string, node Node, sink protocol.Sink, opts ...Option) *Seat {
	s := &Seat{
		name:        name,
		node:        node,
		sink:        sink,
		ids:         defaultIDs,
		log:         slog.Default(),
		metrics:     newSeatMetrics(),
		angleStep:   protocol.DefaultAngleStep,
		seated:      newSeatedEntity(),
		parentMount: core.NoEntity,
		first:       newFirstPersonView(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Seat) Name() string {
	return s.name
}

// Attach applies cfg and makes the seat live.
func (s *Seat) Attach(cfg Config) {
	s.seated.Orientation.SetLocked(cfg.LockRotation)
	s.seated.displayMode = cfg.DisplayMode
	s.viewLock = cfg.ViewLock
	s.eject = cfg.EjectPosition
	s.ejectLockRotation = cfg.EjectLockRotation
	s.attached = true

	s.updateMode(noTx, true)
	s.syncOrientation(s.seatTransform(), false)
	s.log.Debug("seat attached",
		"seat", s.name,
		"displayMode", cfg.DisplayMode.String(),
		"lockView", cfg.ViewLock.String(),
		"lockRotation", cfg.LockRotation,
	)
}

// Detach hides the passenger from every observer, destroys the carrier and
// only then releases the passenger.
func (s *Seat) Detach() {
	if !s.attached {
		return
	}
	for _, observer := range s.observers {
		s.unmount(observer)
		s.hideImpl(observer)
	}
	s.observers = nil
	s.mount.destroy(s.sink)
	s.parentMount = core.NoEntity

	if id := s.seated.EntityID(); id != core.NoEntity {
		if s.registry != nil {
			s.registry.Remove(id, s)
		}
		s.seated.setEntity(nil)
		s.first.drift.reset()
		s.updateMode(noTx, true)
	}
	s.attached = false
	s.log.Debug("seat detached", "seat", s.name)
}

// Show makes the passenger visible to observer. Showing an observer that is
// already synchronized does nothing.
func (s *Seat) Show(observer core.EntityID) {
	if !s.attached || slices.Contains(s.observers, observer) {
		return
	}
	tx := showTx{observer: observer}
	s.updateMode(tx, false)
	s.showImpl(tx.observer)
	s.observers = append(s.observers, observer)
	s.metrics.observerShown(s.perspectiveOf(observer))
}

// Hide removes the passenger from observer's view.
func (s *Seat) Hide(observer core.EntityID) {
	i := slices.Index(s.observers, observer)
	if i < 0 {
		return
	}
	s.observers = slices.Delete(s.observers, i, i+1)
	s.hideImpl(observer)
}

// SetEntity seats e, or empties the seat when e is nil. A passenger sitting
// in another seat of the same registry is taken out of it first.
func (s *Seat) SetEntity(e core.Entity) {
	if core.IDOf(e) == s.seated.EntityID() {
		return
	}

	for _, observer := range s.observers {
		s.unmount(observer)
		s.hideImpl(observer)
	}

	if s.registry != nil {
		if old := s.seated.EntityID(); old != core.NoEntity {
			s.registry.Remove(old, s)
		}
		if e != nil {
			if other, ok := s.registry.Get(e.EntityID()); ok && other != s {
				other.SetEntity(nil)
			}
			s.registry.Set(e.EntityID(), s)
		}
	}

	s.parentMount = core.NoEntity
	s.seated.setEntity(e)
	s.first.drift.reset()
	s.updateMode(noTx, true)
	s.syncOrientation(s.seatTransform(), false)

	for _, observer := range s.observers {
		s.showImpl(observer)
	}
}

// Tick resolves the display mode for the current transform and forwards the
// seat's rotation to a view-locked player.
func (s *Seat) Tick() {
	if !s.attached {
		return
	}
	s.updateMode(noTx, false)

	if s.viewLock == ViewLockMove && s.seated.IsPlayer() &&
		slices.Contains(s.observers, s.seated.EntityID()) {
		s.first.forwardViewRotation(s)
	}
}

// Move pushes the motion since the last Move to every observer.
func (s *Seat) Move(absolute bool) {
	if !s.attached {
		return
	}
	s.mount.onMove(s.sink, absolute)
	s.third.onMove(s, absolute)
	s.first.onMove(s, absolute)
}

// TransformChanged recomputes everything derived from the seat transform.
func (s *Seat) TransformChanged(t geo.Transform) {
	if !s.attached {
		return
	}
	s.syncOrientation(s.adjust(t), true)
}

// EjectPosition returns where passenger leaves the seat.
func (s *Seat) EjectPosition(passenger core.Entity) core.Pose {
	t := applyAnchor(s.node, s.eject.AnchorOrDefault(), s.node.Transform())

	var exit *geo.ExitProperties
	if v, ok := s.node.(VehicleNode); ok {
		if p, ok := v.ExitProperties(); ok {
			exit = &p
		}
	}
	return ComputeEjectPose(EjectParams{
		Transform:    t,
		Eject:        s.eject.Transform(),
		Exit:         exit,
		LockRotation: s.ejectLockRotation,
		Passenger:    passenger,
	})
}

func (s *Seat) Entity() core.Entity {
	return s.seated.Entity()
}

func (s *Seat) IsAttached() bool        { return s.attached }
func (s *Seat) IsFake() bool            { return s.seated.IsFake() }
func (s *Seat) IsUpsideDown() bool      { return s.seated.IsUpsideDown() }
func (s *Seat) IsRotationLocked() bool  { return s.seated.Orientation.IsLocked() }
func (s *Seat) PassengerYaw() float64   { return s.seated.Orientation.PassengerYaw() }
func (s *Seat) PassengerPitch() float64 { return s.seated.Orientation.PassengerPitch() }
func (s *Seat) PassengerHeadYaw() float64 {
	return s.seated.Orientation.PassengerHeadYaw()
}

// Flags returns the display flags resolved on the last update.
func (s *Seat) Flags() ModeFlags {
	return ModeFlags{
		Fake:          s.seated.IsFake(),
		UpsideDown:    s.seated.IsUpsideDown(),
		VirtualCamera: s.first.virtualCamera,
	}
}

// Observers returns the synchronized observers.
func (s *Seat) Observers() []core.EntityID {
	return slices.Clone(s.observers)
}

// Mount returns the seat's virtual carrier.
func (s *Seat) Mount() *VirtualMount {
	return &s.mount
}

// MountID is the entity the passenger currently rides.
func (s *Seat) MountID() core.EntityID {
	return s.parentMount
}

func (s *Seat) perspectiveOf(observer core.EntityID) perspective {
	if observer != core.NoEntity && observer == s.seated.EntityID() {
		return firstPerson
	}
	return thirdPerson
}

// usesVirtualMount reports whether the passenger cannot ride the parent.
func (s *Seat) usesVirtualMount() bool {
	return !s.node.HasParent() ||
		!s.node.ConfiguredPosition().IsDefault() ||
		s.node.ParentMountID() == core.NoEntity
}

// ridesCarrier reports whether the passenger rides the seat's own carrier.
// Once the mount is resolved that choice holds even if the parent gains or
// loses a mount entity.
func (s *Seat) ridesCarrier() bool {
	if s.parentMount != core.NoEntity {
		return s.mount.Created() && s.parentMount == s.mount.ID()
	}
	return s.usesVirtualMount()
}

// adjust applies the parent's default seat offset when the passenger rides
// a virtual carrier in place of the parent.
func (s *Seat) adjust(t geo.Transform) geo.Transform {
	if s.node.HasParent() && s.node.ConfiguredPosition().IsDefault() && s.ridesCarrier() {
		return s.node.ApplyDefaultSeatTransform(t)
	}
	return t
}

func (s *Seat) seatTransform() geo.Transform {
	return s.adjust(s.node.Transform())
}

func (s *Seat) resolveMount() {
	if s.parentMount != core.NoEntity {
		return
	}
	if !s.usesVirtualMount() {
		s.parentMount = s.node.ParentMountID()
		return
	}
	o := &s.seated.Orientation
	s.mount.ensure(s.ids, s.seatTransform(), o.MountOffset(), o.MountYaw())
	s.parentMount = s.mount.ID()
}

func (s *Seat) showImpl(observer core.EntityID) {
	if s.seated.IsEmpty() {
		return
	}
	s.resolveMount()
	if s.ridesCarrier() {
		s.mount.show(s.sink, observer, s.node.Transform().Position().Sub(s.node.PreviousTransform().Position()))
	}

	switch s.perspectiveOf(observer) {
	case firstPerson:
		s.first.show(s, observer)
	default:
		s.third.show(s, observer)
	}
	s.seated.Orientation.makeVisible(s.sink, s.ids, observer, &s.seated)
}

func (s *Seat) hideImpl(observer core.EntityID) {
	switch s.perspectiveOf(observer) {
	case firstPerson:
		s.first.hide(s, observer)
	default:
		s.third.hide(s, observer)
	}
	s.mount.hide(s.sink, observer)
}

func (s *Seat) unmount(observer core.EntityID) {
	if s.seated.IsEmpty() || s.parentMount == core.NoEntity {
		return
	}
	passenger := s.seated.EntityID()
	if s.perspectiveOf(observer) == thirdPerson {
		passenger = s.seated.displayedID(s.ids)
	}
	s.sink.Send(observer, &protocol.Unmount{Carrier: s.parentMount, Passenger: passenger})
}

// synced returns the observers a mode change must reach, leaving out the one
// tx is showing.
func (s *Seat) synced(tx showTx) []core.EntityID {
	if !slices.Contains(s.observers, tx.observer) {
		return s.observers
	}
	return slices.DeleteFunc(slices.Clone(s.observers), func(o core.EntityID) bool {
		return o == tx.observer
	})
}

func (s *Seat) broadcast(p protocol.Packet) {
	for _, observer := range s.observers {
		s.sink.Send(observer, p)
	}
}

func (s *Seat) syncOrientation(t geo.Transform, notify bool) {
	o := &s.seated.Orientation
	send := func(protocol.Packet) {}
	if notify {
		send = s.broadcast
	}
	o.synchronize(t, &s.seated, s.ids, send)
	s.followTransform(t)
}

// placeMount moves the carrier and camera to t without touching the
// passenger facing.
func (s *Seat) placeMount(t geo.Transform) {
	s.seated.Orientation.placeMount(t, &s.seated)
	s.followTransform(t)
}

func (s *Seat) followTransform(t geo.Transform) {
	o := &s.seated.Orientation
	s.first.onTransformChanged(t)
	if s.mount.Created() {
		s.mount.onTransformChanged(t, o.MountOffset(), o.MountYaw())
	}
}

func (s *Seat) applyFlags(f ModeFlags) {
	s.seated.fake = f.Fake
	s.seated.upsideDown = f.UpsideDown
	s.first.virtualCamera = f.VirtualCamera
}

// updateMode resolves the flags and, unless silent, brings every
// synchronized observer over to them. A respawn hides everyone before it
// shows anyone.
func (s *Seat) updateMode(tx showTx, silent bool) {
	prev := s.Flags()
	next := ResolveMode(ModeInput{
		Transform:       s.node.Transform(),
		Occupied:        !s.seated.IsEmpty(),
		Player:          s.seated.IsPlayer(),
		DisplayMode:     s.seated.DisplayMode(),
		ThirdPersonView: s.thirdPersonView,
		Previous:        prev,
	})
	if next == prev {
		return
	}

	if silent {
		s.applyFlags(next)
		return
	}

	plan := PlanTransition(prev, next, s.seated.IsPlayer())
	observers := s.synced(tx)

	if plan.Respawn {
		for _, observer := range observers {
			s.hideImpl(observer)
		}
		s.applyFlags(next)
		s.syncOrientation(s.seatTransform(), false)
		for _, observer := range observers {
			s.showImpl(observer)
		}
	} else {
		// A flag refresh only moves the carrier. Facing changes reach
		// observers through TransformChanged.
		s.applyFlags(next)
		s.placeMount(s.seatTransform())
		for _, observer := range observers {
			if plan.RefreshMetadata && s.perspectiveOf(observer) == thirdPerson {
				s.seated.refreshMetadata(s.sink, s.ids, observer)
			}
			if plan.CameraChanged && s.perspectiveOf(observer) == firstPerson {
				s.first.hide(s, observer)
				s.first.show(s, observer)
			}
		}
	}

	s.log.Debug("seat mode changed",
		"seat", s.name,
		"transition", plan.String(),
		"fake", next.Fake,
		"upsideDown", next.UpsideDown,
		"virtualCamera", next.VirtualCamera,
	)
	s.metrics.transition(s.name, plan)
	if s.onMode != nil {
		s.onMode(ModeChange{Seat: s.name, Previous: prev, Current: next, Transition: plan})
	}
}
