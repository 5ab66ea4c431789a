package seat

import (
	"github.com/OCAP2/seatsync/internal/geo"
	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/OCAP2/seatsync/pkg/protocol"
	"github.com/go-gl/mathgl/mgl64"
)

// perspective selects which of the two views serves an observer.
type perspective uint8

const (
	thirdPerson perspective = iota
	firstPerson
)

func (p perspective) String() string {
	if p == firstPerson {
		return "first_person"
	}
	return "third_person"
}

// showTx marks the observer a show sequence is running for. That observer
// is not yet synchronized, so every "all synchronized observers" loop in the
// sequence skips it.
type showTx struct {
	observer core.EntityID
}

var noTx = showTx{observer: core.NoEntity}

// cameraOffset places the virtual camera behind and above the seat.
var cameraOffset = mgl64.Vec3{0, 1.0, -3.0}

// thirdPersonView shows the passenger, or its substitute, to everyone but the
// passenger itself.
type thirdPersonView struct{}

func (thirdPersonView) show(s *Seat, observer core.EntityID) {
	seated := &s.seated
	if !seated.IsFake() {
		s.sink.Send(observer, &protocol.Mount{Carrier: s.parentMount, Passenger: seated.EntityID()})
		if seated.IsUpsideDown() {
			seated.refreshMetadata(s.sink, s.ids, observer)
		}
		return
	}

	s.sink.Send(observer, &protocol.Metadata{Entity: seated.EntityID(), Flags: protocol.FlagInvisible})
	spawnSubstitute(s, observer)
}

// spawnSubstitute spawns the substitute at the seat for observer and puts it
// on the mount in use.
func spawnSubstitute(s *Seat, observer core.EntityID) {
	seated := &s.seated
	sub := seated.substitute(s.ids)
	pose := seated.Entity().Location()
	headYaw := seated.Entity().EyeLocation().Yaw
	if o := &seated.Orientation; o.IsLocked() && o.synced {
		pose.Yaw, pose.Pitch, headYaw = o.PassengerYaw(), o.PassengerPitch(), o.PassengerHeadYaw()
	}
	s.sink.Send(observer, &protocol.Spawn{
		Entity:   sub,
		Kind:     protocol.KindSubstitute,
		Position: s.seatTransform().Position(),
		Yaw:      pose.Yaw,
		Pitch:    pose.Pitch,
		HeadYaw:  headYaw,
		Flags:    seated.metadataFlags(),
	})
	s.sink.Send(observer, &protocol.Mount{Carrier: s.parentMount, Passenger: sub})
}

func (thirdPersonView) hide(s *Seat, observer core.EntityID) {
	seated := &s.seated
	if seated.IsEmpty() {
		return
	}
	if seated.IsFake() {
		s.sink.Send(observer, &protocol.Destroy{Entities: []core.EntityID{seated.substitute(s.ids)}})
		s.sink.Send(observer, &protocol.Metadata{Entity: seated.EntityID()})
		return
	}
	if seated.IsUpsideDown() {
		s.sink.Send(observer, &protocol.Metadata{Entity: seated.EntityID()})
	}
}

// onMove re-asserts the substitute's ride after a teleport; relative motion
// is carried by the carrier.
func (thirdPersonView) onMove(s *Seat, absolute bool) {
	if !absolute || !s.seated.IsFake() {
		return
	}
	mount := &protocol.Mount{Carrier: s.parentMount, Passenger: s.seated.substitute(s.ids)}
	for _, observer := range s.observers {
		if s.perspectiveOf(observer) == thirdPerson {
			s.sink.Send(observer, mount)
		}
	}
}

// firstPersonView is the passenger's view of itself: the ride, an optional
// camera rig with the substitute in view, and the forwarded view rotation.
type firstPersonView struct {
	virtualCamera bool

	cameraID        core.EntityID
	cameraSpawned   bool
	substituteShown bool
	cameraPos       mgl64.Vec3
	cameraSynced    mgl64.Vec3

	drift viewDrift
}

func newFirstPersonView() firstPersonView {
	return firstPersonView{cameraID: core.NoEntity}
}

func (v *firstPersonView) show(s *Seat, observer core.EntityID) {
	s.sink.Send(observer, &protocol.Mount{Carrier: s.parentMount, Passenger: s.seated.EntityID()})
	if !v.virtualCamera {
		return
	}

	if v.cameraID == core.NoEntity {
		v.cameraID = s.ids.NextEntityID()
	}
	t := s.seatTransform()
	v.cameraPos = t.Translate(cameraOffset).Position()
	v.cameraSynced = v.cameraPos
	rot := t.YawPitchRoll()
	s.sink.Send(observer, &protocol.Spawn{
		Entity:   v.cameraID,
		Kind:     protocol.KindCamera,
		Position: v.cameraPos,
		Yaw:      rot.Yaw,
		HeadYaw:  rot.Yaw,
		Flags:    protocol.FlagInvisible,
	})
	v.cameraSpawned = true

	// From the camera the passenger sees its own body, which only the
	// substitute can show flipped.
	if s.seated.IsFake() {
		spawnSubstitute(s, observer)
		v.substituteShown = true
	}
}

func (v *firstPersonView) hide(s *Seat, observer core.EntityID) {
	if v.substituteShown {
		s.sink.Send(observer, &protocol.Destroy{Entities: []core.EntityID{s.seated.substitute(s.ids)}})
		v.substituteShown = false
	}
	if !v.cameraSpawned {
		return
	}
	s.sink.Send(observer, &protocol.Destroy{Entities: []core.EntityID{v.cameraID}})
	v.cameraSpawned = false
}

func (v *firstPersonView) onTransformChanged(t geo.Transform) {
	v.cameraPos = t.Translate(cameraOffset).Position()
}

func (v *firstPersonView) onMove(s *Seat, absolute bool) {
	if !v.cameraSpawned {
		return
	}
	if absolute && v.substituteShown {
		s.sink.Send(s.seated.EntityID(), &protocol.Mount{Carrier: s.parentMount, Passenger: s.seated.substitute(s.ids)})
	}
	p := &protocol.Position{Entity: v.cameraID, Yaw: s.seatTransform().YawPitchRoll().Yaw}
	if absolute {
		p.Position = v.cameraPos
	} else {
		p.Relative = true
		p.Position = v.cameraPos.Sub(v.cameraSynced)
	}
	v.cameraSynced = v.cameraPos
	s.sink.Send(s.seated.EntityID(), p)
}

// forwardViewRotation turns the passenger's view by however much the seat
// turned since the previous tick. The passenger's facing is taken from the
// server-side entity; nothing is read back from the observer.
func (v *firstPersonView) forwardViewRotation(s *Seat) {
	passenger := s.seated.Entity()
	if passenger == nil {
		return
	}

	eye := passenger.EyeLocation()
	old := geo.Rotation{Pitch: eye.Pitch, Yaw: eye.Yaw}
	diff := geo.DiffRotation(s.node.PreviousTransform(), s.node.Transform())
	next := geo.RotationFromQuat(diff.Mul(old.Quat()))

	yaw := geo.WrapAngle(next.Yaw - old.Yaw)
	pitch := geo.WrapAngle(next.Pitch - old.Pitch)

	qYaw, qPitch, ok := v.drift.step(yaw, pitch, s.angleStep)
	if !ok {
		return
	}
	s.sink.Send(passenger.EntityID(), &protocol.RelativeRotation{Yaw: qYaw, Pitch: qPitch})
}
