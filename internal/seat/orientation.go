package seat

import (
	"github.com/OCAP2/seatsync/internal/geo"
	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/OCAP2/seatsync/pkg/protocol"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// carrierRideHeight is how far above its own origin a carrier holds its
	// passenger.
	carrierRideHeight = 0.7
	// upsideDownLift raises the carrier so an inverted body, which hangs from
	// its feet, still covers the seat.
	upsideDownLift = 1.2
	// elytraDrop lowers the carrier for the horizontal elytra pose.
	elytraDrop = 0.4

	lookEpsilon = 1e-3
)

// SeatOrientation tracks where the carrier sits relative to the seat and
// which way a rotation-locked passenger faces.
type SeatOrientation struct {
	locked bool

	mountOffset mgl64.Vec3
	mountYaw    float64

	passengerYaw     float64
	passengerPitch   float64
	passengerHeadYaw float64
	synced           bool
}

// SetLocked sets whether the seat dictates the passenger's facing.
func (o *SeatOrientation) SetLocked(locked bool) {
	o.locked = locked
	o.synced = false
}

func (o *SeatOrientation) IsLocked() bool {
	return o.locked
}

// MountOffset is the world-space offset from the seat to the carrier.
func (o *SeatOrientation) MountOffset() mgl64.Vec3 {
	return o.mountOffset
}

// MountYaw is the yaw the carrier is given.
func (o *SeatOrientation) MountYaw() float64 {
	return o.mountYaw
}

func (o *SeatOrientation) PassengerYaw() float64     { return o.passengerYaw }
func (o *SeatOrientation) PassengerPitch() float64   { return o.passengerPitch }
func (o *SeatOrientation) PassengerHeadYaw() float64 { return o.passengerHeadYaw }

func mountOffsetFor(seated *SeatedEntity) mgl64.Vec3 {
	y := -carrierRideHeight
	if seated.IsUpsideDown() {
		y += upsideDownLift
	}
	if seated.IsFake() && seated.DisplayMode().IsElytra() {
		y -= elytraDrop
	}
	return mgl64.Vec3{0, y, 0}
}

// placeMount updates the carrier offset and yaw for transform t.
func (o *SeatOrientation) placeMount(t geo.Transform, seated *SeatedEntity) geo.Rotation {
	rot := t.YawPitchRoll()
	o.mountOffset = mountOffsetFor(seated)
	o.mountYaw = rot.Yaw
	return rot
}

// synchronize updates the carrier offset/yaw for transform t and, when
// rotation is locked, pushes a changed passenger facing through broadcast.
func (o *SeatOrientation) synchronize(t geo.Transform, seated *SeatedEntity, ids core.IDSource, broadcast func(protocol.Packet)) {
	rot := o.placeMount(t, seated)

	if seated.IsEmpty() || !o.locked {
		o.synced = false
		return
	}

	// Only a substitute can pitch its body; real passengers sit upright.
	pitch := 0.0
	if seated.IsFake() {
		pitch = rot.Pitch
	}

	if o.synced &&
		geo.AngleDifference(rot.Yaw, o.passengerYaw) < lookEpsilon &&
		geo.AngleDifference(pitch, o.passengerPitch) < lookEpsilon {
		return
	}

	o.passengerYaw = rot.Yaw
	o.passengerPitch = pitch
	o.passengerHeadYaw = rot.Yaw
	o.synced = true
	broadcast(o.lookPacket(seated, ids))
}

// makeVisible sends the locked passenger facing to a newly shown observer.
func (o *SeatOrientation) makeVisible(sink protocol.Sink, ids core.IDSource, observer core.EntityID, seated *SeatedEntity) {
	if !o.locked || !o.synced || seated.IsEmpty() {
		return
	}
	sink.Send(observer, o.lookPacket(seated, ids))
}

func (o *SeatOrientation) lookPacket(seated *SeatedEntity, ids core.IDSource) *protocol.EntityLook {
	return &protocol.EntityLook{
		Entity:  seated.displayedID(ids),
		Yaw:     o.passengerYaw,
		Pitch:   o.passengerPitch,
		HeadYaw: o.passengerHeadYaw,
	}
}
