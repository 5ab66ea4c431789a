package seat

import (
	"github.com/OCAP2/seatsync/internal/geo"
	"github.com/OCAP2/seatsync/pkg/core"
)

// EjectParams are the inputs of ComputeEjectPose.
type EjectParams struct {
	// Transform is the seat transform with the eject anchor applied.
	Transform geo.Transform
	// Eject is the seat's configured eject transform.
	Eject geo.Transform
	// Exit holds the vehicle's exit offset and rotation, if any.
	Exit *geo.ExitProperties
	// LockRotation makes the seat dictate the facing after ejecting.
	LockRotation bool
	Passenger    core.Entity
}

// ComputeEjectPose returns where, and facing which way, a passenger leaves
// the seat.
func ComputeEjectPose(p EjectParams) core.Pose {
	t := p.Transform
	if p.Exit != nil {
		t = t.Translate(p.Exit.Offset).
			Multiply(p.Eject).
			RotateYawPitchRoll(geo.Rotation{Pitch: p.Exit.Pitch, Yaw: p.Exit.Yaw})
	} else {
		t = t.Multiply(p.Eject)
	}

	rot := t.YawPitchRoll()
	pose := core.Pose{Position: t.Position(), Yaw: rot.Yaw, Pitch: rot.Pitch}

	if !p.LockRotation && p.Passenger != nil {
		facing := p.Passenger.Location()
		if p.Passenger.IsLiving() {
			facing = p.Passenger.EyeLocation()
		}
		pose.Yaw = facing.Yaw
		pose.Pitch = facing.Pitch
	}
	return pose
}
