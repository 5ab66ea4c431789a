package tree

import (
	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

// Default eye heights above the entity origin.
const (
	PlayerEyeHeight = 1.62
	MobEyeHeight    = 1.5
)

// Passenger is a simulated entity that can occupy a seat.
type Passenger struct {
	id        core.EntityID
	player    bool
	living    bool
	eyeHeight float64

	location core.Pose
	headYaw  float64
	headPit  float64
}

func NewPlayer(id core.EntityID) *Passenger {
	return &Passenger{id: id, player: true, living: true, eyeHeight: PlayerEyeHeight}
}

func NewMob(id core.EntityID) *Passenger {
	return &Passenger{id: id, living: true, eyeHeight: MobEyeHeight}
}

// NewObject creates a passenger without a head, like an armor stand or a
// block display.
func NewObject(id core.EntityID) *Passenger {
	return &Passenger{id: id}
}

func (p *Passenger) EntityID() core.EntityID { return p.id }
func (p *Passenger) IsPlayer() bool          { return p.player }
func (p *Passenger) IsLiving() bool          { return p.living }

func (p *Passenger) Location() core.Pose {
	return p.location
}

// EyeLocation is the head pose; for entities without a head it is the body
// pose.
func (p *Passenger) EyeLocation() core.Pose {
	if !p.living {
		return p.location
	}
	return core.Pose{
		Position: p.location.Position.Add(mgl64.Vec3{0, p.eyeHeight, 0}),
		Yaw:      p.headYaw,
		Pitch:    p.headPit,
	}
}

// Teleport moves the body and turns body and head to pose.
func (p *Passenger) Teleport(pose core.Pose) {
	p.location = pose
	p.headYaw = pose.Yaw
	p.headPit = pose.Pitch
}

// Look turns the head only.
func (p *Passenger) Look(yaw, pitch float64) {
	p.headYaw = yaw
	p.headPit = pitch
}
