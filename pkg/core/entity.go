// pkg/core/entity.go
package core

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

// EntityID is the network identity of an entity as seen by observers.
// Observers are players, so an observer is addressed by its own EntityID.
type EntityID int32

// NoEntity marks an unset entity identity.
const NoEntity EntityID = -1

// Pose is a world position with a facing.
// Yaw and Pitch are in degrees; positive pitch looks down.
type Pose struct {
	Position mgl64.Vec3 `json:"position"`
	Yaw      float64    `json:"yaw"`
	Pitch    float64    `json:"pitch"`
}

// Entity is a passenger that can occupy a seat.
type Entity interface {
	EntityID() EntityID
	IsPlayer() bool
	// IsLiving reports whether the entity has a head, and so an eye location
	// distinct from its body location.
	IsLiving() bool
	Location() Pose
	EyeLocation() Pose
}

// IDOf returns the identity of e, or NoEntity when e is nil.
func IDOf(e Entity) EntityID {
	if e == nil {
		return NoEntity
	}
	return e.EntityID()
}

// IDSource hands out fresh entity identities for entities that only exist
// on the wire (carriers, substitutes, camera rigs).
type IDSource interface {
	NextEntityID() EntityID
}

// IDCounter is a thread-safe IDSource counting up from a start value.
type IDCounter struct {
	next atomic.Int32
}

// NewIDCounter creates a counter whose first identity is start.
func NewIDCounter(start EntityID) *IDCounter {
	c := &IDCounter{}
	c.next.Store(int32(start) - 1)
	return c
}

// NextEntityID returns the next unused identity.
func (c *IDCounter) NextEntityID() EntityID {
	return EntityID(c.next.Add(1))
}
