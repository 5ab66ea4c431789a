package seat

import (
	"slices"

	"github.com/OCAP2/seatsync/internal/geo"
	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/OCAP2/seatsync/pkg/protocol"
	"github.com/go-gl/mathgl/mgl64"
)

// VirtualMount is the invisible carrier a passenger rides when the seat
// cannot mount it on a parent. It has one identity for its whole life,
// shared by every observer it is spawned for.
type VirtualMount struct {
	id      core.EntityID
	created bool

	offset   mgl64.Vec3
	yaw      float64
	position mgl64.Vec3 // target position
	synced   mgl64.Vec3 // position observers were last told

	observers []core.EntityID
}

// ID returns the carrier identity, or core.NoEntity before ensure.
func (m *VirtualMount) ID() core.EntityID {
	if !m.created {
		return core.NoEntity
	}
	return m.id
}

func (m *VirtualMount) Created() bool {
	return m.created
}

// Position is the carrier's current target position.
func (m *VirtualMount) Position() mgl64.Vec3 {
	return m.position
}

// Observers returns the observers the carrier is spawned for.
func (m *VirtualMount) Observers() []core.EntityID {
	return slices.Clone(m.observers)
}

// ensure creates the carrier on first use and places it at t + offset. It
// is a no-op once created.
func (m *VirtualMount) ensure(ids core.IDSource, t geo.Transform, offset mgl64.Vec3, yaw float64) {
	if m.created {
		return
	}
	m.id = ids.NextEntityID()
	m.created = true
	m.offset = offset
	m.yaw = yaw
	m.position = t.Position().Add(offset)
	m.synced = m.position
}

// show spawns the carrier for observer.
func (m *VirtualMount) show(sink protocol.Sink, observer core.EntityID, motion mgl64.Vec3) {
	if !m.created || slices.Contains(m.observers, observer) {
		return
	}
	// Nobody holds a stale position, so the carrier can appear where it is.
	if len(m.observers) == 0 {
		m.synced = m.position
	}
	sink.Send(observer, &protocol.Spawn{
		Entity:   m.id,
		Kind:     protocol.KindCarrier,
		Position: m.synced,
		Yaw:      m.yaw,
		HeadYaw:  m.yaw,
		Motion:   motion,
		Flags:    protocol.FlagInvisible,
	})
	m.observers = append(m.observers, observer)
}

// hide destroys the carrier for observer.
func (m *VirtualMount) hide(sink protocol.Sink, observer core.EntityID) {
	i := slices.Index(m.observers, observer)
	if i < 0 {
		return
	}
	m.observers = slices.Delete(m.observers, i, i+1)
	sink.Send(observer, &protocol.Destroy{Entities: []core.EntityID{m.id}})
}

// onTransformChanged recomputes the target position. Observers learn about
// it on the next onMove.
func (m *VirtualMount) onTransformChanged(t geo.Transform, offset mgl64.Vec3, yaw float64) {
	m.offset = offset
	m.yaw = yaw
	m.position = t.Position().Add(offset)
}

// onMove pushes the target position to every observer, as a delta or, when
// absolute, as the full position.
func (m *VirtualMount) onMove(sink protocol.Sink, absolute bool) {
	if !m.created {
		return
	}
	p := &protocol.Position{Entity: m.id, Yaw: m.yaw}
	if absolute {
		p.Position = m.position
	} else {
		p.Relative = true
		p.Position = m.position.Sub(m.synced)
	}
	m.synced = m.position
	for _, observer := range m.observers {
		sink.Send(observer, p)
	}
}

// destroy removes the carrier for everyone and releases its identity.
func (m *VirtualMount) destroy(sink protocol.Sink) {
	for _, observer := range m.observers {
		sink.Send(observer, &protocol.Destroy{Entities: []core.EntityID{m.id}})
	}
	*m = VirtualMount{}
}
