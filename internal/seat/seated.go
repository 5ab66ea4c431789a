package seat

import (
	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/OCAP2/seatsync/pkg/protocol"
)

// SeatedEntity is the passenger slot of a seat and the flags deciding how the
// passenger is displayed.
type SeatedEntity struct {
	Orientation SeatOrientation

	entity      core.Entity
	fake        bool
	upsideDown  bool
	displayMode DisplayMode

	// substitute identity, allocated the first time a fake is displayed
	substituteID core.EntityID
}

func newSeatedEntity() SeatedEntity {
	return SeatedEntity{substituteID: core.NoEntity}
}

// Entity returns the passenger, or nil when the slot is empty.
func (s *SeatedEntity) Entity() core.Entity {
	return s.entity
}

// EntityID returns the passenger's identity, or core.NoEntity.
func (s *SeatedEntity) EntityID() core.EntityID {
	return core.IDOf(s.entity)
}

func (s *SeatedEntity) IsEmpty() bool {
	return s.entity == nil
}

func (s *SeatedEntity) IsPlayer() bool {
	return s.entity != nil && s.entity.IsPlayer()
}

// IsFake reports whether a substitute entity stands in for the passenger.
func (s *SeatedEntity) IsFake() bool {
	return s.fake
}

func (s *SeatedEntity) IsUpsideDown() bool {
	return s.upsideDown
}

func (s *SeatedEntity) DisplayMode() DisplayMode {
	return s.displayMode
}

func (s *SeatedEntity) setEntity(e core.Entity) {
	s.entity = e
}

// substitute returns the identity of the substitute entity, allocating it on
// first use. The identity is reused for the lifetime of the seat.
func (s *SeatedEntity) substitute(ids core.IDSource) core.EntityID {
	if s.substituteID == core.NoEntity {
		s.substituteID = ids.NextEntityID()
	}
	return s.substituteID
}

// displayedID is the identity observers other than the passenger see.
func (s *SeatedEntity) displayedID(ids core.IDSource) core.EntityID {
	if s.fake {
		return s.substitute(ids)
	}
	return s.EntityID()
}

// metadataFlags are the flags of the displayed entity.
func (s *SeatedEntity) metadataFlags() protocol.MetaFlag {
	var f protocol.MetaFlag
	if s.upsideDown {
		f |= protocol.FlagUpsideDown
	}
	if s.fake && s.displayMode.IsElytra() {
		f |= protocol.FlagElytraPose
	}
	return f
}

// refreshMetadata resends the displayed entity's flags to one observer.
func (s *SeatedEntity) refreshMetadata(sink protocol.Sink, ids core.IDSource, observer core.EntityID) {
	if s.IsEmpty() {
		return
	}
	sink.Send(observer, &protocol.Metadata{
		Entity: s.displayedID(ids),
		Flags:  s.metadataFlags(),
	})
}
