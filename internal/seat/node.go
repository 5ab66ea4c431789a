package seat

import (
	"github.com/OCAP2/seatsync/internal/geo"
	"github.com/OCAP2/seatsync/pkg/core"
)

// Node is the attachment-tree node a seat hangs off. The tree owns the
// transforms; the seat only reads them.
type Node interface {
	Transform() geo.Transform
	PreviousTransform() geo.Transform
	HasParent() bool
	// ParentMountID is the entity a passenger can ride to sit on the parent,
	// or core.NoEntity when the parent has none.
	ParentMountID() core.EntityID
	// ApplyDefaultSeatTransform applies the parent's default seat offset.
	ApplyDefaultSeatTransform(t geo.Transform) geo.Transform
	ConfiguredPosition() geo.ObjectPosition
}

// AnchorApplier is implemented by nodes that resolve anchors beyond the
// built-in ones.
type AnchorApplier interface {
	ApplyAnchor(anchor geo.Anchor, t geo.Transform) (geo.Transform, bool)
}

// VehicleNode is implemented by nodes that belong to a vehicle with exit
// properties.
type VehicleNode interface {
	ExitProperties() (geo.ExitProperties, bool)
}

func applyAnchor(node Node, anchor geo.Anchor, t geo.Transform) geo.Transform {
	switch anchor {
	case "", geo.AnchorDefault:
		return t
	case geo.AnchorSeatParent:
		if node.HasParent() {
			return node.ApplyDefaultSeatTransform(t)
		}
		return t
	}
	if a, ok := node.(AnchorApplier); ok {
		if out, ok := a.ApplyAnchor(anchor, t); ok {
			return out
		}
	}
	return t
}
