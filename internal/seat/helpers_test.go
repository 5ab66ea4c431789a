package seat

import (
	"io"
	"log/slog"
	"testing"

	"github.com/OCAP2/seatsync/internal/geo"
	"github.com/OCAP2/seatsync/internal/transport/memory"
	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

type testNode struct {
	curr, prev  geo.Transform
	parent      bool
	parentMount core.EntityID
	seatOffset  mgl64.Vec3
	position    geo.ObjectPosition
	exit        *geo.ExitProperties
}

func newTestNode() *testNode {
	return &testNode{
		curr:        geo.Identity(),
		prev:        geo.Identity(),
		parentMount: core.NoEntity,
	}
}

// set moves the node to a new transform, keeping the old one as previous.
func (n *testNode) set(t geo.Transform) {
	n.prev = n.curr
	n.curr = t
}

func (n *testNode) rotate(r geo.Rotation) {
	n.set(geo.NewTransform(n.curr.Position(), r))
}

func (n *testNode) Transform() geo.Transform         { return n.curr }
func (n *testNode) PreviousTransform() geo.Transform { return n.prev }
func (n *testNode) HasParent() bool                  { return n.parent }
func (n *testNode) ParentMountID() core.EntityID     { return n.parentMount }
func (n *testNode) ConfiguredPosition() geo.ObjectPosition {
	return n.position
}

func (n *testNode) ApplyDefaultSeatTransform(t geo.Transform) geo.Transform {
	return t.Translate(n.seatOffset)
}

func (n *testNode) ExitProperties() (geo.ExitProperties, bool) {
	if n.exit == nil {
		return geo.ExitProperties{}, false
	}
	return *n.exit, true
}

type testEntity struct {
	id     core.EntityID
	player bool
	living bool
	loc    core.Pose
	eye    core.Pose
}

func newPlayer(id core.EntityID) *testEntity {
	return &testEntity{id: id, player: true, living: true}
}

func newMob(id core.EntityID) *testEntity {
	return &testEntity{id: id, living: true}
}

func (e *testEntity) EntityID() core.EntityID { return e.id }
func (e *testEntity) IsPlayer() bool          { return e.player }
func (e *testEntity) IsLiving() bool          { return e.living }
func (e *testEntity) Location() core.Pose     { return e.loc }
func (e *testEntity) EyeLocation() core.Pose  { return e.eye }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestSeat builds an attached seat recording into a memory sink.
func newTestSeat(t *testing.T, node *testNode, cfg Config, opts ...Option) (*Seat, *memory.Recorder) {
	t.Helper()
	rec := memory.New()
	base := []Option{
		WithIDSource(core.NewIDCounter(1000)),
		WithLogger(discardLogger()),
	}
	s := New("test", node, rec, append(base, opts...)...)
	s.Attach(cfg)
	return s, rec
}

func pitched(p float64) geo.Transform {
	return geo.NewTransform(mgl64.Vec3{}, geo.Rotation{Pitch: p})
}
