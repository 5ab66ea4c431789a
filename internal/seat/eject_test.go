package seat

import (
	"testing"

	"github.com/OCAP2/seatsync/internal/geo"
	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestComputeEjectPose_Locked(t *testing.T) {
	seatT := geo.NewTransform(mgl64.Vec3{10, 0, 0}, geo.Rotation{Yaw: 90})
	eject := geo.NewTransform(mgl64.Vec3{1, 0, 0}, geo.Rotation{})
	passenger := &testEntity{id: 1, living: true, eye: core.Pose{Yaw: 12, Pitch: -5}}

	pose := ComputeEjectPose(EjectParams{
		Transform:    seatT,
		Eject:        eject,
		LockRotation: true,
		Passenger:    passenger,
	})

	want := seatT.Multiply(eject).Position()
	assert.InDeltaSlice(t, want[:], pose.Position[:], 1e-9)
	assert.InDeltaSlice(t, []float64{10, 0, 1}, pose.Position[:], 1e-9)
	assert.InDelta(t, 90, pose.Yaw, 1e-6)
	assert.InDelta(t, 0, pose.Pitch, 1e-6)
}

func TestComputeEjectPose_UnlockedKeepsPassengerFacing(t *testing.T) {
	seatT := geo.NewTransform(mgl64.Vec3{}, geo.Rotation{Yaw: 90, Pitch: 30})

	living := &testEntity{id: 1, living: true,
		loc: core.Pose{Yaw: 40},
		eye: core.Pose{Yaw: 12, Pitch: -5},
	}
	pose := ComputeEjectPose(EjectParams{Transform: seatT, Passenger: living})
	assert.Equal(t, 12.0, pose.Yaw)
	assert.Equal(t, -5.0, pose.Pitch)

	object := &testEntity{id: 2,
		loc: core.Pose{Yaw: 40, Pitch: 3},
		eye: core.Pose{Yaw: 12, Pitch: -5},
	}
	pose = ComputeEjectPose(EjectParams{Transform: seatT, Passenger: object})
	assert.Equal(t, 40.0, pose.Yaw)
	assert.Equal(t, 3.0, pose.Pitch)
}

func TestComputeEjectPose_NoPassengerUsesTransform(t *testing.T) {
	seatT := geo.NewTransform(mgl64.Vec3{}, geo.Rotation{Yaw: -60})
	pose := ComputeEjectPose(EjectParams{Transform: seatT})
	assert.InDelta(t, -60, pose.Yaw, 1e-6)
}

func TestComputeEjectPose_ExitProperties(t *testing.T) {
	pose := ComputeEjectPose(EjectParams{
		Transform:    geo.Identity(),
		Eject:        geo.NewTransform(mgl64.Vec3{0, 1, 0}, geo.Rotation{}),
		Exit:         &geo.ExitProperties{Offset: mgl64.Vec3{0, 0, 2}, Pitch: 10, Yaw: 45},
		LockRotation: true,
	})
	assert.InDeltaSlice(t, []float64{0, 1, 2}, pose.Position[:], 1e-9)
	assert.InDelta(t, 45, pose.Yaw, 1e-6)
	assert.InDelta(t, 10, pose.Pitch, 1e-6)
}

func TestSeat_EjectPosition(t *testing.T) {
	node := newTestNode()
	node.parent = true
	node.seatOffset = mgl64.Vec3{0, 3, 0}
	node.curr = geo.NewTransform(mgl64.Vec3{5, 0, 5}, geo.Rotation{})
	node.exit = &geo.ExitProperties{Offset: mgl64.Vec3{1, 0, 0}, Yaw: 90}

	var cfg Config
	cfg.EjectPosition.Set(mgl64.Vec3{0, 0, -1}, geo.Rotation{}, geo.AnchorSeatParent)
	cfg.EjectLockRotation = true

	s, _ := newTestSeat(t, node, cfg)
	pose := s.EjectPosition(newPlayer(1))

	assert.InDeltaSlice(t, []float64{6, 3, 4}, pose.Position[:], 1e-9)
	assert.InDelta(t, 90, pose.Yaw, 1e-6)
}
