package main

import (
	"testing"

	"github.com/OCAP2/seatsync/internal/seat"
	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(t *testing.T, m map[string]any) *viper.Viper {
	t.Helper()
	v := viper.New()
	require.NoError(t, v.MergeConfigMap(m))
	return v
}

func TestSeatDefs_Default(t *testing.T) {
	defs := seatDefs(nil, "")
	require.Len(t, defs, 1)
	assert.Equal(t, "driver", defs[0].Name)
	assert.Equal(t, seat.ViewLockMove, defs[0].Config.ViewLock)
}

func TestSeatDefs_FromNodes(t *testing.T) {
	defs := seatDefs([]*viper.Viper{
		node(t, map[string]any{
			"name":         "pilot",
			"lockRotation": true,
			"displayMode":  "elytra",
			"position":     map[string]any{"posY": 1.5},
		}),
		node(t, map[string]any{"lockView": "move"}),
	}, "")

	require.Len(t, defs, 2)
	assert.Equal(t, "pilot", defs[0].Name)
	assert.True(t, defs[0].Config.LockRotation)
	assert.Equal(t, seat.DisplayElytra, defs[0].Config.DisplayMode)
	assert.False(t, defs[0].Position.IsDefault())
	assert.Equal(t, mgl64.Vec3{0, 1.5, 0}, defs[0].Position.Position)

	assert.Equal(t, "seat1", defs[1].Name)
	assert.Equal(t, seat.ViewLockMove, defs[1].Config.ViewLock)
	assert.True(t, defs[1].Position.IsDefault())
}

func TestSeatDefs_DisplayOverride(t *testing.T) {
	defs := seatDefs([]*viper.Viper{
		node(t, map[string]any{"name": "a"}),
		node(t, map[string]any{"name": "b", "displayMode": "elytra"}),
	}, "elytra_sit")
	for _, s := range defs {
		assert.Equal(t, seat.DisplayElytraSit, s.Config.DisplayMode)
	}
}

func TestVehicleNode(t *testing.T) {
	root := vehicleNode(node(t, map[string]any{
		"mountId":    77,
		"seatHeight": 0.5,
		"exit":       map[string]any{"posX": 2, "yaw": 90},
	}))

	child := root.AddChild("seat", defaultSeats()[0].Position)
	assert.Equal(t, core.EntityID(77), child.ParentMountID())

	exit, ok := child.ExitProperties()
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{2, 0, 0}, exit.Offset)
	assert.Equal(t, 90.0, exit.Yaw)

	moved := child.ApplyDefaultSeatTransform(child.Transform())
	assert.InDelta(t, 0.5, moved.Position().Y(), 1e-9)
}

func TestVehicleNode_Nil(t *testing.T) {
	root := vehicleNode(nil)
	child := root.AddChild("seat", defaultSeats()[0].Position)
	assert.Equal(t, core.NoEntity, child.ParentMountID())
	_, ok := child.ExitProperties()
	assert.False(t, ok)
}
