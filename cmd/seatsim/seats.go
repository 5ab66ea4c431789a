package main

import (
	"fmt"

	"github.com/OCAP2/seatsync/internal/geo"
	"github.com/OCAP2/seatsync/internal/seat"
	"github.com/OCAP2/seatsync/internal/sim"
	"github.com/OCAP2/seatsync/internal/tree"
	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/viper"
)

// defaultSeats is used when the config names none: one seat that turns its
// player's view with the vehicle.
func defaultSeats() []sim.SeatDef {
	return []sim.SeatDef{{
		Name:   "driver",
		Config: seat.Config{ViewLock: seat.ViewLockMove},
	}}
}

// seatDefs decodes the configured seat nodes. A non-empty displayMode
// overrides every seat's display mode.
func seatDefs(nodes []*viper.Viper, displayMode string) []sim.SeatDef {
	defs := make([]sim.SeatDef, 0, len(nodes))
	for i, node := range nodes {
		def := sim.SeatDef{
			Name:   node.GetString("name"),
			Config: seat.LoadConfig(node),
		}
		if def.Name == "" {
			def.Name = fmt.Sprintf("seat%d", i)
		}
		def.Position.Load(node.Sub("position"))
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		defs = defaultSeats()
	}

	if displayMode != "" {
		mode := seat.ParseDisplayMode(displayMode)
		for i := range defs {
			defs[i].Config.DisplayMode = mode
		}
	}
	return defs
}

// vehicleNode builds the root node from the "vehicle" section: mountId,
// seatHeight and exit {posX, posY, posZ, pitch, yaw}.
func vehicleNode(v *viper.Viper) *tree.Node {
	root := tree.NewRoot("vehicle", geo.Identity())
	if v == nil {
		return root
	}

	if id := v.GetInt("mountId"); id > 0 {
		root.SetMountID(core.EntityID(id))
	}
	root.SetSeatOffset(mgl64.Vec3{0, v.GetFloat64("seatHeight"), 0})

	if exit := v.Sub("exit"); exit != nil {
		root.SetExit(geo.ExitProperties{
			Offset: mgl64.Vec3{exit.GetFloat64("posX"), exit.GetFloat64("posY"), exit.GetFloat64("posZ")},
			Pitch:  exit.GetFloat64("pitch"),
			Yaw:    exit.GetFloat64("yaw"),
		})
	}
	return root
}
