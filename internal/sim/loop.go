package sim

import (
	"math"

	"github.com/OCAP2/seatsync/internal/geo"
	"github.com/go-gl/mathgl/mgl64"
)

// VerticalLoop returns the vehicle transform at step of a loop in the
// vertical plane through center, facing yaw. Pitch climbs from 0 to 360
// degrees over period steps, so the vehicle is upside down halfway round.
func VerticalLoop(center mgl64.Vec3, radius, yaw float64, step, period int) geo.Transform {
	if period <= 0 {
		period = 1
	}
	pitch := 360 * float64(step%period) / float64(period)

	theta := mgl64.DegToRad(pitch)
	forward := geo.Rotation{Yaw: yaw}.Quat().Rotate(mgl64.Vec3{0, 0, 1})
	offset := forward.Mul(radius * math.Sin(theta)).Add(mgl64.Vec3{0, radius * (1 - math.Cos(theta)), 0})

	// Climbing is pitching up, and up is negative pitch.
	return geo.NewTransform(center.Add(offset).Sub(mgl64.Vec3{0, radius, 0}), geo.Rotation{
		Pitch: -pitch,
		Yaw:   yaw,
	})
}
