package geo

import "math"

// WrapAngle wraps an angle in degrees into [-180, 180).
func WrapAngle(angle float64) float64 {
	w := math.Mod(angle+180, 360)
	if w < 0 {
		w += 360
	}
	return w - 180
}

// AngleDifference returns the shortest angular distance between two angles
// in degrees, in [0, 180].
func AngleDifference(a, b float64) float64 {
	return math.Abs(WrapAngle(a - b))
}
