package protocol

import "math"

// DefaultAngleStep is the rotation granularity of the view-rotation packet:
// angles travel as one byte per full turn.
const DefaultAngleStep = 360.0 / 256.0

// QuantizeAngle rounds angle (degrees) to the nearest multiple of step.
// A non-positive step disables quantization.
func QuantizeAngle(angle, step float64) float64 {
	if step <= 0 {
		return angle
	}
	return math.Round(angle/step) * step
}
