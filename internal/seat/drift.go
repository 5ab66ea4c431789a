package seat

import "github.com/OCAP2/seatsync/pkg/protocol"

// viewDrift carries the rounding error of quantized view rotations from one
// tick to the next, so the sum of what was sent never strays from the sum of
// what was wanted by more than half a step.
type viewDrift struct {
	yaw   float64
	pitch float64
}

// step folds the remainder into the wanted deltas, quantizes them and keeps
// the new remainder. ok is false when nothing survives quantization.
func (d *viewDrift) step(yaw, pitch, angleStep float64) (qYaw, qPitch float64, ok bool) {
	wantYaw := yaw + d.yaw
	wantPitch := pitch + d.pitch

	qYaw = protocol.QuantizeAngle(wantYaw, angleStep)
	qPitch = protocol.QuantizeAngle(wantPitch, angleStep)

	d.yaw = wantYaw - qYaw
	d.pitch = wantPitch - qPitch
	return qYaw, qPitch, qYaw != 0 || qPitch != 0
}

func (d *viewDrift) reset() {
	*d = viewDrift{}
}
