package geo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Axis conventions follow the block-game world: Y is up, yaw 0 faces +Z and
// grows clockwise seen from above, positive pitch looks down. A rotation of
// (pitch, yaw, roll) is the quaternion Ry(-yaw) * Rx(pitch) * Rz(-roll).

// singularityEpsilon is how close sin(pitch) may get to ±1 before pitch is
// clamped to ±90 degrees.
const singularityEpsilon = 1e-15

var (
	axisX = mgl64.Vec3{1, 0, 0}
	axisY = mgl64.Vec3{0, 1, 0}
	axisZ = mgl64.Vec3{0, 0, 1}
)

// Rotation is an Euler rotation in degrees.
type Rotation struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// Quat converts the rotation to a unit quaternion.
func (r Rotation) Quat() mgl64.Quat {
	qy := mgl64.QuatRotate(mgl64.DegToRad(-r.Yaw), axisY)
	qx := mgl64.QuatRotate(mgl64.DegToRad(r.Pitch), axisX)
	qz := mgl64.QuatRotate(mgl64.DegToRad(-r.Roll), axisZ)
	return qy.Mul(qx).Mul(qz)
}

// RotationFromQuat decomposes q into pitch/yaw/roll with pitch in [-90, 90].
// Near the vertical singularity roll is folded into yaw.
func RotationFromQuat(q mgl64.Quat) Rotation {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.W

	sinPitch := 2 * (w*x - y*z)
	if math.Abs(sinPitch) >= 1-singularityEpsilon {
		pitch := 90.0
		if sinPitch < 0 {
			pitch = -90.0
		}
		yaw := math.Atan2(-2*(x*z-w*y), 1-2*(y*y+z*z))
		return Rotation{Pitch: pitch, Yaw: -mgl64.RadToDeg(yaw)}
	}

	yaw := math.Atan2(2*(x*z+w*y), 1-2*(x*x+y*y))
	roll := math.Atan2(2*(x*y+w*z), 1-2*(x*x+z*z))
	return Rotation{
		Pitch: mgl64.RadToDeg(math.Asin(sinPitch)),
		Yaw:   -mgl64.RadToDeg(yaw),
		Roll:  -mgl64.RadToDeg(roll),
	}
}

// QuatPitch returns the pitch of q in degrees in (-180, 180]. Unlike
// RotationFromQuat it keeps roll within ±90 degrees, so a rotation that is
// flipped over reports a pitch beyond ±90 instead of a rolled-over yaw.
// Within singularityEpsilon of vertical it clamps to ±90.
func QuatPitch(q mgl64.Quat) float64 {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.W

	test := 2 * (w*x - y*z)
	switch {
	case math.Abs(test) < 1-singularityEpsilon:
		pitch := math.Asin(test)
		rollX := 0.5 - (x*x + z*z)
		if rollX <= 0 && math.Abs(w*z+x*y) > rollX {
			pitch = -pitch
			if pitch < 0 {
				pitch += math.Pi
			} else {
				pitch -= math.Pi
			}
		}
		return mgl64.RadToDeg(pitch)
	case test < 0:
		return -90
	default:
		return 90
	}
}

// DiffRotation returns the rotation that takes from's orientation to to's.
func DiffRotation(from, to Transform) mgl64.Quat {
	return to.Rotation().Mul(from.Rotation().Inverse())
}

// Transform is an affine world transform. It is a value type: assigning it
// clones it, and every method returns a new Transform.
type Transform struct {
	m     mgl64.Mat4
	valid bool
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{m: mgl64.Ident4(), valid: true}
}

// FromMat4 wraps an existing matrix.
func FromMat4(m mgl64.Mat4) Transform {
	return Transform{m: m, valid: true}
}

// NewTransform builds a transform from a position and a rotation.
func NewTransform(position mgl64.Vec3, rotation Rotation) Transform {
	return Identity().Translate(position).RotateYawPitchRoll(rotation)
}

// Mat4 returns the underlying matrix. The zero Transform is the identity.
func (t Transform) Mat4() mgl64.Mat4 {
	if !t.valid {
		return mgl64.Ident4()
	}
	return t.m
}

// Translate moves the transform by v expressed in its own local frame.
func (t Transform) Translate(v mgl64.Vec3) Transform {
	return FromMat4(t.Mat4().Mul4(mgl64.Translate3D(v[0], v[1], v[2])))
}

// Rotate applies q in the transform's local frame.
func (t Transform) Rotate(q mgl64.Quat) Transform {
	return FromMat4(t.Mat4().Mul4(q.Mat4()))
}

// RotateYawPitchRoll applies an Euler rotation in the local frame.
func (t Transform) RotateYawPitchRoll(r Rotation) Transform {
	return t.Rotate(r.Quat())
}

// Multiply returns t * o.
func (t Transform) Multiply(o Transform) Transform {
	return FromMat4(t.Mat4().Mul4(o.Mat4()))
}

// Position returns the translation component.
func (t Transform) Position() mgl64.Vec3 {
	return t.Mat4().Col(3).Vec3()
}

// Rotation returns the rotation component as a unit quaternion.
func (t Transform) Rotation() mgl64.Quat {
	return mgl64.Mat4ToQuat(t.Mat4()).Normalize()
}

// YawPitchRoll decomposes the rotation component.
func (t Transform) YawPitchRoll() Rotation {
	return RotationFromQuat(t.Rotation())
}

// Pitch returns the flip-aware pitch of the rotation component.
func (t Transform) Pitch() float64 {
	return QuatPitch(t.Rotation())
}
