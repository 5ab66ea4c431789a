package seat

import (
	"math"

	"github.com/OCAP2/seatsync/internal/geo"
)

const (
	// upsideDownBand is how close pitch must come to 180° (or 0°) before the
	// passenger flips to (or back from) upside-down.
	upsideDownBand = 89.0
	// virtualCameraPitch is the absolute pitch beyond which a player views
	// itself through a virtual camera.
	virtualCameraPitch = 70.0
)

// ModeFlags are the rendering flags derived from the seat's transform.
type ModeFlags struct {
	Fake          bool
	UpsideDown    bool
	VirtualCamera bool
}

// ModeInput is everything mode resolution depends on.
type ModeInput struct {
	Transform       geo.Transform
	Occupied        bool
	Player          bool
	DisplayMode     DisplayMode
	ThirdPersonView bool
	Previous        ModeFlags
}

// ResolveMode computes the rendering flags for the current tick. It is pure;
// Previous only feeds the upside-down hysteresis.
func ResolveMode(in ModeInput) ModeFlags {
	if !in.Occupied {
		return ModeFlags{}
	}

	pitch := in.Transform.Pitch()

	if in.DisplayMode.IsElytra() {
		camera := in.ThirdPersonView && in.Player
		return ModeFlags{
			Fake:          camera || in.Player,
			VirtualCamera: camera,
		}
	}

	upsideDown := in.Previous.UpsideDown
	if geo.AngleDifference(pitch, 180) < upsideDownBand {
		upsideDown = true
	} else if geo.AngleDifference(pitch, 0) < upsideDownBand {
		upsideDown = false
	}

	camera := in.ThirdPersonView && in.Player && math.Abs(pitch) > virtualCameraPitch

	return ModeFlags{
		Fake:          in.Player && (upsideDown || camera),
		UpsideDown:    upsideDown,
		VirtualCamera: camera,
	}
}

// Transition is the work needed to move observers from one set of flags to
// the next.
type Transition struct {
	// Respawn hides and re-shows the passenger for every synchronized
	// observer.
	Respawn bool
	// RefreshMetadata resends the passenger's metadata in place.
	RefreshMetadata bool
	// CameraChanged re-shows the first-person view only.
	CameraChanged bool
}

// None reports whether nothing needs to be sent.
func (t Transition) None() bool {
	return !t.Respawn && !t.RefreshMetadata && !t.CameraChanged
}

func (t Transition) String() string {
	switch {
	case t.Respawn:
		return "respawn"
	case t.RefreshMetadata && t.CameraChanged:
		return "metadata+camera"
	case t.RefreshMetadata:
		return "metadata"
	case t.CameraChanged:
		return "camera"
	default:
		return "none"
	}
}

// PlanTransition decides how a flag change reaches observers. A change of
// substitute, or of upside-down for a player, needs a full respawn; a
// non-player flipping only needs new metadata; a camera change only touches
// the passenger's own view.
func PlanTransition(prev, next ModeFlags, player bool) Transition {
	if next.Fake != prev.Fake || (player && next.UpsideDown != prev.UpsideDown) {
		return Transition{Respawn: true}
	}
	return Transition{
		RefreshMetadata: next.UpsideDown != prev.UpsideDown,
		CameraChanged:   next.VirtualCamera != prev.VirtualCamera,
	}
}

// ModeChange is reported to listeners whenever a seat's flags change
// outside of a silent update.
type ModeChange struct {
	Seat       string
	Previous   ModeFlags
	Current    ModeFlags
	Transition Transition
}
