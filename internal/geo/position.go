package geo

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/viper"
)

// Anchor names a reference point a configured position is measured from.
type Anchor string

const (
	// AnchorDefault uses the attachment's own transform.
	AnchorDefault Anchor = "default"
	// AnchorSeatParent applies the parent's default seat transform first.
	AnchorSeatParent Anchor = "seat_parent"
)

// ParseAnchor normalizes a configured anchor name. Empty names resolve to
// AnchorDefault; names it does not know are kept so the attachment tree can
// resolve them (wheel anchors and the like).
func ParseAnchor(name string) Anchor {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer(" ", "_", "-", "_").Replace(n)
	if n == "" {
		return AnchorDefault
	}
	return Anchor(n)
}

// ObjectPosition is a configured offset, rotation and anchor. The zero value
// is the default (identity) position.
type ObjectPosition struct {
	Anchor   Anchor
	Position mgl64.Vec3
	Rotation Rotation

	configured bool
}

// Reset restores the default configuration.
func (p *ObjectPosition) Reset() {
	*p = ObjectPosition{Anchor: AnchorDefault}
}

// Load reads posX/posY/posZ, rotX/rotY/rotZ and anchor from v. A nil or empty
// node resets to the default. Missing or malformed numbers read as zero.
func (p *ObjectPosition) Load(v *viper.Viper) {
	if v == nil || len(v.AllKeys()) == 0 {
		p.Reset()
		return
	}
	p.configured = true
	p.Position = mgl64.Vec3{v.GetFloat64("posX"), v.GetFloat64("posY"), v.GetFloat64("posZ")}
	p.Rotation = Rotation{
		Pitch: v.GetFloat64("rotX"),
		Yaw:   v.GetFloat64("rotY"),
		Roll:  v.GetFloat64("rotZ"),
	}
	p.Anchor = ParseAnchor(v.GetString("anchor"))
}

// Set configures the position explicitly.
func (p *ObjectPosition) Set(position mgl64.Vec3, rotation Rotation, anchor Anchor) {
	p.configured = true
	p.Position = position
	p.Rotation = rotation
	p.Anchor = ParseAnchor(string(anchor))
}

// IsDefault reports whether no position was configured.
func (p ObjectPosition) IsDefault() bool {
	return !p.configured
}

// AnchorOrDefault returns the anchor, treating the zero value as default.
func (p ObjectPosition) AnchorOrDefault() Anchor {
	if p.Anchor == "" {
		return AnchorDefault
	}
	return p.Anchor
}

// Transform returns translate(Position) * rotate(Rotation).
func (p ObjectPosition) Transform() Transform {
	if !p.configured {
		return Identity()
	}
	return NewTransform(p.Position, p.Rotation)
}

// ExitProperties are the exit offset and rotation a vehicle applies when a
// passenger leaves any of its seats.
type ExitProperties struct {
	Offset mgl64.Vec3
	Pitch  float64
	Yaw    float64
}
