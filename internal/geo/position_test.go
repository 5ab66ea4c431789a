package geo

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestObjectPosition_ZeroValueIsDefault(t *testing.T) {
	var p ObjectPosition
	assert.True(t, p.IsDefault())
	assert.Equal(t, AnchorDefault, p.AnchorOrDefault())
	assert.Equal(t, mgl64.Ident4(), p.Transform().Mat4())
}

func TestObjectPosition_LoadNilResets(t *testing.T) {
	var p ObjectPosition
	p.Set(mgl64.Vec3{1, 2, 3}, Rotation{}, AnchorDefault)
	assert.False(t, p.IsDefault())

	p.Load(nil)
	assert.True(t, p.IsDefault())
	assert.Equal(t, mgl64.Vec3{}, p.Position)
}

func TestObjectPosition_LoadEmptyResets(t *testing.T) {
	var p ObjectPosition
	p.Load(viper.New())
	assert.True(t, p.IsDefault())
}

func TestObjectPosition_Load(t *testing.T) {
	v := viper.New()
	v.Set("posX", 1.5)
	v.Set("posY", "2")
	v.Set("posZ", "garbage")
	v.Set("rotY", 90)
	v.Set("anchor", "Seat Parent")

	var p ObjectPosition
	p.Load(v)

	assert.False(t, p.IsDefault())
	assert.Equal(t, mgl64.Vec3{1.5, 2, 0}, p.Position)
	assert.Equal(t, Rotation{Yaw: 90}, p.Rotation)
	assert.Equal(t, AnchorSeatParent, p.Anchor)

	tr := p.Transform()
	assertVec(t, mgl64.Vec3{1.5, 2, 0}, tr.Position())
	assert.InDelta(t, 90, tr.YawPitchRoll().Yaw, 1e-6)
}

func TestObjectPosition_ConfiguredAtOriginIsNotDefault(t *testing.T) {
	v := viper.New()
	v.Set("posX", 0)

	var p ObjectPosition
	p.Load(v)
	assert.False(t, p.IsDefault())
}

func TestParseAnchor(t *testing.T) {
	assert.Equal(t, AnchorDefault, ParseAnchor(""))
	assert.Equal(t, AnchorDefault, ParseAnchor("  DEFAULT "))
	assert.Equal(t, AnchorSeatParent, ParseAnchor("seat-parent"))
	assert.Equal(t, Anchor("front_wheel"), ParseAnchor("Front Wheel"))
}
