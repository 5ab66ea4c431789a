package seat

import (
	"strings"
	"testing"

	"github.com/OCAP2/seatsync/internal/geo"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readConfig(t *testing.T, raw string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("json")
	require.NoError(t, v.ReadConfig(strings.NewReader(raw)))
	return v
}

func TestLoadConfig(t *testing.T) {
	v := readConfig(t, `{
		"lockRotation": true,
		"lockView": "MOVE",
		"displayMode": "elytra-sit",
		"ejectPosition": {"posY": 1.5, "rotY": 90, "anchor": "seat parent", "lockRotation": true}
	}`)

	cfg := LoadConfig(v)
	assert.True(t, cfg.LockRotation)
	assert.Equal(t, ViewLockMove, cfg.ViewLock)
	assert.Equal(t, DisplayElytraSit, cfg.DisplayMode)
	assert.True(t, cfg.EjectLockRotation)
	assert.False(t, cfg.EjectPosition.IsDefault())
	assert.Equal(t, geo.AnchorSeatParent, cfg.EjectPosition.AnchorOrDefault())
	assert.InDelta(t, 1.5, cfg.EjectPosition.Position.Y(), 1e-9)
	assert.InDelta(t, 90, cfg.EjectPosition.Rotation.Yaw, 1e-9)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig(readConfig(t, `{"lockView": "lock", "displayMode": "sideways"}`))
	assert.Equal(t, ViewLockOff, cfg.ViewLock)
	assert.Equal(t, DisplayDefault, cfg.DisplayMode)
	assert.True(t, cfg.EjectPosition.IsDefault())
	assert.False(t, cfg.EjectLockRotation)

	assert.Equal(t, Config{}, LoadConfig(nil))
}

func TestDisplayMode_String(t *testing.T) {
	for _, m := range []DisplayMode{DisplayDefault, DisplayElytra, DisplayElytraSit} {
		assert.Equal(t, m, ParseDisplayMode(m.String()))
	}
	assert.False(t, DisplayDefault.IsElytra())
	assert.True(t, DisplayElytra.IsElytra())
	assert.Equal(t, "move", ViewLockMove.String())
}
