package seat

import (
	"strings"

	"github.com/OCAP2/seatsync/internal/geo"
	"github.com/spf13/viper"
)

// DisplayMode selects how the passenger is posed.
type DisplayMode uint8

const (
	DisplayDefault DisplayMode = iota
	DisplayElytra
	DisplayElytraSit
)

// ParseDisplayMode maps a configured name to a DisplayMode. Unknown names
// fall back to DisplayDefault.
func ParseDisplayMode(name string) DisplayMode {
	switch normalize(name) {
	case "elytra":
		return DisplayElytra
	case "elytra_sit":
		return DisplayElytraSit
	default:
		return DisplayDefault
	}
}

func (d DisplayMode) String() string {
	switch d {
	case DisplayElytra:
		return "elytra"
	case DisplayElytraSit:
		return "elytra_sit"
	default:
		return "default"
	}
}

// IsElytra reports whether d belongs to the elytra family.
func (d DisplayMode) IsElytra() bool {
	return d == DisplayElytra || d == DisplayElytraSit
}

// ViewLockMode selects how a seated player's view follows the seat.
type ViewLockMode uint8

const (
	// ViewLockOff leaves the player's view alone.
	ViewLockOff ViewLockMode = iota
	// ViewLockMove turns the player's view along with the seat.
	ViewLockMove
)

// ParseViewLockMode maps a configured name to a ViewLockMode. Unknown names
// fall back to ViewLockOff.
func ParseViewLockMode(name string) ViewLockMode {
	if normalize(name) == "move" {
		return ViewLockMove
	}
	return ViewLockOff
}

func (m ViewLockMode) String() string {
	if m == ViewLockMove {
		return "move"
	}
	return "off"
}

func normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(n)
}

// Config is the per-seat configuration.
type Config struct {
	LockRotation      bool
	ViewLock          ViewLockMode
	DisplayMode       DisplayMode
	EjectPosition     geo.ObjectPosition
	EjectLockRotation bool
}

// LoadConfig decodes a seat configuration node. Missing or malformed values
// fall back to their defaults; a nil node yields the default config.
func LoadConfig(v *viper.Viper) Config {
	var cfg Config
	if v == nil {
		return cfg
	}

	cfg.LockRotation = v.GetBool("lockRotation")
	cfg.ViewLock = ParseViewLockMode(v.GetString("lockView"))
	cfg.DisplayMode = ParseDisplayMode(v.GetString("displayMode"))

	eject := v.Sub("ejectPosition")
	cfg.EjectPosition.Load(eject)
	if eject != nil {
		cfg.EjectLockRotation = eject.GetBool("lockRotation")
	}
	return cfg
}
