package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

// Packet type constants for the outbound seat protocol.
const (
	TypeSpawn            = "spawn"
	TypeDestroy          = "destroy"
	TypeMount            = "mount"
	TypeUnmount          = "unmount"
	TypePosition         = "position"
	TypeRelativeRotation = "relative_rotation"
	TypeMetadata         = "metadata"
	TypeEntityLook       = "entity_look"
)

// Packet is an outbound instruction for a single observer.
type Packet interface {
	PacketType() string
}

// Sink accepts packets for delivery. Delivery is fire-and-forget: observers
// never reply, so a Sink reports nothing back to the caller.
type Sink interface {
	Send(observer core.EntityID, p Packet)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(observer core.EntityID, p Packet)

// Send calls f.
func (f SinkFunc) Send(observer core.EntityID, p Packet) {
	f(observer, p)
}

// EntityKind is the kind of a wire-only entity.
type EntityKind string

const (
	KindCarrier    EntityKind = "carrier"
	KindSubstitute EntityKind = "substitute"
	KindCamera     EntityKind = "camera"
)

// MetaFlag is a bit set of rendering flags carried in metadata.
type MetaFlag uint8

const (
	FlagInvisible MetaFlag = 1 << iota
	FlagUpsideDown
	FlagElytraPose
)

// Has reports whether all bits of f2 are set.
func (f MetaFlag) Has(f2 MetaFlag) bool {
	return f&f2 == f2
}

// Spawn makes a wire-only entity appear for an observer.
type Spawn struct {
	Entity   core.EntityID `json:"entity"`
	Kind     EntityKind    `json:"kind"`
	Position mgl64.Vec3    `json:"position"`
	Yaw      float64       `json:"yaw"`
	Pitch    float64       `json:"pitch"`
	HeadYaw  float64       `json:"headYaw"`
	Motion   mgl64.Vec3    `json:"motion"`
	Flags    MetaFlag      `json:"flags"`
}

// Destroy removes wire-only entities for an observer.
type Destroy struct {
	Entities []core.EntityID `json:"entities"`
}

// Mount seats Passenger on Carrier.
type Mount struct {
	Carrier   core.EntityID `json:"carrier"`
	Passenger core.EntityID `json:"passenger"`
}

// Unmount removes Passenger from Carrier.
type Unmount struct {
	Carrier   core.EntityID `json:"carrier"`
	Passenger core.EntityID `json:"passenger"`
}

// Position moves an entity. When Relative is set, Position is a delta.
type Position struct {
	Entity   core.EntityID `json:"entity"`
	Relative bool          `json:"relative"`
	Position mgl64.Vec3    `json:"position"`
	Yaw      float64       `json:"yaw"`
	Pitch    float64       `json:"pitch"`
}

// RelativeRotation turns the observer's own view by a quantized delta.
type RelativeRotation struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

// Metadata replaces the rendering flags of an entity.
type Metadata struct {
	Entity core.EntityID `json:"entity"`
	Flags  MetaFlag      `json:"flags"`
}

// EntityLook sets body and head facing of an entity.
type EntityLook struct {
	Entity  core.EntityID `json:"entity"`
	Yaw     float64       `json:"yaw"`
	Pitch   float64       `json:"pitch"`
	HeadYaw float64       `json:"headYaw"`
}

func (*Spawn) PacketType() string            { return TypeSpawn }
func (*Destroy) PacketType() string          { return TypeDestroy }
func (*Mount) PacketType() string            { return TypeMount }
func (*Unmount) PacketType() string          { return TypeUnmount }
func (*Position) PacketType() string         { return TypePosition }
func (*RelativeRotation) PacketType() string { return TypeRelativeRotation }
func (*Metadata) PacketType() string         { return TypeMetadata }
func (*EntityLook) PacketType() string       { return TypeEntityLook }

// Envelope wraps a packet on the wire.
type Envelope struct {
	Type     string          `json:"type"`
	Observer core.EntityID   `json:"observer"`
	Payload  json.RawMessage `json:"payload"`
}

// NewEnvelope wraps p for observer.
func NewEnvelope(observer core.EntityID, p Packet) (Envelope, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", p.PacketType(), err)
	}
	return Envelope{Type: p.PacketType(), Observer: observer, Payload: raw}, nil
}

// Encode builds the JSON envelope for a packet addressed to observer.
func Encode(observer core.EntityID, p Packet) ([]byte, error) {
	env, err := NewEnvelope(observer, p)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", p.PacketType(), err)
	}
	return data, nil
}

// Decode parses an envelope back into its typed packet.
func Decode(data []byte) (core.EntityID, Packet, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return core.NoEntity, nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	p, err := env.Packet()
	return env.Observer, p, err
}

// Packet decodes the payload into the typed packet named by Type.
func (env Envelope) Packet() (Packet, error) {
	var p Packet
	switch env.Type {
	case TypeSpawn:
		p = &Spawn{}
	case TypeDestroy:
		p = &Destroy{}
	case TypeMount:
		p = &Mount{}
	case TypeUnmount:
		p = &Unmount{}
	case TypePosition:
		p = &Position{}
	case TypeRelativeRotation:
		p = &RelativeRotation{}
	case TypeMetadata:
		p = &Metadata{}
	case TypeEntityLook:
		p = &EntityLook{}
	default:
		return nil, fmt.Errorf("unknown packet type %q", env.Type)
	}
	if err := json.Unmarshal(env.Payload, p); err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", env.Type, err)
	}
	return p, nil
}
