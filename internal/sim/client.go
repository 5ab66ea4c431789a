package sim

import (
	"github.com/OCAP2/seatsync/internal/geo"
	"github.com/OCAP2/seatsync/internal/tree"
	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/OCAP2/seatsync/pkg/protocol"
)

// clientEcho forwards every packet and plays the client side of the ones a
// player applies to itself: a relative rotation sent to a tracked player
// turns that player's head, as the real client would before reporting back.
type clientEcho struct {
	next    protocol.Sink
	players map[core.EntityID]*tree.Passenger
}

func newClientEcho(next protocol.Sink) *clientEcho {
	return &clientEcho{next: next, players: make(map[core.EntityID]*tree.Passenger)}
}

func (c *clientEcho) track(p *tree.Passenger) {
	if p.IsPlayer() {
		c.players[p.EntityID()] = p
	}
}

func (c *clientEcho) Send(observer core.EntityID, p protocol.Packet) {
	c.next.Send(observer, p)

	rot, ok := p.(*protocol.RelativeRotation)
	if !ok {
		return
	}
	player, ok := c.players[observer]
	if !ok {
		return
	}
	eye := player.EyeLocation()
	player.Look(geo.WrapAngle(eye.Yaw+rot.Yaw), clampPitch(eye.Pitch+rot.Pitch))
}

func clampPitch(p float64) float64 {
	return max(-90, min(90, p))
}
