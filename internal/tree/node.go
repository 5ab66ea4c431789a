// Package tree is a small attachment tree: a vehicle root with child nodes
// that follow it. It supplies seat transforms to the simulator and tests.
package tree

import (
	"maps"

	"github.com/OCAP2/seatsync/internal/geo"
	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

// Node is one attachment in the tree. A child's transform is its parent's
// transform times its configured position.
type Node struct {
	name     string
	parent   *Node
	children []*Node

	position geo.ObjectPosition
	curr     geo.Transform
	prev     geo.Transform

	// mountID is the entity passengers ride to sit on this node.
	mountID    core.EntityID
	seatOffset mgl64.Vec3
	exit       *geo.ExitProperties
	anchors    map[geo.Anchor]geo.Transform
}

// NewRoot creates a root node at t.
func NewRoot(name string, t geo.Transform) *Node {
	return &Node{
		name:    name,
		curr:    t,
		prev:    t,
		mountID: core.NoEntity,
		anchors: make(map[geo.Anchor]geo.Transform),
	}
}

// AddChild attaches a child at position relative to n.
func (n *Node) AddChild(name string, position geo.ObjectPosition) *Node {
	c := &Node{
		name:     name,
		parent:   n,
		position: position,
		mountID:  core.NoEntity,
		anchors:  make(map[geo.Anchor]geo.Transform),
	}
	c.curr = n.curr.Multiply(position.Transform())
	c.prev = c.curr
	n.children = append(n.children, c)
	return c
}

func (n *Node) Name() string {
	return n.name
}

func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) Children() []*Node {
	return n.children
}

// SetMountID sets the entity passengers of child seats ride.
func (n *Node) SetMountID(id core.EntityID) {
	n.mountID = id
}

// SetSeatOffset sets the offset applied to a child seat that cannot ride
// this node's mount entity.
func (n *Node) SetSeatOffset(offset mgl64.Vec3) {
	n.seatOffset = offset
}

// SetExit sets exit properties for every seat below n.
func (n *Node) SetExit(exit geo.ExitProperties) {
	n.exit = &exit
}

// SetAnchor registers a named anchor relative to n.
func (n *Node) SetAnchor(anchor geo.Anchor, t geo.Transform) {
	n.anchors[geo.ParseAnchor(string(anchor))] = t
}

// Anchors returns a copy of the anchors registered on n.
func (n *Node) Anchors() map[geo.Anchor]geo.Transform {
	return maps.Clone(n.anchors)
}

// SetTransform moves a root node and every node below it. The old
// transforms become the previous ones.
func (n *Node) SetTransform(t geo.Transform) {
	n.prev = n.curr
	n.curr = t
	for _, c := range n.children {
		c.SetTransform(t.Multiply(c.position.Transform()))
	}
}

func (n *Node) Transform() geo.Transform {
	return n.curr
}

func (n *Node) PreviousTransform() geo.Transform {
	return n.prev
}

func (n *Node) HasParent() bool {
	return n.parent != nil
}

func (n *Node) ParentMountID() core.EntityID {
	if n.parent == nil {
		return core.NoEntity
	}
	return n.parent.mountID
}

func (n *Node) ApplyDefaultSeatTransform(t geo.Transform) geo.Transform {
	if n.parent == nil {
		return t
	}
	return t.Translate(n.parent.seatOffset)
}

func (n *Node) ConfiguredPosition() geo.ObjectPosition {
	return n.position
}

// ApplyAnchor resolves anchors registered on n or any ancestor, nearest
// first.
func (n *Node) ApplyAnchor(anchor geo.Anchor, t geo.Transform) (geo.Transform, bool) {
	for cur := n; cur != nil; cur = cur.parent {
		if a, ok := cur.anchors[anchor]; ok {
			return t.Multiply(a), true
		}
	}
	return t, false
}

// ExitProperties returns the exit properties of the nearest ancestor that
// has them.
func (n *Node) ExitProperties() (geo.ExitProperties, bool) {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.exit != nil {
			return *cur.exit, true
		}
	}
	return geo.ExitProperties{}, false
}

// Walk calls fn for n and every node below it, parents first.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Walk(fn)
	}
}
