// Package world defines the canonical data shapes of the simulation and the
// pure mutators that produce new worlds from old ones.
// This package is UI-agnostic and deterministic: nothing here reads the clock,
// draws random numbers, or mutates a value it was handed.
package world

import (
	"fmt"
	"math"
)

// DefaultMaxControlPoints is used when a node does not set its own maximum.
const DefaultMaxControlPoints = 100

// Vec2 is a position on the 2D map.
type Vec2 struct {
	X float64
	Y float64
}

// V is a convenience constructor for Vec2.
func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// String returns a string representation of the position.
func (v Vec2) String() string {
	return fmt.Sprintf("(%g,%g)", v.X, v.Y)
}

// Distance returns the straight-line distance to other.
func (v Vec2) Distance(other Vec2) float64 {
	return math.Hypot(other.X-v.X, other.Y-v.Y)
}

// Manhattan returns the taxicab distance to other.
func (v Vec2) Manhattan(other Vec2) float64 {
	return math.Abs(other.X-v.X) + math.Abs(other.Y-v.Y)
}

// ResourceType identifies a kind of resource held by a node.
type ResourceType string

const (
	ResourceEnergy   ResourceType = "energy"
	ResourceMinerals ResourceType = "minerals"
	ResourceFood     ResourceType = "food"
	ResourceCrystals ResourceType = "crystals"
)

// ResourceTypes returns every known resource type in a stable order.
func ResourceTypes() []ResourceType {
	return []ResourceType{ResourceEnergy, ResourceMinerals, ResourceFood, ResourceCrystals}
}

// ParseResourceType converts a string into a ResourceType.
func ParseResourceType(s string) (ResourceType, bool) {
	for _, t := range ResourceTypes() {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Resource is a stock of one resource type on a node.
// Amount always stays within [0, Capacity]; ticking clamps it.
type Resource struct {
	Type      ResourceType
	Amount    float64
	RegenRate float64 // Negative values decay the stock
	Capacity  float64
}

// ResourceCost is an amount of a resource type that must be paid.
type ResourceCost struct {
	Type   ResourceType
	Amount float64
}

// NodeStatus is the control state of a node.
type NodeStatus string

const (
	StatusNeutral   NodeStatus = "neutral"
	StatusClaimed   NodeStatus = "claimed"
	StatusContested NodeStatus = "contested"
)

// Node is a vertex of the map graph.
type Node struct {
	ID               string
	Name             string
	Position         Vec2
	Status           NodeStatus
	OwnerID          string // Empty when unowned
	Resources        []Resource
	ControlPoints    int
	MaxControlPoints int // Zero means DefaultMaxControlPoints
	ConnectionIDs    []string
}

// NewNode creates a neutral, unowned node at the given position.
func NewNode(id, name string, pos Vec2) Node {
	return Node{
		ID:               id,
		Name:             name,
		Position:         pos,
		Status:           StatusNeutral,
		MaxControlPoints: DefaultMaxControlPoints,
	}
}

// MaxPoints returns the effective control point ceiling of the node.
func (n Node) MaxPoints() int {
	if n.MaxControlPoints <= 0 {
		return DefaultMaxControlPoints
	}
	return n.MaxControlPoints
}

// IsOwned reports whether any player owns the node.
func (n Node) IsOwned() bool {
	return n.OwnerID != ""
}

// Resource returns the resource of the given type held by the node.
func (n Node) Resource(t ResourceType) (Resource, bool) {
	for _, r := range n.Resources {
		if r.Type == t {
			return r, true
		}
	}
	return Resource{}, false
}

// Available returns resource amounts keyed by type.
func (n Node) Available() map[ResourceType]float64 {
	out := make(map[ResourceType]float64, len(n.Resources))
	for _, r := range n.Resources {
		out[r.Type] += r.Amount
	}
	return out
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	cp := n
	cp.Resources = append([]Resource(nil), n.Resources...)
	cp.ConnectionIDs = append([]string(nil), n.ConnectionIDs...)
	return cp
}

// WithResources returns a copy of the node holding the given resources.
func (n Node) WithResources(rs []Resource) Node {
	cp := n
	cp.Resources = rs
	return cp
}

// hasConnection reports whether the node already lists connection id.
func (n Node) hasConnection(id string) bool {
	for _, c := range n.ConnectionIDs {
		if c == id {
			return true
		}
	}
	return false
}
