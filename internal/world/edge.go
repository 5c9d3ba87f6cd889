package world

import "fmt"

// ConnectionType distinguishes plain links from gateways.
type ConnectionType string

const (
	ConnectionDirect  ConnectionType = "direct"
	ConnectionGateway ConnectionType = "gateway"
)

// Edge is either a Connection or a Gateway. The set is closed: callers
// switch on the concrete type to reach gateway state.
type Edge interface {
	// Base returns the plain connection data shared by every edge.
	Base() Connection
	edge()
}

// Connection is an always-open link between two nodes.
type Connection struct {
	ID         string
	FromNodeID string
	ToNodeID   string
	Type       ConnectionType
	TravelTime float64
	IsActive   bool
}

// NewConnection creates an active direct connection.
func NewConnection(id, from, to string, travelTime float64) Connection {
	return Connection{
		ID:         id,
		FromNodeID: from,
		ToNodeID:   to,
		Type:       ConnectionDirect,
		TravelTime: travelTime,
		IsActive:   true,
	}
}

// Base returns the connection itself.
func (c Connection) Base() Connection { return c }

func (Connection) edge() {}

// Other returns the endpoint opposite to nodeID, or "" if nodeID is not an endpoint.
func (c Connection) Other(nodeID string) string {
	switch nodeID {
	case c.FromNodeID:
		return c.ToNodeID
	case c.ToNodeID:
		return c.FromNodeID
	default:
		return ""
	}
}

// Gateway is a connection that must be activated and then cools down.
// The cooldown window is [LastActivatedTick, LastActivatedTick+ActivationTime).
type Gateway struct {
	Connection
	ActivationCost    []ResourceCost
	ActivationTime    uint64
	IsCoolingDown     bool
	LastActivatedTick OptionalTick
}

// NewGateway creates an active, never-activated gateway.
func NewGateway(id, from, to string, travelTime float64, activationTime uint64, cost ...ResourceCost) Gateway {
	c := NewConnection(id, from, to, travelTime)
	c.Type = ConnectionGateway
	return Gateway{
		Connection:     c,
		ActivationCost: cost,
		ActivationTime: activationTime,
	}
}

// Base returns the embedded connection.
func (g Gateway) Base() Connection { return g.Connection }

// Clone returns a copy that shares no slices with g.
func (g Gateway) Clone() Gateway {
	cp := g
	cp.ActivationCost = append([]ResourceCost(nil), g.ActivationCost...)
	return cp
}

// OptionalTick is a tick that may be absent. It keeps "never happened"
// distinct from "happened at tick 0".
type OptionalTick struct {
	tick uint64
	set  bool
}

// SomeTick returns a present tick.
func SomeTick(t uint64) OptionalTick {
	return OptionalTick{tick: t, set: true}
}

// NoTick returns an absent tick.
func NoTick() OptionalTick {
	return OptionalTick{}
}

// Get returns the tick and whether it is present.
func (o OptionalTick) Get() (uint64, bool) {
	return o.tick, o.set
}

// IsSet reports whether a tick is present.
func (o OptionalTick) IsSet() bool {
	return o.set
}

// String returns the tick, or "none".
func (o OptionalTick) String() string {
	if !o.set {
		return "none"
	}
	return fmt.Sprintf("%d", o.tick)
}
