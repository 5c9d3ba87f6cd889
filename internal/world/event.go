package world

// EventType tags a GameEvent. The set of tags is part of the external
// event contract and must stay stable.
type EventType string

const (
	EventResourceDepleted   EventType = "ResourceDepleted"
	EventResourceCapReached EventType = "ResourceCapReached"
	EventResourceProduced   EventType = "ResourceProduced"
	EventGatewayActivated   EventType = "GatewayActivated"
	EventGatewayReady       EventType = "GatewayReady"
	EventNodeClaimed        EventType = "NodeClaimed"
	EventNodeContested      EventType = "NodeContested"
	EventNodeLost           EventType = "NodeLost"
	EventAllianceOffered    EventType = "AllianceOffered"
	EventAllianceFormed     EventType = "AllianceFormed"
	EventAllianceRejected   EventType = "AllianceRejected"
	EventWarDeclared        EventType = "WarDeclared"
	EventPeaceProposed      EventType = "PeaceProposed"
	EventPeaceMade          EventType = "PeaceMade"
	EventTickProcessed      EventType = "TickProcessed"
)

// EventTypes returns every event tag in declaration order.
func EventTypes() []EventType {
	return []EventType{
		EventResourceDepleted,
		EventResourceCapReached,
		EventResourceProduced,
		EventGatewayActivated,
		EventGatewayReady,
		EventNodeClaimed,
		EventNodeContested,
		EventNodeLost,
		EventAllianceOffered,
		EventAllianceFormed,
		EventAllianceRejected,
		EventWarDeclared,
		EventPeaceProposed,
		EventPeaceMade,
		EventTickProcessed,
	}
}

// GameEvent records something that happened during a tick.
// Events are values; once emitted they are never modified.
type GameEvent struct {
	Type     EventType      `json:"type"`
	Tick     uint64         `json:"tick"`
	EntityID string         `json:"entityId"`
	Data     map[string]any `json:"data,omitempty"`
}

// NewEvent builds a GameEvent.
func NewEvent(t EventType, tick uint64, entityID string, data map[string]any) GameEvent {
	return GameEvent{Type: t, Tick: tick, EntityID: entityID, Data: data}
}

// ClaimAction is one player's attempt to take a node during a tick.
type ClaimAction struct {
	PlayerID string
	NodeID   string
	Tick     uint64
}
