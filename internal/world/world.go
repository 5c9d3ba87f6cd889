package world

import (
	"maps"
	"slices"
)

// DefaultMaxEventQueue bounds World.EventQueue when no limit is configured.
const DefaultMaxEventQueue = 100

// World is the aggregate root of the simulation.
//
// A *World is treated as immutable once built: every mutator returns a new
// *World and copies only the maps or slices it changes. Callers that hold an
// older pointer keep seeing the old state.
type World struct {
	ID            string
	CurrentTick   uint64
	IsPaused      bool
	Speed         float64
	Nodes         map[string]Node
	Connections   map[string]Edge
	EventQueue    []GameEvent // Most recent processed events, oldest first
	MaxEventQueue int
	Relations     map[PairKey]Relation
	PendingOffers []Offer
}

// New creates an empty world at tick 0.
func New(id string) *World {
	return &World{
		ID:            id,
		Speed:         1.0,
		Nodes:         make(map[string]Node),
		Connections:   make(map[string]Edge),
		MaxEventQueue: DefaultMaxEventQueue,
		Relations:     make(map[PairKey]Relation),
	}
}

// shallow returns a copy of the struct that still shares every map and slice.
func (w *World) shallow() *World {
	cp := *w
	return &cp
}

// Clone returns a deep copy of the world.
func (w *World) Clone() *World {
	cp := w.shallow()
	cp.Nodes = make(map[string]Node, len(w.Nodes))
	for id, n := range w.Nodes {
		cp.Nodes[id] = n.Clone()
	}
	cp.Connections = make(map[string]Edge, len(w.Connections))
	for id, e := range w.Connections {
		if g, ok := e.(Gateway); ok {
			e = g.Clone()
		}
		cp.Connections[id] = e
	}
	cp.EventQueue = make([]GameEvent, len(w.EventQueue))
	for i, e := range w.EventQueue {
		e.Data = maps.Clone(e.Data)
		cp.EventQueue[i] = e
	}
	cp.Relations = maps.Clone(w.Relations)
	if cp.Relations == nil {
		cp.Relations = make(map[PairKey]Relation)
	}
	cp.PendingOffers = slices.Clone(w.PendingOffers)
	return cp
}

// Node returns the node with the given id.
func (w *World) Node(id string) (Node, bool) {
	n, ok := w.Nodes[id]
	return n, ok
}

// Connection returns the edge with the given id.
func (w *World) Connection(id string) (Edge, bool) {
	e, ok := w.Connections[id]
	return e, ok
}

// NodeIDs returns node ids in sorted order.
func (w *World) NodeIDs() []string {
	return slices.Sorted(maps.Keys(w.Nodes))
}

// ConnectionIDs returns connection ids in sorted order.
func (w *World) ConnectionIDs() []string {
	return slices.Sorted(maps.Keys(w.Connections))
}

// Players returns the sorted ids of every player that owns a node or appears
// in a relation or offer.
func (w *World) Players() []string {
	seen := make(map[string]struct{})
	for _, n := range w.Nodes {
		if n.OwnerID != "" {
			seen[n.OwnerID] = struct{}{}
		}
	}
	for _, r := range w.Relations {
		seen[r.Player1ID] = struct{}{}
		seen[r.Player2ID] = struct{}{}
	}
	for _, o := range w.PendingOffers {
		seen[o.FromPlayerID] = struct{}{}
		seen[o.ToPlayerID] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// NodesOwnedBy counts the nodes owned by playerID.
func (w *World) NodesOwnedBy(playerID string) int {
	count := 0
	for _, n := range w.Nodes {
		if playerID != "" && n.OwnerID == playerID {
			count++
		}
	}
	return count
}

// AddNode returns a world containing n, replacing any node with the same id.
func (w *World) AddNode(n Node) *World {
	cp := w.shallow()
	cp.Nodes = maps.Clone(w.Nodes)
	if cp.Nodes == nil {
		cp.Nodes = make(map[string]Node)
	}
	cp.Nodes[n.ID] = n
	return cp
}

// SetNode replaces an existing node. Unknown ids leave the world unchanged.
func (w *World) SetNode(n Node) *World {
	if _, ok := w.Nodes[n.ID]; !ok {
		return w
	}
	return w.AddNode(n)
}

// SetNodes replaces several existing nodes with one copy of the node map.
func (w *World) SetNodes(nodes ...Node) *World {
	if len(nodes) == 0 {
		return w
	}
	cp := w.shallow()
	cp.Nodes = maps.Clone(w.Nodes)
	changed := false
	for _, n := range nodes {
		if _, ok := cp.Nodes[n.ID]; ok {
			cp.Nodes[n.ID] = n
			changed = true
		}
	}
	if !changed {
		return w
	}
	return cp
}

// AddConnection returns a world containing e and lists its id on both
// endpoints that exist. Missing endpoints are tolerated.
func (w *World) AddConnection(e Edge) *World {
	base := e.Base()
	cp := w.SetConnection(e)
	for _, id := range []string{base.FromNodeID, base.ToNodeID} {
		n, ok := cp.Nodes[id]
		if !ok || n.hasConnection(base.ID) {
			continue
		}
		n = n.Clone()
		n.ConnectionIDs = append(n.ConnectionIDs, base.ID)
		cp = cp.SetNode(n)
	}
	return cp
}

// SetConnection returns a world in which the edge with e's id is e.
func (w *World) SetConnection(e Edge) *World {
	cp := w.shallow()
	cp.Connections = maps.Clone(w.Connections)
	if cp.Connections == nil {
		cp.Connections = make(map[string]Edge)
	}
	cp.Connections[e.Base().ID] = e
	return cp
}

// AdvanceTick returns a world one tick later.
func (w *World) AdvanceTick() *World {
	cp := w.shallow()
	cp.CurrentTick++
	return cp
}

// WithPaused returns a world with the pause flag set.
func (w *World) WithPaused(paused bool) *World {
	if w.IsPaused == paused {
		return w
	}
	cp := w.shallow()
	cp.IsPaused = paused
	return cp
}

// WithSpeed returns a world with a new speed multiplier.
func (w *World) WithSpeed(speed float64) *World {
	cp := w.shallow()
	cp.Speed = speed
	return cp
}

// Relation returns the stored relation between two players.
func (w *World) Relation(a, b string) (Relation, bool) {
	r, ok := w.Relations[MakePairKey(a, b)]
	return r, ok
}

// WithRelation returns a world storing r under its canonical key.
func (w *World) WithRelation(r Relation) *World {
	r = NewRelation(r.Player1ID, r.Player2ID, r.Status, r.EstablishedTick)
	cp := w.shallow()
	cp.Relations = maps.Clone(w.Relations)
	if cp.Relations == nil {
		cp.Relations = make(map[PairKey]Relation)
	}
	cp.Relations[r.Key()] = r
	return cp
}

// WithOffers returns a world whose pending offers are offers.
func (w *World) WithOffers(offers []Offer) *World {
	cp := w.shallow()
	cp.PendingOffers = offers
	return cp
}

// WithMaxEventQueue returns a world whose event queue keeps at most limit
// entries. A queue already over the new limit loses its oldest events.
// Non-positive limits fall back to DefaultMaxEventQueue.
func (w *World) WithMaxEventQueue(limit int) *World {
	if limit <= 0 {
		limit = DefaultMaxEventQueue
	}
	cp := w.shallow()
	cp.MaxEventQueue = limit
	if over := len(w.EventQueue) - limit; over > 0 {
		cp.EventQueue = slices.Clone(w.EventQueue[over:])
	}
	return cp
}

// AppendEvents returns a world whose event queue ends with evts.
// The queue keeps at most MaxEventQueue entries, dropping the oldest.
func (w *World) AppendEvents(evts []GameEvent) *World {
	if len(evts) == 0 {
		return w
	}
	limit := w.MaxEventQueue
	if limit <= 0 {
		limit = DefaultMaxEventQueue
	}
	queue := make([]GameEvent, 0, len(w.EventQueue)+len(evts))
	queue = append(queue, w.EventQueue...)
	queue = append(queue, evts...)
	if len(queue) > limit {
		queue = queue[len(queue)-limit:]
	}
	cp := w.shallow()
	cp.EventQueue = queue
	return cp
}
