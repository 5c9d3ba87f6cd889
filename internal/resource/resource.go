// Package resource advances node resource stocks by one tick.
package resource

import (
	"github.com/vovakirdan/nodewar/internal/world"
)

// TickResource advances a resource by one tick and reports what happened.
// The returned events carry no tick or entity; TickNode fills those in.
//
// Rules:
//  1. amount = clamp(amount + regenRate, 0, capacity)
//  2. Reaching 0 from above emits ResourceDepleted
//  3. Reaching capacity from below emits ResourceCapReached
//  4. A positive regenRate that increased the amount emits ResourceProduced
func TickResource(r world.Resource) (world.Resource, []world.GameEvent) {
	prev := r.Amount
	next := Clamp(prev+r.RegenRate, 0, r.Capacity)
	r.Amount = next

	var evts []world.GameEvent
	if next == 0 && prev > 0 {
		evts = append(evts, resourceEvent(world.EventResourceDepleted, r, prev))
	}
	if r.Capacity > 0 && next == r.Capacity && prev < r.Capacity {
		evts = append(evts, resourceEvent(world.EventResourceCapReached, r, prev))
	}
	if r.RegenRate > 0 && next > prev {
		evts = append(evts, resourceEvent(world.EventResourceProduced, r, prev))
	}
	return r, evts
}

// TickNode ticks every resource of a node. The node itself is not modified;
// the returned copy owns a fresh resource slice.
func TickNode(n world.Node, tick uint64) (world.Node, []world.GameEvent) {
	if len(n.Resources) == 0 {
		return n, nil
	}

	rs := make([]world.Resource, len(n.Resources))
	var evts []world.GameEvent
	for i, r := range n.Resources {
		next, out := TickResource(r)
		rs[i] = next
		for _, e := range out {
			e.Tick = tick
			e.EntityID = n.ID
			evts = append(evts, e)
		}
	}
	return n.WithResources(rs), evts
}

// TickWorld ticks the resources of every node in sorted id order.
func TickWorld(w *world.World) (*world.World, []world.GameEvent) {
	var (
		changed []world.Node
		evts    []world.GameEvent
	)
	for _, id := range w.NodeIDs() {
		n := w.Nodes[id]
		if len(n.Resources) == 0 {
			continue
		}
		next, out := TickNode(n, w.CurrentTick)
		changed = append(changed, next)
		evts = append(evts, out...)
	}
	return w.SetNodes(changed...), evts
}

// Clamp restricts v to [lo, hi]. A negative hi is treated as 0.
func Clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func resourceEvent(t world.EventType, r world.Resource, prev float64) world.GameEvent {
	return world.GameEvent{
		Type: t,
		Data: map[string]any{
			"resourceType":   string(r.Type),
			"amount":         r.Amount,
			"previousAmount": prev,
			"capacity":       r.Capacity,
		},
	}
}
