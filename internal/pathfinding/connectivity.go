// Package pathfinding decides which edges can be crossed, manages gateway
// activation and cooldown, and finds cost-weighted routes with A*.
package pathfinding

import (
	"github.com/vovakirdan/nodewar/internal/resource"
	"github.com/vovakirdan/nodewar/internal/world"
)

// TraversalContext carries the traveller's resources. A nil context skips
// the gateway affordability check.
type TraversalContext struct {
	Available map[world.ResourceType]float64
}

// CanTraverse reports whether an edge can be crossed right now.
//
// Direct connections only need to be active. Gateways must also be out of
// cooldown and, when ctx is given, every activation cost must be affordable.
// A cost whose resource type is missing from ctx counts as unaffordable.
func CanTraverse(e world.Edge, ctx *TraversalContext) bool {
	if e == nil || !e.Base().IsActive {
		return false
	}
	g, ok := e.(world.Gateway)
	if !ok {
		return true
	}
	if g.IsCoolingDown {
		return false
	}
	if ctx == nil || ctx.Available == nil {
		return true
	}
	for _, cost := range g.ActivationCost {
		have, ok := ctx.Available[cost.Type]
		if !ok || have < cost.Amount {
			return false
		}
	}
	return true
}

// TraversalCost returns the base cost of crossing an edge.
func TraversalCost(e world.Edge) float64 {
	return e.Base().TravelTime
}

// ActivateGateway pays the gateway's activation cost from node and starts the
// cooldown. Deductions never push a resource below zero. A gateway with no
// cost and no activation time activates without changing anything but the
// activation tick.
func ActivateGateway(g world.Gateway, n world.Node, tick uint64) (world.Gateway, world.Node, []world.GameEvent) {
	if len(g.ActivationCost) > 0 && len(n.Resources) > 0 {
		rs := append([]world.Resource(nil), n.Resources...)
		for _, cost := range g.ActivationCost {
			for i := range rs {
				if rs[i].Type == cost.Type {
					rs[i].Amount = resource.Clamp(rs[i].Amount-cost.Amount, 0, rs[i].Capacity)
				}
			}
		}
		n = n.WithResources(rs)
	}

	g = g.Clone()
	g.IsCoolingDown = g.ActivationTime > 0
	g.LastActivatedTick = world.SomeTick(tick)

	evt := world.NewEvent(world.EventGatewayActivated, tick, g.ID, map[string]any{
		"nodeId":         n.ID,
		"activationTime": g.ActivationTime,
		"readyAtTick":    tick + g.ActivationTime,
	})
	return g, n, []world.GameEvent{evt}
}

// UpdateGatewayCooldown ends a finished cooldown. When nothing changes the
// gateway is returned as given and changed is false.
func UpdateGatewayCooldown(g world.Gateway, tick uint64) (next world.Gateway, evts []world.GameEvent, changed bool) {
	if !g.IsCoolingDown {
		return g, nil, false
	}
	last, ok := g.LastActivatedTick.Get()
	if ok && tick < last+g.ActivationTime {
		return g, nil, false
	}

	next = g
	next.IsCoolingDown = false
	evt := world.NewEvent(world.EventGatewayReady, tick, g.ID, map[string]any{
		"lastActivatedTick": last,
	})
	return next, []world.GameEvent{evt}, true
}

// RefreshGateways runs UpdateGatewayCooldown on every gateway of the world in
// sorted id order at the world's current tick.
func RefreshGateways(w *world.World) (*world.World, []world.GameEvent) {
	var evts []world.GameEvent
	for _, id := range w.ConnectionIDs() {
		g, ok := w.Connections[id].(world.Gateway)
		if !ok {
			continue
		}
		next, out, changed := UpdateGatewayCooldown(g, w.CurrentTick)
		if !changed {
			continue
		}
		w = w.SetConnection(next)
		evts = append(evts, out...)
	}
	return w, evts
}

// ActivateInWorld activates gatewayID using the resources of nodeID and
// returns the updated world. The node must be one of the gateway's endpoints
// and the gateway must be active and out of cooldown. Anything else leaves
// the world unchanged.
func ActivateInWorld(w *world.World, gatewayID, nodeID string) (*world.World, []world.GameEvent) {
	e, ok := w.Connection(gatewayID)
	if !ok {
		return w, nil
	}
	g, ok := e.(world.Gateway)
	if !ok || !g.IsActive || g.IsCoolingDown || g.Other(nodeID) == "" {
		return w, nil
	}
	n, ok := w.Node(nodeID)
	if !ok {
		return w, nil
	}
	g, n, evts := ActivateGateway(g, n, w.CurrentTick)
	return w.SetConnection(g).SetNode(n), evts
}
