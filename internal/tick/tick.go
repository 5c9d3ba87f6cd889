// Package tick runs one simulation step: territory, resources, diplomacy,
// then the event drain, then the tick counter advances.
package tick

import (
	"github.com/vovakirdan/nodewar/internal/diplomacy"
	"github.com/vovakirdan/nodewar/internal/events"
	"github.com/vovakirdan/nodewar/internal/pathfinding"
	"github.com/vovakirdan/nodewar/internal/resource"
	"github.com/vovakirdan/nodewar/internal/territory"
	"github.com/vovakirdan/nodewar/internal/world"
)

// Input is everything a tick consumes besides the world. The zero value is a
// tick with no player input, default breaker limits, and no handlers.
type Input struct {
	EventConfig events.Config
	Claims      []world.ClaimAction
	Activations []Activation
	Requests    []diplomacy.Request
	Registry    *events.Registry
	Territory   territory.Rules
}

// Activation asks for a gateway to be opened, paid for from a node's stock.
type Activation struct {
	GatewayID string
	NodeID    string
}

// Result is the outcome of one or more ticks.
type Result struct {
	World         *world.World
	Events        []world.GameEvent // Processed events, in processing order
	Dropped       []events.Dropped
	Rejected      []diplomacy.Rejection
	Stats         events.Stats
	ProcessedTick uint64 // The tick that was simulated; the world now sits one past it
}

// ProcessTick simulates w.CurrentTick and returns the world one tick later.
// A paused world comes back as the same pointer with no events.
//
// Phase order is fixed:
//  1. territory claims, so ownership changes are visible to later phases
//  2. resource regeneration, gateway activations, then gateway cooldowns
//  3. diplomacy requests, in order
//  4. TickProcessed is queued and every event is drained through the registry
//  5. the tick advances and processed events join the world's event queue
func ProcessTick(w *world.World, in Input) Result {
	if w.IsPaused {
		return Result{World: w, ProcessedTick: w.CurrentTick}
	}
	now := w.CurrentTick

	claims := make([]world.ClaimAction, len(in.Claims))
	for i, c := range in.Claims {
		c.Tick = now
		claims[i] = c
	}
	w, queue := territory.ProcessClaims(w, claims, now, in.Territory)

	w, produced := resource.TickWorld(w)
	queue = append(queue, produced...)
	for _, a := range in.Activations {
		var activated []world.GameEvent
		w, activated = pathfinding.ActivateInWorld(w, a.GatewayID, a.NodeID)
		queue = append(queue, activated...)
	}
	w, ready := pathfinding.RefreshGateways(w)
	queue = append(queue, ready...)

	reqs := make([]diplomacy.Request, len(in.Requests))
	for i, r := range in.Requests {
		r.Tick = now
		reqs[i] = r
	}
	w, diplo, rejected := diplomacy.ApplyAll(w, reqs)
	queue = append(queue, diplo...)

	queue = append(queue, world.NewEvent(world.EventTickProcessed, now, w.ID, map[string]any{
		"tick": now,
	}))

	drained := events.ProcessEventQueue(w, queue, in.Registry, in.EventConfig)
	next := drained.World.AdvanceTick().AppendEvents(drained.Processed)

	return Result{
		World:         next,
		Events:        drained.Processed,
		Dropped:       drained.Dropped,
		Rejected:      rejected,
		Stats:         drained.Stats,
		ProcessedTick: now,
	}
}

// ProcessMultipleTicks folds ProcessTick n times. Claims, activations, and
// requests in in apply to the first tick only. n == 0 returns w unchanged.
func ProcessMultipleTicks(w *world.World, n int, in Input) Result {
	res := Result{World: w, ProcessedTick: w.CurrentTick}
	for i := 0; i < n; i++ {
		step := ProcessTick(res.World, in)
		in.Claims, in.Activations, in.Requests = nil, nil, nil

		res.World = step.World
		res.ProcessedTick = step.ProcessedTick
		res.Events = append(res.Events, step.Events...)
		res.Dropped = append(res.Dropped, step.Dropped...)
		res.Rejected = append(res.Rejected, step.Rejected...)
		res.Stats = mergeStats(res.Stats, step.Stats)
	}
	return res
}

func mergeStats(a, b events.Stats) events.Stats {
	return events.Stats{
		TotalProcessed:  a.TotalProcessed + b.TotalProcessed,
		TotalDropped:    a.TotalDropped + b.TotalDropped,
		DeepestDepth:    max(a.DeepestDepth, b.DeepestDepth),
		MaxDepthReached: a.MaxDepthReached || b.MaxDepthReached,
		MaxCountReached: a.MaxCountReached || b.MaxCountReached,
	}
}
