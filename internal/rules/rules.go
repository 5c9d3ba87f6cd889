// Package rules holds the chain-reaction handlers nodewar runs by default.
// Embedders that want different reactions build their own events.Registry.
package rules

import (
	"github.com/vovakirdan/nodewar/internal/diplomacy"
	"github.com/vovakirdan/nodewar/internal/events"
	"github.com/vovakirdan/nodewar/internal/world"
)

// Default returns a fresh registry with the standard handlers:
//   - NodeLost: capturing a node from another player is an act of war. Unless
//     the pair is already at war, the capture breaks any alliance, purges
//     pending offers, and emits WarDeclared from the captor.
func Default() *events.Registry {
	return events.NewRegistry().
		MustRegister(world.EventNodeLost, CaptureDeclaresWar)
}

// CaptureDeclaresWar reacts to a node changing hands between two players.
// Abandoned nodes (no new owner) and captures between players already at
// war leave the world as it is.
func CaptureDeclaresWar(w *world.World, e world.GameEvent) events.HandlerResult {
	previous, _ := e.Data["previousOwnerId"].(string)
	captor, _ := e.Data["newOwnerId"].(string)
	if previous == "" || captor == "" || previous == captor {
		return events.HandlerResult{}
	}
	if diplomacy.Status(w, captor, previous) == world.RelationWar {
		return events.HandlerResult{}
	}
	next, evts := diplomacy.StartWar(w, captor, previous, e.Tick)
	return events.HandlerResult{World: next, Events: evts}
}
