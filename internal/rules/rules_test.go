package rules_test

import (
	"testing"

	"github.com/vovakirdan/nodewar/internal/diplomacy"
	"github.com/vovakirdan/nodewar/internal/rules"
	"github.com/vovakirdan/nodewar/internal/tick"
	"github.com/vovakirdan/nodewar/internal/world"
)

func lost(prev, next string) world.GameEvent {
	return world.NewEvent(world.EventNodeLost, 4, "hill", map[string]any{
		"previousOwnerId": prev,
		"newOwnerId":      next,
	})
}

func TestCaptureBreaksAlliance(t *testing.T) {
	w := world.New("w").
		WithRelation(world.NewRelation("p1", "p2", world.RelationAllied, 0)).
		WithOffers([]world.Offer{
			{FromPlayerID: "p1", ToPlayerID: "p2", Type: world.OfferPeace},
			{FromPlayerID: "p1", ToPlayerID: "p3", Type: world.OfferAlliance},
		})

	res := rules.CaptureDeclaresWar(w, lost("p1", "p2"))
	if res.World == nil {
		t.Fatal("capture between allies changed nothing")
	}
	if got := diplomacy.Status(res.World, "p1", "p2"); got != world.RelationWar {
		t.Errorf("status = %s, want war", got)
	}
	if len(res.World.PendingOffers) != 1 || res.World.PendingOffers[0].ToPlayerID != "p3" {
		t.Errorf("offers = %+v, want only the p1->p3 offer", res.World.PendingOffers)
	}
	if len(res.Events) != 1 || res.Events[0].Type != world.EventWarDeclared || res.Events[0].EntityID != "p2" {
		t.Fatalf("events = %+v", res.Events)
	}
	if res.Events[0].Tick != 4 {
		t.Errorf("event tick = %d, want 4", res.Events[0].Tick)
	}
	if r, _ := res.World.Relation("p1", "p2"); r.EstablishedTick != 4 {
		t.Errorf("war established at %d, want 4", r.EstablishedTick)
	}
}

func TestCaptureIgnoredCases(t *testing.T) {
	atWar := world.New("w").WithRelation(world.NewRelation("p1", "p2", world.RelationWar, 0))

	tests := []struct {
		name string
		w    *world.World
		e    world.GameEvent
	}{
		{"already at war", atWar, lost("p1", "p2")},
		{"abandoned", world.New("w"), lost("p1", "")},
		{"never owned", world.New("w"), lost("", "p2")},
		{"no data", world.New("w"), world.NewEvent(world.EventNodeLost, 1, "hill", nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := rules.CaptureDeclaresWar(tt.w, tt.e)
			if res.World != nil || len(res.Events) != 0 {
				t.Errorf("result = %+v, want no reaction", res)
			}
		})
	}
}

func TestDefaultRegistryRunsInTick(t *testing.T) {
	hill := world.NewNode("hill", "Hill", world.V(0, 0))
	hill.OwnerID = "p1"
	hill.Status = world.StatusClaimed
	hill.ControlPoints = 5
	w := world.New("w").AddNode(hill)

	res := tick.ProcessTick(w, tick.Input{
		Claims:   []world.ClaimAction{{PlayerID: "p2", NodeID: "hill"}},
		Registry: rules.Default(),
	})

	lostAt, warAt := -1, -1
	for i, e := range res.Events {
		switch e.Type {
		case world.EventNodeLost:
			lostAt = i
		case world.EventWarDeclared:
			warAt = i
		}
	}
	if lostAt < 0 || warAt < 0 {
		t.Fatalf("events = %+v, want NodeLost and WarDeclared", res.Events)
	}
	if warAt < lostAt {
		t.Error("WarDeclared processed before the capture that caused it")
	}
	if got := diplomacy.Status(res.World, "p1", "p2"); got != world.RelationWar {
		t.Errorf("status = %s, want war", got)
	}
}

func TestDefaultRegistryTypes(t *testing.T) {
	types := rules.Default().Types()
	if len(types) != 1 || types[0] != world.EventNodeLost {
		t.Errorf("types = %v, want [%s]", types, world.EventNodeLost)
	}
}
