package tick_test

import (
	"testing"

	"github.com/vovakirdan/nodewar/internal/digest"
	"github.com/vovakirdan/nodewar/internal/diplomacy"
	"github.com/vovakirdan/nodewar/internal/events"
	"github.com/vovakirdan/nodewar/internal/tick"
	"github.com/vovakirdan/nodewar/internal/world"
)

func buildWorld() *world.World {
	a := world.NewNode("a", "Alpha", world.V(0, 0))
	a.OwnerID = "p1"
	a.Status = world.StatusClaimed
	a.ControlPoints = 100
	a.Resources = []world.Resource{
		{Type: world.ResourceEnergy, Amount: 50, RegenRate: 7, Capacity: 100},
		{Type: world.ResourceFood, Amount: 4, RegenRate: -3, Capacity: 20},
	}
	b := world.NewNode("b", "Beta", world.V(4, 0))
	b.OwnerID = "p2"
	b.Status = world.StatusClaimed
	b.ControlPoints = 100
	c := world.NewNode("c", "Gamma", world.V(2, 3))
	c.Resources = []world.Resource{{Type: world.ResourceCrystals, Amount: 0, RegenRate: 1, Capacity: 5}}

	w := world.New("test").AddNode(a).AddNode(b).AddNode(c)
	w = w.AddConnection(world.NewConnection("ac", "a", "c", 2))
	g := world.NewGateway("bc", "b", "c", 1, 2, world.ResourceCost{Type: world.ResourceEnergy, Amount: 5})
	g.IsCoolingDown = true
	g.LastActivatedTick = world.SomeTick(0)
	return w.AddConnection(g).AdvanceTick().AdvanceTick()
}

func busyInput() tick.Input {
	return tick.Input{
		Claims: []world.ClaimAction{
			{PlayerID: "p1", NodeID: "c"},
			{PlayerID: "p2", NodeID: "a"},
			{PlayerID: "p1", NodeID: "missing"},
		},
		Requests: []diplomacy.Request{
			{Type: diplomacy.OfferAlliance, FromPlayerID: "p1", ToPlayerID: "p2"},
			{Type: diplomacy.DeclareWar, FromPlayerID: "p2", ToPlayerID: "p1"},
		},
	}
}

func TestProcessTickIsDeterministic(t *testing.T) {
	base := buildWorld()
	first := tick.ProcessTick(base.Clone(), busyInput())
	wantWorld := digest.State(first.World)
	wantEvents := digest.Events(first.Events)

	for i := 0; i < 100; i++ {
		res := tick.ProcessTick(base.Clone(), busyInput())
		if got := digest.State(res.World); got != wantWorld {
			t.Fatalf("run %d: world digest %s, want %s", i, got, wantWorld)
		}
		if got := digest.Events(res.Events); got != wantEvents {
			t.Fatalf("run %d: events digest %s, want %s", i, got, wantEvents)
		}
	}
}

func TestProcessTickDoesNotMutateInput(t *testing.T) {
	base := buildWorld()
	before := digest.State(base)
	tick.ProcessTick(base, busyInput())
	if digest.State(base) != before {
		t.Fatal("input world was modified")
	}
}

func TestPausedWorldIsReturnedAsIs(t *testing.T) {
	w := buildWorld().WithPaused(true)
	res := tick.ProcessTick(w, busyInput())
	if res.World != w {
		t.Fatal("paused world should come back as the same pointer")
	}
	if len(res.Events) != 0 {
		t.Errorf("paused tick produced %d events", len(res.Events))
	}
}

func TestPhaseOrder(t *testing.T) {
	res := tick.ProcessTick(buildWorld(), busyInput())

	order := map[world.EventType]int{}
	for i, e := range res.Events {
		if _, seen := order[e.Type]; !seen {
			order[e.Type] = i
		}
	}
	sequence := []world.EventType{
		world.EventNodeContested,
		world.EventResourceProduced,
		world.EventGatewayReady,
		world.EventAllianceOffered,
		world.EventWarDeclared,
		world.EventTickProcessed,
	}
	for i := 1; i < len(sequence); i++ {
		prev, okPrev := order[sequence[i-1]]
		cur, okCur := order[sequence[i]]
		if !okPrev || !okCur {
			t.Fatalf("missing %s or %s in %v", sequence[i-1], sequence[i], res.Events)
		}
		if prev > cur {
			t.Errorf("%s came after %s", sequence[i-1], sequence[i])
		}
	}

	last := res.Events[len(res.Events)-1]
	if last.Type != world.EventTickProcessed || last.Tick != 2 {
		t.Errorf("last event = %+v", last)
	}
	if res.ProcessedTick != 2 || res.World.CurrentTick != 3 {
		t.Errorf("processed %d, world now at %d", res.ProcessedTick, res.World.CurrentTick)
	}
	if len(res.World.EventQueue) != len(res.Events) {
		t.Errorf("event queue has %d events, want %d", len(res.World.EventQueue), len(res.Events))
	}
	if len(res.World.PendingOffers) != 0 {
		t.Error("war should purge the alliance offer made earlier in the tick")
	}
}

func TestRejectedRequestsAreReported(t *testing.T) {
	in := tick.Input{Requests: []diplomacy.Request{
		{Type: diplomacy.AcceptPeace, FromPlayerID: "p1", ToPlayerID: "p2"},
	}}
	res := tick.ProcessTick(buildWorld(), in)
	if len(res.Rejected) != 1 || res.Rejected[0].Reason == "" {
		t.Fatalf("rejected = %+v", res.Rejected)
	}
}

func TestChainReactionsRunAfterRootEvents(t *testing.T) {
	reg := events.NewRegistry().MustRegister(world.EventTickProcessed,
		func(w *world.World, e world.GameEvent) events.HandlerResult {
			return events.HandlerResult{Events: []world.GameEvent{
				world.NewEvent(world.EventResourceDepleted, e.Tick, "echo", nil),
			}}
		})

	res := tick.ProcessTick(world.New("empty"), tick.Input{Registry: reg})
	if len(res.Events) != 2 {
		t.Fatalf("events = %+v", res.Events)
	}
	if res.Events[1].EntityID != "echo" {
		t.Errorf("child should follow its parent, got %+v", res.Events)
	}
}

func TestProcessMultipleTicks(t *testing.T) {
	w := buildWorld()
	if res := tick.ProcessMultipleTicks(w, 0, busyInput()); res.World != w || len(res.Events) != 0 {
		t.Fatal("zero ticks should return the input unchanged")
	}

	in := tick.Input{Claims: []world.ClaimAction{{PlayerID: "p1", NodeID: "c"}}}
	res := tick.ProcessMultipleTicks(w, 10, in)

	if res.World.CurrentTick != 12 {
		t.Errorf("tick = %d, want 12", res.World.CurrentTick)
	}
	if n, _ := res.World.Node("c"); n.ControlPoints != 10 {
		t.Errorf("control points = %d, want 10 (claims apply to the first tick only)", n.ControlPoints)
	}
	ticks := 0
	for _, e := range res.Events {
		if e.Type == world.EventTickProcessed {
			ticks++
		}
	}
	if ticks != 10 {
		t.Errorf("TickProcessed emitted %d times", ticks)
	}
}

func TestResourcesStayClampedOverManyTicks(t *testing.T) {
	res := tick.ProcessMultipleTicks(buildWorld(), 50, tick.Input{})
	for _, n := range res.World.Nodes {
		for _, r := range n.Resources {
			if r.Amount < 0 || r.Amount > r.Capacity {
				t.Fatalf("node %s %s = %v outside [0,%v]", n.ID, r.Type, r.Amount, r.Capacity)
			}
		}
		if n.ControlPoints < 0 || n.ControlPoints > n.MaxPoints() {
			t.Fatalf("node %s control points %d", n.ID, n.ControlPoints)
		}
	}
}
