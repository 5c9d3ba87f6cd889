package world

import (
	"fmt"
	"testing"
)

func TestAddNodeDoesNotMutateOriginal(t *testing.T) {
	w := New("w")
	w2 := w.AddNode(NewNode("a", "Alpha", V(0, 0)))

	if len(w.Nodes) != 0 {
		t.Fatalf("original world gained %d nodes", len(w.Nodes))
	}
	if _, ok := w2.Node("a"); !ok {
		t.Fatal("expected node a in new world")
	}
}

func TestSetNodeUnknownIsNoOp(t *testing.T) {
	w := New("w").AddNode(NewNode("a", "Alpha", V(0, 0)))
	got := w.SetNode(NewNode("ghost", "Ghost", V(1, 1)))

	if got != w {
		t.Error("SetNode on unknown id should return the same world")
	}
}

func TestAddConnectionListsOnBothEndpoints(t *testing.T) {
	w := New("w").
		AddNode(NewNode("a", "A", V(0, 0))).
		AddNode(NewNode("b", "B", V(1, 0)))
	w = w.AddConnection(NewConnection("ab", "a", "b", 1))
	w = w.AddConnection(NewConnection("ab", "a", "b", 1)) // re-adding must not duplicate

	for _, id := range []string{"a", "b"} {
		n, _ := w.Node(id)
		if len(n.ConnectionIDs) != 1 || n.ConnectionIDs[0] != "ab" {
			t.Errorf("node %s connections = %v, want [ab]", id, n.ConnectionIDs)
		}
	}
}

func TestAddConnectionToleratesMissingEndpoint(t *testing.T) {
	w := New("w").AddNode(NewNode("a", "A", V(0, 0)))
	w = w.AddConnection(NewConnection("ax", "a", "x", 1))

	if _, ok := w.Connection("ax"); !ok {
		t.Fatal("connection should be stored even with a missing endpoint")
	}
	if _, ok := w.Node("x"); ok {
		t.Error("missing endpoint must not be created")
	}
}

func TestPairKeyIsSymmetric(t *testing.T) {
	if MakePairKey("p2", "p1") != MakePairKey("p1", "p2") {
		t.Fatal("pair key depends on argument order")
	}

	w := New("w").WithRelation(NewRelation("zed", "amy", RelationAllied, 3))
	r, ok := w.Relation("amy", "zed")
	if !ok {
		t.Fatal("relation not found by reversed pair")
	}
	if r.Player1ID != "amy" || r.Player2ID != "zed" {
		t.Errorf("relation not canonical: %+v", r)
	}
	if len(w.Relations) != 1 {
		t.Errorf("expected 1 relation, got %d", len(w.Relations))
	}
}

func TestAppendEventsIsBounded(t *testing.T) {
	w := New("w")
	w.MaxEventQueue = 3

	var evts []GameEvent
	for i := 0; i < 5; i++ {
		evts = append(evts, NewEvent(EventTickProcessed, uint64(i), fmt.Sprint(i), nil))
	}
	got := w.AppendEvents(evts)

	if len(got.EventQueue) != 3 {
		t.Fatalf("queue length = %d, want 3", len(got.EventQueue))
	}
	if got.EventQueue[0].Tick != 2 || got.EventQueue[2].Tick != 4 {
		t.Errorf("queue should keep newest events, got ticks %d..%d",
			got.EventQueue[0].Tick, got.EventQueue[2].Tick)
	}
	if len(w.EventQueue) != 0 {
		t.Error("original queue was modified")
	}
}

func TestWithMaxEventQueue(t *testing.T) {
	w := New("w")
	var evts []GameEvent
	for i := 0; i < 5; i++ {
		evts = append(evts, NewEvent(EventTickProcessed, uint64(i), fmt.Sprint(i), nil))
	}
	w = w.AppendEvents(evts)

	got := w.WithMaxEventQueue(2)
	if got.MaxEventQueue != 2 {
		t.Fatalf("MaxEventQueue = %d", got.MaxEventQueue)
	}
	if len(got.EventQueue) != 2 || got.EventQueue[0].Tick != 3 {
		t.Errorf("queue = %v, want the last two events", got.EventQueue)
	}
	if len(w.EventQueue) != 5 {
		t.Error("original queue was modified")
	}

	got = got.AppendEvents([]GameEvent{NewEvent(EventTickProcessed, 9, "9", nil)})
	if len(got.EventQueue) != 2 || got.EventQueue[1].Tick != 9 {
		t.Errorf("appended queue = %v", got.EventQueue)
	}

	if def := New("w").WithMaxEventQueue(0); def.MaxEventQueue != DefaultMaxEventQueue {
		t.Errorf("zero limit = %d, want default", def.MaxEventQueue)
	}
}

func TestOptionalTick(t *testing.T) {
	none := NoTick()
	if none.IsSet() {
		t.Error("NoTick should be unset")
	}

	zero := SomeTick(0)
	tick, ok := zero.Get()
	if !ok || tick != 0 {
		t.Errorf("SomeTick(0).Get() = %d, %v", tick, ok)
	}
	if zero == none {
		t.Error("activated at tick 0 must differ from never activated")
	}
}

func TestCloneIsDeep(t *testing.T) {
	n := NewNode("a", "A", V(0, 0))
	n.Resources = []Resource{{Type: ResourceEnergy, Amount: 5, Capacity: 10}}
	w := New("w").AddNode(n)
	w = w.SetConnection(NewGateway("g", "a", "b", 1, 2, ResourceCost{Type: ResourceEnergy, Amount: 1}))

	cp := w.Clone()
	cn := cp.Nodes["a"]
	cn.Resources[0].Amount = 99

	if w.Nodes["a"].Resources[0].Amount != 5 {
		t.Error("clone shares resource slice with original")
	}
	g := cp.Connections["g"].(Gateway)
	g.ActivationCost[0].Amount = 50
	if w.Connections["g"].(Gateway).ActivationCost[0].Amount != 1 {
		t.Error("clone shares gateway cost slice with original")
	}
}

func TestNodesOwnedBy(t *testing.T) {
	a := NewNode("a", "A", V(0, 0))
	a.OwnerID = "p1"
	b := NewNode("b", "B", V(1, 0))
	w := New("w").AddNode(a).AddNode(b)

	if got := w.NodesOwnedBy("p1"); got != 1 {
		t.Errorf("NodesOwnedBy(p1) = %d, want 1", got)
	}
	if got := w.NodesOwnedBy(""); got != 0 {
		t.Errorf("NodesOwnedBy(\"\") = %d, want 0", got)
	}
}
