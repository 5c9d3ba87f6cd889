package diplomacy

import (
	"testing"

	"github.com/vovakirdan/nodewar/internal/world"
)

// twoPlayers returns a world where p1 and p2 each own one node and p3 owns none.
func twoPlayers() *world.World {
	a := world.NewNode("a", "A", world.V(0, 0))
	a.OwnerID = "p1"
	b := world.NewNode("b", "B", world.V(1, 0))
	b.OwnerID = "p2"
	return world.New("w").AddNode(a).AddNode(b)
}

func req(t Action, from, to string) Request {
	return Request{Type: t, FromPlayerID: from, ToPlayerID: to, Tick: 5}
}

func mustApply(t *testing.T, w *world.World, r Request, want world.EventType) *world.World {
	t.Helper()
	if v := Validate(w, r); !v.Valid {
		t.Fatalf("%s rejected: %s", r.Type, v.Reason)
	}
	next, evts := Apply(w, r)
	if len(evts) != 1 || evts[0].Type != want {
		t.Fatalf("%s events = %+v, want %s", r.Type, evts, want)
	}
	return next
}

func TestAllianceScenario(t *testing.T) {
	w := twoPlayers()

	w = mustApply(t, w, req(OfferAlliance, "p1", "p2"), world.EventAllianceOffered)
	if len(w.PendingOffers) != 1 {
		t.Fatalf("pending offers = %d, want 1", len(w.PendingOffers))
	}
	if got := PendingFor(w, "p2"); len(got) != 1 || got[0].FromPlayerID != "p1" {
		t.Errorf("PendingFor(p2) = %+v", got)
	}

	w = mustApply(t, w, req(AcceptAlliance, "p2", "p1"), world.EventAllianceFormed)
	if len(w.PendingOffers) != 0 {
		t.Error("offer not cleared on accept")
	}
	if Status(w, "p1", "p2") != world.RelationAllied || Status(w, "p2", "p1") != world.RelationAllied {
		t.Fatal("players not allied")
	}

	w = mustApply(t, w, req(DeclareWar, "p2", "p1"), world.EventWarDeclared)
	if Status(w, "p1", "p2") != world.RelationWar {
		t.Fatal("war not declared")
	}

	w = mustApply(t, w, req(ProposePeace, "p1", "p2"), world.EventPeaceProposed)
	w = mustApply(t, w, req(AcceptPeace, "p2", "p1"), world.EventPeaceMade)
	if Status(w, "p1", "p2") != world.RelationNeutral {
		t.Error("peace did not restore neutral")
	}
	if len(w.Relations) != 1 {
		t.Errorf("relations = %d, want one entry per pair", len(w.Relations))
	}
}

func TestWarPurgesPendingOffers(t *testing.T) {
	w := twoPlayers()
	c := world.NewNode("c", "C", world.V(2, 0))
	c.OwnerID = "p3"
	w = w.AddNode(c)

	w = mustApply(t, w, req(OfferAlliance, "p1", "p2"), world.EventAllianceOffered)
	w = mustApply(t, w, req(OfferAlliance, "p1", "p3"), world.EventAllianceOffered)
	w = mustApply(t, w, req(DeclareWar, "p2", "p1"), world.EventWarDeclared)

	if len(w.PendingOffers) != 1 || w.PendingOffers[0].ToPlayerID != "p3" {
		t.Errorf("pending offers = %+v, want only p1->p3", w.PendingOffers)
	}
}

func TestStartWarSkipsValidation(t *testing.T) {
	// p3 owns no nodes, so a DeclareWar request from it would be rejected.
	w := twoPlayers().WithRelation(world.NewRelation("p1", "p3", world.RelationAllied, 1))

	next, evts := StartWar(w, "p3", "p1", 9)
	if got := Status(next, "p1", "p3"); got != world.RelationWar {
		t.Errorf("status = %s, want war", got)
	}
	if got := Status(w, "p1", "p3"); got != world.RelationAllied {
		t.Errorf("input world mutated: status = %s", got)
	}
	if len(evts) != 1 || evts[0].Type != world.EventWarDeclared || evts[0].EntityID != "p3" || evts[0].Tick != 9 {
		t.Fatalf("events = %+v", evts)
	}
}

func TestRejectAlliance(t *testing.T) {
	w := mustApply(t, twoPlayers(), req(OfferAlliance, "p1", "p2"), world.EventAllianceOffered)
	w = mustApply(t, w, req(RejectAlliance, "p2", "p1"), world.EventAllianceRejected)

	if len(w.PendingOffers) != 0 || Status(w, "p1", "p2") != world.RelationNeutral {
		t.Errorf("reject left state %+v", w.PendingOffers)
	}
}

func TestValidateRejections(t *testing.T) {
	base := twoPlayers()
	offered, _ := Apply(base, req(OfferAlliance, "p1", "p2"))
	atWar, _ := Apply(base, req(DeclareWar, "p1", "p2"))
	allied := base.WithRelation(world.NewRelation("p1", "p2", world.RelationAllied, 0))

	tests := []struct {
		name string
		w    *world.World
		r    Request
	}{
		{"self target", base, req(OfferAlliance, "p1", "p1")},
		{"missing player", base, req(OfferAlliance, "p1", "")},
		{"offer while allied", allied, req(OfferAlliance, "p1", "p2")},
		{"offer while at war", atWar, req(OfferAlliance, "p2", "p1")},
		{"duplicate offer", offered, req(OfferAlliance, "p1", "p2")},
		{"counter offer", offered, req(OfferAlliance, "p2", "p1")},
		{"accept own offer", offered, req(AcceptAlliance, "p1", "p2")},
		{"accept without offer", base, req(AcceptAlliance, "p2", "p1")},
		{"war twice", atWar, req(DeclareWar, "p2", "p1")},
		{"war from landless player", base, req(DeclareWar, "p3", "p1")},
		{"war on landless player", base, req(DeclareWar, "p1", "p3")},
		{"peace without war", base, req(ProposePeace, "p1", "p2")},
		{"accept peace without proposal", atWar, req(AcceptPeace, "p2", "p1")},
		{"unknown action", base, req(Action("bribe"), "p1", "p2")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Validate(tt.w, tt.r)
			if v.Valid {
				t.Fatal("expected rejection")
			}
			if v.Reason == "" {
				t.Error("rejection without a reason")
			}
			got, evts := Apply(tt.w, tt.r)
			if got != tt.w || len(evts) != 0 {
				t.Error("invalid request changed the world")
			}
		})
	}
}

func TestStatusDefaults(t *testing.T) {
	w := twoPlayers()
	if Status(w, "p1", "p1") != world.RelationNeutral {
		t.Error("self status should be neutral")
	}
	if Status(w, "p1", "stranger") != world.RelationNeutral {
		t.Error("unknown pair should be neutral")
	}
}

func TestApplyAllCollectsRejections(t *testing.T) {
	reqs := []Request{
		req(OfferAlliance, "p1", "p2"),
		req(OfferAlliance, "p1", "p2"),
		req(AcceptAlliance, "p2", "p1"),
	}
	w, evts, rejected := ApplyAll(twoPlayers(), reqs)

	if len(evts) != 2 || len(rejected) != 1 {
		t.Fatalf("events %d rejected %d", len(evts), len(rejected))
	}
	if rejected[0].Request != reqs[1] {
		t.Errorf("wrong request rejected: %+v", rejected[0])
	}
	if Status(w, "p1", "p2") != world.RelationAllied {
		t.Error("alliance not formed")
	}
}
