// Package diplomacy runs the pairwise relation state machine between players.
//
// Neutral pairs become Allied by offer and acceptance. Either side may declare
// war at any time, and a war ends in Neutral once a peace proposal is
// accepted. Relations are stored under the canonical pair key, so the order
// in which two players are named never matters.
package diplomacy

import (
	"slices"

	"github.com/vovakirdan/nodewar/internal/world"
)

// Action is a diplomatic move.
type Action string

const (
	OfferAlliance  Action = "offer_alliance"
	AcceptAlliance Action = "accept_alliance"
	RejectAlliance Action = "reject_alliance"
	DeclareWar     Action = "declare_war"
	ProposePeace   Action = "propose_peace"
	AcceptPeace    Action = "accept_peace"
)

// Actions returns every action in a stable order.
func Actions() []Action {
	return []Action{OfferAlliance, AcceptAlliance, RejectAlliance, DeclareWar, ProposePeace, AcceptPeace}
}

// ParseAction converts a string into an Action.
func ParseAction(s string) (Action, bool) {
	for _, a := range Actions() {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

// Request is one player's diplomatic move against another.
type Request struct {
	Type         Action
	FromPlayerID string
	ToPlayerID   string
	Tick         uint64
}

// Validation is the verdict on a request. Reason is empty when Valid.
type Validation struct {
	Valid  bool
	Reason string
}

func valid() Validation { return Validation{Valid: true} }

func reject(reason string) Validation { return Validation{Reason: reason} }

// Status returns the relation between two players. A player is always
// neutral towards itself, and unknown pairs are neutral.
func Status(w *world.World, p1, p2 string) world.RelationStatus {
	if p1 == p2 {
		return world.RelationNeutral
	}
	if r, found := w.Relation(p1, p2); found {
		return r.Status
	}
	return world.RelationNeutral
}

// Validate checks a request against the current world without changing it.
func Validate(w *world.World, req Request) Validation {
	if req.FromPlayerID == "" || req.ToPlayerID == "" {
		return reject("both players must be named")
	}
	if req.FromPlayerID == req.ToPlayerID {
		return reject("cannot target yourself")
	}

	status := Status(w, req.FromPlayerID, req.ToPlayerID)
	switch req.Type {
	case OfferAlliance:
		switch {
		case status == world.RelationAllied:
			return reject("already allied")
		case status == world.RelationWar:
			return reject("cannot offer an alliance while at war")
		case pendingBetween(w, req.FromPlayerID, req.ToPlayerID, world.OfferAlliance):
			return reject("an alliance offer is already pending")
		}
	case AcceptAlliance, RejectAlliance:
		if _, found := findOffer(w, req.ToPlayerID, req.FromPlayerID, world.OfferAlliance); !found {
			return reject("no pending alliance offer from that player")
		}
	case DeclareWar:
		switch {
		case status == world.RelationWar:
			return reject("already at war")
		case w.NodesOwnedBy(req.FromPlayerID) == 0:
			return reject("cannot declare war without owning a node")
		case w.NodesOwnedBy(req.ToPlayerID) == 0:
			return reject("cannot declare war on a player without nodes")
		}
	case ProposePeace:
		switch {
		case status != world.RelationWar:
			return reject("can only propose peace while at war")
		case pendingBetween(w, req.FromPlayerID, req.ToPlayerID, world.OfferPeace):
			return reject("a peace proposal is already pending")
		}
	case AcceptPeace:
		if status != world.RelationWar {
			return reject("not at war")
		}
		if _, found := findOffer(w, req.ToPlayerID, req.FromPlayerID, world.OfferPeace); !found {
			return reject("no pending peace proposal from that player")
		}
	default:
		return reject("unknown action")
	}
	return valid()
}

// Apply validates and performs a request. Invalid requests return w
// unchanged with no events.
func Apply(w *world.World, req Request) (*world.World, []world.GameEvent) {
	if !Validate(w, req).Valid {
		return w, nil
	}

	from, to := req.FromPlayerID, req.ToPlayerID
	switch req.Type {
	case OfferAlliance:
		w = addOffer(w, req, world.OfferAlliance)
		return w, event(world.EventAllianceOffered, req)
	case AcceptAlliance:
		w = removeOffer(w, to, from, world.OfferAlliance)
		w = w.WithRelation(world.NewRelation(from, to, world.RelationAllied, req.Tick))
		return w, event(world.EventAllianceFormed, req)
	case RejectAlliance:
		w = removeOffer(w, to, from, world.OfferAlliance)
		return w, event(world.EventAllianceRejected, req)
	case DeclareWar:
		return StartWar(w, from, to, req.Tick)
	case ProposePeace:
		w = addOffer(w, req, world.OfferPeace)
		return w, event(world.EventPeaceProposed, req)
	case AcceptPeace:
		w = removeOffer(w, to, from, world.OfferPeace)
		w = w.WithRelation(world.NewRelation(from, to, world.RelationNeutral, req.Tick))
		return w, event(world.EventPeaceMade, req)
	}
	return w, nil
}

// StartWar puts from and to at war without validation, purging every
// pending offer between them. It is the effect of a valid DeclareWar and is
// also used by event handlers that treat an act as a declaration.
func StartWar(w *world.World, from, to string, tick uint64) (*world.World, []world.GameEvent) {
	w = w.WithOffers(slices.DeleteFunc(slices.Clone(w.PendingOffers), func(o world.Offer) bool {
		return o.Between(from, to)
	}))
	w = w.WithRelation(world.NewRelation(from, to, world.RelationWar, tick))
	return w, event(world.EventWarDeclared, Request{Type: DeclareWar, FromPlayerID: from, ToPlayerID: to, Tick: tick})
}

// Rejection pairs a refused request with the reason.
type Rejection struct {
	Request Request
	Reason  string
}

// ApplyAll applies requests in order, each against the world left by the
// previous one.
func ApplyAll(w *world.World, reqs []Request) (*world.World, []world.GameEvent, []Rejection) {
	var (
		evts     []world.GameEvent
		rejected []Rejection
	)
	for _, req := range reqs {
		if v := Validate(w, req); !v.Valid {
			rejected = append(rejected, Rejection{Request: req, Reason: v.Reason})
			continue
		}
		var out []world.GameEvent
		w, out = Apply(w, req)
		evts = append(evts, out...)
	}
	return w, evts, rejected
}

// PendingFor returns the offers awaiting an answer from playerID.
func PendingFor(w *world.World, playerID string) []world.Offer {
	var out []world.Offer
	for _, o := range w.PendingOffers {
		if o.ToPlayerID == playerID {
			out = append(out, o)
		}
	}
	return out
}

func findOffer(w *world.World, from, to string, t world.OfferType) (int, bool) {
	for i, o := range w.PendingOffers {
		if o.FromPlayerID == from && o.ToPlayerID == to && o.Type == t {
			return i, true
		}
	}
	return -1, false
}

func pendingBetween(w *world.World, a, b string, t world.OfferType) bool {
	for _, o := range w.PendingOffers {
		if o.Type == t && o.Between(a, b) {
			return true
		}
	}
	return false
}

func addOffer(w *world.World, req Request, t world.OfferType) *world.World {
	offers := slices.Clone(w.PendingOffers)
	offers = append(offers, world.Offer{
		FromPlayerID: req.FromPlayerID,
		ToPlayerID:   req.ToPlayerID,
		Type:         t,
		OfferedTick:  req.Tick,
	})
	return w.WithOffers(offers)
}

func removeOffer(w *world.World, from, to string, t world.OfferType) *world.World {
	i, found := findOffer(w, from, to, t)
	if !found {
		return w
	}
	return w.WithOffers(slices.Delete(slices.Clone(w.PendingOffers), i, i+1))
}

func event(t world.EventType, req Request) []world.GameEvent {
	return []world.GameEvent{world.NewEvent(t, req.Tick, req.FromPlayerID, map[string]any{
		"fromPlayerId": req.FromPlayerID,
		"toPlayerId":   req.ToPlayerID,
	})}
}
