// Package territory resolves node claims into control point changes and
// ownership transfers.
package territory

import (
	"maps"
	"slices"

	"github.com/vovakirdan/nodewar/internal/world"
)

const (
	DefaultClaimRate = 10
	DefaultDrainRate = 5
)

// Rules sets how fast control points move per tick.
type Rules struct {
	ClaimRate int // Gained by a sole claimant on an unowned node
	DrainRate int // Lost by the owner to a sole attacker
}

// DefaultRules returns the standard claim and drain rates.
func DefaultRules() Rules {
	return Rules{ClaimRate: DefaultClaimRate, DrainRate: DefaultDrainRate}
}

func (r Rules) withDefaults() Rules {
	if r.ClaimRate <= 0 {
		r.ClaimRate = DefaultClaimRate
	}
	if r.DrainRate <= 0 {
		r.DrainRate = DefaultDrainRate
	}
	return r
}

// ProcessClaims applies one tick of claims.
//
// Claims are grouped by node and nodes are resolved in the order they first
// appear in claims. A node's outcome depends only on the set of distinct
// players claiming it, never on the order of the claims:
//   - one claimant who already owns the node: nothing changes
//   - one claimant, node unowned: gain ClaimRate, take ownership at the maximum
//   - one claimant, node owned by someone else: contested, owner loses
//     DrainRate; at zero ownership flips to the attacker, who starts at the
//     maximum like any fresh owner
//   - two or more claimants: contested, control points frozen
//
// Claims on unknown nodes are ignored. A contested node that nobody claims
// this tick settles back to Claimed or Neutral.
func ProcessClaims(w *world.World, claims []world.ClaimAction, tick uint64, rules Rules) (*world.World, []world.GameEvent) {
	rules = rules.withDefaults()

	var order []string
	claimants := make(map[string]map[string]struct{})
	for _, c := range claims {
		if _, ok := w.Nodes[c.NodeID]; !ok || c.PlayerID == "" {
			continue
		}
		set, seen := claimants[c.NodeID]
		if !seen {
			set = make(map[string]struct{})
			claimants[c.NodeID] = set
			order = append(order, c.NodeID)
		}
		set[c.PlayerID] = struct{}{}
	}

	var (
		changed []world.Node
		evts    []world.GameEvent
	)
	for _, id := range order {
		players := slices.Sorted(maps.Keys(claimants[id]))
		next, out := resolve(w.Nodes[id], players, tick, rules)
		changed = append(changed, next)
		evts = append(evts, out...)
	}

	for _, id := range w.NodeIDs() {
		n := w.Nodes[id]
		if _, claimed := claimants[id]; claimed || n.Status != world.StatusContested {
			continue
		}
		changed = append(changed, settle(n))
	}

	return w.SetNodes(changed...), evts
}

func resolve(n world.Node, players []string, tick uint64, rules Rules) (world.Node, []world.GameEvent) {
	if len(players) > 1 {
		if n.Status == world.StatusContested {
			return n, nil
		}
		n.Status = world.StatusContested
		return n, []world.GameEvent{contested(n, tick, players)}
	}

	player := players[0]
	switch {
	case n.OwnerID == player:
		return settle(n), nil
	case !n.IsOwned():
		return gain(n, player, tick, rules.ClaimRate)
	default:
		return drain(n, player, tick, rules.DrainRate)
	}
}

func gain(n world.Node, player string, tick uint64, rate int) (world.Node, []world.GameEvent) {
	n.ControlPoints = clampPoints(n.ControlPoints+rate, n.MaxPoints())
	n.Status = world.StatusNeutral
	if n.ControlPoints < n.MaxPoints() {
		return n, nil
	}

	n.OwnerID = player
	n.Status = world.StatusClaimed
	return n, []world.GameEvent{world.NewEvent(world.EventNodeClaimed, tick, n.ID, map[string]any{
		"playerId":      player,
		"controlPoints": n.ControlPoints,
	})}
}

func drain(n world.Node, attacker string, tick uint64, rate int) (world.Node, []world.GameEvent) {
	var evts []world.GameEvent
	if n.Status != world.StatusContested {
		n.Status = world.StatusContested
		evts = append(evts, contested(n, tick, []string{attacker}))
	}

	n.ControlPoints = clampPoints(n.ControlPoints-rate, n.MaxPoints())
	if n.ControlPoints > 0 {
		return n, evts
	}

	previous := n.OwnerID
	n.OwnerID = attacker
	n.Status = world.StatusClaimed
	n.ControlPoints = n.MaxPoints()
	evts = append(evts, world.NewEvent(world.EventNodeLost, tick, n.ID, map[string]any{
		"previousOwnerId": previous,
		"newOwnerId":      attacker,
		"controlPoints":   n.ControlPoints,
	}))
	return n, evts
}

func contested(n world.Node, tick uint64, attackers []string) world.GameEvent {
	return world.NewEvent(world.EventNodeContested, tick, n.ID, map[string]any{
		"ownerId":   n.OwnerID,
		"claimants": attackers,
	})
}

// settle drops a node out of Contested.
func settle(n world.Node) world.Node {
	if n.Status != world.StatusContested {
		return n
	}
	if n.IsOwned() {
		n.Status = world.StatusClaimed
	} else {
		n.Status = world.StatusNeutral
	}
	return n
}

// AbandonNode gives up ownership of a node. The node ends unowned, neutral,
// and with no control points. NodeLost is emitted only if someone owned it.
func AbandonNode(n world.Node, tick uint64) (world.Node, []world.GameEvent) {
	previous := n.OwnerID
	n.OwnerID = ""
	n.Status = world.StatusNeutral
	n.ControlPoints = 0
	if previous == "" {
		return n, nil
	}
	return n, []world.GameEvent{world.NewEvent(world.EventNodeLost, tick, n.ID, map[string]any{
		"previousOwnerId": previous,
		"newOwnerId":      "",
	})}
}

// Abandon runs AbandonNode on a node of w. Only the owner may abandon it.
func Abandon(w *world.World, playerID, nodeID string) (*world.World, []world.GameEvent) {
	n, ok := w.Node(nodeID)
	if !ok || n.OwnerID == "" || n.OwnerID != playerID {
		return w, nil
	}
	n, evts := AbandonNode(n, w.CurrentTick)
	return w.SetNode(n), evts
}

// CanClaim reports whether playerID may claim nodeID: the node exists and
// the player does not already own it.
func CanClaim(w *world.World, playerID, nodeID string) bool {
	if playerID == "" {
		return false
	}
	n, ok := w.Node(nodeID)
	return ok && n.OwnerID != playerID
}

// ClaimProgress returns control points as a fraction of the node's maximum.
func ClaimProgress(n world.Node) float64 {
	return float64(n.ControlPoints) / float64(n.MaxPoints())
}

func clampPoints(v, hi int) int {
	return min(max(v, 0), hi)
}
