package pathfinding

import (
	"slices"

	"github.com/vovakirdan/nodewar/internal/world"
)

// CostFunc returns the cost of crossing e from one node to the next.
// Costs below zero are treated as zero.
type CostFunc func(e world.Edge, from, to world.Node) float64

// Heuristic estimates the remaining cost from a node to the goal.
type Heuristic func(from, goal world.Node) float64

// TravelTimeCost is the default cost: the edge's travel time.
func TravelTimeCost(e world.Edge, _, _ world.Node) float64 {
	return TraversalCost(e)
}

// DistanceCost weights an edge by the straight-line distance between its nodes.
func DistanceCost(_ world.Edge, from, to world.Node) float64 {
	return from.Position.Distance(to.Position)
}

// StraightLine is the default heuristic.
func StraightLine(from, goal world.Node) float64 {
	return from.Position.Distance(goal.Position)
}

// Manhattan is the taxicab heuristic.
func Manhattan(from, goal world.Node) float64 {
	return from.Position.Manhattan(goal.Position)
}

// NoHeuristic turns A* into Dijkstra's algorithm.
func NoHeuristic(_, _ world.Node) float64 {
	return 0
}

// Path is a route through the graph.
type Path struct {
	NodeIDs       []string // From start to goal, inclusive
	ConnectionIDs []string // One per step
	TotalCost     float64
}

// Steps returns the number of edges in the path.
func (p *Path) Steps() int {
	if p == nil {
		return 0
	}
	return len(p.ConnectionIDs)
}

type options struct {
	cost      CostFunc
	heuristic Heuristic
	ctx       *TraversalContext
}

// Option configures FindPath.
type Option func(*options)

// WithCostFunc replaces the travel-time cost.
func WithCostFunc(fn CostFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.cost = fn
		}
	}
}

// WithHeuristic replaces the straight-line heuristic.
func WithHeuristic(h Heuristic) Option {
	return func(o *options) {
		if h != nil {
			o.heuristic = h
		}
	}
}

// WithTraversalContext makes gateway affordability part of traversability.
func WithTraversalContext(ctx *TraversalContext) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// record is the search bookkeeping for one discovered node.
type record struct {
	g      float64
	f      float64
	parent string
	via    string
	open   bool
}

// FindPath runs A* from fromID to toID over edges that CanTraverse allows.
// Connections are followed in both directions.
//
// The open set is kept in insertion order and the lowest f-score is found by
// a linear scan that only replaces the current best on a strictly lower
// score, so among equal scores the node discovered first is expanded first.
// Neighbours are discovered in the order of Node.ConnectionIDs. Both rules
// keep routing deterministic on symmetric graphs.
//
// Returns nil when either node is missing or no route exists.
func FindPath(w *world.World, fromID, toID string, opts ...Option) *Path {
	o := options{cost: TravelTimeCost, heuristic: StraightLine}
	for _, opt := range opts {
		opt(&o)
	}

	start, ok := w.Node(fromID)
	if !ok {
		return nil
	}
	goal, ok := w.Node(toID)
	if !ok {
		return nil
	}
	if fromID == toID {
		return &Path{NodeIDs: []string{fromID}, ConnectionIDs: []string{}}
	}

	records := map[string]*record{
		fromID: {g: 0, f: o.heuristic(start, goal), open: true},
	}
	open := []string{fromID}

	for len(open) > 0 {
		best := 0
		for i := 1; i < len(open); i++ {
			if records[open[i]].f < records[open[best]].f {
				best = i
			}
		}
		curID := open[best]
		open = slices.Delete(open, best, best+1)
		cur := records[curID]
		cur.open = false

		if curID == toID {
			return buildPath(records, fromID, toID)
		}

		node := w.Nodes[curID]
		for _, cid := range node.ConnectionIDs {
			e, ok := w.Connections[cid]
			if !ok {
				continue
			}
			nextID := e.Base().Other(curID)
			if nextID == "" {
				continue
			}
			next, ok := w.Nodes[nextID]
			if !ok || !CanTraverse(e, o.ctx) {
				continue
			}

			step := o.cost(e, node, next)
			if step < 0 {
				step = 0
			}
			g := cur.g + step

			rec, seen := records[nextID]
			if seen && g >= rec.g {
				continue
			}
			if !seen {
				rec = &record{}
				records[nextID] = rec
			}
			rec.g = g
			rec.f = g + o.heuristic(next, goal)
			rec.parent = curID
			rec.via = cid
			if !rec.open {
				rec.open = true
				open = append(open, nextID)
			}
		}
	}

	return nil
}

func buildPath(records map[string]*record, fromID, toID string) *Path {
	var nodes, conns []string
	for id := toID; ; {
		nodes = append(nodes, id)
		if id == fromID {
			break
		}
		rec := records[id]
		conns = append(conns, rec.via)
		id = rec.parent
	}
	slices.Reverse(nodes)
	slices.Reverse(conns)
	return &Path{
		NodeIDs:       nodes,
		ConnectionIDs: conns,
		TotalCost:     records[toID].g,
	}
}
