package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/nodewar/internal/pathfinding"
	"github.com/vovakirdan/nodewar/internal/scenario"
	"github.com/vovakirdan/nodewar/internal/world"
)

var (
	flagCost      string
	flagHeuristic string
	flagBudget    []string
)

var pathCmd = &cobra.Command{
	Use:   "path <scenario|file> <from> <to>",
	Short: "Find a route between two nodes",
	Long: `Runs A* over the scenario's initial world.

Cost functions:
  travel    - edge travel time (default)
  distance  - straight-line length of each edge

Heuristics:
  straight  - straight-line distance to the goal (default)
  manhattan - axis-aligned distance to the goal
  none      - plain Dijkstra

--budget limits gateways to those whose activation cost is affordable.
Resource types missing from the budget count as unaffordable.

Examples:
  nodewar path frontier n1 e1
  nodewar path diamond a d --cost distance --heuristic none
  nodewar path frontier n1 vault --budget energy=20 --budget minerals=5`,
	Args: cobra.ExactArgs(3),
	RunE: runPath,
}

func init() {
	pathCmd.Flags().StringVar(&flagCost, "cost", "travel", "Edge cost: travel, distance")
	pathCmd.Flags().StringVar(&flagHeuristic, "heuristic", "straight", "Heuristic: straight, manhattan, none")
	pathCmd.Flags().StringSliceVar(&flagBudget, "budget", nil, "Available resources as type=amount")
}

func runPath(cmd *cobra.Command, args []string) error {
	s, err := scenario.Resolve(args[0])
	if err != nil {
		return err
	}
	from, to := args[1], args[2]

	opts, err := pathOptions(flagCost, flagHeuristic, flagBudget)
	if err != nil {
		return err
	}

	p := pathfinding.FindPath(s.World, from, to, opts...)
	if p == nil {
		return fmt.Errorf("no route from %q to %q", from, to)
	}

	fmt.Printf("%s\n", strings.Join(p.NodeIDs, " -> "))
	fmt.Printf("steps %d  cost %.2f\n", p.Steps(), p.TotalCost)
	for i, id := range p.ConnectionIDs {
		kind := "connection"
		if e, ok := s.World.Connection(id); ok {
			if _, isGateway := e.(world.Gateway); isGateway {
				kind = "gateway"
			}
		}
		fmt.Printf("  %-12s %s -> %s (%s)\n", id, p.NodeIDs[i], p.NodeIDs[i+1], kind)
	}
	return nil
}

func pathOptions(cost, heuristic string, budget []string) ([]pathfinding.Option, error) {
	var opts []pathfinding.Option

	switch cost {
	case "travel", "":
		opts = append(opts, pathfinding.WithCostFunc(pathfinding.TravelTimeCost))
	case "distance":
		opts = append(opts, pathfinding.WithCostFunc(pathfinding.DistanceCost))
	default:
		return nil, fmt.Errorf("unknown cost %q", cost)
	}

	switch heuristic {
	case "straight", "":
		opts = append(opts, pathfinding.WithHeuristic(pathfinding.StraightLine))
	case "manhattan":
		opts = append(opts, pathfinding.WithHeuristic(pathfinding.Manhattan))
	case "none":
		opts = append(opts, pathfinding.WithHeuristic(pathfinding.NoHeuristic))
	default:
		return nil, fmt.Errorf("unknown heuristic %q", heuristic)
	}

	if len(budget) > 0 {
		available, err := parseBudget(budget)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pathfinding.WithTraversalContext(&pathfinding.TraversalContext{Available: available}))
	}
	return opts, nil
}

var errBadBudget = errors.New("budget entries look like energy=20")

func parseBudget(entries []string) (map[world.ResourceType]float64, error) {
	out := make(map[world.ResourceType]float64, len(entries))
	for _, entry := range entries {
		k, v, ok := strings.Cut(entry, "=")
		rt, known := world.ParseResourceType(k)
		if !ok || !known {
			return nil, fmt.Errorf("%w: %q", errBadBudget, entry)
		}
		var amount float64
		if _, err := fmt.Sscan(v, &amount); err != nil {
			return nil, fmt.Errorf("%w: %q", errBadBudget, entry)
		}
		out[rt] += amount
	}
	return out, nil
}
