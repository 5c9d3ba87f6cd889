package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/nodewar/internal/digest"
	"github.com/vovakirdan/nodewar/internal/scenario"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a scenario file",
	Long: `Validates a scenario file against the scenario schema, builds its world,
and resolves every scripted step.

Examples:
  nodewar validate ./scenarios/border.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := scenario.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s: ok\n", args[0])
	fmt.Printf("  id        %s\n", s.ID)
	fmt.Printf("  name      %s\n", s.Name)
	fmt.Printf("  nodes     %d\n", len(s.World.Nodes))
	fmt.Printf("  edges     %d\n", len(s.World.Connections))
	fmt.Printf("  players   %d\n", len(s.Players))
	fmt.Printf("  steps     %d\n", len(s.Script))
	fmt.Printf("  digest    %s\n", digest.State(s.World))
	return nil
}
