package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/nodewar/internal/scenario"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in scenarios",
	Long:  `Shows the scenarios compiled into nodewar.`,
	Run:   runList,
}

func runList(cmd *cobra.Command, args []string) {
	scenarios := scenario.List()

	if len(scenarios) == 0 {
		fmt.Println("No scenarios available.")
		return
	}

	fmt.Println("Built-in scenarios:")
	fmt.Println()

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, s := range scenarios {
		maxIDLen = max(maxIDLen, len(s.ID))
	}

	fmt.Printf("  %-*s  %s\n", maxIDLen, "ID", "Name")
	fmt.Printf("  %-*s  %s\n", maxIDLen, "--", "----")

	for _, s := range scenarios {
		fmt.Printf("  %-*s  %s\n", maxIDLen, s.ID, s.Name)
		if s.Description != "" {
			fmt.Printf("  %-*s  %s\n", maxIDLen, "", s.Description)
		}
	}

	fmt.Println()
	fmt.Println("Run 'nodewar watch <id>' to watch one, or pass a YAML file path instead of an id.")
}
