package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/nodewar/internal/platform/tui"
	"github.com/vovakirdan/nodewar/internal/storage"
)

var flagRunsDB string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Browse recorded runs",
	Long: `Browse runs recorded with 'nodewar run --db' and their per-tick digests.

On a terminal this opens an interactive browser (n/p switch runs). When the
output is piped, a plain listing is printed instead.

Examples:
  nodewar runs --db ./runs.db
  nodewar runs --db ./runs.db | head`,
	Args: cobra.NoArgs,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&flagRunsDB, "db", "~/.nodewar/runs.db", "Path to the runs database")
}

func runRuns(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(flagRunsDB)
	if err != nil {
		return err
	}
	defer store.Close()

	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		width, height := 80, 24 // Defaults
		if w, h, termErr := term.GetSize(fd); termErr == nil {
			width = w
			height = h
		}
		return tui.RunRunsBrowser(store, width, height)
	}

	runs, err := store.Runs(50)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	fmt.Printf("  %-36s  %-12s  %-11s  %-6s  %s\n", "Run", "Scenario", "Ticks", "Saved", "Date")
	fmt.Printf("  %-36s  %-12s  %-11s  %-6s  %s\n", "---", "--------", "-----", "-----", "----")
	for _, r := range runs {
		ticks := fmt.Sprintf("%d-%d", r.StartedTick, r.LastTick)
		fmt.Printf("  %-36s  %-12s  %-11s  %-6d  %s\n",
			r.ID, r.Scenario, ticks, r.TickCount, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
