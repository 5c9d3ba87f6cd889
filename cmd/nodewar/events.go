package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/nodewar/internal/platform/tui"
	"github.com/vovakirdan/nodewar/internal/storage"
	"github.com/vovakirdan/nodewar/internal/world"
)

var (
	flagEventsDB  string
	flagEventsRun string
	flagEntity    string
	flagFromTick  uint64
	flagToTick    uint64
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Query recorded events",
	Long: `Print events recorded by 'nodewar run --db'.

Without --run the most recent run is used. --entity selects the events of one
node, gateway, or player pair; otherwise --from and --to bound the tick range.

Examples:
  nodewar events --db ./runs.db
  nodewar events --db ./runs.db --from 10 --to 20
  nodewar events --db ./runs.db --run 3f2a... --entity mid`,
	Args: cobra.NoArgs,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().StringVar(&flagEventsDB, "db", "~/.nodewar/runs.db", "Path to the runs database")
	eventsCmd.Flags().StringVar(&flagEventsRun, "run", "", "Run id (default: most recent)")
	eventsCmd.Flags().StringVar(&flagEntity, "entity", "", "Only events for this entity id")
	eventsCmd.Flags().Uint64Var(&flagFromTick, "from", 0, "First tick, inclusive")
	eventsCmd.Flags().Uint64Var(&flagToTick, "to", math.MaxInt64, "Last tick, inclusive")
}

func runEvents(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(flagEventsDB)
	if err != nil {
		return err
	}
	defer store.Close()

	runID := flagEventsRun
	if runID == "" {
		runs, err := store.Runs(1)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}
		runID = runs[0].ID
	} else if _, err := store.RunByID(runID); err != nil {
		return err
	}

	var evts []world.GameEvent
	if flagEntity != "" {
		evts, err = store.EventsForEntity(runID, flagEntity)
	} else {
		evts, err = store.EventsInRange(runID, flagFromTick, flagToTick)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Run %s: %d events\n\n", runID, len(evts))
	for _, e := range evts {
		fmt.Println(tui.FormatEvent(e))
	}
	return nil
}
