package main

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/nodewar/internal/platform/tui"
)

var watchFlags liveFlags

var watchCmd = &cobra.Command{
	Use:   "watch <scenario|file>",
	Short: "Run a scenario with a live terminal view",
	Long: `Run a scenario in real time and follow it in the terminal.

Controls:
  Space/P  - Pause or resume
  N        - Step one tick
  +/-      - Faster / slower
  Up/Down  - Scroll nodes
  ?        - Toggle help
  Q/Esc    - Quit

Examples:
  nodewar watch diamond
  nodewar watch frontier --speed fast
  nodewar watch ./border.yaml --db ./runs.db`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchFlags.speed, "speed", "", "Speed preset: slow, normal, fast, max")
	watchCmd.Flags().Uint64Var(&watchFlags.maxTicks, "ticks", 0, "Stop after this many ticks (0 = until quit)")
	watchCmd.Flags().StringVar(&watchFlags.dbPath, "db", "", "Record the run into this SQLite database")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// The terminal belongs to the watch screen.
	logger := log.New(io.Discard)

	r, s, closeStore, err := newLiveRunner(cfg, args[0], watchFlags, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Subscribe before the runner starts so the first frame is not missed.
	model := tui.NewWatchModel(r, nil, s.Name, false)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	uiErr := tui.RunModel(model)
	cancel()
	if runErr := <-done; runErr != nil {
		return runErr
	}
	return uiErr
}
