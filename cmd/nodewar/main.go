// nodewar runs deterministic node-graph territory simulations.
//
// Usage:
//
//	nodewar list                     - List built-in scenarios
//	nodewar validate <file>          - Check a scenario file
//	nodewar run <scenario>           - Run a scenario headless
//	nodewar watch <scenario>         - Run a scenario in the terminal
//	nodewar serve <scenario>         - Serve a running scenario over SSH and websocket
//	nodewar path <scenario> <a> <b>  - Find a route between two nodes
//	nodewar runs                     - Browse recorded runs
//	nodewar events                   - Query recorded events
//
// Global flags:
//
//	--config <path>     - Configuration file (default: ~/.nodewar/config.yaml)
//	--log-level <level> - debug, info, warn, error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/nodewar/internal/config"
)

var (
	// Global flags
	flagConfig   string
	flagLogLevel string
)

func main() {
	// A missing .env is normal; the process environment still applies.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "nodewar",
	Short: "Nodewar - deterministic territory control on a node graph",
	Long: `Nodewar simulates players claiming nodes on a graph of connections
and gateways, one deterministic tick at a time.

Available commands:
  list      - Show built-in scenarios
  validate  - Check a scenario file against the schema
  run       - Run a scenario headless and print its digest
  watch     - Run a scenario with a live terminal view
  serve     - Run a scenario for SSH and websocket spectators
  path      - Find a route between two nodes
  runs      - Browse recorded runs
  events    - Query recorded events

Examples:
  nodewar list
  nodewar run frontier --ticks 200 --db ./runs.db
  nodewar watch diamond
  nodewar serve frontier --ssh :23235 --ws 127.0.0.1:8088`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to configuration YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level override: debug, info, warn, error")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(eventsCmd)
}

// loadConfig loads the configuration named by --config and applies --log-level.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	return cfg, nil
}

// newLogger builds the process logger on stderr.
func newLogger(cfg config.Config, prefix string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", cfg.Logging.Level)
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
