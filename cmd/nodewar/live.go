package main

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/nodewar/internal/config"
	"github.com/vovakirdan/nodewar/internal/rules"
	"github.com/vovakirdan/nodewar/internal/runner"
	"github.com/vovakirdan/nodewar/internal/scenario"
	"github.com/vovakirdan/nodewar/internal/storage"
	"github.com/vovakirdan/nodewar/internal/world"
)

// liveFlags are shared by the commands that drive a runner in real time.
type liveFlags struct {
	speed    string
	maxTicks uint64
	dbPath   string
}

// scenarioOptions are the runner options every command starts from: the
// configured pacing, the scenario's script, and the default chain reactions.
func scenarioOptions(cfg config.Config, s *scenario.Scenario, logger *log.Logger) runner.Options {
	opts := runner.OptionsFromConfig(cfg)
	opts.Script = s
	opts.Logger = logger
	opts.Registry = rules.Default()
	return opts
}

// newLiveRunner resolves a scenario and wraps it in a runner paced by the
// configured tick rate. The returned close func releases the run store.
func newLiveRunner(cfg config.Config, ref string, flags liveFlags, logger *log.Logger) (*runner.Runner, *scenario.Scenario, func(), error) {
	s, err := scenario.Resolve(ref)
	if err != nil {
		return nil, nil, nil, err
	}

	if flags.speed != "" {
		preset, ok := config.ParseSpeedPreset(flags.speed)
		if !ok {
			return nil, nil, nil, fmt.Errorf("unknown speed %q (slow, normal, fast, max)", flags.speed)
		}
		config.ApplySpeedPreset(&cfg, preset)
	}
	w := configureWorld(s.World, cfg).WithSpeed(config.MultiplierForPreset(cfg.Runner.Speed))

	opts := scenarioOptions(cfg, s, logger)
	opts.MaxTicks = flags.maxTicks

	closeStore := func() {}
	if flags.dbPath != "" {
		store, err := storage.Open(flags.dbPath)
		if err != nil {
			return nil, nil, nil, err
		}
		runID, err := store.CreateRun(w, s.ID)
		if err != nil {
			store.Close()
			return nil, nil, nil, err
		}
		opts.Saver = store
		opts.RunID = runID
		closeStore = func() { store.Close() }
		logger.Info("recording run", "run", runID, "db", flags.dbPath)
	}

	return runner.New(w, opts), s, closeStore, nil
}

// configureWorld applies the world section of the configuration.
func configureWorld(w *world.World, cfg config.Config) *world.World {
	return w.WithMaxEventQueue(cfg.World.MaxEventQueue)
}
