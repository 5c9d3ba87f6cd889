package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/nodewar/internal/events"
	"github.com/vovakirdan/nodewar/internal/territory"
	"github.com/vovakirdan/nodewar/internal/world"
)

//go:embed defaults/nodewar.yaml
var defaultYAML []byte

// Default returns the hard-coded configuration.
func Default() Config {
	return Config{
		Events: EventsConfig{
			MaxEventDepth:    events.DefaultMaxEventDepth,
			MaxEventsPerTick: events.DefaultMaxEventsPerTick,
		},
		Territory: TerritoryConfig{
			ClaimRate: territory.DefaultClaimRate,
			DrainRate: territory.DefaultDrainRate,
		},
		World: WorldConfig{
			MaxEventQueue: world.DefaultMaxEventQueue,
			HistorySize:   events.DefaultHistorySize,
		},
		Runner: RunnerConfig{
			TickRate:        500 * time.Millisecond,
			InputBuffer:     256,
			ClaimsPerSecond: 10,
			ClaimsBurst:     20,
			Speed:           SpeedNormal,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
