// Package config provides YAML-based configuration loading and speed presets
// for the simulation runner and its tools.
package config

import (
	"time"

	"github.com/vovakirdan/nodewar/internal/events"
	"github.com/vovakirdan/nodewar/internal/territory"
)

// Config is the full nodewar configuration.
type Config struct {
	Events    EventsConfig    `yaml:"events"`
	Territory TerritoryConfig `yaml:"territory"`
	World     WorldConfig     `yaml:"world"`
	Runner    RunnerConfig    `yaml:"runner"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// EventsConfig sets the event drain circuit breakers.
type EventsConfig struct {
	MaxEventDepth    int `yaml:"max_event_depth" env:"NODEWAR_MAX_EVENT_DEPTH"`
	MaxEventsPerTick int `yaml:"max_events_per_tick" env:"NODEWAR_MAX_EVENTS_PER_TICK"`
}

// TerritoryConfig sets control point rates.
type TerritoryConfig struct {
	ClaimRate int `yaml:"claim_rate" env:"NODEWAR_CLAIM_RATE"`
	DrainRate int `yaml:"drain_rate" env:"NODEWAR_DRAIN_RATE"`
}

// WorldConfig bounds the event buffers kept alongside the world.
type WorldConfig struct {
	MaxEventQueue int `yaml:"max_event_queue" env:"NODEWAR_MAX_EVENT_QUEUE"`
	HistorySize   int `yaml:"history_size" env:"NODEWAR_HISTORY_SIZE"`
}

// RunnerConfig controls the live tick loop.
type RunnerConfig struct {
	TickRate        time.Duration `yaml:"tick_rate" env:"NODEWAR_TICK_RATE"`       // Wall time per tick at speed 1
	InputBuffer     int           `yaml:"input_buffer" env:"NODEWAR_INPUT_BUFFER"` // Pending submissions held for the next tick
	ClaimsPerSecond float64       `yaml:"claims_per_second" env:"NODEWAR_CLAIMS_PER_SECOND"`
	ClaimsBurst     int           `yaml:"claims_burst" env:"NODEWAR_CLAIMS_BURST"`
	Speed           SpeedPreset   `yaml:"speed" env:"NODEWAR_SPEED"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `yaml:"level" env:"NODEWAR_LOG_LEVEL"` // debug, info, warn, error
}

// EventConfig converts the events section for the event drain.
func (c Config) EventConfig() events.Config {
	return events.Config{
		MaxEventDepth:    c.Events.MaxEventDepth,
		MaxEventsPerTick: c.Events.MaxEventsPerTick,
	}
}

// TerritoryRules converts the territory section for claim processing.
func (c Config) TerritoryRules() territory.Rules {
	return territory.Rules{
		ClaimRate: c.Territory.ClaimRate,
		DrainRate: c.Territory.DrainRate,
	}
}
