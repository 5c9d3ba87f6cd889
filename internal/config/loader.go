package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Load loads the nodewar configuration.
// Search order: customPath -> ~/.nodewar/config.yaml -> ./configs/nodewar.yaml -> embedded default
// NODEWAR_* environment variables are applied on top of whichever file won.
func Load(customPath string) (Config, error) {
	cfg, err := loadFile(customPath)
	if err != nil {
		return cfg, err
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("config: parse env: %w", err)
	}
	cfg.fillZeros()
	return cfg, nil
}

func loadFile(customPath string) (Config, error) {
	// Start from the defaults so a partial file only overrides what it names.
	cfg := Default()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("config: failed to read %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: failed to parse %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("config.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return cfg, nil
			}
			cfg = Default()
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile("configs/nodewar.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return cfg, nil
		}
		cfg = Default()
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return Default(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".nodewar", filename)
}

// fillZeros replaces nonsensical zero or negative values with defaults.
func (c *Config) fillZeros() {
	def := Default()
	if c.Runner.TickRate <= 0 {
		c.Runner.TickRate = def.Runner.TickRate
	}
	if c.Runner.InputBuffer <= 0 {
		c.Runner.InputBuffer = def.Runner.InputBuffer
	}
	if c.Runner.ClaimsPerSecond <= 0 {
		c.Runner.ClaimsPerSecond = def.Runner.ClaimsPerSecond
	}
	if c.Runner.ClaimsBurst <= 0 {
		c.Runner.ClaimsBurst = def.Runner.ClaimsBurst
	}
	if _, ok := ParseSpeedPreset(string(c.Runner.Speed)); !ok {
		c.Runner.Speed = def.Runner.Speed
	}
	if c.World.MaxEventQueue <= 0 {
		c.World.MaxEventQueue = def.World.MaxEventQueue
	}
	if c.World.HistorySize <= 0 {
		c.World.HistorySize = def.World.HistorySize
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
}

// ApplySpeedPreset sets the runner speed from a preset name.
func ApplySpeedPreset(cfg *Config, preset SpeedPreset) {
	if _, ok := ParseSpeedPreset(string(preset)); !ok {
		preset = SpeedNormal
	}
	cfg.Runner.Speed = preset
}
