package config

import "time"

// SpeedPreset represents a named simulation speed.
type SpeedPreset string

const (
	SpeedSlow   SpeedPreset = "slow"
	SpeedNormal SpeedPreset = "normal"
	SpeedFast   SpeedPreset = "fast"
	SpeedMax    SpeedPreset = "max"
)

// MultiplierForPreset returns the world speed multiplier for a preset.
func MultiplierForPreset(preset SpeedPreset) float64 {
	switch preset {
	case SpeedSlow:
		return 0.5
	case SpeedFast:
		return 2.0
	case SpeedMax:
		return 8.0
	default:
		return 1.0
	}
}

// ParseSpeedPreset converts a string into a SpeedPreset.
func ParseSpeedPreset(s string) (SpeedPreset, bool) {
	switch p := SpeedPreset(s); p {
	case SpeedSlow, SpeedNormal, SpeedFast, SpeedMax:
		return p, true
	}
	return "", false
}

// TickInterval returns the wall time between ticks for a speed multiplier.
// Non-positive speeds fall back to the base rate.
func TickInterval(base time.Duration, speed float64) time.Duration {
	if speed <= 0 {
		return base
	}
	d := time.Duration(float64(base) / speed)
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return d
}
