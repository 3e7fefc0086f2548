package config

import (
	"math"
	"sort"
)

func pendulumPreset(frames int, p PendulumConfig) *Config {
	cfg := DefaultConfig()
	cfg.Model = "pendulum"
	cfg.Frames = frames
	cfg.Pendulum = p
	return cfg
}

func doublePreset(frames int, theta1, theta2 float64) *Config {
	cfg := DefaultConfig()
	cfg.Model = "double_pendulum"
	cfg.Frames = frames
	cfg.DoublePendulum.Theta1 = theta1
	cfg.DoublePendulum.Theta2 = theta2
	return cfg
}

var Presets = map[string]map[string]*Config{
	"pendulum": {
		"classic": pendulumPreset(2000, PendulumConfig{
			Length: 200, Gravity: 0.5, Angle: -1.2 * math.Pi,
		}),
		"damped": pendulumPreset(10000, PendulumConfig{
			Length: 200, Gravity: 0.5, Damping: 0.05, Angle: -1.2 * math.Pi,
		}),
		"small": pendulumPreset(2000, PendulumConfig{
			Length: 200, Gravity: 0.5, Angle: math.Pi + 0.2,
		}),
	},
	"double_pendulum": {
		"symmetric": doublePreset(3000, math.Pi/4, math.Pi/4),
		// both arms horizontal; the unit-step integrator first overflows
		// near frame 30000 from here
		"chaos": doublePreset(20000, math.Pi/2, math.Pi/2),
		"gentle":    doublePreset(3000, 0.3, 0.3),
	},
	"driven": {
		"ellipse": func() *Config {
			cfg := DefaultConfig()
			cfg.Model = "driven"
			cfg.Frames = 1800
			return cfg
		}(),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
