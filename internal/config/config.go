package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pendsim/internal/geom"
	"github.com/san-kum/pendsim/internal/physics"
	"github.com/san-kum/pendsim/internal/sim"
)

const (
	DefaultModel  = "pendulum"
	DefaultFrames = 1000
)

// Models lists every model name a config may select.
var Models = []string{"double_pendulum", "driven", "pendulum"}

type Config struct {
	Model      string `yaml:"model" toml:"model"`
	Frames     int    `yaml:"frames" toml:"frames"`
	History    int    `yaml:"history" toml:"history"`
	Strict     bool   `yaml:"validate" toml:"validate"`
	Convention string `yaml:"convention" toml:"convention"`

	Pendulum       PendulumConfig       `yaml:"pendulum" toml:"pendulum"`
	DoublePendulum DoublePendulumConfig `yaml:"double_pendulum" toml:"double_pendulum"`
	Driven         DrivenConfig         `yaml:"driven" toml:"driven"`
}

type PendulumConfig struct {
	Length   float64 `yaml:"length" toml:"length"`
	Gravity  float64 `yaml:"gravity" toml:"gravity"`
	Damping  float64 `yaml:"damping" toml:"damping"`
	Angle    float64 `yaml:"angle" toml:"angle"`
	Velocity float64 `yaml:"velocity" toml:"velocity"`
}

type DoublePendulumConfig struct {
	M1      float64 `yaml:"m1" toml:"m1"`
	M2      float64 `yaml:"m2" toml:"m2"`
	L1      float64 `yaml:"l1" toml:"l1"`
	L2      float64 `yaml:"l2" toml:"l2"`
	Gravity float64 `yaml:"gravity" toml:"gravity"`
	Theta1  float64 `yaml:"theta1" toml:"theta1"`
	Theta2  float64 `yaml:"theta2" toml:"theta2"`
	Omega1  float64 `yaml:"omega1" toml:"omega1"`
	Omega2  float64 `yaml:"omega2" toml:"omega2"`
}

type DrivenConfig struct {
	Length    float64 `yaml:"length" toml:"length"`
	Omega     float64 `yaml:"omega" toml:"omega"`
	Amplitude float64 `yaml:"amplitude" toml:"amplitude"`
	TimeStep  float64 `yaml:"time_step" toml:"time_step"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      DefaultModel,
		Frames:     DefaultFrames,
		History:    sim.DefaultHistoryCapacity,
		Strict:     true,
		Convention: geom.Hanging.String(),
		Pendulum: PendulumConfig{
			Length:  physics.DefaultLength,
			Gravity: physics.DefaultGravity,
			Angle:   physics.DefaultAngle,
		},
		DoublePendulum: DoublePendulumConfig{
			M1:      physics.DefaultMass,
			M2:      physics.DefaultMass,
			L1:      physics.DefaultArmLength,
			L2:      physics.DefaultArmLength,
			Gravity: physics.DefaultDoubleG,
			Theta1:  physics.DefaultDoubleTilt,
			Theta2:  physics.DefaultDoubleTilt,
		},
		Driven: DrivenConfig{
			Length:    physics.DefaultDrivenLength,
			Omega:     physics.DefaultDrivenOmega,
			Amplitude: physics.DefaultDrivenAmplitude,
			TimeStep:  physics.DefaultDrivenTimeStep,
		},
	}
}

// Load reads a config file over the defaults. Files ending in .toml are
// decoded as TOML, anything else as YAML.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a config file over a copy of base, so keys the file
// leaves out keep base's values.
func LoadOver(path string, base *Config) (*Config, error) {
	c := *base
	cfg := &c
	if isTOML(path) {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if isTOML(path) {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return toml.NewEncoder(f).Encode(cfg)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func (c *Config) Validate() error {
	if c.Frames <= 0 {
		return fmt.Errorf("frames must be positive, got %d", c.Frames)
	}
	if c.History < 1 {
		return fmt.Errorf("history must be at least 1, got %d", c.History)
	}
	if !KnownModel(c.Model) {
		return fmt.Errorf("unknown model %q", c.Model)
	}
	if _, err := geom.ParseConvention(c.Convention); err != nil {
		return err
	}
	return nil
}

func (c *Config) GetConvention() geom.Convention {
	conv, err := geom.ParseConvention(c.Convention)
	if err != nil {
		return geom.Hanging
	}
	return conv
}

// SimConfig is the driver configuration this file describes.
func (c *Config) SimConfig() sim.Config {
	sc := sim.DefaultConfig()
	sc.HistoryCapacity = c.History
	sc.ValidateState = c.Strict
	return sc
}

func KnownModel(name string) bool {
	for _, m := range Models {
		if m == name {
			return true
		}
	}
	return false
}
