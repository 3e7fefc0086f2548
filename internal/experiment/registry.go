package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/metrics"
	"github.com/san-kum/pendsim/internal/physics"
	"github.com/san-kum/pendsim/internal/sim"
)

const (
	DefaultStabilityThreshold = 1.0
	DefaultEnvelopeWindow     = 1000
)

type Factory func(cfg *config.Config) sim.System

type Registry struct {
	models map[string]Factory
}

func NewRegistry() *Registry {
	r := &Registry{
		models: make(map[string]Factory),
	}

	r.models["pendulum"] = func(cfg *config.Config) sim.System {
		p := physics.NewPendulum()
		c := cfg.Pendulum
		p.Length, p.Gravity, p.Damping = c.Length, c.Gravity, c.Damping
		p.Angle, p.Velocity = c.Angle, c.Velocity
		p.Convention = cfg.GetConvention()
		return p
	}
	r.models["double_pendulum"] = func(cfg *config.Config) sim.System {
		d := physics.NewDoublePendulum()
		c := cfg.DoublePendulum
		d.M1, d.M2, d.L1, d.L2, d.Gravity = c.M1, c.M2, c.L1, c.L2, c.Gravity
		d.Theta1, d.Theta2 = c.Theta1, c.Theta2
		d.Omega1, d.Omega2 = c.Omega1, c.Omega2
		d.Convention = cfg.GetConvention()
		return d
	}
	r.models["driven"] = func(cfg *config.Config) sim.System {
		d := physics.NewDriven()
		c := cfg.Driven
		d.Length, d.Omega, d.Amplitude, d.TimeStep = c.Length, c.Omega, c.Amplitude, c.TimeStep
		d.Angle = d.AngleAt(0)
		d.Convention = cfg.GetConvention()
		return d
	}

	return r
}

func (r *Registry) GetModel(name string, cfg *config.Config) (sim.System, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(cfg), nil
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics picks the metrics that make sense for sys: mean energy
// and energy drift for conservative models, velocity stability for all,
// and the decay envelope for the single pendulum.
func (r *Registry) DefaultMetrics(sys sim.System) []sim.Metric {
	var ms []sim.Metric
	if h, ok := sys.(sim.Hamiltonian); ok {
		ms = append(ms, metrics.NewEnergy(h), metrics.NewEnergyDrift(h))
	}

	switch s := sys.(type) {
	case *physics.Pendulum:
		ms = append(ms,
			metrics.NewStability(DefaultStabilityThreshold, 1),
			metrics.NewEnvelope(0, DefaultEnvelopeWindow, s.Equilibrium),
		)
	case *physics.DoublePendulum:
		ms = append(ms, metrics.NewStability(DefaultStabilityThreshold, 2, 3))
	default:
		ms = append(ms, metrics.NewStability(DefaultStabilityThreshold, 1))
	}
	return ms
}
