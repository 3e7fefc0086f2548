package experiment

import (
	"context"
	"fmt"
	"sort"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/metrics"
	"github.com/san-kum/pendsim/internal/sim"
)

type Experiment struct {
	cfg      *config.Config
	params   map[string]float64
	registry *Registry
	driver   *sim.Driver
}

// New prepares an experiment. params override the model parameters named
// by the config after the system is built.
func New(cfg *config.Config, params map[string]float64) *Experiment {
	return &Experiment{
		cfg:      cfg,
		params:   params,
		registry: NewRegistry(),
	}
}

// Build constructs the configured system with its parameter overrides
// applied.
func (e *Experiment) Build() (sim.System, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	sys, err := e.registry.GetModel(e.cfg.Model, e.cfg)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(e.params))
	for name := range e.params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := sys.SetParam(name, e.params[name]); err != nil {
			return nil, err
		}
	}
	return sys, nil
}

func (e *Experiment) Setup() error {
	sys, err := e.Build()
	if err != nil {
		return err
	}
	e.driver = sim.New(sys, e.cfg.SimConfig())
	for _, m := range e.registry.DefaultMetrics(sys) {
		e.driver.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.driver == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.driver.Run(ctx, e.cfg.Frames)
}

// Envelope returns the decay envelope attached by Setup, if the model has
// one.
func (e *Experiment) Envelope() (*metrics.Envelope, bool) {
	if e.driver == nil {
		return nil, false
	}
	for _, m := range e.driver.Metrics() {
		if env, ok := m.(*metrics.Envelope); ok {
			return env, true
		}
	}
	return nil, false
}

func (e *Experiment) Driver() *sim.Driver {
	return e.driver
}

func (e *Experiment) Config() *config.Config {
	return e.cfg
}
