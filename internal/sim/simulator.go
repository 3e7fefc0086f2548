package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/pendsim/internal/geom"
	"github.com/san-kum/pendsim/internal/history"
)

// Driver owns a System and the trail of snapshots it produced.
type Driver struct {
	sys     System
	cfg     Config
	history *history.Ring[Snapshot]
	metrics []Metric
	frame   int

	initialState  State
	initialParams map[string]float64
}

// New takes ownership of sys. Its current state and parameters become the
// values Reset returns to.
func New(sys System, cfg Config) *Driver {
	if cfg.HistoryCapacity < 1 {
		cfg.HistoryCapacity = DefaultHistoryCapacity
	}
	return &Driver{
		sys:           sys,
		cfg:           cfg,
		history:       history.NewRing[Snapshot](cfg.HistoryCapacity),
		metrics:       make([]Metric, 0),
		initialState:  sys.State().Clone(),
		initialParams: sys.GetParams(),
	}
}

func (d *Driver) AddMetric(m Metric) { d.metrics = append(d.metrics, m) }

// Metrics returns the attached metrics in the order they were added.
func (d *Driver) Metrics() []Metric {
	return append([]Metric(nil), d.metrics...)
}

func (d *Driver) System() System { return d.sys }
func (d *Driver) Frame() int     { return d.frame }
func (d *Driver) Config() Config { return d.cfg }

// Step advances one frame and records the resulting snapshot. With
// ValidateState set, a degenerate or diverging step is rejected: the state
// is rolled back, nothing is recorded and a *SimulationError is returned.
func (d *Driver) Step() error {
	if d.cfg.ValidateState {
		if err := d.sys.Validate(); err != nil {
			return &SimulationError{Frame: d.frame, State: d.sys.State(), Wrapped: err}
		}
	}

	prev := d.sys.State()
	d.sys.Step()

	x := d.sys.State()
	if d.cfg.ValidateState && !x.IsValid() {
		if err := d.sys.SetState(prev); err != nil {
			return fmt.Errorf("rolling back frame %d: %w", d.frame, err)
		}
		return &SimulationError{Frame: d.frame, State: x, Wrapped: ErrInvalidState}
	}

	d.frame++
	d.history.Record(d.snapshot())
	for _, m := range d.metrics {
		m.Observe(x, d.frame)
	}
	return nil
}

// Snapshot returns the current projection of the system.
func (d *Driver) Snapshot() Snapshot {
	return d.snapshot()
}

func (d *Driver) snapshot() Snapshot {
	s := d.sys.Snapshot()
	s.Frame = d.frame
	if h, ok := d.sys.(Hamiltonian); ok {
		s.Energy = h.Energy(d.sys.State())
	}
	return s
}

// Energy reports the system's energy, if it has one.
func (d *Driver) Energy() (float64, bool) {
	h, ok := d.sys.(Hamiltonian)
	if !ok {
		return 0, false
	}
	return h.Energy(d.sys.State()), true
}

// History returns copies of the recorded snapshots, oldest first.
func (d *Driver) History() []Snapshot {
	return history.Map(d.history, Snapshot.Clone)
}

func (d *Driver) HistoryLen() int { return d.history.Len() }

// Trail returns the fading trail of the given bob. Arms without a bob
// yield nil.
func (d *Driver) Trail(arm int) []history.Segment[geom.Vec] {
	if arm < 0 || arm >= len(d.sys.Snapshot().Bobs) {
		return nil
	}
	fade := 1.0
	if arm < len(d.cfg.TrailFade) {
		fade = d.cfg.TrailFade[arm]
	}
	return history.Trail(d.history, fade, func(s Snapshot) geom.Vec {
		return s.Bobs[arm]
	})
}

func (d *Driver) Params() map[string]float64 {
	return d.sys.GetParams()
}

// SetParam changes a parameter between steps without resetting the motion.
func (d *Driver) SetParam(name string, value float64) error {
	return d.sys.SetParam(name, value)
}

// Reset restores the initial state and parameters and clears the trail.
func (d *Driver) Reset() error {
	for name, v := range d.initialParams {
		if err := d.sys.SetParam(name, v); err != nil {
			return err
		}
	}
	if err := d.sys.SetState(d.initialState.Clone()); err != nil {
		return err
	}
	d.frame = 0
	d.history.Reset()
	for _, m := range d.metrics {
		m.Reset()
	}
	return nil
}

// Run steps the driver headlessly for the given number of frames. A step
// failure ends the run early and is reported in Result.Errors. A cancelled
// context also ends it early; the partial result, metrics included, is
// returned along with ctx.Err().
func (d *Driver) Run(ctx context.Context, frames int) (*Result, error) {
	if frames <= 0 {
		return nil, fmt.Errorf("frames must be positive, got %d", frames)
	}

	result := &Result{
		States:  make([]State, 0, frames+1),
		Frames:  make([]int, 0, frames+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range d.metrics {
		m.Reset()
		m.Observe(d.sys.State(), d.frame)
	}

	result.States = append(result.States, d.sys.State().Clone())
	result.Frames = append(result.Frames, d.frame)
	initialEnergy, hasEnergy := d.Energy()

	var ctxErr error
	for i := 0; i < frames; i++ {
		if ctxErr = ctx.Err(); ctxErr != nil {
			break
		}

		if err := d.Step(); err != nil {
			result.Errors = append(result.Errors, err)
			break
		}
		result.StepsTaken++
		result.States = append(result.States, d.sys.State().Clone())
		result.Frames = append(result.Frames, d.frame)
	}

	if hasEnergy && initialEnergy != 0 {
		finalEnergy, _ := d.Energy()
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range d.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, ctxErr
}
