package sim

import (
	"math"

	"github.com/san-kum/pendsim/internal/geom"
)

// State packs a model's mutable quantities (angles, velocities,
// accelerations). Layout is model specific.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is a pendulum model. Step advances exactly one frame; "one frame"
// is the integration step, there is no dt.
type System interface {
	Configurable
	Name() string
	StateDim() int
	Step()
	State() State
	SetState(x State) error
	// Validate reports whether the next Step would divide by zero or read
	// non-finite inputs.
	Validate() error
	// Snapshot projects the current state; Frame and Energy are filled in
	// by the Driver.
	Snapshot() Snapshot
}

type Hamiltonian interface {
	Energy(x State) float64
}

// Configurable is the live parameter boundary. SetParam may be called
// between any two steps and never touches angles or velocities.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type Metric interface {
	Name() string
	Observe(x State, frame int)
	Value() float64
	Reset()
}

// Snapshot is an immutable per-frame view for renderers. Arm i hangs from
// bob i-1; arm 0 hangs from the origin.
type Snapshot struct {
	Frame         int          `json:"frame"`
	Arms          []geom.Polar `json:"arms"`
	Bobs          []geom.Vec   `json:"bobs"`
	Velocities    []float64    `json:"velocities"`
	Accelerations []float64    `json:"accelerations"`
	// Energy is zero for systems that are not Hamiltonian.
	Energy float64 `json:"energy"`
}

// Clone copies s, including its slices.
func (s Snapshot) Clone() Snapshot {
	c := s
	c.Arms = append([]geom.Polar(nil), s.Arms...)
	c.Bobs = append([]geom.Vec(nil), s.Bobs...)
	c.Velocities = append([]float64(nil), s.Velocities...)
	c.Accelerations = append([]float64(nil), s.Accelerations...)
	return c
}

type Config struct {
	HistoryCapacity int
	ValidateState   bool
	// TrailFade is the per-arm fade passed to history.Segments; arms past
	// the end of the slice use 1.
	TrailFade []float64
}

const DefaultHistoryCapacity = 150

func DefaultConfig() Config {
	return Config{
		HistoryCapacity: DefaultHistoryCapacity,
		ValidateState:   true,
		TrailFade:       []float64{2, 1},
	}
}

type Result struct {
	States      []State
	Frames      []int
	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int
	Errors      []error
}
