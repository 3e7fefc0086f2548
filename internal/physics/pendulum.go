package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/pendsim/internal/geom"
	"github.com/san-kum/pendsim/internal/sim"
)

const (
	DefaultLength  = 200.0
	DefaultGravity = 0.5
	DefaultAngle   = -1.2 * math.Pi
)

// Pendulum is a single bob on a massless rod.
// State: [angle, velocity, acceleration]
type Pendulum struct {
	Length  float64
	Gravity float64
	Damping float64

	Angle        float64
	Velocity     float64
	Acceleration float64

	Convention geom.Convention
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Length:  DefaultLength,
		Gravity: DefaultGravity,
		Angle:   DefaultAngle,
	}
}

func (p *Pendulum) Name() string  { return "pendulum" }
func (p *Pendulum) StateDim() int { return 3 }

// Step advances one frame. The acceleration is +g/L·sin θ, which puts the
// stable equilibrium at θ = π. With damping the updated velocity is scaled
// by 1 − 2·c·|v|; that factor goes negative once 2·c·|v| > 1 and then flips
// the velocity instead of attenuating it.
func (p *Pendulum) Step() {
	p.Acceleration = (p.Gravity / p.Length) * math.Sin(p.Angle)
	if p.Damping != 0 {
		damp := 1 - math.Abs(p.Velocity*-2*p.Damping)
		p.Velocity = (p.Velocity + p.Acceleration) * damp
	} else {
		p.Velocity += p.Acceleration
	}
	p.Angle += p.Velocity
}

func (p *Pendulum) Validate() error {
	if !finite(p.Length, p.Gravity, p.Damping, p.Angle, p.Velocity) {
		return sim.ErrInvalidState
	}
	if p.Length == 0 {
		return fmt.Errorf("%w: pendulum length is zero", sim.ErrDegenerateConfiguration)
	}
	return nil
}

func (p *Pendulum) State() sim.State {
	return sim.State{p.Angle, p.Velocity, p.Acceleration}
}

func (p *Pendulum) SetState(x sim.State) error {
	if err := checkDim(p.Name(), x, p.StateDim()); err != nil {
		return err
	}
	p.Angle, p.Velocity, p.Acceleration = x[0], x[1], x[2]
	return nil
}

func (p *Pendulum) Snapshot() sim.Snapshot {
	arms := []geom.Polar{{Length: p.Length, Angle: p.Angle}}
	return sim.Snapshot{
		Arms:          arms,
		Bobs:          p.Convention.Chain(arms),
		Velocities:    []float64{p.Velocity},
		Accelerations: []float64{p.Acceleration},
	}
}

// Equilibrium returns the stable equilibrium angle nearest to theta.
func (p *Pendulum) Equilibrium(theta float64) float64 {
	return math.Pi + 2*math.Pi*math.Round((theta-math.Pi)/(2*math.Pi))
}

// Energy per unit mass, zero at rest in the stable equilibrium.
func (p *Pendulum) Energy(x sim.State) float64 {
	v := p.Length * x[1]
	ke := 0.5 * v * v
	pe := p.Gravity * p.Length * (1.0 + math.Cos(x[0]))
	return ke + pe
}

func (p *Pendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"length":  p.Length,
		"gravity": p.Gravity,
		"damping": p.Damping,
	}
}

func (p *Pendulum) SetParam(name string, value float64) error {
	if err := checkParam(name, value); err != nil {
		return err
	}
	switch name {
	case "length":
		p.Length = value
	case "gravity":
		p.Gravity = value
	case "damping":
		p.Damping = value
	default:
		return unknownParam(p.Name(), name)
	}
	return nil
}
