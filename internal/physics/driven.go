package physics

import (
	"math"

	"github.com/san-kum/pendsim/internal/geom"
	"github.com/san-kum/pendsim/internal/sim"
)

const (
	DefaultDrivenLength    = 100.0
	DefaultDrivenOmega     = 6.3
	DefaultDrivenAmplitude = 1.0
	// One frame at 60 fps with time slowed three times.
	DefaultDrivenTimeStep = 1.0 / 180.0
)

// Driven is a bob whose angle follows A·cos(ω·t) with t = frame·TimeStep.
// Nothing is integrated; velocity and acceleration are frame differences.
// State: [angle, velocity, acceleration, frame]
type Driven struct {
	Length    float64
	Omega     float64
	Amplitude float64
	TimeStep  float64

	Angle        float64
	Velocity     float64
	Acceleration float64
	frame        float64

	Convention geom.Convention
}

func NewDriven() *Driven {
	return &Driven{
		Length:    DefaultDrivenLength,
		Omega:     DefaultDrivenOmega,
		Amplitude: DefaultDrivenAmplitude,
		TimeStep:  DefaultDrivenTimeStep,
		Angle:     DefaultDrivenAmplitude,
	}
}

func (d *Driven) Name() string  { return "driven" }
func (d *Driven) StateDim() int { return 4 }

// AngleAt is the prescribed angle at the given frame.
func (d *Driven) AngleAt(frame float64) float64 {
	return d.Amplitude * math.Cos(d.Omega*frame*d.TimeStep)
}

func (d *Driven) Step() {
	d.frame++
	angle := d.AngleAt(d.frame)
	velocity := angle - d.Angle
	d.Acceleration = velocity - d.Velocity
	d.Velocity = velocity
	d.Angle = angle
}

func (d *Driven) Validate() error {
	if !finite(d.Length, d.Omega, d.Amplitude, d.TimeStep, d.Angle, d.Velocity, d.frame) {
		return sim.ErrInvalidState
	}
	return nil
}

func (d *Driven) State() sim.State {
	return sim.State{d.Angle, d.Velocity, d.Acceleration, d.frame}
}

func (d *Driven) SetState(x sim.State) error {
	if err := checkDim(d.Name(), x, d.StateDim()); err != nil {
		return err
	}
	d.Angle, d.Velocity, d.Acceleration, d.frame = x[0], x[1], x[2], x[3]
	return nil
}

func (d *Driven) Snapshot() sim.Snapshot {
	arms := []geom.Polar{{Length: d.Length, Angle: d.Angle}}
	return sim.Snapshot{
		Arms:          arms,
		Bobs:          d.Convention.Chain(arms),
		Velocities:    []float64{d.Velocity},
		Accelerations: []float64{d.Acceleration},
	}
}

func (d *Driven) GetParams() map[string]float64 {
	return map[string]float64{
		"length":    d.Length,
		"omega":     d.Omega,
		"amplitude": d.Amplitude,
		"time_step": d.TimeStep,
	}
}

func (d *Driven) SetParam(name string, value float64) error {
	if err := checkParam(name, value); err != nil {
		return err
	}
	switch name {
	case "length":
		d.Length = value
	case "omega":
		d.Omega = value
	case "amplitude":
		d.Amplitude = value
	case "time_step":
		d.TimeStep = value
	default:
		return unknownParam(d.Name(), name)
	}
	return nil
}
