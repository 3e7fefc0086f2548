package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/pendsim/internal/geom"
	"github.com/san-kum/pendsim/internal/sim"
)

const (
	DefaultMass       = 30.0
	DefaultArmLength  = 200.0
	DefaultDoubleG    = 1.0
	DefaultDoubleTilt = math.Pi / 2
)

// DoublePendulum is two point masses on massless rods hinged in series.
// State: [theta1, theta2, omega1, omega2, alpha1, alpha2]
type DoublePendulum struct {
	M1, M2  float64
	L1, L2  float64
	Gravity float64

	Theta1, Theta2 float64
	Omega1, Omega2 float64
	Alpha1, Alpha2 float64

	Convention geom.Convention
}

func NewDoublePendulum() *DoublePendulum {
	return &DoublePendulum{
		M1: DefaultMass, M2: DefaultMass,
		L1: DefaultArmLength, L2: DefaultArmLength,
		Gravity: DefaultDoubleG,
		Theta1:  DefaultDoubleTilt, Theta2: DefaultDoubleTilt,
	}
}

func (d *DoublePendulum) Name() string  { return "double_pendulum" }
func (d *DoublePendulum) StateDim() int { return 6 }

// Denominators returns l1 and l2 of the acceleration quotients. Either
// being zero makes the next step divide by zero.
func (d *DoublePendulum) Denominators() (l1, l2 float64) {
	m1, m2 := d.M1, d.M2
	k := 2*m1 + m2 - m2*math.Cos(2*d.Theta1-2*d.Theta2)
	return d.L1 * k, d.L2 * k
}

// Accelerations evaluates the Lagrangian equations of motion for the
// current angles and velocities.
func (d *DoublePendulum) Accelerations() (a1, a2 float64) {
	t1, t2 := d.Theta1, d.Theta2
	v1, v2 := d.Omega1, d.Omega2
	m1, m2, len1, len2, g := d.M1, d.M2, d.L1, d.L2, d.Gravity

	delta := t1 - t2
	sinD, cosD := math.Sin(delta), math.Cos(delta)

	u1 := -g*(2*m1+m2)*math.Sin(t1) -
		m2*g*math.Sin(t1-2*t2) -
		2*sinD*m2*(v2*v2*len2+v1*v1*len1*cosD)
	u2 := 2 * sinD * (v1*v1*len1*(m1+m2) +
		g*(m1+m2)*math.Cos(t1) +
		v2*v2*len2*m2*cosD)

	l1, l2 := d.Denominators()
	return u1 / l1, u2 / l2
}

func (d *DoublePendulum) Step() {
	a1, a2 := d.Accelerations()
	d.Alpha1, d.Alpha2 = a1, a2
	d.Omega1 += a1
	d.Omega2 += a2
	d.Theta1 += d.Omega1
	d.Theta2 += d.Omega2
}

func (d *DoublePendulum) Validate() error {
	if !finite(d.M1, d.M2, d.L1, d.L2, d.Gravity, d.Theta1, d.Theta2, d.Omega1, d.Omega2) {
		return sim.ErrInvalidState
	}
	l1, l2 := d.Denominators()
	if l1 == 0 || l2 == 0 {
		return fmt.Errorf("%w: 2·m1+m2 = m2·cos(2θ1−2θ2) (l1=%g, l2=%g)", sim.ErrDegenerateConfiguration, l1, l2)
	}
	return nil
}

func (d *DoublePendulum) State() sim.State {
	return sim.State{d.Theta1, d.Theta2, d.Omega1, d.Omega2, d.Alpha1, d.Alpha2}
}

func (d *DoublePendulum) SetState(x sim.State) error {
	if err := checkDim(d.Name(), x, d.StateDim()); err != nil {
		return err
	}
	d.Theta1, d.Theta2 = x[0], x[1]
	d.Omega1, d.Omega2 = x[2], x[3]
	d.Alpha1, d.Alpha2 = x[4], x[5]
	return nil
}

func (d *DoublePendulum) Snapshot() sim.Snapshot {
	arms := []geom.Polar{
		{Length: d.L1, Angle: d.Theta1},
		{Length: d.L2, Angle: d.Theta2},
	}
	return sim.Snapshot{
		Arms:          arms,
		Bobs:          d.Convention.Chain(arms),
		Velocities:    []float64{d.Omega1, d.Omega2},
		Accelerations: []float64{d.Alpha1, d.Alpha2},
	}
}

func (d *DoublePendulum) Energy(x sim.State) float64 {
	theta1, theta2, omega1, omega2 := x[0], x[1], x[2], x[3]
	m1, m2, l1, l2, g := d.M1, d.M2, d.L1, d.L2, d.Gravity

	v1sq := l1 * l1 * omega1 * omega1
	v2sq := l1*l1*omega1*omega1 + l2*l2*omega2*omega2 +
		2*l1*l2*omega1*omega2*math.Cos(theta1-theta2)

	ke := 0.5*m1*v1sq + 0.5*m2*v2sq
	y1 := -l1 * math.Cos(theta1)
	y2 := y1 - l2*math.Cos(theta2)
	pe := m1*g*y1 + m2*g*y2

	return ke + pe
}

func (d *DoublePendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"m1":      d.M1,
		"m2":      d.M2,
		"l1":      d.L1,
		"l2":      d.L2,
		"gravity": d.Gravity,
	}
}

func (d *DoublePendulum) SetParam(name string, value float64) error {
	if err := checkParam(name, value); err != nil {
		return err
	}
	switch name {
	case "m1":
		d.M1 = value
	case "m2":
		d.M2 = value
	case "l1":
		d.L1 = value
	case "l2":
		d.L2 = value
	case "gravity":
		d.Gravity = value
	default:
		return unknownParam(d.Name(), name)
	}
	return nil
}
