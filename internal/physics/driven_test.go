package physics

import (
	"math"
	"testing"

	. "github.com/onsi/gomega"
)

func TestDrivenFollowsCosine(t *testing.T) {
	g := NewWithT(t)

	d := NewDriven()
	g.Expect(d.Angle).To(Equal(d.Amplitude))

	prevAngle, prevVel := d.Angle, d.Velocity
	for i := 1; i <= 50; i++ {
		d.Step()
		want := d.Amplitude * math.Cos(d.Omega*float64(i)*d.TimeStep)
		g.Expect(d.Angle).To(BeNumerically("~", want, 1e-12))
		g.Expect(d.Velocity).To(BeNumerically("~", d.Angle-prevAngle, 1e-12))
		g.Expect(d.Acceleration).To(BeNumerically("~", d.Velocity-prevVel, 1e-12))
		prevAngle, prevVel = d.Angle, d.Velocity
	}
	g.Expect(d.State()[3]).To(Equal(50.0))
}

func TestDrivenPeriod(t *testing.T) {
	g := NewWithT(t)

	d := NewDriven()
	g.Expect(d.SetParam("omega", 2*math.Pi)).To(Succeed())
	g.Expect(d.SetParam("time_step", 0.01)).To(Succeed())

	for i := 0; i < 100; i++ {
		d.Step()
	}
	g.Expect(d.Angle).To(BeNumerically("~", d.Amplitude, 1e-9))
}

func TestDrivenParams(t *testing.T) {
	g := NewWithT(t)

	d := NewDriven()
	g.Expect(d.GetParams()).To(HaveLen(4))
	g.Expect(d.SetParam("amplitude", 0.5)).To(Succeed())
	g.Expect(d.AngleAt(0)).To(Equal(0.5))
	g.Expect(d.SetParam("gravity", 1)).To(HaveOccurred())
	g.Expect(d.Validate()).To(Succeed())
}
