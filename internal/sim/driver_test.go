package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pendsim/internal/physics"
	"github.com/san-kum/pendsim/internal/sim"
)

type countingMetric struct {
	observed int
}

func (c *countingMetric) Name() string               { return "count" }
func (c *countingMetric) Observe(_ sim.State, _ int) { c.observed++ }
func (c *countingMetric) Value() float64             { return float64(c.observed) }
func (c *countingMetric) Reset()                     { c.observed = 0 }

// cancelAfter cancels once m has seen n observations.
type cancelAfter struct {
	m      *countingMetric
	n      int
	cancel context.CancelFunc
}

func (c cancelAfter) Name() string { return "cancel" }
func (c cancelAfter) Observe(_ sim.State, _ int) {
	if c.m.observed >= c.n {
		c.cancel()
	}
}
func (c cancelAfter) Value() float64 { return 0 }
func (c cancelAfter) Reset()         {}

var _ = Describe("Driver", func() {
	var cfg sim.Config

	BeforeEach(func() {
		cfg = sim.DefaultConfig()
		cfg.HistoryCapacity = 100
	})

	Describe("history", func() {
		It("starts empty", func() {
			d := sim.New(physics.NewPendulum(), cfg)
			Expect(d.HistoryLen()).To(Equal(0))
			Expect(d.History()).To(BeEmpty())
			Expect(d.Frame()).To(Equal(0))
		})

		It("records one snapshot per step and stays bounded", func() {
			d := sim.New(physics.NewDoublePendulum(), cfg)
			for i := 1; i <= 250; i++ {
				Expect(d.Step()).To(Succeed())
				Expect(d.HistoryLen()).To(BeNumerically("<=", cfg.HistoryCapacity))
				hist := d.History()
				Expect(hist[len(hist)-1]).To(Equal(d.Snapshot()))
				Expect(hist[len(hist)-1].Frame).To(Equal(i))
			}
			hist := d.History()
			Expect(hist).To(HaveLen(100))
			Expect(hist[0].Frame).To(Equal(151))
		})

		It("keeps recorded snapshots immutable", func() {
			d := sim.New(physics.NewPendulum(), cfg)
			Expect(d.Step()).To(Succeed())
			first := d.History()[0]
			angle := first.Arms[0].Angle
			for i := 0; i < 10; i++ {
				Expect(d.Step()).To(Succeed())
			}
			Expect(d.History()[0].Arms[0].Angle).To(Equal(angle))
		})

		It("does not let callers write through returned snapshots", func() {
			d := sim.New(physics.NewPendulum(), cfg)
			for i := 0; i < 3; i++ {
				Expect(d.Step()).To(Succeed())
			}
			want := d.History()
			trail := d.Trail(0)

			h := d.History()
			h[0].Arms[0].Angle = 12345
			h[0].Bobs[0].X = 999
			h[1].Velocities[0] = -1
			h[1].Accelerations[0] = -1

			Expect(d.History()).To(Equal(want))
			Expect(d.Trail(0)).To(Equal(trail))
		})
	})

	Describe("trails", func() {
		It("fades the first arm twice as fast as the second", func() {
			d := sim.New(physics.NewDoublePendulum(), cfg)
			for i := 0; i < 20; i++ {
				Expect(d.Step()).To(Succeed())
			}
			arm1, arm2 := d.Trail(0), d.Trail(1)
			Expect(arm1).To(HaveLen(19))
			Expect(arm2).To(HaveLen(19))
			Expect(arm1[18].Weight).To(BeNumerically("~", 19.0/40, 1e-12))
			Expect(arm2[18].Weight).To(BeNumerically("~", 19.0/20, 1e-12))
			Expect(arm2[18].Cur).To(Equal(d.Snapshot().Bobs[1]))
		})

		It("has no trail for a missing arm", func() {
			d := sim.New(physics.NewPendulum(), cfg)
			Expect(d.Step()).To(Succeed())
			Expect(d.Step()).To(Succeed())
			Expect(d.Trail(0)).To(HaveLen(1))
			Expect(d.Trail(1)).To(BeNil())
			Expect(d.Trail(-1)).To(BeNil())
		})
	})

	It("is deterministic", func() {
		a := sim.New(physics.NewDoublePendulum(), cfg)
		b := sim.New(physics.NewDoublePendulum(), cfg)
		for i := 0; i < 2000; i++ {
			Expect(a.Step()).To(Succeed())
			Expect(b.Step()).To(Succeed())
		}
		Expect(a.System().State()).To(Equal(b.System().State()))
		Expect(a.History()).To(Equal(b.History()))
	})

	It("fills in energy for Hamiltonian systems", func() {
		d := sim.New(physics.NewPendulum(), cfg)
		Expect(d.Step()).To(Succeed())
		e, ok := d.Energy()
		Expect(ok).To(BeTrue())
		Expect(d.Snapshot().Energy).To(Equal(e))

		driven := sim.New(physics.NewDriven(), cfg)
		_, ok = driven.Energy()
		Expect(ok).To(BeFalse())
		Expect(driven.Snapshot().Energy).To(Equal(0.0))
	})

	Describe("degenerate configurations", func() {
		var dp *physics.DoublePendulum

		BeforeEach(func() {
			dp = physics.NewDoublePendulum()
			dp.Theta1, dp.Theta2 = 0.4, 0.4
		})

		It("fails fast and leaves the state untouched", func() {
			d := sim.New(dp, cfg)
			Expect(d.Step()).To(Succeed())
			before := dp.State()

			Expect(d.SetParam("m1", 0)).To(Succeed())
			dp.Theta2 = dp.Theta1

			err := d.Step()
			Expect(errors.Is(err, sim.ErrDegenerateConfiguration)).To(BeTrue())
			var simErr *sim.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Frame).To(Equal(1))
			Expect(d.Frame()).To(Equal(1))
			Expect(d.HistoryLen()).To(Equal(1))
			Expect(dp.Omega1).To(Equal(before[2]))
		})

		It("recovers after a parameter change", func() {
			d := sim.New(dp, cfg)
			Expect(d.SetParam("m1", 0)).To(Succeed())
			Expect(d.Step()).To(HaveOccurred())

			Expect(d.SetParam("m1", 30)).To(Succeed())
			Expect(d.Step()).To(Succeed())
			Expect(dp.State().IsValid()).To(BeTrue())
		})

		It("propagates NaN when validation is off", func() {
			cfg.ValidateState = false
			d := sim.New(dp, cfg)
			Expect(d.SetParam("m1", 0)).To(Succeed())
			Expect(d.Step()).To(Succeed())
			Expect(dp.State().IsValid()).To(BeFalse())
			Expect(math.IsNaN(d.History()[0].Arms[0].Angle)).To(BeTrue())
		})

		It("rolls back a step that overflows", func() {
			p := physics.NewPendulum()
			p.Velocity = math.MaxFloat64
			p.Angle = math.MaxFloat64
			d := sim.New(p, cfg)

			err := d.Step()
			Expect(errors.Is(err, sim.ErrInvalidState)).To(BeTrue())
			Expect(p.Angle).To(Equal(math.MaxFloat64))
			Expect(d.HistoryLen()).To(Equal(0))
		})
	})

	Describe("parameters", func() {
		It("accepts live changes without resetting motion", func() {
			p := physics.NewPendulum()
			d := sim.New(p, cfg)
			for i := 0; i < 5; i++ {
				Expect(d.Step()).To(Succeed())
			}
			angle, vel := p.Angle, p.Velocity

			Expect(d.SetParam("gravity", 1.5)).To(Succeed())
			Expect(p.Angle).To(Equal(angle))
			Expect(p.Velocity).To(Equal(vel))
			Expect(d.Params()).To(HaveKeyWithValue("gravity", 1.5))

			Expect(d.SetParam("gravity", math.NaN())).To(MatchError(sim.ErrParameterBounds))
		})

		It("resets state, parameters and history", func() {
			p := physics.NewPendulum()
			d := sim.New(p, cfg)
			initial := p.State()
			for i := 0; i < 30; i++ {
				Expect(d.Step()).To(Succeed())
			}
			Expect(d.SetParam("length", 20)).To(Succeed())

			Expect(d.Reset()).To(Succeed())
			Expect(p.State()).To(Equal(initial))
			Expect(p.Length).To(Equal(physics.DefaultLength))
			Expect(d.HistoryLen()).To(Equal(0))
			Expect(d.Frame()).To(Equal(0))
		})
	})

	Describe("Run", func() {
		It("collects states and metrics", func() {
			d := sim.New(physics.NewPendulum(), cfg)
			m := &countingMetric{}
			d.AddMetric(m)

			result, err := d.Run(context.Background(), 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.States).To(HaveLen(51))
			Expect(result.Frames[50]).To(Equal(50))
			Expect(result.StepsTaken).To(Equal(50))
			Expect(result.Errors).To(BeEmpty())
			Expect(result.Metrics).To(HaveKeyWithValue("count", 51.0))
			Expect(result.EnergyDrift).To(BeNumerically("<", 0.1))
		})

		It("stops at the first failing step", func() {
			dp := physics.NewDoublePendulum()
			dp.M1 = 0
			dp.Theta1, dp.Theta2 = 1, 1
			d := sim.New(dp, cfg)

			result, err := d.Run(context.Background(), 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.StepsTaken).To(Equal(0))
			Expect(result.Errors).To(HaveLen(1))
			Expect(result.Errors[0]).To(MatchError(sim.ErrDegenerateConfiguration))
		})

		It("honours cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			d := sim.New(physics.NewPendulum(), cfg)

			result, err := d.Run(ctx, 10)
			Expect(err).To(MatchError(context.Canceled))
			Expect(result.States).To(HaveLen(1))
		})

		It("reports metrics for a run cancelled midway", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			d := sim.New(physics.NewPendulum(), cfg)
			m := &countingMetric{}
			d.AddMetric(m)
			d.AddMetric(cancelAfter{m: m, n: 6, cancel: cancel})

			result, err := d.Run(ctx, 100)
			Expect(err).To(MatchError(context.Canceled))
			Expect(result.StepsTaken).To(Equal(5))
			Expect(result.States).To(HaveLen(6))
			Expect(result.Metrics).To(HaveKeyWithValue("count", 6.0))
			Expect(result.EnergyDrift).To(BeNumerically(">", 0))
		})

		It("rejects a non-positive frame count", func() {
			d := sim.New(physics.NewPendulum(), cfg)
			_, err := d.Run(context.Background(), 0)
			Expect(err).To(HaveOccurred())
		})
	})
})
