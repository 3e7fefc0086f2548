package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/geom"
	"github.com/san-kum/pendsim/internal/physics"
	"github.com/san-kum/pendsim/internal/sim"
)

func TestRegistryListModels(t *testing.T) {
	g := NewWithT(t)
	g.Expect(NewRegistry().ListModels()).To(Equal(config.Models))
}

func TestRegistryGetModel(t *testing.T) {
	g := NewWithT(t)
	r := NewRegistry()

	cfg := config.DefaultConfig()
	cfg.Convention = "standard"
	cfg.Pendulum.Damping = 0.2

	sys, err := r.GetModel("pendulum", cfg)
	g.Expect(err).NotTo(HaveOccurred())
	p, ok := sys.(*physics.Pendulum)
	g.Expect(ok).To(BeTrue())
	g.Expect(p.Damping).To(Equal(0.2))
	g.Expect(p.Convention).To(Equal(geom.Standard))

	sys, err = r.GetModel("driven", cfg)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sys.State()[0]).To(BeNumerically("~", cfg.Driven.Amplitude, 1e-12))

	_, err = r.GetModel("cartpole", cfg)
	g.Expect(err).To(HaveOccurred())
}

func TestDefaultMetrics(t *testing.T) {
	tests := []struct {
		model string
		names []string
	}{
		{"pendulum", []string{"energy", "energy_drift", "stability", "envelope"}},
		{"double_pendulum", []string{"energy", "energy_drift", "stability"}},
		{"driven", []string{"stability"}},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			sys, err := r.GetModel(tt.model, config.DefaultConfig())
			if err != nil {
				t.Fatal(err)
			}
			ms := r.DefaultMetrics(sys)
			if len(ms) != len(tt.names) {
				t.Fatalf("expected %d metrics, got %d", len(tt.names), len(ms))
			}
			for i, m := range ms {
				if m.Name() != tt.names[i] {
					t.Errorf("metric %d: expected %s, got %s", i, tt.names[i], m.Name())
				}
			}
		})
	}
}

func TestExperimentRun(t *testing.T) {
	g := NewWithT(t)
	cfg := config.GetPreset("double_pendulum", "gentle")
	cfg.Frames = 200

	exp := New(cfg, map[string]float64{"m2": 10})
	g.Expect(exp.Setup()).To(Succeed())
	g.Expect(exp.Driver().Params()["m2"]).To(Equal(10.0))

	res, err := exp.Run(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.StepsTaken).To(Equal(200))
	g.Expect(res.States).To(HaveLen(201))
	g.Expect(res.Metrics).To(HaveKey("energy_drift"))
	g.Expect(res.Metrics["stability"]).To(Equal(1.0))
	g.Expect(exp.Driver().HistoryLen()).To(Equal(150))
}

func TestExperimentEnvelope(t *testing.T) {
	g := NewWithT(t)
	cfg := config.GetPreset("pendulum", "damped")
	cfg.Frames = 8000

	exp := New(cfg, nil)
	_, ok := exp.Envelope()
	g.Expect(ok).To(BeFalse())

	g.Expect(exp.Setup()).To(Succeed())
	res, err := exp.Run(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.Metrics).To(HaveKey("energy"))

	env, ok := exp.Envelope()
	g.Expect(ok).To(BeTrue())
	g.Expect(env.Peaks()).To(HaveLen(8))
	g.Expect(env.Decaying()).To(BeTrue())
	g.Expect(res.Metrics["envelope"]).To(Equal(env.Peaks()[7]))

	dp := New(config.GetPreset("double_pendulum", "gentle"), nil)
	g.Expect(dp.Setup()).To(Succeed())
	_, ok = dp.Envelope()
	g.Expect(ok).To(BeFalse())
}

func TestExperimentNotSetup(t *testing.T) {
	if _, err := New(config.DefaultConfig(), nil).Run(context.Background()); err == nil {
		t.Error("expected error before Setup")
	}
}

func TestExperimentBadParam(t *testing.T) {
	err := New(config.DefaultConfig(), map[string]float64{"mass": 1}).Setup()
	if !errors.Is(err, sim.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
}

func TestExperimentInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Frames = 0
	if err := New(cfg, nil).Setup(); err == nil {
		t.Error("expected validation error")
	}
}

func TestEnsemble(t *testing.T) {
	g := NewWithT(t)
	cfg := config.GetPreset("double_pendulum", "chaos")
	cfg.Frames = 300

	runs, err := NewEnsemble(cfg, nil, 4, 1e-3).Run(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(runs).To(HaveLen(4))

	for i, r := range runs {
		g.Expect(r.Index).To(Equal(i))
		g.Expect(r.Offset).To(BeNumerically("~", float64(i)*1e-3, 1e-15))
		g.Expect(r.Result.States[0][0]).To(BeNumerically("~", math.Pi/2+r.Offset, 1e-12))
		g.Expect(r.Final()).To(HaveLen(6))
	}

	div := Divergence(runs, 0)
	g.Expect(div[0]).To(Equal(0.0))
	g.Expect(div[3]).To(BeNumerically(">", 0))
}

func TestPresetsRunToCompletion(t *testing.T) {
	for _, model := range config.Models {
		for _, name := range config.ListPresets(model) {
			t.Run(model+"/"+name, func(t *testing.T) {
				g := NewWithT(t)
				exp := New(config.GetPreset(model, name), nil)
				g.Expect(exp.Setup()).To(Succeed())
				res, err := exp.Run(context.Background())
				g.Expect(err).NotTo(HaveOccurred())
				g.Expect(res.Errors).To(BeEmpty())
				g.Expect(res.StepsTaken).To(Equal(exp.Config().Frames))
			})
		}
	}
}

func TestEnsembleZeroEpsilonIsDeterministic(t *testing.T) {
	g := NewWithT(t)
	cfg := config.GetPreset("pendulum", "classic")
	cfg.Frames = 500

	runs, err := NewEnsemble(cfg, nil, 3, 0).Run(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	for _, d := range Divergence(runs, 0) {
		g.Expect(d).To(Equal(0.0))
	}
}

func TestEnsembleNoRuns(t *testing.T) {
	if _, err := NewEnsemble(config.DefaultConfig(), nil, 0, 0.1).Run(context.Background()); err == nil {
		t.Error("expected error for zero runs")
	}
}
