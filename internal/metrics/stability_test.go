package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/pendsim/internal/physics"
	"github.com/san-kum/pendsim/internal/sim"
)

func TestStability(t *testing.T) {
	tests := []struct {
		name   string
		states []sim.State
		want   float64
	}{
		{"no samples", nil, 1.0},
		{"all calm", []sim.State{{5, 0.1, 0}, {-9, -0.2, 0}}, 1.0},
		{"one fast", []sim.State{{0, 0.1, 0}, {0, 3, 0}}, 0.5},
		{"nan velocity", []sim.State{{0, math.NaN(), 0}}, 0.0},
		{"angle ignored", []sim.State{{100, 0, 0}}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStability(1.0, 1)
			for i, x := range tt.states {
				s.Observe(x, i)
			}
			if got := s.Value(); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Value() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnvelopeDamped(t *testing.T) {
	p := physics.NewPendulum()
	p.Damping = 0.05
	env := NewEnvelope(0, 1000, p.Equilibrium)

	for i := 0; i < 8000; i++ {
		p.Step()
		env.Observe(p.State(), i+1)
	}

	peaks := env.Peaks()
	if len(peaks) != 8 {
		t.Fatalf("expected 8 windows, got %d", len(peaks))
	}
	if !env.Decaying() {
		t.Errorf("expected decaying envelope, got %v", peaks)
	}
	if env.Value() != peaks[7] {
		t.Errorf("Value() = %v, want last peak %v", env.Value(), peaks[7])
	}
}

func TestEnvelopeUndampedHolds(t *testing.T) {
	p := physics.NewPendulum()
	env := NewEnvelope(0, 500, p.Equilibrium)

	for i := 0; i < 3000; i++ {
		p.Step()
		env.Observe(p.State(), i+1)
	}

	peaks := env.Peaks()
	for _, pk := range peaks {
		if math.Abs(pk-peaks[0]) > 0.05*peaks[0] {
			t.Errorf("undamped envelope moved: %v", peaks)
			break
		}
	}

	env.Reset()
	if env.Value() != 0 || len(env.Peaks()) != 0 {
		t.Error("expected empty envelope after reset")
	}
}
