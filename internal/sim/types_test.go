package sim

import (
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Clone(t *testing.T) {
	src := State{1, 2, 3}
	c := src.Clone()
	c[0] = 99
	if src[0] != 1 {
		t.Error("Clone did not create independent copy")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.HistoryCapacity < 1 {
		t.Error("DefaultConfig has invalid HistoryCapacity")
	}
	if !cfg.ValidateState {
		t.Error("DefaultConfig should validate state")
	}
	if len(cfg.TrailFade) != 2 || cfg.TrailFade[0] != 2 || cfg.TrailFade[1] != 1 {
		t.Errorf("unexpected TrailFade %v", cfg.TrailFade)
	}
}

func TestSimulationError(t *testing.T) {
	err := &SimulationError{Frame: 150, Wrapped: ErrDegenerateConfiguration}
	expected := "frame 150: sim: degenerate configuration"
	if err.Error() != expected {
		t.Errorf("SimulationError.Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, ErrDegenerateConfiguration) {
		t.Error("SimulationError does not unwrap")
	}
}
