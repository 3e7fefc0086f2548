package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/pendsim/internal/sim"
)

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func checkParam(name string, value float64) error {
	if !finite(value) {
		return fmt.Errorf("%w: %s=%v", sim.ErrParameterBounds, name, value)
	}
	return nil
}

func unknownParam(model, name string) error {
	return fmt.Errorf("%w: %s has no parameter %q", sim.ErrUnknownParam, model, name)
}

func checkDim(model string, x sim.State, want int) error {
	if len(x) != want {
		return fmt.Errorf("%w: %s expects %d values, got %d", sim.ErrDimensionMismatch, model, want, len(x))
	}
	return nil
}
