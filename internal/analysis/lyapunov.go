package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/pendsim/internal/sim"
)

// LyapunovExponent estimates the largest Lyapunov exponent, per frame, by
// stepping two copies of a system whose first state entry differs by
// perturbation. After every frame the separation is measured and rescaled
// back to perturbation. A positive value indicates chaos.
func LyapunovExponent(build func() (sim.System, error), frames int, perturbation float64) (float64, error) {
	if frames <= 0 {
		return 0, fmt.Errorf("frames must be positive, got %d", frames)
	}
	if perturbation <= 0 {
		return 0, fmt.Errorf("perturbation must be positive, got %g", perturbation)
	}

	a, err := build()
	if err != nil {
		return 0, err
	}
	b, err := build()
	if err != nil {
		return 0, err
	}

	xp := b.State()
	xp[0] += perturbation
	if err := b.SetState(xp); err != nil {
		return 0, err
	}

	d0 := perturbation
	sumLog := 0.0
	count := 0

	for i := 0; i < frames; i++ {
		a.Step()
		b.Step()

		x, xp := a.State(), b.State()
		if !x.IsValid() || !xp.IsValid() {
			return 0, &sim.SimulationError{Frame: i, State: x, Wrapped: sim.ErrInvalidState}
		}

		sep := 0.0
		for j := range x {
			diff := xp[j] - x[j]
			sep += diff * diff
		}
		sep = math.Sqrt(sep)
		if sep == 0 {
			continue
		}

		sumLog += math.Log(sep / d0)
		count++

		scale := d0 / sep
		for j := range xp {
			xp[j] = x[j] + (xp[j]-x[j])*scale
		}
		if err := b.SetState(xp); err != nil {
			return 0, err
		}
	}

	if count == 0 {
		return 0, nil
	}
	return sumLog / float64(count), nil
}
