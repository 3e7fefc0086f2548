package experiment

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/sim"
)

// Ensemble runs copies of one experiment whose first angle is offset by
// index·Epsilon.
type Ensemble struct {
	cfg     *config.Config
	params  map[string]float64
	numRuns int
	epsilon float64
}

type EnsembleRun struct {
	Index  int
	Offset float64
	Result *sim.Result
}

// Final is the last recorded state.
func (r EnsembleRun) Final() sim.State {
	if r.Result == nil || len(r.Result.States) == 0 {
		return nil
	}
	return r.Result.States[len(r.Result.States)-1]
}

func NewEnsemble(cfg *config.Config, params map[string]float64, numRuns int, epsilon float64) *Ensemble {
	return &Ensemble{cfg: cfg, params: params, numRuns: numRuns, epsilon: epsilon}
}

func (e *Ensemble) Run(ctx context.Context) ([]EnsembleRun, error) {
	if e.numRuns <= 0 {
		return nil, fmt.Errorf("runs must be positive, got %d", e.numRuns)
	}

	runs := make([]EnsembleRun, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			offset := float64(idx) * e.epsilon
			runs[idx] = EnsembleRun{Index: idx, Offset: offset}

			exp := New(e.cfg, e.params)
			sys, err := exp.Build()
			if err != nil {
				errs[idx] = err
				return
			}
			x := sys.State()
			x[0] += offset
			if err := sys.SetState(x); err != nil {
				errs[idx] = err
				return
			}

			d := sim.New(sys, e.cfg.SimConfig())
			for _, m := range exp.registry.DefaultMetrics(sys) {
				d.AddMetric(m)
			}
			runs[idx].Result, errs[idx] = d.Run(ctx, e.cfg.Frames)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return runs, nil
}

// Divergence is |x[index]| of each run's final state minus that of the
// first run.
func Divergence(runs []EnsembleRun, index int) []float64 {
	out := make([]float64, len(runs))
	if len(runs) == 0 {
		return out
	}
	base := runs[0].Final()
	for i, r := range runs {
		final := r.Final()
		if index >= len(base) || index >= len(final) {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Abs(final[index] - base[index])
	}
	return out
}
