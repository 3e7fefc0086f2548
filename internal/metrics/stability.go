package metrics

import (
	"math"

	"github.com/san-kum/pendsim/internal/sim"
)

// Stability is the fraction of frames whose selected state entries (the
// velocities, usually) are finite and within threshold.
type Stability struct {
	name       string
	threshold  float64
	indices    []int
	violations int
	samples    int
}

func NewStability(threshold float64, indices ...int) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
		indices:   indices,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x sim.State, frame int) {
	s.samples++
	for _, i := range s.indices {
		if i >= len(x) {
			continue
		}
		v := x[i]
		if math.IsNaN(v) || math.Abs(v) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
