package metrics

import (
	"math"

	"github.com/san-kum/pendsim/internal/sim"
)

// Equilibrium maps an angle to the stable equilibrium nearest to it.
type Equilibrium func(theta float64) float64

// Envelope tracks the peak distance of one angle from its equilibrium over
// fixed windows of frames. Value is the peak of the last completed window,
// or of the current one before any window completes.
type Envelope struct {
	name    string
	index   int
	window  int
	eq      Equilibrium
	current float64
	last    float64
	count   int
	done    int
	peaks   []float64
}

func NewEnvelope(index, window int, eq Equilibrium) *Envelope {
	if window < 1 {
		window = 1
	}
	return &Envelope{
		name:   "envelope",
		index:  index,
		window: window,
		eq:     eq,
	}
}

func (e *Envelope) Name() string { return e.name }

func (e *Envelope) Observe(x sim.State, frame int) {
	if e.index >= len(x) {
		return
	}
	theta := x[e.index]
	e.current = math.Max(e.current, math.Abs(theta-e.eq(theta)))
	e.count++
	if e.count == e.window {
		e.last = e.current
		e.peaks = append(e.peaks, e.current)
		e.done++
		e.current = 0
		e.count = 0
	}
}

func (e *Envelope) Value() float64 {
	if e.done == 0 {
		return e.current
	}
	return e.last
}

// Peaks returns the peak of every completed window, oldest first.
func (e *Envelope) Peaks() []float64 {
	out := make([]float64, len(e.peaks))
	copy(out, e.peaks)
	return out
}

// Decaying reports whether every completed window peaked lower than the
// one before it.
func (e *Envelope) Decaying() bool {
	if len(e.peaks) < 2 {
		return false
	}
	for i := 1; i < len(e.peaks); i++ {
		if e.peaks[i] >= e.peaks[i-1] {
			return false
		}
	}
	return true
}

func (e *Envelope) Reset() {
	e.current = 0
	e.last = 0
	e.count = 0
	e.done = 0
	e.peaks = e.peaks[:0]
}
