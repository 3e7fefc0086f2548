// Package history keeps a bounded, chronological window of recent samples.
package history

// Ring is a fixed-capacity FIFO. Recording past capacity evicts the oldest
// sample in O(1). The zero value is not usable; call NewRing.
type Ring[T any] struct {
	data []T
	pos  int
	size int
}

// NewRing creates a Ring holding at most capacity samples (minimum 1).
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{data: make([]T, capacity)}
}

// Record appends v, evicting the oldest sample once the ring is full.
func (r *Ring[T]) Record(v T) {
	r.data[r.pos] = v
	r.pos = (r.pos + 1) % len(r.data)
	if r.size < len(r.data) {
		r.size++
	}
}

func (r *Ring[T]) Len() int { return r.size }
func (r *Ring[T]) Cap() int { return len(r.data) }

// At returns the i-th sample, 0 being the oldest. It panics when i is out
// of range.
func (r *Ring[T]) At(i int) T {
	if i < 0 || i >= r.size {
		panic("history: index out of range")
	}
	return r.data[r.index(i)]
}

// Last returns the most recently recorded sample.
func (r *Ring[T]) Last() (T, bool) {
	if r.size == 0 {
		var zero T
		return zero, false
	}
	return r.At(r.size - 1), true
}

// All returns the samples oldest first, as a fresh slice.
func (r *Ring[T]) All() []T {
	return Map(r, func(v T) T { return v })
}

// Reset drops every sample but keeps the capacity.
func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.data {
		r.data[i] = zero
	}
	r.pos = 0
	r.size = 0
}

func (r *Ring[T]) index(i int) int {
	start := r.pos - r.size
	if start < 0 {
		start += len(r.data)
	}
	return (start + i) % len(r.data)
}

// Segment joins a sample to its predecessor. Weight grows with recency and
// is meant for fading trails.
type Segment[T any] struct {
	Prev   T
	Cur    T
	Weight float64
}

// Segments pairs every sample with its predecessor, oldest first. The
// segment ending at sample i weighs i / (fade·Len()), so a larger fade
// produces a fainter trail.
func (r *Ring[T]) Segments(fade float64) []Segment[T] {
	return Trail(r, fade, func(v T) T { return v })
}

// Trail is Segments over a projection of each sample.
func Trail[T, U any](r *Ring[T], fade float64, fn func(T) U) []Segment[U] {
	if r.size < 2 {
		return nil
	}
	total := fade * float64(r.size)
	segs := make([]Segment[U], 0, r.size-1)
	prev := fn(r.At(0))
	for i := 1; i < r.size; i++ {
		cur := fn(r.At(i))
		segs = append(segs, Segment[U]{Prev: prev, Cur: cur, Weight: float64(i) / total})
		prev = cur
	}
	return segs
}

// Map projects each sample of a ring, oldest first, into a fresh slice.
// Samples holding slices are shared unless fn copies them.
func Map[T, U any](r *Ring[T], fn func(T) U) []U {
	out := make([]U, r.size)
	for i := range out {
		out[i] = fn(r.data[r.index(i)])
	}
	return out
}
