package history

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestRingBounded(t *testing.T) {
	g := NewWithT(t)

	r := NewRing[int](5)
	for i := 0; i < 23; i++ {
		r.Record(i)
		g.Expect(r.Len()).To(BeNumerically("<=", r.Cap()))
		last, ok := r.Last()
		g.Expect(ok).To(BeTrue())
		g.Expect(last).To(Equal(i))
	}
	g.Expect(r.Len()).To(Equal(5))
	g.Expect(r.All()).To(Equal([]int{18, 19, 20, 21, 22}))
}

func TestRingPartial(t *testing.T) {
	g := NewWithT(t)

	r := NewRing[string](4)
	_, ok := r.Last()
	g.Expect(ok).To(BeFalse())
	g.Expect(r.All()).To(BeEmpty())

	r.Record("a")
	r.Record("b")
	g.Expect(r.All()).To(Equal([]string{"a", "b"}))
	g.Expect(r.At(0)).To(Equal("a"))
	g.Expect(r.At(1)).To(Equal("b"))
	g.Expect(func() { r.At(2) }).To(Panic())
}

func TestRingMinimumCapacity(t *testing.T) {
	g := NewWithT(t)

	r := NewRing[int](0)
	g.Expect(r.Cap()).To(Equal(1))
	r.Record(1)
	r.Record(2)
	g.Expect(r.All()).To(Equal([]int{2}))
}

func TestRingReset(t *testing.T) {
	g := NewWithT(t)

	r := NewRing[int](3)
	for i := 0; i < 7; i++ {
		r.Record(i)
	}
	r.Reset()
	g.Expect(r.Len()).To(Equal(0))
	g.Expect(r.Cap()).To(Equal(3))
	r.Record(42)
	g.Expect(r.All()).To(Equal([]int{42}))
}

func TestRingAllIsCopy(t *testing.T) {
	g := NewWithT(t)

	r := NewRing[int](3)
	r.Record(1)
	r.Record(2)
	out := r.All()
	out[0] = 99
	g.Expect(r.At(0)).To(Equal(1))
}

func TestSegments(t *testing.T) {
	g := NewWithT(t)

	r := NewRing[int](4)
	g.Expect(r.Segments(1)).To(BeNil())
	r.Record(10)
	g.Expect(r.Segments(1)).To(BeNil())

	for _, v := range []int{11, 12, 13, 14} {
		r.Record(v)
	}

	segs := r.Segments(1)
	g.Expect(segs).To(HaveLen(3))
	g.Expect(segs[0].Prev).To(Equal(11))
	g.Expect(segs[0].Cur).To(Equal(12))
	g.Expect(segs[2].Cur).To(Equal(14))
	g.Expect(segs[0].Weight).To(BeNumerically("~", 1.0/4, 1e-12))
	g.Expect(segs[2].Weight).To(BeNumerically("~", 3.0/4, 1e-12))

	faded := r.Segments(2)
	for i := range segs {
		g.Expect(faded[i].Weight).To(BeNumerically("~", segs[i].Weight/2, 1e-12))
	}
}

func TestMap(t *testing.T) {
	g := NewWithT(t)

	r := NewRing[int](2)
	r.Record(1)
	r.Record(2)
	r.Record(3)
	g.Expect(Map(r, func(v int) float64 { return float64(v) / 2 })).To(Equal([]float64{1, 1.5}))
}

func TestTrailProjection(t *testing.T) {
	g := NewWithT(t)

	r := NewRing[[2]int](3)
	r.Record([2]int{1, 10})
	r.Record([2]int{2, 20})
	r.Record([2]int{3, 30})

	segs := Trail(r, 2, func(p [2]int) int { return p[1] })
	g.Expect(segs).To(HaveLen(2))
	g.Expect(segs[1].Prev).To(Equal(20))
	g.Expect(segs[1].Cur).To(Equal(30))
	g.Expect(segs[1].Weight).To(BeNumerically("~", 2.0/6, 1e-12))
}
