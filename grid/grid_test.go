package grid

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// runPass feeds one reduction segment and flushes the pipeline, returning
// the number of steps the pass took.
func runPass(g *Grid, a, b [][Dim]int8, clearAcc bool) int {
	segLen := len(a)

	Expect(g.StartPass(segLen, clearAcc)).To(BeTrue())

	steps := 0
	for {
		var aCol, bRow [Dim]int8
		if steps < segLen {
			aCol = a[steps]
			bRow = b[steps]
		}

		steps++
		if g.Step(aCol, bRow) {
			return steps
		}
	}
}

// refProduct accumulates the reference dot products for the fed segment.
func refProduct(acc *[Dim][Dim]int32, a, b [][Dim]int8) {
	for s := range a {
		for r := 0; r < Dim; r++ {
			for c := 0; c < Dim; c++ {
				acc[r][c] += int32(a[s][r]) * int32(b[s][c])
			}
		}
	}
}

func drainAll(g *Grid) [Dim * Dim]int32 {
	Expect(g.RequestDrain()).To(BeTrue())

	var out [Dim * Dim]int32
	for i := 0; ; i++ {
		val, last := g.DrainStep()
		out[i] = val
		if last {
			Expect(i).To(Equal(Dim*Dim - 1))
			break
		}
	}

	return out
}

var _ = Describe("Grid", func() {
	var g *Grid

	BeforeEach(func() {
		g = New()
	})

	makeSegment := func(segLen int, seed int8) (a, b [][Dim]int8) {
		for s := 0; s < segLen; s++ {
			var aCol, bRow [Dim]int8
			for i := 0; i < Dim; i++ {
				aCol[i] = int8(seed) + int8(s*Dim+i)
				bRow[i] = -3 * (int8(seed) + int8(s+i*2))
			}
			a = append(a, aCol)
			b = append(b, bRow)
		}
		return a, b
	}

	It("should compute one full segment and pulse done on time", func() {
		a, b := makeSegment(Dim, 1)

		steps := runPass(g, a, b, true)
		Expect(steps).To(Equal(Dim + 2*Dim - 2))

		var want [Dim][Dim]int32
		refProduct(&want, a, b)

		for r := 0; r < Dim; r++ {
			for c := 0; c < Dim; c++ {
				Expect(g.Acc(r, c)).To(Equal(want[r][c]))
			}
		}
	})

	It("should honor the pass latency for short segments", func() {
		a, b := makeSegment(3, 5)
		Expect(runPass(g, a, b, true)).To(Equal(3 + 2*Dim - 2))
	})

	It("should accumulate across segments without clearing", func() {
		a1, b1 := makeSegment(Dim, 1)
		a2, b2 := makeSegment(5, 9)

		runPass(g, a1, b1, true)
		runPass(g, a2, b2, false)

		var want [Dim][Dim]int32
		refProduct(&want, a1, b1)
		refProduct(&want, a2, b2)

		for r := 0; r < Dim; r++ {
			for c := 0; c < Dim; c++ {
				Expect(g.Acc(r, c)).To(Equal(want[r][c]))
			}
		}
	})

	It("should clear accumulators on the first segment of a new tile", func() {
		a1, b1 := makeSegment(Dim, 1)
		a2, b2 := makeSegment(Dim, 7)

		runPass(g, a1, b1, true)
		runPass(g, a2, b2, true)

		var want [Dim][Dim]int32
		refProduct(&want, a2, b2)

		for r := 0; r < Dim; r++ {
			for c := 0; c < Dim; c++ {
				Expect(g.Acc(r, c)).To(Equal(want[r][c]))
			}
		}
	})

	It("should treat zero padding as a no-op contribution", func() {
		a, b := makeSegment(Dim, 2)
		for s := range a {
			a[s][Dim-1] = 0
			b[s][Dim-2] = 0
		}

		runPass(g, a, b, true)

		for c := 0; c < Dim; c++ {
			Expect(g.Acc(Dim-1, c)).To(Equal(int32(0)))
		}
		for r := 0; r < Dim; r++ {
			Expect(g.Acc(r, Dim-2)).To(Equal(int32(0)))
		}
	})

	It("should reject a pass or drain while running", func() {
		Expect(g.StartPass(4, true)).To(BeTrue())
		Expect(g.StartPass(4, true)).To(BeFalse())
		Expect(g.RequestDrain()).To(BeFalse())
	})

	It("should drain all 64 accumulators row-major with a last flag", func() {
		a, b := makeSegment(Dim, 3)
		runPass(g, a, b, true)

		var want [Dim][Dim]int32
		refProduct(&want, a, b)

		out := drainAll(g)
		for i, v := range out {
			Expect(v).To(Equal(want[i/Dim][i%Dim]))
		}

		Expect(g.Idle()).To(BeTrue())
	})

	It("should allow only one outstanding drain", func() {
		a, b := makeSegment(2, 1)
		runPass(g, a, b, true)

		Expect(g.RequestDrain()).To(BeTrue())
		Expect(g.RequestDrain()).To(BeFalse())
	})

	It("should not let stale operands leak into the next pass", func() {
		a, b := makeSegment(Dim, 4)
		runPass(g, a, b, true)

		before := g.Acc(0, 0)

		zero := [][Dim]int8{{}}
		runPass(g, zero, zero, false)

		Expect(g.Acc(0, 0)).To(Equal(before))
	})
})
