package staging

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DoubleBuffer", func() {
	Context("with explicit commit", func() {
		var d *DoubleBuffer[int8]

		BeforeEach(func() {
			d = NewDoubleBuffer[int8]("B", 16, CommitExplicit)
		})

		fill := func(n int, base int8) {
			Expect(d.ClaimFill(n)).To(BeTrue())
			for i := 0; i < n-1; i++ {
				Expect(d.FillWrite(base + int8(i))).To(BeFalse())
			}
			Expect(d.FillWrite(base + int8(n-1))).To(BeTrue())
		}

		It("should walk one bank through its full lifecycle", func() {
			Expect(d.BankState(0)).To(Equal(BankEmpty))

			Expect(d.ClaimFill(4)).To(BeTrue())
			Expect(d.BankState(0)).To(Equal(BankFilling))

			fillDone := false
			for _, w := range []int8{1, 2, 3, 4} {
				fillDone = d.FillWrite(w)
			}
			Expect(fillDone).To(BeTrue())
			Expect(d.BankState(0)).To(Equal(BankFull))

			Expect(d.ClaimDrain(0)).To(BeTrue())
			Expect(d.BankState(0)).To(Equal(BankActive))

			w, released := d.ReadAt(2)
			Expect(w).To(Equal(int8(3)))
			Expect(released).To(BeFalse())

			Expect(d.Release()).To(BeTrue())
			Expect(d.BankState(0)).To(Equal(BankEmpty))
		})

		It("should treat a repeated release as a no-op", func() {
			fill(4, 0)
			Expect(d.ClaimDrain(0)).To(BeTrue())

			Expect(d.Release()).To(BeTrue())
			Expect(d.Release()).To(BeFalse())
		})

		It("should allow one bank to fill while the other drains", func() {
			fill(4, 10)
			Expect(d.ClaimDrain(0)).To(BeTrue())

			Expect(d.ClaimFill(4)).To(BeTrue())
			Expect(d.BankState(0)).To(Equal(BankActive))
			Expect(d.BankState(1)).To(Equal(BankFilling))
		})

		It("should refuse a second concurrent fill or drain", func() {
			Expect(d.ClaimFill(4)).To(BeTrue())
			Expect(d.ClaimFill(4)).To(BeFalse())

			for i := 0; i < 4; i++ {
				d.FillWrite(int8(i))
			}
			fill(4, 20)

			Expect(d.ClaimDrain(0)).To(BeTrue())
			Expect(d.ClaimDrain(0)).To(BeFalse())
		})

		It("should fail the fill claim when no bank is empty", func() {
			fill(4, 0)
			fill(4, 4)

			Expect(d.ClaimFill(4)).To(BeFalse())
		})

		It("should drain full banks oldest first", func() {
			fill(2, 40) // bank 0
			fill(2, 50) // bank 1

			Expect(d.ClaimDrain(0)).To(BeTrue())
			w, _ := d.ReadAt(0)
			Expect(w).To(Equal(int8(40)))
			d.Release()

			Expect(d.ClaimDrain(0)).To(BeTrue())
			w, _ = d.ReadAt(0)
			Expect(w).To(Equal(int8(50)))
		})

		It("should reject oversized fills", func() {
			Expect(func() { d.ClaimFill(17) }).To(Panic())
		})
	})

	Context("with counted commit", func() {
		var d *DoubleBuffer[int32]

		BeforeEach(func() {
			d = NewDoubleBuffer[int32]("C", 64, CommitCounted)
		})

		It("should release automatically after the counted reads", func() {
			Expect(d.ClaimFill(64)).To(BeTrue())
			for i := 0; i < 64; i++ {
				d.FillWrite(int32(i * i))
			}

			Expect(d.ClaimDrain(3)).To(BeTrue())

			_, released := d.ReadAt(0)
			Expect(released).To(BeFalse())
			_, released = d.ReadAt(8)
			Expect(released).To(BeFalse())

			w, released := d.ReadAt(9)
			Expect(w).To(Equal(int32(81)))
			Expect(released).To(BeTrue())
			Expect(d.BankState(0)).To(Equal(BankEmpty))
		})

		It("should require a read budget", func() {
			Expect(d.ClaimFill(1)).To(BeTrue())
			d.FillWrite(7)

			Expect(func() { d.ClaimDrain(0) }).To(Panic())
		})
	})
})
