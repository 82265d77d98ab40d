package grid

// operand is one systolic wire value: a byte of A or B plus its validity.
type operand struct {
	val   int8
	valid bool
}

// A macCell is one multiply-accumulate cell of the compute grid. It holds a
// signed 32-bit accumulator and the operand registers of the systolic
// pipeline. Accumulation is plain int8 x int8 -> int32 without saturation;
// the accumulator wraps on overflow, which cannot happen for realistic
// reduction lengths.
type macCell struct {
	acc int32
	a   operand
	b   operand
}

func (c *macCell) clear() {
	c.acc = 0
}

// latch loads the operand registers arriving from the left and top
// neighbors. The previous contents have already been forwarded downstream.
func (c *macCell) latch(a, b operand) {
	c.a = a
	c.b = b
}

// mac accumulates when both operand registers carry valid data in the same
// step.
func (c *macCell) mac() {
	if c.a.valid && c.b.valid {
		c.acc += int32(c.a.val) * int32(c.b.val)
	}
}
