// Package grid models the systolic compute grid of the tiled matrix engine:
// an 8x8 array of multiply-accumulate cells with skewed operand injection
// and row-major accumulator drain.
package grid

import (
	"fmt"

	"github.com/sarchlab/tensile/gemm"
)

// Dim is the edge length of the grid.
const Dim = gemm.GridDim

type gridState int

const (
	gridIdle gridState = iota
	gridRunning
	gridDraining
)

// A Grid computes, per pass, the partial dot products of one reduction
// segment across an up-to-8x8 output tile. Operand-A rows enter the left
// edge and operand-B columns the top edge; internal skew delay lines stagger
// them so that the pair destined for cell (r,c) meets there after r+c steps.
// A pass over a segment of length L completes L + 2*Dim - 2 steps after it
// starts.
type Grid struct {
	cells [Dim][Dim]macCell

	aSkew [Dim][]operand
	bSkew [Dim][]operand

	state     gridState
	segLen    int
	stepsDone int
	drainIdx  int
}

// New creates an idle grid with cleared accumulators.
func New() *Grid {
	g := &Grid{}
	for i := 1; i < Dim; i++ {
		g.aSkew[i] = make([]operand, i)
		g.bSkew[i] = make([]operand, i)
	}

	return g
}

// Idle reports whether the grid is neither running a pass nor draining.
func (g *Grid) Idle() bool {
	return g.state == gridIdle
}

// StartPass begins a pass over a reduction segment of segLen words. The
// accumulators are cleared only when clearAcc is set, which the sequencer
// requests exactly once per tile, on its first segment; later segments add
// onto the running sums. Returns false if the grid is busy.
func (g *Grid) StartPass(segLen int, clearAcc bool) bool {
	if g.state != gridIdle {
		return false
	}

	if segLen < 1 || segLen > Dim {
		panic(fmt.Sprintf("segment length %d out of range", segLen))
	}

	for r := 0; r < Dim; r++ {
		for c := 0; c < Dim; c++ {
			if clearAcc {
				g.cells[r][c].clear()
			}
			g.cells[r][c].a = operand{}
			g.cells[r][c].b = operand{}
		}
	}

	for i := 1; i < Dim; i++ {
		for j := range g.aSkew[i] {
			g.aSkew[i][j] = operand{}
			g.bSkew[i][j] = operand{}
		}
	}

	g.segLen = segLen
	g.stepsDone = 0
	g.state = gridRunning

	return true
}

// Step advances the grid by one step of the current pass. For the first
// segLen steps the caller supplies one column of A and one row of B; later
// steps only flush the pipeline and ignore the arguments. The return value
// pulses true exactly once, on the step that completes the pass.
func (g *Grid) Step(aCol, bRow [Dim]int8) (done bool) {
	if g.state != gridRunning {
		panic("grid stepped while no pass is running")
	}

	injValid := g.stepsDone < g.segLen

	g.shift(aCol, bRow, injValid)

	for r := 0; r < Dim; r++ {
		for c := 0; c < Dim; c++ {
			g.cells[r][c].mac()
		}
	}

	g.stepsDone++
	if g.stepsDone == g.segLen+2*Dim-2 {
		g.state = gridIdle
		return true
	}

	return false
}

// shift moves every operand register one cell downstream and feeds the grid
// edges from the skew delay lines.
func (g *Grid) shift(aCol, bRow [Dim]int8, injValid bool) {
	aEdge := [Dim]operand{}
	bEdge := [Dim]operand{}

	for i := 0; i < Dim; i++ {
		aIn := operand{val: aCol[i], valid: injValid}
		bIn := operand{val: bRow[i], valid: injValid}

		if i == 0 {
			aEdge[0] = aIn
			bEdge[0] = bIn
			continue
		}

		aEdge[i] = pushSkew(g.aSkew[i], aIn)
		bEdge[i] = pushSkew(g.bSkew[i], bIn)
	}

	for r := Dim - 1; r >= 0; r-- {
		for c := Dim - 1; c >= 0; c-- {
			a := aEdge[r]
			if c > 0 {
				a = g.cells[r][c-1].a
			}

			b := bEdge[c]
			if r > 0 {
				b = g.cells[r-1][c].b
			}

			g.cells[r][c].latch(a, b)
		}
	}
}

// pushSkew advances one delay line: the oldest entry leaves toward the grid
// edge while in enters at the back.
func pushSkew(line []operand, in operand) (out operand) {
	out = line[len(line)-1]
	for i := len(line) - 1; i > 0; i-- {
		line[i] = line[i-1]
	}
	line[0] = in

	return out
}

// RequestDrain arms the accumulator read-out. It is accepted only while the
// grid is idle, and only one drain may be outstanding.
func (g *Grid) RequestDrain() bool {
	if g.state != gridIdle {
		return false
	}

	g.drainIdx = 0
	g.state = gridDraining

	return true
}

// DrainStep streams out one of the 64 accumulators per call, row-major. The
// last flag is set on the final word, after which the grid is idle again.
func (g *Grid) DrainStep() (val int32, last bool) {
	if g.state != gridDraining {
		panic("drain step without an outstanding drain request")
	}

	val = g.cells[g.drainIdx/Dim][g.drainIdx%Dim].acc
	g.drainIdx++

	if g.drainIdx == Dim*Dim {
		g.state = gridIdle
		return val, true
	}

	return val, false
}

// Acc exposes one accumulator for inspection. Diagnostics only.
func (g *Grid) Acc(row, col int) int32 {
	return g.cells[row][col].acc
}
