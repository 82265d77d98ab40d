package accel

import (
	"github.com/sarchlab/tensile/gemm"
	"github.com/sarchlab/tensile/grid"
)

type computeState int

const (
	computeIdle computeState = iota
	computePopBlock
	computePrep
	computeRun
	computeWait
	computeDrainClaim
	computeDrain
	computePushTile
	computeDone
)

func (s computeState) Name() string {
	switch s {
	case computeIdle:
		return "Idle"
	case computePopBlock:
		return "Pop-Block"
	case computePrep:
		return "Prep"
	case computeRun:
		return "Run"
	case computeWait:
		return "Wait"
	case computeDrainClaim:
		return "Drain-Claim"
	case computeDrain:
		return "Drain"
	case computePushTile:
		return "Push-Tile"
	case computeDone:
		return "Done"
	default:
		panic("invalid compute state")
	}
}

// The compute sequencer walks the tiles of the active column block
// row-major, accumulating each tile over its reduction segments on the
// systolic grid and draining the finished accumulators into the result
// buffer. The grid accumulators are cleared exactly once per tile, on its
// first segment.
type computeSeq struct {
	c *Comp

	state computeState
	job   gemm.Job

	blk      gemm.BlockDesc
	padW     int
	tileIdx  int
	tile     gemm.TileDesc
	fedBanks int

	seg       int
	stepInSeg int
}

func (p *computeSeq) reset(job gemm.Job) {
	p.job = job
	p.fedBanks = 0
	p.state = computePopBlock
}

func (p *computeSeq) terminal() bool {
	return p.state == computeDone
}

func (p *computeSeq) segLen(seg int) int {
	remaining := p.job.K - seg*gemm.GridDim
	if remaining > gemm.GridDim {
		return gemm.GridDim
	}

	return remaining
}

func (p *computeSeq) tick() bool {
	switch p.state {
	case computeIdle, computeDone:
		return false
	case computePopBlock:
		return p.tickPopBlock()
	case computePrep:
		return p.tickPrep()
	case computeRun, computeWait:
		return p.tickStep()
	case computeDrainClaim:
		return p.tickDrainClaim()
	case computeDrain:
		return p.tickDrain()
	case computePushTile:
		return p.tickPushTile()
	default:
		panic("invalid compute state")
	}
}

func (p *computeSeq) tickPopBlock() bool {
	blk, ok := p.c.sched.popBlock()
	if !ok {
		return false
	}

	// The bank belonging to this block is the oldest full one.
	if !p.c.bBuf.ClaimDrain(0) {
		panic("block queued without a full operand bank")
	}

	p.blk = blk
	p.padW = gemm.PadTo(blk.Width, gemm.GridDim)
	p.tileIdx = 0
	p.state = computePrep

	return true
}

// tickPrep sets up the next tile of the block. The pass is held back while
// the ready-Tile queue is full so a finished tile can always be handed to
// the store stage.
func (p *computeSeq) tickPrep() bool {
	if p.c.sched.tilesFull() {
		return false
	}

	p.tile = p.blk.Tile(p.tileIdx, p.job.N)
	p.seg = 0
	p.stepInSeg = 0

	if !p.c.grid.StartPass(p.segLen(0), true) {
		panic("grid busy at tile start")
	}

	p.state = computeRun

	return true
}

// tickStep advances the grid one step: while in Run it feeds one column of
// A and one row of B per step, in Wait it flushes the systolic pipeline
// until the pass completes.
func (p *computeSeq) tickStep() bool {
	var aCol, bRow [grid.Dim]int8

	segLen := p.segLen(p.seg)
	if p.state == computeRun {
		k := p.seg*gemm.GridDim + p.stepInSeg
		for i := 0; i < grid.Dim; i++ {
			aCol[i] = p.c.aRAM.at(p.tile.Row0+i, k)
			bRow[i], _ = p.c.bBuf.ReadAt(
				k*p.padW + (p.tile.Col0 - p.blk.Col0) + i)
		}
	}

	done := p.c.grid.Step(aCol, bRow)

	p.stepInSeg++
	if p.state == computeRun && p.stepInSeg == segLen {
		p.state = computeWait
	}

	if !done {
		return true
	}

	p.seg++
	if p.seg < p.job.NumKSegments() {
		// Later segments accumulate onto the running sums.
		if !p.c.grid.StartPass(p.segLen(p.seg), false) {
			panic("grid busy between segments")
		}
		p.stepInSeg = 0
		p.state = computeRun

		return true
	}

	p.state = computeDrainClaim

	return true
}

func (p *computeSeq) tickDrainClaim() bool {
	if !p.c.cBuf.ClaimFill(grid.Dim * grid.Dim) {
		return false
	}

	if !p.c.grid.RequestDrain() {
		panic("grid refused drain while idle")
	}

	p.state = computeDrain

	return true
}

func (p *computeSeq) tickDrain() bool {
	val, last := p.c.grid.DrainStep()
	p.c.cBuf.FillWrite(val)

	if last {
		p.state = computePushTile
	}

	return true
}

func (p *computeSeq) tickPushTile() bool {
	if !p.c.sched.pushTile(p.tile) {
		return false
	}

	Trace("ComputeTileDone",
		"Engine", p.c.Name(),
		"Tile", p.tile.String(),
	)

	p.tileIdx++
	if p.tileIdx < p.blk.NumTiles(p.job.N) {
		p.state = computePrep
		return true
	}

	// Block exhausted: hand the operand bank back to the loader and move
	// to the next queued block.
	p.c.bBuf.Release()

	p.fedBanks++
	if p.fedBanks == p.job.NumBlocks() {
		p.state = computeDone
	} else {
		p.state = computePopBlock
	}

	return true
}
