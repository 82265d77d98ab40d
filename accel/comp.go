// Package accel implements the tiled INT8 matrix-multiply engine: a CSR
// front end, three cooperating pipeline sequencers (loader, compute, store)
// coordinated through two bounded ready queues, the staging buffers, and the
// systolic compute grid. The three hardware state machines advance one
// transition each per tick of a single component, in reverse dataflow order,
// so the level-sensitive handshakes between them are re-evaluated every
// cycle.
package accel

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tensile/gemm"
	"github.com/sarchlab/tensile/grid"
	"github.com/sarchlab/tensile/staging"
)

// aStaging is the persistent staging RAM for operand A. It holds the full
// matrix row-major, padded to tile boundaries with zeros so that edge tiles
// read zero contributions.
type aStaging struct {
	data       []int8
	rows, cols int
}

func (a *aStaging) at(row, col int) int8 {
	return a.data[row*a.cols+col]
}

// Comp is the matrix engine device.
type Comp struct {
	*sim.TickingComponent

	loaderPort sim.Port
	storePort  sim.Port

	maxBurst  int
	bankDepth int

	csr csrState

	sched *scheduler

	aRAM aStaging
	bBuf *staging.DoubleBuffer[int8]
	cBuf *staging.DoubleBuffer[int32]
	grid *grid.Grid

	loader  loaderSeq
	compute computeSeq
	store   storeSeq
}

// LoaderPort returns the read master port of the engine.
func (c *Comp) LoaderPort() sim.Port {
	return c.loaderPort
}

// StorePort returns the write master port of the engine.
func (c *Comp) StorePort() sim.Port {
	return c.storePort
}

// SetMemPort points both memory masters at the external memory port.
func (c *Comp) SetMemPort(remote sim.RemotePort) {
	c.loader.setMemPort(remote)
	c.store.setMemPort(remote)
}

// Tick advances the engine by one cycle: route memory responses, then step
// the three sequencers in reverse dataflow order so each sees the queue and
// bank events of the same cycle exactly once.
func (c *Comp) Tick() bool {
	madeProgress := c.routeResponses(c.loaderPort, c.loader.accept)
	madeProgress = c.routeResponses(c.storePort, c.store.accept) || madeProgress

	madeProgress = c.store.tick() || madeProgress
	madeProgress = c.compute.tick() || madeProgress
	madeProgress = c.loader.tick() || madeProgress

	madeProgress = c.updateStatus() || madeProgress

	return madeProgress
}

func (c *Comp) routeResponses(
	port sim.Port,
	accept func(msg sim.Msg) bool,
) bool {
	madeProgress := false

	for {
		msg := port.PeekIncoming()
		if msg == nil {
			break
		}

		if !accept(msg) {
			panic(fmt.Sprintf("%s: unexpected msg %T on %s",
				c.Name(), msg, port.Name()))
		}

		port.RetrieveIncoming()
		madeProgress = true
	}

	return madeProgress
}

// prepareJob readies the staging RAM and the sequencers for a latched job.
func (c *Comp) prepareJob(job gemm.Job) error {
	rows := gemm.PadTo(job.N, gemm.GridDim)
	cols := gemm.PadTo(job.K, gemm.GridDim)

	if job.UpdateA {
		c.aRAM = aStaging{
			data: make([]int8, rows*cols),
			rows: rows,
			cols: cols,
		}
	} else if c.aRAM.rows != rows || c.aRAM.cols != cols {
		return fmt.Errorf(
			"staged A is %dx%d but the job needs %dx%d and update-A is clear",
			c.aRAM.rows, c.aRAM.cols, rows, cols)
	}

	fillWords := gemm.PadTo(job.K, gemm.GridDim) *
		gemm.PadTo(minInt(job.BlockWidth, job.M), gemm.GridDim)
	if fillWords > c.bankDepth {
		return fmt.Errorf("column block needs %d words, bank depth is %d",
			fillWords, c.bankDepth)
	}

	c.sched.resetStats()
	c.loader.reset(job)
	c.compute.reset(job)
	c.store.reset(job)

	return nil
}

// QueueStats returns the ready queue traffic of the current or last job.
func (c *Comp) QueueStats() QueueStats {
	return c.sched.stats
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
