package accel

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tensile/gemm"
	"github.com/sarchlab/tensile/grid"
	"github.com/sarchlab/tensile/staging"
)

// A Builder can create matrix engines.
type Builder struct {
	engine     sim.Engine
	freq       sim.Freq
	bankDepth  int
	queueDepth int
	maxBurst   int
}

// MakeBuilder creates a builder with the default engine geometry: depth-4
// ready queues, 8 KiB operand banks, 64-byte bursts.
func MakeBuilder() Builder {
	return Builder{
		freq:       1 * sim.GHz,
		bankDepth:  8192,
		queueDepth: 4,
		maxBurst:   64,
	}
}

// WithEngine sets the engine that drives the component.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the component.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithBankDepth sets the capacity, in operand words, of each B staging
// bank. A bank must hold one padded column block.
func (b Builder) WithBankDepth(depth int) Builder {
	b.bankDepth = depth
	return b
}

// WithQueueDepth sets the depth of the two ready queues.
func (b Builder) WithQueueDepth(depth int) Builder {
	b.queueDepth = depth
	return b
}

// WithMaxBurst sets the largest read burst, in bytes.
func (b Builder) WithMaxBurst(maxBurst int) Builder {
	b.maxBurst = maxBurst
	return b
}

// Build creates a matrix engine. The memory masters must be pointed at the
// external memory with SetMemPort before the first job starts.
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		maxBurst:  b.maxBurst,
		bankDepth: b.bankDepth,
	}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	c.loaderPort = sim.NewPort(c, 4, 4, name+".LoaderPort")
	c.AddPort("Loader", c.loaderPort)
	c.storePort = sim.NewPort(c, 4, 4, name+".StorePort")
	c.AddPort("Store", c.storePort)

	c.sched = newScheduler(name, b.queueDepth)
	c.bBuf = staging.NewDoubleBuffer[int8](
		name+".BBuf", b.bankDepth, staging.CommitExplicit)
	c.cBuf = staging.NewDoubleBuffer[int32](
		name+".CBuf", gemm.GridDim*gemm.GridDim, staging.CommitCounted)
	c.grid = grid.New()

	c.loader.c = c
	c.compute.c = c
	c.store.c = c

	return c
}
