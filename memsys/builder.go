package memsys

import (
	"github.com/sarchlab/akita/v4/mem/mem"
	"github.com/sarchlab/akita/v4/sim"
)

// A Builder can create memory controllers.
type Builder struct {
	engine   sim.Engine
	freq     sim.Freq
	latency  int
	capacity uint64
}

// MakeBuilder creates a builder with reasonable defaults.
func MakeBuilder() Builder {
	return Builder{
		freq:     1 * sim.GHz,
		latency:  8,
		capacity: 1 << 20,
	}
}

// WithEngine sets the engine that drives the controller.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the controller.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithLatency sets the access latency in cycles.
func (b Builder) WithLatency(latency int) Builder {
	b.latency = latency
	return b
}

// WithCapacity sets the storage size in bytes.
func (b Builder) WithCapacity(capacity uint64) Builder {
	b.capacity = capacity
	return b
}

// Build creates a memory controller.
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		Storage: mem.NewStorage(b.capacity),
		latency: b.latency,
	}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	c.topPort = sim.NewPort(c, 16, 16, name+".Top")
	c.AddPort("Top", c.topPort)

	return c
}
