// Package config assembles simulated platforms out of the matrix engine and
// its external memory.
package config

import (
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/akita/v4/sim/directconnection"

	"github.com/sarchlab/tensile/accel"
	"github.com/sarchlab/tensile/memsys"
)

// A Platform is a matrix engine wired to an external memory over a pair of
// point-to-point links, one per memory master.
type Platform struct {
	Engine sim.Engine
	Device *accel.Comp
	Memory *memsys.Comp
}

// PlatformBuilder can build platforms.
type PlatformBuilder struct {
	engine     sim.Engine
	freq       sim.Freq
	memLatency int
	memCap     uint64
	bankDepth  int
	queueDepth int
	maxBurst   int
}

// MakePlatformBuilder creates a builder with default parameters.
func MakePlatformBuilder() PlatformBuilder {
	return PlatformBuilder{
		freq:       1 * sim.GHz,
		memLatency: 8,
		memCap:     1 << 20,
		bankDepth:  8192,
		queueDepth: 4,
		maxBurst:   64,
	}
}

// WithEngine sets the engine that drives the platform simulation.
func (b PlatformBuilder) WithEngine(engine sim.Engine) PlatformBuilder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of all components.
func (b PlatformBuilder) WithFreq(freq sim.Freq) PlatformBuilder {
	b.freq = freq
	return b
}

// WithMemLatency sets the access latency of the external memory, in cycles.
func (b PlatformBuilder) WithMemLatency(latency int) PlatformBuilder {
	b.memLatency = latency
	return b
}

// WithMemCapacity sets the capacity of the external memory, in bytes.
func (b PlatformBuilder) WithMemCapacity(capacity uint64) PlatformBuilder {
	b.memCap = capacity
	return b
}

// WithBankDepth sets the operand bank capacity of the matrix engine.
func (b PlatformBuilder) WithBankDepth(depth int) PlatformBuilder {
	b.bankDepth = depth
	return b
}

// WithQueueDepth sets the ready queue depth of the matrix engine.
func (b PlatformBuilder) WithQueueDepth(depth int) PlatformBuilder {
	b.queueDepth = depth
	return b
}

// WithMaxBurst sets the largest memory burst, in bytes.
func (b PlatformBuilder) WithMaxBurst(maxBurst int) PlatformBuilder {
	b.maxBurst = maxBurst
	return b
}

// Build creates the platform.
func (b PlatformBuilder) Build(name string) *Platform {
	dev := accel.MakeBuilder().
		WithEngine(b.engine).
		WithFreq(b.freq).
		WithBankDepth(b.bankDepth).
		WithQueueDepth(b.queueDepth).
		WithMaxBurst(b.maxBurst).
		Build(name + ".Engine")

	mc := memsys.MakeBuilder().
		WithEngine(b.engine).
		WithFreq(b.freq).
		WithLatency(b.memLatency).
		WithCapacity(b.memCap).
		Build(name + ".Mem")

	conn := directconnection.MakeBuilder().
		WithEngine(b.engine).
		WithFreq(b.freq).
		Build(name + ".Conn")
	conn.PlugIn(dev.LoaderPort())
	conn.PlugIn(dev.StorePort())
	conn.PlugIn(mc.TopPort())

	dev.SetMemPort(mc.TopPort().AsRemote())

	return &Platform{
		Engine: b.engine,
		Device: dev,
		Memory: mc,
	}
}
