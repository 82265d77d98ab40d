// Package memsys models the external linear memory the matrix engine
// streams operands from and results to: a flat byte-addressable storage
// behind a fixed-latency, in-order controller. No caching or cross-burst
// reordering is modeled.
package memsys

import (
	"log"
	"reflect"

	"github.com/sarchlab/akita/v4/mem/mem"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tensile/gemm"
)

type txn struct {
	isRead    bool
	addr      uint64
	size      uint64
	data      []byte
	remaining int
	src       sim.RemotePort
	rspTo     string
}

// Comp is the memory controller component.
type Comp struct {
	*sim.TickingComponent

	topPort sim.Port

	// Storage backs the linear address space.
	Storage *mem.Storage

	latency int

	// WriteFault, when set, is consulted per write burst; returning true
	// makes the burst complete with a fault response and leave the
	// storage untouched. Used by tests to exercise the retry path.
	WriteFault func(addr uint64) bool

	// Observer, when set, sees every completed access in completion
	// order. Used by tests to check write-back ordering.
	Observer func(isWrite bool, addr uint64, data []byte)

	inflight []txn
}

// TopPort returns the port the engine's memory masters connect to.
func (c *Comp) TopPort() sim.Port {
	return c.topPort
}

// Tick advances in-flight transactions, responds to the finished ones, and
// accepts new requests.
func (c *Comp) Tick() bool {
	madeProgress := c.respond()
	madeProgress = c.takeNewReqs() || madeProgress

	return madeProgress
}

func (c *Comp) takeNewReqs() bool {
	madeProgress := false

	for {
		msg := c.topPort.PeekIncoming()
		if msg == nil {
			break
		}

		switch req := msg.(type) {
		case *mem.ReadReq:
			c.inflight = append(c.inflight, txn{
				isRead:    true,
				addr:      req.Address,
				size:      req.AccessByteSize,
				remaining: c.latency,
				src:       req.Src,
				rspTo:     req.ID,
			})
		case *mem.WriteReq:
			data := make([]byte, len(req.Data))
			copy(data, req.Data)
			c.inflight = append(c.inflight, txn{
				addr:      req.Address,
				data:      data,
				remaining: c.latency,
				src:       req.Src,
				rspTo:     req.ID,
			})
		default:
			log.Panicf("memsys: unsupported msg %s", reflect.TypeOf(msg))
		}

		c.topPort.RetrieveIncoming()
		madeProgress = true
	}

	return madeProgress
}

func (c *Comp) respond() bool {
	madeProgress := false

	for i := range c.inflight {
		if c.inflight[i].remaining > 0 {
			c.inflight[i].remaining--
			madeProgress = true
		}
	}

	// In-order completion: only the head may respond.
	for len(c.inflight) > 0 {
		t := c.inflight[0]
		if t.remaining > 0 {
			break
		}

		if !c.respondOne(t) {
			break
		}

		c.inflight = c.inflight[1:]
		madeProgress = true
	}

	return madeProgress
}

func (c *Comp) respondOne(t txn) bool {
	if t.isRead {
		data, err := c.Storage.Read(t.addr, t.size)
		if err != nil {
			panic(err)
		}

		rsp := mem.DataReadyRspBuilder{}.
			WithSrc(c.topPort.AsRemote()).
			WithDst(t.src).
			WithRspTo(t.rspTo).
			WithData(data).
			Build()
		if err := c.topPort.Send(rsp); err != nil {
			return false
		}

		if c.Observer != nil {
			c.Observer(false, t.addr, data)
		}

		return true
	}

	if c.WriteFault != nil && c.WriteFault(t.addr) {
		rsp := gemm.WriteFaultRspBuilder{}.
			WithSrc(c.topPort.AsRemote()).
			WithDst(t.src).
			WithRspTo(t.rspTo).
			Build()

		return c.topPort.Send(rsp) == nil
	}

	rsp := mem.WriteDoneRspBuilder{}.
		WithSrc(c.topPort.AsRemote()).
		WithDst(t.src).
		WithRspTo(t.rspTo).
		Build()
	if err := c.topPort.Send(rsp); err != nil {
		return false
	}

	if err := c.Storage.Write(t.addr, t.data); err != nil {
		panic(err)
	}

	if c.Observer != nil {
		c.Observer(true, t.addr, t.data)
	}

	return true
}
