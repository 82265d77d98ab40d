package xfer

import (
	"github.com/sarchlab/akita/v4/mem/mem"
	"github.com/sarchlab/akita/v4/sim"
)

// A Reader streams one split read transfer from external memory. It issues
// one burst at a time under a request/ready handshake (a refused send is
// retried the next tick) and hands every returned byte to the sink in
// address order.
type Reader struct {
	port sim.Port
	mem  sim.RemotePort

	bursts      []Burst
	next        int
	outstanding string
	sink        func(b byte)
	busy        bool
}

// NewReader creates a reader that talks to the memory port mem through the
// local port.
func NewReader(port sim.Port, mem sim.RemotePort) *Reader {
	return &Reader{port: port, mem: mem}
}

// Begin arms the reader for a transfer of totalBytes starting at base. A
// zero-length transfer completes immediately with no request issued.
func (r *Reader) Begin(base uint64, totalBytes, maxBurst int, sink func(byte)) {
	if r.busy {
		panic("reader restarted while a transfer is in flight")
	}

	r.bursts = Split(base, totalBytes, maxBurst)
	r.next = 0
	r.outstanding = ""
	r.sink = sink
	r.busy = len(r.bursts) > 0
}

// Done reports whether the armed transfer has fully completed.
func (r *Reader) Done() bool {
	return !r.busy
}

// Tick issues the next burst request when the channel is ready for one.
func (r *Reader) Tick() (madeProgress bool) {
	if !r.busy || r.outstanding != "" {
		return false
	}

	b := r.bursts[r.next]
	req := mem.ReadReqBuilder{}.
		WithSrc(r.port.AsRemote()).
		WithDst(r.mem).
		WithAddress(b.Addr).
		WithByteSize(uint64(b.Length)).
		Build()

	if err := r.port.Send(req); err != nil {
		return false
	}

	r.outstanding = req.ID

	return true
}

// Accept consumes a data response belonging to the outstanding burst,
// streaming its bytes to the sink. Returns false for messages that are not
// for this reader.
func (r *Reader) Accept(msg sim.Msg) bool {
	rsp, ok := msg.(*mem.DataReadyRsp)
	if !ok || rsp.RespondTo != r.outstanding {
		return false
	}

	for _, b := range rsp.Data {
		r.sink(b)
	}

	r.outstanding = ""
	r.next++
	if r.next == len(r.bursts) {
		r.busy = false
	}

	return true
}
