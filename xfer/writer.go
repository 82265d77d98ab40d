package xfer

import (
	"github.com/sarchlab/akita/v4/mem/mem"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tensile/gemm"
)

// A Writer streams one split write transfer to external memory. A burst that
// completes with a fault response is restarted from its original address;
// the retry is invisible at the job-status boundary and there is no retry
// limit.
type Writer struct {
	port sim.Port
	mem  sim.RemotePort

	bursts      []Burst
	next        int
	outstanding string
	src         func(off, n int) []byte
	busy        bool
}

// NewWriter creates a writer that talks to the memory port mem through the
// local port.
func NewWriter(port sim.Port, mem sim.RemotePort) *Writer {
	return &Writer{port: port, mem: mem}
}

// Begin arms the writer for a transfer of totalBytes starting at base. The
// src callback supplies the payload for a burst by offset within the
// transfer; it must stay readable until Done so a faulted burst can be
// replayed. A zero-length transfer completes immediately.
func (w *Writer) Begin(
	base uint64,
	totalBytes, maxBurst int,
	src func(off, n int) []byte,
) {
	if w.busy {
		panic("writer restarted while a transfer is in flight")
	}

	w.bursts = Split(base, totalBytes, maxBurst)
	w.next = 0
	w.outstanding = ""
	w.src = src
	w.busy = len(w.bursts) > 0
}

// Done reports whether the armed transfer has fully completed.
func (w *Writer) Done() bool {
	return !w.busy
}

// Tick issues the next burst, or re-issues a faulted one, when the channel
// is ready.
func (w *Writer) Tick() (madeProgress bool) {
	if !w.busy || w.outstanding != "" {
		return false
	}

	b := w.bursts[w.next]
	off := int(b.Addr - w.bursts[0].Addr)

	req := mem.WriteReqBuilder{}.
		WithSrc(w.port.AsRemote()).
		WithDst(w.mem).
		WithAddress(b.Addr).
		WithData(w.src(off, b.Length)).
		Build()

	if err := w.port.Send(req); err != nil {
		return false
	}

	w.outstanding = req.ID

	return true
}

// Accept consumes the completion of the outstanding burst. A WriteDoneRsp
// advances to the next burst; a WriteFaultRsp rewinds so the same burst is
// reissued from its original address. Returns false for messages that are
// not for this writer.
func (w *Writer) Accept(msg sim.Msg) bool {
	switch rsp := msg.(type) {
	case *mem.WriteDoneRsp:
		if rsp.RespondTo != w.outstanding {
			return false
		}

		w.outstanding = ""
		w.next++
		if w.next == len(w.bursts) {
			w.busy = false
		}

		return true

	case *gemm.WriteFaultRsp:
		if rsp.RespondTo != w.outstanding {
			return false
		}

		w.outstanding = ""

		return true
	}

	return false
}
