package gemm

import "github.com/sarchlab/akita/v4/sim"

// WriteFaultRsp reports a non-OK completion of a write burst. The write
// master reacts by restarting the same burst from its original address; the
// fault never surfaces in the job status.
type WriteFaultRsp struct {
	sim.MsgMeta

	RespondTo string
}

// Meta returns the meta data of the msg.
func (r *WriteFaultRsp) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone duplicates the msg with a fresh ID.
func (r *WriteFaultRsp) Clone() sim.Msg {
	clone := *r
	clone.ID = sim.GetIDGenerator().Generate()

	return &clone
}

// WriteFaultRspBuilder is a factory for WriteFaultRsp.
type WriteFaultRspBuilder struct {
	src, dst sim.RemotePort
	rspTo    string
}

// WithSrc sets the source port of the msg.
func (b WriteFaultRspBuilder) WithSrc(src sim.RemotePort) WriteFaultRspBuilder {
	b.src = src
	return b
}

// WithDst sets the destination port of the msg.
func (b WriteFaultRspBuilder) WithDst(dst sim.RemotePort) WriteFaultRspBuilder {
	b.dst = dst
	return b
}

// WithRspTo sets the ID of the write request being answered.
func (b WriteFaultRspBuilder) WithRspTo(id string) WriteFaultRspBuilder {
	b.rspTo = id
	return b
}

// Build creates a WriteFaultRsp.
func (b WriteFaultRspBuilder) Build() *WriteFaultRsp {
	return &WriteFaultRsp{
		MsgMeta: sim.MsgMeta{
			ID:  sim.GetIDGenerator().Generate(),
			Src: b.src,
			Dst: b.dst,
		},
		RespondTo: b.rspTo,
	}
}
