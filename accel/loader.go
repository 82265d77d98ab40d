package accel

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tensile/gemm"
	"github.com/sarchlab/tensile/xfer"
)

type loaderState int

const (
	loaderIdle loaderState = iota
	loaderARow
	loaderBClaim
	loaderBRow
	loaderBPush
	loaderDone
)

func (s loaderState) Name() string {
	switch s {
	case loaderIdle:
		return "Idle"
	case loaderARow:
		return "A-Bulk"
	case loaderBClaim:
		return "B-Claim"
	case loaderBRow:
		return "B-Block"
	case loaderBPush:
		return "B-Push"
	case loaderDone:
		return "Done"
	default:
		panic("invalid loader state")
	}
}

// The loader sequencer streams operands from external memory: the full A
// matrix once per job when the update-A flag is set, then one column block
// of B per free bank. External row strides differ from the packed in-buffer
// width, so every row is a separate sub-transfer; the packed rows are
// zero-padded out to tile boundaries so edge tiles multiply against zeros.
type loaderSeq struct {
	c      *Comp
	reader *xfer.Reader

	state loaderState
	job   gemm.Job

	row      int
	aAddr    int
	block    int
	blk      gemm.BlockDesc
	padW     int
	bankFull bool
}

func (l *loaderSeq) setMemPort(remote sim.RemotePort) {
	l.reader = xfer.NewReader(l.c.loaderPort, remote)
}

func (l *loaderSeq) reset(job gemm.Job) {
	l.job = job
	l.block = 0

	if job.UpdateA {
		l.state = loaderARow
		l.row = 0
		l.beginARow(0)
		return
	}

	l.state = loaderBClaim
}

func (l *loaderSeq) terminal() bool {
	return l.state == loaderDone
}

func (l *loaderSeq) accept(msg sim.Msg) bool {
	return l.reader.Accept(msg)
}

func (l *loaderSeq) tick() bool {
	switch l.state {
	case loaderIdle, loaderDone:
		return false
	case loaderARow:
		return l.tickARow()
	case loaderBClaim:
		return l.tickBClaim()
	case loaderBRow:
		return l.tickBRow()
	case loaderBPush:
		return l.tickBPush()
	default:
		panic("invalid loader state")
	}
}

func (l *loaderSeq) beginARow(row int) {
	l.aAddr = row * l.c.aRAM.cols
	l.reader.Begin(
		l.job.ABase+uint64(row)*l.job.AStride,
		l.job.K,
		l.c.maxBurst,
		func(b byte) {
			l.c.aRAM.data[l.aAddr] = int8(b)
			l.aAddr++
		},
	)
}

func (l *loaderSeq) tickARow() bool {
	madeProgress := l.reader.Tick()

	if !l.reader.Done() {
		return madeProgress
	}

	l.row++
	if l.row < l.job.N {
		l.beginARow(l.row)
		return true
	}

	Trace("LoaderABulkDone", "Engine", l.c.Name(), "Rows", l.job.N)
	l.state = loaderBClaim

	return true
}

func (l *loaderSeq) tickBClaim() bool {
	l.blk = l.job.Block(l.block)
	l.padW = gemm.PadTo(l.blk.Width, gemm.GridDim)
	padK := gemm.PadTo(l.job.K, gemm.GridDim)

	if !l.c.bBuf.ClaimFill(padK * l.padW) {
		return false
	}

	l.bankFull = false
	l.row = 0
	l.beginBRow(0)
	l.state = loaderBRow

	return true
}

func (l *loaderSeq) beginBRow(row int) {
	l.reader.Begin(
		l.job.BBase+uint64(row)*l.job.BStride+uint64(l.blk.Col0),
		l.blk.Width,
		l.c.maxBurst,
		func(b byte) { l.fillWrite(int8(b)) },
	)
}

func (l *loaderSeq) fillWrite(v int8) {
	if l.c.bBuf.FillWrite(v) {
		l.bankFull = true
	}
}

func (l *loaderSeq) tickBRow() bool {
	madeProgress := l.reader.Tick()

	if !l.reader.Done() {
		return madeProgress
	}

	for i := l.blk.Width; i < l.padW; i++ {
		l.fillWrite(0)
	}

	l.row++
	if l.row < l.job.K {
		l.beginBRow(l.row)
		return true
	}

	padK := gemm.PadTo(l.job.K, gemm.GridDim)
	for i := 0; i < (padK-l.job.K)*l.padW; i++ {
		l.fillWrite(0)
	}

	if !l.bankFull {
		panic("loader finished a block without filling its bank")
	}

	l.state = loaderBPush

	return true
}

func (l *loaderSeq) tickBPush() bool {
	if !l.c.sched.pushBlock(l.blk) {
		return false
	}

	Trace("LoaderBlockReady",
		"Engine", l.c.Name(),
		"Col0", l.blk.Col0,
		"Width", l.blk.Width,
	)

	l.block++
	if l.block < l.job.NumBlocks() {
		l.state = loaderBClaim
	} else {
		l.state = loaderDone
	}

	return true
}
