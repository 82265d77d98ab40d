package accel

import (
	"encoding/binary"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tensile/gemm"
	"github.com/sarchlab/tensile/xfer"
)

type storeState int

const (
	storeIdle storeState = iota
	storeClaim
	storePrepRow
	storeBurst
	storeNextRow
	storeDone
)

func (s storeState) Name() string {
	switch s {
	case storeIdle:
		return "Idle"
	case storeClaim:
		return "Claim"
	case storePrepRow:
		return "Prep-Row"
	case storeBurst:
		return "Transfer"
	case storeNextRow:
		return "Next-Row"
	case storeDone:
		return "Done"
	default:
		panic("invalid store state")
	}
}

// The store sequencer drains finished tiles from the result buffer and
// writes them to external memory one row at a time, burst length m_eff
// words. Partial tiles fall out naturally from bounding the row count and
// row length. Each row is staged through a small FIFO so the buffer's read
// latency is decoupled from the transfer channel handshake.
type storeSeq struct {
	c      *Comp
	writer *xfer.Writer

	state storeState
	job   gemm.Job

	tile       gemm.TileDesc
	row        int
	rowBuf     []int32
	rowBytes   []byte
	tilesDone  int
	totalTiles int
}

func (s *storeSeq) setMemPort(remote sim.RemotePort) {
	s.writer = xfer.NewWriter(s.c.storePort, remote)
}

func (s *storeSeq) reset(job gemm.Job) {
	s.job = job
	s.tilesDone = 0
	s.totalTiles = job.NumTiles()
	s.rowBuf = make([]int32, 0, gemm.GridDim)
	s.rowBytes = make([]byte, 0, gemm.GridDim*4)
	s.state = storeClaim
}

func (s *storeSeq) terminal() bool {
	return s.state == storeDone
}

func (s *storeSeq) accept(msg sim.Msg) bool {
	return s.writer.Accept(msg)
}

func (s *storeSeq) tick() bool {
	switch s.state {
	case storeIdle, storeDone:
		return false
	case storeClaim:
		return s.tickClaim()
	case storePrepRow:
		return s.tickPrepRow()
	case storeBurst:
		return s.tickBurst()
	case storeNextRow:
		return s.tickNextRow()
	default:
		panic("invalid store state")
	}
}

func (s *storeSeq) tickClaim() bool {
	tile, ok := s.c.sched.peekTile()
	if !ok {
		return false
	}

	// Counted commit: the bank frees itself after the tile's words have
	// been read out.
	if !s.c.cBuf.ClaimDrain(tile.NEff * tile.MEff) {
		return false
	}

	s.tile, _ = s.c.sched.popTile()
	s.row = 0
	s.rowBuf = s.rowBuf[:0]
	s.state = storePrepRow

	return true
}

// tickPrepRow stages one result word per tick into the row FIFO; once the
// row is complete, it arms the write burst.
func (s *storeSeq) tickPrepRow() bool {
	col := len(s.rowBuf)
	val, _ := s.c.cBuf.ReadAt(s.row*gemm.GridDim + col)
	s.rowBuf = append(s.rowBuf, val)

	if len(s.rowBuf) < s.tile.MEff {
		return true
	}

	s.rowBytes = s.rowBytes[:0]
	for _, w := range s.rowBuf {
		s.rowBytes = binary.LittleEndian.AppendUint32(s.rowBytes, uint32(w))
	}

	addr := s.job.CBase +
		uint64(s.tile.Row0+s.row)*s.job.CStride +
		uint64(s.tile.Col0)*4

	s.writer.Begin(addr, len(s.rowBytes), len(s.rowBytes),
		func(off, n int) []byte { return s.rowBytes[off : off+n] })

	s.state = storeBurst

	return true
}

func (s *storeSeq) tickBurst() bool {
	madeProgress := s.writer.Tick()

	if !s.writer.Done() {
		return madeProgress
	}

	s.state = storeNextRow

	return true
}

func (s *storeSeq) tickNextRow() bool {
	s.row++
	s.rowBuf = s.rowBuf[:0]

	if s.row < s.tile.NEff {
		s.state = storePrepRow
		return true
	}

	Trace("StoreTileDone",
		"Engine", s.c.Name(),
		"Tile", s.tile.String(),
	)

	s.tilesDone++
	if s.tilesDone == s.totalTiles {
		s.state = storeDone
	} else {
		s.state = storeClaim
	}

	return true
}
