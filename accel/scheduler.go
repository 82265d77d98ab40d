package accel

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tensile/gemm"
)

// The tile scheduler owns the two bounded ready queues between the pipeline
// stages: ready-Block carries column-block descriptors from the loader to
// the compute sequencer, ready-Tile carries finished-tile descriptors from
// compute to store. Entries are consumed exactly once, in FIFO order; a push
// against a full queue is deferred by the producer, never dropped.
type scheduler struct {
	readyBlocks sim.Buffer
	readyTiles  sim.Buffer

	stats QueueStats
}

// QueueStats counts the ready queue traffic of one job, including the
// high-water marks of both queues.
type QueueStats struct {
	BlockPushes, BlockPops int
	TilePushes, TilePops   int
	MaxBlocks, MaxTiles    int
}

func newScheduler(name string, depth int) *scheduler {
	return &scheduler{
		readyBlocks: sim.NewBuffer(name+".ReadyBlocks", depth),
		readyTiles:  sim.NewBuffer(name+".ReadyTiles", depth),
	}
}

func (s *scheduler) resetStats() {
	s.stats = QueueStats{}
}

func (s *scheduler) pushBlock(b gemm.BlockDesc) bool {
	if !s.readyBlocks.CanPush() {
		return false
	}

	s.readyBlocks.Push(b)

	s.stats.BlockPushes++
	if s.readyBlocks.Size() > s.stats.MaxBlocks {
		s.stats.MaxBlocks = s.readyBlocks.Size()
	}

	return true
}

func (s *scheduler) popBlock() (gemm.BlockDesc, bool) {
	item := s.readyBlocks.Pop()
	if item == nil {
		return gemm.BlockDesc{}, false
	}

	s.stats.BlockPops++

	return item.(gemm.BlockDesc), true
}

func (s *scheduler) tilesFull() bool {
	return !s.readyTiles.CanPush()
}

func (s *scheduler) pushTile(t gemm.TileDesc) bool {
	if !s.readyTiles.CanPush() {
		return false
	}

	s.readyTiles.Push(t)

	s.stats.TilePushes++
	if s.readyTiles.Size() > s.stats.MaxTiles {
		s.stats.MaxTiles = s.readyTiles.Size()
	}

	return true
}

func (s *scheduler) peekTile() (gemm.TileDesc, bool) {
	item := s.readyTiles.Peek()
	if item == nil {
		return gemm.TileDesc{}, false
	}

	return item.(gemm.TileDesc), true
}

func (s *scheduler) popTile() (gemm.TileDesc, bool) {
	item := s.readyTiles.Pop()
	if item == nil {
		return gemm.TileDesc{}, false
	}

	s.stats.TilePops++

	return item.(gemm.TileDesc), true
}

// empty reports whether both queues have drained. Part of the job
// completion condition.
func (s *scheduler) empty() bool {
	return s.readyBlocks.Size() == 0 && s.readyTiles.Size() == 0
}
