// Package gemm defines the data model shared between the tiled matrix engine
// and its driver.
package gemm

import "fmt"

// GridDim is the edge length of the systolic compute grid. Output tiles and
// reduction segments are both bounded by it.
const GridDim = 8

// A Job is one matrix-multiply request C = A x B, where A is N x K and B is
// K x M, all elements signed 8-bit and results signed 32-bit. Base addresses
// and row strides refer to bytes of external memory. Only one job is in
// flight at a time.
type Job struct {
	N int `yaml:"n"`
	K int `yaml:"k"`
	M int `yaml:"m"`

	// BlockWidth is the number of output columns prefetched per column
	// block of operand B.
	BlockWidth int `yaml:"block_width"`

	// UpdateA asks the loader to refetch the A matrix. When clear, the A
	// staging content of the previous job is reused.
	UpdateA bool `yaml:"update_a"`

	ABase uint64 `yaml:"a_base"`
	BBase uint64 `yaml:"b_base"`
	CBase uint64 `yaml:"c_base"`

	AStride uint64 `yaml:"a_stride"`
	BStride uint64 `yaml:"b_stride"`
	CStride uint64 `yaml:"c_stride"`
}

// IsEmpty reports whether the job moves no data at all. Empty jobs complete
// immediately and are not an error.
func (j Job) IsEmpty() bool {
	return j.N == 0 || j.K == 0 || j.M == 0
}

// Validate checks the shape of the job. Zero dimensions are allowed, they
// degenerate to a no-op.
func (j Job) Validate() error {
	if j.N < 0 || j.K < 0 || j.M < 0 {
		return fmt.Errorf("negative dimension N=%d K=%d M=%d", j.N, j.K, j.M)
	}

	if j.IsEmpty() {
		return nil
	}

	if j.BlockWidth < 1 {
		return fmt.Errorf("block width must be positive, got %d", j.BlockWidth)
	}

	if j.AStride < uint64(j.K) {
		return fmt.Errorf("A row stride %d smaller than row length %d",
			j.AStride, j.K)
	}

	if j.BStride < uint64(j.M) {
		return fmt.Errorf("B row stride %d smaller than row length %d",
			j.BStride, j.M)
	}

	if j.CStride < uint64(j.M)*4 {
		return fmt.Errorf("C row stride %d smaller than row length %d",
			j.CStride, j.M*4)
	}

	return nil
}

// NumBlocks returns the number of column blocks the job is cut into.
func (j Job) NumBlocks() int {
	return CeilDiv(j.M, j.BlockWidth)
}

// NumKSegments returns the number of reduction segments per tile.
func (j Job) NumKSegments() int {
	return CeilDiv(j.K, GridDim)
}

// NumTiles returns the total number of output tiles of the job.
func (j Job) NumTiles() int {
	total := 0
	for b := 0; b < j.NumBlocks(); b++ {
		total += j.Block(b).NumTiles(j.N)
	}

	return total
}

// Block returns the descriptor of the i-th column block. The final block is
// clamped to the remaining width.
func (j Job) Block(i int) BlockDesc {
	col0 := i * j.BlockWidth
	width := j.BlockWidth
	if col0+width > j.M {
		width = j.M - col0
	}

	return BlockDesc{Col0: col0, Width: width}
}

// A BlockDesc describes one column block of operand B, the unit of prefetch.
// Blocks are visited in ascending column order.
type BlockDesc struct {
	Col0  int
	Width int
}

// NumTiles returns the number of output tiles inside the block for an
// N-row output.
func (b BlockDesc) NumTiles(n int) int {
	return CeilDiv(n, GridDim) * CeilDiv(b.Width, GridDim)
}

// Tile returns the i-th tile of the block, visited row-major: all tiles of
// one row group before moving to the next.
func (b BlockDesc) Tile(i, n int) TileDesc {
	tilesPerRow := CeilDiv(b.Width, GridDim)
	rowGroup := i / tilesPerRow
	colGroup := i % tilesPerRow

	t := TileDesc{
		Row0: rowGroup * GridDim,
		Col0: b.Col0 + colGroup*GridDim,
	}

	t.NEff = GridDim
	if t.Row0+GridDim > n {
		t.NEff = n - t.Row0
	}

	t.MEff = GridDim
	if colGroup*GridDim+GridDim > b.Width {
		t.MEff = b.Width - colGroup*GridDim
	}

	return t
}

// A TileDesc describes one output tile, at most GridDim x GridDim. Edge
// tiles carry effective extents smaller than the grid.
type TileDesc struct {
	Row0, Col0 int
	NEff, MEff int
}

func (t TileDesc) String() string {
	return fmt.Sprintf("Tile(%d,%d %dx%d)", t.Row0, t.Col0, t.NEff, t.MEff)
}

// CeilDiv divides a by b rounding up.
func CeilDiv(a, b int) int {
	return (a + b - 1) / b
}

// PadTo rounds n up to the next multiple of unit.
func PadTo(n, unit int) int {
	return CeilDiv(n, unit) * unit
}

// A Device is a tiled matrix engine as seen from the configuration
// interface: one job in flight, sticky done, error flag always clear.
type Device interface {
	Start(job Job) error
	Busy() bool
	Done() bool
	ErrFlag() bool
}
