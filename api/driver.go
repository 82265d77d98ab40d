// Package api defines the driver API for the matrix engine.
package api

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tensile/gemm"
)

// Driver provides the interface to control a matrix engine.
type Driver interface {
	// RegisterDevice registers the engine the driver controls.
	RegisterDevice(device gemm.Device)

	// RegisterMemory registers the external memory backing the engine.
	RegisterMemory(storage *mem.Storage)

	// LoadInt8 writes a rows-by-cols signed byte matrix into memory
	// row-major. The stride is the distance between row starts, in bytes.
	LoadInt8(base, stride uint64, rows, cols int, data []int8) error

	// ReadInt32 reads back a rows-by-cols matrix of little-endian 32-bit
	// words, row-major with the given row stride in bytes.
	ReadInt32(base, stride uint64, rows, cols int) ([]int32, error)

	// RunJob latches the job on the engine and runs the simulation until
	// the engine raises done.
	RunJob(job gemm.Job) error
}

type driverImpl struct {
	engine  sim.Engine
	device  gemm.Device
	storage *mem.Storage
}

func (d *driverImpl) RegisterDevice(device gemm.Device) {
	d.device = device
}

func (d *driverImpl) RegisterMemory(storage *mem.Storage) {
	d.storage = storage
}

func (d *driverImpl) LoadInt8(
	base, stride uint64,
	rows, cols int,
	data []int8,
) error {
	if len(data) != rows*cols {
		return fmt.Errorf("matrix is %dx%d but %d values given",
			rows, cols, len(data))
	}

	row := make([]byte, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			row[c] = byte(data[r*cols+c])
		}

		err := d.storage.Write(base+uint64(r)*stride, row)
		if err != nil {
			return err
		}
	}

	return nil
}

func (d *driverImpl) ReadInt32(
	base, stride uint64,
	rows, cols int,
) ([]int32, error) {
	out := make([]int32, 0, rows*cols)

	for r := 0; r < rows; r++ {
		row, err := d.storage.Read(base+uint64(r)*stride, uint64(cols*4))
		if err != nil {
			return nil, err
		}

		for c := 0; c < cols; c++ {
			out = append(out,
				int32(binary.LittleEndian.Uint32(row[c*4:])))
		}
	}

	return out, nil
}

func (d *driverImpl) RunJob(job gemm.Job) error {
	if err := d.device.Start(job); err != nil {
		return err
	}

	if err := d.engine.Run(); err != nil {
		return err
	}

	if !d.device.Done() {
		return fmt.Errorf("simulation drained but the job never finished")
	}

	return nil
}
