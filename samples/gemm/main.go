package main

import (
	"fmt"
	"math/rand"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/tensile/api"
	"github.com/sarchlab/tensile/config"
	"github.com/sarchlab/tensile/gemm"
)

const (
	n = 16
	k = 16
	m = 16

	aBase = 0x1000
	bBase = 0x2000
	cBase = 0x3000
)

func refProduct(a, b []int8) []int32 {
	c := make([]int32, n*m)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			var sum int32
			for x := 0; x < k; x++ {
				sum += int32(a[i*k+x]) * int32(b[x*m+j])
			}
			c[i*m+j] = sum
		}
	}

	return c
}

func main() {
	engine := sim.NewSerialEngine()

	platform := config.MakePlatformBuilder().
		WithEngine(engine).
		Build("Platform")

	driver := api.DriverBuilder{}.
		WithEngine(engine).
		Build()
	driver.RegisterDevice(platform.Device)
	driver.RegisterMemory(platform.Memory.Storage)

	rng := rand.New(rand.NewSource(1))
	a := make([]int8, n*k)
	b := make([]int8, k*m)
	for i := range a {
		a[i] = int8(rng.Intn(256) - 128)
	}
	for i := range b {
		b[i] = int8(rng.Intn(256) - 128)
	}

	if err := driver.LoadInt8(aBase, k, n, k, a); err != nil {
		panic(err)
	}
	if err := driver.LoadInt8(bBase, m, k, m, b); err != nil {
		panic(err)
	}

	job := gemm.Job{
		N: n, K: k, M: m,
		BlockWidth: 8,
		UpdateA:    true,
		ABase:      aBase, BBase: bBase, CBase: cBase,
		AStride: k, BStride: m, CStride: m * 4,
	}

	if err := driver.RunJob(job); err != nil {
		panic(err)
	}

	fmt.Println(platform.Device.StateTable())

	got, err := driver.ReadInt32(cBase, m*4, n, m)
	if err != nil {
		panic(err)
	}

	want := refProduct(a, b)
	mismatches := 0
	for i := range want {
		if got[i] != want[i] {
			mismatches++
		}
	}

	if mismatches > 0 {
		fmt.Printf("FAILED: %d of %d results differ\n", mismatches, len(want))
		atexit.Exit(1)
	}

	fmt.Printf("PASSED: %dx%dx%d product verified in %.0f cycles\n",
		n, k, m, float64(engine.CurrentTime()*1e9))
	atexit.Exit(0)
}
