package api

import (
	"errors"

	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/mem/mem"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tensile/gemm"
)

var _ = Describe("Driver", func() {
	var (
		mockCtrl   *gomock.Controller
		mockDevice *MockDevice
		driver     *driverImpl
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		mockDevice = NewMockDevice(mockCtrl)

		driver = &driverImpl{
			engine:  sim.NewSerialEngine(),
			device:  mockDevice,
			storage: mem.NewStorage(1 << 16),
		}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should load and read back through memory", func() {
		data := []int8{1, -2, 3, -4, 5, -6}

		err := driver.LoadInt8(0x100, 16, 2, 3, data)
		Expect(err).To(BeNil())

		row0, err := driver.storage.Read(0x100, 3)
		Expect(err).To(BeNil())
		Expect(row0).To(Equal([]byte{1, 0xfe, 3}))

		row1, err := driver.storage.Read(0x110, 3)
		Expect(err).To(BeNil())
		Expect(row1).To(Equal([]byte{0xfc, 5, 0xfa}))
	})

	It("should reject a load with the wrong element count", func() {
		err := driver.LoadInt8(0x100, 16, 2, 3, []int8{1, 2})
		Expect(err).NotTo(BeNil())
	})

	It("should read strided 32-bit words", func() {
		err := driver.storage.Write(0x200,
			[]byte{1, 0, 0, 0, 0xff, 0xff, 0xff, 0xff})
		Expect(err).To(BeNil())
		err = driver.storage.Write(0x220, []byte{2, 1, 0, 0, 3, 0, 0, 0})
		Expect(err).To(BeNil())

		out, err := driver.ReadInt32(0x200, 0x20, 2, 2)
		Expect(err).To(BeNil())
		Expect(out).To(Equal([]int32{1, -1, 258, 3}))
	})

	It("should run a job to completion", func() {
		job := gemm.Job{N: 8, K: 8, M: 8, BlockWidth: 8, UpdateA: true}

		mockDevice.EXPECT().Start(job).Return(nil)
		mockDevice.EXPECT().Done().Return(true)

		err := driver.RunJob(job)
		Expect(err).To(BeNil())
	})

	It("should propagate a start rejection", func() {
		job := gemm.Job{N: 8, K: 8, M: 8, BlockWidth: 8}

		mockDevice.EXPECT().Start(job).Return(errors.New("busy"))

		err := driver.RunJob(job)
		Expect(err).NotTo(BeNil())
	})

	It("should fail if the simulation drains before done", func() {
		job := gemm.Job{N: 8, K: 8, M: 8, BlockWidth: 8}

		mockDevice.EXPECT().Start(job).Return(nil)
		mockDevice.EXPECT().Done().Return(false)

		err := driver.RunJob(job)
		Expect(err).NotTo(BeNil())
	})
})
