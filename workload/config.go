// Package workload loads job descriptions from YAML files.
package workload

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/tensile/gemm"
)

// A JobSpec is the on-disk form of a job. Strides are optional: a zero
// stride defaults to the packed row length for the matrix's element size.
type JobSpec struct {
	N          int  `yaml:"n"`
	K          int  `yaml:"k"`
	M          int  `yaml:"m"`
	BlockWidth int  `yaml:"block_width"`
	UpdateA    bool `yaml:"update_a"`

	ABase uint64 `yaml:"a_base"`
	BBase uint64 `yaml:"b_base"`
	CBase uint64 `yaml:"c_base"`

	AStride uint64 `yaml:"a_stride"`
	BStride uint64 `yaml:"b_stride"`
	CStride uint64 `yaml:"c_stride"`
}

// Job converts the spec into a validated job, filling defaulted strides.
func (s JobSpec) Job() (gemm.Job, error) {
	job := gemm.Job{
		N:          s.N,
		K:          s.K,
		M:          s.M,
		BlockWidth: s.BlockWidth,
		UpdateA:    s.UpdateA,
		ABase:      s.ABase,
		BBase:      s.BBase,
		CBase:      s.CBase,
		AStride:    s.AStride,
		BStride:    s.BStride,
		CStride:    s.CStride,
	}

	if job.BlockWidth == 0 {
		job.BlockWidth = gemm.GridDim
	}
	if job.AStride == 0 {
		job.AStride = uint64(s.K)
	}
	if job.BStride == 0 {
		job.BStride = uint64(s.M)
	}
	if job.CStride == 0 {
		job.CStride = uint64(s.M) * 4
	}

	if err := job.Validate(); err != nil {
		return gemm.Job{}, err
	}

	return job, nil
}

// LoadJobs parses a YAML file holding a list of job specs.
func LoadJobs(path string) ([]gemm.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var specs []JobSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	jobs := make([]gemm.Job, 0, len(specs))
	for i, s := range specs {
		job, err := s.Job()
		if err != nil {
			return nil, fmt.Errorf("%s: job %d: %w", path, i, err)
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}
