package accel

import (
	"fmt"

	"github.com/sarchlab/tensile/gemm"
)

// csrState mirrors the register-mapped front end: the latched job plus the
// busy and sticky done bits. The error bit exists but is never set; write
// faults are retried below the job-status boundary.
type csrState struct {
	job  gemm.Job
	busy bool
	done bool
}

// Start latches a new job. It is rejected while a job is in flight; the
// sticky done bit of the previous job is cleared on acceptance. A job with a
// zero dimension degenerates to an immediate completion with no data moved.
func (c *Comp) Start(job gemm.Job) error {
	if c.csr.busy {
		return fmt.Errorf("%s: job already in flight", c.Name())
	}

	if err := job.Validate(); err != nil {
		return fmt.Errorf("%s: %w", c.Name(), err)
	}

	if job.IsEmpty() {
		c.csr.done = true
		return nil
	}

	if err := c.prepareJob(job); err != nil {
		return fmt.Errorf("%s: %w", c.Name(), err)
	}

	c.csr.done = false
	c.csr.job = job
	c.csr.busy = true

	// TickNow is a no-op once the scheduler has ticked past this instant,
	// which is the state left behind by the previous job's final tick.
	c.TickLater()

	return nil
}

// Busy reports whether a job is in flight.
func (c *Comp) Busy() bool {
	return c.csr.busy
}

// Done reports the sticky completion bit. It stays set until the next Start.
func (c *Comp) Done() bool {
	return c.csr.done
}

// ErrFlag reports the job error bit, which is always clear.
func (c *Comp) ErrFlag() bool {
	return false
}

// updateStatus raises done once all three sequencers are terminal and both
// ready queues have drained.
func (c *Comp) updateStatus() bool {
	if !c.csr.busy {
		return false
	}

	if !c.loader.terminal() || !c.compute.terminal() || !c.store.terminal() {
		return false
	}

	if !c.sched.empty() {
		return false
	}

	c.csr.busy = false
	c.csr.done = true

	Trace("JobDone",
		"Engine", c.Name(),
		"N", c.csr.job.N,
		"K", c.csr.job.K,
		"M", c.csr.job.M,
		"Time", float64(c.Engine.CurrentTime()*1e9),
	)

	return true
}
