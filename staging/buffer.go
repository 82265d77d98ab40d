// Package staging provides the two-bank ping-pong buffer used between the
// pipeline stages of the matrix engine. One bank fills while the other
// drains; ownership of a bank moves between producer and consumer only at
// the fill-done and drain-done events.
package staging

import "fmt"

// BankState is the lifecycle state of one buffer bank. A bank cycles
// Empty -> Filling -> Full -> Active -> Empty, and is never Filling and
// Active at the same time.
type BankState int

const (
	BankEmpty BankState = iota
	BankFilling
	BankFull
	BankActive
)

// Name returns the name of the state.
func (s BankState) Name() string {
	switch s {
	case BankEmpty:
		return "Empty"
	case BankFilling:
		return "Filling"
	case BankFull:
		return "Full"
	case BankActive:
		return "Active"
	default:
		panic("invalid bank state")
	}
}

// CommitMode selects how an Active bank is released: by an explicit Release
// call from the consumer-side control logic, or implicitly once a counted
// number of words have been read.
type CommitMode int

const (
	CommitExplicit CommitMode = iota
	CommitCounted
)

type bank[T any] struct {
	data  []T
	state BankState

	fillCount, fillGoal   int
	drainCount, drainGoal int

	// seq orders Full banks so drains claim them oldest first.
	seq uint64
}

// A DoubleBuffer is a generic two-bank staging store of capacity depth words
// per bank. At most one bank is Filling and at most one is Active at any
// time.
type DoubleBuffer[T any] struct {
	name  string
	depth int
	mode  CommitMode

	banks   [2]bank[T]
	filling int // bank index, -1 when none
	active  int

	nextSeq uint64
}

// NewDoubleBuffer creates a double buffer named name with the given per-bank
// capacity and commit mode.
func NewDoubleBuffer[T any](
	name string,
	depth int,
	mode CommitMode,
) *DoubleBuffer[T] {
	d := &DoubleBuffer[T]{
		name:    name,
		depth:   depth,
		mode:    mode,
		filling: -1,
		active:  -1,
	}

	for i := range d.banks {
		d.banks[i].data = make([]T, depth)
	}

	return d
}

// ClaimFill claims an Empty bank for filling with n words. It fails when no
// bank is Empty or another fill is in flight; the producer retries.
func (d *DoubleBuffer[T]) ClaimFill(n int) bool {
	if d.filling >= 0 {
		return false
	}

	if n < 1 || n > d.depth {
		panic(fmt.Sprintf("%s: fill length %d exceeds bank depth %d",
			d.name, n, d.depth))
	}

	for i := range d.banks {
		if d.banks[i].state != BankEmpty {
			continue
		}

		d.banks[i].state = BankFilling
		d.banks[i].fillCount = 0
		d.banks[i].fillGoal = n
		d.filling = i

		return true
	}

	return false
}

// FillWrite appends one word to the Filling bank. The return value pulses
// true on the write that reaches the fill length, at which point the bank
// turns Full and ownership passes to the consumer side.
func (d *DoubleBuffer[T]) FillWrite(w T) (fillDone bool) {
	if d.filling < 0 {
		panic(d.name + ": fill write without a claimed bank")
	}

	b := &d.banks[d.filling]
	b.data[b.fillCount] = w
	b.fillCount++

	if b.fillCount == b.fillGoal {
		b.state = BankFull
		b.seq = d.nextSeq
		d.nextSeq++
		d.filling = -1

		return true
	}

	return false
}

// ClaimDrain claims the oldest Full bank as Active. In counted commit mode n
// is the number of reads after which the bank releases itself; in explicit
// mode n is ignored. Fails when no bank is Full or another drain is in
// flight; the consumer retries.
func (d *DoubleBuffer[T]) ClaimDrain(n int) bool {
	if d.active >= 0 {
		return false
	}

	oldest := -1
	for i := range d.banks {
		if d.banks[i].state != BankFull {
			continue
		}
		if oldest < 0 || d.banks[i].seq < d.banks[oldest].seq {
			oldest = i
		}
	}

	if oldest < 0 {
		return false
	}

	if d.mode == CommitCounted && n < 1 {
		panic(d.name + ": counted drain needs a positive read budget")
	}

	d.banks[oldest].state = BankActive
	d.banks[oldest].drainCount = 0
	d.banks[oldest].drainGoal = n
	d.active = oldest

	return true
}

// ReadAt returns the Active bank's word at addr. In counted commit mode the
// released flag pulses true on the read that exhausts the budget, after
// which the bank is Empty again.
func (d *DoubleBuffer[T]) ReadAt(addr int) (w T, released bool) {
	if d.active < 0 {
		panic(d.name + ": read without an active bank")
	}

	b := &d.banks[d.active]
	w = b.data[addr]

	if d.mode != CommitCounted {
		return w, false
	}

	b.drainCount++
	if b.drainCount == b.drainGoal {
		b.state = BankEmpty
		d.active = -1

		return w, true
	}

	return w, false
}

// Release returns the Active bank to Empty in explicit commit mode. A
// repeated or stale release is a no-op and reports false.
func (d *DoubleBuffer[T]) Release() (drainDone bool) {
	if d.active < 0 {
		return false
	}

	d.banks[d.active].state = BankEmpty
	d.active = -1

	return true
}

// HasFull reports whether a bank is waiting to be drained.
func (d *DoubleBuffer[T]) HasFull() bool {
	for i := range d.banks {
		if d.banks[i].state == BankFull {
			return true
		}
	}

	return false
}

// BankState returns the lifecycle state of bank i. Diagnostics only.
func (d *DoubleBuffer[T]) BankState(i int) BankState {
	return d.banks[i].state
}
