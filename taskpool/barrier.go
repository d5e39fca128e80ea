package taskpool

import (
	"errors"
	"fmt"
	"sync"
)

// ErrBrokenBarrier is the panic value raised by Barrier.Await when the
// barrier has been broken while or before waiting on it.
var ErrBrokenBarrier = errors.New("taskpool: broken barrier")

/*
A Barrier is a reusable synchronization point for a fixed number of
parties. Each party calls Await, and no call to Await returns before
all parties have called it. Afterwards, the barrier is immediately
ready for the next phase.

A Barrier can be broken, which releases all parties currently waiting
on it, and makes all future calls to Await fail. This is how a pool
releases the peers of a worker that panicked in the middle of a task.

The zero Barrier is not valid. A Barrier must not be copied after
first use.
*/
type Barrier struct {
	mutex      sync.Mutex
	cond       sync.Cond
	parties    int
	waiting    int
	generation uint64
	broken     bool
}

// NewBarrier returns a barrier for the given number of parties.
//
// NewBarrier panics if parties < 1.
func NewBarrier(parties int) *Barrier {
	b := new(Barrier)
	b.init(parties)
	return b
}

func (b *Barrier) init(parties int) {
	if parties < 1 {
		panic(fmt.Sprintf("invalid number of parties: %v", parties))
	}
	b.parties = parties
	b.cond.L = &b.mutex
}

// Parties returns the number of parties that need to call Await before
// any of them is released.
func (b *Barrier) Parties() int {
	return b.parties
}

/*
Await blocks until all parties of the barrier have called Await for
the current phase.

Await panics with ErrBrokenBarrier if the barrier is broken before
the current phase completes. Memory writes performed by any party
before calling Await are visible to all parties after Await returns.
*/
func (b *Barrier) Await() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.broken {
		panic(ErrBrokenBarrier)
	}
	generation := b.generation
	b.waiting++
	if b.waiting == b.parties {
		b.waiting = 0
		b.generation++
		b.cond.Broadcast()
		return
	}
	for (generation == b.generation) && !b.broken {
		b.cond.Wait()
	}
	if generation == b.generation {
		panic(ErrBrokenBarrier)
	}
}

// Break breaks the barrier. All parties waiting in Await are released
// with a panic, as are all parties calling Await afterwards.
func (b *Barrier) Break() {
	b.mutex.Lock()
	b.broken = true
	b.mutex.Unlock()
	b.cond.Broadcast()
}

// IsBroken reports whether Break has been called on the barrier.
func (b *Barrier) IsBroken() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.broken
}
