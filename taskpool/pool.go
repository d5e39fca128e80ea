/*
Package taskpool provides a pool of workers for tasks that are each
executed by a variable number of workers.

A task declares how many workers it needs. When a task is put into a
pool, idle workers join it one by one until that quorum is reached,
and then all of them execute the task together. Tasks are admitted in
the order in which they were put into the pool: the task at the front
of the queue receives all workers that become idle until its quorum is
reached, and only then the next task is considered. Since a task never
asks for more workers than the pool has, every task eventually reaches
its quorum.

Tasks executed by a pool can put new tasks into the same pool, so
recursive algorithms can be expressed as tasks that spawn subtasks
instead of calling themselves.

A pool is used for a single computation. It is started, tasks are put
into it, and then it is driven or waited for until no work remains, at
which point its workers terminate. A pool can also be canceled, in
which case queued tasks are abandoned and workers terminate as soon as
the tasks they are currently executing are done.
*/
package taskpool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/exascience/gang/internal"
)

// ErrInvalidThreadCount is returned when a pool or an algorithm is
// configured with an unusable number of threads.
var ErrInvalidThreadCount = errors.New("invalid thread count")

/*
A Pool is a set of workers that execute tasks from a shared queue.

All bookkeeping of a pool is protected by a single lock: the queue of
tasks, the number of threads, the number of working threads, and the
finish and terminate flags. Finish means that no more work will arrive
from outside of the pool, so the workers terminate when the queue is
empty and no worker is working anymore. Terminate means that the
workers terminate without considering the queue.

The zero Pool is not valid. Use New to create pools.
*/
type Pool struct {
	mutex sync.Mutex
	cond  sync.Cond

	threads   int
	workers   int
	working   int
	finish    bool
	terminate bool
	started   bool

	queue  []*Gang
	active map[*Gang]struct{}

	panicked interface{}
	group    sync.WaitGroup
	logger   *slog.Logger
}

// New returns a pool with the given number of background workers. The
// workers are not running before Start is called. A pool with zero
// background workers is valid, and is useful when tasks are only
// executed by a goroutine that drives the pool.
//
// New returns an error wrapping ErrInvalidThreadCount if threads < 0.
func New(threads int, opts ...Option) (*Pool, error) {
	if threads < 0 {
		return nil, fmt.Errorf("%w: %v background workers", ErrInvalidThreadCount, threads)
	}
	p := &Pool{
		threads: threads,
		workers: threads,
		working: threads,
		active:  make(map[*Gang]struct{}),
		logger:  slog.New(slog.DiscardHandler),
	}
	p.cond.L = &p.mutex
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Start spawns the background workers of the pool, which then wait for
// tasks. Calling Start more than once has no further effect.
func (p *Pool) Start() {
	p.mutex.Lock()
	if p.started {
		p.mutex.Unlock()
		return
	}
	p.started = true
	p.group.Add(p.workers)
	p.mutex.Unlock()
	p.logger.Debug("starting task pool", "workers", p.workers)
	for range p.workers {
		go func() {
			defer p.group.Done()
			p.work()
		}()
	}
}

// ThreadCount returns the number of threads of the pool. This includes
// the goroutine that drives the pool, if any.
func (p *Pool) ThreadCount() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.threads
}

/*
Put appends a task to the queue of the pool, and wakes up an idle
worker.

Put can be called concurrently, in particular by workers executing
tasks of the same pool. If the pool has been terminated, the task is
dropped.

Put panics if the task needs fewer than 1 thread, or more threads than
the pool currently has.
*/
func (p *Pool) Put(task Task) {
	g := newGang(p, task)
	p.mutex.Lock()
	if p.terminate {
		p.mutex.Unlock()
		return
	}
	if g.size > p.threads {
		threads := p.threads
		p.mutex.Unlock()
		panic(fmt.Sprintf("task needs %v threads, but pool has only %v", g.size, threads))
	}
	p.queue = append(p.queue, g)
	p.mutex.Unlock()
	p.cond.Signal()
}

/*
PutAndDrive puts the task into the pool, and lets the calling
goroutine work on the tasks of the pool as an additional thread until
all work is done. The task may therefore need one thread more than the
pool has background workers.

PutAndDrive returns only when the queue is empty, no task is being
executed anymore, and all background workers have terminated. The
pool cannot be used anymore afterwards.

If a task panics, the pool terminates, and PutAndDrive eventually
panics with the recovered panic value, including the stack trace of
the original panic.
*/
func (p *Pool) PutAndDrive(task Task) {
	g := newGang(p, task)
	p.Start()
	p.mutex.Lock()
	if g.size > p.threads+1 {
		threads := p.threads + 1
		p.terminateLocked()
		p.mutex.Unlock()
		p.cond.Broadcast()
		panic(fmt.Sprintf("task needs %v threads, but pool has only %v", g.size, threads))
	}
	p.join()
	if !p.terminate {
		p.queue = append(p.queue, g)
	}
	p.mutex.Unlock()
	p.drive()
}

// Drive lets the calling goroutine work on the tasks of the pool as an
// additional thread until all work is done. See PutAndDrive.
func (p *Pool) Drive() {
	p.Start()
	p.mutex.Lock()
	p.join()
	p.mutex.Unlock()
	p.drive()
}

// join adds the calling goroutine to the threads of the pool. It
// assumes that p.mutex is locked by the caller.
func (p *Pool) join() {
	p.threads++
	p.working++
	p.finish = true
}

func (p *Pool) drive() {
	p.cond.Broadcast()
	p.work()
	p.group.Wait()
	p.rethrow()
}

// Wait blocks until the background workers have finished all work in
// the pool and have terminated, without participating in the work.
//
// If a task panics, Wait eventually panics with the recovered panic
// value.
func (p *Pool) Wait() {
	p.Start()
	p.mutex.Lock()
	p.finish = true
	p.mutex.Unlock()
	p.cond.Broadcast()
	p.group.Wait()
	p.rethrow()
}

// Cancel terminates the pool without waiting for the workers. Queued
// tasks are abandoned, and workers waiting for tasks or for the quorum
// of a task are released. Tasks that are already being executed run to
// completion. Cancel can be called from any goroutine, including
// workers of the pool.
func (p *Pool) Cancel() {
	p.mutex.Lock()
	if !p.terminate {
		p.logger.Debug("canceling task pool", "abandoned", len(p.queue))
	}
	p.terminateLocked()
	p.mutex.Unlock()
	p.cond.Broadcast()
}

// Stop cancels the pool, and then waits for the background workers to
// terminate.
func (p *Pool) Stop() {
	p.Cancel()
	p.group.Wait()
	p.rethrow()
}

// terminateLocked assumes that p.mutex is locked by the caller.
func (p *Pool) terminateLocked() {
	p.terminate = true
	for _, g := range p.queue {
		g.abandon()
	}
	p.queue = nil
}

func (p *Pool) rethrow() {
	p.mutex.Lock()
	panicked := p.panicked
	p.mutex.Unlock()
	if panicked != nil {
		panic(panicked)
	}
}

// work is the loop executed by each worker.
func (p *Pool) work() {
	for {
		g, id, ok := p.admit()
		if !ok {
			return
		}
		p.run(g, id)
	}
}

/*
admit waits for a task, and joins the calling worker to it. It returns
the gang of the task and the id of the worker within the gang, or
false if the worker should terminate.

The worker joins the gang at the front of the queue. If it completes
the quorum, the gang is removed from the queue and all workers that
joined it before are released. Otherwise, the worker waits until the
quorum is complete, without holding the lock of the pool, so that
other workers can continue to join.

A worker that waits for a quorum counts as working, so the pool
cannot finish while a gang is incomplete.
*/
func (p *Pool) admit() (*Gang, int, bool) {
	p.mutex.Lock()
	p.working--
	for {
		if p.terminate {
			p.mutex.Unlock()
			return nil, 0, false
		}
		if len(p.queue) > 0 {
			break
		}
		if p.finish && (p.working == 0) {
			// Last worker standing: the other workers can terminate.
			p.terminate = true
			p.mutex.Unlock()
			p.cond.Broadcast()
			p.logger.Debug("task pool drained")
			return nil, 0, false
		}
		p.cond.Wait()
	}
	p.working++
	g := p.queue[0]
	g.mutex.Lock()
	id, ready := g.join()
	if ready {
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.active[g] = struct{}{}
		p.mutex.Unlock()
		p.cond.Signal() // There might be more work available.
		g.mutex.Unlock()
		g.joined.Broadcast()
		return g, id, true
	}
	p.mutex.Unlock()
	p.cond.Signal() // Another worker may complete the quorum.
	ready = g.wait()
	g.mutex.Unlock()
	return g, id, ready
}

func (p *Pool) run(g *Gang, id int) {
	defer func() {
		if r := recover(); r != nil {
			p.fail(r)
		}
		if g.leave() {
			p.mutex.Lock()
			delete(p.active, g)
			p.mutex.Unlock()
		}
	}()
	g.task.Run(g, id)
}

// fail records the first panic of a task, terminates the pool, and
// breaks the barriers of all gangs that are being executed, so that no
// worker remains blocked by a peer that will never arrive.
func (p *Pool) fail(r interface{}) {
	p.mutex.Lock()
	if p.panicked == nil {
		p.panicked = internal.WrapPanic(r)
		p.logger.Error("task panicked, terminating task pool", "panic", r)
	}
	p.terminateLocked()
	gangs := make([]*Gang, 0, len(p.active))
	for g := range p.active {
		gangs = append(gangs, g)
	}
	p.mutex.Unlock()
	p.cond.Broadcast()
	for _, g := range gangs {
		g.barrier.Break()
	}
}
