package taskpool

//go:generate mockgen -source=task.go -destination=task_mocks.go -package=taskpool

import (
	"fmt"
	"sync"
)

/*
A Task is a unit of work that is executed jointly by several workers
of a Pool.

The methods of this interface are called by the pool. Threads is
called once when the task is put into the pool. Run is then called
exactly once by each of the Threads() workers that joined the task,
in parallel, with the ids 0 to Threads()-1, but only after all of
them have joined.
*/
type Task interface {
	// Threads returns the number of workers that must join the task
	// before it starts executing. It must be at least 1.
	Threads() int

	// Run executes the part of the task that belongs to the worker with
	// the given id. The gang gives access to the barrier shared by all
	// workers of the task, and to the pool, for example to put new
	// tasks.
	Run(g *Gang, id int)
}

/*
A Gang is a task that has been put into a pool, together with the
state needed to admit workers to it.

Workers join a gang one at a time. The first Size() workers to join
receive the ids 0 to Size()-1, in the order in which they joined, and
block until the last one has joined. Joining a gang is protected by a
lock specific to the gang, so that filling the quorum of one gang
never blocks the pool from admitting workers to another one.
*/
type Gang struct {
	task Task
	pool *Pool
	size int

	mutex     sync.Mutex
	joined    sync.Cond
	assigned  int
	finished  int
	abandoned bool

	barrier Barrier
}

func newGang(pool *Pool, task Task) *Gang {
	size := task.Threads()
	if size < 1 {
		panic(fmt.Sprintf("invalid number of threads for task: %v", size))
	}
	g := &Gang{task: task, pool: pool, size: size}
	g.joined.L = &g.mutex
	g.barrier.init(size)
	return g
}

// Task returns the task executed by the gang.
func (g *Gang) Task() Task {
	return g.task
}

// Pool returns the pool that executes the gang.
func (g *Gang) Pool() *Pool {
	return g.pool
}

// Size returns the number of workers of the gang.
func (g *Gang) Size() int {
	return g.size
}

// Await blocks on the barrier of the gang until all of its workers
// have called Await. See Barrier.Await.
func (g *Gang) Await() {
	g.barrier.Await()
}

// ready assumes that g.mutex is locked by the caller.
func (g *Gang) ready() bool {
	return g.assigned == g.size
}

// join assigns the next id to a worker. It assumes that g.mutex is
// locked by the caller.
func (g *Gang) join() (id int, ready bool) {
	id = g.assigned
	g.assigned++
	return id, g.ready()
}

// wait blocks until the gang is ready or abandoned. It assumes that
// g.mutex is locked by the caller.
func (g *Gang) wait() (ready bool) {
	for !g.ready() && !g.abandoned {
		g.joined.Wait()
	}
	return g.ready()
}

// abandon releases all workers waiting for the gang to become ready.
func (g *Gang) abandon() {
	g.mutex.Lock()
	g.abandoned = true
	g.mutex.Unlock()
	g.joined.Broadcast()
}

// leave reports whether the calling worker is the last one of the gang
// to finish.
func (g *Gang) leave() (last bool) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.finished++
	return g.finished == g.size
}
