// Package gang provides a task pool for variable-arity cooperative tasks, and
// parallel algorithms built on top of it.
//
// In a conventional worker pool, each task is executed by exactly one
// goroutine. A task in this module instead declares how many workers it
// needs. Workers join a queued task one by one until that quorum is reached,
// and then all of them execute the task body together, typically
// synchronizing among each other through a barrier. A task can in turn put
// new tasks into the pool, so that recursive algorithms are expressed as a
// graph of tasks rather than as a recursion on the call stack.
//
// Gang provides the following subpackages:
//
// gang/taskpool provides the pool, the admission protocol by which workers
// join tasks, and a reusable barrier.
//
// gang/sort provides a parallel quicksort in which each partitioning step is
// a three-way partition executed jointly by all workers of one task, and in
// which the workers of the pool are distributed among subsequent partitioning
// steps in proportion to the sizes of the partitions.
//
// gang/parallel provides simple fork-join functions for executing thunks or
// predicates over ranges in parallel, which are used for verifying results.
//
// The design of the pool is comparable to gang scheduling in operating
// systems. See https://en.wikipedia.org/wiki/Gang_scheduling for some
// background.
package gang
