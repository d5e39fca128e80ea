package sort

import (
	"sync"

	"github.com/exascience/gang"
	"github.com/exascience/gang/internal"
	"github.com/exascience/gang/taskpool"
)

// A span is a half-open range of indices of the collection being sorted.
// For spans of queued tasks, threads is the number of workers of the task.
type span struct {
	first, last int
	threads     int
}

func (s span) size() int {
	return s.last - s.first
}

/*
partitionTask is one partitioning step of the parallel quicksort. It
covers the range from first to last of data, and is executed by
threads workers.

All workers together perform a three-way partition of the range around
a pivot, in three phases separated by the barrier of the gang:

 1. Each worker partitions its own sub-range in place into elements
    smaller than, equal to, and larger than the pivot, and publishes
    the sizes of the three groups.
 2. Each worker copies its three groups into scratch, at offsets that
    follow from the group sizes of all workers. Smaller elements are
    packed from first onwards, followed by the equal elements, while
    larger elements are packed backwards from last.
 3. Each worker copies its own sub-range back from scratch into data.

Worker 0 then puts new tasks for the smaller and larger partitions.
Equal elements are already in their final position.

The group sizes are only valid between the second barrier and the
creation of the subtasks.
*/
type partitionTask[T any] struct {
	data, scratch []T
	less          func(a, b T) bool
	first, last   int
	threads       int
	trace         func(parent span, children, settled []span)

	pivot                  T
	smaller, equal, larger []int
	copied                 sync.WaitGroup
}

func newPartitionTask[T any](
	data, scratch []T,
	less func(a, b T) bool,
	first, last, threads int,
	trace func(parent span, children, settled []span),
) *partitionTask[T] {
	t := &partitionTask[T]{
		data:    data,
		scratch: scratch,
		less:    less,
		first:   first,
		last:    last,
		threads: threads,
		trace:   trace,
		smaller: make([]int, threads),
		equal:   make([]int, threads),
		larger:  make([]int, threads),
	}
	t.copied.Add(threads)
	return t
}

// Threads implements the method of the taskpool.Task interface.
func (t *partitionTask[T]) Threads() int {
	return t.threads
}

// Run implements the method of the taskpool.Task interface.
func (t *partitionTask[T]) Run(g *taskpool.Gang, id int) {
	if id != 0 {
		defer t.copied.Done()
	}

	start, end := internal.SplitRange(t.first, t.last, t.threads, id)
	if id == 0 {
		t.pivot = t.data[t.first+(t.last-t.first)/2-1]
	}

	g.Await()

	part, tmp := t.data[start:end], t.scratch[start:end]
	pivot, less := t.pivot, t.less
	smaller := stablePartition(part, tmp, func(x T) bool {
		return less(x, pivot)
	})
	equal := stablePartition(part[smaller:], tmp[smaller:], func(x T) bool {
		return !less(pivot, x)
	})
	t.smaller[id] = smaller
	t.equal[id] = equal
	t.larger[id] = len(part) - smaller - equal

	g.Await()

	smallerOffset, equalOffset, largerOffset := t.offsets(id)
	copy(t.scratch[smallerOffset:], part[:smaller])
	copy(t.scratch[equalOffset:], part[smaller:smaller+equal])
	copy(t.scratch[largerOffset:], part[smaller+equal:])

	g.Await()

	copy(part, tmp)

	if id == 0 {
		t.copied.Done()
		t.spawn(g.Pool())
	}
}

// offsets computes where the worker with the given id writes its three
// groups into scratch.
func (t *partitionTask[T]) offsets(id int) (smaller, equal, larger int) {
	smaller, equal, larger = t.first, t.first, t.last
	for i, size := range t.smaller {
		if i < id {
			smaller += size
		}
		equal += size
	}
	for _, size := range t.equal[:id] {
		equal += size
	}
	for _, size := range t.larger[id:] {
		larger -= size
	}
	return
}

// spawn puts the tasks for the smaller and larger partitions into the
// pool, once all workers have copied their sub-ranges back into data.
func (t *partitionTask[T]) spawn(pool *taskpool.Pool) {
	var smaller, larger int
	for i := range t.smaller {
		smaller += t.smaller[i]
		larger += t.larger[i]
	}

	t.copied.Wait()

	threads := pool.ThreadCount()
	parts := [2]span{
		{first: t.first, last: t.first + smaller},
		{first: t.last - larger, last: t.last},
	}
	var children []span
	for _, part := range parts {
		if part.size() > 1 {
			part.threads = gang.ComputeThreadQuota(part.size(), len(t.data), threads)
			children = append(children, part)
		}
	}

	if t.trace != nil {
		settled := []span{{first: t.first + smaller, last: t.last - larger}}
		for _, part := range parts {
			if part.size() == 1 {
				settled = append(settled, part)
			}
		}
		t.trace(span{t.first, t.last, t.threads}, children, settled)
	}

	for _, child := range children {
		pool.Put(newPartitionTask(t.data, t.scratch, t.less, child.first, child.last, child.threads, t.trace))
	}
}

// stablePartition moves the elements of data for which pred holds to the
// front of data, and returns their number. The relative order of the
// elements within both groups is preserved. The tmp slice must be at
// least as long as data, and its contents are overwritten.
func stablePartition[T any](data, tmp []T, pred func(T) bool) int {
	i, j := 0, 0
	for _, x := range data {
		if pred(x) {
			data[i] = x
			i++
		} else {
			tmp[j] = x
			j++
		}
	}
	copy(data[i:], tmp[:j])
	return i
}
