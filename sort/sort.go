/*
Package sort provides a parallel quicksort based on the task pool of
package taskpool.

Each partitioning step of the quicksort is a task that is executed by
several workers of the pool together. The workers split the range of
the step among each other, partition their parts around a common
pivot, and then combine their results into a three-way partition of
the whole range. The smaller and larger partitions become new tasks,
which receive shares of the workers of the pool in proportion to their
sizes. Large partitioning steps near the root of the recursion are
therefore executed by many workers, and small ones near the leaves by
few.

The pivot of each step is the middle element of its range, so sorting
the same input twice yields exactly the same result, independent of
the number of threads. The sort is not stable.
*/
package sort

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/exp/constraints"

	"github.com/exascience/gang/parallel"
	"github.com/exascience/gang/taskpool"
)

const grainSize = 0x500

type config struct {
	logger *slog.Logger
	trace  func(parent span, children, settled []span)
}

// An Option configures a sort.
type Option func(*config)

// WithLogger sets the logger that is used by a sort and its task pool.
// By default, nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// withTrace installs a function that worker 0 of each partitioning step
// calls right before putting the tasks for the partitions. It receives
// the range of the step, the ranges of the new tasks, and the ranges
// that will not be touched anymore.
func withTrace(trace func(parent span, children, settled []span)) Option {
	return func(c *config) {
		c.trace = trace
	}
}

/*
Sort sorts data in increasing order, using the given number of
threads. The calling goroutine is one of these threads, so Sort spawns
threads-1 additional goroutines.

Sort returns an error wrapping taskpool.ErrInvalidThreadCount if
threads < 1, without touching data. Otherwise, it returns only when
data is sorted.

If less panics, or Sort detects a violation of its internal
invariants, Sort panics, and data is left in an unspecified order.
*/
func Sort[T constraints.Ordered](data []T, threads int, opts ...Option) error {
	return sortFunc(context.Background(), data, func(a, b T) bool { return a < b }, threads, opts)
}

// SortFunc sorts data in increasing order as determined by less, using
// the given number of threads. The less function must describe a strict
// weak ordering. See Sort.
func SortFunc[T any](data []T, less func(a, b T) bool, threads int, opts ...Option) error {
	return sortFunc(context.Background(), data, less, threads, opts)
}

/*
SortContext sorts data in increasing order like Sort, but stops early
when ctx is done.

When ctx is done before the sort is complete, the pool executing the
sort is canceled: partitioning steps that are currently being executed
run to completion, but no new steps are started. SortContext then
returns ctx.Err(), and data is a permutation of its original contents
that is not necessarily sorted.
*/
func SortContext[T constraints.Ordered](ctx context.Context, data []T, threads int, opts ...Option) error {
	return sortFunc(ctx, data, func(a, b T) bool { return a < b }, threads, opts)
}

func sortFunc[T any](ctx context.Context, data []T, less func(a, b T) bool, threads int, opts []Option) error {
	if threads < 1 {
		return fmt.Errorf("%w: sort needs at least 1 thread, got %v", taskpool.ErrInvalidThreadCount, threads)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(data) <= 1 {
		return nil
	}

	c := config{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&c)
	}

	pool, err := taskpool.New(threads-1, taskpool.WithLogger(c.logger))
	if err != nil {
		return err
	}
	pool.Start()
	stop := context.AfterFunc(ctx, pool.Cancel)

	c.logger.Debug("sorting", "elements", len(data), "threads", threads)
	scratch := make([]T, len(data))
	pool.PutAndDrive(newPartitionTask(data, scratch, less, 0, len(data), threads, c.trace))

	if !stop() {
		c.logger.Debug("sort canceled", "cause", ctx.Err())
		return ctx.Err()
	}
	return nil
}

// IsSorted determines in parallel whether data is sorted in increasing
// order.
func IsSorted[T constraints.Ordered](data []T) bool {
	return IsSortedFunc(data, func(a, b T) bool { return a < b })
}

// IsSortedFunc determines in parallel whether data is sorted in
// increasing order as determined by less.
func IsSortedFunc[T any](data []T, less func(a, b T) bool) bool {
	isSorted := func(low, high int) bool {
		for i := low; i < high; i++ {
			if less(data[i], data[i-1]) {
				return false
			}
		}
		return true
	}
	if len(data) < grainSize {
		return isSorted(1, len(data))
	}
	return parallel.RangeAnd(1, len(data), 0, isSorted)
}
