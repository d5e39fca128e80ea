package gang

import (
	"fmt"
	"math"
)

type (
	// A Thunk is a function that neither receives nor returns any
	// parameters.
	Thunk func()

	// A RangeFunc is a function that receives a range from low to high,
	// with 0 <= low <= high.
	RangeFunc func(low, high int)

	// A RangePredicate is a function that receives a range from low to
	// high, with 0 <= low <= high, and returns a bool.
	RangePredicate func(low, high int) bool
)

/*
ComputeThreadQuota determines how many workers a task operating on a
part of a larger collection should ask for.

It takes the size of the part, the total size of the collection, and
the number of threads that the pool operating on the collection has
available. The quota is proportional to the share of the part in the
total size, rounded to the nearest integer.

More specifically, the return value is round(size * threads / total),
clamped to at least 1, to at most threads, and to at most size, since
a task never benefits from more workers than it has elements.

Because size <= total, the quota never exceeds threads, so a task with
this quota can always reach its quorum in a pool with that many
threads.

ComputeThreadQuota panics if size < 0, total < size, or threads < 1.
*/
func ComputeThreadQuota(size, total, threads int) int {
	if (size < 0) || (total < size) {
		panic(fmt.Sprintf("invalid part size: %v of %v", size, total))
	}
	if threads < 1 {
		panic(fmt.Sprintf("invalid number of threads: %v", threads))
	}
	if total == 0 {
		return 1
	}
	quota := int(math.Round(float64(size) * float64(threads) / float64(total)))
	if quota > threads {
		quota = threads
	}
	if quota > size {
		quota = size
	}
	if quota < 1 {
		quota = 1
	}
	return quota
}
