package internal

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
)

// ComputeNofBatches divides the size of the range (high - low) by n. If n is 0,
// a default is used that takes runtime.GOMAXPROCS(0) into account.
func ComputeNofBatches(low, high, n int) (batches int) {
	switch size := high - low; {
	case size > 0:
		switch {
		case n == 0:
			batches = 2 * runtime.GOMAXPROCS(0)
		case n > 0:
			batches = n
		default:
			panic(fmt.Sprintf("invalid number of batches: %v", n))
		}
		if batches > size {
			batches = size
		}
	case size == 0:
		batches = 1
	default:
		panic(fmt.Sprintf("invalid range: %v:%v", low, high))
	}
	return
}

// SplitRange returns the sub-range of the half-open range from low to high
// that belongs to worker id out of n workers. Each worker receives
// (high - low) / n elements, and worker 0 additionally receives the
// remainder, so its sub-range is the only one that can be larger than the
// others. The sub-ranges of all n workers are contiguous, in order of their
// ids, and cover the whole range exactly once. Sub-ranges may be empty.
func SplitRange(low, high, n, id int) (start, end int) {
	if high < low {
		panic(fmt.Sprintf("invalid range: %v:%v", low, high))
	}
	if (n < 1) || (id < 0) || (id >= n) {
		panic(fmt.Sprintf("invalid worker: %v of %v", id, n))
	}
	size := high - low
	share, remainder := size/n, size%n
	if id == 0 {
		return low, low + share + remainder
	}
	start = low + id*share + remainder
	return start, start + share
}

type runtimeError struct{ error }

func (runtimeError) RuntimeError() {}

// WrapPanic adds stack trace information to a recovered panic.
func WrapPanic(p interface{}) interface{} {
	if p != nil {
		s := fmt.Sprintf("%v\n%s\nrethrown at", p, debug.Stack())
		if _, isError := p.(error); isError {
			r := errors.New(s)
			if _, isRuntimeError := p.(runtime.Error); isRuntimeError {
				return runtimeError{r}
			}
			return r
		}
		return s
	}
	return nil
}
