/*package thread controls the worker count used by the data-parallel
engine and provides a bounded parallel-for over index ranges.*/
package thread

import (
	"runtime"
	"sync"
)

var workers = runtime.NumCPU()

// Set sets the number of workers used by Split. Passing -1 selects the
// number of CPU cores on the current node.
func Set(n int) {
	if n == -1 || n > runtime.NumCPU() {
		n = runtime.NumCPU()
	}
	if n < 1 {
		n = 1
	}
	workers = n
}

// N returns the current worker count.
func N() int { return workers }

// Split partitions the index range [0, n) into one contiguous block per
// worker and calls f(worker, lo, hi) for each block on its own goroutine.
// It blocks until every block has been processed. The block boundaries
// depend only on n and the worker count, so code that keeps per-worker
// partial results and reduces them in worker order is deterministic.
func Split(n int, f func(worker, lo, hi int)) {
	p := workers
	if p > n {
		p = n
	}
	if p <= 1 {
		if n > 0 {
			f(0, 0, n)
		}
		return
	}

	wg := &sync.WaitGroup{}
	wg.Add(p)
	for w := 0; w < p; w++ {
		lo, hi := w*n/p, (w+1)*n/p
		go func(w, lo, hi int) {
			defer wg.Done()
			f(w, lo, hi)
		}(w, lo, hi)
	}
	wg.Wait()
}
