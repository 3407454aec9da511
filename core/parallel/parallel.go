// Package parallel splits row-wise work across goroutines.
//
// Each worker receives a disjoint half-open range [start, end), so functions
// that only write to their own rows need no locking and produce the same
// result regardless of scheduling.
package parallel

import (
	"runtime"
	"sync"
)

// DefaultThreshold is the row count below which work runs on the calling
// goroutine. Spawning workers for small datasets costs more than it saves.
const DefaultThreshold = 1024

// Workers returns the number of workers used for items rows.
func Workers(items int) int {
	n := runtime.GOMAXPROCS(0)
	if n > items {
		n = items
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Parallelize divides items rows into contiguous chunks, one per worker,
// and runs fn on each chunk concurrently. It returns once every chunk is done.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	numWorkers := Workers(items)
	// ceiling division
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn(0, items) sequentially when items does not
// exceed threshold and falls back to Parallelize otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// ForEachRow calls fn for every row index in [0, items), parallelizing above
// DefaultThreshold.
func ForEachRow(items int, fn func(i int)) {
	ParallelizeWithThreshold(items, DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}
