// Package parallel splits an index range into contiguous chunks and runs
// them on separate goroutines.
package parallel

import (
	"runtime"
	"sync"

	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// Workers returns the worker count used when the caller asks for workers <= 0.
func Workers(requested int) int {
	if requested <= 0 {
		return runtime.NumCPU()
	}
	return requested
}

// ParallelizeWorkers divides [0, items) into at most workers contiguous ranges
// and executes fn for each range (start, end) in its own goroutine.
// workers <= 0 means one worker per CPU core.
//
// The first error returned by fn is returned after all workers finish.
// A panic inside fn is converted into an *errors.PanicError.
func ParallelizeWorkers(items, workers int, fn func(start, end int) error) error {
	if items <= 0 {
		return nil
	}

	numWorkers := Workers(workers)
	if numWorkers > items {
		numWorkers = items // No need for more workers than items
	}

	// Ceiling division so the last chunk is the short one
	chunkSize := (items + numWorkers - 1) / numWorkers

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)

	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			var err error
			func() {
				defer errors.Recover(&err, "parallel.ParallelizeWorkers")
				err = fn(s, e)
			}()
			if err != nil {
				once.Do(func() { firstErr = err })
			}
		}(start, end)
	}

	wg.Wait()
	return firstErr
}

// ParallelizeWithThreshold runs fn sequentially over the whole range when
// items does not exceed threshold, and fans out with ParallelizeWorkers otherwise.
func ParallelizeWithThreshold(items, threshold, workers int, fn func(start, end int) error) (err error) {
	if items <= 0 {
		return nil
	}
	if items <= threshold || Workers(workers) == 1 {
		defer errors.Recover(&err, "parallel.ParallelizeWithThreshold")
		return fn(0, items)
	}
	return ParallelizeWorkers(items, workers, fn)
}
