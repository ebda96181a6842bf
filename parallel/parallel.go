// Package parallel fans a pure per-item transform out across a bounded
// pool of goroutines and collects the results back in input order, using
// the same errgroup-based worker-pool shape the rest of the corpus uses
// for concurrent chunk processing.
package parallel

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// IntoCollect applies f to every item in items, running at most
// runtime.GOMAXPROCS(0) calls concurrently, and returns the results in
// the same order as items. A panic inside f is recovered and its original
// value re-raised on the calling goroutine once every worker has stopped.
func IntoCollect[T, U any](items []T, f func(T) U) []U {
	out := make([]U, len(items))
	if len(items) == 0 {
		return out
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(items) {
		workers = len(items)
	}
	if workers < 1 {
		workers = 1
	}

	g, _ := errgroup.WithContext(context.Background())
	indices := make(chan int)

	g.Go(func() error {
		defer close(indices)
		for i := range items {
			indices <- i
		}
		return nil
	})

	var panicMu sync.Mutex
	var panicValue any
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range indices {
				out[i] = callGuarded(f, items[i], &panicMu, &panicValue)
			}
			return nil
		})
	}

	_ = g.Wait()

	if panicValue != nil {
		panic(panicValue)
	}

	return out
}

// callGuarded invokes f(item), recording (rather than propagating) a
// panic so that one worker's panic does not leave siblings blocked
// mid-send on an unbuffered channel; the first recorded panic is
// re-raised by IntoCollect after every worker has exited.
func callGuarded[T, U any](f func(T) U, item T, panicMu *sync.Mutex, panicValue *any) (result U) {
	defer func() {
		if r := recover(); r != nil {
			panicMu.Lock()
			if *panicValue == nil {
				*panicValue = r
			}
			panicMu.Unlock()
		}
	}()

	return f(item)
}
