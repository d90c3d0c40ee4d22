// Package parallel chunks independent index ranges across worker
// goroutines. The tensor package uses it for kernels that are plain Go
// loops rather than gonum calls, where per-element work is heavy enough
// to amortize the goroutine handoff.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls when and how For splits a loop.
type Config struct {
	// Workers is the number of goroutines a split loop is spread
	// over. Zero or one forces inline execution.
	Workers int

	// MinSpan is the shortest loop worth splitting; shorter loops
	// run inline.
	MinSpan int
}

// DefaultConfig spreads loops over all CPUs and keeps short loops
// inline.
func DefaultConfig() Config {
	return Config{
		Workers: runtime.NumCPU(),
		MinSpan: 2048,
	}
}

// For runs f(i) for every i in [0, n). Iterations must be independent:
// chunks execute concurrently in no particular order. For returns only
// after every iteration has completed.
func For(n int, f func(i int), cfg Config) {
	if cfg.Workers <= 1 || n < cfg.MinSpan {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunk := max((n+cfg.Workers-1)/cfg.Workers, 1)
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}
