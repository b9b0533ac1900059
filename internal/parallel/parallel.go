// Package parallel distributes independent work units, such as the groups of
// a kernel launch, across worker goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum units per worker to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 1,
	}
}

// Workers returns the number of workers For would use for n units.
func (cfg Config) Workers(n int) int {
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n <= max(cfg.MinChunkSize, 1) {
		return 1
	}
	w := min(cfg.NumWorkers, (n+max(cfg.MinChunkSize, 1)-1)/max(cfg.MinChunkSize, 1))
	return max(w, 1)
}

// For executes f(worker, i) for every i in [0, n). Units are handed out one
// at a time from a shared counter, so uneven unit costs balance across
// workers; worker is in [0, cfg.Workers(n)). No ordering between units is
// guaranteed. After the first error no new units are started and that error
// is returned.
func For(n int, f func(worker, i int) error, cfg Config) error {
	if n <= 0 {
		return nil
	}
	workers := cfg.Workers(n)
	if workers == 1 {
		// Sequential fallback.
		for i := 0; i < n; i++ {
			if err := f(0, i); err != nil {
				return err
			}
		}
		return nil
	}

	var (
		next     atomic.Int64
		failed   atomic.Bool
		firstErr error
		errOnce  sync.Once
		wg       sync.WaitGroup
	)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(worker int) {
			defer wg.Done()
			for !failed.Load() {
				i := int(next.Add(1) - 1)
				if i >= n {
					return
				}
				if err := f(worker, i); err != nil {
					errOnce.Do(func() { firstErr = err })
					failed.Store(true)
					return
				}
			}
		}(w)
	}
	wg.Wait()
	return firstErr
}
