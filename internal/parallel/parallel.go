// Package parallel provides the worker primitives used by the training engine.
//
// This package provides:
//   - For: chunked parallel loop for embarrassingly parallel work
//   - Partition: contiguous, balanced split of a range across workers
//   - Pool: fixed-size goroutine pool with a barrier per Run and panic isolation
package parallel

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on the logical core count.
func DefaultConfig() Config {
	n := LogicalCores()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64, // Typical cache line aware chunk.
	}
}

// LogicalCores returns the number of logical cores reported by CPUID, or
// runtime.NumCPU when CPUID cannot tell (non-x86, virtualized, restricted).
// The result is capped at runtime.NumCPU so that affinity limits are honored.
func LogicalCores() int {
	n := runtime.NumCPU()
	if c := cpuid.CPU.LogicalCores; c > 0 && c < n {
		return c
	}
	return n
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers < 2 || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
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

// Range is a half-open index interval [Start, End).
type Range struct {
	Start, End int
}

// Len returns the number of indices in r.
func (r Range) Len() int {
	return r.End - r.Start
}

// Partition splits [0, n) into parts contiguous ranges whose lengths differ
// by at most one; the first n%parts ranges get the extra element. When
// parts > n the trailing ranges are empty.
//
//	Partition(10, 4) == [{0 3} {3 6} {6 8} {8 10}]
func Partition(n, parts int) []Range {
	if parts < 1 {
		parts = 1
	}
	out := make([]Range, parts)
	base, extra := n/parts, n%parts
	start := 0
	for i := range out {
		size := base
		if i < extra {
			size++
		}
		out[i] = Range{Start: start, End: start + size}
		start += size
	}
	return out
}
