package parallel

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	assert.Equal(t, int64(n), counter)
}

func TestFor_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	var counter int64
	For(100, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	assert.Equal(t, int64(100), counter)
}

func TestFor_SmallChunk(t *testing.T) {
	// Small work units fall back to sequential.
	cfg := DefaultConfig()

	seen := make([]bool, cfg.MinChunkSize-1)
	For(len(seen), func(i int) {
		seen[i] = true
	}, cfg)

	for i, ok := range seen {
		assert.True(t, ok, "index %d", i)
	}
}

func TestLogicalCores(t *testing.T) {
	assert.GreaterOrEqual(t, LogicalCores(), 1)
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name     string
		n, parts int
		want     []Range
	}{
		{"even", 8, 4, []Range{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
		{"remainder first", 10, 4, []Range{{0, 3}, {3, 6}, {6, 8}, {8, 10}}},
		{"more parts than items", 2, 4, []Range{{0, 1}, {1, 2}, {2, 2}, {2, 2}}},
		{"single part", 5, 1, []Range{{0, 5}}},
		{"zero parts", 3, 0, []Range{{0, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Partition(tt.n, tt.parts)
			assert.Equal(t, tt.want, got)

			total := 0
			for _, r := range got {
				total += r.Len()
			}
			assert.Equal(t, tt.n, total)
		})
	}
}

func TestPool_RunsEveryTaskOnAssignedWorker(t *testing.T) {
	p := NewPool(3)
	defer p.Close()

	const n = 7
	workers := make([]int, n)
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = func(_ context.Context, worker int) error {
			workers[i] = worker
			return nil
		}
	}

	errs, err := p.Run(context.Background(), tasks)
	require.NoError(t, err)
	require.Len(t, errs, n)
	for i := range tasks {
		assert.NoError(t, errs[i])
		assert.Equal(t, i%3, workers[i])
	}
}

func TestPool_ReusedAcrossRuns(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	var count atomic.Int64
	for round := 0; round < 5; round++ {
		tasks := []Task{
			func(context.Context, int) error { count.Add(1); return nil },
			func(context.Context, int) error { count.Add(1); return nil },
		}
		_, err := p.Run(context.Background(), tasks)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(10), count.Load())
}

func TestPool_PanicIsolated(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	sentinel := errors.New("plain failure")
	var finished atomic.Bool
	tasks := []Task{
		func(context.Context, int) error { panic("boom") },
		func(context.Context, int) error { finished.Store(true); return nil },
		func(context.Context, int) error { return sentinel },
	}

	errs, err := p.Run(context.Background(), tasks)
	require.NoError(t, err)

	assert.ErrorIs(t, errs[0], ErrWorkerFailure)
	var pe *PanicError
	require.ErrorAs(t, errs[0], &pe)
	assert.Equal(t, "boom", pe.Value)
	assert.Equal(t, 0, pe.Worker)
	assert.NotEmpty(t, pe.Stack)

	assert.NoError(t, errs[1])
	assert.True(t, finished.Load())
	assert.ErrorIs(t, errs[2], sentinel)
	assert.NotErrorIs(t, errs[2], ErrWorkerFailure)

	// The worker that panicked keeps serving.
	errs, err = p.Run(context.Background(), []Task{func(context.Context, int) error { return nil }})
	require.NoError(t, err)
	assert.NoError(t, errs[0])
}

func TestPool_CancelledContextReachesTasks(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tasks := []Task{
		func(ctx context.Context, _ int) error { return ctx.Err() },
		func(ctx context.Context, _ int) error { return ctx.Err() },
	}
	errs, err := p.Run(ctx, tasks)
	require.NoError(t, err)
	for _, e := range errs {
		assert.ErrorIs(t, e, context.Canceled)
	}
}

func TestPool_CloseIdempotent(t *testing.T) {
	p := NewPool(2)
	p.Close()
	p.Close()

	_, err := p.Run(context.Background(), []Task{func(context.Context, int) error { return nil }})
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPool_CloseDuringRun(t *testing.T) {
	p := NewPool(2)

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	tasks := []Task{
		func(context.Context, int) error {
			once.Do(func() { close(started) })
			<-release
			return nil
		},
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs, err := p.Run(context.Background(), tasks)
		assert.NoError(t, err)
		assert.NoError(t, errs[0])
	}()

	<-started
	closed := make(chan struct{})
	go func() {
		p.Close()
		close(closed)
	}()
	close(release)
	wg.Wait()
	<-closed
}

func TestSafely(t *testing.T) {
	assert.NoError(t, Safely(0, func() error { return nil }))
	err := Safely(4, func() error {
		var m map[string]int
		m["x"] = 1
		return nil
	})
	assert.ErrorIs(t, err, ErrWorkerFailure)
	assert.Contains(t, err.Error(), "worker 4")
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfgSeq := cfg
		cfgSeq.Enabled = false
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfgSeq)
		}
	})
}
