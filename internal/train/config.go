package train

import (
	"log/slog"

	"github.com/born-ml/shardtrain/internal/parallel"
)

// Config controls a Trainer.
type Config struct {
	MaxEpoch        int  // Epochs per training call (default: 10)
	ParallelEnabled bool // Whether Train may spread batches across workers
	ThreadCount     int  // Worker pool size (default: logical cores)

	// SyncBatches is the number of batches each worker processes per
	// aggregation window. 0 runs the whole shard in one window, so each
	// epoch takes exactly one optimizer step.
	SyncBatches int

	Logger *slog.Logger // default: slog.Default()
}

// DefaultConfig returns a parallel configuration sized to the machine.
func DefaultConfig() Config {
	return Config{
		MaxEpoch:        10,
		ParallelEnabled: true,
		ThreadCount:     parallel.LogicalCores(),
		Logger:          slog.Default(),
	}
}

// withDefaults fills zero values.
func (c Config) withDefaults() Config {
	if c.MaxEpoch <= 0 {
		c.MaxEpoch = 10
	}
	if c.ThreadCount <= 0 {
		c.ThreadCount = parallel.LogicalCores()
	}
	if c.SyncBatches < 0 {
		c.SyncBatches = 0
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
