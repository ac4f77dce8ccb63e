// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train provides the data-parallel training engine.
//
// # Overview
//
// A Trainer owns a fixed pool of workers and trains one shared model:
//   - Train: each worker runs its shard of batches into a private gradient
//     arena; at every synchronization point the arenas are averaged into
//     the parameters and the optimizer takes one step.
//   - SimplifiedParallelTrain: workers accumulate straight into the shared
//     parameters under one global lock.
//
// A batch that fails or panics is logged and excluded from aggregation; the
// epoch fails only when every batch failed.
//
// # Basic Usage
//
//	trainer := train.New(train.DefaultConfig(), nil, nil)
//	defer trainer.Shutdown()
//
//	err := trainer.Init(dataset, model, nn.NewCrossEntropyLoss(), optim.NewAdam(optim.AdamConfig{}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := trainer.Train(ctx); err != nil {
//	    log.Fatal(err)
//	}
package train

import (
	"github.com/born-ml/shardtrain/internal/data"
	"github.com/born-ml/shardtrain/internal/parallel"
	"github.com/born-ml/shardtrain/internal/train"
)

// Trainer is the training engine.
type Trainer = train.Trainer

// Config controls a Trainer.
type Config = train.Config

// DefaultConfig returns a parallel configuration sized to the machine.
func DefaultConfig() Config {
	return train.DefaultConfig()
}

// New creates a trainer and starts its worker pool. monitor and evaluator
// may be nil.
func New(cfg Config, monitor Monitor, evaluator Evaluator) *Trainer {
	return train.New(cfg, monitor, evaluator)
}

// Reports and collaborators.
type (
	State       = train.State
	Mode        = train.Mode
	Metrics     = train.Metrics
	EpochReport = train.EpochReport
	Stats       = train.Stats
	Evaluator   = train.Evaluator
	Monitor     = train.Monitor
	BatchError  = train.BatchError
)

// Trainer states.
const (
	StateCreated     = train.StateCreated
	StateInitialized = train.StateInitialized
	StateRunning     = train.StateRunning
	StateCompleted   = train.StateCompleted
	StateShutDown    = train.StateShutDown
)

// Execution modes.
const (
	ModeParallel   = train.ModeParallel
	ModeSimplified = train.ModeSimplified
	ModeSequential = train.ModeSequential
)

// Errors returned by the trainer.
var (
	ErrNotInitialized     = train.ErrNotInitialized
	ErrAlreadyInitialized = train.ErrAlreadyInitialized
	ErrEngineShutDown     = train.ErrEngineShutDown
	ErrAlreadyRunning     = train.ErrAlreadyRunning
	ErrEpochFailed        = train.ErrEpochFailed
	ErrNonFiniteLoss      = train.ErrNonFiniteLoss
	ErrInvalidConfig      = train.ErrInvalidConfig
	ErrWorkerFailure      = train.ErrWorkerFailure
)

// AccuracyEvaluator reports mean loss and argmax accuracy over a dataset.
type AccuracyEvaluator = train.AccuracyEvaluator

// NewAccuracyEvaluator creates an evaluator over dataset using up to
// workers goroutines.
func NewAccuracyEvaluator(dataset data.Dataset, workers int) *AccuracyEvaluator {
	return train.NewAccuracyEvaluator(dataset, parallel.Config{Enabled: workers > 1, NumWorkers: workers})
}

// LogicalCores returns the number of logical CPU cores available.
func LogicalCores() int {
	return parallel.LogicalCores()
}
