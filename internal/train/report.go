package train

import (
	"context"
	"time"

	"github.com/born-ml/shardtrain/internal/nn"
)

// State is the trainer lifecycle state.
type State int

// Trainer states. ShutDown is terminal.
const (
	StateCreated State = iota
	StateInitialized
	StateRunning
	StateCompleted
	StateShutDown
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateShutDown:
		return "shut down"
	default:
		return "unknown"
	}
}

// Mode is how an epoch's batches were executed.
type Mode string

// Execution modes.
const (
	ModeParallel   Mode = "parallel"
	ModeSimplified Mode = "simplified"
	ModeSequential Mode = "sequential"
)

// Metrics is an evaluation result.
type Metrics struct {
	Loss     float64
	Accuracy float64
	Samples  int
}

// EpochReport summarizes one finished epoch.
type EpochReport struct {
	Epoch         int // 1-based, counted over the trainer's lifetime
	Mode          Mode
	Workers       int
	Loss          float64 // mean over successful batches
	Batches       int
	FailedBatches int
	Steps         int // optimizer steps taken in this epoch
	LR            float64
	Duration      time.Duration
	Metrics       *Metrics // nil without an evaluator or when it failed
}

// Stats is a snapshot of trainer progress.
type Stats struct {
	State       State
	Epochs      int
	Steps       int
	Elapsed     time.Duration
	EpochLosses []float64
}

// Evaluator scores the model at epoch boundaries.
type Evaluator interface {
	Evaluate(ctx context.Context, model nn.Layer, loss nn.Loss) (Metrics, error)
}

// Monitor receives a report after every epoch, after the evaluator ran.
type Monitor interface {
	OnEpoch(ctx context.Context, report EpochReport) error
}
