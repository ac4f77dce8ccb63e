// Package train implements the data-parallel training engine.
//
// A Trainer owns a fixed worker pool and drives epochs over a shared model:
//
//   - Train: batches are partitioned across workers; every worker runs its
//     passes into a private gradient arena; after a barrier the arenas are
//     merged, averaged into the parameters and one optimizer step is taken.
//   - SimplifiedParallelTrain: workers accumulate every finished batch
//     straight into the parameter buffers under one global lock.
//
// Both degrade to a single sequential worker when the model reports that it
// cannot be shared, or when parallelism is disabled.
//
// Example:
//
//	trainer := train.New(train.DefaultConfig(), monitor, evaluator)
//	defer trainer.Shutdown()
//	if err := trainer.Init(dataset, model, nn.NewCrossEntropyLoss(), optim.NewAdam(optim.AdamConfig{})); err != nil {
//	    return err
//	}
//	return trainer.Train(ctx)
package train

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/born-ml/shardtrain/internal/data"
	"github.com/born-ml/shardtrain/internal/nn"
	"github.com/born-ml/shardtrain/internal/optim"
	"github.com/born-ml/shardtrain/internal/parallel"
)

// Trainer is the training engine. Its methods are safe for concurrent use;
// overlapping training calls are rejected with ErrAlreadyRunning.
type Trainer struct {
	cfg       Config
	log       *slog.Logger
	monitor   Monitor
	evaluator Evaluator
	pool      *parallel.Pool

	ctx    context.Context // cancelled by Shutdown
	cancel context.CancelFunc

	mu    sync.Mutex
	state State
	stats Stats

	dataset data.Dataset
	model   nn.Layer
	loss    nn.Loss
	opt     optim.Optimizer
	params  []*nn.Parameter
}

// New creates a trainer and starts its worker pool. monitor and evaluator
// may be nil.
func New(cfg Config, monitor Monitor, evaluator Evaluator) *Trainer {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	t := &Trainer{
		cfg:       cfg,
		log:       cfg.Logger.With("component", "trainer"),
		monitor:   monitor,
		evaluator: evaluator,
		pool:      parallel.NewPool(cfg.ThreadCount),
		ctx:       ctx,
		cancel:    cancel,
		state:     StateCreated,
	}
	t.log.Debug("worker pool started", "threads", cfg.ThreadCount, "parallel", cfg.ParallelEnabled)
	return t
}

// Init binds the run's collaborators. It must be called exactly once, before
// any training call.
func (t *Trainer) Init(dataset data.Dataset, model nn.Layer, loss nn.Loss, opt optim.Optimizer) error {
	if dataset == nil || model == nil || loss == nil || opt == nil {
		return errors.Wrap(ErrInvalidConfig, "init: dataset, model, loss and optimizer are required")
	}
	if seq, ok := model.(*nn.Sequential); ok {
		if err := seq.Validate(); err != nil {
			return errors.WithMessage(err, "init")
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case StateShutDown:
		return ErrEngineShutDown
	case StateCreated:
	default:
		return ErrAlreadyInitialized
	}

	t.dataset, t.model, t.loss, t.opt = dataset, model, loss, opt
	t.params = model.Parameters()
	t.state = StateInitialized
	t.log.Info("initialized",
		"samples", dataset.Len(),
		"batches", dataset.NumBatches(),
		"parameters", nn.CountParameters(t.params))
	return nil
}

// Train runs MaxEpoch epochs in parallel mode, falling back to sequential
// execution when parallelism is disabled or the model cannot be shared.
func (t *Trainer) Train(ctx context.Context) error {
	if err := t.begin(); err != nil {
		return err
	}
	mode, workers := ModeParallel, t.cfg.ThreadCount
	switch {
	case !t.cfg.ParallelEnabled:
		mode, workers = ModeSequential, 1
	case !nn.IsConcurrencySafe(t.model):
		t.log.Warn("model cannot be shared across workers, training sequentially")
		mode, workers = ModeSequential, 1
	case workers == 1:
		mode = ModeSequential
	}
	return t.run(ctx, mode, workers)
}

// SimplifiedParallelTrain runs MaxEpoch epochs, accumulating each batch's
// gradients into the shared parameters under a global lock. With enabled
// false it uses a single worker and runs fully sequentially.
func (t *Trainer) SimplifiedParallelTrain(ctx context.Context, enabled bool) error {
	if err := t.begin(); err != nil {
		return err
	}
	workers := t.cfg.ThreadCount
	switch {
	case !enabled:
		workers = 1
	case !nn.IsConcurrencySafe(t.model):
		t.log.Warn("model cannot be shared across workers, training sequentially")
		workers = 1
	}
	return t.run(ctx, ModeSimplified, workers)
}

// begin moves the trainer to StateRunning.
func (t *Trainer) begin() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case StateCreated:
		return ErrNotInitialized
	case StateShutDown:
		return ErrEngineShutDown
	case StateRunning:
		return ErrAlreadyRunning
	}
	t.state = StateRunning
	return nil
}

// end leaves StateRunning unless Shutdown already moved the trainer on.
func (t *Trainer) end(next State, elapsed time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.Elapsed += elapsed
	if t.state == StateRunning {
		t.state = next
	}
}

func (t *Trainer) run(parent context.Context, mode Mode, workers int) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	stop := context.AfterFunc(t.ctx, cancel)
	defer stop()

	start := time.Now()
	next := StateInitialized
	defer func() { t.end(next, time.Since(start)) }()
	t.log.Info("training started", "mode", mode, "workers", workers, "epochs", t.cfg.MaxEpoch)

	for i := 0; i < t.cfg.MaxEpoch; i++ {
		if err := t.interrupted(ctx); err != nil {
			return err
		}
		var report EpochReport
		err := parallel.Safely(0, func() error {
			var err error
			report, err = t.runEpoch(ctx, mode, workers)
			return err
		})
		if err != nil {
			if ierr := t.interrupted(ctx); ierr != nil {
				err = ierr
			}
			nn.ZeroGrad(t.params)
			return err
		}
		t.afterEpoch(ctx, &report)
	}

	next = StateCompleted
	t.log.Info("training finished", "mode", mode, "elapsed", time.Since(start))
	return nil
}

// interrupted reports why ctx stopped: ErrEngineShutDown when Shutdown was
// called, the caller's context error otherwise.
func (t *Trainer) interrupted(ctx context.Context) error {
	if t.ctx.Err() != nil {
		return ErrEngineShutDown
	}
	return ctx.Err()
}

// afterEpoch records the report and runs the evaluator then the monitor.
// Neither can fail the run; errors and panics are logged.
func (t *Trainer) afterEpoch(ctx context.Context, report *EpochReport) {
	t.mu.Lock()
	t.stats.Epochs++
	t.stats.Steps += report.Steps
	t.stats.EpochLosses = append(t.stats.EpochLosses, report.Loss)
	report.Epoch = t.stats.Epochs
	t.mu.Unlock()

	report.LR = t.opt.LR()
	if t.evaluator != nil {
		var m Metrics
		err := parallel.Safely(0, func() error {
			var err error
			m, err = t.evaluator.Evaluate(ctx, t.model, t.loss)
			return err
		})
		if err != nil {
			t.log.Warn("evaluation failed", "epoch", report.Epoch, "err", err)
		} else {
			report.Metrics = &m
		}
	}

	attrs := []any{
		"epoch", report.Epoch,
		"loss", report.Loss,
		"steps", report.Steps,
		"failed", report.FailedBatches,
		"duration", report.Duration,
	}
	if report.Metrics != nil {
		attrs = append(attrs, "val_loss", report.Metrics.Loss, "val_acc", report.Metrics.Accuracy)
	}
	t.log.Info("epoch done", attrs...)

	if t.monitor != nil {
		err := parallel.Safely(0, func() error { return t.monitor.OnEpoch(ctx, *report) })
		if err != nil {
			t.log.Warn("monitor failed", "epoch", report.Epoch, "err", err)
		}
	}
}

// Shutdown stops the worker pool. Work is interrupted between batches:
// Shutdown blocks until the batches currently running on the workers have
// finished. Training calls in flight then return ErrEngineShutDown and
// parameters keep the values of the last completed step. Calling Shutdown
// again is a no-op.
func (t *Trainer) Shutdown() {
	t.mu.Lock()
	if t.state == StateShutDown {
		t.mu.Unlock()
		return
	}
	t.state = StateShutDown
	t.mu.Unlock()

	t.cancel()
	t.pool.Close()
	t.log.Debug("worker pool stopped")
}

// ParallelThreadCount returns the configured worker count.
func (t *Trainer) ParallelThreadCount() int {
	return t.cfg.ThreadCount
}

// IsParallelTrainingEnabled reports whether Train may use several workers.
func (t *Trainer) IsParallelTrainingEnabled() bool {
	return t.cfg.ParallelEnabled
}

// State returns the lifecycle state.
func (t *Trainer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Stats returns a snapshot of the trainer's progress.
func (t *Trainer) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.stats
	s.State = t.state
	s.EpochLosses = append([]float64(nil), t.stats.EpochLosses...)
	return s
}
