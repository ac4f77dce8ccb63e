package train

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/born-ml/shardtrain/internal/nn"
	"github.com/born-ml/shardtrain/internal/parallel"
)

// shardResult is what one worker reports for one aggregation window.
// Each worker writes only its own slot.
type shardResult struct {
	grads    *nn.Gradients // parallel mode only
	lossSum  float64
	ok       int
	failures []*BatchError
}

// runEpoch processes every batch once. Batches are split into one contiguous
// shard per worker; shards are walked in windows of SyncBatches batches, with
// a barrier, an aggregation and one optimizer step per window.
func (t *Trainer) runEpoch(ctx context.Context, mode Mode, workers int) (EpochReport, error) {
	start := time.Now()
	epoch := t.Stats().Epochs + 1
	numBatches := t.dataset.NumBatches()
	shards := parallel.Partition(numBatches, workers)

	window := t.cfg.SyncBatches
	if window == 0 {
		window = max(shards[0].Len(), 1)
	}
	windows := (shards[0].Len() + window - 1) / window

	report := EpochReport{Mode: mode, Workers: workers, Batches: numBatches}
	var (
		lossSum float64
		ok      int
		lastErr error
	)
	for w := 0; w < windows; w++ {
		nn.ZeroGrad(t.params)

		var acc *nn.SharedAccumulator
		if mode == ModeSimplified {
			acc = nn.NewSharedAccumulator()
		}
		results := make([]shardResult, workers)
		tasks := make([]parallel.Task, workers)
		for k, shard := range shards {
			from := shard.Start + w*window
			to := min(from+window, shard.End)
			tasks[k] = func(ctx context.Context, worker int) error {
				results[k] = t.runShard(ctx, epoch, worker, from, to, acc)
				return nil
			}
		}

		if err := t.execute(ctx, tasks, workers); err != nil {
			nn.ZeroGrad(t.params)
			return report, err
		}
		if err := t.interrupted(ctx); err != nil {
			// The window is incomplete; its gradients never reach the optimizer.
			nn.ZeroGrad(t.params)
			return report, err
		}

		merged := nn.NewGradients()
		contributed := 0
		for k := range results {
			r := &results[k]
			lossSum += r.lossSum
			ok += r.ok
			contributed += r.ok
			for _, f := range r.failures {
				report.FailedBatches++
				lastErr = f
				t.log.Warn("batch excluded", "epoch", f.Epoch, "batch", f.Batch, "worker", f.Worker, "err", f.Err)
			}
			if r.grads != nil {
				if err := merged.Merge(r.grads); err != nil {
					return report, errors.WithMessage(err, "merge worker gradients")
				}
			}
		}
		if contributed == 0 {
			continue
		}

		if mode == ModeSimplified {
			acc.Finalize()
		} else if err := merged.ApplyMean(); err != nil {
			return report, err
		}
		if err := t.opt.Step(t.params); err != nil {
			return report, errors.WithMessage(err, "optimizer step")
		}
		report.Steps++
	}
	nn.ZeroGrad(t.params)

	report.Duration = time.Since(start)
	if ok == 0 && numBatches > 0 {
		return report, errors.Wrapf(ErrEpochFailed, "epoch %d: last error: %v", epoch, lastErr)
	}
	if ok > 0 {
		report.Loss = lossSum / float64(ok)
	}
	return report, nil
}

// execute runs one task per worker, inline for a single worker, on the pool
// otherwise, and returns once all of them have finished.
func (t *Trainer) execute(ctx context.Context, tasks []parallel.Task, workers int) error {
	var errs []error
	if workers == 1 {
		errs = []error{parallel.Safely(0, func() error { return tasks[0](ctx, 0) })}
	} else {
		var err error
		errs, err = t.pool.Run(ctx, tasks)
		if errors.Is(err, parallel.ErrPoolClosed) {
			return ErrEngineShutDown
		}
		if err != nil {
			return err
		}
	}
	for k, err := range errs {
		if err != nil {
			t.log.Error("worker crashed outside a batch", "worker", k, "err", err)
		}
	}
	return nil
}

// runShard runs batches [from, to) on one worker. In parallel mode gradients
// go into a private arena; in simplified mode each batch is accumulated into
// the shared parameters as soon as it finishes.
func (t *Trainer) runShard(ctx context.Context, epoch, worker, from, to int, acc *nn.SharedAccumulator) shardResult {
	var res shardResult
	if acc == nil {
		res.grads = nn.NewGradients()
	}
	for i := from; i < to; i++ {
		if ctx.Err() != nil {
			return res
		}
		var (
			grads *nn.Gradients
			loss  float64
		)
		err := parallel.Safely(worker, func() error {
			var err error
			grads, loss, err = t.pass(i)
			return err
		})
		if err == nil {
			if acc != nil {
				err = acc.Accumulate(grads)
			} else {
				err = res.grads.Merge(grads)
			}
		}
		if err != nil {
			res.failures = append(res.failures, &BatchError{Epoch: epoch, Batch: i, Worker: worker, Err: err})
			continue
		}
		res.lossSum += loss
		res.ok++
	}
	return res
}

// pass runs forward, loss and backward for batch i on a fresh tape.
func (t *Trainer) pass(i int) (*nn.Gradients, float64, error) {
	batch, err := t.dataset.Batch(i)
	if err != nil {
		return nil, 0, errors.WithMessage(err, "load batch")
	}
	tape := nn.NewTape()
	out, err := t.model.Forward(tape, tape.Input(batch.Inputs))
	if err != nil {
		return nil, 0, errors.WithMessage(err, "forward")
	}
	lossVar, err := t.loss.Compute(tape, out, batch.Labels)
	if err != nil {
		return nil, 0, errors.WithMessage(err, "loss")
	}
	loss := lossVar.Value().Item()
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return nil, 0, errors.Wrapf(ErrNonFiniteLoss, "loss = %v", loss)
	}
	grads, err := tape.Backward(lossVar, nil)
	if err != nil {
		return nil, 0, errors.WithMessage(err, "backward")
	}
	return grads, loss, nil
}
