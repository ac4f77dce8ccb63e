package train

import (
	"context"

	"github.com/pkg/errors"

	"github.com/born-ml/shardtrain/internal/data"
	"github.com/born-ml/shardtrain/internal/nn"
	"github.com/born-ml/shardtrain/internal/parallel"
	"github.com/born-ml/shardtrain/internal/tensor"
)

// AccuracyEvaluator reports mean loss and argmax accuracy over a dataset.
//
// Each batch is a forward pass on its own tape with no backward, so the
// model's gradient buffers are never touched. Batches are spread with
// parallel.For when the model can be shared.
type AccuracyEvaluator struct {
	dataset data.Dataset
	cfg     parallel.Config
}

// NewAccuracyEvaluator creates an evaluator over dataset.
func NewAccuracyEvaluator(dataset data.Dataset, cfg parallel.Config) *AccuracyEvaluator {
	cfg.MinChunkSize = 1
	return &AccuracyEvaluator{dataset: dataset, cfg: cfg}
}

type evalResult struct {
	loss    float64
	correct int
	samples int
	err     error
}

// Evaluate implements Evaluator.
func (e *AccuracyEvaluator) Evaluate(ctx context.Context, model nn.Layer, loss nn.Loss) (Metrics, error) {
	n := e.dataset.NumBatches()
	if n == 0 {
		return Metrics{}, data.ErrEmptyDataset
	}
	cfg := e.cfg
	if !nn.IsConcurrencySafe(model) {
		cfg.Enabled = false
	}

	results := make([]evalResult, n)
	parallel.For(n, func(i int) {
		if ctx.Err() != nil {
			results[i].err = ctx.Err()
			return
		}
		results[i].err = parallel.Safely(i, func() error {
			return e.evalBatch(model, loss, i, &results[i])
		})
	}, cfg)

	var m Metrics
	var lossSum float64
	correct := 0
	for i, r := range results {
		if r.err != nil {
			return Metrics{}, errors.WithMessagef(r.err, "evaluate batch %d", i)
		}
		lossSum += r.loss * float64(r.samples)
		correct += r.correct
		m.Samples += r.samples
	}
	m.Loss = lossSum / float64(m.Samples)
	m.Accuracy = float64(correct) / float64(m.Samples)
	return m, nil
}

func (e *AccuracyEvaluator) evalBatch(model nn.Layer, loss nn.Loss, i int, r *evalResult) error {
	batch, err := e.dataset.Batch(i)
	if err != nil {
		return err
	}
	tape := nn.NewTape()
	out, err := model.Forward(tape, tape.Input(batch.Inputs))
	if err != nil {
		return err
	}
	l, err := loss.Compute(tape, out, batch.Labels)
	if err != nil {
		return err
	}
	labels, err := tensor.ToInts(batch.Labels)
	if err != nil {
		return err
	}
	for row, pred := range tensor.ArgMaxRows(out.Value()) {
		if pred == labels[row] {
			r.correct++
		}
	}
	r.loss = l.Value().Item()
	r.samples = len(labels)
	return nil
}
