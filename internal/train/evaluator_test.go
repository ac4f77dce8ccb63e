package train

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/shardtrain/internal/data"
	"github.com/born-ml/shardtrain/internal/nn"
	"github.com/born-ml/shardtrain/internal/optim"
	"github.com/born-ml/shardtrain/internal/parallel"
	"github.com/born-ml/shardtrain/internal/tensor"
	"github.com/born-ml/shardtrain/internal/tokenizer"
)

func TestAccuracyEvaluator(t *testing.T) {
	// A fixed linear model that predicts class = argmax(x).
	w := tensor.MustNew(tensor.Shape{2, 2}, []float64{1, 0, 0, 1})
	b := tensor.MustNew(tensor.Shape{2}, []float64{0, 0})
	lin, err := nn.NewLinear(2, 2, nil)
	require.NoError(t, err)
	require.NoError(t, lin.Weight().Value().CopyFrom(w))
	require.NoError(t, lin.Bias().Value().CopyFrom(b))

	ds, err := data.NewInMemory(
		[][]float64{{1, 0}, {0, 1}, {2, 1}, {0, 3}, {1, 2}},
		[]float64{0, 1, 0, 1, 0}, // the last sample is misclassified
		2,
	)
	require.NoError(t, err)

	for _, enabled := range []bool{false, true} {
		cfg := parallel.Config{Enabled: enabled, NumWorkers: 3}
		m, err := NewAccuracyEvaluator(ds, cfg).Evaluate(context.Background(), lin, nn.NewCrossEntropyLoss())
		require.NoError(t, err)
		assert.Equal(t, 5, m.Samples)
		assert.InDelta(t, 0.8, m.Accuracy, 1e-12)
		assert.Greater(t, m.Loss, 0.0)
		assert.Nil(t, lin.Weight().Grad(), "evaluation must not touch gradients")
	}
}

func TestAccuracyEvaluator_PropagatesBatchErrors(t *testing.T) {
	inner := spiral(t, 10, 10)
	ds := &faultyDataset{Dataset: inner, panic: map[int]bool{1: true}}
	_, err := NewAccuracyEvaluator(ds, parallel.DefaultConfig()).Evaluate(context.Background(), mlp(1, 4), nn.NewCrossEntropyLoss())
	assert.ErrorIs(t, err, ErrWorkerFailure)
}

func TestAccuracyEvaluator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewAccuracyEvaluator(spiral(t, 10, 10), parallel.DefaultConfig()).Evaluate(ctx, mlp(1, 4), nn.NewCrossEntropyLoss())
	assert.ErrorIs(t, err, context.Canceled)
}

// A small MLP learns the spiral with simplified parallel training.
func TestTrainer_SpiralEndToEnd(t *testing.T) {
	ds, err := data.Spiral(data.SpiralConfig{Classes: 3, PerClass: 100, Noise: 0.2, Turns: 1, BatchSize: 10, Seed: 1})
	require.NoError(t, err)

	rec := &recorder{}
	cfg := testConfig(2)
	cfg.MaxEpoch = 5
	cfg.SyncBatches = 1
	tr := New(cfg, rec, NewAccuracyEvaluator(ds, parallel.Config{Enabled: true, NumWorkers: 2}))
	defer tr.Shutdown()

	rng := rand.New(rand.NewSource(5))
	model := nn.NewSequential(
		nn.MustLinear(2, 32, rng),
		nn.NewReLU(),
		nn.MustLinear(32, 3, rng),
	)
	require.NoError(t, tr.Init(ds, model, nn.NewCrossEntropyLoss(), optim.NewAdam(optim.AdamConfig{LR: 0.05})))
	require.NoError(t, tr.SimplifiedParallelTrain(context.Background(), true))

	stats := tr.Stats()
	require.Len(t, stats.EpochLosses, 5)
	assert.Less(t, stats.EpochLosses[4], stats.EpochLosses[0])
	assert.Equal(t, 5*15, stats.Steps)
	assert.Equal(t, StateCompleted, stats.State)

	reports := rec.all()
	require.Len(t, reports, 5)
	last := reports[4]
	require.NotNil(t, last.Metrics)
	assert.Greater(t, last.Metrics.Accuracy, 0.4)
	assert.Equal(t, 300, last.Metrics.Samples)
	assert.InDelta(t, 0.05, last.LR, 1e-12)
}

// Bucketed text classification goes through the embedding lookup.
func TestTrainer_EmbeddingTextModel(t *testing.T) {
	samples := data.ColorCorpus(120, 3)
	ds, err := data.NewText(samples, tokenizer.NewByte(), 64, 8)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(2))
	emb, err := nn.NewEmbedding(64, 16, rng)
	require.NoError(t, err)
	model := nn.NewSequential(emb, nn.NewTanh(), nn.MustLinear(16, data.ColorClasses(), rng))

	cfg := testConfig(3)
	cfg.MaxEpoch = 8
	cfg.SyncBatches = 1
	tr := New(cfg, nil, nil)
	defer tr.Shutdown()
	require.NoError(t, tr.Init(ds, model, nn.NewCrossEntropyLoss(), optim.NewAdam(optim.AdamConfig{LR: 0.05})))
	require.NoError(t, tr.Train(context.Background()))

	losses := tr.Stats().EpochLosses
	require.Len(t, losses, 8)
	assert.Less(t, losses[7], losses[0])
}
