// Package data provides the datasets the trainer iterates over.
//
// A Dataset is restartable and indexable by batch, which is what lets the
// trainer shard an epoch across workers: batch i is always the same rows.
package data

import (
	"math/rand"
	"slices"

	"github.com/pkg/errors"

	"github.com/born-ml/shardtrain/internal/tensor"
)

// ErrEmptyDataset is returned when a dataset would have no samples.
var ErrEmptyDataset = errors.New("empty dataset")

// Batch is one minibatch: inputs [batch, features] and labels [batch].
type Batch struct {
	Inputs *tensor.Tensor
	Labels *tensor.Tensor
}

// Size returns the number of samples in the batch.
func (b Batch) Size() int {
	return b.Inputs.Shape().Rows()
}

// Dataset is a fixed, indexable sequence of minibatches.
//
// Batch must be safe to call concurrently for different (or equal) indices.
type Dataset interface {
	Len() int
	BatchSize() int
	NumBatches() int
	Batch(i int) (Batch, error)
}

// InMemory holds all samples as rows of a features matrix.
type InMemory struct {
	features  [][]float64
	labels    []float64
	batchSize int
}

// NewInMemory builds a dataset from per-sample feature rows and labels. The
// last batch is smaller when len(features) is not a multiple of batchSize.
func NewInMemory(features [][]float64, labels []float64, batchSize int) (*InMemory, error) {
	if len(features) == 0 {
		return nil, ErrEmptyDataset
	}
	if len(features) != len(labels) {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "%d feature rows vs %d labels", len(features), len(labels))
	}
	width := len(features[0])
	for i, row := range features {
		if len(row) != width || width == 0 {
			return nil, errors.Wrapf(tensor.ErrShapeMismatch, "row %d has %d features, want %d", i, len(row), width)
		}
	}
	if batchSize <= 0 || batchSize > len(features) {
		batchSize = len(features)
	}
	return &InMemory{features: features, labels: labels, batchSize: batchSize}, nil
}

// Len returns the number of samples.
func (d *InMemory) Len() int { return len(d.features) }

// BatchSize returns the nominal batch size.
func (d *InMemory) BatchSize() int { return d.batchSize }

// NumBatches returns ceil(Len / BatchSize).
func (d *InMemory) NumBatches() int {
	return (len(d.features) + d.batchSize - 1) / d.batchSize
}

// Features returns the number of input features per sample.
func (d *InMemory) Features() int { return len(d.features[0]) }

// NumClasses returns max(label) + 1.
func (d *InMemory) NumClasses() int {
	maxLabel := 0.0
	for _, l := range d.labels {
		maxLabel = max(maxLabel, l)
	}
	return int(maxLabel) + 1
}

// Batch returns batch i as freshly allocated tensors.
func (d *InMemory) Batch(i int) (Batch, error) {
	if i < 0 || i >= d.NumBatches() {
		return Batch{}, errors.Wrapf(tensor.ErrInvalidIndex, "batch %d out of range [0, %d)", i, d.NumBatches())
	}
	start := i * d.batchSize
	end := min(start+d.batchSize, len(d.features))

	x, err := tensor.FromRows(d.features[start:end])
	if err != nil {
		return Batch{}, err
	}
	y, err := tensor.New(tensor.Shape{end - start}, d.labels[start:end])
	if err != nil {
		return Batch{}, err
	}
	return Batch{Inputs: x, Labels: y}, nil
}

// Shuffle permutes the samples in place with rng.
func (d *InMemory) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.features), func(i, j int) {
		d.features[i], d.features[j] = d.features[j], d.features[i]
		d.labels[i], d.labels[j] = d.labels[j], d.labels[i]
	})
}

// Split returns the first round(frac*Len) samples and the rest as two
// datasets with the same batch size. Both parts must be non-empty. The parts
// own their sample order, so shuffling d afterwards does not affect them.
func (d *InMemory) Split(frac float64) (*InMemory, *InMemory, error) {
	n := int(frac*float64(len(d.features)) + 0.5)
	if n <= 0 || n >= len(d.features) {
		return nil, nil, errors.Wrapf(ErrEmptyDataset, "split %.2f of %d samples", frac, len(d.features))
	}
	head, err := NewInMemory(slices.Clone(d.features[:n]), slices.Clone(d.labels[:n]), d.batchSize)
	if err != nil {
		return nil, nil, err
	}
	tail, err := NewInMemory(slices.Clone(d.features[n:]), slices.Clone(d.labels[n:]), d.batchSize)
	if err != nil {
		return nil, nil, err
	}
	return head, tail, nil
}
