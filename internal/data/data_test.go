package data

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/shardtrain/internal/tensor"
	"github.com/born-ml/shardtrain/internal/tokenizer"
)

func TestInMemory_Batches(t *testing.T) {
	features := [][]float64{{1, 2}, {3, 4}, {5, 6}, {7, 8}, {9, 10}}
	labels := []float64{0, 1, 0, 1, 2}
	ds, err := NewInMemory(features, labels, 2)
	require.NoError(t, err)

	assert.Equal(t, 5, ds.Len())
	assert.Equal(t, 3, ds.NumBatches())
	assert.Equal(t, 2, ds.Features())
	assert.Equal(t, 3, ds.NumClasses())

	b, err := ds.Batch(2)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Size())
	assert.Equal(t, []float64{9, 10}, b.Inputs.Data())
	assert.Equal(t, []float64{2}, b.Labels.Data())

	// Batches are copies.
	b0, err := ds.Batch(0)
	require.NoError(t, err)
	b0.Inputs.Data()[0] = 100
	again, err := ds.Batch(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, again.Inputs.Data()[0])

	_, err = ds.Batch(3)
	assert.ErrorIs(t, err, tensor.ErrInvalidIndex)
}

func TestInMemory_Validation(t *testing.T) {
	_, err := NewInMemory(nil, nil, 1)
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = NewInMemory([][]float64{{1}, {2, 3}}, []float64{0, 1}, 1)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	_, err = NewInMemory([][]float64{{1}}, []float64{0, 1}, 1)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	ds, err := NewInMemory([][]float64{{1}, {2}}, []float64{0, 1}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.BatchSize(), "non-positive batch size means one batch")
}

func TestSpiral(t *testing.T) {
	cfg := DefaultSpiralConfig()
	ds, err := Spiral(cfg)
	require.NoError(t, err)
	assert.Equal(t, 300, ds.Len())
	assert.Equal(t, 10, ds.NumBatches())
	assert.Equal(t, 3, ds.NumClasses())

	counts := map[float64]int{}
	for i := 0; i < ds.NumBatches(); i++ {
		b, err := ds.Batch(i)
		require.NoError(t, err)
		for _, l := range b.Labels.Data() {
			counts[l]++
		}
		for _, v := range b.Inputs.Data() {
			assert.LessOrEqual(t, v*v, 1.0)
		}
	}
	assert.Equal(t, map[float64]int{0: 100, 1: 100, 2: 100}, counts)

	again, err := Spiral(cfg)
	require.NoError(t, err)
	b1, _ := ds.Batch(4)
	b2, _ := again.Batch(4)
	assert.True(t, b1.Inputs.Equal(b2.Inputs), "same seed, same data")

	_, err = Spiral(SpiralConfig{Classes: 2, PerClass: 1})
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestSplit(t *testing.T) {
	ds, err := Spiral(SpiralConfig{Classes: 2, PerClass: 10, BatchSize: 4})
	require.NoError(t, err)

	train, val, err := ds.Split(0.8)
	require.NoError(t, err)
	assert.Equal(t, 16, train.Len())
	assert.Equal(t, 4, val.Len())
	assert.Equal(t, 4, train.BatchSize())

	_, _, err = ds.Split(1)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestSplit_IndependentOfParentShuffle(t *testing.T) {
	ds, err := Spiral(SpiralConfig{Classes: 2, PerClass: 10, BatchSize: 20})
	require.NoError(t, err)
	train, val, err := ds.Split(0.5)
	require.NoError(t, err)

	before := func(d *InMemory) []float64 {
		b, err := d.Batch(0)
		require.NoError(t, err)
		return append(append([]float64(nil), b.Inputs.Data()...), b.Labels.Data()...)
	}
	trainBefore, valBefore := before(train), before(val)

	ds.Shuffle(rand.New(rand.NewSource(99)))

	assert.Equal(t, trainBefore, before(train))
	assert.Equal(t, valBefore, before(val))
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.csv")
	content := "label,x,y\n0,0.5,1\n2,-1,0.25\n1,3,3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	ds, err := LoadCSV(path, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, 2, ds.Features())
	b, err := ds.Batch(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1, -1, 0.25}, b.Inputs.Data())
	assert.Equal(t, []float64{0, 2}, b.Labels.Data())

	limited, err := LoadCSV(path, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, limited.Len())

	bad := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("label,x\nfoo,1\n"), 0o600))
	_, err = LoadCSV(bad, 0, 1)
	assert.Error(t, err)

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), 0, 1)
	assert.Error(t, err)
}

func TestText(t *testing.T) {
	samples := ColorCorpus(60, 3)
	ds, err := NewText(samples, tokenizer.NewByte(), 32, 16)
	require.NoError(t, err)
	assert.Equal(t, 60, ds.Len())
	assert.Equal(t, 1, ds.Features())

	b, err := ds.Batch(0)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{16, 1}, b.Inputs.Shape())
	for _, v := range b.Inputs.Data() {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 32.0)
	}

	// Equal texts land in equal buckets.
	same, err := NewText([]TextSample{{"navy", 1}, {"navy", 1}}, tokenizer.NewByte(), 32, 2)
	require.NoError(t, err)
	sb, err := same.Batch(0)
	require.NoError(t, err)
	assert.Equal(t, sb.Inputs.Data()[0], sb.Inputs.Data()[1])

	_, err = NewText(nil, tokenizer.NewByte(), 32, 2)
	assert.ErrorIs(t, err, ErrEmptyDataset)
	assert.Equal(t, 3, ColorClasses())
}
