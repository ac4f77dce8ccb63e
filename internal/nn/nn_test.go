package nn_test

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/shardtrain/internal/nn"
	"github.com/born-ml/shardtrain/internal/tensor"
)

func newMLP(seed int64) *nn.Sequential {
	rng := rand.New(rand.NewSource(seed))
	return nn.NewSequential(
		nn.MustLinear(2, 8, rng),
		nn.NewTanh(),
		nn.MustLinear(8, 3, rng),
	)
}

func TestLinear_GraphMatchesDirect(t *testing.T) {
	l := nn.MustLinear(3, 2, rand.New(rand.NewSource(1)))
	x := tensor.MustNew(tensor.Shape{2, 3}, []float64{1, 2, 3, -1, 0, 4})

	direct, err := l.ForwardTensor(x)
	require.NoError(t, err)

	tape := nn.NewTape()
	out, err := l.Forward(tape, tape.Input(x))
	require.NoError(t, err)

	assert.True(t, direct.AllClose(out.Value(), 1e-12))
	assert.Equal(t, tensor.Shape{2, 2}, direct.Shape())
}

func TestLinear_ShapeMismatch(t *testing.T) {
	l := nn.MustLinear(3, 2, nil)
	_, err := l.ForwardTensor(tensor.MustNew(tensor.Shape{2, 4}, nil))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	_, err = l.ForwardTensor()
	assert.ErrorIs(t, err, nn.ErrArity)
}

func TestActivations(t *testing.T) {
	x := tensor.MustNew(tensor.Shape{1, 3}, []float64{-2, 0, 2})
	tests := []struct {
		name  string
		layer nn.Layer
		want  []float64
	}{
		{"relu", nn.NewReLU(), []float64{0, 0, 2}},
		{"tanh", nn.NewTanh(), []float64{-0.9640275800758169, 0, 0.9640275800758169}},
		{"sigmoid", nn.NewSigmoid(), []float64{0.11920292202211755, 0.5, 0.8807970779778823}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.layer.ForwardTensor(x)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got.Data(), 1e-12)

			tape := nn.NewTape()
			v, err := tt.layer.Forward(tape, tape.Input(x))
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, v.Value().Data(), 1e-12)
			assert.Empty(t, tt.layer.Parameters())
		})
	}
}

func TestSequential_ParametersAndNames(t *testing.T) {
	model := newMLP(1)
	assert.Len(t, model.Parameters(), 4)
	assert.Equal(t, 2*8+8+8*3+3, nn.CountParameters(model.Parameters()))

	names := make([]string, 0, 4)
	for _, np := range nn.NamedParameters(model) {
		names = append(names, np.Name)
	}
	assert.Equal(t, []string{"0.weight", "0.bias", "2.weight", "2.bias"}, names)
	assert.Same(t, model.Layer(2).Parameters()[0], nn.ParameterMap(model)["2.weight"])
}

func TestSequential_Arity(t *testing.T) {
	_, err := nn.NewSequential().ForwardTensor(tensor.MustNew(tensor.Shape{1, 1}, nil))
	assert.ErrorIs(t, err, nn.ErrArity)

	model := newMLP(1)
	x := tensor.MustNew(tensor.Shape{1, 2}, nil)
	_, err = model.ForwardTensor(x, x)
	assert.ErrorIs(t, err, nn.ErrArity)
}

func TestSequential_GraphOnlyLayerRejectsDirectPath(t *testing.T) {
	e, err := nn.NewEmbedding(4, 2, nil)
	require.NoError(t, err)
	model := nn.NewSequential(e, nn.NewTanh())

	_, err = model.ForwardTensor(tensor.MustNew(tensor.Shape{1, 1}, []float64{0}))
	assert.ErrorIs(t, err, nn.ErrUnsupportedOperation)
}

type unsafeLayer struct{ nn.Layer }

func (unsafeLayer) ConcurrencySafe() bool { return false }

func TestIsConcurrencySafe(t *testing.T) {
	assert.True(t, nn.IsConcurrencySafe(newMLP(1)))
	assert.False(t, nn.IsConcurrencySafe(nn.NewSequential(nn.NewReLU(), unsafeLayer{nn.NewTanh()})))
}

func TestTape_ParameterBoundOnce(t *testing.T) {
	p := nn.NewParameter("w", tensor.MustNew(tensor.Shape{1, 2}, []float64{1, 2}))
	tape := nn.NewTape()
	a := tape.Param(p)
	b := tape.Param(p)
	assert.Equal(t, a.ID(), b.ID())

	sum, err := tape.Graph().Add(a, b)
	require.NoError(t, err)
	loss, err := tape.Graph().Mean(sum)
	require.NoError(t, err)

	grads, err := tape.Backward(loss, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1}, grads.Sum(p).Data(), 1e-12)
	assert.Equal(t, 1, grads.Count(p))
	assert.Nil(t, p.Grad(), "tape backward leaves the parameter buffer alone")
}

func passGradients(t *testing.T, model nn.Layer, x *tensor.Tensor, labels []float64) *nn.Gradients {
	t.Helper()
	tape := nn.NewTape()
	out, err := model.Forward(tape, tape.Input(x))
	require.NoError(t, err)
	loss, err := nn.NewCrossEntropyLoss().Compute(tape, out, tensor.MustNew(tensor.Shape{len(labels)}, labels))
	require.NoError(t, err)
	grads, err := tape.Backward(loss, nil)
	require.NoError(t, err)
	return grads
}

func TestGradients_MergeAndApplyMean(t *testing.T) {
	model := newMLP(3)
	x1 := tensor.MustNew(tensor.Shape{2, 2}, []float64{0.1, 0.2, -0.3, 0.4})
	x2 := tensor.MustNew(tensor.Shape{2, 2}, []float64{0.5, -0.6, 0.7, 0.8})

	g1 := passGradients(t, model, x1, []float64{0, 1})
	g2 := passGradients(t, model, x2, []float64{2, 1})

	merged := nn.NewGradients()
	require.NoError(t, merged.Merge(g1))
	require.NoError(t, merged.Merge(g2))
	require.NoError(t, merged.ApplyMean())

	for _, p := range model.Parameters() {
		assert.Equal(t, 2, merged.Count(p))
		want, err := tensor.Add(g1.Sum(p), g2.Sum(p))
		require.NoError(t, err)
		assert.True(t, tensor.Scale(want, 0.5).AllClose(p.Grad(), 1e-12), p.Name())
	}
}

func TestGradients_ShapeChecked(t *testing.T) {
	p := nn.NewParameter("w", tensor.MustNew(tensor.Shape{2}, nil))
	err := nn.NewGradients().Add(p, tensor.MustNew(tensor.Shape{3}, nil))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

// Concurrent accumulation of whole batches equals the sequential mean.
func TestSharedAccumulator_Concurrent(t *testing.T) {
	model := newMLP(5)
	rng := rand.New(rand.NewSource(11))
	const batches = 16

	var sets []*nn.Gradients
	for i := 0; i < batches; i++ {
		x, err := tensor.RandN(tensor.Shape{4, 2}, rng)
		require.NoError(t, err)
		sets = append(sets, passGradients(t, model, x, []float64{0, 1, 2, 0}))
	}

	expected := nn.NewGradients()
	for _, g := range sets {
		require.NoError(t, expected.Merge(g))
	}

	acc := nn.NewSharedAccumulator()
	var wg sync.WaitGroup
	for _, g := range sets {
		wg.Add(1)
		go func(g *nn.Gradients) {
			defer wg.Done()
			assert.NoError(t, acc.Accumulate(g))
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 4, acc.Finalize())

	for _, p := range model.Parameters() {
		mean := tensor.Scale(expected.Sum(p), 1.0/batches)
		assert.True(t, mean.AllClose(p.Grad(), 1e-9), p.Name())
	}

	nn.ZeroGrad(model.Parameters())
	for _, p := range model.Parameters() {
		assert.Zero(t, tensor.SumAll(tensor.Apply(p.Grad(), func(v float64) float64 { return v * v })))
	}
}

func TestLosses(t *testing.T) {
	tape := nn.NewTape()
	logits := tape.Input(tensor.MustNew(tensor.Shape{2, 2}, []float64{0, 0, 0, 0}))

	ce, err := nn.NewCrossEntropyLoss().Compute(tape, logits, tensor.MustNew(tensor.Shape{2, 1}, []float64{0, 1}))
	require.NoError(t, err)
	assert.InDelta(t, 0.6931471805599453, ce.Value().Item(), 1e-12)

	_, err = nn.NewCrossEntropyLoss().Compute(tape, logits, tensor.MustNew(tensor.Shape{2, 2}, nil))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	pred := tape.Input(tensor.MustNew(tensor.Shape{2, 1}, []float64{1, 3}))
	mse, err := nn.NewMSELoss().Compute(tape, pred, tensor.MustNew(tensor.Shape{2}, []float64{0, 1}))
	require.NoError(t, err)
	assert.InDelta(t, 2.5, mse.Value().Item(), 1e-12)
}

func TestParameter_GradBuffer(t *testing.T) {
	p := nn.NewParameter("b", tensor.MustNew(tensor.Shape{2}, nil))
	assert.Nil(t, p.Grad())

	require.NoError(t, p.AccumulateGrad(tensor.MustNew(tensor.Shape{2}, []float64{1, 2})))
	require.NoError(t, p.AccumulateGrad(tensor.MustNew(tensor.Shape{2}, []float64{3, 4})))
	assert.Equal(t, []float64{4, 6}, p.Grad().Data())

	p.ScaleGrad(0.5)
	assert.Equal(t, []float64{2, 3}, p.Grad().Data())

	assert.ErrorIs(t, p.AccumulateGrad(tensor.MustNew(tensor.Shape{3}, nil)), tensor.ErrShapeMismatch)

	require.NoError(t, p.SetGrad(nil))
	assert.Nil(t, p.Grad())
}
