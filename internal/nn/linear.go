package nn

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/born-ml/shardtrain/internal/autodiff"
	"github.com/born-ml/shardtrain/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [batch_size, out_features]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [out_features, in_features]
	bias        *Parameter // [out_features]
}

// NewLinear creates a new Linear layer. A nil rng uses the global random source.
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) (*Linear, error) {
	if inFeatures <= 0 || outFeatures <= 0 {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "linear: in %d, out %d must be positive", inFeatures, outFeatures)
	}
	w, err := Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, rng)
	if err != nil {
		return nil, err
	}
	b, err := tensor.Zeros(tensor.Shape{outFeatures})
	if err != nil {
		return nil, err
	}
	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", w),
		bias:        NewParameter("bias", b),
	}, nil
}

// MustLinear is like NewLinear but panics on invalid sizes.
func MustLinear(inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	l, err := NewLinear(inFeatures, outFeatures, rng)
	if err != nil {
		panic(err)
	}
	return l
}

// Forward records y = x @ W.T + b on the tape.
func (l *Linear) Forward(tape *Tape, inputs ...autodiff.Var) (autodiff.Var, error) {
	x, err := single("linear", inputs)
	if err != nil {
		return autodiff.Var{}, err
	}
	if err := l.checkInput(x.Shape()); err != nil {
		return autodiff.Var{}, err
	}
	g := tape.Graph()
	wt, err := g.Transpose(tape.Param(l.weight))
	if err != nil {
		return autodiff.Var{}, err
	}
	y, err := g.MatMul(x, wt)
	if err != nil {
		return autodiff.Var{}, err
	}
	return g.AddRow(y, tape.Param(l.bias))
}

// ForwardTensor computes y = x @ W.T + b without recording a graph.
func (l *Linear) ForwardTensor(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	x, err := single("linear", inputs)
	if err != nil {
		return nil, err
	}
	if err := l.checkInput(x.Shape()); err != nil {
		return nil, err
	}
	wt, err := tensor.Transpose(l.weight.Value())
	if err != nil {
		return nil, err
	}
	y, err := tensor.MatMul(x, wt)
	if err != nil {
		return nil, err
	}
	return tensor.AddRowVector(y, l.bias.Value())
}

func (l *Linear) checkInput(s tensor.Shape) error {
	if len(s) != 2 || s[1] != l.inFeatures {
		return errors.Wrapf(tensor.ErrShapeMismatch, "linear: expected [batch, %d], got %v", l.inFeatures, s)
	}
	return nil
}

// Parameters returns [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// RequireInputNum returns 1.
func (l *Linear) RequireInputNum() int {
	return 1
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter { return l.weight }

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter { return l.bias }

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int { return l.inFeatures }

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int { return l.outFeatures }
