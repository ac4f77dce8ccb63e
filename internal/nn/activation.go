package nn

import (
	"math"

	"github.com/born-ml/shardtrain/internal/autodiff"
	"github.com/born-ml/shardtrain/internal/tensor"
)

// activation is the shared shape of the parameter-free element-wise layers.
type activation struct {
	name  string
	graph func(g *autodiff.Graph, x autodiff.Var) (autodiff.Var, error)
	fn    func(float64) float64
}

func (a activation) Forward(tape *Tape, inputs ...autodiff.Var) (autodiff.Var, error) {
	x, err := single(a.name, inputs)
	if err != nil {
		return autodiff.Var{}, err
	}
	return a.graph(tape.Graph(), x)
}

func (a activation) ForwardTensor(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	x, err := single(a.name, inputs)
	if err != nil {
		return nil, err
	}
	return tensor.Apply(x, a.fn), nil
}

// Parameters returns nil: activations have no trainable parameters.
func (a activation) Parameters() []*Parameter { return nil }

// RequireInputNum returns 1.
func (a activation) RequireInputNum() int { return 1 }

// ReLU applies f(x) = max(0, x) element-wise.
type ReLU struct{ activation }

// NewReLU creates a new ReLU activation module.
func NewReLU() *ReLU {
	return &ReLU{activation{
		name:  "relu",
		graph: (*autodiff.Graph).ReLU,
		fn:    func(v float64) float64 { return math.Max(0, v) },
	}}
}

// Tanh applies the hyperbolic tangent element-wise.
type Tanh struct{ activation }

// NewTanh creates a new Tanh activation module.
func NewTanh() *Tanh {
	return &Tanh{activation{
		name:  "tanh",
		graph: (*autodiff.Graph).Tanh,
		fn:    math.Tanh,
	}}
}

// Sigmoid applies f(x) = 1 / (1 + exp(-x)) element-wise.
type Sigmoid struct{ activation }

// NewSigmoid creates a new Sigmoid activation module.
func NewSigmoid() *Sigmoid {
	return &Sigmoid{activation{
		name:  "sigmoid",
		graph: (*autodiff.Graph).Sigmoid,
		fn:    func(v float64) float64 { return 1 / (1 + math.Exp(-v)) },
	}}
}
