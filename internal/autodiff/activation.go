package autodiff

import (
	"math"

	"github.com/born-ml/shardtrain/internal/tensor"
)

// ReLU records max(0, x).
func (g *Graph) ReLU(x Var) (Var, error) {
	if err := g.check("relu", x); err != nil {
		return Var{}, err
	}
	out := tensor.Apply(x.Value(), func(v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	})
	return g.record(out, op{kind: opReLU, inputs: []NodeID{x.id}}), nil
}

// d(ReLU(x))/dx = 1 if x > 0, else 0.
func (g *Graph) backwardReLU(n *node, grad *tensor.Tensor) error {
	x := g.nodes[n.op.inputs[0]].value.Data()
	gradX := grad.Clone()
	d := gradX.Data()
	for i, v := range x {
		if v <= 0 {
			d[i] = 0
		}
	}
	return g.accumulate(n.op.inputs[0], gradX)
}

// Tanh records tanh(x).
func (g *Graph) Tanh(x Var) (Var, error) {
	if err := g.check("tanh", x); err != nil {
		return Var{}, err
	}
	return g.record(tensor.Apply(x.Value(), math.Tanh), op{kind: opTanh, inputs: []NodeID{x.id}}), nil
}

// d(tanh(x))/dx = 1 - tanh²(x), computed from the stored output.
func (g *Graph) backwardTanh(n *node, grad *tensor.Tensor) error {
	y := n.value.Data()
	gradX := grad.Clone()
	d := gradX.Data()
	for i, v := range y {
		d[i] *= 1 - v*v
	}
	return g.accumulate(n.op.inputs[0], gradX)
}

// Sigmoid records σ(x) = 1 / (1 + exp(-x)).
func (g *Graph) Sigmoid(x Var) (Var, error) {
	if err := g.check("sigmoid", x); err != nil {
		return Var{}, err
	}
	out := tensor.Apply(x.Value(), func(v float64) float64 {
		return 1.0 / (1.0 + math.Exp(-v))
	})
	return g.record(out, op{kind: opSigmoid, inputs: []NodeID{x.id}}), nil
}

// dσ/dx = σ(x)(1 - σ(x)).
func (g *Graph) backwardSigmoid(n *node, grad *tensor.Tensor) error {
	y := n.value.Data()
	gradX := grad.Clone()
	d := gradX.Data()
	for i, v := range y {
		d[i] *= v * (1 - v)
	}
	return g.accumulate(n.op.inputs[0], gradX)
}
