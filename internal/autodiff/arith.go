package autodiff

import (
	"github.com/born-ml/shardtrain/internal/tensor"
)

// Add records a + b.
//
// Backward: d(a+b)/da = d(a+b)/db = 1, so the gradient flows unchanged to both inputs.
func (g *Graph) Add(a, b Var) (Var, error) {
	if err := g.check("add", a, b); err != nil {
		return Var{}, err
	}
	out, err := tensor.Add(a.Value(), b.Value())
	if err != nil {
		return Var{}, err
	}
	return g.record(out, op{kind: opAdd, inputs: []NodeID{a.id, b.id}}), nil
}

func (g *Graph) backwardAdd(n *node, grad *tensor.Tensor) error {
	if err := g.accumulate(n.op.inputs[0], grad); err != nil {
		return err
	}
	return g.accumulate(n.op.inputs[1], grad)
}

// Sub records a - b.
func (g *Graph) Sub(a, b Var) (Var, error) {
	if err := g.check("sub", a, b); err != nil {
		return Var{}, err
	}
	out, err := tensor.Sub(a.Value(), b.Value())
	if err != nil {
		return Var{}, err
	}
	return g.record(out, op{kind: opSub, inputs: []NodeID{a.id, b.id}}), nil
}

func (g *Graph) backwardSub(n *node, grad *tensor.Tensor) error {
	if err := g.accumulate(n.op.inputs[0], grad); err != nil {
		return err
	}
	return g.accumulate(n.op.inputs[1], tensor.Scale(grad, -1))
}

// Mul records the element-wise product a * b.
//
// Backward: grad_a = grad * b, grad_b = grad * a.
func (g *Graph) Mul(a, b Var) (Var, error) {
	if err := g.check("mul", a, b); err != nil {
		return Var{}, err
	}
	out, err := tensor.Mul(a.Value(), b.Value())
	if err != nil {
		return Var{}, err
	}
	return g.record(out, op{kind: opMul, inputs: []NodeID{a.id, b.id}}), nil
}

func (g *Graph) backwardMul(n *node, grad *tensor.Tensor) error {
	a, b := g.nodes[n.op.inputs[0]].value, g.nodes[n.op.inputs[1]].value
	gradA, err := tensor.Mul(grad, b)
	if err != nil {
		return err
	}
	gradB, err := tensor.Mul(grad, a)
	if err != nil {
		return err
	}
	if err := g.accumulate(n.op.inputs[0], gradA); err != nil {
		return err
	}
	return g.accumulate(n.op.inputs[1], gradB)
}

// Scale records c * x.
func (g *Graph) Scale(x Var, c float64) (Var, error) {
	if err := g.check("scale", x); err != nil {
		return Var{}, err
	}
	return g.record(tensor.Scale(x.Value(), c), op{kind: opScale, inputs: []NodeID{x.id}, scalar: c}), nil
}
