package autodiff

import (
	"github.com/born-ml/shardtrain/internal/tensor"
)

// MatMul records the matrix product a @ b.
//
// Backward:
//
//	d(A@B)/dA = grad @ Bᵀ
//	d(A@B)/dB = Aᵀ @ grad
func (g *Graph) MatMul(a, b Var) (Var, error) {
	if err := g.check("matmul", a, b); err != nil {
		return Var{}, err
	}
	out, err := tensor.MatMul(a.Value(), b.Value())
	if err != nil {
		return Var{}, err
	}
	return g.record(out, op{kind: opMatMul, inputs: []NodeID{a.id, b.id}}), nil
}

func (g *Graph) backwardMatMul(n *node, grad *tensor.Tensor) error {
	aID, bID := n.op.inputs[0], n.op.inputs[1]
	a, b := g.nodes[aID].value, g.nodes[bID].value

	if g.nodes[aID].requiresGrad {
		bT, err := tensor.Transpose(b)
		if err != nil {
			return err
		}
		gradA, err := tensor.MatMul(grad, bT)
		if err != nil {
			return err
		}
		if err := g.accumulate(aID, gradA); err != nil {
			return err
		}
	}
	if g.nodes[bID].requiresGrad {
		aT, err := tensor.Transpose(a)
		if err != nil {
			return err
		}
		gradB, err := tensor.MatMul(aT, grad)
		if err != nil {
			return err
		}
		if err := g.accumulate(bID, gradB); err != nil {
			return err
		}
	}
	return nil
}

// Transpose records a swap of the two trailing axes.
//
// Transpose must be recorded like any other op: the result is a new tensor,
// and without the record the gradient would stop at the copy instead of
// reaching the original.
func (g *Graph) Transpose(x Var) (Var, error) {
	if err := g.check("transpose", x); err != nil {
		return Var{}, err
	}
	out, err := tensor.Transpose(x.Value())
	if err != nil {
		return Var{}, err
	}
	return g.record(out, op{kind: opTranspose, inputs: []NodeID{x.id}}), nil
}

func (g *Graph) backwardTranspose(n *node, grad *tensor.Tensor) error {
	gradX, err := tensor.Transpose(grad)
	if err != nil {
		return err
	}
	return g.accumulate(n.op.inputs[0], gradX)
}

// AddRow records x + b where b ([n]) is broadcast over every row of x ([m,n]).
//
// Backward: grad_x = grad, grad_b = sum of grad over rows.
func (g *Graph) AddRow(x, b Var) (Var, error) {
	if err := g.check("add_row", x, b); err != nil {
		return Var{}, err
	}
	out, err := tensor.AddRowVector(x.Value(), b.Value())
	if err != nil {
		return Var{}, err
	}
	return g.record(out, op{kind: opAddRow, inputs: []NodeID{x.id, b.id}}), nil
}

func (g *Graph) backwardAddRow(n *node, grad *tensor.Tensor) error {
	if err := g.accumulate(n.op.inputs[0], grad); err != nil {
		return err
	}
	bID := n.op.inputs[1]
	if !g.nodes[bID].requiresGrad {
		return nil
	}
	summed, err := tensor.SumRows(grad)
	if err != nil {
		return err
	}
	gradB, err := summed.Reshape(g.nodes[bID].value.Shape())
	if err != nil {
		return err
	}
	return g.accumulate(bID, gradB)
}
