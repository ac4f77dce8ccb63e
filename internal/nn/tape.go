package nn

import (
	"github.com/born-ml/shardtrain/internal/autodiff"
	"github.com/born-ml/shardtrain/internal/tensor"
)

// Tape binds parameters into one forward/backward pass.
//
// Every pass gets its own Tape (and therefore its own graph), so a model can
// be shared by reference between workers: layers only read parameter values
// during Forward, and all activations and gradients live in the pass.
//
// Usage:
//
//	tape := nn.NewTape()
//	out, _ := model.Forward(tape, tape.Input(x))
//	loss, _ := lossFn.Compute(tape, out, labels)
//	grads, _ := tape.Backward(loss, nil)
type Tape struct {
	graph *autodiff.Graph
	bound map[*Parameter]autodiff.Var
	order []*Parameter
}

// NewTape creates a tape with an empty graph.
func NewTape() *Tape {
	return &Tape{
		graph: autodiff.NewGraph(),
		bound: make(map[*Parameter]autodiff.Var),
	}
}

// Graph returns the underlying computation graph.
func (t *Tape) Graph() *autodiff.Graph {
	return t.graph
}

// Param returns the leaf for p, binding it on first use. A parameter used by
// several ops in the same pass is a single leaf, so its gradient is summed.
func (t *Tape) Param(p *Parameter) autodiff.Var {
	if v, ok := t.bound[p]; ok {
		return v
	}
	v := t.graph.Leaf(p.Value(), true)
	t.bound[p] = v
	t.order = append(t.order, p)
	return v
}

// Input records a data tensor that receives no gradient.
func (t *Tape) Input(x *tensor.Tensor) autodiff.Var {
	return t.graph.Constant(x)
}

// Backward runs reverse-mode differentiation from out and collects one
// gradient per bound parameter that the gradient reached.
//
// The returned arena counts this pass as one contributing batch. Parameters
// are not modified; the caller decides where the gradients go.
func (t *Tape) Backward(out autodiff.Var, seed *tensor.Tensor) (*Gradients, error) {
	if err := t.graph.Backward(out, seed); err != nil {
		return nil, err
	}
	grads := NewGradients()
	for _, p := range t.order {
		g := t.bound[p].Grad()
		if g == nil {
			continue
		}
		if err := grads.Add(p, g); err != nil {
			return nil, err
		}
	}
	return grads, nil
}
