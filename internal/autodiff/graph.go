// Package autodiff implements reverse-mode automatic differentiation over a
// per-pass computation graph.
//
// Architecture:
//   - Graph: an append-only arena of nodes addressed by NodeID
//   - Var: a (graph, id) handle returned by every op
//   - op: a tagged variant (kind + input IDs + the minimal data its backward rule needs)
//   - Backward: reverse topological traversal that sums gradients from all consumers
//
// Because nodes reference their inputs by index, and an input is always
// appended before its consumer, the graph is a DAG by construction.
//
// A Graph is not safe for concurrent use. Concurrent training builds one graph
// per worker pass; leaves may share read-only tensors across graphs.
//
// Usage:
//
//	g := autodiff.NewGraph()
//	x := g.Leaf(xTensor, true)
//	y, _ := g.Mul(x, x) // y = x²
//	_ = g.Backward(y, nil)
//	fmt.Println(x.Grad()) // dy/dx = 2x
package autodiff

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/shardtrain/internal/tensor"
)

// ErrCycleDetected is returned when backward traversal finds a node that
// consumes itself directly or transitively.
var ErrCycleDetected = errors.New("cycle detected in computation graph")

// NodeID addresses a node inside its Graph.
type NodeID int

// node is a single arena slot.
type node struct {
	value        *tensor.Tensor
	grad         *tensor.Tensor // lazily allocated, same shape as value
	op           op
	requiresGrad bool
}

// Graph is the node arena for one forward/backward cycle.
type Graph struct {
	nodes []node
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make([]node, 0, 64)} // Pre-allocate for common case
}

// Var is a handle to a node in a Graph.
type Var struct {
	g  *Graph
	id NodeID
}

// Valid reports whether the handle refers to a node.
func (v Var) Valid() bool {
	return v.g != nil
}

// ID returns the node index.
func (v Var) ID() NodeID {
	return v.id
}

// Graph returns the owning graph.
func (v Var) Graph() *Graph {
	return v.g
}

// Value returns the node's forward value.
func (v Var) Value() *tensor.Tensor {
	return v.g.nodes[v.id].value
}

// Grad returns the accumulated gradient, or nil if no gradient reached the node.
func (v Var) Grad() *tensor.Tensor {
	return v.g.nodes[v.id].grad
}

// Shape returns the shape of the node's value.
func (v Var) Shape() tensor.Shape {
	return v.Value().Shape()
}

// RequiresGrad reports whether gradients flow into this node.
func (v Var) RequiresGrad() bool {
	return v.g.nodes[v.id].requiresGrad
}

// String renders the handle for debugging.
func (v Var) String() string {
	if !v.Valid() {
		return "Var(<nil>)"
	}
	return fmt.Sprintf("Var(#%d %s %v)", v.id, v.g.nodes[v.id].op.kind, []int(v.Shape()))
}

// Len returns the number of nodes recorded so far.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Leaf records an input tensor. Trainable leaves (parameters) set requiresGrad.
//
// The tensor is referenced, not copied; the graph never mutates leaf values.
func (g *Graph) Leaf(value *tensor.Tensor, requiresGrad bool) Var {
	return g.push(value, op{kind: opLeaf}, requiresGrad)
}

// Constant records a tensor that never receives a gradient.
func (g *Graph) Constant(value *tensor.Tensor) Var {
	return g.Leaf(value, false)
}

func (g *Graph) push(value *tensor.Tensor, o op, requiresGrad bool) Var {
	g.nodes = append(g.nodes, node{value: value, op: o, requiresGrad: requiresGrad})
	return Var{g: g, id: NodeID(len(g.nodes) - 1)}
}

// record appends the result of an op over inputs.
// The result requires a gradient if any input does.
func (g *Graph) record(value *tensor.Tensor, o op) Var {
	requiresGrad := false
	for _, in := range o.inputs {
		if g.nodes[in].requiresGrad {
			requiresGrad = true
			break
		}
	}
	return g.push(value, o, requiresGrad)
}

// check verifies that every handle belongs to g.
func (g *Graph) check(opName string, vars ...Var) error {
	for _, v := range vars {
		if v.g != g {
			return errors.Errorf("%s: variable %v belongs to a different graph", opName, v)
		}
	}
	return nil
}

// gradBuffer returns the gradient buffer for id, allocating zeros on first use.
func (g *Graph) gradBuffer(id NodeID) *tensor.Tensor {
	n := &g.nodes[id]
	if n.grad == nil {
		n.grad = tensor.ZerosLike(n.value)
	}
	return n.grad
}

// accumulate adds grad into the gradient of id. Nodes that do not require
// gradients are skipped.
func (g *Graph) accumulate(id NodeID, grad *tensor.Tensor) error {
	if !g.nodes[id].requiresGrad {
		return nil
	}
	return errors.WithMessagef(g.gradBuffer(id).AddInPlace(grad), "accumulate into node #%d", id)
}
