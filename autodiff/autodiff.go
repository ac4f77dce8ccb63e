// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// A Graph records one forward pass as an arena of nodes; every op returns a
// Var handle. Backward walks the graph in reverse and sums the gradients
// flowing into each node from all of its consumers.
//
// Example:
//
//	import (
//	    "github.com/born-ml/shardtrain/autodiff"
//	    "github.com/born-ml/shardtrain/tensor"
//	)
//
//	func main() {
//	    g := autodiff.NewGraph()
//	    x := g.Leaf(tensor.MustNew(tensor.Shape{2}, []float64{1, 3}), true)
//	    y, _ := g.Mul(x, x)
//	    loss, _ := g.Mean(y)
//
//	    // Compute gradients
//	    if err := g.Backward(loss, nil); err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(x.Grad()) // [1 3]
//	}
package autodiff

import (
	"github.com/born-ml/shardtrain/internal/autodiff"
)

// Graph is the node arena for one forward/backward cycle.
type Graph = autodiff.Graph

// Var is a handle to a node in a Graph.
type Var = autodiff.Var

// NodeID addresses a node inside its Graph.
type NodeID = autodiff.NodeID

// ErrCycleDetected is returned by Backward for a graph that is not a DAG.
var ErrCycleDetected = autodiff.ErrCycleDetected

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return autodiff.NewGraph()
}
