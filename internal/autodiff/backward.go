package autodiff

import (
	"github.com/pkg/errors"

	"github.com/born-ml/shardtrain/internal/tensor"
)

// Backward computes gradients of root with respect to every node that
// requires one, seeding root with seed (ones when seed is nil).
//
// Algorithm:
//  1. Collect the nodes reachable from root through gradient-carrying inputs
//  2. Count, for each of them, how many reachable consumers feed it
//  3. Process nodes in reverse topological order: a node runs its backward
//     rule only after all of its consumers have contributed
//  4. Gradients from several consumers are summed into the same buffer
//
// Gradients accumulate across calls; use a fresh Graph per pass.
func (g *Graph) Backward(root Var, seed *tensor.Tensor) error {
	if err := g.check("backward", root); err != nil {
		return err
	}
	if seed == nil {
		seed = tensor.OnesLike(root.Value())
	} else if !seed.Shape().Equal(root.Shape()) {
		return errors.Wrapf(tensor.ErrShapeMismatch, "backward: seed %v for root %v", seed.Shape(), root.Shape())
	}
	if !root.RequiresGrad() {
		return nil
	}

	reachable, err := g.reachableFrom(root.id)
	if err != nil {
		return err
	}

	pending := make(map[NodeID]int, len(reachable))
	for id := range reachable {
		for _, in := range g.nodes[id].op.inputs {
			if reachable[in] {
				pending[in]++
			}
		}
	}
	if pending[root.id] != 0 {
		return errors.Wrapf(ErrCycleDetected, "backward: root #%d consumes itself", root.id)
	}

	if err := g.accumulate(root.id, seed); err != nil {
		return err
	}

	queue := []NodeID{root.id}
	processed := 0
	for len(queue) > 0 {
		id := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		processed++

		if grad := g.nodes[id].grad; grad != nil {
			if err := g.backward(id, grad); err != nil {
				return errors.WithMessagef(err, "backward through %s #%d", g.nodes[id].op.kind, id)
			}
		}

		for _, in := range g.nodes[id].op.inputs {
			if !reachable[in] {
				continue
			}
			pending[in]--
			if pending[in] == 0 {
				queue = append(queue, in)
			}
		}
	}

	if processed != len(reachable) {
		return errors.Wrapf(ErrCycleDetected, "backward: visited %d of %d reachable nodes", processed, len(reachable))
	}
	return nil
}

// reachableFrom returns the gradient-carrying nodes reachable from root.
// Every input must precede its consumer in the arena; anything else means
// the graph was corrupted into a cycle.
func (g *Graph) reachableFrom(root NodeID) (map[NodeID]bool, error) {
	seen := map[NodeID]bool{root: true}
	stack := []NodeID{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, in := range g.nodes[id].op.inputs {
			if in >= id || in < 0 {
				return nil, errors.Wrapf(ErrCycleDetected, "node #%d has input #%d", id, in)
			}
			if !g.nodes[in].requiresGrad || seen[in] {
				continue
			}
			seen[in] = true
			stack = append(stack, in)
		}
	}
	return seen, nil
}
