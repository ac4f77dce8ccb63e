package autodiff

import (
	"github.com/born-ml/shardtrain/internal/tensor"
)

// GatherRows records an embedding-style lookup: output[i] = w[rows[i]].
//
// Backward scatter-adds each output row's gradient into w's gradient at
// rows[i]. Rows that appear several times accumulate:
//
//	rows = [0, 1, 0]
//	grad = [[1,2], [3,4], [5,6]]
//	grad_w[0] = [1,2] + [5,6] = [6,8]
//	grad_w[1] = [3,4]
func (g *Graph) GatherRows(w Var, rows []int) (Var, error) {
	if err := g.check("gather_rows", w); err != nil {
		return Var{}, err
	}
	out, err := tensor.GetItem(w.Value(), rows, nil)
	if err != nil {
		return Var{}, err
	}
	idx := make([]int, len(rows))
	copy(idx, rows)
	return g.record(out, op{kind: opGatherRows, inputs: []NodeID{w.id}, indices: idx}), nil
}

func (g *Graph) backwardGatherRows(n *node, grad *tensor.Tensor) error {
	wID := n.op.inputs[0]
	if !g.nodes[wID].requiresGrad {
		return nil
	}
	return g.gradBuffer(wID).ScatterAddRows(n.op.indices, grad)
}
