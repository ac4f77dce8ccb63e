package autodiff

import (
	"github.com/pkg/errors"

	"github.com/born-ml/shardtrain/internal/tensor"
)

// opKind tags the operation that produced a node.
type opKind uint8

const (
	opLeaf opKind = iota
	opAdd
	opSub
	opMul
	opScale
	opMatMul
	opTranspose
	opAddRow
	opReLU
	opTanh
	opSigmoid
	opGatherRows
	opMean
	opSoftmaxCrossEntropy
	opMSE
)

var opNames = [...]string{
	opLeaf:                "leaf",
	opAdd:                 "add",
	opSub:                 "sub",
	opMul:                 "mul",
	opScale:               "scale",
	opMatMul:              "matmul",
	opTranspose:           "transpose",
	opAddRow:              "add_row",
	opReLU:                "relu",
	opTanh:                "tanh",
	opSigmoid:             "sigmoid",
	opGatherRows:          "gather_rows",
	opMean:                "mean",
	opSoftmaxCrossEntropy: "softmax_cross_entropy",
	opMSE:                 "mse",
}

func (k opKind) String() string {
	if int(k) < len(opNames) {
		return opNames[k]
	}
	return "unknown"
}

// op records how a node was produced.
//
// Only the fields a kind's backward rule reads are set:
//   - scalar: opScale factor
//   - indices: opGatherRows rows, opSoftmaxCrossEntropy class labels
//   - aux: opSoftmaxCrossEntropy probabilities, opMSE target
type op struct {
	kind    opKind
	inputs  []NodeID
	scalar  float64
	indices []int
	aux     *tensor.Tensor
}

// backward propagates the gradient of node id into its inputs.
func (g *Graph) backward(id NodeID, grad *tensor.Tensor) error {
	n := &g.nodes[id]
	switch n.op.kind {
	case opLeaf:
		return nil
	case opAdd:
		return g.backwardAdd(n, grad)
	case opSub:
		return g.backwardSub(n, grad)
	case opMul:
		return g.backwardMul(n, grad)
	case opScale:
		return g.accumulate(n.op.inputs[0], tensor.Scale(grad, n.op.scalar))
	case opMatMul:
		return g.backwardMatMul(n, grad)
	case opTranspose:
		return g.backwardTranspose(n, grad)
	case opAddRow:
		return g.backwardAddRow(n, grad)
	case opReLU:
		return g.backwardReLU(n, grad)
	case opTanh:
		return g.backwardTanh(n, grad)
	case opSigmoid:
		return g.backwardSigmoid(n, grad)
	case opGatherRows:
		return g.backwardGatherRows(n, grad)
	case opMean:
		return g.backwardMean(n, grad)
	case opSoftmaxCrossEntropy:
		return g.backwardSoftmaxCrossEntropy(n, grad)
	case opMSE:
		return g.backwardMSE(n, grad)
	default:
		return errors.Errorf("backward: unknown op kind %d", n.op.kind)
	}
}
