package autodiff

import (
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/shardtrain/internal/tensor"
)

// Mean records the scalar mean of all elements of x.
func (g *Graph) Mean(x Var) (Var, error) {
	if err := g.check("mean", x); err != nil {
		return Var{}, err
	}
	return g.record(tensor.Scalar(tensor.Mean(x.Value())), op{kind: opMean, inputs: []NodeID{x.id}}), nil
}

func (g *Graph) backwardMean(n *node, grad *tensor.Tensor) error {
	x := g.nodes[n.op.inputs[0]].value
	gradX, err := tensor.Full(x.Shape(), grad.Item()/float64(x.NumElements()))
	if err != nil {
		return err
	}
	return g.accumulate(n.op.inputs[0], gradX)
}

// SoftmaxCrossEntropy records mean(-log softmax(logits)[labels]) for logits of
// shape [batch, classes] and one integer class label per row.
//
// Uses the log-sum-exp trick for numerical stability. The softmax
// probabilities are kept for the backward rule:
//
//	∂L/∂logits = (softmax(logits) - onehot(labels)) / batch
func (g *Graph) SoftmaxCrossEntropy(logits Var, labels []int) (Var, error) {
	if err := g.check("softmax_cross_entropy", logits); err != nil {
		return Var{}, err
	}
	shape := logits.Shape()
	if len(shape) != 2 || shape[0] != len(labels) {
		return Var{}, errors.Wrapf(tensor.ErrShapeMismatch,
			"softmax_cross_entropy: logits %v vs %d labels", shape, len(labels))
	}
	batch, classes := shape[0], shape[1]

	probs := tensor.ZerosLike(logits.Value())
	p := probs.Data()
	x := logits.Value().Data()
	var loss float64
	for i := 0; i < batch; i++ {
		label := labels[i]
		if label < 0 || label >= classes {
			return Var{}, errors.Wrapf(tensor.ErrInvalidIndex,
				"softmax_cross_entropy: label %d at row %d out of range [0, %d)", label, i, classes)
		}
		row := x[i*classes : (i+1)*classes]
		maxV := row[0]
		for _, v := range row[1:] {
			maxV = math.Max(maxV, v)
		}
		var sum float64
		for j, v := range row {
			e := math.Exp(v - maxV)
			p[i*classes+j] = e
			sum += e
		}
		for j := range row {
			p[i*classes+j] /= sum
		}
		loss += -(row[label] - maxV - math.Log(sum))
	}

	idx := make([]int, len(labels))
	copy(idx, labels)
	o := op{kind: opSoftmaxCrossEntropy, inputs: []NodeID{logits.id}, indices: idx, aux: probs}
	return g.record(tensor.Scalar(loss/float64(batch)), o), nil
}

func (g *Graph) backwardSoftmaxCrossEntropy(n *node, grad *tensor.Tensor) error {
	probs := n.op.aux
	shape := probs.Shape()
	batch, classes := shape[0], shape[1]
	scale := grad.Item() / float64(batch)

	gradX := probs.Clone()
	d := gradX.Data()
	for i, label := range n.op.indices {
		d[i*classes+label] -= 1
	}
	gradX.ScaleInPlace(scale)
	return g.accumulate(n.op.inputs[0], gradX)
}

// MSE records mean((pred - target)²). The target receives no gradient.
func (g *Graph) MSE(pred Var, target *tensor.Tensor) (Var, error) {
	if err := g.check("mse", pred); err != nil {
		return Var{}, err
	}
	diff, err := tensor.Sub(pred.Value(), target)
	if err != nil {
		return Var{}, err
	}
	sq, err := tensor.Mul(diff, diff)
	if err != nil {
		return Var{}, err
	}
	o := op{kind: opMSE, inputs: []NodeID{pred.id}, aux: target}
	return g.record(tensor.Scalar(tensor.Mean(sq)), o), nil
}

// ∂L/∂pred = 2(pred - target) / N.
func (g *Graph) backwardMSE(n *node, grad *tensor.Tensor) error {
	pred := g.nodes[n.op.inputs[0]].value
	diff, err := tensor.Sub(pred, n.op.aux)
	if err != nil {
		return err
	}
	return g.accumulate(n.op.inputs[0], tensor.Scale(diff, 2*grad.Item()/float64(pred.NumElements())))
}
