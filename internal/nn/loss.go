package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/shardtrain/internal/autodiff"
	"github.com/born-ml/shardtrain/internal/tensor"
)

// Loss turns a prediction and its labels into a scalar node on the tape.
type Loss interface {
	Compute(tape *Tape, pred autodiff.Var, labels *tensor.Tensor) (autodiff.Var, error)
}

// CrossEntropyLoss computes softmax cross-entropy for multi-class classification.
//
// Expects raw logits [batch_size, num_classes] and class indices stored as
// floats in a [batch_size] or [batch_size, 1] tensor. The loss is averaged
// over the batch:
//
//	Loss = mean_i(-log softmax(logits_i)[label_i])
//
// Usage:
//
//	criterion := nn.NewCrossEntropyLoss()
//	logits, _ := model.Forward(tape, tape.Input(x))
//	loss, _ := criterion.Compute(tape, logits, labels)
type CrossEntropyLoss struct{}

// NewCrossEntropyLoss creates a new cross-entropy loss function.
func NewCrossEntropyLoss() *CrossEntropyLoss {
	return &CrossEntropyLoss{}
}

// Compute records the loss on the tape.
func (c *CrossEntropyLoss) Compute(tape *Tape, logits autodiff.Var, labels *tensor.Tensor) (autodiff.Var, error) {
	if labels.Rank() == 2 && labels.Shape()[1] != 1 || labels.Rank() > 2 {
		return autodiff.Var{}, errors.Wrapf(tensor.ErrShapeMismatch, "cross entropy: labels must be [batch] or [batch, 1], got %v", labels.Shape())
	}
	classes, err := tensor.ToInts(labels)
	if err != nil {
		return autodiff.Var{}, errors.WithMessage(err, "cross entropy labels")
	}
	return tape.Graph().SoftmaxCrossEntropy(logits, classes)
}

// MSELoss computes Mean Squared Error loss.
//
// Loss = mean((predictions - targets)²)
//
// Targets must have the prediction's shape, or the same number of elements
// (a [batch] target is accepted for a [batch, 1] prediction).
type MSELoss struct{}

// NewMSELoss creates a new MSE loss function.
func NewMSELoss() *MSELoss {
	return &MSELoss{}
}

// Compute records the loss on the tape.
func (m *MSELoss) Compute(tape *Tape, pred autodiff.Var, targets *tensor.Tensor) (autodiff.Var, error) {
	if !targets.Shape().Equal(pred.Shape()) {
		reshaped, err := targets.Reshape(pred.Shape())
		if err != nil {
			return autodiff.Var{}, errors.Wrapf(tensor.ErrShapeMismatch, "mse: prediction %v vs target %v", pred.Shape(), targets.Shape())
		}
		targets = reshaped
	}
	return tape.Graph().MSE(pred, targets)
}
