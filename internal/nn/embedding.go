package nn

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/born-ml/shardtrain/internal/autodiff"
	"github.com/born-ml/shardtrain/internal/tensor"
)

// EmbeddingInitScale multiplies the N(0, 1) draw used for embedding weights.
const EmbeddingInitScale = 0.01

// Embedding is a lookup table that maps discrete indices to dense vectors.
//
// Architecture:
//   - wIn: [vocabSize, hiddenSize] learnable parameter
//   - Forward: indices [batch, 1] (or [batch]) -> rows of wIn [batch, hiddenSize]
//   - Backward: gradients scatter-add into the rows of wIn that were read
//
// Embedding only works on a tape. The direct tensor entry points return
// ErrUnsupportedOperation.
//
// Example:
//
//	embed, _ := nn.NewEmbedding(10000, 64, rng)
//	ids := tensor.MustNew(tensor.Shape{2, 1}, []float64{17, 4})
//	out, _ := embed.Forward(tape, tape.Input(ids)) // [2, 64]
type Embedding struct {
	wIn        *Parameter
	vocabSize  int
	hiddenSize int
}

// NewEmbedding creates an Embedding with weights drawn from N(0, 1) scaled by
// EmbeddingInitScale. A nil rng uses the global random source.
func NewEmbedding(vocabSize, hiddenSize int, rng *rand.Rand) (*Embedding, error) {
	if vocabSize <= 0 || hiddenSize <= 0 {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "embedding: vocab %d, hidden %d must be positive", vocabSize, hiddenSize)
	}
	w, err := ScaledNormal(tensor.Shape{vocabSize, hiddenSize}, EmbeddingInitScale, rng)
	if err != nil {
		return nil, err
	}
	return &Embedding{
		wIn:        NewParameter("wIn", w),
		vocabSize:  vocabSize,
		hiddenSize: hiddenSize,
	}, nil
}

// NewEmbeddingWithWeight wraps a pre-initialized [vocabSize, hiddenSize] weight.
func NewEmbeddingWithWeight(weight *tensor.Tensor) (*Embedding, error) {
	s := weight.Shape()
	if len(s) != 2 {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "embedding weight must be 2D, got %v", s)
	}
	return &Embedding{
		wIn:        NewParameter("wIn", weight),
		vocabSize:  s[0],
		hiddenSize: s[1],
	}, nil
}

// Weight returns the wIn parameter.
func (e *Embedding) Weight() *Parameter { return e.wIn }

// VocabSize returns the number of rows in wIn.
func (e *Embedding) VocabSize() int { return e.vocabSize }

// HiddenSize returns the embedding dimension.
func (e *Embedding) HiddenSize() int { return e.hiddenSize }

// Forward looks up one row of wIn per index.
//
// The first input holds the indices. A rank-2 input is transposed and its
// first row taken, so a [batch, 1] column yields batch indices; a rank-1
// input is used as-is. Values must be integral and in [0, vocabSize),
// otherwise ErrInvalidIndex is returned.
func (e *Embedding) Forward(tape *Tape, inputs ...autodiff.Var) (autodiff.Var, error) {
	if len(inputs) == 0 {
		return autodiff.Var{}, errors.Wrap(ErrArity, "embedding: missing index input")
	}
	indices, err := e.indices(inputs[0].Value())
	if err != nil {
		return autodiff.Var{}, err
	}
	return tape.Graph().GatherRows(tape.Param(e.wIn), indices)
}

func (e *Embedding) indices(x *tensor.Tensor) ([]int, error) {
	flat := x
	switch x.Rank() {
	case 1:
	case 2:
		t, err := tensor.Transpose(x)
		if err != nil {
			return nil, err
		}
		row := t.Row(0)
		flat = tensor.MustNew(tensor.Shape{len(row)}, row)
	default:
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "embedding: index input must be rank 1 or 2, got %v", x.Shape())
	}

	idx, err := tensor.ToInts(flat)
	if err != nil {
		return nil, errors.WithMessage(err, "embedding")
	}
	for i, v := range idx {
		if v < 0 || v >= e.vocabSize {
			return nil, errors.Wrapf(tensor.ErrInvalidIndex, "embedding: index %d at position %d out of range [0, %d)", v, i, e.vocabSize)
		}
	}
	return idx, nil
}

// ForwardTensor is not supported: lookups must be recorded on a tape so that
// their gradient can reach wIn.
func (e *Embedding) ForwardTensor(_ ...*tensor.Tensor) (*tensor.Tensor, error) {
	return nil, errors.Wrap(ErrUnsupportedOperation, "embedding: forward outside a graph")
}

// BackwardTensor is not supported; backward runs through the tape.
func (e *Embedding) BackwardTensor(_ *tensor.Tensor) ([]*tensor.Tensor, error) {
	return nil, errors.Wrap(ErrUnsupportedOperation, "embedding: backward outside a graph")
}

// Parameters returns wIn.
func (e *Embedding) Parameters() []*Parameter {
	return []*Parameter{e.wIn}
}

// RequireInputNum returns 0: the layer reads its single positional input
// without a generic arity check.
func (e *Embedding) RequireInputNum() int {
	return 0
}
