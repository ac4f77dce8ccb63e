package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/shardtrain/internal/autodiff"
	"github.com/born-ml/shardtrain/internal/tensor"
)

// Sequential is a container that chains layers together and is the Model the
// trainer drives.
//
// Each layer's output becomes the next layer's input. The first layer
// receives all model inputs; every later layer receives exactly one.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.MustLinear(2, 64, rng),
//	    nn.NewReLU(),
//	    nn.MustLinear(64, 3, rng),
//	)
//
//	tape := nn.NewTape()
//	logits, err := model.Forward(tape, tape.Input(x))
type Sequential struct {
	layers []Layer
}

// NewSequential creates a new Sequential container.
func NewSequential(layers ...Layer) *Sequential {
	return &Sequential{layers: layers}
}

// Add appends a layer to the sequence.
func (s *Sequential) Add(l Layer) {
	s.layers = append(s.layers, l)
}

// Len returns the number of layers in the sequence.
func (s *Sequential) Len() int {
	return len(s.layers)
}

// Layer returns the layer at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential) Layer(index int) Layer {
	if index < 0 || index >= len(s.layers) {
		panic("Sequential.Layer: index out of bounds")
	}
	return s.layers[index]
}

// Validate checks that the composition is arity-compatible: every layer
// after the first must accept a single input.
func (s *Sequential) Validate() error {
	if len(s.layers) == 0 {
		return errors.Wrap(ErrArity, "sequential: no layers")
	}
	for i, l := range s.layers[1:] {
		if n := l.RequireInputNum(); n > 1 {
			return errors.Wrapf(ErrArity, "sequential: layer %d (%T) wants %d inputs but follows a single-output layer", i+1, l, n)
		}
	}
	return nil
}

// Forward applies all layers in sequence on the tape.
func (s *Sequential) Forward(tape *Tape, inputs ...autodiff.Var) (autodiff.Var, error) {
	if err := s.Validate(); err != nil {
		return autodiff.Var{}, err
	}
	if err := checkArity(s.layers[0], len(inputs)); err != nil {
		return autodiff.Var{}, err
	}
	out, err := s.layers[0].Forward(tape, inputs...)
	if err != nil {
		return autodiff.Var{}, errors.WithMessagef(err, "layer 0")
	}
	for i, l := range s.layers[1:] {
		if out, err = l.Forward(tape, out); err != nil {
			return autodiff.Var{}, errors.WithMessagef(err, "layer %d", i+1)
		}
	}
	return out, nil
}

// ForwardTensor applies all layers without recording a graph. It fails with
// ErrUnsupportedOperation if any layer is graph-only.
func (s *Sequential) ForwardTensor(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := checkArity(s.layers[0], len(inputs)); err != nil {
		return nil, err
	}
	out, err := s.layers[0].ForwardTensor(inputs...)
	if err != nil {
		return nil, errors.WithMessagef(err, "layer 0")
	}
	for i, l := range s.layers[1:] {
		if out, err = l.ForwardTensor(out); err != nil {
			return nil, errors.WithMessagef(err, "layer %d", i+1)
		}
	}
	return out, nil
}

// Parameters returns all trainable parameters from all layers, in order.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, l := range s.layers {
		params = append(params, l.Parameters()...)
	}
	return params
}

// RequireInputNum returns the first layer's requirement.
func (s *Sequential) RequireInputNum() int {
	if len(s.layers) == 0 {
		return 0
	}
	return s.layers[0].RequireInputNum()
}
