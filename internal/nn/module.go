// Package nn implements parameterized layers for the training engine.
//
// This package provides:
//   - Parameter: named trainable leaf with a persistent gradient buffer
//   - Gradients / SharedAccumulator: gradient arenas keyed by parameter
//   - Tape: per-pass binding of parameters into a computation graph
//   - Layer interface, Sequential (the Model), Embedding, Linear, activations
//   - Loss functions: CrossEntropyLoss, MSELoss
//
// Layers hold no per-pass state, so one model can be read concurrently by
// many workers, each running its own Tape.
package nn

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/shardtrain/internal/autodiff"
	"github.com/born-ml/shardtrain/internal/tensor"
)

// Layer is the base interface for all neural network components.
//
// Every layer must implement:
//   - Forward: record its computation on a tape, reading parameters only
//   - ForwardTensor: compute the output directly, without a graph
//   - Parameters: return all trainable parameters it owns
//   - RequireInputNum: the number of inputs it expects, 0 if not enforced
//
// Layers compose through Sequential:
//
//	model := nn.NewSequential(
//	    nn.MustLinear(2, 64, rng),
//	    nn.NewReLU(),
//	    nn.MustLinear(64, 3, rng),
//	)
type Layer interface {
	Forward(tape *Tape, inputs ...autodiff.Var) (autodiff.Var, error)
	ForwardTensor(inputs ...*tensor.Tensor) (*tensor.Tensor, error)
	Parameters() []*Parameter
	RequireInputNum() int
}

// ConcurrencySafe is implemented by layers that can report whether they may
// be shared by reference across concurrent passes. Layers that do not
// implement it are assumed safe.
type ConcurrencySafe interface {
	ConcurrencySafe() bool
}

// IsConcurrencySafe reports whether l (and, for containers, every child) can
// be shared by concurrent passes.
func IsConcurrencySafe(l Layer) bool {
	if cs, ok := l.(ConcurrencySafe); ok && !cs.ConcurrencySafe() {
		return false
	}
	if seq, ok := l.(*Sequential); ok {
		for _, child := range seq.layers {
			if !IsConcurrencySafe(child) {
				return false
			}
		}
	}
	return true
}

// NamedParameter pairs a parameter with its qualified name.
type NamedParameter struct {
	Name  string
	Param *Parameter
}

// NamedParameters enumerates l's parameters with qualified names.
//
// Parameters inside a Sequential are prefixed with their layer index
// (e.g. "0.weight", "2.bias") to avoid name collisions.
func NamedParameters(l Layer) []NamedParameter {
	var out []NamedParameter
	collectNamed(l, "", &out)
	return out
}

func collectNamed(l Layer, prefix string, out *[]NamedParameter) {
	if seq, ok := l.(*Sequential); ok {
		for i, child := range seq.layers {
			collectNamed(child, fmt.Sprintf("%s%d.", prefix, i), out)
		}
		return
	}
	for _, p := range l.Parameters() {
		*out = append(*out, NamedParameter{Name: prefix + p.Name(), Param: p})
	}
}

// ParameterMap returns NamedParameters as a name → parameter map.
func ParameterMap(l Layer) map[string]*Parameter {
	named := NamedParameters(l)
	m := make(map[string]*Parameter, len(named))
	for _, np := range named {
		m[np.Name] = np.Param
	}
	return m
}

// checkArity enforces RequireInputNum for layers that declare one.
func checkArity(l Layer, got int) error {
	want := l.RequireInputNum()
	if want > 0 && want != got {
		return errors.Wrapf(ErrArity, "%T: want %d inputs, got %d", l, want, got)
	}
	return nil
}

// single returns the only input of a one-input layer.
func single[T any](layer string, inputs []T) (T, error) {
	var zero T
	if len(inputs) != 1 {
		return zero, errors.Wrapf(ErrArity, "%s: want 1 input, got %d", layer, len(inputs))
	}
	return inputs[0], nil
}
