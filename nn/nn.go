// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/shardtrain/internal/nn"
	"github.com/born-ml/shardtrain/internal/tensor"
)

// Layer is the interface implemented by every network layer.
type Layer = nn.Layer

// ConcurrencySafe is implemented by layers that may refuse to be shared
// across concurrent passes.
type ConcurrencySafe = nn.ConcurrencySafe

// IsConcurrencySafe reports whether l can be shared by concurrent passes.
func IsConcurrencySafe(l Layer) bool {
	return nn.IsConcurrencySafe(l)
}

// Parameter is a trainable tensor with a gradient buffer.
type Parameter = nn.Parameter

// NewParameter creates a new parameter with the given name and value.
func NewParameter(name string, value *tensor.Tensor) *Parameter {
	return nn.NewParameter(name, value)
}

// NamedParameters enumerates l's parameters with qualified names.
func NamedParameters(l Layer) []nn.NamedParameter {
	return nn.NamedParameters(l)
}

// Tape records one forward/backward pass.
type Tape = nn.Tape

// NewTape creates a tape for one pass.
func NewTape() *Tape {
	return nn.NewTape()
}

// Gradients holds the per-parameter gradients of one or more passes.
type Gradients = nn.Gradients

// Errors returned by layers.
var (
	ErrUnsupportedOperation = nn.ErrUnsupportedOperation
	ErrArity                = nn.ErrArity
)

// Layers

// Linear is a fully connected layer computing x·Wᵀ + b.
type Linear = nn.Linear

// NewLinear creates a linear layer with Xavier initialization.
//
// Example:
//
//	layer, err := nn.NewLinear(784, 128, rand.New(rand.NewSource(1)))
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) (*Linear, error) {
	return nn.NewLinear(inFeatures, outFeatures, rng)
}

// MustLinear is NewLinear that panics on invalid sizes.
func MustLinear(inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	return nn.MustLinear(inFeatures, outFeatures, rng)
}

// Embedding maps integer indices to rows of a trainable table.
type Embedding = nn.Embedding

// NewEmbedding creates a [vocabSize, hiddenSize] table drawn from
// N(0, EmbeddingInitScale²).
//
// Example:
//
//	emb, err := nn.NewEmbedding(1000, 64, rng)
func NewEmbedding(vocabSize, hiddenSize int, rng *rand.Rand) (*Embedding, error) {
	return nn.NewEmbedding(vocabSize, hiddenSize, rng)
}

// NewEmbeddingWithWeight creates an embedding from an existing table.
func NewEmbeddingWithWeight(weight *tensor.Tensor) (*Embedding, error) {
	return nn.NewEmbeddingWithWeight(weight)
}

// Sequential chains layers.
type Sequential = nn.Sequential

// NewSequential creates a sequential container.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.MustLinear(784, 128, rng),
//	    nn.NewReLU(),
//	    nn.MustLinear(128, 10, rng),
//	)
func NewSequential(layers ...Layer) *Sequential {
	return nn.NewSequential(layers...)
}

// Activations

// ReLU is max(0, x).
type ReLU = nn.ReLU

// NewReLU creates a ReLU activation layer.
func NewReLU() *ReLU { return nn.NewReLU() }

// Tanh is the hyperbolic tangent.
type Tanh = nn.Tanh

// NewTanh creates a Tanh activation layer.
func NewTanh() *Tanh { return nn.NewTanh() }

// Sigmoid is 1 / (1 + e^-x).
type Sigmoid = nn.Sigmoid

// NewSigmoid creates a Sigmoid activation layer.
func NewSigmoid() *Sigmoid { return nn.NewSigmoid() }

// Loss functions

// Loss computes a scalar loss on a tape.
type Loss = nn.Loss

// CrossEntropyLoss is softmax cross-entropy over class indices.
type CrossEntropyLoss = nn.CrossEntropyLoss

// NewCrossEntropyLoss creates a cross-entropy loss.
func NewCrossEntropyLoss() *CrossEntropyLoss { return nn.NewCrossEntropyLoss() }

// MSELoss is the mean squared error.
type MSELoss = nn.MSELoss

// NewMSELoss creates an MSE loss.
func NewMSELoss() *MSELoss { return nn.NewMSELoss() }
