// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/born-ml/shardtrain/internal/tensor"
)

// Tensor is a dense row-major float64 tensor.
type Tensor = tensor.Tensor

// Shape is a tensor's dimensions.
type Shape = tensor.Shape

// Errors returned by tensor operations.
var (
	ErrShapeMismatch = tensor.ErrShapeMismatch
	ErrInvalidIndex  = tensor.ErrInvalidIndex
)

// New creates a tensor with a copy of data.
func New(shape Shape, data []float64) (*Tensor, error) {
	return tensor.New(shape, data)
}

// MustNew is New that panics on error.
func MustNew(shape Shape, data []float64) *Tensor {
	return tensor.MustNew(shape, data)
}

// FromRows builds a [len(rows), len(rows[0])] tensor.
func FromRows(rows [][]float64) (*Tensor, error) {
	return tensor.FromRows(rows)
}

// Scalar creates a rank-0 tensor.
func Scalar(v float64) *Tensor {
	return tensor.Scalar(v)
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape) (*Tensor, error) {
	return tensor.Zeros(shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) (*Tensor, error) {
	return tensor.Ones(shape)
}

// Full creates a tensor filled with v.
func Full(shape Shape, v float64) (*Tensor, error) {
	return tensor.Full(shape, v)
}

// RandN samples a standard normal tensor. A nil rng uses the global source.
func RandN(shape Shape, rng *rand.Rand) (*Tensor, error) {
	return tensor.RandN(shape, rng)
}

// RandUniform samples uniformly from [lo, hi).
func RandUniform(shape Shape, lo, hi float64, rng *rand.Rand) (*Tensor, error) {
	return tensor.RandUniform(shape, lo, hi, rng)
}

// Element-wise operations

// Add returns a + b.
func Add(a, b *Tensor) (*Tensor, error) { return tensor.Add(a, b) }

// Sub returns a - b.
func Sub(a, b *Tensor) (*Tensor, error) { return tensor.Sub(a, b) }

// Mul returns the element-wise product.
func Mul(a, b *Tensor) (*Tensor, error) { return tensor.Mul(a, b) }

// Div returns the element-wise quotient.
func Div(a, b *Tensor) (*Tensor, error) { return tensor.Div(a, b) }

// Scale returns t * c.
func Scale(t *Tensor, c float64) *Tensor { return tensor.Scale(t, c) }

// Apply maps f over every element.
func Apply(t *Tensor, f func(float64) float64) *Tensor { return tensor.Apply(t, f) }

// Matrix operations

// MatMul multiplies two rank-2 tensors.
func MatMul(a, b *Tensor) (*Tensor, error) { return tensor.MatMul(a, b) }

// Transpose swaps the axes of a rank-2 tensor.
func Transpose(t *Tensor) (*Tensor, error) { return tensor.Transpose(t) }

// GetItem selects rows, then optionally columns, of a rank-2 tensor.
func GetItem(t *Tensor, rows, cols []int) (*Tensor, error) { return tensor.GetItem(t, rows, cols) }

// ArgMaxRows returns the column of the largest value in each row.
func ArgMaxRows(t *Tensor) []int { return tensor.ArgMaxRows(t) }
