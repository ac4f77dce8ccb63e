// Package tensor implements the dense float64 n-dimensional array used by the
// autodiff graph, the layers and the optimizers.
//
// Tensors are treated as values: every op returns a freshly allocated result.
// The only mutating methods (AddInPlace, ScaleInPlace, ScatterAddRows, Zero)
// exist for gradient accumulation buffers and optimizer state, and callers own
// the synchronization around them.
package tensor

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Tensor is a dense, row-major n-dimensional array of float64.
//
// Invariant: len(data) == shape.NumElements().
type Tensor struct {
	shape Shape
	data  []float64
}

// New creates a tensor of the given shape backed by a copy of data.
//
// A nil or empty data slice allocates zeros.
func New(shape Shape, data []float64) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	n := shape.NumElements()
	if len(data) == 0 {
		return &Tensor{shape: shape.Clone(), data: make([]float64, n)}, nil
	}
	if len(data) != n {
		return nil, errors.Wrapf(ErrShapeMismatch, "shape %v implies %d elements but data has length %d", shape, n, len(data))
	}
	buf := make([]float64, n)
	copy(buf, data)
	return &Tensor{shape: shape.Clone(), data: buf}, nil
}

// MustNew is like New but panics on error. Intended for literals in tests and examples.
func MustNew(shape Shape, data []float64) *Tensor {
	t, err := New(shape, data)
	if err != nil {
		panic(err)
	}
	return t
}

// FromRows builds a 2-D tensor from a slice of equally sized rows.
func FromRows(rows [][]float64) (*Tensor, error) {
	if len(rows) == 0 {
		return nil, errors.Wrap(ErrShapeMismatch, "FromRows: no rows")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, errors.Wrapf(ErrShapeMismatch, "FromRows: row %d has %d columns, want %d", i, len(r), cols)
		}
		data = append(data, r...)
	}
	return New(Shape{len(rows), cols}, data)
}

// Scalar creates a rank-0 tensor holding v.
func Scalar(v float64) *Tensor {
	return &Tensor{shape: Shape{}, data: []float64{v}}
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape.Clone()
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// NumElements returns the number of stored values.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Data returns the underlying storage. Mutating it mutates the tensor.
func (t *Tensor) Data() []float64 {
	return t.data
}

// Item returns the single value of a one-element tensor.
func (t *Tensor) Item() float64 {
	if len(t.data) != 1 {
		panic(fmt.Sprintf("tensor.Item: tensor has %d elements", len(t.data)))
	}
	return t.data[0]
}

// At returns the element at the given coordinates.
func (t *Tensor) At(idx ...int) float64 {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor.At: got %d indices for rank %d", len(idx), len(t.shape)))
	}
	strides := t.shape.ComputeStrides()
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			panic(fmt.Sprintf("tensor.At: index %d out of range for axis %d (size %d)", v, i, t.shape[i]))
		}
		off += v * strides[i]
	}
	return t.data[off]
}

// Row returns a copy of row i of a 2-D tensor.
func (t *Tensor) Row(i int) []float64 {
	cols := t.shape.Cols()
	out := make([]float64, cols)
	copy(out, t.data[i*cols:(i+1)*cols])
	return out
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return &Tensor{shape: t.shape.Clone(), data: data}
}

// Reshape returns a copy with a new shape of the same element count.
func (t *Tensor) Reshape(shape Shape) (*Tensor, error) {
	if shape.NumElements() != len(t.data) {
		return nil, shapeMismatch("reshape", t.shape, shape)
	}
	return New(shape, t.data)
}

// SameShape reports whether both tensors have identical shapes.
func SameShape(a, b *Tensor) bool {
	return a.shape.Equal(b.shape)
}

// Equal reports exact equality of shape and values.
func (t *Tensor) Equal(other *Tensor) bool {
	return t.AllClose(other, 0)
}

// AllClose reports whether shapes match and every element differs by at most tol.
func (t *Tensor) AllClose(other *Tensor, tol float64) bool {
	if other == nil || !SameShape(t, other) {
		return false
	}
	for i, v := range t.data {
		if math.Abs(v-other.data[i]) > tol {
			return false
		}
	}
	return true
}

// String renders the tensor for debugging.
func (t *Tensor) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tensor%v", []int(t.shape))
	if len(t.data) <= 16 {
		fmt.Fprintf(&sb, "%v", t.data)
	} else {
		fmt.Fprintf(&sb, "%v...", t.data[:16])
	}
	return sb.String()
}
