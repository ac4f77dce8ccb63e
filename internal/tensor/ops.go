package tensor

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// elementwise runs a binary gonum kernel over identically shaped operands.
func elementwise(op string, a, b *Tensor, kernel func(dst, s, t []float64) []float64) (*Tensor, error) {
	if !SameShape(a, b) {
		return nil, shapeMismatch(op, a.shape, b.shape)
	}
	out := ZerosLike(a)
	kernel(out.data, a.data, b.data)
	return out, nil
}

// Add returns a + b. Shapes must be identical.
func Add(a, b *Tensor) (*Tensor, error) {
	return elementwise("add", a, b, floats.AddTo)
}

// Sub returns a - b. Shapes must be identical.
func Sub(a, b *Tensor) (*Tensor, error) {
	return elementwise("sub", a, b, floats.SubTo)
}

// Mul returns the element-wise product a * b. Shapes must be identical.
func Mul(a, b *Tensor) (*Tensor, error) {
	return elementwise("mul", a, b, floats.MulTo)
}

// Div returns the element-wise quotient a / b. Shapes must be identical.
func Div(a, b *Tensor) (*Tensor, error) {
	return elementwise("div", a, b, floats.DivTo)
}

// Scale returns c * t.
func Scale(t *Tensor, c float64) *Tensor {
	out := ZerosLike(t)
	floats.ScaleTo(out.data, c, t.data)
	return out
}

// Apply returns f applied to every element of t.
func Apply(t *Tensor, f func(float64) float64) *Tensor {
	out := ZerosLike(t)
	for i, v := range t.data {
		out.data[i] = f(v)
	}
	return out
}

// SumAll returns the sum of all elements.
func SumAll(t *Tensor) float64 {
	return floats.Sum(t.data)
}

// Mean returns the arithmetic mean of all elements.
func Mean(t *Tensor) float64 {
	return floats.Sum(t.data) / float64(len(t.data))
}

// MatMul returns the matrix product of two 2-D tensors: [m,k] x [k,n] -> [m,n].
func MatMul(a, b *Tensor) (*Tensor, error) {
	if a.Rank() != 2 || b.Rank() != 2 || a.shape[1] != b.shape[0] {
		return nil, shapeMismatch("matmul", a.shape, b.shape)
	}
	m, n := a.shape[0], b.shape[1]
	out := &Tensor{shape: Shape{m, n}, data: make([]float64, m*n)}

	ad := mat.NewDense(a.shape[0], a.shape[1], a.data)
	bd := mat.NewDense(b.shape[0], b.shape[1], b.data)
	od := mat.NewDense(m, n, out.data)
	od.Mul(ad, bd)
	return out, nil
}

// Transpose swaps the two trailing axes. Leading axes are treated as a batch.
func Transpose(t *Tensor) (*Tensor, error) {
	r := t.Rank()
	if r < 2 {
		return nil, errors.Wrapf(ErrShapeMismatch, "transpose: need rank >= 2, got shape %v", t.shape)
	}
	rows, cols := t.shape[r-2], t.shape[r-1]
	outShape := t.shape.Clone()
	outShape[r-2], outShape[r-1] = cols, rows

	out := &Tensor{shape: outShape, data: make([]float64, len(t.data))}
	plane := rows * cols
	for base := 0; base < len(t.data); base += plane {
		src := t.data[base : base+plane]
		dst := out.data[base : base+plane]
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				dst[j*rows+i] = src[i*cols+j]
			}
		}
	}
	return out, nil
}

// AddRowVector adds a [n] (or [1,n]) vector to every row of a [m,n] tensor.
func AddRowVector(t, v *Tensor) (*Tensor, error) {
	if t.Rank() != 2 || v.NumElements() != t.shape[1] {
		return nil, shapeMismatch("add_row_vector", t.shape, v.shape)
	}
	out := t.Clone()
	cols := t.shape[1]
	for i := 0; i < t.shape[0]; i++ {
		floats.Add(out.data[i*cols:(i+1)*cols], v.data)
	}
	return out, nil
}

// SumRows reduces a [m,n] tensor over its leading axis to [n].
func SumRows(t *Tensor) (*Tensor, error) {
	if t.Rank() != 2 {
		return nil, errors.Wrapf(ErrShapeMismatch, "sum_rows: need rank 2, got shape %v", t.shape)
	}
	cols := t.shape[1]
	out := &Tensor{shape: Shape{cols}, data: make([]float64, cols)}
	for i := 0; i < t.shape[0]; i++ {
		floats.Add(out.data, t.data[i*cols:(i+1)*cols])
	}
	return out, nil
}

// ArgMaxRows returns the column index of the maximum value in each row.
func ArgMaxRows(t *Tensor) []int {
	rows, cols := t.shape.Rows(), t.shape.Cols()
	out := make([]int, rows)
	for i := 0; i < rows; i++ {
		out[i] = floats.MaxIdx(t.data[i*cols : (i+1)*cols])
	}
	return out
}

// ToInts converts every element to an int, failing with ErrInvalidIndex when
// a value is not integral.
func ToInts(t *Tensor) ([]int, error) {
	out := make([]int, len(t.data))
	for i, v := range t.data {
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return nil, errors.Wrapf(ErrInvalidIndex, "element %d = %v is not integral", i, v)
		}
		out[i] = int(v)
	}
	return out, nil
}

// AddInPlace accumulates src into t. Used only for gradient buffers.
func (t *Tensor) AddInPlace(src *Tensor) error {
	if !SameShape(t, src) {
		return shapeMismatch("add_in_place", t.shape, src.shape)
	}
	floats.Add(t.data, src.data)
	return nil
}

// ScaleInPlace multiplies every element by c.
func (t *Tensor) ScaleInPlace(c float64) {
	floats.Scale(c, t.data)
}

// Zero sets every element to zero, keeping the allocation.
func (t *Tensor) Zero() {
	for i := range t.data {
		t.data[i] = 0
	}
}

// CopyFrom overwrites t's values with src's.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if !SameShape(t, src) {
		return shapeMismatch("copy_from", t.shape, src.shape)
	}
	copy(t.data, src.data)
	return nil
}
