package tensor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		shape   Shape
		data    []float64
		wantErr error
	}{
		{name: "zeros", shape: Shape{2, 3}},
		{name: "with data", shape: Shape{2, 2}, data: []float64{1, 2, 3, 4}},
		{name: "length mismatch", shape: Shape{2, 2}, data: []float64{1, 2, 3}, wantErr: ErrShapeMismatch},
		{name: "zero dim", shape: Shape{0, 2}, wantErr: ErrShapeMismatch},
		{name: "negative dim", shape: Shape{3, -1}, wantErr: ErrShapeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.shape, tt.data)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.shape, got.Shape())
			assert.Equal(t, tt.shape.NumElements(), got.NumElements())
		})
	}
}

func TestNew_CopiesData(t *testing.T) {
	data := []float64{1, 2, 3}
	x := MustNew(Shape{3}, data)
	data[0] = 100
	assert.Equal(t, 1.0, x.At(0))
}

func TestElementwise(t *testing.T) {
	a := MustNew(Shape{2, 2}, []float64{1, 2, 3, 4})
	b := MustNew(Shape{2, 2}, []float64{5, 6, 7, 8})

	sum, err := Add(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 8, 10, 12}, sum.Data())

	diff, err := Sub(b, a)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 4, 4, 4}, diff.Data())

	prod, err := Mul(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 12, 21, 32}, prod.Data())

	quot, err := Div(b, a)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5, 3, 7.0 / 3, 2}, quot.Data(), 1e-12)

	// Operands are untouched.
	assert.Equal(t, []float64{1, 2, 3, 4}, a.Data())
}

func TestElementwise_ShapeMismatch(t *testing.T) {
	a := MustNew(Shape{2, 2}, nil)
	b := MustNew(Shape{4}, nil)

	for name, op := range map[string]func(a, b *Tensor) (*Tensor, error){
		"add": Add, "sub": Sub, "mul": Mul, "div": Div,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := op(a, b)
			assert.ErrorIs(t, err, ErrShapeMismatch)
		})
	}
}

func TestMatMul(t *testing.T) {
	a := MustNew(Shape{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	b := MustNew(Shape{3, 2}, []float64{7, 8, 9, 10, 11, 12})

	c, err := MatMul(a, b)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 2}, c.Shape())
	assert.Equal(t, []float64{58, 64, 139, 154}, c.Data())

	_, err = MatMul(a, a)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestTranspose(t *testing.T) {
	a := MustNew(Shape{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	at, err := Transpose(a)
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 2}, at.Shape())
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, at.Data())

	t.Run("batched", func(t *testing.T) {
		x := MustNew(Shape{2, 1, 2}, []float64{1, 2, 3, 4})
		xt, err := Transpose(x)
		require.NoError(t, err)
		assert.Equal(t, Shape{2, 2, 1}, xt.Shape())
		assert.Equal(t, []float64{1, 2, 3, 4}, xt.Data())
	})

	t.Run("rank 1", func(t *testing.T) {
		_, err := Transpose(MustNew(Shape{3}, nil))
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})
}

func TestRandN(t *testing.T) {
	a, err := RandN(Shape{50, 40}, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	b, err := RandN(Shape{50, 40}, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	assert.True(t, a.Equal(b), "same seed must give same values")

	assert.InDelta(t, 0.0, Mean(a), 0.1)

	c, err := LikeRandomN(Shape{3, 4})
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 4}, c.Shape())
}

func TestAddRowVectorAndSumRows(t *testing.T) {
	x := MustNew(Shape{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	b := MustNew(Shape{3}, []float64{10, 20, 30})

	y, err := AddRowVector(x, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 22, 33, 14, 25, 36}, y.Data())

	s, err := SumRows(x)
	require.NoError(t, err)
	assert.Equal(t, Shape{3}, s.Shape())
	assert.Equal(t, []float64{5, 7, 9}, s.Data())
}

func TestToInts(t *testing.T) {
	got, err := ToInts(MustNew(Shape{3}, []float64{0, 4, 2}))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 4, 2}, got)

	_, err = ToInts(MustNew(Shape{2}, []float64{1, 1.5}))
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestArgMaxRows(t *testing.T) {
	x := MustNew(Shape{2, 3}, []float64{0.1, 0.7, 0.2, 3, -1, 2})
	assert.Equal(t, []int{1, 0}, ArgMaxRows(x))
}

func TestInPlaceHelpers(t *testing.T) {
	buf := MustNew(Shape{2}, []float64{1, 1})
	require.NoError(t, buf.AddInPlace(MustNew(Shape{2}, []float64{2, 3})))
	assert.Equal(t, []float64{3, 4}, buf.Data())

	buf.ScaleInPlace(0.5)
	assert.Equal(t, []float64{1.5, 2}, buf.Data())

	buf.Zero()
	assert.Equal(t, []float64{0, 0}, buf.Data())

	assert.ErrorIs(t, buf.AddInPlace(MustNew(Shape{3}, nil)), ErrShapeMismatch)
}
