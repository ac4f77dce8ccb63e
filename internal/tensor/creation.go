package tensor

import (
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) (*Tensor, error) {
	return New(shape, nil)
}

// ZerosLike creates a zero tensor with the shape of t.
func ZerosLike(t *Tensor) *Tensor {
	return &Tensor{shape: t.shape.Clone(), data: make([]float64, len(t.data))}
}

// Full creates a tensor where every element is v.
func Full(shape Shape, v float64) (*Tensor, error) {
	t, err := New(shape, nil)
	if err != nil {
		return nil, err
	}
	for i := range t.data {
		t.data[i] = v
	}
	return t, nil
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) (*Tensor, error) {
	return Full(shape, 1)
}

// OnesLike creates a tensor of ones with the shape of t.
func OnesLike(t *Tensor) *Tensor {
	out := ZerosLike(t)
	for i := range out.data {
		out.data[i] = 1
	}
	return out
}

// RandN samples a tensor i.i.d. from N(0, 1) using rng.
//
// Passing a seeded rng gives reproducible initialization; a nil rng behaves
// like LikeRandomN.
func RandN(shape Shape, rng *rand.Rand) (*Tensor, error) {
	if rng == nil {
		return LikeRandomN(shape)
	}
	t, err := New(shape, nil)
	if err != nil {
		return nil, err
	}
	for i := range t.data {
		t.data[i] = rng.NormFloat64()
	}
	return t, nil
}

// LikeRandomN returns a freshly allocated tensor of the given shape sampled
// i.i.d. from a standard normal distribution, using the process-wide source.
func LikeRandomN(shape Shape) (*Tensor, error) {
	t, err := New(shape, nil)
	if err != nil {
		return nil, err
	}
	for i := range t.data {
		//nolint:gosec // math/rand is appropriate for ML weight initialization
		t.data[i] = rand.NormFloat64()
	}
	return t, nil
}

// RandUniform samples a tensor i.i.d. from U(lo, hi) using rng, or the
// process-wide source when rng is nil.
func RandUniform(shape Shape, lo, hi float64, rng *rand.Rand) (*Tensor, error) {
	t, err := New(shape, nil)
	if err != nil {
		return nil, err
	}
	draw := rand.Float64 //nolint:gosec // not security-critical
	if rng != nil {
		draw = rng.Float64
	}
	for i := range t.data {
		t.data[i] = lo + draw()*(hi-lo)
	}
	return t, nil
}
