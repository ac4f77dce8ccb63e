package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/shardtrain/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// A nil rng draws from the global math/rand source.
func Xavier(fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand) (*tensor.Tensor, error) {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return tensor.RandUniform(shape, -bound, bound, rng)
}

// ScaledNormal draws every element from N(0, 1) and multiplies it by scale.
func ScaledNormal(shape tensor.Shape, scale float64, rng *rand.Rand) (*tensor.Tensor, error) {
	t, err := tensor.RandN(shape, rng)
	if err != nil {
		return nil, err
	}
	t.ScaleInPlace(scale)
	return t, nil
}
