package data

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// SpiralConfig describes a synthetic interleaved-spirals classification set.
type SpiralConfig struct {
	Classes   int     // Number of spiral arms, one per class (default: 3)
	PerClass  int     // Samples per arm (default: 100)
	Noise     float64 // Std-dev of angular noise (default: 0.2)
	Turns     float64 // Radians swept by each arm (default: 4)
	BatchSize int     // Minibatch size (default: 32)
	Seed      int64   // Generator seed
}

// DefaultSpiralConfig returns the classic 3-arm layout.
func DefaultSpiralConfig() SpiralConfig {
	return SpiralConfig{Classes: 3, PerClass: 100, Noise: 0.2, Turns: 4, BatchSize: 32, Seed: 1}
}

// Spiral generates Classes interleaved spiral arms in the plane. Sample k of
// arm j sits at radius r = k/(PerClass-1) and angle
// j*Turns + r*Turns + N(0, Noise), labelled j. The result is shuffled with
// the same seed so that every batch mixes classes.
func Spiral(cfg SpiralConfig) (*InMemory, error) {
	def := DefaultSpiralConfig()
	if cfg.Classes == 0 {
		cfg.Classes = def.Classes
	}
	if cfg.PerClass == 0 {
		cfg.PerClass = def.PerClass
	}
	if cfg.Turns == 0 {
		cfg.Turns = def.Turns
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.Classes < 1 || cfg.PerClass < 2 {
		return nil, errors.Wrapf(ErrEmptyDataset, "spiral: %d classes x %d samples", cfg.Classes, cfg.PerClass)
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible synthetic data
	n := cfg.Classes * cfg.PerClass
	features := make([][]float64, 0, n)
	labels := make([]float64, 0, n)
	for j := 0; j < cfg.Classes; j++ {
		for k := 0; k < cfg.PerClass; k++ {
			r := float64(k) / float64(cfg.PerClass-1)
			theta := float64(j)*cfg.Turns + r*cfg.Turns + rng.NormFloat64()*cfg.Noise
			features = append(features, []float64{r * math.Sin(theta), r * math.Cos(theta)})
			labels = append(labels, float64(j))
		}
	}

	ds, err := NewInMemory(features, labels, cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	ds.Shuffle(rng)
	return ds, nil
}
