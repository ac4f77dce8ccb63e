// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Optimizers read each parameter's accumulated gradient buffer and update the
// value in place. They never clear gradients; the trainer zeroes buffers at
// the start of every aggregation window.
//
// Example usage:
//
//	optimizer := optim.NewAdam(optim.AdamConfig{LR: 0.01})
//
//	// after gradients have been aggregated into the parameters:
//	if err := optimizer.Step(model.Parameters()); err != nil {
//	    return err
//	}
//	nn.ZeroGrad(model.Parameters())
package optim

import (
	"github.com/pkg/errors"

	"github.com/born-ml/shardtrain/internal/nn"
	"github.com/born-ml/shardtrain/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: apply one update to every parameter with a gradient
//   - LR / SetLR: read and change the learning rate (for monitoring/scheduling)
//
// Step is called from one goroutine at a time, after the aggregation barrier.
type Optimizer interface {
	Step(params []*nn.Parameter) error
	LR() float64
	SetLR(lr float64)
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

// gradientOf returns p's gradient buffer, or nil when p did not take part in
// the window. A buffer whose shape drifted from the value is an error.
func gradientOf(p *nn.Parameter) (*tensor.Tensor, error) {
	g := p.Grad()
	if g == nil {
		return nil, nil
	}
	if !g.Shape().Equal(p.Shape()) {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "gradient for %q: %v vs %v", p.Name(), g.Shape(), p.Shape())
	}
	return g, nil
}
