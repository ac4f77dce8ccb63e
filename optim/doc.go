// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training neural networks.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// An optimizer reads the gradient buffer of each parameter and updates its
// value in place. Parameters without a gradient are skipped.
//
// # Basic Usage
//
//	optimizer := optim.NewAdam(optim.AdamConfig{LR: 0.001})
//
//	// after gradients have been aggregated into the parameters
//	if err := optimizer.Step(model.Parameters()); err != nil {
//	    return err
//	}
//
// Most callers hand the optimizer to a train.Trainer, which calls Step once
// per aggregation window.
package optim
