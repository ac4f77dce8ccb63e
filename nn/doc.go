// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and building blocks.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Embedding
//   - Activations: ReLU, Sigmoid, Tanh
//   - Loss functions: CrossEntropyLoss, MSELoss
//   - Utilities: Sequential, Layer interface, Parameter, Tape
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/born-ml/shardtrain/nn"
//	)
//
//	func main() {
//	    rng := rand.New(rand.NewSource(1))
//
//	    // Build a simple MLP
//	    model := nn.NewSequential(
//	        nn.MustLinear(2, 32, rng),
//	        nn.NewReLU(),
//	        nn.MustLinear(32, 3, rng),
//	    )
//
//	    // One pass: forward on a fresh tape, loss, backward
//	    tape := nn.NewTape()
//	    out, _ := model.Forward(tape, tape.Input(x))
//	    loss, _ := nn.NewCrossEntropyLoss().Compute(tape, out, labels)
//	    grads, _ := tape.Backward(loss, nil)
//	}
//
// # Concurrency
//
// Layers hold no per-pass state: each pass records into its own Tape and
// returns its gradients in a Gradients arena, so one model can serve many
// concurrent passes. A layer that cannot be shared implements
// ConcurrencySafe and returns false.
package nn
