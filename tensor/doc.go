// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides dense float64 tensors for shardtrain.
//
// # Overview
//
// A Tensor is an immutable-shape, row-major block of float64 values. This
// package provides:
//   - Creation: New, FromRows, Zeros, Ones, Full, RandN, RandUniform
//   - Element-wise math: Add, Sub, Mul, Div, Scale, Apply
//   - Matrix operations: MatMul, Transpose, AddRowVector, SumRows
//   - Indexing: GetItem (rows, then optionally columns)
//
// Every operation that can fail returns an error wrapping ErrShapeMismatch
// or ErrInvalidIndex.
//
// # Basic Usage
//
//	import "github.com/born-ml/shardtrain/tensor"
//
//	func main() {
//	    x, _ := tensor.FromRows([][]float64{{1, 2}, {3, 4}})
//	    w := tensor.MustNew(tensor.Shape{2, 2}, []float64{1, 0, 0, 1})
//	    y, err := tensor.MatMul(x, w)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(y) // [[1 2] [3 4]]
//	}
package tensor
