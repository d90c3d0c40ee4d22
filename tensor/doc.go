// Copyright 2025 Rewind ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides dense float64 tensors for the Rewind ML
// framework.
//
// # Overview
//
// A Dense tensor is flat row-major storage plus a Shape. The package
// provides:
//   - Constructors (NewDense, Matrix, Vector, Zeros, Ones, Full)
//   - Elementwise arithmetic and Map over elements
//   - Matrix-vector and matrix-matrix products backed by gonum
//   - Row-wise concatenation and slicing
//   - Compact binary serialization (float64, float32, float16)
//
// Operations are value-oriented: every arithmetic function allocates
// its result and never modifies its operands. Shape mismatches and
// out-of-range indices abort; constructors taking client data return
// errors instead.
//
// # Basic Usage
//
//	import "github.com/rewind-ml/rewind/tensor"
//
//	func main() {
//	    m, _ := tensor.Matrix(2, 2, []float64{1, 2, 3, 4})
//	    v := tensor.Vector(5, 6)
//
//	    y := tensor.MatVec(m, v) // [17 39]
//	    fmt.Println(y.AtFlat(0), y.Shape())
//	}
//
// # Differentiation
//
// Tensors become differentiable when lifted into the autodiff package;
// this package only supplies the raw values and kernels.
package tensor
