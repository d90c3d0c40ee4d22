// Copyright 2025 Rewind ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"io"

	"github.com/rewind-ml/rewind/internal/tensor"
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3} represents a 2×3 matrix.
type Shape = tensor.Shape

// Dense is a dense row-major tensor of float64 values.
type Dense = tensor.Dense

// Construction

// NewDense creates a tensor of the given shape from a copy of data.
func NewDense(shape Shape, data []float64) (*Dense, error) {
	return tensor.NewDense(shape, data)
}

// Matrix creates a rows×cols matrix from row-major data.
func Matrix(rows, cols int, data []float64) (*Dense, error) {
	return tensor.Matrix(rows, cols, data)
}

// Vector creates a rank-1 tensor from the given values.
func Vector(values ...float64) *Dense {
	return tensor.Vector(values...)
}

// Zeros creates a zero-filled tensor of the given shape.
func Zeros(shape Shape) *Dense {
	return tensor.Zeros(shape)
}

// Ones creates a one-filled tensor of the given shape.
func Ones(shape Shape) *Dense {
	return tensor.Ones(shape)
}

// Full creates a tensor of the given shape filled with value.
func Full(shape Shape, value float64) *Dense {
	return tensor.Full(shape, value)
}

// Arithmetic

// Add returns the elementwise sum a + b.
func Add(a, b *Dense) *Dense { return tensor.Add(a, b) }

// Sub returns the elementwise difference a - b.
func Sub(a, b *Dense) *Dense { return tensor.Sub(a, b) }

// Mul returns the elementwise product a * b.
func Mul(a, b *Dense) *Dense { return tensor.Mul(a, b) }

// Div returns the elementwise quotient a / b.
func Div(a, b *Dense) *Dense { return tensor.Div(a, b) }

// Scale returns t scaled by s.
func Scale(t *Dense, s float64) *Dense { return tensor.Scale(t, s) }

// Map returns f applied to every element of t.
func Map(t *Dense, f func(float64) float64) *Dense { return tensor.Map(t, f) }

// Sum returns the sum of all elements of t.
func Sum(t *Dense) float64 { return tensor.Sum(t) }

// Linear algebra

// MatVec returns the matrix-vector product m·v.
func MatVec(m, v *Dense) *Dense { return tensor.MatVec(m, v) }

// MatMul returns the matrix product a·b.
func MatMul(a, b *Dense) *Dense { return tensor.MatMul(a, b) }

// Manipulation

// ConcatRows concatenates parts along the leading dimension.
func ConcatRows(parts ...*Dense) *Dense { return tensor.ConcatRows(parts...) }

// SliceRows returns rows [from, to) of t as a new tensor.
func SliceRows(t *Dense, from, to int) *Dense { return tensor.SliceRows(t, from, to) }

// Serialization

// Encoding selects the element width tensors are serialized with.
type Encoding = tensor.Encoding

// Element encodings.
const (
	EncodingFloat64 Encoding = tensor.EncodingFloat64
	EncodingFloat32 Encoding = tensor.EncodingFloat32
	EncodingFloat16 Encoding = tensor.EncodingFloat16
)

// Serialization errors.
var (
	ErrInvalidMagic       = tensor.ErrInvalidMagic
	ErrUnsupportedVersion = tensor.ErrUnsupportedVersion
	ErrUnknownEncoding    = tensor.ErrUnknownEncoding
)

// Encode writes t to w in the given encoding.
func Encode(w io.Writer, t *Dense, enc Encoding) error {
	return tensor.Encode(w, t, enc)
}

// Decode reads a tensor written by Encode.
func Decode(r io.Reader) (*Dense, error) {
	return tensor.Decode(r)
}

// Save writes t to a file in the given encoding.
func Save(path string, t *Dense, enc Encoding) error {
	return tensor.Save(path, t, enc)
}

// Load reads a tensor from a file written by Save.
func Load(path string) (*Dense, error) {
	return tensor.Load(path)
}
