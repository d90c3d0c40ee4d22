// Copyright 2025 Rewind ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// Raw scalars and tensors become differentiable by lifting them into
// nodes. Every built-in operation accepts nodes and raw values in any
// mix: calls with at least one node eagerly compute the forward value
// and record how to push gradients back; calls with only raw values
// fold to a raw result. Backward seeds a chosen output and accumulates
// the gradient of every lifted value it depends on.
//
// Example:
//
//	import (
//	    "fmt"
//
//	    "github.com/rewind-ml/rewind/autodiff"
//	)
//
//	func main() {
//	    x := autodiff.LiftScalar(3, "x")
//	    y := autodiff.LiftScalar(4, "y")
//	    z := autodiff.Add(autodiff.Mul(x, y), x) // z = x*y + x
//
//	    autodiff.Backward(z)
//	    fmt.Println(x.Gradient()) // dz/dx = y + 1 = 5
//	    fmt.Println(y.Gradient()) // dz/dy = x = 3
//	}
package autodiff

import (
	"github.com/rewind-ml/rewind/internal/autodiff"
	"github.com/rewind-ml/rewind/internal/tensor"
)

// Node types

// Scalar is a lifted float64.
type Scalar = autodiff.Scalar

// Tensor is a lifted dense tensor.
type Tensor = autodiff.Tensor

// Lifted is the common face of *Scalar and *Tensor.
type Lifted = autodiff.Lifted

// Kind is the value-type capability node construction is parameterized
// over; exactly two exist, ScalarKind() and TensorKind().
type Kind[V any] = autodiff.Kind[V]

// ScalarKind is the kind of float64-valued nodes.
func ScalarKind() *Kind[float64] {
	return autodiff.ScalarKind()
}

// TensorKind is the kind of dense-tensor-valued nodes.
func TensorKind() *Kind[*tensor.Dense] {
	return autodiff.TensorKind()
}

// Lifting

// Lift wraps a raw scalar or tensor into a node; nodes pass through
// unchanged.
func Lift(v any, label ...string) Lifted {
	return autodiff.Lift(v, label...)
}

// LiftScalar wraps a float64 so it participates in differentiation.
func LiftScalar(v float64, label ...string) *Scalar {
	return autodiff.LiftScalar(v, label...)
}

// LiftTensor wraps a copy of t so it participates in differentiation.
func LiftTensor(t *tensor.Dense, label ...string) *Tensor {
	return autodiff.LiftTensor(t, label...)
}

// IsLifted reports whether v is a node.
func IsLifted(v any) bool {
	return autodiff.IsLifted(v)
}

// Value unwraps a node to its raw forward value; raw values pass
// through unchanged.
func Value(v any) any {
	return autodiff.Value(v)
}

// Derivative returns the gradient accumulated for a node by the most
// recent backward pass.
func Derivative(v any) any {
	return autodiff.Derivative(v)
}

// Operation registration

// UnaryFunc describes a one-argument operation.
type UnaryFunc[V any] = autodiff.UnaryFunc[V]

// BinaryFunc describes a two-argument operation with per-side backward
// formulas.
type BinaryFunc[V any] = autodiff.BinaryFunc[V]

// Func describes a variable-arity operation whose formulas see the
// original argument list.
type Func[V any] = autodiff.Func[V]

// NewUnaryFunction builds the callable for a unary operation.
func NewUnaryFunction[V any](spec UnaryFunc[V]) func(any) any {
	return autodiff.NewUnaryFunction(spec)
}

// NewBinaryFunction builds the callable for a binary operation.
func NewBinaryFunction[V any](spec BinaryFunc[V]) func(any, any) any {
	return autodiff.NewBinaryFunction(spec)
}

// NewFunction builds the callable for a variable-arity operation.
func NewFunction[V any](spec Func[V]) func(...any) any {
	return autodiff.NewFunction(spec)
}

// LiftedArgs returns the lifted arguments in argument order; it is the
// default parents extractor for NewFunction.
func LiftedArgs(args []any) []Lifted {
	return autodiff.LiftedArgs(args)
}

// DerivativeTable returns the sorted names of every built-in operation
// a derivative formula is registered for.
func DerivativeTable() []string {
	return autodiff.DerivativeTable()
}

// Backward pass

// Backward runs a backward pass from output, seeding its gradient with
// the multiplicative unit for its kind.
func Backward(output any) {
	autodiff.Backward(output)
}

// BackwardWithCotangent runs a backward pass from a tensor output,
// seeding with an explicit cotangent of the same shape.
func BackwardWithCotangent(output any, cotangent *tensor.Dense) {
	autodiff.BackwardWithCotangent(output, cotangent)
}

// Arithmetic (elementwise for tensors)

// Add returns x + y.
func Add(x, y any) any { return autodiff.Add(x, y) }

// Sub returns x - y.
func Sub(x, y any) any { return autodiff.Sub(x, y) }

// Mul returns x * y.
func Mul(x, y any) any { return autodiff.Mul(x, y) }

// Div returns x / y.
func Div(x, y any) any { return autodiff.Div(x, y) }

// Neg returns -x.
func Neg(x any) any { return autodiff.Neg(x) }

// Transcendental functions (elementwise for tensors)

// Exp returns e**x.
func Exp(x any) any { return autodiff.Exp(x) }

// Log returns the natural logarithm of x.
func Log(x any) any { return autodiff.Log(x) }

// Sqrt returns the square root of x.
func Sqrt(x any) any { return autodiff.Sqrt(x) }

// Sin returns the sine of x.
func Sin(x any) any { return autodiff.Sin(x) }

// Cos returns the cosine of x.
func Cos(x any) any { return autodiff.Cos(x) }

// Tan returns the tangent of x.
func Tan(x any) any { return autodiff.Tan(x) }

// Asin returns the arcsine of x.
func Asin(x any) any { return autodiff.Asin(x) }

// Acos returns the arccosine of x.
func Acos(x any) any { return autodiff.Acos(x) }

// Atan returns the arctangent of x.
func Atan(x any) any { return autodiff.Atan(x) }

// Sinh returns the hyperbolic sine of x.
func Sinh(x any) any { return autodiff.Sinh(x) }

// Cosh returns the hyperbolic cosine of x.
func Cosh(x any) any { return autodiff.Cosh(x) }

// Tanh returns the hyperbolic tangent of x.
func Tanh(x any) any { return autodiff.Tanh(x) }

// Sigmoid returns the logistic function of x.
func Sigmoid(x any) any { return autodiff.Sigmoid(x) }

// Floor returns the greatest integer value less than or equal to x;
// its derivative contributes nothing.
func Floor(x any) any { return autodiff.Floor(x) }

// Ceil returns the least integer value greater than or equal to x; its
// derivative contributes nothing.
func Ceil(x any) any { return autodiff.Ceil(x) }

// Round returns the nearest integer to x; its derivative contributes
// nothing.
func Round(x any) any { return autodiff.Round(x) }

// Binary scalar functions

// Pow returns x**y.
func Pow(x, y any) any { return autodiff.Pow(x, y) }

// Min returns the smaller of x and y; ties route the gradient to x.
func Min(x, y any) any { return autodiff.Min(x, y) }

// Max returns the larger of x and y; ties route the gradient to x.
func Max(x, y any) any { return autodiff.Max(x, y) }

// Atan2 returns the arctangent of y/x using the operands' signs to
// select the quadrant.
func Atan2(y, x any) any { return autodiff.Atan2(y, x) }

// Linear algebra

// MatVec returns the matrix-vector product m·v.
func MatVec(m, v any) any { return autodiff.MatVec(m, v) }

// MatMul returns the matrix product a·b.
func MatMul(a, b any) any { return autodiff.MatMul(a, b) }

// Tensor/scalar interop

// At returns element i of t's row-major flattening as a scalar.
func At(t any, i int) any { return autodiff.At(t, i) }

// Slice returns rows [from, to) of t.
func Slice(t any, from, to int) any { return autodiff.Slice(t, from, to) }

// Concat concatenates parts along the leading dimension; scalars join
// as one-element vectors.
func Concat(parts ...any) any { return autodiff.Concat(parts...) }

// Sum adds scalars, lifted or raw.
func Sum(args ...any) any { return autodiff.Sum(args...) }

// SumAll reduces a tensor to the scalar sum of its elements.
func SumAll(t any) any { return autodiff.SumAll(t) }

// Comparisons (always raw booleans, never nodes)

// Greater reports whether x > y.
func Greater(x, y any) bool { return autodiff.Greater(x, y) }

// Less reports whether x < y.
func Less(x, y any) bool { return autodiff.Less(x, y) }

// GreaterEqual reports whether x >= y.
func GreaterEqual(x, y any) bool { return autodiff.GreaterEqual(x, y) }

// LessEqual reports whether x <= y.
func LessEqual(x, y any) bool { return autodiff.LessEqual(x, y) }

// Equal reports whether x == y.
func Equal(x, y any) bool { return autodiff.Equal(x, y) }

// NotEqual reports whether x != y.
func NotEqual(x, y any) bool { return autodiff.NotEqual(x, y) }
