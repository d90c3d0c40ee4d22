package autodiff

import (
	"math"

	"github.com/gomlx/exceptions"
	"github.com/rewind-ml/rewind/internal/tensor"
)

// The built-in library instantiates one operation per name and kind by
// pairing a concrete forward formula with the derivative table's entry
// for that name. Public entry points route to the scalar or tensor
// specialization by the dynamic kind of the arguments; they never build
// nodes themselves.

func newScalarUnary(name string, forward func(float64) float64) func(any) any {
	return NewUnaryFunction(UnaryFunc[float64]{
		Kind:     scalarKind,
		Name:     name,
		Forward:  forward,
		Backward: scalarUnaryDerivative(name),
	})
}

func newScalarBinary(name string, forward func(x, y float64) float64) func(any, any) any {
	formulas := scalarBinaryDerivative(name)
	return NewBinaryFunction(BinaryFunc[float64]{
		Kind:      scalarKind,
		Name:      name,
		Forward:   forward,
		BackwardX: formulas.left,
		BackwardY: formulas.right,
	})
}

func newTensorUnary(name string, forward func(*tensor.Dense) *tensor.Dense) func(any) any {
	return NewUnaryFunction(UnaryFunc[*tensor.Dense]{
		Kind:     tensorKind,
		Name:     name,
		Forward:  forward,
		Backward: tensorUnaryDerivative(name),
	})
}

func newTensorBinary(name string, forward func(a, b *tensor.Dense) *tensor.Dense) func(any, any) any {
	formulas := tensorBinaryDerivative(name)
	return NewBinaryFunction(BinaryFunc[*tensor.Dense]{
		Kind:      tensorKind,
		Name:      name,
		Forward:   forward,
		BackwardX: formulas.left,
		BackwardY: formulas.right,
	})
}

func elementwise(f func(float64) float64) func(*tensor.Dense) *tensor.Dense {
	return func(t *tensor.Dense) *tensor.Dense {
		return tensor.Map(t, f)
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

var (
	scalarNeg     = newScalarUnary("scalar.neg", func(x float64) float64 { return -x })
	scalarExp     = newScalarUnary("scalar.exp", math.Exp)
	scalarLog     = newScalarUnary("scalar.log", math.Log)
	scalarSqrt    = newScalarUnary("scalar.sqrt", math.Sqrt)
	scalarSin     = newScalarUnary("scalar.sin", math.Sin)
	scalarCos     = newScalarUnary("scalar.cos", math.Cos)
	scalarTan     = newScalarUnary("scalar.tan", math.Tan)
	scalarAsin    = newScalarUnary("scalar.asin", math.Asin)
	scalarAcos    = newScalarUnary("scalar.acos", math.Acos)
	scalarAtan    = newScalarUnary("scalar.atan", math.Atan)
	scalarSinh    = newScalarUnary("scalar.sinh", math.Sinh)
	scalarCosh    = newScalarUnary("scalar.cosh", math.Cosh)
	scalarTanh    = newScalarUnary("scalar.tanh", math.Tanh)
	scalarSigmoid = newScalarUnary("scalar.sigmoid", sigmoid)
	scalarFloor   = newScalarUnary("scalar.floor", math.Floor)
	scalarCeil    = newScalarUnary("scalar.ceil", math.Ceil)
	scalarRound   = newScalarUnary("scalar.round", math.Round)

	scalarAdd   = newScalarBinary("scalar.add", func(x, y float64) float64 { return x + y })
	scalarSub   = newScalarBinary("scalar.sub", func(x, y float64) float64 { return x - y })
	scalarMul   = newScalarBinary("scalar.mul", func(x, y float64) float64 { return x * y })
	scalarDiv   = newScalarBinary("scalar.div", func(x, y float64) float64 { return x / y })
	scalarPow   = newScalarBinary("scalar.pow", math.Pow)
	scalarMin   = newScalarBinary("scalar.min", math.Min)
	scalarMax   = newScalarBinary("scalar.max", math.Max)
	scalarAtan2 = newScalarBinary("scalar.atan2", math.Atan2)
)

var (
	tensorNeg     = newTensorUnary("tensor.neg", func(t *tensor.Dense) *tensor.Dense { return tensor.Scale(t, -1) })
	tensorExp     = newTensorUnary("tensor.exp", elementwise(math.Exp))
	tensorLog     = newTensorUnary("tensor.log", elementwise(math.Log))
	tensorSqrt    = newTensorUnary("tensor.sqrt", elementwise(math.Sqrt))
	tensorSin     = newTensorUnary("tensor.sin", elementwise(math.Sin))
	tensorCos     = newTensorUnary("tensor.cos", elementwise(math.Cos))
	tensorTan     = newTensorUnary("tensor.tan", elementwise(math.Tan))
	tensorAsin    = newTensorUnary("tensor.asin", elementwise(math.Asin))
	tensorAcos    = newTensorUnary("tensor.acos", elementwise(math.Acos))
	tensorAtan    = newTensorUnary("tensor.atan", elementwise(math.Atan))
	tensorSinh    = newTensorUnary("tensor.sinh", elementwise(math.Sinh))
	tensorCosh    = newTensorUnary("tensor.cosh", elementwise(math.Cosh))
	tensorTanh    = newTensorUnary("tensor.tanh", elementwise(math.Tanh))
	tensorSigmoid = newTensorUnary("tensor.sigmoid", elementwise(sigmoid))
	tensorFloor   = newTensorUnary("tensor.floor", elementwise(math.Floor))
	tensorCeil    = newTensorUnary("tensor.ceil", elementwise(math.Ceil))
	tensorRound   = newTensorUnary("tensor.round", elementwise(math.Round))

	tensorAdd    = newTensorBinary("tensor.add", tensor.Add)
	tensorSub    = newTensorBinary("tensor.sub", tensor.Sub)
	tensorMul    = newTensorBinary("tensor.mul", tensor.Mul)
	tensorDiv    = newTensorBinary("tensor.div", tensor.Div)
	tensorMatVec = newTensorBinary("tensor.matvec", tensor.MatVec)
	tensorMatMul = newTensorBinary("tensor.matmul", tensor.MatMul)
)

// isTensorArg reports whether v routes an operation to its tensor
// specialization.
func isTensorArg(v any) bool {
	switch v.(type) {
	case *Tensor, *tensor.Dense:
		return true
	}
	return false
}

// scalarOperand unwraps a lifted or raw scalar operand.
func scalarOperand(op string, v any) float64 {
	if n, ok := v.(*Scalar); ok {
		return n.x
	}
	f, ok := rawScalar(v)
	if !ok {
		exceptions.Panicf("%s: unsupported operand type %T", op, v)
	}
	return f
}

// tensorOperand unwraps a lifted or raw tensor operand.
func tensorOperand(op string, v any) *tensor.Dense {
	switch t := v.(type) {
	case *Tensor:
		return t.x
	case *tensor.Dense:
		return t
	}
	exceptions.Panicf("%s: expected a tensor operand, got %T", op, v)
	return nil
}

// Arithmetic

// Add returns x + y (elementwise for tensors). Two raw operands fold to
// a raw result; lifted operands record the node.
func Add(x, y any) any {
	if isTensorArg(x) || isTensorArg(y) {
		return tensorAdd(x, y)
	}
	return scalarAdd(x, y)
}

// Sub returns x - y (elementwise for tensors).
func Sub(x, y any) any {
	if isTensorArg(x) || isTensorArg(y) {
		return tensorSub(x, y)
	}
	return scalarSub(x, y)
}

// Mul returns x * y (elementwise for tensors).
func Mul(x, y any) any {
	if isTensorArg(x) || isTensorArg(y) {
		return tensorMul(x, y)
	}
	return scalarMul(x, y)
}

// Div returns x / y (elementwise for tensors).
func Div(x, y any) any {
	if isTensorArg(x) || isTensorArg(y) {
		return tensorDiv(x, y)
	}
	return scalarDiv(x, y)
}

// Neg returns -x.
func Neg(x any) any {
	if isTensorArg(x) {
		return tensorNeg(x)
	}
	return scalarNeg(x)
}

// Transcendental Functions (elementwise for tensors)

// Exp returns e**x.
func Exp(x any) any {
	if isTensorArg(x) {
		return tensorExp(x)
	}
	return scalarExp(x)
}

// Log returns the natural logarithm of x.
func Log(x any) any {
	if isTensorArg(x) {
		return tensorLog(x)
	}
	return scalarLog(x)
}

// Sqrt returns the square root of x.
func Sqrt(x any) any {
	if isTensorArg(x) {
		return tensorSqrt(x)
	}
	return scalarSqrt(x)
}

// Sin returns the sine of x.
func Sin(x any) any {
	if isTensorArg(x) {
		return tensorSin(x)
	}
	return scalarSin(x)
}

// Cos returns the cosine of x.
func Cos(x any) any {
	if isTensorArg(x) {
		return tensorCos(x)
	}
	return scalarCos(x)
}

// Tan returns the tangent of x.
func Tan(x any) any {
	if isTensorArg(x) {
		return tensorTan(x)
	}
	return scalarTan(x)
}

// Asin returns the arcsine of x.
func Asin(x any) any {
	if isTensorArg(x) {
		return tensorAsin(x)
	}
	return scalarAsin(x)
}

// Acos returns the arccosine of x.
func Acos(x any) any {
	if isTensorArg(x) {
		return tensorAcos(x)
	}
	return scalarAcos(x)
}

// Atan returns the arctangent of x.
func Atan(x any) any {
	if isTensorArg(x) {
		return tensorAtan(x)
	}
	return scalarAtan(x)
}

// Sinh returns the hyperbolic sine of x.
func Sinh(x any) any {
	if isTensorArg(x) {
		return tensorSinh(x)
	}
	return scalarSinh(x)
}

// Cosh returns the hyperbolic cosine of x.
func Cosh(x any) any {
	if isTensorArg(x) {
		return tensorCosh(x)
	}
	return scalarCosh(x)
}

// Tanh returns the hyperbolic tangent of x.
func Tanh(x any) any {
	if isTensorArg(x) {
		return tensorTanh(x)
	}
	return scalarTanh(x)
}

// Sigmoid returns the logistic function 1/(1+e**-x).
func Sigmoid(x any) any {
	if isTensorArg(x) {
		return tensorSigmoid(x)
	}
	return scalarSigmoid(x)
}

// Rounding (differentiable almost nowhere: gradients contribute nothing)

// Floor returns the greatest integer value less than or equal to x.
func Floor(x any) any {
	if isTensorArg(x) {
		return tensorFloor(x)
	}
	return scalarFloor(x)
}

// Ceil returns the least integer value greater than or equal to x.
func Ceil(x any) any {
	if isTensorArg(x) {
		return tensorCeil(x)
	}
	return scalarCeil(x)
}

// Round returns the nearest integer to x, rounding half away from zero.
func Round(x any) any {
	if isTensorArg(x) {
		return tensorRound(x)
	}
	return scalarRound(x)
}

// Binary Scalar Functions

// Pow returns x**y.
func Pow(x, y any) any {
	return scalarPow(x, y)
}

// Min returns the smaller of x and y. Ties route the gradient to x.
func Min(x, y any) any {
	return scalarMin(x, y)
}

// Max returns the larger of x and y. Ties route the gradient to x.
func Max(x, y any) any {
	return scalarMax(x, y)
}

// Atan2 returns the arctangent of y/x, with the operands' signs
// selecting the quadrant.
func Atan2(y, x any) any {
	return scalarAtan2(y, x)
}

// Linear Algebra

// MatVec returns the matrix-vector product m·v. The matrix width must
// match the vector length.
func MatVec(m, v any) any {
	return tensorMatVec(m, v)
}

// MatMul returns the matrix product a·b. Inner dimensions must match.
func MatMul(a, b any) any {
	return tensorMatMul(a, b)
}

// Comparisons
//
// Comparisons accept lifted or raw scalars and always return a plain
// bool, never a node: a boolean has no meaningful gradient.

// Greater reports whether x > y.
func Greater(x, y any) bool {
	return scalarOperand("scalar.greater", x) > scalarOperand("scalar.greater", y)
}

// Less reports whether x < y.
func Less(x, y any) bool {
	return scalarOperand("scalar.less", x) < scalarOperand("scalar.less", y)
}

// GreaterEqual reports whether x >= y.
func GreaterEqual(x, y any) bool {
	return scalarOperand("scalar.greater_equal", x) >= scalarOperand("scalar.greater_equal", y)
}

// LessEqual reports whether x <= y.
func LessEqual(x, y any) bool {
	return scalarOperand("scalar.less_equal", x) <= scalarOperand("scalar.less_equal", y)
}

// Equal reports whether x == y.
func Equal(x, y any) bool {
	return scalarOperand("scalar.equal", x) == scalarOperand("scalar.equal", y)
}

// NotEqual reports whether x != y.
func NotEqual(x, y any) bool {
	return scalarOperand("scalar.not_equal", x) != scalarOperand("scalar.not_equal", y)
}
