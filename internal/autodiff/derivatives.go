package autodiff

import (
	"math"
	"sort"

	"github.com/gomlx/exceptions"
	"github.com/rewind-ml/rewind/internal/tensor"
)

// The derivative tables map operation names to the closed-form partial
// derivative formulas the built-in library registers with the function
// factory. Binary operations carry one formula per argument position;
// each formula reads the output node's final gradient and accumulates
// its contribution into the parent, never overwrites, so values feeding
// several consumers receive the sum of all paths.
//
// Floor, ceil and round are non-differentiable almost everywhere and
// have explicit entries that contribute nothing: a deliberate policy,
// not an error.

// Scalar Formulas

var scalarUnaryTable = map[string]func(out, x *Scalar){
	"scalar.neg":  func(out, x *Scalar) { x.Accumulate(-out.dx) },
	"scalar.exp":  func(out, x *Scalar) { x.Accumulate(out.dx * out.x) },
	"scalar.log":  func(out, x *Scalar) { x.Accumulate(out.dx / x.x) },
	"scalar.sqrt": func(out, x *Scalar) { x.Accumulate(out.dx / (2 * out.x)) },
	"scalar.sin":  func(out, x *Scalar) { x.Accumulate(out.dx * math.Cos(x.x)) },
	"scalar.cos":  func(out, x *Scalar) { x.Accumulate(-out.dx * math.Sin(x.x)) },
	"scalar.tan":  func(out, x *Scalar) { x.Accumulate(out.dx * (1 + out.x*out.x)) },
	"scalar.asin": func(out, x *Scalar) { x.Accumulate(out.dx / math.Sqrt(1-x.x*x.x)) },
	"scalar.acos": func(out, x *Scalar) { x.Accumulate(-out.dx / math.Sqrt(1-x.x*x.x)) },
	"scalar.atan": func(out, x *Scalar) { x.Accumulate(out.dx / (1 + x.x*x.x)) },
	"scalar.sinh": func(out, x *Scalar) { x.Accumulate(out.dx * math.Cosh(x.x)) },
	"scalar.cosh": func(out, x *Scalar) { x.Accumulate(out.dx * math.Sinh(x.x)) },
	"scalar.tanh": func(out, x *Scalar) { x.Accumulate(out.dx * (1 - out.x*out.x)) },

	// dσ/dx = σ(x)(1 - σ(x)), both factors read off the output.
	"scalar.sigmoid": func(out, x *Scalar) { x.Accumulate(out.dx * out.x * (1 - out.x)) },

	"scalar.floor": func(out, x *Scalar) {},
	"scalar.ceil":  func(out, x *Scalar) {},
	"scalar.round": func(out, x *Scalar) {},
}

type scalarBinaryFormulas struct {
	left  func(out, x *Scalar, y float64)
	right func(out *Scalar, x float64, y *Scalar)
}

var scalarBinaryTable = map[string]scalarBinaryFormulas{
	"scalar.add": {
		left:  func(out, x *Scalar, y float64) { x.Accumulate(out.dx) },
		right: func(out *Scalar, x float64, y *Scalar) { y.Accumulate(out.dx) },
	},
	"scalar.sub": {
		left:  func(out, x *Scalar, y float64) { x.Accumulate(out.dx) },
		right: func(out *Scalar, x float64, y *Scalar) { y.Accumulate(-out.dx) },
	},
	"scalar.mul": {
		left:  func(out, x *Scalar, y float64) { x.Accumulate(out.dx * y) },
		right: func(out *Scalar, x float64, y *Scalar) { y.Accumulate(out.dx * x) },
	},
	"scalar.div": {
		left:  func(out, x *Scalar, y float64) { x.Accumulate(out.dx / y) },
		right: func(out *Scalar, x float64, y *Scalar) { y.Accumulate(-out.dx * x / (y.x * y.x)) },
	},

	// d(x^y)/dx = y·x^(y-1), d(x^y)/dy = x^y·ln(x).
	"scalar.pow": {
		left:  func(out, x *Scalar, y float64) { x.Accumulate(out.dx * y * math.Pow(x.x, y-1)) },
		right: func(out *Scalar, x float64, y *Scalar) { y.Accumulate(out.dx * out.x * math.Log(x)) },
	},

	// Ties route the whole gradient to the left operand.
	"scalar.min": {
		left: func(out, x *Scalar, y float64) {
			if x.x <= y {
				x.Accumulate(out.dx)
			}
		},
		right: func(out *Scalar, x float64, y *Scalar) {
			if y.x < x {
				y.Accumulate(out.dx)
			}
		},
	},
	"scalar.max": {
		left: func(out, x *Scalar, y float64) {
			if x.x >= y {
				x.Accumulate(out.dx)
			}
		},
		right: func(out *Scalar, x float64, y *Scalar) {
			if y.x > x {
				y.Accumulate(out.dx)
			}
		},
	},

	// atan2(y, x): d/dy = x/(x²+y²), d/dx = -y/(x²+y²). The first
	// operand is the ordinate, as in math.Atan2.
	"scalar.atan2": {
		left:  func(out, x *Scalar, y float64) { x.Accumulate(out.dx * y / (x.x*x.x + y*y)) },
		right: func(out *Scalar, x float64, y *Scalar) { y.Accumulate(-out.dx * x / (x*x + y.x*y.x)) },
	},
}

// Tensor Formulas (elementwise; operand shapes already match)

var tensorUnaryTable = map[string]func(out, x *Tensor){
	"tensor.neg":  func(out, x *Tensor) { x.Accumulate(tensor.Scale(out.dx, -1)) },
	"tensor.exp":  func(out, x *Tensor) { x.Accumulate(tensor.Mul(out.dx, out.x)) },
	"tensor.log":  func(out, x *Tensor) { x.Accumulate(tensor.Div(out.dx, x.x)) },
	"tensor.sqrt": func(out, x *Tensor) { x.Accumulate(tensor.Div(out.dx, tensor.Scale(out.x, 2))) },
	"tensor.sin":  func(out, x *Tensor) { x.Accumulate(tensor.Mul(out.dx, tensor.Map(x.x, math.Cos))) },
	"tensor.cos": func(out, x *Tensor) {
		x.Accumulate(tensor.Scale(tensor.Mul(out.dx, tensor.Map(x.x, math.Sin)), -1))
	},
	"tensor.tan": func(out, x *Tensor) {
		x.Accumulate(tensor.Mul(out.dx, tensor.Map(out.x, func(v float64) float64 { return 1 + v*v })))
	},
	"tensor.asin": func(out, x *Tensor) {
		x.Accumulate(tensor.Mul(out.dx, tensor.Map(x.x, func(v float64) float64 { return 1 / math.Sqrt(1-v*v) })))
	},
	"tensor.acos": func(out, x *Tensor) {
		x.Accumulate(tensor.Mul(out.dx, tensor.Map(x.x, func(v float64) float64 { return -1 / math.Sqrt(1-v*v) })))
	},
	"tensor.atan": func(out, x *Tensor) {
		x.Accumulate(tensor.Mul(out.dx, tensor.Map(x.x, func(v float64) float64 { return 1 / (1 + v*v) })))
	},
	"tensor.sinh": func(out, x *Tensor) { x.Accumulate(tensor.Mul(out.dx, tensor.Map(x.x, math.Cosh))) },
	"tensor.cosh": func(out, x *Tensor) { x.Accumulate(tensor.Mul(out.dx, tensor.Map(x.x, math.Sinh))) },
	"tensor.tanh": func(out, x *Tensor) {
		x.Accumulate(tensor.Mul(out.dx, tensor.Map(out.x, func(v float64) float64 { return 1 - v*v })))
	},
	"tensor.sigmoid": func(out, x *Tensor) {
		x.Accumulate(tensor.Mul(out.dx, tensor.Map(out.x, func(v float64) float64 { return v * (1 - v) })))
	},

	"tensor.floor": func(out, x *Tensor) {},
	"tensor.ceil":  func(out, x *Tensor) {},
	"tensor.round": func(out, x *Tensor) {},
}

type tensorBinaryFormulas struct {
	left  func(out, x *Tensor, y *tensor.Dense)
	right func(out *Tensor, x *tensor.Dense, y *Tensor)
}

var tensorBinaryTable = map[string]tensorBinaryFormulas{
	"tensor.add": {
		left:  func(out, x *Tensor, y *tensor.Dense) { x.Accumulate(out.dx) },
		right: func(out *Tensor, x *tensor.Dense, y *Tensor) { y.Accumulate(out.dx) },
	},
	"tensor.sub": {
		left:  func(out, x *Tensor, y *tensor.Dense) { x.Accumulate(out.dx) },
		right: func(out *Tensor, x *tensor.Dense, y *Tensor) { y.Accumulate(tensor.Scale(out.dx, -1)) },
	},
	"tensor.mul": {
		left:  func(out, x *Tensor, y *tensor.Dense) { x.Accumulate(tensor.Mul(out.dx, y)) },
		right: func(out *Tensor, x *tensor.Dense, y *Tensor) { y.Accumulate(tensor.Mul(out.dx, x)) },
	},

	// d(x/y)/dx = 1/y, d(x/y)/dy = -x/y².
	"tensor.div": {
		left: func(out, x *Tensor, y *tensor.Dense) { x.Accumulate(tensor.Div(out.dx, y)) },
		right: func(out *Tensor, x *tensor.Dense, y *Tensor) {
			y.Accumulate(tensor.Scale(tensor.Div(tensor.Mul(out.dx, x), tensor.Mul(y.x, y.x)), -1))
		},
	},

	// For out = m·v: dm += g⊗v, dv += mᵀ·g.
	"tensor.matvec": {
		left:  func(out, m *Tensor, v *tensor.Dense) { m.Accumulate(tensor.Outer(out.dx, v)) },
		right: func(out *Tensor, m *tensor.Dense, v *Tensor) { v.Accumulate(tensor.MatVecT(m, out.dx)) },
	},

	// For out = a·b: da += g·bᵀ, db += aᵀ·g.
	"tensor.matmul": {
		left:  func(out, a *Tensor, b *tensor.Dense) { a.Accumulate(tensor.MatMulT2(out.dx, b)) },
		right: func(out *Tensor, a *tensor.Dense, b *Tensor) { b.Accumulate(tensor.MatMulT1(a, out.dx)) },
	},
}

// Interop Formulas
//
// The tensor/scalar interop operations are registered through the
// variadic factory path, so their formulas see the original argument
// list and decide per argument whether it receives gradient.

// atBackward scatters the scalar gradient into one element of the
// parent tensor's accumulator.
func atBackward(out *Scalar, args []any) {
	t, ok := args[0].(*Tensor)
	if !ok {
		return
	}
	i := args[1].(int)
	t.Accumulate(tensor.ScatterFlat(t.x.Shape(), i, out.dx))
}

// sliceBackward scatters the slice gradient back into the source rows.
func sliceBackward(out *Tensor, args []any) {
	t, ok := args[0].(*Tensor)
	if !ok {
		return
	}
	from := args[1].(int)
	t.Accumulate(tensor.ScatterRows(t.x.Shape(), out.dx, from))
}

// concatBackward gathers, for each lifted part, the slice of the output
// gradient that the part produced. Raw parts only advance the offset.
func concatBackward(out *Tensor, args []any) {
	offset := 0
	for _, arg := range args {
		switch p := arg.(type) {
		case *Tensor:
			rows := p.x.Shape()[0]
			p.Accumulate(tensor.SliceRows(out.dx, offset, offset+rows))
			offset += rows
		case *tensor.Dense:
			offset += p.Shape()[0]
		case *Scalar:
			p.Accumulate(out.dx.AtFlat(offset))
			offset++
		default:
			offset++
		}
	}
}

// sumBackward broadcasts the gradient equally to every lifted summand.
func sumBackward(out *Scalar, args []any) {
	for _, arg := range args {
		if n, ok := arg.(*Scalar); ok {
			n.Accumulate(out.dx)
		}
	}
}

// sumAllBackward broadcasts the scalar gradient to every element of the
// summed tensor.
func sumAllBackward(out *Scalar, args []any) {
	t, ok := args[0].(*Tensor)
	if !ok {
		return
	}
	t.Accumulate(tensor.Full(t.x.Shape(), out.dx))
}

// interopDerivatives lists the operations whose formulas are the named
// functions above rather than table entries.
var interopDerivatives = []string{
	"scalar.sum",
	"tensor.at",
	"tensor.concat",
	"tensor.slice",
	"tensor.sum",
}

// DerivativeTable returns the sorted names of every operation a
// derivative formula is registered for. The names are a fixed
// vocabulary: persisted graph descriptions that reference operations
// must use them verbatim.
func DerivativeTable() []string {
	names := make([]string, 0,
		len(scalarUnaryTable)+len(scalarBinaryTable)+len(tensorUnaryTable)+len(tensorBinaryTable)+len(interopDerivatives))
	for name := range scalarUnaryTable {
		names = append(names, name)
	}
	for name := range scalarBinaryTable {
		names = append(names, name)
	}
	for name := range tensorUnaryTable {
		names = append(names, name)
	}
	for name := range tensorBinaryTable {
		names = append(names, name)
	}
	names = append(names, interopDerivatives...)
	sort.Strings(names)
	return names
}

// Table lookups used at registration; a missing formula is a
// configuration error.

func scalarUnaryDerivative(name string) func(out, x *Scalar) {
	formula, ok := scalarUnaryTable[name]
	if !ok {
		exceptions.Panicf("autodiff: no scalar derivative formula registered for %q", name)
	}
	return formula
}

func scalarBinaryDerivative(name string) scalarBinaryFormulas {
	formulas, ok := scalarBinaryTable[name]
	if !ok {
		exceptions.Panicf("autodiff: no scalar derivative formulas registered for %q", name)
	}
	return formulas
}

func tensorUnaryDerivative(name string) func(out, x *Tensor) {
	formula, ok := tensorUnaryTable[name]
	if !ok {
		exceptions.Panicf("autodiff: no tensor derivative formula registered for %q", name)
	}
	return formula
}

func tensorBinaryDerivative(name string) tensorBinaryFormulas {
	formulas, ok := tensorBinaryTable[name]
	if !ok {
		exceptions.Panicf("autodiff: no tensor derivative formulas registered for %q", name)
	}
	return formulas
}
