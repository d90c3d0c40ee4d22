package autodiff

import (
	"github.com/gomlx/exceptions"
	"github.com/rewind-ml/rewind/internal/tensor"
)

// The interop operations cross the scalar/tensor boundary or take
// non-numeric arguments, so they are registered through the variadic
// factory path: their forward and backward formulas see the original
// argument list and handle lifted, raw, and index arguments per
// position.

// concatPart coerces one concatenation argument to a dense part.
// Scalars become one-element vectors.
func concatPart(v any) *tensor.Dense {
	switch p := v.(type) {
	case *Tensor:
		return p.x
	case *tensor.Dense:
		return p
	case *Scalar:
		return tensor.Vector(p.x)
	}
	if f, ok := rawScalar(v); ok {
		return tensor.Vector(f)
	}
	exceptions.Panicf("tensor.concat: unsupported part type %T", v)
	return nil
}

var atOp = NewFunction(Func[float64]{
	Kind: scalarKind,
	Name: "tensor.at",
	Forward: func(args []any) float64 {
		return tensorOperand("tensor.at", args[0]).AtFlat(args[1].(int))
	},
	Backward: atBackward,
})

var sliceOp = NewFunction(Func[*tensor.Dense]{
	Kind: tensorKind,
	Name: "tensor.slice",
	Forward: func(args []any) *tensor.Dense {
		return tensor.SliceRows(tensorOperand("tensor.slice", args[0]), args[1].(int), args[2].(int))
	},
	Backward: sliceBackward,
})

var concatOp = NewFunction(Func[*tensor.Dense]{
	Kind: tensorKind,
	Name: "tensor.concat",
	Forward: func(args []any) *tensor.Dense {
		parts := make([]*tensor.Dense, len(args))
		for i, arg := range args {
			parts[i] = concatPart(arg)
		}
		return tensor.ConcatRows(parts...)
	},
	Backward: concatBackward,
})

var sumOp = NewFunction(Func[float64]{
	Kind: scalarKind,
	Name: "scalar.sum",
	Forward: func(args []any) float64 {
		total := 0.0
		for _, arg := range args {
			total += scalarOperand("scalar.sum", arg)
		}
		return total
	},
	Backward: sumBackward,
})

var sumAllOp = NewFunction(Func[float64]{
	Kind: scalarKind,
	Name: "tensor.sum",
	Forward: func(args []any) float64 {
		return tensor.Sum(tensorOperand("tensor.sum", args[0]))
	},
	Backward: sumAllBackward,
})

// At returns element i of t's row-major flattening as a scalar. With a
// lifted tensor the result is a lifted scalar whose gradient flows back
// into that one element.
func At(t any, i int) any {
	return atOp(t, i)
}

// Slice returns rows [from, to) of t as a new tensor. Gradients flow
// back into the sliced rows only.
func Slice(t any, from, to int) any {
	return sliceOp(t, from, to)
}

// Concat concatenates parts along the leading dimension. Parts may be
// lifted or raw tensors, or scalars, which join as one-element vectors;
// a single []any argument is treated as the part list. Each lifted
// part's gradient is the matching slice of the output gradient.
func Concat(parts ...any) any {
	return concatOp(parts...)
}

// Sum adds scalars, lifted or raw; a single []any argument is treated
// as the summand list. Every lifted summand receives the full output
// gradient.
func Sum(args ...any) any {
	return sumOp(args...)
}

// SumAll reduces a tensor to the scalar sum of its elements. The
// gradient broadcasts back to every element.
func SumAll(t any) any {
	return sumAllOp(t)
}
