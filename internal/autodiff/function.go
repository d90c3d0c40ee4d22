package autodiff

import (
	"github.com/gomlx/exceptions"
)

// UnaryFunc describes a one-argument operation: the forward formula and
// the backward formula that, given the output node's final gradient,
// accumulates the contribution into the parent.
type UnaryFunc[V any] struct {
	Kind    *Kind[V]
	Name    string
	Forward func(x V) V

	// Backward reads out.Gradient() and calls x.Accumulate with the
	// local partial derivative's contribution.
	Backward func(out, x *Node[V])
}

// BinaryFunc describes a two-argument operation. Each side has its own
// backward formula receiving that side's node and the sibling's raw
// value; when only one side is lifted, only that side's formula runs.
type BinaryFunc[V any] struct {
	Kind    *Kind[V]
	Name    string
	Forward func(x, y V) V

	// BackwardX accumulates into the left parent; y is the right
	// operand's raw value.
	BackwardX func(out, x *Node[V], y V)

	// BackwardY accumulates into the right parent; x is the left
	// operand's raw value.
	BackwardY func(out *Node[V], x V, y *Node[V])
}

// Func describes a variable-arity operation. Forward and Backward see
// the original argument list, which may mix nodes, raw values, and
// non-numeric arguments such as indices; GetParents identifies the
// lifted inputs that receive gradient.
type Func[V any] struct {
	Kind    *Kind[V]
	Name    string
	Forward func(args []any) V

	// Backward reads out.Gradient() and accumulates a contribution
	// into every lifted argument.
	Backward func(out *Node[V], args []any)

	// GetParents extracts the lifted inputs in argument order. When
	// nil, LiftedArgs is used.
	GetParents func(args []any) []Lifted
}

// validKind aborts unless k is one of the two canonical kinds. An
// operation registered with any other kind is a configuration error,
// detected here rather than at call time.
func validKind[V any](name string, k *Kind[V]) {
	if k == nil || (k.name != scalarKindName && k.name != tensorKindName) {
		exceptions.Panicf("autodiff: operation %q: kind must be ScalarKind or TensorKind", name)
	}
}

// operand coerces a raw argument for the operation's kind, aborting on
// foreign types. Nodes never reach here; the call paths peel them off
// first.
func operand[V any](fn string, k *Kind[V], arg any) V {
	v, ok := k.raw(arg)
	if !ok {
		exceptions.Panicf("%s: unsupported operand type %T", fn, arg)
	}
	return v
}

// NewUnaryFunction builds the callable for a unary operation. Called
// with a raw argument it constant-folds: the forward formula runs and
// the raw result is returned with no node recorded. Called with a node
// it computes the forward value eagerly and records a unary node.
func NewUnaryFunction[V any](spec UnaryFunc[V]) func(any) any {
	validKind(spec.Name, spec.Kind)
	if spec.Forward == nil || spec.Backward == nil {
		exceptions.Panicf("autodiff: operation %q: forward and backward formulas are required", spec.Name)
	}
	fn := &spec
	return func(arg any) any {
		x, ok := arg.(*Node[V])
		if !ok {
			return fn.Forward(operand(fn.Name, fn.Kind, arg))
		}
		out := newNode(fn.Kind, fn.Name, fn.Forward(x.x))
		out.step = &unaryStep[V]{fn: fn, out: out, x: x}
		return out
	}
}

// NewBinaryFunction builds the callable for a binary operation. With
// two raw arguments it constant-folds. Otherwise it records the node
// shape matching the lifted pattern: both sides, left only, or right
// only, capturing the unlifted side's raw value for the surviving
// backward formula.
func NewBinaryFunction[V any](spec BinaryFunc[V]) func(any, any) any {
	validKind(spec.Name, spec.Kind)
	if spec.Forward == nil || spec.BackwardX == nil || spec.BackwardY == nil {
		exceptions.Panicf("autodiff: operation %q: forward and both backward formulas are required", spec.Name)
	}
	fn := &spec
	return func(a, b any) any {
		x, xLifted := a.(*Node[V])
		y, yLifted := b.(*Node[V])
		switch {
		case xLifted && yLifted:
			out := newNode(fn.Kind, fn.Name, fn.Forward(x.x, y.x))
			out.step = &binaryBothStep[V]{fn: fn, out: out, x: x, y: y}
			return out
		case xLifted:
			raw := operand(fn.Name, fn.Kind, b)
			out := newNode(fn.Kind, fn.Name, fn.Forward(x.x, raw))
			out.step = &binaryLeftStep[V]{fn: fn, out: out, x: x, y: raw}
			return out
		case yLifted:
			raw := operand(fn.Name, fn.Kind, a)
			out := newNode(fn.Kind, fn.Name, fn.Forward(raw, y.x))
			out.step = &binaryRightStep[V]{fn: fn, out: out, x: raw, y: y}
			return out
		default:
			return fn.Forward(operand(fn.Name, fn.Kind, a), operand(fn.Name, fn.Kind, b))
		}
	}
}

// NewFunction builds the callable for a variable-arity operation. A
// single []any argument is unwrapped and treated as the argument list,
// so callers may pass either a fixed list or a collection. The step
// shape is chosen by the count of lifted inputs actually present: one
// lifted input records a unary-shaped node, two a binary-shaped node,
// more an n-ary node, and none constant-folds to the raw result.
func NewFunction[V any](spec Func[V]) func(...any) any {
	validKind(spec.Name, spec.Kind)
	if spec.Forward == nil || spec.Backward == nil {
		exceptions.Panicf("autodiff: operation %q: forward and backward formulas are required", spec.Name)
	}
	if spec.GetParents == nil {
		spec.GetParents = LiftedArgs
	}
	fn := &spec
	return func(args ...any) any {
		if len(args) == 1 {
			if list, ok := args[0].([]any); ok {
				args = list
			}
		}
		lifted := fn.GetParents(args)
		if len(lifted) == 0 {
			return fn.Forward(args)
		}
		out := newNode(fn.Kind, fn.Name, fn.Forward(args))
		switch len(lifted) {
		case 1:
			out.step = &customUnaryStep[V]{fn: fn, out: out, args: args, parent: lifted[0]}
		case 2:
			out.step = &customBinaryStep[V]{fn: fn, out: out, args: args, x: lifted[0], y: lifted[1]}
		default:
			out.step = &customNaryStep[V]{fn: fn, out: out, args: args, lifted: lifted}
		}
		return out
	}
}

// LiftedArgs returns the lifted arguments in argument order. It is the
// default parents extractor for NewFunction.
func LiftedArgs(args []any) []Lifted {
	var lifted []Lifted
	for _, arg := range args {
		if n, ok := arg.(Lifted); ok {
			lifted = append(lifted, n)
		}
	}
	return lifted
}
