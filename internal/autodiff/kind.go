package autodiff

import (
	"github.com/rewind-ml/rewind/internal/tensor"
)

const (
	scalarKindName = "scalar"
	tensorKindName = "tensor"
)

// Kind is the capability a node is parameterized over: everything the
// engine needs to know about a value type without inspecting it. A kind
// provides the additive identity shaped like a given value, gradient
// accumulation, the seed value for a backward pass, and coercion of raw
// operand types.
//
// Exactly two kinds exist, ScalarKind and TensorKind; operation
// descriptors must reference one of them.
type Kind[V any] struct {
	name string
	zero func(like V) V        // additive identity shaped like the value
	add  func(dst, src V) V    // accumulate src into dst
	unit func(like V) V        // backward seed shaped like the value
	raw  func(v any) (V, bool) // coerce a raw operand, false if foreign
}

// Name returns "scalar" or "tensor".
func (k *Kind[V]) Name() string {
	return k.name
}

var scalarKind = &Kind[float64]{
	name: scalarKindName,
	zero: func(float64) float64 { return 0 },
	add:  func(dst, src float64) float64 { return dst + src },
	unit: func(float64) float64 { return 1 },
	raw:  rawScalar,
}

var tensorKind = &Kind[*tensor.Dense]{
	name: tensorKindName,
	zero: func(like *tensor.Dense) *tensor.Dense { return tensor.Zeros(like.Shape()) },
	add: func(dst, src *tensor.Dense) *tensor.Dense {
		tensor.Accumulate(dst, src)
		return dst
	},
	unit: func(like *tensor.Dense) *tensor.Dense { return tensor.Ones(like.Shape()) },
	raw: func(v any) (*tensor.Dense, bool) {
		t, ok := v.(*tensor.Dense)
		return t, ok
	},
}

// ScalarKind is the kind of float64-valued nodes.
func ScalarKind() *Kind[float64] {
	return scalarKind
}

// TensorKind is the kind of dense-tensor-valued nodes.
func TensorKind() *Kind[*tensor.Dense] {
	return tensorKind
}

// rawScalar coerces raw numeric operands to float64. Integers are
// promoted; anything else is foreign.
func rawScalar(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}
