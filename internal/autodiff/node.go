package autodiff

import (
	"sync/atomic"

	"github.com/gomlx/exceptions"
	"github.com/rewind-ml/rewind/internal/tensor"
)

// opLift names the pseudo-operation that produces leaf nodes.
const opLift = "lift"

// nodeSeq numbers nodes in creation order. Because an operation can only
// be applied to values that already exist, a node's parents always carry
// strictly smaller sequence numbers: creation order is a topological
// order of the dependency graph, and the backward pass traverses it in
// reverse without any explicit scheduling.
var nodeSeq atomic.Uint64

// Node is a lifted value: an eagerly computed forward value plus the
// gradient accumulator and provenance needed to replay the computation
// backward. The type parameter is the value type of the node's kind,
// float64 or *tensor.Dense.
//
// A node's forward value is immutable after construction. Its gradient
// accumulator starts at the kind's additive identity and is mutated only
// during a backward pass: reset, seeded, then accumulated into by the
// backward formulas of downstream nodes.
type Node[V any] struct {
	x     V
	dx    V
	kind  *Kind[V]
	op    string
	label string
	seq   uint64
	step  step
}

// Scalar is a lifted float64.
type Scalar = Node[float64]

// Tensor is a lifted dense tensor.
type Tensor = Node[*tensor.Dense]

// Lifted is the common face of *Scalar and *Tensor: the two node types
// and nothing else implement it.
type Lifted interface {
	// OpName identifies the operation that produced the node, "lift"
	// for leaves. Operation names are stable diagnostic strings like
	// "scalar.add" and "tensor.exp".
	OpName() string

	// Label returns the optional client-supplied name from Lift.
	Label() string

	seqNum() uint64
	parentNodes() []Lifted
	zeroGrad()
	runStep()
}

func newNode[V any](kind *Kind[V], op string, value V) *Node[V] {
	return &Node[V]{
		x:    value,
		dx:   kind.zero(value),
		kind: kind,
		op:   op,
		seq:  nodeSeq.Add(1),
	}
}

// LiftScalar wraps a float64 so it participates in differentiation. The
// optional label is carried for diagnostics.
func LiftScalar(v float64, label ...string) *Scalar {
	n := newNode(scalarKind, opLift, v)
	if len(label) > 0 {
		n.label = label[0]
	}
	return n
}

// LiftTensor wraps a tensor so it participates in differentiation. The
// tensor is copied: later mutation of the argument does not affect the
// node's forward value.
func LiftTensor(t *tensor.Dense, label ...string) *Tensor {
	if t == nil {
		exceptions.Panicf("autodiff.Lift: cannot lift a nil tensor")
	}
	n := newNode(tensorKind, opLift, t.Clone())
	if len(label) > 0 {
		n.label = label[0]
	}
	return n
}

// Lift wraps a raw scalar or tensor into a node; nodes pass through
// unchanged. Supported raw types are float64 (ints and float32
// promoted) and *tensor.Dense; anything else is a fatal error.
func Lift(v any, label ...string) Lifted {
	switch x := v.(type) {
	case *Scalar:
		return x
	case *Tensor:
		return x
	case *tensor.Dense:
		return LiftTensor(x, label...)
	}
	if f, ok := rawScalar(v); ok {
		return LiftScalar(f, label...)
	}
	exceptions.Panicf("autodiff.Lift: unsupported value type %T", v)
	return nil
}

// IsLifted reports whether v is a node.
func IsLifted(v any) bool {
	_, ok := v.(Lifted)
	return ok
}

// Value unwraps a node to its raw forward value; raw values pass
// through unchanged.
func Value(v any) any {
	switch n := v.(type) {
	case *Scalar:
		return n.Value()
	case *Tensor:
		return n.Value()
	}
	return v
}

// Derivative returns the gradient accumulated for a node by the most
// recent backward pass. Calling it on a raw value is a programming
// error and aborts.
func Derivative(v any) any {
	switch n := v.(type) {
	case *Scalar:
		return n.Gradient()
	case *Tensor:
		return n.Gradient()
	}
	exceptions.Panicf("autodiff.Derivative: value of type %T is not lifted", v)
	return nil
}

// Value returns the node's forward value. For tensor nodes the caller
// must not modify the result.
func (n *Node[V]) Value() V {
	return n.x
}

// Gradient returns the node's gradient accumulator as of the most
// recent backward pass. For tensor nodes the caller must not modify
// the result.
func (n *Node[V]) Gradient() V {
	return n.dx
}

// Accumulate adds a contribution into the node's gradient accumulator.
// Backward formulas call this once per parent they contribute to; the
// additive accumulation is what makes diamond-shaped graphs correct.
func (n *Node[V]) Accumulate(contribution V) {
	n.dx = n.kind.add(n.dx, contribution)
}

// OpName identifies the operation that produced the node.
func (n *Node[V]) OpName() string {
	return n.op
}

// Label returns the optional client-supplied name.
func (n *Node[V]) Label() string {
	return n.label
}

func (n *Node[V]) seqNum() uint64 {
	return n.seq
}

func (n *Node[V]) parentNodes() []Lifted {
	if n.step == nil {
		return nil
	}
	return n.step.parents()
}

func (n *Node[V]) zeroGrad() {
	n.dx = n.kind.zero(n.x)
}

func (n *Node[V]) runStep() {
	if n.step != nil {
		n.step.run()
	}
}
