package autodiff

// step is the captured-state backward record bound to a node at
// construction: the producing descriptor as dispatch tag plus the
// original arguments. Running a step reads the node's now-final
// gradient and accumulates contributions into each lifted parent.
//
// There is one step shape per arity × lifted-pattern. Binary
// operations need three shapes because each side's backward formula
// takes the other side's raw value, and when only one side is lifted
// the raw sibling is captured directly. Factory-built variadic
// operations pick their shape by the count of lifted inputs present
// in the call, not by the descriptor's nominal arity.
type step interface {
	run()
	parents() []Lifted
}

// unaryStep: out = f(x) with x lifted.
type unaryStep[V any] struct {
	fn  *UnaryFunc[V]
	out *Node[V]
	x   *Node[V]
}

func (s *unaryStep[V]) run() {
	s.fn.Backward(s.out, s.x)
}

func (s *unaryStep[V]) parents() []Lifted {
	return []Lifted{s.x}
}

// binaryBothStep: out = f(x, y) with both sides lifted.
type binaryBothStep[V any] struct {
	fn   *BinaryFunc[V]
	out  *Node[V]
	x, y *Node[V]
}

func (s *binaryBothStep[V]) run() {
	s.fn.BackwardX(s.out, s.x, s.y.x)
	s.fn.BackwardY(s.out, s.x.x, s.y)
}

func (s *binaryBothStep[V]) parents() []Lifted {
	return []Lifted{s.x, s.y}
}

// binaryLeftStep: out = f(x, y) with only x lifted; y is captured raw.
type binaryLeftStep[V any] struct {
	fn  *BinaryFunc[V]
	out *Node[V]
	x   *Node[V]
	y   V
}

func (s *binaryLeftStep[V]) run() {
	s.fn.BackwardX(s.out, s.x, s.y)
}

func (s *binaryLeftStep[V]) parents() []Lifted {
	return []Lifted{s.x}
}

// binaryRightStep: out = f(x, y) with only y lifted; x is captured raw.
type binaryRightStep[V any] struct {
	fn  *BinaryFunc[V]
	out *Node[V]
	x   V
	y   *Node[V]
}

func (s *binaryRightStep[V]) run() {
	s.fn.BackwardY(s.out, s.x, s.y)
}

func (s *binaryRightStep[V]) parents() []Lifted {
	return []Lifted{s.y}
}

// customUnaryStep: factory-built operation with exactly one lifted input.
type customUnaryStep[V any] struct {
	fn     *Func[V]
	out    *Node[V]
	args   []any
	parent Lifted
}

func (s *customUnaryStep[V]) run() {
	s.fn.Backward(s.out, s.args)
}

func (s *customUnaryStep[V]) parents() []Lifted {
	return []Lifted{s.parent}
}

// customBinaryStep: factory-built operation with exactly two lifted inputs.
type customBinaryStep[V any] struct {
	fn   *Func[V]
	out  *Node[V]
	args []any
	x, y Lifted
}

func (s *customBinaryStep[V]) run() {
	s.fn.Backward(s.out, s.args)
}

func (s *customBinaryStep[V]) parents() []Lifted {
	return []Lifted{s.x, s.y}
}

// customNaryStep: factory-built operation with three or more lifted inputs.
type customNaryStep[V any] struct {
	fn     *Func[V]
	out    *Node[V]
	args   []any
	lifted []Lifted
}

func (s *customNaryStep[V]) run() {
	s.fn.Backward(s.out, s.args)
}

func (s *customNaryStep[V]) parents() []Lifted {
	return s.lifted
}
