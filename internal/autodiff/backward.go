package autodiff

import (
	"sort"
	"sync/atomic"

	"github.com/gomlx/exceptions"
	"github.com/google/uuid"
	"github.com/rewind-ml/rewind/internal/tensor"
	"k8s.io/klog/v2"
)

// passActive enforces the single-in-flight constraint. Gradient
// accumulators are plain fields, and concurrent passes over overlapping
// graphs would race on them, so callers must serialize gradient
// computations; a violation aborts rather than corrupting gradients.
var passActive atomic.Bool

// Backward runs a backward pass from output. The output's gradient is
// seeded with the multiplicative unit for its kind (1, or a tensor of
// ones), every other reachable accumulator is reset, and the recorded
// steps replay in reverse creation order, each node accumulating its
// contribution into its parents.
//
// Gradients of nodes not reachable from output are left untouched.
func Backward(output any) {
	switch n := output.(type) {
	case *Scalar:
		newPass(n, n.kind.unit(n.x)).run()
	case *Tensor:
		newPass(n, n.kind.unit(n.x)).run()
	default:
		exceptions.Panicf("autodiff.Backward: value of type %T is not lifted", output)
	}
}

// BackwardWithCotangent runs a backward pass from a tensor output,
// seeding with an explicit cotangent instead of ones. The cotangent
// shape must match the output shape.
func BackwardWithCotangent(output any, cotangent *tensor.Dense) {
	n, ok := output.(*Tensor)
	if !ok {
		exceptions.Panicf("autodiff.BackwardWithCotangent: value of type %T is not a lifted tensor", output)
	}
	if cotangent == nil {
		exceptions.Panicf("autodiff.BackwardWithCotangent: cotangent must not be nil")
	}
	if !n.x.Shape().Equal(cotangent.Shape()) {
		exceptions.Panicf("autodiff.BackwardWithCotangent: cotangent shape %s does not match output shape %s",
			cotangent.Shape(), n.x.Shape())
	}
	newPass(n, cotangent.Clone()).run()
}

// pass is one differentiation session: the reachable subgraph of a
// single output plus the seed for its gradient. Its lifecycle is
// collect, reset, accumulate; the tag correlates trace lines of the
// same pass.
type pass[V any] struct {
	output *Node[V]
	seed   V
	nodes  []Lifted
	tag    string
}

func newPass[V any](output *Node[V], seed V) *pass[V] {
	return &pass[V]{output: output, seed: seed, tag: uuid.NewString()}
}

func (p *pass[V]) run() {
	if !passActive.CompareAndSwap(false, true) {
		exceptions.Panicf("autodiff: another backward pass is in flight; gradient computations must be serialized")
	}
	defer passActive.Store(false)

	p.collect()
	klog.V(2).Infof("backward pass %s: output op %s, %d reachable nodes", p.tag, p.output.op, len(p.nodes))
	p.reset()
	p.accumulate()
	klog.V(2).Infof("backward pass %s: complete", p.tag)
}

// collect gathers the nodes transitively reachable from the output
// through parent edges. Only this set participates in the pass.
func (p *pass[V]) collect() {
	seen := map[Lifted]struct{}{p.output: {}}
	p.nodes = []Lifted{p.output}
	stack := []Lifted{p.output}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, parent := range n.parentNodes() {
			if _, ok := seen[parent]; ok {
				continue
			}
			seen[parent] = struct{}{}
			p.nodes = append(p.nodes, parent)
			stack = append(stack, parent)
		}
	}
}

// reset zeroes every reachable accumulator and then seeds the output.
// Nodes survive across passes (parameters are reused over training
// iterations), so stale accumulation from an earlier pass must not
// leak into this one.
func (p *pass[V]) reset() {
	for _, n := range p.nodes {
		n.zeroGrad()
	}
	p.output.dx = p.seed
}

// accumulate replays the recorded steps in strictly decreasing creation
// order. Creation order is a topological order of the dependency graph,
// so every node's gradient is final before its own step distributes it
// to the parents.
func (p *pass[V]) accumulate() {
	sort.Slice(p.nodes, func(i, j int) bool {
		return p.nodes[i].seqNum() > p.nodes[j].seqNum()
	})
	for _, n := range p.nodes {
		n.runStep()
	}
}
