// Package autodiff implements reverse-mode automatic differentiation
// over scalars and dense tensors.
//
// Programs are written against lifted values: Lift wraps a raw value in
// a Node, and every operation applied to at least one node eagerly
// computes its forward value and records a backward step. Operations
// applied only to raw values constant-fold to raw results with nothing
// recorded. Backward replays the recorded steps of one output's
// reachable subgraph in reverse creation order, accumulating each
// node's gradient into its parents.
//
// Architecture:
//   - Node[V]: lifted value plus gradient accumulator; V is float64 or *tensor.Dense
//   - Kind[V]: the two value-type capabilities (zero, accumulate, seed, coercion)
//   - NewUnaryFunction/NewBinaryFunction/NewFunction: the operation factory,
//     handling constant folding and the choice of backward step shape
//   - Derivative tables: closed-form formulas for the built-in catalogue,
//     keyed by stable operation names like "scalar.add" and "tensor.exp"
//   - Backward/BackwardWithCotangent: the pass executor (collect, reset,
//     accumulate in reverse creation order)
//
// Usage:
//
//	x := autodiff.LiftScalar(3, "x")
//	y := autodiff.LiftScalar(4, "y")
//	z := autodiff.Add(autodiff.Mul(x, y), x) // z = x*y + x = 15
//
//	autodiff.Backward(z)
//	fmt.Println(x.Gradient()) // dz/dx = y + 1 = 5
//	fmt.Println(y.Gradient()) // dz/dy = x = 3
package autodiff
