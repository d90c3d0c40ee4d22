package autodiff_test

import (
	"math"
	"testing"

	"github.com/rewind-ml/rewind/internal/autodiff"
	"github.com/rewind-ml/rewind/internal/tensor"
)

func assertGrad(t *testing.T, expected, actual float64, msg string) {
	t.Helper()
	if math.Abs(expected-actual) > 1e-9 {
		t.Errorf("%s: gradient = %v, want %v", msg, actual, expected)
	}
}

func assertTensorGrad(t *testing.T, expected, actual *tensor.Dense, msg string) {
	t.Helper()
	if !actual.AllClose(expected, 1e-9) {
		t.Errorf("%s: gradient = %v, want %v", msg, actual, expected)
	}
}

// TestBackwardIdentity tests that an output's own derivative is 1.
func TestBackwardIdentity(t *testing.T) {
	x := autodiff.LiftScalar(5)
	autodiff.Backward(x)
	assertGrad(t, 1, x.Gradient(), "d(x)/dx")

	v := autodiff.LiftTensor(tensor.Vector(1, 2, 3))
	autodiff.Backward(v)
	assertTensorGrad(t, tensor.Ones(tensor.Shape{3}), v.Gradient(), "d(v)/dv")
}

// TestBackwardProductRule tests d(xy)/dx = y and d(xy)/dy = x.
func TestBackwardProductRule(t *testing.T) {
	x := autodiff.LiftScalar(3, "x")
	y := autodiff.LiftScalar(4, "y")
	autodiff.Backward(autodiff.Mul(x, y))
	assertGrad(t, 4, x.Gradient(), "d(xy)/dx")
	assertGrad(t, 3, y.Gradient(), "d(xy)/dy")
}

// TestBackwardDiamond tests accumulation when one node feeds an
// operation twice: d(y*y)/dy = 2y.
func TestBackwardDiamond(t *testing.T) {
	y := autodiff.LiftScalar(2)
	autodiff.Backward(autodiff.Mul(y, y))
	assertGrad(t, 4, y.Gradient(), "d(y*y)/dy")

	y = autodiff.LiftScalar(2)
	autodiff.Backward(autodiff.Add(y, y))
	assertGrad(t, 2, y.Gradient(), "d(y+y)/dy")
}

// TestBackwardDeepDiamond tests accumulation through a shared
// intermediate: z = x²·(x²+1), dz/dx = 4x³ + 2x.
func TestBackwardDeepDiamond(t *testing.T) {
	x := autodiff.LiftScalar(2)
	x2 := autodiff.Mul(x, x)
	z := autodiff.Mul(x2, autodiff.Add(x2, 1.0))
	if v := autodiff.Value(z).(float64); v != 20 {
		t.Fatalf("forward = %v, want 20", v)
	}
	autodiff.Backward(z)
	assertGrad(t, 36, x.Gradient(), "dz/dx")
}

// TestBackwardChainRule tests d(sin(x²))/dx = 2x·cos(x²).
func TestBackwardChainRule(t *testing.T) {
	x := autodiff.LiftScalar(0.5)
	autodiff.Backward(autodiff.Sin(autodiff.Mul(x, x)))
	assertGrad(t, math.Cos(0.25), x.Gradient(), "d(sin(x^2))/dx")
}

// TestBackwardRerunIsolation tests that repeating a pass reproduces the
// same gradients instead of accumulating across passes.
func TestBackwardRerunIsolation(t *testing.T) {
	x := autodiff.LiftScalar(3)
	z := autodiff.Mul(x, x)

	autodiff.Backward(z)
	first := x.Gradient()
	autodiff.Backward(z)

	assertGrad(t, first, x.Gradient(), "second pass")
	assertGrad(t, 6, x.Gradient(), "d(x*x)/dx")

	v := autodiff.LiftTensor(tensor.Vector(1, 2, 3))
	loss := autodiff.SumAll(autodiff.Mul(v, v))
	autodiff.Backward(loss)
	autodiff.Backward(loss)
	assertTensorGrad(t, tensor.Vector(2, 4, 6), v.Gradient(), "tensor second pass")
}

// TestBackwardResetBetweenPasses tests that a later pass over a shared
// leaf resets its accumulator rather than adding to it.
func TestBackwardResetBetweenPasses(t *testing.T) {
	x := autodiff.LiftScalar(3)
	square := autodiff.Mul(x, x)
	double := autodiff.Add(x, x)

	autodiff.Backward(square)
	assertGrad(t, 6, x.Gradient(), "d(x*x)/dx")

	autodiff.Backward(double)
	assertGrad(t, 2, x.Gradient(), "d(x+x)/dx after a previous pass")
}

// TestBackwardUnreachableUntouched tests that nodes outside the seeded
// output's subgraph keep their gradients.
func TestBackwardUnreachableUntouched(t *testing.T) {
	x := autodiff.LiftScalar(3)
	y := autodiff.LiftScalar(4)
	autodiff.Backward(autodiff.Mul(x, y))
	assertGrad(t, 3, y.Gradient(), "d(xy)/dy")

	// y is not reachable from x+x; its gradient must survive.
	autodiff.Backward(autodiff.Add(x, x))
	assertGrad(t, 2, x.Gradient(), "d(x+x)/dx")
	assertGrad(t, 3, y.Gradient(), "y untouched by unrelated pass")
}

// TestBackwardFloorContributesNothing tests the explicit zero-derivative
// policy: d(floor(x)·x)/dx = floor(x).
func TestBackwardFloorContributesNothing(t *testing.T) {
	x := autodiff.LiftScalar(2.5)
	z := autodiff.Mul(autodiff.Floor(x), x)
	if v := autodiff.Value(z).(float64); v != 5 {
		t.Fatalf("forward = %v, want 5", v)
	}
	autodiff.Backward(z)
	assertGrad(t, 2, x.Gradient(), "d(floor(x)*x)/dx")
}

// TestBackwardOnRaw tests that raw values cannot seed a pass.
func TestBackwardOnRaw(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for Backward on a raw value")
		}
	}()
	autodiff.Backward(3.0)
}

// TestBackwardTensorElementwise tests the tensor seed and elementwise
// accumulation: d(sum(v∘v))/dv = 2v.
func TestBackwardTensorElementwise(t *testing.T) {
	v := autodiff.LiftTensor(tensor.Vector(1, 2, 3))
	autodiff.Backward(autodiff.SumAll(autodiff.Mul(v, v)))
	assertTensorGrad(t, tensor.Vector(2, 4, 6), v.Gradient(), "d(sum(v*v))/dv")
}

// TestBackwardMatVec tests matrix-vector gradients through a summed
// output: dm = 1⊗v, dv = mᵀ·1.
func TestBackwardMatVec(t *testing.T) {
	raw, _ := tensor.Matrix(2, 2, []float64{1, 2, 3, 4})
	m := autodiff.LiftTensor(raw)
	v := autodiff.LiftTensor(tensor.Vector(5, 6))

	loss := autodiff.SumAll(autodiff.MatVec(m, v))
	if got := autodiff.Value(loss).(float64); got != 56 {
		t.Fatalf("forward = %v, want 56", got)
	}

	autodiff.Backward(loss)
	wantM, _ := tensor.Matrix(2, 2, []float64{5, 6, 5, 6})
	assertTensorGrad(t, wantM, m.Gradient(), "dm")
	assertTensorGrad(t, tensor.Vector(4, 6), v.Gradient(), "dv")
}

// TestBackwardMatMul tests matrix product gradients: dA = G·Bᵀ,
// dB = Aᵀ·G with G all ones.
func TestBackwardMatMul(t *testing.T) {
	rawA, _ := tensor.Matrix(2, 2, []float64{1, 2, 3, 4})
	rawB, _ := tensor.Matrix(2, 2, []float64{5, 6, 7, 8})
	a := autodiff.LiftTensor(rawA)
	b := autodiff.LiftTensor(rawB)

	loss := autodiff.SumAll(autodiff.MatMul(a, b))
	if got := autodiff.Value(loss).(float64); got != 134 {
		t.Fatalf("forward = %v, want 134", got)
	}

	autodiff.Backward(loss)
	wantA, _ := tensor.Matrix(2, 2, []float64{11, 15, 11, 15})
	wantB, _ := tensor.Matrix(2, 2, []float64{4, 4, 6, 6})
	assertTensorGrad(t, wantA, a.Gradient(), "dA")
	assertTensorGrad(t, wantB, b.Gradient(), "dB")
}

// TestBackwardWithCotangent tests seeding a tensor output with an
// explicit cotangent.
func TestBackwardWithCotangent(t *testing.T) {
	v := autodiff.LiftTensor(tensor.Vector(1, 2, 3))
	y := autodiff.Mul(v, v).(*autodiff.Tensor)

	autodiff.BackwardWithCotangent(y, tensor.Vector(1, 10, 100))
	assertTensorGrad(t, tensor.Vector(2, 40, 600), v.Gradient(), "cotangent-weighted dv")
}

// TestBackwardWithCotangentErrors tests the cotangent fatal paths.
func TestBackwardWithCotangentErrors(t *testing.T) {
	tests := []struct {
		name string
		call func()
	}{
		{"scalar output", func() {
			autodiff.BackwardWithCotangent(autodiff.LiftScalar(1), tensor.Vector(1))
		}},
		{"nil cotangent", func() {
			autodiff.BackwardWithCotangent(autodiff.LiftTensor(tensor.Vector(1)), nil)
		}},
		{"shape mismatch", func() {
			autodiff.BackwardWithCotangent(autodiff.LiftTensor(tensor.Vector(1, 2)), tensor.Vector(1))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Error("Expected panic")
				}
			}()
			tt.call()
		})
	}
}

// TestBackwardReentrant tests the single-in-flight constraint: a
// backward formula cannot start another pass.
func TestBackwardReentrant(t *testing.T) {
	reenter := autodiff.NewFunction(autodiff.Func[float64]{
		Kind:    autodiff.ScalarKind(),
		Name:    "test.reenter",
		Forward: func(args []any) float64 { return autodiff.Value(args[0]).(float64) },
		Backward: func(out *autodiff.Scalar, args []any) {
			autodiff.Backward(args[0])
		},
	})

	z := reenter(autodiff.LiftScalar(1))
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for a pass started during a pass")
		}
	}()
	autodiff.Backward(z)
}

// TestBackwardMixedGraph tests a graph whose scalar output depends on
// tensor leaves through interop operations.
func TestBackwardMixedGraph(t *testing.T) {
	raw, _ := tensor.Matrix(2, 2, []float64{1, 2, 3, 4})
	m := autodiff.LiftTensor(raw)
	x := autodiff.LiftScalar(10)

	// loss = x · m[3] = 10 * 4
	loss := autodiff.Mul(x, autodiff.At(m, 3))
	if got := autodiff.Value(loss).(float64); got != 40 {
		t.Fatalf("forward = %v, want 40", got)
	}

	autodiff.Backward(loss)
	assertGrad(t, 4, x.Gradient(), "dx")
	wantM, _ := tensor.Matrix(2, 2, []float64{0, 0, 0, 10})
	assertTensorGrad(t, wantM, m.Gradient(), "dm")
}
