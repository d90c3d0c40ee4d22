package autodiff_test

import (
	"math"
	"testing"

	"github.com/rewind-ml/rewind/internal/autodiff"
	"github.com/rewind-ml/rewind/internal/tensor"
)

// Constant Folding Tests

// TestConstantFoldingUnary tests that raw arguments produce raw results.
func TestConstantFoldingUnary(t *testing.T) {
	got := autodiff.Exp(1.0)
	v, ok := got.(float64)
	if !ok {
		t.Fatalf("Exp(1.0) = %T, want raw float64", got)
	}
	if math.Abs(v-math.E) > 1e-15 {
		t.Errorf("Exp(1.0) = %v, want e", v)
	}
}

// TestConstantFoldingBinary tests folding with promoted integer operands.
func TestConstantFoldingBinary(t *testing.T) {
	got := autodiff.Add(2.0, 3)
	if v, ok := got.(float64); !ok || v != 5 {
		t.Errorf("Add(2.0, 3) = %v (%T), want raw 5", got, got)
	}
	if autodiff.IsLifted(got) {
		t.Error("all-raw call must not record a node")
	}
}

// TestConstantFoldingTensor tests folding of raw tensor operands.
func TestConstantFoldingTensor(t *testing.T) {
	got := autodiff.Add(tensor.Vector(1, 2), tensor.Vector(10, 20))
	d, ok := got.(*tensor.Dense)
	if !ok {
		t.Fatalf("Add(raw, raw) = %T, want raw *tensor.Dense", got)
	}
	if !d.Equal(tensor.Vector(11, 22)) {
		t.Errorf("Add = %v, want [11 22]", d)
	}
}

// TestConstantFoldingVariadic tests folding through the variadic factory.
func TestConstantFoldingVariadic(t *testing.T) {
	got := autodiff.Sum(1.0, 2.0, 3.5)
	if v, ok := got.(float64); !ok || v != 6.5 {
		t.Errorf("Sum(1, 2, 3.5) = %v (%T), want raw 6.5", got, got)
	}
}

// Recording Tests

// TestRecording tests eager forward evaluation and node provenance.
func TestRecording(t *testing.T) {
	x := autodiff.LiftScalar(3)
	z := autodiff.Mul(x, 4.0)

	n, ok := z.(*autodiff.Scalar)
	if !ok {
		t.Fatalf("Mul(node, raw) = %T, want *Scalar node", z)
	}
	if n.Value() != 12 {
		t.Errorf("Value() = %v, want 12 (forward runs eagerly)", n.Value())
	}
	if n.OpName() != "scalar.mul" {
		t.Errorf("OpName() = %q, want %q", n.OpName(), "scalar.mul")
	}

	v := autodiff.LiftTensor(tensor.Vector(1, 2))
	tz := autodiff.Mul(v, v)
	tn, ok := tz.(*autodiff.Tensor)
	if !ok {
		t.Fatalf("Mul(tensor node, tensor node) = %T, want *Tensor node", tz)
	}
	if tn.OpName() != "tensor.mul" {
		t.Errorf("OpName() = %q, want %q", tn.OpName(), "tensor.mul")
	}
}

// TestGradientByLiftedPattern tests the three binary node shapes: both
// sides lifted, left only, right only.
func TestGradientByLiftedPattern(t *testing.T) {
	x := autodiff.LiftScalar(3)
	y := autodiff.LiftScalar(4)
	autodiff.Backward(autodiff.Mul(x, y))
	if x.Gradient() != 4 || y.Gradient() != 3 {
		t.Errorf("both lifted: gradients = %v, %v, want 4, 3", x.Gradient(), y.Gradient())
	}

	x = autodiff.LiftScalar(3)
	autodiff.Backward(autodiff.Mul(x, 5.0))
	if x.Gradient() != 5 {
		t.Errorf("left lifted: gradient = %v, want 5", x.Gradient())
	}

	y = autodiff.LiftScalar(4)
	autodiff.Backward(autodiff.Mul(5.0, y))
	if y.Gradient() != 5 {
		t.Errorf("right lifted: gradient = %v, want 5", y.Gradient())
	}

	// Non-commutative op, raw side on each end.
	x = autodiff.LiftScalar(8)
	autodiff.Backward(autodiff.Div(x, 2.0))
	if x.Gradient() != 0.5 {
		t.Errorf("Div(x, 2): gradient = %v, want 0.5", x.Gradient())
	}
	y = autodiff.LiftScalar(2)
	autodiff.Backward(autodiff.Div(8.0, y))
	if y.Gradient() != -2 {
		t.Errorf("Div(8, y): gradient = %v, want -2", y.Gradient())
	}
}

// Registration Tests

// TestNewUnaryFunctionValidation tests descriptor validation.
func TestNewUnaryFunctionValidation(t *testing.T) {
	identity := func(x float64) float64 { return x }
	noGrad := func(out, x *autodiff.Scalar) {}

	tests := []struct {
		name      string
		spec      autodiff.UnaryFunc[float64]
		wantPanic bool
	}{
		{
			name: "valid",
			spec: autodiff.UnaryFunc[float64]{
				Kind: autodiff.ScalarKind(), Name: "test.id", Forward: identity, Backward: noGrad,
			},
			wantPanic: false,
		},
		{
			name: "nil kind",
			spec: autodiff.UnaryFunc[float64]{
				Name: "test.id", Forward: identity, Backward: noGrad,
			},
			wantPanic: true,
		},
		{
			name: "missing forward",
			spec: autodiff.UnaryFunc[float64]{
				Kind: autodiff.ScalarKind(), Name: "test.id", Backward: noGrad,
			},
			wantPanic: true,
		},
		{
			name: "missing backward",
			spec: autodiff.UnaryFunc[float64]{
				Kind: autodiff.ScalarKind(), Name: "test.id", Forward: identity,
			},
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if (r != nil) != tt.wantPanic {
					t.Errorf("NewUnaryFunction panic = %v, wantPanic = %v", r, tt.wantPanic)
				}
			}()
			autodiff.NewUnaryFunction(tt.spec)
		})
	}
}

// TestNewBinaryFunctionValidation tests that both backward formulas are
// required.
func TestNewBinaryFunctionValidation(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for a binary descriptor missing BackwardY")
		}
	}()
	autodiff.NewBinaryFunction(autodiff.BinaryFunc[float64]{
		Kind:      autodiff.ScalarKind(),
		Name:      "test.half",
		Forward:   func(x, y float64) float64 { return x },
		BackwardX: func(out, x *autodiff.Scalar, y float64) {},
	})
}

// TestCustomOperation registers a squared-distance operation through the
// variadic factory and checks its value and gradients.
func TestCustomOperation(t *testing.T) {
	sqDist := autodiff.NewFunction(autodiff.Func[float64]{
		Kind: autodiff.ScalarKind(),
		Name: "custom.sqdist",
		Forward: func(args []any) float64 {
			d := autodiff.Value(args[0]).(float64) - autodiff.Value(args[1]).(float64)
			return d * d
		},
		Backward: func(out *autodiff.Scalar, args []any) {
			d := autodiff.Value(args[0]).(float64) - autodiff.Value(args[1]).(float64)
			if n, ok := args[0].(*autodiff.Scalar); ok {
				n.Accumulate(out.Gradient() * 2 * d)
			}
			if n, ok := args[1].(*autodiff.Scalar); ok {
				n.Accumulate(-out.Gradient() * 2 * d)
			}
		},
	})

	x := autodiff.LiftScalar(5)
	y := autodiff.LiftScalar(2)
	z := sqDist(x, y)
	n, ok := z.(*autodiff.Scalar)
	if !ok || n.Value() != 9 {
		t.Fatalf("sqDist(5, 2) = %v (%T), want node with value 9", z, z)
	}
	if n.OpName() != "custom.sqdist" {
		t.Errorf("OpName() = %q, want %q", n.OpName(), "custom.sqdist")
	}

	autodiff.Backward(z)
	if x.Gradient() != 6 {
		t.Errorf("d/dx = %v, want 2(x-y) = 6", x.Gradient())
	}
	if y.Gradient() != -6 {
		t.Errorf("d/dy = %v, want -2(x-y) = -6", y.Gradient())
	}

	// Raw arguments fold through the same callable.
	if v, ok := sqDist(5.0, 2.0).(float64); !ok || v != 9 {
		t.Errorf("sqDist(5.0, 2.0) = %v, want raw 9", sqDist(5.0, 2.0))
	}
}

// TestCollectionArgument tests that a lone []any argument is treated as
// the argument list.
func TestCollectionArgument(t *testing.T) {
	x := autodiff.LiftScalar(1)
	z := autodiff.Sum([]any{x, 2.0, 3.0})
	n, ok := z.(*autodiff.Scalar)
	if !ok || n.Value() != 6 {
		t.Fatalf("Sum([]any{x, 2, 3}) = %v (%T), want node with value 6", z, z)
	}
	autodiff.Backward(z)
	if x.Gradient() != 1 {
		t.Errorf("d/dx = %v, want 1", x.Gradient())
	}
}

// TestUnsupportedOperands tests the fatal paths for foreign and
// mismatched operands.
func TestUnsupportedOperands(t *testing.T) {
	tests := []struct {
		name string
		call func()
	}{
		{"string operand", func() { autodiff.Add(1.0, "two") }},
		{"scalar node in tensor op", func() {
			autodiff.Add(autodiff.LiftScalar(1), autodiff.LiftTensor(tensor.Vector(1)))
		}},
		{"tensor shape mismatch", func() {
			autodiff.Add(autodiff.LiftTensor(tensor.Vector(1, 2)), tensor.Vector(1, 2, 3))
		}},
		{"matvec on vectors", func() {
			autodiff.MatVec(autodiff.LiftTensor(tensor.Vector(1, 2)), tensor.Vector(1, 2))
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
