package tensor

import (
	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/rewind-ml/rewind/internal/parallel"
)

// mapConfig sizes the worker pool Map spreads long element loops over.
var mapConfig = parallel.DefaultConfig()

// sameShape aborts unless a and b have identical shapes. Operands of
// mismatched shape are a fatal error: there is no implicit broadcasting.
func sameShape(op string, a, b *Dense) {
	if !a.shape.Equal(b.shape) {
		exceptions.Panicf("%s: shape mismatch %s vs %s", op, a.shape, b.shape)
	}
}

// Add returns the elementwise sum a + b.
func Add(a, b *Dense) *Dense {
	sameShape("tensor.add", a, b)
	out := Zeros(a.shape)
	floats.AddTo(out.data, a.data, b.data)
	return out
}

// Sub returns the elementwise difference a - b.
func Sub(a, b *Dense) *Dense {
	sameShape("tensor.sub", a, b)
	out := Zeros(a.shape)
	floats.SubTo(out.data, a.data, b.data)
	return out
}

// Mul returns the elementwise (Hadamard) product a * b.
func Mul(a, b *Dense) *Dense {
	sameShape("tensor.mul", a, b)
	out := Zeros(a.shape)
	floats.MulTo(out.data, a.data, b.data)
	return out
}

// Div returns the elementwise quotient a / b.
func Div(a, b *Dense) *Dense {
	sameShape("tensor.div", a, b)
	out := Zeros(a.shape)
	floats.DivTo(out.data, a.data, b.data)
	return out
}

// Scale returns t scaled by s.
func Scale(t *Dense, s float64) *Dense {
	out := Zeros(t.shape)
	floats.ScaleTo(out.data, s, t.data)
	return out
}

// Map returns a tensor with f applied to every element of t. Long
// element loops are chunked across goroutines; f must be pure.
func Map(t *Dense, f func(float64) float64) *Dense {
	out := Zeros(t.shape)
	parallel.For(len(t.data), func(i int) {
		out.data[i] = f(t.data[i])
	}, mapConfig)
	return out
}

// Accumulate adds src into dst elementwise, in place.
func Accumulate(dst, src *Dense) {
	sameShape("tensor.accumulate", dst, src)
	floats.Add(dst.data, src.data)
}

// Sum returns the sum of all elements of t.
func Sum(t *Dense) float64 {
	return floats.Sum(t.data)
}

// matrix interprets t as a gonum matrix. The caller validates rank.
func matrix(t *Dense) *mat.Dense {
	return mat.NewDense(t.shape[0], t.shape[1], t.data)
}

// vector interprets t as a gonum vector. The caller validates rank.
func vector(t *Dense) *mat.VecDense {
	return mat.NewVecDense(t.shape[0], t.data)
}

// MatVec returns the matrix-vector product m·v for m of shape (r, c) and
// v of shape (c). The result has shape (r).
func MatVec(m, v *Dense) *Dense {
	if len(m.shape) != 2 || len(v.shape) != 1 {
		exceptions.Panicf("tensor.matvec: want a matrix and a vector, got %s and %s", m.shape, v.shape)
	}
	if m.shape[1] != v.shape[0] {
		exceptions.Panicf("tensor.matvec: matrix width %d does not match vector length %d",
			m.shape[1], v.shape[0])
	}
	out := Zeros(Shape{m.shape[0]})
	vector(out).MulVec(matrix(m), vector(v))
	return out
}

// MatVecT returns mᵀ·v for m of shape (r, c) and v of shape (r). The
// result has shape (c).
func MatVecT(m, v *Dense) *Dense {
	if len(m.shape) != 2 || len(v.shape) != 1 {
		exceptions.Panicf("tensor.matvec: want a matrix and a vector, got %s and %s", m.shape, v.shape)
	}
	if m.shape[0] != v.shape[0] {
		exceptions.Panicf("tensor.matvec: matrix height %d does not match vector length %d",
			m.shape[0], v.shape[0])
	}
	out := Zeros(Shape{m.shape[1]})
	vector(out).MulVec(matrix(m).T(), vector(v))
	return out
}

// Outer returns the outer product x⊗y of two vectors, with shape
// (len(x), len(y)).
func Outer(x, y *Dense) *Dense {
	if len(x.shape) != 1 || len(y.shape) != 1 {
		exceptions.Panicf("tensor.outer: want two vectors, got %s and %s", x.shape, y.shape)
	}
	out := Zeros(Shape{x.shape[0], y.shape[0]})
	matrix(out).Outer(1, vector(x), vector(y))
	return out
}

// MatMul returns the matrix product a·b for a of shape (r, k) and b of
// shape (k, c).
func MatMul(a, b *Dense) *Dense {
	if len(a.shape) != 2 || len(b.shape) != 2 {
		exceptions.Panicf("tensor.matmul: want two matrices, got %s and %s", a.shape, b.shape)
	}
	if a.shape[1] != b.shape[0] {
		exceptions.Panicf("tensor.matmul: inner dimensions do not match: %s and %s", a.shape, b.shape)
	}
	out := Zeros(Shape{a.shape[0], b.shape[1]})
	matrix(out).Mul(matrix(a), matrix(b))
	return out
}

// MatMulT1 returns aᵀ·b for a of shape (k, r) and b of shape (k, c).
func MatMulT1(a, b *Dense) *Dense {
	if len(a.shape) != 2 || len(b.shape) != 2 {
		exceptions.Panicf("tensor.matmul: want two matrices, got %s and %s", a.shape, b.shape)
	}
	if a.shape[0] != b.shape[0] {
		exceptions.Panicf("tensor.matmul: inner dimensions do not match: %s transposed and %s", a.shape, b.shape)
	}
	out := Zeros(Shape{a.shape[1], b.shape[1]})
	matrix(out).Mul(matrix(a).T(), matrix(b))
	return out
}

// MatMulT2 returns a·bᵀ for a of shape (r, k) and b of shape (c, k).
func MatMulT2(a, b *Dense) *Dense {
	if len(a.shape) != 2 || len(b.shape) != 2 {
		exceptions.Panicf("tensor.matmul: want two matrices, got %s and %s", a.shape, b.shape)
	}
	if a.shape[1] != b.shape[1] {
		exceptions.Panicf("tensor.matmul: inner dimensions do not match: %s and %s transposed", a.shape, b.shape)
	}
	out := Zeros(Shape{a.shape[0], b.shape[0]})
	matrix(out).Mul(matrix(a), matrix(b).T())
	return out
}

// rowSize returns the number of elements in one leading-axis row of shape.
func rowSize(op string, shape Shape) int {
	if len(shape) == 0 {
		exceptions.Panicf("%s: rank-0 tensor has no leading axis", op)
	}
	return shape.NumElements() / shape[0]
}

// ConcatRows concatenates the parts along the leading axis. All parts must
// share the same trailing shape; the result has shape
// (Σ parts[i].shape[0], trailing...).
func ConcatRows(parts ...*Dense) *Dense {
	if len(parts) == 0 {
		exceptions.Panicf("tensor.concat: at least one part is required")
	}
	for _, p := range parts {
		if len(p.shape) == 0 {
			exceptions.Panicf("tensor.concat: rank-0 tensor has no leading axis")
		}
	}
	trailing := parts[0].shape[1:]
	rows := 0
	for _, p := range parts {
		if !p.shape[1:].Equal(trailing) {
			exceptions.Panicf("tensor.concat: trailing shape mismatch %s vs %s",
				p.shape, parts[0].shape)
		}
		rows += p.shape[0]
	}
	outShape := append(Shape{rows}, trailing...)
	out := Zeros(outShape)
	offset := 0
	for _, p := range parts {
		copy(out.data[offset:], p.data)
		offset += len(p.data)
	}
	return out
}

// SliceRows returns a copy of rows [from, to) of t along the leading axis.
// The result has shape (to-from, trailing...).
func SliceRows(t *Dense, from, to int) *Dense {
	size := rowSize("tensor.slice", t.shape)
	if from < 0 || to > t.shape[0] || from >= to {
		exceptions.Panicf("tensor.slice: range [%d, %d) out of bounds for shape %s", from, to, t.shape)
	}
	outShape := append(Shape{to - from}, t.shape[1:]...)
	out := Zeros(outShape)
	copy(out.data, t.data[from*size:to*size])
	return out
}

// ScatterRows returns a zero tensor of the given shape with src copied in
// at leading-axis row rowOffset. It is the adjoint of SliceRows.
func ScatterRows(shape Shape, src *Dense, rowOffset int) *Dense {
	size := rowSize("tensor.scatter", shape)
	if len(src.shape) == 0 || !src.shape[1:].Equal(shape[1:]) {
		exceptions.Panicf("tensor.scatter: trailing shape mismatch %s vs %s", src.shape, shape)
	}
	if rowOffset < 0 || rowOffset+src.shape[0] > shape[0] {
		exceptions.Panicf("tensor.scatter: rows [%d, %d) out of bounds for shape %s",
			rowOffset, rowOffset+src.shape[0], shape)
	}
	out := Zeros(shape)
	copy(out.data[rowOffset*size:], src.data)
	return out
}

// ScatterFlat returns a zero tensor of the given shape with value stored at
// flat index i. It is the adjoint of AtFlat.
func ScatterFlat(shape Shape, i int, value float64) *Dense {
	out := Zeros(shape)
	out.SetFlat(i, value)
	return out
}
