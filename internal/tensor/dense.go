// Package tensor implements the flat float64 tensor storage the
// differentiation engine computes over: shape-validated construction,
// strided element access, elementwise and linear-algebra kernels backed
// by gonum, and a small binary (de)serialization codec.
package tensor

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Dense is a dense tensor: a shape plus row-major float64 storage.
type Dense struct {
	shape Shape
	data  []float64
}

// NewDense creates a tensor with the given shape, copying data into it.
// The data length must match the number of elements the shape describes.
func NewDense(shape Shape, data []float64) (*Dense, error) {
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrap(err, "tensor: invalid shape")
	}
	if len(data) != shape.NumElements() {
		return nil, errors.Errorf("tensor: data length %d does not match shape %s (%d elements)",
			len(data), shape, shape.NumElements())
	}
	d := &Dense{shape: shape.Clone(), data: make([]float64, len(data))}
	copy(d.data, data)
	return d, nil
}

// Matrix creates a rows×cols tensor, copying data into it row by row.
func Matrix(rows, cols int, data []float64) (*Dense, error) {
	return NewDense(Shape{rows, cols}, data)
}

// Vector creates a 1-D tensor from the given values.
func Vector(values ...float64) *Dense {
	if len(values) == 0 {
		exceptions.Panicf("tensor.vector: at least one value is required")
	}
	d, err := NewDense(Shape{len(values)}, values)
	if err != nil {
		panic(err)
	}
	return d
}

// Zeros creates a tensor of the given shape filled with zeros.
func Zeros(shape Shape) *Dense {
	if err := shape.Validate(); err != nil {
		exceptions.Panicf("tensor.zeros: %v", err)
	}
	return &Dense{shape: shape.Clone(), data: make([]float64, shape.NumElements())}
}

// Ones creates a tensor of the given shape filled with ones.
func Ones(shape Shape) *Dense {
	return Full(shape, 1)
}

// Full creates a tensor of the given shape with every element set to value.
func Full(shape Shape, value float64) *Dense {
	d := Zeros(shape)
	d.Fill(value)
	return d
}

// Shape returns the tensor's shape. Callers must not modify it.
func (d *Dense) Shape() Shape {
	return d.shape
}

// NumElements returns the total number of elements.
func (d *Dense) NumElements() int {
	return len(d.data)
}

// Data returns the backing row-major storage. Callers must not modify it.
func (d *Dense) Data() []float64 {
	return d.data
}

// At returns the element at the given multi-dimensional index.
func (d *Dense) At(indices ...int) float64 {
	return d.data[d.flatIndex("tensor.at", indices)]
}

// Set stores value at the given multi-dimensional index.
func (d *Dense) Set(value float64, indices ...int) {
	d.data[d.flatIndex("tensor.set", indices)] = value
}

// AtFlat returns the element at flat (row-major) index i.
func (d *Dense) AtFlat(i int) float64 {
	if i < 0 || i >= len(d.data) {
		exceptions.Panicf("tensor.at: flat index %d out of range for shape %s", i, d.shape)
	}
	return d.data[i]
}

// SetFlat stores value at flat (row-major) index i.
func (d *Dense) SetFlat(i int, value float64) {
	if i < 0 || i >= len(d.data) {
		exceptions.Panicf("tensor.set: flat index %d out of range for shape %s", i, d.shape)
	}
	d.data[i] = value
}

// flatIndex converts a multi-dimensional index to a flat offset.
func (d *Dense) flatIndex(op string, indices []int) int {
	if len(indices) != len(d.shape) {
		exceptions.Panicf("%s: got %d indices for shape %s", op, len(indices), d.shape)
	}
	flat := 0
	strides := d.shape.ComputeStrides()
	for axis, idx := range indices {
		if idx < 0 || idx >= d.shape[axis] {
			exceptions.Panicf("%s: index %d out of range for axis %d of shape %s", op, idx, axis, d.shape)
		}
		flat += idx * strides[axis]
	}
	return flat
}

// Clone returns a deep copy of the tensor.
func (d *Dense) Clone() *Dense {
	clone := &Dense{shape: d.shape.Clone(), data: make([]float64, len(d.data))}
	copy(clone.data, d.data)
	return clone
}

// Fill sets every element to value.
func (d *Dense) Fill(value float64) {
	for i := range d.data {
		d.data[i] = value
	}
}

// Equal reports whether both tensors have the same shape and exactly equal elements.
func (d *Dense) Equal(other *Dense) bool {
	return d.shape.Equal(other.shape) && floats.Equal(d.data, other.data)
}

// AllClose reports whether both tensors have the same shape and elementwise
// absolute differences within tol.
func (d *Dense) AllClose(other *Dense, tol float64) bool {
	return d.shape.Equal(other.shape) && floats.EqualApprox(d.data, other.data, tol)
}

// String returns a compact representation like "Dense(2, 2)[1 2 3 4]".
// Long tensors are elided after the first few elements.
func (d *Dense) String() string {
	const maxShown = 8
	var sb strings.Builder
	fmt.Fprintf(&sb, "Dense%s[", d.shape)
	for i, v := range d.data {
		if i == maxShown {
			fmt.Fprintf(&sb, " … %d more", len(d.data)-maxShown)
			break
		}
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%g", v)
	}
	sb.WriteByte(']')
	return sb.String()
}
