// Package tensor implements a dense, row-major float64 tensor with NumPy-style
// broadcasting. Shape errors are programmer bugs and panic with a "tensor:" message.
package tensor

import (
	"fmt"
	"math/rand"
)

// Tensor is a multi-dimensional array of float64 values stored in row-major order.
// A tensor with an empty shape is a scalar holding one element.
//
// Tensor is not safe for concurrent use.
type Tensor struct {
	data  []float64
	shape []int
	grad  []float64

	// RequiresGrad marks trainable parameters.
	RequiresGrad bool
}

// New creates a zero tensor with the given shape.
func New(shape ...int) *Tensor {
	return &Tensor{
		data:  make([]float64, numel(shape)),
		shape: cloneInts(shape),
	}
}

// Zeros is an alias of New.
func Zeros(shape ...int) *Tensor {
	return New(shape...)
}

// Full creates a tensor filled with v.
func Full(v float64, shape ...int) *Tensor {
	t := New(shape...)
	for i := range t.data {
		t.data[i] = v
	}
	return t
}

// Ones creates a tensor filled with 1.
func Ones(shape ...int) *Tensor {
	return Full(1, shape...)
}

// Scalar creates a rank-0 tensor.
func Scalar(v float64) *Tensor {
	return &Tensor{data: []float64{v}, shape: []int{}}
}

// FromSlice wraps data (without copying) in a tensor of the given shape.
func FromSlice(data []float64, shape ...int) *Tensor {
	if n := numel(shape); n != len(data) {
		panic(fmt.Sprintf("tensor: %d values do not fit shape %v (size %d)", len(data), shape, n))
	}
	return &Tensor{data: data, shape: cloneInts(shape)}
}

// Arange returns the 1-D tensor [0, 1, ..., n-1].
func Arange(n int) *Tensor {
	t := New(n)
	for i := range t.data {
		t.data[i] = float64(i)
	}
	return t
}

// RandN fills a tensor with normal samples of standard deviation scale.
func RandN(rng *rand.Rand, scale float64, shape ...int) *Tensor {
	t := New(shape...)
	for i := range t.data {
		t.data[i] = rng.NormFloat64() * scale
	}
	return t
}

func numel(shape []int) int {
	size := 1
	for i, dim := range shape {
		if dim < 0 {
			panic(fmt.Sprintf("tensor: shape[%d] must be non-negative, got %d", i, dim))
		}
		size *= dim
	}
	return size
}

func cloneInts(s []int) []int {
	out := make([]int, len(s))
	copy(out, s)
	return out
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() []int {
	return cloneInts(t.shape)
}

// Dim returns the size of dimension d (negative d counts from the end).
func (t *Tensor) Dim(d int) int {
	return t.shape[normDim(d, len(t.shape))]
}

// Dims returns the rank of the tensor.
func (t *Tensor) Dims() int {
	return len(t.shape)
}

// Size returns the total number of elements.
func (t *Tensor) Size() int {
	return len(t.data)
}

// Data returns the underlying storage. Writes are visible to the tensor.
func (t *Tensor) Data() []float64 {
	return t.data
}

// Item returns the only element of a one-element tensor.
func (t *Tensor) Item() float64 {
	if len(t.data) != 1 {
		panic(fmt.Sprintf("tensor: Item on tensor of size %d", len(t.data)))
	}
	return t.data[0]
}

// At returns the element at the given indices.
func (t *Tensor) At(indices ...int) float64 {
	return t.data[flatIndex(t.shape, indices)]
}

// Set sets the element at the given indices.
func (t *Tensor) Set(value float64, indices ...int) {
	t.data[flatIndex(t.shape, indices)] = value
}

// Grad returns the gradient buffer, allocating it on first use.
func (t *Tensor) Grad() []float64 {
	if t.grad == nil {
		t.grad = make([]float64, len(t.data))
	}
	return t.grad
}

// GradTensor returns the gradient as a tensor sharing the buffer.
func (t *Tensor) GradTensor() *Tensor {
	return &Tensor{data: t.Grad(), shape: cloneInts(t.shape)}
}

// AccumulateGrad adds g elementwise into the gradient buffer.
func (t *Tensor) AccumulateGrad(g *Tensor) {
	if g.Size() != t.Size() {
		panic(fmt.Sprintf("tensor: gradient of size %d for tensor of size %d", g.Size(), t.Size()))
	}
	grad := t.Grad()
	for i, v := range g.data {
		grad[i] += v
	}
}

// ZeroGrad clears the gradient.
func (t *Tensor) ZeroGrad() {
	for i := range t.grad {
		t.grad[i] = 0
	}
}

// Param marks t as trainable and returns it.
func Param(t *Tensor) *Tensor {
	t.RequiresGrad = true
	t.Grad()
	return t
}

// Clone creates a deep copy of the tensor, gradient included.
func (t *Tensor) Clone() *Tensor {
	c := &Tensor{
		data:         append([]float64(nil), t.data...),
		shape:        cloneInts(t.shape),
		RequiresGrad: t.RequiresGrad,
	}
	if t.grad != nil {
		c.grad = append([]float64(nil), t.grad...)
	}
	return c
}

// Detach returns a copy without gradient state.
func (t *Tensor) Detach() *Tensor {
	return &Tensor{data: append([]float64(nil), t.data...), shape: cloneInts(t.shape)}
}

// CopyFrom overwrites the values of t with those of src.
func (t *Tensor) CopyFrom(src *Tensor) {
	if !ShapeEqual(t.shape, src.shape) {
		panic(fmt.Sprintf("tensor: cannot copy %v into %v", src.shape, t.shape))
	}
	copy(t.data, src.data)
}

// String returns a short description for debugging.
func (t *Tensor) String() string {
	if len(t.data) <= 8 {
		return fmt.Sprintf("Tensor(shape=%v, data=%v)", t.shape, t.data)
	}
	return fmt.Sprintf("Tensor(shape=%v, size=%d)", t.shape, len(t.data))
}

// ShapeEqual reports whether two shapes are identical.
func ShapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// normDim maps a possibly negative dim onto [0, rank).
func normDim(d, rank int) int {
	if d < 0 {
		d += rank
	}
	if d < 0 || d >= rank {
		panic(fmt.Sprintf("tensor: dim %d out of range for rank %d", d, rank))
	}
	return d
}

// strides returns row-major strides for shape.
func strides(shape []int) []int {
	st := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		st[i] = stride
		stride *= shape[i]
	}
	return st
}

func flatIndex(shape, indices []int) int {
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("tensor: expected %d indices, got %d", len(shape), len(indices)))
	}
	idx, stride := 0, 1
	for i := len(indices) - 1; i >= 0; i-- {
		if indices[i] < 0 || indices[i] >= shape[i] {
			panic(fmt.Sprintf("tensor: index[%d]=%d out of bounds [0,%d)", i, indices[i], shape[i]))
		}
		idx += indices[i] * stride
		stride *= shape[i]
	}
	return idx
}

// splitAt returns the products of the dims before d, of d itself and after d.
func splitAt(shape []int, d int) (outer, n, inner int) {
	outer, inner = 1, 1
	for i := 0; i < d; i++ {
		outer *= shape[i]
	}
	for i := d + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, shape[d], inner
}
