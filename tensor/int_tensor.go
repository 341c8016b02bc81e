package tensor

import "fmt"

// IntTensor is a row-major integer tensor used for class indices and permutations.
type IntTensor struct {
	data  []int
	shape []int
}

// NewInt creates a zero IntTensor.
func NewInt(shape ...int) *IntTensor {
	return &IntTensor{data: make([]int, numel(shape)), shape: cloneInts(shape)}
}

// IntFromSlice wraps data (without copying). With no shape the tensor is 1-D.
func IntFromSlice(data []int, shape ...int) *IntTensor {
	if len(shape) == 0 {
		shape = []int{len(data)}
	}
	if n := numel(shape); n != len(data) {
		panic(fmt.Sprintf("tensor: %d values do not fit shape %v (size %d)", len(data), shape, n))
	}
	return &IntTensor{data: data, shape: cloneInts(shape)}
}

// Shape returns a copy of the shape.
func (t *IntTensor) Shape() []int {
	return cloneInts(t.shape)
}

// Dims returns the rank.
func (t *IntTensor) Dims() int {
	return len(t.shape)
}

// Size returns the number of elements.
func (t *IntTensor) Size() int {
	return len(t.data)
}

// Data returns the underlying storage.
func (t *IntTensor) Data() []int {
	return t.data
}

// At returns the element at the given indices.
func (t *IntTensor) At(indices ...int) int {
	return t.data[flatIndex(t.shape, indices)]
}

// Set sets the element at the given indices.
func (t *IntTensor) Set(value int, indices ...int) {
	t.data[flatIndex(t.shape, indices)] = value
}

// Reshape returns a view with a new shape; one dim may be -1.
func (t *IntTensor) Reshape(shape ...int) *IntTensor {
	return &IntTensor{data: t.data, shape: inferShape(shape, len(t.data))}
}

// Unsqueeze inserts a dim of size 1.
func (t *IntTensor) Unsqueeze(dim int) *IntTensor {
	return &IntTensor{data: t.data, shape: unsqueezeShape(t.shape, dim)}
}

// Clone deep-copies the tensor.
func (t *IntTensor) Clone() *IntTensor {
	return &IntTensor{data: append([]int(nil), t.data...), shape: cloneInts(t.shape)}
}

// Float converts to a float tensor.
func (t *IntTensor) Float() *Tensor {
	out := New(t.shape...)
	for i, v := range t.data {
		out.data[i] = float64(v)
	}
	return out
}

// Equal reports whether two int tensors have equal shape and values.
func (t *IntTensor) Equal(o *IntTensor) bool {
	if !ShapeEqual(t.shape, o.shape) {
		return false
	}
	for i := range t.data {
		if t.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

// String returns a short description for debugging.
func (t *IntTensor) String() string {
	return fmt.Sprintf("IntTensor(shape=%v, data=%v)", t.shape, t.data)
}
