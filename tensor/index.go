package tensor

import "fmt"

// checkIndex validates an index tensor for gather/scatter along dim.
// index must have the same rank as t and match it on every other dim.
func checkIndex(t *Tensor, dim int, index *IntTensor) {
	if len(index.shape) != len(t.shape) {
		panic(fmt.Sprintf("tensor: index rank %d does not match tensor rank %d", len(index.shape), len(t.shape)))
	}
	for d := range t.shape {
		if d != dim && index.shape[d] != t.shape[d] {
			panic(fmt.Sprintf("tensor: index shape %v incompatible with %v at dim %d", index.shape, t.shape, dim))
		}
	}
}

func laneOffset(shape []int, dim, o, i, k int) int {
	_, n, inner := splitAt(shape, dim)
	return (o*n+k)*inner + i
}

// Gather selects out[..., j, ...] = t[..., index[..., j, ...], ...] along dim.
func (t *Tensor) Gather(dim int, index *IntTensor) *Tensor {
	dim = normDim(dim, len(t.shape))
	checkIndex(t, dim, index)
	out := New(index.shape...)
	outer, m, inner := splitAt(index.shape, dim)
	n := t.shape[dim]
	for o := 0; o < outer; o++ {
		for j := 0; j < m; j++ {
			for i := 0; i < inner; i++ {
				pos := (o*m+j)*inner + i
				k := index.data[pos]
				if k < 0 || k >= n {
					panic(fmt.Sprintf("tensor: gather index %d out of range [0,%d)", k, n))
				}
				out.data[pos] = t.data[laneOffset(t.shape, dim, o, i, k)]
			}
		}
	}
	return out
}

// ScatterInPlace writes t[..., index[..., j, ...], ...] = src[..., j, ...] along dim.
func (t *Tensor) ScatterInPlace(dim int, index *IntTensor, src *Tensor) *Tensor {
	dim = normDim(dim, len(t.shape))
	checkIndex(t, dim, index)
	if !ShapeEqual(index.shape, src.shape) {
		panic(fmt.Sprintf("tensor: scatter src shape %v does not match index %v", src.shape, index.shape))
	}
	t.scatter(dim, index, func(pos int) float64 { return src.data[pos] })
	return t
}

// ScatterValueInPlace writes value at the positions selected by index along dim.
func (t *Tensor) ScatterValueInPlace(dim int, index *IntTensor, value float64) *Tensor {
	dim = normDim(dim, len(t.shape))
	checkIndex(t, dim, index)
	t.scatter(dim, index, func(int) float64 { return value })
	return t
}

// Scatter is the out-of-place form of ScatterInPlace.
func (t *Tensor) Scatter(dim int, index *IntTensor, src *Tensor) *Tensor {
	return t.Detach().ScatterInPlace(dim, index, src)
}

// ScatterValue is the out-of-place form of ScatterValueInPlace.
func (t *Tensor) ScatterValue(dim int, index *IntTensor, value float64) *Tensor {
	return t.Detach().ScatterValueInPlace(dim, index, value)
}

func (t *Tensor) scatter(dim int, index *IntTensor, value func(pos int) float64) {
	outer, m, inner := splitAt(index.shape, dim)
	n := t.shape[dim]
	for o := 0; o < outer; o++ {
		for j := 0; j < m; j++ {
			for i := 0; i < inner; i++ {
				pos := (o*m+j)*inner + i
				k := index.data[pos]
				if k < 0 || k >= n {
					panic(fmt.Sprintf("tensor: scatter index %d out of range [0,%d)", k, n))
				}
				t.data[laneOffset(t.shape, dim, o, i, k)] = value(pos)
			}
		}
	}
}

// ScatterInPlace writes t[..., index[..., j, ...], ...] = src[..., j, ...] along dim.
func (t *IntTensor) ScatterInPlace(dim int, index *IntTensor, src *IntTensor) *IntTensor {
	dim = normDim(dim, len(t.shape))
	if len(index.shape) != len(t.shape) || !ShapeEqual(index.shape, src.shape) {
		panic(fmt.Sprintf("tensor: int scatter shape mismatch %v, %v, %v", t.shape, index.shape, src.shape))
	}
	outer, m, inner := splitAt(index.shape, dim)
	n := t.shape[dim]
	for o := 0; o < outer; o++ {
		for j := 0; j < m; j++ {
			for i := 0; i < inner; i++ {
				pos := (o*m+j)*inner + i
				k := index.data[pos]
				if k < 0 || k >= n {
					panic(fmt.Sprintf("tensor: scatter index %d out of range [0,%d)", k, n))
				}
				t.data[laneOffset(t.shape, dim, o, i, k)] = src.data[pos]
			}
		}
	}
	return t
}
