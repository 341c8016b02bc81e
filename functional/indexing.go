package functional

import (
	"fmt"

	"github.com/abhissng/synapse/tensor"
)

// Reversed returns x with the order of elements along dim reversed.
func Reversed(x *tensor.Tensor, dim int) *tensor.Tensor {
	return x.Flip(dim)
}

// OneHot encodes a 1-D index tensor of length N as an [N, nrClasses] tensor.
func OneHot(index *tensor.IntTensor, nrClasses int) *tensor.Tensor {
	if index.Dims() != 1 {
		panic(fmt.Sprintf("functional: one_hot needs a 1-D index, got shape %v", index.Shape()))
	}
	out := tensor.New(index.Size(), nrClasses)
	return out.ScatterValueInPlace(1, index.Unsqueeze(1), 1)
}

// OneHotND encodes an index of any shape S as a tensor of shape S + [nrClasses].
func OneHotND(index *tensor.IntTensor, nrClasses int) *tensor.Tensor {
	shape := ConcatShape(index.Shape(), []int{nrClasses})
	return OneHot(index.Reshape(-1), nrClasses).View(shape...)
}

// OneHotDim is OneHotND with the class dim swapped into position dim.
func OneHotDim(index *tensor.IntTensor, nrClasses, dim int) *tensor.Tensor {
	return OneHotND(index, nrClasses).Transpose(-1, dim)
}

// InversePermutation returns inv such that inv[perm[i]] = i.
func InversePermutation(perm *tensor.IntTensor) *tensor.IntTensor {
	if perm.Dims() != 1 {
		panic(fmt.Sprintf("functional: permutation must be 1-D, got shape %v", perm.Shape()))
	}
	n := perm.Size()
	positions := make([]int, n)
	for i := range positions {
		positions[i] = i
	}
	return tensor.NewInt(n).ScatterInPlace(0, perm, tensor.IntFromSlice(positions))
}

// IndexOneHot returns t[..., index, ...] with index taken along dim, one per lane.
// index has the shape of t without dim.
func IndexOneHot(t *tensor.Tensor, dim int, index *tensor.IntTensor) *tensor.Tensor {
	return t.Gather(dim, index.Unsqueeze(dim)).Squeeze(dim)
}

// SetIndexOneHot writes value at t[..., index, ...] along dim in place.
func SetIndexOneHot(t *tensor.Tensor, dim int, index *tensor.IntTensor, value float64) *tensor.Tensor {
	return t.ScatterValueInPlace(dim, index.Unsqueeze(dim), value)
}

// SetIndexOneHotTensor writes value[...] at t[..., index, ...] along dim in place.
// value has the shape of index.
func SetIndexOneHotTensor(t *tensor.Tensor, dim int, index *tensor.IntTensor, value *tensor.Tensor) *tensor.Tensor {
	return t.ScatterInPlace(dim, index.Unsqueeze(dim), value.Unsqueeze(dim))
}

// IndexOneHotEllipsis selects t[i..., index[i], ...] where the leading dims
// before dim are flattened and index has one entry per flattened row.
func IndexOneHotEllipsis(t *tensor.Tensor, dim int, index *tensor.IntTensor) *tensor.Tensor {
	shape := t.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	outer, n, inner := prod(shape[:dim]), shape[dim], prod(shape[dim+1:])
	if index.Size() != outer {
		panic(fmt.Sprintf("functional: index of size %d for %d leading rows", index.Size(), outer))
	}

	src := t.Data()
	out := tensor.New(ConcatShape(shape[:dim], shape[dim+1:])...)
	dst := out.Data()
	for o, k := range index.Data() {
		if k < 0 || k >= n {
			panic(fmt.Sprintf("functional: index %d out of range [0,%d)", k, n))
		}
		base := (o*n + k) * inner
		copy(dst[o*inner:(o+1)*inner], src[base:base+inner])
	}
	return out
}
