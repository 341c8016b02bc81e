package tensor

import "fmt"

// inferShape resolves a single -1 entry against size.
func inferShape(shape []int, size int) []int {
	out := cloneInts(shape)
	infer := -1
	known := 1
	for i, d := range out {
		switch {
		case d == -1:
			if infer >= 0 {
				panic(fmt.Sprintf("tensor: only one dim may be -1 in %v", shape))
			}
			infer = i
		case d < 0:
			panic(fmt.Sprintf("tensor: invalid dim %d in %v", d, shape))
		default:
			known *= d
		}
	}
	if infer >= 0 {
		if known == 0 || size%known != 0 {
			panic(fmt.Sprintf("tensor: cannot infer -1 in %v for size %d", shape, size))
		}
		out[infer] = size / known
		known *= out[infer]
	}
	if known != size {
		panic(fmt.Sprintf("tensor: cannot view size %d as %v", size, shape))
	}
	return out
}

func unsqueezeShape(shape []int, dim int) []int {
	dim = normDim(dim, len(shape)+1)
	out := make([]int, 0, len(shape)+1)
	out = append(out, shape[:dim]...)
	out = append(out, 1)
	return append(out, shape[dim:]...)
}

// View returns a tensor sharing storage with t under a new shape.
// One dim may be -1 and is inferred.
func (t *Tensor) View(shape ...int) *Tensor {
	return &Tensor{data: t.data, shape: inferShape(shape, len(t.data)), grad: t.grad}
}

// Reshape is an alias of View; storage is always contiguous.
func (t *Tensor) Reshape(shape ...int) *Tensor {
	return t.View(shape...)
}

// Unsqueeze inserts a dim of size 1 at dim.
func (t *Tensor) Unsqueeze(dim int) *Tensor {
	return &Tensor{data: t.data, shape: unsqueezeShape(t.shape, dim), grad: t.grad}
}

// Squeeze removes dim when its size is 1; otherwise the shape is unchanged.
func (t *Tensor) Squeeze(dim int) *Tensor {
	dim = normDim(dim, len(t.shape))
	if t.shape[dim] != 1 {
		return t.View(t.shape...)
	}
	shape := make([]int, 0, len(t.shape)-1)
	shape = append(shape, t.shape[:dim]...)
	shape = append(shape, t.shape[dim+1:]...)
	return &Tensor{data: t.data, shape: shape, grad: t.grad}
}

// Permute returns a contiguous copy with dims reordered so that
// out.shape[i] == t.shape[dims[i]].
func (t *Tensor) Permute(dims ...int) *Tensor {
	rank := len(t.shape)
	if len(dims) != rank {
		panic(fmt.Sprintf("tensor: permute needs %d dims, got %v", rank, dims))
	}
	seen := make([]bool, rank)
	perm := make([]int, rank)
	outShape := make([]int, rank)
	for i, d := range dims {
		d = normDim(d, rank)
		if seen[d] {
			panic(fmt.Sprintf("tensor: repeated dim in permutation %v", dims))
		}
		seen[d] = true
		perm[i] = d
		outShape[i] = t.shape[d]
	}

	out := New(outShape...)
	inStrides := strides(t.shape)
	srcStrides := make([]int, rank)
	for i, d := range perm {
		srcStrides[i] = inStrides[d]
	}
	counter := make([]int, rank)
	src := 0
	for i := range out.data {
		out.data[i] = t.data[src]
		for d := rank - 1; d >= 0; d-- {
			counter[d]++
			src += srcStrides[d]
			if counter[d] < outShape[d] {
				break
			}
			src -= srcStrides[d] * outShape[d]
			counter[d] = 0
		}
	}
	return out
}

// Transpose swaps two dims and returns a contiguous copy.
func (t *Tensor) Transpose(d0, d1 int) *Tensor {
	rank := len(t.shape)
	dims := make([]int, rank)
	for i := range dims {
		dims[i] = i
	}
	d0, d1 = normDim(d0, rank), normDim(d1, rank)
	dims[d0], dims[d1] = dims[d1], dims[d0]
	return t.Permute(dims...)
}

// MoveDim moves dim src to position dst, keeping the order of the others.
func (t *Tensor) MoveDim(src, dst int) *Tensor {
	rank := len(t.shape)
	src, dst = normDim(src, rank), normDim(dst, rank)
	dims := make([]int, 0, rank)
	for i := 0; i < rank; i++ {
		if i != src {
			dims = append(dims, i)
		}
	}
	dims = append(dims[:dst], append([]int{src}, dims[dst:]...)...)
	return t.Permute(dims...)
}

// Contiguous returns a copy with its own storage.
func (t *Tensor) Contiguous() *Tensor {
	return t.Detach()
}

// Flip reverses the order of elements along dim.
func (t *Tensor) Flip(dim int) *Tensor {
	dim = normDim(dim, len(t.shape))
	outer, n, inner := splitAt(t.shape, dim)
	out := New(t.shape...)
	for o := 0; o < outer; o++ {
		for k := 0; k < n; k++ {
			src := (o*n + k) * inner
			dst := (o*n + n - 1 - k) * inner
			copy(out.data[dst:dst+inner], t.data[src:src+inner])
		}
	}
	return out
}

// Stack joins tensors of equal shape along a new leading dim.
func Stack(ts []*Tensor) *Tensor {
	if len(ts) == 0 {
		panic("tensor: stack of zero tensors")
	}
	inner := ts[0].shape
	out := New(append([]int{len(ts)}, inner...)...)
	size := ts[0].Size()
	for i, x := range ts {
		if !ShapeEqual(x.shape, inner) {
			panic(fmt.Sprintf("tensor: stack shape mismatch %v vs %v", x.shape, inner))
		}
		copy(out.data[i*size:(i+1)*size], x.data)
	}
	return out
}
