package tensor

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

func reducedShape(shape []int, dim int, keepdim bool) []int {
	if keepdim {
		out := cloneInts(shape)
		out[dim] = 1
		return out
	}
	out := make([]int, 0, len(shape)-1)
	out = append(out, shape[:dim]...)
	return append(out, shape[dim+1:]...)
}

// reduce folds dim with f over each strided lane.
func (t *Tensor) reduce(dim int, keepdim bool, f func(lane []float64) float64) *Tensor {
	dim = normDim(dim, len(t.shape))
	outer, n, inner := splitAt(t.shape, dim)
	out := New(reducedShape(t.shape, dim, keepdim)...)
	lane := make([]float64, n)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o * n * inner
			if inner == 1 {
				out.data[o] = f(t.data[base : base+n])
				continue
			}
			for k := 0; k < n; k++ {
				lane[k] = t.data[base+k*inner+i]
			}
			out.data[o*inner+i] = f(lane)
		}
	}
	return out
}

// Sum reduces dim by summation.
func (t *Tensor) Sum(dim int, keepdim bool) *Tensor {
	return t.reduce(dim, keepdim, floats.Sum)
}

// Mean reduces dim by averaging.
func (t *Tensor) Mean(dim int, keepdim bool) *Tensor {
	return t.reduce(dim, keepdim, func(lane []float64) float64 {
		if len(lane) == 0 {
			return math.NaN()
		}
		return floats.Sum(lane) / float64(len(lane))
	})
}

// Max reduces dim by maximum and returns the values and the index of the first maximum.
func (t *Tensor) Max(dim int, keepdim bool) (*Tensor, *IntTensor) {
	if t.shape[normDim(dim, len(t.shape))] == 0 {
		panic("tensor: max over an empty dim")
	}
	values := t.reduce(dim, keepdim, floats.Max)
	indices := t.Argmax(dim, keepdim)
	return values, indices
}

// Argmax returns the index of the first maximum along dim.
func (t *Tensor) Argmax(dim int, keepdim bool) *IntTensor {
	dim = normDim(dim, len(t.shape))
	if t.shape[dim] == 0 {
		panic("tensor: argmax over an empty dim")
	}
	outer, n, inner := splitAt(t.shape, dim)
	out := NewInt(reducedShape(t.shape, dim, keepdim)...)
	for o := 0; o < outer; o++ {
		base := o * n * inner
		for i := 0; i < inner; i++ {
			if inner == 1 {
				out.data[o] = floats.MaxIdx(t.data[base : base+n])
				continue
			}
			best, bestIdx := t.data[base+i], 0
			for k := 1; k < n; k++ {
				if v := t.data[base+k*inner+i]; v > best {
					best, bestIdx = v, k
				}
			}
			out.data[o*inner+i] = bestIdx
		}
	}
	return out
}

// SumAll returns the sum of all elements.
func (t *Tensor) SumAll() float64 {
	return floats.Sum(t.data)
}

// MeanAll returns the mean of all elements.
func (t *Tensor) MeanAll() float64 {
	if len(t.data) == 0 {
		return math.NaN()
	}
	return floats.Sum(t.data) / float64(len(t.data))
}

// Reduce folds dim with f, called once per lane of values along dim.
// The lane slice is reused between calls.
func (t *Tensor) Reduce(dim int, keepdim bool, f func(lane []float64) float64) *Tensor {
	return t.reduce(dim, keepdim, f)
}
