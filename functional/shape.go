package functional

import "github.com/abhissng/synapse/tensor"

// ConcatShape joins shapes into one.
func ConcatShape(shapes ...[]int) []int {
	var n int
	for _, s := range shapes {
		n += len(s)
	}
	out := make([]int, 0, n)
	for _, s := range shapes {
		out = append(out, s...)
	}
	return out
}

// MoveDim moves dim src of t to dst.
func MoveDim(t *tensor.Tensor, src, dst int) *tensor.Tensor {
	return t.MoveDim(src, dst)
}

func prod(dims []int) int {
	p := 1
	for _, d := range dims {
		p *= d
	}
	return p
}
