package tensor

import (
	"fmt"
	"math"
)

// BroadcastShapes returns the NumPy broadcast of two shapes.
func BroadcastShapes(a, b []int) []int {
	rank := max(len(a), len(b))
	out := make([]int, rank)
	for i := 0; i < rank; i++ {
		da, db := 1, 1
		if j := len(a) - rank + i; j >= 0 {
			da = a[j]
		}
		if j := len(b) - rank + i; j >= 0 {
			db = b[j]
		}
		switch {
		case da == db, db == 1:
			out[i] = da
		case da == 1:
			out[i] = db
		default:
			panic(fmt.Sprintf("tensor: shapes %v and %v are not broadcastable", a, b))
		}
	}
	return out
}

// broadcastStrides returns strides of shape viewed as out, zero on broadcast dims.
func broadcastStrides(shape, out []int) []int {
	st := strides(shape)
	res := make([]int, len(out))
	off := len(out) - len(shape)
	for i := range shape {
		if shape[i] != 1 {
			res[off+i] = st[i]
		}
	}
	return res
}

// Binary applies f elementwise with broadcasting.
func Binary(a, b *Tensor, f func(x, y float64) float64) *Tensor {
	if ShapeEqual(a.shape, b.shape) {
		out := New(a.shape...)
		for i := range out.data {
			out.data[i] = f(a.data[i], b.data[i])
		}
		return out
	}

	shape := BroadcastShapes(a.shape, b.shape)
	out := New(shape...)
	if out.Size() == 0 {
		return out
	}
	sa, sb := broadcastStrides(a.shape, shape), broadcastStrides(b.shape, shape)
	counter := make([]int, len(shape))
	ia, ib := 0, 0
	for i := range out.data {
		out.data[i] = f(a.data[ia], b.data[ib])
		for d := len(shape) - 1; d >= 0; d-- {
			counter[d]++
			ia += sa[d]
			ib += sb[d]
			if counter[d] < shape[d] {
				break
			}
			ia -= sa[d] * shape[d]
			ib -= sb[d] * shape[d]
			counter[d] = 0
		}
	}
	return out
}

// Add returns a + b.
func Add(a, b *Tensor) *Tensor {
	return Binary(a, b, func(x, y float64) float64 { return x + y })
}

// Sub returns a - b.
func Sub(a, b *Tensor) *Tensor {
	return Binary(a, b, func(x, y float64) float64 { return x - y })
}

// Mul returns a * b elementwise.
func Mul(a, b *Tensor) *Tensor {
	return Binary(a, b, func(x, y float64) float64 { return x * y })
}

// Div returns a / b elementwise.
func Div(a, b *Tensor) *Tensor {
	return Binary(a, b, func(x, y float64) float64 { return x / y })
}

// Maximum returns the elementwise maximum.
func Maximum(a, b *Tensor) *Tensor {
	return Binary(a, b, math.Max)
}

// Minimum returns the elementwise minimum.
func Minimum(a, b *Tensor) *Tensor {
	return Binary(a, b, math.Min)
}

// Apply returns f applied to every element.
func (t *Tensor) Apply(f func(float64) float64) *Tensor {
	out := New(t.shape...)
	for i, v := range t.data {
		out.data[i] = f(v)
	}
	return out
}

// Exp returns e^t.
func (t *Tensor) Exp() *Tensor { return t.Apply(math.Exp) }

// Log returns the natural logarithm of t.
func (t *Tensor) Log() *Tensor { return t.Apply(math.Log) }

// Abs returns |t|.
func (t *Tensor) Abs() *Tensor { return t.Apply(math.Abs) }

// Neg returns -t.
func (t *Tensor) Neg() *Tensor { return t.Scale(-1) }

// Scale returns s * t.
func (t *Tensor) Scale(s float64) *Tensor {
	return t.Apply(func(v float64) float64 { return v * s })
}

// AddScalar returns t + s.
func (t *Tensor) AddScalar(s float64) *Tensor {
	return t.Apply(func(v float64) float64 { return v + s })
}

// AllClose reports whether a and b have equal shape and values within tol.
func AllClose(a, b *Tensor, tol float64) bool {
	if !ShapeEqual(a.shape, b.shape) {
		return false
	}
	for i := range a.data {
		if math.Abs(a.data[i]-b.data[i]) > tol {
			return false
		}
	}
	return true
}
