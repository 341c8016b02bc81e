package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MatMul multiplies two 2-D tensors: [m,k] x [k,n] -> [m,n].
func MatMul(a, b *Tensor) *Tensor {
	if len(a.shape) != 2 || len(b.shape) != 2 {
		panic(fmt.Sprintf("tensor: matmul needs 2-D tensors, got %v and %v", a.shape, b.shape))
	}
	m, k := a.shape[0], a.shape[1]
	k2, n := b.shape[0], b.shape[1]
	if k != k2 {
		panic(fmt.Sprintf("tensor: matmul shape mismatch %v x %v", a.shape, b.shape))
	}
	out := New(m, n)
	matmulInto(out.data, a.data, b.data, m, k, n)
	return out
}

// BMM multiplies batches of matrices: [B,m,k] x [B,k,n] -> [B,m,n].
func BMM(a, b *Tensor) *Tensor {
	if len(a.shape) != 3 || len(b.shape) != 3 {
		panic(fmt.Sprintf("tensor: bmm needs 3-D tensors, got %v and %v", a.shape, b.shape))
	}
	batch, m, k := a.shape[0], a.shape[1], a.shape[2]
	if b.shape[0] != batch || b.shape[1] != k {
		panic(fmt.Sprintf("tensor: bmm shape mismatch %v x %v", a.shape, b.shape))
	}
	n := b.shape[2]
	out := New(batch, m, n)
	for i := 0; i < batch; i++ {
		matmulInto(out.data[i*m*n:(i+1)*m*n], a.data[i*m*k:(i+1)*m*k], b.data[i*k*n:(i+1)*k*n], m, k, n)
	}
	return out
}

// matmulInto writes a[m,k] x b[k,n] into dst. gonum rejects zero-sized
// matrices, so empty products are left as zeros.
func matmulInto(dst, a, b []float64, m, k, n int) {
	if m == 0 || n == 0 || k == 0 {
		return
	}
	c := mat.NewDense(m, n, dst)
	c.Mul(mat.NewDense(m, k, a), mat.NewDense(k, n, b))
}
