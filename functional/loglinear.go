package functional

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/abhissng/synapse/tensor"
)

func logAddExp(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}
	return math.Max(a, b) + math.Log1p(math.Exp(-math.Abs(b-a)))
}

// LogAddExp returns log(exp(x) + exp(y)) elementwise, with broadcasting.
func LogAddExp(x, y *tensor.Tensor) *tensor.Tensor {
	return tensor.Binary(x, y, logAddExp)
}

// LogSumExp returns log(sum(exp(x))) along dim, shifted by the lane maximum.
func LogSumExp(x *tensor.Tensor, dim int, keepdim bool) *tensor.Tensor {
	return x.Reduce(dim, keepdim, floats.LogSumExp)
}

// LogMatMulExp multiplies a [..., k] by b [k, ...] in log space:
// out[i, j] = logsumexp_k(a[i, k] + b[k, j]).
//
// With useMM the product runs through an ordinary matmul on exp-shifted rows,
// which is faster but loses precision when rows span a wide dynamic range.
func LogMatMulExp(a, b *tensor.Tensor, useMM bool) *tensor.Tensor {
	aShape, bShape := a.Shape(), b.Shape()
	k := aShape[len(aShape)-1]
	m1 := a.View(-1, k)
	m2 := b.MoveDim(0, -1).View(-1, bShape[0])

	var out *tensor.Tensor
	if useMM {
		m1Max, _ := m1.Max(-1, true)
		m2Max, _ := m2.Max(-1, true)
		e1 := tensor.Sub(m1, m1Max).Exp()
		e2 := tensor.Sub(m2, m2Max).Exp()
		out = tensor.MatMul(e1, e2.Transpose(0, 1)).Log()
		out = tensor.Add(tensor.Add(out, m1Max), m2Max.Transpose(0, 1))
	} else {
		sum := tensor.Add(m1.Unsqueeze(1), m2.Unsqueeze(0))
		out = LogSumExp(sum, -1, false)
	}
	return out.View(ConcatShape(aShape[:len(aShape)-1], bShape[1:])...)
}

// BatchLogMatMulExp is LogMatMulExp over a leading batch dim:
// a [B, ..., k] by b [B, k, ...].
func BatchLogMatMulExp(a, b *tensor.Tensor, useMM bool) *tensor.Tensor {
	aShape, bShape := a.Shape(), b.Shape()
	batch, k := aShape[0], aShape[len(aShape)-1]
	m1 := a.View(batch, -1, k)
	m2 := b.MoveDim(1, -1).View(bShape[0], -1, bShape[1])

	var out *tensor.Tensor
	if useMM {
		m1Max, _ := m1.Max(-1, true)
		m2Max, _ := m2.Max(-1, true)
		e1 := tensor.Sub(m1, m1Max).Exp()
		e2 := tensor.Sub(m2, m2Max).Exp()
		out = tensor.BMM(e1, e2.Permute(0, 2, 1)).Log()
		out = tensor.Add(tensor.Add(out, m1Max), m2Max.Permute(0, 2, 1))
	} else {
		sum := tensor.Add(m1.Unsqueeze(2), m2.Unsqueeze(1))
		out = LogSumExp(sum, -1, false)
	}
	return out.View(ConcatShape(aShape[:len(aShape)-1], bShape[2:])...)
}

// LogitsAnd returns the log-odds of (x AND y) for independent events given as log-odds.
func LogitsAnd(x, y *tensor.Tensor) *tensor.Tensor {
	t := tensor.Add(x, y).Scale(0.5)
	half := tensor.Sub(x, y).Scale(0.5)
	f := LogAddExp(LogAddExp(half, half.Neg()), t.Neg())
	return tensor.Sub(t, f)
}

// LogitsOr returns the log-odds of (x OR y) for independent events given as log-odds.
func LogitsOr(x, y *tensor.Tensor) *tensor.Tensor {
	f := tensor.Add(x, y).Scale(-0.5)
	half := tensor.Sub(x, y).Scale(0.5)
	t := LogAddExp(LogAddExp(half, half.Neg()), f.Neg())
	return tensor.Sub(t, f)
}
