package tensor

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndAccessors(t *testing.T) {
	x := New(2, 3)
	assert.Equal(t, []int{2, 3}, x.Shape())
	assert.Equal(t, 6, x.Size())
	assert.Equal(t, 2, x.Dims())

	x.Set(5, 1, 2)
	assert.Equal(t, 5.0, x.At(1, 2))
	assert.Equal(t, 5.0, x.Data()[5])
	assert.Equal(t, 3, x.Dim(-1))

	assert.Panics(t, func() { x.At(2, 0) })
	assert.Panics(t, func() { x.At(0) })
	assert.Panics(t, func() { FromSlice([]float64{1, 2, 3}, 2, 2) })
}

func TestScalarItem(t *testing.T) {
	s := Scalar(3.5)
	assert.Equal(t, 0, s.Dims())
	assert.Equal(t, 3.5, s.Item())
	assert.Panics(t, func() { Ones(2).Item() })
}

func TestGradLifecycle(t *testing.T) {
	p := Param(Ones(2, 2))
	assert.True(t, p.RequiresGrad)
	p.AccumulateGrad(Full(2, 2, 2))
	p.AccumulateGrad(Full(1, 2, 2))
	assert.Equal(t, []float64{3, 3, 3, 3}, p.Grad())

	c := p.Clone()
	p.ZeroGrad()
	assert.Equal(t, []float64{0, 0, 0, 0}, p.Grad())
	assert.Equal(t, []float64{3, 3, 3, 3}, c.Grad())
}

func TestRandNIsSeeded(t *testing.T) {
	a := RandN(rand.New(rand.NewSource(7)), 0.1, 3, 4)
	b := RandN(rand.New(rand.NewSource(7)), 0.1, 3, 4)
	assert.Equal(t, a.Data(), b.Data())
}

func TestViewInfersDim(t *testing.T) {
	x := Arange(12)
	v := x.View(3, -1)
	assert.Equal(t, []int{3, 4}, v.Shape())

	v.Set(100, 0, 0)
	assert.Equal(t, 100.0, x.At(0), "view shares storage")

	assert.Panics(t, func() { x.View(5, -1) })
	assert.Panics(t, func() { x.View(-1, -1) })
}

func TestSqueezeUnsqueeze(t *testing.T) {
	x := New(2, 3)
	assert.Equal(t, []int{2, 1, 3}, x.Unsqueeze(1).Shape())
	assert.Equal(t, []int{2, 3, 1}, x.Unsqueeze(-1).Shape())
	assert.Equal(t, []int{2, 3}, x.Unsqueeze(1).Squeeze(1).Shape())
	assert.Equal(t, []int{2, 3}, x.Squeeze(0).Shape(), "non-unit dim is kept")
}

func TestTransposeAndPermute(t *testing.T) {
	x := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	xt := x.Transpose(0, 1)
	assert.Equal(t, []int{3, 2}, xt.Shape())
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, xt.Data())

	y := Arange(24).View(2, 3, 4)
	p := y.Permute(2, 0, 1)
	assert.Equal(t, []int{4, 2, 3}, p.Shape())
	assert.Equal(t, y.At(1, 2, 3), p.At(3, 1, 2))

	m := y.MoveDim(0, -1)
	assert.Equal(t, []int{3, 4, 2}, m.Shape())
	assert.Equal(t, y.At(1, 0, 2), m.At(0, 2, 1))
}

func TestFlip(t *testing.T) {
	x := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	assert.Equal(t, []float64{3, 2, 1, 6, 5, 4}, x.Flip(-1).Data())
	assert.Equal(t, []float64{4, 5, 6, 1, 2, 3}, x.Flip(0).Data())
}

func TestBroadcasting(t *testing.T) {
	a := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	row := FromSlice([]float64{10, 20, 30}, 3)
	col := FromSlice([]float64{100, 200}, 2, 1)

	assert.Equal(t, []float64{11, 22, 33, 14, 25, 36}, Add(a, row).Data())
	assert.Equal(t, []float64{101, 102, 103, 204, 205, 206}, Add(a, col).Data())

	outer := Mul(col, row)
	assert.Equal(t, []int{2, 3}, outer.Shape())
	assert.Equal(t, []float64{1000, 2000, 3000, 2000, 4000, 6000}, outer.Data())

	assert.Equal(t, []float64{2, 4, 6, 8, 10, 12}, Add(a, a).Data())
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5}, Sub(a, Scalar(1)).Data())

	assert.Panics(t, func() { Add(a, New(2)) })
}

func TestUnary(t *testing.T) {
	x := FromSlice([]float64{-1, 0, 2}, 3)
	assert.Equal(t, []float64{1, 0, 2}, x.Abs().Data())
	assert.Equal(t, []float64{1, 0, -2}, x.Neg().Data())
	assert.Equal(t, []float64{0, 1, 3}, x.AddScalar(1).Data())
	assert.InDelta(t, math.Exp(2), x.Exp().At(2), 1e-9)
	assert.InDelta(t, math.Log(2), x.Log().At(2), 1e-12)
	assert.Equal(t, []float64{-1, 0, 2}, Maximum(x, Scalar(-5)).Data())
}

func TestReductions(t *testing.T) {
	x := FromSlice([]float64{1, 5, 3, 4, 2, 6}, 2, 3)

	assert.Equal(t, []float64{5, 7, 9}, x.Sum(0, false).Data())
	assert.Equal(t, []float64{9, 12}, x.Sum(-1, false).Data())
	assert.Equal(t, []int{2, 1}, x.Sum(1, true).Shape())
	assert.Equal(t, []float64{3, 4}, x.Mean(1, false).Data())

	values, indices := x.Max(1, false)
	assert.Equal(t, []float64{5, 6}, values.Data())
	assert.Equal(t, []int{1, 2}, indices.Data())

	cols := x.Argmax(0, false)
	assert.Equal(t, []int{1, 0, 1}, cols.Data())

	assert.Equal(t, 21.0, x.SumAll())
	assert.Equal(t, 3.5, x.MeanAll())
}

func TestMatMul(t *testing.T) {
	a := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	b := FromSlice([]float64{7, 8, 9, 10, 11, 12}, 3, 2)
	c := MatMul(a, b)
	assert.Equal(t, []int{2, 2}, c.Shape())
	assert.Equal(t, []float64{58, 64, 139, 154}, c.Data())

	assert.Equal(t, []int{2, 0}, MatMul(a, New(3, 0)).Shape())
	assert.Panics(t, func() { MatMul(a, a) })
}

func TestBMM(t *testing.T) {
	a := Stack([]*Tensor{Ones(2, 3), Full(2, 2, 3)})
	b := Stack([]*Tensor{Ones(3, 1), Ones(3, 1)})
	c := BMM(a, b)
	require.Equal(t, []int{2, 2, 1}, c.Shape())
	assert.Equal(t, []float64{3, 3, 6, 6}, c.Data())
}

func TestGatherScatter(t *testing.T) {
	x := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	idx := IntFromSlice([]int{2, 0}, 2, 1)

	g := x.Gather(1, idx)
	assert.Equal(t, []int{2, 1}, g.Shape())
	assert.Equal(t, []float64{3, 4}, g.Data())

	s := x.ScatterValue(1, idx, 0)
	assert.Equal(t, []float64{1, 2, 0, 0, 5, 6}, s.Data())
	assert.Equal(t, 3.0, x.At(0, 2), "out-of-place scatter leaves the source intact")

	x.ScatterInPlace(1, idx, FromSlice([]float64{-1, -2}, 2, 1))
	assert.Equal(t, []float64{1, 2, -1, -2, 5, 6}, x.Data())

	assert.Panics(t, func() { x.Gather(1, IntFromSlice([]int{3, 0}, 2, 1)) })
}

func TestIntTensor(t *testing.T) {
	i := IntFromSlice([]int{0, 2, 1})
	assert.Equal(t, []int{3}, i.Shape())
	assert.Equal(t, []int{3, 1}, i.Unsqueeze(1).Shape())
	assert.Equal(t, []float64{0, 2, 1}, i.Float().Data())
	assert.True(t, i.Equal(i.Clone()))
}
