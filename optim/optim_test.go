package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhissng/synapse/tensor"
)

// quadratic sets grad = p - target, the gradient of 0.5*|p - target|^2.
func quadratic(p *tensor.Tensor, target float64) {
	for i, v := range p.Data() {
		p.Grad()[i] = v - target
	}
}

func TestSGDStep(t *testing.T) {
	p := tensor.Param(tensor.FromSlice([]float64{1, 2}, 2))
	frozen := tensor.Ones(2)
	opt := NewSGD([]*tensor.Tensor{p, frozen}, 0.1)

	p.AccumulateGrad(tensor.FromSlice([]float64{1, -1}, 2))
	opt.Step()
	assert.InDeltaSlice(t, []float64{0.9, 2.1}, p.Data(), 1e-12)
	assert.Equal(t, []float64{1, 1}, frozen.Data(), "parameters without RequiresGrad are left alone")

	opt.ZeroGrad()
	assert.Equal(t, []float64{0, 0}, p.Grad())
}

func TestSGDMomentumConverges(t *testing.T) {
	p := tensor.Param(tensor.Full(5, 3))
	opt := NewSGD([]*tensor.Tensor{p}, 0.1, WithMomentum(0.9), WithSGDWeightDecay(0))
	for i := 0; i < 300; i++ {
		opt.ZeroGrad()
		quadratic(p, 2)
		opt.Step()
	}
	assert.InDeltaSlice(t, []float64{2, 2, 2}, p.Data(), 1e-3)
}

func TestAdamWConverges(t *testing.T) {
	p := tensor.Param(tensor.Full(3, 4))
	opt := NewAdamW([]*tensor.Tensor{p}, 0.05, WithWeightDecay(0))
	for i := 0; i < 1000; i++ {
		opt.ZeroGrad()
		quadratic(p, -1)
		opt.Step()
	}
	assert.InDeltaSlice(t, []float64{-1, -1, -1, -1}, p.Data(), 5e-2)
}

func TestAdamWDecoupledDecay(t *testing.T) {
	p := tensor.Param(tensor.Full(1, 1))
	opt := NewAdamW([]*tensor.Tensor{p}, 0.1, WithWeightDecay(0.5))
	opt.Step()
	// zero gradient: only the decay term moves the weight
	assert.InDelta(t, 0.95, p.Data()[0], 1e-12)
}

func TestAdamWStateRoundTrip(t *testing.T) {
	p := tensor.Param(tensor.Full(1, 2))
	opt := NewAdamW([]*tensor.Tensor{p}, 0.01)
	quadratic(p, 0)
	opt.Step()

	state := opt.StateDict()
	assert.Equal(t, "adamw", state.Name)
	assert.Equal(t, 1, state.Step)
	assert.Len(t, state.Buffers, 2)

	q := tensor.Param(tensor.Full(1, 2))
	restored := NewAdamW([]*tensor.Tensor{q}, 0.5)
	require.NoError(t, restored.LoadStateDict(state))
	assert.Equal(t, 0.01, restored.LearningRate())
	assert.Equal(t, state.Buffers, restored.StateDict().Buffers)

	assert.Error(t, NewSGD([]*tensor.Tensor{q}, 0.1).LoadStateDict(state))

	state.Buffers["m.0"] = []float64{1}
	assert.Error(t, restored.LoadStateDict(state))
}

func TestMismatchedStateLeavesOptimizerUntouched(t *testing.T) {
	p := tensor.Param(tensor.Full(1, 2))
	opt := NewAdamW([]*tensor.Tensor{p}, 0.1)
	before := opt.StateDict()

	err := opt.LoadStateDict(State{
		Name: "adamw",
		LR:   0.5,
		Step: 9,
		Buffers: map[string][]float64{
			"m.0": {7, 7},
			"v.0": {1, 2, 3},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "v.0")
	assert.Equal(t, before, opt.StateDict())

	sgd := NewSGD([]*tensor.Tensor{p}, 0.1, WithMomentum(0.9))
	require.Error(t, sgd.LoadStateDict(State{Name: "sgd", LR: 0.5, Buffers: map[string][]float64{"velocity.0": {1}}}))
	assert.Equal(t, 0.1, sgd.LearningRate())
}

func TestAccumGradStepsEveryN(t *testing.T) {
	p := tensor.Param(tensor.Zeros(1))
	base := NewSGD([]*tensor.Tensor{p}, 1)
	opt := NewAccumGrad(base, []*tensor.Tensor{p}, 3)
	assert.Equal(t, 3, opt.NrAcc())

	for i, g := range []float64{3, 6, 9} {
		opt.ZeroGrad()
		p.Grad()[0] = g
		opt.Step()
		if i < 2 {
			assert.Equal(t, 0.0, p.Data()[0], "no update before the %d-th call", 3)
		}
	}
	assert.InDelta(t, -6.0, p.Data()[0], 1e-12)

	opt.SetLearningRate(0.5)
	assert.Equal(t, 0.5, base.LearningRate())
}
