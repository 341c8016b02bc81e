package optim

import "github.com/abhissng/synapse/tensor"

// AccumGrad wraps an optimizer so that it steps once every n calls to Step,
// with the gradients of those n calls averaged.
type AccumGrad struct {
	base    Optimizer
	params  []*tensor.Tensor
	n       int
	current int
	acc     [][]float64
}

// NewAccumGrad wraps base, which must optimise params. n < 1 is treated as 1.
func NewAccumGrad(base Optimizer, params []*tensor.Tensor, n int) *AccumGrad {
	ps := trainable(params)
	return &AccumGrad{base: base, params: ps, n: max(n, 1), acc: newBuffers(ps)}
}

// NrAcc returns the number of calls folded into each real update.
func (a *AccumGrad) NrAcc() int { return a.n }

// Base returns the wrapped optimizer.
func (a *AccumGrad) Base() Optimizer { return a.base }

// Step accumulates the current gradients and updates on every n-th call.
func (a *AccumGrad) Step() {
	for i, p := range a.params {
		for j, g := range p.Grad() {
			a.acc[i][j] += g
		}
	}
	a.current++
	if a.current < a.n {
		return
	}

	scale := 1 / float64(a.n)
	for i, p := range a.params {
		grad := p.Grad()
		for j := range grad {
			grad[j] = a.acc[i][j] * scale
			a.acc[i][j] = 0
		}
	}
	a.base.Step()
	a.current = 0
}

// ZeroGrad clears the live gradients; the accumulation buffer is kept.
func (a *AccumGrad) ZeroGrad() { a.base.ZeroGrad() }

// LearningRate returns the wrapped optimizer's learning rate.
func (a *AccumGrad) LearningRate() float64 { return a.base.LearningRate() }

// SetLearningRate sets the wrapped optimizer's learning rate.
func (a *AccumGrad) SetLearningRate(lr float64) { a.base.SetLearningRate(lr) }

// StateDict returns the wrapped optimizer's state.
func (a *AccumGrad) StateDict() State { return a.base.StateDict() }

// LoadStateDict restores the wrapped optimizer's state.
func (a *AccumGrad) LoadStateDict(state State) error { return a.base.LoadStateDict(state) }
